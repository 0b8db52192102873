package ports

import (
	"context"

	"ArxivDigest/internal/domain"
)

// Library pulls the user's reference items from the profile backend.
// Implementations drop entries without an abstract before returning.
type Library interface {
	FetchItems(ctx context.Context) ([]domain.ProfileItem, error)
}

// PaperSource fetches the day's candidate papers from arXiv.
type PaperSource interface {
	Fetch(ctx context.Context) ([]domain.Paper, error)
}

// Embedder turns texts into fixed-length vectors, one per input, in
// input order.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Completer issues a single chat completion and returns the assistant
// message content. wantJSON requests a JSON object response from
// backends that support structured output.
type Completer interface {
	Complete(ctx context.Context, system, user string, wantJSON bool) (string, error)
}

// Notifier delivers the final matches to one chat channel.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, matches []domain.PaperMatch) error
}
