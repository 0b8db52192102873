package corpus

import (
	"context"
	"fmt"

	"ArxivDigest/internal/domain"
	"ArxivDigest/internal/ports"
)

// Corpus is the capped set of embedded profile items used as the
// similarity reference set. Every item carries a non-empty abstract.
type Corpus struct {
	Items   []domain.ProfileItem
	Vectors [][]float32
}

// Build filters out items without an abstract, caps the set to
// maxCorpus taking the first N in retrieval order, and embeds each
// surviving item once. An empty corpus is valid; ranking then scores
// everything zero.
func Build(ctx context.Context, items []domain.ProfileItem, maxCorpus int, embedder ports.Embedder) (*Corpus, error) {
	kept := make([]domain.ProfileItem, 0, len(items))
	for _, item := range items {
		if item.Abstract == "" {
			continue
		}
		kept = append(kept, item)
		if maxCorpus > 0 && len(kept) >= maxCorpus {
			break
		}
	}

	c := &Corpus{Items: kept}
	if len(kept) == 0 {
		return c, nil
	}

	texts := make([]string, len(kept))
	for i, item := range kept {
		texts[i] = item.EmbedText()
	}

	vectors, err := embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed corpus: %w", err)
	}
	c.Vectors = vectors
	return c, nil
}

// Len reports the number of embedded reference items.
func (c *Corpus) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Items)
}
