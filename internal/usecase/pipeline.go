package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"ArxivDigest/internal/augment"
	"ArxivDigest/internal/corpus"
	"ArxivDigest/internal/domain"
	"ArxivDigest/internal/ports"
	"ArxivDigest/internal/rank"
)

// PipelineDeps wires all driven adapters into the orchestration
// pipeline.
type PipelineDeps struct {
	Library   ports.Library
	Source    ports.PaperSource
	Embedder  ports.Embedder
	Ranker    *rank.Ranker
	Augmenter *augment.Augmenter
	Notifier  ports.Notifier
	MaxCorpus int
	Logger    *slog.Logger
}

// Pipeline implements the single-pass discovery, ranking, and
// notification workflow. Each invocation starts cold; no state
// survives between runs.
type Pipeline struct {
	library   ports.Library
	source    ports.PaperSource
	embedder  ports.Embedder
	ranker    *rank.Ranker
	augmenter *augment.Augmenter
	notifier  ports.Notifier
	maxCorpus int
	logger    *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	return &Pipeline{
		library:   deps.Library,
		source:    deps.Source,
		embedder:  deps.Embedder,
		ranker:    deps.Ranker,
		augmenter: deps.Augmenter,
		notifier:  deps.Notifier,
		maxCorpus: deps.MaxCorpus,
		logger:    deps.Logger,
	}
}

// Run executes one complete pass: profile corpus, acquisition,
// similarity rerank, optional augmentation, notification. A fetch
// failure degrades to an empty candidate set; a run with zero matches
// still notifies so silence is never ambiguous.
func (p *Pipeline) Run(ctx context.Context) error {
	if p.notifier == nil {
		return fmt.Errorf("pipeline has no notifier")
	}

	items, err := p.library.FetchItems(ctx)
	if err != nil {
		return fmt.Errorf("fetch profile items: %w", err)
	}
	p.info("profile loaded", "items", len(items))

	profile, err := corpus.Build(ctx, items, p.maxCorpus, p.embedder)
	if err != nil {
		return fmt.Errorf("build corpus: %w", err)
	}
	p.info("corpus embedded", "size", profile.Len())

	candidates := p.acquire(ctx)
	p.info("candidates fetched", "count", len(candidates))

	matches, err := p.ranker.Rank(ctx, candidates, profile)
	if err != nil {
		return fmt.Errorf("rank candidates: %w", err)
	}
	p.info("candidates ranked", "kept", len(matches))

	matches = p.augmenter.Augment(ctx, matches)

	if err := p.notifier.Notify(ctx, matches); err != nil {
		return fmt.Errorf("notify via %s: %w", p.notifier.Name(), err)
	}
	p.info("digest dispatched", "channel", p.notifier.Name(), "matches", len(matches))
	return nil
}

// acquire contains fetch failures at the component boundary: an
// errored or exhausted acquisition yields an empty candidate set and
// the run proceeds to a "no matches" notification.
func (p *Pipeline) acquire(ctx context.Context) []domain.Paper {
	papers, err := p.source.Fetch(ctx)
	if err != nil {
		p.warn("candidate fetch failed, continuing with empty set", "error", err)
		return nil
	}
	return papers
}

func (p *Pipeline) info(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
