package app

import (
	"context"
	"log/slog"
	"time"

	"ArxivDigest/internal/augment"
	"ArxivDigest/internal/config"
	"ArxivDigest/internal/infrastructure/arxiv"
	"ArxivDigest/internal/infrastructure/embedding"
	"ArxivDigest/internal/infrastructure/llm"
	"ArxivDigest/internal/infrastructure/zotero"
	"ArxivDigest/internal/logging"
	"ArxivDigest/internal/notify"
	"ArxivDigest/internal/ports"
	"ArxivDigest/internal/rank"
	"ArxivDigest/internal/scanner"
	"ArxivDigest/internal/usecase"
)

// Application wires configs to the pipeline.
type Application struct {
	cfg      config.Config
	pipeline *usecase.Pipeline
}

// New builds a runnable application instance. The channel check runs
// here, before any network call: a configuration without a webhook
// never starts fetching.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	notifier, err := notify.Select(cfg.Notify, cfg.Arxiv.Query, baseLogger.With("component", "notify"))
	if err != nil {
		return nil, err
	}

	api := arxiv.NewAPIStrategy(nil)
	registry := scanner.NewRegistry()
	registry.Register(api)
	registry.Register(arxiv.NewFeedStrategy(nil, api,
		time.Duration(cfg.Arxiv.RSSWaitMinutes)*time.Minute,
		time.Duration(cfg.Arxiv.RSSRetryMinutes)*time.Minute,
		baseLogger.With("component", "arxiv.rss")))
	registry.Register(arxiv.NewListingStrategy(nil))

	source := arxiv.NewSource(registry, cfg.Arxiv, baseLogger.With("component", "arxiv"))
	embedder := embedding.NewClient(cfg.Embedding)

	var completer ports.Completer
	if cfg.LLM.APIKey != "" {
		completer = llm.NewClient(cfg.LLM)
	}
	augmenter := augment.New(completer, cfg.LLM, baseLogger.With("component", "augment"))

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Library:   zotero.NewClient(cfg.Library),
		Source:    source,
		Embedder:  embedder,
		Ranker:    rank.New(embedder, cfg.Ranking),
		Augmenter: augmenter,
		Notifier:  notifier,
		MaxCorpus: cfg.Ranking.MaxCorpus,
		Logger:    baseLogger.With("component", "pipeline"),
	})

	return &Application{cfg: cfg, pipeline: pipeline}, nil
}

// Run performs one complete pass. Scheduling is an external trigger;
// there is no background work inside the process.
func (a *Application) Run(ctx context.Context) error {
	return a.pipeline.Run(ctx)
}
