package arxiv

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ArxivDigest/internal/config"
	"ArxivDigest/internal/domain"
	"ArxivDigest/internal/ports"
	"ArxivDigest/internal/scanner"
)

// Source implements ports.PaperSource by resolving the configured
// acquisition strategy from the registry and building its request
// from config. The day window supports fractional days, so the
// cutoff has hour granularity.
type Source struct {
	registry *scanner.Registry
	cfg      config.ArxivConfig
	logger   *slog.Logger
	now      func() time.Time
}

var _ ports.PaperSource = (*Source)(nil)

// NewSource wires registry and acquisition config.
func NewSource(reg *scanner.Registry, cfg config.ArxivConfig, logger *slog.Logger) *Source {
	return &Source{
		registry: reg,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// Fetch resolves the configured strategy and executes it.
func (s *Source) Fetch(ctx context.Context) ([]domain.Paper, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("acquisition registry is not configured")
	}

	strategy, err := s.registry.Resolve(s.cfg.Source)
	if err != nil {
		return nil, err
	}

	var cutoff time.Time
	if s.cfg.DaysBack > 0 {
		window := time.Duration(s.cfg.DaysBack * 24 * float64(time.Hour))
		cutoff = s.now().UTC().Add(-window)
	}

	req := scanner.Request{
		Query:      s.cfg.Query,
		Pages:      toScannerPages(s.cfg.Listing),
		Cutoff:     cutoff,
		MaxResults: s.cfg.MaxResults,
		OnlyNew:    config.Enabled(s.cfg.OnlyNew),
	}

	s.debug("fetch candidates", "strategy", strategy.Name(), "query", req.Query, "cutoff", cutoff)
	papers, err := strategy.Fetch(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("strategy %s: %w", strategy.Name(), err)
	}
	s.debug("strategy produced candidates", "strategy", strategy.Name(), "count", len(papers))
	return papers, nil
}

func toScannerPages(cfg []config.CategoryConfig) []scanner.Page {
	pages := make([]scanner.Page, 0, len(cfg))
	for _, cat := range cfg {
		pages = append(pages, scanner.Page{Name: cat.Name, URL: cat.URL})
	}
	return pages
}

func (s *Source) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
