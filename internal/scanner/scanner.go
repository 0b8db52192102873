package scanner

import (
	"context"
	"fmt"
	"time"

	"ArxivDigest/internal/domain"
)

// Page describes one concrete listing endpoint provided by config.
type Page struct {
	Name string
	URL  string
}

// Request carries all parameters required to execute one acquisition.
type Request struct {
	// Query is the raw configured query: either a category list like
	// "cs.AI+cs.CL" or an arXiv API search_query.
	Query string
	// Pages are listing endpoints, used by the listing strategy only.
	Pages []Page
	// Cutoff bounds the time window; zero means no cutoff. Fractional
	// day windows arrive here as hour-granularity cutoffs.
	Cutoff     time.Time
	MaxResults int
	OnlyNew    bool
}

// Strategy captures a single acquisition implementation (feed, API,
// listing pages).
type Strategy interface {
	Name() string
	Fetch(ctx context.Context, req Request) ([]domain.Paper, error)
}

// Registry keeps a mapping from strategy names to implementations.
type Registry struct {
	strategies map[string]Strategy
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{strategies: map[string]Strategy{}}
}

// Register adds or replaces a strategy implementation.
func (r *Registry) Register(strategy Strategy) {
	if r.strategies == nil {
		r.strategies = map[string]Strategy{}
	}
	r.strategies[strategy.Name()] = strategy
}

// Resolve returns a strategy by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Strategy, error) {
	if strategy, ok := r.strategies[name]; ok {
		return strategy, nil
	}
	return nil, fmt.Errorf("acquisition strategy %s is not registered", name)
}
