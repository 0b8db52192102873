package arxiv

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"ArxivDigest/internal/domain"
	"ArxivDigest/internal/scanner"
)

// feedBaseURL serves the daily Atom feed per category list. Var for
// tests.
var feedBaseURL = "https://rss.arxiv.org/atom/"

// idResolver loads full metadata for base identifiers. Satisfied by
// *APIStrategy.
type idResolver interface {
	ResolveIDs(ctx context.Context, ids []string) ([]domain.Paper, error)
}

// FeedStrategy discovers the day's new identifiers through the arXiv
// Atom feed and resolves their metadata through the query API. The
// feed lags announcement by a few hours, so an empty result triggers
// a bounded sleep-and-retry loop.
type FeedStrategy struct {
	client   *http.Client
	resolver idResolver
	logger   *slog.Logger

	wait     time.Duration
	interval time.Duration
	sleep    func(time.Duration)
}

var _ scanner.Strategy = (*FeedStrategy)(nil)

// NewFeedStrategy wires the feed poller. wait bounds the cumulative
// retry budget, interval is the pause between polls.
func NewFeedStrategy(client *http.Client, resolver idResolver, wait, interval time.Duration, logger *slog.Logger) *FeedStrategy {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &FeedStrategy{
		client:   client,
		resolver: resolver,
		logger:   logger,
		wait:     wait,
		interval: interval,
		sleep:    time.Sleep,
	}
}

// Name identifies the strategy inside the registry.
func (s *FeedStrategy) Name() string {
	return "rss"
}

// Fetch polls the feed until it is populated or the wait budget runs
// out. Exhaustion returns the last fetch (possibly empty) without an
// error; an empty candidate set is a valid terminal outcome.
func (s *FeedStrategy) Fetch(ctx context.Context, req scanner.Request) ([]domain.Paper, error) {
	fetch := func(ctx context.Context) ([]domain.Paper, error) {
		return s.fetchOnce(ctx, req)
	}

	outcome, err := pollUntilPopulated(ctx, fetch, s.wait, s.interval, s.sleep)
	if err != nil {
		return nil, err
	}
	if outcome.State == PollExhausted && len(outcome.Papers) == 0 {
		s.debug("feed wait budget exhausted", "polls", outcome.Polls, "elapsed", outcome.Elapsed)
	}
	return outcome.Papers, nil
}

func (s *FeedStrategy) fetchOnce(ctx context.Context, req scanner.Request) ([]domain.Paper, error) {
	feedQuery := strings.TrimSpace(req.Query)
	if feedQuery == "" {
		return nil, fmt.Errorf("empty arxiv query")
	}

	feed, err := fetchAtom(ctx, s.client, feedBaseURL+feedQuery)
	if err != nil {
		return nil, err
	}
	if strings.Contains(feed.Title, "Feed error for query") {
		return nil, fmt.Errorf("invalid arxiv query %q", feedQuery)
	}

	ids := s.newIDs(feed, req)
	if len(ids) == 0 {
		return nil, nil
	}
	if req.MaxResults > 0 && len(ids) > req.MaxResults {
		ids = ids[:req.MaxResults]
	}

	papers, err := s.resolver.ResolveIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve feed ids: %w", err)
	}
	return papers, nil
}

// newIDs extracts deduplicated base identifiers announced as new
// inside the configured time window. Entries without an id are
// skipped one by one.
func (s *FeedStrategy) newIDs(feed *atomFeed, req scanner.Request) []string {
	seen := map[string]struct{}{}
	var ids []string
	for _, entry := range feed.Entries {
		// Missing announce type counts as new; anything else must
		// say so explicitly.
		if req.OnlyNew && entry.AnnounceType != "" && entry.AnnounceType != "new" {
			continue
		}
		if !req.Cutoff.IsZero() {
			if published := entryPublished(entry); !published.IsZero() && published.Before(req.Cutoff) {
				continue
			}
		}
		id := entryID(entry)
		if id == "" {
			s.debug("skipping malformed feed entry", "raw_id", entry.ID)
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

func (s *FeedStrategy) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
