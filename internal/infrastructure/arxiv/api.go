package arxiv

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"ArxivDigest/internal/domain"
	"ArxivDigest/internal/scanner"
)

// apiBaseURL is the arXiv query endpoint. Declared as a var so tests
// can substitute an httptest server.
var apiBaseURL = "https://export.arxiv.org/api/query"

const resolveBatchSize = 20

// APIStrategy queries export.arxiv.org/api/query directly, newest
// submissions first.
type APIStrategy struct {
	client *http.Client
}

var _ scanner.Strategy = (*APIStrategy)(nil)

// NewAPIStrategy wires an HTTP client; nil gets a 20 s timeout default.
func NewAPIStrategy(client *http.Client) *APIStrategy {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &APIStrategy{client: client}
}

// Name identifies the strategy inside the registry.
func (s *APIStrategy) Name() string {
	return "api"
}

// Fetch runs one search per configured category (or one raw query),
// deduplicates by base id, drops entries older than the cutoff, and
// caps the merged set at req.MaxResults sorted newest first.
func (s *APIStrategy) Fetch(ctx context.Context, req scanner.Request) ([]domain.Paper, error) {
	categories := splitCategories(req.Query)

	queries := []string{apiSearchQuery(req.Query)}
	if len(categories) > 1 {
		queries = queries[:0]
		for _, cat := range categories {
			queries = append(queries, "cat:"+cat)
		}
	}

	dedup := map[string]struct{}{}
	var merged []domain.Paper
	for _, q := range queries {
		papers, err := s.search(ctx, q, req.MaxResults)
		if err != nil {
			return nil, err
		}
		for _, p := range papers {
			if !req.Cutoff.IsZero() && !p.PublishedAt.IsZero() && p.PublishedAt.Before(req.Cutoff) {
				continue
			}
			if _, ok := dedup[p.ID]; ok {
				continue
			}
			dedup[p.ID] = struct{}{}
			merged = append(merged, p)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].PublishedAt.After(merged[j].PublishedAt)
	})
	if req.MaxResults > 0 && len(merged) > req.MaxResults {
		merged = merged[:req.MaxResults]
	}
	return merged, nil
}

func (s *APIStrategy) search(ctx context.Context, searchQuery string, maxResults int) ([]domain.Paper, error) {
	if maxResults <= 0 {
		maxResults = 30
	}

	params := url.Values{}
	params.Set("search_query", searchQuery)
	params.Set("start", "0")
	params.Set("max_results", strconv.Itoa(maxResults))
	params.Set("sortBy", "submittedDate")
	params.Set("sortOrder", "descending")

	feed, err := fetchAtom(ctx, s.client, apiBaseURL+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", searchQuery, err)
	}

	papers := make([]domain.Paper, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		paper, ok := entryToPaper(entry)
		if !ok {
			continue
		}
		papers = append(papers, paper)
	}
	return papers, nil
}

// ResolveIDs loads full metadata for a list of base identifiers, in
// batches, preserving input order. Unknown ids are silently absent
// from the result.
func (s *APIStrategy) ResolveIDs(ctx context.Context, ids []string) ([]domain.Paper, error) {
	byID := make(map[string]domain.Paper, len(ids))
	for start := 0; start < len(ids); start += resolveBatchSize {
		end := start + resolveBatchSize
		if end > len(ids) {
			end = len(ids)
		}

		params := url.Values{}
		params.Set("id_list", strings.Join(ids[start:end], ","))
		params.Set("max_results", strconv.Itoa(end-start))

		feed, err := fetchAtom(ctx, s.client, apiBaseURL+"?"+params.Encode())
		if err != nil {
			return nil, fmt.Errorf("resolve ids: %w", err)
		}
		for _, entry := range feed.Entries {
			paper, ok := entryToPaper(entry)
			if !ok {
				continue
			}
			byID[paper.ID] = paper
		}
	}

	papers := make([]domain.Paper, 0, len(ids))
	for _, id := range ids {
		if paper, ok := byID[id]; ok {
			papers = append(papers, paper)
		}
	}
	return papers, nil
}
