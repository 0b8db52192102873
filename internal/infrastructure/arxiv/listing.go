package arxiv

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"ArxivDigest/internal/domain"
	"ArxivDigest/internal/scanner"
)

const arxivBaseURL = "https://arxiv.org"

var dateExpr = regexp.MustCompile(`\d{1,2} [A-Za-z]{3} \d{4}`)

// ListingStrategy crawls arxiv.org/list category pages and keeps the
// papers inside the configured window. The feed and API strategies
// are preferred; listing pages survive as a fallback for categories
// whose feeds misbehave.
type ListingStrategy struct {
	client   *http.Client
	pageSize int
}

var _ scanner.Strategy = (*ListingStrategy)(nil)

// NewListingStrategy wires an HTTP client; pageSize defaults to 200.
func NewListingStrategy(client *http.Client) *ListingStrategy {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &ListingStrategy{client: client, pageSize: 200}
}

// Name identifies the strategy inside the registry.
func (s *ListingStrategy) Name() string {
	return "listing"
}

// Fetch walks each configured page and returns the papers published
// at or after the cutoff, deduplicated by id and capped.
func (s *ListingStrategy) Fetch(ctx context.Context, req scanner.Request) ([]domain.Paper, error) {
	if len(req.Pages) == 0 {
		return nil, fmt.Errorf("no listing pages configured")
	}

	results := make([]domain.Paper, 0)
	seen := map[string]struct{}{}

	for _, page := range req.Pages {
		skip := 0
		for {
			pageURL, err := buildPageURL(page.URL, skip, s.pageSize)
			if err != nil {
				return nil, fmt.Errorf("page %s: %w", page.Name, err)
			}

			doc, err := s.fetchDocument(ctx, pageURL)
			if err != nil {
				return nil, fmt.Errorf("page %s: %w", page.Name, err)
			}

			papers, shouldContinue := s.extractPapers(doc, req.Cutoff, page.Name)
			for _, paper := range papers {
				if _, ok := seen[paper.ID]; ok {
					continue
				}
				seen[paper.ID] = struct{}{}
				results = append(results, paper)
			}

			if !shouldContinue {
				break
			}
			skip += s.pageSize
		}
	}

	if req.MaxResults > 0 && len(results) > req.MaxResults {
		results = results[:req.MaxResults]
	}
	return results, nil
}

func (s *ListingStrategy) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arxiv returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

func (s *ListingStrategy) extractPapers(doc *goquery.Document, cutoff time.Time, category string) ([]domain.Paper, bool) {
	var (
		collected    []domain.Paper
		continueScan = true
		processed    int
	)

	doc.Find("dl > dt").EachWithBreak(func(i int, dt *goquery.Selection) bool {
		dd := dt.Next()
		processed++

		paper, ok := parseListingEntry(dt, dd, category)
		if !ok {
			return true
		}

		if !cutoff.IsZero() && paper.PublishedAt.Before(cutoff) {
			continueScan = false
			return false
		}
		collected = append(collected, paper)
		return true
	})

	if processed < s.pageSize {
		continueScan = false
	}

	return collected, continueScan
}

// parseListingEntry reads one dt/dd pair; ok is false when the entry
// lacks an identifier or title.
func parseListingEntry(dt, dd *goquery.Selection, category string) (domain.Paper, bool) {
	link := dt.Find("a[href*=\"/abs/\"]").First()

	id := strings.TrimSpace(link.Text())
	id = strings.TrimPrefix(id, "arXiv:")
	if id == "" {
		if href, exists := link.Attr("href"); exists {
			id = strings.TrimPrefix(href, "/abs/")
		}
	}
	id = baseID(id)

	href, _ := link.Attr("href")
	if href != "" && !strings.HasPrefix(href, "http") {
		href = arxivBaseURL + href
	}
	if href == "" && id != "" {
		href = arxivBaseURL + "/abs/" + id
	}

	title := strings.TrimSpace(dd.Find(".list-title").First().Text())
	title = strings.TrimSpace(strings.TrimPrefix(title, "Title:"))

	if id == "" || title == "" {
		return domain.Paper{}, false
	}

	abstract := dd.Find(".mathjax").First().Text()
	abstract = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(abstract), "Abstract:"))

	var authors []string
	dd.Find(".list-authors a").Each(func(i int, a *goquery.Selection) {
		if name := strings.TrimSpace(a.Text()); name != "" {
			authors = append(authors, name)
		}
	})

	dateText := strings.TrimSpace(dd.Find(".list-date").First().Text())
	if dateText == "" {
		dateText = strings.TrimSpace(dd.Find(".list-dateline").First().Text())
	}
	publishedAt := time.Now().UTC()
	if match := dateExpr.FindString(dateText); match != "" {
		if parsed, err := time.Parse("2 Jan 2006", match); err == nil {
			publishedAt = parsed.UTC()
		}
	}

	var categories []string
	if category != "" {
		categories = []string{category}
	}

	return domain.Paper{
		ID:          id,
		Title:       normalizeText(title),
		Abstract:    normalizeText(abstract),
		Authors:     authors,
		Categories:  categories,
		URL:         strings.Replace(href, "http://", "https://", 1),
		PublishedAt: publishedAt,
	}, true
}

func buildPageURL(base string, skip, pageSize int) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid listing url %s: %w", base, err)
	}

	query := parsed.Query()
	query.Set("skip", strconv.Itoa(skip))
	query.Set("show", strconv.Itoa(pageSize))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}
