package arxiv

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ArxivDigest/internal/domain"
	"ArxivDigest/internal/scanner"
)

const dailyFeedFixture = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom" xmlns:arxiv="http://arxiv.org/schemas/atom">
  <title>cs.AI updates on arXiv.org</title>
  <entry>
    <id>oai:arXiv.org:2501.00001v1</id>
    <title>Fresh paper</title>
    <published>2026-08-30T00:30:00Z</published>
    <arxiv:announce_type>new</arxiv:announce_type>
  </entry>
  <entry>
    <id>oai:arXiv.org:2501.00002v3</id>
    <title>Replacement paper</title>
    <published>2026-08-30T00:30:00Z</published>
    <arxiv:announce_type>replace</arxiv:announce_type>
  </entry>
  <entry>
    <id></id>
    <title>Malformed entry without id</title>
    <published>2026-08-30T00:30:00Z</published>
    <arxiv:announce_type>new</arxiv:announce_type>
  </entry>
  <entry>
    <id>oai:arXiv.org:2501.00001v1</id>
    <title>Duplicate of the fresh paper</title>
    <published>2026-08-30T00:30:00Z</published>
    <arxiv:announce_type>new</arxiv:announce_type>
  </entry>
</feed>`

type fakeResolver struct {
	calls [][]string
}

func (f *fakeResolver) ResolveIDs(_ context.Context, ids []string) ([]domain.Paper, error) {
	f.calls = append(f.calls, ids)
	papers := make([]domain.Paper, len(ids))
	for i, id := range ids {
		papers[i] = domain.Paper{ID: id, Title: "resolved " + id}
	}
	return papers, nil
}

func TestFeedStrategyFiltersAndResolves(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, dailyFeedFixture)
	}))
	defer server.Close()

	oldBase := feedBaseURL
	feedBaseURL = server.URL + "/atom/"
	defer func() { feedBaseURL = oldBase }()

	resolver := &fakeResolver{}
	strategy := NewFeedStrategy(server.Client(), resolver, time.Hour, 20*time.Minute, nil)
	strategy.sleep = func(time.Duration) { t.Fatal("populated feed must not sleep") }

	papers, err := strategy.Fetch(context.Background(), scanner.Request{
		Query:      "cs.AI",
		OnlyNew:    true,
		MaxResults: 10,
	})
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}

	if len(papers) != 1 {
		t.Fatalf("expected only the fresh paper, got %d", len(papers))
	}
	if papers[0].ID != "2501.00001" {
		t.Fatalf("unexpected id: %s", papers[0].ID)
	}
	if len(resolver.calls) != 1 || len(resolver.calls[0]) != 1 {
		t.Fatalf("expected a single resolve with one id, got %v", resolver.calls)
	}
}

func TestFeedStrategyRetriesUntilPopulated(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests < 3 {
			fmt.Fprint(w, `<?xml version="1.0"?><feed xmlns="http://www.w3.org/2005/Atom"><title>cs.AI updates</title></feed>`)
			return
		}
		fmt.Fprint(w, dailyFeedFixture)
	}))
	defer server.Close()

	oldBase := feedBaseURL
	feedBaseURL = server.URL + "/atom/"
	defer func() { feedBaseURL = oldBase }()

	sleeps := 0
	strategy := NewFeedStrategy(server.Client(), &fakeResolver{}, time.Hour, 20*time.Minute, nil)
	strategy.sleep = func(time.Duration) { sleeps++ }

	papers, err := strategy.Fetch(context.Background(), scanner.Request{Query: "cs.AI", OnlyNew: true})
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}

	if len(papers) != 1 {
		t.Fatalf("expected the third poll's result, got %d papers", len(papers))
	}
	if requests != 3 {
		t.Fatalf("expected 3 feed requests, got %d", requests)
	}
	if sleeps != 2 {
		t.Fatalf("expected exactly 2 sleeps, got %d", sleeps)
	}
}

func TestFeedStrategyExhaustedReturnsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<?xml version="1.0"?><feed xmlns="http://www.w3.org/2005/Atom"><title>cs.AI updates</title></feed>`)
	}))
	defer server.Close()

	oldBase := feedBaseURL
	feedBaseURL = server.URL + "/atom/"
	defer func() { feedBaseURL = oldBase }()

	strategy := NewFeedStrategy(server.Client(), &fakeResolver{}, 40*time.Minute, 20*time.Minute, nil)
	strategy.sleep = func(time.Duration) {}

	papers, err := strategy.Fetch(context.Background(), scanner.Request{Query: "cs.AI"})
	if err != nil {
		t.Fatalf("exhaustion is not an error, got %v", err)
	}
	if len(papers) != 0 {
		t.Fatalf("expected empty result, got %d", len(papers))
	}
}

func TestFeedStrategyRejectsInvalidQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<?xml version="1.0"?><feed xmlns="http://www.w3.org/2005/Atom"><title>Feed error for query</title></feed>`)
	}))
	defer server.Close()

	oldBase := feedBaseURL
	feedBaseURL = server.URL + "/atom/"
	defer func() { feedBaseURL = oldBase }()

	strategy := NewFeedStrategy(server.Client(), &fakeResolver{}, time.Hour, 20*time.Minute, nil)
	strategy.sleep = func(time.Duration) {}

	if _, err := strategy.Fetch(context.Background(), scanner.Request{Query: "nope"}); err == nil {
		t.Fatal("expected an error for a feed error page")
	}
}

func TestFeedStrategyCutoffExcludesOldEntries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, dailyFeedFixture)
	}))
	defer server.Close()

	oldBase := feedBaseURL
	feedBaseURL = server.URL + "/atom/"
	defer func() { feedBaseURL = oldBase }()

	strategy := NewFeedStrategy(server.Client(), &fakeResolver{}, 0, 0, nil)
	strategy.sleep = func(time.Duration) {}

	// Hour-granularity cutoff past every entry in the fixture.
	papers, err := strategy.Fetch(context.Background(), scanner.Request{
		Query:   "cs.AI",
		OnlyNew: true,
		Cutoff:  time.Date(2026, time.August, 30, 12, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if len(papers) != 0 {
		t.Fatalf("expected cutoff to drop all entries, got %d", len(papers))
	}
}
