package arxiv

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ArxivDigest/internal/domain"
)

const userAgent = "ArxivDigest/1.0"

// atomFeed models the subset of the Atom schema shared by the arXiv
// feed (rss.arxiv.org) and the query API (export.arxiv.org).
type atomFeed struct {
	XMLName xml.Name    `xml:"feed"`
	Title   string      `xml:"title"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID        string         `xml:"id"`
	Title     string         `xml:"title"`
	Summary   string         `xml:"summary"`
	Published string         `xml:"published"`
	Updated   string         `xml:"updated"`
	Authors   []atomAuthor   `xml:"author"`
	Category  []atomCategory `xml:"category"`
	Links     []atomLink     `xml:"link"`
	// AnnounceType distinguishes new papers from replacements and
	// cross-lists in the daily feed.
	AnnounceType string `xml:"http://arxiv.org/schemas/atom announce_type"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

type atomCategory struct {
	Term string `xml:"term"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
}

func fetchAtom(ctx context.Context, client *http.Client, url string) (*atomFeed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("arxiv returned %s", resp.Status)
	}

	var feed atomFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return &feed, nil
}

// entryID returns the base arXiv identifier of a feed entry. Both id
// shapes are handled: "oai:arXiv.org:2401.01234v1" (daily feed) and
// "http://arxiv.org/abs/2401.01234v2" (query API).
func entryID(e atomEntry) string {
	id := strings.TrimSpace(e.ID)
	if rest, ok := strings.CutPrefix(id, "oai:arXiv.org:"); ok {
		return baseID(rest)
	}
	if idx := strings.LastIndex(id, "/abs/"); idx >= 0 {
		return baseID(id[idx+len("/abs/"):])
	}
	return baseID(id)
}

func entryPublished(e atomEntry) time.Time {
	for _, raw := range []string{e.Published, e.Updated} {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return t.UTC()
		}
		if t, err := time.Parse(time.RFC1123Z, raw); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// entryToPaper converts one Atom entry; ok is false for malformed
// entries (missing id or title), which callers skip individually.
func entryToPaper(e atomEntry) (domain.Paper, bool) {
	id := entryID(e)
	title := normalizeText(e.Title)
	if id == "" || title == "" {
		return domain.Paper{}, false
	}

	authors := make([]string, 0, len(e.Authors))
	for _, a := range e.Authors {
		if name := strings.TrimSpace(a.Name); name != "" {
			authors = append(authors, name)
		}
	}

	categories := make([]string, 0, len(e.Category))
	for _, c := range e.Category {
		if term := strings.TrimSpace(c.Term); term != "" {
			categories = append(categories, term)
		}
	}

	url := "https://arxiv.org/abs/" + id
	for _, l := range e.Links {
		if strings.Contains(l.Href, "/abs/") {
			url = strings.Replace(l.Href, "http://", "https://", 1)
			break
		}
	}

	return domain.Paper{
		ID:          id,
		Title:       title,
		Abstract:    normalizeText(e.Summary),
		Authors:     authors,
		Categories:  categories,
		URL:         url,
		PublishedAt: entryPublished(e),
	}, true
}
