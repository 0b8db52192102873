package zotero

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ArxivDigest/internal/config"
	"ArxivDigest/internal/domain"
	"ArxivDigest/internal/ports"
)

const pageSize = 100

// Client reads top-level items from the Zotero Web API. Items
// without an abstract never leave this boundary.
type Client struct {
	baseURL     string
	libraryID   string
	apiKey      string
	libraryType string
	itemTypes   []string
	maxItems    int
	http        *http.Client
}

var _ ports.Library = (*Client)(nil)

// NewClient wires the library backend from configuration.
func NewClient(cfg config.LibraryConfig) *Client {
	return &Client{
		baseURL:     strings.TrimSuffix(cfg.APIURL, "/"),
		libraryID:   cfg.LibraryID,
		apiKey:      cfg.APIKey,
		libraryType: cfg.LibraryType,
		itemTypes:   cfg.ItemTypes,
		maxItems:    cfg.MaxItems,
		http:        &http.Client{Timeout: 30 * time.Second},
	}
}

type itemEnvelope struct {
	Key  string `json:"key"`
	Data struct {
		Title        string `json:"title"`
		AbstractNote string `json:"abstractNote"`
		Creators     []struct {
			Name      string `json:"name"`
			FirstName string `json:"firstName"`
			LastName  string `json:"lastName"`
		} `json:"creators"`
		Tags []struct {
			Tag string `json:"tag"`
		} `json:"tags"`
	} `json:"data"`
}

// FetchItems pages through /items/top until the library or the
// configured cap is exhausted.
func (c *Client) FetchItems(ctx context.Context) ([]domain.ProfileItem, error) {
	if c.libraryID == "" || c.apiKey == "" {
		return nil, fmt.Errorf("zotero client misconfigured")
	}

	prefix := "users"
	if c.libraryType == "group" {
		prefix = "groups"
	}

	var items []domain.ProfileItem
	for start := 0; ; start += pageSize {
		page, err := c.fetchPage(ctx, prefix, start)
		if err != nil {
			return nil, err
		}

		for _, env := range page {
			item, ok := toProfileItem(env)
			if !ok {
				continue
			}
			items = append(items, item)
			if c.maxItems > 0 && len(items) >= c.maxItems {
				return items, nil
			}
		}

		if len(page) < pageSize {
			return items, nil
		}
	}
}

func (c *Client) fetchPage(ctx context.Context, prefix string, start int) ([]itemEnvelope, error) {
	params := url.Values{}
	params.Set("format", "json")
	params.Set("limit", strconv.Itoa(pageSize))
	params.Set("start", strconv.Itoa(start))
	if len(c.itemTypes) > 0 {
		params.Set("itemType", strings.Join(c.itemTypes, " || "))
	}

	endpoint := fmt.Sprintf("%s/%s/%s/items/top?%s", c.baseURL, prefix, c.libraryID, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Zotero-API-Key", c.apiKey)
	req.Header.Set("Zotero-API-Version", "3")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch items: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("zotero returned %s", resp.Status)
	}

	var page []itemEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	return page, nil
}

// toProfileItem converts one envelope; ok is false for items the
// profile cannot use (no title or no abstract).
func toProfileItem(env itemEnvelope) (domain.ProfileItem, bool) {
	title := strings.TrimSpace(env.Data.Title)
	abstract := strings.TrimSpace(env.Data.AbstractNote)
	if title == "" || abstract == "" {
		return domain.ProfileItem{}, false
	}

	var authors []string
	for _, creator := range env.Data.Creators {
		name := strings.TrimSpace(creator.Name)
		if name == "" {
			name = strings.TrimSpace(strings.TrimSpace(creator.FirstName) + " " + strings.TrimSpace(creator.LastName))
		}
		if name != "" {
			authors = append(authors, name)
		}
	}

	var tags []string
	for _, t := range env.Data.Tags {
		if tag := strings.TrimSpace(t.Tag); tag != "" {
			tags = append(tags, tag)
		}
	}

	return domain.ProfileItem{
		ID:       env.Key,
		Title:    title,
		Abstract: abstract,
		Authors:  authors,
		Tags:     tags,
	}, true
}
