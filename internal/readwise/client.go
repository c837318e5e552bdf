// Package readwise talks to Readwise: saving links to Reader and exporting
// recent highlights.
package readwise

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"briefing/internal/fetcher"
	"briefing/internal/model"
)

// Default API endpoints.
const (
	DefaultBaseURL = "https://readwise.io"

	savePath       = "/api/v3/save/"
	highlightsPath = "/api/v2/highlights/"

	highlightsPageSize = 100
	maxHighlightPages  = 50
)

// Highlight status values.
const (
	StatusOK      = "ok"
	StatusNoToken = "no_token"
)

// ErrNoToken is returned by Save when no token is configured.
var ErrNoToken = errors.New("readwise token is not configured")

// Client is a Readwise API client.
type Client struct {
	fetcher *fetcher.Fetcher
	token   string
	baseURL string
}

// NewClient creates a client authenticating with token.
func NewClient(f *fetcher.Fetcher, token string) *Client {
	return &Client{fetcher: f, token: strings.TrimSpace(token), baseURL: DefaultBaseURL}
}

// WithBaseURL points the client at another API host.
func (c *Client) WithBaseURL(base string) *Client {
	c.baseURL = strings.TrimRight(base, "/")
	return c
}

// HasToken reports whether the client can authenticate.
func (c *Client) HasToken() bool {
	return c.token != ""
}

func (c *Client) headers() map[string]string {
	return map[string]string{"Authorization": "Token " + c.token}
}

// Save adds a URL to Reader. Non-2xx responses are returned as errors
// carrying the status and response body.
func (c *Client) Save(ctx context.Context, link string) error {
	if !c.HasToken() {
		return ErrNoToken
	}
	resp := c.fetcher.PostJSON(ctx, c.baseURL+savePath, c.headers(), map[string]string{"url": link})
	if resp.Err != nil {
		return fmt.Errorf("save %s: %w", link, resp.Err)
	}
	if !resp.OK() {
		return fmt.Errorf("HTTP %d: %s", resp.Status, strings.TrimSpace(string(resp.Body)))
	}
	return nil
}

type highlightTag struct {
	Name string `json:"name"`
}

type highlightRecord struct {
	Text          string         `json:"text"`
	Tags          []highlightTag `json:"tags"`
	BookTitle     string         `json:"book_title"`
	Title         string         `json:"title"`
	BookAuthor    string         `json:"book_author"`
	Author        string         `json:"author"`
	Source        string         `json:"source"`
	URL           string         `json:"url"`
	HighlightedAt string         `json:"highlighted_at"`
}

type highlightsPage struct {
	Results []highlightRecord `json:"results"`
	Next    string            `json:"next"`
}

// Highlights exports up to limit highlights updated after since, following
// pagination for at most 50 pages. A failed page ends the export with status
// "http_<code>" and whatever was collected so far.
func (c *Client) Highlights(ctx context.Context, since time.Time, limit int) model.HighlightsResult {
	result := model.HighlightsResult{Highlights: []model.Highlight{}}
	if !c.HasToken() {
		result.Status = StatusNoToken
		return result
	}

	result.Since = since.UTC().Truncate(time.Second).Format(time.RFC3339)
	q := url.Values{}
	q.Set("page_size", fmt.Sprint(highlightsPageSize))
	q.Set("updated__gt", result.Since)
	next := c.baseURL + highlightsPath + "?" + q.Encode()

	for page := 1; next != "" && len(result.Highlights) < limit && page <= maxHighlightPages; page++ {
		res := fetcher.GetJSON[highlightsPage](ctx, c.fetcher, next, c.headers())
		if !res.OK() {
			result.Status = fmt.Sprintf("http_%d", res.Status)
			return result
		}
		for _, r := range res.Value.Results {
			if len(result.Highlights) >= limit {
				break
			}
			result.Highlights = append(result.Highlights, highlightOf(r))
		}
		next = res.Value.Next
	}

	result.Status = StatusOK
	return result
}

func highlightOf(r highlightRecord) model.Highlight {
	tags := []string{}
	for _, t := range r.Tags {
		if t.Name != "" {
			tags = append(tags, t.Name)
		}
	}
	return model.Highlight{
		Text:          strings.TrimSpace(r.Text),
		Tags:          tags,
		Title:         firstNonEmpty(r.BookTitle, r.Title),
		Author:        firstNonEmpty(r.BookAuthor, r.Author),
		Source:        r.Source,
		URL:           r.URL,
		HighlightedAt: r.HighlightedAt,
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
