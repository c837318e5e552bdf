package sources

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"briefing/internal/fetcher"
	"briefing/internal/model"
	"briefing/internal/textnorm"
)

// Hacker News endpoints.
const (
	HNTopStoriesURL = "https://hacker-news.firebaseio.com/v0/topstories.json"
	HNItemURL       = "https://hacker-news.firebaseio.com/v0/item/%d.json"
	AlgoliaURL      = "https://hn.algolia.com/api/v1/search"

	hnHost     = "news.ycombinator.com"
	hnItemLink = "https://news.ycombinator.com/item?id=%s"
)

type hnItem struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Text        string `json:"text"`
	Score       int    `json:"score"`
	Descendants int    `json:"descendants"`
	Type        string `json:"type"`
}

type algoliaHit struct {
	ObjectID    string `json:"objectID"`
	Author      string `json:"author"`
	CommentText string `json:"comment_text"`
	URL         string `json:"url"`
	Deleted     bool   `json:"deleted"`
}

type algoliaResponse struct {
	Hits []algoliaHit `json:"hits"`
}

// HackerNews reads top stories and their discussions.
type HackerNews struct {
	fetcher *fetcher.Fetcher
	log     *slog.Logger
}

// NewHackerNews creates a Hacker News client.
func NewHackerNews(f *fetcher.Fetcher, log *slog.Logger) *HackerNews {
	return &HackerNews{fetcher: f, log: log}
}

// TopStories returns the first n front-page stories. Items that cannot be
// fetched are skipped, as are deleted items the API serves as null or
// without a title. Only a failed ID list fails the call.
func (h *HackerNews) TopStories(ctx context.Context, n int) fetcher.Result[[]model.HNStory] {
	ids := fetcher.GetJSON[[]int64](ctx, h.fetcher, HNTopStoriesURL, nil)
	if !ids.OK() {
		return fetcher.Result[[]model.HNStory]{Status: ids.Status, Kind: ids.Kind, Err: ids.Err}
	}

	list := ids.Value
	if len(list) > n {
		list = list[:n]
	}
	stories := make([]model.HNStory, 0, len(list))
	for _, id := range list {
		item := fetcher.GetJSON[hnItem](ctx, h.fetcher, fmt.Sprintf(HNItemURL, id), nil)
		if !item.OK() {
			h.log.Warn("skip hn item", "id", id, "error", item.Reason())
			continue
		}
		if item.Value.Title == "" {
			h.log.Debug("skip deleted hn item", "id", id)
			continue
		}
		stories = append(stories, storyOf(id, item.Value))
	}
	return fetcher.Result[[]model.HNStory]{Value: stories, Status: ids.Status}
}

func storyOf(id int64, it hnItem) model.HNStory {
	s := model.HNStory{
		ID:          id,
		Title:       it.Title,
		URL:         it.URL,
		Domain:      hnHost,
		Score:       it.Score,
		Comments:    it.Descendants,
		HNLink:      fmt.Sprintf(hnItemLink, strconv.FormatInt(id, 10)),
		PostText:    textnorm.ToPlainText(it.Text),
		Type:        it.Type,
		TopComments: []model.Comment{},
	}
	if it.URL != "" {
		s.Domain = model.DomainOf(it.URL)
	}
	return s
}

// TopComments returns up to n comment excerpts for a story. Any failure
// yields an empty list.
func (h *HackerNews) TopComments(ctx context.Context, storyID int64, n int) []model.Comment {
	q := url.Values{}
	q.Set("tags", fmt.Sprintf("comment,story_%d", storyID))
	q.Set("hitsPerPage", strconv.Itoa(max(n*3, 20)))

	res := fetcher.GetJSON[algoliaResponse](ctx, h.fetcher, AlgoliaURL+"?"+q.Encode(), nil)
	out := []model.Comment{}
	if !res.OK() {
		h.log.Debug("hn comments unavailable", "id", storyID, "error", res.Reason())
		return out
	}
	for _, hit := range res.Value.Hits {
		if len(out) >= n {
			break
		}
		if hit.Author == "" || hit.CommentText == "" || hit.Deleted {
			continue
		}
		excerpt := textnorm.Excerpt(hit.CommentText)
		if excerpt == "" {
			continue
		}
		out = append(out, model.Comment{
			Author:  hit.Author,
			Excerpt: excerpt,
			Link:    fmt.Sprintf(hnItemLink, hit.ObjectID),
			ID:      hit.ObjectID,
		})
	}
	return out
}

// Discussion resolves a story URL to its HN item link through Algolia. A hit
// whose url equals storyURL wins, otherwise the first hit is used.
func (h *HackerNews) Discussion(ctx context.Context, storyURL string) (string, bool) {
	if storyURL == "" {
		return "", false
	}
	q := url.Values{}
	q.Set("query", storyURL)
	q.Set("tags", "story")

	res := fetcher.GetJSON[algoliaResponse](ctx, h.fetcher, AlgoliaURL+"?"+q.Encode(), nil)
	if !res.OK() {
		h.log.Debug("algolia lookup failed", "url", storyURL, "error", res.Reason())
		return "", false
	}

	var pick *algoliaHit
	for i := range res.Value.Hits {
		hit := &res.Value.Hits[i]
		if hit.ObjectID == "" {
			continue
		}
		if hit.URL == storyURL {
			pick = hit
			break
		}
		if pick == nil {
			pick = hit
		}
	}
	if pick == nil {
		return "", false
	}
	return fmt.Sprintf(hnItemLink, pick.ObjectID), true
}

// Discussions maps each story URL to its HN discussion link. The current top
// stories are consulted first; URLs not found there are looked up in Algolia.
// URLs that resolve to nothing are absent from the map.
func (h *HackerNews) Discussions(ctx context.Context, storyURLs []string, top int) map[string]string {
	out := make(map[string]string, len(storyURLs))
	if len(storyURLs) == 0 {
		return out
	}

	if top > 0 {
		res := h.TopStories(ctx, top)
		if !res.OK() {
			h.log.Warn("hn top stories unavailable", "error", res.Reason())
		}
		byURL := make(map[string]string, len(res.Value))
		for _, s := range res.Value {
			if s.URL != "" {
				byURL[s.URL] = s.HNLink
			}
		}
		for _, u := range storyURLs {
			if link, ok := byURL[u]; ok {
				out[u] = link
			}
		}
	}

	for _, u := range storyURLs {
		if _, ok := out[u]; ok {
			continue
		}
		if link, ok := h.Discussion(ctx, u); ok {
			out[u] = link
		}
	}
	return out
}
