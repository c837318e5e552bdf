package sources

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"briefing/internal/fetcher"
	"briefing/internal/filter"
	"briefing/internal/model"
	"briefing/internal/textnorm"
)

// RedditFeedURL is the Atom feed of a subreddit.
const RedditFeedURL = "https://www.reddit.com/r/%s/.rss"

// Reddit reads subreddit feeds and post comment feeds.
type Reddit struct {
	fetcher *fetcher.Fetcher
	log     *slog.Logger
}

// NewReddit creates a Reddit client.
func NewReddit(f *fetcher.Fetcher, log *slog.Logger) *Reddit {
	return &Reddit{fetcher: f, log: log}
}

// Subreddit fetches up to maxFetch entries of a subreddit and keeps the first
// desired ones that survive the low-signal heuristics and the extra rules.
// Sticky and announcement posts are not marked in the feed, hence the
// over-fetch.
func (r *Reddit) Subreddit(ctx context.Context, name string, desired, maxFetch int, rules *filter.Rules) model.SubredditResult {
	result := model.SubredditResult{Subreddit: name, Entries: []model.RedditPost{}}

	res := r.fetcher.Feed(ctx, fmt.Sprintf(RedditFeedURL, name))
	result.Status = res.Status
	if !res.OK() {
		result.Error = res.Reason()
		return result
	}

	items := res.Value.Items
	if len(items) > maxFetch {
		items = items[:maxFetch]
	}
	result.Fetched = len(items)

	for _, e := range fetcher.Entries(items, name, maxFetch) {
		if len(result.Entries) >= desired {
			break
		}
		if filter.IsLowSignal(e, name) {
			r.log.Debug("skip low-signal post", "subreddit", name, "title", e.Title, "author", e.Author)
			continue
		}
		if !rules.Allow(filter.ItemOf(e)) {
			r.log.Debug("skip filtered post", "subreddit", name, "title", e.Title)
			continue
		}
		result.Entries = append(result.Entries, model.RedditPost{FeedEntry: e})
	}
	return result
}

// Comments returns up to n comment excerpts from a post's comment feed. The
// feed's entry for the post itself is skipped. It returns nil when postURL is
// not a Reddit URL or the feed cannot be read.
func (r *Reddit) Comments(ctx context.Context, postURL string, n int) []model.Comment {
	domain := model.DomainOf(postURL)
	if domain != "reddit.com" && !strings.HasSuffix(domain, ".reddit.com") {
		return nil
	}

	base := strings.TrimRight(postURL, "/")
	feedURL := base
	if !strings.HasSuffix(feedURL, ".rss") {
		feedURL += ".rss"
	}

	res := r.fetcher.Feed(ctx, feedURL)
	if !res.OK() {
		r.log.Debug("reddit comments unavailable", "url", postURL, "error", res.Reason())
		return nil
	}

	out := []model.Comment{}
	for _, item := range res.Value.Items {
		if len(out) >= n {
			break
		}
		link := strings.TrimSpace(item.Link)
		if strings.HasPrefix(item.GUID, "t3_") || strings.TrimRight(link, "/") == base {
			continue
		}
		body := item.Content
		if body == "" {
			body = item.Description
		}
		excerpt := textnorm.Excerpt(body)
		if excerpt == "" {
			continue
		}
		if link == "" {
			link = feedURL
		}
		out = append(out, model.Comment{
			Author:  fetcher.AuthorOf(item),
			Excerpt: excerpt,
			Link:    link,
			ID:      item.GUID,
		})
	}
	return out
}
