package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"

	"briefing/internal/model"
	"briefing/internal/textnorm"
)

const feedAccept = "application/rss+xml, application/atom+xml, application/xml;q=0.9"

// Feed downloads and parses an RSS 2.0 or Atom feed. The root element decides
// the format; callers see the same gofeed.Feed shape either way.
func (f *Fetcher) Feed(ctx context.Context, url string) Result[*gofeed.Feed] {
	resp := f.Get(ctx, url, map[string]string{"Accept": feedAccept})
	if r, failed := resultOf[*gofeed.Feed](resp); failed {
		return r
	}
	return ParseFeed(resp.Body, resp.Status)
}

// ParseFeed parses raw feed bytes. Malformed input is reported as KindParse.
func ParseFeed(body []byte, status int) Result[*gofeed.Feed] {
	if gofeed.DetectFeedType(bytes.NewReader(body)) == gofeed.FeedTypeUnknown {
		return Result[*gofeed.Feed]{Status: status, Kind: KindParse, Err: gofeed.ErrFeedTypeNotDetected}
	}
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return Result[*gofeed.Feed]{Status: status, Kind: KindParse, Err: fmt.Errorf("parse feed: %w", err)}
	}
	return Result[*gofeed.Feed]{Value: feed, Status: status}
}

// Entries normalizes up to limit feed items into entries. Items without a
// title or link are dropped and duplicate links collapse to the first
// occurrence. A non-positive limit means no limit.
func Entries(items []*gofeed.Item, source string, limit int) []model.FeedEntry {
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	seen := make(map[string]bool, len(items))
	entries := make([]model.FeedEntry, 0, len(items))
	for _, item := range items {
		e := EntryOf(item, source)
		if e.Title == "" || e.Link == "" || seen[e.Link] {
			continue
		}
		seen[e.Link] = true
		entries = append(entries, e)
	}
	return entries
}

// EntryOf converts a single gofeed item.
func EntryOf(item *gofeed.Item, source string) model.FeedEntry {
	link := strings.TrimSpace(item.Link)
	e := model.FeedEntry{
		Title:      strings.TrimSpace(item.Title),
		Link:       link,
		Author:     AuthorOf(item),
		SourceName: source,
		Domain:     model.DomainOf(link),
	}
	if item.PublishedParsed != nil {
		t := item.PublishedParsed.UTC()
		e.PublishedAt = &t
	} else if item.UpdatedParsed != nil {
		t := item.UpdatedParsed.UTC()
		e.PublishedAt = &t
	}
	body := item.Content
	if body == "" {
		body = item.Description
	}
	e.BodyText = textnorm.ToPlainText(body)
	return e
}

// AuthorOf returns the first non-empty author name of an item.
func AuthorOf(item *gofeed.Item) string {
	for _, a := range item.Authors {
		if a != nil && strings.TrimSpace(a.Name) != "" {
			return strings.TrimSpace(a.Name)
		}
	}
	if item.Author != nil {
		return strings.TrimSpace(item.Author.Name)
	}
	return ""
}

// Extension returns the first value of a namespaced feed extension element,
// e.g. Extension(item, "yt", "videoId").
func Extension(item *gofeed.Item, ns, name string) string {
	exts, ok := item.Extensions[ns]
	if !ok {
		return ""
	}
	if vals := exts[name]; len(vals) > 0 {
		return strings.TrimSpace(vals[0].Value)
	}
	return ""
}
