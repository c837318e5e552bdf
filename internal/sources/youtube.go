package sources

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"briefing/internal/fetcher"
	"briefing/internal/model"
	"briefing/internal/storage"
)

// YouTubeFeedURL is the uploads feed of a channel.
const YouTubeFeedURL = "https://www.youtube.com/feeds/videos.xml?channel_id=%s"

var channelIDRe = regexp.MustCompile(`/channel/(UC[A-Za-z0-9_-]{22})`)

// YouTube reads channel upload feeds, resolving channel IDs on demand.
type YouTube struct {
	fetcher *fetcher.Fetcher
	cache   storage.ChannelCache
	log     *slog.Logger
}

// NewYouTube creates a YouTube client. Resolved channel IDs are written to
// cache.
func NewYouTube(f *fetcher.Fetcher, cache storage.ChannelCache, log *slog.Logger) *YouTube {
	return &YouTube{fetcher: f, cache: cache, log: log}
}

// ChannelID returns the channel's ID: the configured one, one embedded in a
// /channel/ URL, a cached one, or one read from the channel page.
func (y *YouTube) ChannelID(ctx context.Context, ch model.VideoChannel) (string, bool) {
	if ch.ChannelID != "" {
		return ch.ChannelID, true
	}
	if m := channelIDRe.FindStringSubmatch(ch.URL); m != nil {
		return m[1], true
	}
	if id, ok := y.cache.Get(ctx, ch.URL); ok {
		return id, true
	}

	resp := y.fetcher.Get(ctx, ch.URL, map[string]string{"Accept": "text/html,application/xhtml+xml"})
	if !resp.OK() {
		y.log.Warn("resolve channel page", "channel", ch.Name, "url", ch.URL, "status", resp.Status, "error", resp.Err)
		return "", false
	}
	id := channelIDFromPage(resp.Body)
	if id == "" {
		return "", false
	}
	if err := y.cache.Put(ctx, ch.URL, id); err != nil {
		y.log.Warn("cache channel id", "channel", ch.Name, "error", err)
	}
	return id, true
}

func channelIDFromPage(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	if id, ok := doc.Find(`meta[itemprop="channelId"]`).First().Attr("content"); ok && strings.HasPrefix(id, "UC") {
		return strings.TrimSpace(id)
	}
	for _, sel := range []string{`link[rel="canonical"]`, `meta[property="og:url"]`} {
		node := doc.Find(sel).First()
		v, ok := node.Attr("href")
		if !ok {
			v, _ = node.Attr("content")
		}
		if m := channelIDRe.FindStringSubmatch(v); m != nil {
			return m[1]
		}
	}
	return ""
}

// Recent returns up to n of the channel's most recent uploads, newest first.
// Uploads without a publish time are dropped.
func (y *YouTube) Recent(ctx context.Context, ch model.VideoChannel, n int) fetcher.Result[[]model.Video] {
	id, ok := y.ChannelID(ctx, ch)
	if !ok {
		y.log.Info("skip channel without id", "channel", ch.Name, "url", ch.URL)
		return fetcher.Result[[]model.Video]{Value: []model.Video{}}
	}

	res := y.fetcher.Feed(ctx, fmt.Sprintf(YouTubeFeedURL, id))
	if !res.OK() {
		return fetcher.Result[[]model.Video]{Status: res.Status, Kind: res.Kind, Err: res.Err}
	}

	videos := make([]model.Video, 0, len(res.Value.Items))
	for _, item := range res.Value.Items {
		e := fetcher.EntryOf(item, ch.Name)
		if e.Title == "" || e.Link == "" || e.PublishedAt == nil {
			continue
		}
		videos = append(videos, model.Video{
			Channel:     ch.Name,
			ChannelURL:  ch.URL,
			Title:       e.Title,
			Link:        e.Link,
			VideoID:     fetcher.Extension(item, "yt", "videoId"),
			PublishedAt: *e.PublishedAt,
		})
	}
	slices.SortStableFunc(videos, func(a, b model.Video) int {
		return b.PublishedAt.Compare(a.PublishedAt)
	})
	if len(videos) > n {
		videos = videos[:n]
	}
	return fetcher.Result[[]model.Video]{Value: videos, Status: res.Status}
}
