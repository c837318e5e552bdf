// Package aggregator runs every source category of the briefing and combines
// the results into one snapshot. A failing category is recorded in the
// snapshot and never stops the others.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"briefing/internal/config"
	"briefing/internal/fetcher"
	"briefing/internal/filter"
	"briefing/internal/model"
	"briefing/internal/readwise"
	"briefing/internal/selector"
)

// Snapshot categories, also the keys of Snapshot.Errors.
const (
	CategoryHN         = "hn"
	CategoryReddit     = "reddit"
	CategoryAntiBubble = "antibubble"
	CategoryYouTube    = "youtube"
	CategoryReadwise   = "readwise"
)

// HNSource reads the Hacker News front page.
type HNSource interface {
	TopStories(ctx context.Context, n int) fetcher.Result[[]model.HNStory]
	TopComments(ctx context.Context, storyID int64, n int) []model.Comment
}

// RedditSource reads subreddits and post comments.
type RedditSource interface {
	Subreddit(ctx context.Context, name string, desired, maxFetch int, rules *filter.Rules) model.SubredditResult
	Comments(ctx context.Context, postURL string, n int) []model.Comment
}

// VideoSource lists recent uploads of a channel.
type VideoSource interface {
	Recent(ctx context.Context, ch model.VideoChannel, n int) fetcher.Result[[]model.Video]
}

// Picker selects the anti-bubble picks of the day.
type Picker interface {
	Pick(ctx context.Context, now time.Time) []model.AntiBubblePick
}

// HighlightSource exports recent reading highlights.
type HighlightSource interface {
	HasToken() bool
	Highlights(ctx context.Context, since time.Time, limit int) model.HighlightsResult
}

// Recorder receives the outcome of each category.
type Recorder interface {
	ObserveSource(category string, items int, d time.Duration, err error)
}

// Clients are the source clients the aggregator drives.
type Clients struct {
	HN         HNSource
	Reddit     RedditSource
	YouTube    VideoSource
	AntiBubble Picker
	Readwise   HighlightSource
}

// Aggregator builds snapshots.
type Aggregator struct {
	clients Clients
	sources *config.Sources
	rules   map[string]*filter.Rules
	rec     Recorder
	log     *slog.Logger
}

// New creates an Aggregator. rules holds the compiled extra rules keyed by
// subreddit name.
func New(clients Clients, sources *config.Sources, rules map[string]*filter.Rules, rec Recorder, log *slog.Logger) *Aggregator {
	return &Aggregator{
		clients: clients,
		sources: sources,
		rules:   rules,
		rec:     rec,
		log:     log,
	}
}

// Run fetches every category concurrently and returns the combined snapshot.
func (a *Aggregator) Run(ctx context.Context, now time.Time) model.Snapshot {
	snap := model.Snapshot{
		GeneratedAt: now.UTC(),
		HN:          []model.HNStory{},
		Reddit:      []model.SubredditResult{},
		AntiBubble:  []model.AntiBubblePick{},
		YouTube:     []model.Video{},
		Readwise:    model.HighlightsResult{Highlights: []model.Highlight{}},
	}

	var mu sync.Mutex
	errs := map[string]string{}

	run := func(category string, fn func(ctx context.Context) (int, error)) func() error {
		return func() error {
			start := time.Now()
			items, err := fn(ctx)
			a.rec.ObserveSource(category, items, time.Since(start), err)
			if err != nil {
				a.log.Warn("source category failed", "source", category, "error", err)
				mu.Lock()
				errs[category] = err.Error()
				mu.Unlock()
				return nil
			}
			a.log.Info("source category done", "source", category, "items", items, "duration", time.Since(start).Round(time.Millisecond))
			return nil
		}
	}

	var g errgroup.Group
	g.Go(run(CategoryHN, func(ctx context.Context) (int, error) {
		var err error
		snap.HN, err = a.hackerNews(ctx)
		return len(snap.HN), err
	}))
	g.Go(run(CategoryReddit, func(ctx context.Context) (int, error) {
		var err error
		snap.Reddit, err = a.reddit(ctx)
		n := 0
		for _, r := range snap.Reddit {
			n += len(r.Entries)
		}
		return n, err
	}))
	g.Go(run(CategoryAntiBubble, func(ctx context.Context) (int, error) {
		var err error
		snap.AntiBubble, err = a.antiBubble(ctx, now)
		return len(snap.AntiBubble), err
	}))
	g.Go(run(CategoryYouTube, func(ctx context.Context) (int, error) {
		var err error
		snap.YouTube, err = a.Videos(ctx, now)
		return len(snap.YouTube), err
	}))
	g.Go(run(CategoryReadwise, func(ctx context.Context) (int, error) {
		var err error
		snap.Readwise, err = a.highlights(ctx, now)
		return len(snap.Readwise.Highlights), err
	}))
	_ = g.Wait()

	if len(errs) > 0 {
		snap.Errors = errs
	}
	return snap
}

func (a *Aggregator) hackerNews(ctx context.Context) ([]model.HNStory, error) {
	cfg := a.sources.HackerNews
	res := a.clients.HN.TopStories(ctx, cfg.Stories)
	if !res.OK() {
		return []model.HNStory{}, errors.New(res.Reason())
	}
	stories := res.Value
	for i := range stories {
		stories[i].TopComments = a.clients.HN.TopComments(ctx, stories[i].ID, cfg.Comments)
	}
	return stories, nil
}

// reddit reads subreddits one after another. The category fails only when
// every subreddit failed.
func (a *Aggregator) reddit(ctx context.Context) ([]model.SubredditResult, error) {
	cfg := a.sources.Reddit
	out := make([]model.SubredditResult, 0, len(cfg.Subreddits))
	var failed []string
	for _, sub := range cfg.Subreddits {
		r := a.clients.Reddit.Subreddit(ctx, sub.Name, cfg.PerSubreddit, cfg.MaxFetch, a.rules[sub.Name])
		if r.Error != "" {
			a.log.Warn("subreddit failed", "source", sub.Name, "error", r.Error)
			failed = append(failed, sub.Name+": "+r.Error)
		}
		for i := range r.Entries {
			r.Entries[i].TopComments = a.clients.Reddit.Comments(ctx, r.Entries[i].Link, cfg.Comments)
		}
		out = append(out, r)
	}
	if len(cfg.Subreddits) > 0 && len(failed) == len(cfg.Subreddits) {
		return out, fmt.Errorf("all subreddits failed: %s", strings.Join(failed, "; "))
	}
	return out, nil
}

func (a *Aggregator) antiBubble(ctx context.Context, now time.Time) ([]model.AntiBubblePick, error) {
	picks := a.clients.AntiBubble.Pick(ctx, now)
	if len(picks) == 0 {
		return []model.AntiBubblePick{}, errors.New("no accessible picks in the curated pool")
	}
	return picks, nil
}

// Videos collects each channel's recent uploads and picks from them. It fails
// only when no channel could be read.
func (a *Aggregator) Videos(ctx context.Context, now time.Time) ([]model.Video, error) {
	cfg := a.sources.YouTube
	var candidates []model.Video
	failed := 0
	for _, ch := range cfg.Channels {
		res := a.clients.YouTube.Recent(ctx, ch, cfg.PerChannel)
		if !res.OK() {
			a.log.Warn("channel feed failed", "source", ch.Name, "error", res.Reason())
			failed++
			continue
		}
		candidates = append(candidates, res.Value...)
	}
	if len(cfg.Channels) > 0 && failed == len(cfg.Channels) {
		return []model.Video{}, fmt.Errorf("all %d channel feeds failed", failed)
	}
	return selector.Videos(candidates, now, cfg.Want), nil
}

func (a *Aggregator) highlights(ctx context.Context, now time.Time) (model.HighlightsResult, error) {
	cfg := a.sources.Highlights
	if !a.clients.Readwise.HasToken() {
		a.log.Info("readwise token not set, skipping highlights")
		return model.HighlightsResult{Status: readwise.StatusNoToken, Highlights: []model.Highlight{}}, nil
	}
	res := a.clients.Readwise.Highlights(ctx, now.AddDate(0, 0, -cfg.Days), cfg.Max)
	if res.Status != readwise.StatusOK {
		return res, fmt.Errorf("highlights export: %s", res.Status)
	}
	return res, nil
}
