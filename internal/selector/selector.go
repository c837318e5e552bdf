// Package selector picks the daily anti-bubble reading list and the YouTube
// picks. Source order rotates by day through a seeded hash, and previously
// picked links are skipped using the rolling history.
package selector

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"slices"
	"strings"
	"time"

	"briefing/internal/fetcher"
	"briefing/internal/model"
	"briefing/internal/storage"
)

// Seed returns the daily selection seed: the UTC calendar date of now.
func Seed(now time.Time) string {
	return now.UTC().Format(time.DateOnly)
}

// Order returns a copy of pool sorted by the hex SHA-256 of
// seed + "|" + FeedURL. The same seed always yields the same order.
func Order(pool []model.CuratedSource, seed string) []model.CuratedSource {
	type keyed struct {
		key string
		src model.CuratedSource
	}
	ks := make([]keyed, len(pool))
	for i, src := range pool {
		sum := sha256.Sum256([]byte(seed + "|" + src.FeedURL))
		ks[i] = keyed{key: hex.EncodeToString(sum[:]), src: src}
	}
	slices.SortStableFunc(ks, func(a, b keyed) int {
		return strings.Compare(a.key, b.key)
	})

	out := make([]model.CuratedSource, len(ks))
	for i, k := range ks {
		out[i] = k.src
	}
	return out
}

// EntrySource lists the candidate entries of a curated outlet.
type EntrySource interface {
	Entries(ctx context.Context, src model.CuratedSource, limit int) fetcher.Result[[]model.FeedEntry]
}

// Checker decides whether a link is worth handing to a reader.
type Checker interface {
	Accessible(ctx context.Context, link string) bool
}

// Options tunes the anti-bubble selection.
type Options struct {
	Want           int
	MinDomains     int
	PerSourceLimit int
}

// DefaultOptions are the counts used by the daily run.
var DefaultOptions = Options{Want: 3, MinDomains: 2, PerSourceLimit: 15}

// AntiBubble selects long-form picks from the curated pool.
type AntiBubble struct {
	pool    []model.CuratedSource
	entries EntrySource
	checker Checker
	history storage.HistoryStore
	opts    Options
	log     *slog.Logger
}

// NewAntiBubble creates a selector over pool.
func NewAntiBubble(pool []model.CuratedSource, entries EntrySource, checker Checker, history storage.HistoryStore, opts Options, log *slog.Logger) *AntiBubble {
	return &AntiBubble{
		pool:    pool,
		entries: entries,
		checker: checker,
		history: history,
		opts:    opts,
		log:     log,
	}
}

// Pick walks the pool in the day's order and takes at most one entry per
// source until Want picks spanning MinDomains domains are collected or the
// pool runs out. The walk is greedy and never backtracks, so the domain
// target is best-effort. New picks are appended to the history.
func (a *AntiBubble) Pick(ctx context.Context, now time.Time) []model.AntiBubblePick {
	ordered := Order(a.pool, Seed(now))

	history, err := a.history.Load(ctx)
	if err != nil {
		a.log.Warn("load history, continuing with empty history", "error", err)
		history = nil
	}
	seen := make(map[string]bool, len(history))
	for _, u := range history {
		seen[u] = true
	}

	picks := []model.AntiBubblePick{}
	domains := map[string]bool{}
	for _, src := range ordered {
		if len(picks) >= a.opts.Want && len(domains) >= a.opts.MinDomains {
			break
		}
		if ctx.Err() != nil {
			break
		}

		res := a.entries.Entries(ctx, src, a.opts.PerSourceLimit)
		if !res.OK() {
			a.log.Warn("anti-bubble source unavailable", "source", src.Name, "error", res.Reason())
			continue
		}
		if pick, ok := a.first(ctx, src, res.Value, seen); ok {
			picks = append(picks, pick)
			domains[pick.Domain] = true
		}
	}

	if len(picks) > a.opts.Want {
		picks = picks[:a.opts.Want]
	}
	if len(domains) < a.opts.MinDomains {
		a.log.Info("anti-bubble domain target not met", "domains", len(domains), "want", a.opts.MinDomains)
	}

	if len(picks) > 0 {
		updated := slices.Clone(history)
		for _, p := range picks {
			updated = append(updated, p.Link)
		}
		if err := a.history.Save(ctx, updated); err != nil {
			a.log.Error("save history", "error", err)
		}
	}
	return picks
}

func (a *AntiBubble) first(ctx context.Context, src model.CuratedSource, entries []model.FeedEntry, seen map[string]bool) (model.AntiBubblePick, bool) {
	for _, e := range entries {
		if !e.Selectable() || seen[e.Link] {
			continue
		}
		if !a.checker.Accessible(ctx, e.Link) {
			a.log.Debug("skip inaccessible link", "source", src.Name, "url", e.Link)
			continue
		}
		return model.AntiBubblePick{Source: src.Name, Title: e.Title, Link: e.Link, Domain: e.Domain}, true
	}
	return model.AntiBubblePick{}, false
}
