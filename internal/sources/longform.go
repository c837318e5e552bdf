package sources

import (
	"context"

	"briefing/internal/fetcher"
	"briefing/internal/model"
)

// Longform reads the feeds of curated long-form outlets.
type Longform struct {
	fetcher *fetcher.Fetcher
}

// NewLongform creates a long-form outlet client.
func NewLongform(f *fetcher.Fetcher) *Longform {
	return &Longform{fetcher: f}
}

// Entries returns up to limit entries from the outlet's RSS or Atom feed.
func (l *Longform) Entries(ctx context.Context, src model.CuratedSource, limit int) fetcher.Result[[]model.FeedEntry] {
	res := l.fetcher.Feed(ctx, src.FeedURL)
	if !res.OK() {
		return fetcher.Result[[]model.FeedEntry]{Status: res.Status, Kind: res.Kind, Err: res.Err}
	}
	return fetcher.Result[[]model.FeedEntry]{
		Value:  fetcher.Entries(res.Value.Items, src.Name, limit),
		Status: res.Status,
	}
}
