package aggregator

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"briefing/internal/config"
	"briefing/internal/fetcher"
	"briefing/internal/filter"
	"briefing/internal/model"
)

var now = time.Date(2026, 2, 16, 7, 0, 0, 0, time.UTC)

type fakeHN struct {
	stories fetcher.Result[[]model.HNStory]
}

func (f *fakeHN) TopStories(_ context.Context, n int) fetcher.Result[[]model.HNStory] {
	r := f.stories
	if len(r.Value) > n {
		r.Value = r.Value[:n]
	}
	return r
}

func (f *fakeHN) TopComments(_ context.Context, _ int64, n int) []model.Comment {
	out := []model.Comment{}
	for range n {
		out = append(out, model.Comment{Author: "pg", Excerpt: "comment"})
	}
	return out
}

type fakeReddit struct {
	mu      sync.Mutex
	results map[string]model.SubredditResult
	rules   map[string]*filter.Rules
}

func (f *fakeReddit) Subreddit(_ context.Context, name string, _, _ int, rules *filter.Rules) model.SubredditResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rules == nil {
		f.rules = map[string]*filter.Rules{}
	}
	f.rules[name] = rules
	if r, ok := f.results[name]; ok {
		return r
	}
	return model.SubredditResult{Subreddit: name, Status: 0, Error: "transport: dial tcp: timeout", Entries: []model.RedditPost{}}
}

func (f *fakeReddit) Comments(_ context.Context, postURL string, _ int) []model.Comment {
	return []model.Comment{{Author: "u", Excerpt: "on " + postURL}}
}

type fakeYouTube struct {
	videos map[string]fetcher.Result[[]model.Video]
}

func (f *fakeYouTube) Recent(_ context.Context, ch model.VideoChannel, _ int) fetcher.Result[[]model.Video] {
	if r, ok := f.videos[ch.Name]; ok {
		return r
	}
	return fetcher.Result[[]model.Video]{Status: 404, Kind: fetcher.KindStatus}
}

type fakePicker struct {
	picks []model.AntiBubblePick
}

func (f *fakePicker) Pick(context.Context, time.Time) []model.AntiBubblePick {
	return f.picks
}

type fakeReadwise struct {
	token  bool
	result model.HighlightsResult
	since  time.Time
	limit  int
}

func (f *fakeReadwise) HasToken() bool { return f.token }

func (f *fakeReadwise) Highlights(_ context.Context, since time.Time, limit int) model.HighlightsResult {
	f.since, f.limit = since, limit
	return f.result
}

type observation struct {
	Items int
	Err   bool
}

type fakeRecorder struct {
	mu  sync.Mutex
	got map[string]observation
}

func (f *fakeRecorder) ObserveSource(category string, items int, _ time.Duration, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.got == nil {
		f.got = map[string]observation{}
	}
	f.got[category] = observation{Items: items, Err: err != nil}
}

func testSources() *config.Sources {
	return &config.Sources{
		HackerNews: config.HackerNews{Stories: 2, Comments: 1},
		Reddit: config.Reddit{
			PerSubreddit: 3, MaxFetch: 40, Comments: 3,
			Subreddits: []config.Subreddit{{Name: "Biohackers"}, {Name: "whoop"}},
		},
		YouTube: config.YouTube{
			Want: 3, PerChannel: 15,
			Channels: []model.VideoChannel{{Name: "A", URL: "https://www.youtube.com/@a"}, {Name: "B", URL: "https://www.youtube.com/@b"}},
		},
		Highlights: config.Highlights{Days: 90, Max: 2000},
	}
}

type fixture struct {
	hn       *fakeHN
	reddit   *fakeReddit
	youtube  *fakeYouTube
	picker   *fakePicker
	readwise *fakeReadwise
	rec      *fakeRecorder
}

func healthy() *fixture {
	return &fixture{
		hn: &fakeHN{stories: fetcher.Result[[]model.HNStory]{Value: []model.HNStory{
			{ID: 1, Title: "one", URL: "https://example.com/1"},
			{ID: 2, Title: "two", URL: "https://example.com/2"},
			{ID: 3, Title: "three"},
		}, Status: 200}},
		reddit: &fakeReddit{results: map[string]model.SubredditResult{
			"Biohackers": {Subreddit: "Biohackers", Status: 200, Fetched: 8, Entries: []model.RedditPost{
				{FeedEntry: model.FeedEntry{Title: "Magnesium", Link: "https://www.reddit.com/r/Biohackers/comments/aaa003/x/"}},
			}},
			"whoop": {Subreddit: "whoop", Status: 200, Fetched: 2, Entries: []model.RedditPost{}},
		}},
		youtube: &fakeYouTube{videos: map[string]fetcher.Result[[]model.Video]{
			"A": {Value: []model.Video{
				{Channel: "A", ChannelURL: "https://www.youtube.com/@a", Title: "a1", Link: "https://www.youtube.com/watch?v=a1", PublishedAt: now.Add(-48 * time.Hour)},
				{Channel: "A", ChannelURL: "https://www.youtube.com/@a", Title: "a2", Link: "https://www.youtube.com/watch?v=a2", PublishedAt: now.Add(-20 * 24 * time.Hour)},
			}},
			"B": {Value: []model.Video{
				{Channel: "B", ChannelURL: "https://www.youtube.com/@b", Title: "b1", Link: "https://www.youtube.com/watch?v=b1", PublishedAt: now.Add(-10 * 24 * time.Hour)},
			}},
		}},
		picker: &fakePicker{picks: []model.AntiBubblePick{
			{Source: "Aeon", Title: "Essay", Link: "https://aeon.co/essays/x", Domain: "aeon.co"},
		}},
		readwise: &fakeReadwise{token: true, result: model.HighlightsResult{Status: "ok", Highlights: []model.Highlight{{Text: "h"}}}},
		rec:      &fakeRecorder{},
	}
}

func (f *fixture) run(t *testing.T, rules map[string]*filter.Rules) model.Snapshot {
	t.Helper()
	a := New(Clients{
		HN:         f.hn,
		Reddit:     f.reddit,
		YouTube:    f.youtube,
		AntiBubble: f.picker,
		Readwise:   f.readwise,
	}, testSources(), rules, f.rec, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return a.Run(context.Background(), now)
}

func TestRun(t *testing.T) {
	f := healthy()
	snap := f.run(t, nil)

	if snap.Errors != nil {
		t.Errorf("unexpected errors: %v", snap.Errors)
	}
	if diff := cmp.Diff(now, snap.GeneratedAt); diff != "" {
		t.Errorf("generated_at mismatch (-want +got):\n%s", diff)
	}

	var titles []string
	for _, s := range snap.HN {
		titles = append(titles, s.Title)
		if len(s.TopComments) != 1 {
			t.Errorf("story %d has %d comments, want 1", s.ID, len(s.TopComments))
		}
	}
	if diff := cmp.Diff([]string{"one", "two"}, titles); diff != "" {
		t.Errorf("hn titles mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff(2, len(snap.Reddit)); diff != "" {
		t.Fatalf("subreddit count mismatch (-want +got):\n%s", diff)
	}
	wantComments := []model.Comment{{Author: "u", Excerpt: "on https://www.reddit.com/r/Biohackers/comments/aaa003/x/"}}
	if diff := cmp.Diff(wantComments, snap.Reddit[0].Entries[0].TopComments); diff != "" {
		t.Errorf("reddit comments mismatch (-want +got):\n%s", diff)
	}

	var videos []string
	for _, v := range snap.YouTube {
		videos = append(videos, v.Title)
	}
	if diff := cmp.Diff([]string{"a1", "b1"}, videos); diff != "" {
		t.Errorf("video picks mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff(1, len(snap.AntiBubble)); diff != "" {
		t.Errorf("anti-bubble count mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff("ok", snap.Readwise.Status); diff != "" {
		t.Errorf("readwise status mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(now.AddDate(0, 0, -90), f.readwise.since); diff != "" {
		t.Errorf("highlights window mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(2000, f.readwise.limit); diff != "" {
		t.Errorf("highlights limit mismatch (-want +got):\n%s", diff)
	}

	wantObs := map[string]observation{
		"hn":         {Items: 2},
		"reddit":     {Items: 1},
		"antibubble": {Items: 1},
		"youtube":    {Items: 2},
		"readwise":   {Items: 1},
	}
	if diff := cmp.Diff(wantObs, f.rec.got); diff != "" {
		t.Errorf("recorded outcomes mismatch (-want +got):\n%s", diff)
	}
}

func TestRunPassesSubredditRules(t *testing.T) {
	f := healthy()
	rules, err := filter.Compile([]model.Filter{{Kind: model.FilterExclude, Scope: model.ScopeAll, Value: "referral"}})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	f.run(t, map[string]*filter.Rules{"Biohackers": rules})

	if f.reddit.rules["Biohackers"] != rules {
		t.Error("Biohackers should receive its compiled rules")
	}
	if f.reddit.rules["whoop"] != nil {
		t.Error("whoop has no rules")
	}
}

func TestRunIsolatesFailures(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(f *fixture)
		wantErrors map[string]string
		check      func(t *testing.T, snap model.Snapshot)
	}{
		{
			name: "hn down",
			mutate: func(f *fixture) {
				f.hn.stories = fetcher.Result[[]model.HNStory]{Status: 503, Kind: fetcher.KindStatus}
			},
			wantErrors: map[string]string{"hn": "HTTP 503"},
			check: func(t *testing.T, snap model.Snapshot) {
				if snap.HN == nil || len(snap.HN) != 0 {
					t.Errorf("hn should be an empty list, got %v", snap.HN)
				}
				if len(snap.YouTube) != 2 || len(snap.Reddit) != 2 {
					t.Error("other categories should still be filled")
				}
			},
		},
		{
			name: "every subreddit down",
			mutate: func(f *fixture) {
				f.reddit.results = nil
			},
			wantErrors: map[string]string{
				"reddit": "all subreddits failed: Biohackers: transport: dial tcp: timeout; whoop: transport: dial tcp: timeout",
			},
			check: func(t *testing.T, snap model.Snapshot) {
				if len(snap.Reddit) != 2 {
					t.Errorf("failed subreddits keep their envelopes, got %d", len(snap.Reddit))
				}
				if len(snap.HN) != 2 {
					t.Error("hn should be unaffected")
				}
			},
		},
		{
			name: "one subreddit down is not a category failure",
			mutate: func(f *fixture) {
				delete(f.reddit.results, "whoop")
			},
			check: func(t *testing.T, snap model.Snapshot) {
				if diff := cmp.Diff("transport: dial tcp: timeout", snap.Reddit[1].Error); diff != "" {
					t.Errorf("envelope error mismatch (-want +got):\n%s", diff)
				}
			},
		},
		{
			name: "no anti-bubble picks",
			mutate: func(f *fixture) {
				f.picker.picks = nil
			},
			wantErrors: map[string]string{"antibubble": "no accessible picks in the curated pool"},
			check: func(t *testing.T, snap model.Snapshot) {
				if snap.AntiBubble == nil {
					t.Error("antibubble should be an empty list")
				}
			},
		},
		{
			name: "every channel down",
			mutate: func(f *fixture) {
				f.youtube.videos = nil
			},
			wantErrors: map[string]string{"youtube": "all 2 channel feeds failed"},
		},
		{
			name: "one channel down",
			mutate: func(f *fixture) {
				delete(f.youtube.videos, "A")
			},
			check: func(t *testing.T, snap model.Snapshot) {
				if len(snap.YouTube) != 1 || snap.YouTube[0].Title != "b1" {
					t.Errorf("want only b1, got %v", snap.YouTube)
				}
			},
		},
		{
			name: "readwise without token is a skip",
			mutate: func(f *fixture) {
				f.readwise.token = false
			},
			check: func(t *testing.T, snap model.Snapshot) {
				want := model.HighlightsResult{Status: "no_token", Highlights: []model.Highlight{}}
				if diff := cmp.Diff(want, snap.Readwise); diff != "" {
					t.Errorf("readwise mismatch (-want +got):\n%s", diff)
				}
			},
		},
		{
			name: "readwise rejects token",
			mutate: func(f *fixture) {
				f.readwise.result = model.HighlightsResult{Status: "http_401", Highlights: []model.Highlight{}}
			},
			wantErrors: map[string]string{"readwise": "highlights export: http_401"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := healthy()
			tt.mutate(f)
			snap := f.run(t, nil)

			if diff := cmp.Diff(tt.wantErrors, snap.Errors); diff != "" {
				t.Errorf("errors mismatch (-want +got):\n%s", diff)
			}
			for category := range tt.wantErrors {
				if !f.rec.got[category].Err {
					t.Errorf("category %s should be recorded as failed", category)
				}
			}
			if tt.check != nil {
				tt.check(t, snap)
			}
		})
	}
}
