package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"briefing/internal/filter"
	"briefing/internal/model"
)

//go:embed sources.yaml
var defaultSources []byte

// Sources is the pool of feeds the briefing reads and how much to take from
// each.
type Sources struct {
	HackerNews HackerNews `yaml:"hacker_news"`
	Reddit     Reddit     `yaml:"reddit"`
	Longform   Longform   `yaml:"longform"`
	YouTube    YouTube    `yaml:"youtube"`
	Highlights Highlights `yaml:"highlights"`
}

// HackerNews configures the front-page section.
type HackerNews struct {
	Stories  int `yaml:"stories"`
	Comments int `yaml:"comments"`

	// DiscussionLookup is how many current top stories update-post checks
	// before asking Algolia.
	DiscussionLookup int `yaml:"discussion_lookup"`
}

// Reddit configures the subreddit section.
type Reddit struct {
	PerSubreddit int         `yaml:"per_subreddit"`
	MaxFetch     int         `yaml:"max_fetch"`
	Comments     int         `yaml:"comments"`
	Subreddits   []Subreddit `yaml:"subreddits"`
}

// Subreddit is one subreddit and its extra filtering rules.
type Subreddit struct {
	Name  string         `yaml:"name"`
	Rules []model.Filter `yaml:"rules"`
}

// Longform configures the anti-bubble picks.
type Longform struct {
	Want           int                   `yaml:"want"`
	MinDomains     int                   `yaml:"min_domains"`
	PerSourceLimit int                   `yaml:"per_source_limit"`
	Pool           []model.CuratedSource `yaml:"pool"`
}

// YouTube configures the video picks.
type YouTube struct {
	Want       int                  `yaml:"want"`
	PerChannel int                  `yaml:"per_channel"`
	Channels   []model.VideoChannel `yaml:"channels"`
}

// Highlights configures the Readwise highlights export.
type Highlights struct {
	Days int `yaml:"days"`
	Max  int `yaml:"max"`
}

// LoadSources reads the source pool from path, or the built-in pool when path
// is empty.
func LoadSources(path string) (*Sources, error) {
	data := defaultSources
	if path != "" {
		b, err := os.ReadFile(path) //nolint:gosec // path comes from configuration
		if err != nil {
			return nil, fmt.Errorf("read sources: %w", err)
		}
		data = b
	}
	return ParseSources(data)
}

// ParseSources decodes and validates a YAML source pool.
func ParseSources(data []byte) (*Sources, error) {
	var s Sources
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode sources: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks counts, required fields and filter rules.
func (s *Sources) Validate() error {
	var errs []error
	positive := func(name string, v int) {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %d", name, v))
		}
	}

	positive("hacker_news.stories", s.HackerNews.Stories)
	positive("reddit.per_subreddit", s.Reddit.PerSubreddit)
	positive("longform.want", s.Longform.Want)
	positive("longform.per_source_limit", s.Longform.PerSourceLimit)
	positive("youtube.want", s.YouTube.Want)
	positive("youtube.per_channel", s.YouTube.PerChannel)
	if s.Reddit.MaxFetch < s.Reddit.PerSubreddit {
		errs = append(errs, fmt.Errorf("reddit.max_fetch (%d) must be at least per_subreddit (%d)", s.Reddit.MaxFetch, s.Reddit.PerSubreddit))
	}

	seen := map[string]bool{}
	for i, sub := range s.Reddit.Subreddits {
		if sub.Name == "" {
			errs = append(errs, fmt.Errorf("reddit.subreddits[%d]: name is required", i))
			continue
		}
		if seen[sub.Name] {
			errs = append(errs, fmt.Errorf("reddit.subreddits[%d]: duplicate subreddit %q", i, sub.Name))
		}
		seen[sub.Name] = true
		if _, err := filter.Compile(sub.Rules); err != nil {
			errs = append(errs, fmt.Errorf("reddit.subreddits[%d] (%s): %w", i, sub.Name, err))
		}
	}

	feeds := map[string]bool{}
	for i, src := range s.Longform.Pool {
		if src.Name == "" || src.FeedURL == "" {
			errs = append(errs, fmt.Errorf("longform.pool[%d]: name and feed_url are required", i))
			continue
		}
		if feeds[src.FeedURL] {
			errs = append(errs, fmt.Errorf("longform.pool[%d]: duplicate feed %q", i, src.FeedURL))
		}
		feeds[src.FeedURL] = true
	}

	for i, ch := range s.YouTube.Channels {
		if ch.Name == "" || ch.URL == "" {
			errs = append(errs, fmt.Errorf("youtube.channels[%d]: name and url are required", i))
		}
	}

	return errors.Join(errs...)
}

// CompiledRules returns the compiled extra rules of every subreddit.
func (r Reddit) CompiledRules() (map[string]*filter.Rules, error) {
	out := make(map[string]*filter.Rules, len(r.Subreddits))
	for _, sub := range r.Subreddits {
		rules, err := filter.Compile(sub.Rules)
		if err != nil {
			return nil, fmt.Errorf("subreddit %s: %w", sub.Name, err)
		}
		out[sub.Name] = rules
	}
	return out, nil
}
