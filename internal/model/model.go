// Package model defines the domain types used across the application.
package model

import (
	"net/url"
	"strings"
	"time"
)

// FeedEntry is the normalized unit produced by every feed source.
type FeedEntry struct {
	Title       string     `json:"title"`
	Link        string     `json:"link"`
	Author      string     `json:"author,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	BodyText    string     `json:"post_text,omitempty"`
	SourceName  string     `json:"source"`
	Domain      string     `json:"domain"`
}

// Selectable reports whether the entry carries enough identity to be picked.
func (e FeedEntry) Selectable() bool {
	return e.Title != "" && e.Link != "" && e.Domain != ""
}

// DomainOf returns the lower-cased host of a URL, or "" when it cannot be parsed.
func DomainOf(link string) string {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// Comment is an excerpt of a discussion comment.
type Comment struct {
	Author  string `json:"author"`
	Excerpt string `json:"excerpt"`
	Link    string `json:"link"`
	ID      string `json:"comment_id,omitempty"`
}

// HNStory is a Hacker News front-page item.
type HNStory struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	URL         string    `json:"url,omitempty"`
	Domain      string    `json:"domain"`
	Score       int       `json:"score"`
	Comments    int       `json:"comments"`
	HNLink      string    `json:"hn_link"`
	PostText    string    `json:"post_text,omitempty"`
	Type        string    `json:"type"`
	TopComments []Comment `json:"top_comments"`
}

// RedditPost is a subreddit entry with its top comments.
// TopComments is nil when the comment feed could not be read.
type RedditPost struct {
	FeedEntry
	TopComments []Comment `json:"top_comments"`
}

// SubredditResult is the per-subreddit outcome envelope.
type SubredditResult struct {
	Subreddit string       `json:"subreddit"`
	Status    int          `json:"status"`
	Error     string       `json:"error,omitempty"`
	Entries   []RedditPost `json:"entries"`
	Fetched   int          `json:"fetched"`
}

// CuratedSource is a long-form outlet in the anti-bubble pool.
type CuratedSource struct {
	Name     string `json:"name" yaml:"name"`
	FeedURL  string `json:"feed_url" yaml:"feed_url"`
	Homepage string `json:"homepage" yaml:"homepage"`
}

// AntiBubblePick is a long-form article chosen from the curated pool.
type AntiBubblePick struct {
	Source string `json:"source"`
	Title  string `json:"title"`
	Link   string `json:"link"`
	Domain string `json:"domain"`
}

// VideoChannel is a curated YouTube channel. ChannelID may be empty and is
// then resolved lazily from URL.
type VideoChannel struct {
	Name      string `json:"name" yaml:"name"`
	URL       string `json:"url" yaml:"url"`
	ChannelID string `json:"channel_id,omitempty" yaml:"channel_id"`
}

// Video is an upload from a curated channel.
type Video struct {
	Channel     string    `json:"channel"`
	ChannelURL  string    `json:"channel_url"`
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	VideoID     string    `json:"video_id,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}

// Highlight is a Readwise highlight.
type Highlight struct {
	Text          string   `json:"text"`
	Tags          []string `json:"tags"`
	Title         string   `json:"title"`
	Author        string   `json:"author"`
	Source        string   `json:"source"`
	URL           string   `json:"url"`
	HighlightedAt string   `json:"highlighted_at"`
}

// HighlightsResult is the outcome envelope for a highlights export.
type HighlightsResult struct {
	Status     string      `json:"status"`
	Since      string      `json:"since,omitempty"`
	Highlights []Highlight `json:"highlights"`
}

// Snapshot is the combined hand-off artifact of one aggregation run.
type Snapshot struct {
	GeneratedAt time.Time         `json:"generated_at"`
	HN          []HNStory         `json:"hn"`
	Reddit      []SubredditResult `json:"reddit"`
	AntiBubble  []AntiBubblePick  `json:"antibubble"`
	YouTube     []Video           `json:"youtube"`
	Readwise    HighlightsResult  `json:"readwise"`
	Errors      map[string]string `json:"errors,omitempty"`
}

// FilterKind defines the type of filter rule.
type FilterKind string

// Supported filter kinds.
const (
	FilterInclude   FilterKind = "include"
	FilterExclude   FilterKind = "exclude"
	FilterIncludeRe FilterKind = "include_re"
	FilterExcludeRe FilterKind = "exclude_re"
)

// FilterScope defines which part of a feed entry a filter matches against.
type FilterScope string

// Supported filter scopes.
const (
	ScopeTitle   FilterScope = "title"
	ScopeContent FilterScope = "content"
	ScopeAll     FilterScope = "all"
)

// Filter is a single extra filtering rule attached to a source.
type Filter struct {
	Kind  FilterKind  `yaml:"kind"`
	Scope FilterScope `yaml:"scope"`
	Value string      `yaml:"value"`
}
