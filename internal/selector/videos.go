package selector

import (
	"slices"
	"strings"
	"time"

	"briefing/internal/model"
)

// Recency windows for video picks. The wide window applies when fewer than
// minRecent videos fall inside the narrow one.
const (
	narrowWindow = 14 * 24 * time.Hour
	wideWindow   = 30 * 24 * time.Hour
	minRecent    = 3
)

// Videos picks up to want videos, newest first and at most one per channel.
// Shorts are excluded.
func Videos(candidates []model.Video, now time.Time, want int) []model.Video {
	var pool []model.Video
	for _, v := range candidates {
		if strings.Contains(v.Link, "/shorts/") {
			continue
		}
		pool = append(pool, v)
	}

	recent := within(pool, now, narrowWindow)
	if len(recent) < minRecent {
		recent = within(pool, now, wideWindow)
	}
	slices.SortStableFunc(recent, func(a, b model.Video) int {
		return b.PublishedAt.Compare(a.PublishedAt)
	})

	out := []model.Video{}
	channels := map[string]bool{}
	for _, v := range recent {
		if len(out) >= want {
			break
		}
		key := channelKey(v)
		if channels[key] {
			continue
		}
		channels[key] = true
		out = append(out, v)
	}
	return out
}

func within(videos []model.Video, now time.Time, window time.Duration) []model.Video {
	var out []model.Video
	for _, v := range videos {
		if now.Sub(v.PublishedAt) <= window {
			out = append(out, v)
		}
	}
	return out
}

func channelKey(v model.Video) string {
	if v.ChannelURL != "" {
		return v.ChannelURL
	}
	return v.Channel
}
