package notify

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/go-cmp/cmp"

	"briefing/internal/model"
)

type mockAPI struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (m *mockAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		m.sent = append(m.sent, msg)
	}
	return tgbotapi.Message{}, m.err
}

func newTestTelegram(api *mockAPI) *Telegram {
	return &Telegram{api: api, chatID: 42, log: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func TestSend(t *testing.T) {
	api := &mockAPI{}
	if err := newTestTelegram(api).Send("hello"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(api.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(api.sent))
	}
	if diff := cmp.Diff(int64(42), api.sent[0].ChatID); diff != "" {
		t.Errorf("chat id mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff("hello", api.sent[0].Text); diff != "" {
		t.Errorf("text mismatch (-want +got):\n%s", diff)
	}
	if !api.sent[0].DisableWebPagePreview {
		t.Error("link previews should be disabled")
	}
}

func TestSendTruncatesLongMessages(t *testing.T) {
	api := &mockAPI{}
	if err := newTestTelegram(api).Send(strings.Repeat("word ", 2000)); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if n := len([]rune(api.sent[0].Text)); n > maxMessageRunes+1 {
		t.Errorf("message has %d runes, want at most %d", n, maxMessageRunes+1)
	}
}

func TestSendError(t *testing.T) {
	api := &mockAPI{err: errors.New("Forbidden: bot was blocked by the user")}
	if err := newTestTelegram(api).Send("hello"); err == nil {
		t.Error("expected error")
	}
}

func TestFormatSnapshot(t *testing.T) {
	s := model.Snapshot{
		GeneratedAt: time.Date(2026, 2, 16, 7, 5, 0, 0, time.UTC),
		HN:          make([]model.HNStory, 5),
		Reddit: []model.SubredditResult{
			{Subreddit: "Biohackers", Status: 200, Entries: make([]model.RedditPost, 3)},
			{Subreddit: "whoop", Status: 429, Error: "HTTP 429", Entries: []model.RedditPost{}},
		},
		AntiBubble: []model.AntiBubblePick{
			{Source: "Aeon", Title: "The quiet history of the index card"},
			{Source: "Noema", Title: "Cities after cars"},
		},
		YouTube:  make([]model.Video, 3),
		Readwise: model.HighlightsResult{Status: "no_token", Highlights: []model.Highlight{}},
		Errors:   map[string]string{"youtube": "no channel resolved", "antibubble": "no picks"},
	}

	want := `[Morning Briefing] snapshot 2026-02-16 07:05 UTC

HN: 5 stories
Reddit: 3 posts from 2 subreddits (1 failed)
Anti-bubble: 2 picks
  Aeon: The quiet history of the index card
  Noema: Cities after cars
YouTube: 3 videos
Readwise: 0 highlights (no_token)

Errors:
- antibubble: no picks
- youtube: no channel resolved`

	if diff := cmp.Diff(want, FormatSnapshot(s)); diff != "" {
		t.Errorf("FormatSnapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestFormatUpdate(t *testing.T) {
	tests := []struct {
		name    string
		changed bool
		saved   int
		failed  int
		publish bool
		want    string
	}{
		{
			name:    "updated and published",
			changed: true, saved: 7, failed: 1, publish: true,
			want: "[Morning Briefing] post posts/2026-02-16.md\n\nPost updated.\nReadwise: 7 saved, 1 failed",
		},
		{
			name: "unchanged without publishing",
			want: "[Morning Briefing] post posts/2026-02-16.md\n\nNo changes needed.\nReadwise: skipped",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatUpdate("posts/2026-02-16.md", tt.changed, tt.saved, tt.failed, tt.publish)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("FormatUpdate mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
