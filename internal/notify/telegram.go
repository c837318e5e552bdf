// Package notify reports the outcome of a pipeline run to a Telegram chat.
package notify

import (
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"briefing/internal/textnorm"
)

// maxMessageRunes stays under the Telegram limit of 4096 characters.
const maxMessageRunes = 4000

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram sends run reports to one chat.
type Telegram struct {
	api    telegramAPI
	chatID int64
	log    *slog.Logger
}

// NewTelegram creates a notifier for chatID authenticated with token.
func NewTelegram(token string, chatID int64, log *slog.Logger) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	return &Telegram{api: api, chatID: chatID, log: log}, nil
}

// Send delivers text as a plain message without link previews.
func (t *Telegram) Send(text string) error {
	msg := tgbotapi.NewMessage(t.chatID, textnorm.Truncate(text, maxMessageRunes))
	msg.DisableWebPagePreview = true
	if _, err := t.api.Send(msg); err != nil {
		t.log.Error("send message", "chat_id", t.chatID, "error", err)
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}
