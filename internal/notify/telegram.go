package notify

import (
	"context"
	"fmt"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notifier delivers a short text about an upload to somebody watching the run.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Nop drops every notification.
type Nop struct{}

func (Nop) Notify(context.Context, string) error { return nil }

// Telegram posts notifications to one chat through the Bot API.
type Telegram struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegram(token string, chatID int64) (*Telegram, error) {
	return NewTelegramWithClient(token, tgbotapi.APIEndpoint, chatID, &http.Client{})
}

// NewTelegramWithClient talks to a custom endpoint, which must be a format
// string like tgbotapi.APIEndpoint. It verifies the token with getMe.
func NewTelegramWithClient(token, endpoint string, chatID int64, client *http.Client) (*Telegram, error) {
	if chatID == 0 {
		return nil, fmt.Errorf("telegram: chat id is required")
	}
	api, err := tgbotapi.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	api.Debug = false
	return &Telegram{api: api, chatID: chatID}, nil
}

func (t *Telegram) Notify(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

func UploadedText(name, sourceURL, uid, preview string) string {
	return fmt.Sprintf("✅ %s uploaded\nsource: %s\nuid: %s\npreview: %s", name, sourceURL, uid, preview)
}

func FailedText(name, sourceURL string, err error) string {
	return fmt.Sprintf("❌ %s failed\nsource: %s\nerror: %v", name, sourceURL, err)
}
