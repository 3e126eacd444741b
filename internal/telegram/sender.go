// Package telegram implements the outbound reply dispatcher over the Telegram
// Bot API using go-telegram-bot-api. Inbound updates are parsed directly from
// the webhook body elsewhere; this package only sends.
package telegram

import (
	"context"
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender delivers a reply to a chat. Implementations must be safe for
// concurrent use and should bound the time a send may take.
type Sender interface {
	Send(ctx context.Context, chatID int64, text string) error
}

// BotSender sends messages through an authorized Bot API client.
type BotSender struct {
	api *tgbotapi.BotAPI
}

// New authorizes against the Bot API and returns a BotSender. The underlying
// HTTP client carries its own timeout; the Bot API library does not accept a
// per-request context.
func New(token string) (*BotSender, error) {
	return NewWithEndpoint(token, tgbotapi.APIEndpoint)
}

// NewWithEndpoint is New against a custom API endpoint (used by tests).
func NewWithEndpoint(token, endpoint string) (*BotSender, error) {
	api, err := tgbotapi.NewBotAPIWithClient(token, endpoint, &http.Client{Timeout: 30 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("authorize bot: %w", err)
	}
	return &BotSender{api: api}, nil
}

// Send posts text to chatID via the sendMessage endpoint.
func (s *BotSender) Send(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := s.api.Send(msg); err != nil {
		return fmt.Errorf("send message to chat %d: %w", chatID, err)
	}
	return nil
}

// Username returns the authorized bot's username, for startup logging.
func (s *BotSender) Username() string { return s.api.Self.UserName }
