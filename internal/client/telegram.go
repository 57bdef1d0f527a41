package client

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/mymmrac/telego"
)

// botAPI is the slice of the Telegram Bot API the subsystem needs. Tests
// substitute a fake; production wraps *telego.Bot.
type botAPI interface {
	GetChat(ctx context.Context, params *telego.GetChatParams) (*telego.ChatFullInfo, error)
	SendMessage(ctx context.Context, params *telego.SendMessageParams) (*telego.Message, error)
}

// TelegramClient is the messaging collaborator: it probes chat reachability
// and delivers rendered reminder text.
type TelegramClient struct {
	bot     botAPI
	timeout time.Duration
}

func NewTelegramClient(token string, timeout time.Duration) (*TelegramClient, error) {
	bot, err := telego.NewBot(token)
	if err != nil {
		return nil, fmt.Errorf("init telegram bot: %w", err)
	}
	return newTelegramClient(bot, timeout), nil
}

func newTelegramClient(bot botAPI, timeout time.Duration) *TelegramClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &TelegramClient{bot: bot, timeout: timeout}
}

// ValidateRecipient reports whether a chat is still reachable. Any probe
// error counts as unreachable, so an invalid target never gets a delivery
// attempt.
func (c *TelegramClient) ValidateRecipient(ctx context.Context, chatID int64) bool {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	_, err := c.bot.GetChat(ctx, &telego.GetChatParams{
		ChatID: telego.ChatID{ID: chatID},
	})
	if err != nil {
		slog.Warn("recipient validation failed", "chat_id", chatID, "error", err)
		return false
	}
	return true
}

// SendText delivers text to a chat and returns the remote message id.
func (c *TelegramClient) SendText(ctx context.Context, chatID int64, text string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	msg, err := c.bot.SendMessage(ctx, &telego.SendMessageParams{
		ChatID: telego.ChatID{ID: chatID},
		Text:   text,
	})
	if err != nil {
		return "", fmt.Errorf("send message to chat %d: %w", chatID, err)
	}
	return strconv.Itoa(msg.MessageID), nil
}
