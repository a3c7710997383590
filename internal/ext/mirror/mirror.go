// Package mirror is a reference extension forwarding accepted events to an
// operator Telegram chat. It consumes the core's hook contracts only; the
// router knows nothing about it.
package mirror

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"ringleader/internal/domain"
	"ringleader/internal/hook"
)

const maxMsgLen = 4000

// Mirror forwards text messages and finished transfers to one Telegram chat.
type Mirror struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger *slog.Logger
}

type Config struct {
	Token  string
	ChatID string
	Logger *slog.Logger
}

func New(cfg Config) (*Mirror, error) {
	chatID, err := strconv.ParseInt(strings.TrimSpace(cfg.ChatID), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("mirror chat id: %w", err)
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	cfg.Logger.Info("mirror connected", "username", bot.Self.UserName)

	return &Mirror{bot: bot, chatID: chatID, logger: cfg.Logger}, nil
}

// Attach registers the mirror on both hook chains.
func (m *Mirror) Attach(hooks *hook.Registry) {
	hooks.OnText(m.mirrorText)
	hooks.OnTransfer(m.mirrorTransfer)
}

func (m *Mirror) mirrorText(ctx context.Context, accountID, conversationID string, msg *domain.Message) {
	m.send(formatText(conversationID, msg))
}

func (m *Mirror) mirrorTransfer(ctx context.Context, accountID, conversationID string, msg *domain.Message, localPath string) {
	m.send(formatTransfer(conversationID, msg, localPath))
}

func (m *Mirror) send(text string) {
	for _, part := range chunk(text, maxMsgLen) {
		if _, err := m.bot.Send(tgbotapi.NewMessage(m.chatID, part)); err != nil {
			m.logger.Warn("mirror send failed", "err", err)
			return
		}
	}
}

func formatText(conversationID string, msg *domain.Message) string {
	return fmt.Sprintf("[%s] %s: %s", conversationID, msg.Author, msg.Body)
}

func formatTransfer(conversationID string, msg *domain.Message, localPath string) string {
	return fmt.Sprintf("[%s] %s sent a file: %s -> %s", conversationID, msg.Author, msg.DisplayName, localPath)
}

// chunk splits s into pieces of at most n bytes, cutting on rune boundaries.
func chunk(s string, n int) []string {
	if len(s) <= n {
		return []string{s}
	}
	var parts []string
	current := strings.Builder{}
	for _, r := range s {
		if current.Len()+len(string(r)) > n {
			parts = append(parts, current.String())
			current.Reset()
		}
		current.WriteRune(r)
	}
	if current.Len() > 0 {
		parts = append(parts, current.String())
	}
	return parts
}
