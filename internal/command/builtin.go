package command

import (
	"context"

	"ringleader/internal/domain"
)

// RegisterBuiltins installs the built-in commands on t.
func RegisterBuiltins(t *Table) {
	t.Register("ping", "Check that the bot is alive", func(ctx context.Context, accountID, conversationID string, msg *domain.Message) string {
		return "pong! " + msg.Body
	})

	t.Register("help", "List available commands", func(ctx context.Context, accountID, conversationID string, msg *domain.Message) string {
		return t.Help()
	})
}
