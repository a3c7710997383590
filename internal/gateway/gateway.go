package gateway

import (
	"context"
	"fmt"
	"log/slog"

	"ringleader/internal/domain"
)

// Gateway wraps the daemon's outbound operations. Every call is at-most-once:
// no retry, no timeout beyond what the daemon itself imposes.
type Gateway struct {
	daemon domain.Daemon
	logger *slog.Logger
}

func New(d domain.Daemon, logger *slog.Logger) *Gateway {
	return &Gateway{daemon: d, logger: logger}
}

// Send posts text into a conversation without threading.
func (g *Gateway) Send(ctx context.Context, accountID, conversationID, text string) error {
	if err := g.daemon.SendMessage(ctx, accountID, conversationID, text, "", 0); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	g.logger.Debug("message sent", "account", accountID, "conversation", conversationID)
	return nil
}

// Reply posts text threaded under the interaction replyTo. An empty replyTo
// degrades to a plain send.
func (g *Gateway) Reply(ctx context.Context, accountID, conversationID, text, replyTo string) error {
	if err := g.daemon.SendMessage(ctx, accountID, conversationID, text, replyTo, 0); err != nil {
		return fmt.Errorf("send reply: %w", err)
	}
	g.logger.Debug("reply sent", "account", accountID, "conversation", conversationID, "replyTo", replyTo)
	return nil
}

// Download asks the daemon to fetch a finished transfer to path. Returns
// once the daemon accepted the request; the file lands asynchronously.
func (g *Gateway) Download(ctx context.Context, accountID, conversationID, interactionID, fileID, path string) error {
	if err := g.daemon.DownloadFile(ctx, accountID, conversationID, interactionID, fileID, path); err != nil {
		return fmt.Errorf("download file: %w", err)
	}
	g.logger.Debug("download requested", "file", fileID, "path", path)
	return nil
}
