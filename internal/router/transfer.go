package router

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"ringleader/internal/domain"
	"ringleader/internal/metrics"
)

const transferStampLayout = "20060102-1504"

// processTransfer handles a finished file transfer: derive a timestamped
// local filename, ask the daemon to download, then fire the transfer hooks.
// The download is fire-and-forget; hooks run whether or not the daemon
// accepted the request, and never wait for the file to land.
func (r *Router) processTransfer(ctx context.Context, ev domain.Event) error {
	msg := ev.Message
	if msg.ID == "" || msg.FileID == "" || msg.DisplayName == "" {
		metrics.EventsMalformed.Inc()
		return fmt.Errorf("transfer in conversation %s missing id, fileId or displayName", ev.Conversation)
	}

	if err := os.MkdirAll(r.downloadDir, 0o755); err != nil {
		return fmt.Errorf("create download directory %s: %w", r.downloadDir, err)
	}

	dest := filepath.Join(r.downloadDir, r.now().Format(transferStampLayout)+"_"+msg.DisplayName)

	if err := r.sender.Download(ctx, ev.Account, ev.Conversation, msg.ID, msg.FileID, dest); err != nil {
		r.logger.Warn("download request failed", "file", msg.DisplayName, "err", err)
	}

	metrics.Transfers.Inc()
	r.hooks.FireTransfer(ctx, ev.Account, ev.Conversation, msg, dest)
	return nil
}
