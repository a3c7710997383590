package domain

import "context"

// Daemon is the RPC surface of the external messaging daemon. Calls are
// synchronous and unretried; delivery reliability is the daemon's problem,
// not ours.
type Daemon interface {
	// Ping reports whether the daemon is reachable.
	Ping(ctx context.Context) bool

	// AccountList returns the identifiers of all local accounts.
	AccountList(ctx context.Context) ([]string, error)

	// AccountDetails returns the daemon's detail map for one account.
	AccountDetails(ctx context.Context, accountID string) (map[string]string, error)

	// SendMessage posts text into a conversation. A non-empty replyTo
	// threads the message under that interaction.
	SendMessage(ctx context.Context, accountID, conversationID, text, replyTo string, flag int32) error

	// DownloadFile asks the daemon to fetch a finished transfer to path.
	// The call returns once the daemon accepted the request, not when the
	// file lands.
	DownloadFile(ctx context.Context, accountID, conversationID, interactionID, fileID, path string) error
}
