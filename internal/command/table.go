package command

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"ringleader/internal/domain"
)

// HandlerFunc processes one command invocation. msg.Body holds the remainder
// of the message after the command token was stripped. The returned string
// is sent back as a threaded reply.
type HandlerFunc func(ctx context.Context, accountID, conversationID string, msg *domain.Message) string

type entry struct {
	keyword string
	about   string
	handler HandlerFunc
}

// Table maps command keywords to handlers. Lookup is case-insensitive and
// the last registration for a keyword wins. Help output follows
// registration order.
type Table struct {
	mu      sync.RWMutex
	order   []string
	entries map[string]entry
	logger  *slog.Logger
}

func NewTable(logger *slog.Logger) *Table {
	return &Table{
		entries: make(map[string]entry),
		logger:  logger,
	}
}

// Register binds keyword to handler. The leading "!" is optional and the
// keyword is folded to lowercase. about is the one-line description !help
// prints for this command.
func (t *Table) Register(keyword, about string, handler HandlerFunc) {
	key := strings.ToLower(strings.TrimPrefix(keyword, "!"))

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.entries[key]; !exists {
		t.order = append(t.order, key)
	}
	t.entries[key] = entry{keyword: key, about: about, handler: handler}
	t.logger.Debug("registered command", "keyword", key)
}

// Lookup resolves a command token to its handler.
func (t *Table) Lookup(token string) (HandlerFunc, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[strings.ToLower(token)]
	if !ok {
		return nil, false
	}
	return e.handler, true
}

// Help returns one line per registered command, in registration order.
func (t *Table) Help() string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	lines := make([]string, 0, len(t.order))
	for _, key := range t.order {
		e := t.entries[key]
		lines = append(lines, "!"+e.keyword+" - "+e.about)
	}
	return strings.Join(lines, "\n")
}
