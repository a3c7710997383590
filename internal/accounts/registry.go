package accounts

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"ringleader/internal/domain"
)

// usernameKey is the detail field the daemon exposes account usernames under.
const usernameKey = "Account.username"

// Registry caches the mapping between local account identifiers and their
// usernames. The cache is rebuilt wholesale by Refresh and tolerates
// staleness in between; the first lookup on an empty cache refreshes lazily.
type Registry struct {
	daemon domain.Daemon
	logger *slog.Logger

	mu         sync.RWMutex
	byUsername map[string]string // username -> accountID
}

func NewRegistry(d domain.Daemon, logger *slog.Logger) *Registry {
	return &Registry{
		daemon: d,
		logger: logger,
	}
}

// Refresh rebuilds the cache from the daemon: list all local accounts, then
// fetch each one's details for the username field. Readers never observe a
// partially built mapping.
func (r *Registry) Refresh(ctx context.Context) error {
	ids, err := r.daemon.AccountList(ctx)
	if err != nil {
		return fmt.Errorf("list accounts: %w", err)
	}

	byUsername := make(map[string]string, len(ids))
	for _, id := range ids {
		details, err := r.daemon.AccountDetails(ctx, id)
		if err != nil {
			return fmt.Errorf("account %s details: %w", id, err)
		}
		if username := details[usernameKey]; username != "" {
			byUsername[username] = id
		}
	}

	r.mu.Lock()
	r.byUsername = byUsername
	r.mu.Unlock()

	r.logger.Debug("account cache refreshed", "accounts", len(byUsername))
	return nil
}

// UsernameFor resolves an account identifier to its username. The cache is
// keyed by username, so this is a reverse scan.
func (r *Registry) UsernameFor(ctx context.Context, accountID string) (string, bool) {
	r.ensure(ctx)

	r.mu.RLock()
	defer r.mu.RUnlock()
	for username, id := range r.byUsername {
		if id == accountID {
			return username, true
		}
	}
	return "", false
}

// IsLocal reports whether username belongs to one of the local accounts.
func (r *Registry) IsLocal(ctx context.Context, username string) bool {
	r.ensure(ctx)

	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byUsername[username]
	return ok
}

// Mapping returns a copy of the cached username -> accountID mapping.
func (r *Registry) Mapping(ctx context.Context) map[string]string {
	r.ensure(ctx)

	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(r.byUsername))
	for username, id := range r.byUsername {
		out[username] = id
	}
	return out
}

// Invalidate drops the cache; the next lookup refreshes it.
func (r *Registry) Invalidate() {
	r.mu.Lock()
	r.byUsername = nil
	r.mu.Unlock()
}

// ensure triggers a lazy refresh when the cache is empty. A failed refresh
// is logged and the lookup proceeds against the empty cache.
func (r *Registry) ensure(ctx context.Context) {
	r.mu.RLock()
	empty := len(r.byUsername) == 0
	r.mu.RUnlock()

	if !empty {
		return
	}
	if err := r.Refresh(ctx); err != nil {
		r.logger.Warn("account cache refresh failed", "err", err)
	}
}
