package hook

import (
	"context"
	"log/slog"
	"sync"

	"ringleader/internal/domain"
)

// TextFunc runs for every accepted plain-text message that did not carry a
// command token.
type TextFunc func(ctx context.Context, accountID, conversationID string, msg *domain.Message)

// TransferFunc runs after a finished transfer's download has been requested,
// with the local destination path.
type TransferFunc func(ctx context.Context, accountID, conversationID string, msg *domain.Message, localPath string)

// Registry holds the two hook chains. Callbacks run in registration order,
// for side effects only; their return values do not exist and a panicking
// callback is logged without stopping the rest of the chain.
type Registry struct {
	mu       sync.RWMutex
	text     []TextFunc
	transfer []TransferFunc
	logger   *slog.Logger
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{logger: logger}
}

// OnText appends fn to the text chain.
func (r *Registry) OnText(fn TextFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.text = append(r.text, fn)
	r.logger.Debug("registered text hook", "position", len(r.text))
}

// OnTransfer appends fn to the transfer chain.
func (r *Registry) OnTransfer(fn TransferFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transfer = append(r.transfer, fn)
	r.logger.Debug("registered transfer hook", "position", len(r.transfer))
}

// FireText invokes the whole text chain.
func (r *Registry) FireText(ctx context.Context, accountID, conversationID string, msg *domain.Message) {
	r.mu.RLock()
	chain := r.text
	r.mu.RUnlock()

	for i, fn := range chain {
		r.runText(ctx, i, fn, accountID, conversationID, msg)
	}
}

// FireTransfer invokes the whole transfer chain.
func (r *Registry) FireTransfer(ctx context.Context, accountID, conversationID string, msg *domain.Message, localPath string) {
	r.mu.RLock()
	chain := r.transfer
	r.mu.RUnlock()

	for i, fn := range chain {
		r.runTransfer(ctx, i, fn, accountID, conversationID, msg, localPath)
	}
}

func (r *Registry) runText(ctx context.Context, i int, fn TextFunc, accountID, conversationID string, msg *domain.Message) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("text hook panicked", "index", i, "panic", rec)
		}
	}()
	fn(ctx, accountID, conversationID, msg)
}

func (r *Registry) runTransfer(ctx context.Context, i int, fn TransferFunc, accountID, conversationID string, msg *domain.Message, localPath string) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("transfer hook panicked", "index", i, "panic", rec)
		}
	}()
	fn(ctx, accountID, conversationID, msg, localPath)
}
