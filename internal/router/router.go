package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ringleader/internal/command"
	"ringleader/internal/domain"
	"ringleader/internal/hook"
	"ringleader/internal/metrics"
)

// Accounts is the slice of the account registry the router needs.
type Accounts interface {
	UsernameFor(ctx context.Context, accountID string) (string, bool)
	IsLocal(ctx context.Context, username string) bool
}

// Sender is the slice of the outbound gateway the router needs.
type Sender interface {
	Reply(ctx context.Context, accountID, conversationID, text, replyTo string) error
	Download(ctx context.Context, accountID, conversationID, interactionID, fileID, path string) error
}

// Router filters inbound events by authorship policy, classifies them by
// content type, and dispatches to the text/command or transfer processors.
type Router struct {
	accounts    Accounts
	sender      Sender
	commands    *command.Table
	hooks       *hook.Registry
	policy      Policy
	downloadDir string
	logger      *slog.Logger
	now         func() time.Time
}

// Config holds the router's dependencies.
type Config struct {
	Accounts    Accounts
	Sender      Sender
	Commands    *command.Table
	Hooks       *hook.Registry
	Policy      Policy
	DownloadDir string
	Logger      *slog.Logger
	Now         func() time.Time // test override, defaults to time.Now
}

func New(cfg Config) *Router {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Router{
		accounts:    cfg.Accounts,
		sender:      cfg.Sender,
		commands:    cfg.Commands,
		hooks:       cfg.Hooks,
		policy:      cfg.Policy,
		downloadDir: cfg.DownloadDir,
		logger:      cfg.Logger,
		now:         cfg.Now,
	}
}

// Run consumes events until ctx is cancelled or the channel closes. Events
// are processed strictly one at a time; each runs to completion before the
// next is read. A failed event is logged and the loop continues.
func (r *Router) Run(ctx context.Context, events <-chan domain.Event) {
	r.logger.Info("dispatch loop started")
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("dispatch loop stopping")
			return
		case ev, ok := <-events:
			if !ok {
				r.logger.Info("event channel closed, dispatch loop stopping")
				return
			}
			if err := r.Route(ctx, ev); err != nil {
				r.logger.Warn("event failed",
					"account", ev.Account,
					"conversation", ev.Conversation,
					"err", err,
				)
			}
		}
	}
}

// Route applies the filtering policy and dispatches one inbound event. A
// returned error means this single event failed; subsequent events are
// unaffected.
func (r *Router) Route(ctx context.Context, ev domain.Event) error {
	metrics.EventsReceived.Inc()

	msg := ev.Message
	if msg == nil {
		metrics.EventsMalformed.Inc()
		return errors.New("event carries no message")
	}
	if msg.Type == "" || msg.Author == "" {
		metrics.EventsMalformed.Inc()
		return fmt.Errorf("malformed message in conversation %s: missing type or author", ev.Conversation)
	}

	if !r.accepts(ctx, ev.Account, msg.Author) {
		metrics.EventsDropped.Inc()
		r.logger.Debug("event dropped by policy", "account", ev.Account, "author", msg.Author)
		return nil
	}

	r.logger.Info("dispatching message",
		"account", ev.Account,
		"conversation", ev.Conversation,
		"type", msg.Type,
		"author", msg.Author,
	)

	switch msg.Type {
	case domain.TypeText:
		return r.processText(ctx, ev)
	case domain.TypeTransfer:
		return r.processTransfer(ctx, ev)
	case domain.TypeMerge, domain.TypeMember:
		// Conversation bookkeeping, nothing for us to do.
		return nil
	default:
		metrics.UnknownTypes.Inc()
		r.logger.Warn("unknown message type", "type", msg.Type)
		return r.sender.Reply(ctx, ev.Account, ev.Conversation, "Unknown message type: "+msg.Type, msg.ID)
	}
}

// accepts implements the ownership/authorship filter. With an allow-list the
// event must arrive on a monitored account and must not be authored by a
// monitored username; without one, anything authored by a local account
// username is the bot's own traffic and is suppressed.
func (r *Router) accepts(ctx context.Context, accountID, author string) bool {
	if r.policy.restricted() {
		username, ok := r.accounts.UsernameFor(ctx, accountID)
		if !ok {
			return false
		}
		return r.policy.contains(username) && !r.policy.contains(author)
	}
	return !r.accounts.IsLocal(ctx, author)
}
