package router

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"ringleader/internal/command"
	"ringleader/internal/domain"
	"ringleader/internal/metrics"
)

// commandToken matches a leading "!" and the maximal run of word characters
// after it. The first non-word character terminates the token, so "!ping,x"
// yields "ping" and a bare "!" yields an empty token.
var commandToken = regexp.MustCompile(`^!(\w*)`)

// processText handles a plain-text message: command bodies go through the
// command table and get a threaded reply, everything else goes to the text
// hook chain untouched.
func (r *Router) processText(ctx context.Context, ev domain.Event) error {
	msg := ev.Message
	if msg.Body == "" {
		metrics.EventsMalformed.Inc()
		return fmt.Errorf("text message %s has no body", msg.ID)
	}

	if !strings.HasPrefix(msg.Body, "!") {
		r.hooks.FireText(ctx, ev.Account, ev.Conversation, msg)
		return nil
	}

	m := commandToken.FindStringSubmatch(msg.Body)
	token := strings.ToLower(m[1])

	// Strip the matched token (original case, leading "!" included) and the
	// whitespace after it, so the handler sees only the remainder.
	msg.Body = strings.TrimLeft(msg.Body[len(m[0]):], " \t")

	handler, ok := r.commands.Lookup(token)
	if !ok {
		metrics.UnknownCommands.Inc()
		r.logger.Info("unknown command", "token", token)
		return r.sender.Reply(ctx, ev.Account, ev.Conversation, "Unknown command: "+token, msg.ID)
	}

	metrics.Commands.Inc()
	reply := r.invoke(ctx, token, handler, ev)
	return r.sender.Reply(ctx, ev.Account, ev.Conversation, reply, msg.ID)
}

// invoke runs a command handler with panic isolation so a broken extension
// surfaces as an error reply instead of killing the dispatch loop.
func (r *Router) invoke(ctx context.Context, token string, handler command.HandlerFunc, ev domain.Event) (reply string) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("command handler panicked", "command", token, "panic", rec)
			reply = "Internal error handling command: " + token
		}
	}()
	return handler(ctx, ev.Account, ev.Conversation, ev.Message)
}
