package bus

import (
	"log/slog"
	"sync"
	"time"

	"ringleader/internal/domain"
)

const publishTimeout = 10 * time.Second

// Bus is a Go-channel based queue between the daemon signal reader and the
// dispatch loop.
type Bus struct {
	events chan domain.Event
	mu     sync.RWMutex
	closed bool
	logger *slog.Logger
}

// New creates a Bus with the given buffer size.
func New(bufferSize int, logger *slog.Logger) *Bus {
	if bufferSize <= 0 {
		bufferSize = 100
	}
	return &Bus{
		events: make(chan domain.Event, bufferSize),
		logger: logger,
	}
}

// Publish enqueues an event. Blocks up to 10 seconds if the bus is full
// instead of dropping.
func (b *Bus) Publish(ev domain.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		b.logger.Warn("attempted to publish to closed bus")
		return
	}

	select {
	case b.events <- ev:
	default:
		b.logger.Warn("event bus full, waiting...", "conversation", ev.Conversation)
		timer := time.NewTimer(publishTimeout)
		defer timer.Stop()
		select {
		case b.events <- ev:
			b.logger.Info("event delivered after wait", "conversation", ev.Conversation)
		case <-timer.C:
			b.logger.Error("event dropped: bus full for 10s",
				"account", ev.Account,
				"conversation", ev.Conversation,
			)
		}
	}
}

// Events returns the receive side consumed by the dispatch loop.
func (b *Bus) Events() <-chan domain.Event {
	return b.events
}

func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.closed {
		b.closed = true
		close(b.events)
	}
}
