package hook

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"ringleader/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestRegistry_TextChainRunsInOrder(t *testing.T) {
	r := NewRegistry(testLogger())

	var order []int
	for i := 0; i < 3; i++ {
		i := i
		r.OnText(func(ctx context.Context, accountID, conversationID string, msg *domain.Message) {
			order = append(order, i)
		})
	}

	r.FireText(context.Background(), "acc", "conv", &domain.Message{})

	if len(order) != 3 {
		t.Fatalf("expected 3 invocations, got %d", len(order))
	}
	for i, got := range order {
		if got != i {
			t.Fatalf("hooks ran out of order: %v", order)
		}
	}
}

func TestRegistry_PanickingHookDoesNotStopChain(t *testing.T) {
	r := NewRegistry(testLogger())

	var after bool
	r.OnText(func(ctx context.Context, accountID, conversationID string, msg *domain.Message) {
		panic("broken extension")
	})
	r.OnText(func(ctx context.Context, accountID, conversationID string, msg *domain.Message) {
		after = true
	})

	r.FireText(context.Background(), "acc", "conv", &domain.Message{})

	if !after {
		t.Error("hook after the panicking one must still run")
	}
}

func TestRegistry_TransferChainReceivesPath(t *testing.T) {
	r := NewRegistry(testLogger())

	var gotPath string
	r.OnTransfer(func(ctx context.Context, accountID, conversationID string, msg *domain.Message, localPath string) {
		gotPath = localPath
	})

	r.FireTransfer(context.Background(), "acc", "conv", &domain.Message{DisplayName: "photo.jpg"}, "/dl/photo.jpg")

	if gotPath != "/dl/photo.jpg" {
		t.Errorf("expected /dl/photo.jpg, got %q", gotPath)
	}
}

func TestRegistry_EmptyChainsAreNoops(t *testing.T) {
	r := NewRegistry(testLogger())
	r.FireText(context.Background(), "acc", "conv", &domain.Message{})
	r.FireTransfer(context.Background(), "acc", "conv", &domain.Message{}, "/dl/x")
}
