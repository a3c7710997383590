package mirror

import (
	"strings"
	"testing"

	"ringleader/internal/domain"
)

func TestFormatText(t *testing.T) {
	msg := &domain.Message{Author: "alice", Body: "hello there"}
	got := formatText("conv1", msg)
	if got != "[conv1] alice: hello there" {
		t.Errorf("unexpected format: %q", got)
	}
}

func TestFormatTransfer(t *testing.T) {
	msg := &domain.Message{Author: "alice", DisplayName: "photo.jpg"}
	got := formatTransfer("conv1", msg, "/dl/20240117-1005_photo.jpg")
	if !strings.Contains(got, "photo.jpg") || !strings.Contains(got, "/dl/20240117-1005_photo.jpg") {
		t.Errorf("unexpected format: %q", got)
	}
}

func TestChunk_ShortStringUnsplit(t *testing.T) {
	parts := chunk("short", 10)
	if len(parts) != 1 || parts[0] != "short" {
		t.Errorf("unexpected chunks: %v", parts)
	}
}

func TestChunk_SplitsLongString(t *testing.T) {
	long := strings.Repeat("a", 25)
	parts := chunk(long, 10)
	if len(parts) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(parts))
	}
	if rejoined := strings.Join(parts, ""); rejoined != long {
		t.Error("chunks must rejoin to the original string")
	}
	for _, p := range parts {
		if len(p) > 10 {
			t.Errorf("chunk exceeds limit: %d bytes", len(p))
		}
	}
}

func TestChunk_RuneBoundaries(t *testing.T) {
	// Multi-byte runes must never be cut in half.
	long := strings.Repeat("é", 20) // 2 bytes each
	for _, p := range chunk(long, 7) {
		if !strings.HasPrefix(p, "é") || len(p)%2 != 0 {
			t.Errorf("chunk cut inside a rune: %q", p)
		}
	}
}

func TestNew_RejectsBadChatID(t *testing.T) {
	if _, err := New(Config{Token: "t", ChatID: "not-a-number"}); err == nil {
		t.Error("expected error for non-numeric chat id")
	}
}
