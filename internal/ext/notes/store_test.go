package notes

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ringleader/internal/command"
	"ringleader/internal/domain"
	"ringleader/internal/hook"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "notes.db"), testLogger())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func attach(t *testing.T, s *Store) (*command.Table, *hook.Registry) {
	t.Helper()
	table := command.NewTable(testLogger())
	hooks := hook.NewRegistry(testLogger())
	s.Attach(table, hooks)
	return table, hooks
}

func runCommand(t *testing.T, table *command.Table, token string, msg *domain.Message) string {
	t.Helper()
	h, ok := table.Lookup(token)
	if !ok {
		t.Fatalf("command %q not registered", token)
	}
	return h(context.Background(), "acc", "conv1", msg)
}

func TestNotes_SaveAndList(t *testing.T) {
	s := openStore(t)
	table, _ := attach(t, s)

	reply := runCommand(t, table, "note", &domain.Message{Author: "alice", Body: "buy milk"})
	if reply != "Noted." {
		t.Errorf("unexpected save reply %q", reply)
	}

	list := runCommand(t, table, "notes", &domain.Message{Author: "alice"})
	if !strings.Contains(list, "alice") || !strings.Contains(list, "buy milk") {
		t.Errorf("listing missing the saved note:\n%s", list)
	}
}

func TestNotes_EmptyBodyRejected(t *testing.T) {
	s := openStore(t)
	table, _ := attach(t, s)

	reply := runCommand(t, table, "note", &domain.Message{Author: "alice", Body: "   "})
	if !strings.HasPrefix(reply, "Nothing to save") {
		t.Errorf("expected usage reply, got %q", reply)
	}
}

func TestNotes_EmptyListing(t *testing.T) {
	s := openStore(t)
	table, _ := attach(t, s)

	if got := runCommand(t, table, "notes", &domain.Message{}); got != "No notes yet." {
		t.Errorf("expected empty listing message, got %q", got)
	}
}

func TestNotes_TransferJournal(t *testing.T) {
	s := openStore(t)
	_, hooks := attach(t, s)

	msg := &domain.Message{Type: domain.TypeTransfer, ID: "42", FileID: "f1", DisplayName: "photo.jpg"}
	hooks.FireTransfer(context.Background(), "acc", "conv1", msg, "/dl/20240117-1005_photo.jpg")

	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM transfers WHERE local_path = ?`, "/dl/20240117-1005_photo.jpg").Scan(&count); err != nil {
		t.Fatalf("count transfers: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 journal row, got %d", count)
	}
}
