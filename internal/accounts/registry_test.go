package accounts

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
)

type fakeDaemon struct {
	accounts    map[string]string // accountID -> username
	listCalls   int
	detailCalls int
	listErr     error
}

func (f *fakeDaemon) Ping(ctx context.Context) bool { return true }

func (f *fakeDaemon) AccountList(ctx context.Context) ([]string, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	ids := make([]string, 0, len(f.accounts))
	for id := range f.accounts {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeDaemon) AccountDetails(ctx context.Context, accountID string) (map[string]string, error) {
	f.detailCalls++
	username, ok := f.accounts[accountID]
	if !ok {
		return nil, errors.New("no such account")
	}
	return map[string]string{"Account.username": username}, nil
}

func (f *fakeDaemon) SendMessage(ctx context.Context, accountID, conversationID, text, replyTo string, flag int32) error {
	return nil
}

func (f *fakeDaemon) DownloadFile(ctx context.Context, accountID, conversationID, interactionID, fileID, path string) error {
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func TestRegistry_RefreshBuildsMapping(t *testing.T) {
	d := &fakeDaemon{accounts: map[string]string{"id1": "alice", "id2": "bob"}}
	r := NewRegistry(d, testLogger())

	if err := r.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	m := r.Mapping(context.Background())
	if len(m) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(m))
	}
	if m["alice"] != "id1" || m["bob"] != "id2" {
		t.Errorf("unexpected mapping: %v", m)
	}
}

func TestRegistry_UsernameForReverseScan(t *testing.T) {
	d := &fakeDaemon{accounts: map[string]string{"id1": "alice"}}
	r := NewRegistry(d, testLogger())

	username, ok := r.UsernameFor(context.Background(), "id1")
	if !ok || username != "alice" {
		t.Errorf("expected alice, got %q (ok=%v)", username, ok)
	}

	if _, ok := r.UsernameFor(context.Background(), "missing"); ok {
		t.Error("expected absent result for unknown account ID")
	}
}

func TestRegistry_LazyRefreshOnce(t *testing.T) {
	d := &fakeDaemon{accounts: map[string]string{"id1": "alice"}}
	r := NewRegistry(d, testLogger())

	r.IsLocal(context.Background(), "alice")
	r.IsLocal(context.Background(), "bob")
	r.UsernameFor(context.Background(), "id1")

	if d.listCalls != 1 {
		t.Errorf("expected a single lazy refresh, daemon listed %d times", d.listCalls)
	}
}

func TestRegistry_InvalidateForcesRefresh(t *testing.T) {
	d := &fakeDaemon{accounts: map[string]string{"id1": "alice"}}
	r := NewRegistry(d, testLogger())

	r.IsLocal(context.Background(), "alice")
	d.accounts["id2"] = "bob"
	r.Invalidate()

	if !r.IsLocal(context.Background(), "bob") {
		t.Error("expected bob to be known after invalidate + lazy refresh")
	}
	if d.listCalls != 2 {
		t.Errorf("expected 2 refreshes, got %d", d.listCalls)
	}
}

func TestRegistry_RefreshFailureKeepsCacheEmpty(t *testing.T) {
	d := &fakeDaemon{listErr: errors.New("daemon down")}
	r := NewRegistry(d, testLogger())

	if r.IsLocal(context.Background(), "alice") {
		t.Error("expected no local accounts when refresh fails")
	}
}

func TestRegistry_AccountsWithoutUsernameSkipped(t *testing.T) {
	d := &fakeDaemon{accounts: map[string]string{"id1": ""}}
	r := NewRegistry(d, testLogger())

	if err := r.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if len(r.Mapping(context.Background())) != 0 {
		t.Error("expected account without username to be skipped")
	}
}
