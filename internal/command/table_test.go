package command

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"

	"ringleader/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func staticHandler(reply string) HandlerFunc {
	return func(ctx context.Context, accountID, conversationID string, msg *domain.Message) string {
		return reply
	}
}

func invoke(t *testing.T, tbl *Table, token, body string) string {
	t.Helper()
	h, ok := tbl.Lookup(token)
	if !ok {
		t.Fatalf("command %q not found", token)
	}
	return h(context.Background(), "acc", "conv", &domain.Message{Type: domain.TypeText, Body: body})
}

func TestTable_LookupCaseInsensitive(t *testing.T) {
	tbl := NewTable(testLogger())
	tbl.Register("Echo", "echoes", staticHandler("ok"))

	for _, token := range []string{"echo", "ECHO", "Echo"} {
		if _, ok := tbl.Lookup(token); !ok {
			t.Errorf("lookup %q failed", token)
		}
	}
}

func TestTable_BangPrefixOptional(t *testing.T) {
	tbl := NewTable(testLogger())
	tbl.Register("!echo", "echoes", staticHandler("ok"))

	if _, ok := tbl.Lookup("echo"); !ok {
		t.Error("keyword registered with ! prefix should resolve by bare token")
	}
}

func TestTable_LastRegistrationWins(t *testing.T) {
	tbl := NewTable(testLogger())
	tbl.Register("echo", "first", staticHandler("first"))
	tbl.Register("ECHO", "second", staticHandler("second"))

	if got := invoke(t, tbl, "echo", ""); got != "second" {
		t.Errorf("expected second handler, got %q", got)
	}
	if n := strings.Count(tbl.Help(), "!echo"); n != 1 {
		t.Errorf("duplicate registration must keep one help line, got %d", n)
	}
}

func TestTable_HelpRegistrationOrder(t *testing.T) {
	tbl := NewTable(testLogger())
	tbl.Register("zeta", "last letter", staticHandler(""))
	tbl.Register("alpha", "first letter", staticHandler(""))

	help := tbl.Help()
	zi := strings.Index(help, "!zeta")
	ai := strings.Index(help, "!alpha")
	if zi < 0 || ai < 0 {
		t.Fatalf("help missing commands: %q", help)
	}
	if zi > ai {
		t.Error("help must list commands in registration order")
	}
	if !strings.Contains(help, "!zeta - last letter") {
		t.Errorf("help must carry the one-line description: %q", help)
	}
}

func TestBuiltins_PingEchoesRemainder(t *testing.T) {
	tbl := NewTable(testLogger())
	RegisterBuiltins(tbl)

	if got := invoke(t, tbl, "ping", "hello"); got != "pong! hello" {
		t.Errorf("expected %q, got %q", "pong! hello", got)
	}
	if got := invoke(t, tbl, "ping", ""); got != "pong! " {
		t.Errorf("expected %q, got %q", "pong! ", got)
	}
}

func TestBuiltins_HelpIncludesRegisteredCommand(t *testing.T) {
	tbl := NewTable(testLogger())
	RegisterBuiltins(tbl)
	tbl.Register("frotz", "turn on a light source", staticHandler(""))

	help := invoke(t, tbl, "help", "")
	for _, want := range []string{"!ping", "!help", "!frotz"} {
		if !strings.Contains(help, want) {
			t.Errorf("help output missing %s:\n%s", want, help)
		}
	}
}
