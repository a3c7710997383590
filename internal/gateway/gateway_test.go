package gateway

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
)

type sendCall struct {
	account, conversation, text, replyTo string
	flag                                 int32
}

type fakeDaemon struct {
	sends     []sendCall
	downloads [][5]string
	sendErr   error
}

func (f *fakeDaemon) Ping(ctx context.Context) bool { return true }

func (f *fakeDaemon) AccountList(ctx context.Context) ([]string, error) { return nil, nil }

func (f *fakeDaemon) AccountDetails(ctx context.Context, accountID string) (map[string]string, error) {
	return nil, nil
}

func (f *fakeDaemon) SendMessage(ctx context.Context, accountID, conversationID, text, replyTo string, flag int32) error {
	f.sends = append(f.sends, sendCall{accountID, conversationID, text, replyTo, flag})
	return f.sendErr
}

func (f *fakeDaemon) DownloadFile(ctx context.Context, accountID, conversationID, interactionID, fileID, path string) error {
	f.downloads = append(f.downloads, [5]string{accountID, conversationID, interactionID, fileID, path})
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func TestGateway_SendHasNoThreading(t *testing.T) {
	d := &fakeDaemon{}
	g := New(d, testLogger())

	if err := g.Send(context.Background(), "acc", "conv", "hello"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(d.sends) != 1 {
		t.Fatalf("expected 1 send, got %d", len(d.sends))
	}
	got := d.sends[0]
	if got.replyTo != "" || got.flag != 0 {
		t.Errorf("plain send must not thread: %+v", got)
	}
	if got.text != "hello" || got.account != "acc" || got.conversation != "conv" {
		t.Errorf("unexpected send call: %+v", got)
	}
}

func TestGateway_ReplyThreads(t *testing.T) {
	d := &fakeDaemon{}
	g := New(d, testLogger())

	if err := g.Reply(context.Background(), "acc", "conv", "pong! ", "msg42"); err != nil {
		t.Fatalf("reply: %v", err)
	}
	if d.sends[0].replyTo != "msg42" {
		t.Errorf("expected replyTo msg42, got %q", d.sends[0].replyTo)
	}
}

func TestGateway_SendErrorSurfacesOnce(t *testing.T) {
	d := &fakeDaemon{sendErr: errors.New("daemon gone")}
	g := New(d, testLogger())

	if err := g.Send(context.Background(), "acc", "conv", "hello"); err == nil {
		t.Fatal("expected error")
	}
	if len(d.sends) != 1 {
		t.Errorf("at-most-once violated: %d sends", len(d.sends))
	}
}

func TestGateway_DownloadPassthrough(t *testing.T) {
	d := &fakeDaemon{}
	g := New(d, testLogger())

	if err := g.Download(context.Background(), "acc", "conv", "i42", "f1", "/tmp/x"); err != nil {
		t.Fatalf("download: %v", err)
	}
	want := [5]string{"acc", "conv", "i42", "f1", "/tmp/x"}
	if d.downloads[0] != want {
		t.Errorf("expected %v, got %v", want, d.downloads[0])
	}
}
