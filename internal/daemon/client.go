// Package daemon binds the external messaging daemon's configuration
// manager over DBus. Everything here is a thin RPC shim; decision logic
// lives in the router.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/godbus/dbus/v5"

	"ringleader/internal/bus"
	"ringleader/internal/domain"
)

const (
	busName     = "cx.ring.Ring"
	configPath  = "/cx/ring/Ring/ConfigurationManager"
	configIface = "cx.ring.Ring.ConfigurationManager"

	messageSignal = configIface + ".messageReceived"
	signalBuffer  = 64
)

// Client implements domain.Daemon against the session bus.
type Client struct {
	conn   *dbus.Conn
	obj    dbus.BusObject
	logger *slog.Logger
}

// Connect attaches to the daemon on the session bus.
func Connect(logger *slog.Logger) (*Client, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("session bus: %w", err)
	}
	return &Client{
		conn:   conn,
		obj:    conn.Object(busName, configPath),
		logger: logger,
	}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// Ping reports whether the daemon currently owns its bus name.
func (c *Client) Ping(ctx context.Context) bool {
	var owned bool
	err := c.conn.BusObject().CallWithContext(ctx, "org.freedesktop.DBus.NameHasOwner", 0, busName).Store(&owned)
	return err == nil && owned
}

func (c *Client) AccountList(ctx context.Context) ([]string, error) {
	var ids []string
	if err := c.obj.CallWithContext(ctx, configIface+".getAccountList", 0).Store(&ids); err != nil {
		return nil, fmt.Errorf("getAccountList: %w", err)
	}
	return ids, nil
}

func (c *Client) AccountDetails(ctx context.Context, accountID string) (map[string]string, error) {
	var details map[string]string
	if err := c.obj.CallWithContext(ctx, configIface+".getAccountDetails", 0, accountID).Store(&details); err != nil {
		return nil, fmt.Errorf("getAccountDetails %s: %w", accountID, err)
	}
	return details, nil
}

func (c *Client) SendMessage(ctx context.Context, accountID, conversationID, text, replyTo string, flag int32) error {
	call := c.obj.CallWithContext(ctx, configIface+".sendMessage", 0, accountID, conversationID, text, replyTo, flag)
	if call.Err != nil {
		return fmt.Errorf("sendMessage: %w", call.Err)
	}
	return nil
}

func (c *Client) DownloadFile(ctx context.Context, accountID, conversationID, interactionID, fileID, path string) error {
	call := c.obj.CallWithContext(ctx, configIface+".downloadFile", 0, accountID, conversationID, interactionID, fileID, path)
	if call.Err != nil {
		return fmt.Errorf("downloadFile: %w", call.Err)
	}
	return nil
}

// Subscribe starts pumping messageReceived signals into b until ctx is
// cancelled. Unparseable signals are logged and skipped.
func (c *Client) Subscribe(ctx context.Context, b *bus.Bus) error {
	if err := c.conn.AddMatchSignalContext(ctx,
		dbus.WithMatchInterface(configIface),
		dbus.WithMatchMember("messageReceived"),
	); err != nil {
		return fmt.Errorf("match messageReceived: %w", err)
	}

	signals := make(chan *dbus.Signal, signalBuffer)
	c.conn.Signal(signals)
	c.logger.Info("subscribed to daemon signals", "interface", configIface)

	go func() {
		defer c.conn.RemoveSignal(signals)
		for {
			select {
			case <-ctx.Done():
				return
			case sig, ok := <-signals:
				if !ok {
					return
				}
				if sig.Name != messageSignal {
					continue
				}
				ev, err := decodeSignal(sig)
				if err != nil {
					c.logger.Warn("unparseable daemon signal", "err", err)
					continue
				}
				b.Publish(ev)
			}
		}
	}()
	return nil
}

// decodeSignal unpacks the (account, conversation, fields) triple of a
// messageReceived signal into an event.
func decodeSignal(sig *dbus.Signal) (domain.Event, error) {
	if len(sig.Body) != 3 {
		return domain.Event{}, fmt.Errorf("messageReceived: want 3 arguments, got %d", len(sig.Body))
	}
	account, ok := sig.Body[0].(string)
	if !ok {
		return domain.Event{}, fmt.Errorf("messageReceived: account is %T, not string", sig.Body[0])
	}
	conversation, ok := sig.Body[1].(string)
	if !ok {
		return domain.Event{}, fmt.Errorf("messageReceived: conversation is %T, not string", sig.Body[1])
	}
	fields, ok := sig.Body[2].(map[string]string)
	if !ok {
		return domain.Event{}, fmt.Errorf("messageReceived: message is %T, not map[string]string", sig.Body[2])
	}
	return domain.Event{
		Account:      account,
		Conversation: conversation,
		Message:      domain.FromFields(fields),
		Received:     time.Now(),
	}, nil
}
