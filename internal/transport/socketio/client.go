// Package socketio implements the subscription transport over Socket.IO.
//
// Every Instance owns one Socket.IO connection. A subscription is requested by
// emitting "subscribe" with the resource path and the id of the last event
// seen; the server answers with "event" frames, and reports failures with
// "subscription_error" and termination with "subscription_end". The
// connection reconnects on its own, and every reconnect resubscribes from
// the last event id so the stream resumes without gaps.
package socketio

import (
	"fmt"
	"sync"

	"github.com/bhandras/chatkit/pkg/logger"
	socket "github.com/zishang520/socket.io/clients/socket/v3"
	"github.com/zishang520/socket.io/v3/pkg/types"
)

// EventType is a Socket.IO event name used by the subscription protocol.
type EventType string

const (
	EventConnect           EventType = "connect"
	EventDisconnect        EventType = "disconnect"
	EventConnectError      EventType = "connect_error"
	EventSubscribe         EventType = "subscribe"
	EventUnsubscribe       EventType = "unsubscribe"
	EventFrame             EventType = "event"
	EventSubscriptionError EventType = "subscription_error"
	EventSubscriptionEnd   EventType = "subscription_end"
)

// serverDisconnect is the disconnect reason when the server closed the
// connection. The client does not reconnect after it.
const serverDisconnect = "io server disconnect"

// Client is a Socket.IO connection authenticated with a bearer token.
type Client struct {
	serverURL string
	path      string
	token     string

	mu        sync.RWMutex
	socket    *socket.Socket
	handlers  map[EventType]func(args ...any)
	connected bool
	closeOnce sync.Once
}

// NewClient creates a client. path is the Socket.IO endpoint path on the
// server.
func NewClient(serverURL, path, token string) *Client {
	return &Client{
		serverURL: serverURL,
		path:      path,
		token:     token,
		handlers:  make(map[EventType]func(args ...any)),
	}
}

// On registers the handler for an event. Handlers must be registered before
// Connect.
func (c *Client) On(event EventType, handler func(args ...any)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[event] = handler
}

// Connect establishes the connection. Reconnection is handled by the
// Socket.IO client, which raises "connect" again after every reconnect.
func (c *Client) Connect() error {
	logger.Debugf("socketio: connecting to %s (path: %s)", c.serverURL, c.path)

	opts := socket.DefaultOptions()
	opts.SetPath(c.path)
	opts.SetTransports(types.NewSet(socket.Polling, socket.WebSocket))
	opts.SetAuth(map[string]any{"token": c.token})

	sock, err := socket.Connect(c.serverURL, opts)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	c.mu.Lock()
	c.socket = sock
	c.mu.Unlock()

	for _, event := range []EventType{
		EventConnect,
		EventDisconnect,
		EventConnectError,
		EventFrame,
		EventSubscriptionError,
		EventSubscriptionEnd,
	} {
		ev := event
		sock.On(types.EventName(ev), func(args ...any) {
			switch ev {
			case EventConnect:
				c.setConnected(true)
				logger.Debugf("socketio: connected, id %s", sock.Id())
			case EventDisconnect:
				c.setConnected(false)
				logger.Debugf("socketio: disconnected: %s", disconnectReason(args))
			}

			c.mu.RLock()
			handler, ok := c.handlers[ev]
			c.mu.RUnlock()
			if ok && handler != nil {
				handler(args...)
			}
		})
	}
	return nil
}

// Emit sends an event to the server.
func (c *Client) Emit(event EventType, data map[string]any) error {
	c.mu.RLock()
	sock := c.socket
	c.mu.RUnlock()

	if sock == nil {
		return fmt.Errorf("not connected")
	}
	logger.Tracef("socketio: emit %s", event)
	sock.Emit(string(event), data)
	return nil
}

// IsConnected reports whether the connection is up.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// Close disconnects. It is safe to call more than once.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		sock := c.socket
		c.socket = nil
		c.connected = false
		c.mu.Unlock()

		if sock != nil {
			sock.Disconnect()
		}
	})
	return nil
}

func (c *Client) setConnected(v bool) {
	c.mu.Lock()
	c.connected = v
	c.mu.Unlock()
}

func disconnectReason(args []any) string {
	if len(args) > 0 {
		if r, ok := args[0].(string); ok {
			return r
		}
	}
	return ""
}
