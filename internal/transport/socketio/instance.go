package socketio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bhandras/chatkit/internal/auth"
	"github.com/bhandras/chatkit/internal/state"
	"github.com/bhandras/chatkit/internal/subscription"
	"github.com/bhandras/chatkit/pkg/logger"
)

// DefaultTokenTimeout bounds fetching the token for a new connection.
const DefaultTokenTimeout = 10 * time.Second

// connection is the part of Client used by Instance.
type connection interface {
	On(event EventType, handler func(args ...any))
	Connect() error
	Emit(event EventType, data map[string]any) error
	Close() error
}

// dialer creates an unconnected connection.
type dialer func(serverURL, path, token string) connection

func dialClient(serverURL, path, token string) connection {
	return NewClient(serverURL, path, token)
}

// Instance opens resumable subscriptions, one connection each.
type Instance struct {
	serverURL  string
	socketPath string
	tokens     auth.TokenProvider
	dial       dialer
}

var _ subscription.Instance = (*Instance)(nil)

// NewInstance creates an instance for the service at serverURL.
func NewInstance(serverURL, socketPath string, tokens auth.TokenProvider) *Instance {
	return &Instance{
		serverURL:  serverURL,
		socketPath: socketPath,
		tokens:     tokens,
		dial:       dialClient,
	}
}

// NewFactory returns an InstanceFactory creating instances of the service.
func NewFactory(serverURL, socketPath string, tokens auth.TokenProvider) subscription.InstanceFactory {
	return subscription.InstanceFactoryFunc(func(t state.SubscriptionType) (subscription.Instance, error) {
		logger.Debugf("socketio: new instance for %s", t)
		return NewInstance(serverURL, socketPath, tokens), nil
	})
}

// SubscribeWithResume implements subscription.Instance.
func (i *Instance) SubscribeWithResume(path string, l subscription.Listener) (subscription.Resumable, error) {
	ctx, cancel := context.WithTimeout(context.Background(), DefaultTokenTimeout)
	defer cancel()

	token, err := i.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch token: %w", err)
	}

	r := &resumable{
		path:     path,
		listener: l,
		conn:     i.dial(i.serverURL, i.socketPath, token),
	}
	r.conn.On(EventConnect, r.onConnect)
	r.conn.On(EventConnectError, r.onConnectError)
	r.conn.On(EventDisconnect, r.onDisconnect)
	r.conn.On(EventFrame, r.onFrame)
	r.conn.On(EventSubscriptionError, r.onSubscriptionError)
	r.conn.On(EventSubscriptionEnd, r.onSubscriptionEnd)

	if err := r.conn.Connect(); err != nil {
		return nil, err
	}
	return r, nil
}

// resumable is one subscription over one connection.
type resumable struct {
	path     string
	listener subscription.Listener
	conn     connection

	mu          sync.Mutex
	lastEventID string
	ended       bool
}

// End implements subscription.Resumable.
func (r *resumable) End() {
	r.mu.Lock()
	if r.ended {
		r.mu.Unlock()
		return
	}
	r.ended = true
	r.mu.Unlock()

	_ = r.conn.Emit(EventUnsubscribe, map[string]any{"path": r.path})
	_ = r.conn.Close()
}

// LastEventID returns the resume cursor.
func (r *resumable) LastEventID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastEventID
}

func (r *resumable) active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.ended
}

// onConnect (re)subscribes from the last seen event.
func (r *resumable) onConnect(...any) {
	if !r.active() {
		return
	}
	cursor := r.LastEventID()
	if cursor != "" {
		logger.Debugf("socketio: resuming %s after %s", r.path, cursor)
	}
	if err := r.conn.Emit(EventSubscribe, subscribeRequest(r.path, cursor)); err != nil {
		r.listener.OnError(fmt.Errorf("subscribe to %s: %w", r.path, err))
	}
}

func (r *resumable) onConnectError(args ...any) {
	if !r.active() {
		return
	}
	var cause any = "unknown"
	if len(args) > 0 {
		cause = args[0]
	}
	r.listener.OnError(fmt.Errorf("connect: %v", cause))
}

func (r *resumable) onDisconnect(args ...any) {
	if !r.active() {
		return
	}
	if disconnectReason(args) == serverDisconnect {
		r.listener.OnEnd()
	}
}

func (r *resumable) onFrame(args ...any) {
	if !r.active() {
		return
	}
	if len(args) == 0 {
		r.listener.OnError(ErrMalformedFrame)
		return
	}
	f, err := parseFrame(args[0])
	if err != nil {
		logger.Warnf("socketio: %s: %v", r.path, err)
		r.listener.OnError(err)
		return
	}
	if f.EventID != "" {
		r.mu.Lock()
		r.lastEventID = f.EventID
		r.mu.Unlock()
	}
	r.listener.OnEvent(f.Body)
}

func (r *resumable) onSubscriptionError(args ...any) {
	if !r.active() {
		return
	}
	r.listener.OnError(serverError(args))
}

func (r *resumable) onSubscriptionEnd(...any) {
	if !r.active() {
		return
	}
	r.listener.OnEnd()
}
