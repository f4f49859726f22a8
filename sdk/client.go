// Package sdk is the public entry point of chatkit. A Client owns the store,
// the subscriptions feeding it and the repositories derived from it.
package sdk

import (
	"context"
	"sync"

	"github.com/bhandras/chatkit/internal/metrics"
	"github.com/bhandras/chatkit/internal/repository"
	"github.com/bhandras/chatkit/internal/state"
	"github.com/bhandras/chatkit/internal/store"
	"github.com/bhandras/chatkit/internal/subscription"
	"github.com/bhandras/chatkit/internal/wire"
	"github.com/bhandras/chatkit/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
)

// defaultDispatcherQueueSize is the mailbox size of the store dispatcher.
const defaultDispatcherQueueSize = 256

// Re-exported so applications need not import internal packages.
type (
	RoomState    = state.RoomState
	UserState    = state.UserState
	Rooms        = repository.State[state.RoomState]
	Members      = repository.State[state.UserState]
	Subscription = state.SubscriptionType
)

// UserFetcher loads full profiles for partial users.
type UserFetcher interface {
	Fetch(ctx context.Context, ids []string) ([]wire.User, error)
}

// ErrorHandler receives errors that do not belong to a single call: decode
// failures, subscription errors and failed user fetches.
type ErrorHandler func(t state.SubscriptionType, err error)

type options struct {
	registerer prometheus.Registerer
	onError    ErrorHandler
	maxPending int
	queueSize  int
	closers    []func() error
}

// Option configures a Client.
type Option func(*options)

// WithRegisterer exports metrics to reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithErrorHandler installs fn as the error observer.
func WithErrorHandler(fn ErrorHandler) Option {
	return func(o *options) { o.onError = fn }
}

// WithMaxPending bounds how many versions a repository holds back while
// waiting for user profiles.
func WithMaxPending(n int) Option {
	return func(o *options) { o.maxPending = n }
}

// withCloser registers a function run by Close.
func withCloser(fn func() error) Option {
	return func(o *options) { o.closers = append(o.closers, fn) }
}

// Client keeps a local mirror of the chat state of one user.
type Client struct {
	store    *store.Store
	manager  *subscription.Manager
	metrics  *metrics.Metrics
	dispatch *dispatcher
	users    *supplementer
	opts     options

	mu     sync.Mutex
	rooms  *repository.Repository[state.RoomState]
	closed bool
}

// New creates a client opening subscriptions through factory and resolving
// partial users through fetcher. fetcher may be nil, in which case partial
// users are never resolved.
func New(factory subscription.InstanceFactory, fetcher UserFetcher, opts ...Option) *Client {
	o := options{queueSize: defaultDispatcherQueueSize}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Client{
		metrics:  metrics.New(o.registerer),
		dispatch: newDispatcher(o.queueSize),
		opts:     o,
	}
	c.store = store.New(store.WithMetrics(c.metrics))
	c.manager = subscription.NewManager(factory, &delegate{client: c},
		subscription.WithMetrics(c.metrics))
	c.users = newSupplementer(c, fetcher)
	return c
}

// State returns the current store snapshot.
func (c *Client) State() state.VersionedState {
	return c.store.State()
}

// Connect opens the user subscription. completion, if not nil, is called once
// the first event arrived or the handshake failed.
func (c *Client) Connect(completion func(error)) {
	c.subscribe(state.UserSubscription(), completion)
}

// SubscribeToRoom opens the subscription of one room.
func (c *Client) SubscribeToRoom(roomIdentifier string, completion func(error)) {
	c.subscribe(state.RoomSubscription(roomIdentifier), completion)
}

// SubscribeToPresence follows the presence of one user.
func (c *Client) SubscribeToPresence(userIdentifier string, completion func(error)) {
	c.subscribe(state.PresenceSubscription(userIdentifier), completion)
}

// Unsubscribe closes the subscription of type t.
func (c *Client) Unsubscribe(t state.SubscriptionType) {
	c.manager.Unsubscribe(t)
	c.setConnection(t, state.Closed(nil))
}

// Disconnect closes every subscription.
func (c *Client) Disconnect() {
	types := c.manager.Types()
	c.manager.UnsubscribeFromAll()
	for _, t := range types {
		c.setConnection(t, state.Closed(nil))
	}
}

// JoinedRooms returns the repository of the current user's rooms. The
// repository is shared and already started.
func (c *Client) JoinedRooms() *repository.Repository[state.RoomState] {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rooms == nil {
		c.rooms = repository.JoinedRooms(c.store, c.repositoryOptions()...)
		c.rooms.Start()
	}
	return c.rooms
}

// RoomMembers returns a started repository of one room's members. Callers
// own it and should Stop it when done.
func (c *Client) RoomMembers(roomIdentifier string) *repository.Repository[state.UserState] {
	r := repository.RoomMembers(c.store, roomIdentifier, c.repositoryOptions()...)
	r.Start()
	return r
}

// Close disconnects and releases the client. It is idempotent.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	rooms := c.rooms
	c.mu.Unlock()

	c.Disconnect()
	c.users.stop()
	c.dispatch.close()
	if rooms != nil {
		rooms.Stop()
	}

	var firstErr error
	for _, fn := range c.opts.closers {
		if err := fn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (c *Client) repositoryOptions() []repository.Option {
	opts := []repository.Option{repository.WithMetrics(c.metrics)}
	if c.opts.maxPending > 0 {
		opts = append(opts, repository.WithMaxPending(c.opts.maxPending))
	}
	return opts
}

func (c *Client) subscribe(t state.SubscriptionType, completion func(error)) {
	if sub, ok := c.manager.Get(t); !ok || sub.Status() == subscription.NotSubscribed {
		c.setConnection(t, state.Initializing(nil))
	}
	c.manager.Subscribe(t, func(err error) {
		if err == nil {
			c.setConnection(t, state.Connected())
		}
		if completion != nil {
			completion(err)
		}
	})
}

// setConnection records the connection state of t in the store.
func (c *Client) setConnection(t state.SubscriptionType, cs state.ConnectionState) {
	c.enqueue(func() {
		if cur, ok := c.store.State().Auxiliary.Get(t); ok && cur.Equal(cs) {
			return
		}
		c.store.Dispatch(actionSubscriptionState(t, cs))
	})
}

// enqueue runs fn on the dispatcher; work arriving after Close is dropped.
func (c *Client) enqueue(fn func()) {
	if err := c.dispatch.do(fn); err != nil {
		logger.Debugf("sdk: dropping work: %v", err)
	}
}

func (c *Client) reportError(t state.SubscriptionType, err error) {
	if c.opts.onError != nil {
		c.opts.onError(t, err)
	}
}
