package repository

import (
	"slices"
	"sync"

	"github.com/bhandras/chatkit/internal/buffer"
	"github.com/bhandras/chatkit/internal/metrics"
	"github.com/bhandras/chatkit/internal/state"
	"github.com/bhandras/chatkit/internal/store"
	"github.com/bhandras/chatkit/pkg/logger"
	"github.com/google/uuid"
)

// Projection describes which items a repository exposes.
type Projection[E any] struct {
	// Name labels logs and metrics.
	Name string
	// Subscription is the subscription whose connectivity the repository
	// reports.
	Subscription state.SubscriptionType
	Filter       buffer.StateFilter
	Items        func(state.VersionedState) []E
	Identify     func(E) string
	Equal        func(a, b E) bool
}

// Option configures a Repository.
type Option func(*options)

type options struct {
	maxPending int
	metrics    *metrics.Metrics
}

// WithMaxPending bounds the buffer queue.
func WithMaxPending(n int) Option {
	return func(o *options) { o.maxPending = n }
}

// WithMetrics records buffer counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

type observer[E any] struct {
	id uuid.UUID
	fn func(State[E])
}

// Repository publishes State[E] for one projection of the store.
type Repository[E any] struct {
	projection Projection[E]
	store      *store.Store
	buffer     *buffer.Buffer
	monitor    *buffer.ConnectivityMonitor

	// reportMu orders store notifications against Start.
	reportMu sync.Mutex

	mu          sync.Mutex
	conn        state.ConnectionState
	items       []E
	initialized bool
	reason      *ChangeReason[E]
	current     State[E]
	observers   []observer[E]
	cancelStore func()
}

// New creates a stopped repository over s.
func New[E any](s *store.Store, p Projection[E], opts ...Option) *Repository[E] {
	o := options{maxPending: buffer.DefaultMaxPending}
	for _, opt := range opts {
		opt(&o)
	}

	r := &Repository[E]{
		projection: p,
		store:      s,
		conn:       state.Initializing(nil),
		current:    State[E]{Kind: Initializing},
	}
	r.buffer = buffer.New(p.Name, p.Filter, r.onPublish,
		buffer.WithMaxPending(o.maxPending), buffer.WithMetrics(o.metrics))
	r.monitor = buffer.NewConnectivityMonitor(p.Subscription, r.onConnection)
	return r
}

// Start attaches the repository to the store. Start is idempotent.
func (r *Repository[E]) Start() {
	r.reportMu.Lock()
	defer r.reportMu.Unlock()

	r.mu.Lock()
	started := r.cancelStore != nil
	r.mu.Unlock()
	if started {
		return
	}

	current, cancel := r.store.Subscribe(r.report)
	r.mu.Lock()
	r.cancelStore = cancel
	r.mu.Unlock()

	r.buffer.Report(current)
	r.monitor.Report(current)
}

// Stop detaches the repository from the store. The last state stays
// readable. Stop is idempotent.
func (r *Repository[E]) Stop() {
	r.mu.Lock()
	cancel := r.cancelStore
	r.cancelStore = nil
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// State returns the current repository state.
func (r *Repository[E]) State() State[E] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Observe registers fn, calls it with the current state and then with every
// new state. The returned function cancels the registration.
func (r *Repository[E]) Observe(fn func(State[E])) func() {
	id := uuid.New()

	r.reportMu.Lock()
	r.mu.Lock()
	r.observers = append(r.observers, observer[E]{id: id, fn: fn})
	current := r.current
	r.mu.Unlock()
	fn(current)
	r.reportMu.Unlock()

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.observers = slices.DeleteFunc(r.observers, func(o observer[E]) bool {
			return o.id == id
		})
	}
}

func (r *Repository[E]) report(v state.VersionedState) {
	r.reportMu.Lock()
	defer r.reportMu.Unlock()

	r.buffer.Report(v)
	r.monitor.Report(v)
}

func (r *Repository[E]) onPublish(v state.VersionedState) {
	items := r.projection.Items(v)
	initialized := v.Chat.CurrentUser.Kind != state.UserEmpty

	r.mu.Lock()
	var reason *ChangeReason[E]
	if r.initialized && initialized {
		reason = Transform(r.items, items, r.projection.Identify, r.projection.Equal)
	}
	r.items, r.initialized, r.reason = items, initialized, reason
	r.mu.Unlock()

	r.recompute()
}

func (r *Repository[E]) onConnection(c state.ConnectionState) {
	r.mu.Lock()
	r.conn = c
	r.reason = nil
	r.mu.Unlock()

	r.recompute()
}

func (r *Repository[E]) recompute() {
	r.mu.Lock()
	next := Derive(r.conn, r.items, r.initialized, r.reason)
	r.current = next
	observers := slices.Clone(r.observers)
	r.mu.Unlock()

	logger.Tracef("repository %s: %s (%d items)", r.projection.Name, next.Kind, len(next.Items))
	for _, o := range observers {
		o.fn(next)
	}
}
