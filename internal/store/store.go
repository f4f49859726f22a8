// Package store holds the current versioned chat state.
//
// The store is the single place where actions become state:
//   - Dispatch runs the master reducer and stamps the result with the next
//     version and the action's signature.
//   - Listeners are notified synchronously, in subscription order, with every
//     new version.
//   - Actions no reducer recognises leave state and version untouched.
//
// Dispatches are serialised, so versions never repeat or gap. Listeners must
// not call Dispatch synchronously; hand the action to another goroutine
// instead.
package store

import (
	"slices"
	"sync"

	"github.com/bhandras/chatkit/internal/action"
	"github.com/bhandras/chatkit/internal/metrics"
	"github.com/bhandras/chatkit/internal/reducer"
	"github.com/bhandras/chatkit/internal/state"
	"github.com/bhandras/chatkit/pkg/logger"
	"github.com/google/uuid"
)

// ReduceFunc is a pure master state transition.
type ReduceFunc func(a action.Action, s state.MasterState, deps reducer.Dependencies) state.MasterState

// Listener receives every new state version.
type Listener func(state.VersionedState)

// Hooks provide optional observability into dispatching.
type Hooks struct {
	// OnDispatch is called for every dispatched action before reducing.
	OnDispatch func(a action.Action)
	// OnTransition is called after a new version is stored, before listeners
	// are notified.
	OnTransition func(prev, next state.VersionedState, a action.Action)
	// OnUnsupported is called for actions that produce no version.
	OnUnsupported func(a action.Action)
}

// Option configures a Store.
type Option func(*Store)

// WithHooks attaches hooks for observability.
func WithHooks(h Hooks) Option {
	return func(s *Store) { s.hooks = h }
}

// WithDependencies replaces the nested reducers.
func WithDependencies(deps reducer.Dependencies) Option {
	return func(s *Store) { s.deps = deps }
}

// WithReducer replaces the master reducer.
func WithReducer(fn ReduceFunc) Option {
	return func(s *Store) {
		if fn != nil {
			s.reduce = fn
		}
	}
}

// WithInitialState seeds the store.
func WithInitialState(v state.VersionedState) Option {
	return func(s *Store) { s.state = v }
}

// WithMetrics records dispatch counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

type subscriber struct {
	id uuid.UUID
	fn Listener
}

// Store owns the current VersionedState.
type Store struct {
	reduce  ReduceFunc
	deps    reducer.Dependencies
	hooks   Hooks
	metrics *metrics.Metrics

	// dispatchMu serialises reduce and notify.
	dispatchMu sync.Mutex

	mu          sync.Mutex
	state       state.VersionedState
	subscribers []subscriber
}

// New creates a store holding the empty state at version 0.
func New(opts ...Option) *Store {
	s := &Store{
		reduce: reducer.Reduce,
		deps:   reducer.DefaultDependencies(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current snapshot.
func (s *Store) State() state.VersionedState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers l and returns the snapshot current at registration
// together with a cancel function. l receives every version after the
// returned one. Cancel is idempotent.
func (s *Store) Subscribe(l Listener) (state.VersionedState, func()) {
	id := uuid.New()

	s.mu.Lock()
	s.subscribers = append(s.subscribers, subscriber{id: id, fn: l})
	current := s.state
	s.mu.Unlock()

	return current, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.subscribers = slices.DeleteFunc(s.subscribers, func(sub subscriber) bool {
			return sub.id == id
		})
	}
}

// Dispatch reduces a into the next version and notifies listeners. It reports
// whether a new version was produced.
func (s *Store) Dispatch(a action.Action) bool {
	if a == nil {
		return false
	}

	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	if s.hooks.OnDispatch != nil {
		s.hooks.OnDispatch(a)
	}

	sig := action.SignatureOf(a)
	if sig == state.SignatureUnsupported {
		logger.Debugf("store: ignoring unrecognised action %T", a)
		s.metrics.ActionUnsupported()
		if s.hooks.OnUnsupported != nil {
			s.hooks.OnUnsupported(a)
		}
		return false
	}

	prev := s.State()
	master := s.reduce(a, prev.Master(), s.deps)
	next := state.VersionedState{
		Chat:      master.Chat,
		Auxiliary: master.Auxiliary,
		Version:   prev.Version + 1,
		Signature: sig,
	}
	logger.Tracef("store: %s -> version %d", sig, next.Version)

	s.mu.Lock()
	s.state = next
	subscribers := slices.Clone(s.subscribers)
	s.mu.Unlock()

	s.metrics.ActionDispatched(sig.String())
	if s.hooks.OnTransition != nil {
		s.hooks.OnTransition(prev, next, a)
	}
	for _, sub := range subscribers {
		sub.fn(next)
	}
	return true
}
