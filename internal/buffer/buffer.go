// Package buffer decides which store versions reach a repository.
//
// A Buffer listens to every store version, drops versions its filter does
// not care about, and holds back versions whose relevant substate still
// references partial users until a later version can supplement them.
package buffer

import (
	"sync"

	"github.com/bhandras/chatkit/internal/metrics"
	"github.com/bhandras/chatkit/internal/state"
	"github.com/bhandras/chatkit/pkg/logger"
)

// DefaultMaxPending bounds the number of held back versions.
const DefaultMaxPending = 64

// StateFilter selects the part of the global state a buffer cares about.
type StateFilter interface {
	// IsSupported reports whether versions with this signature can affect
	// the substate.
	IsSupported(sig state.VersionSignature) bool
	// HasModifiedSubstate reports whether the substate differs between two
	// versions.
	HasModifiedSubstate(old, new state.VersionedState) bool
	// HasCompleteSubstate reports whether the substate is ready to publish.
	HasCompleteSubstate(s state.VersionedState) bool
}

// Option configures a Buffer.
type Option func(*Buffer)

// WithMaxPending overrides DefaultMaxPending. Values below 1 are ignored.
func WithMaxPending(n int) Option {
	return func(b *Buffer) {
		if n > 0 {
			b.maxPending = n
		}
	}
}

// WithMetrics records publish and overflow counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Buffer) { b.metrics = m }
}

// Buffer publishes complete versions of a substate in version order.
type Buffer struct {
	name       string
	filter     StateFilter
	publish    func(state.VersionedState)
	maxPending int
	metrics    *metrics.Metrics

	// reportMu keeps publications in report order.
	reportMu sync.Mutex

	mu           sync.Mutex
	last         state.VersionedState
	hasLast      bool
	queue        []state.VersionedState
	published    state.VersionedState
	hasPublished bool
}

// New creates a buffer. publish is invoked for every published version, never
// concurrently with itself.
func New(name string, filter StateFilter, publish func(state.VersionedState), opts ...Option) *Buffer {
	b := &Buffer{
		name:       name,
		filter:     filter,
		publish:    publish,
		maxPending: DefaultMaxPending,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Latest returns the last published version.
func (b *Buffer) Latest() (state.VersionedState, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.published, b.hasPublished
}

// Pending returns the number of held back versions.
func (b *Buffer) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

// Report offers a new store version to the buffer. It has the store.Listener
// signature.
func (b *Buffer) Report(v state.VersionedState) {
	b.reportMu.Lock()
	defer b.reportMu.Unlock()

	out := b.accept(v)
	for _, s := range out {
		b.metrics.StatePublished(b.name)
		if b.publish != nil {
			b.publish(s)
		}
	}
}

func (b *Buffer) accept(v state.VersionedState) []state.VersionedState {
	b.mu.Lock()
	defer b.mu.Unlock()

	// The first version seeds the buffer whatever produced it.
	if b.hasLast && !b.filter.IsSupported(v.Signature) {
		return nil
	}
	if b.hasLast && !b.filter.HasModifiedSubstate(b.last, v) {
		b.last = v
		return nil
	}
	b.last, b.hasLast = v, true
	b.queue = append(b.queue, v)

	return b.drain()
}

// drain publishes from the head of the queue while the head is complete,
// can be completed from the latest queued version, or has been superseded by
// a complete later version.
func (b *Buffer) drain() []state.VersionedState {
	var out []state.VersionedState
	for len(b.queue) > 0 {
		head := b.queue[0]
		if !b.filter.HasCompleteSubstate(head) {
			head = head.Supplement(b.queue[len(b.queue)-1])
			b.queue[0] = head
		}

		if !b.filter.HasCompleteSubstate(head) {
			switch {
			case b.hasCompleteAfterHead():
				logger.Tracef("buffer %s: version %d superseded", b.name, head.Version)
				b.queue = b.queue[1:]
				continue
			case len(b.queue) > b.maxPending:
				logger.Warnf("buffer %s: publishing incomplete version %d, %d pending",
					b.name, head.Version, len(b.queue))
				b.metrics.BufferOverflow(b.name)
			default:
				return out
			}
		}

		b.queue = b.queue[1:]
		if b.hasPublished && !b.filter.HasModifiedSubstate(b.published, head) {
			continue
		}
		b.published, b.hasPublished = head, true
		out = append(out, head)
	}
	b.queue = nil
	return out
}

func (b *Buffer) hasCompleteAfterHead() bool {
	for _, s := range b.queue[1:] {
		if b.filter.HasCompleteSubstate(s) {
			return true
		}
	}
	return false
}
