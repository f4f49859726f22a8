package buffer

import (
	"sync"

	"github.com/bhandras/chatkit/internal/state"
)

// ConnectivityMonitor tracks the ConnectionState of one subscription type
// and notifies its delegate when it changes.
type ConnectivityMonitor struct {
	subscriptionType state.SubscriptionType
	delegate         func(state.ConnectionState)

	reportMu sync.Mutex

	mu      sync.Mutex
	current state.ConnectionState
	known   bool
}

// NewConnectivityMonitor creates a monitor for t.
func NewConnectivityMonitor(t state.SubscriptionType, delegate func(state.ConnectionState)) *ConnectivityMonitor {
	return &ConnectivityMonitor{subscriptionType: t, delegate: delegate}
}

// Current returns the last observed connection state. Before the
// subscription is first reported it is initializing.
func (m *ConnectivityMonitor) Current() state.ConnectionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.known {
		return state.Initializing(nil)
	}
	return m.current
}

// Report inspects a store version. It has the store.Listener signature.
func (m *ConnectivityMonitor) Report(v state.VersionedState) {
	next, ok := v.Auxiliary.Get(m.subscriptionType)
	if !ok {
		next = state.Initializing(nil)
	}

	m.reportMu.Lock()
	defer m.reportMu.Unlock()

	m.mu.Lock()
	changed := !m.known || !m.current.Equal(next)
	m.current, m.known = next, true
	m.mu.Unlock()

	if changed && m.delegate != nil {
		m.delegate(next)
	}
}
