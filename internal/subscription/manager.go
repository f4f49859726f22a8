package subscription

import (
	"cmp"
	"slices"
	"sync"

	"github.com/bhandras/chatkit/internal/state"
)

// Manager keeps at most one ConcreteSubscription per subscription type.
type Manager struct {
	factory  InstanceFactory
	delegate Delegate
	opts     []Option

	mu   sync.Mutex
	subs map[state.SubscriptionType]*ConcreteSubscription
}

// NewManager creates a manager. opts are applied to every subscription it
// creates.
func NewManager(factory InstanceFactory, delegate Delegate, opts ...Option) *Manager {
	return &Manager{
		factory:  factory,
		delegate: delegate,
		opts:     opts,
		subs:     make(map[state.SubscriptionType]*ConcreteSubscription),
	}
}

// Subscribe subscribes to t, reusing the existing subscription for t if any.
func (m *Manager) Subscribe(t state.SubscriptionType, completion Completion) {
	m.mu.Lock()
	sub, ok := m.subs[t]
	if !ok {
		sub = New(t, m.factory, m.delegate, m.opts...)
		m.subs[t] = sub
	}
	m.mu.Unlock()

	sub.Subscribe(completion)
}

// Unsubscribe tears down and forgets the subscription for t.
func (m *Manager) Unsubscribe(t state.SubscriptionType) {
	m.mu.Lock()
	sub, ok := m.subs[t]
	delete(m.subs, t)
	m.mu.Unlock()

	if ok {
		sub.Unsubscribe()
	}
}

// UnsubscribeFromAll tears down every subscription.
func (m *Manager) UnsubscribeFromAll() {
	m.mu.Lock()
	subs := m.subs
	m.subs = make(map[state.SubscriptionType]*ConcreteSubscription)
	m.mu.Unlock()

	for _, sub := range subs {
		sub.Unsubscribe()
	}
}

// Get returns the subscription for t.
func (m *Manager) Get(t state.SubscriptionType) (*ConcreteSubscription, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.subs[t]
	return sub, ok
}

// Types returns the managed subscription types ordered by name.
func (m *Manager) Types() []state.SubscriptionType {
	m.mu.Lock()
	out := make([]state.SubscriptionType, 0, len(m.subs))
	for t := range m.subs {
		out = append(out, t)
	}
	m.mu.Unlock()

	slices.SortFunc(out, func(a, b state.SubscriptionType) int {
		return cmp.Compare(a.String(), b.String())
	})
	return out
}
