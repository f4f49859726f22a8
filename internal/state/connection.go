package state

import (
	"fmt"
	"maps"
)

// ConnectionKind is the coarse status of one subscription.
type ConnectionKind int

const (
	ConnectionInitializing ConnectionKind = iota
	ConnectionConnected
	ConnectionDegraded
	ConnectionClosed
)

// String implements fmt.Stringer.
func (k ConnectionKind) String() string {
	switch k {
	case ConnectionInitializing:
		return "initializing"
	case ConnectionConnected:
		return "connected"
	case ConnectionDegraded:
		return "degraded"
	case ConnectionClosed:
		return "closed"
	default:
		return fmt.Sprintf("connectionKind(%d)", int(k))
	}
}

// ConnectionState is the status of one subscription as last reported. It is
// authoritative when reported and is never supplemented.
type ConnectionState struct {
	Kind ConnectionKind
	// Err is optional for initializing and closed, set for degraded, and nil
	// for connected.
	Err error
}

// Initializing returns an initializing state with an optional error.
func Initializing(err error) ConnectionState {
	return ConnectionState{Kind: ConnectionInitializing, Err: err}
}

// Connected returns the connected state.
func Connected() ConnectionState { return ConnectionState{Kind: ConnectionConnected} }

// Degraded returns a degraded state.
func Degraded(err error) ConnectionState {
	return ConnectionState{Kind: ConnectionDegraded, Err: err}
}

// Closed returns a closed state with an optional error.
func Closed(err error) ConnectionState {
	return ConnectionState{Kind: ConnectionClosed, Err: err}
}

// IsComplete always returns true.
func (ConnectionState) IsComplete() bool { return true }

// Supplement returns the receiver unchanged.
func (c ConnectionState) Supplement(ConnectionState) ConnectionState { return c }

// Equal compares kinds and error messages.
func (c ConnectionState) Equal(o ConnectionState) bool {
	if c.Kind != o.Kind {
		return false
	}
	if c.Err == nil || o.Err == nil {
		return c.Err == nil && o.Err == nil
	}
	return c.Err.Error() == o.Err.Error()
}

// String implements fmt.Stringer.
func (c ConnectionState) String() string {
	if c.Err == nil {
		return c.Kind.String()
	}
	return fmt.Sprintf("%s(%v)", c.Kind, c.Err)
}

// AuxiliaryState holds one ConnectionState per active subscription. The zero
// value is empty. Methods never mutate the receiver.
type AuxiliaryState struct {
	subscriptions map[SubscriptionType]ConnectionState
}

// Get returns the connection state of a subscription type.
func (a AuxiliaryState) Get(t SubscriptionType) (ConnectionState, bool) {
	c, ok := a.subscriptions[t]
	return c, ok
}

// Len returns the number of tracked subscriptions.
func (a AuxiliaryState) Len() int { return len(a.subscriptions) }

// With returns a copy with the subscription's state set.
func (a AuxiliaryState) With(t SubscriptionType, c ConnectionState) AuxiliaryState {
	if cur, ok := a.subscriptions[t]; ok && cur.Equal(c) {
		return a
	}
	subs := maps.Clone(a.subscriptions)
	if subs == nil {
		subs = make(map[SubscriptionType]ConnectionState, 1)
	}
	subs[t] = c
	return AuxiliaryState{subscriptions: subs}
}

// Without returns a copy without the subscription type.
func (a AuxiliaryState) Without(t SubscriptionType) AuxiliaryState {
	if _, ok := a.subscriptions[t]; !ok {
		return a
	}
	subs := maps.Clone(a.subscriptions)
	delete(subs, t)
	return AuxiliaryState{subscriptions: subs}
}

// IsComplete always returns true.
func (AuxiliaryState) IsComplete() bool { return true }

// Supplement returns the receiver unchanged; connection state is never
// back-filled from another snapshot.
func (a AuxiliaryState) Supplement(AuxiliaryState) AuxiliaryState { return a }

// Equal reports value equality.
func (a AuxiliaryState) Equal(o AuxiliaryState) bool {
	return maps.EqualFunc(a.subscriptions, o.subscriptions, ConnectionState.Equal)
}
