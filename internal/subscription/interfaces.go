// Package subscription manages the lifecycle of real-time subscriptions.
//
// A ConcreteSubscription turns any number of concurrent Subscribe calls into a
// single transport attachment and a single coalesced "ready" signal. Every
// terminal condition (transport error during the handshake, unexpected end of
// stream, explicit unsubscribe) returns it to the not subscribed state, so the
// next Subscribe deterministically restarts the handshake.
package subscription

import (
	"errors"
	"fmt"

	"github.com/bhandras/chatkit/internal/state"
)

var (
	// ErrUnsubscribeWhileSubscribing is reported when Unsubscribe interrupts a
	// handshake.
	ErrUnsubscribeWhileSubscribing = errors.New(
		"ERROR: `unsubscribe` called whilst still in the process of subscribing")

	// ErrEndWhileSubscribing is reported when the stream ends during the
	// handshake.
	ErrEndWhileSubscribing = errors.New(
		"ERROR: `onEnd` received unexpectedly whilst still in the process of subscribing")

	// ErrEndWhileSubscribed is reported when an established stream ends.
	ErrEndWhileSubscribed = errors.New(
		"ERROR: `onEnd` received unexpectedly whilst subscribed")
)

// Listener receives the callbacks of one resumable subscription.
type Listener struct {
	OnEvent func(raw []byte)
	OnError func(err error)
	OnEnd   func()
}

// Resumable is an attached resumable subscription.
type Resumable interface {
	// End detaches the subscription. No callbacks are delivered afterwards.
	End()
}

// Instance is a service instance able to open resumable subscriptions.
type Instance interface {
	SubscribeWithResume(path string, listener Listener) (Resumable, error)
}

// InstanceFactory creates the instance serving a subscription type.
type InstanceFactory interface {
	MakeInstance(t state.SubscriptionType) (Instance, error)
}

// InstanceFactoryFunc adapts a function to InstanceFactory.
type InstanceFactoryFunc func(t state.SubscriptionType) (Instance, error)

// MakeInstance implements InstanceFactory.
func (f InstanceFactoryFunc) MakeInstance(t state.SubscriptionType) (Instance, error) {
	return f(t)
}

// Delegate observes what a subscription receives.
type Delegate interface {
	DidReceiveEvent(t state.SubscriptionType, raw []byte)
	DidReceiveError(t state.SubscriptionType, err error)
}

// Path returns the resource path of a subscription type.
func Path(t state.SubscriptionType) string {
	switch t.Kind {
	case state.SubscriptionRoom:
		return fmt.Sprintf("/rooms/%s", t.Identifier)
	case state.SubscriptionPresence:
		return fmt.Sprintf("/users/%s/presence", t.Identifier)
	default:
		return "/users"
	}
}
