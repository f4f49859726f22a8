package sdk

import (
	"errors"

	"github.com/bhandras/chatkit/internal/action"
	"github.com/bhandras/chatkit/internal/state"
	"github.com/bhandras/chatkit/internal/subscription"
	"github.com/bhandras/chatkit/internal/wire"
	"github.com/bhandras/chatkit/pkg/logger"
)

// delegate turns subscription callbacks into store actions.
type delegate struct {
	client *Client
}

var _ subscription.Delegate = (*delegate)(nil)

// DidReceiveEvent implements subscription.Delegate.
func (d *delegate) DidReceiveEvent(t state.SubscriptionType, raw []byte) {
	c := d.client
	c.enqueue(func() {
		ev, err := wire.Decode(raw)
		if err != nil {
			logger.Warnf("sdk: %s: dropping undecodable event: %v", t, err)
			c.reportError(t, err)
			return
		}
		a, err := action.FromEvent(t, ev)
		if err != nil {
			logger.Warnf("sdk: %s: %v", t, err)
			c.reportError(t, err)
			return
		}

		// Events flowing again after a transport error mean the stream
		// resumed.
		if cur, ok := c.store.State().Auxiliary.Get(t); ok && cur.Kind == state.ConnectionDegraded {
			c.store.Dispatch(actionSubscriptionState(t, state.Connected()))
		}
		c.store.Dispatch(a)
	})
}

// DidReceiveError implements subscription.Delegate.
func (d *delegate) DidReceiveError(t state.SubscriptionType, err error) {
	c := d.client
	logger.Debugf("sdk: %s: %v", t, err)

	// Unsubscribe records the closed state itself.
	if errors.Is(err, subscription.ErrUnsubscribeWhileSubscribing) {
		return
	}
	c.reportError(t, err)

	c.enqueue(func() {
		cur, _ := c.store.State().Auxiliary.Get(t)
		next := connectionAfterError(cur, err)
		if cur.Equal(next) {
			return
		}
		c.store.Dispatch(actionSubscriptionState(t, next))
	})
}

// connectionAfterError maps a subscription error onto the connection state.
// Before the first event the subscription is still initializing; afterwards
// the error degrades it, unless the stream ended for good.
func connectionAfterError(cur state.ConnectionState, err error) state.ConnectionState {
	switch {
	case errors.Is(err, subscription.ErrEndWhileSubscribed):
		return state.Closed(err)
	case cur.Kind == state.ConnectionConnected, cur.Kind == state.ConnectionDegraded:
		return state.Degraded(err)
	default:
		return state.Initializing(err)
	}
}

func actionSubscriptionState(t state.SubscriptionType, cs state.ConnectionState) action.Action {
	return action.SubscriptionStateUpdated{Type: t, State: cs}
}
