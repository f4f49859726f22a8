// Package repository combines buffered chat state with subscription
// connectivity into one observable value per projection.
package repository

import (
	"fmt"

	"github.com/bhandras/chatkit/internal/state"
)

// Kind is the status of a repository.
type Kind int

const (
	Initializing Kind = iota
	Connected
	Degraded
	Closed
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case Initializing:
		return "initializing"
	case Connected:
		return "connected"
	case Degraded:
		return "degraded"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ChangeKind classifies a single-item change.
type ChangeKind int

const (
	ItemAdded ChangeKind = iota
	ItemRemoved
	ItemChanged
)

// String implements fmt.Stringer.
func (k ChangeKind) String() string {
	switch k {
	case ItemAdded:
		return "itemAdded"
	case ItemRemoved:
		return "itemRemoved"
	case ItemChanged:
		return "itemChanged"
	default:
		return fmt.Sprintf("changeKind(%d)", int(k))
	}
}

// ChangeReason describes how the items differ from the previously published
// items. For ItemAdded and ItemRemoved only Item is set; for ItemChanged only
// From and To are set.
type ChangeReason[E any] struct {
	Kind ChangeKind
	Item E
	From E
	To   E
}

// State is the published value of a repository.
//
//   - Initializing: Err is the last handshake failure, if any.
//   - Connected: Items is current; ChangeReason is nil for the first state and
//     for changes touching several items.
//   - Degraded: Items is the last good snapshot and Err the failure.
//   - Closed: Err is set when the subscription ended unexpectedly.
type State[E any] struct {
	Kind         Kind
	Items        []E
	Err          error
	ChangeReason *ChangeReason[E]
}

// Derive computes the repository state from the buffered items and the
// subscription's connection state. initialized is false until the buffer has
// published a version holding real data.
func Derive[E any](conn state.ConnectionState, items []E, initialized bool, reason *ChangeReason[E]) State[E] {
	switch conn.Kind {
	case state.ConnectionClosed:
		return State[E]{Kind: Closed, Err: conn.Err}

	case state.ConnectionConnected:
		if !initialized {
			return State[E]{Kind: Initializing}
		}
		return State[E]{Kind: Connected, Items: items, ChangeReason: reason}

	case state.ConnectionDegraded:
		if !initialized {
			return State[E]{Kind: Initializing, Err: conn.Err}
		}
		return State[E]{Kind: Degraded, Items: items, Err: conn.Err, ChangeReason: reason}

	default:
		// A resubscribe keeps the last known items.
		if initialized {
			if conn.Err != nil {
				return State[E]{Kind: Degraded, Items: items, Err: conn.Err, ChangeReason: reason}
			}
			return State[E]{Kind: Connected, Items: items, ChangeReason: reason}
		}
		return State[E]{Kind: Initializing, Err: conn.Err}
	}
}
