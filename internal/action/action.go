// Package action wraps decoded subscription events, and locally synthesised
// updates, into the closed set of inputs understood by the reducers.
package action

import (
	"fmt"

	"github.com/bhandras/chatkit/internal/state"
	"github.com/bhandras/chatkit/internal/wire"
)

// Action is an input to the reducer pipeline.
type Action interface {
	isAction()
}

// Base can be embedded into action structs to satisfy Action.
type Base struct{}

func (Base) isAction() {}

type InitialState struct {
	Base
	Event wire.InitialState
}

type AddedToRoom struct {
	Base
	Event wire.AddedToRoom
}

type RemovedFromRoom struct {
	Base
	Event wire.RemovedFromRoom
}

type RoomUpdated struct {
	Base
	Event wire.RoomUpdated
}

type RoomDeleted struct {
	Base
	Event wire.RoomDeleted
}

type UserJoinedRoom struct {
	Base
	Event wire.UserJoinedRoom
}

type UserLeftRoom struct {
	Base
	Event wire.UserLeftRoom
}

type ReadStateUpdated struct {
	Base
	Event wire.ReadStateUpdated
}

type NewMessage struct {
	Base
	Event wire.NewMessage
}

type MessageDeleted struct {
	Base
	Event wire.MessageDeleted
}

type IsTyping struct {
	Base
	Event wire.IsTyping
}

// PresenceState carries the subject user, which the wire event omits.
type PresenceState struct {
	Base
	UserIdentifier string
	Event          wire.PresenceState
}

// SubscriptionStateUpdated reports a new connection state for a subscription.
type SubscriptionStateUpdated struct {
	Base
	Type  state.SubscriptionType
	State state.ConnectionState
}

// FetchedUsers delivers full profiles fetched for partial users.
type FetchedUsers struct {
	Base
	Users []wire.User
}

// FromEvent wraps a decoded event received on a subscription of type t.
func FromEvent(t state.SubscriptionType, ev wire.Event) (Action, error) {
	switch e := ev.(type) {
	case wire.InitialState:
		return InitialState{Event: e}, nil
	case wire.AddedToRoom:
		return AddedToRoom{Event: e}, nil
	case wire.RemovedFromRoom:
		return RemovedFromRoom{Event: e}, nil
	case wire.RoomUpdated:
		return RoomUpdated{Event: e}, nil
	case wire.RoomDeleted:
		return RoomDeleted{Event: e}, nil
	case wire.UserJoinedRoom:
		return UserJoinedRoom{Event: e}, nil
	case wire.UserLeftRoom:
		return UserLeftRoom{Event: e}, nil
	case wire.ReadStateUpdated:
		return ReadStateUpdated{Event: e}, nil
	case wire.NewMessage:
		return NewMessage{Event: e}, nil
	case wire.MessageDeleted:
		return MessageDeleted{Event: e}, nil
	case wire.IsTyping:
		return IsTyping{Event: e}, nil
	case wire.PresenceState:
		if t.Kind != state.SubscriptionPresence || t.Identifier == "" {
			return nil, fmt.Errorf("presence_state received on %s subscription", t)
		}
		return PresenceState{UserIdentifier: t.Identifier, Event: e}, nil
	default:
		return nil, fmt.Errorf("no action for event %T", ev)
	}
}

// SignatureOf returns the version signature an action produces.
// Unrecognised actions map to state.SignatureUnsupported.
func SignatureOf(a Action) state.VersionSignature {
	switch a.(type) {
	case InitialState:
		return state.SignatureInitialState
	case AddedToRoom:
		return state.SignatureAddedToRoom
	case RemovedFromRoom:
		return state.SignatureRemovedFromRoom
	case RoomUpdated:
		return state.SignatureRoomUpdated
	case RoomDeleted:
		return state.SignatureRoomDeleted
	case UserJoinedRoom:
		return state.SignatureUserJoinedRoom
	case UserLeftRoom:
		return state.SignatureUserLeftRoom
	case ReadStateUpdated:
		return state.SignatureReadStateUpdated
	case NewMessage:
		return state.SignatureNewMessage
	case MessageDeleted:
		return state.SignatureMessageDeleted
	case IsTyping:
		return state.SignatureIsTyping
	case PresenceState:
		return state.SignaturePresenceState
	case SubscriptionStateUpdated:
		return state.SignatureSubscriptionStateUpdated
	case FetchedUsers:
		return state.SignatureFetchedUsers
	default:
		return state.SignatureUnsupported
	}
}
