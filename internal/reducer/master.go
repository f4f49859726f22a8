package reducer

import (
	"github.com/bhandras/chatkit/internal/action"
	"github.com/bhandras/chatkit/internal/state"
)

// Reduce is the master reducer.
func Reduce(a action.Action, s state.MasterState, deps Dependencies) state.MasterState {
	switch in := a.(type) {
	case action.SubscriptionStateUpdated:
		s.Auxiliary = s.Auxiliary.With(in.Type, in.State)
		return s

	case action.InitialState,
		action.AddedToRoom,
		action.RemovedFromRoom,
		action.RoomUpdated,
		action.RoomDeleted,
		action.ReadStateUpdated,
		action.UserJoinedRoom,
		action.UserLeftRoom,
		action.NewMessage,
		action.MessageDeleted,
		action.IsTyping,
		action.PresenceState,
		action.FetchedUsers:
		s.Chat = deps.Chat(a, s.Chat, deps)
		return s

	default:
		return s
	}
}
