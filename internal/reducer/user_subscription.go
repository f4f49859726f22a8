package reducer

import (
	"github.com/bhandras/chatkit/internal/action"
	"github.com/bhandras/chatkit/internal/state"
)

// Dependencies carries the nested reducers so tests can substitute them. It
// holds no runtime state.
type Dependencies struct {
	User        func(action.Action, state.UserState, Dependencies) state.UserState
	UserList    func(action.Action, state.UserListState, Dependencies) state.UserListState
	RoomList    func(action.Action, state.RoomListState, Dependencies) state.RoomListState
	Memberships func(action.Action, state.MembershipListState, Dependencies) state.MembershipListState
	Presence    func(action.Action, state.PresenceListState, Dependencies) state.PresenceListState
	Chat        func(action.Action, state.ChatState, Dependencies) state.ChatState
}

// DefaultDependencies wires the production reducers.
func DefaultDependencies() Dependencies {
	return Dependencies{
		User:        ReduceUser,
		UserList:    ReduceUserList,
		RoomList:    ReduceRoomList,
		Memberships: ReduceMemberships,
		Presence:    ReducePresence,
		Chat:        ReduceChat,
	}
}

// ReduceChat routes an action to its per-event reducer.
func ReduceChat(a action.Action, s state.ChatState, deps Dependencies) state.ChatState {
	switch in := a.(type) {
	case action.InitialState:
		return ReduceInitialState(in, s, deps)
	case action.AddedToRoom:
		return ReduceAddedToRoom(in, s, deps)
	case action.RemovedFromRoom:
		return ReduceRemovedFromRoom(in, s, deps)
	case action.RoomUpdated:
		return ReduceRoomUpdated(in, s, deps)
	case action.RoomDeleted:
		return ReduceRoomDeleted(in, s, deps)
	case action.ReadStateUpdated:
		return ReduceReadStateUpdated(in, s, deps)
	case action.UserJoinedRoom:
		return ReduceUserJoinedRoom(in, s, deps)
	case action.UserLeftRoom:
		return ReduceUserLeftRoom(in, s, deps)
	case action.NewMessage:
		return ReduceNewMessage(in, s, deps)
	case action.PresenceState:
		return ReducePresenceState(in, s, deps)
	case action.FetchedUsers:
		return ReduceFetchedUsers(in, s, deps)
	case action.MessageDeleted, action.IsTyping:
		// Messages and typing indicators are not mirrored.
		return s
	default:
		return s
	}
}

// ReduceInitialState replaces the chat state. Presence comes from separate
// subscriptions and is carried over.
func ReduceInitialState(a action.InitialState, s state.ChatState, deps Dependencies) state.ChatState {
	return state.ChatState{
		CurrentUser: deps.User(a, state.EmptyUser(), deps),
		JoinedRooms: deps.RoomList(a, state.RoomListState{}, deps),
		Users:       deps.UserList(a, state.UserListState{}, deps),
		Memberships: deps.Memberships(a, state.MembershipListState{}, deps),
		Presence:    s.Presence,
	}
}

func ReduceAddedToRoom(a action.AddedToRoom, s state.ChatState, deps Dependencies) state.ChatState {
	s.JoinedRooms = deps.RoomList(a, s.JoinedRooms, deps)
	s.Memberships = deps.Memberships(a, s.Memberships, deps)
	s.Users = deps.UserList(a, s.Users, deps)
	return s
}

func ReduceRemovedFromRoom(a action.RemovedFromRoom, s state.ChatState, deps Dependencies) state.ChatState {
	s.JoinedRooms = deps.RoomList(a, s.JoinedRooms, deps)
	s.Memberships = deps.Memberships(a, s.Memberships, deps)
	return s
}

func ReduceRoomUpdated(a action.RoomUpdated, s state.ChatState, deps Dependencies) state.ChatState {
	s.JoinedRooms = deps.RoomList(a, s.JoinedRooms, deps)
	return s
}

func ReduceRoomDeleted(a action.RoomDeleted, s state.ChatState, deps Dependencies) state.ChatState {
	s.JoinedRooms = deps.RoomList(a, s.JoinedRooms, deps)
	s.Memberships = deps.Memberships(a, s.Memberships, deps)
	return s
}

func ReduceReadStateUpdated(a action.ReadStateUpdated, s state.ChatState, deps Dependencies) state.ChatState {
	s.JoinedRooms = deps.RoomList(a, s.JoinedRooms, deps)
	return s
}

// ReduceUserJoinedRoom records the membership and stubs the user. Events for
// rooms the current user has not joined are ignored.
func ReduceUserJoinedRoom(a action.UserJoinedRoom, s state.ChatState, deps Dependencies) state.ChatState {
	if !s.JoinedRooms.Contains(a.Event.RoomID) {
		return s
	}
	s.Memberships = deps.Memberships(a, s.Memberships, deps)
	s.Users = deps.UserList(a, s.Users, deps)
	return s
}

func ReduceUserLeftRoom(a action.UserLeftRoom, s state.ChatState, deps Dependencies) state.ChatState {
	s.Memberships = deps.Memberships(a, s.Memberships, deps)
	return s
}

// ReduceNewMessage advances the room's last message time and stubs the
// sender.
func ReduceNewMessage(a action.NewMessage, s state.ChatState, deps Dependencies) state.ChatState {
	if !s.JoinedRooms.Contains(a.Event.RoomID) {
		return s
	}
	s.JoinedRooms = deps.RoomList(a, s.JoinedRooms, deps)
	s.Users = deps.UserList(a, s.Users, deps)
	return s
}

func ReducePresenceState(a action.PresenceState, s state.ChatState, deps Dependencies) state.ChatState {
	s.Presence = deps.Presence(a, s.Presence, deps)
	return s
}

// ReduceFetchedUsers promotes partial users for which a profile was fetched.
func ReduceFetchedUsers(a action.FetchedUsers, s state.ChatState, deps Dependencies) state.ChatState {
	s.CurrentUser = deps.User(a, s.CurrentUser, deps)
	s.Users = deps.UserList(a, s.Users, deps)
	return s
}
