// Package reducer implements the pure reducer pipeline.
//
// Reducers are layered: model reducers transform one substate, per-event
// reducers compose them into a ChatState transition, and the master reducer
// routes every action. Every level returns its input unchanged for actions it
// does not recognise, so new server event kinds are ignored rather than
// treated as corruption.
package reducer

import (
	"github.com/bhandras/chatkit/internal/action"
	"github.com/bhandras/chatkit/internal/state"
	"github.com/bhandras/chatkit/internal/wire"
)

// ReduceUser reduces the current user.
func ReduceUser(a action.Action, s state.UserState, _ Dependencies) state.UserState {
	switch in := a.(type) {
	case action.InitialState:
		return userFromWire(in.Event.CurrentUser)
	case action.FetchedUsers:
		for _, u := range in.Users {
			if u.ID == s.Identifier {
				return s.Supplement(userFromWire(u))
			}
		}
		return s
	default:
		return s
	}
}

// ReduceUserList reduces the known users.
func ReduceUserList(a action.Action, s state.UserListState, _ Dependencies) state.UserListState {
	switch in := a.(type) {
	case action.InitialState:
		current := userFromWire(in.Event.CurrentUser)
		next := state.NewUserList(current)
		for _, m := range in.Event.Memberships {
			next = withStubs(next, m.UserIDs...)
		}
		return next
	case action.AddedToRoom:
		return withStubs(s, in.Event.Membership.UserIDs...)
	case action.UserJoinedRoom:
		return withStubs(s, in.Event.UserID)
	case action.NewMessage:
		return withStubs(s, in.Event.UserID)
	case action.FetchedUsers:
		fetched := make([]state.UserState, 0, len(in.Users))
		for _, u := range in.Users {
			fetched = append(fetched, userFromWire(u))
		}
		return s.Supplement(state.NewUserList(fetched...))
	default:
		return s
	}
}

// withStubs inserts a partial user for every identifier not yet known.
func withStubs(s state.UserListState, identifiers ...string) state.UserListState {
	for _, id := range identifiers {
		if _, ok := s.Get(id); ok {
			continue
		}
		s = s.With(state.PartialUser(id))
	}
	return s
}

// ReduceRoomList reduces the joined rooms.
func ReduceRoomList(a action.Action, s state.RoomListState, _ Dependencies) state.RoomListState {
	switch in := a.(type) {
	case action.InitialState:
		readStates := make(map[string]wire.ReadState, len(in.Event.ReadStates))
		for _, rs := range in.Event.ReadStates {
			readStates[rs.RoomID] = rs
		}
		rooms := make([]state.RoomState, 0, len(in.Event.Rooms))
		for _, r := range in.Event.Rooms {
			var summary state.ReadSummaryState
			if rs, ok := readStates[r.ID]; ok {
				summary = readSummaryFromWire(rs)
			}
			rooms = append(rooms, roomFromWire(r, summary))
		}
		return state.NewRoomList(rooms...)

	case action.AddedToRoom:
		var summary state.ReadSummaryState
		if in.Event.ReadState != nil {
			summary = readSummaryFromWire(*in.Event.ReadState)
		}
		return s.With(roomFromWire(in.Event.Room, summary))

	case action.RoomUpdated:
		cur, ok := s.Get(in.Event.Room.ID)
		if !ok {
			return s
		}
		next := roomFromWire(in.Event.Room, cur.ReadSummary)
		if in.Event.Room.LastMessageAt == nil {
			next.LastMessageAt = cur.LastMessageAt
		}
		return s.With(next)

	case action.RemovedFromRoom:
		return s.Without(in.Event.RoomID)

	case action.RoomDeleted:
		return s.Without(in.Event.RoomID)

	case action.ReadStateUpdated:
		cur, ok := s.Get(in.Event.ReadState.RoomID)
		if !ok {
			return s
		}
		cur.ReadSummary = readSummaryFromWire(in.Event.ReadState)
		return s.With(cur)

	case action.NewMessage:
		cur, ok := s.Get(in.Event.RoomID)
		if !ok || !in.Event.CreatedAt.After(cur.LastMessageAt) {
			return s
		}
		cur.LastMessageAt = in.Event.CreatedAt
		return s.With(cur)

	default:
		return s
	}
}

// ReduceMemberships reduces room memberships.
func ReduceMemberships(a action.Action, s state.MembershipListState, _ Dependencies) state.MembershipListState {
	switch in := a.(type) {
	case action.InitialState:
		members := make(map[string][]string, len(in.Event.Memberships))
		for _, m := range in.Event.Memberships {
			members[m.RoomID] = m.UserIDs
		}
		return state.NewMembershipList(members)
	case action.AddedToRoom:
		return s.WithRoom(in.Event.Membership.RoomID, in.Event.Membership.UserIDs)
	case action.RemovedFromRoom:
		return s.WithoutRoom(in.Event.RoomID)
	case action.RoomDeleted:
		return s.WithoutRoom(in.Event.RoomID)
	case action.UserJoinedRoom:
		return s.WithMember(in.Event.RoomID, in.Event.UserID)
	case action.UserLeftRoom:
		return s.WithoutMember(in.Event.RoomID, in.Event.UserID)
	default:
		return s
	}
}

// ReducePresence reduces user presence.
func ReducePresence(a action.Action, s state.PresenceListState, _ Dependencies) state.PresenceListState {
	switch in := a.(type) {
	case action.PresenceState:
		return s.With(in.UserIdentifier, presenceFromWire(in.Event.State))
	default:
		return s
	}
}

func userFromWire(u wire.User) state.UserState {
	out := state.UserState{
		Kind:       state.UserPopulated,
		Identifier: u.ID,
		Name:       u.Name,
		CustomData: u.CustomData,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
	if u.AvatarURL != nil {
		out.AvatarURL = *u.AvatarURL
	}
	return out
}

func roomFromWire(r wire.Room, summary state.ReadSummaryState) state.RoomState {
	out := state.RoomState{
		Identifier:  r.ID,
		Name:        r.Name,
		CreatedByID: r.CreatedByID,
		IsPrivate:   r.Private,
		CustomData:  r.CustomData,
		ReadSummary: summary,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if r.PushNotificationTitleOverride != nil {
		out.PushNotificationTitleOverride = *r.PushNotificationTitleOverride
	}
	if r.LastMessageAt != nil {
		out.LastMessageAt = *r.LastMessageAt
	}
	return out
}

func readSummaryFromWire(rs wire.ReadState) state.ReadSummaryState {
	out := state.ReadSummaryState{UnreadCount: rs.UnreadCount}
	if rs.Cursor != nil {
		out.CursorPosition = rs.Cursor.Position
	}
	return out
}

func presenceFromWire(p wire.Presence) state.Presence {
	switch p {
	case wire.PresenceOnline:
		return state.PresenceOnline
	case wire.PresenceOffline:
		return state.PresenceOffline
	default:
		return state.PresenceUnknown
	}
}
