package repository

import (
	"slices"

	"github.com/bhandras/chatkit/internal/state"
	"github.com/bhandras/chatkit/internal/store"
)

// signatureSet is a buffer.StateFilter helper answering IsSupported.
type signatureSet map[state.VersionSignature]struct{}

func signatures(sigs ...state.VersionSignature) signatureSet {
	set := make(signatureSet, len(sigs))
	for _, s := range sigs {
		set[s] = struct{}{}
	}
	return set
}

func (s signatureSet) IsSupported(sig state.VersionSignature) bool {
	_, ok := s[sig]
	return ok
}

type joinedRoomsFilter struct {
	signatureSet
}

func (joinedRoomsFilter) HasModifiedSubstate(old, new state.VersionedState) bool {
	return !old.Chat.JoinedRooms.Equal(new.Chat.JoinedRooms) ||
		old.Chat.CurrentUser.Kind != new.Chat.CurrentUser.Kind
}

func (joinedRoomsFilter) HasCompleteSubstate(s state.VersionedState) bool {
	return s.Chat.JoinedRooms.IsComplete()
}

// JoinedRooms projects the rooms of the current user, sorted by identifier.
func JoinedRooms(s *store.Store, opts ...Option) *Repository[state.RoomState] {
	return New(s, Projection[state.RoomState]{
		Name:         "joined_rooms",
		Subscription: state.UserSubscription(),
		Filter: joinedRoomsFilter{signatures(
			state.SignatureInitialState,
			state.SignatureAddedToRoom,
			state.SignatureRemovedFromRoom,
			state.SignatureRoomUpdated,
			state.SignatureRoomDeleted,
			state.SignatureReadStateUpdated,
			state.SignatureNewMessage,
		)},
		Items:    func(v state.VersionedState) []state.RoomState { return v.Chat.JoinedRooms.Rooms() },
		Identify: func(r state.RoomState) string { return r.Identifier },
		Equal:    state.RoomState.Equal,
	}, opts...)
}

// roomMembers resolves the members of a room to users, stubbing unknown
// identifiers as partial.
func roomMembers(v state.VersionedState, roomIdentifier string) []state.UserState {
	ids, _ := v.Chat.Memberships.Members(roomIdentifier)
	out := make([]state.UserState, 0, len(ids))
	for _, id := range ids {
		u, ok := v.Chat.Users.Get(id)
		if !ok {
			u = state.PartialUser(id)
		}
		out = append(out, u)
	}
	return out
}

type roomMembersFilter struct {
	signatureSet
	roomIdentifier string
}

func (f roomMembersFilter) HasModifiedSubstate(old, new state.VersionedState) bool {
	return !slices.EqualFunc(
		roomMembers(old, f.roomIdentifier),
		roomMembers(new, f.roomIdentifier),
		state.UserState.Equal,
	) || old.Chat.CurrentUser.Kind != new.Chat.CurrentUser.Kind
}

func (f roomMembersFilter) HasCompleteSubstate(s state.VersionedState) bool {
	for _, u := range roomMembers(s, f.roomIdentifier) {
		if !u.IsComplete() {
			return false
		}
	}
	return true
}

// RoomMembers projects the members of one room, sorted by identifier. A
// version is held back while any member is known only by identifier.
func RoomMembers(s *store.Store, roomIdentifier string, opts ...Option) *Repository[state.UserState] {
	return New(s, Projection[state.UserState]{
		Name:         "room_members",
		Subscription: state.UserSubscription(),
		Filter: roomMembersFilter{
			signatureSet: signatures(
				state.SignatureInitialState,
				state.SignatureAddedToRoom,
				state.SignatureRemovedFromRoom,
				state.SignatureRoomDeleted,
				state.SignatureUserJoinedRoom,
				state.SignatureUserLeftRoom,
				state.SignatureFetchedUsers,
			),
			roomIdentifier: roomIdentifier,
		},
		Items:    func(v state.VersionedState) []state.UserState { return roomMembers(v, roomIdentifier) },
		Identify: func(u state.UserState) string { return u.Identifier },
		Equal:    state.UserState.Equal,
	}, opts...)
}
