package state

import (
	"maps"
	"slices"
)

// MembershipListState maps room identifiers to the sorted identifiers of the
// room's members. The zero value is empty. Methods never mutate the receiver.
type MembershipListState struct {
	rooms map[string][]string
}

// NewMembershipList builds a list from room → member identifiers. Member
// lists are sorted and de-duplicated.
func NewMembershipList(members map[string][]string) MembershipListState {
	rooms := make(map[string][]string, len(members))
	for roomID, userIDs := range members {
		rooms[roomID] = normalizeMembers(userIDs)
	}
	return MembershipListState{rooms: rooms}
}

func normalizeMembers(userIDs []string) []string {
	out := slices.Clone(userIDs)
	slices.Sort(out)
	return slices.Compact(out)
}

// Members returns the member identifiers of a room.
func (m MembershipListState) Members(roomIdentifier string) ([]string, bool) {
	ids, ok := m.rooms[roomIdentifier]
	return ids, ok
}

// RoomIdentifiers returns the rooms with membership data, sorted.
func (m MembershipListState) RoomIdentifiers() []string {
	return slices.Sorted(maps.Keys(m.rooms))
}

// UserIdentifiers returns every member of every room, sorted and unique.
func (m MembershipListState) UserIdentifiers() []string {
	var out []string
	for _, ids := range m.rooms {
		out = append(out, ids...)
	}
	return normalizeMembers(out)
}

// WithRoom returns a copy with the members of a room replaced.
func (m MembershipListState) WithRoom(roomIdentifier string, userIDs []string) MembershipListState {
	next := normalizeMembers(userIDs)
	if cur, ok := m.rooms[roomIdentifier]; ok && slices.Equal(cur, next) {
		return m
	}
	rooms := maps.Clone(m.rooms)
	if rooms == nil {
		rooms = make(map[string][]string, 1)
	}
	rooms[roomIdentifier] = next
	return MembershipListState{rooms: rooms}
}

// WithoutRoom returns a copy without the room's membership.
func (m MembershipListState) WithoutRoom(roomIdentifier string) MembershipListState {
	if _, ok := m.rooms[roomIdentifier]; !ok {
		return m
	}
	rooms := maps.Clone(m.rooms)
	delete(rooms, roomIdentifier)
	return MembershipListState{rooms: rooms}
}

// WithMember returns a copy with userID added to the room.
func (m MembershipListState) WithMember(roomIdentifier, userID string) MembershipListState {
	cur := m.rooms[roomIdentifier]
	if _, found := slices.BinarySearch(cur, userID); found {
		return m
	}
	return m.WithRoom(roomIdentifier, append(slices.Clone(cur), userID))
}

// WithoutMember returns a copy with userID removed from the room.
func (m MembershipListState) WithoutMember(roomIdentifier, userID string) MembershipListState {
	cur, ok := m.rooms[roomIdentifier]
	if !ok {
		return m
	}
	i, found := slices.BinarySearch(cur, userID)
	if !found {
		return m
	}
	return m.WithRoom(roomIdentifier, slices.Delete(slices.Clone(cur), i, i+1))
}

// Equal reports value equality.
func (m MembershipListState) Equal(o MembershipListState) bool {
	return maps.EqualFunc(m.rooms, o.rooms, func(a, b []string) bool { return slices.Equal(a, b) })
}

// Presence is a user's online status.
type Presence int

const (
	PresenceUnknown Presence = iota
	PresenceOnline
	PresenceOffline
)

// String implements fmt.Stringer.
func (p Presence) String() string {
	switch p {
	case PresenceOnline:
		return "online"
	case PresenceOffline:
		return "offline"
	default:
		return "unknown"
	}
}

// PresenceListState maps user identifiers to presence. The zero value is
// empty. Methods never mutate the receiver.
type PresenceListState struct {
	users map[string]Presence
}

// Get returns the presence of a user, PresenceUnknown when absent.
func (p PresenceListState) Get(userIdentifier string) Presence {
	return p.users[userIdentifier]
}

// With returns a copy with the user's presence set.
func (p PresenceListState) With(userIdentifier string, presence Presence) PresenceListState {
	if cur, ok := p.users[userIdentifier]; ok && cur == presence {
		return p
	}
	users := maps.Clone(p.users)
	if users == nil {
		users = make(map[string]Presence, 1)
	}
	users[userIdentifier] = presence
	return PresenceListState{users: users}
}

// Equal reports value equality.
func (p PresenceListState) Equal(o PresenceListState) bool {
	return maps.Equal(p.users, o.users)
}
