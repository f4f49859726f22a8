package state

import (
	"maps"
	"slices"
	"time"
)

// ReadSummaryState is the current user's unread summary for one room. It has
// no partial form.
type ReadSummaryState struct {
	UnreadCount int
	// CursorPosition is the last read message identifier, 0 when unknown.
	CursorPosition int64
}

// IsComplete always returns true.
func (ReadSummaryState) IsComplete() bool { return true }

// Supplement returns the receiver unchanged.
func (r ReadSummaryState) Supplement(ReadSummaryState) ReadSummaryState { return r }

// RoomState is an immutable room snapshot. Rooms are always fully populated.
type RoomState struct {
	Identifier                    string
	Name                          string
	CreatedByID                   string
	IsPrivate                     bool
	PushNotificationTitleOverride string
	CustomData                    map[string]any
	// LastMessageAt is zero when the room has no messages.
	LastMessageAt time.Time
	ReadSummary   ReadSummaryState
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsComplete always returns true.
func (RoomState) IsComplete() bool { return true }

// Supplement returns the receiver unchanged.
func (r RoomState) Supplement(RoomState) RoomState { return r }

// Equal reports value equality.
func (r RoomState) Equal(o RoomState) bool {
	return r.Identifier == o.Identifier &&
		r.Name == o.Name &&
		r.CreatedByID == o.CreatedByID &&
		r.IsPrivate == o.IsPrivate &&
		r.PushNotificationTitleOverride == o.PushNotificationTitleOverride &&
		r.LastMessageAt.Equal(o.LastMessageAt) &&
		r.ReadSummary == o.ReadSummary &&
		r.CreatedAt.Equal(o.CreatedAt) &&
		r.UpdatedAt.Equal(o.UpdatedAt) &&
		customDataEqual(r.CustomData, o.CustomData)
}

// RoomListState maps room identifiers to rooms. The zero value is an empty
// list. Methods never mutate the receiver.
type RoomListState struct {
	elements map[string]RoomState
}

// NewRoomList builds a list from rooms.
func NewRoomList(rooms ...RoomState) RoomListState {
	elements := make(map[string]RoomState, len(rooms))
	for _, r := range rooms {
		elements[r.Identifier] = r
	}
	return RoomListState{elements: elements}
}

// Len returns the number of rooms.
func (l RoomListState) Len() int { return len(l.elements) }

// Get returns the room with the given identifier.
func (l RoomListState) Get(identifier string) (RoomState, bool) {
	r, ok := l.elements[identifier]
	return r, ok
}

// Contains reports whether the room is present.
func (l RoomListState) Contains(identifier string) bool {
	_, ok := l.elements[identifier]
	return ok
}

// Identifiers returns all identifiers in sorted order.
func (l RoomListState) Identifiers() []string {
	return slices.Sorted(maps.Keys(l.elements))
}

// Rooms returns all rooms sorted by identifier.
func (l RoomListState) Rooms() []RoomState {
	out := make([]RoomState, 0, len(l.elements))
	for _, id := range l.Identifiers() {
		out = append(out, l.elements[id])
	}
	return out
}

// With returns a copy with r inserted or replaced. The receiver is returned
// when r is already present with equal values.
func (l RoomListState) With(r RoomState) RoomListState {
	if cur, ok := l.elements[r.Identifier]; ok && cur.Equal(r) {
		return l
	}
	elements := maps.Clone(l.elements)
	if elements == nil {
		elements = make(map[string]RoomState, 1)
	}
	elements[r.Identifier] = r
	return RoomListState{elements: elements}
}

// Without returns a copy without the given identifier. The receiver is
// returned when the identifier is absent.
func (l RoomListState) Without(identifier string) RoomListState {
	if _, ok := l.elements[identifier]; !ok {
		return l
	}
	elements := maps.Clone(l.elements)
	delete(elements, identifier)
	return RoomListState{elements: elements}
}

// IsComplete always returns true; rooms have no partial form.
func (RoomListState) IsComplete() bool { return true }

// Supplement returns the receiver unchanged.
func (l RoomListState) Supplement(RoomListState) RoomListState { return l }

// Equal reports value equality.
func (l RoomListState) Equal(o RoomListState) bool {
	return maps.EqualFunc(l.elements, o.elements, RoomState.Equal)
}
