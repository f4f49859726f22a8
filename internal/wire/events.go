package wire

import (
	"encoding/json"
	"time"
)

// EventName is the `event_name` discriminator of a subscription envelope.
type EventName string

const (
	EventInitialState     EventName = "initial_state"
	EventAddedToRoom      EventName = "added_to_room"
	EventRemovedFromRoom  EventName = "removed_from_room"
	EventRoomUpdated      EventName = "room_updated"
	EventRoomDeleted      EventName = "room_deleted"
	EventUserJoinedRoom   EventName = "user_joined_room"
	EventUserLeftRoom     EventName = "user_left_room"
	EventReadStateUpdated EventName = "read_state_updated"
	EventNewMessage       EventName = "new_message"
	EventMessageDeleted   EventName = "message_deleted"
	EventIsTyping         EventName = "is_typing"
	EventPresenceState    EventName = "presence_state"
)

// Event is a decoded subscription event. The concrete type is one of the
// event structs in this file.
type Event interface {
	// Name returns the wire event name.
	Name() EventName
	// Timestamp returns the envelope timestamp.
	Timestamp() time.Time
}

// Header carries the envelope fields shared by every event.
type Header struct {
	// At is the envelope timestamp.
	At time.Time
}

// Timestamp implements Event.
func (h Header) Timestamp() time.Time { return h.At }

// User is the full user payload embedded in events and returned by the users
// endpoint.
type User struct {
	// ID is the user identifier.
	ID string
	// Name is the display name.
	Name string
	// AvatarURL is optional.
	AvatarURL *string
	// CustomData is optional free-form JSON.
	CustomData map[string]any
	// CreatedAt is the creation time.
	CreatedAt time.Time
	// UpdatedAt is the last profile update time.
	UpdatedAt time.Time
}

// Room is the room payload.
type Room struct {
	// ID is the room identifier.
	ID string
	// CreatedByID is the identifier of the user that created the room.
	CreatedByID string
	// Name is the room name.
	Name string
	// Private reports whether the room is private.
	Private bool
	// PushNotificationTitleOverride is optional.
	PushNotificationTitleOverride *string
	// CustomData is optional free-form JSON.
	CustomData map[string]any
	// LastMessageAt is the time of the newest message, if any.
	LastMessageAt *time.Time
	// CreatedAt is the creation time.
	CreatedAt time.Time
	// UpdatedAt is the last update time.
	UpdatedAt time.Time
}

// Cursor is the read cursor of the current user in a room.
type Cursor struct {
	// Position is the identifier of the last read message.
	Position int64
}

// ReadState is the unread summary of the current user in one room.
type ReadState struct {
	// RoomID identifies the room.
	RoomID string
	// UnreadCount is the number of unread messages.
	UnreadCount int
	// Cursor is optional.
	Cursor *Cursor
}

// Membership lists the members of one room.
type Membership struct {
	// RoomID identifies the room.
	RoomID string
	// UserIDs are the member identifiers.
	UserIDs []string
}

// InitialState is the first event of a user subscription.
type InitialState struct {
	Header
	CurrentUser User
	Rooms       []Room
	ReadStates  []ReadState
	Memberships []Membership
}

// Name implements Event.
func (InitialState) Name() EventName { return EventInitialState }

// AddedToRoom is sent when the current user joins or is added to a room.
type AddedToRoom struct {
	Header
	Room       Room
	Membership Membership
	// ReadState is optional.
	ReadState *ReadState
}

// Name implements Event.
func (AddedToRoom) Name() EventName { return EventAddedToRoom }

// RemovedFromRoom is sent when the current user leaves or is removed from a
// room.
type RemovedFromRoom struct {
	Header
	RoomID string
}

// Name implements Event.
func (RemovedFromRoom) Name() EventName { return EventRemovedFromRoom }

// RoomUpdated carries the new properties of a room.
type RoomUpdated struct {
	Header
	Room Room
}

// Name implements Event.
func (RoomUpdated) Name() EventName { return EventRoomUpdated }

// RoomDeleted is sent when a joined room is deleted.
type RoomDeleted struct {
	Header
	RoomID string
}

// Name implements Event.
func (RoomDeleted) Name() EventName { return EventRoomDeleted }

// UserJoinedRoom is sent when another user joins a joined room.
type UserJoinedRoom struct {
	Header
	RoomID string
	UserID string
}

// Name implements Event.
func (UserJoinedRoom) Name() EventName { return EventUserJoinedRoom }

// UserLeftRoom is sent when another user leaves a joined room.
type UserLeftRoom struct {
	Header
	RoomID string
	UserID string
}

// Name implements Event.
func (UserLeftRoom) Name() EventName { return EventUserLeftRoom }

// ReadStateUpdated carries a new read state for one room.
type ReadStateUpdated struct {
	Header
	ReadState ReadState
}

// Name implements Event.
func (ReadStateUpdated) Name() EventName { return EventReadStateUpdated }

// NewMessage is delivered on room subscriptions.
type NewMessage struct {
	Header
	ID     int64
	UserID string
	RoomID string
	// Parts is the undecoded message body; message rendering lives outside
	// the state core.
	Parts     json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Name implements Event.
func (NewMessage) Name() EventName { return EventNewMessage }

// MessageDeleted is delivered on room subscriptions.
type MessageDeleted struct {
	Header
	MessageID int64
}

// Name implements Event.
func (MessageDeleted) Name() EventName { return EventMessageDeleted }

// IsTyping is delivered on room subscriptions.
type IsTyping struct {
	Header
	RoomID string
	UserID string
}

// Name implements Event.
func (IsTyping) Name() EventName { return EventIsTyping }

// Presence is the online status of a user.
type Presence string

const (
	PresenceOnline  Presence = "online"
	PresenceOffline Presence = "offline"
)

// PresenceState is delivered on presence subscriptions. The subject user is
// implied by the subscription.
type PresenceState struct {
	Header
	State Presence
}

// Name implements Event.
func (PresenceState) Name() EventName { return EventPresenceState }
