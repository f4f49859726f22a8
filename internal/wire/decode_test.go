package wire

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const initialStateFixture = `{
  "event_name": "initial_state",
  "timestamp": "2017-04-14T14:00:42Z",
  "data": {
    "current_user": {
      "id": "alice",
      "name": "Alice A",
      "avatar_url": "https://example.com/alice.png",
      "custom_data": {"email": "alice@example.com"},
      "created_at": "2017-03-23T11:36:42Z",
      "updated_at": "2017-03-23T11:36:42Z"
    },
    "rooms": [{
      "id": "ac43dfef",
      "created_by_id": "alice",
      "name": "mushroom",
      "private": false,
      "created_at": "2017-03-23T11:36:42Z",
      "updated_at": "2017-07-28T22:19:32Z"
    }],
    "read_states": [{
      "room_id": "ac43dfef",
      "unread_count": 3,
      "cursor": {"position": 123654}
    }],
    "memberships": []
  }
}`

func TestDecodeInitialState(t *testing.T) {
	t.Parallel()

	ev, err := Decode([]byte(initialStateFixture))
	require.NoError(t, err)

	is, ok := ev.(InitialState)
	require.True(t, ok, "got %T", ev)
	require.Equal(t, EventInitialState, is.Name())
	require.Equal(t, time.Date(2017, 4, 14, 14, 0, 42, 0, time.UTC), is.Timestamp())
	require.Equal(t, "alice", is.CurrentUser.ID)
	require.Equal(t, "alice@example.com", is.CurrentUser.CustomData["email"])
	require.Len(t, is.Rooms, 1)
	require.Equal(t, "ac43dfef", is.Rooms[0].ID)
	require.Nil(t, is.Rooms[0].LastMessageAt)
	require.Len(t, is.ReadStates, 1)
	require.Equal(t, 3, is.ReadStates[0].UnreadCount)
	require.Equal(t, int64(123654), is.ReadStates[0].Cursor.Position)
	require.Empty(t, is.Memberships)
}

func TestDecodeRoomScopedEvents(t *testing.T) {
	t.Parallel()

	ev, err := Decode([]byte(`{"event_name":"new_message","timestamp":"2017-04-14T14:00:42Z","data":{
		"id": 7, "user_id": "bob", "room_id": "r1",
		"parts": [{"type":"text/plain","content":"hi"}],
		"created_at": "2017-04-14T14:00:42.123Z", "updated_at": "2017-04-14T14:00:42.123Z"}}`))
	require.NoError(t, err)
	msg := ev.(NewMessage)
	require.Equal(t, int64(7), msg.ID)
	require.Equal(t, "bob", msg.UserID)
	require.JSONEq(t, `[{"type":"text/plain","content":"hi"}]`, string(msg.Parts))

	ev, err = Decode([]byte(`{"event_name":"is_typing","timestamp":"2017-04-14T14:00:42Z","data":{"room_id":"r1","user_id":"bob"}}`))
	require.NoError(t, err)
	require.Equal(t, IsTyping{Header: Header{At: ev.Timestamp()}, RoomID: "r1", UserID: "bob"}, ev)

	ev, err = Decode([]byte(`{"event_name":"presence_state","timestamp":"2017-04-14T14:00:42Z","data":{"state":"online"}}`))
	require.NoError(t, err)
	require.Equal(t, PresenceOnline, ev.(PresenceState).State)
}

func TestDecodeAddedToRoomOptionalReadState(t *testing.T) {
	t.Parallel()

	ev, err := Decode([]byte(`{"event_name":"added_to_room","timestamp":"2017-04-14T14:00:42Z","data":{
		"room": {"id":"r1","created_by_id":"alice","name":"r","private":true,
		         "created_at":"2017-03-23T11:36:42Z","updated_at":"2017-03-23T11:36:42Z",
		         "last_message_at":"2017-04-01T00:00:00Z"},
		"membership": {"room_id":"r1","user_ids":["alice","bob"]}}}`))
	require.NoError(t, err)
	added := ev.(AddedToRoom)
	require.Nil(t, added.ReadState)
	require.True(t, added.Room.Private)
	require.NotNil(t, added.Room.LastMessageAt)
	require.Equal(t, []string{"alice", "bob"}, added.Membership.UserIDs)
}

func TestDecodeErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		raw  string
		kind DecodeErrorKind
		path string
	}{
		{
			name: "invalid json",
			raw:  `{"event_name":`,
			kind: DataCorrupted,
		},
		{
			name: "unknown event",
			raw:  `{"event_name":"room_exploded","timestamp":"2017-04-14T14:00:42Z","data":{}}`,
			kind: DataCorrupted,
			path: "event_name",
		},
		{
			name: "missing timestamp",
			raw:  `{"event_name":"room_deleted","data":{"room_id":"r1"}}`,
			kind: KeyNotFound,
			path: "timestamp",
		},
		{
			name: "malformed timestamp",
			raw:  `{"event_name":"room_deleted","timestamp":"yesterday","data":{"room_id":"r1"}}`,
			kind: InvalidTimestamp,
			path: "timestamp",
		},
		{
			name: "event specific key",
			raw:  `{"event_name":"room_deleted","timestamp":"2017-04-14T14:00:42Z","data":{"id":"r1"}}`,
			kind: KeyNotFound,
			path: "data.room_id",
		},
		{
			name: "null where required",
			raw:  `{"event_name":"user_left_room","timestamp":"2017-04-14T14:00:42Z","data":{"room_id":"r1","user_id":null}}`,
			kind: ValueNotFound,
			path: "data.user_id",
		},
		{
			name: "type mismatch",
			raw:  `{"event_name":"read_state_updated","timestamp":"2017-04-14T14:00:42Z","data":{"read_state":{"room_id":"r1","unread_count":"3"}}}`,
			kind: TypeMismatch,
			path: "data.read_state.unread_count",
		},
		{
			name: "nested array element",
			raw: `{"event_name":"initial_state","timestamp":"2017-04-14T14:00:42Z","data":{
				"current_user":{"id":"a","name":"A","created_at":"2017-03-23T11:36:42Z","updated_at":"2017-03-23T11:36:42Z"},
				"rooms":[{"id":"r1","created_by_id":"a","name":"r","private":false,"created_at":"2017-03-23T11:36:42Z","updated_at":"nope"}],
				"read_states":[],"memberships":[]}}`,
			kind: InvalidTimestamp,
			path: "data.rooms[0].updated_at",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode([]byte(tc.raw))
			require.Error(t, err)

			var de *DecodeError
			require.ErrorAs(t, err, &de)
			require.Equal(t, tc.kind, de.Kind, de.Error())
			require.Equal(t, tc.path, de.Path)
			require.True(t, IsDecodeError(err, tc.kind))
		})
	}
}

func TestDecodeUsers(t *testing.T) {
	t.Parallel()

	users, err := DecodeUsers([]byte(`[
		{"id":"bob","name":"Bob","created_at":"2017-03-23T11:36:42Z","updated_at":"2017-03-23T11:36:42Z"},
		{"id":"carol","name":"Carol","created_at":"2017-03-23T11:36:42Z","updated_at":"2017-03-23T11:36:42Z"}
	]`))
	require.NoError(t, err)
	require.Len(t, users, 2)
	require.Equal(t, "carol", users[1].ID)

	_, err = DecodeUsers([]byte(`[{"id":"bob"}]`))
	require.True(t, IsDecodeError(err, KeyNotFound))
}
