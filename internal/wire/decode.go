package wire

import (
	"encoding/json"
	"fmt"
)

// Decode parses one subscription envelope `{event_name, timestamp, data}` into
// a typed Event. Failures are *DecodeError values naming the offending field.
func Decode(raw []byte) (Event, error) {
	if !json.Valid(raw) {
		return nil, newDecodeError(DataCorrupted, "", fmt.Errorf("invalid JSON"))
	}
	env, err := parseObject(raw, "")
	if err != nil {
		return nil, err
	}
	name, err := env.string("event_name")
	if err != nil {
		return nil, err
	}
	at, err := env.timestamp("timestamp")
	if err != nil {
		return nil, err
	}
	data, err := env.object("data")
	if err != nil {
		return nil, err
	}
	header := Header{At: at}

	switch EventName(name) {
	case EventInitialState:
		return decodeInitialState(header, data)
	case EventAddedToRoom:
		return decodeAddedToRoom(header, data)
	case EventRemovedFromRoom:
		roomID, err := data.string("room_id")
		if err != nil {
			return nil, err
		}
		return RemovedFromRoom{Header: header, RoomID: roomID}, nil
	case EventRoomUpdated:
		obj, err := data.object("room")
		if err != nil {
			return nil, err
		}
		room, err := decodeRoom(obj)
		if err != nil {
			return nil, err
		}
		return RoomUpdated{Header: header, Room: room}, nil
	case EventRoomDeleted:
		roomID, err := data.string("room_id")
		if err != nil {
			return nil, err
		}
		return RoomDeleted{Header: header, RoomID: roomID}, nil
	case EventUserJoinedRoom:
		roomID, userID, err := roomAndUser(data)
		if err != nil {
			return nil, err
		}
		return UserJoinedRoom{Header: header, RoomID: roomID, UserID: userID}, nil
	case EventUserLeftRoom:
		roomID, userID, err := roomAndUser(data)
		if err != nil {
			return nil, err
		}
		return UserLeftRoom{Header: header, RoomID: roomID, UserID: userID}, nil
	case EventReadStateUpdated:
		obj, err := data.object("read_state")
		if err != nil {
			return nil, err
		}
		rs, err := decodeReadState(obj)
		if err != nil {
			return nil, err
		}
		return ReadStateUpdated{Header: header, ReadState: rs}, nil
	case EventNewMessage:
		return decodeNewMessage(header, data)
	case EventMessageDeleted:
		id, err := data.int64("message_id")
		if err != nil {
			return nil, err
		}
		return MessageDeleted{Header: header, MessageID: id}, nil
	case EventIsTyping:
		roomID, userID, err := roomAndUser(data)
		if err != nil {
			return nil, err
		}
		return IsTyping{Header: header, RoomID: roomID, UserID: userID}, nil
	case EventPresenceState:
		s, err := data.string("state")
		if err != nil {
			return nil, err
		}
		p := Presence(s)
		if p != PresenceOnline && p != PresenceOffline {
			return nil, newDecodeError(DataCorrupted, data.child("state"), fmt.Errorf("unknown presence %q", s))
		}
		return PresenceState{Header: header, State: p}, nil
	default:
		return nil, newDecodeError(DataCorrupted, "event_name", fmt.Errorf("%w: %q", ErrUnknownEvent, name))
	}
}

// DecodeUser parses a standalone user payload, as returned by the users
// endpoint.
func DecodeUser(raw []byte) (User, error) {
	obj, err := parseObject(raw, "")
	if err != nil {
		return User{}, err
	}
	return decodeUser(obj)
}

// DecodeUsers parses a JSON array of user payloads.
func DecodeUsers(raw []byte) ([]User, error) {
	var items []json.RawMessage
	if err := decodeValue(raw, "", &items); err != nil {
		return nil, err
	}
	users := make([]User, 0, len(items))
	for i, item := range items {
		obj, err := parseObject(item, indexPath("", i))
		if err != nil {
			return nil, err
		}
		u, err := decodeUser(obj)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

func (o object) int64(key string) (int64, error) {
	raw, err := o.raw(key)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := decodeValue(raw, o.child(key), &n); err != nil {
		return 0, err
	}
	return n, nil
}

func roomAndUser(data object) (string, string, error) {
	roomID, err := data.string("room_id")
	if err != nil {
		return "", "", err
	}
	userID, err := data.string("user_id")
	if err != nil {
		return "", "", err
	}
	return roomID, userID, nil
}

func decodeInitialState(header Header, data object) (InitialState, error) {
	userObj, err := data.object("current_user")
	if err != nil {
		return InitialState{}, err
	}
	user, err := decodeUser(userObj)
	if err != nil {
		return InitialState{}, err
	}

	rooms, err := decodeList(data, "rooms", decodeRoom)
	if err != nil {
		return InitialState{}, err
	}
	readStates, err := decodeList(data, "read_states", decodeReadState)
	if err != nil {
		return InitialState{}, err
	}
	memberships, err := decodeList(data, "memberships", decodeMembership)
	if err != nil {
		return InitialState{}, err
	}

	return InitialState{
		Header:      header,
		CurrentUser: user,
		Rooms:       rooms,
		ReadStates:  readStates,
		Memberships: memberships,
	}, nil
}

func decodeAddedToRoom(header Header, data object) (AddedToRoom, error) {
	roomObj, err := data.object("room")
	if err != nil {
		return AddedToRoom{}, err
	}
	room, err := decodeRoom(roomObj)
	if err != nil {
		return AddedToRoom{}, err
	}
	membershipObj, err := data.object("membership")
	if err != nil {
		return AddedToRoom{}, err
	}
	membership, err := decodeMembership(membershipObj)
	if err != nil {
		return AddedToRoom{}, err
	}

	ev := AddedToRoom{Header: header, Room: room, Membership: membership}
	rsObj, ok, err := data.optionalObject("read_state")
	if err != nil {
		return AddedToRoom{}, err
	}
	if ok {
		rs, err := decodeReadState(rsObj)
		if err != nil {
			return AddedToRoom{}, err
		}
		ev.ReadState = &rs
	}
	return ev, nil
}

func decodeNewMessage(header Header, data object) (NewMessage, error) {
	id, err := data.int64("id")
	if err != nil {
		return NewMessage{}, err
	}
	roomID, userID, err := roomAndUser(data)
	if err != nil {
		return NewMessage{}, err
	}
	parts, _, err := data.array("parts")
	if err != nil {
		return NewMessage{}, err
	}
	rawParts, err := json.Marshal(parts)
	if err != nil {
		return NewMessage{}, newDecodeError(DataCorrupted, data.child("parts"), err)
	}
	createdAt, err := data.timestamp("created_at")
	if err != nil {
		return NewMessage{}, err
	}
	updatedAt, err := data.timestamp("updated_at")
	if err != nil {
		return NewMessage{}, err
	}
	return NewMessage{
		Header:    header,
		ID:        id,
		UserID:    userID,
		RoomID:    roomID,
		Parts:     rawParts,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}

// decodeList decodes a required array of objects with the given element
// decoder.
func decodeList[T any](parent object, key string, decode func(object) (T, error)) ([]T, error) {
	items, path, err := parent.array(key)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(items))
	for i, item := range items {
		obj, err := parseObject(item, indexPath(path, i))
		if err != nil {
			return nil, err
		}
		v, err := decode(obj)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func decodeUser(obj object) (User, error) {
	var (
		u   User
		err error
	)
	if u.ID, err = obj.string("id"); err != nil {
		return User{}, err
	}
	if u.Name, err = obj.string("name"); err != nil {
		return User{}, err
	}
	if u.AvatarURL, err = obj.optionalString("avatar_url"); err != nil {
		return User{}, err
	}
	if u.CustomData, err = obj.customData("custom_data"); err != nil {
		return User{}, err
	}
	if u.CreatedAt, err = obj.timestamp("created_at"); err != nil {
		return User{}, err
	}
	if u.UpdatedAt, err = obj.timestamp("updated_at"); err != nil {
		return User{}, err
	}
	return u, nil
}

func decodeRoom(obj object) (Room, error) {
	var (
		r   Room
		err error
	)
	if r.ID, err = obj.string("id"); err != nil {
		return Room{}, err
	}
	if r.CreatedByID, err = obj.string("created_by_id"); err != nil {
		return Room{}, err
	}
	if r.Name, err = obj.string("name"); err != nil {
		return Room{}, err
	}
	if r.Private, err = obj.bool("private"); err != nil {
		return Room{}, err
	}
	if r.PushNotificationTitleOverride, err = obj.optionalString("push_notification_title_override"); err != nil {
		return Room{}, err
	}
	if r.CustomData, err = obj.customData("custom_data"); err != nil {
		return Room{}, err
	}
	if r.LastMessageAt, err = obj.optionalTimestamp("last_message_at"); err != nil {
		return Room{}, err
	}
	if r.CreatedAt, err = obj.timestamp("created_at"); err != nil {
		return Room{}, err
	}
	if r.UpdatedAt, err = obj.timestamp("updated_at"); err != nil {
		return Room{}, err
	}
	return r, nil
}

func decodeReadState(obj object) (ReadState, error) {
	var (
		rs  ReadState
		err error
	)
	if rs.RoomID, err = obj.string("room_id"); err != nil {
		return ReadState{}, err
	}
	if rs.UnreadCount, err = obj.int("unread_count"); err != nil {
		return ReadState{}, err
	}
	cursorObj, ok, err := obj.optionalObject("cursor")
	if err != nil {
		return ReadState{}, err
	}
	if ok {
		pos, err := cursorObj.int64("position")
		if err != nil {
			return ReadState{}, err
		}
		rs.Cursor = &Cursor{Position: pos}
	}
	return rs, nil
}

func decodeMembership(obj object) (Membership, error) {
	roomID, err := obj.string("room_id")
	if err != nil {
		return Membership{}, err
	}
	userIDs, err := obj.stringArray("user_ids")
	if err != nil {
		return Membership{}, err
	}
	return Membership{RoomID: roomID, UserIDs: userIDs}, nil
}
