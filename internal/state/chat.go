package state

// ChatState is the mirrored chat model of the current user.
type ChatState struct {
	CurrentUser UserState
	JoinedRooms RoomListState
	Users       UserListState
	Memberships MembershipListState
	Presence    PresenceListState
}

// IsComplete reports whether the current user and every listed user are
// fully known.
func (c ChatState) IsComplete() bool {
	return c.CurrentUser.IsComplete() &&
		c.JoinedRooms.IsComplete() &&
		c.Users.IsComplete()
}

// Supplement fills partial users from other. Rooms, memberships and presence
// are taken from the receiver.
func (c ChatState) Supplement(other ChatState) ChatState {
	c.CurrentUser = c.CurrentUser.Supplement(other.CurrentUser)
	if c.CurrentUser.Kind == UserPartial {
		if u, ok := other.Users.Get(c.CurrentUser.Identifier); ok {
			c.CurrentUser = c.CurrentUser.Supplement(u)
		}
	}
	c.JoinedRooms = c.JoinedRooms.Supplement(other.JoinedRooms)
	c.Users = c.Users.Supplement(other.Users)
	return c
}

// Equal reports value equality.
func (c ChatState) Equal(o ChatState) bool {
	return c.CurrentUser.Equal(o.CurrentUser) &&
		c.JoinedRooms.Equal(o.JoinedRooms) &&
		c.Users.Equal(o.Users) &&
		c.Memberships.Equal(o.Memberships) &&
		c.Presence.Equal(o.Presence)
}

// MasterState is the root state reduced by the master reducer.
type MasterState struct {
	Chat      ChatState
	Auxiliary AuxiliaryState
}

// IsComplete reports whether the chat state is complete.
func (m MasterState) IsComplete() bool {
	return m.Chat.IsComplete() && m.Auxiliary.IsComplete()
}

// Supplement supplements the chat state; auxiliary state is kept.
func (m MasterState) Supplement(other MasterState) MasterState {
	m.Chat = m.Chat.Supplement(other.Chat)
	m.Auxiliary = m.Auxiliary.Supplement(other.Auxiliary)
	return m
}

// Equal reports value equality.
func (m MasterState) Equal(o MasterState) bool {
	return m.Chat.Equal(o.Chat) && m.Auxiliary.Equal(o.Auxiliary)
}
