package state

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2017, 3, 23, 11, 36, 42, 0, time.UTC)

func populated(id, name string) UserState {
	return UserState{
		Kind:       UserPopulated,
		Identifier: id,
		Name:       name,
		CreatedAt:  epoch,
		UpdatedAt:  epoch,
	}
}

func TestUserSupplementOnlyFillsPartial(t *testing.T) {
	t.Parallel()

	bob := populated("bob", "Bob")
	require.Equal(t, bob, PartialUser("bob").Supplement(bob))

	// Mismatched identifiers never merge.
	require.Equal(t, PartialUser("bob"), PartialUser("bob").Supplement(populated("carol", "Carol")))

	// A complete user is never overwritten, not even by a newer profile.
	renamed := populated("bob", "Robert")
	require.Equal(t, bob, bob.Supplement(renamed))

	require.Equal(t, EmptyUser(), EmptyUser().Supplement(bob))
	require.True(t, EmptyUser().IsComplete())
	require.False(t, PartialUser("bob").IsComplete())
}

func TestUserListSupplement(t *testing.T) {
	t.Parallel()

	alice := populated("alice", "Alice")
	a := NewUserList(alice, PartialUser("bob"), PartialUser("carol"))
	b := NewUserList(populated("alice", "Alice (stale)"), populated("bob", "Bob"), populated("dave", "Dave"))

	got := a.Supplement(b)

	require.False(t, a.IsComplete())
	require.Equal(t, 3, got.Len(), "entries only in the supplement are not added")
	u, _ := got.Get("alice")
	require.Equal(t, "Alice", u.Name, "complete entries are never regressed")
	u, _ = got.Get("bob")
	require.Equal(t, UserPopulated, u.Kind)
	require.Equal(t, []string{"carol"}, got.PartialIdentifiers())

	require.True(t, got.Supplement(b).Equal(got), "supplement is idempotent")

	// The receiver is left untouched.
	u, _ = a.Get("bob")
	require.Equal(t, UserPartial, u.Kind)
}

func TestChatStateSupplementAndCompleteness(t *testing.T) {
	t.Parallel()

	incomplete := ChatState{
		CurrentUser: PartialUser("alice"),
		Users:       NewUserList(PartialUser("alice"), PartialUser("bob")),
		JoinedRooms: NewRoomList(RoomState{Identifier: "r1", Name: "one"}),
	}
	complete := ChatState{
		CurrentUser: populated("alice", "Alice"),
		Users:       NewUserList(populated("alice", "Alice"), populated("bob", "Bob")),
		JoinedRooms: NewRoomList(RoomState{Identifier: "r1", Name: "renamed"}),
	}

	require.False(t, incomplete.IsComplete())
	got := incomplete.Supplement(complete)
	require.True(t, got.IsComplete())

	room, _ := got.JoinedRooms.Get("r1")
	require.Equal(t, "one", room.Name, "rooms are never supplemented")
	require.True(t, got.Supplement(complete).Equal(got))
}

func TestVersionedSupplementKeepsVersionAndAuxiliary(t *testing.T) {
	t.Parallel()

	aux := AuxiliaryState{}.With(UserSubscription(), Connected())
	v5 := VersionedState{
		Chat:      ChatState{Users: NewUserList(PartialUser("bob"))},
		Auxiliary: aux,
		Version:   5,
		Signature: SignatureUserJoinedRoom,
	}
	v6 := VersionedState{
		Chat:      ChatState{Users: NewUserList(populated("bob", "Bob"))},
		Auxiliary: AuxiliaryState{}.With(UserSubscription(), Degraded(errors.New("boom"))),
		Version:   6,
		Signature: SignatureFetchedUsers,
	}

	got := v5.Supplement(v6)
	require.Equal(t, uint64(5), got.Version)
	require.Equal(t, SignatureUserJoinedRoom, got.Signature)
	require.True(t, got.Auxiliary.Equal(aux))
	require.True(t, got.IsComplete())
}

func TestMembershipList(t *testing.T) {
	t.Parallel()

	m := NewMembershipList(map[string][]string{"r1": {"carol", "alice", "alice"}})
	ids, ok := m.Members("r1")
	require.True(t, ok)
	require.Equal(t, []string{"alice", "carol"}, ids)

	added := m.WithMember("r1", "bob")
	ids, _ = added.Members("r1")
	require.Equal(t, []string{"alice", "bob", "carol"}, ids)
	require.True(t, added.WithMember("r1", "bob").Equal(added))

	removed := added.WithoutMember("r1", "alice")
	ids, _ = removed.Members("r1")
	require.Equal(t, []string{"bob", "carol"}, ids)
	require.True(t, removed.WithoutMember("r1", "zed").Equal(removed))

	require.Equal(t, []string{"alice", "bob", "carol"}, added.UserIdentifiers())
	require.Empty(t, added.WithoutRoom("r1").RoomIdentifiers())

	// Original untouched.
	ids, _ = m.Members("r1")
	require.Equal(t, []string{"alice", "carol"}, ids)
}

func TestConnectionStateEquality(t *testing.T) {
	t.Parallel()

	require.True(t, Degraded(errors.New("x")).Equal(Degraded(errors.New("x"))))
	require.False(t, Degraded(errors.New("x")).Equal(Degraded(errors.New("y"))))
	require.False(t, Initializing(nil).Equal(Initializing(errors.New("y"))))
	require.True(t, Connected().Supplement(Closed(nil)).Equal(Connected()))
	require.Equal(t, "degraded(x)", Degraded(errors.New("x")).String())

	aux := AuxiliaryState{}.With(RoomSubscription("r1"), Connected())
	require.Equal(t, 1, aux.Len())
	require.Equal(t, aux, aux.With(RoomSubscription("r1"), Connected()))
	require.Equal(t, 0, aux.Without(RoomSubscription("r1")).Len())
	require.Equal(t, "room(r1)", RoomSubscription("r1").String())
}
