package store

import (
	"sync"
	"testing"

	"github.com/bhandras/chatkit/internal/action"
	"github.com/bhandras/chatkit/internal/metrics"
	"github.com/bhandras/chatkit/internal/reducer"
	"github.com/bhandras/chatkit/internal/state"
	"github.com/bhandras/chatkit/internal/wire"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

type futureAction struct{ action.Base }

func addedToRoom(id string) action.Action {
	return action.AddedToRoom{Event: wire.AddedToRoom{
		Room:       wire.Room{ID: id, Name: id},
		Membership: wire.Membership{RoomID: id, UserIDs: []string{"alice"}},
	}}
}

func TestDispatchAssignsVersionAndSignature(t *testing.T) {
	t.Parallel()

	s := New()
	var got []state.VersionedState
	current, cancel := s.Subscribe(func(v state.VersionedState) { got = append(got, v) })
	defer cancel()
	require.Equal(t, uint64(0), current.Version)

	require.True(t, s.Dispatch(addedToRoom("first-room")))
	require.True(t, s.Dispatch(action.RoomDeleted{Event: wire.RoomDeleted{RoomID: "first-room"}}))

	require.Len(t, got, 2)
	require.Equal(t, uint64(1), got[0].Version)
	require.Equal(t, state.SignatureAddedToRoom, got[0].Signature)
	require.True(t, got[0].Chat.JoinedRooms.Contains("first-room"))
	require.Equal(t, uint64(2), got[1].Version)
	require.Equal(t, state.SignatureRoomDeleted, got[1].Signature)
	require.Equal(t, 0, got[1].Chat.JoinedRooms.Len())
	require.True(t, s.State().Equal(got[1]))
}

func TestDispatchIgnoresUnsupportedAction(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	var unsupported int
	s := New(WithMetrics(m), WithHooks(Hooks{
		OnUnsupported: func(action.Action) { unsupported++ },
	}))
	require.True(t, s.Dispatch(addedToRoom("first-room")))
	before := s.State()

	var notified bool
	_, cancel := s.Subscribe(func(state.VersionedState) { notified = true })
	defer cancel()

	require.False(t, s.Dispatch(futureAction{}))
	require.False(t, s.Dispatch(nil))
	require.False(t, notified)
	require.Equal(t, 1, unsupported)
	require.True(t, s.State().Equal(before))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Unsupported))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Dispatched.WithLabelValues("addedToRoom")))
}

func TestSubscribeCancel(t *testing.T) {
	t.Parallel()

	s := New()
	var a, b int
	_, cancelA := s.Subscribe(func(state.VersionedState) { a++ })
	_, cancelB := s.Subscribe(func(state.VersionedState) { b++ })
	defer cancelB()

	s.Dispatch(addedToRoom("r1"))
	cancelA()
	cancelA()
	s.Dispatch(addedToRoom("r2"))

	require.Equal(t, 1, a)
	require.Equal(t, 2, b)
}

func TestDispatchUsesInjectedDependencies(t *testing.T) {
	t.Parallel()

	deps := reducer.DefaultDependencies()
	deps.Chat = func(action.Action, state.ChatState, reducer.Dependencies) state.ChatState {
		return state.ChatState{JoinedRooms: state.NewRoomList(state.RoomState{Identifier: "stub"})}
	}

	var transitions int
	s := New(WithDependencies(deps), WithHooks(Hooks{
		OnTransition: func(prev, next state.VersionedState, _ action.Action) {
			transitions++
			require.Equal(t, prev.Version+1, next.Version)
		},
	}))
	s.Dispatch(addedToRoom("first-room"))

	require.Equal(t, 1, transitions)
	require.True(t, s.State().Chat.JoinedRooms.Contains("stub"))
	require.False(t, s.State().Chat.JoinedRooms.Contains("first-room"))
}

func TestConcurrentDispatchNeverGaps(t *testing.T) {
	t.Parallel()

	s := New()
	var (
		mu       sync.Mutex
		versions []uint64
	)
	_, cancel := s.Subscribe(func(v state.VersionedState) {
		mu.Lock()
		versions = append(versions, v.Version)
		mu.Unlock()
	})
	defer cancel()

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Dispatch(action.IsTyping{Event: wire.IsTyping{RoomID: "r", UserID: "u"}})
		}()
	}
	wg.Wait()

	require.Len(t, versions, n)
	for i, v := range versions {
		require.Equal(t, uint64(i+1), v)
	}
}
