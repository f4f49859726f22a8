package sdk

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bhandras/chatkit/internal/repository"
	"github.com/bhandras/chatkit/internal/state"
	"github.com/bhandras/chatkit/internal/subscription"
	"github.com/bhandras/chatkit/internal/subscription/subscriptiontest"
	"github.com/bhandras/chatkit/internal/wire"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

const initialStateJSON = `{
  "event_name": "initial_state",
  "timestamp": "2017-04-14T14:00:42Z",
  "data": {
    "current_user": {
      "id": "alice",
      "name": "Alice A",
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
    "read_states": [{"room_id": "ac43dfef", "unread_count": 3}],
    "memberships": [{"room_id": "ac43dfef", "user_ids": ["alice", "bob"]}]
  }
}`

const (
	isTypingJSON   = `{"event_name":"is_typing","timestamp":"2017-04-14T14:00:42Z","data":{"room_id":"ac43dfef","user_id":"bob"}}`
	carolJoinsJSON = `{"event_name":"user_joined_room","timestamp":"2017-04-14T14:00:42Z","data":{"room_id":"ac43dfef","user_id":"carol"}}`
)

type fakeFetcher struct {
	mu    sync.Mutex
	known map[string]wire.User
	calls [][]string
	err   error
}

func newFakeFetcher(ids ...string) *fakeFetcher {
	f := &fakeFetcher{known: make(map[string]wire.User)}
	at := time.Date(2017, 3, 23, 11, 36, 42, 0, time.UTC)
	for _, id := range ids {
		f.known[id] = wire.User{ID: id, Name: id, CreatedAt: at, UpdatedAt: at}
	}
	return f
}

func (f *fakeFetcher) Fetch(_ context.Context, ids []string) ([]wire.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, ids)
	if f.err != nil {
		return nil, f.err
	}
	var out []wire.User
	for _, id := range ids {
		if u, ok := f.known[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeFetcher) Calls() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]string(nil), f.calls...)
}

type errorLog struct {
	mu   sync.Mutex
	errs []error
}

func (l *errorLog) handle(_ state.SubscriptionType, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errs = append(l.errs, err)
}

func (l *errorLog) all() []error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]error(nil), l.errs...)
}

func newTestClient(t *testing.T, fetcher UserFetcher, opts ...Option) (*Client, *subscriptiontest.FakeFactory) {
	t.Helper()

	factory := &subscriptiontest.FakeFactory{}
	c := New(factory, fetcher, opts...)
	t.Cleanup(func() { require.NoError(t, c.Close()) })
	return c, factory
}

func userConnection(t *testing.T, c *Client) state.ConnectionState {
	t.Helper()

	c.dispatch.flush()
	cs, ok := c.State().Auxiliary.Get(state.UserSubscription())
	require.True(t, ok)
	return cs
}

func TestClientConnectsAndResolvesMembers(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	fetcher := newFakeFetcher("bob")
	c, factory := newTestClient(t, fetcher, WithRegisterer(reg))

	rooms := c.JoinedRooms()
	require.Same(t, rooms, c.JoinedRooms())
	require.Equal(t, repository.Initializing, rooms.State().Kind)

	var done subscriptiontest.Completions
	c.Connect(done.Func())
	require.Equal(t, state.Initializing(nil), userConnection(t, c))

	factory.Instance(state.UserSubscription()).Emit([]byte(initialStateJSON))
	require.Equal(t, []error{nil}, done.Results())
	require.Equal(t, state.ConnectionConnected, userConnection(t, c).Kind)

	got := rooms.State()
	require.Equal(t, repository.Connected, got.Kind)
	require.Len(t, got.Items, 1)
	require.Equal(t, "ac43dfef", got.Items[0].Identifier)
	require.Equal(t, 3, got.Items[0].ReadSummary.UnreadCount)

	members := c.RoomMembers("ac43dfef")
	t.Cleanup(members.Stop)
	require.Eventually(t, func() bool {
		s := members.State()
		if s.Kind != repository.Connected || len(s.Items) != 2 {
			return false
		}
		return s.Items[0].IsComplete() && s.Items[1].IsComplete()
	}, 5*time.Second, 10*time.Millisecond)

	require.Equal(t, [][]string{{"bob"}}, fetcher.Calls())
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(c.metrics.UsersFetched) == 1
	}, 5*time.Second, 10*time.Millisecond)
}

func TestClientConnectionFollowsSubscriptionErrors(t *testing.T) {
	t.Parallel()

	var log errorLog
	c, factory := newTestClient(t, nil, WithErrorHandler(log.handle))
	rooms := c.JoinedRooms()

	c.Connect(nil)
	inst := factory.Instance(state.UserSubscription())
	inst.Emit([]byte(initialStateJSON))
	require.Equal(t, state.ConnectionConnected, userConnection(t, c).Kind)

	errDrop := errors.New("connection dropped")
	inst.Fail(errDrop)
	require.Equal(t, state.Degraded(errDrop), userConnection(t, c))

	degraded := rooms.State()
	require.Equal(t, repository.Degraded, degraded.Kind)
	require.Len(t, degraded.Items, 1)
	require.ErrorIs(t, degraded.Err, errDrop)

	// The stream resumed.
	inst.Emit([]byte(isTypingJSON))
	require.Equal(t, state.Connected(), userConnection(t, c))
	require.Equal(t, repository.Connected, rooms.State().Kind)

	inst.End()
	cs := userConnection(t, c)
	require.Equal(t, state.ConnectionClosed, cs.Kind)
	require.ErrorIs(t, cs.Err, subscription.ErrEndWhileSubscribed)
	require.Equal(t, repository.Closed, rooms.State().Kind)

	errs := log.all()
	require.Len(t, errs, 2)
	require.ErrorIs(t, errs[0], errDrop)
	require.ErrorIs(t, errs[1], subscription.ErrEndWhileSubscribed)
}

func TestClientHandshakeFailure(t *testing.T) {
	t.Parallel()

	var log errorLog
	factory := &subscriptiontest.FakeFactory{Err: errors.New("no route")}
	c := New(factory, nil, WithErrorHandler(log.handle))
	t.Cleanup(func() { require.NoError(t, c.Close()) })

	var done subscriptiontest.Completions
	c.Connect(done.Func())

	require.Len(t, done.Results(), 1)
	require.ErrorContains(t, done.Results()[0], "no route")

	cs := userConnection(t, c)
	require.Equal(t, state.ConnectionInitializing, cs.Kind)
	require.ErrorContains(t, cs.Err, "no route")
	require.Len(t, log.all(), 1)

	rooms := c.JoinedRooms()
	require.Equal(t, repository.Initializing, rooms.State().Kind)
	require.ErrorContains(t, rooms.State().Err, "no route")

	// Retrying clears the failure.
	factory.Err = nil
	c.Connect(nil)
	require.Equal(t, state.Initializing(nil), userConnection(t, c))
}

func TestClientDisconnectWhileSubscribing(t *testing.T) {
	t.Parallel()

	var log errorLog
	c, _ := newTestClient(t, nil, WithErrorHandler(log.handle))

	var done subscriptiontest.Completions
	c.Connect(done.Func())
	c.SubscribeToRoom("ac43dfef", nil)
	c.Disconnect()

	results := done.Results()
	require.Len(t, results, 1)
	require.ErrorIs(t, results[0], subscription.ErrUnsubscribeWhileSubscribing)
	require.Equal(t, state.Closed(nil), userConnection(t, c))

	cs, ok := c.State().Auxiliary.Get(state.RoomSubscription("ac43dfef"))
	require.True(t, ok)
	require.Equal(t, state.Closed(nil), cs)
	require.Empty(t, log.all())
}

func TestClientReportsUndecodableEvents(t *testing.T) {
	t.Parallel()

	var log errorLog
	c, factory := newTestClient(t, nil, WithErrorHandler(log.handle))

	c.SubscribeToPresence("bob", nil)
	factory.Instance(state.PresenceSubscription("bob")).Emit([]byte(`{"event_name":"presence_state"}`))
	c.dispatch.flush()

	errs := log.all()
	require.Len(t, errs, 1)
	require.True(t, wire.IsDecodeError(errs[0], wire.KeyNotFound))
	require.Zero(t, c.State().Chat.Presence.Get("bob"))

	factory.Instance(state.PresenceSubscription("bob")).Emit(
		[]byte(`{"event_name":"presence_state","timestamp":"2017-04-14T14:00:42Z","data":{"state":"online"}}`))
	c.dispatch.flush()
	require.Equal(t, state.PresenceOnline, c.State().Chat.Presence.Get("bob"))
}

func TestClientDoesNotRefetchUnknownUsers(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher("carol")
	c, factory := newTestClient(t, fetcher)

	c.Connect(nil)
	inst := factory.Instance(state.UserSubscription())
	inst.Emit([]byte(initialStateJSON))

	// bob is unknown to the server.
	require.Eventually(t, func() bool { return len(fetcher.Calls()) == 1 },
		5*time.Second, 10*time.Millisecond)
	c.dispatch.flush()

	inst.Emit([]byte(carolJoinsJSON))
	require.Eventually(t, func() bool {
		c.dispatch.flush()
		u, ok := c.State().Chat.Users.Get("carol")
		return ok && u.IsComplete()
	}, 5*time.Second, 10*time.Millisecond)

	require.Equal(t, [][]string{{"bob"}, {"carol"}}, fetcher.Calls())
	bob, ok := c.State().Chat.Users.Get("bob")
	require.True(t, ok)
	require.False(t, bob.IsComplete())
}

func TestClientCloseIsIdempotent(t *testing.T) {
	t.Parallel()

	c := New(&subscriptiontest.FakeFactory{}, newFakeFetcher())
	c.Connect(nil)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	// Work after Close is dropped.
	c.Unsubscribe(state.UserSubscription())
}
