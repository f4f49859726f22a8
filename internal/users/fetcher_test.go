package users

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/bhandras/chatkit/internal/auth"
	"github.com/bhandras/chatkit/internal/wire"
	"github.com/stretchr/testify/require"
)

func userJSON(id string) string {
	return fmt.Sprintf(`{"id":%q,"name":%q,"created_at":"2017-04-13T14:10:04Z","updated_at":"2017-04-13T14:10:04Z"}`,
		id, strings.ToUpper(id))
}

type usersServer struct {
	*httptest.Server

	mu      sync.Mutex
	queries [][]string
}

func newUsersServer(t *testing.T, known ...string) *usersServer {
	t.Helper()

	s := &usersServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/services/chatkit/v7/inst-1/users_by_ids" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		ids := r.URL.Query()["id"]
		s.mu.Lock()
		s.queries = append(s.queries, ids)
		s.mu.Unlock()

		var items []string
		for _, id := range ids {
			for _, k := range known {
				if id == k {
					items = append(items, userJSON(id))
				}
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("[" + strings.Join(items, ",") + "]"))
	}))
	t.Cleanup(s.Close)
	return s
}

func TestFetchBatchesAndDeduplicates(t *testing.T) {
	t.Parallel()

	srv := newUsersServer(t, "alice", "bob", "carol")
	f := NewFetcher(srv.URL, "inst-1", auth.Static("tok"), WithBatchSize(2))
	t.Cleanup(func() { _ = f.Close() })

	got, err := f.Fetch(context.Background(), []string{"carol", "alice", "bob", "alice", "dave"})
	require.NoError(t, err)

	ids := make([]string, 0, len(got))
	for _, u := range got {
		ids = append(ids, u.ID)
	}
	require.Equal(t, []string{"alice", "bob", "carol"}, ids)
	require.Equal(t, "ALICE", got[0].Name)

	srv.mu.Lock()
	defer srv.mu.Unlock()
	require.Equal(t, [][]string{{"alice", "bob"}, {"carol", "dave"}}, srv.queries)
}

func TestFetchNothing(t *testing.T) {
	t.Parallel()

	srv := newUsersServer(t)
	f := NewFetcher(srv.URL, "inst-1", auth.Static("tok"))
	t.Cleanup(func() { _ = f.Close() })

	got, err := f.Fetch(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, got)
	require.Empty(t, srv.queries)
}

func TestFetchErrors(t *testing.T) {
	t.Parallel()

	srv := newUsersServer(t, "alice")

	f := NewFetcher(srv.URL, "inst-1", auth.Static("wrong"))
	t.Cleanup(func() { _ = f.Close() })
	_, err := f.Fetch(context.Background(), []string{"alice"})
	require.ErrorContains(t, err, "unexpected status 401")

	f = NewFetcher(srv.URL, "inst-1", auth.Static(""))
	t.Cleanup(func() { _ = f.Close() })
	_, err = f.Fetch(context.Background(), []string{"alice"})
	require.ErrorIs(t, err, auth.ErrEmptyToken)
}

func TestFetchRejectsMalformedUsers(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"alice"}]`))
	}))
	t.Cleanup(srv.Close)

	f := NewFetcher(srv.URL, "inst-1", auth.Static("tok"))
	t.Cleanup(func() { _ = f.Close() })

	_, err := f.Fetch(context.Background(), []string{"alice"})
	require.True(t, wire.IsDecodeError(err, wire.KeyNotFound))
}
