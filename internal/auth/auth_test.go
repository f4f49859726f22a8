package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func mintToken(t *testing.T, exp time.Time) string {
	t.Helper()

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tok
}

func TestStatic(t *testing.T) {
	t.Parallel()

	tok, err := Static("abc").Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, "abc", tok)

	_, err = Static(" ").Token(context.Background())
	require.ErrorIs(t, err, ErrEmptyToken)
}

func TestExpiresAt(t *testing.T) {
	t.Parallel()

	exp := time.Unix(1_900_000_000, 0)
	got, ok := ExpiresAt(mintToken(t, exp))
	require.True(t, ok)
	require.True(t, exp.Equal(got))

	_, ok = ExpiresAt("not-a-jwt")
	require.False(t, ok)
}

func TestExpiringSoon(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_800_000_000, 0)
	tok := mintToken(t, now.Add(30*time.Second))

	soon, err := ExpiringSoon(tok, now, time.Minute)
	require.NoError(t, err)
	require.True(t, soon)

	soon, err = ExpiringSoon(tok, now, 10*time.Second)
	require.NoError(t, err)
	require.False(t, soon)

	soon, err = ExpiringSoon("opaque", now, time.Minute)
	require.NoError(t, err)
	require.False(t, soon)

	_, err = ExpiringSoon("", now, time.Minute)
	require.ErrorIs(t, err, ErrEmptyToken)
}

type tokenServer struct {
	*httptest.Server
	hits atomic.Int32
}

func newTokenServer(t *testing.T, token func() string) *tokenServer {
	t.Helper()

	ts := &tokenServer{}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts.hits.Add(1)
		if r.Method != http.MethodPost || r.FormValue("user_id") != "alice" ||
			r.FormValue("grant_type") != "client_credentials" {

			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"` + token() + `","expires_in":3600}`))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestHTTPProviderCachesUntilRefreshWindow(t *testing.T) {
	t.Parallel()

	now := time.Now()
	tok := mintToken(t, now.Add(10*time.Minute))
	srv := newTokenServer(t, func() string { return tok })

	clock := now
	p := NewHTTPProvider(srv.URL, "alice", WithClock(func() time.Time { return clock }))
	t.Cleanup(func() { _ = p.Close() })

	got, err := p.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, tok, got)

	_, err = p.Token(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 1, srv.hits.Load())

	// Inside the refresh window a new token is fetched.
	clock = now.Add(9*time.Minute + 30*time.Second)
	_, err = p.Token(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 2, srv.hits.Load())

	p.Invalidate()
	_, err = p.Token(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 3, srv.hits.Load())
}

func TestHTTPProviderFallsBackToExpiresIn(t *testing.T) {
	t.Parallel()

	srv := newTokenServer(t, func() string { return "opaque-token" })
	p := NewHTTPProvider(srv.URL, "alice")
	t.Cleanup(func() { _ = p.Close() })

	got, err := p.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, "opaque-token", got)

	_, err = p.Token(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 1, srv.hits.Load())
}

func TestHTTPProviderErrors(t *testing.T) {
	t.Parallel()

	srv := newTokenServer(t, func() string { return "x" })
	p := NewHTTPProvider(srv.URL, "mallory")
	t.Cleanup(func() { _ = p.Close() })

	_, err := p.Token(context.Background())
	require.ErrorContains(t, err, "unexpected status 400")

	empty := newTokenServer(t, func() string { return "" })
	p = NewHTTPProvider(empty.URL, "alice")
	t.Cleanup(func() { _ = p.Close() })

	_, err = p.Token(context.Background())
	require.ErrorIs(t, err, ErrEmptyToken)
}

func TestHTTPProviderUsesSealedCache(t *testing.T) {
	t.Parallel()

	tok := mintToken(t, time.Now().Add(time.Hour))
	srv := newTokenServer(t, func() string { return tok })
	cache := NewFileCache(t.TempDir())

	first := NewHTTPProvider(srv.URL, "alice", WithCache(cache))
	t.Cleanup(func() { _ = first.Close() })
	_, err := first.Token(context.Background())
	require.NoError(t, err)

	// A fresh provider picks the token up from disk.
	second := NewHTTPProvider(srv.URL, "alice", WithCache(cache))
	t.Cleanup(func() { _ = second.Close() })
	got, err := second.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, tok, got)
	require.EqualValues(t, 1, srv.hits.Load())
}

func TestFileCache(t *testing.T) {
	t.Parallel()

	cache := NewFileCache(t.TempDir())

	_, err := cache.Load()
	require.ErrorIs(t, err, ErrNoCachedToken)

	want := CachedToken{Token: "abc", ExpiresAt: time.Unix(1_900_000_000, 0).UTC()}
	require.NoError(t, cache.Save(want))

	got, err := cache.Load()
	require.NoError(t, err)
	require.Equal(t, want.Token, got.Token)
	require.True(t, want.ExpiresAt.Equal(got.ExpiresAt))

	require.NoError(t, cache.Clear())
	require.NoError(t, cache.Clear())
	_, err = cache.Load()
	require.ErrorIs(t, err, ErrNoCachedToken)
}
