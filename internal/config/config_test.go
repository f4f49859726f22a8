package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// isolate points the config at a fresh home and clears CHATKIT_* overrides.
// Tests using it cannot run in parallel.
func isolate(t *testing.T) string {
	t.Helper()

	home := filepath.Join(t.TempDir(), "chatkit")
	t.Setenv("HOME", t.TempDir())
	t.Setenv("CHATKIT_HOME_DIR", home)
	t.Setenv("DEBUG", "")
	for _, env := range []string{
		"CHATKIT_INSTANCE_LOCATOR", "CHATKIT_USER_ID", "CHATKIT_TOKEN_URL",
		"CHATKIT_TOKEN", "CHATKIT_SERVER_URL", "CHATKIT_SOCKET_PATH",
		"CHATKIT_LOG_LEVEL", "CHATKIT_MAX_PENDING", "CHATKIT_FETCH_BATCH_SIZE",
	} {
		t.Setenv(env, "")
	}
	return home
}

func TestParseInstanceLocator(t *testing.T) {
	t.Parallel()

	cluster, id, err := ParseInstanceLocator("v1:us1:1f6e4b3c")
	require.NoError(t, err)
	require.Equal(t, "us1", cluster)
	require.Equal(t, "1f6e4b3c", id)

	for _, bad := range []string{"", "v1:us1", "v2:us1:x", "v1::x", "v1:us1:"} {
		_, _, err := ParseInstanceLocator(bad)
		require.ErrorIs(t, err, ErrInvalidLocator, bad)
	}
}

func TestLoadFromEnv(t *testing.T) {
	home := isolate(t)
	t.Setenv("CHATKIT_INSTANCE_LOCATOR", "v1:us1:inst")
	t.Setenv("CHATKIT_USER_ID", "alice")
	t.Setenv("CHATKIT_TOKEN_URL", "https://example.com/token")
	t.Setenv("CHATKIT_MAX_PENDING", "8")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "https://us1.pusherplatform.io", cfg.ServerURL)
	require.Equal(t, "inst", cfg.InstanceID())
	require.Equal(t, "alice", cfg.UserID)
	require.Equal(t, 8, cfg.MaxPending)
	require.Equal(t, defaultFetchBatchSize, cfg.FetchBatchSize)
	require.Equal(t, defaultSocketPath, cfg.SocketPath)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, home, cfg.Home)

	info, err := os.Stat(home)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

func TestLoadFileThenEnv(t *testing.T) {
	home := isolate(t)
	require.NoError(t, os.MkdirAll(home, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(home, "config.toml"), []byte(`
instance_locator = "v1:eu1:inst"
user_id = "bob"
token = "static-token"
server_url = "http://localhost:8080/"
log_level = "trace"
`), 0600))
	t.Setenv("CHATKIT_USER_ID", "carol")
	t.Setenv("DEBUG", "1")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "carol", cfg.UserID)
	require.Equal(t, "static-token", cfg.Token)
	require.Equal(t, "http://localhost:8080", cfg.ServerURL)
	require.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadExplicitPathMustExist(t *testing.T) {
	isolate(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.ErrorContains(t, err, "read config")
}

func TestLoadValidation(t *testing.T) {
	isolate(t)
	t.Setenv("CHATKIT_INSTANCE_LOCATOR", "nope")

	_, err := Load("")
	require.ErrorContains(t, err, "instance_locator must look like v1:<cluster>:<instance id>")
	require.ErrorContains(t, err, "user_id is a required field")
	require.ErrorContains(t, err, "token")
}

func TestLoadRejectsBadNumbers(t *testing.T) {
	isolate(t)
	t.Setenv("CHATKIT_MAX_PENDING", "many")

	_, err := Load("")
	require.ErrorContains(t, err, "invalid CHATKIT_MAX_PENDING")
}
