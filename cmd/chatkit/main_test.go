package main

import (
	"os"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	t.Parallel()

	f, args, err := parseFlags([]string{"-c", "/tmp/chatkit.toml", "--user", "alice", "members", "r1"})
	require.NoError(t, err)
	require.Equal(t, "/tmp/chatkit.toml", f.configPath)
	require.Equal(t, "alice", f.userID)
	require.Equal(t, []string{"members", "r1"}, args)

	_, _, err = parseFlags([]string{"--bogus"})
	require.Error(t, err)
}

func TestParseFlagsHelp(t *testing.T) {
	t.Parallel()

	_, _, err := parseFlags([]string{"--help"})
	require.ErrorIs(t, err, pflag.ErrHelp)
}

func TestExportFlags(t *testing.T) {
	t.Setenv("CHATKIT_USER_ID", "bob")
	t.Setenv("CHATKIT_TOKEN", "")

	require.NoError(t, exportFlags(flags{token: "tok"}))
	require.Equal(t, "bob", os.Getenv("CHATKIT_USER_ID"))
	require.Equal(t, "tok", os.Getenv("CHATKIT_TOKEN"))
}
