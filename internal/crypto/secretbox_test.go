package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testKey(seed byte) *[32]byte {
	var key [32]byte
	for i := range key {
		key[i] = seed + byte(i)
	}
	return &key
}

func TestSealOpenRoundtrip(t *testing.T) {
	t.Parallel()

	type payload struct {
		Token string `json:"token"`
		Count int    `json:"count"`
	}

	sealed, err := Seal(payload{Token: "abc", Count: 42}, testKey(0))
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(sealed), 24+16)

	var got payload
	require.NoError(t, Open(sealed, testKey(0), &got))
	require.Equal(t, payload{Token: "abc", Count: 42}, got)
}

func TestSealUsesFreshNonce(t *testing.T) {
	t.Parallel()

	a, err := Seal([]byte(`{"a":1}`), testKey(1))
	require.NoError(t, err)
	b, err := Seal([]byte(`{"a":1}`), testKey(1))
	require.NoError(t, err)
	require.NotEqual(t, a[:24], b[:24])
}

func TestOpenRejectsWrongKeyAndTampering(t *testing.T) {
	t.Parallel()

	sealed, err := Seal(map[string]string{"k": "v"}, testKey(2))
	require.NoError(t, err)

	var out map[string]string
	require.ErrorIs(t, Open(sealed, testKey(3), &out), ErrOpen)

	sealed[len(sealed)-1] ^= 0xff
	require.ErrorIs(t, Open(sealed, testKey(2), &out), ErrOpen)

	require.Error(t, Open([]byte("short"), testKey(2), &out))
}
