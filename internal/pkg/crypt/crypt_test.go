package crypt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSealOpen(t *testing.T) {
	box, err := New("client_id=id&client_secret=secret")
	require.NoError(t, err)

	sealed, err := box.Seal("eyJhbGciOi.token")
	require.NoError(t, err)
	require.NotContains(t, sealed, "token")

	plain, err := box.Open(sealed)
	require.NoError(t, err)
	require.Equal(t, "eyJhbGciOi.token", plain)

	again, err := box.Seal("eyJhbGciOi.token")
	require.NoError(t, err)
	require.NotEqual(t, sealed, again, "nonce must be random")
}

func TestOpenRejects(t *testing.T) {
	box, err := New("a")
	require.NoError(t, err)
	other, err := New("b")
	require.NoError(t, err)

	sealed, err := box.Seal("x")
	require.NoError(t, err)

	testCases := []struct {
		name  string
		input string
		box   *Box
	}{
		{name: "not base64", input: "%%%", box: box},
		{name: "too short", input: "AAAA", box: box},
		{name: "wrong key", input: sealed, box: other},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.box.Open(tc.input)
			require.ErrorIs(t, err, ErrCiphertext)
		})
	}
}
