package options

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseKeyHexEmptyReturnsNil(t *testing.T) {
	key, err := ParseKeyHex("")
	require.NoError(t, err)
	require.Nil(t, key)
}

func TestParseKeyHexDecodesSixteenBytes(t *testing.T) {
	key, err := ParseKeyHex("00112233445566778899AABBCCDDEEFF")
	require.NoError(t, err)
	require.Len(t, key, 16)
}

func TestParseKeyHexIgnoresInnerWhitespace(t *testing.T) {
	key, err := ParseKeyHex("0011 2233 4455 6677 8899 AABB CCDD EEFF")
	require.NoError(t, err)
	require.Len(t, key, 16)
}

func TestParseKeyHexRejectsWrongLength(t *testing.T) {
	_, err := ParseKeyHex("1234")
	require.Error(t, err)
}
