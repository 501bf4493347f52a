package dvparser

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func mustHex(t *testing.T, s string) []byte {
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

// Mixed BCD, integer, and LVAR-string entries in one payload.
func TestParseDVScenario(t *testing.T) {
	payload := mustHex(t, "2F2F0B135634128B8200933E6745230DFD100A303132333435363738390F882F")

	entries, err := Parse(payload)
	require.NoError(t, err)

	e, ok := entries.Get("0B13")
	require.True(t, ok)
	require.InDelta(t, 123.456, e.Numeric, 1e-9)

	e, ok = entries.Get("8B8200933E")
	require.True(t, ok)
	require.InDelta(t, 234.567, e.Numeric, 1e-9)

	e, ok = entries.Get("0DFD10")
	require.True(t, ok)
	require.True(t, e.HasText)
	require.Equal(t, "30313233343536373839", e.Text)
}

// Type F and type G date/time encodings.
func TestParseDateScenarios(t *testing.T) {
	entries, err := Parse(mustHex(t, "82046C5F1C"))
	require.NoError(t, err)
	e, ok := entries.Get("82046C")
	require.True(t, ok)
	require.True(t, e.HasTime)
	require.Equal(t, 2010, e.Time.Year())
	require.Equal(t, 12, int(e.Time.Month()))
	require.Equal(t, 31, e.Time.Day())

	entries, err = Parse(mustHex(t, "426CFE04"))
	require.NoError(t, err)
	e, ok = entries.Get("426C")
	require.True(t, ok)
	require.True(t, e.HasTime)
	require.Equal(t, 2007, e.Time.Year())
	require.Equal(t, 4, int(e.Time.Month()))
	require.Equal(t, 30, e.Time.Day())
}

func TestDuplicateKeysGetSuffixed(t *testing.T) {
	// Two identical DIF/VIF records (0B13, a 3-byte BCD volume).
	entries, err := Parse(mustHex(t, "0B13010203" + "0B13040506"))
	require.NoError(t, err)
	require.Equal(t, 2, entries.Len())
	_, ok := entries.Get("0B13")
	require.True(t, ok)
	_, ok = entries.Get("0B13_2")
	require.True(t, ok)
}

// FB extension table: VIF 0xFB selects the "first extension" table via its
// VIFE low 7 bits, here 0x02 -> Energy 10^2 kWh.
func TestParseFBExtensionEnergy(t *testing.T) {
	entries, err := Parse(mustHex(t, "04FB0201000000"))
	require.NoError(t, err)
	e, ok := entries.Get("04FB02")
	require.True(t, ok)
	require.Equal(t, RangeEnergyMWh, e.VIFRange)
	require.InDelta(t, 100, e.Numeric, 1e-9)
}

// FD extension table: VIF 0xFD selects the "second extension" table via its
// VIFE low 7 bits, here 0x1F -> error flags.
func TestParseFDExtensionErrorFlags(t *testing.T) {
	entries, err := Parse(mustHex(t, "02FD1F0200"))
	require.NoError(t, err)
	e, ok := entries.Get("02FD1F")
	require.True(t, ok)
	require.Equal(t, RangeErrorFlags, e.VIFRange)
}

// An extension selector with no VIFE following it (malformed, but must not
// panic) falls back to the manufacturer-specific row.
func TestResolveVIFSelectorWithoutVIFE(t *testing.T) {
	row := resolveVIF(0xFB, nil)
	require.Equal(t, RangeManufacturerSpecific, row.Range)
}

func TestDecodeIntTwosComplement(t *testing.T) {
	require.Equal(t, int64(-1), decodeInt([]byte{0xFF}))
	require.Equal(t, int64(255), decodeInt([]byte{0xFF, 0x00}))
	require.Equal(t, int64(-2), decodeInt([]byte{0xFE, 0xFF}))
}

func TestDecodeBCDNegative(t *testing.T) {
	v, err := decodeBCD([]byte{0x12, 0xF3})
	require.NoError(t, err)
	require.Equal(t, int64(-312), v)
}
