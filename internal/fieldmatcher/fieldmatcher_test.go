package fieldmatcher

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/travnick/wmbusmeters/internal/dvparser"
)

func u32(v uint32) *uint32 { return &v }

func TestMatchWildcardByDefault(t *testing.T) {
	m := FieldMatcher{}
	require.True(t, m.Match(dvparser.DVEntry{}))
}

func TestMatchStorageAndTariff(t *testing.T) {
	m := FieldMatcher{StorageNr: u32(1), TariffNr: u32(0)}
	require.True(t, m.Match(dvparser.DVEntry{StorageNr: 1, TariffNr: 0}))
	require.False(t, m.Match(dvparser.DVEntry{StorageNr: 2, TariffNr: 0}))
}

func TestMatchRange(t *testing.T) {
	m := FieldMatcher{Ranges: []dvparser.VIFRange{dvparser.RangeFlowTemperature}}
	require.True(t, m.Match(dvparser.DVEntry{VIFRange: dvparser.RangeFlowTemperature}))
	require.False(t, m.Match(dvparser.DVEntry{VIFRange: dvparser.RangeReturnTemperature}))
}

func TestMatchCombinablesSuperset(t *testing.T) {
	m := FieldMatcher{Combinables: []dvparser.VIFCombinable{dvparser.CombinableDeltaBetweenImportAndExport}}
	entry := dvparser.DVEntry{Combinables: map[dvparser.VIFCombinable]bool{
		dvparser.CombinableDeltaBetweenImportAndExport: true,
		dvparser.CombinableForwardFlow:                 true,
	}}
	require.True(t, m.Match(entry))
	require.False(t, m.Match(dvparser.DVEntry{Combinables: map[dvparser.VIFCombinable]bool{}}))
}

func TestMatchAnyIgnoresCombinables(t *testing.T) {
	m := FieldMatcher{Any: true, Combinables: []dvparser.VIFCombinable{dvparser.CombinableAtError}}
	require.True(t, m.Match(dvparser.DVEntry{}))
}

func TestBindReturnsFirstInParseOrder(t *testing.T) {
	payload := mustHex(t, "0B13563412")
	entries, err := dvparser.Parse(payload)
	require.NoError(t, err)
	m := FieldMatcher{}
	e, ok := Bind(entries, m)
	require.True(t, ok)
	require.Equal(t, 0, e.Offset)
}

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b := make([]byte, len(s)/2)
	for i := range b {
		var v int
		for j := 0; j < 2; j++ {
			c := s[i*2+j]
			v <<= 4
			switch {
			case c >= '0' && c <= '9':
				v |= int(c - '0')
			case c >= 'A' && c <= 'F':
				v |= int(c-'A') + 10
			case c >= 'a' && c <= 'f':
				v |= int(c-'a') + 10
			}
		}
		b[i] = byte(v)
	}
	return b
}
