package translate

import (
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// sortedWords makes word-order-independent comparisons, the same role
// sortStatusString plays in the original test.
func sortedWords(s string) []string {
	words := strings.Fields(s)
	sort.Strings(words)
	return words
}

func accessLookup() Lookup {
	return Lookup{Rules: []Rule{
		{
			FieldName: "ACCESS_BITS",
			MapType:   BitToString,
			Mask:      0xf0,
			Maps: []Map{
				{Value: 0x10, Name: "NO_ACCESS", Test: TestBitSet},
				{Value: 0x20, Name: "ALL_ACCESS", Test: TestBitSet},
				{Value: 0x40, Name: "TEMP_ACCESS", Test: TestBitSet},
			},
		},
		{
			FieldName: "ACCESSOR_TYPE",
			MapType:   IndexToString,
			Mask:      0x0f,
			Maps: []Map{
				{Value: 0x00, Name: "ACCESSOR_RED", Test: TestBitSet},
				{Value: 0x07, Name: "ACCESSOR_GREEN", Test: TestBitSet},
			},
		},
	}}
}

func TestBitToStringWithLeftoverBits(t *testing.T) {
	got := sortedWords(accessLookup().Translate(0xa0))
	want := sortedWords("ALL_ACCESS ACCESS_BITS_80 ACCESSOR_RED")
	require.Equal(t, want, got)
}

func TestIndexToStringFallsBackToIndexLabel(t *testing.T) {
	got := sortedWords(accessLookup().Translate(0x35))
	want := sortedWords("NO_ACCESS ALL_ACCESS ACCESSOR_TYPE_5")
	require.Equal(t, want, got)
}

func flowFlagsLookup() Lookup {
	return Lookup{Rules: []Rule{
		{
			FieldName: "FLOW_FLAGS",
			MapType:   BitToString,
			Mask:      0x3f,
			Default:   "OOOK",
			Maps: []Map{
				{Value: 0x01, Name: "BACKWARD_FLOW", Test: TestBitSet},
				{Value: 0x02, Name: "DRY", Test: TestBitSet},
				{Value: 0x10, Name: "TRIG", Test: TestBitSet},
				{Value: 0x20, Name: "COS", Test: TestBitSet},
			},
		},
	}}
}

func TestBitToStringMatch(t *testing.T) {
	require.Equal(t, "DRY", flowFlagsLookup().Translate(0x02))
}

func TestBitToStringDefaultWhenMaskedIsZero(t *testing.T) {
	require.Equal(t, "OOOK", flowFlagsLookup().Translate(0x00))
}

func noFlagsLookup() Lookup {
	return Lookup{Rules: []Rule{
		{
			FieldName: "NO_FLAGS",
			MapType:   BitToString,
			Mask:      0x03,
			Default:   "OK",
			Maps: []Map{
				{Value: 0x01, Name: "NOT_INSTALLED", Test: TestBitNotSet},
				{Value: 0x02, Name: "FOO", Test: TestBitSet},
			},
		},
	}}
}

func TestBitToStringNotSetTest(t *testing.T) {
	got := sortedWords(noFlagsLookup().Translate(0x02))
	want := sortedWords("NOT_INSTALLED FOO")
	require.Equal(t, want, got)
}

func TestBitToStringDefaultWhenNothingMatches(t *testing.T) {
	require.Equal(t, "OK", noFlagsLookup().Translate(0x01))
}
