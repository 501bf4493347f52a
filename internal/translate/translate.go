// Package translate turns a raw status/error byte into human-readable
// labels via a declarative Lookup of Rules. Drivers build a Lookup as a
// literal table — the same shape EN 13757 status and manufacturer-specific
// error fields are documented in — and call Lookup.Translate on the
// decoded byte.
package translate

import (
	"fmt"
	"strings"
)

// MapType selects how a Rule's masked value is matched against its Maps:
// BitToString tests individual bits (optionally ANDed together), while
// IndexToString compares the whole masked value against each Map's Value.
type MapType int

const (
	BitToString MapType = iota
	IndexToString
)

// TestBit selects whether a Map's bit(s) must be set or clear to match,
// for BitToString rules. IndexToString rules ignore Test (equality is the
// only test that makes sense for a numeric index).
type TestBit int

const (
	TestBitSet TestBit = iota
	TestBitNotSet
)

// Map is one entry of a Rule's translation table: the byte value this
// entry tests for (a bitmask for BitToString, an exact index for
// IndexToString), its label, and (for BitToString) whether the bit must be
// set or clear.
type Map struct {
	Value byte
	Name  string
	Test  TestBit
}

// Rule decodes one field out of a status byte. Mask restricts which bits
// of the input value belong to this rule; Default is emitted when none of
// Maps matches and the rule's owner never bothered to carve out an
// unmatched-value label (e.g. a field that's usually "OK").
type Rule struct {
	FieldName string
	MapType   MapType
	Mask      byte
	Default   string
	Maps      []Map
}

// Lookup is an ordered set of Rules, each contributing zero or more labels
// to the final translation.
type Lookup struct {
	Rules []Rule
}

// Translate decodes value against every rule in l, space-joining every
// label produced.
func (l Lookup) Translate(value byte) string {
	var words []string
	for _, r := range l.Rules {
		words = append(words, r.translate(value)...)
	}
	return strings.Join(words, " ")
}

// StandardStatusLookup decodes the TPL status byte's standard EN 13757-3
// error/alarm bits into human-readable labels, mirroring the bit layout
// telegram.decodeStatusFlags checks programmatically. Drivers and CLI
// output use this when they want a display string rather than the raw
// flag map.
var StandardStatusLookup = Lookup{Rules: []Rule{
	{
		FieldName: "STATUS",
		MapType:   BitToString,
		Mask:      0xfe,
		Default:   "OK",
		Maps: []Map{
			{Value: 0x80, Name: "EMPTY_PIPE", Test: TestBitSet},
			{Value: 0x40, Name: "REVERSE_FLOW", Test: TestBitSet},
			{Value: 0x20, Name: "FREEZING", Test: TestBitSet},
			{Value: 0x10, Name: "TEMP_ALARM", Test: TestBitSet},
			{Value: 0x08, Name: "PERM_ALARM", Test: TestBitSet},
			{Value: 0x04, Name: "BATTERY_ALARM", Test: TestBitSet},
			{Value: 0x02, Name: "HW_ALARM", Test: TestBitSet},
		},
	},
}}

func (r Rule) translate(value byte) []string {
	masked := value & r.Mask
	switch r.MapType {
	case IndexToString:
		for _, m := range r.Maps {
			if masked == m.Value {
				return []string{m.Name}
			}
		}
		if r.Default != "" {
			return []string{r.Default}
		}
		return []string{fmt.Sprintf("%s_%d", r.FieldName, masked)}
	default: // BitToString
		var matched []string
		var known byte
		for _, m := range r.Maps {
			known |= m.Value
			set := masked&m.Value != 0
			if (m.Test == TestBitSet) == set {
				matched = append(matched, m.Name)
			}
		}
		if len(matched) == 0 {
			if r.Default != "" {
				return []string{r.Default}
			}
			return []string{fmt.Sprintf("%s_%02X", r.FieldName, masked)}
		}
		if remaining := masked &^ known; remaining != 0 {
			matched = append(matched, fmt.Sprintf("%s_%02X", r.FieldName, remaining))
		}
		return matched
	}
}
