// Package fieldmatcher implements the field-matcher: binding a driver's
// declarative field description to the concrete DVEntry a telegram
// actually carried. Generalizes an ad hoc VIF-range switch statement into a
// declarative predicate struct, so drivers declare what they want instead
// of re-deriving it from raw VIF bytes on every decode.
package fieldmatcher

import "github.com/travnick/wmbusmeters/internal/dvparser"

// FieldMatcher carries the optional match predicates a driver field declares. Every
// pointer/nil-slice field left unset matches any entry.
type FieldMatcher struct {
	MeasurementType *dvparser.MeasurementType
	Ranges          []dvparser.VIFRange // specific VIF range(s)
	StorageNr       *uint32
	TariffNr        *uint32
	SubunitNr       *uint32

	// Combinables, when non-empty, must all be present on the entry
	// (order-independent superset check). Any, when set, matches
	// regardless of the entry's combinable set.
	Combinables []dvparser.VIFCombinable
	Any         bool
}

// Match reports whether e satisfies every predicate m declares. Unspecified predicates are wildcards.
func (m FieldMatcher) Match(e dvparser.DVEntry) bool {
	if m.MeasurementType != nil && *m.MeasurementType != e.MeasurementType {
		return false
	}
	if len(m.Ranges) > 0 && !containsRange(m.Ranges, e.VIFRange) {
		return false
	}
	if m.StorageNr != nil && *m.StorageNr != e.StorageNr {
		return false
	}
	if m.TariffNr != nil && *m.TariffNr != e.TariffNr {
		return false
	}
	if m.SubunitNr != nil && *m.SubunitNr != e.SubunitNr {
		return false
	}
	if !m.Any && len(m.Combinables) > 0 {
		for _, c := range m.Combinables {
			if !e.HasCombinable(c) {
				return false
			}
		}
	}
	return true
}

func containsRange(ranges []dvparser.VIFRange, r dvparser.VIFRange) bool {
	for _, want := range ranges {
		if want == r {
			return true
		}
	}
	return false
}

// Bind scans entries in parse order and returns the first one m matches.
// If multiple entries match, the caller gets the first one in parse order.
func Bind(entries *dvparser.Entries, m FieldMatcher) (dvparser.DVEntry, bool) {
	for _, e := range entries.All() {
		if m.Match(e) {
			return e, true
		}
	}
	return dvparser.DVEntry{}, false
}

// BindAll returns every entry m matches, in parse order — used by fields
// that report one value per storage/subunit instance (e.g. monthly totals).
func BindAll(entries *dvparser.Entries, m FieldMatcher) []dvparser.DVEntry {
	var out []dvparser.DVEntry
	for _, e := range entries.All() {
		if m.Match(e) {
			out = append(out, e)
		}
	}
	return out
}

// WithStorage returns a copy of m constrained to the given storage number,
// a convenience used by drivers that otherwise share one matcher template
// across several tariffs/storages (e.g. monthly history slots).
func (m FieldMatcher) WithStorage(nr uint32) FieldMatcher {
	m.StorageNr = &nr
	return m
}

// WithTariff returns a copy of m constrained to the given tariff number.
func (m FieldMatcher) WithTariff(nr uint32) FieldMatcher {
	m.TariffNr = &nr
	return m
}
