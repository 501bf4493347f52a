package dvparser

import (
	"strconv"
	"time"

	"github.com/travnick/wmbusmeters/internal/units"
)

// MeasurementType classifies a DVEntry by the DIF function field (bits
// 5:4), independent of the storage/tariff/subunit accumulation.
type MeasurementType int

const (
	Instantaneous MeasurementType = iota
	Maximum
	Minimum
	AtError
)

func functionField(dif byte) MeasurementType {
	return MeasurementType((dif >> 4) & 0x03)
}

// DVEntry is one parsed data record.
type DVEntry struct {
	Key             string
	Offset          int
	MeasurementType MeasurementType
	Quantity        units.Quantity
	Unit            units.Unit
	VIFRange        VIFRange
	Combinables     map[VIFCombinable]bool
	StorageNr       uint32
	TariffNr        uint32
	SubunitNr       uint32
	RawHex          string

	// Numeric is the decoded scaled value for KindNumeric entries;
	// date/time entries carry Time (HasTime) instead. Text carries the
	// hex-encoded raw bytes for LVAR/string entries.
	Numeric  float64
	HasText  bool
	Text     string
	HasTime  bool
	Time     time.Time
	TimeIsIV bool
}

// HasCombinable reports whether c was observed on this entry's VIFE chain.
func (e DVEntry) HasCombinable(c VIFCombinable) bool {
	return e.Combinables[c]
}

// Entries is the ordered DV-key -> DVEntry mapping a telegram body decodes
// to. Order of insertion is parse order.
type Entries struct {
	byKey map[string]*DVEntry
	order []string
}

func newEntries() *Entries {
	return &Entries{byKey: make(map[string]*DVEntry)}
}

// Get looks up an entry by its exact DV key (including any duplicate
// suffix).
func (e *Entries) Get(key string) (DVEntry, bool) {
	v, ok := e.byKey[key]
	if !ok {
		return DVEntry{}, false
	}
	return *v, true
}

// All returns entries in parse order.
func (e *Entries) All() []DVEntry {
	out := make([]DVEntry, len(e.order))
	for i, k := range e.order {
		out[i] = *e.byKey[k]
	}
	return out
}

// Len reports how many entries were parsed.
func (e *Entries) Len() int { return len(e.order) }

func (e *Entries) insert(baseKey string, entry DVEntry) {
	key := baseKey
	if _, exists := e.byKey[key]; exists {
		suffix := 2
		for {
			candidate := baseKey + "_" + strconv.Itoa(suffix)
			if _, taken := e.byKey[candidate]; !taken {
				key = candidate
				break
			}
			suffix++
		}
	}
	entry.Key = key
	e.byKey[key] = &entry
	e.order = append(e.order, key)
}
