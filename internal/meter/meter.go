// Package meter implements the meter manager and driver registry. The two
// live in one package rather than split across two: drivers need types the
// manager also needs (FieldInfo), and the manager needs registry lookups,
// so splitting them would force an import cycle between the two directions.
package meter

import (
	"github.com/travnick/wmbusmeters/internal/address"
	"github.com/travnick/wmbusmeters/internal/dvparser"
	"github.com/travnick/wmbusmeters/internal/units"
)

// MeterInfo is either a template or an instantiated meter. The manager treats
// the two identically except for where the value is stored (Manager.templates
// vs Manager.meters) and whether template matches spawn new instances.
type MeterInfo struct {
	Name         string
	DriverName   string // explicit driver name, or "auto"
	Addresses    []address.AddressExpression
	IdentityMode address.IdentityMode
	Key          []byte // decryption key, nil if the meter is unkeyed

	driver   DriverDef
	driverOK bool

	fields  map[string]float64
	entries *dvparser.Entries
}

// NewMeterInfo builds a MeterInfo ready to register as either a template or
// a concrete meter.
func NewMeterInfo(name, driverName string, addrs []address.AddressExpression, mode address.IdentityMode, key []byte) *MeterInfo {
	return &MeterInfo{
		Name:         name,
		DriverName:   driverName,
		Addresses:    addrs,
		IdentityMode: mode,
		Key:          key,
		fields:       make(map[string]float64),
	}
}

// FieldValue implements formula.EvalContext / formula.Resolver's sibling
// for meter-level calculated fields that reference other already-decoded
// fields on the same meter rather than a single bound DVEntry.
func (mi *MeterInfo) FieldValue(name string) (float64, bool) {
	v, ok := mi.fields[name]
	return v, ok
}

// Entry always reports unbound: a MeterInfo used as a whole-meter
// EvalContext has no single current DVEntry (that binding only exists
// inside decodeFields, per field, via fieldEvalContext).
func (mi *MeterInfo) Entry() (*dvparser.DVEntry, bool) {
	return nil, false
}

// ResolveField implements formula.Resolver so a meter-level formula (e.g. a
// config-supplied calculated field) can be type-checked against this
// meter's own driver fields.
func (mi *MeterInfo) ResolveField(name string) (units.Unit, bool) {
	if !mi.driverOK {
		return 0, false
	}
	for _, f := range mi.driver.Fields {
		if f.Name == name {
			return f.Unit, true
		}
	}
	return 0, false
}

// Fields returns a copy of the meter's most recent field snapshot.
func (mi *MeterInfo) Fields() map[string]float64 {
	out := make(map[string]float64, len(mi.fields))
	for k, v := range mi.fields {
		out[k] = v
	}
	return out
}

// DriverResolved reports whether a driver has been assigned (explicitly or
// via auto-pick) to this meter yet.
func (mi *MeterInfo) DriverResolved() bool { return mi.driverOK }

// applyEntries resolves (if needed) the meter's driver and decodes every
// field against entries, merging the result into the field snapshot. An
// unresolved driver does not abort the call — the meter stays registered
// but reports zero fields.
func (mi *MeterInfo) applyEntries(reg *Registry, canonical address.Address, entries *dvparser.Entries) {
	if !mi.driverOK && mi.DriverName != "auto" {
		if d, ok := reg.Lookup(mi.DriverName); ok {
			mi.driver = d
			mi.driverOK = true
		}
	}
	if !mi.driverOK && mi.DriverName == "auto" {
		if d, ok := reg.AutoPick(canonical.Mfct, canonical.Type, canonical.Version); ok {
			mi.driver = d
			mi.driverOK = true
		}
	}
	mi.entries = entries
	if !mi.driverOK {
		return
	}
	values := decodeFields(mi.driver.Fields, entries)
	if mi.fields == nil {
		mi.fields = make(map[string]float64, len(values))
	}
	for k, v := range values {
		mi.fields[k] = v
	}
}

// clone makes an independent copy of mi suitable for instantiating from a
// template: its Addresses slice is copied so TrimToIdentity's in-place
// mutation on the new identity expression never aliases the template's.
func (mi *MeterInfo) clone() *MeterInfo {
	return &MeterInfo{
		Name:         mi.Name,
		DriverName:   mi.DriverName,
		Addresses:    append([]address.AddressExpression(nil), mi.Addresses...),
		IdentityMode: mi.IdentityMode,
		Key:          mi.Key,
		driver:       mi.driver,
		driverOK:     mi.driverOK,
		fields:       make(map[string]float64),
	}
}
