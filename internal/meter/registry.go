package meter

import (
	"github.com/travnick/wmbusmeters/internal/dvparser"
	"github.com/travnick/wmbusmeters/internal/errs"
	"github.com/travnick/wmbusmeters/internal/fieldmatcher"
	"github.com/travnick/wmbusmeters/internal/formula"
	"github.com/travnick/wmbusmeters/internal/units"
)

// FieldInfo is one named field a driver publishes:
// how to find its value in a parsed telegram (Matcher), what unit to report
// it in, and — for derived fields — the formula to compute it from fields
// already decoded earlier in the same driver's Fields list.
type FieldInfo struct {
	Name    string
	Matcher fieldmatcher.FieldMatcher
	Unit    units.Unit
	Formula *formula.Formula
}

// DriverDef is a registered driver: a name, an auto-pick predicate keyed
// on manufacturer/media/version, and its field list.
type DriverDef struct {
	Name   string
	Detect func(mfct uint16, media, version byte) bool
	Fields []FieldInfo
}

// FieldResolver lets a driver's own init code type-check formulas against
// the units its other fields already publish, without needing a live
// MeterInfo.
type FieldResolver struct {
	Fields []FieldInfo
}

func (r FieldResolver) ResolveField(name string) (units.Unit, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Unit, true
		}
	}
	return 0, false
}

// Registry is the process-wide driver table.
type Registry struct {
	drivers []DriverDef
	byName  map[string]DriverDef
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]DriverDef)}
}

// Register adds d, rejecting a duplicate name.
func (r *Registry) Register(d DriverDef) error {
	if _, exists := r.byName[d.Name]; exists {
		return errs.New(errs.KindUnknownDriver, "driver %q is already registered", d.Name)
	}
	r.byName[d.Name] = d
	r.drivers = append(r.drivers, d)
	return nil
}

// Lookup resolves an explicit driver name from a meter configuration line.
func (r *Registry) Lookup(name string) (DriverDef, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// AutoPick resolves driver `auto` by trying every registered driver's
// Detect predicate in registration order, returning the first match.
func (r *Registry) AutoPick(mfct uint16, media, version byte) (DriverDef, bool) {
	for _, d := range r.drivers {
		if d.Detect != nil && d.Detect(mfct, media, version) {
			return d, true
		}
	}
	return DriverDef{}, false
}

// decodeFields runs every FieldInfo's matcher (or formula) against entries,
// building a name -> value snapshot. A field with no matching entry, or
// whose formula/conversion fails, is simply omitted —, no
// per-field failure is fatal to the manager.
func decodeFields(fields []FieldInfo, entries *dvparser.Entries) map[string]float64 {
	values := make(map[string]float64, len(fields))
	for _, f := range fields {
		entry, ok := fieldmatcher.Bind(entries, f.Matcher)
		if f.Formula != nil {
			ctx := fieldEvalContext{fields: values}
			if ok {
				ctx.entry = &entry
			}
			v, err := f.Formula.Calculate(ctx, f.Unit)
			if err != nil {
				continue
			}
			values[f.Name] = v
			continue
		}
		if !ok {
			continue
		}
		raw, fromUnit := entry.Numeric, entry.Unit
		if entry.HasTime {
			raw, fromUnit = float64(entry.Time.Unix()), units.UnixTimestamp
		}
		v, err := units.Convert(raw, fromUnit, f.Unit)
		if err != nil {
			continue
		}
		values[f.Name] = v
	}
	return values
}

// fieldEvalContext binds a decoded-so-far field snapshot and, optionally,
// the single DVEntry a calculated field's matcher found, implementing
// formula.EvalContext for decodeFields' own Formula.Calculate calls.
type fieldEvalContext struct {
	fields map[string]float64
	entry  *dvparser.DVEntry
}

func (c fieldEvalContext) FieldValue(name string) (float64, bool) {
	v, ok := c.fields[name]
	return v, ok
}

func (c fieldEvalContext) Entry() (*dvparser.DVEntry, bool) {
	if c.entry == nil {
		return nil, false
	}
	return c.entry, true
}
