package formula

import "github.com/travnick/wmbusmeters/internal/units"

// Resolver supplies the build-time type information for identifiers a
// formula references: a bound meter's field units so Add/Sub/Mul/Div can be type-checked before a single
// telegram is ever evaluated.
type Resolver interface {
	// ResolveField reports the concrete Unit a named meter field publishes,
	// so the builder can both type-check arithmetic against it and (for
	// affine units like temperature) know which named unit a raw value is
	// expressed in.
	ResolveField(name string) (units.Unit, bool)
}

// entryCounterUnit is the SIUnit every EntryCounterRef carries: a plain
// dimensionless count.
var entryCounterUnit = units.Of(units.NUMBER)
