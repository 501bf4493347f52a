package formula

import (
	"github.com/travnick/wmbusmeters/internal/errs"
	"github.com/travnick/wmbusmeters/internal/units"
)

// NodeKind tags the formula AST's variants.
type NodeKind int

const (
	NodeConstant NodeKind = iota
	NodeDateTimeLiteral
	NodeDurationLiteral
	NodeMeterFieldRef
	NodeEntryCounterRef
	NodeAdd
	NodeSub
	NodeMul
	NodeDiv
	NodeSqrt
)

// CounterKind selects which DVEntry field an EntryCounterRef node reads
// (storage, tariff, or subunit number).
type CounterKind int

const (
	CounterStorage CounterKind = iota
	CounterTariff
	CounterSubunit
)

// Node is one formula AST node. Every node carries its annotated SIUnit,
// attached during Build. Leaf kinds use Value/Seconds/FieldName/Counter;
// internal kinds use Left/Right or Operand.
type Node struct {
	Kind NodeKind
	Unit units.SIUnit

	// ConcreteUnit is the named Unit a raw value is actually expressed in.
	// Needed alongside Unit (an SIUnit, which only carries Scalar/Exp)
	// because affine units like temperature can't be recovered from Scalar
	// alone: Evaluate and Calculate use it to pick the correct toCelsius/
	// fromCelsius conversion instead of a bare scalar ratio. Propagated
	// unchanged from the left operand through Add/Sub.
	ConcreteUnit units.Unit

	// UnitName is the literal unit/duration suffix text for Constant and
	// DurationLiteral leaves, used only to render type-error diagnostics
	// in the user's own units instead of a raw SI exponent vector.
	UnitName string

	Value        float64      // Constant, DurationLiteral
	DurationUnit units.Unit   // DurationLiteral: Second/Minute/Hour/Day/Month/Year
	Seconds      int64        // DateTimeLiteral
	FieldName    string       // MeterFieldRef
	Counter      CounterKind  // EntryCounterRef

	Left, Right *Node // Add, Sub, Mul, Div
	Operand     *Node // Sqrt

	Span errs.Span
}

func describe(n *Node) string {
	name := n.UnitName
	if name == "" {
		name = n.Unit.Quantity.String()
	}
	return "[" + name + "|" + n.Unit.Quantity.String() + "]"
}
