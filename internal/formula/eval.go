package formula

import (
	"math"
	"time"

	"github.com/travnick/wmbusmeters/internal/dvparser"
	"github.com/travnick/wmbusmeters/internal/errs"
	"github.com/travnick/wmbusmeters/internal/units"
)

// EvalContext supplies the runtime values a built Formula needs: current
// meter field readings for MeterFieldRef nodes, and the DVEntry currently
// bound for EntryCounterRef nodes.
type EvalContext interface {
	// FieldValue returns the live value of a meter field the formula's
	// Resolver accepted at Build time.
	FieldValue(name string) (float64, bool)
	// Entry returns the DVEntry bound for this evaluation, or false if none
	// is bound (an EntryCounterRef then fails with KindLookupError).
	Entry() (*dvparser.DVEntry, bool)
}

// Evaluate walks f.Root and returns its raw numeric result, expressed in
// f.Root.Unit's terms (not yet converted to any particular caller unit —
// use Calculate for that).
func (f *Formula) Evaluate(ctx EvalContext) (float64, error) {
	return evalNode(f.Root, ctx)
}

// Calculate evaluates f and converts the result into target, following the
// same affine-aware rules as units.Convert. When the result carries no
// concrete named unit (e.g. the output of a Mul/Div/Sqrt chain that never
// reduces to a single literal unit), the conversion falls back to a plain
// SIUnit scalar ratio, which is exact as long as target is dimensionally
// and quantity-compatible with f.Root.Unit.
func (f *Formula) Calculate(ctx EvalContext, target units.Unit) (float64, error) {
	raw, err := f.Evaluate(ctx)
	if err != nil {
		return 0, err
	}
	if f.Root.ConcreteUnit != units.UnitNone {
		return units.Convert(raw, f.Root.ConcreteUnit, target)
	}
	targetSI := units.Of(target)
	if f.Root.Unit.Exp.Invalid || targetSI.Exp.Invalid || !f.Root.Unit.Exp.Equal(targetSI.Exp) {
		return 0, errs.New(errs.KindConversionError, "cannot convert formula result (%s) to %s: incompatible dimensions", f.Root.Unit.Quantity, target)
	}
	if !units.QuantitiesCompatible(f.Root.Unit.Quantity, targetSI.Quantity) {
		return 0, errs.New(errs.KindConversionError, "cannot convert formula result (%s) to %s: incompatible quantities", f.Root.Unit.Quantity, target)
	}
	return raw * f.Root.Unit.Scalar / targetSI.Scalar, nil
}

func evalNode(n *Node, ctx EvalContext) (float64, error) {
	switch n.Kind {
	case NodeConstant, NodeDurationLiteral:
		return n.Value, nil
	case NodeDateTimeLiteral:
		return float64(n.Seconds), nil
	case NodeMeterFieldRef:
		v, ok := ctx.FieldValue(n.FieldName)
		if !ok {
			return 0, errs.New(errs.KindLookupError, "no current value for meter field %q", n.FieldName).WithSpan(n.Span.Start, n.Span.End)
		}
		return v, nil
	case NodeEntryCounterRef:
		entry, ok := ctx.Entry()
		if !ok {
			return 0, errs.New(errs.KindLookupError, "no DVEntry bound for counter reference").WithSpan(n.Span.Start, n.Span.End)
		}
		switch n.Counter {
		case CounterStorage:
			return float64(entry.StorageNr), nil
		case CounterTariff:
			return float64(entry.TariffNr), nil
		default:
			return float64(entry.SubunitNr), nil
		}
	case NodeAdd, NodeSub:
		return evalAddSub(n, ctx)
	case NodeMul:
		l, err := evalNode(n.Left, ctx)
		if err != nil {
			return 0, err
		}
		r, err := evalNode(n.Right, ctx)
		if err != nil {
			return 0, err
		}
		return l * r, nil
	case NodeDiv:
		l, err := evalNode(n.Left, ctx)
		if err != nil {
			return 0, err
		}
		r, err := evalNode(n.Right, ctx)
		if err != nil {
			return 0, err
		}
		if r == 0 {
			return 0, errs.New(errs.KindOverflow, "division by zero").WithSpan(n.Span.Start, n.Span.End)
		}
		return l / r, nil
	case NodeSqrt:
		v, err := evalNode(n.Operand, ctx)
		if err != nil {
			return 0, err
		}
		return math.Sqrt(v), nil
	default:
		return 0, errs.New(errs.KindParseError, "unevaluable node")
	}
}

// evalAddSub handles the two rules for Add/Sub: calendar
// arithmetic when the left side is a point in time and the right side is a
// month/year duration literal, and plain unit-converted addition otherwise.
func evalAddSub(n *Node, ctx EvalContext) (float64, error) {
	l, err := evalNode(n.Left, ctx)
	if err != nil {
		return 0, err
	}
	r, err := evalNode(n.Right, ctx)
	if err != nil {
		return 0, err
	}
	sign := 1.0
	if n.Kind == NodeSub {
		sign = -1.0
	}

	if n.Left.ConcreteUnit == units.UnixTimestamp && n.Right.Kind == NodeDurationLiteral &&
		(n.Right.DurationUnit == units.Month || n.Right.DurationUnit == units.Year) {
		t := time.Unix(int64(l), 0).UTC()
		count := int(sign * r)
		var result time.Time
		if n.Right.DurationUnit == units.Month {
			result = units.AddMonths(t, count)
		} else {
			result = units.AddYears(t, count)
		}
		return float64(result.Unix()), nil
	}

	if units.IsTemperatureUnit(n.Left.ConcreteUnit) || units.IsTemperatureUnit(n.Right.ConcreteUnit) {
		if n.Left.ConcreteUnit != units.UnitNone && n.Right.ConcreteUnit != units.UnitNone && n.Left.ConcreteUnit != n.Right.ConcreteUnit {
			r, err = units.ConvertTemperature(r, n.Right.ConcreteUnit, n.Left.ConcreteUnit)
			if err != nil {
				return 0, err
			}
		}
	} else if n.Left.Unit.Scalar != 0 {
		r = r * (n.Right.Unit.Scalar / n.Left.Unit.Scalar)
	}

	if n.Kind == NodeAdd {
		return l + r, nil
	}
	return l - r, nil
}
