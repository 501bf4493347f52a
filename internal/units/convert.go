package units

import (
	"github.com/travnick/wmbusmeters/internal/errs"
)

// crossQuantityGroups lists the sets of Quantity values this package
// treats as "intra-convertible" despite not being the same Quantity: Energy
// and its apparent/reactive siblings. COUNTER/FACTOR/NUMBER/PERCENTAGE need
// no separate group here because they all carry Quantity Dimensionless
// already, so the a == b check below covers them.
var crossQuantityGroups = [][]Quantity{
	{Energy, ReactiveEnergy, ApparentEnergy},
}

func quantityGroup(q Quantity) int {
	for i, group := range crossQuantityGroups {
		for _, g := range group {
			if g == q {
				return i
			}
		}
	}
	return -1
}

func compatibleQuantities(a, b Quantity) bool {
	if a == b {
		return true
	}
	ga, gb := quantityGroup(a), quantityGroup(b)
	return ga != -1 && ga == gb
}

// QuantitiesCompatible exports compatibleQuantities for callers outside
// this package that need the same Quantity/cross-quantity-group rule —
// the formula engine's Add/Sub type-check, which works on SIUnit
// descriptors that may have no concrete Unit enum value (e.g. the result
// of multiplying two energies together).
func QuantitiesCompatible(a, b Quantity) bool {
	return compatibleQuantities(a, b)
}

// Convert converts value from unit `from` to unit `to`. It succeeds iff the
// two units' SIExp vectors are equal and either they share a Quantity or
// fall in the same cross-quantity group. Temperature units are
// routed to the affine ConvertTemperature path instead.
func Convert(value float64, from, to Unit) (float64, error) {
	if IsTemperatureUnit(from) || IsTemperatureUnit(to) {
		if !IsTemperatureUnit(from) || !IsTemperatureUnit(to) {
			return 0, errs.New(errs.KindConversionError, "cannot convert between %s and %s", from, to)
		}
		return ConvertTemperature(value, from, to)
	}

	fromSI, toSI := Of(from), Of(to)
	if fromSI.Exp.Invalid || toSI.Exp.Invalid {
		return 0, errs.New(errs.KindOverflow, "cannot convert with an invalid (overflowed) unit")
	}
	if !fromSI.Exp.Equal(toSI.Exp) {
		return 0, errs.New(errs.KindConversionError, "cannot convert %s to %s: incompatible dimensions", from, to)
	}
	if !compatibleQuantities(fromSI.Quantity, toSI.Quantity) {
		return 0, errs.New(errs.KindConversionError, "cannot convert %s to %s: incompatible quantities", from, to)
	}
	return value * fromSI.Scalar / toSI.Scalar, nil
}

// ConvertTemperature performs the affine C/K/F conversions excluded from
// plain scalar arithmetic.
func ConvertTemperature(value float64, from, to Unit) (float64, error) {
	if !IsTemperatureUnit(from) || !IsTemperatureUnit(to) {
		return 0, errs.New(errs.KindConversionError, "%s or %s is not a temperature unit", from, to)
	}
	celsius, err := toCelsius(value, from)
	if err != nil {
		return 0, err
	}
	return fromCelsius(celsius, to)
}

func toCelsius(value float64, u Unit) (float64, error) {
	switch u {
	case C:
		return value, nil
	case K:
		return value - 273.15, nil
	case F:
		return (value - 32) * 5 / 9, nil
	default:
		return 0, errs.New(errs.KindConversionError, "%s is not a temperature unit", u)
	}
}

func fromCelsius(celsius float64, u Unit) (float64, error) {
	switch u {
	case C:
		return celsius, nil
	case K:
		return celsius + 273.15, nil
	case F:
		return celsius*9/5 + 32, nil
	default:
		return 0, errs.New(errs.KindConversionError, "%s is not a temperature unit", u)
	}
}
