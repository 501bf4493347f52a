package units

import "math"

// Unit is the closed enumeration of named units a DVEntry, field or formula
// result can be expressed in.
type Unit int

const (
	UnitNone Unit = iota
	KWH
	MJ
	GJ
	M3
	L
	KW
	M3H
	LH
	C
	K
	F
	Second
	Minute
	Hour
	Day
	Month
	Year
	V
	A
	BAR
	PA
	HZ
	DEGREE
	RADIAN
	COUNTER
	FACTOR
	NUMBER
	PERCENTAGE
	UnixTimestamp
	HCAUnit
	RH
	M3C
	M3CH
	MOL
	CD
	KG
	M
	KVARH
	KVAH
)

var unitNames = map[Unit]string{
	UnitNone: "none", KWH: "kwh", MJ: "mj", GJ: "gj", M3: "m3", L: "l", KW: "kw",
	M3H: "m3h", LH: "lh", C: "c", K: "k", F: "f", Second: "s", Minute: "min",
	Hour: "h", Day: "d", Month: "month", Year: "y", V: "v", A: "a", BAR: "bar",
	PA: "pa", HZ: "hz", DEGREE: "deg", RADIAN: "rad", COUNTER: "counter",
	FACTOR: "factor", NUMBER: "number", PERCENTAGE: "%", UnixTimestamp: "unix_timestamp",
	HCAUnit: "hca", RH: "rh", M3C: "m3c", M3CH: "m3ch", MOL: "mol", CD: "cd",
	KG: "kg", M: "m", KVARH: "kvarh", KVAH: "kvah",
}

// String renders the unit's canonical lower-case textual suffix, the form
// used by formula literals (e.g. "22kwh").
func (u Unit) String() string {
	if s, ok := unitNames[u]; ok {
		return s
	}
	return "unknown"
}

var unitSuffixes = invertUnitNames()

func invertUnitNames() map[string]Unit {
	m := make(map[string]Unit, len(unitNames))
	for u, s := range unitNames {
		m[s] = u
	}
	return m
}

// UnitBySuffix resolves a unit suffix to its Unit, used by the formula
// parser for a number's unit, whether glued to the number ("22kwh") or
// written as the next word ("22 kwh").
func UnitBySuffix(s string) (Unit, bool) {
	u, ok := unitSuffixes[s]
	return u, ok
}

// SIUnit carries a quantity tag, the scalar factor to the base SI
// representation, and the base exponent vector.
type SIUnit struct {
	Quantity Quantity
	Scalar   float64
	Exp      SIExp
}

func si(q Quantity, scalar float64, exp SIExp) SIUnit {
	return SIUnit{Quantity: q, Scalar: scalar, Exp: exp}
}

const julianYearSeconds = 365.25 * 86400

var unitTable = map[Unit]SIUnit{
	KWH:           si(Energy, 3_600_000, NewSIExp(-2, 2, 1, 0, 0, 0, 0, 0, 0)),
	MJ:            si(Energy, 1_000_000, NewSIExp(-2, 2, 1, 0, 0, 0, 0, 0, 0)),
	GJ:            si(Energy, 1_000_000_000, NewSIExp(-2, 2, 1, 0, 0, 0, 0, 0, 0)),
	KVARH:         si(ReactiveEnergy, 3_600_000, NewSIExp(-2, 2, 1, 0, 0, 0, 0, 0, 0)),
	KVAH:          si(ApparentEnergy, 3_600_000, NewSIExp(-2, 2, 1, 0, 0, 0, 0, 0, 0)),
	KW:            si(Power, 1_000, NewSIExp(-3, 2, 1, 0, 0, 0, 0, 0, 0)),
	M3:            si(Volume, 1, NewSIExp(0, 3, 0, 0, 0, 0, 0, 0, 0)),
	L:             si(Volume, 0.001, NewSIExp(0, 3, 0, 0, 0, 0, 0, 0, 0)),
	M3H:           si(Flow, 1.0/3600, NewSIExp(-1, 3, 0, 0, 0, 0, 0, 0, 0)),
	LH:            si(Flow, 0.001/3600, NewSIExp(-1, 3, 0, 0, 0, 0, 0, 0, 0)),
	M3C:           si(Volume, 1, NewSIExp(0, 3, 0, 0, 0, 0, 0, 1, 0)),
	M3CH:          si(Flow, 1.0/3600, NewSIExp(-1, 3, 0, 0, 0, 0, 0, 1, 0)),
	C:             si(Temperature, 1, NewSIExp(0, 0, 0, 0, 0, 0, 0, 1, 0)),
	K:             si(Temperature, 1, NewSIExp(0, 0, 0, 0, 1, 0, 0, 0, 0)),
	F:             si(Temperature, 1, NewSIExp(0, 0, 0, 0, 0, 0, 0, 1, 0)),
	Second:        si(Time, 1, NewSIExp(1, 0, 0, 0, 0, 0, 0, 0, 0)),
	Minute:        si(Time, 60, NewSIExp(1, 0, 0, 0, 0, 0, 0, 0, 0)),
	Hour:          si(Time, 3600, NewSIExp(1, 0, 0, 0, 0, 0, 0, 0, 0)),
	Day:           si(Time, 86400, NewSIExp(1, 0, 0, 0, 0, 0, 0, 0, 0)),
	Month:         si(Time, julianYearSeconds/12, NewSIExp(1, 0, 0, 0, 0, 0, 0, 0, 0)),
	Year:          si(Time, julianYearSeconds, NewSIExp(1, 0, 0, 0, 0, 0, 0, 0, 0)),
	V:             si(Voltage, 1, NewSIExp(-3, 2, 1, -1, 0, 0, 0, 0, 0)),
	A:             si(Amperage, 1, NewSIExp(0, 0, 0, 1, 0, 0, 0, 0, 0)),
	BAR:           si(Pressure, 100_000, NewSIExp(-2, -1, 1, 0, 0, 0, 0, 0, 0)),
	PA:            si(Pressure, 1, NewSIExp(-2, -1, 1, 0, 0, 0, 0, 0, 0)),
	HZ:            si(Frequency, 1, NewSIExp(-1, 0, 0, 0, 0, 0, 0, 0, 0)),
	DEGREE:        si(Angle, math.Pi/180, NewSIExp(0, 0, 0, 0, 0, 0, 0, 0, 0)),
	RADIAN:        si(Angle, 1, NewSIExp(0, 0, 0, 0, 0, 0, 0, 0, 0)),
	COUNTER:       si(Dimensionless, 1, NewSIExp(0, 0, 0, 0, 0, 0, 0, 0, 0)),
	FACTOR:        si(Dimensionless, 1, NewSIExp(0, 0, 0, 0, 0, 0, 0, 0, 0)),
	NUMBER:        si(Dimensionless, 1, NewSIExp(0, 0, 0, 0, 0, 0, 0, 0, 0)),
	PERCENTAGE:    si(Dimensionless, 1, NewSIExp(0, 0, 0, 0, 0, 0, 0, 0, 0)),
	UnixTimestamp: si(PointInTime, 1, NewSIExp(1, 0, 0, 0, 0, 0, 0, 0, 0)),
	HCAUnit:       si(HCA, 1, NewSIExp(0, 0, 0, 0, 0, 0, 0, 0, 0)),
	RH:            si(RelativeHumidity, 1, NewSIExp(0, 0, 0, 0, 0, 0, 0, 0, 0)),
	MOL:           si(AmountOfSubstance, 1, NewSIExp(0, 0, 0, 0, 0, 1, 0, 0, 0)),
	CD:            si(LuminousIntensity, 1, NewSIExp(0, 0, 0, 0, 0, 0, 1, 0, 0)),
	KG:            si(Mass, 1, NewSIExp(0, 0, 1, 0, 0, 0, 0, 0, 0)),
	M:             si(Length, 1, NewSIExp(0, 1, 0, 0, 0, 0, 0, 0, 0)),
}

// Of returns the SIUnit descriptor for a named unit. The zero value
// (Dimensionless, scalar 1, zero exponent) is returned for UnitNone so
// callers can treat "no unit yet" as an inert dimensionless quantity.
func Of(u Unit) SIUnit {
	if s, ok := unitTable[u]; ok {
		return s
	}
	return si(Dimensionless, 1, NewSIExp(0, 0, 0, 0, 0, 0, 0, 0, 0))
}

// IsTemperatureUnit reports whether u is one of the affine temperature
// scales, which cannot be converted with plain scalar multiplication.
func IsTemperatureUnit(u Unit) bool {
	return u == C || u == K || u == F
}

// Mul multiplies two SIUnit values, producing the SIExp product and
// deducing the resulting Quantity from the product exponent vector.
// Temperature units refuse multiplication by anything but a dimensionless
// scalar, since they are affine rather than linear.
func (s SIUnit) Mul(o SIUnit) SIUnit {
	if s.isAffineTemperature() && !o.Exp.IsZero() {
		return SIUnit{Exp: SIExp{Invalid: true}}
	}
	if o.isAffineTemperature() && !s.Exp.IsZero() {
		return SIUnit{Exp: SIExp{Invalid: true}}
	}
	exp := s.Exp.Mul(o.Exp)
	return SIUnit{Quantity: deduceQuantity(exp), Scalar: s.Scalar * o.Scalar, Exp: exp}
}

// Div divides two SIUnit values analogously to Mul.
func (s SIUnit) Div(o SIUnit) SIUnit {
	if s.isAffineTemperature() && !o.Exp.IsZero() {
		return SIUnit{Exp: SIExp{Invalid: true}}
	}
	if o.isAffineTemperature() && !s.Exp.IsZero() {
		return SIUnit{Exp: SIExp{Invalid: true}}
	}
	exp := s.Exp.Div(o.Exp)
	return SIUnit{Quantity: deduceQuantity(exp), Scalar: s.Scalar / o.Scalar, Exp: exp}
}

// Sqrt halves the exponent vector.
func (s SIUnit) Sqrt() SIUnit {
	exp := s.Exp.Sqrt()
	return SIUnit{Quantity: deduceQuantity(exp), Scalar: math.Sqrt(s.Scalar), Exp: exp}
}

func (s SIUnit) isAffineTemperature() bool {
	return s.Quantity == Temperature
}
