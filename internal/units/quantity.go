package units

// Quantity is the closed enumeration of physical kinds a value can carry.
type Quantity int

const (
	Dimensionless Quantity = iota
	Energy
	Power
	Volume
	Flow
	Temperature
	Time
	Length
	Mass
	Amperage
	Voltage
	Pressure
	Frequency
	Angle
	AmountOfSubstance
	LuminousIntensity
	RelativeHumidity
	HCA
	ApparentEnergy
	ReactiveEnergy
	PointInTime
	Text
)

func (q Quantity) String() string {
	switch q {
	case Energy:
		return "Energy"
	case Power:
		return "Power"
	case Volume:
		return "Volume"
	case Flow:
		return "Flow"
	case Temperature:
		return "Temperature"
	case Time:
		return "Time"
	case Length:
		return "Length"
	case Mass:
		return "Mass"
	case Amperage:
		return "Amperage"
	case Voltage:
		return "Voltage"
	case Pressure:
		return "Pressure"
	case Frequency:
		return "Frequency"
	case Angle:
		return "Angle"
	case AmountOfSubstance:
		return "AmountOfSubstance"
	case LuminousIntensity:
		return "LuminousIntensity"
	case RelativeHumidity:
		return "RelativeHumidity"
	case HCA:
		return "HCA"
	case ApparentEnergy:
		return "Apparent_Energy"
	case ReactiveEnergy:
		return "Reactive_Energy"
	case PointInTime:
		return "PointInTime"
	case Text:
		return "Text"
	default:
		return "Dimensionless"
	}
}

// quantityByExp maps a base SI exponent vector to the Quantity that owns it,
// used when a formula's Mul/Div produces a new exponent vector and the
// engine must deduce what physical kind the result represents.
var quantityByExp = map[SIExp]Quantity{
	NewSIExp(-2, 2, 1, 0, 0, 0, 0, 0, 0):  Energy,
	NewSIExp(-3, 2, 1, 0, 0, 0, 0, 0, 0):  Power,
	NewSIExp(0, 3, 0, 0, 0, 0, 0, 0, 0):   Volume,
	NewSIExp(-1, 3, 0, 0, 0, 0, 0, 0, 0):  Flow,
	NewSIExp(1, 0, 0, 0, 0, 0, 0, 0, 0):   Time,
	NewSIExp(0, 1, 0, 0, 0, 0, 0, 0, 0):   Length,
	NewSIExp(0, 0, 1, 0, 0, 0, 0, 0, 0):   Mass,
	NewSIExp(0, 0, 0, 1, 0, 0, 0, 0, 0):   Amperage,
	NewSIExp(-3, 2, 1, -1, 0, 0, 0, 0, 0): Voltage,
	NewSIExp(-2, -1, 1, 0, 0, 0, 0, 0, 0): Pressure,
	NewSIExp(-1, 0, 0, 0, 0, 0, 0, 0, 0):  Frequency,
	NewSIExp(0, 0, 0, 0, 1, 0, 0, 0, 0):   Temperature,
	NewSIExp(0, 0, 0, 0, 0, 1, 0, 0, 0):   AmountOfSubstance,
	NewSIExp(0, 0, 0, 0, 0, 0, 1, 0, 0):   LuminousIntensity,
	NewSIExp(0, 0, 0, 0, 0, 0, 0, 0, 0):   Dimensionless,
}

// deduceQuantity looks up exp in the quantity table, defaulting to
// Dimensionless for any exponent combination it does not recognize.
func deduceQuantity(exp SIExp) Quantity {
	if exp.Invalid {
		return Dimensionless
	}
	if q, ok := quantityByExp[exp]; ok {
		return q
	}
	return Dimensionless
}
