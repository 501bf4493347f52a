package dvparser

import "github.com/travnick/wmbusmeters/internal/units"

// VIFKind distinguishes how the raw data bytes behind a VIF must be
// decoded, independent of the Quantity/Unit/exponent triple.
type VIFKind int

const (
	KindNumeric VIFKind = iota
	KindDate
	KindDateTime
	KindString
	KindManufacturerSpecific
)

// VIFRange names the specific EN 13757-3 table row a DVEntry's VIF resolved
// to, independent of the Quantity/Unit pair it carries — the "VIF range
// classifier" a DVEntry carries alongside its Quantity. A FieldMatcher matches
// on this when two rows share a Quantity but mean different things (flow vs.
// return temperature, instantaneous vs. averaged volume flow).
type VIFRange int

const (
	RangeNone VIFRange = iota
	RangeEnergyWh
	RangeEnergyJ
	RangeVolume
	RangeMass
	RangeOnTime
	RangeOperatingTime
	RangePower
	RangeVolumeFlow
	RangeVolumeFlowExt
	RangeMassFlow
	RangeFlowTemperature
	RangeReturnTemperature
	RangeTemperatureDifference
	RangeExternalTemperature
	RangePressure
	RangeDate
	RangeDateTime
	RangeHCAUnits
	RangeAveragingDuration
	RangeActualityDuration
	RangeFabricationNumber
	RangeModelVersion
	RangeBusAddress
	RangeString
	RangeAnyVIF
	RangeManufacturerSpecific
	RangeEnergyMWh
	RangeEnergyGJ
	RangeVolumeExt
	RangeMassExt
	RangeColdWarmTemperatureLimit
	RangeErrorFlags
	RangeAccessNumber
	RangeStorageInterval
	RangeDurationSinceReadout
)

// vifRangeEntry is one row of the base (non-extended) VIF table:
// "the low 7 bits select a table row defining a Quantity, a base Unit, and
// a decimal exponent".
type vifRangeEntry struct {
	Quantity units.Quantity
	Unit     units.Unit
	Exp      int
	Kind     VIFKind
	Range    VIFRange
}

// durationUnit picks among {Second, Minute, Hour, Day} by the low two bits
// of a VIF row, used by On Time / Operating Time / Averaging Duration /
// Actuality Duration (EN 13757-3 VIF ranges 0x20-0x27, 0x70-0x77).
func durationUnit(n byte) units.Unit {
	switch n & 0x03 {
	case 0:
		return units.Second
	case 1:
		return units.Minute
	case 2:
		return units.Hour
	default:
		return units.Day
	}
}

// classifyVIF resolves the base (non-extended) 7-bit VIF code to its table
// row, per the EN 13757-3 main VIF table.
func classifyVIF(vif byte) vifRangeEntry {
	switch {
	case vif <= 0x07: // Energy, Wh * 10^(n-3)
		return vifRangeEntry{units.Energy, units.KWH, int(vif&0x07) - 3 - 3, KindNumeric, RangeEnergyWh} // Wh->kWh: -3 extra
	case vif <= 0x0F: // Energy, J * 10^n
		return vifRangeEntry{units.Energy, units.MJ, int(vif&0x07) - 6, KindNumeric, RangeEnergyJ} // J->MJ: -6
	case vif <= 0x17: // Volume, m3 * 10^(n-6)
		return vifRangeEntry{units.Volume, units.M3, int(vif&0x07) - 6, KindNumeric, RangeVolume}
	case vif <= 0x1F: // Mass, kg * 10^(n-3)
		return vifRangeEntry{units.Mass, units.KG, int(vif&0x07) - 3, KindNumeric, RangeMass}
	case vif <= 0x23: // On Time
		return vifRangeEntry{units.Time, durationUnit(vif), 0, KindNumeric, RangeOnTime}
	case vif <= 0x27: // Operating Time
		return vifRangeEntry{units.Time, durationUnit(vif), 0, KindNumeric, RangeOperatingTime}
	case vif <= 0x2F: // Power, W * 10^(n-3)
		return vifRangeEntry{units.Power, units.KW, int(vif&0x07) - 3 - 3, KindNumeric, RangePower}
	case vif <= 0x37: // Power, J/h * 10^n -- approximated onto W via MJ/h not modeled; keep as KW scaled
		return vifRangeEntry{units.Power, units.KW, int(vif&0x07) - 6, KindNumeric, RangePower}
	case vif <= 0x3F: // Volume flow, m3/h * 10^(n-6)
		return vifRangeEntry{units.Flow, units.M3H, int(vif&0x07) - 6, KindNumeric, RangeVolumeFlow}
	case vif <= 0x47: // Volume flow ext, m3/min * 10^(n-7)
		return vifRangeEntry{units.Flow, units.M3H, int(vif&0x07) - 7, KindNumeric, RangeVolumeFlowExt}
	case vif <= 0x4F: // Volume flow ext, m3/s * 10^(n-9)
		return vifRangeEntry{units.Flow, units.M3H, int(vif&0x07) - 9, KindNumeric, RangeVolumeFlowExt}
	case vif <= 0x57: // Mass flow, kg/h * 10^(n-3)
		return vifRangeEntry{units.Mass, units.KG, int(vif&0x07) - 3, KindNumeric, RangeMassFlow}
	case vif <= 0x5B: // Flow temperature, C * 10^(n-3)
		return vifRangeEntry{units.Temperature, units.C, int(vif&0x03) - 3, KindNumeric, RangeFlowTemperature}
	case vif <= 0x5F: // Return temperature, C * 10^(n-3)
		return vifRangeEntry{units.Temperature, units.C, int(vif&0x03) - 3, KindNumeric, RangeReturnTemperature}
	case vif <= 0x63: // Temperature difference, K * 10^(n-3)
		return vifRangeEntry{units.Temperature, units.K, int(vif&0x03) - 3, KindNumeric, RangeTemperatureDifference}
	case vif <= 0x67: // External temperature, C * 10^(n-3)
		return vifRangeEntry{units.Temperature, units.C, int(vif&0x03) - 3, KindNumeric, RangeExternalTemperature}
	case vif <= 0x6B: // Pressure, bar * 10^(n-3)
		return vifRangeEntry{units.Pressure, units.BAR, int(vif&0x03) - 3, KindNumeric, RangePressure}
	case vif == 0x6C: // Date, type G
		return vifRangeEntry{units.PointInTime, units.UnixTimestamp, 0, KindDate, RangeDate}
	case vif == 0x6D: // Date-time, type F
		return vifRangeEntry{units.PointInTime, units.UnixTimestamp, 0, KindDateTime, RangeDateTime}
	case vif == 0x6E: // Units for H.C.A.
		return vifRangeEntry{units.HCA, units.HCAUnit, 0, KindNumeric, RangeHCAUnits}
	case vif == 0x6F: // Reserved
		return vifRangeEntry{units.Dimensionless, units.NUMBER, 0, KindNumeric, RangeNone}
	case vif <= 0x73: // Averaging duration
		return vifRangeEntry{units.Time, durationUnit(vif), 0, KindNumeric, RangeAveragingDuration}
	case vif <= 0x77: // Actuality duration
		return vifRangeEntry{units.Time, durationUnit(vif), 0, KindNumeric, RangeActualityDuration}
	case vif == 0x78: // Fabrication number
		return vifRangeEntry{units.Dimensionless, units.NUMBER, 0, KindNumeric, RangeFabricationNumber}
	case vif == 0x79: // Enhanced identification
		return vifRangeEntry{units.Dimensionless, units.NUMBER, 0, KindNumeric, RangeModelVersion}
	case vif == 0x7A: // Bus/address
		return vifRangeEntry{units.Dimensionless, units.NUMBER, 0, KindNumeric, RangeBusAddress}
	case vif == 0x7C: // VIF in ASCII string follows
		return vifRangeEntry{units.Text, units.UnitNone, 0, KindString, RangeString}
	case vif == 0x7E: // Any VIF, wildcard match-all
		return vifRangeEntry{units.Dimensionless, units.NUMBER, 0, KindNumeric, RangeAnyVIF}
	case vif == 0x7F: // Manufacturer specific
		return vifRangeEntry{units.Dimensionless, units.NUMBER, 0, KindManufacturerSpecific, RangeManufacturerSpecific}
	default: // 0x7B, 0x7D: FB/FD extension selector with no VIFE following it
		return vifRangeEntry{units.Dimensionless, units.NUMBER, 0, KindNumeric, RangeManufacturerSpecific}
	}
}

// classifyVIFExtFB resolves a VIFE low-7-bit code against the published "FB"
// (first) extension table, selected by a base VIF of 0x7B. Covers the rows
// the driver corpus actually emits; codes outside those ranges fall back to
// manufacturer-specific dimensionless rather than erroring, since the table
// has reserved gaps EN 13757-3 leaves unassigned.
func classifyVIFExtFB(vife byte) vifRangeEntry {
	n := vife & 0x7F
	switch {
	case n <= 0x07: // Energy, 10^n kWh (i.e. 10^(n-3) MWh)
		return vifRangeEntry{units.Energy, units.KWH, int(n), KindNumeric, RangeEnergyMWh}
	case n >= 0x10 && n <= 0x17: // Energy, 10^(n-3) GJ
		return vifRangeEntry{units.Energy, units.GJ, int(n&0x07) - 3, KindNumeric, RangeEnergyGJ}
	case n >= 0x28 && n <= 0x2F: // Volume, 10^n m3 (extended range)
		return vifRangeEntry{units.Volume, units.M3, int(n & 0x07), KindNumeric, RangeVolumeExt}
	case n >= 0x38 && n <= 0x3F: // Mass, 10^(n+3) kg (i.e. 10^n t)
		return vifRangeEntry{units.Mass, units.KG, int(n&0x07) + 3, KindNumeric, RangeMassExt}
	case n >= 0x78 && n <= 0x7F: // Cold/warm temperature limit, C * 10^(n-3)
		return vifRangeEntry{units.Temperature, units.C, int(n&0x07) - 3, KindNumeric, RangeColdWarmTemperatureLimit}
	default:
		return vifRangeEntry{units.Dimensionless, units.NUMBER, 0, KindManufacturerSpecific, RangeManufacturerSpecific}
	}
}

// classifyVIFExtFD resolves a VIFE low-7-bit code against the published "FD"
// (second) extension table, selected by a base VIF of 0x7D. Covers error
// flags, access number, model/version and the duration rows that show up in
// device alarm and maintenance fields.
func classifyVIFExtFD(vife byte) vifRangeEntry {
	n := vife & 0x7F
	switch {
	case n == 0x10: // Access number (transmission count)
		return vifRangeEntry{units.Dimensionless, units.NUMBER, 0, KindNumeric, RangeAccessNumber}
	case n == 0x14: // Model/version
		return vifRangeEntry{units.Dimensionless, units.NUMBER, 0, KindNumeric, RangeModelVersion}
	case n == 0x1F: // Error flags (binary)
		return vifRangeEntry{units.Dimensionless, units.NUMBER, 0, KindNumeric, RangeErrorFlags}
	case n >= 0x2C && n <= 0x2F: // Storage interval [sec, min, hour, day]
		return vifRangeEntry{units.Time, durationUnit(n), 0, KindNumeric, RangeStorageInterval}
	case n == 0x30: // Storage interval, month
		return vifRangeEntry{units.Time, units.Month, 0, KindNumeric, RangeStorageInterval}
	case n == 0x31: // Storage interval, year
		return vifRangeEntry{units.Time, units.Year, 0, KindNumeric, RangeStorageInterval}
	case n >= 0x68 && n <= 0x6B: // Duration since last readout [sec, min, hour, day]
		return vifRangeEntry{units.Time, durationUnit(n), 0, KindNumeric, RangeDurationSinceReadout}
	default:
		return vifRangeEntry{units.Dimensionless, units.NUMBER, 0, KindManufacturerSpecific, RangeManufacturerSpecific}
	}
}

// isExtensionSelector reports whether vif (the raw first VIF byte, extension
// bit included) selects one of the published extension VIF tables (FB/FD)
// rather than a base table row.
func isExtensionSelector(vif byte) bool {
	return vif == 0xFB || vif == 0xFD
}

// resolveVIF derives the effective table row for a VIF/VIFE sequence: FB/FD
// selectors consult the matching extension table via the first VIFE byte;
// anything else resolves against the base table directly. A selector with no
// following VIFE carries no extension row to consult and falls through to
// classifyVIF's own fallback for 0x7B/0x7D.
func resolveVIF(vifByte byte, vifeBytes []byte) vifRangeEntry {
	base := vifByte & 0x7F
	if len(vifeBytes) > 0 {
		switch {
		case base == 0x7B:
			return classifyVIFExtFB(vifeBytes[0])
		case base == 0x7D:
			return classifyVIFExtFD(vifeBytes[0])
		}
	}
	return classifyVIF(base)
}

// VIFCombinable is a modifier carried by a VIFE byte that refines the base
// VIF's meaning without changing its Quantity.
type VIFCombinable int

const (
	CombinableNone VIFCombinable = iota
	CombinableExtension
	CombinableDeltaBetweenImportAndExport
	CombinableValueDuringUpperLimitExceeded
	CombinableValueDuringLowerLimitExceeded
	CombinableAtError
	CombinableForwardFlow
	CombinableBackwardFlow
)

// vifeCombinables maps a subset of the orthogonal VIFE-extension table
// (EN 13757-3) to the VIFCombinable values this package defines.
// Codes not present here are still consumed (the VIFE chain always
// advances) but contribute no combinable flag.
var vifeCombinables = map[byte]VIFCombinable{
	0x1F: CombinableExtension,
	0x3A: CombinableValueDuringLowerLimitExceeded,
	0x3B: CombinableValueDuringUpperLimitExceeded,
	0x39: CombinableAtError,
	0x59: CombinableForwardFlow,
	0x5A: CombinableBackwardFlow,
	0x5B: CombinableDeltaBetweenImportAndExport,
}
