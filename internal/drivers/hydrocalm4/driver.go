// Package hydrocalm4 registers the driver for BMT Hydrocalm 4 heat/cooling
// meters, rebuilt on declarative fieldmatcher matchers instead of a raw
// VIF-byte switch over an aggregateValues struct.
package hydrocalm4

import (
	"github.com/travnick/wmbusmeters/internal/dvparser"
	"github.com/travnick/wmbusmeters/internal/fieldmatcher"
	"github.com/travnick/wmbusmeters/internal/meter"
	"github.com/travnick/wmbusmeters/internal/units"
)

// manufacturerBMT is BMT's wM-Bus manufacturer code, encoded little-endian
// as bytes 2-3 of every telegram this meter sends.
const manufacturerBMT = 0x09B4

// deviceTypeHeat is the device-type (media) byte BMT heat/cooling meters
// report in their link-layer header.
const deviceTypeHeat = 0x0D

func tariff(n uint32) *uint32 { return &n }
func subunit(n uint32) *uint32 { return &n }

// Def is the registered driver definition for component C10's registry.
func Def() meter.DriverDef {
	return meter.DriverDef{
		Name: "hydrocalm4",
		Detect: func(mfct uint16, media, version byte) bool {
			return mfct == manufacturerBMT && media == deviceTypeHeat
		},
		Fields: []meter.FieldInfo{
			{
				Name:    "device_datetime",
				Matcher: fieldmatcher.FieldMatcher{Ranges: []dvparser.VIFRange{dvparser.RangeDateTime}},
				Unit:    units.UnixTimestamp,
			},
			{
				Name: "total_heating_kwh",
				Matcher: fieldmatcher.FieldMatcher{
					Ranges:   []dvparser.VIFRange{dvparser.RangeEnergyWh, dvparser.RangeEnergyJ},
					TariffNr: tariff(0),
				},
				Unit: units.KWH,
			},
			{
				Name: "total_cooling_kwh",
				Matcher: fieldmatcher.FieldMatcher{
					Ranges:   []dvparser.VIFRange{dvparser.RangeEnergyWh, dvparser.RangeEnergyJ},
					TariffNr: tariff(1),
				},
				Unit: units.KWH,
			},
			{
				Name: "total_heating_m3",
				Matcher: fieldmatcher.FieldMatcher{
					Ranges:    []dvparser.VIFRange{dvparser.RangeVolume},
					TariffNr:  tariff(0),
					SubunitNr: subunit(0),
				},
				Unit: units.M3,
			},
			{
				Name: "total_cooling_m3",
				Matcher: fieldmatcher.FieldMatcher{
					Ranges:    []dvparser.VIFRange{dvparser.RangeVolume},
					TariffNr:  tariff(1),
					SubunitNr: subunit(0),
				},
				Unit: units.M3,
			},
			{
				Name: "c1_volume_m3",
				Matcher: fieldmatcher.FieldMatcher{
					Ranges:    []dvparser.VIFRange{dvparser.RangeVolume},
					SubunitNr: subunit(1),
				},
				Unit: units.M3,
			},
			{
				Name: "c2_volume_m3",
				Matcher: fieldmatcher.FieldMatcher{
					Ranges:    []dvparser.VIFRange{dvparser.RangeVolume},
					SubunitNr: subunit(2),
				},
				Unit: units.M3,
			},
			{
				Name:    "volume_flow_m3h",
				Matcher: fieldmatcher.FieldMatcher{Ranges: []dvparser.VIFRange{dvparser.RangeVolumeFlow, dvparser.RangeVolumeFlowExt}},
				Unit:    units.M3H,
			},
			{
				Name:    "power_kw",
				Matcher: fieldmatcher.FieldMatcher{Ranges: []dvparser.VIFRange{dvparser.RangePower}},
				Unit:    units.KW,
			},
			{
				Name:    "supply_temperature_c",
				Matcher: fieldmatcher.FieldMatcher{Ranges: []dvparser.VIFRange{dvparser.RangeFlowTemperature}},
				Unit:    units.C,
			},
			{
				Name:    "return_temperature_c",
				Matcher: fieldmatcher.FieldMatcher{Ranges: []dvparser.VIFRange{dvparser.RangeReturnTemperature}},
				Unit:    units.C,
			},
		},
	}
}
