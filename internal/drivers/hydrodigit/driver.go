// Package hydrodigit registers the driver for BMT Hydrodigit/Hydrolink
// water meters. Its standard-readings scan (total volume, type-F
// datetime) is exactly what the generic DIF/VIF walker and fieldmatcher
// already decode, so this driver only needs to declare the two fields by
// VIF range. A manufacturer-specific block decode (monthly totals, battery
// percentage, leak/freeze/empty-pipe dates) is not carried forward here —
// see DESIGN.md for why the fieldmatcher model has no hook for an opaque
// vendor binary block.
package hydrodigit

import (
	"github.com/travnick/wmbusmeters/internal/dvparser"
	"github.com/travnick/wmbusmeters/internal/fieldmatcher"
	"github.com/travnick/wmbusmeters/internal/meter"
	"github.com/travnick/wmbusmeters/internal/units"
)

// manufacturerBMT is BMT's wM-Bus manufacturer code.
const manufacturerBMT = 0x09B4

const (
	deviceTypeWater     = 0x07
	deviceTypeWarmWater = 0x06
)

// Def is the registered driver definition for component C10's registry.
func Def() meter.DriverDef {
	return meter.DriverDef{
		Name: "hydrodigit",
		Detect: func(mfct uint16, media, version byte) bool {
			return mfct == manufacturerBMT && (media == deviceTypeWater || media == deviceTypeWarmWater)
		},
		Fields: []meter.FieldInfo{
			{
				Name:    "total_m3",
				Matcher: fieldmatcher.FieldMatcher{Ranges: []dvparser.VIFRange{dvparser.RangeVolume}},
				Unit:    units.M3,
			},
			{
				Name:    "meter_datetime",
				Matcher: fieldmatcher.FieldMatcher{Ranges: []dvparser.VIFRange{dvparser.RangeDateTime}},
				Unit:    units.UnixTimestamp,
			},
		},
	}
}
