package hydrocalm4

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/travnick/wmbusmeters/internal/dvparser"
	"github.com/travnick/wmbusmeters/internal/meter"
)

func TestDetectMatchesBMTHeatMeter(t *testing.T) {
	def := Def()
	require.True(t, def.Detect(manufacturerBMT, deviceTypeHeat, 0x13))
	require.False(t, def.Detect(0x1234, deviceTypeHeat, 0x13))
	require.False(t, def.Detect(manufacturerBMT, 0x07, 0x13))
}

func TestDecodesHeatingCoolingAndTemperature(t *testing.T) {
	payload := []byte{
		0x01, 0x06, 0x2D, // heating energy, tariff 0: 45 kWh
		0x81, 0x10, 0x06, 0x0C, // cooling energy, tariff 1: 12 kWh
		0x02, 0x5A, 0xC8, 0x00, // supply temperature: 200 * 0.1 = 20.0 C
	}
	entries, err := dvparser.Parse(payload)
	require.NoError(t, err)

	reg := meter.NewRegistry()
	require.NoError(t, reg.Register(Def()))

	result := meter.Analyze(reg, entries)
	require.Equal(t, "hydrocalm4", result.DriverName)
	require.InDelta(t, 45, result.Fields["total_heating_kwh"], 1e-9)
	require.InDelta(t, 12, result.Fields["total_cooling_kwh"], 1e-9)
	require.InDelta(t, 20.0, result.Fields["supply_temperature_c"], 1e-9)
}
