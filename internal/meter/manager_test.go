package meter

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/travnick/wmbusmeters/internal/address"
	"github.com/travnick/wmbusmeters/internal/dvparser"
	"github.com/travnick/wmbusmeters/internal/fieldmatcher"
	"github.com/travnick/wmbusmeters/internal/obslog"
	"github.com/travnick/wmbusmeters/internal/units"
)

func testDriver() DriverDef {
	volumeRange := dvparser.RangeVolume
	return DriverDef{
		Name: "testdriver",
		Detect: func(mfct uint16, media, version byte) bool {
			return mfct == 0x09B4
		},
		Fields: []FieldInfo{
			{
				Name:    "total_volume",
				Matcher: fieldmatcher.FieldMatcher{Ranges: []dvparser.VIFRange{volumeRange}},
				Unit:    units.M3,
			},
		},
	}
}

func unencryptedTelegram() []byte {
	raw := []byte{0x00, 0x44, 0xB4, 0x09, 0x86, 0x86, 0x86, 0x86, 0x13, 0x07, 0x7A,
		0xF0, 0x00, 0x00, 0x00, // short TPL, security mode 0
		0x0B, 0x13, 0x56, 0x34, 0x12}
	raw[0] = byte(len(raw) - 1)
	return raw
}

func TestManagerHandlesConfiguredMeter(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(testDriver()))

	mgr := NewManager(reg, obslog.Discard())
	expr, err := address.ParseExpression("86868686")
	require.NoError(t, err)
	mi := NewMeterInfo("meter1", "testdriver", []address.AddressExpression{expr}, address.IdentityNone, nil)
	mgr.AddMeter(mi)

	results, err := mgr.Handle(unencryptedTelegram())
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.True(t, results[0].Handled)
	require.True(t, results[0].ExactMatch)

	v, ok := mi.FieldValue("total_volume")
	require.True(t, ok)
	require.InDelta(t, 123.456, v, 1e-9)
}

func TestManagerSpawnsMeterFromTemplate(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(testDriver()))

	mgr := NewManager(reg, obslog.Discard())
	wildcard, err := address.ParseExpression("*")
	require.NoError(t, err)
	tpl := NewMeterInfo("anymeter", "auto", []address.AddressExpression{wildcard}, address.IdentityID, nil)
	mgr.AddTemplate(tpl)

	results, err := mgr.Handle(unencryptedTelegram())
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.True(t, results[0].Handled)
	require.Len(t, mgr.Meters(), 1)

	spawned := mgr.Meters()[0]
	require.Len(t, spawned.Addresses, 2) // wildcard template expr + appended identity
	v, ok := spawned.FieldValue("total_volume")
	require.True(t, ok)
	require.InDelta(t, 123.456, v, 1e-9)

	// A second telegram from the same id should now route to the spawned
	// meter directly rather than spawning a duplicate.
	results2, err := mgr.Handle(unencryptedTelegram())
	require.NoError(t, err)
	require.Len(t, results2, 1)
	require.Len(t, mgr.Meters(), 1)
}

func TestManagerUnknownDriverLeavesMeterWithZeroFields(t *testing.T) {
	reg := NewRegistry()
	mgr := NewManager(reg, obslog.Discard())
	expr, err := address.ParseExpression("86868686")
	require.NoError(t, err)
	mi := NewMeterInfo("meter1", "auto", []address.AddressExpression{expr}, address.IdentityNone, nil)
	mgr.AddMeter(mi)

	results, err := mgr.Handle(unencryptedTelegram())
	require.NoError(t, err)
	require.True(t, results[0].Matched)
	require.False(t, mi.DriverResolved())
	require.Empty(t, mi.Fields())
}

func TestManagerRequiresKeyForEncryptedTelegram(t *testing.T) {
	reg := NewRegistry()
	mgr := NewManager(reg, obslog.Discard())
	expr, err := address.ParseExpression("86868686")
	require.NoError(t, err)
	mi := NewMeterInfo("meter1", "auto", []address.AddressExpression{expr}, address.IdentityNone, nil)
	mgr.AddMeter(mi)

	raw := []byte{0x00, 0x44, 0xB4, 0x09, 0x86, 0x86, 0x86, 0x86, 0x13, 0x07, 0x7A,
		0xF0, 0x00, 0x10, 0x05} // security mode 5
	raw = append(raw, make([]byte, 16)...)
	raw[0] = byte(len(raw) - 1)

	results, err := mgr.Handle(raw)
	require.NoError(t, err)
	require.False(t, results[0].Handled)
	require.Error(t, results[0].Err)
}
