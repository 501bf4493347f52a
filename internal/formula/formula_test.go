package formula

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/travnick/wmbusmeters/internal/dvparser"
	"github.com/travnick/wmbusmeters/internal/units"
)

type nopCtx struct{}

func (nopCtx) FieldValue(name string) (float64, bool) { return 0, false }
func (nopCtx) Entry() (*dvparser.DVEntry, bool)       { return nil, false }

func TestAdditionSameUnit(t *testing.T) {
	f, err := Build("10 kwh + 100 kwh", nil)
	require.NoError(t, err)
	v, err := f.Calculate(nopCtx{}, units.KWH)
	require.NoError(t, err)
	require.Equal(t, 110.0, v)
}

func TestPowerTimesDurationYieldsEnergy(t *testing.T) {
	f, err := Build("5 kw * 10 h", nil)
	require.NoError(t, err)
	v, err := f.Calculate(nopCtx{}, units.KWH)
	require.NoError(t, err)
	require.InDelta(t, 50.0, v, 1e-9)
}

func TestSqrtOfSummedSquaresYieldsApparentEnergy(t *testing.T) {
	f, err := Build("sqrt((2 kwh * 2 kwh) + (3 kvarh * 3 kvarh))", nil)
	require.NoError(t, err)
	v, err := f.Calculate(nopCtx{}, units.KVAH)
	require.NoError(t, err)
	require.InDelta(t, 3.6055512754639891, v, 1e-9)
}

func TestDateMinusMonthsClampsToMonthEnd(t *testing.T) {
	f, err := Build("'2021-01-31' - 2month", nil)
	require.NoError(t, err)
	v, err := f.Calculate(nopCtx{}, units.UnixTimestamp)
	require.NoError(t, err)
	got := time.Unix(int64(v), 0).UTC()
	require.Equal(t, "2020-11-30", got.Format("2006-01-02"))
}

func TestDatePlusYearsLeapDayClamps(t *testing.T) {
	f, err := Build("'2000-02-29' + 100y", nil)
	require.NoError(t, err)
	v, err := f.Calculate(nopCtx{}, units.UnixTimestamp)
	require.NoError(t, err)
	got := time.Unix(int64(v), 0).UTC()
	require.Equal(t, "2100-02-28", got.Format("2006-01-02"))
}

func TestMismatchedAddProducesDiagnostic(t *testing.T) {
	_, err := Build("10 kwh + 20 kw", nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "Cannot add")
}

func TestDivisionByZero(t *testing.T) {
	f, err := Build("10 kwh / 0 kwh", nil)
	require.NoError(t, err)
	_, err = f.Calculate(nopCtx{}, units.NUMBER)
	require.Error(t, err)
}

type fieldCtx struct {
	values map[string]float64
}

func (c fieldCtx) FieldValue(name string) (float64, bool) {
	v, ok := c.values[name]
	return v, ok
}
func (c fieldCtx) Entry() (*dvparser.DVEntry, bool) { return nil, false }

type fieldResolver struct {
	units map[string]units.Unit
}

func (r fieldResolver) ResolveField(name string) (units.Unit, bool) {
	u, ok := r.units[name]
	return u, ok
}

func TestMeterFieldReference(t *testing.T) {
	resolver := fieldResolver{units: map[string]units.Unit{"total_energy": units.KWH}}
	f, err := Build("total_energy + 5 kwh", resolver)
	require.NoError(t, err)
	ctx := fieldCtx{values: map[string]float64{"total_energy": 12}}
	v, err := f.Calculate(ctx, units.KWH)
	require.NoError(t, err)
	require.Equal(t, 17.0, v)
}

func TestInterpolate(t *testing.T) {
	resolver := fieldResolver{units: map[string]units.Unit{"total_energy": units.KWH}}
	ctx := fieldCtx{values: map[string]float64{"total_energy": 12}}
	out, err := Interpolate("total is {total_energy + 5 kwh} kwh", resolver, ctx)
	require.NoError(t, err)
	require.Equal(t, "total is 17 kwh", out)
}

func TestInterpolateUnterminatedBrace(t *testing.T) {
	_, err := Interpolate("total is {total_energy", nil, nopCtx{})
	require.Error(t, err)
}
