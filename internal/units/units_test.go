package units

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConvertEnergy(t *testing.T) {
	got, err := Convert(10, MJ, KWH)
	require.NoError(t, err)
	require.InDelta(t, 2.7777777777777777, got, 1e-9)
}

func TestConvertTime(t *testing.T) {
	got, err := Convert(3600, Second, Day)
	require.NoError(t, err)
	require.InDelta(t, 0.041666666666666664, got, 1e-12)
}

func TestConvertAngle(t *testing.T) {
	got, err := Convert(180, DEGREE, RADIAN)
	require.NoError(t, err)
	require.InDelta(t, math.Pi, got, 1e-12)
}

func TestConvertRoundTrip(t *testing.T) {
	pairs := []struct{ a, b Unit }{
		{KWH, MJ}, {M3, L}, {Hour, Second}, {BAR, PA},
	}
	for _, p := range pairs {
		v := 12.34
		mid, err := Convert(v, p.a, p.b)
		require.NoError(t, err)
		back, err := Convert(mid, p.b, p.a)
		require.NoError(t, err)
		require.InDelta(t, v, back, 1e-9*10)
	}
}

func TestConvertIncompatibleDimensions(t *testing.T) {
	_, err := Convert(1, KWH, M3)
	require.Error(t, err)
}

func TestConvertCrossQuantityEnergyFamily(t *testing.T) {
	got, err := Convert(10, KWH, KVARH)
	require.NoError(t, err)
	require.InDelta(t, 10, got, 1e-9)
}

func TestConvertDimensionlessFamily(t *testing.T) {
	got, err := Convert(42, COUNTER, PERCENTAGE)
	require.NoError(t, err)
	require.InDelta(t, 42, got, 1e-9)
}

func TestConvertTemperature(t *testing.T) {
	got, err := Convert(0, C, K)
	require.NoError(t, err)
	require.InDelta(t, 273.15, got, 1e-9)

	got, err = Convert(100, C, F)
	require.NoError(t, err)
	require.InDelta(t, 212, got, 1e-9)
}

func TestSIExpOverflowPoisons(t *testing.T) {
	e := NewSIExp(120, 0, 0, 0, 0, 0, 0, 0, 0)
	e2 := e.Mul(e)
	require.True(t, e2.Invalid)
	e3 := e2.Mul(NewSIExp(0, 0, 0, 0, 0, 0, 0, 0, 0))
	require.True(t, e3.Invalid)
}

func TestSqrtOddExponentInvalid(t *testing.T) {
	e := NewSIExp(1, 0, 0, 0, 0, 0, 0, 0, 0)
	require.True(t, e.Sqrt().Invalid)
}

func TestAddMonthsClampsToMonthEnd(t *testing.T) {
	jan31 := time.Date(2021, time.January, 31, 0, 0, 0, 0, time.UTC)
	got := AddMonths(jan31, -2)
	require.Equal(t, time.Date(2020, time.November, 30, 0, 0, 0, 0, time.UTC), got)
}

func TestAddYearsLeapClamp(t *testing.T) {
	leapDay := time.Date(2000, time.February, 29, 0, 0, 0, 0, time.UTC)
	got := AddYears(leapDay, 100)
	require.Equal(t, time.Date(2100, time.February, 28, 0, 0, 0, 0, time.UTC), got)
}
