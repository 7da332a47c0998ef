package param

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/gridsched/internal/timeseries"
	"github.com/aristath/gridsched/internal/timeutil"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func pt(d time.Duration) timeutil.ProbTime {
	return timeutil.New(epoch.Add(d), epoch.Add(d))
}

func TestFlipSignDoubleCollapses(t *testing.T) {
	c := Constant(5)
	once := FlipSign(c)
	twice := FlipSign(once)
	assert.Equal(t, Param(c), twice)
}

func TestFlipSignValue(t *testing.T) {
	v, err := FlipSign(Constant(5)).Value(pt(0), timeutil.FixedDuration(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, -5.0, v)
}

func TestTwoProductCapabilitiesBubbleUp(t *testing.T) {
	p := TwoProduct(Constant(2), Constant(3))
	assert.True(t, p.IsConstant())
	v, err := p.Value(pt(0), timeutil.FixedDuration(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 6.0, v)

	p2 := TwoProduct(Constant(2), Stateful(Constant(3)))
	assert.True(t, p2.IsStateful())
	assert.False(t, p2.IsConstant())
}

func TestHourProductIsDurational(t *testing.T) {
	p := HourProduct(Constant(10))
	assert.True(t, p.IsDurational())
	v, err := p.Value(pt(0), timeutil.FixedDuration(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 20.0, v)
}

func TestOutConversionLossDivisionByZero(t *testing.T) {
	_, err := OutConversionLoss(Constant(1), Constant(1)).Value(pt(0), timeutil.FixedDuration(time.Hour))
	assert.ErrorIs(t, err, ErrDivisionByZero)
}

func TestExogenCostDivisionByZero(t *testing.T) {
	_, err := ExogenCost(Constant(10), Constant(1), Constant(1)).Value(pt(0), timeutil.FixedDuration(time.Hour))
	assert.ErrorIs(t, err, ErrDivisionByZero)
}

func TestExogenIncomeAndCost(t *testing.T) {
	income, err := ExogenIncome(Constant(10), Constant(2), Constant(0.1)).Value(pt(0), timeutil.FixedDuration(time.Hour))
	require.NoError(t, err)
	assert.InDelta(t, 10*2*0.9, income, 1e-9)

	cost, err := ExogenCost(Constant(10), Constant(2), Constant(0.1)).Value(pt(0), timeutil.FixedDuration(time.Hour))
	require.NoError(t, err)
	assert.InDelta(t, 10*2/0.9, cost, 1e-9)
}

func TestMeanSeries(t *testing.T) {
	level, err := timeseries.NewInfinite([]time.Time{epoch}, []float64{2})
	require.NoError(t, err)
	profile, err := timeseries.NewInfinite([]time.Time{epoch}, []float64{3})
	require.NoError(t, err)
	v, err := MeanSeries(level, profile).Value(pt(0), timeutil.FixedDuration(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 6.0, v)
}

// Round-trip: prognosis at confidence=0 equals MeanSeries(level, profile).
func TestPrognosisConfidenceZeroEqualsMeanSeries(t *testing.T) {
	level, _ := timeseries.NewInfinite([]time.Time{epoch}, []float64{2})
	profile, _ := timeseries.NewInfinite([]time.Time{epoch}, []float64{5})
	prog, _ := timeseries.NewInfinite([]time.Time{epoch}, []float64{99})

	p := Prognosis(level, profile, prog, Constant(0))
	v, err := p.Value(pt(0), timeutil.FixedDuration(time.Hour))
	require.NoError(t, err)

	ref, err := MeanSeries(level, profile).Value(pt(0), timeutil.FixedDuration(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, ref, v)
}

// Round-trip: prognosis at confidence=1 with a fully-covering query equals
// the value computed with prognosis replacing profile under datatime sampling.
func TestPrognosisConfidenceOneFullyCovering(t *testing.T) {
	level, _ := timeseries.NewInfinite([]time.Time{epoch}, []float64{2})
	profile, _ := timeseries.NewInfinite([]time.Time{epoch}, []float64{5})
	prog, _ := timeseries.NewInfinite([]time.Time{epoch, epoch.Add(1000 * time.Hour)}, []float64{7, 7})

	p := Prognosis(level, profile, prog, Constant(1))
	v, err := p.Value(pt(0), timeutil.FixedDuration(time.Hour))
	require.NoError(t, err)

	want, err := MeanSeries(level, prog).Value(pt(0), timeutil.FixedDuration(time.Hour))
	require.NoError(t, err)
	assert.InDelta(t, want, v, 1e-9)
}

func TestStatefulAlwaysReportsStateful(t *testing.T) {
	assert.True(t, Stateful(Constant(1)).IsStateful())
	assert.False(t, Constant(1).IsStateful())
}
