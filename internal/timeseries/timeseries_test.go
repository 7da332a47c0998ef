package timeseries

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/gridsched/internal/timeutil"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestConstant(t *testing.T) {
	c := Constant(4.2)
	v, err := c.WeightedAverage(epoch, timeutil.FixedDuration(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 4.2, v)
}

func TestInfiniteConstructionRejectsUnsorted(t *testing.T) {
	_, err := NewInfinite([]time.Time{epoch, epoch}, []float64{1, 2})
	assert.ErrorIs(t, err, ErrInvalidVector)
}

func TestInfiniteEmptyQueryFails(t *testing.T) {
	iv, err := NewInfinite(nil, nil)
	require.NoError(t, err)
	_, err = iv.WeightedAverage(epoch, timeutil.FixedDuration(time.Hour))
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestInfiniteBeforeAndAfterUseEdgeValues(t *testing.T) {
	idx := []time.Time{epoch, epoch.Add(time.Hour), epoch.Add(2 * time.Hour)}
	iv, err := NewInfinite(idx, []float64{1, 2, 3})
	require.NoError(t, err)

	v, err := iv.WeightedAverage(epoch.Add(-10*time.Hour), timeutil.FixedDuration(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)

	v, err = iv.WeightedAverage(epoch.Add(100*time.Hour), timeutil.FixedDuration(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 3.0, v)
}

func TestInfiniteWeightedAverageAcrossSegments(t *testing.T) {
	idx := []time.Time{epoch, epoch.Add(time.Hour)}
	iv, err := NewInfinite(idx, []float64{0, 10})
	require.NoError(t, err)
	// query [epoch, epoch+2h): 1h at value 0, 1h at value 10 -> mean 5
	v, err := iv.WeightedAverage(epoch, timeutil.FixedDuration(2*time.Hour))
	require.NoError(t, err)
	assert.InDelta(t, 5.0, v, 1e-9)
}

func TestInfiniteUnitsTimeDelta(t *testing.T) {
	idx := []time.Time{epoch, epoch.Add(time.Hour)}
	iv, err := NewInfinite(idx, []float64{0, 10})
	require.NoError(t, err)
	ud := timeutil.UnitsTimeDelta{Unit: time.Hour, Ranges: []timeutil.UnitRange{{0, 0}, {1, 1}}}
	v, err := iv.WeightedAverage(epoch, ud)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, v, 1e-9)
}

// S2 from spec.md §8: SequentialPeriods [(3, 1h)], rotating vector
// index=[0h,1h,2h], values=[1,2,3], start=0h, stop=3h.
func TestRotatingScenarioS2(t *testing.T) {
	idx := []time.Time{epoch, epoch.Add(time.Hour), epoch.Add(2 * time.Hour)}
	rv, err := NewRotating(idx, []float64{1, 2, 3}, epoch, epoch.Add(3*time.Hour))
	require.NoError(t, err)

	avg, err := rv.WeightedAverage(epoch, timeutil.FixedDuration(3*time.Hour))
	require.NoError(t, err)
	assert.InDelta(t, 2.0, avg, 1e-9)

	wrapped, err := rv.WeightedAverage(epoch.Add(3*time.Hour), timeutil.FixedDuration(time.Hour))
	require.NoError(t, err)
	assert.InDelta(t, 1.0, wrapped, 1e-9)
}

func TestRotatingMultipleWraps(t *testing.T) {
	idx := []time.Time{epoch, epoch.Add(time.Hour), epoch.Add(2 * time.Hour)}
	rv, err := NewRotating(idx, []float64{1, 2, 3}, epoch, epoch.Add(3*time.Hour))
	require.NoError(t, err)
	// Query spans 2 full windows plus a partial third -> still well defined.
	avg, err := rv.WeightedAverage(epoch, timeutil.FixedDuration(7*time.Hour))
	require.NoError(t, err)
	assert.Greater(t, avg, 0.0)
}

func TestRotatingConstructionRejectsOutOfWindowIndex(t *testing.T) {
	idx := []time.Time{epoch.Add(-time.Hour)}
	_, err := NewRotating(idx, []float64{1}, epoch, epoch.Add(time.Hour))
	assert.ErrorIs(t, err, ErrInvalidVector)
}
