package horizon

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/gridsched/internal/timeutil"
)

func TestExternalHorizonForwardsAndNoopsLifecycle(t *testing.T) {
	p := mustPeriods(t, []PeriodBlock{{N: 2, Duration: time.Hour}})
	inner := NewSequentialHorizon(p, 0)
	ext := NewExternalHorizon(inner)

	assert.Equal(t, inner.NumPeriods(), ext.NumPeriods())
	assert.NoError(t, ext.Build())
	assert.NoError(t, ext.Update(timeutil.New(time.Time{}, time.Time{})))

	td, err := ext.TimeDelta(1)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, td.Duration())
}

func TestShortenedHorizonReindexes(t *testing.T) {
	p := mustPeriods(t, []PeriodBlock{{N: 4, Duration: time.Hour}})
	inner := NewSequentialHorizon(p, 0)

	sh, err := NewShortenedHorizon(inner, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, sh.NumPeriods())

	sd, err := sh.StartDuration(1)
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), sd)

	sd, err = sh.StartDuration(2)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, sd)

	assert.Equal(t, 2*time.Hour, sh.Duration())
}

func TestShortenedHorizonConstructionBounds(t *testing.T) {
	p := mustPeriods(t, []PeriodBlock{{N: 2, Duration: time.Hour}})
	inner := NewSequentialHorizon(p, 0)

	_, err := NewShortenedHorizon(inner, 0, 1)
	assert.ErrorIs(t, err, ErrConstruction)

	_, err = NewShortenedHorizon(inner, 2, 1)
	assert.ErrorIs(t, err, ErrConstruction)

	_, err = NewShortenedHorizon(inner, 1, 3)
	assert.ErrorIs(t, err, ErrConstruction)
}

func TestShiftableHorizonEmitsHintsOnUnitAdvance(t *testing.T) {
	p := mustPeriods(t, []PeriodBlock{{N: 3, Duration: time.Hour}})
	inner := NewSequentialHorizon(p, 0)
	sh := NewShiftableHorizon(inner, time.Hour)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, sh.Update(timeutil.New(base, base)))

	from, ok := sh.MayShiftFrom(1)
	assert.False(t, ok)
	assert.Equal(t, -1, from)

	require.NoError(t, sh.Update(timeutil.New(base.Add(time.Hour), base.Add(time.Hour))))

	from, ok = sh.MayShiftFrom(1)
	assert.True(t, ok)
	assert.Equal(t, 2, from)
	assert.False(t, sh.MustUpdate(1))

	from, ok = sh.MayShiftFrom(2)
	assert.True(t, ok)
	assert.Equal(t, 3, from)

	// period 3 has no t+1, so it retains the generic fallback.
	_, ok = sh.MayShiftFrom(3)
	assert.False(t, ok)
}

func TestShiftableHorizonNoHintsWithoutUnitAdvance(t *testing.T) {
	p := mustPeriods(t, []PeriodBlock{{N: 2, Duration: time.Hour}})
	inner := NewSequentialHorizon(p, 0)
	sh := NewShiftableHorizon(inner, time.Hour)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, sh.Update(timeutil.New(base, base)))
	require.NoError(t, sh.Update(timeutil.New(base.Add(30*time.Minute), base.Add(30*time.Minute))))

	_, ok := sh.MayShiftFrom(1)
	assert.False(t, ok)
	assert.True(t, sh.MustUpdate(1))
}

func TestShrinkableHorizonFreezesOnIdenticalProbTime(t *testing.T) {
	p := mustPeriods(t, []PeriodBlock{{N: 2, Duration: 4 * time.Hour}})
	inner := NewSequentialHorizon(p, 0)
	sh, err := NewShrinkableHorizon(inner, []int{1, 2}, time.Hour)
	require.NoError(t, err)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	pt1 := timeutil.New(base, base)
	require.NoError(t, sh.Update(pt1))
	require.NoError(t, sh.Update(pt1))

	assert.False(t, sh.MustUpdate(1))
	assert.False(t, sh.MustUpdate(2))
}

func TestShrinkableHorizonShrinksWithinRemaining(t *testing.T) {
	p := mustPeriods(t, []PeriodBlock{{N: 2, Duration: 4 * time.Hour}})
	inner := NewSequentialHorizon(p, 0)
	sh, err := NewShrinkableHorizon(inner, []int{1, 2}, time.Hour)
	require.NoError(t, err)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, sh.Update(timeutil.New(base, base)))
	require.NoError(t, sh.Update(timeutil.New(base.Add(time.Hour), base.Add(time.Hour))))

	td1, err := sh.TimeDelta(1)
	require.NoError(t, err)
	assert.Equal(t, 3*time.Hour, td1.Duration())
	assert.True(t, sh.MustUpdate(1))
}

func TestShrinkableHorizonResetsAtFloorBoundaryWithShiftHints(t *testing.T) {
	p := mustPeriods(t, []PeriodBlock{{N: 2, Duration: 4 * time.Hour}})
	inner := NewSequentialHorizon(p, 0)
	sh, err := NewShrinkableHorizon(inner, []int{1, 2}, time.Hour)
	require.NoError(t, err)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, sh.Update(timeutil.New(base, base)))
	// remaining room = (4-1)+(4-1) = 6h; floor boundary = remaining + minperiod = 7h
	require.NoError(t, sh.Update(timeutil.New(base.Add(7*time.Hour), base.Add(7*time.Hour))))

	td1, err := sh.TimeDelta(1)
	require.NoError(t, err)
	assert.Equal(t, 4*time.Hour, td1.Duration())

	from, ok := sh.MayShiftFrom(1)
	assert.True(t, ok)
	assert.Equal(t, 2, from)
}

func TestShrinkableHorizonMustUpdateEverythingOnFirstCall(t *testing.T) {
	p := mustPeriods(t, []PeriodBlock{{N: 3, Duration: 4 * time.Hour}})
	inner := NewSequentialHorizon(p, 0)
	sh, err := NewShrinkableHorizon(inner, []int{1, 2}, time.Hour)
	require.NoError(t, err)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, sh.Update(timeutil.New(base, base)))

	// Period 3 is outside shrinkPeriods, but the probtime-dependent data
	// for the unshrunk tail must still be written at least once.
	assert.True(t, sh.MustUpdate(1))
	assert.True(t, sh.MustUpdate(2))
	assert.True(t, sh.MustUpdate(3))
}
