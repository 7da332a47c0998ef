// Package timeutil provides the duration and instant types that the rest
// of the kernel discretizes and evaluates against: TimeDelta (a span,
// fixed or unit-range based) and ProbTime (a multi-component instant
// carrying calendar time for level data and scenario time for profile
// data, with optional phase-in and prognosis components).
package timeutil

import (
	"fmt"
	"time"
)

// TimeDelta is a span of time used both to discretize a Horizon period
// and to drive a weighted-average TimeVector query over that period.
type TimeDelta interface {
	// Duration returns the total wall-clock span this delta covers.
	Duration() time.Duration
	// IsUnits reports whether this delta is unit-range based (an
	// AdaptiveHorizon block) rather than a single fixed span.
	IsUnits() bool
	// Hours is a convenience accessor used by HourProduct and its
	// derivatives (MWToGWh, M3SToMM3, ...).
	Hours() float64
}

// FixedDuration is a TimeDelta expressed directly as a time.Duration —
// the common case for SequentialHorizon periods.
type FixedDuration time.Duration

func (d FixedDuration) Duration() time.Duration { return time.Duration(d) }
func (d FixedDuration) IsUnits() bool            { return false }
func (d FixedDuration) Hours() float64           { return time.Duration(d).Hours() }

// UnitRange is an inclusive [From, To] range of integer unit indices into
// the unit grid of an AdaptiveHorizon macro period.
type UnitRange struct {
	From, To int
}

// Len returns the number of units the range spans.
func (r UnitRange) Len() int { return r.To - r.From + 1 }

// UnitsTimeDelta is the TimeDelta of one AdaptiveHorizon block: a unit
// duration plus the set of unit-grid ranges classified into that block.
// Its total duration is the sum of (range length) * unit across ranges.
type UnitsTimeDelta struct {
	Unit   time.Duration
	Ranges []UnitRange
}

func (u UnitsTimeDelta) Duration() time.Duration {
	var n int
	for _, r := range u.Ranges {
		n += r.Len()
	}
	return time.Duration(n) * u.Unit
}

func (u UnitsTimeDelta) IsUnits() bool  { return true }
func (u UnitsTimeDelta) Hours() float64 { return u.Duration().Hours() }

// NumUnits returns the number of individual unit slots this delta spans.
func (u UnitsTimeDelta) NumUnits() int {
	var n int
	for _, r := range u.Ranges {
		n += r.Len()
	}
	return n
}

// Validate checks range well-formedness: From <= To, non-negative, and
// pairwise non-overlapping. Overlap checking is O(n^2) but n (blocks per
// macro period) is always small.
func (u UnitsTimeDelta) Validate() error {
	if u.Unit <= 0 {
		return fmt.Errorf("%w: unit duration must be positive", ErrConstruction)
	}
	for i, r := range u.Ranges {
		if r.From < 0 || r.To < r.From {
			return fmt.Errorf("%w: invalid unit range [%d,%d]", ErrConstruction, r.From, r.To)
		}
		for j, other := range u.Ranges {
			if i == j {
				continue
			}
			if r.From <= other.To && other.From <= r.To {
				return fmt.Errorf("%w: overlapping unit ranges [%d,%d] and [%d,%d]", ErrConstruction, r.From, r.To, other.From, other.To)
			}
		}
	}
	return nil
}

// ErrConstruction is wrapped by all construction-time validation failures
// in this package (spec "construction error" kind).
var ErrConstruction = fmt.Errorf("construction error")

// Series is the minimal contract timeutil needs from a time-indexed
// value source (implemented by timeseries.TimeVector) to carry a
// phase-in weight vector without an import cycle between the two
// packages.
type Series interface {
	WeightedAverage(start time.Time, delta TimeDelta) (float64, error)
}

// ProbTime is a multi-component instant: datatime for level data,
// scenariotime for profile data, and optional phase-in / prognosis
// components used by the richer Param variants.
type ProbTime struct {
	DataTime     time.Time
	ScenarioTime time.Time

	// Phase-in extension (PhaseinTwoTime family).
	ScenarioTime1 time.Time
	ScenarioTime2 time.Time
	PhaseinVector Series
	hasPhasein    bool

	// Prognosis extension (PhaseinPrognosisTime).
	PrognosisDataTime time.Time
	hasPrognosis       bool
}

// New builds a plain ProbTime carrying only datatime/scenariotime.
func New(dataTime, scenarioTime time.Time) ProbTime {
	return ProbTime{DataTime: dataTime, ScenarioTime: scenarioTime}
}

// WithPhasein returns a copy carrying the two phase-in scenario times and
// the weight vector sampled to blend them.
func (p ProbTime) WithPhasein(t1, t2 time.Time, weights Series) ProbTime {
	p.ScenarioTime1 = t1
	p.ScenarioTime2 = t2
	p.PhaseinVector = weights
	p.hasPhasein = true
	return p
}

// WithPrognosis returns a copy carrying a prognosis datatime component.
func (p ProbTime) WithPrognosis(prognosisDataTime time.Time) ProbTime {
	p.PrognosisDataTime = prognosisDataTime
	p.hasPrognosis = true
	return p
}

// HasPhasein reports whether this instant carries phase-in components.
func (p ProbTime) HasPhasein() bool { return p.hasPhasein }

// HasPrognosis reports whether this instant carries a prognosis component.
func (p ProbTime) HasPrognosis() bool { return p.hasPrognosis }

// Advance returns a copy of p with both datatime and scenariotime shifted
// forward by d. Phase-in/prognosis components shift along with it — this
// is the operation Horizon wrappers use to detect "advanced by exactly
// one unit duration" in their update! hint logic.
func (p ProbTime) Advance(d time.Duration) ProbTime {
	p.DataTime = p.DataTime.Add(d)
	p.ScenarioTime = p.ScenarioTime.Add(d)
	if p.hasPhasein {
		p.ScenarioTime1 = p.ScenarioTime1.Add(d)
		p.ScenarioTime2 = p.ScenarioTime2.Add(d)
	}
	if p.hasPrognosis {
		p.PrognosisDataTime = p.PrognosisDataTime.Add(d)
	}
	return p
}
