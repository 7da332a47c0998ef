// Package horizon discretizes time into numbered periods and exposes the
// shift-hint algebra (may_shift_from / must_update) that lets Problem.Update
// skip recomputing parameter values that are provably unchanged. Variants:
// SequentialHorizon (constant block durations), AdaptiveHorizon (macro
// periods subdivided into clustered blocks), and the Shrinkable/Shiftable/
// External/Shortened wrappers.
package horizon

import (
	"errors"
	"time"

	"github.com/aristath/gridsched/internal/timeutil"
)

// ErrConstruction covers malformed period lists, non-positive counts, and
// non-positive durations (spec "construction error" kind).
var ErrConstruction = errors.New("construction error")

// ErrNoAlignment is returned by EndPeriodFromDuration when no period
// boundary exactly matches the requested duration. The source strictly
// fails here rather than snapping to the nearest period (see DESIGN.md
// Open Question decisions).
var ErrNoAlignment = errors.New("no alignment")

// ErrFineNotDivisible is returned by GetSubperiods when the fine horizon's
// period boundaries do not align exactly with the coarse period's span.
var ErrFineNotDivisible = errors.New("fine not divisible")

// ErrSubperiodsUnsupported is returned by AdaptiveHorizon.GetSubperiods
// for any (coarse, fine) pair that is not the identical instance — cross-
// adaptive subperiod mapping is a documented restriction (spec.md §9).
var ErrSubperiodsUnsupported = errors.New("subperiod mapping unsupported for distinct adaptive horizons")

// Horizon is the contract every variant and wrapper implements.
type Horizon interface {
	// NumPeriods is the number of discretization periods, numbered 1..N.
	NumPeriods() int
	// Duration is the sum of all period durations.
	Duration() time.Duration
	// StartDuration is the accumulated duration before period t.
	StartDuration(t int) (time.Duration, error)
	// TimeDelta is the TimeDelta spanned by period t.
	TimeDelta(t int) (timeutil.TimeDelta, error)
	// StartTime is base (+ offset, if any) + StartDuration(t).
	StartTime(t int, base time.Time) (time.Time, error)
	// IsAdaptive reports whether this horizon classifies its periods from
	// data rather than from a static declaration.
	IsAdaptive() bool
	// HasConstantDurations reports whether period durations are stable
	// across update! cycles (true for Sequential, always false for Adaptive).
	HasConstantDurations() bool

	// MayShiftFrom reports, for period t, a previously-computed period
	// t' whose LP value is provably still correct for t. Generic
	// fallback: (-1, false).
	MayShiftFrom(t int) (int, bool)
	// MustUpdate reports whether period t's value must be recomputed.
	// Generic fallback: true.
	MustUpdate(t int) bool

	// Build performs any one-time data-dependent setup (only meaningful
	// for AdaptiveHorizon; a no-op for static variants).
	Build() error
	// Update re-parameterizes the horizon for a new probtime (only
	// meaningful for Adaptive/Shrinkable/Shiftable; a no-op otherwise).
	Update(pt timeutil.ProbTime) error
}

// genericHints is embedded by horizons that don't implement a smarter
// hint algebra, giving them the spec-mandated conservative fallback.
type genericHints struct{}

func (genericHints) MayShiftFrom(int) (int, bool) { return -1, false }
func (genericHints) MustUpdate(int) bool           { return true }

// noopLifecycle is embedded by horizons whose Build/Update are no-ops.
type noopLifecycle struct{}

func (noopLifecycle) Build() error                        { return nil }
func (noopLifecycle) Update(timeutil.ProbTime) error { return nil }
