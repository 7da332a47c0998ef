// Package traits implements the small auxiliary objects that attach to
// one parent Flow/Storage and own their own named variables and
// constraints: Ramping (transmission and hydro variants), SoftBound, and
// StartUpCost. Each implements the same build!/setconstants!/update!
// contract as internal/model's main objects, against the parent's
// horizon.
package traits

import (
	"errors"

	"github.com/aristath/gridsched/internal/horizon"
	"github.com/aristath/gridsched/internal/param"
	"github.com/aristath/gridsched/internal/problem"
	"github.com/aristath/gridsched/internal/timeutil"
)

// ErrConstruction covers malformed trait configuration (mismatched
// horizon lengths, missing parent references).
var ErrConstruction = errors.New("construction error")

// Trait is the contract every auxiliary object in this package
// implements, mirroring internal/model.Object but scoped to a parent's
// horizon rather than owning one.
type Trait interface {
	ID() problem.Id
	Build(p *problem.Problem) error
	SetConstants(p *problem.Problem) error
	Update(p *problem.Problem, pt timeutil.ProbTime) error
}

// suffixId derives a trait's internal constraint/variable Id from its
// parent's Id and a fixed suffix, matching the teacher's convention of
// deriving sub-resource names from an owner key rather than inventing an
// independent naming scheme.
func suffixId(parent problem.Id, suffix string) problem.Id {
	return problem.Id{Concept: parent.Concept + "_" + suffix, Instance: parent.Instance}
}

// evalConstant evaluates a Param known to be constant, using a zero
// ProbTime and a zero-length delta (neither is read for a constant).
func evalConstant(p param.Param) (float64, error) {
	return p.Value(timeutil.ProbTime{}, timeutil.FixedDuration(0))
}

// writeCapParam writes a per-period Param across every period of h via
// set, evaluating it once per period under a zero ProbTime (the
// setconstants! pass — callers only invoke this for IsConstant params).
func writeCapParam(h horizon.Horizon, val param.Param, set func(t int, v float64) error) error {
	for t := 1; t <= h.NumPeriods(); t++ {
		delta, err := h.TimeDelta(t)
		if err != nil {
			return err
		}
		v, err := val.Value(timeutil.ProbTime{}, delta)
		if err != nil {
			return err
		}
		if err := set(t, v); err != nil {
			return err
		}
	}
	return nil
}

// updateCapParam runs the standard update! shift/recompute loop (spec.md
// §4.4) for a non-constant per-period Param.
func updateCapParam(h horizon.Horizon, pt timeutil.ProbTime, val param.Param, get func(t int) (float64, error), set func(t int, v float64) error) error {
	if !val.IsStateful() {
		for t := 1; t <= h.NumPeriods(); t++ {
			from, ok := h.MayShiftFrom(t)
			if !ok {
				continue
			}
			v, err := get(from)
			if err != nil {
				return err
			}
			if err := set(t, v); err != nil {
				return err
			}
		}
	}
	for t := 1; t <= h.NumPeriods(); t++ {
		if !val.IsStateful() && !h.MustUpdate(t) {
			continue
		}
		delta, err := h.TimeDelta(t)
		if err != nil {
			return err
		}
		v, err := val.Value(pt, delta)
		if err != nil {
			return err
		}
		if err := set(t, v); err != nil {
			return err
		}
	}
	return nil
}
