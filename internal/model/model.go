// Package model implements the core graph of main objects — Balance,
// Flow, Storage — and the low-level value types (arrows, capacities,
// costs, conversions, losses) they compose, each exposing the
// build!/setconstants!/update! phase-correct contract over a Problem.
package model

import (
	"errors"

	"github.com/aristath/gridsched/internal/horizon"
	"github.com/aristath/gridsched/internal/param"
	"github.com/aristath/gridsched/internal/problem"
	"github.com/aristath/gridsched/internal/timeutil"
)

// Object is the contract every top-level model object (Balance, Flow,
// Storage) implements. Traits (see internal/traits) implement the same
// shape against a parent object's horizon.
type Object interface {
	ID() problem.Id
	Horizon() horizon.Horizon
	Build(p *problem.Problem) error
	SetConstants(p *problem.Problem) error
	Update(p *problem.Problem, pt timeutil.ProbTime) error
}

// ErrMissingHorizon is returned by assembly when a top-level object's
// horizon was never resolved (spec.md invariant 1).
var ErrMissingHorizon = errors.New("object has no horizon")

// SumCost aggregates named cost terms into one variable's per-period
// objective coefficient. When every term is constant the sum is written
// once in setconstants!; otherwise update! re-evaluates the whole sum,
// constant terms included, under the owner's horizon hint algebra.
type SumCost struct {
	Terms map[problem.Id]param.Param
}

// NewSumCost builds an empty cost aggregator; use Add to attach terms
// (including ones appended later by assembly, e.g. ExogenCost/Income).
func NewSumCost() *SumCost { return &SumCost{Terms: make(map[problem.Id]param.Param)} }

// Add attaches (or replaces) one named cost term.
func (c *SumCost) Add(id problem.Id, p param.Param) { c.Terms[id] = p }

func (c *SumCost) allConstant() bool {
	for _, p := range c.Terms {
		if !p.IsConstant() {
			return false
		}
	}
	return true
}

// writeConstants writes the objective coefficient for every period whose
// cost terms are entirely constant-valued.
func (c *SumCost) writeConstants(p *problem.Problem, owner problem.Id, h horizon.Horizon) error {
	if !c.allConstant() || len(c.Terms) == 0 {
		return nil
	}
	for t := 1; t <= h.NumPeriods(); t++ {
		delta, err := h.TimeDelta(t)
		if err != nil {
			return err
		}
		var sum float64
		for _, term := range c.Terms {
			v, err := term.Value(timeutil.ProbTime{}, delta)
			if err != nil {
				return err
			}
			sum += v
		}
		if err := p.SetObjCoeff(owner, t-1, sum); err != nil {
			return err
		}
	}
	return nil
}

// writeUpdate recomputes the objective coefficient for periods the
// horizon hints mark as needing it, shifting where possible.
func (c *SumCost) writeUpdate(p *problem.Problem, owner problem.Id, h horizon.Horizon, pt timeutil.ProbTime) error {
	if len(c.Terms) == 0 || c.allConstant() {
		return nil
	}
	anyStateful := false
	for _, term := range c.Terms {
		if term.IsStateful() {
			anyStateful = true
			break
		}
	}
	if !anyStateful {
		for t := 1; t <= h.NumPeriods(); t++ {
			if from, ok := h.MayShiftFrom(t); ok {
				v, err := p.GetObjCoeff(owner, from-1)
				if err != nil {
					return err
				}
				if err := p.SetObjCoeff(owner, t-1, v); err != nil {
					return err
				}
			}
		}
	}
	for t := 1; t <= h.NumPeriods(); t++ {
		if !anyStateful && !h.MustUpdate(t) {
			continue
		}
		delta, err := h.TimeDelta(t)
		if err != nil {
			return err
		}
		var sum float64
		for _, term := range c.Terms {
			v, err := term.Value(pt, delta)
			if err != nil {
				return err
			}
			sum += v
		}
		if err := p.SetObjCoeff(owner, t-1, sum); err != nil {
			return err
		}
	}
	return nil
}

// writeCapacity writes a constant capacity as the lower or upper bound
// of owner's variable across all periods of h; a non-constant capacity is
// left untouched here and written by updateCapacity. set is p.SetLB or
// p.SetUB.
func writeCapacity(p *problem.Problem, owner problem.Id, h horizon.Horizon, capacity param.Param, set func(problem.Id, int, float64) error) error {
	if capacity.IsConstant() {
		v, err := capacity.Value(timeutil.ProbTime{}, timeutil.FixedDuration(0))
		if err != nil {
			return err
		}
		for t := 1; t <= h.NumPeriods(); t++ {
			if err := set(owner, t-1, v); err != nil {
				return err
			}
		}
		return nil
	}
	return nil
}

func updateCapacity(p *problem.Problem, owner problem.Id, h horizon.Horizon, pt timeutil.ProbTime, capacity param.Param, set func(problem.Id, int, float64) error, get func(problem.Id, int) (float64, error)) error {
	if capacity.IsConstant() {
		return nil
	}
	if !capacity.IsStateful() {
		for t := 1; t <= h.NumPeriods(); t++ {
			if from, ok := h.MayShiftFrom(t); ok {
				v, err := get(owner, from-1)
				if err != nil {
					return err
				}
				if err := set(owner, t-1, v); err != nil {
					return err
				}
			}
		}
	}
	for t := 1; t <= h.NumPeriods(); t++ {
		if !capacity.IsStateful() && !h.MustUpdate(t) {
			continue
		}
		delta, err := h.TimeDelta(t)
		if err != nil {
			return err
		}
		v, err := capacity.Value(pt, delta)
		if err != nil {
			return err
		}
		if err := set(owner, t-1, v); err != nil {
			return err
		}
	}
	return nil
}
