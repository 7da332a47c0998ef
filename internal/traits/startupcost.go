package traits

import (
	"github.com/aristath/gridsched/internal/horizon"
	"github.com/aristath/gridsched/internal/param"
	"github.com/aristath/gridsched/internal/problem"
	"github.com/aristath/gridsched/internal/timeutil"
)

// StartUpCost prices a parent Flow's upward commitment jumps without a
// binary "on/off" variable (MIP is out of scope — spec.md §1 Non-goals):
// it adds a continuous start[t] >= (flow[t]-flow[t-1])/capacity for
// t=2..T, penalized in the objective at Cost. This is the standard
// convex relaxation of a startup-cost term: start[t] tracks the
// fractional upward commitment change rather than a 0/1 event, so it
// only ever costs what's needed to cover genuine ramp-ups.
type StartUpCost struct {
	Id       problem.Id
	H        horizon.Horizon
	Flow     problem.Id
	Capacity float64 // normalizing constant; must be > 0
	Cost     param.Param

	startId problem.Id
}

func (s *StartUpCost) ID() problem.Id { return s.Id }

func (s *StartUpCost) Build(p *problem.Problem) error {
	s.startId = suffixId(s.Id, "STARTUP")
	n := s.H.NumPeriods()
	rows := n - 1
	if rows <= 0 {
		return nil
	}
	if err := p.AddVar(s.startId, rows); err != nil {
		return err
	}
	return p.AddLe(s.Id, rows)
}

func (s *StartUpCost) SetConstants(p *problem.Problem) error {
	n := s.H.NumPeriods()
	for t := 2; t <= n; t++ {
		row := t - 2
		// start[t] - (flow[t]-flow[t-1])/capacity >= 0, i.e.
		// (flow[t-1]-flow[t])/capacity + start[t] >= 0, written as <=:
		// (flow[t]-flow[t-1])/capacity - start[t] <= 0
		inv := 1 / s.Capacity
		if err := p.SetConCoeff(s.Id, s.Flow, row, t-1, inv); err != nil {
			return err
		}
		if err := p.SetConCoeff(s.Id, s.Flow, row, t-2, -inv); err != nil {
			return err
		}
		if err := p.SetConCoeff(s.Id, s.startId, row, row, -1); err != nil {
			return err
		}
	}
	if !s.Cost.IsConstant() {
		return nil
	}
	return writeCapParam(s.H, s.Cost, func(t int, v float64) error {
		if t < 2 {
			return nil
		}
		return p.SetObjCoeff(s.startId, t-2, v)
	})
}

func (s *StartUpCost) Update(p *problem.Problem, pt timeutil.ProbTime) error {
	if s.Cost.IsConstant() {
		return nil
	}
	return updateCapParam(s.H, pt, s.Cost,
		func(t int) (float64, error) {
			if t < 2 {
				return 0, nil
			}
			return p.GetObjCoeff(s.startId, t-2)
		},
		func(t int, v float64) error {
			if t < 2 {
				return nil
			}
			return p.SetObjCoeff(s.startId, t-2, v)
		})
}
