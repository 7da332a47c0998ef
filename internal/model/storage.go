package model

import (
	"github.com/aristath/gridsched/internal/horizon"
	"github.com/aristath/gridsched/internal/param"
	"github.com/aristath/gridsched/internal/problem"
	"github.com/aristath/gridsched/internal/timeutil"
)

// Storage holds a volume variable x[1..T] plus a separate single-period
// fixable start-state variable x[0], and writes the net storage change
// x[t-1]-x[t] (decayed by 1-Loss, if any) into its Balance's row t.
type Storage struct {
	Id       problem.Id
	H        horizon.Horizon
	Balance  problem.Id
	Upper    param.Param
	Lower    param.Param // defaults to LowerZero if nil
	Loss     param.Param // nil if lossless
	Cost     *SumCost
	Metadata map[string]string

	startId problem.Id
}

func (s *Storage) ID() problem.Id           { return s.Id }
func (s *Storage) Horizon() horizon.Horizon { return s.H }

func (s *Storage) lower() param.Param {
	if s.Lower == nil {
		return LowerZero
	}
	return s.Lower
}

// StartID is the name of the single-period start-state fixable variable
// x[0]; assembly and boundary conditions reference it by this Id.
func (s *Storage) StartID() problem.Id { return s.startId }

// StateVariables returns the (in, out) variable-period pair boundary
// conditions link across horizons: x[0] (the start variable, period 0)
// as the initial state, and x[T] (the last volume period) as the
// terminal state.
func (s *Storage) StateVariables() (inId problem.Id, inPeriod int, outId problem.Id, outPeriod int) {
	return s.startId, 0, s.Id, s.H.NumPeriods() - 1
}

// decay returns 1-Loss (or the multiplicative identity if lossless).
func (s *Storage) decay() param.Param {
	if s.Loss == nil {
		return param.PlusOne
	}
	return twoTermSum{a: param.PlusOne, b: param.FlipSign(s.Loss)}
}

// twoTermSum is a minimal internal adapter summing two params; Storage is
// the only caller that needs "1 - loss" rather than one of the named
// conversion-loss combinators (those scale a flow value, not a retained
// fraction of standing volume).
type twoTermSum struct{ a, b param.Param }

func (t twoTermSum) Value(pt timeutil.ProbTime, d timeutil.TimeDelta) (float64, error) {
	av, err := t.a.Value(pt, d)
	if err != nil {
		return 0, err
	}
	bv, err := t.b.Value(pt, d)
	if err != nil {
		return 0, err
	}
	return av + bv, nil
}
func (t twoTermSum) IsConstant() bool   { return t.a.IsConstant() && t.b.IsConstant() }
func (t twoTermSum) IsOne() bool        { return false }
func (t twoTermSum) IsZero() bool       { return false }
func (t twoTermSum) IsDurational() bool { return t.a.IsDurational() || t.b.IsDurational() }
func (t twoTermSum) IsStateful() bool   { return t.a.IsStateful() || t.b.IsStateful() }

// Build adds the volume variable, the start-state variable, and makes the
// start variable fixable so boundary conditions can pin x[0].
func (s *Storage) Build(p *problem.Problem) error {
	if s.startId == (problem.Id{}) {
		s.startId = problem.Id{Concept: s.Id.Concept + "_START", Instance: s.Id.Instance}
	}
	if err := p.AddVar(s.Id, s.H.NumPeriods()); err != nil {
		return err
	}
	if err := p.AddVar(s.startId, 1); err != nil {
		return err
	}
	return p.MakeFixable(s.startId, 0)
}

// SetConstants writes constant-valued bounds and the constant-decay
// balance coefficients.
func (s *Storage) SetConstants(p *problem.Problem) error {
	if err := writeCapacity(p, s.Id, s.H, s.Upper, p.SetUB); err != nil {
		return err
	}
	if err := writeCapacity(p, s.Id, s.H, s.lower(), p.SetLB); err != nil {
		return err
	}
	decay := s.decay()
	if decay.IsConstant() {
		for t := 1; t <= s.H.NumPeriods(); t++ {
			delta, err := s.H.TimeDelta(t)
			if err != nil {
				return err
			}
			v, err := decay.Value(timeutil.ProbTime{}, delta)
			if err != nil {
				return err
			}
			if err := s.setBalanceRow(p, t, v, -1); err != nil {
				return err
			}
		}
	} else {
		for t := 1; t <= s.H.NumPeriods(); t++ {
			if err := s.setBalanceRow(p, t, 0, -1); err != nil {
				return err
			}
		}
	}
	if s.Cost != nil {
		return s.Cost.writeConstants(p, s.Id, s.H)
	}
	return nil
}

// setBalanceRow writes the period-t balance coefficients for both the
// prior-state column (decayVal) and the current-state column (coefficient
// always -1, the x[t] term never decays).
func (s *Storage) setBalanceRow(p *problem.Problem, t int, decayVal, selfCoeff float64) error {
	prevId, prevIdx := s.priorStateColumn(t)
	if err := p.SetConCoeff(s.Balance, prevId, t-1, prevIdx, decayVal); err != nil {
		return err
	}
	return p.SetConCoeff(s.Balance, s.Id, t-1, t-1, selfCoeff)
}

// priorStateColumn returns the variable Id/period-index holding x[t-1]:
// the start variable's single column for t==1, else the volume
// variable's own column t-2.
func (s *Storage) priorStateColumn(t int) (problem.Id, int) {
	if t == 1 {
		return s.startId, 0
	}
	return s.Id, t - 2
}

// Update recomputes the decay coefficient wherever it is non-constant.
func (s *Storage) Update(p *problem.Problem, pt timeutil.ProbTime) error {
	if err := updateCapacity(p, s.Id, s.H, pt, s.Upper, p.SetUB, p.GetUB); err != nil {
		return err
	}
	if err := updateCapacity(p, s.Id, s.H, pt, s.lower(), p.SetLB, p.GetLB); err != nil {
		return err
	}
	decay := s.decay()
	if !decay.IsConstant() {
		if !decay.IsStateful() {
			for t := 1; t <= s.H.NumPeriods(); t++ {
				from, ok := s.H.MayShiftFrom(t)
				if !ok {
					continue
				}
				fromId, fromIdx := s.priorStateColumn(from)
				v, err := p.GetConCoeff(s.Balance, fromId, from-1, fromIdx)
				if err != nil {
					return err
				}
				prevId, prevIdx := s.priorStateColumn(t)
				if err := p.SetConCoeff(s.Balance, prevId, t-1, prevIdx, v); err != nil {
					return err
				}
			}
		}
		for t := 1; t <= s.H.NumPeriods(); t++ {
			if !decay.IsStateful() && !s.H.MustUpdate(t) {
				continue
			}
			delta, err := s.H.TimeDelta(t)
			if err != nil {
				return err
			}
			v, err := decay.Value(pt, delta)
			if err != nil {
				return err
			}
			prevId, prevIdx := s.priorStateColumn(t)
			if err := p.SetConCoeff(s.Balance, prevId, t-1, prevIdx, v); err != nil {
				return err
			}
		}
	}
	if s.Cost != nil {
		return s.Cost.writeUpdate(p, s.Id, s.H, pt)
	}
	return nil
}
