package traits

import (
	"github.com/aristath/gridsched/internal/horizon"
	"github.com/aristath/gridsched/internal/param"
	"github.com/aristath/gridsched/internal/problem"
	"github.com/aristath/gridsched/internal/timeutil"
)

// SoftBound adds sign*var[t] - breach[t] <= sign*softcap[t] with
// breach >= 0, and breach[t] priced into the objective at Penalty
// (spec.md §4.4). Upper==true means Sign=+1; false means Sign=-1.
type SoftBound struct {
	Id      problem.Id
	H       horizon.Horizon
	Var     problem.Id
	SoftCap param.Param
	Penalty param.Param
	Upper   bool

	breachId problem.Id
}

func (s *SoftBound) ID() problem.Id { return s.Id }

func (s *SoftBound) sign() float64 {
	if s.Upper {
		return 1
	}
	return -1
}

func (s *SoftBound) Build(p *problem.Problem) error {
	s.breachId = suffixId(s.Id, "BREACH")
	n := s.H.NumPeriods()
	if err := p.AddVar(s.breachId, n); err != nil {
		return err
	}
	return p.AddLe(s.Id, n)
}

func (s *SoftBound) SetConstants(p *problem.Problem) error {
	sign := s.sign()
	for t := 1; t <= s.H.NumPeriods(); t++ {
		i := t - 1
		if err := p.SetConCoeff(s.Id, s.Var, i, i, sign); err != nil {
			return err
		}
		if err := p.SetConCoeff(s.Id, s.breachId, i, i, -1); err != nil {
			return err
		}
	}
	if s.Penalty.IsConstant() {
		if err := writeCapParam(s.H, s.Penalty, func(t int, v float64) error {
			return p.SetObjCoeff(s.breachId, t-1, v)
		}); err != nil {
			return err
		}
	}
	if !s.SoftCap.IsConstant() {
		return nil
	}
	sign = s.sign()
	return writeCapParam(s.H, s.SoftCap, func(t int, v float64) error {
		return p.SetRHSTerm(s.Id, s.Id, t-1, sign*v)
	})
}

func (s *SoftBound) Update(p *problem.Problem, pt timeutil.ProbTime) error {
	if !s.Penalty.IsConstant() {
		if err := updateCapParam(s.H, pt, s.Penalty,
			func(t int) (float64, error) { return p.GetObjCoeff(s.breachId, t-1) },
			func(t int, v float64) error { return p.SetObjCoeff(s.breachId, t-1, v) }); err != nil {
			return err
		}
	}
	if s.SoftCap.IsConstant() {
		return nil
	}
	sign := s.sign()
	return updateCapParam(s.H, pt, s.SoftCap,
		func(t int) (float64, error) {
			v, err := p.GetRHSTerm(s.Id, s.Id, t-1)
			if err != nil {
				return 0, err
			}
			return sign * v, nil
		},
		func(t int, v float64) error { return p.SetRHSTerm(s.Id, s.Id, t-1, sign*v) })
}
