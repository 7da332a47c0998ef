package boundary

import (
	"github.com/aristath/gridsched/internal/problem"
	"github.com/aristath/gridsched/internal/timeutil"
)

// StartEqualStop adds, for each state variable (var_in, var_out) of Obj,
// one equality var_out - var_in = 0 (spec.md §4.6). The equality's
// coefficients are constant, so Build/SetConstants do all the work;
// Update is a no-op.
type StartEqualStop struct {
	Id  problem.Id
	Obj StateVariable
}

func (s *StartEqualStop) Build(p *problem.Problem) error {
	return p.AddEq(s.Id, 1)
}

func (s *StartEqualStop) SetConstants(p *problem.Problem) error {
	inId, inPeriod, outId, outPeriod := s.Obj.StateVariables()
	if err := p.SetConCoeff(s.Id, outId, 0, outPeriod, 1); err != nil {
		return err
	}
	return p.SetConCoeff(s.Id, inId, 0, inPeriod, -1)
}

func (s *StartEqualStop) Update(*problem.Problem, timeutil.ProbTime) error { return nil }
