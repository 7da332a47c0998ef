package boundary

import (
	"github.com/aristath/gridsched/internal/param"
	"github.com/aristath/gridsched/internal/problem"
	"github.com/aristath/gridsched/internal/timeutil"
)

// EndValueTarget names one variable-period whose objective coefficient
// EndValues overwrites — typically an object's last period or the out
// side of a state-variable pair.
type EndValueTarget struct {
	VarId  problem.Id
	Period int
	Value  param.Param
}

// EndValues writes the last-period objective coefficient of each target
// to -value, a cheap way to inject a terminal value function (spec.md
// §4.6). Build is a no-op: the variables already exist, this only
// overwrites an existing objective coefficient.
type EndValues struct {
	Targets []EndValueTarget
}

func (e *EndValues) Build(*problem.Problem) error { return nil }

func (e *EndValues) SetConstants(p *problem.Problem) error {
	for _, tgt := range e.Targets {
		if !tgt.Value.IsConstant() {
			continue
		}
		v, err := tgt.Value.Value(timeutil.ProbTime{}, timeutil.FixedDuration(0))
		if err != nil {
			return err
		}
		if err := p.SetObjCoeff(tgt.VarId, tgt.Period, -v); err != nil {
			return err
		}
	}
	return nil
}

func (e *EndValues) Update(p *problem.Problem, pt timeutil.ProbTime) error {
	for _, tgt := range e.Targets {
		if tgt.Value.IsConstant() {
			continue
		}
		v, err := tgt.Value.Value(pt, timeutil.FixedDuration(0))
		if err != nil {
			return err
		}
		if err := p.SetObjCoeff(tgt.VarId, tgt.Period, -v); err != nil {
			return err
		}
	}
	return nil
}
