package boundary

import (
	"fmt"

	"github.com/aristath/gridsched/internal/problem"
	"github.com/aristath/gridsched/internal/timeutil"
)

// ConnectTwoObjects pairs Out's terminal state with In's initial state:
// out_obj.var_out - in_obj.var_in = 0 (spec.md §4.6). Both objects are
// required to be single-state-variable here — multi-state pairing is
// wired by the caller issuing one ConnectTwoObjects per state index.
type ConnectTwoObjects struct {
	Id  problem.Id
	Out StateVariable
	In  StateVariable
}

func (c *ConnectTwoObjects) Build(p *problem.Problem) error {
	return p.AddEq(c.Id, 1)
}

// ErrStateVariableMismatch is returned by SetConstants when Out or In is
// nil: since this type links exactly one pair, the same-state-variable-
// count check reduces to both sides existing.
var ErrStateVariableMismatch = fmt.Errorf("connected objects must expose matching state variables")

func (c *ConnectTwoObjects) SetConstants(p *problem.Problem) error {
	if c.Out == nil || c.In == nil {
		return ErrStateVariableMismatch
	}
	_, _, outId, outPeriod := c.Out.StateVariables()
	inId, inPeriod, _, _ := c.In.StateVariables()
	if err := p.SetConCoeff(c.Id, outId, 0, outPeriod, 1); err != nil {
		return err
	}
	return p.SetConCoeff(c.Id, inId, 0, inPeriod, -1)
}

func (c *ConnectTwoObjects) Update(*problem.Problem, timeutil.ProbTime) error { return nil }
