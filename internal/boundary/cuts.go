package boundary

import (
	"fmt"

	"github.com/aristath/gridsched/internal/problem"
	"github.com/aristath/gridsched/internal/timeutil"
)

// CutState names one state variable a cut pool's slope vector applies
// to: the out-side variable/period in THIS problem whose value becomes
// next stage's in-state.
type CutState struct {
	VarId  problem.Id
	Period int
}

// ScenarioCut is one scenario's raw ingredients for a single-cut update:
// the scenario's objective value and, per state (same order as
// SimpleSingleCuts.States), the next stage's fix_var_dual and in-state
// value (spec.md §4.6: "constant_i = objective - sum(slope*in_state_value),
// slope_i = fix_var_dual of each state's in-variable").
type ScenarioCut struct {
	Objective      float64
	InStateValues  []float64
	FixVarDuals    []float64
}

// cutTermId is the shared rhs-term key every cut row's constant is
// stored under (one term per row, so composeRHS's sum is just that term).
var cutTermId = problem.Id{Concept: "CUT", Instance: "constant"}

// SimpleSingleCuts preallocates MaxCuts >= rows of shape
// future_cost >= constant + sum(slope_k * state_var_out_k), stored in a
// ring buffer indexed by cutix. UpdateCuts averages a round of scenario
// cuts (weighted by Probabilities) into the next ring slot; ClearCuts
// resets every slot to LowerBound with zero slopes (spec.md §4.6).
type SimpleSingleCuts struct {
	Id            problem.Id
	FutureCost    problem.Id
	States        []CutState
	MaxCuts       int
	LowerBound    float64
	Probabilities []float64

	cutix int
}

// ErrProbabilityMismatch is returned when a scenario-cut round's input
// count doesn't match the configured Probabilities length.
var ErrProbabilityMismatch = fmt.Errorf("scenario cut count does not match probabilities")

func (c *SimpleSingleCuts) Build(p *problem.Problem) error {
	return p.AddGe(c.Id, c.MaxCuts)
}

// SetConstants seeds every cut slot at the lower bound with zero slopes
// (the initial ClearCuts state) and writes the constant future-cost
// coefficient (always 1, every slot).
func (c *SimpleSingleCuts) SetConstants(p *problem.Problem) error {
	for k := 0; k < c.MaxCuts; k++ {
		if err := p.SetConCoeff(c.Id, c.FutureCost, k, 0, 1); err != nil {
			return err
		}
	}
	return c.ClearCuts(p)
}

func (c *SimpleSingleCuts) Update(*problem.Problem, timeutil.ProbTime) error { return nil }

// ClearCuts resets every cut slot to the lower bound with zero slopes.
func (c *SimpleSingleCuts) ClearCuts(p *problem.Problem) error {
	for k := 0; k < c.MaxCuts; k++ {
		for _, st := range c.States {
			if err := p.SetConCoeff(c.Id, st.VarId, k, st.Period, 0); err != nil {
				return err
			}
		}
		if err := p.SetRHSTerm(c.Id, cutTermId, k, c.LowerBound); err != nil {
			return err
		}
	}
	c.cutix = 0
	return nil
}

// UpdateCuts averages one round of scenario cuts into the next ring
// slot and advances cutix, wrapping at MaxCuts.
func (c *SimpleSingleCuts) UpdateCuts(p *problem.Problem, scenarios []ScenarioCut) error {
	if len(scenarios) != len(c.Probabilities) {
		return fmt.Errorf("%w: %d scenarios, %d probabilities", ErrProbabilityMismatch, len(scenarios), len(c.Probabilities))
	}
	slopes := make([]float64, len(c.States))
	var constant float64
	for i, sc := range scenarios {
		prob := c.Probabilities[i]
		rhs := sc.Objective
		for k := range c.States {
			rhs -= sc.FixVarDuals[k] * sc.InStateValues[k]
			slopes[k] += prob * sc.FixVarDuals[k]
		}
		constant += prob * rhs
	}

	k := c.cutix
	for i, st := range c.States {
		if err := p.SetConCoeff(c.Id, st.VarId, k, st.Period, -slopes[i]); err != nil {
			return err
		}
	}
	if err := p.SetRHSTerm(c.Id, cutTermId, k, constant); err != nil {
		return err
	}
	c.cutix = (c.cutix + 1) % c.MaxCuts
	return nil
}
