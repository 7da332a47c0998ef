package traits

import (
	"github.com/aristath/gridsched/internal/horizon"
	"github.com/aristath/gridsched/internal/param"
	"github.com/aristath/gridsched/internal/problem"
	"github.com/aristath/gridsched/internal/timeutil"
)

// TransmissionRamping introduces a sum-transmission variable
// s[t] = SecondFlow[t] - FirstFlow[t], two <= families
// +-(s[t]-s[t-1]) <= Cap[t], and a named fixable start variable s[0]
// (spec.md §4.4, "Ramping (transmission)").
type TransmissionRamping struct {
	Id         problem.Id
	H          horizon.Horizon
	FirstFlow  problem.Id
	SecondFlow problem.Id
	Cap        param.Param

	sumId      problem.Id
	startId    problem.Id
	upId       problem.Id
	downId     problem.Id
}

func (r *TransmissionRamping) ID() problem.Id { return r.Id }

// StartID is the name of the fixable sum-transmission start variable
// s[0]; boundary conditions reference it by this Id.
func (r *TransmissionRamping) StartID() problem.Id {
	if r.startId == (problem.Id{}) {
		r.names()
	}
	return r.startId
}

func (r *TransmissionRamping) names() {
	r.sumId = suffixId(r.Id, "SUMTRANS")
	r.startId = suffixId(r.Id, "SUMTRANS_START")
	r.upId = suffixId(r.Id, "RAMPUP")
	r.downId = suffixId(r.Id, "RAMPDOWN")
}

// Build adds s[1..T], s[0] (fixable), and the up/down ramp rows.
func (r *TransmissionRamping) Build(p *problem.Problem) error {
	r.names()
	n := r.H.NumPeriods()
	if err := p.AddVar(r.sumId, n); err != nil {
		return err
	}
	if err := p.AddVar(r.startId, 1); err != nil {
		return err
	}
	if err := p.MakeFixable(r.startId, 0); err != nil {
		return err
	}
	// s[t] = SecondFlow[t] - FirstFlow[t] is enforced as an equality
	// alongside the sum-transmission variable's own row, folded into the
	// up/down rows below via direct coefficients on FirstFlow/SecondFlow
	// rather than a separate defining equation, since only the
	// difference (not s itself as a standalone reading) is ever queried.
	if err := p.AddLe(r.upId, n); err != nil {
		return err
	}
	return p.AddLe(r.downId, n)
}

// priorSumColumn mirrors Storage.priorStateColumn: period 1's "previous"
// value lives in the start variable; later periods reference the sum
// variable's own prior column.
func (r *TransmissionRamping) priorSumColumn(t int) (problem.Id, int) {
	if t == 1 {
		return r.startId, 0
	}
	return r.sumId, t - 2
}

func (r *TransmissionRamping) setRowCoeffs(p *problem.Problem, t int) error {
	i := t - 1
	prevId, prevIdx := r.priorSumColumn(t)
	// +(s[t]-s[t-1]) <= cap[t]
	if err := p.SetConCoeff(r.upId, r.SecondFlow, i, i, 1); err != nil {
		return err
	}
	if err := p.SetConCoeff(r.upId, r.FirstFlow, i, i, -1); err != nil {
		return err
	}
	if err := p.SetConCoeff(r.upId, prevId, i, prevIdx, -1); err != nil {
		return err
	}
	// -(s[t]-s[t-1]) <= cap[t]
	if err := p.SetConCoeff(r.downId, r.SecondFlow, i, i, -1); err != nil {
		return err
	}
	if err := p.SetConCoeff(r.downId, r.FirstFlow, i, i, 1); err != nil {
		return err
	}
	return p.SetConCoeff(r.downId, prevId, i, prevIdx, 1)
}

// SetConstants writes the row topology (always constant — the flows
// and the prior-state reference don't vary) and the constant-cap RHS.
func (r *TransmissionRamping) SetConstants(p *problem.Problem) error {
	n := r.H.NumPeriods()
	for t := 1; t <= n; t++ {
		if err := r.setRowCoeffs(p, t); err != nil {
			return err
		}
	}
	if !r.Cap.IsConstant() {
		return nil
	}
	return writeCapParam(r.H, r.Cap, func(t int, v float64) error {
		i := t - 1
		if err := p.SetRHSTerm(r.upId, r.Id, i, v); err != nil {
			return err
		}
		return p.SetRHSTerm(r.downId, r.Id, i, v)
	})
}

// Update recomputes the cap RHS wherever it is non-constant.
func (r *TransmissionRamping) Update(p *problem.Problem, pt timeutil.ProbTime) error {
	if r.Cap.IsConstant() {
		return nil
	}
	return updateCapParam(r.H, pt, r.Cap,
		func(t int) (float64, error) { return p.GetRHSTerm(r.upId, r.Id, t-1) },
		func(t int, v float64) error {
			i := t - 1
			if err := p.SetRHSTerm(r.upId, r.Id, i, v); err != nil {
				return err
			}
			return p.SetRHSTerm(r.downId, r.Id, i, v)
		})
}

// HydroRamping is the hydro variant of ramping (spec.md §4.4,
// "Ramping (hydro)"). Without boundary state, only
// +-(flow[t]-flow[t-1]) <= cap[t] for t>=2. WithBoundary adds named
// start/end fixable variables and the last-period equality
// flow[T] = endflow.
type HydroRamping struct {
	Id           problem.Id
	H            horizon.Horizon
	Flow         problem.Id
	Cap          param.Param
	WithBoundary bool

	upId, downId     problem.Id
	startId, endId   problem.Id
	endEqId          problem.Id
}

func (r *HydroRamping) ID() problem.Id { return r.Id }

// StartID and EndID name the fixable boundary variables (WithBoundary
// only); boundary conditions reference them by these Ids.
func (r *HydroRamping) StartID() problem.Id {
	if r.WithBoundary && r.startId == (problem.Id{}) {
		r.names()
	}
	return r.startId
}

func (r *HydroRamping) EndID() problem.Id {
	if r.WithBoundary && r.endId == (problem.Id{}) {
		r.names()
	}
	return r.endId
}

// StateVariables exposes (start, end) as the (in, out) pair so a
// boundary condition (e.g. ConnectTwoObjects) can chain this ramp's
// reservoir level across horizons, mirroring model.Storage.
// WithBoundary-only; callers must check that first.
func (r *HydroRamping) StateVariables() (inId problem.Id, inPeriod int, outId problem.Id, outPeriod int) {
	return r.StartID(), 0, r.EndID(), 0
}

func (r *HydroRamping) names() {
	r.upId = suffixId(r.Id, "RAMPUP")
	r.downId = suffixId(r.Id, "RAMPDOWN")
	if r.WithBoundary {
		r.startId = suffixId(r.Id, "RAMPSTART")
		r.endId = suffixId(r.Id, "RAMPEND")
		r.endEqId = suffixId(r.Id, "RAMPENDEQ")
	}
}

func (r *HydroRamping) Build(p *problem.Problem) error {
	r.names()
	n := r.H.NumPeriods()
	rows := n - 1
	if r.WithBoundary {
		rows = n // period 1 also gets a row, referencing the start variable
	}
	if rows > 0 {
		if err := p.AddLe(r.upId, rows); err != nil {
			return err
		}
		if err := p.AddLe(r.downId, rows); err != nil {
			return err
		}
	}
	if !r.WithBoundary {
		return nil
	}
	if err := p.AddVar(r.startId, 1); err != nil {
		return err
	}
	if err := p.MakeFixable(r.startId, 0); err != nil {
		return err
	}
	if err := p.AddVar(r.endId, 1); err != nil {
		return err
	}
	if err := p.MakeFixable(r.endId, 0); err != nil {
		return err
	}
	return p.AddEq(r.endEqId, 1)
}

// rampRowStart returns the first period a ramp row exists for, and the
// row index offset to subtract from the period to get the row.
func (r *HydroRamping) rampRowStart() int {
	if r.WithBoundary {
		return 1
	}
	return 2
}

func (r *HydroRamping) priorFlowColumn(t int) (problem.Id, int) {
	if t == 1 {
		return r.startId, 0
	}
	return r.Flow, t - 2
}

func (r *HydroRamping) setRowCoeffs(p *problem.Problem, t int) error {
	row := t - r.rampRowStart()
	prevId, prevIdx := r.priorFlowColumn(t)
	if err := p.SetConCoeff(r.upId, r.Flow, row, t-1, 1); err != nil {
		return err
	}
	if err := p.SetConCoeff(r.upId, prevId, row, prevIdx, -1); err != nil {
		return err
	}
	if err := p.SetConCoeff(r.downId, r.Flow, row, t-1, -1); err != nil {
		return err
	}
	return p.SetConCoeff(r.downId, prevId, row, prevIdx, 1)
}

func (r *HydroRamping) SetConstants(p *problem.Problem) error {
	n := r.H.NumPeriods()
	for t := r.rampRowStart(); t <= n; t++ {
		if err := r.setRowCoeffs(p, t); err != nil {
			return err
		}
	}
	if r.WithBoundary {
		// flow[T] - endflow = 0
		if err := p.SetConCoeff(r.endEqId, r.Flow, 0, n-1, 1); err != nil {
			return err
		}
		if err := p.SetConCoeff(r.endEqId, r.endId, 0, 0, -1); err != nil {
			return err
		}
	}
	if !r.Cap.IsConstant() {
		return nil
	}
	return writeCapParam(r.H, r.Cap, func(t int, v float64) error {
		if t < r.rampRowStart() {
			return nil
		}
		row := t - r.rampRowStart()
		if err := p.SetRHSTerm(r.upId, r.Id, row, v); err != nil {
			return err
		}
		return p.SetRHSTerm(r.downId, r.Id, row, v)
	})
}

func (r *HydroRamping) Update(p *problem.Problem, pt timeutil.ProbTime) error {
	if r.Cap.IsConstant() {
		return nil
	}
	return updateCapParam(r.H, pt, r.Cap,
		func(t int) (float64, error) {
			if t < r.rampRowStart() {
				return 0, nil
			}
			return p.GetRHSTerm(r.upId, r.Id, t-r.rampRowStart())
		},
		func(t int, v float64) error {
			if t < r.rampRowStart() {
				return nil
			}
			row := t - r.rampRowStart()
			if err := p.SetRHSTerm(r.upId, r.Id, row, v); err != nil {
				return err
			}
			return p.SetRHSTerm(r.downId, r.Id, row, v)
		})
}
