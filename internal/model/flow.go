package model

import (
	"github.com/aristath/gridsched/internal/horizon"
	"github.com/aristath/gridsched/internal/param"
	"github.com/aristath/gridsched/internal/problem"
	"github.com/aristath/gridsched/internal/timeutil"
)

// Arrow is a directional connector from a Flow's variable to a Balance.
// Conversion scales the flow value before it lands on the balance row;
// Loss (optional — nil means no loss) adjusts that scaling further when
// ExogenousOther is set, matching the opposite side being priced rather
// than cleared.
type Arrow struct {
	Balance        problem.Id
	Ingoing        bool
	Conversion     param.Param
	Loss           param.Param // nil if lossless
	ExogenousOther bool
}

// coeffParam folds Conversion and Loss into the single Param whose value
// (times the ingoing/outgoing sign) becomes the arrow's matrix coefficient.
func (a Arrow) coeffParam() param.Param {
	if a.Loss == nil || !a.ExogenousOther {
		return a.Conversion
	}
	if a.Ingoing {
		return param.InConversionLoss(a.Conversion, a.Loss)
	}
	return param.OutConversionLoss(a.Conversion, a.Loss)
}

// LowerZero is the shared always-zero lower capacity, the spec's default
// for both Flow and Storage.
var LowerZero param.Param = param.Constant(0)

// Flow is a flow variable with one or more Arrows into surrounding
// Balances, bounded by an upper and lower Capacity, and costed by a
// SumCost. Its horizon H is supplied by the caller: neither assembly nor
// Flow derives it from the arrows' balances, and nothing checks that it
// is the finest among them.
type Flow struct {
	Id       problem.Id
	H        horizon.Horizon
	Arrows   []Arrow
	Upper    param.Param
	Lower    param.Param // defaults to LowerZero if nil
	Cost     *SumCost
	Metadata map[string]string
}

func (f *Flow) ID() problem.Id           { return f.Id }
func (f *Flow) Horizon() horizon.Horizon { return f.H }

func (f *Flow) lower() param.Param {
	if f.Lower == nil {
		return LowerZero
	}
	return f.Lower
}

// Build adds the flow's variable.
func (f *Flow) Build(p *problem.Problem) error {
	return p.AddVar(f.Id, f.H.NumPeriods())
}

// SetConstants writes constant-valued bounds, arrow coefficients, and
// SumCost objective entries.
func (f *Flow) SetConstants(p *problem.Problem) error {
	if err := writeCapacity(p, f.Id, f.H, f.Upper, p.SetUB); err != nil {
		return err
	}
	if err := writeCapacity(p, f.Id, f.H, f.lower(), p.SetLB); err != nil {
		return err
	}
	for _, a := range f.Arrows {
		cp := a.coeffParam()
		if !cp.IsConstant() {
			continue
		}
		sign := rhsSign(a.Ingoing)
		for t := 1; t <= f.H.NumPeriods(); t++ {
			delta, err := f.H.TimeDelta(t)
			if err != nil {
				return err
			}
			v, err := cp.Value(timeutil.ProbTime{}, delta)
			if err != nil {
				return err
			}
			if err := p.SetConCoeff(a.Balance, f.Id, t-1, t-1, sign*v); err != nil {
				return err
			}
		}
	}
	if f.Cost != nil {
		return f.Cost.writeConstants(p, f.Id, f.H)
	}
	return nil
}

// Update recomputes non-constant bounds, arrow coefficients, and costs.
func (f *Flow) Update(p *problem.Problem, pt timeutil.ProbTime) error {
	if err := updateCapacity(p, f.Id, f.H, pt, f.Upper, p.SetUB, p.GetUB); err != nil {
		return err
	}
	if err := updateCapacity(p, f.Id, f.H, pt, f.lower(), p.SetLB, p.GetLB); err != nil {
		return err
	}
	for _, a := range f.Arrows {
		cp := a.coeffParam()
		if cp.IsConstant() {
			continue
		}
		sign := rhsSign(a.Ingoing)
		if !cp.IsStateful() {
			for t := 1; t <= f.H.NumPeriods(); t++ {
				from, ok := f.H.MayShiftFrom(t)
				if !ok {
					continue
				}
				v, err := p.GetConCoeff(a.Balance, f.Id, from-1, from-1)
				if err != nil {
					return err
				}
				if err := p.SetConCoeff(a.Balance, f.Id, t-1, t-1, v); err != nil {
					return err
				}
			}
		}
		for t := 1; t <= f.H.NumPeriods(); t++ {
			if !cp.IsStateful() && !f.H.MustUpdate(t) {
				continue
			}
			delta, err := f.H.TimeDelta(t)
			if err != nil {
				return err
			}
			v, err := cp.Value(pt, delta)
			if err != nil {
				return err
			}
			if err := p.SetConCoeff(a.Balance, f.Id, t-1, t-1, sign*v); err != nil {
				return err
			}
		}
	}
	if f.Cost != nil {
		return f.Cost.writeUpdate(p, f.Id, f.H, pt)
	}
	return nil
}
