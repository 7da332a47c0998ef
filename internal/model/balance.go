package model

import (
	"github.com/aristath/gridsched/internal/horizon"
	"github.com/aristath/gridsched/internal/param"
	"github.com/aristath/gridsched/internal/problem"
	"github.com/aristath/gridsched/internal/timeutil"
)

// rhsSign is the RHS-term sign convention: ingoing arrows add to the
// balance's right-hand side, outgoing arrows subtract.
func rhsSign(ingoing bool) float64 {
	if ingoing {
		return 1
	}
	return -1
}

// RHSTerm is one named contribution to a Balance's right-hand side: an
// exogenous supply/demand series entering (ingoing) or leaving the
// balance, independent of any Flow arrow wired to it.
type RHSTerm struct {
	TermId  problem.Id
	Ingoing bool
	Value   param.Param
}

// Balance is a commodity balance row: the spec.md §4.4 main object that
// every Flow arrow attaches to via its Ingoing/Balance fields, plus any
// exogenous RHSTerms. An endogenous balance (Price == nil) is a plain
// equality row with no variable of its own; an exogenous balance carries
// a Price parameter and is read by other objects rather than constrained.
type Balance struct {
	Id       problem.Id
	H        horizon.Horizon
	RHSTerms []RHSTerm

	// Price is non-nil for an exogenous balance: the commodity is priced
	// rather than cleared, and Build skips adding a constraint row.
	Price param.Param
}

func (b *Balance) ID() problem.Id          { return b.Id }
func (b *Balance) Horizon() horizon.Horizon { return b.H }

func (b *Balance) isExogenous() bool { return b.Price != nil }

// Build adds the balance's equality row (endogenous case only).
func (b *Balance) Build(p *problem.Problem) error {
	if b.isExogenous() {
		return nil
	}
	return p.AddEq(b.Id, b.H.NumPeriods())
}

// SetConstants writes the constant-valued RHS terms across every period.
func (b *Balance) SetConstants(p *problem.Problem) error {
	if b.isExogenous() {
		return nil
	}
	for _, term := range b.RHSTerms {
		if !term.Value.IsConstant() {
			continue
		}
		for t := 1; t <= b.H.NumPeriods(); t++ {
			delta, err := b.H.TimeDelta(t)
			if err != nil {
				return err
			}
			v, err := term.Value.Value(timeutil.ProbTime{}, delta)
			if err != nil {
				return err
			}
			if err := p.SetRHSTerm(b.Id, term.TermId, t-1, rhsSign(term.Ingoing)*v); err != nil {
				return err
			}
		}
	}
	return nil
}

// Update recomputes non-constant RHS terms, shifting a prior period's
// value forward where the horizon's hints say it is still valid and
// recomputing everywhere MustUpdate says it isn't.
func (b *Balance) Update(p *problem.Problem, pt timeutil.ProbTime) error {
	if b.isExogenous() {
		return nil
	}
	for _, term := range b.RHSTerms {
		if term.Value.IsConstant() {
			continue
		}
		sign := rhsSign(term.Ingoing)
		if !term.Value.IsStateful() {
			for t := 1; t <= b.H.NumPeriods(); t++ {
				from, ok := b.H.MayShiftFrom(t)
				if !ok {
					continue
				}
				v, err := p.GetRHSTerm(b.Id, term.TermId, from-1)
				if err != nil {
					return err
				}
				if err := p.SetRHSTerm(b.Id, term.TermId, t-1, v); err != nil {
					return err
				}
			}
		}
		for t := 1; t <= b.H.NumPeriods(); t++ {
			if !term.Value.IsStateful() && !b.H.MustUpdate(t) {
				continue
			}
			delta, err := b.H.TimeDelta(t)
			if err != nil {
				return err
			}
			v, err := term.Value.Value(pt, delta)
			if err != nil {
				return err
			}
			if err := p.SetRHSTerm(b.Id, term.TermId, t-1, sign*v); err != nil {
				return err
			}
		}
	}
	return nil
}
