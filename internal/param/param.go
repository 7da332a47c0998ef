// Package param implements the closed algebra of parameter expressions:
// constants, sign flips, products, level x profile series with unit
// conversion, fossil marginal cost, exogenous price x conversion x loss,
// a stateful wrapper, and confidence-weighted prognosis blending. Every
// Param evaluates to a finite float64 given a (ProbTime, TimeDelta).
package param

import (
	"errors"

	"github.com/aristath/gridsched/internal/timeutil"
)

// ErrDivisionByZero is returned when a loss-inverse param is evaluated
// with loss=1 (so 1-loss=0): InConversionLoss, OutConversionLoss,
// ExogenCost and ExogenIncome all guard against this rather than
// silently producing +/-Inf.
var ErrDivisionByZero = errors.New("division by zero")

// Param is the evaluation contract every combinator in this package
// implements. Capability flags bubble up compositionally so that
// the objects' Update passes can skip recomputation where it is provably
// unnecessary.
type Param interface {
	// Value evaluates the parameter at the given instant over the given
	// interval.
	Value(pt timeutil.ProbTime, delta timeutil.TimeDelta) (float64, error)
	// IsConstant reports whether Value never changes across calls.
	IsConstant() bool
	// IsOne reports whether this parameter is the multiplicative identity.
	IsOne() bool
	// IsZero reports whether this parameter is the additive identity.
	IsZero() bool
	// IsDurational reports whether Value depends on delta's duration
	// (not just on probtime) — e.g. an hour-product.
	IsDurational() bool
	// IsStateful reports whether Value must be recomputed on every
	// update! regardless of the horizon's shift hints.
	IsStateful() bool
}

// --- Leaf params -----------------------------------------------------

// zero is the additive-identity Param.
type zero struct{}

// Zero is the shared Zero() instance.
var Zero Param = zero{}

func (zero) Value(timeutil.ProbTime, timeutil.TimeDelta) (float64, error) { return 0, nil }
func (zero) IsConstant() bool                                             { return true }
func (zero) IsOne() bool                                                  { return false }
func (zero) IsZero() bool                                                 { return true }
func (zero) IsDurational() bool                                           { return false }
func (zero) IsStateful() bool                                             { return false }

type plusOne struct{}

// PlusOne is the shared PlusOne() instance.
var PlusOne Param = plusOne{}

func (plusOne) Value(timeutil.ProbTime, timeutil.TimeDelta) (float64, error) { return 1, nil }
func (plusOne) IsConstant() bool                                             { return true }
func (plusOne) IsOne() bool                                                  { return true }
func (plusOne) IsZero() bool                                                 { return false }
func (plusOne) IsDurational() bool                                          { return false }
func (plusOne) IsStateful() bool                                            { return false }

type minusOne struct{}

// MinusOne is the shared MinusOne() instance.
var MinusOne Param = minusOne{}

func (minusOne) Value(timeutil.ProbTime, timeutil.TimeDelta) (float64, error) { return -1, nil }
func (minusOne) IsConstant() bool                                             { return true }
func (minusOne) IsOne() bool                                                  { return false }
func (minusOne) IsZero() bool                                                 { return false }
func (minusOne) IsDurational() bool                                          { return false }
func (minusOne) IsStateful() bool                                           { return false }

// Constant wraps a fixed scalar.
type Constant float64

func (c Constant) Value(timeutil.ProbTime, timeutil.TimeDelta) (float64, error) {
	return float64(c), nil
}
func (c Constant) IsConstant() bool   { return true }
func (c Constant) IsOne() bool        { return float64(c) == 1 }
func (c Constant) IsZero() bool       { return float64(c) == 0 }
func (c Constant) IsDurational() bool { return false }
func (c Constant) IsStateful() bool   { return false }

// --- Combinators -------------------------------------------------------

// flipSign negates its operand. FlipSign(FlipSign(p)) simplifies to p at
// construction time rather than nesting two wrappers.
type flipSign struct{ inner Param }

// FlipSign returns -p, collapsing a double flip back to the inner param.
func FlipSign(p Param) Param {
	if fs, ok := p.(flipSign); ok {
		return fs.inner
	}
	return flipSign{inner: p}
}

func (f flipSign) Value(pt timeutil.ProbTime, d timeutil.TimeDelta) (float64, error) {
	v, err := f.inner.Value(pt, d)
	return -v, err
}
func (f flipSign) IsConstant() bool   { return f.inner.IsConstant() }
func (f flipSign) IsOne() bool        { return false }
func (f flipSign) IsZero() bool       { return f.inner.IsZero() }
func (f flipSign) IsDurational() bool { return f.inner.IsDurational() }
func (f flipSign) IsStateful() bool   { return f.inner.IsStateful() }

// twoProduct is the product of two params.
type twoProduct struct{ a, b Param }

// TwoProduct returns a*b.
func TwoProduct(a, b Param) Param { return twoProduct{a: a, b: b} }

func (p twoProduct) Value(pt timeutil.ProbTime, d timeutil.TimeDelta) (float64, error) {
	va, err := p.a.Value(pt, d)
	if err != nil {
		return 0, err
	}
	vb, err := p.b.Value(pt, d)
	if err != nil {
		return 0, err
	}
	return va * vb, nil
}
func (p twoProduct) IsConstant() bool   { return p.a.IsConstant() && p.b.IsConstant() }
func (p twoProduct) IsOne() bool        { return p.a.IsOne() && p.b.IsOne() }
func (p twoProduct) IsZero() bool       { return p.a.IsZero() || p.b.IsZero() }
func (p twoProduct) IsDurational() bool { return p.a.IsDurational() || p.b.IsDurational() }
func (p twoProduct) IsStateful() bool   { return p.a.IsStateful() || p.b.IsStateful() }

// hourProduct multiplies its operand by the interval's duration in hours.
type hourProduct struct{ inner Param }

// HourProduct returns p * delta.Hours().
func HourProduct(p Param) Param { return hourProduct{inner: p} }

func (h hourProduct) Value(pt timeutil.ProbTime, d timeutil.TimeDelta) (float64, error) {
	v, err := h.inner.Value(pt, d)
	if err != nil {
		return 0, err
	}
	return v * d.Hours(), nil
}
func (h hourProduct) IsConstant() bool   { return false }
func (h hourProduct) IsOne() bool        { return false }
func (h hourProduct) IsZero() bool       { return h.inner.IsZero() }
func (h hourProduct) IsDurational() bool { return true }
func (h hourProduct) IsStateful() bool   { return h.inner.IsStateful() }

// stateful wraps p so that it is always treated as requiring
// recomputation on every update!, bypassing the horizon shift pass even
// when the underlying value happens not to have changed.
type stateful struct{ inner Param }

// Stateful marks p as stateful.
func Stateful(p Param) Param { return stateful{inner: p} }

func (s stateful) Value(pt timeutil.ProbTime, d timeutil.TimeDelta) (float64, error) {
	return s.inner.Value(pt, d)
}
func (s stateful) IsConstant() bool   { return s.inner.IsConstant() }
func (s stateful) IsOne() bool        { return s.inner.IsOne() }
func (s stateful) IsZero() bool       { return s.inner.IsZero() }
func (s stateful) IsDurational() bool { return s.inner.IsDurational() }
func (s stateful) IsStateful() bool   { return true }
