package param

import (
	"github.com/aristath/gridsched/internal/timeseries"
	"github.com/aristath/gridsched/internal/timeutil"
)

// --- Unit conversions ---------------------------------------------------

type m3sToMM3 struct{ inner Param }

// M3SToMM3 converts a m3/s value param to Mm3 over the interval:
// value * seconds * 1e-6.
func M3SToMM3(p Param) Param { return m3sToMM3{inner: p} }

// M3SToMM3Series is sugar for M3SToMM3(MeanSeries(level, profile)).
func M3SToMM3Series(level, profile timeseries.TimeVector) Param {
	return M3SToMM3(MeanSeries(level, profile))
}

func (m m3sToMM3) Value(pt timeutil.ProbTime, d timeutil.TimeDelta) (float64, error) {
	v, err := m.inner.Value(pt, d)
	if err != nil {
		return 0, err
	}
	seconds := d.Hours() * 3600
	return v * seconds * 1e-6, nil
}
func (m m3sToMM3) IsConstant() bool   { return false }
func (m m3sToMM3) IsOne() bool        { return false }
func (m m3sToMM3) IsZero() bool       { return m.inner.IsZero() }
func (m m3sToMM3) IsDurational() bool { return true }
func (m m3sToMM3) IsStateful() bool   { return m.inner.IsStateful() }

type mwToGWh struct{ inner Param }

// MWToGWh converts a MW value param to GWh over the interval:
// value * hours * 1e-3.
func MWToGWh(p Param) Param { return mwToGWh{inner: p} }

// MWToGWhSeries is sugar for MWToGWh(MeanSeries(level, profile)).
func MWToGWhSeries(level, profile timeseries.TimeVector) Param {
	return MWToGWh(MeanSeries(level, profile))
}

func (m mwToGWh) Value(pt timeutil.ProbTime, d timeutil.TimeDelta) (float64, error) {
	v, err := m.inner.Value(pt, d)
	if err != nil {
		return 0, err
	}
	return v * d.Hours() * 1e-3, nil
}
func (m mwToGWh) IsConstant() bool   { return false }
func (m mwToGWh) IsOne() bool        { return false }
func (m mwToGWh) IsZero() bool       { return m.inner.IsZero() }
func (m mwToGWh) IsDurational() bool { return true }
func (m mwToGWh) IsStateful() bool   { return m.inner.IsStateful() }

type costPerMWToGWh struct{ inner Param }

// CostPerMWToGWh converts a EUR/MW cost param to EUR/GWh: p / hours * 1e3.
func CostPerMWToGWh(p Param) Param { return costPerMWToGWh{inner: p} }

func (c costPerMWToGWh) Value(pt timeutil.ProbTime, d timeutil.TimeDelta) (float64, error) {
	v, err := c.inner.Value(pt, d)
	if err != nil {
		return 0, err
	}
	hours := d.Hours()
	if hours == 0 {
		return 0, ErrDivisionByZero
	}
	return v / hours * 1e3, nil
}
func (c costPerMWToGWh) IsConstant() bool   { return false }
func (c costPerMWToGWh) IsOne() bool        { return false }
func (c costPerMWToGWh) IsZero() bool       { return c.inner.IsZero() }
func (c costPerMWToGWh) IsDurational() bool { return true }
func (c costPerMWToGWh) IsStateful() bool   { return c.inner.IsStateful() }

// --- Fossil marginal cost ------------------------------------------------

// fossilMC computes (fl*fp + cf*cl*cp)/ef + vo, with fl/cf/cl/ef/vo sampled
// at datatime and cp/fp sampled at scenariotime (phase-in aware).
type fossilMC struct {
	fuelLevel, fuelProfile       timeseries.TimeVector
	co2Factor, co2Level          timeseries.TimeVector
	co2Profile                   timeseries.TimeVector
	efficiency, variableCost     timeseries.TimeVector
}

// FossilMC constructs the fossil marginal-cost param of spec.md §4.3.
func FossilMC(fuelLevel, fuelProfile, co2Factor, co2Level, co2Profile, efficiency, variableCost timeseries.TimeVector) Param {
	return fossilMC{
		fuelLevel: fuelLevel, fuelProfile: fuelProfile,
		co2Factor: co2Factor, co2Level: co2Level, co2Profile: co2Profile,
		efficiency: efficiency, variableCost: variableCost,
	}
}

func (f fossilMC) Value(pt timeutil.ProbTime, d timeutil.TimeDelta) (float64, error) {
	fl, err := f.fuelLevel.WeightedAverage(pt.DataTime, d)
	if err != nil {
		return 0, err
	}
	fp, err := scenarioValue(f.fuelProfile, pt, d, false)
	if err != nil {
		return 0, err
	}
	cf, err := f.co2Factor.WeightedAverage(pt.DataTime, d)
	if err != nil {
		return 0, err
	}
	cl, err := f.co2Level.WeightedAverage(pt.DataTime, d)
	if err != nil {
		return 0, err
	}
	cp, err := scenarioValue(f.co2Profile, pt, d, false)
	if err != nil {
		return 0, err
	}
	ef, err := f.efficiency.WeightedAverage(pt.DataTime, d)
	if err != nil {
		return 0, err
	}
	vo, err := f.variableCost.WeightedAverage(pt.DataTime, d)
	if err != nil {
		return 0, err
	}
	if ef == 0 {
		return 0, ErrDivisionByZero
	}
	return (fl*fp+cf*cl*cp)/ef + vo, nil
}
func (fossilMC) IsConstant() bool   { return false }
func (fossilMC) IsOne() bool        { return false }
func (fossilMC) IsZero() bool       { return false }
func (fossilMC) IsDurational() bool { return false }
func (fossilMC) IsStateful() bool   { return false }

// --- Exogenous cost/income and loss conversions --------------------------

func oneMinusLoss(loss Param, pt timeutil.ProbTime, d timeutil.TimeDelta) (float64, error) {
	lv, err := loss.Value(pt, d)
	if err != nil {
		return 0, err
	}
	denom := 1 - lv
	if denom == 0 {
		return 0, ErrDivisionByZero
	}
	return denom, nil
}

type exogenCost struct{ price, conv, loss Param }

// ExogenCost is price*conv/(1-loss).
func ExogenCost(price, conv, loss Param) Param { return exogenCost{price, conv, loss} }

func (e exogenCost) Value(pt timeutil.ProbTime, d timeutil.TimeDelta) (float64, error) {
	p, err := e.price.Value(pt, d)
	if err != nil {
		return 0, err
	}
	c, err := e.conv.Value(pt, d)
	if err != nil {
		return 0, err
	}
	denom, err := oneMinusLoss(e.loss, pt, d)
	if err != nil {
		return 0, err
	}
	return p * c / denom, nil
}
func (e exogenCost) IsConstant() bool {
	return e.price.IsConstant() && e.conv.IsConstant() && e.loss.IsConstant()
}
func (e exogenCost) IsOne() bool { return false }
func (e exogenCost) IsZero() bool {
	return e.price.IsZero() || e.conv.IsZero()
}
func (e exogenCost) IsDurational() bool {
	return e.price.IsDurational() || e.conv.IsDurational() || e.loss.IsDurational()
}
func (e exogenCost) IsStateful() bool {
	return e.price.IsStateful() || e.conv.IsStateful() || e.loss.IsStateful()
}

type exogenIncome struct{ price, conv, loss Param }

// ExogenIncome is price*conv*(1-loss).
func ExogenIncome(price, conv, loss Param) Param { return exogenIncome{price, conv, loss} }

func (e exogenIncome) Value(pt timeutil.ProbTime, d timeutil.TimeDelta) (float64, error) {
	p, err := e.price.Value(pt, d)
	if err != nil {
		return 0, err
	}
	c, err := e.conv.Value(pt, d)
	if err != nil {
		return 0, err
	}
	keep, err := oneMinusLoss(e.loss, pt, d)
	if err != nil {
		return 0, err
	}
	return p * c * keep, nil
}
func (e exogenIncome) IsConstant() bool {
	return e.price.IsConstant() && e.conv.IsConstant() && e.loss.IsConstant()
}
func (e exogenIncome) IsOne() bool { return false }
func (e exogenIncome) IsZero() bool {
	return e.price.IsZero() || e.conv.IsZero()
}
func (e exogenIncome) IsDurational() bool {
	return e.price.IsDurational() || e.conv.IsDurational() || e.loss.IsDurational()
}
func (e exogenIncome) IsStateful() bool {
	return e.price.IsStateful() || e.conv.IsStateful() || e.loss.IsStateful()
}

type inConversionLoss struct{ conv, loss Param }

// InConversionLoss is conv*(1-loss).
func InConversionLoss(conv, loss Param) Param { return inConversionLoss{conv, loss} }

func (c inConversionLoss) Value(pt timeutil.ProbTime, d timeutil.TimeDelta) (float64, error) {
	cv, err := c.conv.Value(pt, d)
	if err != nil {
		return 0, err
	}
	keep, err := oneMinusLoss(c.loss, pt, d)
	if err != nil {
		return 0, err
	}
	return cv * keep, nil
}
func (c inConversionLoss) IsConstant() bool   { return c.conv.IsConstant() && c.loss.IsConstant() }
func (c inConversionLoss) IsOne() bool        { return false }
func (c inConversionLoss) IsZero() bool       { return c.conv.IsZero() }
func (c inConversionLoss) IsDurational() bool { return c.conv.IsDurational() || c.loss.IsDurational() }
func (c inConversionLoss) IsStateful() bool   { return c.conv.IsStateful() || c.loss.IsStateful() }

type outConversionLoss struct{ conv, loss Param }

// OutConversionLoss is conv/(1-loss).
func OutConversionLoss(conv, loss Param) Param { return outConversionLoss{conv, loss} }

func (c outConversionLoss) Value(pt timeutil.ProbTime, d timeutil.TimeDelta) (float64, error) {
	cv, err := c.conv.Value(pt, d)
	if err != nil {
		return 0, err
	}
	denom, err := oneMinusLoss(c.loss, pt, d)
	if err != nil {
		return 0, err
	}
	return cv / denom, nil
}
func (c outConversionLoss) IsConstant() bool { return c.conv.IsConstant() && c.loss.IsConstant() }
func (c outConversionLoss) IsOne() bool      { return false }
func (c outConversionLoss) IsZero() bool     { return c.conv.IsZero() }
func (c outConversionLoss) IsDurational() bool {
	return c.conv.IsDurational() || c.loss.IsDurational()
}
func (c outConversionLoss) IsStateful() bool { return c.conv.IsStateful() || c.loss.IsStateful() }

type transmissionLossRHS struct{ cap, loss, util Param }

// TransmissionLossRHS is cap*loss*util, inheriting capability flags from
// cap alone (cap is the dominant, usually time-varying, term; loss and
// util are near-constant physical/availability factors in practice).
func TransmissionLossRHS(cap, loss, util Param) Param {
	return transmissionLossRHS{cap: cap, loss: loss, util: util}
}

func (t transmissionLossRHS) Value(pt timeutil.ProbTime, d timeutil.TimeDelta) (float64, error) {
	cv, err := t.cap.Value(pt, d)
	if err != nil {
		return 0, err
	}
	lv, err := t.loss.Value(pt, d)
	if err != nil {
		return 0, err
	}
	uv, err := t.util.Value(pt, d)
	if err != nil {
		return 0, err
	}
	return cv * lv * uv, nil
}
func (t transmissionLossRHS) IsConstant() bool   { return t.cap.IsConstant() }
func (t transmissionLossRHS) IsOne() bool        { return false }
func (t transmissionLossRHS) IsZero() bool       { return t.cap.IsZero() }
func (t transmissionLossRHS) IsDurational() bool { return t.cap.IsDurational() }
func (t transmissionLossRHS) IsStateful() bool   { return t.cap.IsStateful() }
