package param

import (
	"time"

	"github.com/aristath/gridsched/internal/timeseries"
	"github.com/aristath/gridsched/internal/timeutil"
)

// scenarioValue evaluates a profile-like TimeVector against ProbTime's
// scenario time. When the instant carries phase-in components and
// ignorePhasein is false, it blends the two simultaneous scenario streams
// by the weight-averaged phase-in vector sampled at scenariotime1 over
// delta, clamping the short-circuit cases at 0 and 1.
func scenarioValue(profile timeseries.TimeVector, pt timeutil.ProbTime, d timeutil.TimeDelta, ignorePhasein bool) (float64, error) {
	if ignorePhasein || !pt.HasPhasein() {
		return profile.WeightedAverage(pt.ScenarioTime, d)
	}
	w, err := pt.PhaseinVector.WeightedAverage(pt.ScenarioTime1, d)
	if err != nil {
		return 0, err
	}
	if w <= 0 {
		return profile.WeightedAverage(pt.ScenarioTime1, d)
	}
	v1, err := profile.WeightedAverage(pt.ScenarioTime1, d)
	if err != nil {
		return 0, err
	}
	if w >= 1 {
		return profile.WeightedAverage(pt.ScenarioTime2, d)
	}
	v2, err := profile.WeightedAverage(pt.ScenarioTime2, d)
	if err != nil {
		return 0, err
	}
	return v1*(1-w) + v2*w, nil
}

// lastIndexTime returns the last instant a bounded series defines data
// for, and whether the series is bounded at all (Constant and Rotating
// vectors are not).
func lastIndexTime(tv timeseries.TimeVector) (time.Time, bool) {
	if b, ok := tv.(interface {
		LastIndexTime() (time.Time, bool)
	}); ok {
		return b.LastIndexTime()
	}
	return time.Time{}, false
}

// meanSeries is wavg(level, datatime, delta) * wavg(profile, scenariotime, delta).
type meanSeries struct {
	level, profile timeseries.TimeVector
	ignorePhasein  bool
}

// MeanSeries blends level (datatime-sampled) and profile (scenariotime-
// sampled, phase-in aware) into a single multiplicative value.
func MeanSeries(level, profile timeseries.TimeVector) Param {
	return meanSeries{level: level, profile: profile}
}

// MeanSeriesIgnorePhasein is MeanSeries but never blends across a
// phase-in pair even when the instant carries one.
func MeanSeriesIgnorePhasein(level, profile timeseries.TimeVector) Param {
	return meanSeries{level: level, profile: profile, ignorePhasein: true}
}

func (m meanSeries) Value(pt timeutil.ProbTime, d timeutil.TimeDelta) (float64, error) {
	lv, err := m.level.WeightedAverage(pt.DataTime, d)
	if err != nil {
		return 0, err
	}
	pv, err := scenarioValue(m.profile, pt, d, m.ignorePhasein)
	if err != nil {
		return 0, err
	}
	return lv * pv, nil
}
func (meanSeries) IsConstant() bool   { return false }
func (meanSeries) IsOne() bool        { return false }
func (meanSeries) IsZero() bool       { return false }
func (meanSeries) IsDurational() bool { return false }
func (meanSeries) IsStateful() bool   { return false }

// ummSeries is a piecewise blend of umm_profile (data-time-indexed
// "unavailability") and profile, transitioning at last(umm_profile.index).
type ummSeries struct {
	level, ummProfile, profile timeseries.TimeVector
}

// UMMSeries constructs the piecewise blend described in spec.md §4.3.
func UMMSeries(level, ummProfile, profile timeseries.TimeVector) Param {
	return ummSeries{level: level, ummProfile: ummProfile, profile: profile}
}

func (u ummSeries) Value(pt timeutil.ProbTime, d timeutil.TimeDelta) (float64, error) {
	lv, err := u.level.WeightedAverage(pt.DataTime, d)
	if err != nil {
		return 0, err
	}
	cutoff, bounded := lastIndexTime(u.ummProfile)
	var pv float64
	if !bounded || pt.DataTime.Before(cutoff) {
		pv, err = u.ummProfile.WeightedAverage(pt.DataTime, d)
	} else {
		pv, err = scenarioValue(u.profile, pt, d, false)
	}
	if err != nil {
		return 0, err
	}
	return lv * pv, nil
}
func (ummSeries) IsConstant() bool   { return false }
func (ummSeries) IsOne() bool        { return false }
func (ummSeries) IsZero() bool       { return false }
func (ummSeries) IsDurational() bool { return false }
func (ummSeries) IsStateful() bool   { return false }

// prognosis blends profile and prognosis series by a confidence factor,
// with a pure-profile tail continuation beyond the prognosis window.
type prognosis struct {
	level, profile, prognosisSeries timeseries.TimeVector
	confidence                      Param
}

// Prognosis constructs the confidence-weighted prognosis blend of
// spec.md §4.3.
func Prognosis(level, profile, prognosisSeries timeseries.TimeVector, confidence Param) Param {
	return prognosis{level: level, profile: profile, prognosisSeries: prognosisSeries, confidence: confidence}
}

func (p prognosis) Value(pt timeutil.ProbTime, d timeutil.TimeDelta) (float64, error) {
	lv, err := p.level.WeightedAverage(pt.DataTime, d)
	if err != nil {
		return 0, err
	}
	c, err := p.confidence.Value(pt, d)
	if err != nil {
		return 0, err
	}
	if c < 0 {
		c = 0
	} else if c > 1 {
		c = 1
	}

	cutoff, bounded := lastIndexTime(p.prognosisSeries)
	beyondWindow := bounded && !pt.DataTime.Before(cutoff)

	if c <= 0 || beyondWindow {
		pv, err := scenarioValue(p.profile, pt, d, false)
		if err != nil {
			return 0, err
		}
		return lv * pv, nil
	}

	queryEnd := pt.DataTime.Add(d.Duration())
	fullyCovered := !bounded || !queryEnd.After(cutoff)

	progTime := pt.DataTime
	if pt.HasPrognosis() {
		progTime = pt.PrognosisDataTime
	}
	pg, err := p.prognosisSeries.WeightedAverage(progTime, d)
	if err != nil {
		return 0, err
	}

	if c >= 1 && fullyCovered {
		return lv * pg, nil
	}

	pv, err := scenarioValue(p.profile, pt, d, false)
	if err != nil {
		return 0, err
	}
	if !fullyCovered {
		// Tail continuation: the part of the query beyond the prognosis
		// window falls back to pure profile for the whole interval.
		return lv * pv, nil
	}
	return lv * (pv*(1-c) + pg*c), nil
}
func (prognosis) IsConstant() bool   { return false }
func (prognosis) IsOne() bool        { return false }
func (prognosis) IsZero() bool       { return false }
func (prognosis) IsDurational() bool { return false }
func (prognosis) IsStateful() bool   { return false }
