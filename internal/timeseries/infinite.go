package timeseries

import (
	"time"

	"github.com/aristath/gridsched/internal/timeutil"
)

// Infinite is a strictly-sorted (time, value) step function that extends
// indefinitely: queries before the first index use values[0], queries
// after the last use values[len-1].
type Infinite struct {
	index  []time.Time
	values []float64
}

// NewInfinite validates and constructs an Infinite time vector.
func NewInfinite(index []time.Time, values []float64) (*Infinite, error) {
	if len(index) != len(values) {
		return nil, ErrInvalidVector
	}
	if err := mustStrictlySorted(index); err != nil {
		return nil, err
	}
	return &Infinite{index: index, values: values}, nil
}

func (iv *Infinite) WeightedAverage(start time.Time, delta timeutil.TimeDelta) (float64, error) {
	if len(iv.values) == 0 {
		return 0, ErrEmptyQuery
	}
	if ud, ok := delta.(timeutil.UnitsTimeDelta); ok {
		return iv.weightedAverageUnits(start, ud)
	}
	end := start.Add(delta.Duration())
	return integrateOpenEnded(iv.index, iv.values, start, end), nil
}

// LastIndexTime returns the last instant this vector has explicit data
// for, used by UMMSeries/Prognosis to locate their transition point.
func (iv *Infinite) LastIndexTime() (time.Time, bool) {
	if len(iv.index) == 0 {
		return time.Time{}, false
	}
	return iv.index[len(iv.index)-1], true
}

func (iv *Infinite) weightedAverageUnits(start time.Time, ud timeutil.UnitsTimeDelta) (float64, error) {
	total := ud.Duration()
	if total <= 0 {
		return 0, ErrEmptyQuery
	}
	var sum float64
	for _, r := range ud.Ranges {
		rs := start.Add(time.Duration(r.From) * ud.Unit)
		re := start.Add(time.Duration(r.To+1) * ud.Unit)
		sum += integrateOpenEnded(iv.index, iv.values, rs, re) * re.Sub(rs).Hours()
	}
	return sum / total.Hours(), nil
}
