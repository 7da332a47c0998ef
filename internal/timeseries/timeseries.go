// Package timeseries implements immutable time-indexed numeric series
// with weighted-average queries over arbitrary intervals: Constant,
// Infinite (monotone index extending indefinitely) and Rotating (wraps
// within a bounded scenario window).
package timeseries

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aristath/gridsched/internal/timeutil"
)

// ErrEmptyQuery is returned when a weighted-average query is evaluated
// against a vector with no stored values.
var ErrEmptyQuery = errors.New("empty query")

// ErrInvalidVector is returned at construction time when the supplied
// index is not strictly sorted or its length disagrees with values.
var ErrInvalidVector = errors.New("invalid vector")

// TimeVector is the common contract of all three variants: a time-weighted
// mean of the piecewise-constant step function the index/values pairs
// define, over [start, start+duration(delta)].
type TimeVector interface {
	WeightedAverage(start time.Time, delta timeutil.TimeDelta) (float64, error)
}

// Constant always answers the same value regardless of query window.
type Constant float64

func (c Constant) WeightedAverage(time.Time, timeutil.TimeDelta) (float64, error) {
	return float64(c), nil
}

func mustStrictlySorted(index []time.Time) error {
	for i := 1; i < len(index); i++ {
		if !index[i].After(index[i-1]) {
			return fmt.Errorf("%w: index not strictly sorted at position %d", ErrInvalidVector, i)
		}
	}
	return nil
}

// stepValueAt returns the piecewise-constant value at t for an index that
// extends from -infinity (value[0]) to +infinity (value[last]).
func stepValueAt(index []time.Time, values []float64, t time.Time) float64 {
	i := sort.Search(len(index), func(i int) bool { return index[i].After(t) })
	if i == 0 {
		return values[0]
	}
	return values[i-1]
}

// nextBoundaryAfter returns the first index entry strictly after t, and
// whether one exists (false means the segment extends to +infinity).
func nextBoundaryAfter(index []time.Time, t time.Time) (time.Time, bool) {
	i := sort.Search(len(index), func(i int) bool { return index[i].After(t) })
	if i == len(index) {
		return time.Time{}, false
	}
	return index[i], true
}

// integrateOpenEnded computes the time-weighted mean of the step function
// over [start, end) where the function is defined for all time (Infinite).
func integrateOpenEnded(index []time.Time, values []float64, start, end time.Time) float64 {
	total := end.Sub(start)
	if total <= 0 {
		return stepValueAt(index, values, start)
	}
	var sum float64
	cur := start
	for cur.Before(end) {
		val := stepValueAt(index, values, cur)
		segEnd := end
		if next, ok := nextBoundaryAfter(index, cur); ok && next.Before(end) {
			segEnd = next
		}
		sum += val * segEnd.Sub(cur).Hours()
		cur = segEnd
	}
	return sum / total.Hours()
}
