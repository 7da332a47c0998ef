package timeseries

import (
	"fmt"
	"time"

	"github.com/aristath/gridsched/internal/timeutil"
)

// Rotating is a strictly-sorted step function confined to a scenario
// window [start, stop) that repeats periodically: a query time is mapped
// into the window, then integrated, correctly crossing the window
// boundary any number of times the query spans.
type Rotating struct {
	index       []time.Time
	values      []float64
	start, stop time.Time
}

// NewRotating validates and constructs a Rotating time vector. index must
// be strictly sorted and fall within [start, stop).
func NewRotating(index []time.Time, values []float64, start, stop time.Time) (*Rotating, error) {
	if len(index) != len(values) {
		return nil, ErrInvalidVector
	}
	if !stop.After(start) {
		return nil, fmt.Errorf("%w: stop must be after start", ErrInvalidVector)
	}
	if err := mustStrictlySorted(index); err != nil {
		return nil, err
	}
	for _, t := range index {
		if t.Before(start) || !t.Before(stop) {
			return nil, fmt.Errorf("%w: index entry %s outside [start,stop)", ErrInvalidVector, t)
		}
	}
	return &Rotating{index: index, values: values, start: start, stop: stop}, nil
}

// mapIntoWindow projects t into [start, stop) by reducing its offset from
// start modulo the window period. This is the deterministic counterpart
// of getsimilardatetime(t, iso_year(shifted_t)): when the window spans a
// whole number of ISO years, the two coincide; the modulo form is used
// directly here because scenario windows are defined by explicit
// start/stop instants rather than bare calendar years.
func (r *Rotating) mapIntoWindow(t time.Time) time.Time {
	period := r.stop.Sub(r.start)
	elapsed := t.Sub(r.start)
	mod := elapsed % period
	if mod < 0 {
		mod += period
	}
	return r.start.Add(mod)
}

func (r *Rotating) valueAt(wrapped time.Time) float64 {
	return stepValueAt(r.index, r.values, wrapped)
}

// boundaryAfter returns the next discontinuity after wrapped within the
// window: either the next index entry, or the window's stop (triggering
// a wrap on the following step).
func (r *Rotating) boundaryAfter(wrapped time.Time) time.Time {
	if next, ok := nextBoundaryAfter(r.index, wrapped); ok && next.Before(r.stop) {
		return next
	}
	return r.stop
}

func (r *Rotating) integrateAverage(start, end time.Time) float64 {
	total := end.Sub(start)
	if total <= 0 {
		return r.valueAt(r.mapIntoWindow(start))
	}
	var sum float64
	pos := start
	remaining := total
	for remaining > 0 {
		wrapped := r.mapIntoWindow(pos)
		boundary := r.boundaryAfter(wrapped)
		dist := boundary.Sub(wrapped)
		if dist <= 0 {
			dist = r.stop.Sub(r.start)
		}
		chunk := dist
		if chunk > remaining {
			chunk = remaining
		}
		sum += r.valueAt(wrapped) * chunk.Hours()
		pos = pos.Add(chunk)
		remaining -= chunk
	}
	return sum / total.Hours()
}

func (r *Rotating) WeightedAverage(start time.Time, delta timeutil.TimeDelta) (float64, error) {
	if len(r.values) == 0 {
		return 0, ErrEmptyQuery
	}
	if ud, ok := delta.(timeutil.UnitsTimeDelta); ok {
		return r.weightedAverageUnits(start, ud)
	}
	end := start.Add(delta.Duration())
	return r.integrateAverage(start, end), nil
}

func (r *Rotating) weightedAverageUnits(start time.Time, ud timeutil.UnitsTimeDelta) (float64, error) {
	total := ud.Duration()
	if total <= 0 {
		return 0, ErrEmptyQuery
	}
	var sum float64
	for _, rg := range ud.Ranges {
		rs := start.Add(time.Duration(rg.From) * ud.Unit)
		re := start.Add(time.Duration(rg.To+1) * ud.Unit)
		sum += r.integrateAverage(rs, re) * re.Sub(rs).Hours()
	}
	return sum / total.Hours(), nil
}
