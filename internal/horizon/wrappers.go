package horizon

import (
	"time"

	"github.com/aristath/gridsched/internal/timeutil"
)

// SubperiodAligner is implemented by horizons that can map a coarse
// period's span onto a contiguous range of a related fine horizon's
// periods: AdaptiveHorizon (identical-instance case only) and the
// External/Shortened wrappers, which forward to their inner horizon.
// SequentialHorizon's GetSubperiods takes a *SequentialHorizon and does
// not satisfy this interface, so a wrapper around a SequentialHorizon
// returns ErrSubperiodsUnsupported.
type SubperiodAligner interface {
	GetSubperiods(fine Horizon, t int) (from, to int, err error)
}

// --- ExternalHorizon ------------------------------------------------------

// ExternalHorizon is a read-only forwarding wrapper: some other owner is
// responsible for calling Build/Update on the wrapped horizon, so this
// instance's own Build/Update are no-ops.
type ExternalHorizon struct {
	noopLifecycle
	inner Horizon
}

// NewExternalHorizon wraps inner as a read-only, externally-updated view.
func NewExternalHorizon(inner Horizon) *ExternalHorizon {
	return &ExternalHorizon{inner: inner}
}

func (h *ExternalHorizon) NumPeriods() int            { return h.inner.NumPeriods() }
func (h *ExternalHorizon) Duration() time.Duration    { return h.inner.Duration() }
func (h *ExternalHorizon) IsAdaptive() bool           { return h.inner.IsAdaptive() }
func (h *ExternalHorizon) HasConstantDurations() bool { return h.inner.HasConstantDurations() }
func (h *ExternalHorizon) MayShiftFrom(t int) (int, bool) { return h.inner.MayShiftFrom(t) }
func (h *ExternalHorizon) MustUpdate(t int) bool          { return h.inner.MustUpdate(t) }

func (h *ExternalHorizon) StartDuration(t int) (time.Duration, error) { return h.inner.StartDuration(t) }
func (h *ExternalHorizon) TimeDelta(t int) (timeutil.TimeDelta, error) { return h.inner.TimeDelta(t) }
func (h *ExternalHorizon) StartTime(t int, base time.Time) (time.Time, error) {
	return h.inner.StartTime(t, base)
}

// GetSubperiods delegates to the inner horizon when it supports alignment.
func (h *ExternalHorizon) GetSubperiods(fine Horizon, t int) (int, int, error) {
	aligner, ok := h.inner.(SubperiodAligner)
	if !ok {
		return 0, 0, ErrSubperiodsUnsupported
	}
	if ef, ok := fine.(*ExternalHorizon); ok {
		fine = ef.inner
	}
	return aligner.GetSubperiods(fine, t)
}

// --- ShortenedHorizon -------------------------------------------------

// ShortenedHorizon restricts an inner horizon to periods [ixStart, ixStop]
// and re-indexes them to 1..ixStop-ixStart+1.
type ShortenedHorizon struct {
	noopLifecycle
	inner          Horizon
	ixStart, ixStop int
	baseOffset     time.Duration
}

// NewShortenedHorizon validates 1 <= ixStart <= ixStop <= inner.NumPeriods().
func NewShortenedHorizon(inner Horizon, ixStart, ixStop int) (*ShortenedHorizon, error) {
	n := inner.NumPeriods()
	if ixStart < 1 || ixStop < ixStart || ixStop > n {
		return nil, ErrConstruction
	}
	off, err := inner.StartDuration(ixStart)
	if err != nil {
		return nil, err
	}
	return &ShortenedHorizon{inner: inner, ixStart: ixStart, ixStop: ixStop, baseOffset: off}, nil
}

func (h *ShortenedHorizon) parent(t int) int { return t + h.ixStart - 1 }

func (h *ShortenedHorizon) NumPeriods() int { return h.ixStop - h.ixStart + 1 }

func (h *ShortenedHorizon) Duration() time.Duration {
	endStart, _ := h.inner.StartDuration(h.ixStop)
	endDelta, _ := h.inner.TimeDelta(h.ixStop)
	return endStart + endDelta.Duration() - h.baseOffset
}

func (h *ShortenedHorizon) StartDuration(t int) (time.Duration, error) {
	sd, err := h.inner.StartDuration(h.parent(t))
	if err != nil {
		return 0, err
	}
	return sd - h.baseOffset, nil
}

func (h *ShortenedHorizon) TimeDelta(t int) (timeutil.TimeDelta, error) {
	return h.inner.TimeDelta(h.parent(t))
}

func (h *ShortenedHorizon) StartTime(t int, base time.Time) (time.Time, error) {
	return h.inner.StartTime(h.parent(t), base)
}

func (h *ShortenedHorizon) IsAdaptive() bool           { return h.inner.IsAdaptive() }
func (h *ShortenedHorizon) HasConstantDurations() bool { return h.inner.HasConstantDurations() }

func (h *ShortenedHorizon) MayShiftFrom(t int) (int, bool) {
	from, ok := h.inner.MayShiftFrom(h.parent(t))
	if !ok {
		return -1, false
	}
	shifted := from - h.ixStart + 1
	if shifted < 1 || shifted > h.NumPeriods() {
		return -1, false
	}
	return shifted, true
}

func (h *ShortenedHorizon) MustUpdate(t int) bool { return h.inner.MustUpdate(h.parent(t)) }

// GetSubperiods is only defined when fine is also a ShortenedHorizon over
// a SubperiodAligner-capable inner horizon (spec.md §4.2).
func (h *ShortenedHorizon) GetSubperiods(fine Horizon, t int) (from, to int, err error) {
	sf, ok := fine.(*ShortenedHorizon)
	if !ok {
		return 0, 0, ErrSubperiodsUnsupported
	}
	aligner, ok := h.inner.(SubperiodAligner)
	if !ok {
		return 0, 0, ErrSubperiodsUnsupported
	}
	pFrom, pTo, err := aligner.GetSubperiods(sf.inner, h.parent(t))
	if err != nil {
		return 0, 0, err
	}
	return pFrom - sf.ixStart + 1, pTo - sf.ixStart + 1, nil
}

// --- ShiftableHorizon ---------------------------------------------------

// ShiftableHorizon emits shift hints across the maximal uniform-duration
// prefix of its inner horizon's periods when probtime advances by
// exactly one innermost block unit (spec.md §4.2).
type ShiftableHorizon struct {
	inner Horizon
	unit  time.Duration

	prev       *timeutil.ProbTime
	shiftFrom  []int
	noUpdate   []bool
}

// NewShiftableHorizon wraps inner, advancing its shift hints by unit.
func NewShiftableHorizon(inner Horizon, unit time.Duration) *ShiftableHorizon {
	n := inner.NumPeriods()
	return &ShiftableHorizon{
		inner: inner, unit: unit,
		shiftFrom: initIntSlice(n, -1),
		noUpdate:  make([]bool, n),
	}
}

func initIntSlice(n, v int) []int {
	s := make([]int, n)
	for i := range s {
		s[i] = v
	}
	return s
}

func (h *ShiftableHorizon) NumPeriods() int            { return h.inner.NumPeriods() }
func (h *ShiftableHorizon) Duration() time.Duration    { return h.inner.Duration() }
func (h *ShiftableHorizon) IsAdaptive() bool           { return h.inner.IsAdaptive() }
func (h *ShiftableHorizon) HasConstantDurations() bool { return h.inner.HasConstantDurations() }

func (h *ShiftableHorizon) StartDuration(t int) (time.Duration, error) { return h.inner.StartDuration(t) }
func (h *ShiftableHorizon) TimeDelta(t int) (timeutil.TimeDelta, error) { return h.inner.TimeDelta(t) }
func (h *ShiftableHorizon) StartTime(t int, base time.Time) (time.Time, error) {
	return h.inner.StartTime(t, base)
}

func (h *ShiftableHorizon) MayShiftFrom(t int) (int, bool) {
	if t >= 1 && t <= len(h.shiftFrom) && h.shiftFrom[t-1] != -1 {
		return h.shiftFrom[t-1], true
	}
	return h.inner.MayShiftFrom(t)
}

func (h *ShiftableHorizon) MustUpdate(t int) bool {
	if t >= 1 && t <= len(h.noUpdate) && h.noUpdate[t-1] {
		return false
	}
	return h.inner.MustUpdate(t)
}

func (h *ShiftableHorizon) Build() error { return h.inner.Build() }

// uniformPrefixLen returns the length of the maximal leading run of
// periods sharing period 1's duration.
func (h *ShiftableHorizon) uniformPrefixLen() int {
	n := h.NumPeriods()
	if n == 0 {
		return 0
	}
	first, err := h.inner.TimeDelta(1)
	if err != nil {
		return 0
	}
	ref := first.Duration()
	i := 1
	for i < n {
		td, err := h.inner.TimeDelta(i + 1)
		if err != nil || td.Duration() != ref {
			break
		}
		i++
	}
	return i
}

func (h *ShiftableHorizon) Update(pt timeutil.ProbTime) error {
	if err := h.inner.Update(pt); err != nil {
		return err
	}
	for i := range h.shiftFrom {
		h.shiftFrom[i] = -1
		h.noUpdate[i] = false
	}
	if h.prev != nil && pt.DataTime.Sub(h.prev.DataTime) == h.unit {
		prefixLen := h.uniformPrefixLen()
		for t := 1; t < prefixLen; t++ {
			h.shiftFrom[t-1] = t + 1
			h.noUpdate[t-1] = true
		}
	}
	h.prev = &pt
	return nil
}

// --- ShrinkableHorizon ----------------------------------------------------

// ShrinkableHorizon designates a subset of its inner horizon's periods as
// shrinkable toward a minperiod floor. Each update either freezes
// (identical probtime), consumes shrink room, resets with shift hints
// exactly at the floor boundary, or resets without hints (spec.md §4.2).
type ShrinkableHorizon struct {
	inner         Horizon
	shrinkPeriods []int // 1-based indices into inner's numbering, ascending
	minPeriod     time.Duration
	maxDur        map[int]time.Duration
	curDur        map[int]time.Duration

	prev       *timeutil.ProbTime
	mustUpdate []bool
	shiftFrom  []int
}

// NewShrinkableHorizon wraps inner, designating shrinkPeriods as the
// periods whose duration may shrink toward minPeriod.
func NewShrinkableHorizon(inner Horizon, shrinkPeriods []int, minPeriod time.Duration) (*ShrinkableHorizon, error) {
	if minPeriod <= 0 {
		return nil, ErrConstruction
	}
	n := inner.NumPeriods()
	maxDur := make(map[int]time.Duration, len(shrinkPeriods))
	curDur := make(map[int]time.Duration, len(shrinkPeriods))
	for _, idx := range shrinkPeriods {
		if idx < 1 || idx > n {
			return nil, ErrConstruction
		}
		td, err := inner.TimeDelta(idx)
		if err != nil {
			return nil, err
		}
		if td.Duration() < minPeriod {
			return nil, ErrConstruction
		}
		maxDur[idx] = td.Duration()
		curDur[idx] = td.Duration()
	}
	return &ShrinkableHorizon{
		inner: inner, shrinkPeriods: shrinkPeriods, minPeriod: minPeriod,
		maxDur: maxDur, curDur: curDur,
		mustUpdate: make([]bool, n), shiftFrom: initIntSlice(n, -1),
	}, nil
}

func (h *ShrinkableHorizon) NumPeriods() int { return h.inner.NumPeriods() }

func (h *ShrinkableHorizon) Duration() time.Duration {
	var d time.Duration
	for t := 1; t <= h.NumPeriods(); t++ {
		td, _ := h.TimeDelta(t)
		d += td.Duration()
	}
	return d
}

func (h *ShrinkableHorizon) StartDuration(t int) (time.Duration, error) {
	var d time.Duration
	for i := 1; i < t; i++ {
		td, err := h.TimeDelta(i)
		if err != nil {
			return 0, err
		}
		d += td.Duration()
	}
	return d, nil
}

func (h *ShrinkableHorizon) TimeDelta(t int) (timeutil.TimeDelta, error) {
	if cur, ok := h.curDur[t]; ok {
		return timeutil.FixedDuration(cur), nil
	}
	return h.inner.TimeDelta(t)
}

func (h *ShrinkableHorizon) StartTime(t int, base time.Time) (time.Time, error) {
	sd, err := h.StartDuration(t)
	if err != nil {
		return time.Time{}, err
	}
	return base.Add(sd), nil
}

func (h *ShrinkableHorizon) IsAdaptive() bool           { return h.inner.IsAdaptive() }
func (h *ShrinkableHorizon) HasConstantDurations() bool { return false }

func (h *ShrinkableHorizon) MayShiftFrom(t int) (int, bool) {
	if t >= 1 && t <= len(h.shiftFrom) && h.shiftFrom[t-1] != -1 {
		return h.shiftFrom[t-1], true
	}
	return -1, false
}

func (h *ShrinkableHorizon) MustUpdate(t int) bool {
	if t >= 1 && t <= len(h.mustUpdate) {
		return h.mustUpdate[t-1]
	}
	return true
}

func (h *ShrinkableHorizon) Build() error { return h.inner.Build() }

func (h *ShrinkableHorizon) remainingDuration() time.Duration {
	var rem time.Duration
	for _, idx := range h.shrinkPeriods {
		rem += h.curDur[idx] - h.minPeriod
	}
	return rem
}

func (h *ShrinkableHorizon) resetToMaxima() {
	for _, idx := range h.shrinkPeriods {
		h.curDur[idx] = h.maxDur[idx]
		h.mustUpdate[idx-1] = true
	}
}

// shrinkBy consumes advance from the shrink periods in order, floored at
// minPeriod, carrying any remainder to the next designated period.
func (h *ShrinkableHorizon) shrinkBy(advance time.Duration) {
	remaining := advance
	for _, idx := range h.shrinkPeriods {
		if remaining <= 0 {
			break
		}
		room := h.curDur[idx] - h.minPeriod
		take := remaining
		if take > room {
			take = room
		}
		if take > 0 {
			h.curDur[idx] -= take
			h.mustUpdate[idx-1] = true
			remaining -= take
		}
	}
}

func (h *ShrinkableHorizon) Update(pt timeutil.ProbTime) error {
	for i := range h.mustUpdate {
		h.mustUpdate[i] = false
		h.shiftFrom[i] = -1
	}

	if h.prev != nil && pt.Equal(*h.prev) {
		return nil
	}
	if h.prev == nil {
		h.prev = &pt
		for i := range h.mustUpdate {
			h.mustUpdate[i] = true
		}
		return h.inner.Update(pt)
	}

	advance := pt.DataTime.Sub(h.prev.DataTime)
	rem := h.remainingDuration()

	switch {
	case advance > 0 && advance <= rem:
		h.shrinkBy(advance)
	case advance == rem+h.minPeriod:
		h.resetToMaxima()
		for i, idx := range h.shrinkPeriods {
			if i+1 < len(h.shrinkPeriods) {
				h.shiftFrom[idx-1] = h.shrinkPeriods[i+1]
			}
		}
	default:
		h.resetToMaxima()
	}

	h.prev = &pt
	return h.inner.Update(pt)
}
