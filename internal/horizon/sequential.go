package horizon

import (
	"fmt"
	"time"

	"github.com/aristath/gridsched/internal/timeutil"
)

// PeriodBlock declares n consecutive periods of the given duration.
type PeriodBlock struct {
	N        int
	Duration time.Duration
}

// SequentialPeriods expands an ordered list of (n, duration) blocks into a
// flat list of period durations, numbered 1..sum(n) in declaration order.
type SequentialPeriods struct {
	periodDur   []time.Duration
	startDur    []time.Duration // length NumPeriods+1; startDur[t-1] is start of period t (0-indexed slice)
}

// NewSequentialPeriods validates and expands blocks.
func NewSequentialPeriods(blocks []PeriodBlock) (*SequentialPeriods, error) {
	if len(blocks) == 0 {
		return nil, fmt.Errorf("%w: at least one period block required", ErrConstruction)
	}
	var durs []time.Duration
	for _, b := range blocks {
		if b.N <= 0 {
			return nil, fmt.Errorf("%w: block count must be positive, got %d", ErrConstruction, b.N)
		}
		if b.Duration <= 0 {
			return nil, fmt.Errorf("%w: block duration must be positive, got %s", ErrConstruction, b.Duration)
		}
		for i := 0; i < b.N; i++ {
			durs = append(durs, b.Duration)
		}
	}
	start := make([]time.Duration, len(durs)+1)
	for i, d := range durs {
		start[i+1] = start[i] + d
	}
	return &SequentialPeriods{periodDur: durs, startDur: start}, nil
}

// NumPeriods returns sum(n) across all blocks.
func (s *SequentialPeriods) NumPeriods() int { return len(s.periodDur) }

// Duration returns the sum of all period durations.
func (s *SequentialPeriods) Duration() time.Duration { return s.startDur[len(s.startDur)-1] }

func (s *SequentialPeriods) checkPeriod(t int) error {
	if t < 1 || t > s.NumPeriods() {
		return fmt.Errorf("out of range: period %d outside 1..%d", t, s.NumPeriods())
	}
	return nil
}

// StartDuration returns the accumulated duration before period t.
func (s *SequentialPeriods) StartDuration(t int) (time.Duration, error) {
	if err := s.checkPeriod(t); err != nil {
		return 0, err
	}
	return s.startDur[t-1], nil
}

// PeriodDuration returns the duration of period t.
func (s *SequentialPeriods) PeriodDuration(t int) (time.Duration, error) {
	if err := s.checkPeriod(t); err != nil {
		return 0, err
	}
	return s.periodDur[t-1], nil
}

// EndPeriodFromDuration returns the first period whose end duration
// exactly matches delta, failing ErrNoAlignment otherwise (strict per
// spec.md §9 Open Question decision).
func (s *SequentialPeriods) EndPeriodFromDuration(delta time.Duration) (int, error) {
	for t := 1; t <= s.NumPeriods(); t++ {
		if s.startDur[t] == delta {
			return t, nil
		}
	}
	return 0, ErrNoAlignment
}

// SequentialHorizon is a Horizon over constant, statically declared
// period durations, optionally shifted by a fixed offset from its base
// time.
type SequentialHorizon struct {
	genericHints
	noopLifecycle
	periods *SequentialPeriods
	offset  time.Duration
}

// NewSequentialHorizon constructs a SequentialHorizon.
func NewSequentialHorizon(periods *SequentialPeriods, offset time.Duration) *SequentialHorizon {
	return &SequentialHorizon{periods: periods, offset: offset}
}

func (h *SequentialHorizon) NumPeriods() int             { return h.periods.NumPeriods() }
func (h *SequentialHorizon) Duration() time.Duration     { return h.periods.Duration() }
func (h *SequentialHorizon) IsAdaptive() bool            { return false }
func (h *SequentialHorizon) HasConstantDurations() bool  { return true }

func (h *SequentialHorizon) StartDuration(t int) (time.Duration, error) {
	return h.periods.StartDuration(t)
}

func (h *SequentialHorizon) TimeDelta(t int) (timeutil.TimeDelta, error) {
	d, err := h.periods.PeriodDuration(t)
	if err != nil {
		return nil, err
	}
	return timeutil.FixedDuration(d), nil
}

func (h *SequentialHorizon) StartTime(t int, base time.Time) (time.Time, error) {
	sd, err := h.periods.StartDuration(t)
	if err != nil {
		return time.Time{}, err
	}
	return base.Add(h.offset + sd), nil
}

// EndPeriodFromDuration delegates to the underlying period list.
func (h *SequentialHorizon) EndPeriodFromDuration(delta time.Duration) (int, error) {
	return h.periods.EndPeriodFromDuration(delta)
}

// GetSubperiods maps the span of period t on the coarse (h) horizon onto
// a contiguous range of periods on the fine horizon. When both horizons
// share the same block list it returns t:t; otherwise it walks both
// period lists aligning boundaries exactly, failing ErrFineNotDivisible
// when no such alignment exists.
func (h *SequentialHorizon) GetSubperiods(fine *SequentialHorizon, t int) (from, to int, err error) {
	if h.periods == fine.periods {
		return t, t, nil
	}
	coarseStart, err := h.periods.StartDuration(t)
	if err != nil {
		return 0, 0, err
	}
	coarseDur, err := h.periods.PeriodDuration(t)
	if err != nil {
		return 0, 0, err
	}
	coarseEnd := coarseStart + coarseDur

	from, err = fine.periods.EndPeriodFromDuration(coarseStart)
	if err != nil {
		// period 0 (i.e. coarseStart == 0) is a valid start not covered
		// by EndPeriodFromDuration, which only matches period ends.
		if coarseStart == 0 {
			from = 0
		} else {
			return 0, 0, ErrFineNotDivisible
		}
	}
	to, err = fine.periods.EndPeriodFromDuration(coarseEnd)
	if err != nil {
		return 0, 0, ErrFineNotDivisible
	}
	return from + 1, to, nil
}
