package horizon

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/aristath/gridsched/internal/timeutil"
)

// SampleFunc returns the classification sample for unit index u (0-based)
// of macro period m (1-based), at the given probtime.
type SampleFunc func(m, u int, pt timeutil.ProbTime) (float64, error)

// ClassifyMethod partitions a sample vector of length numUnits into
// numBlock group labels (each in 0..numBlock-1).
type ClassifyMethod interface {
	Classify(x []float64, numBlock int) []int
}

// PercentileMethod groups units by the percentile rank of their sample
// value against a set of len(numBlock-1) quantile breakpoints.
type PercentileMethod struct {
	Thresholds []float64
}

func (m PercentileMethod) Classify(x []float64, numBlock int) []int {
	n := len(x)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return x[order[a]] < x[order[b]] })

	labels := make([]int, n)
	for rank, idx := range order {
		frac := float64(rank) / float64(n)
		lbl := 0
		for _, thr := range m.Thresholds {
			if frac >= thr {
				lbl++
			}
		}
		if lbl >= numBlock {
			lbl = numBlock - 1
		}
		labels[idx] = lbl
	}
	return labels
}

// KMeansMethod groups units by 1-D k-means clustering, seeded
// deterministically per spec.md §4.2 ("fixed seed 1000").
type KMeansMethod struct{}

const kMeansSeed = 1000
const kMeansIterations = 30

func (KMeansMethod) Classify(x []float64, numBlock int) []int {
	n := len(x)
	labels := make([]int, n)
	if n == 0 || numBlock <= 0 {
		return labels
	}

	r := rand.New(rand.NewSource(kMeansSeed))
	centroids := make([]float64, numBlock)
	perm := r.Perm(n)
	for k := 0; k < numBlock; k++ {
		centroids[k] = x[perm[k%n]]
	}

	for iter := 0; iter < kMeansIterations; iter++ {
		for i, v := range x {
			best, bestDist := 0, -1.0
			for k, c := range centroids {
				dist := (v - c) * (v - c)
				if bestDist < 0 || dist < bestDist {
					best, bestDist = k, dist
				}
			}
			labels[i] = best
		}
		sums := make([]float64, numBlock)
		counts := make([]int, numBlock)
		for i, v := range x {
			sums[labels[i]] += v
			counts[labels[i]]++
		}
		for k := range centroids {
			if counts[k] > 0 {
				centroids[k] = sums[k] / float64(counts[k])
			}
		}
	}
	return labels
}

// distinctLabelCount reports how many of 0..numBlock-1 appear in labels.
func distinctLabelCount(labels []int, numBlock int) int {
	seen := make([]bool, numBlock)
	count := 0
	for _, l := range labels {
		if l >= 0 && l < numBlock && !seen[l] {
			seen[l] = true
			count++
		}
	}
	return count
}

// evenPartitionLabels is the recovery path used when a classify method
// collapses to fewer than numBlock distinct clusters (e.g. constant
// input): it assigns contiguous equal-size chunks so every block is
// non-empty (spec.md §4.2 post-condition, Scenario S3).
func evenPartitionLabels(n, numBlock int) []int {
	labels := make([]int, n)
	for i := 0; i < n; i++ {
		labels[i] = i * numBlock / n
		if labels[i] >= numBlock {
			labels[i] = numBlock - 1
		}
	}
	return labels
}

// labelsToRanges run-length-encodes labels into per-block UnitRange
// lists; consecutive units sharing a label merge into one range.
func labelsToRanges(labels []int, numBlock int) [][]timeutil.UnitRange {
	out := make([][]timeutil.UnitRange, numBlock)
	if len(labels) == 0 {
		return out
	}
	runStart := 0
	runLabel := labels[0]
	flush := func(end int) {
		out[runLabel] = append(out[runLabel], timeutil.UnitRange{From: runStart, To: end})
	}
	for i := 1; i < len(labels); i++ {
		if labels[i] != runLabel {
			flush(i - 1)
			runStart = i
			runLabel = labels[i]
		}
	}
	flush(len(labels) - 1)
	return out
}

// AdaptiveHorizon subdivides each of its macro periods (a SequentialPeriods)
// into num_block blocks, classified from sampled data at Update time.
type AdaptiveHorizon struct {
	genericHints

	macro        *SequentialPeriods
	numBlock     int
	unitDuration time.Duration
	sample       SampleFunc
	method       ClassifyMethod
	offset       time.Duration

	built  bool
	blocks []timeutil.UnitsTimeDelta // length NumMacro*numBlock
}

// NewAdaptiveHorizon constructs an AdaptiveHorizon. Classification does
// not happen until Update is called with a probtime.
func NewAdaptiveHorizon(macro *SequentialPeriods, numBlock int, unitDuration time.Duration, sample SampleFunc, method ClassifyMethod, offset time.Duration) (*AdaptiveHorizon, error) {
	if numBlock <= 0 {
		return nil, fmt.Errorf("%w: num_block must be positive, got %d", ErrConstruction, numBlock)
	}
	if unitDuration <= 0 {
		return nil, fmt.Errorf("%w: unit_duration must be positive, got %s", ErrConstruction, unitDuration)
	}
	if sample == nil || method == nil {
		return nil, fmt.Errorf("%w: data handle and method handle are required", ErrConstruction)
	}
	return &AdaptiveHorizon{
		macro: macro, numBlock: numBlock, unitDuration: unitDuration,
		sample: sample, method: method, offset: offset,
	}, nil
}

func (h *AdaptiveHorizon) numMacro() int { return h.macro.NumPeriods() }

func (h *AdaptiveHorizon) NumPeriods() int { return h.numMacro() * h.numBlock }

func (h *AdaptiveHorizon) Duration() time.Duration { return h.macro.Duration() }

func (h *AdaptiveHorizon) IsAdaptive() bool { return true }

// HasConstantDurations is false: block durations are re-derived from data
// on every Update.
func (h *AdaptiveHorizon) HasConstantDurations() bool { return false }

func (h *AdaptiveHorizon) checkPeriod(t int) error {
	if t < 1 || t > h.NumPeriods() {
		return fmt.Errorf("out of range: period %d outside 1..%d", t, h.NumPeriods())
	}
	return nil
}

// macroOf maps overall period t to its 1-based macro period index.
func (h *AdaptiveHorizon) macroOf(t int) int { return (t-1)/h.numBlock + 1 }

func (h *AdaptiveHorizon) StartDuration(t int) (time.Duration, error) {
	if err := h.checkPeriod(t); err != nil {
		return 0, err
	}
	m := h.macroOf(t)
	macroStart, err := h.macro.StartDuration(m)
	if err != nil {
		return 0, err
	}
	var within time.Duration
	base := (m - 1) * h.numBlock
	for k := 0; k < t-1-base; k++ {
		within += h.blocks[base+k].Duration()
	}
	return macroStart + within, nil
}

func (h *AdaptiveHorizon) TimeDelta(t int) (timeutil.TimeDelta, error) {
	if err := h.checkPeriod(t); err != nil {
		return nil, err
	}
	if !h.built {
		return nil, fmt.Errorf("adaptive horizon not built: call Update before reading periods")
	}
	return h.blocks[t-1], nil
}

func (h *AdaptiveHorizon) StartTime(t int, base time.Time) (time.Time, error) {
	sd, err := h.StartDuration(t)
	if err != nil {
		return time.Time{}, err
	}
	return base.Add(h.offset + sd), nil
}

func (h *AdaptiveHorizon) Build() error {
	h.blocks = make([]timeutil.UnitsTimeDelta, h.NumPeriods())
	return nil
}

// Update reclassifies every macro period's units into num_block blocks
// from freshly sampled data (spec.md §4.2).
func (h *AdaptiveHorizon) Update(pt timeutil.ProbTime) error {
	if h.blocks == nil {
		if err := h.Build(); err != nil {
			return err
		}
	}
	for m := 1; m <= h.numMacro(); m++ {
		macroDur, err := h.macro.PeriodDuration(m)
		if err != nil {
			return err
		}
		numUnits := int(macroDur / h.unitDuration)
		x := make([]float64, numUnits)
		for u := 0; u < numUnits; u++ {
			v, err := h.sample(m, u, pt)
			if err != nil {
				return err
			}
			x[u] = v
		}

		labels := h.method.Classify(x, h.numBlock)
		if distinctLabelCount(labels, h.numBlock) < h.numBlock {
			labels = evenPartitionLabels(numUnits, h.numBlock)
		}
		ranges := labelsToRanges(labels, h.numBlock)

		base := (m - 1) * h.numBlock
		for k := 0; k < h.numBlock; k++ {
			h.blocks[base+k] = timeutil.UnitsTimeDelta{Unit: h.unitDuration, Ranges: ranges[k]}
		}
	}
	h.built = true
	return nil
}

// GetSubperiods is only defined for fine === coarse (the identical
// instance); cross-adaptive subperiod mapping is a documented
// restriction (spec.md §9).
func (h *AdaptiveHorizon) GetSubperiods(fine Horizon, t int) (from, to int, err error) {
	if fh, ok := fine.(*AdaptiveHorizon); ok && fh == h {
		return t, t, nil
	}
	return 0, 0, ErrSubperiodsUnsupported
}
