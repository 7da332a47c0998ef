package assembly

import (
	"errors"
	"fmt"

	"github.com/aristath/gridsched/internal/boundary"
	"github.com/aristath/gridsched/internal/horizon"
	"github.com/aristath/gridsched/internal/model"
	"github.com/aristath/gridsched/internal/problem"
	"github.com/aristath/gridsched/internal/timeutil"
	"github.com/aristath/gridsched/internal/traits"
)

// ErrInvariant is wrapped by every assembly post-condition failure
// (spec.md §3 "Invariants (assembly post-condition)").
var ErrInvariant = errors.New("assembly invariant violated")

// rampingPair records one transmission-ramping trait's two flow
// horizons, for invariant 3 ("its two flows have identical horizons").
type rampingPair struct {
	traitId   problem.Id
	first     horizon.Horizon
	second    horizon.Horizon
}

// endCoverage counts how many boundary conditions cover an object's
// initial/terminal end. Invariant 4 requires exactly one of each.
type endCoverage struct {
	initial int
	terminal int
}

// Assembly accumulates the resolved object graph and orchestrates the
// build!/setconstants!/update! pipeline plus the post-condition
// invariant checks (spec.md §3, §9).
type Assembly struct {
	horizons []horizon.Horizon
	objects  map[problem.Id]model.Object
	traits   []traits.Trait
	bounds   []boundary.Condition

	arrowBalances map[problem.Id][]problem.Id
	rampingPairs  []rampingPair
	needsCoverage map[problem.Id]bool
	covered       map[problem.Id]endCoverage
}

// New returns an empty Assembly ready to accumulate objects via
// AddHorizon/AddObject/AddTrait/AddBoundary.
func New() *Assembly {
	return &Assembly{
		objects:       make(map[problem.Id]model.Object),
		arrowBalances: make(map[problem.Id][]problem.Id),
		needsCoverage: make(map[problem.Id]bool),
		covered:       make(map[problem.Id]endCoverage),
	}
}

// AddHorizon registers a horizon for the one-time Build()/per-probtime
// Update() lifecycle, deduplicated by pointer identity is the caller's
// responsibility (registering the same shared horizon twice double-
// updates it).
func (a *Assembly) AddHorizon(h horizon.Horizon) { a.horizons = append(a.horizons, h) }

// AddObject registers a top-level object (Balance, Flow, Storage).
func (a *Assembly) AddObject(obj model.Object) { a.objects[obj.ID()] = obj }

// AddTrait registers a trait owned by some already-added parent object.
func (a *Assembly) AddTrait(t traits.Trait) { a.traits = append(a.traits, t) }

// AddBoundary registers a boundary condition.
func (a *Assembly) AddBoundary(c boundary.Condition) { a.bounds = append(a.bounds, c) }

// RecordArrowBalance notes that flow references balance via an arrow,
// for invariant 2 ("every arrow references a balance that exists").
func (a *Assembly) RecordArrowBalance(flow, balance problem.Id) {
	a.arrowBalances[flow] = append(a.arrowBalances[flow], balance)
}

// RecordTransmissionRamping notes a transmission-ramping trait's two
// flow horizons, for invariant 3.
func (a *Assembly) RecordTransmissionRamping(traitId problem.Id, first, second horizon.Horizon) {
	a.rampingPairs = append(a.rampingPairs, rampingPair{traitId: traitId, first: first, second: second})
}

// DeclareStateVariable marks id as owning a (in, out) state pair that
// must be covered at both ends by exactly one boundary condition (or an
// explicit no-condition tag), for invariant 4.
func (a *Assembly) DeclareStateVariable(id problem.Id) { a.needsCoverage[id] = true }

// CoverInitial/CoverTerminal are called by boundary-condition wiring
// code once a condition (including a no-condition tag) is registered
// for a given object end.
func (a *Assembly) CoverInitial(id problem.Id) {
	c := a.covered[id]
	c.initial++
	a.covered[id] = c
}

func (a *Assembly) CoverTerminal(id problem.Id) {
	c := a.covered[id]
	c.terminal++
	a.covered[id] = c
}

// BuildHorizons runs each registered horizon's one-time Build() step,
// which must precede any object Build() (spec.md "Ordering").
func (a *Assembly) BuildHorizons() error {
	for _, h := range a.horizons {
		if err := h.Build(); err != nil {
			return err
		}
	}
	return nil
}

// Build runs build! on every object, then every trait, then every
// boundary condition — in that order, since traits and boundaries
// reference variables their parent object must have declared first.
func (a *Assembly) Build(p *problem.Problem) error {
	for _, obj := range a.objects {
		if err := obj.Build(p); err != nil {
			return err
		}
	}
	for _, tr := range a.traits {
		if err := tr.Build(p); err != nil {
			return err
		}
	}
	for _, b := range a.bounds {
		if err := b.Build(p); err != nil {
			return err
		}
	}
	return nil
}

// SetConstants runs setconstants! on every object, trait, and boundary
// condition, in the same order as Build.
func (a *Assembly) SetConstants(p *problem.Problem) error {
	for _, obj := range a.objects {
		if err := obj.SetConstants(p); err != nil {
			return err
		}
	}
	for _, tr := range a.traits {
		if err := tr.SetConstants(p); err != nil {
			return err
		}
	}
	for _, b := range a.bounds {
		if err := b.SetConstants(p); err != nil {
			return err
		}
	}
	return nil
}

// Update advances every horizon to probtime, then re-parameterizes
// every object, trait, and boundary condition — matching the dataflow
// ProbTime -> Horizon.update! -> Object.update! -> Trait.update!
// (spec.md §2).
func (a *Assembly) Update(p *problem.Problem, pt timeutil.ProbTime) error {
	for _, h := range a.horizons {
		if err := h.Update(pt); err != nil {
			return err
		}
	}
	for _, obj := range a.objects {
		if err := obj.Update(p, pt); err != nil {
			return err
		}
	}
	for _, tr := range a.traits {
		if err := tr.Update(p, pt); err != nil {
			return err
		}
	}
	for _, b := range a.bounds {
		if err := b.Update(p, pt); err != nil {
			return err
		}
	}
	return nil
}

// CheckInvariants verifies the assembly post-condition invariants from
// spec.md §3 that this package can check directly (invariant 5, "no
// variable or constraint Id defined twice", is enforced by
// problem.Problem.AddVar/AddEq/AddLe/AddGe themselves — every duplicate
// fails Build with ErrDuplicateID before this ever runs).
func (a *Assembly) CheckInvariants() error {
	var violations []error

	// Invariant 1: every top-level object has a non-null horizon.
	for id, obj := range a.objects {
		if obj.Horizon() == nil {
			violations = append(violations, fmt.Errorf("%w: %w: %s", ErrInvariant, model.ErrMissingHorizon, id))
		}
	}

	// Invariant 2: every arrow references a balance present in the map.
	for flow, balances := range a.arrowBalances {
		for _, bal := range balances {
			if _, ok := a.objects[bal]; !ok {
				violations = append(violations, fmt.Errorf("%w: flow %s arrow references missing balance %s", ErrInvariant, flow, bal))
			}
		}
	}

	// Invariant 3: transmission-ramping flows share identical horizons.
	for _, rp := range a.rampingPairs {
		if rp.first != rp.second {
			violations = append(violations, fmt.Errorf("%w: transmission ramping %s flows do not share a horizon", ErrInvariant, rp.traitId))
		}
	}

	// Invariant 4: every declared state variable has exactly one
	// boundary condition (or no-condition tag) covering each end.
	for id := range a.needsCoverage {
		c := a.covered[id]
		if c.initial != 1 {
			violations = append(violations, fmt.Errorf("%w: object %s has %d initial-end boundary conditions, want exactly 1", ErrInvariant, id, c.initial))
		}
		if c.terminal != 1 {
			violations = append(violations, fmt.Errorf("%w: object %s has %d terminal-end boundary conditions, want exactly 1", ErrInvariant, id, c.terminal))
		}
	}

	if len(violations) == 0 {
		return nil
	}
	return errors.Join(violations...)
}
