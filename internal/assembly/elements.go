package assembly

import (
	"github.com/aristath/gridsched/internal/boundary"
	"github.com/aristath/gridsched/internal/horizon"
	"github.com/aristath/gridsched/internal/model"
	"github.com/aristath/gridsched/internal/problem"
	"github.com/aristath/gridsched/internal/traits"
)

// Key concept names the element-record grammar recognizes (spec.md §6).
// Only the handful wired by this package's built-in handlers are used
// directly here; the rest name the grammar's full surface for callers
// registering their own handlers via Register.
const (
	ConceptBalance           = "BALANCE"
	ConceptFlow              = "FLOW"
	ConceptStorage           = "STORAGE"
	ConceptArrow             = "ARROW"
	ConceptCommodity         = "COMMODITY"
	ConceptCapacity          = "CAPACITY"
	ConceptCost              = "COST"
	ConceptConversion        = "CONVERSION"
	ConceptLoss              = "LOSS"
	ConceptPrice             = "PRICE"
	ConceptRHSTerm           = "RHSTERM"
	ConceptTimeIndex         = "TIMEINDEX"
	ConceptTimeValues        = "TIMEVALUES"
	ConceptTimeVector        = "TIMEVECTOR"
	ConceptTimeDelta         = "TIMEDELTA"
	ConceptTimePeriod        = "TIMEPERIOD"
	ConceptHorizon           = "HORIZON"
	ConceptBoundaryCondition = "BOUNDARYCONDITION"
	ConceptParam             = "PARAM"
	ConceptSoftBound         = "SOFTBOUND"
	ConceptRamping           = "RAMPING"
	ConceptMetadata          = "METADATA"
	ConceptTable             = "TABLE"
	ConceptDemand            = "DEMAND"
	ConceptAggSupplyCurve    = "AGGSUPPLYCURVE"
)

// Resolve runs the dependency fixpoint over elements, populating
// toplevel (top-level objects: Balance/Flow/Storage, keyed by their Id)
// and lowlevel (everything else a handler chooses to stash there) via
// whatever handlers are registered for each element's (concept, type).
func Resolve(toplevel, lowlevel map[problem.Id]any, elements []Element) error {
	return resolveElements(toplevel, lowlevel, elements)
}

// FromResolved walks a resolved top-level object map (the output of
// Resolve, or one built directly by a caller that skips the element
// grammar) and assembles an *Assembly, recording the cross-object
// bookkeeping invariant-checking needs: arrow-to-balance references
// (invariant 2), transmission-ramping flow pairs (invariant 3), and
// state-variable declarations (invariant 4, left for the caller to
// cover via CoverInitial/CoverTerminal as boundary conditions are
// wired in).
func FromResolved(toplevel map[problem.Id]any, allTraits []traits.Trait, bounds []boundary.Condition) *Assembly {
	a := New()
	seen := make(map[horizon.Horizon]bool)
	addHorizon := func(h horizon.Horizon) {
		if !seen[h] {
			seen[h] = true
			a.AddHorizon(h)
		}
	}
	for _, v := range toplevel {
		switch obj := v.(type) {
		case *model.Balance:
			a.AddObject(obj)
			addHorizon(obj.Horizon())
		case *model.Flow:
			a.AddObject(obj)
			addHorizon(obj.Horizon())
			for _, arrow := range obj.Arrows {
				a.RecordArrowBalance(obj.ID(), arrow.Balance)
			}
		case *model.Storage:
			a.AddObject(obj)
			addHorizon(obj.Horizon())
			a.DeclareStateVariable(obj.ID())
		}
	}
	for _, t := range allTraits {
		a.AddTrait(t)
		if r, ok := t.(*traits.TransmissionRamping); ok {
			firstObj, firstOk := toplevel[r.FirstFlow].(model.Object)
			secondObj, secondOk := toplevel[r.SecondFlow].(model.Object)
			if firstOk && secondOk {
				a.RecordTransmissionRamping(r.ID(), firstObj.Horizon(), secondObj.Horizon())
			}
		}
		if r, ok := t.(*traits.HydroRamping); ok && r.WithBoundary {
			a.DeclareStateVariable(r.ID())
		}
	}
	for _, b := range bounds {
		a.AddBoundary(b)
		switch cond := b.(type) {
		case *boundary.StartEqualStop:
			if id, ok := cond.Obj.(boundary.Identified); ok {
				a.CoverInitial(id.ID())
				a.CoverTerminal(id.ID())
			}
		case *boundary.ConnectTwoObjects:
			if id, ok := cond.Out.(boundary.Identified); ok {
				a.CoverTerminal(id.ID())
			}
			if id, ok := cond.In.(boundary.Identified); ok {
				a.CoverInitial(id.ID())
			}
		case *boundary.NoInitialCondition:
			a.CoverInitial(cond.Obj)
		case *boundary.NoTerminalCondition:
			a.CoverTerminal(cond.Obj)
		case *boundary.NoBoundaryCondition:
			a.CoverInitial(cond.Obj)
			a.CoverTerminal(cond.Obj)
		}
	}
	return a
}
