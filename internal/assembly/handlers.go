package assembly

import (
	"github.com/aristath/gridsched/internal/horizon"
	"github.com/aristath/gridsched/internal/model"
	"github.com/aristath/gridsched/internal/param"
	"github.com/aristath/gridsched/internal/problem"
)

// This file registers the handful of built-in element handlers that
// demonstrate the INCLUDEELEMENT-style registry end to end: a BALANCE
// and a FLOW concept, each with one concrete "type" tag, plus a
// METADATA concept that attaches freeform key/value pairs to an
// already-resolved Flow. Callers wanting the rest of the element
// grammar's surface (STORAGE, RAMPING, SOFTBOUND, ...) register their
// own handlers the same way via Register.

// BalanceSpec is the Value payload a BALANCE/SIMPLE element carries.
type BalanceSpec struct {
	Horizon  horizon.Horizon
	RHSTerms []model.RHSTerm
	Price    param.Param
}

// FlowSpec is the Value payload a FLOW/SIMPLE element carries. Each
// Arrow's Balance field names the balance Id the flow depends on —
// resolveElements defers a FLOW/SIMPLE element until every named
// balance is already present in toplevel.
type FlowSpec struct {
	Horizon horizon.Horizon
	Arrows  []model.Arrow
	Upper   param.Param
	Lower   param.Param
	Cost    *model.SumCost
}

// MetadataSpec is the Value payload a METADATA/FLOW element carries:
// freeform tags merged into an already-resolved Flow's Metadata map.
type MetadataSpec struct {
	Target problem.Id
	Tags   map[string]string
}

func init() {
	Register(ConceptBalance, "SIMPLE", handleBalanceSimple)
	Register(ConceptFlow, "SIMPLE", handleFlowSimple)
	Register(ConceptMetadata, ConceptFlow, handleMetadataFlow)
}

// handleBalanceSimple has no dependencies: a Balance never references
// another top-level object to exist, only to be referenced.
func handleBalanceSimple(toplevel, _ map[problem.Id]any, el Element) (bool, []problem.Id) {
	spec, ok := el.Value.(BalanceSpec)
	if !ok {
		return false, nil
	}
	id := el.key()
	toplevel[id] = &model.Balance{
		Id:       id,
		H:        spec.Horizon,
		RHSTerms: spec.RHSTerms,
		Price:    spec.Price,
	}
	return true, nil
}

// handleFlowSimple defers until every arrow's balance is already
// resolved in toplevel, then builds the *model.Flow against them.
func handleFlowSimple(toplevel, _ map[problem.Id]any, el Element) (bool, []problem.Id) {
	spec, ok := el.Value.(FlowSpec)
	if !ok {
		return false, nil
	}
	var missing []problem.Id
	for _, arrow := range spec.Arrows {
		if _, ok := toplevel[arrow.Balance]; !ok {
			missing = append(missing, arrow.Balance)
		}
	}
	if len(missing) > 0 {
		return false, missing
	}
	id := el.key()
	toplevel[id] = &model.Flow{
		Id:     id,
		H:      spec.Horizon,
		Arrows: spec.Arrows,
		Upper:  spec.Upper,
		Lower:  spec.Lower,
		Cost:   spec.Cost,
	}
	return true, nil
}

// handleMetadataFlow defers until its target Flow is resolved, then
// merges Tags into the Flow's Metadata map in place.
func handleMetadataFlow(toplevel, _ map[problem.Id]any, el Element) (bool, []problem.Id) {
	spec, ok := el.Value.(MetadataSpec)
	if !ok {
		return false, nil
	}
	obj, ok := toplevel[spec.Target]
	if !ok {
		return false, []problem.Id{spec.Target}
	}
	flow, ok := obj.(*model.Flow)
	if !ok {
		return false, nil
	}
	if flow.Metadata == nil {
		flow.Metadata = make(map[string]string, len(spec.Tags))
	}
	for k, v := range spec.Tags {
		flow.Metadata[k] = v
	}
	return true, nil
}
