package assembly

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/gridsched/internal/boundary"
	"github.com/aristath/gridsched/internal/horizon"
	"github.com/aristath/gridsched/internal/model"
	"github.com/aristath/gridsched/internal/param"
	"github.com/aristath/gridsched/internal/problem"
	"github.com/aristath/gridsched/internal/timeutil"
)

func threePeriodHorizon(t *testing.T) *horizon.SequentialHorizon {
	t.Helper()
	periods, err := horizon.NewSequentialPeriods([]horizon.PeriodBlock{{N: 3, Duration: time.Hour}})
	require.NoError(t, err)
	return horizon.NewSequentialHorizon(periods, 0)
}

func TestAssemblyFromResolvedRunsFullPipelineAndSatisfiesInvariants(t *testing.T) {
	h := threePeriodHorizon(t)
	balId := problem.Id{Concept: ConceptBalance, Instance: "bus"}
	flowId := problem.Id{Concept: ConceptFlow, Instance: "gen"}
	storId := problem.Id{Concept: ConceptStorage, Instance: "tank"}

	bal := &model.Balance{Id: balId, H: h}
	flow := &model.Flow{
		Id:     flowId,
		H:      h,
		Arrows: []model.Arrow{{Balance: balId, Ingoing: true, Conversion: param.PlusOne}},
		Upper:  param.Constant(100),
	}
	stor := &model.Storage{
		Id:      storId,
		H:       h,
		Balance: balId,
		Upper:   param.Constant(50),
	}

	toplevel := map[problem.Id]any{balId: bal, flowId: flow, storId: stor}

	// The storage declares a state variable that invariant 4 requires a
	// boundary condition to cover at both ends; StartEqualStop covers it
	// (a cyclic reservoir, x[T]=x[0]).
	cond := &boundary.StartEqualStop{
		Id:  problem.Id{Concept: "BOUNDARY", Instance: "tank-cycle"},
		Obj: stor,
	}
	a := FromResolved(toplevel, nil, []boundary.Condition{cond})

	p := problem.New(zerolog.Nop())
	require.NoError(t, a.BuildHorizons())
	require.NoError(t, a.Build(p))
	require.NoError(t, a.SetConstants(p))
	require.NoError(t, a.Update(p, timeutil.ProbTime{}))
	assert.NoError(t, a.CheckInvariants())
}

func TestAssemblyCheckInvariantsFlagsUncoveredStateVariable(t *testing.T) {
	h := threePeriodHorizon(t)
	balId := problem.Id{Concept: ConceptBalance, Instance: "bus"}
	storId := problem.Id{Concept: ConceptStorage, Instance: "tank"}

	bal := &model.Balance{Id: balId, H: h}
	stor := &model.Storage{Id: storId, H: h, Balance: balId, Upper: param.Constant(50)}

	toplevel := map[problem.Id]any{balId: bal, storId: stor}
	a := FromResolved(toplevel, nil, nil) // no boundary conditions supplied

	p := problem.New(zerolog.Nop())
	require.NoError(t, a.BuildHorizons())
	require.NoError(t, a.Build(p))

	err := a.CheckInvariants()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvariant)
}

func TestAssemblyCheckInvariantsFlagsDanglingArrowBalance(t *testing.T) {
	h := threePeriodHorizon(t)
	missingBal := problem.Id{Concept: ConceptBalance, Instance: "nowhere"}
	flowId := problem.Id{Concept: ConceptFlow, Instance: "gen"}

	flow := &model.Flow{
		Id:     flowId,
		H:      h,
		Arrows: []model.Arrow{{Balance: missingBal, Ingoing: true, Conversion: param.PlusOne}},
		Upper:  param.Constant(100),
	}

	a := New()
	a.AddObject(flow)
	a.AddHorizon(flow.Horizon())
	a.RecordArrowBalance(flow.ID(), missingBal)

	err := a.CheckInvariants()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvariant)
}

func TestAssemblyCheckInvariantsFlagsMismatchedRampingHorizons(t *testing.T) {
	shortH := threePeriodHorizon(t)
	periods, err := horizon.NewSequentialPeriods([]horizon.PeriodBlock{{N: 5, Duration: time.Hour}})
	require.NoError(t, err)
	longH := horizon.NewSequentialHorizon(periods, 0)

	a := New()
	a.RecordTransmissionRamping(problem.Id{Concept: "RAMP", Instance: "r"}, shortH, longH)

	err2 := a.CheckInvariants()
	require.Error(t, err2)
	assert.ErrorIs(t, err2, ErrInvariant)
}
