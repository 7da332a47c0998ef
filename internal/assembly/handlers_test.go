package assembly

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/gridsched/internal/horizon"
	"github.com/aristath/gridsched/internal/model"
	"github.com/aristath/gridsched/internal/param"
	"github.com/aristath/gridsched/internal/problem"
)

func oneHourHorizon(t *testing.T) *horizon.SequentialHorizon {
	t.Helper()
	periods, err := horizon.NewSequentialPeriods([]horizon.PeriodBlock{{N: 1, Duration: time.Hour}})
	require.NoError(t, err)
	return horizon.NewSequentialHorizon(periods, 0)
}

func TestResolveElementsBuildsFlowAheadOfItsBalance(t *testing.T) {
	h := oneHourHorizon(t)
	balanceId := problem.Id{Concept: ConceptBalance, Instance: "bus"}
	flowId := problem.Id{Concept: ConceptFlow, Instance: "line"}

	elements := []Element{
		{
			Concept: ConceptFlow, Type: "SIMPLE", Instance: "line",
			Value: FlowSpec{
				Horizon: h,
				Arrows:  []model.Arrow{{Balance: balanceId, Ingoing: true, Conversion: param.PlusOne}},
				Upper:   param.Constant(10),
			},
		},
		{
			Concept: ConceptBalance, Type: "SIMPLE", Instance: "bus",
			Value: BalanceSpec{Horizon: h},
		},
		{
			Concept: ConceptMetadata, Type: ConceptFlow, Instance: "line-meta",
			Value: MetadataSpec{Target: flowId, Tags: map[string]string{"zone": "north"}},
		},
	}

	toplevel := make(map[problem.Id]any)
	lowlevel := make(map[problem.Id]any)
	require.NoError(t, Resolve(toplevel, lowlevel, elements))

	bal, ok := toplevel[balanceId].(*model.Balance)
	require.True(t, ok)
	assert.Equal(t, balanceId, bal.ID())

	flow, ok := toplevel[flowId].(*model.Flow)
	require.True(t, ok)
	assert.Equal(t, flowId, flow.ID())
	assert.Equal(t, "north", flow.Metadata["zone"])
}

func TestResolveElementsUnresolvedWhenBalanceMissing(t *testing.T) {
	h := oneHourHorizon(t)
	missingBalance := problem.Id{Concept: ConceptBalance, Instance: "nowhere"}

	elements := []Element{
		{
			Concept: ConceptFlow, Type: "SIMPLE", Instance: "orphan",
			Value: FlowSpec{
				Horizon: h,
				Arrows:  []model.Arrow{{Balance: missingBalance, Ingoing: true, Conversion: param.PlusOne}},
			},
		},
	}

	toplevel := make(map[problem.Id]any)
	lowlevel := make(map[problem.Id]any)
	err := Resolve(toplevel, lowlevel, elements)
	require.Error(t, err)
	reasons := Reasons(err)
	require.Len(t, reasons, 1)
	assert.Equal(t, missingBalance, reasons[0].MissingDeps[0])
}
