package scenario

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/gridsched/internal/assembly"
	"github.com/aristath/gridsched/internal/horizon"
	"github.com/aristath/gridsched/internal/model"
	"github.com/aristath/gridsched/internal/param"
	"github.com/aristath/gridsched/internal/problem"
	"github.com/aristath/gridsched/internal/timeutil"
)

func oneHourHorizon(t *testing.T) *horizon.SequentialHorizon {
	t.Helper()
	periods, err := horizon.NewSequentialPeriods([]horizon.PeriodBlock{{N: 1, Duration: time.Hour}})
	require.NoError(t, err)
	return horizon.NewSequentialHorizon(periods, 0)
}

func buildSpec(t *testing.T, name string, upper float64) Spec {
	t.Helper()
	return Spec{
		Name: name,
		Build: func() (*assembly.Assembly, error) {
			h := oneHourHorizon(t)
			balId := problem.Id{Concept: "BALANCE", Instance: name + "-bus"}
			flowId := problem.Id{Concept: "FLOW", Instance: name + "-gen"}

			cost := model.NewSumCost()
			cost.Add(problem.Id{Concept: "COST", Instance: name + "-gen"}, param.Constant(-1))

			bal := &model.Balance{Id: balId, H: h}
			flow := &model.Flow{
				Id:     flowId,
				H:      h,
				Arrows: []model.Arrow{{Balance: balId, Ingoing: true, Conversion: param.PlusOne}},
				Upper:  param.Constant(upper),
				Cost:   cost,
			}

			toplevel := map[problem.Id]any{balId: bal, flowId: flow}
			return assembly.FromResolved(toplevel, nil, nil), nil
		},
	}
}

func TestRunAllSolvesEachScenarioIndependently(t *testing.T) {
	specs := []Spec{
		buildSpec(t, "low", 10),
		buildSpec(t, "high", 50),
	}

	results := RunAll(context.Background(), zerolog.Nop(), specs, timeutil.ProbTime{}, 0)

	require.Len(t, results, 2)
	for _, r := range results {
		require.NoError(t, r.Err, r.Name)
		assert.True(t, r.Stats.EverSolved)
		assert.True(t, r.Stats.HasSolution)
	}
}

func TestRunAllIsolatesOneScenariosFailure(t *testing.T) {
	badSpec := Spec{
		Name: "broken",
		Build: func() (*assembly.Assembly, error) {
			return nil, fmt.Errorf("construction failed")
		},
	}
	goodSpec := buildSpec(t, "ok", 20)

	results := RunAll(context.Background(), zerolog.Nop(), []Spec{badSpec, goodSpec}, timeutil.ProbTime{}, 0)

	require.Len(t, results, 2)
	assert.Error(t, results[0].Err)
	assert.NoError(t, results[1].Err)
	assert.True(t, results[1].Stats.HasSolution)
}

func TestRunAllRespectsMaxConcurrency(t *testing.T) {
	specs := []Spec{buildSpec(t, "a", 5), buildSpec(t, "b", 5), buildSpec(t, "c", 5)}

	results := RunAll(context.Background(), zerolog.Nop(), specs, timeutil.ProbTime{}, 1)

	require.Len(t, results, 3)
	for _, r := range results {
		assert.NoError(t, r.Err)
	}
}
