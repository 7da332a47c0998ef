package model

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/gridsched/internal/horizon"
	"github.com/aristath/gridsched/internal/param"
	"github.com/aristath/gridsched/internal/problem"
)

func twoHourHorizon(t *testing.T) *horizon.SequentialHorizon {
	t.Helper()
	periods, err := horizon.NewSequentialPeriods([]horizon.PeriodBlock{{N: 2, Duration: time.Hour}})
	require.NoError(t, err)
	return horizon.NewSequentialHorizon(periods, 0)
}

func TestBalanceEndogenousAddsRowAndConstantRHS(t *testing.T) {
	p := problem.New(zerolog.Nop())
	h := twoHourHorizon(t)
	bal := &Balance{
		Id: problem.Id{Concept: "BALANCE", Instance: "B"},
		H:  h,
		RHSTerms: []RHSTerm{
			{TermId: problem.Id{Concept: "RHSTERM", Instance: "demand"}, Ingoing: true, Value: param.Constant(5)},
		},
	}
	require.NoError(t, bal.Build(p))
	require.NoError(t, bal.SetConstants(p))

	for i := 0; i < 2; i++ {
		v, err := p.GetRHSTerm(bal.Id, bal.RHSTerms[0].TermId, i)
		require.NoError(t, err)
		assert.InDelta(t, 5.0, v, 1e-9)
	}
}

func TestBalanceExogenousSkipsRow(t *testing.T) {
	p := problem.New(zerolog.Nop())
	h := twoHourHorizon(t)
	bal := &Balance{
		Id:    problem.Id{Concept: "BALANCE", Instance: "EX"},
		H:     h,
		Price: param.Constant(30),
	}
	require.NoError(t, bal.Build(p))
	require.NoError(t, bal.SetConstants(p))

	_, err := p.GetRHSTerm(bal.Id, problem.Id{Concept: "RHSTERM", Instance: "x"}, 0)
	assert.ErrorIs(t, err, problem.ErrUnknownId)
}

func TestFlowWritesBoundsAndArrowCoefficient(t *testing.T) {
	p := problem.New(zerolog.Nop())
	h := twoHourHorizon(t)
	balId := problem.Id{Concept: "BALANCE", Instance: "B"}
	require.NoError(t, p.AddEq(balId, h.NumPeriods()))

	flow := &Flow{
		Id: problem.Id{Concept: "FLOW", Instance: "F"},
		H:  h,
		Upper: param.Constant(10),
		Arrows: []Arrow{
			{Balance: balId, Ingoing: false, Conversion: param.Constant(1)},
		},
		Cost: NewSumCost(),
	}
	flow.Cost.Add(problem.Id{Concept: "COST", Instance: "fuel"}, param.FlipSign(param.Constant(1)))

	require.NoError(t, flow.Build(p))
	require.NoError(t, flow.SetConstants(p))

	for i := 0; i < 2; i++ {
		ub, err := p.GetUB(flow.Id, i)
		require.NoError(t, err)
		assert.InDelta(t, 10.0, ub, 1e-9)

		lb, err := p.GetLB(flow.Id, i)
		require.NoError(t, err)
		assert.InDelta(t, 0.0, lb, 1e-9)

		coeff, err := p.GetConCoeff(balId, flow.Id, i, i)
		require.NoError(t, err)
		assert.InDelta(t, -1.0, coeff, 1e-9) // outgoing arrow, sign -1

		obj, err := p.GetObjCoeff(flow.Id, i)
		require.NoError(t, err)
		assert.InDelta(t, -1.0, obj, 1e-9)
	}
}

func TestStorageNetChangeIntoBalanceRow(t *testing.T) {
	p := problem.New(zerolog.Nop())
	h := twoHourHorizon(t)
	balId := problem.Id{Concept: "BALANCE", Instance: "B"}
	require.NoError(t, p.AddEq(balId, h.NumPeriods()))

	st := &Storage{
		Id:      problem.Id{Concept: "STORAGE", Instance: "S"},
		H:       h,
		Balance: balId,
		Upper:   param.Constant(100),
	}
	require.NoError(t, st.Build(p))
	require.NoError(t, st.SetConstants(p))

	startId, startPeriod, outId, outPeriod := st.StateVariables()
	assert.Equal(t, st.StartID(), startId)
	assert.Equal(t, 0, startPeriod)
	assert.Equal(t, st.Id, outId)
	assert.Equal(t, 1, outPeriod)

	// Period 1: prior state is the start variable (col 0), coeff 1 (no loss).
	c1, err := p.GetConCoeff(balId, st.StartID(), 0, 0)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, c1, 1e-9)
	// Period 1: self coefficient -1.
	self1, err := p.GetConCoeff(balId, st.Id, 0, 0)
	require.NoError(t, err)
	assert.InDelta(t, -1.0, self1, 1e-9)

	// Period 2: prior state is the storage variable's own column 0.
	c2, err := p.GetConCoeff(balId, st.Id, 1, 0)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, c2, 1e-9)
}

func TestSumCostAggregatesMultipleTerms(t *testing.T) {
	p := problem.New(zerolog.Nop())
	h := twoHourHorizon(t)
	flowId := problem.Id{Concept: "FLOW", Instance: "F"}
	require.NoError(t, p.AddVar(flowId, h.NumPeriods()))

	sc := NewSumCost()
	sc.Add(problem.Id{Concept: "COST", Instance: "fuel"}, param.Constant(2))
	sc.Add(problem.Id{Concept: "COST", Instance: "co2"}, param.Constant(3))

	require.NoError(t, sc.writeConstants(p, flowId, h))

	for i := 0; i < 2; i++ {
		v, err := p.GetObjCoeff(flowId, i)
		require.NoError(t, err)
		assert.InDelta(t, 5.0, v, 1e-9)
	}
}
