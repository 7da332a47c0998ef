package boundary

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/gridsched/internal/problem"
)

type fakeState struct {
	inId     problem.Id
	inPeriod int
	outId    problem.Id
	outPer   int
}

func (f fakeState) StateVariables() (problem.Id, int, problem.Id, int) {
	return f.inId, f.inPeriod, f.outId, f.outPer
}

func TestStartEqualStopWritesEqualityCoefficients(t *testing.T) {
	p := problem.New(zerolog.Nop())
	varIn := problem.Id{Concept: "VAR", Instance: "in"}
	varOut := problem.Id{Concept: "VAR", Instance: "out"}
	require.NoError(t, p.AddVar(varIn, 1))
	require.NoError(t, p.AddVar(varOut, 1))

	cond := &StartEqualStop{
		Id:  problem.Id{Concept: "BOUNDARY", Instance: "b"},
		Obj: fakeState{inId: varIn, outId: varOut},
	}
	require.NoError(t, cond.Build(p))
	require.NoError(t, cond.SetConstants(p))

	c1, err := p.GetConCoeff(cond.Id, varOut, 0, 0)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, c1, 1e-9)
	c2, err := p.GetConCoeff(cond.Id, varIn, 0, 0)
	require.NoError(t, err)
	assert.InDelta(t, -1.0, c2, 1e-9)
}

func TestConnectTwoObjectsWiresAcrossObjects(t *testing.T) {
	p := problem.New(zerolog.Nop())
	outVar := problem.Id{Concept: "VAR", Instance: "out"}
	inVar := problem.Id{Concept: "VAR", Instance: "in"}
	require.NoError(t, p.AddVar(outVar, 1))
	require.NoError(t, p.AddVar(inVar, 1))

	conn := &ConnectTwoObjects{
		Id:  problem.Id{Concept: "CONNECT", Instance: "c"},
		Out: fakeState{outId: outVar},
		In:  fakeState{inId: inVar},
	}
	require.NoError(t, conn.Build(p))
	require.NoError(t, conn.SetConstants(p))

	c1, err := p.GetConCoeff(conn.Id, outVar, 0, 0)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, c1, 1e-9)
	c2, err := p.GetConCoeff(conn.Id, inVar, 0, 0)
	require.NoError(t, err)
	assert.InDelta(t, -1.0, c2, 1e-9)
}

func TestSimpleSingleCutsRingBufferAndAveraging(t *testing.T) {
	p := problem.New(zerolog.Nop())
	futureCost := problem.Id{Concept: "VAR", Instance: "futurecost"}
	stateVar := problem.Id{Concept: "VAR", Instance: "storageend"}
	require.NoError(t, p.AddVar(futureCost, 1))
	require.NoError(t, p.AddVar(stateVar, 1))

	cuts := &SimpleSingleCuts{
		Id:            problem.Id{Concept: "CUTS", Instance: "c"},
		FutureCost:    futureCost,
		States:        []CutState{{VarId: stateVar, Period: 0}},
		MaxCuts:       2,
		LowerBound:    -1000,
		Probabilities: []float64{0.5, 0.5},
	}
	require.NoError(t, cuts.Build(p))
	require.NoError(t, cuts.SetConstants(p))

	for k := 0; k < 2; k++ {
		coeff, err := p.GetConCoeff(cuts.Id, futureCost, k, 0)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, coeff, 1e-9)
		rhs, err := p.GetRHSTerm(cuts.Id, cutTermId, k)
		require.NoError(t, err)
		assert.InDelta(t, -1000.0, rhs, 1e-9)
	}

	scenarios := []ScenarioCut{
		{Objective: 100, InStateValues: []float64{10}, FixVarDuals: []float64{2}},
		{Objective: 200, InStateValues: []float64{10}, FixVarDuals: []float64{4}},
	}
	require.NoError(t, cuts.UpdateCuts(p, scenarios))

	// constant = 0.5*(100-2*10) + 0.5*(200-4*10) = 0.5*80 + 0.5*160 = 120
	// slope = 0.5*2 + 0.5*4 = 3
	rhs, err := p.GetRHSTerm(cuts.Id, cutTermId, 0)
	require.NoError(t, err)
	assert.InDelta(t, 120.0, rhs, 1e-9)
	coeff, err := p.GetConCoeff(cuts.Id, stateVar, 0, 0)
	require.NoError(t, err)
	assert.InDelta(t, -3.0, coeff, 1e-9)

	assert.Equal(t, 1, cuts.cutix)

	require.NoError(t, cuts.ClearCuts(p))
	rhs, err = p.GetRHSTerm(cuts.Id, cutTermId, 0)
	require.NoError(t, err)
	assert.InDelta(t, -1000.0, rhs, 1e-9)
	assert.Equal(t, 0, cuts.cutix)
}
