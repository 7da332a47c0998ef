package problem

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProblem() *Problem {
	return New(zerolog.Nop())
}

var (
	flowId    = Id{Concept: "FLOW", Instance: "F"}
	pinId     = Id{Concept: "PIN", Instance: "P"}
	rhsTermId = Id{Concept: "RHSTERM", Instance: "demand"}
)

func TestAddVarDuplicateID(t *testing.T) {
	p := newTestProblem()
	require.NoError(t, p.AddVar(flowId, 2))
	err := p.AddVar(flowId, 2)
	assert.ErrorIs(t, err, ErrDuplicateID)
}

func TestGetVarValueBeforeSolveFails(t *testing.T) {
	p := newTestProblem()
	require.NoError(t, p.AddVar(flowId, 1))
	_, err := p.GetVarValue(flowId, 0)
	assert.ErrorIs(t, err, ErrNoSolution)
}

// Two periods, x pinned to 5 by an equality row, ub=10, objcoeff=-1:
// minimizing -x with x=5 fixed gives obj=-10, each period's dual = -1
// (raising the pinned rhs by 1 lowers the objective by 1).
func TestSolvePinnedEqualityLP(t *testing.T) {
	p := newTestProblem()
	require.NoError(t, p.AddVar(flowId, 2))
	require.NoError(t, p.AddEq(pinId, 2))

	for i := 0; i < 2; i++ {
		require.NoError(t, p.SetLB(flowId, i, 0))
		require.NoError(t, p.SetUB(flowId, i, 10))
		require.NoError(t, p.SetObjCoeff(flowId, i, -1))
		require.NoError(t, p.SetConCoeff(pinId, flowId, i, i, 1))
		require.NoError(t, p.SetRHSTerm(pinId, rhsTermId, i, 5))
	}

	require.NoError(t, p.Solve())

	obj, err := p.GetObjectiveValue()
	require.NoError(t, err)
	assert.InDelta(t, -10.0, obj, 1e-6)

	for i := 0; i < 2; i++ {
		v, err := p.GetVarValue(flowId, i)
		require.NoError(t, err)
		assert.InDelta(t, 5.0, v, 1e-6)

		d, err := p.GetConDual(pinId, i)
		require.NoError(t, err)
		assert.InDelta(t, -1.0, d, 1e-6)
	}
}

func TestSolveRespectsUpperBoundWithoutConstraint(t *testing.T) {
	p := newTestProblem()
	require.NoError(t, p.AddVar(flowId, 1))
	require.NoError(t, p.SetLB(flowId, 0, 0))
	require.NoError(t, p.SetUB(flowId, 0, 10))
	require.NoError(t, p.SetObjCoeff(flowId, 0, -1))

	require.NoError(t, p.Solve())

	v, err := p.GetVarValue(flowId, 0)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, v, 1e-6)

	obj, err := p.GetObjectiveValue()
	require.NoError(t, err)
	assert.InDelta(t, -10.0, obj, 1e-6)
}

func TestMakeFixableFixAndDual(t *testing.T) {
	p := newTestProblem()
	require.NoError(t, p.AddVar(flowId, 1))
	require.NoError(t, p.SetLB(flowId, 0, 0))
	require.NoError(t, p.SetUB(flowId, 0, 10))
	require.NoError(t, p.SetObjCoeff(flowId, 0, -2))
	require.NoError(t, p.MakeFixable(flowId, 0))
	require.NoError(t, p.Fix(flowId, 0, 3))

	require.NoError(t, p.Solve())

	v, err := p.GetVarValue(flowId, 0)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, v, 1e-6)

	dual, err := p.GetFixVarDual(flowId, 0)
	require.NoError(t, err)
	assert.InDelta(t, -2.0, dual, 1e-6)

	require.NoError(t, p.Unfix(flowId, 0))
	require.NoError(t, p.Solve())

	v, err = p.GetVarValue(flowId, 0)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, v, 1e-6)
}

func TestSetParamRecognizesTunables(t *testing.T) {
	p := newTestProblem()
	require.NoError(t, p.SetParam("warmstart", false))
	require.NoError(t, p.SetParam("solver", "simplex"))
	require.NoError(t, p.SetParam("simplex-scale-strategy", 4))
	err := p.SetParam("not-a-real-tunable", 1)
	assert.Error(t, err)
}
