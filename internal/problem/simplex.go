package problem

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// solveResult is the outcome of solveDense: whether an optimal basic
// feasible solution was found, the recovered structural variable values,
// row duals, and the objective value.
type solveResult struct {
	optimal bool
	x       []float64
	duals   []float64
	obj     float64
}

const simplexMaxIterations = 2000
const simplexEps = 1e-9

// solveDense solves the bounded-variable LP described by lp with a dense
// two-phase primal simplex (Bland's rule pivoting, to guarantee
// termination on the small, typically-degenerate problems this engine
// builds). Free variables (Lower == -Inf) are split into a
// nonnegative difference of two columns; finite upper bounds become
// explicit <= rows.
func solveDense(lp LPSnapshot) solveResult {
	n := lp.NumVars

	// Column layout after free-variable splitting: each original
	// variable contributes either 1 column (finite lower bound, shifted
	// to start at 0) or 2 columns (free: plus/minus parts).
	shift := make([]float64, n)
	colOf := make([][2]int, n) // [plusCol, minusCol] (minusCol==-1 if not split)
	ncols := 0
	for i := 0; i < n; i++ {
		lo := lp.Lower[i]
		if math.IsInf(lo, -1) {
			colOf[i] = [2]int{ncols, ncols + 1}
			ncols += 2
			shift[i] = 0
		} else {
			colOf[i] = [2]int{ncols, -1}
			ncols++
			shift[i] = lo
		}
	}

	type row struct {
		coeffs map[int]float64
		sense  Sense
		rhs    float64
	}
	var rows []row
	for _, r := range lp.Rows {
		nr := row{coeffs: make(map[int]float64), sense: r.Sense, rhs: r.RHS}
		for col, v := range r.Coeffs {
			pc, mc := colOf[col][0], colOf[col][1]
			nr.coeffs[pc] += v
			nr.rhs -= v * shift[col]
			if mc != -1 {
				nr.coeffs[mc] -= v
			}
		}
		rows = append(rows, nr)
	}
	// Explicit upper-bound rows: y_i <= ub_i - shift_i (and for split
	// free vars, plus-minus <= ub when finite).
	for i := 0; i < n; i++ {
		if math.IsInf(lp.Upper[i], 1) {
			continue
		}
		nr := row{coeffs: map[int]float64{colOf[i][0]: 1}, sense: SenseLE, rhs: lp.Upper[i] - shift[i]}
		if colOf[i][1] != -1 {
			nr.coeffs[colOf[i][1]] = -1
		}
		rows = append(rows, nr)
	}

	m := len(rows)
	if m == 0 {
		x := make([]float64, n)
		for i := range x {
			if math.IsInf(lp.Lower[i], -1) {
				x[i] = 0
			} else {
				x[i] = lp.Lower[i]
			}
		}
		return solveResult{optimal: true, x: x, duals: make([]float64, len(lp.Rows))}
	}

	// Normalize rows to RHS >= 0 (flip sense/sign otherwise).
	flipped := make([]bool, m)
	for i := range rows {
		if rows[i].rhs < 0 {
			flipped[i] = true
			rows[i].rhs = -rows[i].rhs
			for k, v := range rows[i].coeffs {
				rows[i].coeffs[k] = -v
			}
			switch rows[i].sense {
			case SenseLE:
				rows[i].sense = SenseGE
			case SenseGE:
				rows[i].sense = SenseLE
			}
		}
	}

	// Column layout: structural (ncols) | slack/surplus (m, one per
	// row, unused columns left at zero) | artificial (m, one per row).
	slackBase := ncols
	artBase := ncols + m
	totalCols := ncols + 2*m

	basis := make([]int, m)
	tab := mat.NewDense(m+1, totalCols+1, nil)
	for j, r := range rows {
		for col, v := range r.coeffs {
			tab.Set(j, col, v)
		}
		tab.Set(j, totalCols, r.rhs)
		switch r.sense {
		case SenseLE:
			tab.Set(j, slackBase+j, 1)
			tab.Set(j, artBase+j, 1) // harmless spare artificial kept at 0 via phase-1 objective
			basis[j] = slackBase + j
		case SenseGE:
			tab.Set(j, slackBase+j, -1)
			tab.Set(j, artBase+j, 1)
			basis[j] = artBase + j
		case SenseEQ:
			tab.Set(j, artBase+j, 1)
			basis[j] = artBase + j
		}
	}

	// Phase 1: minimize sum of artificials.
	phase1Obj := make([]float64, totalCols)
	for j := artBase; j < artBase+m; j++ {
		phase1Obj[j] = 1
	}
	runSimplexPhase(tab, basis, phase1Obj, totalCols)

	if tab.At(m, totalCols) > 1e-6 {
		return solveResult{optimal: false}
	}

	// Drop artificial columns from further consideration by pricing them
	// at 0 in phase 2 and blocking them from entering the basis.
	phase2Obj := make([]float64, totalCols)
	for i := 0; i < n; i++ {
		phase2Obj[colOf[i][0]] = lp.Obj[i]
		if colOf[i][1] != -1 {
			phase2Obj[colOf[i][1]] = -lp.Obj[i]
		}
	}
	for j := artBase; j < artBase+m; j++ {
		phase2Obj[j] = 0
	}
	blocked := make([]bool, totalCols)
	for j := artBase; j < artBase+m; j++ {
		blocked[j] = true
	}
	runSimplexPhase2(tab, basis, phase2Obj, totalCols, blocked)

	x := make([]float64, n)
	colValue := make([]float64, totalCols)
	for j, b := range basis {
		colValue[b] = tab.At(j, totalCols)
	}
	for i := 0; i < n; i++ {
		v := colValue[colOf[i][0]]
		if colOf[i][1] != -1 {
			v -= colValue[colOf[i][1]]
		}
		x[i] = v + shift[i]
	}

	duals := make([]float64, len(lp.Rows))
	for j := range lp.Rows {
		// Every row (LE/GE/EQ alike) was built with an artificial
		// column of coefficient 1, priced at 0 in phase 2; its final
		// reduced cost is exactly -dual(row) regardless of which
		// column ended up basic for that row. A row flipped to a
		// non-negative RHS above has its dual negated back.
		if j < m {
			duals[j] = -tab.At(m, artBase+j)
			if flipped[j] {
				duals[j] = -duals[j]
			}
		}
	}

	obj := 0.0
	for i := 0; i < n; i++ {
		obj += lp.Obj[i] * x[i]
	}

	return solveResult{optimal: true, x: x, duals: duals, obj: obj}
}

// runSimplexPhase runs phase 1 (drive artificials to zero) using Bland's
// rule. It first re-expresses the objective row in terms of non-basic
// reduced costs.
func runSimplexPhase(tab *mat.Dense, basis []int, obj []float64, totalCols int) {
	seedObjectiveRow(tab, basis, obj, totalCols)
	pivotToOptimum(tab, basis, totalCols, nil)
}

func runSimplexPhase2(tab *mat.Dense, basis []int, obj []float64, totalCols int, blocked []bool) {
	seedObjectiveRow(tab, basis, obj, totalCols)
	pivotToOptimum(tab, basis, totalCols, blocked)
}

// seedObjectiveRow writes row m (the objective row) as c_j - z_j for the
// given cost vector, given the current (feasible) basis.
func seedObjectiveRow(tab *mat.Dense, basis []int, obj []float64, totalCols int) {
	m, _ := tab.Dims()
	m--
	for j := 0; j <= totalCols; j++ {
		if j < totalCols {
			tab.Set(m, j, obj[j])
		} else {
			tab.Set(m, j, 0)
		}
	}
	for i, b := range basis {
		cb := obj[b]
		if cb == 0 {
			continue
		}
		for j := 0; j <= totalCols; j++ {
			tab.Set(m, j, tab.At(m, j)-cb*tab.At(i, j))
		}
	}
}

// pivotToOptimum runs simplex pivots (Bland's rule) until no negative
// reduced cost remains among unblocked columns.
func pivotToOptimum(tab *mat.Dense, basis []int, totalCols int, blocked []bool) {
	m, _ := tab.Dims()
	m--
	for iter := 0; iter < simplexMaxIterations; iter++ {
		enter := -1
		for j := 0; j < totalCols; j++ {
			if blocked != nil && blocked[j] {
				continue
			}
			if tab.At(m, j) < -simplexEps {
				enter = j
				break
			}
		}
		if enter == -1 {
			return
		}
		leave := -1
		best := math.Inf(1)
		for i := 0; i < m; i++ {
			a := tab.At(i, enter)
			if a > simplexEps {
				ratio := tab.At(i, totalCols) / a
				if ratio < best-simplexEps || (math.Abs(ratio-best) <= simplexEps && (leave == -1 || basis[i] < basis[leave])) {
					best = ratio
					leave = i
				}
			}
		}
		if leave == -1 {
			return // unbounded; surface as non-optimal via the caller's checks
		}
		pivot(tab, leave, enter, totalCols)
		basis[leave] = enter
	}
}

func pivot(tab *mat.Dense, row, col int, totalCols int) {
	rows, _ := tab.Dims()
	p := tab.At(row, col)
	for j := 0; j <= totalCols; j++ {
		tab.Set(row, j, tab.At(row, j)/p)
	}
	for i := 0; i < rows; i++ {
		if i == row {
			continue
		}
		f := tab.At(i, col)
		if f == 0 {
			continue
		}
		for j := 0; j <= totalCols; j++ {
			tab.Set(i, j, tab.At(i, j)-f*tab.At(row, j))
		}
	}
}
