package problem

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"
)

type varRange struct{ start, count int }

type conRange struct {
	start, count int
	sense        Sense
	rhsTerms     []map[Id]float64 // per period (length count)
}

type fixableKey struct {
	v Id
	i int
}

// Problem is the vendor-agnostic solver façade: an Id-addressed
// variable/constraint table, differential update buffers, and a solve
// cascade over a vendor backend with a reference-backend fallback.
type Problem struct {
	log zerolog.Logger

	vars map[Id]varRange
	cons map[Id]conRange

	numVars, numCons int
	lb, ub, obj      []float64
	rowSense         []Sense
	coeffs           map[matrixKey]float64

	fixable map[fixableKey]Id

	lbBuf, ubBuf, objBuf indexedBuffer
	matBuf               matrixBuffer
	rhsBuf               rhsBuffer

	silent bool
	opts   SolveOptions

	vendor, reference Backend

	everSolved  bool
	hasSolution bool
	usedBackend Backend
	objective   float64
}

// New constructs an empty Problem with the default vendor/reference
// backend pair.
func New(log zerolog.Logger) *Problem {
	return &Problem{
		log:       log,
		vars:      make(map[Id]varRange),
		cons:      make(map[Id]conRange),
		coeffs:    make(map[matrixKey]float64),
		fixable:   make(map[fixableKey]Id),
		lbBuf:     newIndexedBuffer(),
		ubBuf:     newIndexedBuffer(),
		objBuf:    newIndexedBuffer(),
		matBuf:    newMatrixBuffer(),
		rhsBuf:    newRHSBuffer(),
		opts:      DefaultSolveOptions(),
		vendor:    newVendorBackend(),
		reference: newReferenceBackend(),
	}
}

// AddVar declares a new variable family of n periods, failing
// ErrDuplicateID on reuse.
func (p *Problem) AddVar(id Id, n int) error {
	if _, exists := p.vars[id]; exists {
		return fmt.Errorf("%w: variable %s", ErrDuplicateID, id)
	}
	p.vars[id] = varRange{start: p.numVars, count: n}
	for i := 0; i < n; i++ {
		p.lb = append(p.lb, 0)
		p.ub = append(p.ub, math.Inf(1))
		p.obj = append(p.obj, 0)
	}
	p.numVars += n
	return nil
}

func (p *Problem) addCon(id Id, n int, sense Sense) error {
	if _, exists := p.cons[id]; exists {
		return fmt.Errorf("%w: constraint %s", ErrDuplicateID, id)
	}
	terms := make([]map[Id]float64, n)
	for i := range terms {
		terms[i] = make(map[Id]float64)
	}
	p.cons[id] = conRange{start: p.numCons, count: n, sense: sense, rhsTerms: terms}
	for i := 0; i < n; i++ {
		p.rowSense = append(p.rowSense, sense)
	}
	p.numCons += n
	return nil
}

func (p *Problem) AddEq(id Id, n int) error { return p.addCon(id, n, SenseEQ) }
func (p *Problem) AddLe(id Id, n int) error { return p.addCon(id, n, SenseLE) }
func (p *Problem) AddGe(id Id, n int) error { return p.addCon(id, n, SenseGE) }

func (p *Problem) varCol(v Id, i int) (int, error) {
	r, ok := p.vars[v]
	if !ok {
		return 0, fmt.Errorf("%w: variable %s", ErrUnknownId, v)
	}
	if i < 0 || i >= r.count {
		return 0, fmt.Errorf("%w: period %d outside 0..%d for %s", ErrOutOfRange, i, r.count-1, v)
	}
	return r.start + i, nil
}

func (p *Problem) conRow(c Id, i int) (int, error) {
	r, ok := p.cons[c]
	if !ok {
		return 0, fmt.Errorf("%w: constraint %s", ErrUnknownId, c)
	}
	if i < 0 || i >= r.count {
		return 0, fmt.Errorf("%w: period %d outside 0..%d for %s", ErrOutOfRange, i, r.count-1, c)
	}
	return r.start + i, nil
}

// SetConCoeff writes the coefficient of variable v (period vi) in
// constraint con (period ci).
func (p *Problem) SetConCoeff(con Id, v Id, ci, vi int, value float64) error {
	row, err := p.conRow(con, ci)
	if err != nil {
		return err
	}
	col, err := p.varCol(v, vi)
	if err != nil {
		return err
	}
	p.coeffs[matrixKey{row, col}] = value
	p.matBuf.set(row, col, value)
	return nil
}

func (p *Problem) SetUB(v Id, i int, value float64) error {
	col, err := p.varCol(v, i)
	if err != nil {
		return err
	}
	p.ub[col] = value
	p.ubBuf.set(col, value)
	return nil
}

func (p *Problem) SetLB(v Id, i int, value float64) error {
	col, err := p.varCol(v, i)
	if err != nil {
		return err
	}
	p.lb[col] = value
	p.lbBuf.set(col, value)
	return nil
}

func (p *Problem) SetObjCoeff(v Id, i int, value float64) error {
	col, err := p.varCol(v, i)
	if err != nil {
		return err
	}
	p.obj[col] = value
	p.objBuf.set(col, value)
	return nil
}

// SetRHSTerm writes one named additive contributor to the rhs of
// constraint con's period i row.
func (p *Problem) SetRHSTerm(con Id, term Id, i int, value float64) error {
	r, ok := p.cons[con]
	if !ok {
		return fmt.Errorf("%w: constraint %s", ErrUnknownId, con)
	}
	if i < 0 || i >= r.count {
		return fmt.Errorf("%w: period %d outside 0..%d for %s", ErrOutOfRange, i, r.count-1, con)
	}
	r.rhsTerms[i][term] = value
	p.rhsBuf.markRow(r.start + i)
	return nil
}

func (p *Problem) GetConCoeff(con Id, v Id, ci, vi int) (float64, error) {
	row, err := p.conRow(con, ci)
	if err != nil {
		return 0, err
	}
	col, err := p.varCol(v, vi)
	if err != nil {
		return 0, err
	}
	return p.coeffs[matrixKey{row, col}], nil
}

func (p *Problem) GetUB(v Id, i int) (float64, error) {
	col, err := p.varCol(v, i)
	if err != nil {
		return 0, err
	}
	return p.ub[col], nil
}

func (p *Problem) GetLB(v Id, i int) (float64, error) {
	col, err := p.varCol(v, i)
	if err != nil {
		return 0, err
	}
	return p.lb[col], nil
}

func (p *Problem) GetObjCoeff(v Id, i int) (float64, error) {
	col, err := p.varCol(v, i)
	if err != nil {
		return 0, err
	}
	return p.obj[col], nil
}

func (p *Problem) GetRHSTerm(con Id, term Id, i int) (float64, error) {
	r, ok := p.cons[con]
	if !ok {
		return 0, fmt.Errorf("%w: constraint %s", ErrUnknownId, con)
	}
	if i < 0 || i >= r.count {
		return 0, fmt.Errorf("%w: period %d outside 0..%d for %s", ErrOutOfRange, i, r.count-1, con)
	}
	return r.rhsTerms[i][term], nil
}

// GetVarValue reads the cached solution; fails ErrNoSolution before the
// first successful solve.
func (p *Problem) GetVarValue(v Id, i int) (float64, error) {
	if !p.hasSolution {
		return 0, ErrNoSolution
	}
	col, err := p.varCol(v, i)
	if err != nil {
		return 0, err
	}
	return p.usedBackend.VarValue(col), nil
}

func (p *Problem) GetConDual(c Id, i int) (float64, error) {
	if !p.hasSolution {
		return 0, ErrNoSolution
	}
	row, err := p.conRow(c, i)
	if err != nil {
		return 0, err
	}
	return p.usedBackend.ConDual(row), nil
}

func (p *Problem) GetObjectiveValue() (float64, error) {
	if !p.hasSolution {
		return 0, ErrNoSolution
	}
	return p.objective, nil
}

// --- Fixable variables ----------------------------------------------------

var fixValueTerm = Id{Concept: "FIXVALUE", Instance: "term"}

// MakeFixable declares the internal equality constraint backing fix/unfix
// and fix_var_dual for variable v's period i.
func (p *Problem) MakeFixable(v Id, i int) error {
	if _, err := p.varCol(v, i); err != nil {
		return err
	}
	key := fixableKey{v, i}
	if _, exists := p.fixable[key]; exists {
		return fmt.Errorf("%w: fixable %s:%d", ErrDuplicateID, v, i)
	}
	conId := Id{Concept: "FIXABLE", Instance: fmt.Sprintf("%s:%d", v, i)}
	if err := p.AddEq(conId, 1); err != nil {
		return err
	}
	if err := p.SetConCoeff(conId, v, 0, i, 0); err != nil {
		return err
	}
	p.fixable[key] = conId
	return nil
}

// Fix pins variable v's period i to value via its fixable constraint.
func (p *Problem) Fix(v Id, i int, value float64) error {
	conId, ok := p.fixable[fixableKey{v, i}]
	if !ok {
		return fmt.Errorf("%w: variable %s:%d was never made fixable", ErrUnknownId, v, i)
	}
	if err := p.SetConCoeff(conId, v, 0, i, 1); err != nil {
		return err
	}
	return p.SetRHSTerm(conId, fixValueTerm, 0, value)
}

// Unfix relaxes a previously-fixed variable by zeroing its fixable row.
func (p *Problem) Unfix(v Id, i int) error {
	conId, ok := p.fixable[fixableKey{v, i}]
	if !ok {
		return fmt.Errorf("%w: variable %s:%d was never made fixable", ErrUnknownId, v, i)
	}
	if err := p.SetConCoeff(conId, v, 0, i, 0); err != nil {
		return err
	}
	return p.SetRHSTerm(conId, fixValueTerm, 0, 0)
}

// GetFixVarDual reads the dual of a fixed variable's pinning constraint.
func (p *Problem) GetFixVarDual(v Id, i int) (float64, error) {
	conId, ok := p.fixable[fixableKey{v, i}]
	if !ok {
		return 0, fmt.Errorf("%w: variable %s:%d was never made fixable", ErrUnknownId, v, i)
	}
	return p.GetConDual(conId, 0)
}

// --- Silence & tunables ---------------------------------------------------

func (p *Problem) SetSilent()   { p.silent = true }
func (p *Problem) SetUnsilent() { p.silent = false }

// SetParam recognizes the tunables named in spec.md §6.
func (p *Problem) SetParam(name string, value any) error {
	switch name {
	case "simplex-scale-strategy":
		p.opts.ScaleStrategy = value.(int)
	case "simplex-strategy":
		p.opts.SimplexStrategy = value.(int)
	case "time-limit":
		p.opts.TimeLimitSeconds = value.(float64)
	case "simplex-max-concurrency":
		p.opts.MaxConcurrency = value.(int)
	case "solver":
		p.opts.Solver = value.(string)
	case "run-crossover":
		p.opts.RunCrossover = value.(string) == "on"
	case "warmstart":
		p.opts.Warmstart = value.(bool)
	default:
		return fmt.Errorf("unrecognized solver tunable %q", name)
	}
	return nil
}

// --- Solve cascade ----------------------------------------------------

func (p *Problem) composeRHS() []float64 {
	rhs := make([]float64, p.numCons)
	for _, c := range p.cons {
		for i, terms := range c.rhsTerms {
			var sum float64
			for _, v := range terms {
				sum += v
			}
			rhs[c.start+i] = sum
		}
	}
	return rhs
}

func (p *Problem) snapshot() LPSnapshot {
	rhs := p.composeRHS()
	rows := make([]RowSnapshot, p.numCons)
	for i := range rows {
		rows[i] = RowSnapshot{Sense: p.rowSense[i], RHS: rhs[i], Coeffs: make(map[int]float64)}
	}
	for k, v := range p.coeffs {
		rows[k.row].Coeffs[k.col] = v
	}
	return LPSnapshot{
		NumVars: p.numVars,
		Lower:   append([]float64(nil), p.lb...),
		Upper:   append([]float64(nil), p.ub...),
		Obj:     append([]float64(nil), p.obj...),
		Rows:    rows,
	}
}

func (p *Problem) resetBuffers() {
	p.lbBuf.reset()
	p.ubBuf.reset()
	p.objBuf.reset()
	p.matBuf.reset()
	p.rhsBuf.reset()
}

// Solve flushes the differential buffers, runs the vendor backend, and
// falls back through the recovery cascade of spec.md §4.5.
func (p *Problem) Solve() error {
	snap := p.snapshot()
	fullPass := !p.everSolved || p.matBuf.any

	if fullPass {
		if err := p.vendor.LoadFull(snap); err != nil {
			return err
		}
	} else {
		dirtyCols := make([]int, 0, len(p.lbBuf.dirty)+len(p.ubBuf.dirty)+len(p.objBuf.dirty))
		for c := range p.lbBuf.dirty {
			dirtyCols = append(dirtyCols, c)
		}
		for c := range p.ubBuf.dirty {
			dirtyCols = append(dirtyCols, c)
		}
		for c := range p.objBuf.dirty {
			dirtyCols = append(dirtyCols, c)
		}
		dirtyRows := make([]int, 0, len(p.rhsBuf.rows))
		for r := range p.rhsBuf.rows {
			dirtyRows = append(dirtyRows, r)
		}
		if err := p.vendor.PushPartial(snap, dirtyCols, dirtyRows); err != nil {
			return err
		}
	}

	if !p.opts.Warmstart {
		p.vendor.Reset()
		if err := p.vendor.LoadFull(snap); err != nil {
			return err
		}
	}

	status, _ := p.vendor.Run(p.opts)

	if status != StatusOptimal {
		p.vendor.Reset()
		if err := p.vendor.LoadFull(snap); err != nil {
			return err
		}
		status, _ = p.vendor.Run(p.opts)
	}

	if status != StatusOptimal && p.opts.Solver == "simplex" {
		for _, scale := range []int{3, 2} {
			o := p.opts
			o.ScaleStrategy = scale
			if status, _ = p.vendor.Run(o); status == StatusOptimal {
				break
			}
		}
		if status != StatusOptimal {
			o := p.opts
			o.SimplexStrategy = 1 // dual
			status, _ = p.vendor.Run(o)
		}
		if status != StatusOptimal {
			o := p.opts
			o.SimplexStrategy = 4 // primal
			status, _ = p.vendor.Run(o)
		}
		if status != StatusOptimal {
			o := p.opts
			o.Solver = "ipm"
			o.RunCrossover = false
			status, _ = p.vendor.Run(o)
		}
	}

	used := p.vendor
	if status != StatusOptimal {
		if err := p.reference.LoadFull(snap); err != nil {
			return err
		}
		status, _ = p.reference.Run(p.opts)
		used = p.reference
	}

	p.everSolved = true
	if status != StatusOptimal {
		p.hasSolution = false
		return ErrSolverError
	}

	p.usedBackend = used
	p.objective = used.ObjectiveValue()
	p.hasSolution = true
	p.resetBuffers()
	return nil
}

// Stats is a point-in-time read-only snapshot of table sizes and solve
// status, for callers that report on an assembled Problem (internal/server's
// introspection endpoint) without exposing the mutable tables themselves.
type Stats struct {
	NumVars        int
	NumConstraints int
	EverSolved     bool
	HasSolution    bool
	Objective      float64
}

func (p *Problem) Stats() Stats {
	return Stats{
		NumVars:        p.numVars,
		NumConstraints: p.numCons,
		EverSolved:     p.everSolved,
		HasSolution:    p.hasSolution,
		Objective:      p.objective,
	}
}
