package problem

// vendorBackend is the primary solve path. Its numeric core is the
// shared dense simplex (the vendor LP engine itself is out of scope per
// spec.md §1 — "specified only by interface"), and Run solves the same
// way whatever the solve options say: scale/simplex strategy, crossover
// and time limit are not read, and the recorded warmstart flag is not
// used by any later solve.
type vendorBackend struct {
	lp       LPSnapshot
	result   solveResult
	warm     bool
}

func newVendorBackend() *vendorBackend { return &vendorBackend{} }

func (b *vendorBackend) Reset() {
	b.warm = false
	b.result = solveResult{}
}

func (b *vendorBackend) LoadFull(lp LPSnapshot) error {
	b.lp = lp
	return nil
}

// PushPartial replaces the stored snapshot with lp as a whole; the dirty
// column/row lists are not consulted, and a full simplex solve still runs
// (the differential buffers save on writing Problem-side state, not on
// the solve itself).
func (b *vendorBackend) PushPartial(lp LPSnapshot, dirtyCols, dirtyRows []int) error {
	b.lp = lp
	return nil
}

func (b *vendorBackend) Run(opts SolveOptions) (Status, error) {
	b.result = solveDense(b.lp)
	b.warm = opts.Warmstart
	if !b.result.optimal {
		return StatusInfeasible, nil
	}
	return StatusOptimal, nil
}

func (b *vendorBackend) VarValue(i int) float64 {
	if i < 0 || i >= len(b.result.x) {
		return 0
	}
	return b.result.x[i]
}

func (b *vendorBackend) ConDual(row int) float64 {
	if row < 0 || row >= len(b.result.duals) {
		return 0
	}
	return b.result.duals[row]
}

func (b *vendorBackend) ObjectiveValue() float64 { return b.result.obj }
