package problem

// referenceBackend is the cascade's last-resort fallback: the same
// dense simplex core, built fresh from the same snapshot, with no
// warmstart or scale-strategy state carried over (spec.md §4.5 step 5).
type referenceBackend struct {
	lp     LPSnapshot
	result solveResult
}

func newReferenceBackend() *referenceBackend { return &referenceBackend{} }

func (b *referenceBackend) Reset()                 { b.result = solveResult{} }
func (b *referenceBackend) LoadFull(lp LPSnapshot) error {
	b.lp = lp
	return nil
}
func (b *referenceBackend) PushPartial(lp LPSnapshot, _, _ []int) error {
	b.lp = lp
	return nil
}

func (b *referenceBackend) Run(SolveOptions) (Status, error) {
	b.result = solveDense(b.lp)
	if !b.result.optimal {
		return StatusInfeasible, nil
	}
	return StatusOptimal, nil
}

func (b *referenceBackend) VarValue(i int) float64 {
	if i < 0 || i >= len(b.result.x) {
		return 0
	}
	return b.result.x[i]
}

func (b *referenceBackend) ConDual(row int) float64 {
	if row < 0 || row >= len(b.result.duals) {
		return 0
	}
	return b.result.duals[row]
}

func (b *referenceBackend) ObjectiveValue() float64 { return b.result.obj }
