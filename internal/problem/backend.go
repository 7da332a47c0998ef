package problem

// Status is the solver's terminal model status for one Run.
type Status int

const (
	StatusOptimal Status = iota
	StatusInfeasible
	StatusError
)

// SolveOptions mirrors the solver tunables recognized via set_param
// (spec.md §6): scale/simplex strategy, time limit, concurrency, solver
// choice, crossover, and warmstart.
type SolveOptions struct {
	ScaleStrategy      int
	SimplexStrategy    int
	TimeLimitSeconds   float64
	MaxConcurrency     int
	Solver             string // "simplex" | "ipm"
	RunCrossover       bool
	Warmstart          bool
}

// DefaultSolveOptions matches the teacher's convention of a conservative,
// fully-scaled dual-simplex default.
func DefaultSolveOptions() SolveOptions {
	return SolveOptions{
		ScaleStrategy:   4,
		SimplexStrategy: 1,
		Solver:          "simplex",
		RunCrossover:    true,
		Warmstart:       true,
	}
}

// RowSnapshot is one constraint row as handed to a Backend.
type RowSnapshot struct {
	Sense  Sense
	RHS    float64
	Coeffs map[int]float64 // column -> coefficient
}

// LPSnapshot is the full LP as handed to a Backend on a full load.
type LPSnapshot struct {
	NumVars int
	Lower   []float64
	Upper   []float64
	Obj     []float64
	Rows    []RowSnapshot
}

// Backend is the vendor-agnostic LP engine contract. Two implementations
// exist, both running the same dense simplex: the primary "vendor"
// backend, which accepts the solve options but does not act on them, and
// a reference backend used only as the cascade's last resort.
type Backend interface {
	Reset()
	LoadFull(lp LPSnapshot) error
	PushPartial(lp LPSnapshot, dirtyCols, dirtyRows []int) error
	Run(opts SolveOptions) (Status, error)

	VarValue(i int) float64
	ConDual(row int) float64
	ObjectiveValue() float64
}
