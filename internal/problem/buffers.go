package problem

// indexedBuffer is the shared shape of the lower-bound, upper-bound, and
// objective-coefficient differential update buffers: writes within one
// update cycle are O(1) (first write appends, later writes overwrite in
// place via the dirty map), and the whole buffer resets after solve!.
type indexedBuffer struct {
	index []int
	value []float64
	dirty map[int]int // global column index -> position in index/value
}

func newIndexedBuffer() indexedBuffer {
	return indexedBuffer{dirty: make(map[int]int)}
}

func (b *indexedBuffer) set(ix int, v float64) {
	if pos, ok := b.dirty[ix]; ok {
		b.value[pos] = v
		return
	}
	b.dirty[ix] = len(b.index)
	b.index = append(b.index, ix)
	b.value = append(b.value, v)
}

func (b *indexedBuffer) reset() {
	b.index = b.index[:0]
	b.value = b.value[:0]
	for k := range b.dirty {
		delete(b.dirty, k)
	}
}

// matrixKey addresses one (row, col) cell of the constraint matrix.
type matrixKey struct{ row, col int }

// matrixBuffer accumulates constraint-matrix triplet writes; any write
// at all forces a full LP re-pass on the next solve (per spec.md §4.5).
type matrixBuffer struct {
	order []matrixKey
	value map[matrixKey]float64
	any   bool
}

func newMatrixBuffer() matrixBuffer {
	return matrixBuffer{value: make(map[matrixKey]float64)}
}

func (b *matrixBuffer) set(row, col int, v float64) {
	k := matrixKey{row, col}
	if _, ok := b.value[k]; !ok {
		b.order = append(b.order, k)
	}
	b.value[k] = v
	b.any = true
}

func (b *matrixBuffer) reset() {
	b.order = b.order[:0]
	for k := range b.value {
		delete(b.value, k)
	}
	b.any = false
}

// rhsBuffer tracks which constraint rows had any rhs-term touched this
// cycle; their per-period totals are re-summed just before solve.
type rhsBuffer struct {
	rows map[int]bool
}

func newRHSBuffer() rhsBuffer { return rhsBuffer{rows: make(map[int]bool)} }

func (b *rhsBuffer) markRow(row int) { b.rows[row] = true }

func (b *rhsBuffer) reset() {
	for k := range b.rows {
		delete(b.rows, k)
	}
}
