package chain

import "fmt"

// Trajectory records the states of one Markov chain as a flat buffer
// strided by the state dimension. Storage grows geometrically so a run
// of unknown length does not reallocate on every step; call Trim once
// recording is done to drop the unused tail.
type Trajectory struct {
	dim  int
	data []float64
	n    int
}

func NewTrajectory(dim, capacityHint int) *Trajectory {
	if dim <= 0 {
		panic(fmt.Sprintf("trajectory dimension must be positive, got %d", dim))
	}
	if capacityHint < 1 {
		capacityHint = 1
	}
	return &Trajectory{
		dim:  dim,
		data: make([]float64, 0, dim*capacityHint),
	}
}

func (t *Trajectory) Dim() int { return t.dim }

func (t *Trajectory) Len() int { return t.n }

// Append copies state into the buffer as the next recorded iteration.
func (t *Trajectory) Append(state []float64) {
	if len(state) != t.dim {
		panic(fmt.Sprintf("state dimension mismatch: got %d, want %d", len(state), t.dim))
	}
	if len(t.data)+t.dim > cap(t.data) {
		t.grow()
	}
	t.data = append(t.data, state...)
	t.n++
}

// At returns a view of the state recorded at position i. The returned
// slice aliases the buffer; callers must not modify it.
func (t *Trajectory) At(i int) []float64 {
	if i < 0 || i >= t.n {
		panic(fmt.Sprintf("trajectory index %d out of range [0,%d)", i, t.n))
	}
	return t.data[i*t.dim : (i+1)*t.dim]
}

func (t *Trajectory) Last() []float64 {
	if t.n == 0 {
		panic("trajectory is empty")
	}
	return t.At(t.n - 1)
}

// Trim releases the unused tail of the buffer so a finished run holds
// exactly the recorded states.
func (t *Trajectory) Trim() {
	if len(t.data) == cap(t.data) {
		return
	}
	trimmed := make([]float64, len(t.data))
	copy(trimmed, t.data)
	t.data = trimmed
}

func (t *Trajectory) Clone() *Trajectory {
	data := make([]float64, len(t.data))
	copy(data, t.data)
	return &Trajectory{dim: t.dim, data: data, n: t.n}
}

func (t *Trajectory) grow() {
	newCap := 2 * cap(t.data)
	if newCap < t.dim {
		newCap = t.dim
	}
	grown := make([]float64, len(t.data), newCap)
	copy(grown, t.data)
	t.data = grown
}
