package tensor

import (
	"math/rand"
	"time"

	"gonum.org/v1/gonum/floats"
)

// Sampler draws categorical samples from rows of unnormalised weights
// using a seeded random source. Samplers are not safe for concurrent use.
type Sampler struct {
	rng *rand.Rand
}

// NewSampler returns a sampler seeded with the given value. A zero seed
// selects a time-based seed.
func NewSampler(seed int64) *Sampler {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Sampler{rng: rand.New(rand.NewSource(seed))}
}

// Multinomial draws one index per row of w, a (batch, k) tensor of
// non-negative weights. Rows need not sum to one. A row whose weights do
// not sum to a positive value yields index 0.
func (s *Sampler) Multinomial(w *Tensor) []int {
	if w.Dims() != 2 {
		panic("tensor: Multinomial requires a 2-D tensor")
	}
	rows, cols := w.shape[0], w.shape[1]
	if cols == 0 {
		panic("tensor: Multinomial over an empty dimension")
	}
	out := make([]int, rows)
	for i := range out {
		row := w.Row(i)
		total := floats.Sum(row)
		if !(total > 0) {
			continue
		}
		r := s.rng.Float64() * total
		idx := cols - 1
		var c float64
		for j, v := range row {
			c += v
			if r < c {
				idx = j
				break
			}
		}
		out[i] = idx
	}
	return out
}

// Argmax returns the index of the maximum value in x. Ties resolve to the
// lowest index. It panics if x is empty.
func Argmax(x []float64) int {
	if len(x) == 0 {
		panic("tensor: Argmax of empty slice")
	}
	return floats.MaxIdx(x)
}
