package tensor

import (
	"fmt"
	"math/rand"
)

// Tensor is a dense row-major array of float64 values. By convention the
// first dimension is the batch dimension and per-example operations
// preserve it.
//
// Tensor performs no memory safety beyond the checks of Go's slice types;
// shape mismatches and out-of-range indices panic.
type Tensor struct {
	shape []int
	data  []float64
}

// New allocates a zero-initialised tensor with the given shape.
func New(shape ...int) *Tensor {
	return &Tensor{shape: checkShape(shape), data: make([]float64, numElems(shape))}
}

// Ones allocates a tensor with every element set to one.
func Ones(shape ...int) *Tensor {
	return Full(1, shape...)
}

// Full allocates a tensor with every element set to v.
func Full(v float64, shape ...int) *Tensor {
	t := New(shape...)
	for i := range t.data {
		t.data[i] = v
	}
	return t
}

// FromSlice wraps data in a tensor of the given shape without copying.
// The data length must match the shape exactly.
func FromSlice(data []float64, shape ...int) *Tensor {
	if len(data) != numElems(shape) {
		panic(fmt.Sprintf("tensor: data length %d does not match shape %v", len(data), shape))
	}
	return &Tensor{shape: checkShape(shape), data: data}
}

// Linspace returns a 1-D tensor of n values spaced evenly from start to
// stop inclusive. It panics if n < 1.
func Linspace(start, stop float64, n int) *Tensor {
	if n < 1 {
		panic("tensor: Linspace requires n >= 1")
	}
	t := New(n)
	if n == 1 {
		t.data[0] = start
		return t
	}
	step := (stop - start) / float64(n-1)
	for i := range t.data {
		t.data[i] = start + float64(i)*step
	}
	t.data[n-1] = stop
	return t
}

// Randn fills a new tensor of the given shape with standard normal draws
// from rng.
func Randn(rng *rand.Rand, shape ...int) *Tensor {
	t := New(shape...)
	for i := range t.data {
		t.data[i] = rng.NormFloat64()
	}
	return t
}

// Shape returns the tensor's dimensions. The returned slice is the
// tensor's own header and must not be modified.
func (t *Tensor) Shape() []int { return t.shape }

// Dims returns the number of dimensions.
func (t *Tensor) Dims() int { return len(t.shape) }

// Dim returns the size of dimension i.
func (t *Tensor) Dim(i int) int { return t.shape[i] }

// Size returns the total number of elements.
func (t *Tensor) Size() int { return len(t.data) }

// Data returns the backing slice in row-major order. Modifications to the
// returned slice update the tensor.
func (t *Tensor) Data() []float64 { return t.data }

// At returns the element at the given indices.
func (t *Tensor) At(idx ...int) float64 { return t.data[t.offset(idx)] }

// Set stores v at the given indices.
func (t *Tensor) Set(v float64, idx ...int) { t.data[t.offset(idx)] = v }

// Clone returns a deep copy of the tensor.
func (t *Tensor) Clone() *Tensor {
	out := &Tensor{shape: append([]int(nil), t.shape...), data: make([]float64, len(t.data))}
	copy(out.data, t.data)
	return out
}

// Reshape returns a view of the tensor with a new shape sharing the same
// backing data. At most one dimension may be -1, in which case it is
// inferred from the element count.
func (t *Tensor) Reshape(shape ...int) *Tensor {
	shape = append([]int(nil), shape...)
	infer := -1
	known := 1
	for i, d := range shape {
		switch {
		case d == -1:
			if infer >= 0 {
				panic("tensor: Reshape allows at most one inferred dimension")
			}
			infer = i
		case d < 0:
			panic("tensor: negative dimension")
		default:
			known *= d
		}
	}
	if infer >= 0 {
		if known == 0 || len(t.data)%known != 0 {
			panic(fmt.Sprintf("tensor: cannot infer dimension for shape %v from %d elements", shape, len(t.data)))
		}
		shape[infer] = len(t.data) / known
	} else if known != len(t.data) {
		panic(fmt.Sprintf("tensor: cannot reshape %d elements to %v", len(t.data), shape))
	}
	return &Tensor{shape: shape, data: t.data}
}

// Row returns a flattened view of entry i along the first dimension.
// For a 2-D tensor this is the i-th matrix row. Modifications to the
// returned slice update the tensor.
func (t *Tensor) Row(i int) []float64 {
	if t.Dims() == 0 {
		panic("tensor: Row on a dimensionless tensor")
	}
	if i < 0 || i >= t.shape[0] {
		panic("tensor: row index out of range")
	}
	n := len(t.data) / t.shape[0]
	return t.data[i*n : (i+1)*n]
}

func (t *Tensor) offset(idx []int) int {
	if len(idx) != len(t.shape) {
		panic(fmt.Sprintf("tensor: got %d indices for %d dimensions", len(idx), len(t.shape)))
	}
	off := 0
	for i, ix := range idx {
		if ix < 0 || ix >= t.shape[i] {
			panic(fmt.Sprintf("tensor: index %d out of range for dimension %d of size %d", ix, i, t.shape[i]))
		}
		off = off*t.shape[i] + ix
	}
	return off
}

func (t *Tensor) sameShape(o *Tensor, op string) {
	if len(t.shape) != len(o.shape) {
		panic(fmt.Sprintf("tensor: shape mismatch in %s: %v vs %v", op, t.shape, o.shape))
	}
	for i := range t.shape {
		if t.shape[i] != o.shape[i] {
			panic(fmt.Sprintf("tensor: shape mismatch in %s: %v vs %v", op, t.shape, o.shape))
		}
	}
}

func checkShape(shape []int) []int {
	for _, d := range shape {
		if d < 0 {
			panic("tensor: negative dimension")
		}
	}
	return append([]int(nil), shape...)
}

func numElems(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}
