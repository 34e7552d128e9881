package tensor

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Add returns the elementwise sum t + o.
func (t *Tensor) Add(o *Tensor) *Tensor {
	t.sameShape(o, "Add")
	out := t.Clone()
	floats.Add(out.data, o.data)
	return out
}

// Sub returns the elementwise difference t - o.
func (t *Tensor) Sub(o *Tensor) *Tensor {
	t.sameShape(o, "Sub")
	out := t.Clone()
	floats.Sub(out.data, o.data)
	return out
}

// Mul returns the elementwise product t * o.
func (t *Tensor) Mul(o *Tensor) *Tensor {
	t.sameShape(o, "Mul")
	out := t.Clone()
	floats.Mul(out.data, o.data)
	return out
}

// Div returns the elementwise quotient t / o.
func (t *Tensor) Div(o *Tensor) *Tensor {
	t.sameShape(o, "Div")
	out := t.Clone()
	floats.Div(out.data, o.data)
	return out
}

// Scale returns t with every element multiplied by c.
func (t *Tensor) Scale(c float64) *Tensor {
	out := t.Clone()
	floats.Scale(c, out.data)
	return out
}

// AddScalar returns t with c added to every element.
func (t *Tensor) AddScalar(c float64) *Tensor {
	out := t.Clone()
	floats.AddConst(c, out.data)
	return out
}

// Apply returns a tensor whose elements are f applied to each element of t.
func (t *Tensor) Apply(f func(float64) float64) *Tensor {
	out := New(t.shape...)
	for i, v := range t.data {
		out.data[i] = f(v)
	}
	return out
}

// Sum returns the sum of all elements.
func (t *Tensor) Sum() float64 { return floats.Sum(t.data) }

// Mean returns the arithmetic mean of all elements.
func (t *Tensor) Mean() float64 { return floats.Sum(t.data) / float64(len(t.data)) }

// Max returns the largest element. It panics if the tensor is empty.
func (t *Tensor) Max() float64 { return floats.Max(t.data) }

// Norm2 returns the Euclidean norm of all elements.
func (t *Tensor) Norm2() float64 { return floats.Norm(t.data, 2) }

// SumRows returns a 1-D tensor of per-row sums of a 2-D tensor.
func (t *Tensor) SumRows() *Tensor {
	if t.Dims() != 2 {
		panic("tensor: SumRows requires a 2-D tensor")
	}
	out := New(t.shape[0])
	for i := 0; i < t.shape[0]; i++ {
		out.data[i] = floats.Sum(t.Row(i))
	}
	return out
}

// Softmax returns the softmax over the last dimension, computed with the
// usual max subtraction for numerical stability.
func (t *Tensor) Softmax() *Tensor {
	n := t.lastDim("Softmax")
	out := New(t.shape...)
	for i := 0; i < len(t.data); i += n {
		row := t.data[i : i+n]
		o := out.data[i : i+n]
		m := floats.Max(row)
		var sum float64
		for j, v := range row {
			e := math.Exp(v - m)
			o[j] = e
			sum += e
		}
		floats.Scale(1/sum, o)
	}
	return out
}

// LogSoftmax returns the log of the softmax over the last dimension via a
// streaming log-sum-exp, avoiding the overflow of exponentiating raw
// values.
func (t *Tensor) LogSoftmax() *Tensor {
	n := t.lastDim("LogSoftmax")
	out := New(t.shape...)
	for i := 0; i < len(t.data); i += n {
		row := t.data[i : i+n]
		o := out.data[i : i+n]
		lse := floats.LogSumExp(row)
		for j, v := range row {
			o[j] = v - lse
		}
	}
	return out
}

func (t *Tensor) lastDim(op string) int {
	if t.Dims() == 0 {
		panic("tensor: " + op + " on a dimensionless tensor")
	}
	n := t.shape[len(t.shape)-1]
	if n == 0 {
		panic("tensor: " + op + " over an empty dimension")
	}
	return n
}

// MatMul returns the matrix product of two 2-D tensors, (m,k) x (k,n).
func MatMul(a, b *Tensor) *Tensor {
	if a.Dims() != 2 || b.Dims() != 2 {
		panic("tensor: MatMul requires 2-D tensors")
	}
	m, k := a.shape[0], a.shape[1]
	k2, n := b.shape[0], b.shape[1]
	if k != k2 {
		panic(fmt.Sprintf("tensor: MatMul inner dimension mismatch: %v vs %v", a.shape, b.shape))
	}
	out := New(m, n)
	for i := 0; i < m; i++ {
		arow := a.data[i*k : (i+1)*k]
		orow := out.data[i*n : (i+1)*n]
		for p := 0; p < k; p++ {
			v := arow[p]
			if v == 0 {
				continue
			}
			floats.AddScaled(orow, v, b.data[p*n:(p+1)*n])
		}
	}
	return out
}

// MatVec returns the matrix-vector product of a 2-D tensor and a 1-D
// tensor as a 1-D tensor of per-row dot products.
func MatVec(m, v *Tensor) *Tensor {
	if m.Dims() != 2 || v.Dims() != 1 {
		panic("tensor: MatVec requires a 2-D matrix and 1-D vector")
	}
	if m.shape[1] != v.shape[0] {
		panic(fmt.Sprintf("tensor: MatVec dimension mismatch: %v vs %v", m.shape, v.shape))
	}
	out := New(m.shape[0])
	for i := 0; i < m.shape[0]; i++ {
		out.data[i] = floats.Dot(m.Row(i), v.data)
	}
	return out
}

// Transpose returns the transpose of a 2-D tensor.
func (t *Tensor) Transpose() *Tensor {
	if t.Dims() != 2 {
		panic("tensor: Transpose requires a 2-D tensor")
	}
	r, c := t.shape[0], t.shape[1]
	out := New(c, r)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out.data[j*r+i] = t.data[i*c+j]
		}
	}
	return out
}

// OneHotRows returns a (len(indices), classes) tensor with a one at each
// row's index and zeros elsewhere.
func OneHotRows(indices []int, classes int) *Tensor {
	out := New(len(indices), classes)
	for i, ix := range indices {
		if ix < 0 || ix >= classes {
			panic(fmt.Sprintf("tensor: one-hot index %d out of range for %d classes", ix, classes))
		}
		out.data[i*classes+ix] = 1
	}
	return out
}
