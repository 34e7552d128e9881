package autograd

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/Sam-Fatehmanesh/BrainSim/pkg/tensor"
)

// Add returns the elementwise sum a + b.
func Add(a, b *Var) *Var {
	out := a.value.Add(b.value)
	return newNode(out, []*Var{a, b}, func(g *tensor.Tensor) {
		a.accumulate(g)
		b.accumulate(g)
	})
}

// Sub returns the elementwise difference a - b.
func Sub(a, b *Var) *Var {
	out := a.value.Sub(b.value)
	return newNode(out, []*Var{a, b}, func(g *tensor.Tensor) {
		a.accumulate(g)
		b.accumulate(g.Scale(-1))
	})
}

// Mul returns the elementwise product a * b.
func Mul(a, b *Var) *Var {
	out := a.value.Mul(b.value)
	return newNode(out, []*Var{a, b}, func(g *tensor.Tensor) {
		a.accumulate(g.Mul(b.value))
		b.accumulate(g.Mul(a.value))
	})
}

// Scale returns a with every element multiplied by c.
func Scale(a *Var, c float64) *Var {
	out := a.value.Scale(c)
	return newNode(out, []*Var{a}, func(g *tensor.Tensor) {
		a.accumulate(g.Scale(c))
	})
}

// AddScalar returns a with c added to every element.
func AddScalar(a *Var, c float64) *Var {
	out := a.value.AddScalar(c)
	return newNode(out, []*Var{a}, func(g *tensor.Tensor) {
		a.accumulate(g)
	})
}

// Log returns the elementwise natural logarithm of a.
func Log(a *Var) *Var {
	out := a.value.Apply(math.Log)
	return newNode(out, []*Var{a}, func(g *tensor.Tensor) {
		a.accumulate(g.Div(a.value))
	})
}

// Exp returns the elementwise exponential of a.
func Exp(a *Var) *Var {
	out := a.value.Apply(math.Exp)
	return newNode(out, []*Var{a}, func(g *tensor.Tensor) {
		a.accumulate(g.Mul(out))
	})
}

// Tanh returns the elementwise hyperbolic tangent of a.
func Tanh(a *Var) *Var {
	out := a.value.Apply(math.Tanh)
	return newNode(out, []*Var{a}, func(g *tensor.Tensor) {
		d := out.Apply(func(y float64) float64 { return 1 - y*y })
		a.accumulate(g.Mul(d))
	})
}

// MatMul returns the matrix product of 2-D nodes a and b.
func MatMul(a, b *Var) *Var {
	out := tensor.MatMul(a.value, b.value)
	return newNode(out, []*Var{a, b}, func(g *tensor.Tensor) {
		a.accumulate(tensor.MatMul(g, b.value.Transpose()))
		b.accumulate(tensor.MatMul(a.value.Transpose(), g))
	})
}

// Reshape returns a with a new shape following the tensor Reshape rules,
// including a single inferred -1 dimension. The gradient is the upstream
// gradient viewed in a's shape.
func Reshape(a *Var, shape ...int) *Var {
	out := a.value.Reshape(shape...)
	return newNode(out, []*Var{a}, func(g *tensor.Tensor) {
		a.accumulate(g.Reshape(a.value.Shape()...))
	})
}

// Softmax returns the softmax of a over its last dimension. The backward
// rule is the softmax Jacobian product y * (g - dot(g, y)) per row.
func Softmax(a *Var) *Var {
	out := a.value.Softmax()
	n := out.Dim(out.Dims() - 1)
	return newNode(out, []*Var{a}, func(g *tensor.Tensor) {
		ga := tensor.New(a.value.Shape()...)
		yd, gd, gad := out.Data(), g.Data(), ga.Data()
		for off := 0; off < len(yd); off += n {
			y := yd[off : off+n]
			gr := gd[off : off+n]
			dot := floats.Dot(gr, y)
			for j, yj := range y {
				gad[off+j] = yj * (gr[j] - dot)
			}
		}
		a.accumulate(ga)
	})
}

// AddBias adds a 1-D bias to every row of a 2-D input. The bias gradient
// is the column sum of the upstream gradient.
func AddBias(x, b *Var) *Var {
	xv, bv := x.value, b.value
	if xv.Dims() != 2 || bv.Dims() != 1 || xv.Dim(1) != bv.Dim(0) {
		panic("autograd: AddBias requires a (rows, d) input and (d) bias")
	}
	out := xv.Clone()
	for i := 0; i < xv.Dim(0); i++ {
		floats.Add(out.Row(i), bv.Data())
	}
	return newNode(out, []*Var{x, b}, func(g *tensor.Tensor) {
		x.accumulate(g)
		bg := tensor.New(bv.Dim(0))
		for i := 0; i < g.Dim(0); i++ {
			floats.Add(bg.Data(), g.Row(i))
		}
		b.accumulate(bg)
	})
}

// Mean returns the mean of all elements of a as a single-element node.
func Mean(a *Var) *Var {
	out := tensor.FromSlice([]float64{a.value.Mean()}, 1)
	n := float64(a.value.Size())
	return newNode(out, []*Var{a}, func(g *tensor.Tensor) {
		a.accumulate(tensor.Full(g.Data()[0]/n, a.value.Shape()...))
	})
}

// Sum returns the sum of all elements of a as a single-element node.
func Sum(a *Var) *Var {
	out := tensor.FromSlice([]float64{a.value.Sum()}, 1)
	return newNode(out, []*Var{a}, func(g *tensor.Tensor) {
		a.accumulate(tensor.Full(g.Data()[0], a.value.Shape()...))
	})
}
