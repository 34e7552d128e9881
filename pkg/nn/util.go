package nn

import (
	"math"

	"github.com/Sam-Fatehmanesh/BrainSim/pkg/autograd"
	"github.com/Sam-Fatehmanesh/BrainSim/pkg/tensor"
)

// LastToken selects the final entry along dimension 1 of a
// (batch, time, ...) node, dropping the time dimension. The backward
// pass scatters the upstream gradient into that final step and leaves
// every other step at zero.
func LastToken(x *autograd.Var) *autograd.Var {
	xv := x.Value()
	if xv.Dims() < 2 {
		panic("nn: LastToken requires at least (batch, time) dimensions")
	}
	if xv.Dim(1) == 0 {
		panic("nn: LastToken over an empty time dimension")
	}
	b, t, rest := splitSteps(xv)
	outShape := append([]int{b}, xv.Shape()[2:]...)
	out := tensor.New(outShape...)
	for i := 0; i < b; i++ {
		copy(out.Data()[i*rest:(i+1)*rest], xv.Data()[(i*t+t-1)*rest:(i*t+t)*rest])
	}

	return autograd.Custom(out, []*autograd.Var{x}, func(g *tensor.Tensor) []*tensor.Tensor {
		gx := tensor.New(xv.Shape()...)
		for i := 0; i < b; i++ {
			copy(gx.Data()[(i*t+t-1)*rest:(i*t+t)*rest], g.Data()[i*rest:(i+1)*rest])
		}
		return []*tensor.Tensor{gx}
	})
}

// splitSteps views a (batch, time, ...) shape as batch, time and the
// flattened size of everything after them.
func splitSteps(x *tensor.Tensor) (b, t, rest int) {
	shape := x.Shape()
	b, t = shape[0], shape[1]
	rest = 1
	for _, d := range shape[2:] {
		rest *= d
	}
	return b, t, rest
}

// AddUniformBase mixes a distribution-shaped node with the uniform
// distribution over its last dimension: 0.99*x + 0.01/n, where n is the
// last dimension's size. Uniform inputs are a fixed point.
func AddUniformBase(x *autograd.Var) *autograd.Var {
	xv := x.Value()
	if xv.Dims() == 0 || xv.Dim(xv.Dims()-1) == 0 {
		panic("nn: AddUniformBase over an empty dimension")
	}
	n := float64(xv.Dim(xv.Dims() - 1))
	return autograd.AddScalar(autograd.Scale(x, 0.99), 0.01/n)
}

// LeastPowerOfTwo returns the smallest power of two greater than or
// equal to v. Values at or below zero return 1.
func LeastPowerOfTwo(v float64) float64 {
	if v <= 0 {
		return 1
	}
	return math.Exp2(math.Ceil(math.Log2(v)))
}
