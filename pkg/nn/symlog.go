package nn

import (
	"math"

	"github.com/Sam-Fatehmanesh/BrainSim/pkg/autograd"
	"github.com/Sam-Fatehmanesh/BrainSim/pkg/tensor"
)

// Symlog compresses a value symmetrically around zero:
// sign(x) * log(1 + |x|). Log1p keeps small magnitudes accurate.
func Symlog(x float64) float64 {
	return math.Copysign(math.Log1p(math.Abs(x)), x)
}

// Symexp is the exact inverse of Symlog: sign(x) * (exp(|x|) - 1),
// computed with Expm1.
func Symexp(x float64) float64 {
	return math.Copysign(math.Expm1(math.Abs(x)), x)
}

// SymlogTensor applies Symlog elementwise.
func SymlogTensor(t *tensor.Tensor) *tensor.Tensor { return t.Apply(Symlog) }

// SymexpTensor applies Symexp elementwise.
func SymexpTensor(t *tensor.Tensor) *tensor.Tensor { return t.Apply(Symexp) }

// SymlogMSE returns the mean squared error between Symlog(x) and
// Symlog(y) as a scalar node. Gradients flow to both inputs through the
// Symlog derivative 1/(1+|v|).
func SymlogMSE(x, y *autograd.Var) *autograd.Var {
	diff := SymlogTensor(x.Value()).Sub(SymlogTensor(y.Value()))
	n := float64(diff.Size())
	sq := diff.Mul(diff)
	loss := tensor.FromSlice([]float64{sq.Mean()}, 1)

	return autograd.Custom(loss, []*autograd.Var{x, y}, func(g *tensor.Tensor) []*tensor.Tensor {
		g0 := g.Data()[0]
		gx := tensor.New(x.Value().Shape()...)
		gy := tensor.New(y.Value().Shape()...)
		xd := x.Value().Data()
		yd := y.Value().Data()
		for i, d := range diff.Data() {
			c := 2 * d * g0 / n
			gx.Data()[i] = c / (1 + math.Abs(xd[i]))
			gy.Data()[i] = -c / (1 + math.Abs(yd[i]))
		}
		return []*tensor.Tensor{gx, gy}
	})
}
