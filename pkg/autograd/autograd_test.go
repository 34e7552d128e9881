package autograd

import (
	"math"
	"math/rand"
	"testing"

	"github.com/Sam-Fatehmanesh/BrainSim/pkg/tensor"
)

// numericalGrad estimates the gradient of f with respect to x by central
// differences, perturbing one element at a time. f must rebuild its
// forward pass on every call so it observes the perturbed values.
func numericalGrad(f func() float64, x *tensor.Tensor) []float64 {
	const h = 1e-6
	g := make([]float64, x.Size())
	data := x.Data()
	for i := range data {
		orig := data[i]
		data[i] = orig + h
		fp := f()
		data[i] = orig - h
		fm := f()
		data[i] = orig
		g[i] = (fp - fm) / (2 * h)
	}
	return g
}

func TestGradMatchesFiniteDifferences(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	a := tensor.Randn(rng, 2, 3)
	b := tensor.Randn(rng, 2, 3)
	m := tensor.Randn(rng, 2, 3)
	w := tensor.Randn(rng, 3, 2)
	bias := tensor.Randn(rng, 3)

	tests := []struct {
		name    string
		inputs  []*tensor.Tensor
		forward func(vs []*Var) *Var
	}{
		{"add-mean", []*tensor.Tensor{a, b}, func(vs []*Var) *Var { return Mean(Add(vs[0], vs[1])) }},
		{"sub-sum", []*tensor.Tensor{a, b}, func(vs []*Var) *Var { return Sum(Sub(vs[0], vs[1])) }},
		{"mul-mean", []*tensor.Tensor{a, b}, func(vs []*Var) *Var { return Mean(Mul(vs[0], vs[1])) }},
		{"scale-shift", []*tensor.Tensor{a}, func(vs []*Var) *Var { return Mean(AddScalar(Scale(vs[0], 1.7), 0.3)) }},
		{"exp", []*tensor.Tensor{a}, func(vs []*Var) *Var { return Mean(Exp(vs[0])) }},
		{"log-of-exp", []*tensor.Tensor{a}, func(vs []*Var) *Var { return Mean(Log(Exp(vs[0]))) }},
		{"tanh", []*tensor.Tensor{a}, func(vs []*Var) *Var { return Mean(Tanh(vs[0])) }},
		{"matmul", []*tensor.Tensor{m, w}, func(vs []*Var) *Var { return Mean(MatMul(vs[0], vs[1])) }},
		{"softmax-mul", []*tensor.Tensor{a, b}, func(vs []*Var) *Var { return Mean(Mul(Softmax(vs[0]), vs[1])) }},
		{"reshape-tanh", []*tensor.Tensor{a}, func(vs []*Var) *Var { return Mean(Tanh(Reshape(vs[0], 3, 2))) }},
		{"log-softmax", []*tensor.Tensor{a}, func(vs []*Var) *Var { return Sum(Log(Softmax(vs[0]))) }},
		{"addbias", []*tensor.Tensor{m, bias}, func(vs []*Var) *Var { return Mean(AddBias(vs[0], vs[1])) }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			vars := make([]*Var, len(tc.inputs))
			for i, in := range tc.inputs {
				vars[i] = Param(in)
			}
			Backward(tc.forward(vars))

			eval := func() float64 {
				vs := make([]*Var, len(tc.inputs))
				for i, in := range tc.inputs {
					vs[i] = Param(in)
				}
				return tc.forward(vs).Value().Data()[0]
			}
			for i, in := range tc.inputs {
				want := numericalGrad(eval, in)
				got := vars[i].Grad().Data()
				for j := range want {
					if math.Abs(got[j]-want[j]) > 1e-6 {
						t.Fatalf("input %d grad[%d] = %g, want %g", i, j, got[j], want[j])
					}
				}
			}
		})
	}
}

func TestCustomVJPPassThrough(t *testing.T) {
	x := Param(tensor.FromSlice([]float64{1, 2, 3, 4}, 2, 2))
	// Forward replaces values entirely; backward is the identity.
	out := Custom(tensor.OneHotRows([]int{0, 1}, 2), []*Var{x}, func(g *tensor.Tensor) []*tensor.Tensor {
		return []*tensor.Tensor{g}
	})
	Backward(Mean(out))
	for _, v := range x.Grad().Data() {
		if v != 0.25 {
			t.Fatalf("pass-through grad = %v, want all 0.25", x.Grad().Data())
		}
	}
}

func TestCustomVJPNilSkipsInput(t *testing.T) {
	x := Param(tensor.FromSlice([]float64{1, 2}, 2))
	y := Param(tensor.FromSlice([]float64{3, 4}, 2))
	out := Custom(x.Value().Add(y.Value()), []*Var{x, y}, func(g *tensor.Tensor) []*tensor.Tensor {
		return []*tensor.Tensor{g, nil}
	})
	Backward(Sum(out))
	if x.Grad().Data()[0] != 1 {
		t.Fatalf("x grad = %v", x.Grad().Data())
	}
	for _, v := range y.Grad().Data() {
		if v != 0 {
			t.Fatalf("y grad = %v, want zeros", y.Grad().Data())
		}
	}
}

func TestReusedNodeAccumulates(t *testing.T) {
	a := Param(tensor.FromSlice([]float64{1, 2}, 2))
	Backward(Sum(Add(a, a)))
	for _, v := range a.Grad().Data() {
		if v != 2 {
			t.Fatalf("grad = %v, want all 2", a.Grad().Data())
		}
	}
}

func TestConstReceivesNoGradient(t *testing.T) {
	a := Param(tensor.FromSlice([]float64{2, 2}, 2))
	c := Const(tensor.FromSlice([]float64{5, 5}, 2))
	Backward(Sum(Mul(a, c)))
	if got := a.Grad().Data()[0]; got != 5 {
		t.Fatalf("param grad = %g, want 5", got)
	}
	if c.RequiresGrad() {
		t.Fatal("const reports RequiresGrad")
	}
	for _, v := range c.Grad().Data() {
		if v != 0 {
			t.Fatalf("const grad = %v, want zeros", c.Grad().Data())
		}
	}
}

func TestBackwardRequiresScalarRoot(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for non-scalar root")
		}
	}()
	Backward(Param(tensor.New(2, 2)))
}

func TestSGDStepAndZeroGrad(t *testing.T) {
	p := Param(tensor.FromSlice([]float64{1, -1}, 2))
	opt := &SGD{Params: []*Var{p}, LR: 0.1}

	Backward(Sum(Scale(p, 3)))
	opt.Step()
	got := p.Value().Data()
	if math.Abs(got[0]-0.7) > 1e-12 || math.Abs(got[1]+1.3) > 1e-12 {
		t.Fatalf("after step = %v, want [0.7 -1.3]", got)
	}

	opt.ZeroGrad()
	for _, v := range p.Grad().Data() {
		if v != 0 {
			t.Fatalf("grad after ZeroGrad = %v", p.Grad().Data())
		}
	}
}
