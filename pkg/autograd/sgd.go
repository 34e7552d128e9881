package autograd

import "gonum.org/v1/gonum/floats"

// SGD is a plain stochastic gradient descent optimiser over a fixed
// parameter list. It mutates parameter tensors in place, so it must only
// run between forward passes.
type SGD struct {
	Params []*Var
	LR     float64
}

// Step applies one descent update. Parameters without an accumulated
// gradient are left unchanged.
func (o *SGD) Step() {
	for _, p := range o.Params {
		if p.grad == nil {
			continue
		}
		floats.AddScaled(p.value.Data(), -o.LR, p.grad.Data())
	}
}

// ZeroGrad discards the accumulated gradients of all parameters.
func (o *SGD) ZeroGrad() {
	for _, p := range o.Params {
		p.ZeroGrad()
	}
}
