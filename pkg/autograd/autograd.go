// Package autograd provides a small reverse-mode differentiation graph
// over tensors. Operations record their inputs and a backward rule;
// Backward replays the graph in reverse topological order and accumulates
// gradients into the leaves.
package autograd

import (
	"gonum.org/v1/gonum/floats"

	"github.com/Sam-Fatehmanesh/BrainSim/pkg/tensor"
)

// Var is a node in the differentiation graph. It wraps a value tensor
// and, after Backward, holds the gradient of the root with respect to
// that value.
type Var struct {
	value        *tensor.Tensor
	grad         *tensor.Tensor
	parents      []*Var
	back         func(grad *tensor.Tensor)
	requiresGrad bool
}

// Param wraps t as a trainable leaf that accumulates gradients.
func Param(t *tensor.Tensor) *Var {
	return &Var{value: t, requiresGrad: true}
}

// Const wraps t as a constant leaf. Gradients are never accumulated for
// it and graph branches that depend only on constants are skipped during
// the backward pass.
func Const(t *tensor.Tensor) *Var {
	return &Var{value: t}
}

// Value returns the node's value tensor.
func (v *Var) Value() *tensor.Tensor { return v.value }

// Grad returns the accumulated gradient, allocating zeros on first use.
func (v *Var) Grad() *tensor.Tensor {
	if v.grad == nil {
		v.grad = tensor.New(v.value.Shape()...)
	}
	return v.grad
}

// ZeroGrad discards the accumulated gradient.
func (v *Var) ZeroGrad() { v.grad = nil }

// RequiresGrad reports whether gradients flow to this node.
func (v *Var) RequiresGrad() bool { return v.requiresGrad }

func (v *Var) accumulate(g *tensor.Tensor) {
	if !v.requiresGrad {
		return
	}
	if v.grad == nil {
		v.grad = tensor.New(v.value.Shape()...)
	}
	floats.Add(v.grad.Data(), g.Data())
}

func newNode(value *tensor.Tensor, parents []*Var, back func(grad *tensor.Tensor)) *Var {
	v := &Var{value: value, parents: parents, back: back}
	for _, p := range parents {
		if p.requiresGrad {
			v.requiresGrad = true
			break
		}
	}
	return v
}

// Custom builds a node whose backward rule is supplied by the caller.
// The vjp receives the gradient flowing into the node and returns one
// gradient per input; a nil entry propagates nothing to that input. This
// is the escape hatch for operations whose gradient is not the true
// derivative of the forward computation, such as straight-through
// sampling.
func Custom(value *tensor.Tensor, inputs []*Var, vjp func(grad *tensor.Tensor) []*tensor.Tensor) *Var {
	return newNode(value, inputs, func(g *tensor.Tensor) {
		grads := vjp(g)
		if len(grads) != len(inputs) {
			panic("autograd: custom vjp returned wrong gradient count")
		}
		for i, gi := range grads {
			if gi != nil {
				inputs[i].accumulate(gi)
			}
		}
	})
}

// Backward runs reverse-mode accumulation from a scalar root. The root
// must hold exactly one element; its seed gradient is one. Gradients add
// into any existing values, so callers zero parameter gradients between
// optimisation steps.
func Backward(root *Var) {
	if root.value.Size() != 1 {
		panic("autograd: Backward requires a scalar root")
	}
	order := topoSort(root)
	root.grad = tensor.Ones(root.value.Shape()...)
	for i := len(order) - 1; i >= 0; i-- {
		v := order[i]
		if v.back != nil && v.grad != nil {
			v.back(v.grad)
		}
	}
}

func topoSort(root *Var) []*Var {
	var order []*Var
	seen := make(map[*Var]bool)
	var visit func(*Var)
	visit = func(v *Var) {
		if seen[v] {
			return
		}
		seen[v] = true
		for _, p := range v.parents {
			visit(p)
		}
		order = append(order, v)
	}
	visit(root)
	return order
}
