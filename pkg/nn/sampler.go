// Package nn implements the numeric building blocks of the BrainSim
// world model: straight-through categorical sampling, RMS normalisation,
// symmetric log transforms, a two-hot discretised regression loss over
// exponential bins, KL divergence helpers and a few small utility
// layers.
package nn

import (
	"github.com/Sam-Fatehmanesh/BrainSim/pkg/autograd"
	"github.com/Sam-Fatehmanesh/BrainSim/pkg/tensor"
)

// STSampler draws one-hot categorical samples with a straight-through
// gradient: the backward pass hands the upstream gradient to the input
// weights unchanged, as if sampling were the identity map.
type STSampler struct {
	sampler *tensor.Sampler
}

// NewSTSampler returns a sampler seeded with the given value. A zero
// seed selects a time-based seed.
func NewSTSampler(seed int64) *STSampler {
	return &STSampler{sampler: tensor.NewSampler(seed)}
}

// Forward draws one sample per row of x, a (batch, k) node of
// non-negative categorical weights, and returns a one-hot node of the
// same shape. Rows need not sum to one; a row without positive mass
// falls back to index 0.
func (s *STSampler) Forward(x *autograd.Var) *autograd.Var {
	oneHot := s.sample(x.Value())
	return autograd.Custom(oneHot, []*autograd.Var{x}, func(g *tensor.Tensor) []*tensor.Tensor {
		return []*tensor.Tensor{g}
	})
}

// SampleOneHot draws one-hot samples outside any differentiation graph.
func (s *STSampler) SampleOneHot(x *tensor.Tensor) *tensor.Tensor {
	return s.sample(x)
}

func (s *STSampler) sample(w *tensor.Tensor) *tensor.Tensor {
	return tensor.OneHotRows(s.sampler.Multinomial(w), w.Dim(1))
}
