package nn

import (
	"math"

	"github.com/Sam-Fatehmanesh/BrainSim/pkg/tensor"
)

// KLDivergenceWithFreeBits returns the mean over every element of
// q * (log q - log p) for two equally shaped probability tensors.
//
// The batchSize and freeBits arguments are kept for signature
// compatibility with existing training code and have no effect on the
// result: the value is an unclamped all-element mean, not a per-example
// divergence. KLDivergence implements the clamped per-example form.
// Elements where p is zero, or where q is zero and the log product
// becomes 0 * -Inf, surface as Inf or NaN in the result.
func KLDivergenceWithFreeBits(q, p *tensor.Tensor, batchSize int, freeBits float64) float64 {
	kld := q.Mul(q.Apply(math.Log).Sub(p.Apply(math.Log)))
	return kld.Mean()
}

// KLConfig configures KLDivergence.
type KLConfig struct {
	// FreeBits is the per-example lower clamp applied when
	// ApplyFreeBits is set.
	FreeBits      float64
	ApplyFreeBits bool
}

// KLDivergence returns the batch mean of per-example KL(q||p), where
// each example's divergence is summed over all category dimensions.
// When cfg.ApplyFreeBits is set, per-example divergences are clamped
// below at cfg.FreeBits before averaging.
func KLDivergence(q, p *tensor.Tensor, cfg KLConfig) float64 {
	kld := q.Mul(q.Apply(math.Log).Sub(p.Apply(math.Log)))
	perExample := kld.Reshape(kld.Dim(0), -1).SumRows()
	if cfg.ApplyFreeBits {
		perExample = perExample.Apply(func(v float64) float64 { return math.Max(v, cfg.FreeBits) })
	}
	return perExample.Mean()
}
