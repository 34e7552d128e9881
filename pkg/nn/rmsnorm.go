package nn

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/Sam-Fatehmanesh/BrainSim/pkg/autograd"
	"github.com/Sam-Fatehmanesh/BrainSim/pkg/tensor"
)

// RMSNormConfig configures an RMSNorm layer.
type RMSNormConfig struct {
	// Partial is the fraction of each vector used for the norm
	// statistic. Values outside [0, 1] disable partial mode and the
	// statistic covers the whole vector.
	Partial float64
	// Eps is added to the root mean square before division.
	Eps float64
	// Bias enables a learned offset term.
	Bias bool
}

// DefaultRMSNormConfig returns the standard configuration: full-vector
// statistics, an epsilon of 1e-8 and no offset.
func DefaultRMSNormConfig() RMSNormConfig {
	return RMSNormConfig{Partial: -1, Eps: 1e-8}
}

// RMSNorm is root mean square layer normalisation over the last
// dimension, with optional partial statistics and offset. The scale
// parameter initialises to ones and the offset, when enabled, to zeros.
//
// The statistic is the Euclidean norm of the first floor(d*Partial)
// elements (the whole vector when partial mode is off) divided by the
// square root of that element count. The entire vector is divided by
// the statistic plus Eps, then scaled elementwise.
type RMSNorm struct {
	d   int
	cfg RMSNormConfig

	scale  *autograd.Var
	offset *autograd.Var
}

// NewRMSNorm returns an RMSNorm over vectors of size d.
func NewRMSNorm(d int, cfg RMSNormConfig) *RMSNorm {
	n := &RMSNorm{d: d, cfg: cfg, scale: autograd.Param(tensor.Ones(d))}
	if cfg.Bias {
		n.offset = autograd.Param(tensor.New(d))
	}
	return n
}

// Params returns the trainable parameters for optimiser registration.
func (n *RMSNorm) Params() []*autograd.Var {
	if n.cfg.Bias {
		return []*autograd.Var{n.scale, n.offset}
	}
	return []*autograd.Var{n.scale}
}

// Forward normalises the last dimension of x, which may have any rank
// as long as that dimension equals d.
func (n *RMSNorm) Forward(x *autograd.Var) *autograd.Var {
	xv := x.Value()
	if xv.Dims() == 0 || xv.Dim(xv.Dims()-1) != n.d {
		panic(fmt.Sprintf("nn: RMSNorm expects last dimension %d, got shape %v", n.d, xv.Shape()))
	}
	k := n.d
	if n.cfg.Partial >= 0 && n.cfg.Partial <= 1 {
		k = int(float64(n.d) * n.cfg.Partial)
	}

	rows := xv.Size() / n.d
	flat := xv.Reshape(rows, n.d)
	scale := n.scale.Value().Data()
	var offset []float64
	if n.cfg.Bias {
		offset = n.offset.Value().Data()
	}

	out := tensor.New(xv.Shape()...)
	outFlat := out.Reshape(rows, n.d)
	denoms := make([]float64, rows)
	for i := 0; i < rows; i++ {
		row := flat.Row(i)
		rms := floats.Norm(row[:k], 2) / math.Sqrt(float64(k))
		denom := rms + n.cfg.Eps
		denoms[i] = denom
		o := outFlat.Row(i)
		for j, v := range row {
			o[j] = v / denom * scale[j]
			if offset != nil {
				o[j] += offset[j]
			}
		}
	}

	inputs := []*autograd.Var{x, n.scale}
	if n.cfg.Bias {
		inputs = append(inputs, n.offset)
	}
	return autograd.Custom(out, inputs, func(g *tensor.Tensor) []*tensor.Tensor {
		gFlat := g.Reshape(rows, n.d)
		gx := tensor.New(xv.Shape()...)
		gxFlat := gx.Reshape(rows, n.d)
		gScale := tensor.New(n.d)
		gs := gScale.Data()
		var gOffset *tensor.Tensor
		var goff []float64
		if n.cfg.Bias {
			gOffset = tensor.New(n.d)
			goff = gOffset.Data()
		}
		for i := 0; i < rows; i++ {
			row := flat.Row(i)
			grow := gFlat.Row(i)
			gxRow := gxFlat.Row(i)
			denom := denoms[i]
			// The statistic only depends on the first k elements, so
			// only they receive the second gradient term.
			var dot float64
			for j, v := range row {
				gxh := grow[j] * scale[j]
				dot += gxh * v
				gxRow[j] = gxh / denom
				gs[j] += grow[j] * v / denom
				if goff != nil {
					goff[j] += grow[j]
				}
			}
			if k > 0 {
				rms := denom - n.cfg.Eps
				c := dot / (float64(k) * rms * denom * denom)
				for j := 0; j < k; j++ {
					gxRow[j] -= row[j] * c
				}
			}
		}
		grads := []*tensor.Tensor{gx, gScale}
		if n.cfg.Bias {
			grads = append(grads, gOffset)
		}
		return grads
	})
}
