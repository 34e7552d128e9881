package nn

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/Sam-Fatehmanesh/BrainSim/pkg/autograd"
	"github.com/Sam-Fatehmanesh/BrainSim/pkg/tensor"
)

// TwoHotConfig sets the exponential bin layout for two-hot encoding.
// Bins are 2 raised to NumBins exponents spaced evenly from MinExp to
// MaxExp.
type TwoHotConfig struct {
	NumBins int
	MinExp  float64
	MaxExp  float64
}

// DefaultTwoHotConfig covers values from 2^1 to 2^11 with 41 bins, a
// quarter-exponent apart.
func DefaultTwoHotConfig() TwoHotConfig {
	return TwoHotConfig{NumBins: 41, MinExp: 1, MaxExp: 11}
}

// TwoHot encodes positive scalar targets as soft two-hot vectors over
// exponentially spaced bins and scores logits against them with cross
// entropy.
type TwoHot struct {
	cfg       TwoHotConfig
	exponents []float64
	bins      *tensor.Tensor
}

// NewTwoHot precomputes the bin layout for cfg. It returns an error if
// fewer than two bins are requested, which would leave no pair to
// interpolate between.
func NewTwoHot(cfg TwoHotConfig) (*TwoHot, error) {
	if cfg.NumBins < 2 {
		return nil, fmt.Errorf("nn: two-hot needs at least 2 bins, got %d", cfg.NumBins)
	}
	exps := tensor.Linspace(cfg.MinExp, cfg.MaxExp, cfg.NumBins)
	return &TwoHot{
		cfg:       cfg,
		exponents: exps.Data(),
		bins:      exps.Apply(math.Exp2),
	}, nil
}

// Bins returns the 1-D tensor of bin values.
func (th *TwoHot) Bins() *tensor.Tensor { return th.bins }

// Encode returns the (batch, NumBins) soft two-hot encoding of targets,
// a 1-D tensor of positive values. Each target distributes weight
// across an adjacent bin pair so that the weighted bin sum reproduces
// the target exactly; the weights are not clamped, so values outside
// the bin range (and non-positive values, whose log2 compares false
// against every exponent) still encode against the edge pair.
func (th *TwoHot) Encode(targets *tensor.Tensor) *tensor.Tensor {
	if targets.Dims() != 1 {
		panic("nn: Encode requires a 1-D target tensor")
	}
	bins := th.bins.Data()
	out := tensor.New(targets.Dim(0), th.cfg.NumBins)
	for i, v := range targets.Data() {
		k := th.pairIndex(v)
		wUpper := (v - bins[k]) / (bins[k+1] - bins[k])
		out.Set(1-wUpper, i, k)
		out.Set(wUpper, i, k+1)
	}
	return out
}

// pairIndex counts exponents strictly below log2(v), clamped so an
// upper neighbour always exists.
func (th *TwoHot) pairIndex(v float64) int {
	l2 := math.Log2(v)
	k := 0
	for _, e := range th.exponents {
		if e < l2 {
			k++
		}
	}
	if k > th.cfg.NumBins-2 {
		k = th.cfg.NumBins - 2
	}
	return k
}

// Loss returns the batch-mean cross entropy between logits and the
// two-hot encoding of targets, together with the values the logits
// decode to. logits is a (batch, NumBins) node and targets a 1-D tensor
// of length batch. The decoded values are detached from the graph; all
// training gradient flows through the loss.
func (th *TwoHot) Loss(logits *autograd.Var, targets *tensor.Tensor) (*autograd.Var, *tensor.Tensor) {
	lv := logits.Value()
	if lv.Dims() != 2 || lv.Dim(1) != th.cfg.NumBins {
		panic(fmt.Sprintf("nn: logits shape %v does not match %d bins", lv.Shape(), th.cfg.NumBins))
	}
	if targets.Dims() != 1 || targets.Dim(0) != lv.Dim(0) {
		panic(fmt.Sprintf("nn: targets shape %v does not match batch %d", targets.Shape(), lv.Dim(0)))
	}
	batch := float64(lv.Dim(0))

	twohot := th.Encode(targets)
	logProbs := lv.LogSoftmax()
	loss := tensor.FromSlice([]float64{-floats.Dot(twohot.Data(), logProbs.Data()) / batch}, 1)

	probs := lv.Softmax()
	node := autograd.Custom(loss, []*autograd.Var{logits}, func(g *tensor.Tensor) []*tensor.Tensor {
		return []*tensor.Tensor{probs.Sub(twohot).Scale(g.Data()[0] / batch)}
	})
	return node, th.LogitsToValue(lv)
}

// LogitsToValue decodes logits into expected values: the softmax of
// each row weighted by the bin values. A 1-D input is treated as a
// single row; the result always carries the batch dimension.
func (th *TwoHot) LogitsToValue(logits *tensor.Tensor) *tensor.Tensor {
	switch logits.Dims() {
	case 1:
		logits = logits.Reshape(1, -1)
	case 2:
	default:
		panic("nn: LogitsToValue requires a 1-D or 2-D tensor")
	}
	if logits.Dim(1) != th.cfg.NumBins {
		panic(fmt.Sprintf("nn: logits shape %v does not match %d bins", logits.Shape(), th.cfg.NumBins))
	}
	return tensor.MatVec(logits.Softmax(), th.bins)
}
