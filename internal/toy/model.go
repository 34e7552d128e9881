// Package toy implements a miniature world-model value head used by the
// demo command and as an end-to-end fixture for the numeric layers: a
// sequence of observations is reduced to its last step, normalised,
// projected to a categorical latent, sampled with a straight-through
// estimator and decoded into two-hot bin logits for a positive scalar
// target.
package toy

import (
	"fmt"
	"math/rand"

	"github.com/Sam-Fatehmanesh/BrainSim/pkg/autograd"
	"github.com/Sam-Fatehmanesh/BrainSim/pkg/nn"
	"github.com/Sam-Fatehmanesh/BrainSim/pkg/tensor"
)

// Config sizes the toy model and its synthetic task.
type Config struct {
	Features int // observation feature size per step
	Latents  int // categorical latent size
	Batch    int // episodes per batch
	Steps    int // observation steps per episode
	LR       float64
	Seed     int64
	TwoHot   nn.TwoHotConfig
}

// DefaultConfig returns a configuration small enough for tests yet large
// enough that every layer sees a non-trivial shape.
func DefaultConfig() Config {
	return Config{
		Features: 8,
		Latents:  16,
		Batch:    16,
		Steps:    5,
		LR:       0.05,
		Seed:     1,
		TwoHot:   nn.DefaultTwoHotConfig(),
	}
}

// Episode is one batch of synthetic training data: observation
// sequences and the strictly positive scalar each sequence regresses to.
type Episode struct {
	Observations *tensor.Tensor // (batch, steps, features)
	Targets      *tensor.Tensor // (batch), all > 0
}

// Metrics reports one training step.
type Metrics struct {
	Loss      float64
	KL        float64 // latent distribution vs uniform, monitoring only
	Predicted *tensor.Tensor
}

// Model is the value head: LastToken -> RMSNorm -> encoder -> softmax
// latent with a uniform base -> straight-through sample -> decoder ->
// two-hot bin logits.
type Model struct {
	cfg     Config
	norm    *nn.RMSNorm
	encoder *autograd.Var // (features, latents)
	decoder *autograd.Var // (latents, bins)
	twoHot  *nn.TwoHot
	sampler *nn.STSampler
	opt     *autograd.SGD
	rng     *rand.Rand
	uniform *tensor.Tensor
}

// New builds a model from cfg. All weights and the episode generator
// derive from cfg.Seed, so runs are reproducible.
func New(cfg Config) (*Model, error) {
	if cfg.Features <= 0 || cfg.Latents <= 0 || cfg.Batch <= 0 || cfg.Steps <= 0 {
		return nil, fmt.Errorf("toy: non-positive dimension in config %+v", cfg)
	}
	th, err := nn.NewTwoHot(cfg.TwoHot)
	if err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	m := &Model{
		cfg:     cfg,
		norm:    nn.NewRMSNorm(cfg.Features, nn.DefaultRMSNormConfig()),
		encoder: autograd.Param(tensor.Randn(rng, cfg.Features, cfg.Latents).Scale(0.1)),
		decoder: autograd.Param(tensor.Randn(rng, cfg.Latents, cfg.TwoHot.NumBins).Scale(0.1)),
		twoHot:  th,
		sampler: nn.NewSTSampler(cfg.Seed + 1),
		rng:     rng,
		uniform: tensor.Full(1/float64(cfg.Latents), cfg.Batch, cfg.Latents),
	}
	params := append(m.norm.Params(), m.encoder, m.decoder)
	m.opt = &autograd.SGD{Params: params, LR: cfg.LR}
	return m, nil
}

// SampleEpisode draws a fresh synthetic batch. The target is a shifted
// sum of squares of the final observation step, so it is always positive
// and sits inside the default bin range.
func (m *Model) SampleEpisode() Episode {
	obs := tensor.Randn(m.rng, m.cfg.Batch, m.cfg.Steps, m.cfg.Features)
	targets := tensor.New(m.cfg.Batch)
	for i := 0; i < m.cfg.Batch; i++ {
		last := obs.Row(i)[(m.cfg.Steps-1)*m.cfg.Features:]
		var ss float64
		for _, v := range last {
			ss += v * v
		}
		targets.Data()[i] = 2 + ss
	}
	return Episode{Observations: obs, Targets: targets}
}

// forward runs the head up to the bin logits, returning the smoothed
// latent distribution alongside for KL monitoring.
func (m *Model) forward(obs *tensor.Tensor) (logits, latent *autograd.Var) {
	x := autograd.Const(obs)
	h := m.norm.Forward(nn.LastToken(x))
	latent = nn.AddUniformBase(autograd.Softmax(autograd.MatMul(h, m.encoder)))
	oneHot := m.sampler.Forward(latent)
	return autograd.MatMul(oneHot, m.decoder), latent
}

// TrainStep runs one forward/backward/update cycle on ep.
func (m *Model) TrainStep(ep Episode) Metrics {
	logits, latent := m.forward(ep.Observations)
	loss, predicted := m.twoHot.Loss(logits, ep.Targets)
	autograd.Backward(loss)
	m.opt.Step()
	m.opt.ZeroGrad()
	return Metrics{
		Loss:      loss.Value().Data()[0],
		KL:        nn.KLDivergenceWithFreeBits(latent.Value(), m.uniform, m.cfg.Batch, 0),
		Predicted: predicted,
	}
}

// Predict decodes expected values for a batch of observations without
// touching the parameters.
func (m *Model) Predict(obs *tensor.Tensor) *tensor.Tensor {
	logits, _ := m.forward(obs)
	return m.twoHot.LogitsToValue(logits.Value())
}
