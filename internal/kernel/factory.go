package kernel

import (
	"math/rand"

	"unbiasedmc/internal/chain"
	"unbiasedmc/internal/target"
)

// Config describes a mixture kernel pair over a target.
type Config struct {
	StepSize      float64
	LeapfrogSteps int
	WalkSigma     float64
	WalkProb      float64
	InitStd       float64
}

// NewPair builds the single kernel, the coupled kernel and the init
// sampler for one replicate, all seeded from the given seed with
// distinct offsets per component.
func NewPair(dist target.Distribution, cfg Config, seed int64) (chain.Kernel, chain.CoupledKernel, chain.InitSampler, error) {
	if dist == nil {
		return nil, nil, nil, errNilTarget
	}

	hmc, err := NewHMC(dist, cfg.StepSize, cfg.LeapfrogSteps, rand.New(rand.NewSource(seed+1000)))
	if err != nil {
		return nil, nil, nil, err
	}
	walk, err := NewRandomWalk(dist, cfg.WalkSigma, rand.New(rand.NewSource(seed+2000)))
	if err != nil {
		return nil, nil, nil, err
	}
	single, err := NewMixture(hmc, walk, cfg.WalkProb, rand.New(rand.NewSource(seed+3000)))
	if err != nil {
		return nil, nil, nil, err
	}

	coupledHMC, err := NewCoupledHMC(dist, cfg.StepSize, cfg.LeapfrogSteps, rand.New(rand.NewSource(seed+4000)))
	if err != nil {
		return nil, nil, nil, err
	}
	coupledWalk, err := NewCoupledRandomWalk(dist, cfg.WalkSigma, rand.New(rand.NewSource(seed+5000)))
	if err != nil {
		return nil, nil, nil, err
	}
	coupled, err := NewCoupledMixture(coupledHMC, coupledWalk, cfg.WalkProb, rand.New(rand.NewSource(seed+6000)))
	if err != nil {
		return nil, nil, nil, err
	}

	init, err := NewGaussianInit(make([]float64, dist.Dim()), cfg.InitStd, rand.New(rand.NewSource(seed+7000)))
	if err != nil {
		return nil, nil, nil, err
	}
	return single, coupled, init, nil
}
