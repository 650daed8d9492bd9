package kernel

import "math/rand"

// Mixture chooses between an HMC move and a random-walk move at every
// step. The random-walk component is what lets the coupled variant
// meet exactly, so WalkProb must stay above zero for coupled runs to
// terminate.
type Mixture struct {
	hmc      *HMC
	walk     *RandomWalk
	walkProb float64
	rng      *rand.Rand
}

func NewMixture(hmc *HMC, walk *RandomWalk, walkProb float64, rng *rand.Rand) (*Mixture, error) {
	if hmc == nil || walk == nil {
		return nil, errNilPart
	}
	if walkProb < 0 || walkProb > 1 {
		return nil, errBadMixture
	}
	if rng == nil {
		return nil, errNilRand
	}
	return &Mixture{hmc: hmc, walk: walk, walkProb: walkProb, rng: rng}, nil
}

func (k *Mixture) Step(state []float64, iteration int) []float64 {
	if k.rng.Float64() < k.walkProb {
		return k.walk.Step(state, iteration)
	}
	return k.hmc.Step(state, iteration)
}

// CoupledMixture shares the component choice between the two chains,
// then delegates to the matching coupled kernel.
type CoupledMixture struct {
	hmc      *CoupledHMC
	walk     *CoupledRandomWalk
	walkProb float64
	rng      *rand.Rand
}

func NewCoupledMixture(hmc *CoupledHMC, walk *CoupledRandomWalk, walkProb float64, rng *rand.Rand) (*CoupledMixture, error) {
	if hmc == nil || walk == nil {
		return nil, errNilPart
	}
	if walkProb < 0 || walkProb > 1 {
		return nil, errBadMixture
	}
	if rng == nil {
		return nil, errNilRand
	}
	return &CoupledMixture{hmc: hmc, walk: walk, walkProb: walkProb, rng: rng}, nil
}

func (k *CoupledMixture) Step(state1, state2 []float64, iteration int) ([]float64, []float64) {
	if k.rng.Float64() < k.walkProb {
		return k.walk.Step(state1, state2, iteration)
	}
	return k.hmc.Step(state1, state2, iteration)
}

// GaussianInit draws initial states from N(mean, std^2 I).
type GaussianInit struct {
	mean []float64
	std  float64
	rng  *rand.Rand
}

func NewGaussianInit(mean []float64, std float64, rng *rand.Rand) (*GaussianInit, error) {
	if len(mean) == 0 {
		return nil, errBadInit
	}
	if std <= 0 {
		return nil, errBadSigma
	}
	if rng == nil {
		return nil, errNilRand
	}
	return &GaussianInit{mean: append([]float64(nil), mean...), std: std, rng: rng}, nil
}

func (s *GaussianInit) Sample() []float64 {
	state := make([]float64, len(s.mean))
	for i := range state {
		state[i] = s.mean[i] + s.std*s.rng.NormFloat64()
	}
	return state
}
