// Package kernel provides transition kernel pairs for coupled-chain
// simulation. Every kernel draws from an injected random source so
// runs can be replayed deterministically and replicates stay isolated.
package kernel

import (
	"errors"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"

	"unbiasedmc/internal/target"
)

var (
	errNilTarget  = errors.New("target distribution is required")
	errNilRand    = errors.New("random source is required")
	errBadLeap    = errors.New("leapfrog step size and step count must be positive")
	errBadSigma   = errors.New("proposal sigma must be positive")
	errBadMixture = errors.New("walk probability must be in [0, 1]")
	errNilPart    = errors.New("mixture components are required")
	errBadInit    = errors.New("init mean must be non-empty")
)

// HMC advances a chain with the leapfrog integrator and a Metropolis
// correction.
type HMC struct {
	target   target.Distribution
	stepSize float64
	steps    int
	rng      *rand.Rand
}

func NewHMC(dist target.Distribution, stepSize float64, steps int, rng *rand.Rand) (*HMC, error) {
	if dist == nil {
		return nil, errNilTarget
	}
	if stepSize <= 0 || steps <= 0 {
		return nil, errBadLeap
	}
	if rng == nil {
		return nil, errNilRand
	}
	return &HMC{target: dist, stepSize: stepSize, steps: steps, rng: rng}, nil
}

func (k *HMC) Step(state []float64, _ int) []float64 {
	momentum := drawMomentum(k.rng, len(state))
	proposal, endMomentum := leapfrog(k.target, state, momentum, k.stepSize, k.steps)
	logRatio := k.target.LogDensity(proposal) - k.target.LogDensity(state) +
		kinetic(momentum) - kinetic(endMomentum)
	if math.Log(k.rng.Float64()) < logRatio {
		return proposal
	}
	return append([]float64(nil), state...)
}

// CoupledHMC advances two chains with one shared momentum draw and one
// shared accept threshold. Shared randomness contracts the chains but
// cannot make them exactly equal; exact meetings come from the
// random-walk component of a mixture.
type CoupledHMC struct {
	target   target.Distribution
	stepSize float64
	steps    int
	rng      *rand.Rand
}

func NewCoupledHMC(dist target.Distribution, stepSize float64, steps int, rng *rand.Rand) (*CoupledHMC, error) {
	if dist == nil {
		return nil, errNilTarget
	}
	if stepSize <= 0 || steps <= 0 {
		return nil, errBadLeap
	}
	if rng == nil {
		return nil, errNilRand
	}
	return &CoupledHMC{target: dist, stepSize: stepSize, steps: steps, rng: rng}, nil
}

func (k *CoupledHMC) Step(state1, state2 []float64, _ int) ([]float64, []float64) {
	momentum := drawMomentum(k.rng, len(state1))
	proposal1, end1 := leapfrog(k.target, state1, momentum, k.stepSize, k.steps)
	proposal2, end2 := leapfrog(k.target, state2, momentum, k.stepSize, k.steps)
	logU := math.Log(k.rng.Float64())

	next1 := append([]float64(nil), state1...)
	if logU < k.target.LogDensity(proposal1)-k.target.LogDensity(state1)+kinetic(momentum)-kinetic(end1) {
		next1 = proposal1
	}
	next2 := append([]float64(nil), state2...)
	if logU < k.target.LogDensity(proposal2)-k.target.LogDensity(state2)+kinetic(momentum)-kinetic(end2) {
		next2 = proposal2
	}
	return next1, next2
}

func drawMomentum(rng *rand.Rand, dim int) []float64 {
	momentum := make([]float64, dim)
	for i := range momentum {
		momentum[i] = rng.NormFloat64()
	}
	return momentum
}

func kinetic(momentum []float64) float64 {
	return 0.5 * floats.Dot(momentum, momentum)
}

// leapfrog integrates Hamiltonian dynamics for the given number of
// steps and returns the end position and momentum. Inputs are not
// modified.
func leapfrog(dist target.Distribution, position, momentum []float64, stepSize float64, steps int) ([]float64, []float64) {
	q := append([]float64(nil), position...)
	p := append([]float64(nil), momentum...)

	grad := dist.Gradient(q)
	floats.AddScaled(p, stepSize/2, grad)
	for i := 0; i < steps; i++ {
		floats.AddScaled(q, stepSize, p)
		grad = dist.Gradient(q)
		if i < steps-1 {
			floats.AddScaled(p, stepSize, grad)
		}
	}
	floats.AddScaled(p, stepSize/2, grad)
	return q, p
}
