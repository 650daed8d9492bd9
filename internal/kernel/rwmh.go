package kernel

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"

	"unbiasedmc/internal/target"
)

// RandomWalk is a Gaussian random-walk Metropolis-Hastings kernel.
type RandomWalk struct {
	target target.Distribution
	sigma  float64
	rng    *rand.Rand
}

func NewRandomWalk(dist target.Distribution, sigma float64, rng *rand.Rand) (*RandomWalk, error) {
	if dist == nil {
		return nil, errNilTarget
	}
	if sigma <= 0 {
		return nil, errBadSigma
	}
	if rng == nil {
		return nil, errNilRand
	}
	return &RandomWalk{target: dist, sigma: sigma, rng: rng}, nil
}

func (k *RandomWalk) Step(state []float64, _ int) []float64 {
	proposal := make([]float64, len(state))
	for i := range proposal {
		proposal[i] = state[i] + k.sigma*k.rng.NormFloat64()
	}
	if math.Log(k.rng.Float64()) < k.target.LogDensity(proposal)-k.target.LogDensity(state) {
		return proposal
	}
	return append([]float64(nil), state...)
}

// CoupledRandomWalk advances two chains with a maximal coupling of
// their Gaussian proposal distributions and a shared accept threshold.
// When the maximal coupling yields the same proposal for both chains
// and both accept, the chains become exactly equal; this is the kernel
// that produces meetings.
type CoupledRandomWalk struct {
	target target.Distribution
	sigma  float64
	rng    *rand.Rand
}

func NewCoupledRandomWalk(dist target.Distribution, sigma float64, rng *rand.Rand) (*CoupledRandomWalk, error) {
	if dist == nil {
		return nil, errNilTarget
	}
	if sigma <= 0 {
		return nil, errBadSigma
	}
	if rng == nil {
		return nil, errNilRand
	}
	return &CoupledRandomWalk{target: dist, sigma: sigma, rng: rng}, nil
}

func (k *CoupledRandomWalk) Step(state1, state2 []float64, _ int) ([]float64, []float64) {
	proposal1, proposal2 := k.coupledProposals(state1, state2)
	logU := math.Log(k.rng.Float64())

	next1 := append([]float64(nil), state1...)
	if logU < k.target.LogDensity(proposal1)-k.target.LogDensity(state1) {
		next1 = proposal1
	}
	next2 := append([]float64(nil), state2...)
	if logU < k.target.LogDensity(proposal2)-k.target.LogDensity(state2) {
		next2 = proposal2
	}
	return next1, next2
}

// coupledProposals samples from the maximal coupling of
// N(center1, sigma^2 I) and N(center2, sigma^2 I) by rejection: with
// probability equal to the overlap of the two proposal densities both
// chains receive the identical draw.
func (k *CoupledRandomWalk) coupledProposals(center1, center2 []float64) ([]float64, []float64) {
	proposal1 := make([]float64, len(center1))
	for i := range proposal1 {
		proposal1[i] = center1[i] + k.sigma*k.rng.NormFloat64()
	}
	if math.Log(k.rng.Float64())+gaussianLogDensity(proposal1, center1, k.sigma) <= gaussianLogDensity(proposal1, center2, k.sigma) {
		return proposal1, append([]float64(nil), proposal1...)
	}
	for {
		proposal2 := make([]float64, len(center2))
		for i := range proposal2 {
			proposal2[i] = center2[i] + k.sigma*k.rng.NormFloat64()
		}
		if math.Log(k.rng.Float64())+gaussianLogDensity(proposal2, center2, k.sigma) > gaussianLogDensity(proposal2, center1, k.sigma) {
			return proposal1, proposal2
		}
	}
}

func gaussianLogDensity(x, center []float64, sigma float64) float64 {
	total := 0.0
	for i := range x {
		total += distuv.Normal{Mu: center[i], Sigma: sigma}.LogProb(x[i])
	}
	return total
}
