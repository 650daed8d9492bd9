package chain

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Kernel advances one chain by a single transition. Implementations
// are stochastic and must draw from their own injected random source.
type Kernel interface {
	Step(state []float64, iteration int) []float64
}

// CoupledKernel advances two chains jointly. Implementations must feed
// the same random draws to both chains (one shared proposal draw, one
// shared accept threshold) so the returned states can be exactly equal
// with positive probability.
type CoupledKernel interface {
	Step(state1, state2 []float64, iteration int) ([]float64, []float64)
}

// InitSampler draws an initial state.
type InitSampler interface {
	Sample() []float64
}

// TestFunction maps a state to a numeric vector of fixed dimension.
type TestFunction interface {
	Eval(state []float64) []float64
}

type KernelFunc func(state []float64, iteration int) []float64

func (f KernelFunc) Step(state []float64, iteration int) []float64 { return f(state, iteration) }

type CoupledKernelFunc func(state1, state2 []float64, iteration int) ([]float64, []float64)

func (f CoupledKernelFunc) Step(state1, state2 []float64, iteration int) ([]float64, []float64) {
	return f(state1, state2, iteration)
}

type InitSamplerFunc func() []float64

func (f InitSamplerFunc) Sample() []float64 { return f() }

type TestFunctionFunc func(state []float64) []float64

func (f TestFunctionFunc) Eval(state []float64) []float64 { return f(state) }

var (
	ErrNilKernel      = errors.New("kernel is required")
	ErrNilInitSampler = errors.New("init sampler is required")
)

// Options control one coupled run.
type Options struct {
	// MinHorizon is the minimum iteration count before a met run may
	// stop. Defaults to 1.
	MinHorizon int
	// MaxIterations caps the run; a run that hits the cap before
	// meeting and reaching MinHorizon is returned unfinished. Zero or
	// negative means unbounded.
	MaxIterations int
	// Preallocate hints how many iterations beyond MinHorizon to
	// reserve trajectory storage for. Defaults to 10.
	Preallocate int
}

// RunResult holds the two recorded trajectories of one coupled run.
//
// Chain1 records positions 0..Iterations+1 of the first chain and
// Chain2 positions 0..Iterations of the second, so Chain1 is always
// one state longer (the first chain is advanced once before the
// coupled loop starts). After the chains meet at MeetingTime,
// Chain1.At(t+1) equals Chain2.At(t) for every t >= MeetingTime.
type RunResult struct {
	Chain1      *Trajectory
	Chain2      *Trajectory
	MeetingTime int
	Iterations  int
	Finished    bool
}

// Met reports whether the two chains became exactly equal.
func (r *RunResult) Met() bool { return r.MeetingTime >= 0 }

// Run simulates a pair of coupled chains until they meet and the
// minimum horizon is reached, or until MaxIterations is exhausted.
//
// Meeting requires exact float equality between the two states
// produced by one coupled step. No tolerance is applied: states that
// differ in the last bit have not met, because everything downstream
// assumes the chains are identical after the meeting time.
func Run(single Kernel, coupled CoupledKernel, init InitSampler, opts Options) (*RunResult, error) {
	if single == nil || coupled == nil {
		return nil, ErrNilKernel
	}
	if init == nil {
		return nil, ErrNilInitSampler
	}
	if opts.MinHorizon < 1 {
		opts.MinHorizon = 1
	}
	if opts.Preallocate <= 0 {
		opts.Preallocate = 10
	}

	x := init.Sample()
	y := init.Sample()
	if len(x) == 0 {
		return nil, errors.New("init sampler produced an empty state")
	}
	if len(y) != len(x) {
		return nil, fmt.Errorf("init sampler dimension mismatch: %d vs %d", len(x), len(y))
	}

	hint := opts.MinHorizon + opts.Preallocate + 2
	chain1 := NewTrajectory(len(x), hint)
	chain2 := NewTrajectory(len(x), hint)
	chain1.Append(x)
	chain2.Append(y)

	// The first chain takes one extra step before the coupled loop, so
	// it stays one position ahead of the second until they meet.
	x = single.Step(x, 0)
	chain1.Append(x)

	met := false
	meetingTime := -1
	finished := false
	iteration := 1
	for ; ; iteration++ {
		if met {
			x = single.Step(x, iteration)
			y = x
		} else {
			x, y = coupled.Step(x, y, iteration)
			if floats.Equal(x, y) {
				met = true
				meetingTime = iteration
			}
		}
		chain1.Append(x)
		chain2.Append(y)

		if met && iteration >= opts.MinHorizon {
			finished = true
			break
		}
		if opts.MaxIterations > 0 && iteration >= opts.MaxIterations {
			break
		}
	}

	chain1.Trim()
	chain2.Trim()
	return &RunResult{
		Chain1:      chain1,
		Chain2:      chain2,
		MeetingTime: meetingTime,
		Iterations:  iteration,
		Finished:    finished,
	}, nil
}
