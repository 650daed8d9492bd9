package chain

import (
	"math/rand"
	"testing"
)

// constInit returns the provided states in order, cycling at the end.
func constInit(states ...[]float64) InitSampler {
	i := 0
	return InitSamplerFunc(func() []float64 {
		s := states[i%len(states)]
		i++
		return append([]float64(nil), s...)
	})
}

func zeroKernel(state []float64, _ int) []float64 {
	return make([]float64, len(state))
}

func zeroCoupledKernel(s1, s2 []float64, _ int) ([]float64, []float64) {
	return make([]float64, len(s1)), make([]float64, len(s2))
}

func identity() TestFunction {
	return TestFunctionFunc(func(state []float64) []float64 {
		return append([]float64(nil), state...)
	})
}

func TestRunDegenerateCouplingMeetsAtOne(t *testing.T) {
	run, err := Run(KernelFunc(zeroKernel), CoupledKernelFunc(zeroCoupledKernel), constInit([]float64{5}, []float64{-3}), Options{})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if !run.Finished {
		t.Fatal("expected a finished run")
	}
	if run.MeetingTime != 1 {
		t.Fatalf("expected meeting time 1, got %d", run.MeetingTime)
	}
	if run.Iterations != 1 {
		t.Fatalf("expected 1 iteration, got %d", run.Iterations)
	}

	wantChain1 := []float64{5, 0, 0}
	if run.Chain1.Len() != len(wantChain1) {
		t.Fatalf("expected chain1 length %d, got %d", len(wantChain1), run.Chain1.Len())
	}
	for i, want := range wantChain1 {
		if got := run.Chain1.At(i)[0]; got != want {
			t.Fatalf("chain1[%d]: got %v, want %v", i, got, want)
		}
	}
	wantChain2 := []float64{-3, 0}
	if run.Chain2.Len() != len(wantChain2) {
		t.Fatalf("expected chain2 length %d, got %d", len(wantChain2), run.Chain2.Len())
	}
	for i, want := range wantChain2 {
		if got := run.Chain2.At(i)[0]; got != want {
			t.Fatalf("chain2[%d]: got %v, want %v", i, got, want)
		}
	}

	estimate, err := HBar(run, identity(), 0, 1)
	if err != nil {
		t.Fatalf("estimate failed: %v", err)
	}
	if estimate[0] != 0 {
		t.Fatalf("expected estimate 0, got %v", estimate[0])
	}
}

func TestRunExactEqualityIsRequiredToMeet(t *testing.T) {
	// The coupled kernel halves the gap between the chains each step.
	// Halving is exact in floating point, so the gap shrinks forever
	// without reaching zero: the chains must never be recorded as met.
	halving := CoupledKernelFunc(func(s1, s2 []float64, _ int) ([]float64, []float64) {
		mid := (s1[0] + s2[0]) / 2
		gap := (s2[0] - s1[0]) / 4
		return []float64{mid - gap}, []float64{mid + gap}
	})

	run, err := Run(KernelFunc(zeroKernel), halving, constInit([]float64{0}, []float64{1}), Options{MaxIterations: 200})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if run.Met() {
		t.Fatalf("nearly-converging chains were recorded as met at %d", run.MeetingTime)
	}
	if run.Finished {
		t.Fatal("run without a meeting must be unfinished")
	}
	if run.Iterations != 200 {
		t.Fatalf("expected the iteration cap of 200, got %d", run.Iterations)
	}
	if run.MeetingTime != -1 {
		t.Fatalf("expected unbounded meeting time, got %d", run.MeetingTime)
	}
}

// randomPair builds a synthetic stochastic kernel pair that meets with
// fixed probability per coupled step, for driver-invariant tests.
func randomPair(seed int64) (Kernel, CoupledKernel, InitSampler) {
	singleRng := rand.New(rand.NewSource(seed))
	coupledRng := rand.New(rand.NewSource(seed + 1))
	initRng := rand.New(rand.NewSource(seed + 2))

	single := KernelFunc(func(state []float64, _ int) []float64 {
		return []float64{state[0] + singleRng.NormFloat64()}
	})
	coupled := CoupledKernelFunc(func(s1, s2 []float64, _ int) ([]float64, []float64) {
		if coupledRng.Float64() < 0.25 {
			z := coupledRng.NormFloat64()
			return []float64{z}, []float64{z}
		}
		return []float64{s1[0] + coupledRng.NormFloat64()}, []float64{s2[0] + coupledRng.NormFloat64()}
	})
	init := InitSamplerFunc(func() []float64 {
		return []float64{initRng.NormFloat64()}
	})
	return single, coupled, init
}

func TestRunStaggeringInvariant(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		single, coupled, init := randomPair(seed)
		run, err := Run(single, coupled, init, Options{MinHorizon: 8, MaxIterations: 10000})
		if err != nil {
			t.Fatalf("seed %d: run failed: %v", seed, err)
		}
		if run.Chain1.Len() != run.Chain2.Len()+1 {
			t.Fatalf("seed %d: chain1 len %d, chain2 len %d", seed, run.Chain1.Len(), run.Chain2.Len())
		}
		if run.Chain1.Len() != run.Iterations+2 {
			t.Fatalf("seed %d: chain1 len %d for %d iterations", seed, run.Chain1.Len(), run.Iterations)
		}
	}
}

func TestRunMeetingPersistence(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		single, coupled, init := randomPair(seed)
		run, err := Run(single, coupled, init, Options{MinHorizon: 40, MaxIterations: 10000})
		if err != nil {
			t.Fatalf("seed %d: run failed: %v", seed, err)
		}
		if !run.Met() {
			t.Fatalf("seed %d: expected the synthetic pair to meet", seed)
		}
		for pos := run.MeetingTime; pos <= run.Iterations; pos++ {
			if run.Chain1.At(pos+1)[0] != run.Chain2.At(pos)[0] {
				t.Fatalf("seed %d: chains diverged again at position %d", seed, pos)
			}
		}
	}
}

func TestRunMeetingTimeUnchangedByLargerHorizon(t *testing.T) {
	single, coupled, init := randomPair(3)
	short, err := Run(single, coupled, init, Options{MinHorizon: 1, MaxIterations: 10000})
	if err != nil {
		t.Fatalf("short run failed: %v", err)
	}
	if !short.Met() {
		t.Fatal("expected the short run to meet")
	}

	single, coupled, init = randomPair(3)
	long, err := Run(single, coupled, init, Options{MinHorizon: short.MeetingTime + 50, MaxIterations: 10000})
	if err != nil {
		t.Fatalf("long run failed: %v", err)
	}

	if long.MeetingTime != short.MeetingTime {
		t.Fatalf("meeting time changed with horizon: %d vs %d", long.MeetingTime, short.MeetingTime)
	}
	if long.Iterations <= short.Iterations {
		t.Fatalf("expected the long run to record more iterations: %d vs %d", long.Iterations, short.Iterations)
	}
}

func TestRunValidatesInputs(t *testing.T) {
	init := constInit([]float64{0})
	if _, err := Run(nil, CoupledKernelFunc(zeroCoupledKernel), init, Options{}); err == nil {
		t.Fatal("expected an error for a nil single kernel")
	}
	if _, err := Run(KernelFunc(zeroKernel), nil, init, Options{}); err == nil {
		t.Fatal("expected an error for a nil coupled kernel")
	}
	if _, err := Run(KernelFunc(zeroKernel), CoupledKernelFunc(zeroCoupledKernel), nil, Options{}); err == nil {
		t.Fatal("expected an error for a nil init sampler")
	}

	mismatched := constInit([]float64{0}, []float64{0, 0})
	if _, err := Run(KernelFunc(zeroKernel), CoupledKernelFunc(zeroCoupledKernel), mismatched, Options{}); err == nil {
		t.Fatal("expected an error for mismatched initial dimensions")
	}
}
