package chain

import (
	"errors"
	"math"
	"testing"
)

// buildRun assembles a RunResult from explicit one-dimensional
// trajectories for direct estimator arithmetic checks.
func buildRun(chain1, chain2 []float64, meetingTime, iterations int, finished bool) *RunResult {
	t1 := NewTrajectory(1, len(chain1))
	for _, v := range chain1 {
		t1.Append([]float64{v})
	}
	t2 := NewTrajectory(1, len(chain2))
	for _, v := range chain2 {
		t2.Append([]float64{v})
	}
	return &RunResult{
		Chain1:      t1,
		Chain2:      t2,
		MeetingTime: meetingTime,
		Iterations:  iterations,
		Finished:    finished,
	}
}

func TestHBarReducesToPlainAverageAfterEarlyMeeting(t *testing.T) {
	// Meeting at 1 means the chains are identical across the whole
	// averaging window, so no correction applies.
	run := buildRun([]float64{9, 4, 2, 6, 8}, []float64{3, 2, 6, 8}, 1, 3, true)

	estimate, err := HBar(run, identity(), 0, 3)
	if err != nil {
		t.Fatalf("estimate failed: %v", err)
	}
	want := (4.0 + 2 + 6 + 8) / 4
	if estimate[0] != want {
		t.Fatalf("expected plain average %v, got %v", want, estimate[0])
	}
}

func TestHBarBiasCorrectionArithmetic(t *testing.T) {
	// Meeting at 2, three iterations recorded. Hand computation for
	// k=0, K=2: plain term 2+3+5, correction over t=0..1 with weights
	// min(t+1, 3): 1*(3-6) + 2*(5-5) = -3, total 7/3.
	run := buildRun([]float64{1, 2, 3, 5, 7}, []float64{4, 6, 5, 7}, 2, 3, true)

	estimate, err := HBar(run, identity(), 0, 2)
	if err != nil {
		t.Fatalf("estimate failed: %v", err)
	}
	want := 7.0 / 3
	if math.Abs(estimate[0]-want) > 1e-15 {
		t.Fatalf("expected %v, got %v", want, estimate[0])
	}

	// With k=1 the meeting happens at k+1, so the correction vanishes
	// and the result is the plain average of positions 2..3.
	estimate, err = HBar(run, identity(), 1, 2)
	if err != nil {
		t.Fatalf("estimate failed: %v", err)
	}
	if estimate[0] != 4 {
		t.Fatalf("expected 4, got %v", estimate[0])
	}
}

func TestHBarUnmetRunCorrectsOverFullDivergence(t *testing.T) {
	run := buildRun([]float64{0, 1, 2, 3}, []float64{10, 11, 12}, -1, 2, false)

	estimate, err := HBar(run, identity(), 0, 1)
	if err != nil {
		t.Fatalf("estimate failed: %v", err)
	}
	// Plain term 1+2; correction t=0: 1*(2-11), t=1: 2*(3-12).
	want := (3.0 - 9 - 18) / 2
	if estimate[0] != want {
		t.Fatalf("expected %v, got %v", want, estimate[0])
	}
}

func TestHBarVectorTestFunction(t *testing.T) {
	run, err := Run(KernelFunc(zeroKernel), CoupledKernelFunc(zeroCoupledKernel), constInit([]float64{5}, []float64{-3}), Options{MinHorizon: 3})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	// First and second moment in one pass.
	moments := TestFunctionFunc(func(state []float64) []float64 {
		return []float64{state[0], state[0] * state[0]}
	})
	estimate, err := HBar(run, moments, 0, 2)
	if err != nil {
		t.Fatalf("estimate failed: %v", err)
	}
	if len(estimate) != 2 {
		t.Fatalf("expected a 2-component estimate, got %v", estimate)
	}
	if estimate[0] != 0 || estimate[1] != 0 {
		t.Fatalf("expected zero moments for the zero kernel, got %v", estimate)
	}
}

func TestHBarPreconditions(t *testing.T) {
	run := buildRun([]float64{1, 2, 3, 5, 7}, []float64{4, 6, 5, 7}, 2, 3, true)

	if _, err := HBar(run, identity(), -1, 2); err == nil {
		t.Fatal("expected an error for negative k")
	}
	if _, err := HBar(run, identity(), 2, 1); err == nil {
		t.Fatal("expected an error for K < k")
	}
	if _, err := HBar(run, identity(), 0, 4); !errors.Is(err, ErrWindowExceedsRun) {
		t.Fatalf("expected ErrWindowExceedsRun for K beyond the run, got %v", err)
	}
	if _, err := HBar(run, identity(), 4, 4); !errors.Is(err, ErrWindowExceedsRun) {
		t.Fatalf("expected ErrWindowExceedsRun for k beyond the run, got %v", err)
	}
	if _, err := HBar(run, nil, 0, 1); err == nil {
		t.Fatal("expected an error for a nil test function")
	}
	if _, err := HBar(nil, identity(), 0, 1); err == nil {
		t.Fatal("expected an error for a nil run")
	}
}
