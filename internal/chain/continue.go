package chain

import "errors"

// ErrNotMet is returned when a continuation is requested for a run
// whose chains never became equal.
var ErrNotMet = errors.New("chains have not met")

// Continue extends a finished run to targetHorizon iterations using
// only the single-chain kernel, appending each new state to both
// trajectories. The run must have met: before the meeting time the two
// chains are still distinct and collapsing them here would silently
// corrupt the bias correction. When targetHorizon does not exceed the
// recorded iteration count the run is returned unchanged.
//
// The input run is extended in place and returned.
func Continue(run *RunResult, single Kernel, targetHorizon int) (*RunResult, error) {
	if run == nil {
		return nil, errors.New("run result is required")
	}
	if single == nil {
		return nil, ErrNilKernel
	}
	if targetHorizon <= run.Iterations {
		return run, nil
	}
	if !run.Met() {
		return nil, ErrNotMet
	}

	x := append([]float64(nil), run.Chain1.Last()...)
	for iteration := run.Iterations + 1; iteration <= targetHorizon; iteration++ {
		x = single.Step(x, iteration)
		run.Chain1.Append(x)
		run.Chain2.Append(x)
	}
	run.Iterations = targetHorizon
	return run, nil
}
