package chain

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// ErrWindowExceedsRun is returned when the averaging window [k, K]
// reaches beyond the recorded iterations of a run.
var ErrWindowExceedsRun = errors.New("estimation window exceeds recorded iterations")

// HBar computes the unbiased estimate of E[h(X)] under the target
// distribution from one coupled run.
//
// The plain term averages h over chain-1 positions k+1 through K+1.
// When the chains met at or before position k+1 they were identical
// throughout that window and the plain average is already unbiased.
// Otherwise a bias-correction sum reweights the pre-meeting
// discrepancy between the chains: for t from k up to the last
// divergent position, the difference h(Chain1[t+2]) - h(Chain2[t+1])
// is weighted by min(t-k+1, K-k+1).
func HBar(run *RunResult, h TestFunction, k, K int) ([]float64, error) {
	if run == nil {
		return nil, errors.New("run result is required")
	}
	if h == nil {
		return nil, errors.New("test function is required")
	}
	if k < 0 || K < k {
		return nil, fmt.Errorf("invalid window: k=%d K=%d, need 0 <= k <= K", k, K)
	}
	if k > run.Iterations || K > run.Iterations {
		return nil, fmt.Errorf("%w: k=%d K=%d iterations=%d", ErrWindowExceedsRun, k, K, run.Iterations)
	}

	sum := append([]float64(nil), h.Eval(run.Chain1.At(k+1))...)
	for t := k + 2; t <= K+1; t++ {
		floats.Add(sum, h.Eval(run.Chain1.At(t)))
	}

	if !run.Met() || run.MeetingTime > k+1 {
		last := run.Iterations - 1
		if run.Met() && run.MeetingTime-1 < last {
			last = run.MeetingTime - 1
		}
		for t := k; t <= last; t++ {
			coefficient := float64(min(t-k+1, K-k+1))
			ahead := h.Eval(run.Chain1.At(t + 2))
			behind := h.Eval(run.Chain2.At(t + 1))
			for i := range sum {
				sum[i] += coefficient * (ahead[i] - behind[i])
			}
		}
	}

	floats.Scale(1/float64(K-k+1), sum)
	return sum, nil
}
