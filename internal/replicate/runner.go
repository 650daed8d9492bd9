// Package replicate runs independent coupled-chain replicates in
// parallel and collects their meeting times and unbiased estimates.
package replicate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"unbiasedmc/internal/chain"
)

// Factory builds a fresh kernel triple for one replicate. Each
// replicate gets its own seed so the replicates are independent and
// the whole batch is reproducible.
type Factory func(seed int64) (chain.Kernel, chain.CoupledKernel, chain.InitSampler, error)

// Config controls one batch of replicates.
type Config struct {
	// Replicates is the number of independent coupled runs.
	Replicates int
	// Workers bounds the number of concurrent replicates. Values below
	// one run the batch on a single worker.
	Workers int
	// Seed is the base seed; replicate i uses Seed+i.
	Seed int64
	// BurnIn and Horizon are the estimator window (k and K). Replicates
	// that meet but stop short of Horizon are continued to it.
	BurnIn  int
	Horizon int
	// MinHorizon and MaxIterations are passed through to the coupled
	// run of every replicate.
	MinHorizon    int
	MaxIterations int
	// Test is the function whose expectation is estimated.
	Test chain.TestFunction
	// Factory builds the kernels for each replicate.
	Factory Factory

	Logger *slog.Logger
}

// Result is the outcome of one replicate. Estimate is nil when the
// replicate never met within its iteration cap.
type Result struct {
	Index       int
	Seed        int64
	MeetingTime int
	Iterations  int
	Finished    bool
	Estimate    []float64
}

// Run executes the configured batch and returns one result per
// replicate, ordered by index. A replicate that fails to meet is not
// an error; it simply carries no estimate.
func Run(ctx context.Context, cfg Config) ([]Result, error) {
	if cfg.Replicates < 1 {
		return nil, errors.New("at least one replicate is required")
	}
	if cfg.Factory == nil {
		return nil, errors.New("kernel factory is required")
	}
	if cfg.Test == nil {
		return nil, errors.New("test function is required")
	}
	if cfg.BurnIn < 0 || cfg.Horizon < cfg.BurnIn {
		return nil, fmt.Errorf("invalid estimator window: burn-in %d, horizon %d", cfg.BurnIn, cfg.Horizon)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	type job struct {
		idx int
	}
	type jobResult struct {
		idx int
		res Result
		err error
	}

	jobs := make(chan job)
	results := make(chan jobResult, cfg.Replicates)

	workerCount := cfg.Workers
	if workerCount < 1 {
		workerCount = 1
	}
	if workerCount > cfg.Replicates {
		workerCount = cfg.Replicates
	}

	var wg sync.WaitGroup
	wg.Add(workerCount)
	for w := 0; w < workerCount; w++ {
		go func() {
			defer wg.Done()
			for j := range jobs {
				if err := ctx.Err(); err != nil {
					results <- jobResult{idx: j.idx, err: err}
					continue
				}
				res, err := runOne(cfg, j.idx)
				if err != nil {
					results <- jobResult{idx: j.idx, err: fmt.Errorf("replicate %d: %w", j.idx, err)}
					continue
				}
				logger.Debug("replicate done",
					"index", res.Index,
					"seed", res.Seed,
					"meeting_time", res.MeetingTime,
					"iterations", res.Iterations,
					"finished", res.Finished)
				results <- jobResult{idx: j.idx, res: res}
			}
		}()
	}

	for i := 0; i < cfg.Replicates; i++ {
		jobs <- job{idx: i}
	}
	close(jobs)

	wg.Wait()
	close(results)

	out := make([]Result, cfg.Replicates)
	for res := range results {
		if res.err != nil {
			return nil, res.err
		}
		out[res.idx] = res.res
	}

	met := 0
	for _, r := range out {
		if r.MeetingTime >= 0 {
			met++
		}
	}
	logger.Info("replicate batch done", "replicates", cfg.Replicates, "met", met, "workers", workerCount)

	return out, nil
}

func runOne(cfg Config, index int) (Result, error) {
	seed := cfg.Seed + int64(index)
	single, coupled, init, err := cfg.Factory(seed)
	if err != nil {
		return Result{}, err
	}

	run, err := chain.Run(single, coupled, init, chain.Options{
		MinHorizon:    cfg.MinHorizon,
		MaxIterations: cfg.MaxIterations,
	})
	if err != nil {
		return Result{}, err
	}

	result := Result{
		Index:       index,
		Seed:        seed,
		MeetingTime: run.MeetingTime,
		Iterations:  run.Iterations,
		Finished:    run.Finished,
	}
	if !run.Finished {
		return result, nil
	}

	if run.Iterations < cfg.Horizon {
		run, err = chain.Continue(run, single, cfg.Horizon)
		if err != nil {
			return Result{}, err
		}
		result.Iterations = run.Iterations
	}

	estimate, err := chain.HBar(run, cfg.Test, cfg.BurnIn, cfg.Horizon)
	if err != nil {
		return Result{}, err
	}
	result.Estimate = estimate
	return result, nil
}
