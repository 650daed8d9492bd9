// Package unbiasedmc is the embedding API for running coupled-chain
// estimation batches and querying their stored results.
package unbiasedmc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"unbiasedmc/internal/chain"
	"unbiasedmc/internal/kernel"
	"unbiasedmc/internal/model"
	"unbiasedmc/internal/replicate"
	"unbiasedmc/internal/stats"
	"unbiasedmc/internal/storage"
	"unbiasedmc/internal/target"
)

const (
	defaultResultsDir = "results"
	defaultExportsDir = "exports"
	defaultDBPath     = "unbiasedmc.db"
)

type Options struct {
	StoreKind  string
	DBPath     string
	ResultsDir string
	ExportsDir string
	Logger     *slog.Logger
}

type Client struct {
	store  storage.Store
	logger *slog.Logger

	resultsDir string
	exportsDir string
}

type RunRequest struct {
	Target        string
	Dimension     int
	TestFunction  string
	Replicates    int
	Workers       int
	Seed          int64
	BurnIn        int
	Horizon       int
	MinHorizon    int
	MaxIterations int
	StepSize      float64
	LeapfrogSteps int
	WalkSigma     float64
	WalkProb      float64
	InitStd       float64
}

type RunSummary struct {
	RunID           string
	ArtifactsDir    string
	Replicates      int
	MetCount        int
	MeetingTimeMean float64
	MeetingTimeMax  float64
	EstimateMean    []float64
	EstimateStdErr  []float64
}

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	RunID           string
	CreatedAtUTC    string
	Target          string
	Dimension       int
	Replicates      int
	Seed            int64
	MetCount        int
	MeetingTimeMean float64
}

type ReplicatesRequest struct {
	RunID  string
	Latest bool
}

type ExportRequest struct {
	RunID  string
	Latest bool
	OutDir string
}

type ExportSummary struct {
	RunID     string
	Directory string
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	resultsDir := opts.ResultsDir
	if resultsDir == "" {
		resultsDir = defaultResultsDir
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:      store,
		logger:     logger,
		resultsDir: resultsDir,
		exportsDir: exportsDir,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	return c.store.Init(ctx)
}

func (c *Client) Reset(ctx context.Context) error {
	return c.store.Reset(ctx)
}

// Targets lists the target distributions available to Run.
func (c *Client) Targets() []string {
	return target.Names()
}

func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	if req.Target == "" {
		req.Target = "gaussian"
	}
	if req.Dimension <= 0 {
		req.Dimension = 1
	}
	if req.TestFunction == "" {
		req.TestFunction = "identity"
	}
	if req.Replicates <= 0 {
		req.Replicates = 100
	}
	if req.Workers <= 0 {
		req.Workers = 4
	}
	if req.Horizon <= 0 {
		req.Horizon = 1000
	}
	if req.BurnIn <= 0 {
		req.BurnIn = req.Horizon / 10
	}
	if req.MinHorizon <= 0 {
		req.MinHorizon = req.Horizon
	}
	if req.MaxIterations == 0 {
		req.MaxIterations = 100 * req.Horizon
	}
	if req.StepSize <= 0 {
		req.StepSize = 0.1
	}
	if req.LeapfrogSteps <= 0 {
		req.LeapfrogSteps = 10
	}
	if req.WalkSigma <= 0 {
		req.WalkSigma = 0.5
	}
	if req.WalkProb <= 0 {
		req.WalkProb = 1.0 / 20.0
	}
	if req.InitStd <= 0 {
		req.InitStd = 1
	}
	if req.BurnIn > req.Horizon {
		return RunSummary{}, errors.New("burn-in must not exceed the horizon")
	}

	dist, err := target.New(req.Target, req.Dimension)
	if err != nil {
		return RunSummary{}, err
	}
	// Fixed-dimension targets override the requested dimension.
	req.Dimension = dist.Dim()
	testFn, err := testFunctionFromName(req.TestFunction)
	if err != nil {
		return RunSummary{}, err
	}

	kernelCfg := kernel.Config{
		StepSize:      req.StepSize,
		LeapfrogSteps: req.LeapfrogSteps,
		WalkSigma:     req.WalkSigma,
		WalkProb:      req.WalkProb,
		InitStd:       req.InitStd,
	}

	results, err := replicate.Run(ctx, replicate.Config{
		Replicates:    req.Replicates,
		Workers:       req.Workers,
		Seed:          req.Seed,
		BurnIn:        req.BurnIn,
		Horizon:       req.Horizon,
		MinHorizon:    req.MinHorizon,
		MaxIterations: req.MaxIterations,
		Test:          testFn,
		Factory: func(seed int64) (chain.Kernel, chain.CoupledKernel, chain.InitSampler, error) {
			return kernel.NewPair(dist, kernelCfg, seed)
		},
		Logger: c.logger,
	})
	if err != nil {
		return RunSummary{}, err
	}

	meetingTimes := make([]int, len(results))
	estimates := make([][]float64, 0, len(results))
	replicateRecords := make([]model.ReplicateRecord, len(results))
	for i, r := range results {
		meetingTimes[i] = r.MeetingTime
		if r.Estimate != nil {
			estimates = append(estimates, r.Estimate)
		}
		replicateRecords[i] = model.ReplicateRecord{
			VersionedRecord: currentVersion(),
			Index:           r.Index,
			Seed:            r.Seed,
			MeetingTime:     r.MeetingTime,
			Iterations:      r.Iterations,
			Finished:        r.Finished,
			Estimate:        r.Estimate,
		}
	}

	meetingSummary := stats.SummarizeMeetings(meetingTimes)
	var estimateSummary *stats.EstimateSummary
	if len(estimates) > 0 {
		summary, err := stats.SummarizeEstimates(estimates)
		if err != nil {
			return RunSummary{}, err
		}
		estimateSummary = &summary
	}

	now := time.Now().UTC()
	runID := fmt.Sprintf("%s-%d-%s", req.Target, req.Seed, uuid.NewString()[:8])

	run := model.RunRecord{
		VersionedRecord: currentVersion(),
		ID:              runID,
		CreatedAtUTC:    now.Format(time.RFC3339Nano),
		Target:          req.Target,
		Dimension:       req.Dimension,
		TestFunction:    req.TestFunction,
		Replicates:      req.Replicates,
		Seed:            req.Seed,
		Workers:         req.Workers,
		BurnIn:          req.BurnIn,
		Horizon:         req.Horizon,
		MinHorizon:      req.MinHorizon,
		MaxIterations:   req.MaxIterations,
		StepSize:        req.StepSize,
		LeapfrogSteps:   req.LeapfrogSteps,
		WalkSigma:       req.WalkSigma,
		WalkProb:        req.WalkProb,
		InitStd:         req.InitStd,
		MetCount:        meetingSummary.Met,
		MeetingTimeMean: meetingSummary.Mean,
		MeetingTimeMax:  meetingSummary.Max,
	}
	if estimateSummary != nil {
		run.EstimateMean = estimateSummary.Mean
		run.EstimateStdErr = estimateSummary.StdErr
		run.EstimateReplicates = estimateSummary.Replicates
	}

	if err := c.store.SaveRun(ctx, run); err != nil {
		return RunSummary{}, err
	}
	if err := c.store.SaveReplicates(ctx, runID, replicateRecords); err != nil {
		return RunSummary{}, err
	}

	runDir, err := stats.WriteRunArtifacts(c.resultsDir, stats.RunArtifacts{
		Run:             run,
		Replicates:      replicateRecords,
		MeetingSummary:  meetingSummary,
		EstimateSummary: estimateSummary,
	})
	if err != nil {
		return RunSummary{}, err
	}
	if err := stats.AppendRunIndex(c.resultsDir, stats.RunIndexEntry{
		RunID:        runID,
		CreatedAtUTC: run.CreatedAtUTC,
		Target:       req.Target,
		Dimension:    req.Dimension,
		Replicates:   req.Replicates,
		Seed:         req.Seed,
		MetCount:     meetingSummary.Met,
		MeetingMean:  meetingSummary.Mean,
	}); err != nil {
		return RunSummary{}, err
	}

	summary := RunSummary{
		RunID:           runID,
		ArtifactsDir:    filepath.Clean(runDir),
		Replicates:      req.Replicates,
		MetCount:        meetingSummary.Met,
		MeetingTimeMean: meetingSummary.Mean,
		MeetingTimeMax:  meetingSummary.Max,
	}
	if estimateSummary != nil {
		summary.EstimateMean = append([]float64(nil), estimateSummary.Mean...)
		summary.EstimateStdErr = append([]float64(nil), estimateSummary.StdErr...)
	}
	return summary, nil
}

func (c *Client) Runs(ctx context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}

	runs, err := c.store.ListRuns(ctx)
	if err != nil {
		return nil, err
	}
	if len(runs) > req.Limit {
		runs = runs[:req.Limit]
	}

	out := make([]RunItem, 0, len(runs))
	for _, r := range runs {
		out = append(out, RunItem{
			RunID:           r.ID,
			CreatedAtUTC:    r.CreatedAtUTC,
			Target:          r.Target,
			Dimension:       r.Dimension,
			Replicates:      r.Replicates,
			Seed:            r.Seed,
			MetCount:        r.MetCount,
			MeetingTimeMean: r.MeetingTimeMean,
		})
	}
	return out, nil
}

func (c *Client) Replicates(ctx context.Context, req ReplicatesRequest) ([]model.ReplicateRecord, error) {
	runID, err := c.resolveRunID(ctx, req.RunID, req.Latest)
	if err != nil {
		return nil, err
	}

	replicates, ok, err := c.store.GetReplicates(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("replicates not found for run id: %s", runID)
	}
	out := make([]model.ReplicateRecord, len(replicates))
	copy(out, replicates)
	return out, nil
}

func (c *Client) Export(ctx context.Context, req ExportRequest) (ExportSummary, error) {
	runID, err := c.resolveRunID(ctx, req.RunID, req.Latest)
	if err != nil {
		return ExportSummary{}, err
	}
	if req.OutDir == "" {
		req.OutDir = c.exportsDir
	}

	exportedDir, err := stats.ExportRunArtifacts(c.resultsDir, runID, req.OutDir)
	if err != nil {
		return ExportSummary{}, err
	}
	return ExportSummary{RunID: runID, Directory: filepath.Clean(exportedDir)}, nil
}

func (c *Client) resolveRunID(ctx context.Context, runID string, latest bool) (string, error) {
	if runID != "" && latest {
		return "", errors.New("use either run id or latest")
	}
	if runID != "" {
		return runID, nil
	}
	if !latest {
		return "", errors.New("run id or latest is required")
	}

	runs, err := c.store.ListRuns(ctx)
	if err != nil {
		return "", err
	}
	if len(runs) == 0 {
		return "", errors.New("no runs available")
	}
	return runs[0].ID, nil
}

func currentVersion() model.VersionedRecord {
	return model.VersionedRecord{
		SchemaVersion: storage.CurrentSchemaVersion,
		CodecVersion:  storage.CurrentCodecVersion,
	}
}

func testFunctionFromName(name string) (chain.TestFunction, error) {
	switch name {
	case "identity":
		return chain.TestFunctionFunc(func(state []float64) []float64 {
			return append([]float64(nil), state...)
		}), nil
	case "square":
		return chain.TestFunctionFunc(func(state []float64) []float64 {
			out := make([]float64, len(state))
			for i, v := range state {
				out[i] = v * v
			}
			return out
		}), nil
	default:
		return nil, fmt.Errorf("unsupported test function: %s", name)
	}
}
