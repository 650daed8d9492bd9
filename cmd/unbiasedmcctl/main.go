package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"unbiasedmc/internal/stats"
	"unbiasedmc/internal/storage"
	mcapi "unbiasedmc/pkg/unbiasedmc"
)

const (
	resultsDir = "results"
	exportsDir = "exports"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "init":
		return runInit(ctx, args[1:])
	case "reset":
		return runReset(ctx, args[1:])
	case "run":
		return runRun(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "replicates":
		return runReplicates(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	case "targets":
		return runTargets(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func newClient(storeKind, dbPath string, verbose bool) (*mcapi.Client, error) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	return mcapi.New(mcapi.Options{
		StoreKind:  storeKind,
		DBPath:     dbPath,
		ResultsDir: resultsDir,
		ExportsDir: exportsDir,
		Logger:     logger,
	})
}

func runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "unbiasedmc.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath, false)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Init(ctx); err != nil {
		return err
	}

	fmt.Printf("initialized store=%s\n", *storeKind)
	return nil
}

func runReset(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reset", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "unbiasedmc.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath, false)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Init(ctx); err != nil {
		return err
	}
	if err := client.Reset(ctx); err != nil {
		return err
	}

	fmt.Printf("reset store=%s\n", *storeKind)
	return nil
}

func runRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", "", "optional run config path (JSON or YAML)")
	targetName := fs.String("target", "gaussian", "target distribution name")
	dimension := fs.Int("dim", 1, "target dimension")
	testFunction := fs.String("test-function", "identity", "test function: identity|square")
	replicates := fs.Int("replicates", 100, "independent replicate count")
	workers := fs.Int("workers", 4, "worker count")
	seed := fs.Int64("seed", 1, "base rng seed")
	burnIn := fs.Int("burn-in", 0, "estimator burn-in k (0 derives horizon/10)")
	horizon := fs.Int("horizon", 1000, "estimator horizon K")
	minHorizon := fs.Int("min-horizon", 0, "minimum iterations before a met run may stop (0 uses horizon)")
	maxIterations := fs.Int("max-iterations", 0, "iteration cap per replicate (0 derives 100*horizon, negative disables)")
	stepSize := fs.Float64("step-size", 0.1, "leapfrog step size")
	leapfrogSteps := fs.Int("leapfrog-steps", 10, "leapfrog steps per proposal")
	walkSigma := fs.Float64("walk-sigma", 0.5, "random walk proposal stddev")
	walkProb := fs.Float64("walk-prob", 0.05, "probability of a random walk step in the mixture kernel")
	initStd := fs.Float64("init-std", 1, "initial state stddev")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "unbiasedmc.db", "sqlite database path")
	verbose := fs.Bool("verbose", false, "log per-replicate progress")
	if err := fs.Parse(args); err != nil {
		return err
	}
	setFlags := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		setFlags[f.Name] = true
	})

	req, err := loadOrDefaultRunRequest(*configPath)
	if err != nil {
		return err
	}
	if *configPath == "" {
		req = mcapi.RunRequest{
			Target:        *targetName,
			Dimension:     *dimension,
			TestFunction:  *testFunction,
			Replicates:    *replicates,
			Workers:       *workers,
			Seed:          *seed,
			BurnIn:        *burnIn,
			Horizon:       *horizon,
			MinHorizon:    *minHorizon,
			MaxIterations: *maxIterations,
			StepSize:      *stepSize,
			LeapfrogSteps: *leapfrogSteps,
			WalkSigma:     *walkSigma,
			WalkProb:      *walkProb,
			InitStd:       *initStd,
		}
	} else {
		overrideFromFlags(&req, setFlags, map[string]any{
			"target":         *targetName,
			"dim":            *dimension,
			"test-function":  *testFunction,
			"replicates":     *replicates,
			"workers":        *workers,
			"seed":           *seed,
			"burn-in":        *burnIn,
			"horizon":        *horizon,
			"min-horizon":    *minHorizon,
			"max-iterations": *maxIterations,
			"step-size":      *stepSize,
			"leapfrog-steps": *leapfrogSteps,
			"walk-sigma":     *walkSigma,
			"walk-prob":      *walkProb,
			"init-std":       *initStd,
		})
	}

	client, err := newClient(*storeKind, *dbPath, *verbose)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Init(ctx); err != nil {
		return err
	}

	summary, err := client.Run(ctx, req)
	if err != nil {
		return err
	}
	fmt.Printf("run completed run_id=%s target=%s replicates=%d seed=%d\n", summary.RunID, req.Target, summary.Replicates, req.Seed)
	fmt.Printf("met=%d/%d meeting_time_mean=%.2f meeting_time_max=%.0f\n", summary.MetCount, summary.Replicates, summary.MeetingTimeMean, summary.MeetingTimeMax)
	if len(summary.EstimateMean) > 0 {
		fmt.Printf("estimate_mean=%s estimate_std_err=%s\n", formatVector(summary.EstimateMean), formatVector(summary.EstimateStdErr))
	}
	fmt.Printf("artifacts_dir=%s\n", filepath.Clean(summary.ArtifactsDir))
	return nil
}

func runRuns(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "max runs to list")
	jsonOut := fs.Bool("json", false, "emit runs list as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be > 0")
	}

	entries, err := stats.ListRunIndex(resultsDir)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("no runs found")
		return nil
	}
	if len(entries) > *limit {
		entries = entries[:*limit]
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	for _, e := range entries {
		fmt.Printf("run_id=%s created_at=%s target=%s dim=%d replicates=%d seed=%d met=%d meeting_time_mean=%.2f\n",
			e.RunID,
			e.CreatedAtUTC,
			e.Target,
			e.Dimension,
			e.Replicates,
			e.Seed,
			e.MetCount,
			e.MeetingMean,
		)
	}
	return nil
}

func runReplicates(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("replicates", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "show replicates for the most recent run")
	jsonOut := fs.Bool("json", false, "emit replicates as JSON")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "unbiasedmc.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID != "" && *latest {
		return errors.New("use either --run-id or --latest, not both")
	}
	if *runID == "" && !*latest {
		return errors.New("replicates requires --run-id or --latest")
	}

	client, err := newClient(*storeKind, *dbPath, false)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	replicates, err := client.Replicates(ctx, mcapi.ReplicatesRequest{
		RunID:  *runID,
		Latest: *latest,
	})
	if err != nil {
		return err
	}
	if len(replicates) == 0 {
		fmt.Println("no replicates")
		return nil
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(replicates)
	}

	for _, r := range replicates {
		estimateDisplay := "n/a"
		if len(r.Estimate) > 0 {
			estimateDisplay = formatVector(r.Estimate)
		}
		fmt.Printf("index=%d seed=%d meeting_time=%d iterations=%d finished=%t estimate=%s\n",
			r.Index,
			r.Seed,
			r.MeetingTime,
			r.Iterations,
			r.Finished,
			estimateDisplay,
		)
	}
	return nil
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "export the most recent run")
	outDir := fs.String("out-dir", exportsDir, "export destination directory")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "unbiasedmc.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID != "" && *latest {
		return errors.New("use either --run-id or --latest, not both")
	}
	if *runID == "" && !*latest {
		return errors.New("export requires --run-id or --latest")
	}

	client, err := newClient(*storeKind, *dbPath, false)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	exported, err := client.Export(ctx, mcapi.ExportRequest{
		RunID:  *runID,
		Latest: *latest,
		OutDir: *outDir,
	})
	if err != nil {
		return err
	}
	fmt.Printf("exported run_id=%s dir=%s\n", exported.RunID, exported.Directory)
	return nil
}

func runTargets(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("targets", flag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "emit targets as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(storage.DefaultStoreKind(), "unbiasedmc.db", false)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	targets := client.Targets()
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(targets)
	}
	for _, name := range targets {
		fmt.Println(name)
	}
	return nil
}

func formatVector(v []float64) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = fmt.Sprintf("%.6f", x)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: unbiasedmcctl <init|reset|run|runs|replicates|export|targets> [flags]", msg)
}
