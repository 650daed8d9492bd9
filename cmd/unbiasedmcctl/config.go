package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	mcapi "unbiasedmc/pkg/unbiasedmc"
)

// loadRunRequestFromConfig reads a run request from a JSON or YAML
// file, chosen by extension.
func loadRunRequestFromConfig(path string) (mcapi.RunRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return mcapi.RunRequest{}, err
	}

	var raw map[string]any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return mcapi.RunRequest{}, err
		}
	case ".json":
		if err := json.Unmarshal(data, &raw); err != nil {
			return mcapi.RunRequest{}, err
		}
	default:
		return mcapi.RunRequest{}, fmt.Errorf("unsupported config format: %s", path)
	}

	var req mcapi.RunRequest
	if v, ok := asString(raw["target"]); ok {
		req.Target = v
	}
	if v, ok := asInt(raw["dimension"]); ok {
		req.Dimension = v
	}
	if v, ok := asString(raw["test_function"]); ok {
		req.TestFunction = v
	}
	if v, ok := asInt(raw["replicates"]); ok {
		req.Replicates = v
	}
	if v, ok := asInt(raw["workers"]); ok {
		req.Workers = v
	}
	if v, ok := asInt64(raw["seed"]); ok {
		req.Seed = v
	}
	if v, ok := asInt(raw["burn_in"]); ok {
		req.BurnIn = v
	}
	if v, ok := asInt(raw["horizon"]); ok {
		req.Horizon = v
	}
	if v, ok := asInt(raw["min_horizon"]); ok {
		req.MinHorizon = v
	}
	if v, ok := asInt(raw["max_iterations"]); ok {
		req.MaxIterations = v
	}
	if v, ok := asFloat64(raw["step_size"]); ok {
		req.StepSize = v
	}
	if v, ok := asInt(raw["leapfrog_steps"]); ok {
		req.LeapfrogSteps = v
	}
	if v, ok := asFloat64(raw["walk_sigma"]); ok {
		req.WalkSigma = v
	}
	if v, ok := asFloat64(raw["walk_prob"]); ok {
		req.WalkProb = v
	}
	if v, ok := asFloat64(raw["init_std"]); ok {
		req.InitStd = v
	}
	return req, nil
}

func loadOrDefaultRunRequest(configPath string) (mcapi.RunRequest, error) {
	if configPath == "" {
		return mcapi.RunRequest{}, nil
	}
	req, err := loadRunRequestFromConfig(configPath)
	if err != nil {
		return mcapi.RunRequest{}, fmt.Errorf("load config: %w", err)
	}
	return req, nil
}

// overrideFromFlags applies flags the user set explicitly on top of a
// config-file request.
func overrideFromFlags(req *mcapi.RunRequest, set map[string]bool, flagValue map[string]any) {
	for name := range set {
		v, ok := flagValue[name]
		if !ok {
			continue
		}
		switch name {
		case "target":
			req.Target = v.(string)
		case "dim":
			req.Dimension = v.(int)
		case "test-function":
			req.TestFunction = v.(string)
		case "replicates":
			req.Replicates = v.(int)
		case "workers":
			req.Workers = v.(int)
		case "seed":
			req.Seed = v.(int64)
		case "burn-in":
			req.BurnIn = v.(int)
		case "horizon":
			req.Horizon = v.(int)
		case "min-horizon":
			req.MinHorizon = v.(int)
		case "max-iterations":
			req.MaxIterations = v.(int)
		case "step-size":
			req.StepSize = v.(float64)
		case "leapfrog-steps":
			req.LeapfrogSteps = v.(int)
		case "walk-sigma":
			req.WalkSigma = v.(float64)
		case "walk-prob":
			req.WalkProb = v.(float64)
		case "init-std":
			req.InitStd = v.(float64)
		}
	}
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case float64:
		return int(x), true
	default:
		return 0, false
	}
}

func asInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case float64:
		return int64(x), true
	default:
		return 0, false
	}
}

func asFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	default:
		return 0, false
	}
}
