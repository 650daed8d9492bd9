// Package model holds the persisted record types shared by the store
// and the artifact writers.
package model

// VersionedRecord tags persisted payloads so the codec can reject
// records written by an incompatible version.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// RunRecord captures the configuration and summary of one estimation
// run (a batch of independent coupled-chain replicates).
type RunRecord struct {
	VersionedRecord

	ID           string `json:"id"`
	CreatedAtUTC string `json:"created_at_utc"`

	Target        string  `json:"target"`
	Dimension     int     `json:"dimension"`
	TestFunction  string  `json:"test_function"`
	Replicates    int     `json:"replicates"`
	Seed          int64   `json:"seed"`
	Workers       int     `json:"workers"`
	BurnIn        int     `json:"burn_in"`
	Horizon       int     `json:"horizon"`
	MinHorizon    int     `json:"min_horizon"`
	MaxIterations int     `json:"max_iterations"`
	StepSize      float64 `json:"step_size"`
	LeapfrogSteps int     `json:"leapfrog_steps"`
	WalkSigma     float64 `json:"walk_sigma"`
	WalkProb      float64 `json:"walk_prob"`
	InitStd       float64 `json:"init_std"`

	MetCount           int       `json:"met_count"`
	MeetingTimeMean    float64   `json:"meeting_time_mean"`
	MeetingTimeMax     float64   `json:"meeting_time_max"`
	EstimateMean       []float64 `json:"estimate_mean,omitempty"`
	EstimateStdErr     []float64 `json:"estimate_std_err,omitempty"`
	EstimateReplicates int       `json:"estimate_replicates"`
}

// ReplicateRecord is the per-replicate outcome within a run.
type ReplicateRecord struct {
	VersionedRecord

	Index       int       `json:"index"`
	Seed        int64     `json:"seed"`
	MeetingTime int       `json:"meeting_time"`
	Iterations  int       `json:"iterations"`
	Finished    bool      `json:"finished"`
	Estimate    []float64 `json:"estimate,omitempty"`
}
