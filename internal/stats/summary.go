// Package stats summarizes replicate outcomes and persists run
// artifacts.
package stats

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// MeetingSummary describes the empirical meeting-time distribution of
// one batch of replicates. Unmet replicates count toward Total but not
// toward the quantile fields.
type MeetingSummary struct {
	Total  int     `json:"total"`
	Met    int     `json:"met"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	P90    float64 `json:"p90"`
	Max    float64 `json:"max"`
}

// SummarizeMeetings computes the meeting-time summary; a negative
// meeting time marks a replicate that never met.
func SummarizeMeetings(meetingTimes []int) MeetingSummary {
	summary := MeetingSummary{Total: len(meetingTimes)}

	met := make([]float64, 0, len(meetingTimes))
	for _, mt := range meetingTimes {
		if mt >= 0 {
			met = append(met, float64(mt))
		}
	}
	summary.Met = len(met)
	if len(met) == 0 {
		summary.Mean = math.NaN()
		summary.Median = math.NaN()
		summary.P90 = math.NaN()
		summary.Max = math.NaN()
		return summary
	}

	sort.Float64s(met)
	summary.Mean = stat.Mean(met, nil)
	summary.Median = stat.Quantile(0.5, stat.Empirical, met, nil)
	summary.P90 = stat.Quantile(0.9, stat.Empirical, met, nil)
	summary.Max = met[len(met)-1]
	return summary
}

// EstimateSummary aggregates per-replicate unbiased estimates into a
// component-wise mean and its standard error.
type EstimateSummary struct {
	Replicates int       `json:"replicates"`
	Mean       []float64 `json:"mean"`
	StdErr     []float64 `json:"std_err"`
}

// SummarizeEstimates averages the estimates of the replicates that
// produced one. All estimates must share the same dimension.
func SummarizeEstimates(estimates [][]float64) (EstimateSummary, error) {
	if len(estimates) == 0 {
		return EstimateSummary{}, errors.New("no estimates to summarize")
	}
	dim := len(estimates[0])
	for i, estimate := range estimates {
		if len(estimate) != dim {
			return EstimateSummary{}, fmt.Errorf("estimate %d has dimension %d, want %d", i, len(estimate), dim)
		}
	}

	summary := EstimateSummary{
		Replicates: len(estimates),
		Mean:       make([]float64, dim),
		StdErr:     make([]float64, dim),
	}
	component := make([]float64, len(estimates))
	for j := 0; j < dim; j++ {
		for i, estimate := range estimates {
			component[i] = estimate[j]
		}
		summary.Mean[j] = stat.Mean(component, nil)
		if len(estimates) > 1 {
			summary.StdErr[j] = stat.StdDev(component, nil) / math.Sqrt(float64(len(estimates)))
		}
	}
	return summary, nil
}
