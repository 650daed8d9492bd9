package stats

import (
	"math"
	"testing"
)

func TestSummarizeMeetings(t *testing.T) {
	summary := SummarizeMeetings([]int{2, 4, 6, 8, 10})

	if summary.Total != 5 || summary.Met != 5 {
		t.Fatalf("unexpected counts: %+v", summary)
	}
	if summary.Mean != 6 {
		t.Fatalf("expected mean 6, got %v", summary.Mean)
	}
	if summary.Median != 6 {
		t.Fatalf("expected median 6, got %v", summary.Median)
	}
	if summary.Max != 10 {
		t.Fatalf("expected max 10, got %v", summary.Max)
	}
	if summary.P90 < summary.Median || summary.P90 > summary.Max {
		t.Fatalf("p90 %v outside [median, max]", summary.P90)
	}
}

func TestSummarizeMeetingsSkipsUnmet(t *testing.T) {
	summary := SummarizeMeetings([]int{3, -1, 5, -1})

	if summary.Total != 4 {
		t.Fatalf("expected total 4, got %d", summary.Total)
	}
	if summary.Met != 2 {
		t.Fatalf("expected 2 met, got %d", summary.Met)
	}
	if summary.Mean != 4 {
		t.Fatalf("expected mean 4 over met replicates, got %v", summary.Mean)
	}
}

func TestSummarizeMeetingsAllUnmet(t *testing.T) {
	summary := SummarizeMeetings([]int{-1, -1})

	if summary.Met != 0 {
		t.Fatalf("expected 0 met, got %d", summary.Met)
	}
	if !math.IsNaN(summary.Mean) || !math.IsNaN(summary.Max) {
		t.Fatalf("expected NaN statistics with no meetings: %+v", summary)
	}
}

func TestSummarizeEstimates(t *testing.T) {
	summary, err := SummarizeEstimates([][]float64{
		{1, 10},
		{3, 20},
	})
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}

	if summary.Replicates != 2 {
		t.Fatalf("expected 2 replicates, got %d", summary.Replicates)
	}
	if summary.Mean[0] != 2 || summary.Mean[1] != 15 {
		t.Fatalf("unexpected means: %v", summary.Mean)
	}
	// Sample std dev of {1,3} is sqrt(2); standard error sqrt(2)/sqrt(2) = 1.
	if math.Abs(summary.StdErr[0]-1) > 1e-12 {
		t.Fatalf("unexpected stderr: %v", summary.StdErr)
	}
}

func TestSummarizeEstimatesRejectsBadInput(t *testing.T) {
	if _, err := SummarizeEstimates(nil); err == nil {
		t.Fatal("expected an error for an empty batch")
	}
	if _, err := SummarizeEstimates([][]float64{{1}, {1, 2}}); err == nil {
		t.Fatal("expected an error for mismatched dimensions")
	}
}

func TestSummarizeEstimatesSingleReplicate(t *testing.T) {
	summary, err := SummarizeEstimates([][]float64{{4}})
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if summary.Mean[0] != 4 || summary.StdErr[0] != 0 {
		t.Fatalf("unexpected single-replicate summary: %+v", summary)
	}
}
