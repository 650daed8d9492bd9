package stats

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"unbiasedmc/internal/model"
)

const runIndexFile = "run_index.json"

// RunArtifacts is everything written to a run's artifact directory.
type RunArtifacts struct {
	Run             model.RunRecord         `json:"run"`
	Replicates      []model.ReplicateRecord `json:"replicates"`
	MeetingSummary  MeetingSummary          `json:"meeting_summary"`
	EstimateSummary *EstimateSummary        `json:"estimate_summary,omitempty"`
}

// RunIndexEntry is one line of the run index kept next to the run
// directories.
type RunIndexEntry struct {
	RunID        string  `json:"run_id"`
	CreatedAtUTC string  `json:"created_at_utc"`
	Target       string  `json:"target"`
	Dimension    int     `json:"dimension"`
	Replicates   int     `json:"replicates"`
	Seed         int64   `json:"seed"`
	MetCount     int     `json:"met_count"`
	MeetingMean  float64 `json:"meeting_mean"`
}

// WriteRunArtifacts writes the run's config, replicate outcomes and
// summaries under baseDir/<run id> and returns the run directory.
func WriteRunArtifacts(baseDir string, artifacts RunArtifacts) (string, error) {
	if artifacts.Run.ID == "" {
		return "", fmt.Errorf("run id is required")
	}

	runDir := filepath.Join(baseDir, artifacts.Run.ID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, "run.json"), artifacts.Run); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "replicates.json"), artifacts.Replicates); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "meeting_summary.json"), artifacts.MeetingSummary); err != nil {
		return "", err
	}
	if artifacts.EstimateSummary != nil {
		if err := writeJSON(filepath.Join(runDir, "estimate_summary.json"), artifacts.EstimateSummary); err != nil {
			return "", err
		}
	}

	return runDir, nil
}

// ReadRunArtifacts loads a run directory written by WriteRunArtifacts.
func ReadRunArtifacts(baseDir, runID string) (RunArtifacts, bool, error) {
	if runID == "" {
		return RunArtifacts{}, false, fmt.Errorf("run id is required")
	}

	runDir := filepath.Join(baseDir, runID)
	var artifacts RunArtifacts
	ok, err := readJSON(filepath.Join(runDir, "run.json"), &artifacts.Run)
	if err != nil || !ok {
		return RunArtifacts{}, false, err
	}
	if _, err := readJSON(filepath.Join(runDir, "replicates.json"), &artifacts.Replicates); err != nil {
		return RunArtifacts{}, false, err
	}
	if _, err := readJSON(filepath.Join(runDir, "meeting_summary.json"), &artifacts.MeetingSummary); err != nil {
		return RunArtifacts{}, false, err
	}
	var estimate EstimateSummary
	ok, err = readJSON(filepath.Join(runDir, "estimate_summary.json"), &estimate)
	if err != nil {
		return RunArtifacts{}, false, err
	}
	if ok {
		artifacts.EstimateSummary = &estimate
	}
	return artifacts, true, nil
}

// AppendRunIndex inserts or replaces the run's entry in the index.
func AppendRunIndex(baseDir string, entry RunIndexEntry) error {
	if entry.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}

	index, err := ListRunIndex(baseDir)
	if err != nil {
		return err
	}

	for i := range index {
		if index[i].RunID == entry.RunID {
			index[i] = entry
			return writeJSON(filepath.Join(baseDir, runIndexFile), index)
		}
	}

	index = append(index, entry)
	return writeJSON(filepath.Join(baseDir, runIndexFile), index)
}

// ListRunIndex returns the index entries newest first.
func ListRunIndex(baseDir string) ([]RunIndexEntry, error) {
	path := filepath.Join(baseDir, runIndexFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunIndexEntry{}, nil
		}
		return nil, err
	}

	var entries []RunIndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}

	type indexedEntry struct {
		entry RunIndexEntry
		idx   int
	}
	indexed := make([]indexedEntry, len(entries))
	for i := range entries {
		indexed[i] = indexedEntry{entry: entries[i], idx: i}
	}
	sort.Slice(indexed, func(i, j int) bool {
		if indexed[i].entry.CreatedAtUTC == indexed[j].entry.CreatedAtUTC {
			// Prefer later appended entries for equal timestamps.
			return indexed[i].idx > indexed[j].idx
		}
		return indexed[i].entry.CreatedAtUTC > indexed[j].entry.CreatedAtUTC
	})

	sorted := make([]RunIndexEntry, 0, len(indexed))
	for _, item := range indexed {
		sorted = append(sorted, item.entry)
	}
	return sorted, nil
}

// ExportRunArtifacts copies a run directory into outDir and returns
// the destination.
func ExportRunArtifacts(baseDir, runID, outDir string) (string, error) {
	if runID == "" {
		return "", fmt.Errorf("run id is required")
	}

	src := filepath.Join(baseDir, runID)
	if _, err := os.Stat(src); err != nil {
		return "", err
	}

	dst := filepath.Join(outDir, runID)
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return "", err
	}

	files := []string{"run.json", "replicates.json", "meeting_summary.json"}
	for _, file := range files {
		if err := copyFile(filepath.Join(src, file), filepath.Join(dst, file)); err != nil {
			return "", err
		}
	}
	estimatePath := filepath.Join(src, "estimate_summary.json")
	if _, err := os.Stat(estimatePath); err == nil {
		if err := copyFile(estimatePath, filepath.Join(dst, "estimate_summary.json")); err != nil {
			return "", err
		}
	} else if !os.IsNotExist(err) {
		return "", err
	}

	return dst, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

func readJSON(path string, v any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, json.Unmarshal(data, v)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
