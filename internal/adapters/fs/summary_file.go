package fs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bft-labs/rpmsgbench/internal/domain"
)

// SummaryFile persists a run summary as JSON next to the latency records.
type SummaryFile struct {
	path string
}

// NewSummaryFile creates a SummaryFile for <dir>/<prefix>-<count>.summary.json.
func NewSummaryFile(dir, prefix string, count uint64) *SummaryFile {
	return &SummaryFile{path: filepath.Join(dir, fmt.Sprintf("%s-%d.summary.json", prefix, count))}
}

// Load reads a previously saved summary.
// Returns an empty summary and nil error if no file exists.
func (f *SummaryFile) Load() (domain.RunSummary, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.RunSummary{}, nil
		}
		return domain.RunSummary{}, err
	}

	var summary domain.RunSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return domain.RunSummary{}, err
	}
	return summary, nil
}

// Save writes the summary atomically (temp file, then rename).
func (f *SummaryFile) Save(summary domain.RunSummary) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}

// Path returns the full path to the summary file.
func (f *SummaryFile) Path() string { return f.path }
