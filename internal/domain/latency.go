package domain

import "time"

// Record is one paired sequence id and its round-trip latency.
type Record struct {
	SequenceID uint64
	Latency    time.Duration
}

// Summary accumulates latency statistics over valid pairs.
type Summary struct {
	Count int
	Min   time.Duration
	Max   time.Duration
	Sum   time.Duration
}

// Add folds one latency into the summary.
func (s *Summary) Add(d time.Duration) {
	if s.Count == 0 || d < s.Min {
		s.Min = d
	}
	if s.Count == 0 || d > s.Max {
		s.Max = d
	}
	s.Sum += d
	s.Count++
}

// Mean returns Sum/Count; ok is false when nothing was accumulated.
func (s Summary) Mean() (mean time.Duration, ok bool) {
	if s.Count == 0 {
		return 0, false
	}
	return s.Sum / time.Duration(s.Count), true
}

// MeanString formats the mean, or "N/A" when undefined.
func (s Summary) MeanString() string {
	if m, ok := s.Mean(); ok {
		return m.String()
	}
	return "N/A"
}

// RunSummary is the persisted, human-readable outcome of one run.
type RunSummary struct {
	Codec        string         `json:"codec"`
	Count        uint64         `json:"count"`
	Sent         int            `json:"sent"`
	Received     int            `json:"received"`
	Paired       int            `json:"paired"`
	Lost         []uint64       `json:"lost,omitempty"`
	MinMicros    int64          `json:"min_us"`
	MaxMicros    int64          `json:"max_us"`
	MeanMicros   *float64       `json:"mean_us"`
	Spurious     uint64         `json:"spurious_notifications"`
	DecodeErrors uint64         `json:"decode_errors"`
	Anomalies    map[string]int `json:"anomalies,omitempty"`
	StartedAt    time.Time      `json:"started_at"`
	Elapsed      string         `json:"elapsed"`
	Interrupted  bool           `json:"interrupted"`
	Results      string         `json:"results,omitempty"`
	Error        string         `json:"error,omitempty"`
}
