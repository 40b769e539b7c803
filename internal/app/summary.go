package app

import (
	"github.com/bft-labs/rpmsgbench/internal/domain"
)

// RunSummary flattens the result for persistence. runErr, if any, is the
// fatal error that ended the run.
func (r Result) RunSummary(codec string, runErr error) domain.RunSummary {
	s := domain.RunSummary{
		Codec:        codec,
		Count:        r.Count,
		Sent:         r.Sent,
		Received:     r.Received,
		Paired:       r.Summary.Count,
		Lost:         r.Lost,
		Spurious:     r.Watcher.Spurious,
		DecodeErrors: r.Watcher.DecodeErrors,
		StartedAt:    r.StartedAt,
		Elapsed:      r.Elapsed.String(),
		Interrupted:  r.Interrupted,
	}
	if mean, ok := r.Summary.Mean(); ok {
		us := float64(mean.Nanoseconds()) / 1e3
		s.MeanMicros = &us
		s.MinMicros = r.Summary.Min.Microseconds()
		s.MaxMicros = r.Summary.Max.Microseconds()
	}
	if len(r.Anomalies) > 0 {
		s.Anomalies = make(map[string]int)
		for _, a := range r.Anomalies {
			s.Anomalies[domain.KindName(a.Kind)]++
		}
	}
	if runErr != nil {
		s.Error = runErr.Error()
	}
	return s
}
