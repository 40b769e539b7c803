package ports

import "github.com/bft-labs/rpmsgbench/internal/domain"

// ResultSink persists per-id latency records produced by the reporter.
type ResultSink interface {
	// Begin truncates or creates the destination for a new report.
	Begin() error

	// Write appends one record.
	Write(rec domain.Record) error

	// Close flushes and releases the destination.
	Close() error
}
