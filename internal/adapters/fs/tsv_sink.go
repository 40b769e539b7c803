// Package fs persists run results on the local filesystem.
package fs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bft-labs/rpmsgbench/internal/domain"
)

var errNotOpen = errors.New("results file not open")

// TSVSink implements ports.ResultSink. Each record becomes one
// "<id>\t<latency_us>\n" line written straight to the file.
type TSVSink struct {
	path string
	file *os.File
}

// NewTSVSink creates a sink for <dir>/<prefix>-<count>.tsv.
func NewTSVSink(dir, prefix string, count uint64) *TSVSink {
	return &TSVSink{path: filepath.Join(dir, fmt.Sprintf("%s-%d.tsv", prefix, count))}
}

// Begin creates or truncates the results file.
func (s *TSVSink) Begin() error {
	if s.file != nil {
		return fmt.Errorf("%s already open", s.path)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(s.path)
	if err != nil {
		return err
	}
	s.file = f
	return nil
}

// Write appends one record with a single write call, so the line is in the
// file as soon as Write returns. Latency is truncated to whole microseconds.
func (s *TSVSink) Write(rec domain.Record) error {
	if s.file == nil {
		return errNotOpen
	}
	_, err := fmt.Fprintf(s.file, "%d\t%d\n", rec.SequenceID, rec.Latency.Microseconds())
	return err
}

// Close syncs and closes the file.
func (s *TSVSink) Close() error {
	if s.file == nil {
		return nil
	}
	f := s.file
	s.file = nil
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Discard closes the file if open and removes it, so a run that produced no
// report does not leave an earlier run's latencies under its name.
func (s *TSVSink) Discard() error {
	if s.file != nil {
		_ = s.file.Close()
		s.file = nil
	}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Path returns the full path to the results file.
func (s *TSVSink) Path() string { return s.path }
