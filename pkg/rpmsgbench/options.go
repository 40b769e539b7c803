package rpmsgbench

import (
	"github.com/bft-labs/rpmsgbench/internal/ports"
	"github.com/bft-labs/rpmsgbench/pkg/log"
)

// RemoteUnit starts and stops the remote processor that echoes payloads.
type RemoteUnit = ports.RemoteUnit

// Option configures optional behavior of a Bench.
type Option func(*options)

type options struct {
	logger     log.Logger
	remoteUnit RemoteUnit
}

func defaultOptions() options {
	return options{logger: log.NewNoopLogger()}
}

// WithLogger sets a logger for structured logging.
// If not provided, a no-op logger is used.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithRemoteUnit replaces the sysfs remoteproc manager. It is used even when
// Config.SkipRemoteProc is set.
func WithRemoteUnit(unit RemoteUnit) Option {
	return func(o *options) {
		o.remoteUnit = unit
	}
}
