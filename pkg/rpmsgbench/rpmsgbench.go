package rpmsgbench

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/bft-labs/rpmsgbench/internal/adapters/codec"
	"github.com/bft-labs/rpmsgbench/internal/adapters/fs"
	"github.com/bft-labs/rpmsgbench/internal/adapters/metrics"
	"github.com/bft-labs/rpmsgbench/internal/adapters/remoteproc"
	"github.com/bft-labs/rpmsgbench/internal/adapters/rpmsg"
	"github.com/bft-labs/rpmsgbench/internal/adapters/sigio"
	"github.com/bft-labs/rpmsgbench/internal/app"
	"github.com/bft-labs/rpmsgbench/internal/domain"
	"github.com/bft-labs/rpmsgbench/pkg/log"
)

// stopTimeout bounds stopping the remote unit after the run.
const stopTimeout = 5 * time.Second

type (
	// Summary is the persisted outcome of a run.
	Summary = domain.RunSummary

	// Stats holds count, min, max and sum of the paired latencies.
	Stats = domain.Summary

	// Anomaly is a recoverable condition observed during the run.
	Anomaly = domain.Anomaly
)

// Outcome is what a run produced.
type Outcome struct {
	Summary   Summary
	Stats     Stats
	Anomalies []Anomaly

	// Previous is the summary an earlier run of the same size left in the
	// output directory, if any.
	Previous *Summary

	ResultsPath string
	SummaryPath string
	MetricsPath string
}

// Bench is a configured latency measurement. Use New to create one.
type Bench struct {
	config Config
	opts   options

	mu      sync.Mutex
	running bool
	harness *app.Harness
}

// New validates cfg and creates a Bench. Nothing is opened until Run.
func New(cfg Config, opts ...Option) (*Bench, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.remoteUnit == nil && !cfg.SkipRemoteProc {
		o.remoteUnit = remoteproc.NewManager(cfg.RemoteProcRoot, cfg.RemoteProc, cfg.Firmware, o.logger)
	}
	return &Bench{config: cfg, opts: o}, nil
}

// Run starts the remote unit, prepares the endpoint, performs the
// measurement and persists the results. Cancelling ctx ends the send loop
// early; whatever was measured is still reported. A fatal error is returned
// together with the partial outcome, whose summary records the error.
func (b *Bench) Run(ctx context.Context) (out Outcome, err error) {
	b.mu.Lock()
	if b.running {
		b.mu.Unlock()
		return out, domain.ErrAlreadyRunning
	}
	b.running = true
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		b.running = false
		b.mu.Unlock()
	}()

	cfg := b.config
	logger := b.opts.logger

	if unit := b.opts.remoteUnit; unit != nil {
		if err := unit.Start(ctx); err != nil {
			return out, fmt.Errorf("start remote unit: %w", err)
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
			defer cancel()
			if stopErr := unit.Stop(stopCtx); stopErr != nil {
				logger.Warn("failed to stop remote unit", log.Err(stopErr))
			}
		}()
	}

	path, err := rpmsg.PrepareEndpoint(ctx, cfg.endpointConfig(), logger)
	if err != nil {
		return out, err
	}
	ch, err := rpmsg.OpenWithRetry(ctx, path, domain.MaxFrameSize, rpmsg.DefaultOpenRetries)
	if err != nil {
		return out, err
	}
	defer func() {
		if closeErr := ch.Close(); closeErr != nil {
			logger.Warn("failed to close endpoint", log.Err(closeErr))
		}
	}()

	notifier, err := sigio.Register(ch)
	if err != nil {
		return out, err
	}
	defer notifier.Close()

	cd, err := codec.ByName(cfg.Codec)
	if err != nil {
		return out, err
	}

	sink := fs.NewTSVSink(cfg.OutputDir, cfg.OutputPrefix, cfg.Count)
	recorder := metrics.NewRecorder()
	h := app.NewHarness(cfg.harnessConfig(), ch, notifier, cd,
		app.WithLogger(logger),
		app.WithMetrics(recorder),
		app.WithResultSink(sink),
	)
	b.mu.Lock()
	b.harness = h
	b.mu.Unlock()

	summaryFile := fs.NewSummaryFile(cfg.OutputDir, cfg.OutputPrefix, cfg.Count)
	var previous *Summary
	if prev, err := summaryFile.Load(); err != nil {
		logger.Warn("ignoring unreadable previous summary", log.String("path", summaryFile.Path()), log.Err(err))
	} else if !prev.StartedAt.IsZero() {
		previous = &prev
	}

	logger.Info("starting measurement",
		log.String("endpoint", ch.Path()),
		log.Uint64("count", cfg.Count),
		log.String("codec", cd.Name()),
	)
	res, runErr := h.Run(ctx)

	out = Outcome{
		Summary:   res.RunSummary(cd.Name(), runErr),
		Stats:     res.Summary,
		Anomalies: res.Anomalies,
		Previous:  previous,
	}

	var persistErrs []error
	if runErr == nil {
		out.ResultsPath = sink.Path()
		out.Summary.Results = filepath.Base(sink.Path())
	} else if err := sink.Discard(); err != nil {
		persistErrs = append(persistErrs, fmt.Errorf("remove stale results: %w", err))
	}
	if err := summaryFile.Save(out.Summary); err != nil {
		persistErrs = append(persistErrs, fmt.Errorf("write summary: %w", err))
	} else {
		out.SummaryPath = summaryFile.Path()
	}
	if cfg.MetricsFile {
		metricsPath := filepath.Join(cfg.OutputDir, fmt.Sprintf("%s-%d.prom", cfg.OutputPrefix, cfg.Count))
		if err := recorder.WriteTextfile(metricsPath); err != nil {
			persistErrs = append(persistErrs, fmt.Errorf("write metrics: %w", err))
		} else {
			out.MetricsPath = metricsPath
		}
	}

	persistErr := errors.Join(persistErrs...)
	if runErr != nil {
		if persistErr != nil {
			logger.Warn("failed to persist run outcome", log.Err(persistErr))
		}
		return out, runErr
	}
	return out, persistErr
}

// Stop ends the current run early. Whatever was measured is still reported
// by Run. It reports whether a run was active.
func (b *Bench) Stop() bool {
	b.mu.Lock()
	h := b.harness
	b.mu.Unlock()
	if h == nil {
		return false
	}
	return h.Stop()
}

// Status returns the lifecycle state of the current or last run.
func (b *Bench) Status() State {
	b.mu.Lock()
	h := b.harness
	b.mu.Unlock()
	if h == nil {
		return StateStopped
	}
	return h.State()
}
