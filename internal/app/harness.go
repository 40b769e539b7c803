package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bft-labs/rpmsgbench/internal/domain"
	"github.com/bft-labs/rpmsgbench/internal/ports"
	"github.com/bft-labs/rpmsgbench/pkg/log"
)

// HarnessConfig contains the run parameters.
type HarnessConfig struct {
	Count                  uint64
	PayloadSize            int
	SendInterval           time.Duration
	DeliveryTimeout        time.Duration
	MaxConsecutiveTimeouts int
	DrainGrace             time.Duration
	SlowThreshold          time.Duration
}

// Result describes a completed (or interrupted) run.
type Result struct {
	Report

	Count       uint64
	Sent        int
	Received    int
	Lost        []uint64
	Watcher     BridgeStats
	StartedAt   time.Time
	Elapsed     time.Duration
	Interrupted bool
}

// Harness runs one measurement: it starts the watcher, drives the sender,
// drains trailing deliveries, tears the watcher down and reports.
type Harness struct {
	config    HarnessConfig
	channel   ports.Channel
	notifier  ports.Notifier
	codec     ports.Codec
	sink      ports.ResultSink
	metrics   ports.Metrics
	logger    log.Logger
	clock     Clock
	lifecycle *Lifecycle
}

// HarnessOption configures optional collaborators of a Harness.
type HarnessOption func(*Harness)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger log.Logger) HarnessOption {
	return func(h *Harness) { h.logger = logger }
}

// WithMetrics sets the metrics recorder. Defaults to ports.NoopMetrics.
func WithMetrics(metrics ports.Metrics) HarnessOption {
	return func(h *Harness) { h.metrics = metrics }
}

// WithResultSink sets where per-id latencies are persisted. Without one the
// report is only returned.
func WithResultSink(sink ports.ResultSink) HarnessOption {
	return func(h *Harness) { h.sink = sink }
}

// WithClock overrides time.Now for send and receive instants.
func WithClock(clock Clock) HarnessOption {
	return func(h *Harness) { h.clock = clock }
}

// NewHarness creates a harness for an already opened channel whose
// notifications are already registered with notifier.
func NewHarness(config HarnessConfig, channel ports.Channel, notifier ports.Notifier, codec ports.Codec, opts ...HarnessOption) *Harness {
	h := &Harness{
		config:   config,
		channel:  channel,
		notifier: notifier,
		codec:    codec,
		metrics:  ports.NoopMetrics{},
		logger:   log.NewNoopLogger(),
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.lifecycle = NewLifecycle(h.logger)
	return h
}

// State returns the lifecycle state of the run.
func (h *Harness) State() State { return h.lifecycle.State() }

// Run performs the measurement. Fatal conditions are returned as errors
// (see domain.IsFatal) after the watcher has been torn down. Cancelling ctx
// or calling Stop ends the send loop early; the partial result is still
// reported.
func (h *Harness) Run(ctx context.Context) (Result, error) {
	if !h.lifecycle.CanStart() {
		return Result{}, domain.ErrAlreadyRunning
	}
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	h.lifecycle.SetCancel(cancel)
	if err := h.lifecycle.TransitionTo(StateStarting, "run requested"); err != nil {
		return Result{}, err
	}

	queue := NewDeliveryQueue()
	aggregator := NewAggregator(ledgerCapacity(h.config.Count), h.logger, h.metrics)
	bridge := NewBridge(h.channel, h.notifier, h.codec, queue, h.clock, h.logger, h.metrics)
	sender := NewSender(SenderConfig{
		Count:                  h.config.Count,
		PayloadSize:            h.config.PayloadSize,
		SendInterval:           h.config.SendInterval,
		DeliveryTimeout:        h.config.DeliveryTimeout,
		MaxConsecutiveTimeouts: h.config.MaxConsecutiveTimeouts,
	}, h.channel, h.codec, queue, aggregator, h.clock, h.logger, h.metrics)

	h.lifecycle.Go(func() { bridge.Run(runCtx) })
	_ = h.lifecycle.TransitionTo(StateRunning, "watcher started")

	started := time.Now()
	h.logger.Info("sending payloads",
		log.Uint64("count", h.config.Count),
		log.Int("payload_size", h.config.PayloadSize),
		log.String("codec", h.codec.Name()),
	)

	sendErr := sender.Run(runCtx)
	interrupted := sendErr != nil && runCtx.Err() != nil && errors.Is(sendErr, runCtx.Err())
	if sendErr == nil {
		h.drain(runCtx, queue, aggregator)
	}

	_ = h.lifecycle.TransitionTo(StateStopping, "send loop finished")
	teardownErr := h.teardown(queue)
	for {
		ev, ok := queue.TryReceive()
		if !ok {
			break
		}
		_ = aggregator.Observe(ev)
	}

	result := Result{
		Count:       h.config.Count,
		Sent:        sender.Ledger().Len(),
		Received:    aggregator.Ledger().Len(),
		Lost:        sender.Lost(),
		Watcher:     bridge.Stats(),
		StartedAt:   started,
		Elapsed:     time.Since(started),
		Interrupted: interrupted,
	}

	if sendErr != nil && !interrupted {
		_ = h.lifecycle.TransitionTo(StateCrashed, sendErr.Error())
		result.Anomalies = aggregator.Anomalies()
		return result, sendErr
	}

	reporter := NewReporter(h.sink, h.config.SlowThreshold, h.logger, h.metrics)
	rep, err := reporter.Report(sender.Ledger(), aggregator.Ledger())
	rep.Anomalies = append(append([]domain.Anomaly{}, aggregator.Anomalies()...), rep.Anomalies...)
	result.Report = rep
	if err != nil {
		_ = h.lifecycle.TransitionTo(StateCrashed, err.Error())
		return result, err
	}

	_ = h.lifecycle.TransitionTo(StateStopped, "report written")
	if teardownErr != nil {
		h.logger.Warn("watcher teardown incomplete", log.Err(teardownErr))
	}
	return result, nil
}

// Stop ends an active run early, as cancelling its context would. Run then
// tears down and reports the partial result. It reports whether a run was
// active.
func (h *Harness) Stop() bool {
	if !h.lifecycle.CanStop() {
		return false
	}
	h.logger.Info("stop requested")
	h.lifecycle.Cancel()
	return true
}

// drain keeps consuming deliveries for the grace period so trailing
// notifications land in the receive ledger.
func (h *Harness) drain(ctx context.Context, queue *DeliveryQueue, aggregator *Aggregator) {
	if h.config.DrainGrace <= 0 {
		return
	}
	h.logger.Debug("draining trailing deliveries", log.Duration("grace", h.config.DrainGrace))

	drainCtx, cancel := context.WithTimeout(ctx, h.config.DrainGrace)
	defer cancel()
	for {
		ev, err := queue.Receive(drainCtx)
		if err != nil {
			return
		}
		_ = aggregator.Observe(ev)
	}
}

// teardown unregisters notifications, stops the watcher and closes the queue.
func (h *Harness) teardown(queue *DeliveryQueue) error {
	var errs []error
	if err := h.notifier.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close notifier: %w", err))
	}
	h.lifecycle.Cancel()
	if err := h.lifecycle.WaitWithTimeout(ShutdownTimeout); err != nil {
		errs = append(errs, err)
	}
	queue.Close()
	return errors.Join(errs...)
}
