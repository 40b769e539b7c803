package app

import (
	"fmt"
	"time"

	"github.com/bft-labs/rpmsgbench/internal/domain"
	"github.com/bft-labs/rpmsgbench/internal/ports"
	"github.com/bft-labs/rpmsgbench/pkg/log"
)

// DefaultSlowThreshold is the latency above which a pair is logged.
const DefaultSlowThreshold = 3 * time.Millisecond

// Report is the outcome of joining the send and receive ledgers.
type Report struct {
	Summary   domain.Summary
	Records   []domain.Record
	Anomalies []domain.Anomaly
}

// Reporter joins the ledgers after the run and persists per-id latencies.
type Reporter struct {
	sink          ports.ResultSink
	slowThreshold time.Duration
	logger        log.Logger
	metrics       ports.Metrics
}

// NewReporter creates a reporter. A nil sink skips persistence.
func NewReporter(sink ports.ResultSink, slowThreshold time.Duration, logger log.Logger, metrics ports.Metrics) *Reporter {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	if metrics == nil {
		metrics = ports.NoopMetrics{}
	}
	return &Reporter{
		sink:          sink,
		slowThreshold: slowThreshold,
		logger:        logger,
		metrics:       metrics,
	}
}

// Build walks the receive ledger in insertion order and pairs each id with
// its send instant. It has no side effects besides logging.
func (r *Reporter) Build(sent, received *domain.Ledger) Report {
	var rep Report
	received.Range(func(id uint64, receivedAt time.Time) bool {
		sentAt, ok := sent.Get(id)
		if !ok {
			r.logger.Warn("received id was never sent", log.Uint64("id", id))
			rep.Anomalies = append(rep.Anomalies, domain.Anomaly{Kind: domain.ErrUnmatchedReceive, SequenceID: id})
			return true
		}

		latency := receivedAt.Sub(sentAt)
		if latency < 0 {
			r.logger.Error("receive precedes send",
				log.Uint64("id", id),
				log.Time("send", sentAt),
				log.Time("receive", receivedAt),
			)
			rep.Anomalies = append(rep.Anomalies, domain.Anomaly{
				Kind:       domain.ErrClockSkew,
				SequenceID: id,
				Detail:     fmt.Sprintf("receive %s before send", -latency),
			})
			return true
		}

		if r.slowThreshold > 0 && latency > r.slowThreshold {
			r.logger.Info("slow round trip", log.Uint64("id", id), log.Duration("latency", latency))
		}
		rep.Summary.Add(latency)
		rep.Records = append(rep.Records, domain.Record{SequenceID: id, Latency: latency})
		return true
	})
	return rep
}

// Report builds the report, persists its records to the sink and feeds the
// latency histogram.
func (r *Reporter) Report(sent, received *domain.Ledger) (Report, error) {
	rep := r.Build(sent, received)
	for _, a := range rep.Anomalies {
		r.metrics.Anomaly(domain.KindName(a.Kind))
	}
	for _, rec := range rep.Records {
		r.metrics.ObserveLatency(rec.Latency)
	}

	if r.sink == nil {
		return rep, nil
	}
	if err := r.sink.Begin(); err != nil {
		return rep, fmt.Errorf("open results: %w", err)
	}
	for _, rec := range rep.Records {
		if err := r.sink.Write(rec); err != nil {
			_ = r.sink.Close()
			return rep, fmt.Errorf("write results: %w", err)
		}
	}
	if err := r.sink.Close(); err != nil {
		return rep, fmt.Errorf("close results: %w", err)
	}
	return rep, nil
}
