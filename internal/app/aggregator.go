package app

import (
	"errors"

	"github.com/bft-labs/rpmsgbench/internal/domain"
	"github.com/bft-labs/rpmsgbench/internal/ports"
	"github.com/bft-labs/rpmsgbench/pkg/log"
)

// Aggregator owns the receive ledger. It runs inline with the sender's wait,
// so it needs no locking of its own.
type Aggregator struct {
	ledger    *domain.Ledger
	anomalies []domain.Anomaly
	logger    log.Logger
	metrics   ports.Metrics
}

// NewAggregator creates an aggregator with an empty receive ledger.
func NewAggregator(capacity int, logger log.Logger, metrics ports.Metrics) *Aggregator {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	if metrics == nil {
		metrics = ports.NoopMetrics{}
	}
	return &Aggregator{
		ledger:  domain.NewLedger(capacity),
		logger:  logger,
		metrics: metrics,
	}
}

// Observe records ev in the receive ledger. A rejected event is returned as
// a recoverable anomaly and left out of the ledger.
func (a *Aggregator) Observe(ev domain.DeliveryEvent) error {
	err := a.ledger.Append(ev.SequenceID, ev.ReceivedAt)
	if err == nil {
		return nil
	}

	kind := domain.ErrNonMonotonicReceive
	if errors.Is(err, domain.ErrDuplicateID) {
		kind = domain.ErrDuplicateID
	}
	anomaly := domain.Anomaly{Kind: kind, SequenceID: ev.SequenceID, Detail: err.Error()}
	a.Record(anomaly)
	return anomaly
}

// Record keeps a recoverable anomaly observed elsewhere in the run.
func (a *Aggregator) Record(anomaly domain.Anomaly) {
	a.anomalies = append(a.anomalies, anomaly)
	a.metrics.Anomaly(domain.KindName(anomaly.Kind))
	a.logger.Warn("recoverable anomaly",
		log.String("kind", domain.KindName(anomaly.Kind)),
		log.Uint64("id", anomaly.SequenceID),
		log.String("detail", anomaly.Detail),
	)
}

// Ledger returns the receive ledger. Callers must not append to it.
func (a *Aggregator) Ledger() *domain.Ledger { return a.ledger }

// Anomalies returns the anomalies recorded so far.
func (a *Aggregator) Anomalies() []domain.Anomaly { return a.anomalies }
