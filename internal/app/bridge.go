package app

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/bft-labs/rpmsgbench/internal/domain"
	"github.com/bft-labs/rpmsgbench/internal/ports"
	"github.com/bft-labs/rpmsgbench/pkg/log"
)

// slowHandling is how long read plus decode may take before the watcher
// reports it.
const slowHandling = 300 * time.Microsecond

// maxDrainReads bounds the reads performed for one notification so a
// misbehaving endpoint cannot pin the watcher.
const maxDrainReads = 64

// Clock returns the current instant. time.Now carries a monotonic reading,
// which is what ledger comparisons rely on.
type Clock func() time.Time

// BridgeStats counts what the watcher saw.
type BridgeStats struct {
	Notifications uint64
	Spurious      uint64
	Delivered     uint64
	DecodeErrors  uint64
	ReadErrors    uint64
}

// Bridge turns readiness notifications into delivery events. Run executes on
// its own goroutine; all reading, decoding and timestamping happen there,
// never in signal context.
type Bridge struct {
	channel  ports.Channel
	notifier ports.Notifier
	codec    ports.Codec
	queue    *DeliveryQueue
	clock    Clock
	logger   log.Logger
	metrics  ports.Metrics

	notifications atomic.Uint64
	spurious      atomic.Uint64
	delivered     atomic.Uint64
	decodeErrors  atomic.Uint64
	readErrors    atomic.Uint64
}

// NewBridge wires a watcher for channel.
func NewBridge(
	channel ports.Channel,
	notifier ports.Notifier,
	codec ports.Codec,
	queue *DeliveryQueue,
	clock Clock,
	logger log.Logger,
	metrics ports.Metrics,
) *Bridge {
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	if metrics == nil {
		metrics = ports.NoopMetrics{}
	}
	return &Bridge{
		channel:  channel,
		notifier: notifier,
		codec:    codec,
		queue:    queue,
		clock:    clock,
		logger:   logger,
		metrics:  metrics,
	}
}

// Run waits for notifications until the notifier is closed or ctx ends.
func (b *Bridge) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-b.notifier.Done():
			return
		case _, ok := <-b.notifier.Ready():
			if !ok {
				return
			}
			receivedAt := b.clock()
			select {
			case <-b.notifier.Done():
				return
			default:
			}
			b.handle(receivedAt)
		}
	}
}

// handle reads every frame available for one notification. The first read
// is stamped with the notification instant; later ones get a fresh instant.
func (b *Bridge) handle(receivedAt time.Time) {
	b.notifications.Add(1)

	for i := 0; i < maxDrainReads; i++ {
		if i > 0 {
			receivedAt = b.clock()
		}
		start := time.Now()
		frame, err := b.channel.ReadAvailable()
		if err != nil {
			b.readErrors.Add(1)
			b.metrics.Anomaly(domain.KindName(domain.ErrReadFailed))
			b.logger.Warn("endpoint read failed", log.Err(err))
			return
		}
		if len(frame) == 0 {
			if i == 0 {
				b.spurious.Add(1)
				b.metrics.SpuriousNotification()
				b.logger.Debug("spurious readiness notification")
			}
			return
		}

		payload, err := b.codec.Decode(frame)
		if elapsed := time.Since(start); elapsed > slowHandling {
			b.logger.Debug("slow read and decode", log.Duration("elapsed", elapsed))
		}
		if err != nil {
			b.decodeErrors.Add(1)
			b.metrics.Anomaly(domain.KindName(domain.ErrDecode))
			b.logger.Warn("dropping undecodable frame",
				log.Int("bytes", len(frame)),
				log.Err(err),
			)
			continue
		}

		ev := domain.DeliveryEvent{SequenceID: payload.SequenceID, ReceivedAt: receivedAt}
		if !b.queue.Push(ev) {
			return
		}
		b.delivered.Add(1)
		b.metrics.Delivered()
	}
}

// Stats returns a snapshot of the watcher counters.
func (b *Bridge) Stats() BridgeStats {
	return BridgeStats{
		Notifications: b.notifications.Load(),
		Spurious:      b.spurious.Load(),
		Delivered:     b.delivered.Load(),
		DecodeErrors:  b.decodeErrors.Load(),
		ReadErrors:    b.readErrors.Load(),
	}
}
