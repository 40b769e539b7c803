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

// slowWrite is how long a frame write may block before it is reported.
const slowWrite = time.Millisecond

// SenderConfig controls the send loop.
type SenderConfig struct {
	Count                  uint64
	PayloadSize            int
	SendInterval           time.Duration
	DeliveryTimeout        time.Duration
	MaxConsecutiveTimeouts int
}

// Sender writes payloads 1..Count in lock-step: each payload is written only
// after the delivery for the previous one arrived or timed out.
type Sender struct {
	config     SenderConfig
	channel    ports.Channel
	codec      ports.Codec
	queue      *DeliveryQueue
	aggregator *Aggregator
	ledger     *domain.Ledger
	clock      Clock
	logger     log.Logger
	metrics    ports.Metrics
	lost       []uint64
}

// NewSender creates a sender that owns a fresh send ledger.
func NewSender(
	config SenderConfig,
	channel ports.Channel,
	codec ports.Codec,
	queue *DeliveryQueue,
	aggregator *Aggregator,
	clock Clock,
	logger log.Logger,
	metrics ports.Metrics,
) *Sender {
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	if metrics == nil {
		metrics = ports.NoopMetrics{}
	}
	return &Sender{
		config:     config,
		channel:    channel,
		codec:      codec,
		queue:      queue,
		aggregator: aggregator,
		ledger:     domain.NewLedger(ledgerCapacity(config.Count)),
		clock:      clock,
		logger:     logger,
		metrics:    metrics,
	}
}

// Run executes the send loop. It returns nil after Count iterations, a fatal
// domain error, or the context error if ctx ends first.
func (s *Sender) Run(ctx context.Context) error {
	consecutive := 0
	for id := uint64(1); id <= s.config.Count; id++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := s.send(id); err != nil {
			return err
		}

		err := s.await(ctx, id)
		switch {
		case err == nil:
			consecutive = 0
		case errors.Is(err, domain.ErrDeliveryTimeout):
			consecutive++
			s.lost = append(s.lost, id)
			s.aggregator.Record(domain.Anomaly{
				Kind:       domain.ErrDeliveryTimeout,
				SequenceID: id,
				Detail:     fmt.Sprintf("no delivery within %s", s.config.DeliveryTimeout),
			})
			if s.config.MaxConsecutiveTimeouts > 0 && consecutive >= s.config.MaxConsecutiveTimeouts {
				return fmt.Errorf("%d consecutive timeouts at id %d: %w", consecutive, id, domain.ErrRemoteUnresponsive)
			}
		default:
			return err
		}

		if s.config.SendInterval > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.config.SendInterval):
			}
		}
	}
	return nil
}

// send encodes, writes and records payload id.
func (s *Sender) send(id uint64) error {
	frame, err := s.codec.Encode(domain.NewPayload(id, s.config.PayloadSize, domain.DefaultFill))
	if err != nil {
		return err
	}

	sentAt := s.clock()
	start := time.Now()
	n, err := s.channel.WriteFrame(frame)
	if elapsed := time.Since(start); elapsed > slowWrite {
		s.logger.Warn("slow frame write", log.Uint64("id", id), log.Duration("elapsed", elapsed))
	}
	if err != nil {
		return fmt.Errorf("id %d: %w", id, err)
	}
	if n != len(frame) {
		return fmt.Errorf("id %d: wrote %d of %d bytes: %w", id, n, len(frame), domain.ErrShortWrite)
	}

	if err := s.ledger.Append(id, sentAt); err != nil {
		return fmt.Errorf("%v: %w", err, domain.ErrNonMonotonicSend)
	}
	s.metrics.PayloadSent()
	return nil
}

// await consumes deliveries until the one for id arrives. Other deliveries
// (late arrivals of lost ids) are still handed to the aggregator.
func (s *Sender) await(ctx context.Context, id uint64) error {
	waitCtx := ctx
	if s.config.DeliveryTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, s.config.DeliveryTimeout)
		defer cancel()
	}

	for {
		ev, err := s.queue.Receive(waitCtx)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
				return fmt.Errorf("id %d: %w", id, domain.ErrDeliveryTimeout)
			}
			return err
		}

		_ = s.aggregator.Observe(ev)
		if ev.SequenceID == id {
			return nil
		}
		s.logger.Debug("out-of-step delivery",
			log.Uint64("awaiting", id),
			log.Uint64("got", ev.SequenceID),
		)
	}
}

// Ledger returns the send ledger. Callers must not append to it.
func (s *Sender) Ledger() *domain.Ledger { return s.ledger }

// Lost returns the ids whose delivery timed out.
func (s *Sender) Lost() []uint64 { return s.lost }

// ledgerCapacity caps the preallocation for very large runs.
func ledgerCapacity(count uint64) int {
	const limit = 1 << 20
	if count > limit {
		return limit
	}
	return int(count)
}
