package app

import (
	"context"
	"sync"

	"github.com/eapache/queue"

	"github.com/bft-labs/rpmsgbench/internal/domain"
)

// DeliveryQueue carries delivery events from the watcher to the sender in
// FIFO order. Receive blocks until an event arrives, the context ends, or
// the queue is closed. Events queued before Close are still returned.
type DeliveryQueue struct {
	mu     sync.Mutex
	items  *queue.Queue
	wake   chan struct{}
	closed chan struct{}
	once   sync.Once
}

// NewDeliveryQueue creates an empty queue.
func NewDeliveryQueue() *DeliveryQueue {
	return &DeliveryQueue{
		items:  queue.New(),
		wake:   make(chan struct{}, 1),
		closed: make(chan struct{}),
	}
}

// Push enqueues ev. It returns false if the queue is closed.
func (q *DeliveryQueue) Push(ev domain.DeliveryEvent) bool {
	select {
	case <-q.closed:
		return false
	default:
	}

	q.mu.Lock()
	q.items.Add(ev)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return true
}

// TryReceive dequeues an event without blocking.
func (q *DeliveryQueue) TryReceive() (domain.DeliveryEvent, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.items.Length() == 0 {
		return domain.DeliveryEvent{}, false
	}
	return q.items.Remove().(domain.DeliveryEvent), true
}

// Receive dequeues the next event, blocking as needed. It returns
// domain.ErrQueueClosed once the queue is closed and empty, or the context
// error if ctx ends first.
func (q *DeliveryQueue) Receive(ctx context.Context) (domain.DeliveryEvent, error) {
	for {
		if ev, ok := q.TryReceive(); ok {
			return ev, nil
		}
		select {
		case <-q.wake:
		case <-q.closed:
			if ev, ok := q.TryReceive(); ok {
				return ev, nil
			}
			return domain.DeliveryEvent{}, domain.ErrQueueClosed
		case <-ctx.Done():
			return domain.DeliveryEvent{}, ctx.Err()
		}
	}
}

// Len returns the number of queued events.
func (q *DeliveryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Length()
}

// Close wakes all waiters and rejects further pushes. Safe to call more than once.
func (q *DeliveryQueue) Close() {
	q.once.Do(func() { close(q.closed) })
}
