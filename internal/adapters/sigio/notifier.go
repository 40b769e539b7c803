// Package sigio delivers SIGIO readiness notifications for a channel on a Go
// channel, so no work happens in signal context.
package sigio

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/bft-labs/rpmsgbench/internal/domain"
)

// readyBuffer is the signal channel capacity. Signals coalesce anyway; the
// buffer only keeps the runtime from dropping one while the watcher is busy.
const readyBuffer = 64

// AsyncSource is a descriptor that can route readiness to this process.
type AsyncSource interface {
	EnableAsyncNotify() error
	DisableAsyncNotify() error
}

// Notifier implements ports.Notifier for SIGIO.
type Notifier struct {
	source AsyncSource
	ready  chan os.Signal
	done   chan struct{}

	once     sync.Once
	closeErr error
}

// Register subscribes to SIGIO and then enables async notification on
// source. The subscription comes first so no early signal is lost.
func Register(source AsyncSource) (*Notifier, error) {
	n := &Notifier{
		source: source,
		ready:  make(chan os.Signal, readyBuffer),
		done:   make(chan struct{}),
	}
	signal.Notify(n.ready, syscall.SIGIO)

	if err := source.EnableAsyncNotify(); err != nil {
		signal.Stop(n.ready)
		close(n.done)
		return nil, fmt.Errorf("%w: %v", domain.ErrNotificationSetupFailed, err)
	}
	return n, nil
}

// Ready yields one value per delivered SIGIO.
func (n *Notifier) Ready() <-chan os.Signal { return n.ready }

// Done is closed once Close has been called.
func (n *Notifier) Done() <-chan struct{} { return n.done }

// Close disables async notification, stops signal delivery and closes Done.
// It is idempotent.
func (n *Notifier) Close() error {
	n.once.Do(func() {
		n.closeErr = n.source.DisableAsyncNotify()
		signal.Stop(n.ready)
		close(n.done)
	})
	return n.closeErr
}
