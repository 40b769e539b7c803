//go:build !linux

package rpmsg

import (
	"fmt"

	"github.com/bft-labs/rpmsgbench/internal/domain"
)

// Channel is unavailable on this platform.
type Channel struct{}

// Open always fails: rpmsg character devices exist only on Linux.
func Open(path string, maxFrame int) (*Channel, error) {
	return nil, fmt.Errorf("%w: rpmsg requires linux", domain.ErrEndpointUnavailable)
}

func (c *Channel) EnableAsyncNotify() error             { return domain.ErrNotificationSetupFailed }
func (c *Channel) DisableAsyncNotify() error            { return nil }
func (c *Channel) ReadAvailable() ([]byte, error)       { return nil, domain.ErrReadFailed }
func (c *Channel) WriteFrame(frame []byte) (int, error) { return 0, domain.ErrWriteFailed }
func (c *Channel) Path() string                         { return "" }
func (c *Channel) Close() error                         { return nil }
