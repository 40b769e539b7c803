//go:build linux

package rpmsg

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/bft-labs/rpmsgbench/internal/domain"
)

// writePollInterval bounds each wait for POLLOUT so a concurrent Close is
// noticed.
const writePollInterval = 100

// Channel is an open endpoint fd. Reads and writes are serialized by mu;
// a write waiting for the fd to become writable does not hold it.
type Channel struct {
	mu       sync.Mutex
	fd       int
	path     string
	maxFrame int
	buf      []byte
	async    bool
	closed   bool
}

// Open opens path read-write and non-blocking. maxFrame <= 0 selects
// domain.MaxFrameSize.
func Open(path string, maxFrame int) (*Channel, error) {
	if maxFrame <= 0 {
		maxFrame = domain.MaxFrameSize
	}
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", domain.ErrEndpointUnavailable, path, err)
	}
	return &Channel{
		fd:       fd,
		path:     path,
		maxFrame: maxFrame,
		buf:      make([]byte, maxFrame),
	}, nil
}

// EnableAsyncNotify directs readiness notifications for the fd to this
// process as SIGIO.
func (c *Channel) EnableAsyncNotify() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return fmt.Errorf("%w: channel closed", domain.ErrNotificationSetupFailed)
	}

	if _, err := unix.FcntlInt(uintptr(c.fd), unix.F_SETOWN, unix.Getpid()); err != nil {
		return fmt.Errorf("%w: F_SETOWN: %v", domain.ErrNotificationSetupFailed, err)
	}
	flags, err := unix.FcntlInt(uintptr(c.fd), unix.F_GETFL, 0)
	if err != nil {
		return fmt.Errorf("%w: F_GETFL: %v", domain.ErrNotificationSetupFailed, err)
	}
	if _, err := unix.FcntlInt(uintptr(c.fd), unix.F_SETFL, flags|unix.O_ASYNC); err != nil {
		return fmt.Errorf("%w: F_SETFL: %v", domain.ErrNotificationSetupFailed, err)
	}
	c.async = true
	return nil
}

// DisableAsyncNotify clears O_ASYNC. It is a no-op if notifications were
// never enabled or the channel is closed.
func (c *Channel) DisableAsyncNotify() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || !c.async {
		return nil
	}

	flags, err := unix.FcntlInt(uintptr(c.fd), unix.F_GETFL, 0)
	if err != nil {
		return fmt.Errorf("F_GETFL: %w", err)
	}
	if _, err := unix.FcntlInt(uintptr(c.fd), unix.F_SETFL, flags&^unix.O_ASYNC); err != nil {
		return fmt.Errorf("F_SETFL: %w", err)
	}
	c.async = false
	return nil
}

// asyncNotifyEnabled reports whether O_ASYNC is currently set on the fd.
func (c *Channel) asyncNotifyEnabled() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	flags, err := unix.FcntlInt(uintptr(c.fd), unix.F_GETFL, 0)
	if err != nil {
		return false, err
	}
	return flags&unix.O_ASYNC != 0, nil
}

// ReadAvailable performs one non-blocking read. An empty result means
// nothing was available.
func (c *Channel) ReadAvailable() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, fmt.Errorf("%w: channel closed", domain.ErrReadFailed)
	}

	for {
		n, err := unix.Read(c.fd, c.buf)
		switch {
		case err == nil:
			if n <= 0 {
				return nil, nil
			}
			out := make([]byte, n)
			copy(out, c.buf[:n])
			return out, nil
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.EAGAIN):
			return nil, nil
		default:
			return nil, fmt.Errorf("%w: %v", domain.ErrReadFailed, err)
		}
	}
}

// WriteFrame writes frame in one write call, waiting for the fd to become
// writable if the endpoint is full.
func (c *Channel) WriteFrame(frame []byte) (int, error) {
	if len(frame) > c.maxFrame {
		return 0, fmt.Errorf("%w: %d bytes, limit %d", domain.ErrFrameTooLarge, len(frame), c.maxFrame)
	}

	for {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return 0, fmt.Errorf("%w: channel closed", domain.ErrWriteFailed)
		}
		fd := c.fd
		n, err := unix.Write(fd, frame)
		c.mu.Unlock()

		switch {
		case err == nil:
			return n, nil
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.EAGAIN):
			if err := waitWritable(fd); err != nil {
				return 0, fmt.Errorf("%w: poll: %v", domain.ErrWriteFailed, err)
			}
		default:
			return 0, fmt.Errorf("%w: %v", domain.ErrWriteFailed, err)
		}
	}
}

func waitWritable(fd int) error {
	fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLOUT}}
	for {
		_, err := unix.Poll(fds, writePollInterval)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		return err
	}
}

// Path returns the device path the channel was opened from.
func (c *Channel) Path() string { return c.path }

// Close clears async notification and closes the fd. It is idempotent.
func (c *Channel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if c.async {
		if flags, err := unix.FcntlInt(uintptr(c.fd), unix.F_GETFL, 0); err == nil {
			_, _ = unix.FcntlInt(uintptr(c.fd), unix.F_SETFL, flags&^unix.O_ASYNC)
		}
		c.async = false
	}
	return unix.Close(c.fd)
}
