package domain

import (
	"errors"
	"fmt"
)

// Fatal errors. Any of these aborts the run.
var (
	// ErrEndpointUnavailable is returned when the endpoint path is missing or
	// cannot be opened read-write non-blocking.
	ErrEndpointUnavailable = errors.New("rpmsgbench: endpoint unavailable")

	// ErrNotificationSetupFailed is returned when readiness signals cannot be
	// routed to this process.
	ErrNotificationSetupFailed = errors.New("rpmsgbench: notification setup failed")

	// ErrWriteFailed wraps an I/O error from writing a frame.
	ErrWriteFailed = errors.New("rpmsgbench: write failed")

	// ErrShortWrite is returned when fewer bytes than the encoded frame were written.
	ErrShortWrite = errors.New("rpmsgbench: short write")

	// ErrFrameTooLarge is returned when an encoded frame exceeds MaxFrameSize.
	ErrFrameTooLarge = errors.New("rpmsgbench: frame exceeds maximum size")

	// ErrNonMonotonicSend is returned when a send instant does not advance.
	ErrNonMonotonicSend = errors.New("rpmsgbench: non-monotonic send instant")

	// ErrQueueClosed is returned when the delivery queue closes while the
	// sender still waits on it.
	ErrQueueClosed = errors.New("rpmsgbench: delivery queue closed")

	// ErrRemoteUnresponsive is returned after too many consecutive delivery timeouts.
	ErrRemoteUnresponsive = errors.New("rpmsgbench: remote unit unresponsive")
)

// Recoverable errors. These are logged, recorded as anomalies and excluded
// from statistics; the run continues.
var (
	ErrReadFailed          = errors.New("rpmsgbench: read failed")
	ErrDecode              = errors.New("rpmsgbench: decode error")
	ErrNonMonotonicReceive = errors.New("rpmsgbench: non-monotonic receive instant")
	ErrDeliveryTimeout     = errors.New("rpmsgbench: delivery timeout")
	ErrUnmatchedReceive    = errors.New("rpmsgbench: receive without matching send")
	ErrClockSkew           = errors.New("rpmsgbench: clock skew or ordering error")
)

// Lifecycle errors.
var (
	ErrAlreadyRunning  = errors.New("rpmsgbench: already running")
	ErrNotRunning      = errors.New("rpmsgbench: not running")
	ErrShutdownTimeout = errors.New("rpmsgbench: shutdown timeout")
)

// Ledger and payload invariants.
var (
	ErrNonMonotonic = errors.New("instant does not advance past previous entry")
	ErrDuplicateID  = errors.New("sequence id already recorded")
	ErrZeroSequence = errors.New("sequence id must be at least 1")
	ErrSizeMismatch = errors.New("payload size does not match data length")
)

var fatal = []error{
	ErrEndpointUnavailable,
	ErrNotificationSetupFailed,
	ErrWriteFailed,
	ErrShortWrite,
	ErrFrameTooLarge,
	ErrNonMonotonicSend,
	ErrQueueClosed,
	ErrRemoteUnresponsive,
}

// IsFatal reports whether err must abort the run.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	for _, target := range fatal {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Anomaly is a recoverable condition attached to a sequence id (0 when the
// id is unknown, e.g. an undecodable frame).
type Anomaly struct {
	Kind       error
	SequenceID uint64
	Detail     string
}

func (a Anomaly) Error() string {
	if a.Detail == "" {
		return fmt.Sprintf("%v (id=%d)", a.Kind, a.SequenceID)
	}
	return fmt.Sprintf("%v (id=%d): %s", a.Kind, a.SequenceID, a.Detail)
}

// Unwrap lets errors.Is match the anomaly kind.
func (a Anomaly) Unwrap() error { return a.Kind }

// KindName returns a short, stable label for metrics and summaries.
func KindName(err error) string {
	switch {
	case errors.Is(err, ErrDecode):
		return "decode"
	case errors.Is(err, ErrReadFailed):
		return "read"
	case errors.Is(err, ErrNonMonotonicReceive):
		return "non_monotonic_receive"
	case errors.Is(err, ErrDuplicateID):
		return "duplicate"
	case errors.Is(err, ErrDeliveryTimeout):
		return "timeout"
	case errors.Is(err, ErrUnmatchedReceive):
		return "unmatched"
	case errors.Is(err, ErrClockSkew):
		return "clock_skew"
	default:
		return "other"
	}
}
