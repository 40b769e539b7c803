package rpmsgbench

import (
	"github.com/bft-labs/rpmsgbench/internal/app"
	"github.com/bft-labs/rpmsgbench/internal/domain"
)

// State is the lifecycle state of a run.
type State = app.State

// Lifecycle states.
const (
	StateStopped  = app.StateStopped
	StateStarting = app.StateStarting
	StateRunning  = app.StateRunning
	StateStopping = app.StateStopping
	StateCrashed  = app.StateCrashed
)

// Errors callers may match with errors.Is.
var (
	ErrAlreadyRunning      = domain.ErrAlreadyRunning
	ErrEndpointUnavailable = domain.ErrEndpointUnavailable
	ErrRemoteUnresponsive  = domain.ErrRemoteUnresponsive
)

// IsFatal reports whether err ended a run, as opposed to a recoverable
// anomaly.
func IsFatal(err error) bool { return domain.IsFatal(err) }
