package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bft-labs/rpmsgbench/internal/domain"
	"github.com/bft-labs/rpmsgbench/pkg/log"
)

// mockLogger implements log.Logger for testing.
type mockLogger struct {
	mu    sync.Mutex
	warns []string
}

func (*mockLogger) Debug(msg string, fields ...log.Field) {}
func (*mockLogger) Info(msg string, fields ...log.Field)  {}
func (m *mockLogger) Warn(msg string, fields ...log.Field) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.warns = append(m.warns, msg)
}
func (*mockLogger) Error(msg string, fields ...log.Field) {}

func (m *mockLogger) Warns() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.warns...)
}

func TestNewLifecycle(t *testing.T) {
	l := NewLifecycle(&mockLogger{})

	if l == nil {
		t.Fatal("NewLifecycle returned nil")
	}
	if l.State() != StateStopped {
		t.Errorf("initial state = %v, want StateStopped", l.State())
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateStopped, "Stopped"},
		{StateStarting, "Starting"},
		{StateRunning, "Running"},
		{StateStopping, "Stopping"},
		{StateCrashed, "Crashed"},
		{State(99), "Unknown"},
	}

	for _, tt := range tests {
		got := tt.state.String()
		if got != tt.want {
			t.Errorf("State(%d).String() = %s, want %s", tt.state, got, tt.want)
		}
	}
}

func TestLifecycle_TransitionTo_ValidTransitions(t *testing.T) {
	tests := []struct {
		name string
		from State
		to   State
	}{
		{"stopped to starting", StateStopped, StateStarting},
		{"starting to running", StateStarting, StateRunning},
		{"starting to stopping", StateStarting, StateStopping},
		{"starting to crashed", StateStarting, StateCrashed},
		{"running to stopping", StateRunning, StateStopping},
		{"running to crashed", StateRunning, StateCrashed},
		{"stopping to stopped", StateStopping, StateStopped},
		{"stopping to crashed", StateStopping, StateCrashed},
		{"crashed to starting", StateCrashed, StateStarting},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLifecycle(&mockLogger{})
			l.state = tt.from

			if err := l.TransitionTo(tt.to, "test"); err != nil {
				t.Errorf("TransitionTo() error = %v", err)
			}
			if l.State() != tt.to {
				t.Errorf("state = %v after transition, want %v", l.State(), tt.to)
			}
		})
	}
}

func TestLifecycle_TransitionTo_InvalidTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    State
		to      State
		wantErr error
	}{
		{"stopped to running", StateStopped, StateRunning, domain.ErrNotRunning},
		{"stopped to stopping", StateStopped, StateStopping, domain.ErrNotRunning},
		{"starting to stopped", StateStarting, StateStopped, domain.ErrAlreadyRunning},
		{"running to starting", StateRunning, StateStarting, domain.ErrAlreadyRunning},
		{"running to stopped", StateRunning, StateStopped, domain.ErrAlreadyRunning},
		{"stopping to running", StateStopping, StateRunning, domain.ErrAlreadyRunning},
		{"crashed to running", StateCrashed, StateRunning, domain.ErrNotRunning},
		{"crashed to stopped", StateCrashed, StateStopped, domain.ErrNotRunning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLifecycle(&mockLogger{})
			l.state = tt.from

			err := l.TransitionTo(tt.to, "test")

			if err != tt.wantErr {
				t.Errorf("TransitionTo() error = %v, want %v", err, tt.wantErr)
			}
			if l.State() != tt.from {
				t.Errorf("state changed to %v on invalid transition, want %v", l.State(), tt.from)
			}
		})
	}
}

func TestLifecycle_CanStartCanStop(t *testing.T) {
	tests := []struct {
		state     State
		wantStart bool
		wantStop  bool
	}{
		{StateStopped, true, false},
		{StateStarting, false, true},
		{StateRunning, false, true},
		{StateStopping, false, false},
		{StateCrashed, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			l := NewLifecycle(&mockLogger{})
			l.state = tt.state

			if got := l.CanStart(); got != tt.wantStart {
				t.Errorf("CanStart() = %v, want %v", got, tt.wantStart)
			}
			if got := l.CanStop(); got != tt.wantStop {
				t.Errorf("CanStop() = %v, want %v", got, tt.wantStop)
			}
		})
	}
}

func TestLifecycle_SetCancel_And_Cancel(t *testing.T) {
	l := NewLifecycle(&mockLogger{})
	l.Cancel()

	ctx, cancel := context.WithCancel(context.Background())
	l.SetCancel(cancel)

	select {
	case <-ctx.Done():
		t.Error("context should not be canceled before Cancel()")
	default:
	}

	l.Cancel()

	select {
	case <-ctx.Done():
	default:
		t.Error("context should be canceled after Cancel()")
	}
}

func TestLifecycle_WaitWithTimeout_Success(t *testing.T) {
	l := NewLifecycle(&mockLogger{})

	l.Go(func() { time.Sleep(10 * time.Millisecond) })

	if err := l.WaitWithTimeout(time.Second); err != nil {
		t.Errorf("WaitWithTimeout() = %v, want nil", err)
	}
}

func TestLifecycle_WaitWithTimeout_Timeout(t *testing.T) {
	logger := &mockLogger{}
	l := NewLifecycle(logger)

	release := make(chan struct{})
	l.Go(func() { <-release })
	defer close(release)

	if err := l.WaitWithTimeout(10 * time.Millisecond); err != domain.ErrShutdownTimeout {
		t.Errorf("WaitWithTimeout() = %v, want ErrShutdownTimeout", err)
	}
	if len(logger.Warns()) != 1 {
		t.Errorf("warnings = %v, want one timeout warning", logger.Warns())
	}
}

func TestLifecycle_Concurrency(t *testing.T) {
	l := NewLifecycle(&mockLogger{})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = l.State()
				_ = l.CanStart()
				_ = l.CanStop()
			}
		}()
	}
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.TransitionTo(StateStarting, "test")
			_ = l.TransitionTo(StateRunning, "test")
		}()
	}
	wg.Wait()
}
