// Package remoteproc drives a remote processor through the Linux remoteproc
// sysfs interface.
package remoteproc

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bft-labs/rpmsgbench/pkg/log"
)

// Defaults for the first remote processor and the echo firmware.
const (
	DefaultRoot     = "/sys/class/remoteproc"
	DefaultName     = "remoteproc0"
	DefaultFirmware = "echo_test.elf"
)

// Processor states reported by the state attribute.
const (
	StateOffline = "offline"
	StateRunning = "running"
)

// ErrFirmwareWhileRunning is returned when firmware is changed on a running
// processor; the kernel rejects that with EBUSY.
var ErrFirmwareWhileRunning = errors.New("remoteproc: cannot change firmware while running")

// Manager implements ports.RemoteUnit for one remoteproc instance.
type Manager struct {
	dir      string
	firmware string
	logger   log.Logger
}

// NewManager creates a manager for <root>/<name>. An empty firmware leaves
// whatever the kernel has configured.
func NewManager(root, name, firmware string, logger log.Logger) *Manager {
	if root == "" {
		root = DefaultRoot
	}
	if name == "" {
		name = DefaultName
	}
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Manager{
		dir:      filepath.Join(root, name),
		firmware: firmware,
		logger:   logger,
	}
}

// State returns the current processor state.
func (m *Manager) State() (string, error) {
	data, err := os.ReadFile(filepath.Join(m.dir, "state"))
	if err != nil {
		return "", fmt.Errorf("read state: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Firmware returns the configured firmware name.
func (m *Manager) Firmware() (string, error) {
	data, err := os.ReadFile(filepath.Join(m.dir, "firmware"))
	if err != nil {
		return "", fmt.Errorf("read firmware: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// LoadFirmware selects the firmware image the processor boots next.
func (m *Manager) LoadFirmware(name string) error {
	state, err := m.State()
	if err != nil {
		return err
	}
	if state == StateRunning {
		current, err := m.Firmware()
		if err == nil && current == name {
			return nil
		}
		return ErrFirmwareWhileRunning
	}
	if err := m.write("firmware", name); err != nil {
		return fmt.Errorf("load firmware %s: %w", name, err)
	}
	m.logger.Info("remoteproc firmware selected", log.String("firmware", name), log.String("path", m.dir))
	return nil
}

// Start loads the configured firmware and boots the processor. Starting a
// running processor is a no-op.
func (m *Manager) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	state, err := m.State()
	if err != nil {
		return err
	}
	if state == StateRunning {
		m.logger.Debug("remoteproc already running", log.String("path", m.dir))
		return nil
	}

	if m.firmware != "" {
		if err := m.LoadFirmware(m.firmware); err != nil {
			return err
		}
	}
	if err := m.write("state", "start"); err != nil {
		return fmt.Errorf("start remoteproc: %w", err)
	}
	m.logger.Info("remoteproc started", log.String("path", m.dir))
	return nil
}

// Stop halts the processor. Stopping an offline processor is a no-op.
func (m *Manager) Stop(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	state, err := m.State()
	if err != nil {
		return err
	}
	if state == StateOffline {
		return nil
	}
	if err := m.write("state", "stop"); err != nil {
		return fmt.Errorf("stop remoteproc: %w", err)
	}
	m.logger.Info("remoteproc stopped", log.String("path", m.dir))
	return nil
}

// write stores value in a sysfs attribute. sysfs attributes must be written
// in place, never replaced.
func (m *Manager) write(attr, value string) error {
	f, err := os.OpenFile(filepath.Join(m.dir, attr), os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(value); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
