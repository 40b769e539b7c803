package remoteproc

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// fakeSysfs builds <root>/remoteproc0 with state and firmware attributes.
func fakeSysfs(t *testing.T, state, firmware string) (root string) {
	t.Helper()
	root = t.TempDir()
	dir := filepath.Join(root, DefaultName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	for attr, v := range map[string]string{"state": state + "\n", "firmware": firmware + "\n"} {
		if err := os.WriteFile(filepath.Join(dir, attr), []byte(v), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func readAttr(t *testing.T, root, attr string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, DefaultName, attr))
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestManager_StartLoadsFirmware(t *testing.T) {
	root := fakeSysfs(t, StateOffline, "old.elf")
	m := NewManager(root, "", DefaultFirmware, nil)

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if got := readAttr(t, root, "firmware"); got != DefaultFirmware {
		t.Errorf("firmware = %q, want %q", got, DefaultFirmware)
	}
	if got := readAttr(t, root, "state"); got != "start" {
		t.Errorf("state written = %q, want start", got)
	}
}

func TestManager_StartWhenRunning(t *testing.T) {
	root := fakeSysfs(t, StateRunning, DefaultFirmware)
	m := NewManager(root, DefaultName, DefaultFirmware, nil)

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if got := readAttr(t, root, "state"); got != "running\n" {
		t.Errorf("state rewritten to %q", got)
	}
}

func TestManager_LoadFirmwareWhileRunning(t *testing.T) {
	root := fakeSysfs(t, StateRunning, "other.elf")
	m := NewManager(root, "", "", nil)

	if err := m.LoadFirmware(DefaultFirmware); !errors.Is(err, ErrFirmwareWhileRunning) {
		t.Errorf("LoadFirmware() error = %v, want ErrFirmwareWhileRunning", err)
	}
	if err := m.LoadFirmware("other.elf"); err != nil {
		t.Errorf("LoadFirmware() of current image error = %v", err)
	}
}

func TestManager_Stop(t *testing.T) {
	root := fakeSysfs(t, StateRunning, DefaultFirmware)
	m := NewManager(root, "", "", nil)

	if err := m.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if got := readAttr(t, root, "state"); got != "stop" {
		t.Errorf("state written = %q, want stop", got)
	}

	offline := fakeSysfs(t, StateOffline, DefaultFirmware)
	if err := NewManager(offline, "", "", nil).Stop(context.Background()); err != nil {
		t.Errorf("Stop() on offline processor error = %v", err)
	}
	if got := readAttr(t, offline, "state"); got != "offline\n" {
		t.Errorf("offline state rewritten to %q", got)
	}
}

func TestManager_MissingProcessor(t *testing.T) {
	m := NewManager(t.TempDir(), "remoteproc7", "", nil)
	if err := m.Start(context.Background()); err == nil {
		t.Error("Start() on missing processor succeeded")
	}
	if _, err := m.State(); err == nil {
		t.Error("State() on missing processor succeeded")
	}
}

func TestManager_CancelledContext(t *testing.T) {
	root := fakeSysfs(t, StateOffline, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := NewManager(root, "", "", nil).Start(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Start() error = %v, want context.Canceled", err)
	}
}
