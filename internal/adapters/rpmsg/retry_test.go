package rpmsg

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/bft-labs/rpmsgbench/internal/domain"
)

func TestBackoff(t *testing.T) {
	b := newBackoff(100*time.Millisecond, 300*time.Millisecond)

	within := func(d, base time.Duration) bool {
		return d >= base*8/10 && d <= base*12/10
	}
	for i, base := range []time.Duration{100, 200, 300, 300} {
		base *= time.Millisecond
		if d := b.Next(); !within(d, base) {
			t.Errorf("Next() #%d = %v, want %v ±20%%", i, d, base)
		}
	}
}

func TestOpenWithRetry_GivesUp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rpmsg1")

	start := time.Now()
	_, err := OpenWithRetry(context.Background(), path, 0, 3)
	if !errors.Is(err, domain.ErrEndpointUnavailable) {
		t.Errorf("error = %v, want ErrEndpointUnavailable", err)
	}
	// Two waits: ~20ms and ~40ms.
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("returned after %v, expected it to back off", elapsed)
	}
}

func TestOpenWithRetry_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := OpenWithRetry(ctx, filepath.Join(t.TempDir(), "rpmsg1"), 0, 10)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if !errors.Is(err, domain.ErrEndpointUnavailable) {
		t.Errorf("error = %v, want the last open error too", err)
	}
}
