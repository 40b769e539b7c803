package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestZerologAdapter_Fields(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewZerologAdapterWithLogger(zerolog.New(&buf))

	adapter.Warn("delivery timeout",
		Uint64("id", 42),
		Int("attempt", 2),
		Duration("timeout", time.Second),
		Bool("fatal", false),
		Err(errors.New("boom")),
	)

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal log line %q: %v", buf.String(), err)
	}
	if entry["level"] != "warn" {
		t.Errorf("level = %v, want warn", entry["level"])
	}
	if entry["message"] != "delivery timeout" {
		t.Errorf("message = %v", entry["message"])
	}
	if entry["id"] != float64(42) {
		t.Errorf("id = %v, want 42", entry["id"])
	}
	if entry["error"] != "boom" {
		t.Errorf("error = %v, want boom", entry["error"])
	}
	if _, ok := entry["timeout"]; !ok {
		t.Error("timeout field missing")
	}
}

func TestZerologAdapter_Level(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewZerologAdapterWithLogger(zerolog.New(&buf).Level(zerolog.InfoLevel))

	adapter.Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug message written at info level: %q", buf.String())
	}
	adapter.Error("shown")
	if buf.Len() == 0 {
		t.Error("error message not written")
	}
}

func TestNoopLogger(t *testing.T) {
	var l Logger = NewNoopLogger()
	l.Info("ignored", String("k", "v"))
}
