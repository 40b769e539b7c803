package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorder_Counters(t *testing.T) {
	r := NewRecorder()

	r.PayloadSent()
	r.PayloadSent()
	r.Delivered()
	r.SpuriousNotification()
	r.Anomaly("decode")
	r.Anomaly("decode")
	r.Anomaly("timeout")

	if got := testutil.ToFloat64(r.payloadsSent); got != 2 {
		t.Errorf("payloads sent = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.deliveries); got != 1 {
		t.Errorf("deliveries = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.spurious); got != 1 {
		t.Errorf("spurious = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.anomalies.WithLabelValues("decode")); got != 2 {
		t.Errorf("decode anomalies = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.anomalies.WithLabelValues("timeout")); got != 1 {
		t.Errorf("timeout anomalies = %v, want 1", got)
	}
}

func TestRecorder_LatencyHistogram(t *testing.T) {
	r := NewRecorder()
	r.ObserveLatency(5 * time.Millisecond)
	r.ObserveLatency(-time.Millisecond)

	if n := testutil.CollectAndCount(r.roundTripTime); n != 1 {
		t.Fatalf("collected %d histogram metrics, want 1", n)
	}

	expected := `
# HELP rpmsgbench_payloads_sent_total Total number of payloads written to the endpoint
# TYPE rpmsgbench_payloads_sent_total counter
rpmsgbench_payloads_sent_total 0
`
	if err := testutil.GatherAndCompare(r.registry, strings.NewReader(expected), "rpmsgbench_payloads_sent_total"); err != nil {
		t.Error(err)
	}
}

func TestRecorder_WriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.PayloadSent()
	r.ObserveLatency(time.Millisecond)

	path := filepath.Join(t.TempDir(), "signal_hook-1.prom")
	if err := r.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"rpmsgbench_payloads_sent_total 1",
		"rpmsgbench_round_trip_seconds_count 1",
	} {
		if !strings.Contains(string(data), want) {
			t.Errorf("textfile missing %q:\n%s", want, data)
		}
	}
}
