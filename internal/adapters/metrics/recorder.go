// Package metrics records run counters with Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "rpmsgbench"

// Recorder implements ports.Metrics on a private registry, so several runs
// in one process never collide on registration.
type Recorder struct {
	registry *prometheus.Registry

	payloadsSent  prometheus.Counter
	deliveries    prometheus.Counter
	spurious      prometheus.Counter
	anomalies     *prometheus.CounterVec
	roundTripTime prometheus.Histogram
}

// NewRecorder creates and registers all collectors.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		payloadsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payloads_sent_total",
			Help:      "Total number of payloads written to the endpoint",
		}),
		deliveries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_total",
			Help:      "Total number of decoded inbound frames",
		}),
		spurious: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "spurious_notifications_total",
			Help:      "Readiness notifications with no data to read",
		}),
		anomalies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "anomalies_total",
			Help:      "Recoverable anomalies by kind",
		}, []string{"kind"}),
		roundTripTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "round_trip_seconds",
			Help:      "Round-trip latency of paired payloads in seconds",
			Buckets:   prometheus.ExponentialBuckets(10e-6, 2, 16),
		}),
	}
	r.registry.MustRegister(
		r.payloadsSent,
		r.deliveries,
		r.spurious,
		r.anomalies,
		r.roundTripTime,
	)
	return r
}

func (r *Recorder) PayloadSent()          { r.payloadsSent.Inc() }
func (r *Recorder) Delivered()            { r.deliveries.Inc() }
func (r *Recorder) SpuriousNotification() { r.spurious.Inc() }

// Anomaly counts one recoverable anomaly of the given kind.
func (r *Recorder) Anomaly(kind string) { r.anomalies.WithLabelValues(kind).Inc() }

// ObserveLatency adds a paired round trip to the histogram.
func (r *Recorder) ObserveLatency(d time.Duration) {
	if d < 0 {
		return
	}
	r.roundTripTime.Observe(d.Seconds())
}

// WriteTextfile writes all metrics in the text exposition format, suitable
// for the node exporter textfile collector. The write is atomic.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
