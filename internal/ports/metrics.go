package ports

import "time"

// Metrics receives run counters. All methods must be safe for concurrent use
// since the watcher and the sender report from different goroutines.
type Metrics interface {
	PayloadSent()
	Delivered()
	SpuriousNotification()
	Anomaly(kind string)
	ObserveLatency(d time.Duration)
}

// NoopMetrics discards everything.
type NoopMetrics struct{}

func (NoopMetrics) PayloadSent()                 {}
func (NoopMetrics) Delivered()                   {}
func (NoopMetrics) SpuriousNotification()        {}
func (NoopMetrics) Anomaly(string)               {}
func (NoopMetrics) ObserveLatency(time.Duration) {}
