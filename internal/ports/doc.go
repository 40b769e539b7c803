// Package ports defines the interfaces that connect the measurement core in
// internal/app to the infrastructure adapters in internal/adapters.
//
// # Port Interfaces
//
//   - [Channel]: non-blocking reads and blocking frame writes on the endpoint
//   - [Notifier]: readiness notifications for the endpoint
//   - [Codec]: payload encoding bounded by domain.MaxFrameSize
//   - [RemoteUnit]: start/stop of the remote processing unit
//   - [ResultSink]: persistence of per-id latency records
//   - [Metrics]: run counters and the latency histogram
//
// The application layer depends only on these interfaces, so the core can be
// driven by a simulated echo channel in tests.
package ports
