// Package rpmsgbench measures round-trip latency over an rpmsg endpoint.
//
// A run sends payloads 1..Count to a remote processor that echoes them back.
// Inbound data is signalled with SIGIO rather than blocking reads; a watcher
// goroutine timestamps every notification and the sender pairs each echo with
// its send instant. Per-id latencies are written as TSV and a JSON summary is
// written next to them.
//
// # Basic Usage
//
//	cfg := rpmsgbench.DefaultConfig()
//	cfg.Count = 10000
//	cfg.SkipRemoteProc = true
//	cfg.EndpointPath = "/dev/rpmsg0"
//
//	bench, err := rpmsgbench.New(cfg, rpmsgbench.WithLogger(logger))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	outcome, err := bench.Run(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(outcome.Stats.MeanString())
//
// # Endpoint
//
// With EndpointPath empty, an endpoint named EndpointName is created through
// the rpmsg control device and the new /dev/rpmsgN node is used.
//
// # Remote Processor
//
// Unless SkipRemoteProc is set, the remoteproc instance is loaded with
// Firmware and started before the run and stopped afterwards. Supply
// [WithRemoteUnit] to control the remote side some other way.
//
// # Failure Handling
//
// Lost echoes, undecodable frames and clock anomalies are recorded in the
// summary and do not stop the run. Endpoint failures, short writes and a
// remote that stops answering end the run with an error; the summary is
// still written with the error recorded.
//
// # Thread Safety
//
// A Bench runs once at a time. Status is safe to call from any goroutine.
package rpmsgbench
