// Package log provides the logging abstraction used by rpmsgbench components.
//
// The measurement core logs through the Logger interface only. A zerolog
// adapter backs the CLI and a no-op logger is the default for library use and
// tests.
//
//	logger := log.NewZerologAdapterWithLogger(zerolog.New(os.Stderr))
//	logger.Warn("delivery timeout", log.Uint64("id", 42))
package log
