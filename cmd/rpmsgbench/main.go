package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/rpmsgbench/internal/adapters/codec"
	"github.com/bft-labs/rpmsgbench/internal/cliconfig"
	"github.com/bft-labs/rpmsgbench/pkg/log"
	"github.com/bft-labs/rpmsgbench/pkg/rpmsgbench"
)

const longHelp = `Measure round-trip latency to a remote processor over an rpmsg endpoint.

Payloads 1..count are sent one at a time. The remote echoes each one back and
the kernel signals the arrival with SIGIO; the time from write to signal is the
round-trip latency. Per-id latencies (microseconds) are written as
<prefix>-<count>.tsv with a JSON summary next to them.

Settings come from the config file, then RPMSGBENCH_* environment variables,
then flags, each overriding the one before.`

var exampleUsage = strings.TrimSpace(`
  rpmsgbench 10000
  rpmsgbench --endpoint /dev/rpmsg0 --skip-remoteproc --count 500
  rpmsgbench --config $HOME/.rpmsgbench/config.toml --metrics-file
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	logger := cliconfig.Logger()

	root := &cobra.Command{
		Use:     "rpmsgbench [count]",
		Short:   "Measure rpmsg round-trip latency with SIGIO notification",
		Long:    longHelp,
		Example: exampleUsage,
		Version: fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		Args:    cobra.MaximumNArgs(1),
		// Usage is noise for runtime failures.
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			// Build set of changed flags
			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if len(args) == 1 {
				n, err := strconv.ParseUint(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("count %q: %w", args[0], err)
				}
				cfg.Count = n
				changed["count"] = true
			}

			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			}

			// Environment overrides the file; explicit flags override both.
			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}

			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := cliconfig.SetLogLevel(cfg.LogLevel); err != nil {
				return err
			}
			logger.Info().Interface("config", cfg).Msg("configuration")

			bench, err := rpmsgbench.New(cfg.Config,
				rpmsgbench.WithLogger(log.NewZerologAdapterWithLogger(logger)),
			)
			if err != nil {
				return fmt.Errorf("create bench: %w", err)
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			out, runErr := bench.Run(ctx)
			if out.Summary.Interrupted {
				logger.Warn().Msg("interrupted, reporting partial results")
			}
			if out.SummaryPath != "" || out.Stats.Count > 0 {
				printSummary(cmd.OutOrStdout(), out)
			}
			return runErr
		},
	}

	// Flags
	flags := root.Flags()
	flags.StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.rpmsgbench/config.toml)")
	flags.Uint64Var(&cfg.Count, "count", cfg.Count, "number of payloads (also accepted as the positional argument)")
	flags.IntVar(&cfg.PayloadSize, "payload-size", cfg.PayloadSize, "data bytes per payload")
	flags.StringVar(&cfg.Codec, "codec", cfg.Codec, fmt.Sprintf("frame encoding (%s)", strings.Join(codec.Names(), ", ")))

	flags.StringVar(&cfg.EndpointPath, "endpoint", cfg.EndpointPath, "existing endpoint device; empty creates one via the control device")
	flags.StringVar(&cfg.CtrlDevice, "ctrl-device", cfg.CtrlDevice, "rpmsg control device")
	flags.StringVar(&cfg.EndpointName, "endpoint-name", cfg.EndpointName, "name of the endpoint to create")
	flags.Uint64Var(&cfg.EndpointSrc, "endpoint-src", cfg.EndpointSrc, "local address of the endpoint to create")
	flags.Uint64Var(&cfg.EndpointDst, "endpoint-dst", cfg.EndpointDst, "remote address of the endpoint to create")
	flags.DurationVar(&cfg.EndpointWait, "endpoint-wait", cfg.EndpointWait, "how long to wait for the endpoint node")

	flags.StringVar(&cfg.RemoteProc, "remoteproc", cfg.RemoteProc, "remoteproc instance")
	flags.StringVar(&cfg.RemoteProcRoot, "remoteproc-root", cfg.RemoteProcRoot, "remoteproc sysfs class directory")
	if err := flags.MarkHidden("remoteproc-root"); err != nil {
		logger.Info().Err(err).Msg("failed to hide remoteproc-root flag")
	}
	flags.StringVar(&cfg.Firmware, "firmware", cfg.Firmware, "firmware image loaded before start")
	flags.BoolVar(&cfg.SkipRemoteProc, "skip-remoteproc", cfg.SkipRemoteProc, "leave the remote processor alone")

	flags.StringVar(&cfg.OutputDir, "output-dir", cfg.OutputDir, "directory for result files")
	flags.StringVar(&cfg.OutputPrefix, "output-prefix", cfg.OutputPrefix, "result file name prefix")
	flags.BoolVar(&cfg.MetricsFile, "metrics-file", cfg.MetricsFile, "also write Prometheus metrics as <prefix>-<count>.prom")

	flags.DurationVar(&cfg.SendInterval, "send-interval", cfg.SendInterval, "pause after each exchange (0 = pure lock-step)")
	flags.DurationVar(&cfg.DeliveryTimeout, "delivery-timeout", cfg.DeliveryTimeout, "wait per echo before marking it lost (0 = forever)")
	flags.IntVar(&cfg.MaxConsecutiveTimeouts, "max-consecutive-timeouts", cfg.MaxConsecutiveTimeouts, "abort after this many lost echoes in a row (0 = never)")
	flags.DurationVar(&cfg.DrainGrace, "drain-grace", cfg.DrainGrace, "wait for trailing echoes after the last send")
	flags.DurationVar(&cfg.SlowThreshold, "slow-threshold", cfg.SlowThreshold, "log round trips slower than this")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")

	if err := root.Execute(); err != nil {
		logger.Error().Err(err).Bool("fatal", rpmsgbench.IsFatal(err)).Msg("rpmsgbench")
		os.Exit(1)
	}
}

func printSummary(w io.Writer, out rpmsgbench.Outcome) {
	s := out.Stats
	fmt.Fprintf(w, "number of payload: %d\n", s.Count)
	if s.Count > 0 {
		fmt.Fprintf(w, "max delay: %v\n", s.Max)
		fmt.Fprintf(w, "min delay: %v\n", s.Min)
	} else {
		fmt.Fprintln(w, "max delay: N/A")
		fmt.Fprintln(w, "min delay: N/A")
	}
	fmt.Fprintf(w, "average delay: %s\n", s.MeanString())
	if p := out.Previous; p != nil && p.MeanMicros != nil {
		fmt.Fprintf(w, "previous average delay: %.3fus\n", *p.MeanMicros)
	}
	if n := len(out.Summary.Lost); n > 0 {
		fmt.Fprintf(w, "lost: %d\n", n)
	}
	if out.ResultsPath != "" && s.Count > 0 {
		fmt.Fprintf(w, "results: %s\n", out.ResultsPath)
	}
}
