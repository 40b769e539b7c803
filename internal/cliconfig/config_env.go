package cliconfig

import (
	"os"
	"time"
)

// ApplyEnvConfig applies configuration from environment variables (RPMSGBENCH_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("codec", os.Getenv("RPMSGBENCH_CODEC"), &cfg.Codec)
	s.setString("endpoint", os.Getenv("RPMSGBENCH_ENDPOINT"), &cfg.EndpointPath)
	s.setString("ctrl-device", os.Getenv("RPMSGBENCH_CTRL_DEVICE"), &cfg.CtrlDevice)
	s.setString("endpoint-name", os.Getenv("RPMSGBENCH_ENDPOINT_NAME"), &cfg.EndpointName)
	s.setString("remoteproc", os.Getenv("RPMSGBENCH_REMOTEPROC"), &cfg.RemoteProc)
	s.setString("remoteproc-root", os.Getenv("RPMSGBENCH_REMOTEPROC_ROOT"), &cfg.RemoteProcRoot)
	s.setString("firmware", os.Getenv("RPMSGBENCH_FIRMWARE"), &cfg.Firmware)
	s.setString("output-dir", os.Getenv("RPMSGBENCH_OUTPUT_DIR"), &cfg.OutputDir)
	s.setString("output-prefix", os.Getenv("RPMSGBENCH_OUTPUT_PREFIX"), &cfg.OutputPrefix)
	s.setString("log-level", os.Getenv("RPMSGBENCH_LOG_LEVEL"), &cfg.LogLevel)

	if err := s.setUint64FromString("count", os.Getenv("RPMSGBENCH_COUNT"), &cfg.Count); err != nil {
		return err
	}
	if err := s.setUint64FromString("endpoint-src", os.Getenv("RPMSGBENCH_ENDPOINT_SRC"), &cfg.EndpointSrc); err != nil {
		return err
	}
	if err := s.setUint64FromString("endpoint-dst", os.Getenv("RPMSGBENCH_ENDPOINT_DST"), &cfg.EndpointDst); err != nil {
		return err
	}
	if err := s.setIntFromString("payload-size", os.Getenv("RPMSGBENCH_PAYLOAD_SIZE"), &cfg.PayloadSize); err != nil {
		return err
	}
	if err := s.setIntFromString("max-consecutive-timeouts", os.Getenv("RPMSGBENCH_MAX_CONSECUTIVE_TIMEOUTS"), &cfg.MaxConsecutiveTimeouts); err != nil {
		return err
	}

	durations := []struct {
		flag, env string
		dst       *time.Duration
	}{
		{"endpoint-wait", "RPMSGBENCH_ENDPOINT_WAIT", &cfg.EndpointWait},
		{"send-interval", "RPMSGBENCH_SEND_INTERVAL", &cfg.SendInterval},
		{"delivery-timeout", "RPMSGBENCH_DELIVERY_TIMEOUT", &cfg.DeliveryTimeout},
		{"drain-grace", "RPMSGBENCH_DRAIN_GRACE", &cfg.DrainGrace},
		{"slow-threshold", "RPMSGBENCH_SLOW_THRESHOLD", &cfg.SlowThreshold},
	}
	for _, d := range durations {
		if err := s.setDuration(d.flag, os.Getenv(d.env), d.dst); err != nil {
			return err
		}
	}

	s.setBoolFromString("skip-remoteproc", os.Getenv("RPMSGBENCH_SKIP_REMOTEPROC"), &cfg.SkipRemoteProc)
	s.setBoolFromString("metrics-file", os.Getenv("RPMSGBENCH_METRICS_FILE"), &cfg.MetricsFile)

	return nil
}
