package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	Count                  *uint64 `toml:"count"`
	PayloadSize            *int    `toml:"payload_size"`
	Codec                  string  `toml:"codec"`
	Endpoint               string  `toml:"endpoint"`
	CtrlDevice             string  `toml:"ctrl_device"`
	EndpointName           string  `toml:"endpoint_name"`
	EndpointSrc            *uint64 `toml:"endpoint_src"`
	EndpointDst            *uint64 `toml:"endpoint_dst"`
	EndpointWait           string  `toml:"endpoint_wait"`
	RemoteProc             string  `toml:"remoteproc"`
	RemoteProcRoot         string  `toml:"remoteproc_root"`
	Firmware               string  `toml:"firmware"`
	SkipRemoteProc         *bool   `toml:"skip_remoteproc"`
	OutputDir              string  `toml:"output_dir"`
	OutputPrefix           string  `toml:"output_prefix"`
	SendInterval           string  `toml:"send_interval"`
	DeliveryTimeout        string  `toml:"delivery_timeout"`
	MaxConsecutiveTimeouts *int    `toml:"max_consecutive_timeouts"`
	DrainGrace             string  `toml:"drain_grace"`
	SlowThreshold          string  `toml:"slow_threshold"`
	MetricsFile            *bool   `toml:"metrics_file"`
	LogLevel               string  `toml:"log_level"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.rpmsgbench/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".rpmsgbench", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("codec", fc.Codec, &cfg.Codec)
	s.setString("endpoint", fc.Endpoint, &cfg.EndpointPath)
	s.setString("ctrl-device", fc.CtrlDevice, &cfg.CtrlDevice)
	s.setString("endpoint-name", fc.EndpointName, &cfg.EndpointName)
	s.setString("remoteproc", fc.RemoteProc, &cfg.RemoteProc)
	s.setString("remoteproc-root", fc.RemoteProcRoot, &cfg.RemoteProcRoot)
	s.setString("firmware", fc.Firmware, &cfg.Firmware)
	s.setString("output-dir", fc.OutputDir, &cfg.OutputDir)
	s.setString("output-prefix", fc.OutputPrefix, &cfg.OutputPrefix)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)

	s.setUint64("count", fc.Count, &cfg.Count)
	s.setUint64("endpoint-src", fc.EndpointSrc, &cfg.EndpointSrc)
	s.setUint64("endpoint-dst", fc.EndpointDst, &cfg.EndpointDst)

	s.setInt("payload-size", fc.PayloadSize, &cfg.PayloadSize)
	s.setInt("max-consecutive-timeouts", fc.MaxConsecutiveTimeouts, &cfg.MaxConsecutiveTimeouts)

	if err := s.setDuration("endpoint-wait", fc.EndpointWait, &cfg.EndpointWait); err != nil {
		return err
	}
	if err := s.setDuration("send-interval", fc.SendInterval, &cfg.SendInterval); err != nil {
		return err
	}
	if err := s.setDuration("delivery-timeout", fc.DeliveryTimeout, &cfg.DeliveryTimeout); err != nil {
		return err
	}
	if err := s.setDuration("drain-grace", fc.DrainGrace, &cfg.DrainGrace); err != nil {
		return err
	}
	if err := s.setDuration("slow-threshold", fc.SlowThreshold, &cfg.SlowThreshold); err != nil {
		return err
	}

	s.setBool("skip-remoteproc", fc.SkipRemoteProc, &cfg.SkipRemoteProc)
	s.setBool("metrics-file", fc.MetricsFile, &cfg.MetricsFile)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
