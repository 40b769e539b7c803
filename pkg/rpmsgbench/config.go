package rpmsgbench

import (
	"fmt"
	"math"
	"time"

	"github.com/bft-labs/rpmsgbench/internal/adapters/codec"
	"github.com/bft-labs/rpmsgbench/internal/adapters/remoteproc"
	"github.com/bft-labs/rpmsgbench/internal/adapters/rpmsg"
	"github.com/bft-labs/rpmsgbench/internal/app"
	"github.com/bft-labs/rpmsgbench/internal/domain"
)

// Defaults for a run.
const (
	DefaultCount                  = 1_000_000
	DefaultOutputPrefix           = "signal_hook"
	DefaultDeliveryTimeout        = time.Second
	DefaultMaxConsecutiveTimeouts = 10
	DefaultDrainGrace             = 10 * time.Second
)

// Config holds the parameters of a run.
type Config struct {
	// Count is the number of payloads, sent with ids 1..Count.
	Count uint64

	// PayloadSize is the number of data bytes per payload.
	PayloadSize int

	// Codec names the frame encoding ("bincode" or "protowire").
	Codec string

	// EndpointPath is an existing endpoint device. Empty creates one.
	EndpointPath string
	CtrlDevice   string
	EndpointName string
	EndpointSrc  uint64
	EndpointDst  uint64
	EndpointWait time.Duration

	RemoteProc     string
	RemoteProcRoot string
	Firmware       string
	SkipRemoteProc bool

	// OutputDir receives <OutputPrefix>-<Count>.tsv and .summary.json.
	OutputDir    string
	OutputPrefix string

	// MetricsFile also writes <OutputPrefix>-<Count>.prom.
	MetricsFile bool

	// SendInterval is slept after each completed exchange. Zero is pure
	// lock-step.
	SendInterval time.Duration

	// DeliveryTimeout bounds the wait for each echo; zero waits forever.
	DeliveryTimeout time.Duration

	// MaxConsecutiveTimeouts ends the run when reached; zero disables it.
	MaxConsecutiveTimeouts int

	// DrainGrace is how long trailing echoes are awaited after the last send.
	DrainGrace time.Duration

	// SlowThreshold logs round trips slower than this.
	SlowThreshold time.Duration
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Count:                  DefaultCount,
		PayloadSize:            domain.DefaultPayloadSize,
		Codec:                  codec.DefaultName,
		CtrlDevice:             rpmsg.DefaultCtrlDevice,
		EndpointName:           rpmsg.DefaultEndpointName,
		EndpointSrc:            rpmsg.DefaultEndpointSrc,
		EndpointDst:            rpmsg.DefaultEndpointDst,
		EndpointWait:           rpmsg.DefaultEndpointWait,
		RemoteProc:             remoteproc.DefaultName,
		RemoteProcRoot:         remoteproc.DefaultRoot,
		Firmware:               remoteproc.DefaultFirmware,
		OutputDir:              ".",
		OutputPrefix:           DefaultOutputPrefix,
		DeliveryTimeout:        DefaultDeliveryTimeout,
		MaxConsecutiveTimeouts: DefaultMaxConsecutiveTimeouts,
		DrainGrace:             DefaultDrainGrace,
		SlowThreshold:          app.DefaultSlowThreshold,
	}
}

// Validate checks the configuration for errors and sets derived defaults.
func (c *Config) Validate() error {
	if c.Count == 0 {
		return fmt.Errorf("count must be at least 1")
	}
	if c.PayloadSize < 0 {
		return fmt.Errorf("payload size must not be negative")
	}

	if c.Codec == "" {
		c.Codec = codec.DefaultName
	}
	cd, err := codec.ByName(c.Codec)
	if err != nil {
		return err
	}
	// The largest id has the longest encoding under varint codecs.
	if _, err := cd.Encode(domain.NewPayload(c.Count, c.PayloadSize, domain.DefaultFill)); err != nil {
		return fmt.Errorf("payload size %d with codec %s: %w", c.PayloadSize, c.Codec, err)
	}

	if c.EndpointSrc > math.MaxUint32 || c.EndpointDst > math.MaxUint32 {
		return fmt.Errorf("endpoint addresses must fit in 32 bits")
	}
	if c.EndpointWait <= 0 {
		c.EndpointWait = rpmsg.DefaultEndpointWait
	}

	if c.OutputDir == "" {
		c.OutputDir = "."
	}
	if c.OutputPrefix == "" {
		c.OutputPrefix = DefaultOutputPrefix
	}

	for name, d := range map[string]time.Duration{
		"send interval":    c.SendInterval,
		"delivery timeout": c.DeliveryTimeout,
		"drain grace":      c.DrainGrace,
		"slow threshold":   c.SlowThreshold,
	} {
		if d < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}
	if c.MaxConsecutiveTimeouts < 0 {
		return fmt.Errorf("max consecutive timeouts must not be negative")
	}
	return nil
}

func (c Config) harnessConfig() app.HarnessConfig {
	return app.HarnessConfig{
		Count:                  c.Count,
		PayloadSize:            c.PayloadSize,
		SendInterval:           c.SendInterval,
		DeliveryTimeout:        c.DeliveryTimeout,
		MaxConsecutiveTimeouts: c.MaxConsecutiveTimeouts,
		DrainGrace:             c.DrainGrace,
		SlowThreshold:          c.SlowThreshold,
	}
}

func (c Config) endpointConfig() rpmsg.EndpointConfig {
	return rpmsg.EndpointConfig{
		Path:       c.EndpointPath,
		CtrlDevice: c.CtrlDevice,
		Name:       c.EndpointName,
		Src:        uint32(c.EndpointSrc),
		Dst:        uint32(c.EndpointDst),
		Wait:       c.EndpointWait,
	}
}
