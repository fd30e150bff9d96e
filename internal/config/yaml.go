// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	applog "probe/internal/log"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file specified by path. If path is
// empty, it looks for "probe.yaml" in the working directory and falls back to
// built-in defaults when that is absent. Environment overrides are applied after
// the file, then the result is validated.
func LoadConfig(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		if _, err := os.Stat(defaultConfigFile); err != nil {
			cfg.applyEnvOverrides()
			if err := cfg.Validate(); err != nil {
				return nil, fmt.Errorf("invalid default configuration: %w", err)
			}
			return cfg, nil
		}
		path = defaultConfigFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks every field against the limits in this package and returns
// all violations joined together.
func (c *Config) Validate() error {
	var errs []error

	if _, ok := applog.ParseLevel(c.LogLevel); !ok {
		errs = append(errs, fmt.Errorf("log_level %q is not one of debug, info, warn, error, fatal", c.LogLevel))
	}

	a := c.Audio
	if a.InputDevice < MinDeviceID {
		errs = append(errs, fmt.Errorf("audio.input_device must be >= %d, got %d", MinDeviceID, a.InputDevice))
	}
	if a.PortChannel < MinPortChannel {
		errs = append(errs, fmt.Errorf("audio.port_channel must be >= %d, got %d", MinPortChannel, a.PortChannel))
	}
	if a.SampleRate < MinSampleRate || a.SampleRate > MaxSampleRate {
		errs = append(errs, fmt.Errorf("audio.sample_rate must be within %d..%d Hz, got %.0f", MinSampleRate, MaxSampleRate, a.SampleRate))
	}
	if a.FramesPerBuffer < 1 || a.FramesPerBuffer > MaxBufferFrames {
		errs = append(errs, fmt.Errorf("audio.frames_per_buffer must be within 1..%d, got %d", MaxBufferFrames, a.FramesPerBuffer))
	}

	d := c.Diagnostics
	if d.QueueCapacity < 1 || d.QueueCapacity > MaxQueueCapacity {
		errs = append(errs, fmt.Errorf("diagnostics.queue_capacity must be within 1..%d, got %d", MaxQueueCapacity, d.QueueCapacity))
	}
	if d.DrainInterval < MinDrainInterval || d.DrainInterval > MaxDrainInterval {
		errs = append(errs, fmt.Errorf("diagnostics.drain_interval must be within %s..%s, got %s", MinDrainInterval, MaxDrainInterval, d.DrainInterval))
	}
	if d.BatchSize < 1 {
		errs = append(errs, fmt.Errorf("diagnostics.batch_size must be positive, got %d", d.BatchSize))
	}

	t := c.Transport
	if t.WebSocketEnabled && !strings.Contains(t.WebSocketAddress, ":") {
		errs = append(errs, fmt.Errorf("transport.websocket_address %q appears invalid (missing port?)", t.WebSocketAddress))
	}
	if t.UDPEnabled && !strings.Contains(t.UDPTargetAddress, ":") {
		errs = append(errs, fmt.Errorf("transport.udp_target_address %q appears invalid (missing port?)", t.UDPTargetAddress))
	}

	return errors.Join(errs...)
}

// applyEnvOverrides reads PROBE_* variables, one per config field: LOG_LEVEL,
// INPUT_DEVICE, PORT_CHANNEL, SAMPLE_RATE, FRAMES_PER_BUFFER, LOW_LATENCY,
// QUEUE_CAPACITY, DRAIN_INTERVAL, BATCH_SIZE, SUMMARY, CONSOLE, WS_ENABLED,
// WS_ADDRESS, UDP_ENABLED and UDP_TARGET_ADDRESS. Values that fail to parse
// are ignored with a warning.
func (c *Config) applyEnvOverrides() {
	str := func(name string, dst *string) {
		if val, ok := os.LookupEnv(envPrefix + name); ok {
			*dst = val
			applog.Debugf("configuration: overriding %s from env: %s", name, val)
		}
	}
	boolean := func(name string, dst *bool) {
		if val, ok := os.LookupEnv(envPrefix + name); ok {
			b, err := strconv.ParseBool(val)
			if err != nil {
				applog.Warnf("configuration: ignoring %s%s=%q: %v", envPrefix, name, val, err)
				return
			}
			*dst = b
			applog.Debugf("configuration: overriding %s from env: %v", name, b)
		}
	}
	integer := func(name string, dst *int) {
		if val, ok := os.LookupEnv(envPrefix + name); ok {
			n, err := strconv.Atoi(val)
			if err != nil {
				applog.Warnf("configuration: ignoring %s%s=%q: %v", envPrefix, name, val, err)
				return
			}
			*dst = n
			applog.Debugf("configuration: overriding %s from env: %d", name, n)
		}
	}
	float := func(name string, dst *float64) {
		if val, ok := os.LookupEnv(envPrefix + name); ok {
			f, err := strconv.ParseFloat(val, 64)
			if err != nil {
				applog.Warnf("configuration: ignoring %s%s=%q: %v", envPrefix, name, val, err)
				return
			}
			*dst = f
			applog.Debugf("configuration: overriding %s from env: %g", name, f)
		}
	}
	duration := func(name string, dst *time.Duration) {
		if val, ok := os.LookupEnv(envPrefix + name); ok {
			d, err := time.ParseDuration(val)
			if err != nil {
				applog.Warnf("configuration: ignoring %s%s=%q: %v", envPrefix, name, val, err)
				return
			}
			*dst = d
			applog.Debugf("configuration: overriding %s from env: %s", name, d)
		}
	}

	str("LOG_LEVEL", &c.LogLevel)

	integer("INPUT_DEVICE", &c.Audio.InputDevice)
	integer("PORT_CHANNEL", &c.Audio.PortChannel)
	float("SAMPLE_RATE", &c.Audio.SampleRate)
	integer("FRAMES_PER_BUFFER", &c.Audio.FramesPerBuffer)
	boolean("LOW_LATENCY", &c.Audio.LowLatency)

	integer("QUEUE_CAPACITY", &c.Diagnostics.QueueCapacity)
	duration("DRAIN_INTERVAL", &c.Diagnostics.DrainInterval)
	integer("BATCH_SIZE", &c.Diagnostics.BatchSize)
	boolean("SUMMARY", &c.Diagnostics.Summary)

	boolean("CONSOLE", &c.Transport.Console)
	boolean("WS_ENABLED", &c.Transport.WebSocketEnabled)
	str("WS_ADDRESS", &c.Transport.WebSocketAddress)
	boolean("UDP_ENABLED", &c.Transport.UDPEnabled)
	str("UDP_TARGET_ADDRESS", &c.Transport.UDPTargetAddress)
}
