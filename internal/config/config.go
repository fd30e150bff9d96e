// SPDX-License-Identifier: MIT
package config

import "time"

// Core configuration constants that define the boundaries and defaults
// for the observer, its audio host and its diagnostic sink.
const (
	DefaultDeviceID        = MinDeviceID // Default to system default device
	DefaultPortChannel     = 1           // capture_1
	DefaultSampleRate      = 48000
	DefaultFramesPerBuffer = 512
	DefaultLowLatency      = false
	DefaultLogLevel        = "info"

	DefaultQueueCapacity = 1 << 16 // Samples buffered between callback and drainer
	DefaultDrainInterval = 20 * time.Millisecond
	DefaultBatchSize     = 4096

	DefaultConsole          = true
	DefaultWebSocketAddress = "127.0.0.1:8080"
	DefaultUDPTargetAddress = "127.0.0.1:9090"

	// Hardware and processing limits
	MinDeviceID       = -1     // -1 represents system default device
	MinSampleRate     = 8000   // Minimum usable sample rate (Hz)
	MaxSampleRate     = 192000 // Maximum supported sample rate (Hz)
	MaxBufferFrames   = 8192   // Maximum frames per buffer
	MaxQueueCapacity  = 1 << 24
	MinDrainInterval  = time.Millisecond
	MaxDrainInterval  = 10 * time.Second
	MinPortChannel    = 1
	envPrefix         = "PROBE_"
	defaultConfigFile = "probe.yaml"
)

// Config holds all runtime configuration options. It is built from defaults,
// an optional YAML file, PROBE_* environment variables and finally CLI flags.
type Config struct {
	LogLevel    string            `yaml:"log_level"`
	Audio       AudioConfig       `yaml:"audio"`
	Diagnostics DiagnosticsConfig `yaml:"diagnostics"`
	Transport   TransportConfig   `yaml:"transport"`
}

// AudioConfig selects the observed port and the stream that feeds it.
type AudioConfig struct {
	InputDevice     int     `yaml:"input_device"`      // PortAudio device index (-1 for default).
	PortChannel     int     `yaml:"port_channel"`      // 1-based capture channel observed on the device.
	SampleRate      float64 `yaml:"sample_rate"`       // Sample rate in Hz.
	FramesPerBuffer int     `yaml:"frames_per_buffer"` // Frames per callback block.
	LowLatency      bool    `yaml:"low_latency"`       // Request the device's low input latency.
}

// DiagnosticsConfig sizes the queue between the callback and the drainer.
type DiagnosticsConfig struct {
	QueueCapacity int           `yaml:"queue_capacity"` // Rounded up to a power of two.
	DrainInterval time.Duration `yaml:"drain_interval"`
	BatchSize     int           `yaml:"batch_size"`
	Summary       bool          `yaml:"summary"` // Log per-block peak/RMS at debug level.
}

// TransportConfig selects where drained samples go.
type TransportConfig struct {
	Console          bool   `yaml:"console"`
	WebSocketEnabled bool   `yaml:"websocket_enabled"`
	WebSocketAddress string `yaml:"websocket_address"`
	UDPEnabled       bool   `yaml:"udp_enabled"`
	UDPTargetAddress string `yaml:"udp_target_address"`
}

// NewConfig returns a Config populated with built-in defaults.
func NewConfig() *Config {
	return &Config{
		LogLevel: DefaultLogLevel,
		Audio: AudioConfig{
			InputDevice:     DefaultDeviceID,
			PortChannel:     DefaultPortChannel,
			SampleRate:      DefaultSampleRate,
			FramesPerBuffer: DefaultFramesPerBuffer,
			LowLatency:      DefaultLowLatency,
		},
		Diagnostics: DiagnosticsConfig{
			QueueCapacity: DefaultQueueCapacity,
			DrainInterval: DefaultDrainInterval,
			BatchSize:     DefaultBatchSize,
		},
		Transport: TransportConfig{
			Console:          DefaultConsole,
			WebSocketAddress: DefaultWebSocketAddress,
			UDPTargetAddress: DefaultUDPTargetAddress,
		},
	}
}
