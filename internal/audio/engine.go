// SPDX-License-Identifier: MIT
/*
Package audio is the host side of the probe: PortAudio device discovery,
an input stream whose callback drives the sample observer, and a WAV replay
that drives it from a file.

Thread Safety:
  - The stream callback runs on PortAudio's audio thread.
  - The callback only copies into pre-allocated buffers and calls OnBlock;
    it never logs, allocates or blocks.
  - Block statuses are counted atomically and reported from the cold path.
*/
package audio

import (
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"probe/internal/config"
	applog "probe/internal/log"
	"probe/internal/observer"

	"github.com/gordonklaus/portaudio"
)

// BlockObserver is what the engine calls once per audio block.
type BlockObserver interface {
	SetPort(p observer.Port)
	OnBlock(frames int) observer.Status
}

type Engine struct {
	config   *config.Config
	observer BlockObserver

	inputDevice  *portaudio.DeviceInfo
	inputLatency time.Duration
	inputStream  *portaudio.Stream
	channels     int
	port         *StreamPort

	blocks      atomic.Uint64
	fatalBlocks atomic.Uint64
}

// NewEngine resolves the configured input device and prepares the capture
// port. The stream is not opened until StartInputStream.
func NewEngine(cfg *config.Config, obs BlockObserver) (*Engine, error) {
	inputDevice, err := InputDevice(cfg.Audio.InputDevice)
	if err != nil {
		return nil, err
	}
	return newEngine(cfg, obs, inputDevice)
}

func newEngine(cfg *config.Config, obs BlockObserver, inputDevice *portaudio.DeviceInfo) (*Engine, error) {
	// Open the device with enough channels to reach the observed one.
	channels := cfg.Audio.PortChannel
	if channels > inputDevice.MaxInputChannels {
		return nil, fmt.Errorf("device %s has %d input channels, port channel %d requested",
			inputDevice.Name, inputDevice.MaxInputChannels, cfg.Audio.PortChannel)
	}

	port, err := NewStreamPort(PortName(inputDevice.Name, cfg.Audio.PortChannel),
		cfg.Audio.PortChannel, channels, cfg.Audio.FramesPerBuffer)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		config:      cfg,
		observer:    obs,
		inputDevice: inputDevice,
		channels:    channels,
		port:        port,
	}
	if cfg.Audio.LowLatency {
		e.inputLatency = inputDevice.DefaultLowInputLatency
	} else {
		e.inputLatency = inputDevice.DefaultHighInputLatency
	}
	return e, nil
}

// Port returns the capture port the engine feeds.
func (e *Engine) Port() *StreamPort {
	return e.port
}

// StartInputStream hands the port to the observer and starts the stream. The
// port is published before the first callback can fire.
func (e *Engine) StartInputStream() error {
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: e.channels,
			Device:   e.inputDevice,
			Latency:  e.inputLatency,
		},
		Output: portaudio.StreamDeviceParameters{
			Channels: 0,
			Device:   nil,
		},
		FramesPerBuffer: e.config.Audio.FramesPerBuffer,
		SampleRate:      e.config.Audio.SampleRate,
	}

	e.observer.SetPort(e.port)

	stream, err := portaudio.OpenStream(params, e.processInputStream)
	if err != nil {
		e.observer.SetPort(nil)
		return fmt.Errorf("failed to open input stream on %s: %w", e.inputDevice.Name, err)
	}
	e.inputStream = stream

	if err := e.inputStream.Start(); err != nil {
		e.inputStream.Close()
		e.inputStream = nil
		e.observer.SetPort(nil)
		return fmt.Errorf("failed to start input stream: %w", err)
	}

	applog.Infof("audio: observing %s (%d ch, %.0f Hz, %d frames, latency %s)",
		e.port.Name(), e.channels, e.config.Audio.SampleRate, e.config.Audio.FramesPerBuffer, e.inputLatency)
	return nil
}

// StopInputStream stops and closes the stream, then detaches the port.
func (e *Engine) StopInputStream() error {
	if e.inputStream == nil {
		return nil
	}
	if err := e.inputStream.Stop(); err != nil {
		return err
	}
	if err := e.inputStream.Close(); err != nil {
		return err
	}
	e.inputStream = nil
	e.observer.SetPort(nil)
	return nil
}

// processInputStream is the PortAudio callback.
// Performance Critical:
// - Runs in a dedicated OS thread (LockOSThread)
// - Uses pre-allocated buffers only
// - No dynamic allocations in the hot path
func (e *Engine) processInputStream(in []float32) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	e.processBlock(in)
}

func (e *Engine) processBlock(in []float32) {
	frames := e.port.load(in)
	e.blocks.Add(1)
	if status := e.observer.OnBlock(frames); status != observer.StatusOK {
		e.fatalBlocks.Add(1)
	}
}

// BlockCounts returns the number of callbacks and how many ended in a nonzero status.
func (e *Engine) BlockCounts() (blocks, failed uint64) {
	return e.blocks.Load(), e.fatalBlocks.Load()
}

// Close stops the stream if it is running.
func (e *Engine) Close() error {
	if err := e.StopInputStream(); err != nil {
		return err
	}
	blocks, failed := e.BlockCounts()
	applog.Infof("audio: engine closed after %d blocks (%d failed)", blocks, failed)
	return nil
}
