// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"probe/cmd"
	"probe/internal/audio"
	"probe/internal/config"
	"probe/internal/diag"
	applog "probe/internal/log"
	"probe/internal/observer"
	"probe/internal/transport"
	"probe/internal/transport/udp"
	"probe/internal/tui"
	"probe/pkg/build"

	"github.com/rs/xid"
)

// main is the entry point for the sample probe.
// The program flow is divided into three distinct phases:
//
// 1. Startup Phase (Cold Path):
//   - Initialize build information
//   - Configure runtime settings
//   - Parse command line arguments and load configuration
//   - Execute one-off commands if requested
//
// 2. Concurrent Phase (Hot Path):
//   - Start the drainer and its transports
//   - Hand the capture port to the observer
//   - Start the input stream (or the WAV replay)
//
// 3. Shutdown Phase (Cold Path):
//   - Handle termination signals
//   - Stop the stream, then flush and close the drainer
//   - Report counters
func main() {
	// ==================== STARTUP PHASE (Cold Path) ====================

	if err := build.Initialize(); err != nil {
		applog.Debugf("build: %v, using development build info", err)
	}

	// One thread for the audio callback, one for draining and I/O.
	runtime.GOMAXPROCS(2)

	opts, err := cmd.ParseArgs(os.Args[1:])
	if err != nil {
		applog.Fatal(err)
	}
	if opts.Command == "" {
		return
	}

	level, _ := applog.ParseLevel(opts.Config.LogLevel)
	applog.SetLevel(level)

	if err := execute(opts); err != nil {
		applog.Fatal(err)
	}
}

func execute(opts *cmd.Options) error {
	switch opts.Command {
	case cmd.CommandReplay:
		return replay(opts)
	case cmd.CommandList, cmd.CommandPick, cmd.CommandRun:
	default:
		return fmt.Errorf("unknown command %q", opts.Command)
	}

	if err := audio.Initialize(); err != nil {
		return err
	}
	defer audio.Terminate()

	switch opts.Command {
	case cmd.CommandList:
		return audio.ListDevices(os.Stdout)
	case cmd.CommandPick:
		ok, err := pickPort(opts.Config)
		if err != nil || !ok {
			return err
		}
	}
	return observe(opts.Config)
}

// pickPort lets the user choose a capture port and points cfg at it.
func pickPort(cfg *config.Config) (bool, error) {
	devices, err := audio.HostDevices()
	if err != nil {
		return false, err
	}
	port, ok, err := tui.StartPortPicker(audio.CapturePorts(devices))
	if err != nil || !ok {
		return false, err
	}
	cfg.Audio.InputDevice = port.DeviceID
	cfg.Audio.PortChannel = port.Channel
	return true, nil
}

// observe runs the observer on a live capture port until SIGINT or SIGTERM.
func observe(cfg *config.Config) error {
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	p := newPipeline(cfg)
	engine, err := audio.NewEngine(cfg, p.observer)
	if err != nil {
		return err
	}
	if err := p.start(engine.Port().Name()); err != nil {
		return err
	}

	// CRITICAL: Start of real-time audio processing
	// The first callback after StartInputStream marks the start of the hot path.
	if err := engine.StartInputStream(); err != nil {
		p.close()
		return err
	}

	// Block until termination signal is received
	<-done

	// ==================== SHUTDOWN PHASE (Cold Path) ====================

	if err := engine.Close(); err != nil {
		applog.Errorf("Error closing audio engine: %v", err)
	}
	p.close()
	return nil
}

// replay runs the observer over a WAV file until it ends or a signal arrives.
func replay(opts *cmd.Options) error {
	cfg := opts.Config
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	port, err := audio.OpenFilePort(opts.ReplayFile, cfg.Audio.PortChannel)
	if err != nil {
		return err
	}

	p := newPipeline(cfg)
	if err := p.start(port.Name()); err != nil {
		return err
	}

	res, err := audio.Replay(ctx, p.observer, port, cfg.Audio.FramesPerBuffer, opts.Realtime, p.ring.HasRoom)
	p.close()
	if err != nil && ctx.Err() == nil {
		return err
	}
	applog.Infof("replay: %d blocks, %d frames, %d failed", res.Blocks, res.Frames, res.Failed)
	return nil
}

// pipeline is everything between OnBlock and the outside world.
type pipeline struct {
	cfg      *config.Config
	session  xid.ID
	ring     *diag.Ring
	observer *observer.Observer
	drainer  *diag.Drainer
}

func newPipeline(cfg *config.Config) *pipeline {
	ring := diag.NewRing(cfg.Diagnostics.QueueCapacity)
	return &pipeline{
		cfg:      cfg,
		session:  xid.New(),
		ring:     ring,
		observer: observer.New(diag.NewSink(ring)),
	}
}

// start opens the transports and starts the drainer. port names the observed
// port in WebSocket batches.
func (p *pipeline) start(port string) error {
	t, err := openTransports(p.cfg.Transport, p.session.String(), port)
	if err != nil {
		return err
	}

	p.drainer, err = diag.NewDrainer(p.ring, t, diag.DrainerOptions{
		Interval:   p.cfg.Diagnostics.DrainInterval,
		BatchSize:  p.cfg.Diagnostics.BatchSize,
		Summary:    p.cfg.Diagnostics.Summary,
		FramesHint: p.cfg.Audio.FramesPerBuffer,
	})
	if err != nil {
		t.Close()
		return err
	}
	p.drainer.Start()

	applog.WithField("session", p.session.String()).
		Infof("probe: observing %s (queue %d samples)", port, p.ring.Cap())
	return nil
}

func (p *pipeline) close() {
	if p.drainer == nil {
		return
	}
	if err := p.drainer.Close(); err != nil {
		applog.Errorf("Error closing drainer: %v", err)
	}

	obs := p.observer.Stats()
	dst := p.drainer.Stats()
	applog.Infof("probe: %d blocks handled, %d skipped, %d failed (last status %s); %d samples sent, %d dropped, %d send errors",
		obs.Handled, obs.Skipped, obs.Failed, obs.LastStatus, dst.Sent, dst.Dropped, dst.SendErrors)
	p.drainer = nil
}

// openTransports builds the configured outputs. The console is used when
// nothing else is enabled.
func openTransports(cfg config.TransportConfig, session, port string) (transport.Transport, error) {
	var multi transport.Multi

	if cfg.Console || (!cfg.WebSocketEnabled && !cfg.UDPEnabled) {
		multi = append(multi, transport.NewWriterTransport(os.Stdout))
	}

	if cfg.WebSocketEnabled {
		ws, err := transport.NewWebSocketTransport(cfg.WebSocketAddress, session, port)
		if err != nil {
			multi.Close()
			return nil, err
		}
		multi = append(multi, ws)
	}

	if cfg.UDPEnabled {
		sender, err := udp.NewUDPSender(cfg.UDPTargetAddress)
		if err != nil {
			multi.Close()
			return nil, err
		}
		pub, err := udp.NewPublisher(sender)
		if err != nil {
			sender.Close()
			multi.Close()
			return nil, err
		}
		multi = append(multi, pub)
	}

	if len(multi) == 1 {
		return multi[0], nil
	}
	return multi, nil
}
