// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"testing"
	"time"

	"probe/internal/config"
	"probe/internal/observer"

	"github.com/gordonklaus/portaudio"
)

type sampleRecorder struct {
	values []float32
}

func (r *sampleRecorder) Emit(_ int, v float32) {
	r.values = append(r.values, v)
}

func testEngine(t *testing.T, channel int) (*Engine, *observer.Observer, *sampleRecorder) {
	t.Helper()
	cfg := config.NewConfig()
	cfg.Audio.PortChannel = channel
	cfg.Audio.FramesPerBuffer = 4

	rec := &sampleRecorder{}
	obs := observer.New(rec)
	dev := &portaudio.DeviceInfo{
		Name:                    "Mic",
		MaxInputChannels:        2,
		DefaultLowInputLatency:  time.Millisecond,
		DefaultHighInputLatency: 10 * time.Millisecond,
	}
	e, err := newEngine(cfg, obs, dev)
	if err != nil {
		t.Fatalf("newEngine: %v", err)
	}
	return e, obs, rec
}

func TestEngineProcessBlockDeinterleaves(t *testing.T) {
	e, obs, rec := testEngine(t, 2)
	if e.Port().Name() != "Mic:capture_2" {
		t.Errorf("port name = %q", e.Port().Name())
	}
	if e.inputLatency != 10*time.Millisecond {
		t.Errorf("inputLatency = %s, want high latency by default", e.inputLatency)
	}

	// Before the port is handed over the block is a no-op.
	e.processBlock([]float32{1, 2, 3, 4})
	if len(rec.values) != 0 {
		t.Fatalf("emitted %v before SetPort", rec.values)
	}

	obs.SetPort(e.Port())
	// Interleaved L/R frames: observed channel 2 is every second value.
	e.processBlock([]float32{0.1, 0.5, 0.1, -0.25, 0.1, 1.0, 0.1, 0.0})

	want := []float32{0.5, -0.25, 1.0, 0.0}
	if len(rec.values) != len(want) {
		t.Fatalf("got %v, want %v", rec.values, want)
	}
	for i := range want {
		if rec.values[i] != want[i] {
			t.Errorf("sample %d = %v, want %v", i, rec.values[i], want[i])
		}
	}
	if blocks, failed := e.BlockCounts(); blocks != 2 || failed != 0 {
		t.Errorf("BlockCounts() = %d, %d; want 2, 0", blocks, failed)
	}
}

func TestEngineProcessBlockNoAllocs(t *testing.T) {
	e, obs, _ := testEngine(t, 1)
	obs.SetPort(e.Port())
	discard := observer.New(nil)
	discard.SetPort(e.Port())
	e.observer = discard

	in := make([]float32, 8)
	allocs := testing.AllocsPerRun(100, func() {
		e.processBlock(in)
	})
	if allocs > 0 {
		t.Errorf("processBlock allocated %.1f times, want 0", allocs)
	}
}

func TestNewEngineRejectsMissingChannel(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Audio.PortChannel = 3
	_, err := newEngine(cfg, observer.New(nil), &portaudio.DeviceInfo{Name: "Mono", MaxInputChannels: 1})
	if err == nil {
		t.Fatal("expected error for channel beyond device inputs")
	}
}

func TestStreamPort(t *testing.T) {
	p, err := NewStreamPort("x:capture_1", 1, 1, 4)
	if err != nil {
		t.Fatalf("NewStreamPort: %v", err)
	}

	if _, err := p.Buffer(1); !errors.Is(err, ErrFrameCount) {
		t.Errorf("Buffer before load = %v, want ErrFrameCount", err)
	}

	// Longer blocks than preallocated are truncated.
	if n := p.load([]float32{1, 2, 3, 4, 5, 6}); n != 4 {
		t.Errorf("load returned %d frames, want 4", n)
	}
	buf, err := p.Buffer(4)
	if err != nil || len(buf) != 4 || buf[3] != 4 {
		t.Errorf("Buffer(4) = %v, %v", buf, err)
	}
	if _, err := p.Buffer(5); !errors.Is(err, ErrFrameCount) {
		t.Errorf("Buffer(5) = %v, want ErrFrameCount", err)
	}

	for _, args := range [][3]int{{0, 2, 4}, {3, 2, 4}, {1, 0, 4}, {1, 1, 0}} {
		if _, err := NewStreamPort("bad", args[0], args[1], args[2]); err == nil {
			t.Errorf("NewStreamPort(%v) expected error", args)
		}
	}
}
