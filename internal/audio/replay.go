// SPDX-License-Identifier: MIT
package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	applog "probe/internal/log"
	"probe/internal/observer"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// FilePort serves one channel of a decoded WAV file block by block. It stands
// in for a live capture port when no audio server is available.
type FilePort struct {
	name       string
	samples    []float32 // Normalised to -1..1
	sampleRate int
	pos        int // First frame of the current block
	frames     int // Frames in the current block
}

// OpenFilePort decodes path and keeps channel (1-based).
func OpenFilePort(path string, channel int) (*FilePort, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%s: not a valid WAV file", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to decode: %w", path, err)
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return newFilePort(PortName(base, channel), buf, int(dec.BitDepth), channel)
}

func newFilePort(name string, buf *audio.IntBuffer, bitDepth, channel int) (*FilePort, error) {
	if buf.Format == nil || buf.Format.NumChannels < 1 {
		return nil, errors.New("wav: missing format")
	}
	channels := buf.Format.NumChannels
	if channel < 1 || channel > channels {
		return nil, fmt.Errorf("channel %d out of range 1..%d", channel, channels)
	}
	if bitDepth < 8 || bitDepth > 32 {
		return nil, fmt.Errorf("unsupported bit depth %d", bitDepth)
	}

	scale := float32(int64(1) << (bitDepth - 1))
	frames := len(buf.Data) / channels
	samples := make([]float32, frames)
	for i := range samples {
		samples[i] = float32(buf.Data[i*channels+channel-1]) / scale
	}

	return &FilePort{
		name:       name,
		samples:    samples,
		sampleRate: buf.Format.SampleRate,
	}, nil
}

// Name implements observer.Port.
func (p *FilePort) Name() string {
	return p.name
}

// SampleRate returns the file's sample rate.
func (p *FilePort) SampleRate() int {
	return p.sampleRate
}

// Frames returns the total number of frames in the file.
func (p *FilePort) Frames() int {
	return len(p.samples)
}

// Buffer implements observer.Port.
func (p *FilePort) Buffer(frames int) ([]float32, error) {
	if frames > p.frames {
		return nil, ErrFrameCount
	}
	return p.samples[p.pos : p.pos+frames], nil
}

// advance positions the port on the next block and returns its frame count,
// zero at end of file.
func (p *FilePort) advance(blockFrames int) int {
	p.pos += p.frames
	p.frames = min(blockFrames, len(p.samples)-p.pos)
	return p.frames
}

// ReplayResult summarises a replay run.
type ReplayResult struct {
	Blocks int
	Frames int
	Failed int
}

// RoomFunc reports whether the sink behind the observer can take frames more
// samples without dropping any.
type RoomFunc func(frames int) bool

// roomPoll is how long a flat-out replay waits before asking again.
const roomPoll = time.Millisecond

// Replay drives obs over port, one OnBlock per block of blockFrames frames.
// With realtime set, blocks are paced to the file's sample rate the way an
// audio server would deliver them. Otherwise they run as fast as room allows:
// before each block Replay waits until room reports space for it, so a file
// longer than the sink's queue is not truncated. A nil room never waits. The
// final block may be shorter. Replay returns early with ctx's error when
// cancelled.
func Replay(ctx context.Context, obs BlockObserver, port *FilePort, blockFrames int, realtime bool, room RoomFunc) (ReplayResult, error) {
	var res ReplayResult
	if blockFrames < 1 {
		return res, fmt.Errorf("replay: block size must be positive, got %d", blockFrames)
	}

	var tick <-chan time.Time
	if realtime && port.sampleRate > 0 {
		period := time.Duration(blockFrames) * time.Second / time.Duration(port.sampleRate)
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		tick = ticker.C
		applog.Infof("replay: %s at %d Hz, block period %s", port.Name(), port.sampleRate, period)
	}

	obs.SetPort(port)
	defer obs.SetPort(nil)

	for {
		if tick != nil {
			select {
			case <-ctx.Done():
				return res, ctx.Err()
			case <-tick:
			}
		} else if err := ctx.Err(); err != nil {
			return res, err
		}

		frames := port.advance(blockFrames)
		if frames == 0 {
			return res, nil
		}
		if tick == nil && room != nil {
			if err := waitForRoom(ctx, room, frames); err != nil {
				return res, err
			}
		}
		if status := obs.OnBlock(frames); status != observer.StatusOK {
			res.Failed++
			applog.Warnf("replay: block %d ended with status %d (%s)", res.Blocks, status, status)
		}
		res.Blocks++
		res.Frames += frames
	}
}

func waitForRoom(ctx context.Context, room RoomFunc, frames int) error {
	for !room(frames) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(roomPoll):
		}
	}
	return nil
}
