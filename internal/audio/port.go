// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"
)

// ErrFrameCount is returned by a port asked for more frames than it holds.
var ErrFrameCount = errors.New("frame count exceeds port buffer")

// StreamPort exposes one channel of an interleaved input stream as an
// observer.Port. The engine loads it at the top of every callback and the
// observer reads it within the same callback, so no synchronisation is needed.
type StreamPort struct {
	name     string
	channel  int // 0-based index into each interleaved frame
	channels int
	buf      []float32
	frames   int // Frames loaded by the current callback
}

// NewStreamPort preallocates room for maxFrames frames. channel is 1-based.
func NewStreamPort(name string, channel, channels, maxFrames int) (*StreamPort, error) {
	if channels < 1 {
		return nil, fmt.Errorf("stream port %s: channel count must be positive, got %d", name, channels)
	}
	if channel < 1 || channel > channels {
		return nil, fmt.Errorf("stream port %s: channel %d out of range 1..%d", name, channel, channels)
	}
	if maxFrames < 1 {
		return nil, fmt.Errorf("stream port %s: max frames must be positive, got %d", name, maxFrames)
	}
	return &StreamPort{
		name:     name,
		channel:  channel - 1,
		channels: channels,
		buf:      make([]float32, maxFrames),
	}, nil
}

// Name implements observer.Port.
func (p *StreamPort) Name() string {
	return p.name
}

// Buffer implements observer.Port. It returns the samples loaded for the
// current callback.
func (p *StreamPort) Buffer(frames int) ([]float32, error) {
	if frames > p.frames {
		return nil, ErrFrameCount
	}
	return p.buf[:frames], nil
}

// load deinterleaves the port's channel out of in and returns the frame count.
// Frames beyond the preallocated capacity are ignored.
func (p *StreamPort) load(in []float32) int {
	frames := min(len(in)/p.channels, len(p.buf))
	for i := range frames {
		p.buf[i] = in[i*p.channels+p.channel]
	}
	p.frames = frames
	return frames
}
