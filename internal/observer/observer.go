// SPDX-License-Identifier: MIT
/*
Package observer implements the sample observer: a component that holds a
reference to one audio input port and, each time the audio host invokes
OnBlock for a block of frames, forwards every sample of that block to a
diagnostic sink.

Thread Safety:
  - SetPort runs on a non-real-time thread; OnBlock runs on the audio
    callback thread. The port is published through an atomic pointer, so
    OnBlock sees either the previous port or the new one, never a torn value.
  - OnBlock takes no locks, performs no I/O and allocates nothing. The sink
    it writes to must hold to the same rules.
*/
package observer

import (
	"sync/atomic"
)

// Port is the audio host's input endpoint. The observer does not own it.
type Port interface {
	// Name identifies the port, "client:port" style.
	Name() string
	// Buffer returns the current block of samples for the port. The slice
	// belongs to the host and is only valid for the current callback.
	Buffer(frames int) ([]float32, error)
}

// Sink receives every observed sample. Emit is called on the audio callback
// thread and must not block.
type Sink interface {
	Emit(index int, value float32)
}

// State is the observer's lifecycle state.
type State int

const (
	Uninitialized State = iota
	Ready
)

func (s State) String() string {
	if s == Ready {
		return "READY"
	}
	return "UNINITIALIZED"
}

// portRef boxes the interface so it can live behind an atomic.Pointer.
type portRef struct {
	port Port
}

// Observer samples one port per block. The zero value is not usable; use New.
type Observer struct {
	port atomic.Pointer[portRef]
	sink Sink

	handled    atomic.Uint64
	skipped    atomic.Uint64
	failed     atomic.Uint64
	lastStatus atomic.Int32
}

// New returns an Observer in the Uninitialized state that emits into sink.
func New(sink Sink) *Observer {
	if sink == nil {
		sink = discard{}
	}
	return &Observer{sink: sink}
}

// SetPort records the port observed by subsequent OnBlock calls. The last
// call wins. Passing nil detaches the port, after which OnBlock is a no-op
// again; hosts do this when the port is torn down.
func (o *Observer) SetPort(p Port) {
	if p == nil {
		o.port.Store(nil)
		return
	}
	o.port.Store(&portRef{port: p})
}

// Port returns the current port or nil.
func (o *Observer) Port() Port {
	if ref := o.port.Load(); ref != nil {
		return ref.port
	}
	return nil
}

// State reports Ready while a port is set.
func (o *Observer) State() State {
	if o.port.Load() == nil {
		return Uninitialized
	}
	return Ready
}

// OnBlock is the per-block audio callback. Without a port it returns StatusOK
// and emits nothing. With a port it emits (i, buf[i]) for i in 0..frames-1, in
// order. Precondition violations end the call early with a nonzero status.
func (o *Observer) OnBlock(frames int) (status Status) {
	ref := o.port.Load()
	if ref == nil {
		o.skipped.Add(1)
		return StatusOK
	}

	defer func() {
		if r := recover(); r != nil {
			status = o.fail(StatusFault)
		}
	}()

	if frames <= 0 {
		return o.fail(StatusInvalidFrames)
	}

	buf, err := ref.port.Buffer(frames)
	if err != nil {
		return o.fail(StatusBufferError)
	}
	if len(buf) < frames {
		return o.fail(StatusShortBuffer)
	}

	for i, v := range buf[:frames] {
		o.sink.Emit(i, v)
	}

	o.handled.Add(1)
	return StatusOK
}

func (o *Observer) fail(s Status) Status {
	o.failed.Add(1)
	o.lastStatus.Store(int32(s))
	return s
}

// Stats is a snapshot of the observer's counters.
type Stats struct {
	Handled    uint64 // Blocks whose samples were emitted
	Skipped    uint64 // Blocks seen without a port
	Failed     uint64 // Blocks that ended with a nonzero status
	LastStatus Status // Most recent nonzero status, StatusOK if none
}

// Stats reads the counters. Safe to call from any goroutine.
func (o *Observer) Stats() Stats {
	return Stats{
		Handled:    o.handled.Load(),
		Skipped:    o.skipped.Load(),
		Failed:     o.failed.Load(),
		LastStatus: Status(o.lastStatus.Load()),
	}
}

type discard struct{}

func (discard) Emit(int, float32) {}
