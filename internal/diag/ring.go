// SPDX-License-Identifier: MIT
/*
Package diag moves observed samples off the audio callback thread.

The callback pushes into a bounded single-producer/single-consumer ring
that never blocks and never allocates; when the ring is full the sample is
dropped and counted. A Drainer goroutine empties the ring on a ticker and
hands batches to a transport, where formatting and I/O happen.
*/
package diag

import (
	"sync/atomic"

	"probe/internal/transport"
	"probe/pkg/bitint"
)

// cacheLinePad separates the producer and consumer cursors so they do not
// share a cache line.
type cacheLinePad [64]byte

// Ring is a lock-free SPSC queue of samples. Exactly one goroutine may call
// Push and exactly one may call Pop/Drain.
type Ring struct {
	slots []transport.Sample
	mask  uint64

	_    cacheLinePad
	head atomic.Uint64 // Next slot to write, owned by the producer
	_    cacheLinePad
	tail atomic.Uint64 // Next slot to read, owned by the consumer
	_    cacheLinePad

	dropped atomic.Uint64
}

// NewRing returns a ring holding at least capacity samples. The capacity is
// rounded up to a power of two.
func NewRing(capacity int) *Ring {
	size := bitint.NextPowerOfTwo(capacity)
	return &Ring{
		slots: make([]transport.Sample, size),
		mask:  bitint.Mask(size),
	}
}

// Cap returns the number of slots.
func (r *Ring) Cap() int {
	return len(r.slots)
}

// Len returns the number of queued samples. It is exact only when called by
// the producer or consumer.
func (r *Ring) Len() int {
	return int(r.head.Load() - r.tail.Load())
}

// Push enqueues s. It returns false and counts a drop when the ring is full.
func (r *Ring) Push(s transport.Sample) bool {
	head := r.head.Load()
	if head-r.tail.Load() == uint64(len(r.slots)) {
		r.dropped.Add(1)
		return false
	}
	r.slots[head&r.mask] = s
	r.head.Store(head + 1)
	return true
}

// Pop dequeues one sample.
func (r *Ring) Pop() (transport.Sample, bool) {
	tail := r.tail.Load()
	if tail == r.head.Load() {
		return transport.Sample{}, false
	}
	s := r.slots[tail&r.mask]
	r.tail.Store(tail + 1)
	return s, true
}

// Drain moves up to len(dst) samples into dst and returns how many it moved.
func (r *Ring) Drain(dst []transport.Sample) int {
	tail := r.tail.Load()
	avail := r.head.Load() - tail
	n := min(uint64(len(dst)), avail)
	for i := range n {
		dst[i] = r.slots[(tail+i)&r.mask]
	}
	r.tail.Store(tail + n)
	return int(n)
}

// HasRoom reports whether n more samples fit. Only the producer gets an exact
// answer; the consumer can only free slots, so a true result stays true.
// Requests larger than the ring are satisfied once it is empty.
func (r *Ring) HasRoom(n int) bool {
	free := len(r.slots) - r.Len()
	return free >= min(n, len(r.slots))
}

// Dropped returns the number of samples rejected because the ring was full.
func (r *Ring) Dropped() uint64 {
	return r.dropped.Load()
}

// Sink adapts a Ring to the observer's Sink interface.
type Sink struct {
	ring *Ring
}

// NewSink returns a Sink writing into ring.
func NewSink(ring *Ring) *Sink {
	return &Sink{ring: ring}
}

// Emit queues one sample without blocking.
func (s *Sink) Emit(index int, value float32) {
	s.ring.Push(transport.Sample{Index: index, Value: value})
}
