// SPDX-License-Identifier: MIT
package utils

import (
	"math"
	"sync"

	"probe/internal/transport"
)

// MockTransport implements transport.Transport for testing. It records every
// batch it is sent and returns Err from Send.
type MockTransport struct {
	mu         sync.Mutex
	samples    []transport.Sample
	batchSizes []int
	closed     bool

	Err error
}

// Send stores a copy of the batch for later inspection instead of transmitting.
func (m *MockTransport) Send(batch []transport.Sample) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.samples = append(m.samples, batch...)
	m.batchSizes = append(m.batchSizes, len(batch))
	return m.Err
}

func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Samples returns everything sent so far, in order.
func (m *MockTransport) Samples() []transport.Sample {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]transport.Sample(nil), m.samples...)
}

// BatchSizes returns the length of each Send call.
func (m *MockTransport) BatchSizes() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.batchSizes...)
}

// Closed reports whether Close was called.
func (m *MockTransport) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// GenerateSineWave returns size samples of a sine at frequency with the given
// peak amplitude.
func GenerateSineWave(size int, sampleRate, frequency, amplitude float64) []float32 {
	buffer := make([]float32, size)
	for i := range buffer {
		t := float64(i) / sampleRate
		buffer[i] = float32(amplitude * math.Sin(2*math.Pi*frequency*t))
	}
	return buffer
}

// FindPeak returns the index of the largest absolute value, or -1 when
// values is empty.
func FindPeak(values []float32) int {
	peak := -1
	var peakValue float32
	for i, v := range values {
		if v < 0 {
			v = -v
		}
		if peak < 0 || v > peakValue {
			peak, peakValue = i, v
		}
	}
	return peak
}
