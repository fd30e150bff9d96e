// SPDX-License-Identifier: MIT
package utils

import (
	"errors"
	"math"
	"testing"

	"probe/internal/transport"
)

func TestMockTransport(t *testing.T) {
	tests := []struct {
		name  string
		batch []transport.Sample
	}{
		{"Empty Batch", []transport.Sample{}},
		{"Single Sample", []transport.Sample{{Index: 0, Value: 0.5}}},
		{"Multiple Samples", []transport.Sample{{Index: 0, Value: 0.1}, {Index: 1, Value: 0.2}, {Index: 2, Value: 0.3}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mt := &MockTransport{}
			if err := mt.Send(tt.batch); err != nil {
				t.Errorf("Send() error = %v", err)
			}
			if got := mt.Samples(); len(got) != len(tt.batch) {
				t.Errorf("stored %d samples, want %d", len(got), len(tt.batch))
			}

			if len(tt.batch) > 0 {
				tt.batch[0].Value = 999
				if mt.Samples()[0].Value == 999 {
					t.Errorf("Send() stored a reference instead of a copy")
				}
			}
		})
	}

	mt := &MockTransport{Err: errors.New("down")}
	if err := mt.Send(nil); err == nil {
		t.Error("expected configured error")
	}
	mt.Close()
	if !mt.Closed() {
		t.Error("Closed() = false after Close")
	}
	if sizes := mt.BatchSizes(); len(sizes) != 1 || sizes[0] != 0 {
		t.Errorf("BatchSizes() = %v", sizes)
	}
}

func TestGenerateSineWave(t *testing.T) {
	tests := []struct {
		name       string
		size       int
		sampleRate float64
		frequency  float64
	}{
		{"A4 Note", 1024, 44100, 440.0},
		{"Middle C", 1024, 44100, 261.63},
		{"High Sample Rate", 1024, 192000, 440.0},
		{"Low Sample Rate", 1024, 8000, 440.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := GenerateSineWave(tt.size, tt.sampleRate, tt.frequency, 0.5)
			if len(result) != tt.size {
				t.Fatalf("buffer size = %d, want %d", len(result), tt.size)
			}

			for i, v := range result {
				if v > 0.5 || v < -0.5 {
					t.Fatalf("sample %d = %v exceeds amplitude", i, v)
				}
			}

			// Two zero crossings per cycle.
			samplesPerCycle := tt.sampleRate / tt.frequency
			crossCount := 0
			for i := 1; i < tt.size; i++ {
				if (result[i-1] < 0) != (result[i] < 0) {
					crossCount++
				}
			}
			expected := float64(tt.size) / (samplesPerCycle / 2)
			if tolerance := 0.2 * expected; math.Abs(float64(crossCount)-expected) > tolerance {
				t.Errorf("zero crossings = %d, expected approximately %.1f±%.1f",
					crossCount, expected, tolerance)
			}
		})
	}
}

func TestFindPeak(t *testing.T) {
	tests := []struct {
		name     string
		values   []float32
		expected int
	}{
		{"Empty", nil, -1},
		{"Single", []float32{0}, 0},
		{"Positive Peak", []float32{0.1, 0.9, 0.3}, 1},
		{"Negative Peak", []float32{0.1, 0.5, -0.75}, 2},
		{"First Of Equal", []float32{0.5, -0.5}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FindPeak(tt.values); got != tt.expected {
				t.Errorf("FindPeak() = %d, want %d", got, tt.expected)
			}
		})
	}
}
