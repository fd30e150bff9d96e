// SPDX-License-Identifier: MIT
package bitint

import (
	"fmt"
	"testing"
)

func TestNextPowerOfTwo(t *testing.T) {
	tests := []struct {
		n        int
		expected int
	}{
		{-10, 1},         // Negative number
		{0, 1},           // Zero
		{1, 1},           // One
		{8, 8},           // Already power of two
		{10, 16},         // Not power of two
		{1000, 1024},     // Large number
		{65537, 1 << 17}, // Just past a power of two
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d→%d", tt.n, tt.expected), func(t *testing.T) {
			result := NextPowerOfTwo(tt.n)
			if result != tt.expected {
				t.Errorf("NextPowerOfTwo(%d) = %d, expected %d", tt.n, result, tt.expected)
			}
		})
	}
}

func TestMask(t *testing.T) {
	tests := []struct {
		capacity int
		expected uint64
	}{
		{1, 0},
		{2, 1},
		{1024, 1023},
		{1000, 1023}, // Rounded up first
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d→%d", tt.capacity, tt.expected), func(t *testing.T) {
			if got := Mask(tt.capacity); got != tt.expected {
				t.Errorf("Mask(%d) = %d, expected %d", tt.capacity, got, tt.expected)
			}
		})
	}
}

func BenchmarkNextPowerOfTwo(b *testing.B) {
	var i int
	b.ReportAllocs()
	for b.Loop() {
		NextPowerOfTwo(i % 10000)
		i++
	}
}
