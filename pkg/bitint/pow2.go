// SPDX-License-Identifier: MIT
/*
Package bitint provides the power-of-two helpers used to size lock-free
ring buffers. A ring whose capacity is a power of two can map a running
position onto a slot with a mask instead of a modulo, which keeps the
producer side on the audio callback branch-free and division-free.

	capacity := bitint.NextPowerOfTwo(1000) // 1024
	mask := bitint.Mask(capacity)           // 1023
	slot := position & mask

All functions are allocation free and constant time.
*/
package bitint

import "math/bits"

// NextPowerOfTwo returns the smallest power of 2 >= size. Values <= 1 return 1.
// The subtraction keeps exact powers of two unchanged: for 8, bits.Len(7) is 3
// and 1<<3 is 8, whereas bits.Len(8) would give 16.
func NextPowerOfTwo(size int) int {
	if size <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(size-1))
}

// Mask returns capacity-1 as a uint64 index mask. capacity must be a power of
// two; any other value returns the mask of the next power of two.
func Mask(capacity int) uint64 {
	return uint64(NextPowerOfTwo(capacity) - 1)
}
