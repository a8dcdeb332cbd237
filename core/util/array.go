package util

import (
	"math"
)

// util/ArrayUtil.java

/* Maximum length for an array */
const MAX_ARRAY_LENGTH = math.MaxInt32 - NUM_BYTES_ARRAY_HEADER

/*
Returns an array size >= minTargetSize, generally over-allocating
exponentially to achieve amortized linear-time cost as the array
grows.

bytesPerElement is the number of bytes used by each element of the
array. See constants in ramUsageEstimator.go.
*/
func Oversize(minTargetSize int, bytesPerElement int) int {
	// catch usage that accidentally overflows int
	assert2(minTargetSize >= 0, "invalid array size %v", minTargetSize)

	if minTargetSize == 0 {
		// wait until at least one element is requested
		return 0
	}

	assert2(minTargetSize <= MAX_ARRAY_LENGTH,
		"requested array size %v exceeds maximum array in Go (%v)", minTargetSize, MAX_ARRAY_LENGTH)

	// asymptotic exponential growth by 1/8th, favors
	// spending a bit more CPU to not tie up too much wasted
	// RAM:
	extra := minTargetSize >> 3
	if extra < 3 {
		// for very small arrays, where constant overhead of
		// realloc is presumably relatively high, we grow
		// faster
		extra = 3
	}

	newSize := minTargetSize + extra
	// add 7 to allow for worst case byte alignment addition below:
	if n := int64(newSize + 7); n > MAX_ARRAY_LENGTH {
		// we exceeded the maximum array length
		return MAX_ARRAY_LENGTH
	}

	// golucene assumes a 64bit platform
	switch bytesPerElement {
	case 4:
		// round up to multiple of 2
		return (newSize + 1) & 0x7ffffffe
	case 2:
		// round up to multiple of 4
		return (newSize + 3) & 0x7ffffffc
	case 1:
		// round up to multiple of 8
		return (newSize + 7) & 0x7ffffff8
	default:
		// no rounding for 8 bytes and odd sizes
		return newSize
	}
}

func GrowIntSlice(arr []int, minSize int) []int {
	assert2(minSize >= 0, "size must be positive (got %v): likely integer overflow?", minSize)
	if len(arr) < minSize {
		newArr := make([]int, Oversize(minSize, NUM_BYTES_INT))
		copy(newArr, arr)
		return newArr
	}
	return arr
}

func GrowInt32Slice(arr []int32, minSize int) []int32 {
	assert2(minSize >= 0, "size must be positive (got %v): likely integer overflow?", minSize)
	if len(arr) < minSize {
		newArr := make([]int32, Oversize(minSize, 4))
		copy(newArr, arr)
		return newArr
	}
	return arr
}

/* Grows arr so that len(arr) >= minSize, keeping the existing prefix. */
func GrowByteSlice(arr []byte, minSize int) []byte {
	assert2(minSize >= 0, "size must be positive (got %v): likely integer overflow?", minSize)
	if len(arr) < minSize {
		newArr := make([]byte, Oversize(minSize, 1))
		copy(newArr, arr)
		return newArr
	}
	return arr
}
