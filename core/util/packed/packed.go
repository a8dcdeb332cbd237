package packed

import (
	"fmt"
	"math"
	"math/bits"
)

// util/packed/PackedInts.java

/*
Simplistic compression for array of unsigned long values. Each value
is >= 0 and <= a specified maximum value. The values are stored as
packed ints, with each value consuming a fixed number of bits.
*/

const (
	// At most 700% memory overhead, always select a direct implementation.
	FASTEST = float32(7)
	// At most 50% memory overhead, always select a reasonably fast implementation.
	FAST = float32(0.5)
	// At most 25% memory overhead.
	DEFAULT = float32(0.25)
	// No memory overhead at all, but the returned implementation may be slow.
	COMPACT = float32(0)
)

/* A read-only random access array of positive integers. */
type PackedIntsReader interface {
	// Get the long at the given index. Behavior is undefined for out-of-range indices.
	Get(index int) int64
	// The number of values.
	Size() int
	RamBytesUsed() int64
}

/* A packed integer array that can be modified. */
type Mutable interface {
	PackedIntsReader
	// Returns the number of bits used to store any given value. Note:
	// this does not imply that memory usage is bpv * values() as
	// implementations are free to use non-space-optimal packing of
	// bits.
	BitsPerValue() int
	// Set the value at the given index in the array.
	Set(index int, value int64)
	// Sets all values to 0.
	Clear()
}

type mutableImpl struct {
	valueCount   int
	bitsPerValue int
}

func newMutableImpl(valueCount, bitsPerValue int) mutableImpl {
	assert2(bitsPerValue > 0 && bitsPerValue <= 64, "%v", bitsPerValue)
	assert(valueCount >= 0)
	return mutableImpl{valueCount, bitsPerValue}
}

func (m mutableImpl) BitsPerValue() int {
	return m.bitsPerValue
}

func (m mutableImpl) Size() int {
	return m.valueCount
}

/*
Try to find the number of bits per value that would read from disk
the fastest reader whose overhead is less than acceptableOverheadRatio.

The acceptableOverheadRatio parameter makes sense for random-access
Readers. In case you only plan to perform sequential access on this
stream later on, you should probably use COMPACT.
*/
func fastestBitsPerValue(bitsPerValue int, acceptableOverheadRatio float32) int {
	if acceptableOverheadRatio < COMPACT {
		acceptableOverheadRatio = COMPACT
	}
	if acceptableOverheadRatio > FASTEST {
		acceptableOverheadRatio = FASTEST
	}
	acceptableOverheadPerValue := acceptableOverheadRatio * float32(bitsPerValue) // in bits
	maxBitsPerValue := bitsPerValue + int(acceptableOverheadPerValue)

	switch {
	case bitsPerValue <= 8 && maxBitsPerValue >= 8:
		return 8
	case bitsPerValue <= 16 && maxBitsPerValue >= 16:
		return 16
	case bitsPerValue <= 32 && maxBitsPerValue >= 32:
		return 32
	case bitsPerValue <= 64 && maxBitsPerValue >= 64:
		return 64
	}
	return bitsPerValue
}

/*
Create a packed integer array with the given amount of values
initialized to 0. The valueCount and the bitsPerValue cannot be
changed after creation. All Mutables known by this factory are kept
fully in RAM.

Positive values of acceptableOverheadRatio will trade space for speed
by selecting a faster but potentially less memory-efficient
implementation. An acceptableOverheadRatio of COMPACT will make sure
that the most memory-efficient implementation is selected whereas
FASTEST will make sure that the fastest implementation is selected.
*/
func MutableFor(valueCount, bitsPerValue int, acceptableOverheadRatio float32) Mutable {
	assert(valueCount >= 0)
	switch bpv := fastestBitsPerValue(bitsPerValue, acceptableOverheadRatio); bpv {
	case 8:
		return newDirect8(valueCount)
	case 16:
		return newDirect16(valueCount)
	case 32:
		return newDirect32(valueCount)
	case 64:
		return newDirect64(valueCount)
	default:
		return newPacked64(valueCount, bpv)
	}
}

/*
Returns how many bits are required to hold values up to and including maxValue
NOTE: This method returns at least 1.
*/
func BitsRequired(maxValue int64) int {
	assert2(maxValue >= 0, "maxValue must be non-negative (got: %v)", maxValue)
	return UnsignedBitsRequired(maxValue)
}

/*
Returns how many bits are required to store bits, interpreted as an
unsigned value.
NOTE: This method returns at least 1.
*/
func UnsignedBitsRequired(v int64) int {
	if v == 0 {
		return 1
	}
	return 64 - bits.LeadingZeros64(uint64(v))
}

// Calculate the maximum unsigned long that can be expressed with the given number of bits
func MaxValue(bitsPerValue int) int64 {
	if bitsPerValue == 64 {
		return math.MaxInt64
	}
	return (1 << uint64(bitsPerValue)) - 1
}

/* Copy src[srcPos:srcPos+len] into dest[destPos:destPos+len]. */
func Copy(src PackedIntsReader, srcPos int, dest Mutable, destPos, length int) {
	assert(srcPos+length <= src.Size())
	assert(destPos+length <= dest.Size())
	for i := 0; i < length; i++ {
		dest.Set(destPos+i, src.Get(srcPos+i))
	}
}

/* Check that the block size is a power of 2, in the right bounds, and return its log in base 2. */
func checkBlockSize(blockSize, minBlockSize, maxBlockSize int) int {
	assert2(blockSize >= minBlockSize && blockSize <= maxBlockSize,
		"blockSize must be >= %v and <= %v, got %v",
		minBlockSize, maxBlockSize, blockSize)
	assert2((blockSize&(blockSize-1)) == 0,
		"blockSize must be a power of 2, got %v", blockSize)
	return bits.TrailingZeros(uint(blockSize))
}

/* Return the number of blocks required to store size values on blockSize. */
func numBlocks(size int64, blockSize int) int {
	numBlocks := int(size / int64(blockSize))
	if size%int64(blockSize) != 0 {
		numBlocks++
	}
	assert2(int64(numBlocks)*int64(blockSize) >= size, "size is too large for this block size")
	return numBlocks
}

func assert(ok bool) {
	assert2(ok, "assert fail")
}

func assert2(ok bool, msg string, args ...interface{}) {
	if !ok {
		panic(fmt.Sprintf(msg, args...))
	}
}
