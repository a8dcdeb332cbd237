package fst

import (
	"math/bits"
)

// fst/BitTableUtil.java

/*
Static helper methods for FST bit tables. A bit table is read through
a BytesReader positioned on its first byte; bit i lives in byte i>>3.
*/

/* Returns whether the bit at given zero-based index is set. */
func isBitSet(bitIndex int, in BytesReader) (bool, error) {
	in.SkipBytes(int64(bitIndex >> 3))
	b, err := in.ReadByte()
	if err != nil {
		return false, err
	}
	return b&(1<<uint(bitIndex&7)) != 0, nil
}

/* Counts all bits set in the bit table. */
func countBits(bitTableBytes int, in BytesReader) (int, error) {
	assert2(bitTableBytes >= 0, "bitTableBytes must be >= 0 and got %v", bitTableBytes)
	bitCount := 0
	for i := bitTableBytes >> 3; i > 0; i-- {
		// count the bits set for complete words
		w, err := readUpTo8Bytes(8, in)
		if err != nil {
			return 0, err
		}
		bitCount += bits.OnesCount64(w)
	}
	if remaining := bitTableBytes & 7; remaining != 0 {
		w, err := readUpTo8Bytes(remaining, in)
		if err != nil {
			return 0, err
		}
		bitCount += bits.OnesCount64(w)
	}
	return bitCount, nil
}

/* Counts the bits set up to the given bit zero-based index, exclusive. */
func countBitsUpTo(bitIndex int, in BytesReader) (int, error) {
	assert2(bitIndex >= 0, "bitIndex must be >= 0 and got %v", bitIndex)
	bitCount := 0
	for i := bitIndex >> 6; i > 0; i-- {
		w, err := readUpTo8Bytes(8, in)
		if err != nil {
			return 0, err
		}
		bitCount += bits.OnesCount64(w)
	}
	if remainingBits := bitIndex & 63; remainingBits != 0 {
		numRemainingBytes := (remainingBits + 7) >> 3
		// mask with 1s on the right up to bitIndex exclusive
		mask := uint64(1)<<uint(remainingBits) - 1
		w, err := readUpTo8Bytes(numRemainingBytes, in)
		if err != nil {
			return 0, err
		}
		bitCount += bits.OnesCount64(w & mask)
	}
	return bitCount, nil
}

/*
Returns the index of the next bit set following the given bit
zero-based index, or -1 if none. bitIndex may be -1 to find the
first bit set.
*/
func nextBitSet(bitIndex, bitTableBytes int, in BytesReader) (int, error) {
	assert2(bitIndex >= -1 && bitIndex < bitTableBytes*8,
		"bitIndex=%v bitTableBytes=%v", bitIndex, bitTableBytes)
	byteIndex := bitIndex / 8
	mask := -1 << uint((bitIndex+1)&7)
	var i int
	if mask == -1 && bitIndex != -1 {
		in.SkipBytes(int64(byteIndex + 1))
		i = 0
	} else {
		in.SkipBytes(int64(byteIndex))
		b, err := in.ReadByte()
		if err != nil {
			return 0, err
		}
		i = int(b) & mask
	}
	for i == 0 {
		if byteIndex++; byteIndex == bitTableBytes {
			return -1, nil
		}
		b, err := in.ReadByte()
		if err != nil {
			return 0, err
		}
		i = int(b)
	}
	return bits.TrailingZeros(uint(i)) + byteIndex<<3, nil
}

/*
Returns the index of the previous bit set preceding the given bit
zero-based index, or -1 if none. Requires a reader that can skip
backwards.
*/
func previousBitSet(bitIndex int, in BytesReader) (int, error) {
	assert2(bitIndex >= 0, "bitIndex=%v", bitIndex)
	byteIndex := bitIndex >> 3
	in.SkipBytes(int64(byteIndex))
	mask := 1<<uint(bitIndex&7) - 1
	b, err := in.ReadByte()
	if err != nil {
		return 0, err
	}
	i := int(b) & mask
	for i == 0 {
		if byteIndex == 0 {
			return -1, nil
		}
		byteIndex--
		// step back over the byte just read and the one before it
		in.SkipBytes(-2)
		if b, err = in.ReadByte(); err != nil {
			return 0, err
		}
		i = int(b)
	}
	return 7 - bits.LeadingZeros8(uint8(i)) + byteIndex<<3, nil
}

func readUpTo8Bytes(numBytes int, in BytesReader) (uint64, error) {
	var l uint64
	for shift := uint(0); numBytes > 0; numBytes-- {
		b, err := in.ReadByte()
		if err != nil {
			return 0, err
		}
		l |= uint64(b) << shift
		shift += 8
	}
	return l, nil
}

/* Number of bytes of a presence bit table covering labelRange labels. */
func numPresenceBytes(labelRange int) int {
	assert2(labelRange >= 0, "labelRange=%v", labelRange)
	return (labelRange + 7) >> 3
}

// Arc-level helpers over a direct addressing node's presence bits.

func isArcBitSet[T any](bitIndex int, arc *Arc[T], in BytesReader) (bool, error) {
	assert(arc.nodeFlags == ARCS_FOR_DIRECT_ADDRESSING)
	in.SetPosition(arc.bitTableStart)
	return isBitSet(bitIndex, in)
}

func countArcBits[T any](arc *Arc[T], in BytesReader) (int, error) {
	assert(arc.nodeFlags == ARCS_FOR_DIRECT_ADDRESSING)
	in.SetPosition(arc.bitTableStart)
	return countBits(numPresenceBytes(arc.numArcs), in)
}

func countArcBitsUpTo[T any](bitIndex int, arc *Arc[T], in BytesReader) (int, error) {
	assert(arc.nodeFlags == ARCS_FOR_DIRECT_ADDRESSING)
	in.SetPosition(arc.bitTableStart)
	return countBitsUpTo(bitIndex, in)
}

func nextArcBitSet[T any](bitIndex int, arc *Arc[T], in BytesReader) (int, error) {
	assert(arc.nodeFlags == ARCS_FOR_DIRECT_ADDRESSING)
	in.SetPosition(arc.bitTableStart)
	return nextBitSet(bitIndex, numPresenceBytes(arc.numArcs), in)
}

func previousArcBitSet[T any](bitIndex int, arc *Arc[T], in BytesReader) (int, error) {
	assert(arc.nodeFlags == ARCS_FOR_DIRECT_ADDRESSING)
	in.SetPosition(arc.bitTableStart)
	return previousBitSet(bitIndex, in)
}
