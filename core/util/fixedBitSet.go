package util

import (
	"github.com/bits-and-blooms/bitset"
)

// util/FixedBitSet.java

/*
BitSet of fixed length (numBits), backed by a slice of 64-bit words.
Bit i lives in word i>>6 at position i&63, which is the layout dense
doc-id blocks are written in.
*/
type FixedBitSet struct {
	bits    *bitset.BitSet
	numBits int
}

func NewFixedBitSet(numBits int) *FixedBitSet {
	assert2(numBits >= 0, "numBits must be >= 0, got %v", numBits)
	return &FixedBitSet{
		bits:    bitset.New(uint(numBits)),
		numBits: numBits,
	}
}

/* Returns the number of 64 bit words it would take to hold numBits */
func Bits2Words(numBits int) int {
	return ((numBits - 1) >> 6) + 1
}

func (b *FixedBitSet) Length() int {
	return b.numBits
}

func (b *FixedBitSet) At(index int) bool {
	assert2(index >= 0 && index < b.numBits, "index=%v, numBits=%v", index, b.numBits)
	return b.bits.Test(uint(index))
}

func (b *FixedBitSet) Set(index int) {
	assert2(index >= 0 && index < b.numBits, "index=%v, numBits=%v", index, b.numBits)
	b.bits.Set(uint(index))
}

func (b *FixedBitSet) Clear(index int) {
	assert2(index >= 0 && index < b.numBits, "index=%v, numBits=%v", index, b.numBits)
	b.bits.Clear(uint(index))
}

/* Clears all bits. */
func (b *FixedBitSet) ClearAll() {
	b.bits.ClearAll()
}

/* Returns number of set bits. */
func (b *FixedBitSet) Cardinality() int {
	return int(b.bits.Count())
}

/* Returns the index of the first set bit starting at the index specified, or -1. */
func (b *FixedBitSet) NextSetBit(index int) int {
	if index >= b.numBits {
		return -1
	}
	if i, ok := b.bits.NextSet(uint(index)); ok && int(i) < b.numBits {
		return int(i)
	}
	return -1
}

/* Expert: the backing words, lowest bits first. */
func (b *FixedBitSet) Words() []uint64 {
	return b.bits.Bytes()[:Bits2Words(b.numBits)]
}

func (b *FixedBitSet) RamBytesUsed() int64 {
	return AlignObjectSize(NUM_BYTES_OBJECT_HEADER+NUM_BYTES_OBJECT_REF+NUM_BYTES_INT) +
		SizeOf(b.Words())
}
