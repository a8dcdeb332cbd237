package packed

import (
	"fmt"

	"github.com/ironsweet/golucene-core/core/util"
)

// util/packed/Packed64.java

const (
	PACKED64_BLOCK_SIZE = 64                      // 32 = int, 64 = long
	PACKED64_BLOCK_BITS = 6                       // The #bits representing BLOCK_SIZE
	PACKED64_MOD_MASK   = PACKED64_BLOCK_SIZE - 1 // x % BLOCK_SIZE
)

/*
Space optimized random access capable array of values with a fixed
number of bits/value. Values are packed contiguously.

The implementation strives to perform as fast as possible under the
constraint of contiguous bits, by avoiding expensive operations. This
comes at the cost of code clarity.
*/
type Packed64 struct {
	mutableImpl
	blocks []uint64
	// A right-aligned mask of width BitsPerValue used by Get().
	maskRight uint64
	// Optimization: Saves one lookup in Get().
	bpvMinusBlockSize int64
}

func newPacked64(valueCount, bitsPerValue int) *Packed64 {
	longCount := numBlocks(int64(valueCount)*int64(bitsPerValue), PACKED64_BLOCK_SIZE)
	return &Packed64{
		mutableImpl:       newMutableImpl(valueCount, bitsPerValue),
		blocks:            make([]uint64, longCount),
		maskRight:         ^uint64(0) << uint(PACKED64_BLOCK_SIZE-bitsPerValue) >> uint(PACKED64_BLOCK_SIZE-bitsPerValue),
		bpvMinusBlockSize: int64(bitsPerValue) - PACKED64_BLOCK_SIZE,
	}
}

func (p *Packed64) Get(index int) int64 {
	// The abstract index in a bit stream
	majorBitPos := int64(index) * int64(p.bitsPerValue)
	// The index in the backing long-array
	elementPos := majorBitPos >> PACKED64_BLOCK_BITS
	// The number of value-bits in the second long
	endBits := (majorBitPos & PACKED64_MOD_MASK) + p.bpvMinusBlockSize

	if endBits <= 0 { // Single block
		return int64((p.blocks[elementPos] >> uint(-endBits)) & p.maskRight)
	}
	// Two blocks
	return int64(((p.blocks[elementPos] << uint(endBits)) |
		(p.blocks[elementPos+1] >> uint(PACKED64_BLOCK_SIZE-endBits))) & p.maskRight)
}

func (p *Packed64) Set(index int, value int64) {
	v := uint64(value)
	majorBitPos := int64(index) * int64(p.bitsPerValue)
	elementPos := majorBitPos >> PACKED64_BLOCK_BITS
	endBits := (majorBitPos & PACKED64_MOD_MASK) + p.bpvMinusBlockSize

	if endBits <= 0 { // Single block
		p.blocks[elementPos] = p.blocks[elementPos]&^(p.maskRight<<uint(-endBits)) |
			(v << uint(-endBits))
		return
	}
	// Two blocks
	p.blocks[elementPos] = p.blocks[elementPos]&^(p.maskRight>>uint(endBits)) |
		(v >> uint(endBits))
	p.blocks[elementPos+1] = p.blocks[elementPos+1]&(^uint64(0)>>uint(endBits)) |
		(v << uint(PACKED64_BLOCK_SIZE-endBits))
}

func (p *Packed64) Clear() {
	for i := range p.blocks {
		p.blocks[i] = 0
	}
}

func (p *Packed64) String() string {
	return fmt.Sprintf("Packed64(bitsPerValue=%v, size=%v, elements.length=%v)",
		p.bitsPerValue, p.Size(), len(p.blocks))
}

func (p *Packed64) RamBytesUsed() int64 {
	return util.AlignObjectSize(
		util.NUM_BYTES_OBJECT_HEADER+
			3*util.NUM_BYTES_INT+
			util.NUM_BYTES_LONG+
			util.NUM_BYTES_OBJECT_REF) +
		util.SizeOf(p.blocks)
}
