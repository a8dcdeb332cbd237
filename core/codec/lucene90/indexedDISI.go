package lucene90

import (
	"fmt"
	"io"
	"math/bits"

	"github.com/ironsweet/golucene-core/core/codec"
	"github.com/ironsweet/golucene-core/core/search/model"
	"github.com/ironsweet/golucene-core/core/store"
	"github.com/ironsweet/golucene-core/core/util"
	"github.com/op/go-logging"
	"github.com/pkg/errors"
)

var log = logging.MustGetLogger("lucene90")

// codecs/lucene90/IndexedDISI.java

/*
Disk-based implementation of a DocIdSetIterator which can return the
index of the current document, i.e. the ordinal of the current
document among the list of documents that this iterator can return.
This is useful to implement sparse doc values by only having to encode
values for documents that actually have a value.

Implementation-wise, this DocIdSetIterator is inspired of roaring
bitmaps and encodes ranges of 65536 documents independently and picks
between 3 encodings depending on the density of the range:

  - ALL if the range contains 65536 documents exactly,
  - DENSE if the range contains 4096 documents or more; in that case
    documents are stored in a bit set,
  - SPARSE otherwise, and the lower 16 bits of the doc IDs are stored
    in a short.

Only ranges that contain at least one value are encoded.

This implementation uses 6 bytes per document in the worst-case, which
happens in the case that all ranges contain exactly one document.

To avoid O(n) lookup time complexity, with n being the number of
documents, two lookup tables are used: a lookup table for block offset
and index, and a rank structure for DENSE block index lookups.

The lookup table is an array of int-pairs, with a pair for each block.
It allows for direct jumping to the block, as opposed to iteration
from the current position and forward one block at a time.

Each int-pair entry consists of 2 logical parts: the index of the
first set bit in the block, and the offset of the block relative to
the start of the structure.

The rank structure for DENSE blocks is an array of byte-pairs with an
entry for each sub-block (default 512 bits) out of the 65536 bits in
the outer DENSE block. Each rank-entry states the number of set bits
within the block up to the bit before the bit positioned at the start
of the sub-block.
*/
type IndexedDISI struct {
	// slice to read from, positioned to the start of the block data
	slice store.IndexInput
	// jump table; nil when there is none
	jumpTable           store.RandomAccessInput
	jumpTableEntryCount int
	// the rank lookup table
	denseRankPower int8
	denseRankTable []byte
	cost           int64

	// current block, shifted left by 16; -1 before the first read
	block    int
	blockEnd int64
	// Only used for DENSE blocks
	denseBitmapOffset int64
	nextBlockIndex    int
	method            method
	doc               int
	index             int

	// SPARSE variables
	exists              bool
	nextExistDocInBlock int

	// DENSE variables
	word      uint64
	wordIndex int
	// number of one bits encountered so far, including those of `word`
	numberOfOnes int
	// Used with rank for jumps inside of DENSE as they are absolute instead of relative
	denseOrigoIndex int

	// ALL variables
	gap int
}

const (
	BLOCK_SIZE        = 65536
	DENSE_BLOCK_LONGS = BLOCK_SIZE / 64 // 1024
	// Default rank granularity: one entry every 512 bits.
	DEFAULT_DENSE_RANK_POWER = int8(9)

	MAX_ARRAY_LENGTH = (1 << 12) - 1

	intBytes       = 4
	jumpEntryBytes = 2 * intBytes
)

/* Per-block encoding. */
type method int

const (
	methodSparse method = iota
	methodDense
	methodAll
)

func (m method) String() string {
	switch m {
	case methodSparse:
		return "SPARSE"
	case methodDense:
		return "DENSE"
	case methodAll:
		return "ALL"
	}
	return fmt.Sprintf("method(%d)", int(m))
}

func checkDenseRankPower(denseRankPower int8) error {
	if (denseRankPower < 7 || denseRankPower > 15) && denseRankPower != -1 {
		return errors.Errorf(
			"Acceptable values for denseRankPower are 7-15 (every 128-32768 docIDs). "+
				"The provided power was %v (every %v docIDs)", denseRankPower, rankInterval(denseRankPower))
	}
	return nil
}

func rankInterval(denseRankPower int8) int64 {
	if denseRankPower < 0 || denseRankPower > 62 {
		return -1
	}
	return 1 << uint(denseRankPower)
}

func flush(block int, buffer *util.FixedBitSet, cardinality int,
	denseRankPower int8, out store.IndexOutput) error {

	assert2(block >= 0 && block < 65536, "block=%v", block)
	if err := out.WriteShort(int16(block)); err != nil {
		return err
	}
	assert2(cardinality > 0 && cardinality <= 65536, "cardinality=%v", cardinality)
	if err := out.WriteShort(int16(cardinality - 1)); err != nil {
		return err
	}
	if cardinality > MAX_ARRAY_LENGTH {
		if cardinality != 65536 { // all docs are set
			if denseRankPower != -1 {
				if err := out.WriteBytes(createRank(buffer, denseRankPower)); err != nil {
					return err
				}
			}
			for _, word := range buffer.Words() {
				if err := out.WriteLong(int64(word)); err != nil {
					return err
				}
			}
		}
		return nil
	}
	it := model.NewBitSetIterator(buffer, int64(cardinality))
	for doc, _ := it.NextDoc(); doc != model.NO_MORE_DOCS; doc, _ = it.NextDoc() {
		if err := out.WriteShort(int16(doc)); err != nil {
			return err
		}
	}
	return nil
}

/*
Creates a DENSE rank-entry (the number of set bits up to a given
point) for the buffer. One rank-entry for every 2^denseRankPower bits,
with each rank-entry using 2 bytes, high byte first.
*/
func createRank(buffer *util.FixedBitSet, denseRankPower int8) []byte {
	longsPerRank := 1 << uint(denseRankPower-6)
	rankMark := longsPerRank - 1
	rankIndexShift := uint(denseRankPower - 7) // 6 for the long (2^6) + 1 for 2 bytes/entry
	rank := make([]byte, DENSE_BLOCK_LONGS>>rankIndexShift)
	bitCount := 0
	for word, bits64 := range buffer.Words() {
		if word&rankMark == 0 { // Every longsPerRank longs
			rank[word>>rankIndexShift] = byte(bitCount >> 8)
			rank[(word>>rankIndexShift)+1] = byte(bitCount & 0xFF)
		}
		bitCount += bits.OnesCount64(bits64)
	}
	return rank
}

/*
Writes the docIDs from it to out, in logical blocks, one for each
65536 docIDs in monotonically increasing gap-less order. DENSE blocks
use a rank table with an entry for every 2^denseRankPower bits, or no
rank table when denseRankPower is -1.

The caller must keep track of the returned jump-table entry count and
denseRankPower and provide them when constructing an IndexedDISI for
reading.
*/
func WriteBitSet(it model.DocIdSetIterator, out store.IndexOutput, denseRankPower int8) (int16, error) {
	origo := out.FilePointer() // All jumps are relative to the origo
	if err := checkDenseRankPower(denseRankPower); err != nil {
		return 0, err
	}
	totalCardinality := 0
	blockCardinality := 0
	buffer := util.NewFixedBitSet(1 << 16)
	jumps := make([]int32, 0, util.Oversize(2, intBytes))
	prevBlock := -1
	jumpBlockIndex := 0

	doc, err := it.NextDoc()
	for ; err == nil && doc != model.NO_MORE_DOCS; doc, err = it.NextDoc() {
		block := int(uint32(doc) >> 16)
		if prevBlock != -1 && block != prevBlock {
			assert2(block > prevBlock, "docs out of order: block %v after %v", block, prevBlock)
			// Track offset+index from previous block up to current
			jumps = addJumps(jumps, out.FilePointer()-origo, totalCardinality, jumpBlockIndex, prevBlock+1)
			jumpBlockIndex = prevBlock + 1
			// Flush block
			if err = flush(prevBlock, buffer, blockCardinality, denseRankPower, out); err != nil {
				return 0, err
			}
			// Reset for next block
			buffer.ClearAll()
			totalCardinality += blockCardinality
			blockCardinality = 0
		}
		buffer.Set(doc & 0xFFFF)
		blockCardinality++
		prevBlock = block
	}
	if err != nil {
		return 0, err
	}
	if blockCardinality > 0 {
		jumps = addJumps(jumps, out.FilePointer()-origo, totalCardinality, jumpBlockIndex, prevBlock+1)
		totalCardinality += blockCardinality
		if err = flush(prevBlock, buffer, blockCardinality, denseRankPower, out); err != nil {
			return 0, err
		}
		buffer.ClearAll()
		prevBlock++
	}
	lastBlock := prevBlock // There will always be at least 1 block (NO_MORE_DOCS)
	if prevBlock == -1 {
		lastBlock = 0
	}
	// Last entry is a SPARSE with blockIndex == 32767 and the single
	// entry 65535, which becomes the docID NO_MORE_DOCS. Only a single
	// jump entry is created for it, pointing to the logical EMPTY block
	// after all real blocks.
	jumps = addJumps(jumps, out.FilePointer()-origo, totalCardinality, lastBlock, lastBlock+1)
	buffer.Set(model.NO_MORE_DOCS & 0xFFFF)
	if err = flush(model.NO_MORE_DOCS>>16, buffer, 1, denseRankPower, out); err != nil {
		return 0, err
	}
	// offset+index jump-table stored at the end
	return flushBlockJumps(jumps, lastBlock+1, out)
}

/* Same as WriteBitSet() with DEFAULT_DENSE_RANK_POWER. */
func WriteBitSetDefault(it model.DocIdSetIterator, out store.IndexOutput) (int16, error) {
	return WriteBitSet(it, out, DEFAULT_DENSE_RANK_POWER)
}

func addJumps(jumps []int32, offset int64, index, startBlock, endBlock int) []int32 {
	assert2(offset < 1<<31-1,
		"Logically the offset should not exceed 2^30 but was >= Integer.MAX_VALUE")
	if need := (endBlock + 1) * 2; len(jumps) < need {
		if cap(jumps) < need {
			jumps = append(make([]int32, 0, util.Oversize(need, intBytes)), jumps...)
		}
		jumps = jumps[:need]
	}
	for b := startBlock; b < endBlock; b++ {
		jumps[b*2] = int32(index)
		jumps[b*2+1] = int32(offset)
	}
	return jumps
}

func flushBlockJumps(jumps []int32, blockCount int, out store.IndexOutput) (int16, error) {
	// Jumps with at most a single real entry + NO_MORE_DOCS is just wasted space
	if blockCount <= 2 {
		log.Debugf("jump table of %v entries collapsed", blockCount)
		blockCount = 0
	}
	for i := 0; i < blockCount; i++ {
		if err := out.WriteInt(jumps[i*2]); err != nil { // index
			return 0, err
		}
		if err := out.WriteInt(jumps[i*2+1]); err != nil { // offset
			return 0, err
		}
	}
	// As there are at most 32k blocks, the count is a short
	return int16(blockCount), nil
}

/*
Helper method for using NewIndexedDISIFromSlices(). Creates a disiSlice
for the IndexedDISI data blocks, without the jump-table.
*/
func CreateBlockSlice(slice store.IndexInput, sliceDescription string,
	offset, length int64, jumpTableEntryCount int) (store.IndexInput, error) {

	var jumpTableBytes int64
	if jumpTableEntryCount > 0 {
		jumpTableBytes = int64(jumpTableEntryCount) * jumpEntryBytes
	}
	return slice.Slice(sliceDescription, offset, length-jumpTableBytes)
}

/*
Helper method for using NewIndexedDISIFromSlices(). Creates a
RandomAccessInput covering only the jump-table data or nil.
*/
func CreateJumpTable(slice store.IndexInput, offset, length int64,
	jumpTableEntryCount int) (store.RandomAccessInput, error) {

	if jumpTableEntryCount <= 0 {
		return nil, nil
	}
	jumpTableSize := int64(jumpTableEntryCount) * jumpEntryBytes
	return slice.RandomAccessSlice(offset+length-jumpTableSize, jumpTableSize)
}

/*
This constructor always creates a new blockSlice and a new jumpTable
from in, to ensure that operations are independent from the caller.
*/
func NewIndexedDISI(in store.IndexInput, offset, length int64,
	jumpTableEntryCount int, denseRankPower int8, cost int64) (*IndexedDISI, error) {

	blockSlice, err := CreateBlockSlice(in, "docs", offset, length, jumpTableEntryCount)
	if err != nil {
		return nil, err
	}
	jumpTable, err := CreateJumpTable(in, offset, length, jumpTableEntryCount)
	if err != nil {
		return nil, err
	}
	return NewIndexedDISIFromSlices(blockSlice, jumpTable, jumpTableEntryCount, denseRankPower, cost)
}

/*
This constructor allows to pass the slice and jumpTable directly in
case it helps reuse. See eg. Lucene80NormsProducer's merge instance.
*/
func NewIndexedDISIFromSlices(blockSlice store.IndexInput, jumpTable store.RandomAccessInput,
	jumpTableEntryCount int, denseRankPower int8, cost int64) (*IndexedDISI, error) {

	if err := checkDenseRankPower(denseRankPower); err != nil {
		return nil, err
	}
	ans := &IndexedDISI{
		slice:               blockSlice,
		jumpTableEntryCount: jumpTableEntryCount,
		denseRankPower:      denseRankPower,
		cost:                cost,
		block:               -1,
		denseBitmapOffset:   -1,
		nextBlockIndex:      -1,
		doc:                 -1,
		index:               -1,
		nextExistDocInBlock: -1,
		wordIndex:           -1,
	}
	// typed nil would defeat the nil check in advanceBlock
	if jumpTable != nil && jumpTableEntryCount > 0 {
		ans.jumpTable = jumpTable
	}
	if denseRankPower != -1 {
		ans.denseRankTable = make([]byte, DENSE_BLOCK_LONGS>>uint(denseRankPower-7))
	}
	return ans, nil
}

/*
Returns an independent cursor at the same position. The underlying
bytes are shared.
*/
func (d *IndexedDISI) Clone() *IndexedDISI {
	ans := *d
	ans.slice = d.slice.Clone()
	if d.denseRankTable != nil {
		ans.denseRankTable = append([]byte(nil), d.denseRankTable...)
	}
	return &ans
}

func (d *IndexedDISI) DocId() int {
	return d.doc
}

func (d *IndexedDISI) Advance(target int) (int, error) {
	if d.doc == model.NO_MORE_DOCS {
		return d.doc, nil
	}
	targetBlock := target &^ 0xFFFF
	if d.block < targetBlock {
		if err := d.advanceBlock(targetBlock); err != nil {
			return 0, err
		}
	}
	if d.block == targetBlock {
		found, err := d.advanceWithinBlock(target)
		if err != nil {
			return 0, err
		}
		if found {
			return d.doc, nil
		}
		if err = d.readBlockHeader(); err != nil {
			return 0, err
		}
	}
	found, err := d.advanceWithinBlock(d.block)
	if err != nil {
		return 0, err
	}
	assert2(found, "block %v has no docs", d.block>>16)
	return d.doc, nil
}

/*
Positions the iterator on target and reports whether it is present.
DocId() returns target afterwards even when it is absent.
*/
func (d *IndexedDISI) AdvanceExact(target int) (bool, error) {
	targetBlock := target &^ 0xFFFF
	if d.block < targetBlock {
		if err := d.advanceBlock(targetBlock); err != nil {
			return false, err
		}
	}
	found := false
	if d.block == targetBlock {
		var err error
		if found, err = d.advanceExactWithinBlock(target); err != nil {
			return false, err
		}
	}
	d.doc = target
	return found, nil
}

func (d *IndexedDISI) advanceBlock(targetBlock int) error {
	blockIndex := targetBlock >> 16
	// If the destination block is 2 blocks or more ahead, we use the jump-table.
	if d.jumpTable != nil && blockIndex >= (d.block>>16)+2 {
		// If the jumpTableEntryCount is exceeded, there are no further
		// bits. Last entry is always NO_MORE_DOCS
		inRangeBlockIndex := blockIndex
		if blockIndex >= d.jumpTableEntryCount {
			inRangeBlockIndex = d.jumpTableEntryCount - 1
		}
		index, err := d.jumpTable.ReadIntAt(int64(inRangeBlockIndex) * jumpEntryBytes)
		if err != nil {
			return d.corruptOnEOF(err)
		}
		offset, err := d.jumpTable.ReadIntAt(int64(inRangeBlockIndex)*jumpEntryBytes + intBytes)
		if err != nil {
			return d.corruptOnEOF(err)
		}
		if offset < 0 || int64(offset) >= d.slice.Length() {
			return codec.NewCorruptIndexError(d.slice, fmt.Sprintf(
				"jump table offset %v out of range [0,%v)", offset, d.slice.Length()))
		}
		// -1 to compensate for the always-added 1 in readBlockHeader
		d.nextBlockIndex = int(index) - 1
		if err = d.slice.SeekTo(int64(offset)); err != nil {
			return err
		}
		return d.readBlockHeader()
	}

	// Fallback to iteration of blocks
	for {
		if err := d.slice.SeekTo(d.blockEnd); err != nil {
			return d.corruptOnEOF(err)
		}
		if err := d.readBlockHeader(); err != nil {
			return err
		}
		if d.block >= targetBlock {
			return nil
		}
	}
}

func (d *IndexedDISI) readBlockHeader() error {
	blockId, err := d.slice.ReadShort()
	if err != nil {
		return d.corruptOnEOF(err)
	}
	count, err := d.slice.ReadShort()
	if err != nil {
		return d.corruptOnEOF(err)
	}
	block := int(uint16(blockId)) << 16
	if block <= d.block {
		return codec.NewCorruptIndexError(d.slice, fmt.Sprintf(
			"block %v follows block %v", block>>16, d.block>>16))
	}
	d.block = block
	numValues := 1 + int(uint16(count))
	d.index = d.nextBlockIndex
	d.nextBlockIndex = d.index + numValues
	switch {
	case numValues <= MAX_ARRAY_LENGTH:
		d.method = methodSparse
		d.blockEnd = d.slice.FilePointer() + int64(numValues<<1)
		d.nextExistDocInBlock = -1
	case numValues == 65536:
		d.method = methodAll
		d.blockEnd = d.slice.FilePointer()
		d.gap = d.block - d.index - 1
	default:
		d.method = methodDense
		d.denseBitmapOffset = d.slice.FilePointer() + int64(len(d.denseRankTable))
		d.blockEnd = d.denseBitmapOffset + (1 << 13)
		// All rank entries are loaded up front.
		if d.denseRankPower != -1 {
			if err = d.slice.ReadBytes(d.denseRankTable); err != nil {
				return d.corruptOnEOF(err)
			}
		}
		d.wordIndex = -1
		d.numberOfOnes = d.index + 1
		d.denseOrigoIndex = d.numberOfOnes
	}
	return nil
}

func (d *IndexedDISI) corruptOnEOF(err error) error {
	if errors.Cause(err) == io.EOF {
		return codec.NewCorruptIndexError(d.slice, "premature end of doc-id blocks: "+err.Error())
	}
	return err
}

func (d *IndexedDISI) NextDoc() (int, error) {
	return d.Advance(d.doc + 1)
}

/* Returns the ordinal of the current document among all present documents. */
func (d *IndexedDISI) Index() int {
	return d.index
}

func (d *IndexedDISI) Cost() int64 {
	return d.cost
}

func (d *IndexedDISI) advanceWithinBlock(target int) (bool, error) {
	switch d.method {
	case methodSparse:
		return d.advanceWithinSparseBlock(target)
	case methodDense:
		return d.advanceWithinDenseBlock(target)
	case methodAll:
		d.doc = target
		d.index = target - d.gap
		return true, nil
	}
	panic(fmt.Sprintf("unknown method %v", d.method))
}

func (d *IndexedDISI) advanceExactWithinBlock(target int) (bool, error) {
	switch d.method {
	case methodSparse:
		return d.advanceExactWithinSparseBlock(target)
	case methodDense:
		return d.advanceExactWithinDenseBlock(target)
	case methodAll:
		d.index = target - d.gap
		return true, nil
	}
	panic(fmt.Sprintf("unknown method %v", d.method))
}

func (d *IndexedDISI) advanceWithinSparseBlock(target int) (bool, error) {
	targetInBlock := target & 0xFFFF
	// TODO: binary search over the remaining shorts
	for d.index < d.nextBlockIndex {
		v, err := d.slice.ReadShort()
		if err != nil {
			return false, d.corruptOnEOF(err)
		}
		doc := int(uint16(v))
		d.index++
		if doc >= targetInBlock {
			d.doc = d.block | doc
			d.exists = true
			d.nextExistDocInBlock = doc
			return true, nil
		}
	}
	return false, nil
}

func (d *IndexedDISI) advanceExactWithinSparseBlock(target int) (bool, error) {
	targetInBlock := target & 0xFFFF
	if d.nextExistDocInBlock > targetInBlock {
		assert(!d.exists)
		return false, nil
	}
	if target == d.doc {
		return d.exists, nil
	}
	for d.index < d.nextBlockIndex {
		v, err := d.slice.ReadShort()
		if err != nil {
			return false, d.corruptOnEOF(err)
		}
		doc := int(uint16(v))
		d.index++
		if doc >= targetInBlock {
			d.nextExistDocInBlock = doc
			if doc != targetInBlock {
				d.index--
				if err = d.slice.SeekTo(d.slice.FilePointer() - 2); err != nil {
					return false, err
				}
				break
			}
			d.exists = true
			return true, nil
		}
	}
	d.exists = false
	return false, nil
}

func (d *IndexedDISI) advanceWithinDenseBlock(target int) (bool, error) {
	targetInBlock := target & 0xFFFF
	targetWordIndex := targetInBlock >> 6

	// If possible, skip ahead using the rank cache. If the distance
	// between the current position and the target is < rank-longs
	// there is no sense in using rank.
	if d.denseRankPower != -1 && targetWordIndex-d.wordIndex >= 1<<uint(d.denseRankPower-6) {
		if err := d.rankSkip(targetInBlock); err != nil {
			return false, err
		}
	}

	for i := d.wordIndex + 1; i <= targetWordIndex; i++ {
		w, err := d.slice.ReadLong()
		if err != nil {
			return false, d.corruptOnEOF(err)
		}
		d.word = uint64(w)
		d.numberOfOnes += bits.OnesCount64(d.word)
	}
	d.wordIndex = targetWordIndex

	if leftBits := d.word >> (uint(target) & 63); leftBits != 0 {
		d.doc = target + bits.TrailingZeros64(leftBits)
		d.index = d.numberOfOnes - bits.OnesCount64(leftBits)
		return true, nil
	}

	// There were no set bits at the wanted position. Move forward until one is reached
	for d.wordIndex++; d.wordIndex < DENSE_BLOCK_LONGS; d.wordIndex++ {
		w, err := d.slice.ReadLong()
		if err != nil {
			return false, d.corruptOnEOF(err)
		}
		if d.word = uint64(w); d.word != 0 {
			d.index = d.numberOfOnes
			d.numberOfOnes += bits.OnesCount64(d.word)
			d.doc = d.block | (d.wordIndex << 6) | bits.TrailingZeros64(d.word)
			return true, nil
		}
	}
	// No set bits in the block at or after the wanted position.
	return false, nil
}

func (d *IndexedDISI) advanceExactWithinDenseBlock(target int) (bool, error) {
	targetInBlock := target & 0xFFFF
	targetWordIndex := targetInBlock >> 6

	// If possible, skip ahead using the rank cache
	if d.denseRankPower != -1 && targetWordIndex-d.wordIndex >= 1<<uint(d.denseRankPower-6) {
		if err := d.rankSkip(targetInBlock); err != nil {
			return false, err
		}
	}

	for i := d.wordIndex + 1; i <= targetWordIndex; i++ {
		w, err := d.slice.ReadLong()
		if err != nil {
			return false, d.corruptOnEOF(err)
		}
		d.word = uint64(w)
		d.numberOfOnes += bits.OnesCount64(d.word)
	}
	d.wordIndex = targetWordIndex

	leftBits := d.word >> (uint(target) & 63)
	d.index = d.numberOfOnes - bits.OnesCount64(leftBits)
	return leftBits&1 != 0, nil
}

/*
If the distance between the current position and the target is >
8 words, the rank cache will be used to guarantee a worst-case of
1 rank-lookup and 7 word-read-and-count-bits operations. Note: This
does not guarantee a skip up to target, only up to nearest rank
boundary. It is the responsibility of the caller to iterate further
to reach target.
*/
func (d *IndexedDISI) rankSkip(targetInBlock int) error {
	assert2(d.denseRankPower >= 0, "%v", d.denseRankPower)
	// Resolve the rank as close to targetInBlock as possible (maximum
	// distance is 8 longs). rankOrigoOffset is tracked on block open,
	// so it is absolute (e.g. don't add origo)
	rankIndex := targetInBlock >> uint(d.denseRankPower)

	rank := int(d.denseRankTable[rankIndex<<1])<<8 | int(d.denseRankTable[(rankIndex<<1)+1])

	// Position the counting logic just after the rank point
	rankAlignedWordIndex := rankIndex << uint(d.denseRankPower) >> 6
	if err := d.slice.SeekTo(d.denseBitmapOffset + int64(rankAlignedWordIndex)*8); err != nil {
		return d.corruptOnEOF(err)
	}
	rankWord, err := d.slice.ReadLong()
	if err != nil {
		return d.corruptOnEOF(err)
	}
	denseNOO := rank + bits.OnesCount64(uint64(rankWord))

	d.wordIndex = rankAlignedWordIndex
	d.word = uint64(rankWord)
	d.numberOfOnes = d.denseOrigoIndex + denseNOO
	return nil
}

func assert(ok bool) {
	assert2(ok, "assert fail")
}

func assert2(ok bool, msg string, args ...interface{}) {
	if !ok {
		panic(fmt.Sprintf(msg, args...))
	}
}
