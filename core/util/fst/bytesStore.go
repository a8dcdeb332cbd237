package fst

import (
	"fmt"

	"github.com/ironsweet/golucene-core/core/util"
)

// fst/BytesStore.java

/*
Append-only paged byte store. It is the default sink of FSTCompiler
and the on-heap storage of a loaded FST. Blocks are 1<<blockBits
bytes; the last block is trimmed by finish().
*/
type BytesStore struct {
	*util.DataOutputImpl
	blocks    [][]byte
	blockSize int64
	blockBits uint
	blockMask int64
	current   []byte
	nextWrite int64
}

func newBytesStore(blockBits uint) *BytesStore {
	blockSize := int64(1) << blockBits
	bs := &BytesStore{
		blockBits: blockBits,
		blockSize: blockSize,
		blockMask: blockSize - 1,
		nextWrite: blockSize,
	}
	bs.DataOutputImpl = util.NewDataOutput(bs)
	return bs
}

/* Pulls numBytes from the provided input, in blocks of at most maxBlockSize. */
func newBytesStoreFromInput(in util.DataInput, numBytes int64, maxBlockBits uint) (*BytesStore, error) {
	blockBits := uint(1)
	for int64(1)<<blockBits < numBytes && blockBits < maxBlockBits {
		blockBits++
	}
	bs := newBytesStore(blockBits)
	for left := numBytes; left > 0; {
		chunk := bs.blockSize
		if left < chunk {
			chunk = left
		}
		block := make([]byte, chunk)
		if err := in.ReadBytes(block); err != nil {
			return nil, err
		}
		bs.blocks = append(bs.blocks, block)
		left -= chunk
	}
	// so Position() still works
	if n := len(bs.blocks); n > 0 {
		bs.nextWrite = int64(len(bs.blocks[n-1]))
	}
	return bs, nil
}

func (bs *BytesStore) WriteByte(b byte) error {
	if bs.nextWrite == bs.blockSize {
		bs.current = make([]byte, bs.blockSize)
		bs.blocks = append(bs.blocks, bs.current)
		bs.nextWrite = 0
	}
	bs.current[bs.nextWrite] = b
	bs.nextWrite++
	return nil
}

func (bs *BytesStore) WriteBytes(buf []byte) error {
	for len(buf) > 0 {
		if bs.nextWrite == bs.blockSize {
			bs.current = make([]byte, bs.blockSize)
			bs.blocks = append(bs.blocks, bs.current)
			bs.nextWrite = 0
		}
		n := copy(bs.current[bs.nextWrite:], buf)
		bs.nextWrite += int64(n)
		buf = buf[n:]
	}
	return nil
}

/* Number of bytes written so far. */
func (bs *BytesStore) Position() int64 {
	if len(bs.blocks) == 0 {
		return 0
	}
	return int64(len(bs.blocks)-1)*bs.blockSize + bs.nextWrite
}

/* Trims the last block; no more writes are allowed afterwards. */
func (bs *BytesStore) finish() {
	if bs.current != nil {
		last := make([]byte, bs.nextWrite)
		copy(last, bs.current[:bs.nextWrite])
		bs.blocks[len(bs.blocks)-1] = last
		bs.current = nil
	}
}

/* Writes all of our bytes to the target DataOutput. */
func (bs *BytesStore) WriteTo(out util.DataOutput) error {
	for _, block := range bs.blocks {
		if err := out.WriteBytes(block); err != nil {
			return err
		}
	}
	return nil
}

func (bs *BytesStore) RamBytesUsed() int64 {
	size := util.AlignObjectSize(util.NUM_BYTES_OBJECT_HEADER + 6*util.NUM_BYTES_LONG)
	for _, block := range bs.blocks {
		size += util.SizeOf(block)
	}
	return size
}

func (bs *BytesStore) String() string {
	return fmt.Sprintf("%v-bits x%v bytes store", bs.blockBits, len(bs.blocks))
}

func (bs *BytesStore) ReverseBytesReader() BytesReader {
	if len(bs.blocks) == 1 {
		return newReverseBytesReader(bs.blocks[0])
	}
	ans := &bytesStoreReader{owner: bs, reversed: true}
	ans.DataInputImpl = util.NewDataInput(ans)
	return ans
}

func (bs *BytesStore) ForwardReader() BytesReader {
	if len(bs.blocks) == 1 {
		return newForwardBytesReader(bs.blocks[0])
	}
	ans := &bytesStoreReader{owner: bs}
	ans.DataInputImpl = util.NewDataInput(ans)
	return ans
}

/* Reads a multi-block store, in either direction, at an absolute position. */
type bytesStoreReader struct {
	*util.DataInputImpl
	owner    *BytesStore
	pos      int64
	reversed bool
}

func (r *bytesStoreReader) ReadByte() (byte, error) {
	if r.pos < 0 {
		return 0, errReadPastEnd(r.pos)
	}
	blockIndex := int(r.pos >> r.owner.blockBits)
	if blockIndex >= len(r.owner.blocks) {
		return 0, errReadPastEnd(r.pos)
	}
	block := r.owner.blocks[blockIndex]
	offset := r.pos & r.owner.blockMask
	if offset >= int64(len(block)) {
		return 0, errReadPastEnd(r.pos)
	}
	if r.reversed {
		r.pos--
	} else {
		r.pos++
	}
	return block[offset], nil
}

func (r *bytesStoreReader) ReadBytes(buf []byte) (err error) {
	for i := range buf {
		if buf[i], err = r.ReadByte(); err != nil {
			return
		}
	}
	return nil
}

func (r *bytesStoreReader) SkipBytes(count int64) {
	if r.reversed {
		r.pos -= count
	} else {
		r.pos += count
	}
}

func (r *bytesStoreReader) Position() int64       { return r.pos }
func (r *bytesStoreReader) SetPosition(pos int64) { r.pos = pos }
func (r *bytesStoreReader) Reversed() bool        { return r.reversed }
