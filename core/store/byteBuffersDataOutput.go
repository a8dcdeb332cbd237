package store

import (
	"hash/crc32"

	"github.com/ironsweet/golucene-core/core/util"
)

// store/ByteBuffersDataOutput.java

/*
A growable in-memory IndexOutput. Bytes() exposes what has been
written so far, which can be fed back through NewByteSliceIndexInput.
*/
type ByteBuffersDataOutput struct {
	*IndexOutputImpl
	buf []byte
}

func NewByteBuffersDataOutput() *ByteBuffersDataOutput {
	ans := &ByteBuffersDataOutput{}
	ans.IndexOutputImpl = newIndexOutput(ans)
	return ans
}

func (out *ByteBuffersDataOutput) WriteByte(b byte) error {
	out.buf = append(out.buf, b)
	return nil
}

func (out *ByteBuffersDataOutput) WriteBytes(p []byte) error {
	out.buf = append(out.buf, p...)
	return nil
}

/* Returns the written bytes; the slice is only valid until the next write. */
func (out *ByteBuffersDataOutput) Bytes() []byte {
	return out.buf
}

func (out *ByteBuffersDataOutput) FilePointer() int64 {
	return int64(len(out.buf))
}

func (out *ByteBuffersDataOutput) Checksum() int64 {
	return int64(crc32.ChecksumIEEE(out.buf))
}

func (out *ByteBuffersDataOutput) Reset() {
	out.buf = out.buf[:0]
}

func (out *ByteBuffersDataOutput) Close() error {
	return nil
}

func (out *ByteBuffersDataOutput) RamBytesUsed() int64 {
	return util.AlignObjectSize(util.NUM_BYTES_OBJECT_HEADER+2*util.NUM_BYTES_OBJECT_REF) +
		util.SizeOf(out.buf[:cap(out.buf)])
}
