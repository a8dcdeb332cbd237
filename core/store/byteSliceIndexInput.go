package store

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pkg/errors"
)

// store/ByteBuffersIndexInput.java

/*
IndexInput over an in-memory []byte. Clones and slices share the
backing bytes, which must not change while any of them is in use.
It also serves as its own RandomAccessInput.
*/
type ByteSliceIndexInput struct {
	*IndexInputImpl
	data []byte
	pos  int
}

func NewByteSliceIndexInput(desc string, data []byte) *ByteSliceIndexInput {
	ans := &ByteSliceIndexInput{data: data}
	ans.IndexInputImpl = newIndexInputImpl(desc, ans)
	return ans
}

func (in *ByteSliceIndexInput) eof(n int) error {
	return errors.Wrapf(io.EOF, "read past EOF: %v (pos=%v, n=%v, length=%v)",
		in, in.pos, n, len(in.data))
}

func (in *ByteSliceIndexInput) ReadByte() (byte, error) {
	if in.pos >= len(in.data) {
		return 0, in.eof(1)
	}
	in.pos++
	return in.data[in.pos-1], nil
}

func (in *ByteSliceIndexInput) ReadBytes(buf []byte) error {
	if in.pos+len(buf) > len(in.data) {
		return in.eof(len(buf))
	}
	in.pos += copy(buf, in.data[in.pos:])
	return nil
}

func (in *ByteSliceIndexInput) ReadShort() (int16, error) {
	if in.pos+2 > len(in.data) {
		return 0, in.eof(2)
	}
	in.pos += 2
	return int16(binary.LittleEndian.Uint16(in.data[in.pos-2:])), nil
}

func (in *ByteSliceIndexInput) ReadInt() (int32, error) {
	if in.pos+4 > len(in.data) {
		return 0, in.eof(4)
	}
	in.pos += 4
	return int32(binary.LittleEndian.Uint32(in.data[in.pos-4:])), nil
}

func (in *ByteSliceIndexInput) ReadLong() (int64, error) {
	if in.pos+8 > len(in.data) {
		return 0, in.eof(8)
	}
	in.pos += 8
	return int64(binary.LittleEndian.Uint64(in.data[in.pos-8:])), nil
}

func (in *ByteSliceIndexInput) SkipBytes(numBytes int64) error {
	return in.SeekTo(int64(in.pos) + numBytes)
}

func (in *ByteSliceIndexInput) FilePointer() int64 {
	return int64(in.pos)
}

func (in *ByteSliceIndexInput) SeekTo(pos int64) error {
	if pos < 0 || pos > int64(len(in.data)) {
		return errors.Wrapf(io.EOF, "seek past EOF: %v (pos=%v, length=%v)", in, pos, len(in.data))
	}
	in.pos = int(pos)
	return nil
}

func (in *ByteSliceIndexInput) Length() int64 {
	return int64(len(in.data))
}

func (in *ByteSliceIndexInput) Close() error {
	return nil
}

func (in *ByteSliceIndexInput) Clone() IndexInput {
	ans := NewByteSliceIndexInput(in.desc, in.data)
	ans.pos = in.pos
	return ans
}

func (in *ByteSliceIndexInput) Slice(desc string, offset, length int64) (IndexInput, error) {
	return in.slice(desc, offset, length)
}

func (in *ByteSliceIndexInput) slice(desc string, offset, length int64) (*ByteSliceIndexInput, error) {
	if offset < 0 || length < 0 || offset+length > int64(len(in.data)) {
		return nil, errors.Errorf("slice() %v out of bounds: offset=%v, length=%v, fileLength=%v",
			desc, offset, length, len(in.data))
	}
	return NewByteSliceIndexInput(fmt.Sprintf("%v [slice=%v]", in.desc, desc),
		in.data[offset:offset+length]), nil
}

func (in *ByteSliceIndexInput) RandomAccessSlice(offset, length int64) (RandomAccessInput, error) {
	return in.slice("randomaccess", offset, length)
}

func (in *ByteSliceIndexInput) checkAt(pos int64, n int) error {
	if pos < 0 || pos+int64(n) > int64(len(in.data)) {
		return errors.Wrapf(io.EOF, "read past EOF: %v (pos=%v, n=%v, length=%v)", in, pos, n, len(in.data))
	}
	return nil
}

func (in *ByteSliceIndexInput) ReadByteAt(pos int64) (byte, error) {
	if err := in.checkAt(pos, 1); err != nil {
		return 0, err
	}
	return in.data[pos], nil
}

func (in *ByteSliceIndexInput) ReadShortAt(pos int64) (int16, error) {
	if err := in.checkAt(pos, 2); err != nil {
		return 0, err
	}
	return int16(binary.LittleEndian.Uint16(in.data[pos:])), nil
}

func (in *ByteSliceIndexInput) ReadIntAt(pos int64) (int32, error) {
	if err := in.checkAt(pos, 4); err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(in.data[pos:])), nil
}

func (in *ByteSliceIndexInput) ReadLongAt(pos int64) (int64, error) {
	if err := in.checkAt(pos, 8); err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(in.data[pos:])), nil
}
