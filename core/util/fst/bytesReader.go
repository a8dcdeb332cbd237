package fst

import (
	"fmt"
	"io"

	"github.com/ironsweet/golucene-core/core/store"
	"github.com/ironsweet/golucene-core/core/util"
	"github.com/pkg/errors"
)

/*
Reads bytes stored in an FST. Reverse readers walk towards lower
addresses, so SkipBytes() on them moves backwards; a negative count
moves the other way.
*/
type BytesReader interface {
	util.DataInput
	// Current read position
	Position() int64
	// Set current read position.
	SetPosition(pos int64)
	// Skip bytes, in the direction of reading.
	SkipBytes(count int64)
	// Returns true if this reader uses reversed bytes under-the-hood.
	Reversed() bool
}

func errReadPastEnd(pos int64) error {
	return errors.WithStack(errors.Wrapf(io.ErrUnexpectedEOF, "read past end of FST bytes at %v", pos))
}

func skipBytes(in util.DataInput, count int64) error {
	switch r := in.(type) {
	case BytesReader:
		r.SkipBytes(count)
		return nil
	case interface{ SkipBytes(int64) error }:
		return r.SkipBytes(count)
	}
	return in.ReadBytes(make([]byte, count))
}

// fst/ReverseBytesReader.java

type reverseBytesReader struct {
	*util.DataInputImpl
	bytes []byte
	pos   int64
}

func newReverseBytesReader(bytes []byte) *reverseBytesReader {
	ans := &reverseBytesReader{bytes: bytes}
	ans.DataInputImpl = util.NewDataInput(ans)
	return ans
}

func (r *reverseBytesReader) ReadByte() (byte, error) {
	if r.pos < 0 || r.pos >= int64(len(r.bytes)) {
		return 0, errReadPastEnd(r.pos)
	}
	r.pos--
	return r.bytes[r.pos+1], nil
}

func (r *reverseBytesReader) ReadBytes(buf []byte) (err error) {
	for i := range buf {
		if buf[i], err = r.ReadByte(); err != nil {
			return
		}
	}
	return nil
}

func (r *reverseBytesReader) SkipBytes(count int64) { r.pos -= count }
func (r *reverseBytesReader) Position() int64       { return r.pos }
func (r *reverseBytesReader) SetPosition(pos int64) { r.pos = pos }
func (r *reverseBytesReader) Reversed() bool        { return true }

func (r *reverseBytesReader) String() string {
	return fmt.Sprintf("BytesReader(reversed, [%v,%v])", r.pos, len(r.bytes))
}

// fst/ForwardBytesReader.java

type forwardBytesReader struct {
	*util.DataInputImpl
	bytes []byte
	pos   int64
}

func newForwardBytesReader(bytes []byte) *forwardBytesReader {
	ans := &forwardBytesReader{bytes: bytes}
	ans.DataInputImpl = util.NewDataInput(ans)
	return ans
}

func (r *forwardBytesReader) ReadByte() (byte, error) {
	if r.pos < 0 || r.pos >= int64(len(r.bytes)) {
		return 0, errReadPastEnd(r.pos)
	}
	r.pos++
	return r.bytes[r.pos-1], nil
}

func (r *forwardBytesReader) ReadBytes(buf []byte) error {
	if r.pos < 0 || r.pos+int64(len(buf)) > int64(len(r.bytes)) {
		return errReadPastEnd(r.pos)
	}
	copy(buf, r.bytes[r.pos:])
	r.pos += int64(len(buf))
	return nil
}

func (r *forwardBytesReader) SkipBytes(count int64) { r.pos += count }
func (r *forwardBytesReader) Position() int64       { return r.pos }
func (r *forwardBytesReader) SetPosition(pos int64) { r.pos = pos }
func (r *forwardBytesReader) Reversed() bool        { return false }

// fst/ReverseRandomAccessReader.java

/* Reads an off-heap FST backwards through random access. */
type reverseRandomAccessReader struct {
	*util.DataInputImpl
	in  store.RandomAccessInput
	pos int64
}

func newReverseRandomAccessReader(in store.RandomAccessInput) *reverseRandomAccessReader {
	ans := &reverseRandomAccessReader{in: in}
	ans.DataInputImpl = util.NewDataInput(ans)
	return ans
}

func (r *reverseRandomAccessReader) ReadByte() (byte, error) {
	b, err := r.in.ReadByteAt(r.pos)
	if err != nil {
		return 0, err
	}
	r.pos--
	return b, nil
}

func (r *reverseRandomAccessReader) ReadBytes(buf []byte) (err error) {
	for i := range buf {
		if buf[i], err = r.ReadByte(); err != nil {
			return
		}
	}
	return nil
}

func (r *reverseRandomAccessReader) SkipBytes(count int64) { r.pos -= count }
func (r *reverseRandomAccessReader) Position() int64       { return r.pos }
func (r *reverseRandomAccessReader) SetPosition(pos int64) { r.pos = pos }
func (r *reverseRandomAccessReader) Reversed() bool        { return true }

// fst/ByteBlockPoolReverseBytesReader.java

/*
Reads node bytes copied into a ByteBlockPool as if they were still at
their FST address: positions are shifted by posDelta.
*/
type byteBlockPoolReverseReader struct {
	*util.DataInputImpl
	pool     *util.ByteBlockPool
	pos      int64
	posDelta int64
}

func newByteBlockPoolReverseReader(pool *util.ByteBlockPool) *byteBlockPoolReverseReader {
	ans := &byteBlockPoolReverseReader{pool: pool}
	ans.DataInputImpl = util.NewDataInput(ans)
	return ans
}

func (r *byteBlockPoolReverseReader) ReadByte() (byte, error) {
	if r.pos < 0 || r.pos >= r.pool.Position() {
		return 0, errReadPastEnd(r.pos + r.posDelta)
	}
	r.pos--
	return r.pool.ReadByteAt(r.pos + 1), nil
}

func (r *byteBlockPoolReverseReader) ReadBytes(buf []byte) (err error) {
	for i := range buf {
		if buf[i], err = r.ReadByte(); err != nil {
			return
		}
	}
	return nil
}

func (r *byteBlockPoolReverseReader) SkipBytes(count int64) { r.pos -= count }
func (r *byteBlockPoolReverseReader) Position() int64       { return r.pos + r.posDelta }
func (r *byteBlockPoolReverseReader) SetPosition(pos int64) { r.pos = pos - r.posDelta }
func (r *byteBlockPoolReverseReader) Reversed() bool        { return true }

func (r *byteBlockPoolReverseReader) setPosDelta(delta int64) {
	r.posDelta = delta
}
