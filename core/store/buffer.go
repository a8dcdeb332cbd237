package store

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// store/BufferedIndexInput.java

/* Positional reads against the bytes under a BufferedIndexInput. */
type SeekReader interface {
	// Fills buf from pos, which is relative to the start of the input.
	readInternal(pos int64, buf []byte) error
	Length() int64
}

/* Minimum buffer size allowed */
const MIN_BUFFER_SIZE = 8

/* The default buffer size in bytes. */
const DEFAULT_BUFFER_SIZE = 16384

/* Base implementation for buffered IndexInput. */
type BufferedIndexInput struct {
	*IndexInputImpl
	spi            SeekReader
	bufferSize     int
	buffer         []byte
	bufferStart    int64
	bufferLength   int
	bufferPosition int
}

func newBufferedIndexInput(spi SeekReader, desc string, bufferSize int) *BufferedIndexInput {
	checkBufferSize(bufferSize)
	ans := &BufferedIndexInput{spi: spi, bufferSize: bufferSize}
	ans.IndexInputImpl = newIndexInputImpl(desc, ans)
	return ans
}

func checkBufferSize(bufferSize int) {
	assert2(bufferSize >= MIN_BUFFER_SIZE,
		"bufferSize must be at least MIN_BUFFER_SIZE (got %v)",
		bufferSize)
}

func (in *BufferedIndexInput) eof(n int) error {
	return errors.Wrapf(io.EOF, "read past EOF: %v (pos=%v, n=%v, length=%v)",
		in, in.FilePointer(), n, in.spi.Length())
}

func (in *BufferedIndexInput) ReadByte() (b byte, err error) {
	if in.bufferPosition >= in.bufferLength {
		if err = in.refill(); err != nil {
			return 0, err
		}
	}
	b = in.buffer[in.bufferPosition]
	in.bufferPosition++
	return
}

func (in *BufferedIndexInput) ReadBytes(buf []byte) error {
	available := in.bufferLength - in.bufferPosition
	if length := len(buf); length <= available {
		// the buffer contains enough data to satisfy this request
		copy(buf, in.buffer[in.bufferPosition:in.bufferPosition+length])
		in.bufferPosition += length
		return nil
	}
	// serve all we've got first
	if available > 0 {
		copy(buf, in.buffer[in.bufferPosition:in.bufferLength])
		buf = buf[available:]
		in.bufferPosition += available
	}
	if length := len(buf); length < in.bufferSize {
		if err := in.refill(); err != nil {
			return err
		}
		if in.bufferLength < length {
			return in.eof(length)
		}
		copy(buf, in.buffer[:length])
		in.bufferPosition += length
		return nil
	}
	// bigger than the buffer: read it all at once, bypassing the buffer
	start := in.FilePointer()
	after := start + int64(len(buf))
	if after > in.spi.Length() {
		return in.eof(len(buf))
	}
	if err := in.spi.readInternal(start, buf); err != nil {
		return err
	}
	in.bufferStart = after
	in.bufferPosition = 0
	in.bufferLength = 0 // trigger refill() on read
	return nil
}

func (in *BufferedIndexInput) ReadShort() (n int16, err error) {
	if 2 <= in.bufferLength-in.bufferPosition {
		in.bufferPosition += 2
		return int16(binary.LittleEndian.Uint16(in.buffer[in.bufferPosition-2:])), nil
	}
	return in.DataInputImpl.ReadShort()
}

func (in *BufferedIndexInput) ReadInt() (n int32, err error) {
	if 4 <= in.bufferLength-in.bufferPosition {
		in.bufferPosition += 4
		return int32(binary.LittleEndian.Uint32(in.buffer[in.bufferPosition-4:])), nil
	}
	return in.DataInputImpl.ReadInt()
}

func (in *BufferedIndexInput) ReadLong() (n int64, err error) {
	if 8 <= in.bufferLength-in.bufferPosition {
		in.bufferPosition += 8
		return int64(binary.LittleEndian.Uint64(in.buffer[in.bufferPosition-8:])), nil
	}
	return in.DataInputImpl.ReadLong()
}

func (in *BufferedIndexInput) refill() error {
	return in.fill(in.bufferStart + int64(in.bufferPosition))
}

/* Loads the buffer with the bytes starting at start. */
func (in *BufferedIndexInput) fill(start int64) error {
	end := start + int64(in.bufferSize)
	if n := in.spi.Length(); end > n { // don't read past EOF
		end = n
	}
	newLength := int(end - start)
	if start < 0 || newLength <= 0 {
		return in.eof(1)
	}
	if in.buffer == nil {
		in.buffer = make([]byte, in.bufferSize) // allocate buffer lazily
	}
	if err := in.spi.readInternal(start, in.buffer[:newLength]); err != nil {
		return err
	}
	in.bufferLength = newLength
	in.bufferStart = start
	in.bufferPosition = 0
	return nil
}

func (in *BufferedIndexInput) SkipBytes(numBytes int64) error {
	return in.SeekTo(in.FilePointer() + numBytes)
}

func (in *BufferedIndexInput) FilePointer() int64 {
	return in.bufferStart + int64(in.bufferPosition)
}

func (in *BufferedIndexInput) SeekTo(pos int64) error {
	if pos < 0 || pos > in.spi.Length() {
		return errors.Wrapf(io.EOF, "seek past EOF: %v (pos=%v, length=%v)", in, pos, in.spi.Length())
	}
	if pos >= in.bufferStart && pos < in.bufferStart+int64(in.bufferLength) {
		in.bufferPosition = int(pos - in.bufferStart) // seek within buffer
		return nil
	}
	in.bufferStart = pos
	in.bufferPosition = 0
	in.bufferLength = 0 // trigger refill() on read()
	return nil
}

func (in *BufferedIndexInput) Length() int64 {
	return in.spi.Length()
}

/*
Returns the buffered bytes [pos, pos+n). Misses load a window centered
on pos, so backward scans stay buffered too. The file pointer is
undefined after a random-access read.
*/
func (in *BufferedIndexInput) bufferAt(pos int64, n int) ([]byte, error) {
	if pos < 0 || pos+int64(n) > in.spi.Length() {
		return nil, errors.Wrapf(io.EOF, "read past EOF: %v (pos=%v, n=%v, length=%v)",
			in, pos, n, in.spi.Length())
	}
	if pos < in.bufferStart || pos+int64(n) > in.bufferStart+int64(in.bufferLength) {
		start := pos - int64((in.bufferSize-n)/2)
		if start < 0 {
			start = 0
		}
		if err := in.fill(start); err != nil {
			return nil, err
		}
	}
	i := int(pos - in.bufferStart)
	return in.buffer[i : i+n], nil
}

func (in *BufferedIndexInput) ReadByteAt(pos int64) (byte, error) {
	b, err := in.bufferAt(pos, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (in *BufferedIndexInput) ReadShortAt(pos int64) (int16, error) {
	b, err := in.bufferAt(pos, 2)
	if err != nil {
		return 0, err
	}
	return int16(binary.LittleEndian.Uint16(b)), nil
}

func (in *BufferedIndexInput) ReadIntAt(pos int64) (int32, error) {
	b, err := in.bufferAt(pos, 4)
	if err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(b)), nil
}

func (in *BufferedIndexInput) ReadLongAt(pos int64) (int64, error) {
	b, err := in.bufferAt(pos, 8)
	if err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(b)), nil
}

/* Returns a copy positioned at the same file pointer, with an empty buffer. */
func (in *BufferedIndexInput) clone(spi SeekReader) *BufferedIndexInput {
	ans := &BufferedIndexInput{
		spi:         spi,
		bufferSize:  in.bufferSize,
		bufferStart: in.FilePointer(),
	}
	ans.IndexInputImpl = newIndexInputImpl(in.desc, ans)
	return ans
}
