package util

import (
	"github.com/pkg/errors"
)

// store/DataInput.java

/*
Abstract base class for performing read operations of Lucene's low-level
data types.

Fixed width values (short, int, long) are little-endian. Variable length
values use the VByte scheme described in DataOutputImpl.WriteVInt().

DataInput may only be used from one thread, because it is not thread safe
(it keeps internal state like file position). To allow multithreaded use,
every DataInput instance must be cloned before used in another thread.
*/
type DataInput interface {
	ReadByte() (b byte, err error)
	ReadBytes(buf []byte) error
	ReadShort() (n int16, err error)
	ReadInt() (n int32, err error)
	ReadVInt() (n int32, err error)
	ReadLong() (n int64, err error)
	ReadVLong() (n int64, err error)
	ReadString() (s string, err error)
}

type DataReader interface {
	/* Reads and returns a single byte.	*/
	ReadByte() (b byte, err error)
	/* Reads a specified number of bytes into an array */
	ReadBytes(buf []byte) error
}

const SKIP_BUFFER_SIZE = 1024

var (
	ErrInvalidVInt  = errors.New("Invalid vInt detected (too many bits)")
	ErrInvalidVLong = errors.New("Invalid vLong detected (negative values disallowed)")
)

type DataInputImpl struct {
	Reader DataReader
	// This buffer is used to skip over bytes with the default
	// implementation of skipBytes. Each input owns its own buffer so
	// delegating inputs (e.g. checksum) never observe another
	// routine's scratch bytes.
	skipBuffer []byte
}

func NewDataInput(spi DataReader) *DataInputImpl {
	return &DataInputImpl{Reader: spi}
}

func (in *DataInputImpl) ReadShort() (n int16, err error) {
	var b1, b2 byte
	if b1, err = in.Reader.ReadByte(); err != nil {
		return 0, err
	}
	if b2, err = in.Reader.ReadByte(); err != nil {
		return 0, err
	}
	return int16(uint16(b1) | uint16(b2)<<8), nil
}

func (in *DataInputImpl) ReadInt() (n int32, err error) {
	var buf [4]byte
	if err = in.Reader.ReadBytes(buf[:]); err != nil {
		return 0, err
	}
	return int32(uint32(buf[0]) | uint32(buf[1])<<8 | uint32(buf[2])<<16 | uint32(buf[3])<<24), nil
}

func (in *DataInputImpl) ReadLong() (n int64, err error) {
	lo, err := in.ReadInt()
	if err != nil {
		return 0, err
	}
	hi, err := in.ReadInt()
	if err != nil {
		return 0, err
	}
	return int64(hi)<<32 | int64(lo)&0xFFFFFFFF, nil
}

func (in *DataInputImpl) ReadVInt() (n int32, err error) {
	var b byte
	for shift := uint(0); shift <= 28; shift += 7 {
		if b, err = in.Reader.ReadByte(); err != nil {
			return 0, err
		}
		if shift == 28 {
			// Warning: the last byte may only carry 4 bits
			n |= int32(b&0x0F) << shift
			if b&0xF0 == 0 {
				return n, nil
			}
			return 0, ErrInvalidVInt
		}
		n |= int32(b&0x7F) << shift
		if b < 128 {
			return n, nil
		}
	}
	return 0, ErrInvalidVInt
}

func (in *DataInputImpl) ReadVLong() (n int64, err error) {
	var b byte
	for shift := uint(0); shift <= 56; shift += 7 {
		if b, err = in.Reader.ReadByte(); err != nil {
			return 0, err
		}
		n |= int64(b&0x7F) << shift
		if b < 128 {
			return n, nil
		}
	}
	return 0, ErrInvalidVLong
}

func (in *DataInputImpl) ReadString() (s string, err error) {
	length, err := in.ReadVInt()
	if err != nil {
		return "", err
	}
	bytes := make([]byte, length)
	if err = in.Reader.ReadBytes(bytes); err != nil {
		return "", err
	}
	return string(bytes), nil
}

/*
Skip over numBytes bytes. The contract on this method is that it
should have the same behavior as reading the same number of bytes
into a buffer and discarding its content. Negative values of numBytes
are not supported.
*/
func (in *DataInputImpl) SkipBytes(numBytes int64) (err error) {
	assert2(numBytes >= 0, "numBytes must be >= 0, got %v", numBytes)
	if in.skipBuffer == nil {
		in.skipBuffer = make([]byte, SKIP_BUFFER_SIZE)
	}
	var step int
	for skipped := int64(0); skipped < numBytes; {
		step = int(numBytes - skipped)
		if SKIP_BUFFER_SIZE < step {
			step = SKIP_BUFFER_SIZE
		}
		if err = in.Reader.ReadBytes(in.skipBuffer[:step]); err != nil {
			return
		}
		skipped += int64(step)
	}
	return nil
}
