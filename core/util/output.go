package util

/*
Abstract base class for performing write operations of Lucene's
low-level data types.

DataOutput may only be used from one thread, because it is not thread
safe (it keeps internal state like file position).
*/
type DataOutput interface {
	DataWriter
	WriteShort(i int16) error
	WriteInt(i int32) error
	WriteVInt(i int32) error
	WriteLong(i int64) error
	WriteVLong(i int64) error
	WriteString(s string) error
	CopyBytes(input DataInput, numBytes int64) error
}

type DataWriter interface {
	WriteByte(b byte) error
	WriteBytes(buf []byte) error
}

type DataOutputImpl struct {
	Writer     DataWriter
	copyBuffer []byte
}

func NewDataOutput(part DataWriter) *DataOutputImpl {
	assert(part != nil)
	return &DataOutputImpl{Writer: part}
}

/* Writes a short as two bytes, low-order byte first. */
func (out *DataOutputImpl) WriteShort(i int16) error {
	return out.Writer.WriteBytes([]byte{byte(i), byte(i >> 8)})
}

/*
Writes an int as four bytes.

32-bit unsigned integer written as four bytes, low-order bytes first.
*/
func (out *DataOutputImpl) WriteInt(i int32) error {
	return out.Writer.WriteBytes([]byte{byte(i), byte(i >> 8), byte(i >> 16), byte(i >> 24)})
}

/*
Writes an int in a variable-length format. Writes between one and
five bytes. Smaller values take fewer bytes. Negative numbers are
supported, by should be avoided.

VByte is a variable-length format. For positive integers, it is
defined where the high-order bit of each byte indicates whether more
bytes remain to be read. The low-order seven bits are appended as
increasingly more significant bits in the resulting integer value.
Thus values from zero to 127 may be stored in a single byte, values
from 128 to 16,383 may be stored in two bytes, and so on.

VByte Encoding Examle

	| Value		| Byte 1		| Byte 2		| Byte 3		|
	| 0				| 00000000	|
	| 1				| 00000001	|
	| 127			| 01111111	|
	| 128			| 10000000	| 00000001	|
	| 129			| 10000001	| 00000001	|
	| 16,383	| 11111111	| 01111111	|
	| 16,384	| 10000000	| 10000000	| 00000001	|
*/
func (out *DataOutputImpl) WriteVInt(i int32) error {
	for (i & ^0x7F) != 0 {
		if err := out.Writer.WriteByte(byte(i&0x7F) | 0x80); err != nil {
			return err
		}
		i = int32(uint32(i) >> 7)
	}
	return out.Writer.WriteByte(byte(i))
}

/*
Writes a long as eight bytes.

64-bit unsigned integer written as eight bytes, low-order bytes first.
*/
func (out *DataOutputImpl) WriteLong(i int64) error {
	err := out.WriteInt(int32(i))
	if err == nil {
		err = out.WriteInt(int32(i >> 32))
	}
	return err
}

/*
Writes an long in a variable-length format. Writes between one and
nine bytes. Smaller values take fewer bytes. Negative number are not
supported.

The format is described further in WriteVInt().
*/
func (out *DataOutputImpl) WriteVLong(i int64) error {
	assert2(i >= 0, "cannot write negative vLong (got: %v)", i)
	for (i & ^0x7F) != 0 {
		if err := out.Writer.WriteByte(byte((i & 0x7F) | 0x80)); err != nil {
			return err
		}
		i = int64(uint64(i) >> 7)
	}
	return out.Writer.WriteByte(byte(i))
}

/*
Writes a string.

Writes strings as UTF-8 encoded bytes. First the length, in bytes, is
written as a VInt, followed by the bytes.
*/
func (out *DataOutputImpl) WriteString(s string) error {
	bytes := []byte(s)
	err := out.WriteVInt(int32(len(bytes)))
	if err == nil {
		err = out.Writer.WriteBytes(bytes)
	}
	return err
}

const DATA_OUTPUT_COPY_BUFFER_SIZE = 16384

func (out *DataOutputImpl) CopyBytes(input DataInput, numBytes int64) error {
	assert(numBytes >= 0)
	left := numBytes
	if out.copyBuffer == nil {
		out.copyBuffer = make([]byte, DATA_OUTPUT_COPY_BUFFER_SIZE)
	}
	for left > 0 {
		toCopy := int64(DATA_OUTPUT_COPY_BUFFER_SIZE)
		if left < toCopy {
			toCopy = left
		}
		if err := input.ReadBytes(out.copyBuffer[:toCopy]); err != nil {
			return err
		}
		if err := out.Writer.WriteBytes(out.copyBuffer[:toCopy]); err != nil {
			return err
		}
		left -= toCopy
	}
	return nil
}
