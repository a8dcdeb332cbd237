package codec

import (
	"fmt"
)

// codecs/CodecUtil.java

/* Constant to identify the start of a codec header. */
const CODEC_MAGIC = 0x3fd76c17

/* Constant to identify the start of a codec footer. */
const FOOTER_MAGIC = ^CODEC_MAGIC

const FOOTER_LENGTH = 16

type DataOutput interface {
	WriteByte(b byte) error
	WriteString(s string) error
}

/*
Writes a codec header, which records both a string to identify the
file and a version number. This header can be parsed and validated
with CheckHeader().

CodecHeader --> Magic,CodecName,Version

	Magic --> uint32, big-endian. This identifies the start of the
	header. It is always CODEC_MAGIC.
	CodecName --> string. This is a string to identify this file.
	Version --> uint32, big-endian. Records the version of the file.

Note that the length of a codec header depends only upon the name of
the codec, so this length can be computed at any time with
HeaderLength().
*/
func WriteHeader(out DataOutput, codec string, version int) error {
	assert(out != nil)
	bytes := []byte(codec)
	assert2(len(bytes) == len(codec) && len(bytes) < 128,
		"codec must be simple ASCII, less than 128 characters in length [got %v]", codec)
	err := writeBEInt(out, CODEC_MAGIC)
	if err == nil {
		err = out.WriteString(codec)
		if err == nil {
			err = writeBEInt(out, int32(version))
		}
	}
	return err
}

/* Computes the length of a codec header */
func HeaderLength(codec string) int {
	return 9 + len(codec)
}

type DataInput interface {
	ReadByte() (byte, error)
	ReadString() (string, error)
}

func CheckHeader(in DataInput, codec string, minVersion, maxVersion int32) (v int32, err error) {
	// Safety to guard against reading a bogus string:
	actualHeader, err := readBEInt(in)
	if err != nil {
		return 0, err
	}
	if actualHeader != CODEC_MAGIC {
		return 0, NewCorruptIndexError(in, fmt.Sprintf(
			"codec header mismatch: actual header=%v vs expected header=%v",
			actualHeader, CODEC_MAGIC))
	}
	return CheckHeaderNoMagic(in, codec, minVersion, maxVersion)
}

func CheckHeaderNoMagic(in DataInput, codec string, minVersion, maxVersion int32) (v int32, err error) {
	actualCodec, err := in.ReadString()
	if err != nil {
		return 0, err
	}
	if actualCodec != codec {
		return 0, NewCorruptIndexError(in, fmt.Sprintf(
			"codec mismatch: actual codec=%v vs expected codec=%v", actualCodec, codec))
	}

	actualVersion, err := readBEInt(in)
	if err != nil {
		return 0, err
	}
	if actualVersion < minVersion {
		return 0, NewIndexFormatTooOldError(in, actualVersion, minVersion, maxVersion)
	}
	if actualVersion > maxVersion {
		return 0, NewIndexFormatTooNewError(in, actualVersion, minVersion, maxVersion)
	}

	return actualVersion, nil
}

type IndexOutput interface {
	DataOutput
	Checksum() int64
}

/*
Writes a codec footer, which records both a checksum algorithm ID and
a checksum. This footer can be parsed and validated with CheckFooter().

CodecFooter --> Magic,AlgorithmID,Checksum

	- Magic --> uint32. This identifies the start of the footer. It is
		always FOOTER_MAGIC.
	- AlgorithmID --> uing32. This indicates the checksum algorithm
		used. Currently this is always 0, for zlib-crc32.
	- Checksum --> uint64. The actual checksum value for all previous
		bytes in the stream, including the bytes from Magic and AlgorithmID.

All three are big-endian.
*/
func WriteFooter(out IndexOutput) (err error) {
	if err = writeBEInt(out, FOOTER_MAGIC); err == nil {
		if err = writeBEInt(out, 0); err == nil {
			err = writeBELong(out, out.Checksum())
		}
	}
	return
}

type IndexInput interface {
	DataInput
	FilePointer() int64
	SeekTo(int64) error
	Length() int64
}

type ChecksumIndexInput interface {
	IndexInput
	Checksum() int64
}

/* Validates the codec footer previously written by WriteFooter(). */
func CheckFooter(in ChecksumIndexInput) (cs int64, err error) {
	if in.Length()-in.FilePointer() != FOOTER_LENGTH {
		return 0, NewCorruptIndexError(in, fmt.Sprintf(
			"misplaced codec footer (file truncated?): remaining=%v, expected=%v",
			in.Length()-in.FilePointer(), FOOTER_LENGTH))
	}
	if err = validateFooter(in); err == nil {
		cs = in.Checksum()
		var cs2 int64
		if cs2, err = readBELong(in); err == nil {
			if cs != cs2 {
				return 0, NewCorruptIndexError(in, fmt.Sprintf(
					"checksum failed (hardware problem?): expected=%x actual=%x", cs2, cs))
			}
			if in.FilePointer() != in.Length() {
				return 0, NewCorruptIndexError(in, fmt.Sprintf(
					"did not read all bytes from file: read %v vs size %v",
					in.FilePointer(), in.Length()))
			}
		}
	}
	return
}

/* Returns (but does not validate) the checksum previously written by CheckFooter. */
func RetrieveChecksum(in IndexInput) (int64, error) {
	var err error
	if err = in.SeekTo(in.Length() - FOOTER_LENGTH); err != nil {
		return 0, err
	}
	if err = validateFooter(in); err != nil {
		return 0, err
	}
	return readBELong(in)
}

func validateFooter(in DataInput) error {
	magic, err := readBEInt(in)
	if err != nil {
		return err
	}
	if magic != FOOTER_MAGIC {
		return NewCorruptIndexError(in, fmt.Sprintf(
			"codec footer mismatch: actual footer=%v vs expected footer=%v",
			magic, FOOTER_MAGIC))
	}

	algorithmId, err := readBEInt(in)
	if err != nil {
		return err
	}
	if algorithmId != 0 {
		return NewCorruptIndexError(in, fmt.Sprintf(
			"codec footer mismatch: unknown algorithmID: %v", algorithmId))
	}
	return nil
}

/* Checks that the stream is positioned at the end, and returns error if it is not. */
func CheckEOF(in IndexInput) error {
	if in.FilePointer() != in.Length() {
		return NewCorruptIndexError(in, fmt.Sprintf(
			"did not read all bytes from file: read %v vs size %v",
			in.FilePointer(), in.Length()))
	}
	return nil
}

func writeBEInt(out DataOutput, i int32) (err error) {
	for shift := 24; shift >= 0 && err == nil; shift -= 8 {
		err = out.WriteByte(byte(i >> uint(shift)))
	}
	return
}

func writeBELong(out DataOutput, l int64) error {
	if err := writeBEInt(out, int32(l>>32)); err != nil {
		return err
	}
	return writeBEInt(out, int32(l))
}

func readBEInt(in DataInput) (n int32, err error) {
	var b byte
	for i := 0; i < 4; i++ {
		if b, err = in.ReadByte(); err != nil {
			return 0, err
		}
		n = n<<8 | int32(b)
	}
	return n, nil
}

func readBELong(in DataInput) (int64, error) {
	hi, err := readBEInt(in)
	if err != nil {
		return 0, err
	}
	lo, err := readBEInt(in)
	if err != nil {
		return 0, err
	}
	return int64(hi)<<32 | int64(lo)&0xFFFFFFFF, nil
}

func assert(ok bool) {
	assert2(ok, "assert fail")
}

func assert2(ok bool, msg string, args ...interface{}) {
	if !ok {
		panic(fmt.Sprintf(msg, args...))
	}
}
