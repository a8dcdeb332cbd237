package store

import (
	"io"
	"io/ioutil"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/ironsweet/golucene-core/core/codec"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

const (
	testFileLength = int64(100 * 1024)
	testBufferSize = 512
)

func byten(n int64) byte {
	return byte(n * n % 256)
}

/* Serves byten(pos) for every position below length. */
type generatedReader struct {
	length int64
}

func (r *generatedReader) readInternal(pos int64, buf []byte) error {
	for i := range buf {
		buf[i] = byten(pos + int64(i))
	}
	return nil
}

func (r *generatedReader) Length() int64 {
	return r.length
}

func newGeneratedInput(length int64) *BufferedIndexInput {
	return newBufferedIndexInput(&generatedReader{length}, "generated", testBufferSize)
}

func writeGeneratedFile(t *testing.T, length int64) string {
	data := make([]byte, length)
	for i := range data {
		data[i] = byten(int64(i))
	}
	path := filepath.Join(t.TempDir(), "input.bin")
	require.NoError(t, ioutil.WriteFile(path, data, 0644))
	return path
}

/* The part of IndexInput the read checks exercise. */
type positionedReader interface {
	ReadBytes(buf []byte) error
	FilePointer() int64
	SeekTo(pos int64) error
	Length() int64
}

func checkReadBytes(t *testing.T, in positionedReader, size int) {
	pos := in.FilePointer()
	if left := in.Length() - pos; left < int64(size) {
		size = int(left)
	}
	// read at an arbitrary offset into the buffer
	offset := size % 10
	buf := make([]byte, offset+size)
	require.NoError(t, in.ReadBytes(buf[offset:]))
	require.Equal(t, pos+int64(size), in.FilePointer())
	for i := 0; i < size; i++ {
		if buf[offset+i] != byten(pos+int64(i)) {
			t.Fatalf("byte %v: got %v, want %v", pos+int64(i), buf[offset+i], byten(pos+int64(i)))
		}
	}
}

func runReadBytes(t *testing.T, in positionedReader, r *rand.Rand) {
	wrap := func() {
		if in.FilePointer() >= in.Length() {
			require.NoError(t, in.SeekTo(0))
		}
	}
	// gradually increasing size
	for size := 1; size < testBufferSize*10; size += size/200 + 1 {
		checkReadBytes(t, in, size)
		wrap()
	}
	// wildly fluctuating size
	for i := 0; i < 100; i++ {
		checkReadBytes(t, in, r.Intn(10000)+1)
		wrap()
	}
	// constant small size
	for i := 0; i < testBufferSize; i++ {
		checkReadBytes(t, in, 7)
		wrap()
	}
}

func TestBufferedReadByte(t *testing.T) {
	in := newGeneratedInput(testFileLength)
	for i := int64(0); i < 3*testBufferSize; i++ {
		b, err := in.ReadByte()
		require.NoError(t, err)
		require.Equal(t, byten(i), b)
	}
}

func TestBufferedReadBytes(t *testing.T) {
	runReadBytes(t, newGeneratedInput(testFileLength), rand.New(rand.NewSource(42)))
}

func TestBufferedEOF(t *testing.T) {
	in := newGeneratedInput(1024)
	checkReadBytes(t, in, int(in.Length()))

	for _, n := range []int{11, 50, 100000} {
		require.NoError(t, in.SeekTo(in.Length()-10))
		err := in.ReadBytes(make([]byte, n))
		require.Equal(t, io.EOF, errors.Cause(err), "n=%v", n)
	}
	require.NoError(t, in.SeekTo(in.Length()))
	_, err := in.ReadByte()
	require.Equal(t, io.EOF, errors.Cause(err))
	require.Error(t, in.SeekTo(in.Length()+1))
}

func TestBufferedFixedWidth(t *testing.T) {
	data := NewByteBuffersDataOutput()
	require.NoError(t, data.WriteShort(-2))
	require.NoError(t, data.WriteInt(0x01020304))
	require.NoError(t, data.WriteLong(-0x0102030405060708))
	require.NoError(t, data.WriteVInt(300))
	path := filepath.Join(t.TempDir(), "fixed.bin")
	require.NoError(t, ioutil.WriteFile(path, data.Bytes(), 0644))

	// a buffer smaller than a long forces the byte-at-a-time paths
	for _, bufferSize := range []int{MIN_BUFFER_SIZE, DEFAULT_BUFFER_SIZE} {
		in, err := OpenFileIndexInput(path, bufferSize)
		require.NoError(t, err)
		require.NoError(t, in.SkipBytes(1))
		require.NoError(t, in.SeekTo(0))

		s, err := in.ReadShort()
		require.NoError(t, err)
		require.EqualValues(t, -2, s)
		i, err := in.ReadInt()
		require.NoError(t, err)
		require.EqualValues(t, 0x01020304, i)
		l, err := in.ReadLong()
		require.NoError(t, err)
		require.EqualValues(t, -0x0102030405060708, l)
		v, err := in.ReadVInt()
		require.NoError(t, err)
		require.EqualValues(t, 300, v)

		l, err = in.ReadLongAt(6)
		require.NoError(t, err)
		require.EqualValues(t, -0x0102030405060708, l)
		require.NoError(t, in.Close())
	}
}

func TestFileIndexInput(t *testing.T) {
	path := writeGeneratedFile(t, testFileLength)
	in, err := OpenFileIndexInput(path, testBufferSize)
	require.NoError(t, err)
	defer in.Close()
	require.Equal(t, testFileLength, in.Length())

	r := rand.New(rand.NewSource(7))
	runReadBytes(t, in, r)

	clone := in.Clone()
	require.Equal(t, in.FilePointer(), clone.FilePointer())
	require.NoError(t, clone.SeekTo(0))
	runReadBytes(t, clone, r)
	require.NoError(t, clone.Close())

	// the clone's Close must leave the shared file open
	require.NoError(t, in.SeekTo(1000))
	b, err := in.ReadByte()
	require.NoError(t, err)
	require.Equal(t, byten(1000), b)
}

func TestFileIndexInputSlices(t *testing.T) {
	path := writeGeneratedFile(t, testFileLength)
	in, err := OpenFileIndexInput(path, testBufferSize)
	require.NoError(t, err)
	defer in.Close()

	slice, err := in.Slice("test", 5000, 3000)
	require.NoError(t, err)
	require.EqualValues(t, 3000, slice.Length())
	buf := make([]byte, 3000)
	require.NoError(t, slice.ReadBytes(buf))
	for i, b := range buf {
		require.Equal(t, byten(int64(5000+i)), b)
	}
	_, err = slice.ReadByte()
	require.Equal(t, io.EOF, errors.Cause(err))

	_, err = in.Slice("bad", testFileLength-10, 11)
	require.Error(t, err)

	ra, err := in.RandomAccessSlice(20000, 40000)
	require.NoError(t, err)
	// backwards, the way reversed FST bytes are read
	for pos := int64(39999); pos >= 0; pos -= 3 {
		b, err := ra.ReadByteAt(pos)
		require.NoError(t, err)
		require.Equal(t, byten(20000+pos), b)
	}
	_, err = ra.ReadIntAt(39997)
	require.Error(t, err)
	_, err = ra.ReadByteAt(-1)
	require.Error(t, err)
}

func TestChecksumEntireFile(t *testing.T) {
	out := NewByteBuffersDataOutput()
	require.NoError(t, codec.WriteHeader(out, "test", 1))
	require.NoError(t, out.WriteString("checksummed"))
	require.NoError(t, codec.WriteFooter(out))
	expected, err := codec.RetrieveChecksum(NewByteSliceIndexInput("expected", out.Bytes()))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "checksum.bin")
	require.NoError(t, ioutil.WriteFile(path, out.Bytes(), 0644))
	in, err := OpenFileIndexInput(path, MIN_BUFFER_SIZE)
	require.NoError(t, err)
	hash, err := ChecksumEntireFile(in)
	require.NoError(t, err)
	require.Equal(t, expected, hash)
	require.NoError(t, in.Close())

	data := out.Bytes()
	data[len(data)/2] ^= 1
	require.NoError(t, ioutil.WriteFile(path, data, 0644))
	in, err = OpenFileIndexInput(path, MIN_BUFFER_SIZE)
	require.NoError(t, err)
	defer in.Close()
	_, err = ChecksumEntireFile(in)
	require.True(t, codec.IsCorruptIndex(err), "%v", err)
}

func TestOpenMissingFile(t *testing.T) {
	_, err := OpenFileIndexInput(filepath.Join(t.TempDir(), "missing"), DEFAULT_BUFFER_SIZE)
	require.Error(t, err)
	require.True(t, os.IsNotExist(errors.Cause(err)))
}
