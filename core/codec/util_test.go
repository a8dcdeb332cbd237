package codec_test

import (
	"testing"

	. "github.com/ironsweet/golucene-core/core/codec"
	"github.com/ironsweet/golucene-core/core/store"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, codec string, version int, body string) []byte {
	out := store.NewByteBuffersDataOutput()
	require.NoError(t, WriteHeader(out, codec, version))
	require.EqualValues(t, HeaderLength(codec), out.FilePointer())
	require.NoError(t, out.WriteString(body))
	require.NoError(t, WriteFooter(out))
	return out.Bytes()
}

func TestHeaderFooter(t *testing.T) {
	data := writeFile(t, "FSTUtil", 3, "body")

	in := store.NewChecksumIndexInput(store.NewByteSliceIndexInput("test", data))
	version, err := CheckHeader(in, "FSTUtil", 1, 3)
	require.NoError(t, err)
	assert.EqualValues(t, 3, version)
	body, err := in.ReadString()
	require.NoError(t, err)
	assert.Equal(t, "body", body)
	checksum, err := CheckFooter(in)
	require.NoError(t, err)

	retrieved, err := RetrieveChecksum(store.NewByteSliceIndexInput("test", data))
	require.NoError(t, err)
	assert.Equal(t, checksum, retrieved)
}

func TestHeaderMismatch(t *testing.T) {
	data := writeFile(t, "FSTUtil", 3, "")
	check := func(codec string, min, max int32) error {
		_, err := CheckHeader(store.NewByteSliceIndexInput("test", data), codec, min, max)
		return err
	}

	err := check("DISIUtil", 0, 5)
	assert.True(t, IsCorruptIndex(err), "%v", err)

	err = check("FSTUtil", 4, 5)
	_, tooOld := errors.Cause(err).(*IndexFormatTooOldError)
	assert.True(t, tooOld, "%v", err)

	err = check("FSTUtil", 0, 2)
	_, tooNew := errors.Cause(err).(*IndexFormatTooNewError)
	assert.True(t, tooNew, "%v", err)

	data[0] ^= 0xFF
	err = check("FSTUtil", 0, 5)
	assert.True(t, IsCorruptIndex(err), "%v", err)
}

func TestFooterCorruption(t *testing.T) {
	data := writeFile(t, "FSTUtil", 0, "some bytes to checksum")
	verify := func(data []byte) error {
		in := store.NewChecksumIndexInput(store.NewByteSliceIndexInput("test", data))
		if err := in.SeekTo(in.Length() - FOOTER_LENGTH); err != nil {
			return err
		}
		_, err := CheckFooter(in)
		return err
	}
	require.NoError(t, verify(data))

	flipped := append([]byte(nil), data...)
	flipped[HeaderLength("FSTUtil")+3] ^= 1
	err := verify(flipped)
	assert.True(t, IsCorruptIndex(err), "%v", err)

	// a footer that is not at the end of the file
	err = verify(append(append([]byte(nil), data...), 0))
	assert.True(t, IsCorruptIndex(err), "%v", err)
}
