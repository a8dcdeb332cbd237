package store

import (
	"fmt"
	"hash/crc32"
	"io"

	"github.com/ironsweet/golucene-core/core/util"
	"github.com/pkg/errors"
)

type IndexInput interface {
	io.Closer
	util.DataInput
	SkipBytes(numBytes int64) error
	// IndexInput
	FilePointer() int64
	/** Sets current position in this file, where the next read will occur.
	 * @see #getFilePointer()
	 */
	SeekTo(pos int64) error
	Length() int64
	// Clone
	Clone() IndexInput
	/*
		Creates a slice of this index input, with the given description,
		offset, and length. The slice is seeked to the beginning.
	*/
	Slice(desc string, offset, length int64) (IndexInput, error)
	/*
		Creates a random-access slice of this index input, with the given
		offset and length.
	*/
	RandomAccessSlice(offset, length int64) (RandomAccessInput, error)
}

// store/RandomAccessInput.java

/* Random Access Index API. Unlike IndexInput, this has no concept of file position. */
type RandomAccessInput interface {
	Length() int64
	ReadByteAt(pos int64) (byte, error)
	ReadShortAt(pos int64) (int16, error)
	ReadIntAt(pos int64) (int32, error)
	ReadLongAt(pos int64) (int64, error)
}

type IndexInputImpl struct {
	*util.DataInputImpl
	desc string
}

func newIndexInputImpl(desc string, r util.DataReader) *IndexInputImpl {
	assert2(desc != "", "resourceDescription must not be null")
	return &IndexInputImpl{DataInputImpl: util.NewDataInput(r), desc: desc}
}

func (in *IndexInputImpl) String() string {
	return in.desc
}

// store/BufferedChecksumIndexInput.java

/*
Extension of IndexInput, computing checksum as it goes. Callers can
retrieve the checksum via Checksum().
*/
type ChecksumIndexInput struct {
	*IndexInputImpl
	main   IndexInput
	digest *BufferedChecksum
}

func NewChecksumIndexInput(main IndexInput) *ChecksumIndexInput {
	ans := &ChecksumIndexInput{main: main, digest: newBufferedChecksum(crc32.NewIEEE())}
	ans.IndexInputImpl = newIndexInputImpl(fmt.Sprintf("ChecksumIndexInput(%v)", main), ans)
	return ans
}

func (in *ChecksumIndexInput) ReadByte() (b byte, err error) {
	if b, err = in.main.ReadByte(); err == nil {
		in.digest.Write([]byte{b})
	}
	return b, err
}

func (in *ChecksumIndexInput) ReadBytes(buf []byte) error {
	err := in.main.ReadBytes(buf)
	if err == nil {
		in.digest.Write(buf)
	}
	return err
}

func (in *ChecksumIndexInput) Checksum() int64 {
	return int64(in.digest.Sum32())
}

func (in *ChecksumIndexInput) Close() error {
	return in.main.Close()
}

func (in *ChecksumIndexInput) FilePointer() int64 {
	return in.main.FilePointer()
}

/* Only forward seeks are supported; skipped bytes are still checksummed. */
func (in *ChecksumIndexInput) SeekTo(pos int64) error {
	curr := in.FilePointer()
	if pos < curr {
		return errors.Errorf(
			"ChecksumIndexInput cannot seek backwards (pos=%v getFilePointer()=%v)", pos, curr)
	}
	return in.SkipBytes(pos - curr)
}

func (in *ChecksumIndexInput) Length() int64 {
	return in.main.Length()
}

func (in *ChecksumIndexInput) Clone() IndexInput {
	panic("unsupported")
}

func (in *ChecksumIndexInput) Slice(desc string, offset, length int64) (IndexInput, error) {
	return nil, errors.New("ChecksumIndexInput cannot be sliced")
}

func (in *ChecksumIndexInput) RandomAccessSlice(offset, length int64) (RandomAccessInput, error) {
	return nil, errors.New("ChecksumIndexInput cannot be sliced")
}
