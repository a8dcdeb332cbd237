package store

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
)

// store/SimpleFSDirectory.java

/*
Buffered IndexInput over a file, reading with os.File.ReadAt so clones
and slices can share one descriptor without locking. Only the input
returned by OpenFileIndexInput closes the file; closing a clone or a
slice is a no-op.
*/
type FileIndexInput struct {
	*BufferedIndexInput
	file *os.File
	// start and end of the window this input sees
	off, end int64
	isClone  bool
}

func OpenFileIndexInput(path string, bufferSize int) (*FileIndexInput, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open %v", path)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "cannot stat %v", path)
	}
	return newFileIndexInput(fmt.Sprintf("FileIndexInput(path=%v)", path),
		f, 0, fi.Size(), bufferSize, false), nil
}

func newFileIndexInput(desc string, f *os.File, off, length int64, bufferSize int, isClone bool) *FileIndexInput {
	ans := &FileIndexInput{file: f, off: off, end: off + length, isClone: isClone}
	ans.BufferedIndexInput = newBufferedIndexInput(ans, desc, bufferSize)
	return ans
}

func (in *FileIndexInput) readInternal(pos int64, buf []byte) error {
	position := in.off + pos
	if position+int64(len(buf)) > in.end {
		return errors.Wrapf(io.EOF, "read past EOF: %v (pos=%v, n=%v)", in, pos, len(buf))
	}
	if _, err := in.file.ReadAt(buf, position); err != nil {
		return errors.Wrapf(err, "%v", in)
	}
	return nil
}

func (in *FileIndexInput) Length() int64 {
	return in.end - in.off
}

func (in *FileIndexInput) Close() error {
	if in.isClone {
		return nil
	}
	return in.file.Close()
}

func (in *FileIndexInput) Clone() IndexInput {
	ans := &FileIndexInput{file: in.file, off: in.off, end: in.end, isClone: true}
	ans.BufferedIndexInput = in.BufferedIndexInput.clone(ans)
	return ans
}

func (in *FileIndexInput) Slice(desc string, offset, length int64) (IndexInput, error) {
	return in.slice(desc, offset, length)
}

func (in *FileIndexInput) slice(desc string, offset, length int64) (*FileIndexInput, error) {
	if offset < 0 || length < 0 || offset+length > in.Length() {
		return nil, errors.Errorf("slice() %v out of bounds: offset=%v, length=%v, fileLength=%v",
			desc, offset, length, in.Length())
	}
	return newFileIndexInput(fmt.Sprintf("%v [slice=%v]", in.desc, desc),
		in.file, in.off+offset, length, in.bufferSize, true), nil
}

func (in *FileIndexInput) RandomAccessSlice(offset, length int64) (RandomAccessInput, error) {
	return in.slice("randomaccess", offset, length)
}
