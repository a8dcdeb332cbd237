package store

import (
	"bufio"
	"hash/crc32"
	"io"
)

// store/OutputStreamIndexOutput.java

/* Implementation class for buffered IndexOutput that writes to a WriterCloser. */
type OutputStreamIndexOutput struct {
	*IndexOutputImpl

	crc *BufferedChecksum
	os  *bufio.Writer
	c   io.Closer

	bytesWritten int64
	flushOnClose bool
}

/* Creates a new OutputStreamIndexOutput with the given buffer size. */
func NewOutputStreamIndexOutput(out io.WriteCloser, bufferSize int) *OutputStreamIndexOutput {
	ans := &OutputStreamIndexOutput{
		crc:          newBufferedChecksum(crc32.NewIEEE()),
		os:           bufio.NewWriterSize(out, bufferSize),
		c:            out,
		flushOnClose: true,
	}
	ans.IndexOutputImpl = newIndexOutput(ans)
	return ans
}

func (out *OutputStreamIndexOutput) WriteByte(b byte) error {
	out.crc.Write([]byte{b})
	if err := out.os.WriteByte(b); err != nil {
		return err
	}
	out.bytesWritten++
	return nil
}

func (out *OutputStreamIndexOutput) WriteBytes(p []byte) error {
	out.crc.Write(p)
	if _, err := out.os.Write(p); err != nil {
		return err
	}
	out.bytesWritten += int64(len(p))
	return nil
}

func (out *OutputStreamIndexOutput) Close() error {
	var err error
	if out.flushOnClose {
		err = out.os.Flush()
		out.flushOnClose = false
	}
	if err2 := out.c.Close(); err == nil {
		err = err2
	}
	return err
}

func (out *OutputStreamIndexOutput) FilePointer() int64 {
	return out.bytesWritten
}

func (out *OutputStreamIndexOutput) Checksum() int64 {
	return int64(out.crc.Sum32())
}
