package store

import (
	"io"

	"github.com/ironsweet/golucene-core/core/util"
)

// store/IndexOutput.java

type IndexOutput interface {
	io.Closer
	util.DataOutput
	// Returns the current position in this file, where the next write will occur.
	FilePointer() int64
	// Returns the current checksum of bytes written so far
	Checksum() int64
}

type IndexOutputImpl struct {
	*util.DataOutputImpl
}

func newIndexOutput(part util.DataWriter) *IndexOutputImpl {
	return &IndexOutputImpl{util.NewDataOutput(part)}
}
