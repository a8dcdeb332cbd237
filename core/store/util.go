package store

import (
	"fmt"

	"github.com/ironsweet/golucene-core/core/codec"
)

/*
Clones the provided input, reads all bytes from the file, and calls
CheckFooter().

Note that this method may be slow, as it must process the entire file.
If you just need to extract the checksum value, call RetrieveChecksum().
*/
func ChecksumEntireFile(input IndexInput) (hash int64, err error) {
	clone := input.Clone()
	if err = clone.SeekTo(0); err != nil {
		return 0, err
	}
	in := NewChecksumIndexInput(clone)
	assert(in.FilePointer() == 0)
	if err = in.SeekTo(in.Length() - codec.FOOTER_LENGTH); err != nil {
		return 0, err
	}
	return codec.CheckFooter(in)
}

func assert(ok bool) {
	assert2(ok, "assert fail")
}

func assert2(ok bool, msg string, args ...interface{}) {
	if !ok {
		panic(fmt.Sprintf(msg, args...))
	}
}
