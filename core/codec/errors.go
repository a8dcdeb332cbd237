package codec

import (
	"fmt"

	"github.com/pkg/errors"
)

// index/CorruptIndexException.java

/* Signals that the on-disk structure is not what the reader expects. */
type CorruptIndexError struct {
	Msg      string
	Resource string
}

func NewCorruptIndexError(resource interface{}, msg string) error {
	return errors.WithStack(&CorruptIndexError{Msg: msg, Resource: fmt.Sprintf("%v", resource)})
}

func (e *CorruptIndexError) Error() string {
	return fmt.Sprintf("%v (resource=%v)", e.Msg, e.Resource)
}

/* Returns true if err, or any error it wraps, is a CorruptIndexError. */
func IsCorruptIndex(err error) bool {
	_, ok := errors.Cause(err).(*CorruptIndexError)
	return ok
}

// index/IndexFormatTooOldException.java

type IndexFormatTooOldError struct {
	Resource   string
	Version    int32
	MinVersion int32
	MaxVersion int32
}

func NewIndexFormatTooOldError(in interface{}, version, minVersion, maxVersion int32) error {
	return errors.WithStack(&IndexFormatTooOldError{fmt.Sprintf("%v", in), version, minVersion, maxVersion})
}

func (e *IndexFormatTooOldError) Error() string {
	return fmt.Sprintf(
		"Format version is not supported (resource: %v): %v (needs to be between %v and %v). This version of golucene only supports formats written since then.",
		e.Resource, e.Version, e.MinVersion, e.MaxVersion)
}

// index/IndexFormatTooNewException.java

type IndexFormatTooNewError struct {
	Resource   string
	Version    int32
	MinVersion int32
	MaxVersion int32
}

func NewIndexFormatTooNewError(in interface{}, version, minVersion, maxVersion int32) error {
	return errors.WithStack(&IndexFormatTooNewError{fmt.Sprintf("%v", in), version, minVersion, maxVersion})
}

func (e *IndexFormatTooNewError) Error() string {
	return fmt.Sprintf(
		"Format version is not supported (resource: %v): %v (needs to be between %v and %v)",
		e.Resource, e.Version, e.MinVersion, e.MaxVersion)
}
