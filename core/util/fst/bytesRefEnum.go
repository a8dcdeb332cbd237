package fst

import (
	"github.com/ironsweet/golucene-core/core/util"
)

// util/fst/BytesRefFSTEnum.java

/*
Enumerates all input (BytesRef) + output pairs in an FST.
*/
type BytesRefFSTEnum[T any] struct {
	*fstEnum[T]
	current *util.BytesRef
	result  *BytesRefFSTEnumIO[T]
	target  *util.BytesRef
}

/* Holds a single input ([]byte) + output pair. */
type BytesRefFSTEnumIO[T any] struct {
	Input  *util.BytesRef
	Output T
}

/* Creates an unpositioned enum over all pairs of fst. */
func NewBytesRefFSTEnum[T any](fst *FST[T]) *BytesRefFSTEnum[T] {
	ans := &BytesRefFSTEnum[T]{
		current: util.NewBytesRefFrom(make([]byte, 10)),
		result:  new(BytesRefFSTEnumIO[T]),
	}
	ans.fstEnum = newFSTEnum[T](ans, fst)
	ans.result.Input = ans.current
	ans.current.Offset = 1
	return ans
}

/* Returns the current pair, or nil if the enum is unpositioned or exhausted. */
func (e *BytesRefFSTEnum[T]) Current() *BytesRefFSTEnumIO[T] {
	return e.setResult()
}

func (e *BytesRefFSTEnum[T]) Next() (*BytesRefFSTEnumIO[T], error) {
	if err := e.doNext(); err != nil {
		return nil, err
	}
	return e.setResult(), nil
}

/* Seeks to smallest term that's >= target. */
func (e *BytesRefFSTEnum[T]) SeekCeil(target []byte) (*BytesRefFSTEnumIO[T], error) {
	e.setTarget(target)
	if err := e.doSeekCeil(); err != nil {
		return nil, err
	}
	return e.setResult(), nil
}

/* Seeks to biggest term that's <= target. */
func (e *BytesRefFSTEnum[T]) SeekFloor(target []byte) (*BytesRefFSTEnumIO[T], error) {
	e.setTarget(target)
	if err := e.doSeekFloor(); err != nil {
		return nil, err
	}
	return e.setResult(), nil
}

/*
Seeks to exactly this term, returning nil if the term doesn't exist.
This is faster than using SeekFloor or SeekCeil because it short-
circuits as soon the match is not found.
*/
func (e *BytesRefFSTEnum[T]) SeekExact(target []byte) (*BytesRefFSTEnumIO[T], error) {
	e.setTarget(target)
	found, err := e.doSeekExact()
	if err != nil || !found {
		return nil, err
	}
	assert(e.upto == 1+e.target.Length)
	return e.setResult(), nil
}

func (e *BytesRefFSTEnum[T]) setTarget(target []byte) {
	e.target = util.NewBytesRefFrom(target)
	e.targetLength = len(target)
}

func (e *BytesRefFSTEnum[T]) targetLabel() int {
	if e.upto-1 == e.target.Length {
		return END_LABEL
	}
	return int(e.target.Bytes[e.target.Offset+e.upto-1])
}

func (e *BytesRefFSTEnum[T]) currentLabel() int {
	// current.offset fixed at 1
	return int(e.current.Bytes[e.upto])
}

func (e *BytesRefFSTEnum[T]) setCurrentLabel(label int) {
	e.current.Bytes[e.upto] = byte(label)
}

func (e *BytesRefFSTEnum[T]) grow() {
	e.current.Bytes = util.GrowByteSlice(e.current.Bytes, e.upto+1)
}

func (e *BytesRefFSTEnum[T]) setResult() *BytesRefFSTEnumIO[T] {
	if e.upto == 0 {
		return nil
	}
	e.current.Length = e.upto - 1
	e.result.Output = e.output[e.upto]
	return e.result
}
