package fst

import (
	"github.com/ironsweet/golucene-core/core/util"
)

// util/fst/IntsRefFSTEnum.java

/* Enumerates all input (IntsRef) + output pairs in an FST. */
type IntsRefFSTEnum[T any] struct {
	*fstEnum[T]
	current *util.IntsRef
	result  *IntsRefFSTEnumIO[T]
	target  *util.IntsRef
}

/* Holds a single input (IntsRef) + output pair. */
type IntsRefFSTEnumIO[T any] struct {
	Input  *util.IntsRef
	Output T
}

func NewIntsRefFSTEnum[T any](fst *FST[T]) *IntsRefFSTEnum[T] {
	ans := &IntsRefFSTEnum[T]{
		current: util.NewIntsRef(make([]int, 10), 1, 0),
		result:  new(IntsRefFSTEnumIO[T]),
	}
	ans.fstEnum = newFSTEnum[T](ans, fst)
	ans.result.Input = ans.current
	return ans
}

func (e *IntsRefFSTEnum[T]) Current() *IntsRefFSTEnumIO[T] {
	return e.setResult()
}

func (e *IntsRefFSTEnum[T]) Next() (*IntsRefFSTEnumIO[T], error) {
	if err := e.doNext(); err != nil {
		return nil, err
	}
	return e.setResult(), nil
}

/* Seeks to smallest term that's >= target. */
func (e *IntsRefFSTEnum[T]) SeekCeil(target *util.IntsRef) (*IntsRefFSTEnumIO[T], error) {
	e.setTarget(target)
	if err := e.doSeekCeil(); err != nil {
		return nil, err
	}
	return e.setResult(), nil
}

/* Seeks to biggest term that's <= target. */
func (e *IntsRefFSTEnum[T]) SeekFloor(target *util.IntsRef) (*IntsRefFSTEnumIO[T], error) {
	e.setTarget(target)
	if err := e.doSeekFloor(); err != nil {
		return nil, err
	}
	return e.setResult(), nil
}

/* Seeks to exactly this term, returning nil if the term doesn't exist. */
func (e *IntsRefFSTEnum[T]) SeekExact(target *util.IntsRef) (*IntsRefFSTEnumIO[T], error) {
	e.setTarget(target)
	found, err := e.doSeekExact()
	if err != nil || !found {
		return nil, err
	}
	assert(e.upto == 1+e.target.Length)
	return e.setResult(), nil
}

func (e *IntsRefFSTEnum[T]) setTarget(target *util.IntsRef) {
	e.target = target
	e.targetLength = target.Length
}

func (e *IntsRefFSTEnum[T]) targetLabel() int {
	if e.upto-1 == e.target.Length {
		return END_LABEL
	}
	return e.target.Ints[e.target.Offset+e.upto-1]
}

func (e *IntsRefFSTEnum[T]) currentLabel() int {
	// current.offset fixed at 1
	return e.current.Ints[e.upto]
}

func (e *IntsRefFSTEnum[T]) setCurrentLabel(label int) {
	e.current.Ints[e.upto] = label
}

func (e *IntsRefFSTEnum[T]) grow() {
	e.current.Ints = util.GrowIntSlice(e.current.Ints, e.upto+1)
}

func (e *IntsRefFSTEnum[T]) setResult() *IntsRefFSTEnumIO[T] {
	if e.upto == 0 {
		return nil
	}
	e.current.Length = e.upto - 1
	e.result.Output = e.output[e.upto]
	return e.result
}
