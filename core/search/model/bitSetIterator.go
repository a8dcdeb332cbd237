package model

import (
	"github.com/ironsweet/golucene-core/core/util"
)

// util/BitSetIterator.java

/* A DocIdSetIterator which iterates over set bits in a FixedBitSet. */
type BitSetIterator struct {
	bits   *util.FixedBitSet
	length int
	cost   int64
	doc    int
}

func NewBitSetIterator(bits *util.FixedBitSet, cost int64) *BitSetIterator {
	assert(cost >= 0)
	return &BitSetIterator{bits: bits, length: bits.Length(), cost: cost, doc: -1}
}

func (it *BitSetIterator) DocId() int {
	return it.doc
}

func (it *BitSetIterator) NextDoc() (int, error) {
	return it.Advance(it.doc + 1)
}

func (it *BitSetIterator) Advance(target int) (int, error) {
	if target >= it.length {
		it.doc = NO_MORE_DOCS
		return it.doc, nil
	}
	if it.doc = it.bits.NextSetBit(target); it.doc < 0 {
		it.doc = NO_MORE_DOCS
	}
	return it.doc, nil
}

func (it *BitSetIterator) Cost() int64 {
	return it.cost
}
