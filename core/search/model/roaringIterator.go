package model

import (
	"github.com/RoaringBitmap/roaring/v2"
)

/* A DocIdSetIterator over a roaring bitmap. */
type RoaringIterator struct {
	it   roaring.IntPeekable
	cost int64
	doc  int
}

func NewRoaringIterator(bm *roaring.Bitmap) *RoaringIterator {
	return &RoaringIterator{it: bm.Iterator(), cost: int64(bm.GetCardinality()), doc: -1}
}

func (it *RoaringIterator) DocId() int {
	return it.doc
}

func (it *RoaringIterator) NextDoc() (int, error) {
	if it.it.HasNext() {
		it.doc = int(it.it.Next())
	} else {
		it.doc = NO_MORE_DOCS
	}
	return it.doc, nil
}

func (it *RoaringIterator) Advance(target int) (int, error) {
	it.it.AdvanceIfNeeded(uint32(target))
	return it.NextDoc()
}

func (it *RoaringIterator) Cost() int64 {
	return it.cost
}
