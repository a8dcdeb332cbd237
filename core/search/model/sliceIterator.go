package model

import (
	"sort"
)

/* Iterates over a sorted []int of doc ids. */
type SliceIterator struct {
	docs []int
	upto int
	doc  int
}

func NewSliceIterator(docs []int) *SliceIterator {
	return &SliceIterator{docs: docs, upto: -1, doc: -1}
}

func (it *SliceIterator) DocId() int {
	return it.doc
}

func (it *SliceIterator) NextDoc() (int, error) {
	if it.upto++; it.upto >= len(it.docs) {
		it.doc = NO_MORE_DOCS
	} else {
		it.doc = it.docs[it.upto]
	}
	return it.doc, nil
}

func (it *SliceIterator) Advance(target int) (int, error) {
	from := it.upto + 1
	it.upto = from + sort.SearchInts(it.docs[from:], target)
	if it.upto >= len(it.docs) {
		it.doc = NO_MORE_DOCS
	} else {
		it.doc = it.docs[it.upto]
	}
	return it.doc, nil
}

func (it *SliceIterator) Cost() int64 {
	return int64(len(it.docs))
}
