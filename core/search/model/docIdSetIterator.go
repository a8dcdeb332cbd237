package model

import (
	"math"
)

// search/DocIdSetIterator.java

/* Sentinel returned once an iterator is exhausted. */
const NO_MORE_DOCS = math.MaxInt32

/*
Iterates over a set of non-decreasing doc ids. Before the first call
to NextDoc() or Advance(), DocId() returns -1.
*/
type DocIdSetIterator interface {
	/**
	 * Returns the following:
	 * <ul>
	 * <li>-1 if {@link #nextDoc()} or
	 * {@link #advance(int)} were not called yet.
	 * <li>{@link #NO_MORE_DOCS} if the iterator has exhausted.
	 * <li>Otherwise it should return the doc ID it is currently on.
	 * </ul>
	 */
	DocId() int
	/**
	 * Advances to the next document in the set and returns the doc it is
	 * currently on, or {@link #NO_MORE_DOCS} if there are no more docs in the
	 * set.
	 */
	NextDoc() (doc int, err error)
	/**
	 * Advances to the first beyond the current whose document number is greater
	 * than or equal to <i>target</i>, and returns the document number itself.
	 * Exhausts the iterator and returns {@link #NO_MORE_DOCS} if <i>target</i>
	 * is greater than the highest document number in the set.
	 */
	Advance(target int) (doc int, err error)
	/**
	 * Returns the estimated cost of this {@link DocIdSetIterator}.
	 * <p>
	 * This is generally an upper bound of the number of documents this iterator
	 * might match, but may be a rough heuristic, hardcoded value, or otherwise
	 * completely inaccurate.
	 */
	Cost() int64
}

/*
Slow (linear) implementation of Advance() relying on NextDoc() to
advance beyond the target position.
*/
func SlowAdvance(it DocIdSetIterator, target int) (doc int, err error) {
	assert(it.DocId() < target)
	for doc = it.DocId(); doc < target; {
		if doc, err = it.NextDoc(); err != nil {
			return 0, err
		}
	}
	return doc, nil
}

func assert(ok bool) {
	if !ok {
		panic("assert fail")
	}
}
