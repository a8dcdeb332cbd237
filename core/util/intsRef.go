package util

import (
	"bytes"
	"fmt"
)

// util/IntsRef.java

/* An empty integer array for convenience */
var EMPTY_INTS = []int{}

/*
Represents []int, as a slice (offset + length) into an existing []int.
The ints member should never be nil; use EMPTY_INTS if necessary.

Go's native slice is always preferrable unless the reference pointer
need to remain unchanged, in which case, this class is more useful.
*/
type IntsRef struct {
	// The contents of teh IntsRef. Should never be nil.
	Ints []int
	// Offset of first valid integer.
	Offset int
	// Length of used ints.
	Length int
}

func NewEmptyIntsRef() *IntsRef {
	return &IntsRef{Ints: EMPTY_INTS}
}

func NewIntsRef(ints []int, offset, length int) *IntsRef {
	return &IntsRef{Ints: ints, Offset: offset, Length: length}
}

func NewIntsRefFrom(ints []int) *IntsRef {
	return &IntsRef{Ints: ints, Length: len(ints)}
}

func (a *IntsRef) At(i int) int {
	return a.Ints[a.Offset+i]
}

func (a *IntsRef) Value() []int {
	return a.Ints[a.Offset : a.Offset+a.Length]
}

/* Signed int order comparison */
func (a *IntsRef) CompareTo(other *IntsRef) int {
	if a == other {
		return 0
	}
	av, bv := a.Value(), other.Value()
	for i := 0; i < len(av) && i < len(bv); i++ {
		if av[i] > bv[i] {
			return 1
		} else if av[i] < bv[i] {
			return -1
		}
	}
	// one is a prefix of the other, or, they are equal:
	return a.Length - other.Length
}

func (a *IntsRef) Less(other *IntsRef) bool {
	return a.CompareTo(other) < 0
}

func (a *IntsRef) Equals(other *IntsRef) bool {
	return a.CompareTo(other) == 0
}

func (a *IntsRef) String() string {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, v := range a.Value() {
		if i > 0 {
			buf.WriteByte(' ')
		}
		fmt.Fprintf(&buf, "%x", v)
	}
	buf.WriteByte(']')
	return buf.String()
}

/* Returns a new IntsRef holding a copy of other's valid ints. */
func DeepCopyOfInts(other *IntsRef) *IntsRef {
	ints := make([]int, other.Length)
	copy(ints, other.Value())
	return NewIntsRefFrom(ints)
}

// util/IntsRefBuilder.java

type IntsRefBuilder struct {
	ref *IntsRef
}

func NewIntsRefBuilder() *IntsRefBuilder {
	return &IntsRefBuilder{
		ref: NewEmptyIntsRef(),
	}
}

func (a *IntsRefBuilder) Length() int {
	return a.ref.Length
}

func (a *IntsRefBuilder) SetLength(length int) {
	a.ref.Length = length
}

func (a *IntsRefBuilder) Clear() {
	a.ref.Length = 0
}

func (a *IntsRefBuilder) At(offset int) int {
	return a.ref.Ints[offset]
}

func (a *IntsRefBuilder) SetIntAt(offset, v int) {
	a.ref.Ints[offset] = v
}

func (a *IntsRefBuilder) Append(i int) {
	a.Grow(a.ref.Length + 1)
	a.ref.Ints[a.ref.Length] = i
	a.ref.Length++
}

func (a *IntsRefBuilder) Grow(newLength int) {
	a.ref.Ints = GrowIntSlice(a.ref.Ints, newLength)
}

func (a *IntsRefBuilder) CopyIntSlice(other []int) {
	a.Grow(len(other))
	copy(a.ref.Ints, other)
	a.ref.Length = len(other)
}

func (a *IntsRefBuilder) CopyInts(ints *IntsRef) {
	a.CopyIntSlice(ints.Value())
}

func (a *IntsRefBuilder) Get() *IntsRef {
	assert2(a.ref.Offset == 0, "Modifying the offset of the returned ref is illegal")
	return a.ref
}
