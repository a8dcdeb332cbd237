package fst

import (
	"testing"

	"github.com/ironsweet/golucene-core/core/store"
	"github.com/ironsweet/golucene-core/core/util"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

/* Writes each output then reads them all back in order. */
func roundTrip[T any](t *testing.T, outputs Outputs[T], values ...T) []T {
	out := store.NewByteBuffersDataOutput()
	for _, v := range values {
		require.NoError(t, outputs.Write(v, out))
	}
	in := store.NewByteSliceIndexInput("outputs", out.Bytes())
	ans := make([]T, len(values))
	for i := range values {
		v, err := outputs.Read(in)
		require.NoError(t, err)
		ans[i] = v
	}
	require.Equal(t, in.Length(), in.FilePointer())
	return ans
}

func TestByteSequenceOutputs(t *testing.T) {
	o := ByteSequenceOutputsSingleton()
	foo, food := []byte("foo"), []byte("food")

	require.Equal(t, foo, o.Common(foo, food))
	require.Equal(t, []byte("fo"), o.Common(foo, []byte("fox")))
	require.Nil(t, o.Common(foo, []byte("bar")))

	require.Equal(t, []byte("d"), o.Subtract(food, foo))
	require.Nil(t, o.Subtract(foo, foo))
	require.Equal(t, foo, o.Subtract(foo, nil))
	require.Panics(t, func() { o.Subtract(foo, []byte("bar")) })

	require.Equal(t, food, o.Add(foo, []byte("d")))
	require.Equal(t, foo, o.Add(nil, foo))
	require.Equal(t, foo, o.Add(foo, o.NoOutput()))

	got := roundTrip[[]byte](t, o, food, nil, []byte{0, 0xff})
	require.Equal(t, food, got[0])
	require.True(t, o.Equal(o.NoOutput(), got[1]))
	require.Equal(t, []byte{0, 0xff}, got[2])

	require.Equal(t, o.Hash(foo), o.Hash(o.Common(foo, food)))
	require.Equal(t, "[00 ff]", o.OutputString([]byte{0, 0xff}))
}

func TestIntSequenceOutputs(t *testing.T) {
	o := IntSequenceOutputsSingleton()
	a, b := []int{1, 2, 3}, []int{1, 2, 7, 8}

	require.Equal(t, []int{1, 2}, o.Common(a, b))
	require.Nil(t, o.Common(a, []int{9}))
	require.Equal(t, []int{7, 8}, o.Subtract(b, []int{1, 2}))
	require.Nil(t, o.Subtract(a, a))
	require.Panics(t, func() { o.Subtract(a, []int{1, 2, 3, 4}) })
	require.Equal(t, b, o.Add([]int{1, 2}, []int{7, 8}))

	got := roundTrip[[]int](t, o, a, nil, []int{0x10FFFF})
	require.Equal(t, a, got[0])
	require.Nil(t, got[1])
	require.Equal(t, []int{0x10FFFF}, got[2])
	require.Equal(t, "[1 2 3]", o.OutputString(a))
	require.Equal(t, util.SizeOf(a), o.RamBytesUsed(a))
}

func TestPositiveIntOutputs(t *testing.T) {
	o := PositiveIntOutputsSingleton()
	require.EqualValues(t, 3, o.Common(3, 10))
	require.EqualValues(t, 0, o.Common(0, 10))
	require.EqualValues(t, 7, o.Subtract(10, 3))
	require.EqualValues(t, 13, o.Add(10, 3))
	require.Panics(t, func() { o.Subtract(3, 10) })

	got := roundTrip[int64](t, o, 0, 1, 1<<40)
	require.Equal(t, []int64{0, 1, 1 << 40}, got)
}

func TestMergeUnsupported(t *testing.T) {
	_, err := PositiveIntOutputsSingleton().Merge(1, 2)
	require.Equal(t, ErrMergeUnsupported, errors.Cause(err))
	_, err = ByteSequenceOutputsSingleton().Merge([]byte("a"), []byte("b"))
	require.Equal(t, ErrMergeUnsupported, errors.Cause(err))
	_, err = IntSequenceOutputsSingleton().Merge([]int{1}, []int{2})
	require.Equal(t, ErrMergeUnsupported, errors.Cause(err))

	require.False(t, canMerge[int64](PositiveIntOutputsSingleton()))
	require.True(t, canMerge[[]int64](NewListOfOutputs[int64](PositiveIntOutputsSingleton())))
}

func pairOutputs() *PairOutputs[int64, []byte] {
	return NewPairOutputs[int64, []byte](PositiveIntOutputsSingleton(), ByteSequenceOutputsSingleton())
}

func TestPairOutputs(t *testing.T) {
	o := pairOutputs()
	p1 := o.NewPair(5, []byte("abc"))
	p2 := o.NewPair(8, []byte("abd"))

	common := o.Common(p1, p2)
	require.EqualValues(t, 5, common.Output1)
	require.Equal(t, []byte("ab"), common.Output2)

	rest := o.Subtract(p2, common)
	require.EqualValues(t, 3, rest.Output1)
	require.Equal(t, []byte("d"), rest.Output2)
	require.True(t, o.Equal(p2, o.Add(common, rest)))
	require.False(t, o.Equal(p1, p2))
	require.True(t, isNoOutput[Pair[int64, []byte]](o, o.NewPair(0, nil)))

	got := roundTrip[Pair[int64, []byte]](t, o, p1, o.NoOutput())
	require.True(t, o.Equal(p1, got[0]))
	require.True(t, o.Equal(o.NoOutput(), got[1]))

	require.Equal(t, "<pair:5,[61 62 63]>", o.OutputString(p1))
	_, err := o.Merge(p1, p2)
	require.Equal(t, ErrMergeUnsupported, errors.Cause(err))
}

func TestPairOutputsCompile(t *testing.T) {
	o := pairOutputs()
	terms := map[string]Pair[int64, []byte]{
		"cat":    o.NewPair(1, []byte("feline")),
		"catnip": o.NewPair(4, []byte("fe")),
		"cow":    o.NewPair(2, nil),
		"dog":    o.NewPair(3, []byte("canine")),
	}
	c, err := NewFSTCompilerBuilder[Pair[int64, []byte]](INPUT_TYPE_BYTE1, o).Build()
	require.NoError(t, err)
	scratch := util.NewIntsRefBuilder()
	for _, term := range []string{"cat", "catnip", "cow", "dog"} {
		require.NoError(t, c.Add(ToIntsRef([]byte(term), scratch), terms[term]))
	}
	fst, err := c.CompileFST()
	require.NoError(t, err)

	for term, want := range terms {
		v, ok, err := GetBytes(fst, []byte(term))
		require.NoError(t, err)
		require.True(t, ok, term)
		require.True(t, o.Equal(want, v), "%v: %v", term, o.OutputString(v))
	}
	for _, term := range []string{"ca", "catn", "do", "dogs"} {
		_, ok, err := GetBytes(fst, []byte(term))
		require.NoError(t, err)
		require.False(t, ok, term)
	}
}
