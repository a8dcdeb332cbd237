package model

import (
	"testing"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/ironsweet/golucene-core/core/util"
	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, it DocIdSetIterator) []int {
	var ans []int
	for {
		doc, err := it.NextDoc()
		require.NoError(t, err)
		if doc == NO_MORE_DOCS {
			return ans
		}
		ans = append(ans, doc)
	}
}

func TestIteratorsAgree(t *testing.T) {
	docs := []int{0, 3, 64, 65, 1000, 4095}
	bits := util.NewFixedBitSet(4096)
	bm := roaring.New()
	for _, d := range docs {
		bits.Set(d)
		bm.Add(uint32(d))
	}
	for _, it := range []DocIdSetIterator{
		NewSliceIterator(docs),
		NewBitSetIterator(bits, int64(len(docs))),
		NewRoaringIterator(bm),
	} {
		require.Equal(t, -1, it.DocId())
		require.Equal(t, int64(len(docs)), it.Cost())
		require.Equal(t, docs, drain(t, it))
		require.Equal(t, NO_MORE_DOCS, it.DocId())
	}
}

func TestIteratorsAdvance(t *testing.T) {
	docs := []int{2, 10, 11, 500}
	bits := util.NewFixedBitSet(501)
	bm := roaring.New()
	for _, d := range docs {
		bits.Set(d)
		bm.Add(uint32(d))
	}
	for _, it := range []DocIdSetIterator{
		NewSliceIterator(docs),
		NewBitSetIterator(bits, int64(len(docs))),
		NewRoaringIterator(bm),
	} {
		doc, err := it.Advance(3)
		require.NoError(t, err)
		require.Equal(t, 10, doc)
		doc, err = it.Advance(11)
		require.NoError(t, err)
		require.Equal(t, 11, doc)
		doc, err = SlowAdvance(it, 400)
		require.NoError(t, err)
		require.Equal(t, 500, doc)
		doc, err = it.Advance(501)
		require.NoError(t, err)
		require.Equal(t, NO_MORE_DOCS, doc)
	}
}
