package lucene90

import (
	"math/rand"
	"sort"
	"testing"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/ironsweet/golucene-core/core/codec"
	"github.com/ironsweet/golucene-core/core/search/model"
	"github.com/ironsweet/golucene-core/core/store"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
)

type encoded struct {
	data           []byte
	jumpTableCount int
	denseRankPower int8
	cost           int64
}

func encode(t *testing.T, docs []int, denseRankPower int8) encoded {
	out := store.NewByteBuffersDataOutput()
	count, err := WriteBitSet(model.NewSliceIterator(docs), out, denseRankPower)
	require.NoError(t, err)
	return encoded{out.Bytes(), int(count), denseRankPower, int64(len(docs))}
}

func (e encoded) open(t *testing.T) *IndexedDISI {
	in := store.NewByteSliceIndexInput("disi", e.data)
	disi, err := NewIndexedDISI(in, 0, int64(len(e.data)), e.jumpTableCount, e.denseRankPower, e.cost)
	require.NoError(t, err)
	return disi
}

/* Opens the same block data but ignores the jump table. */
func (e encoded) openWithoutJumps(t *testing.T) *IndexedDISI {
	in := store.NewByteSliceIndexInput("disi", e.data)
	blocks, err := CreateBlockSlice(in, "docs", 0, int64(len(e.data)), e.jumpTableCount)
	require.NoError(t, err)
	disi, err := NewIndexedDISIFromSlices(blocks, nil, 0, e.denseRankPower, e.cost)
	require.NoError(t, err)
	return disi
}

func sortedUnique(docs []int) []int {
	sort.Ints(docs)
	ans := docs[:0]
	for i, d := range docs {
		if i == 0 || d != docs[i-1] {
			ans = append(ans, d)
		}
	}
	return ans
}

func assertIteration(t *testing.T, docs []int, disi *IndexedDISI) {
	for i, expected := range docs {
		doc, err := disi.NextDoc()
		require.NoError(t, err)
		require.Equal(t, expected, doc)
		require.Equal(t, i, disi.Index())
	}
	doc, err := disi.NextDoc()
	require.NoError(t, err)
	require.Equal(t, model.NO_MORE_DOCS, doc)
	doc, err = disi.NextDoc()
	require.NoError(t, err)
	require.Equal(t, model.NO_MORE_DOCS, doc)
}

func assertAdvance(t *testing.T, docs []int, e encoded, step int) {
	disi := e.open(t)
	for target, i := 0, 0; ; target += step {
		for i < len(docs) && docs[i] < target {
			i++
		}
		doc, err := disi.Advance(target)
		require.NoError(t, err)
		if i == len(docs) {
			require.Equal(t, model.NO_MORE_DOCS, doc, "target=%v", target)
			return
		}
		require.Equal(t, docs[i], doc, "target=%v", target)
		require.Equal(t, i, disi.Index(), "target=%v", target)
		target = doc
	}
}

func assertAdvanceExact(t *testing.T, docs []int, e encoded, step int) {
	bm := roaring.New()
	for _, d := range docs {
		bm.Add(uint32(d))
	}
	disi := e.open(t)
	max := 0
	if len(docs) > 0 {
		max = docs[len(docs)-1]
	}
	for target := 0; target <= max; target += step {
		found, err := disi.AdvanceExact(target)
		require.NoError(t, err)
		require.Equal(t, bm.Contains(uint32(target)), found, "target=%v", target)
		require.Equal(t, target, disi.DocId())
		if found {
			require.Equal(t, int(bm.Rank(uint32(target)))-1, disi.Index(), "target=%v", target)
		}
	}
}

func TestTwoBlocksSparseExample(t *testing.T) {
	docs := []int{0, 1, 2, 65536, 131071, 131072}
	e := encode(t, docs, DEFAULT_DENSE_RANK_POWER)

	disi := e.open(t)
	doc, err := disi.Advance(65536)
	require.NoError(t, err)
	require.Equal(t, 65536, doc)
	require.Equal(t, 3, disi.Index())

	disi = e.open(t)
	doc, err = disi.Advance(3)
	require.NoError(t, err)
	require.Equal(t, 65536, doc)

	assertIteration(t, docs, e.open(t))
	assertIteration(t, docs, e.openWithoutJumps(t))
	require.Equal(t, 4, e.jumpTableCount)
}

func TestEmpty(t *testing.T) {
	for _, power := range []int8{-1, 7, 9, 15} {
		e := encode(t, nil, power)
		// a single sentinel block (header + one short), no jump table
		require.Equal(t, 0, e.jumpTableCount)
		require.Equal(t, 6, len(e.data))
		assertIteration(t, nil, e.open(t))
		assertIteration(t, nil, e.openWithoutJumps(t))
	}
}

func TestSingleBlockCollapsesJumpTable(t *testing.T) {
	e := encode(t, []int{5, 10, 4000}, DEFAULT_DENSE_RANK_POWER)
	require.Equal(t, 0, e.jumpTableCount)
	assertIteration(t, []int{5, 10, 4000}, e.open(t))
}

func TestInvalidRankPowerWritesNothing(t *testing.T) {
	for _, power := range []int8{-2, 0, 6, 16} {
		out := store.NewByteBuffersDataOutput()
		_, err := WriteBitSet(model.NewSliceIterator([]int{1, 2, 3}), out, power)
		require.Error(t, err)
		require.Equal(t, int64(0), out.FilePointer())

		_, err = NewIndexedDISIFromSlices(store.NewByteSliceIndexInput("x", nil), nil, 0, power, 0)
		require.Error(t, err)
	}
}

/* Block 0 ALL, 1 DENSE, 3 SPARSE, 5 DENSE, 9 SPARSE with one doc. */
func mixedDocs() []int {
	var docs []int
	for d := 0; d < 65536; d++ {
		docs = append(docs, d)
	}
	for d := 65536; d < 2*65536; d += 3 {
		docs = append(docs, d)
	}
	for d := 3 * 65536; d < 4*65536; d += 100 {
		docs = append(docs, d)
	}
	for d := 5*65536 + 1; d < 6*65536; d += 2 {
		docs = append(docs, d)
	}
	return append(docs, 9*65536+65535)
}

func TestMixedBlocks(t *testing.T) {
	docs := mixedDocs()
	for _, power := range []int8{-1, 7, 9, 15} {
		e := encode(t, docs, power)
		require.Equal(t, 11, e.jumpTableCount)
		assertIteration(t, docs, e.open(t))
		assertIteration(t, docs, e.openWithoutJumps(t))
		for _, step := range []int{1, 63, 997, 40000, 200000} {
			assertAdvance(t, docs, e, step)
			assertAdvanceExact(t, docs, e, step)
		}
	}
}

func TestDenseRankSkipLandsOnTarget(t *testing.T) {
	var docs []int
	for d := 0; d < 65536; d += 7 {
		docs = append(docs, d)
	}
	e := encode(t, docs, 7)
	disi := e.open(t)
	doc, err := disi.Advance(60000)
	require.NoError(t, err)
	require.Equal(t, 60004, doc)
	require.Equal(t, 60004/7, disi.Index())

	found, err := e.open(t).AdvanceExact(64002)
	require.NoError(t, err)
	require.False(t, found)
}

func TestCloneIsIndependent(t *testing.T) {
	docs := mixedDocs()
	e := encode(t, docs, DEFAULT_DENSE_RANK_POWER)
	disi := e.open(t)
	_, err := disi.Advance(70000)
	require.NoError(t, err)
	clone := disi.Clone()
	require.Equal(t, disi.DocId(), clone.DocId())

	doc, err := disi.Advance(5 * 65536)
	require.NoError(t, err)
	require.Equal(t, 5*65536+1, doc)

	doc, err = clone.NextDoc()
	require.NoError(t, err)
	require.Equal(t, 70003, doc)
	require.Equal(t, e.cost, clone.Cost())
}

func TestTruncatedInputIsCorrupt(t *testing.T) {
	docs := mixedDocs()
	e := encode(t, docs, DEFAULT_DENSE_RANK_POWER)
	// cut the DENSE block 1 in the middle of its bitmap, drop the jump table
	truncated := encoded{e.data[:4+4+256+4096], 0, e.denseRankPower, e.cost}
	disi := truncated.open(t)
	var err error
	for i := 0; i < len(docs) && err == nil; i++ {
		_, err = disi.NextDoc()
	}
	require.Error(t, err)
	require.True(t, codec.IsCorruptIndex(err), "%v", err)
}

func TestRoaringSource(t *testing.T) {
	bm := roaring.New()
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 20000; i++ {
		bm.Add(uint32(r.Intn(1 << 20)))
	}
	out := store.NewByteBuffersDataOutput()
	count, err := WriteBitSetDefault(model.NewRoaringIterator(bm), out)
	require.NoError(t, err)

	e := encoded{out.Bytes(), int(count), DEFAULT_DENSE_RANK_POWER, int64(bm.GetCardinality())}
	disi := e.open(t)
	it := bm.Iterator()
	for i := 0; it.HasNext(); i++ {
		doc, err := disi.NextDoc()
		require.NoError(t, err)
		require.Equal(t, int(it.Next()), doc)
		require.Equal(t, i, disi.Index())
	}
}

func TestWriteBitSetProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	seed := time.Now().UnixNano()
	parameters.MinSuccessfulTests = 30
	parameters.Rng = rand.New(rand.NewSource(seed))
	properties := gopter.NewProperties(parameters)

	docsGen := gen.SliceOf(gen.IntRange(0, 6*65536))

	properties.Property("iteration yields the input with ordinals", prop.ForAll(
		func(raw []int, power int8) bool {
			docs := sortedUnique(raw)
			e := encode(t, docs, power)
			assertIteration(t, docs, e.open(t))
			return true
		},
		docsGen,
		gen.OneConstOf(int8(-1), int8(7), int8(9), int8(15)),
	))

	properties.Property("advance lands on the ceiling", prop.ForAll(
		func(raw []int, step int) bool {
			docs := sortedUnique(raw)
			e := encode(t, docs, DEFAULT_DENSE_RANK_POWER)
			assertAdvance(t, docs, e, step)
			assertAdvanceExact(t, docs, e, step)
			return true
		},
		docsGen,
		gen.IntRange(1, 70000),
	))

	properties.Property("jump table does not change results", prop.ForAll(
		func(raw []int) bool {
			docs := sortedUnique(raw)
			e := encode(t, docs, DEFAULT_DENSE_RANK_POWER)
			with, without := e.open(t), e.openWithoutJumps(t)
			for target := 0; ; target += 30011 {
				d1, err := with.Advance(target)
				require.NoError(t, err)
				d2, err := without.Advance(target)
				require.NoError(t, err)
				if d1 != d2 || with.Index() != without.Index() {
					return false
				}
				if d1 == model.NO_MORE_DOCS {
					return true
				}
				target = d1
			}
		},
		docsGen,
	))

	properties.TestingRun(t)
}

func TestDISIConfiguration(t *testing.T) {
	cfg, err := ParseDISIConfiguration([]byte("denseRankPower: 7\n"))
	require.NoError(t, err)
	power, err := cfg.RankPower()
	require.NoError(t, err)
	require.Equal(t, int8(7), power)

	cfg, err = ParseDISIConfiguration([]byte("{}"))
	require.NoError(t, err)
	power, err = cfg.RankPower()
	require.NoError(t, err)
	require.Equal(t, DEFAULT_DENSE_RANK_POWER, power)

	_, err = ParseDISIConfiguration([]byte("denseRankPower: 3\n"))
	require.Error(t, err)
	_, err = ParseDISIConfiguration([]byte("rank: 3\n"))
	require.Error(t, err)
}
