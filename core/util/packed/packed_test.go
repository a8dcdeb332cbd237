package packed

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMaxValue(t *testing.T) {
	if MaxValue(0) != 0 {
		t.Error("0 bit -> 0")
	}
	if MaxValue(1) != 1 {
		t.Error("1 bit -> 1")
	}
	if MaxValue(2) != 3 {
		t.Error("2 bits -> 3")
	}
	if MaxValue(64) != 0x7fffffffffffffff {
		t.Error("64 bits -> 0x7fffffffffffffff")
	}
}

func TestUnsignedBitsRequired(t *testing.T) {
	if n := UnsignedBitsRequired(-158146830731166066); n != 64 {
		t.Errorf("-158146830731166066 -> 64bit (got %v)", n)
	}
	require.Equal(t, 1, UnsignedBitsRequired(0))
	require.Equal(t, 1, BitsRequired(1))
	require.Equal(t, 8, BitsRequired(255))
	require.Equal(t, 9, BitsRequired(256))
	require.Equal(t, 63, BitsRequired(1<<62))
}

func TestMutableForPicksDirectLayouts(t *testing.T) {
	_, ok := MutableFor(10, 8, COMPACT).(*Direct8)
	require.True(t, ok)
	_, ok = MutableFor(10, 7, FAST).(*Direct8)
	require.True(t, ok)
	_, ok = MutableFor(10, 7, COMPACT).(*Packed64)
	require.True(t, ok)
	_, ok = MutableFor(10, 33, FASTEST).(*Direct64)
	require.True(t, ok)
}

func TestMutableRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for bpv := 1; bpv <= 64; bpv++ {
		for _, ratio := range []float32{COMPACT, DEFAULT, FASTEST} {
			valueCount := 1 + r.Intn(300)
			m := MutableFor(valueCount, bpv, ratio)
			require.Equal(t, valueCount, m.Size())
			require.True(t, m.BitsPerValue() >= bpv)
			expected := make([]int64, valueCount)
			for i := range expected {
				expected[i] = r.Int63() & MaxValue(bpv)
				if bpv == 64 && r.Intn(2) == 0 {
					expected[i] = -expected[i]
				}
				m.Set(i, expected[i])
			}
			for i, v := range expected {
				require.Equal(t, v, m.Get(i), "bpv=%v ratio=%v index=%v", bpv, ratio, i)
			}
			m.Clear()
			for i := range expected {
				require.Equal(t, int64(0), m.Get(i))
			}
		}
	}
}

func TestGrowableWriterGrows(t *testing.T) {
	w := NewGrowableWriter(1, 100, COMPACT)
	w.Set(0, 1)
	require.Equal(t, 1, w.BitsPerValue())
	w.Set(1, 1000)
	require.True(t, w.BitsPerValue() >= 10)
	w.Set(2, -1)
	require.Equal(t, 64, w.BitsPerValue())
	require.Equal(t, int64(1), w.Get(0))
	require.Equal(t, int64(1000), w.Get(1))
	require.Equal(t, int64(-1), w.Get(2))
	require.Equal(t, int64(0), w.Get(3))
}

func TestPagedGrowableWriter(t *testing.T) {
	const size = 1000
	w := NewPagedGrowableWriter(size, MIN_BLOCK_SIZE, 1, COMPACT)
	require.Equal(t, int64(size), w.Size())
	require.Equal(t, 16, len(w.subMutables))
	require.Equal(t, size%MIN_BLOCK_SIZE, w.subMutables[15].Size())
	for i := int64(0); i < size; i++ {
		w.Set(i, i*i)
	}
	for i := int64(0); i < size; i++ {
		require.Equal(t, i*i, w.Get(i))
	}
	require.True(t, w.RamBytesUsed() > 0)
}

func TestNumBlocks(t *testing.T) {
	require.Equal(t, 0, numBlocks(0, 64))
	require.Equal(t, 1, numBlocks(1, 64))
	require.Equal(t, 1, numBlocks(64, 64))
	require.Equal(t, 2, numBlocks(65, 64))
	require.Equal(t, 6, checkBlockSize(64, MIN_BLOCK_SIZE, MAX_BLOCK_SIZE))
	require.Panics(t, func() { checkBlockSize(65, MIN_BLOCK_SIZE, MAX_BLOCK_SIZE) })
}
