package util

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestByteBlockPoolSpansBlocks(t *testing.T) {
	counter := NewCounter()
	pool := NewByteBlockPool(NewDirectTrackingAllocator(counter))
	require.EqualValues(t, 0, pool.Position())

	r := rand.New(rand.NewSource(1))
	var all []byte
	for len(all) < 3*BYTE_BLOCK_SIZE {
		chunk := make([]byte, r.Intn(BYTE_BLOCK_SIZE/3)+1)
		r.Read(chunk)
		pool.Append(chunk)
		all = append(all, chunk...)
		require.EqualValues(t, len(all), pool.Position())
	}
	blocks := (len(all) + BYTE_BLOCK_SIZE - 1) / BYTE_BLOCK_SIZE
	require.EqualValues(t, blocks*BYTE_BLOCK_SIZE, counter.Get())

	// a read straddling the first block boundary
	dest := make([]byte, 100)
	pool.ReadBytes(BYTE_BLOCK_SIZE-50, dest)
	require.Equal(t, all[BYTE_BLOCK_SIZE-50:BYTE_BLOCK_SIZE+50], dest)
	for _, pos := range []int{0, BYTE_BLOCK_SIZE - 1, BYTE_BLOCK_SIZE, len(all) - 1} {
		require.Equal(t, all[pos], pool.ReadByteAt(int64(pos)), "pos=%v", pos)
	}
	require.True(t, pool.RamBytesUsed() > int64(len(all)))
}

func TestAtomicCounter(t *testing.T) {
	c := NewAtomicCounter()
	require.EqualValues(t, 5, c.AddAndGet(5))
	require.EqualValues(t, 2, c.AddAndGet(-3))
	require.EqualValues(t, 2, c.Get())
}

func TestFixedBitSet(t *testing.T) {
	b := NewFixedBitSet(130)
	require.Equal(t, 130, b.Length())
	require.Equal(t, -1, b.NextSetBit(0))
	for _, i := range []int{0, 63, 64, 129} {
		b.Set(i)
	}
	require.Equal(t, 4, b.Cardinality())
	require.True(t, b.At(63))
	require.False(t, b.At(62))
	require.Equal(t, 63, b.NextSetBit(1))
	require.Equal(t, 129, b.NextSetBit(65))
	require.Equal(t, -1, b.NextSetBit(130))

	words := b.Words()
	require.Len(t, words, 3)
	require.Equal(t, uint64(1)|uint64(1)<<63, words[0])
	require.Equal(t, uint64(1), words[1])
	require.Equal(t, uint64(1)<<1, words[2])

	b.Clear(64)
	require.Equal(t, 129, b.NextSetBit(64))
	b.ClearAll()
	require.Equal(t, 0, b.Cardinality())
	require.Panics(t, func() { b.Set(130) })
}

func TestIntsRefOrder(t *testing.T) {
	a := NewIntsRefFrom([]int{1, 2, 3})
	b := NewIntsRef([]int{0, 1, 2, 4}, 1, 3)
	prefix := NewIntsRefFrom([]int{1, 2})
	require.True(t, a.Less(b))
	require.Equal(t, 1, b.CompareTo(a))
	require.Equal(t, -1, prefix.CompareTo(a))
	require.True(t, a.Equals(DeepCopyOfInts(a)))

	builder := NewIntsRefBuilder()
	builder.CopyIntSlice([]int{1, 2})
	builder.Append(3)
	require.Equal(t, 0, builder.Get().CompareTo(a))
}

func TestBytesRefBuilder(t *testing.T) {
	builder := NewBytesRefBuilder()
	builder.Append([]byte("stop"))
	builder.Append([]byte("ped"))
	require.Equal(t, "stopped", string(builder.Get().ToBytes()))
	builder.SetLength(4)
	require.Equal(t, 0, builder.Get().CompareTo(NewBytesRefFrom([]byte("stop"))))
	require.True(t, builder.Get().CompareTo(NewBytesRefFrom([]byte("top"))) < 0)
}
