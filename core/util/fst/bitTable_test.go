package fst

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
)

func bitAt(table []byte, i int) bool {
	return table[i>>3]&(1<<uint(i&7)) != 0
}

/* Readers over table in both directions, positioned on its first byte. */
func bitTableReaders(table []byte) map[string]func() BytesReader {
	reversed := make([]byte, len(table)+1)
	for i, b := range table {
		reversed[len(table)-i] = b
	}
	return map[string]func() BytesReader{
		"forward": func() BytesReader {
			// leading padding byte so position 0 is not the table
			r := newForwardBytesReader(append([]byte{0xFF}, table...))
			r.SetPosition(1)
			return r
		},
		"reverse": func() BytesReader {
			r := newReverseBytesReader(reversed)
			r.SetPosition(int64(len(table)))
			return r
		},
	}
}

func TestBitTable(t *testing.T) {
	table := []byte{0x00, 0x81, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x10}
	for name, reader := range bitTableReaders(table) {
		n, err := countBits(len(table), reader())
		require.NoError(t, err)
		require.Equal(t, 3, n, name)

		n, err = countBitsUpTo(15, reader())
		require.NoError(t, err)
		require.Equal(t, 1, n, name)
		n, err = countBitsUpTo(16, reader())
		require.NoError(t, err)
		require.Equal(t, 2, n, name)
		n, err = countBitsUpTo(77, reader())
		require.NoError(t, err)
		require.Equal(t, 3, n, name)

		set, err := isBitSet(8, reader())
		require.NoError(t, err)
		require.True(t, set, name)
		set, err = isBitSet(9, reader())
		require.NoError(t, err)
		require.False(t, set, name)

		next, err := nextBitSet(-1, len(table), reader())
		require.NoError(t, err)
		require.Equal(t, 8, next, name)
		next, err = nextBitSet(8, len(table), reader())
		require.NoError(t, err)
		require.Equal(t, 15, next, name)
		next, err = nextBitSet(15, len(table), reader())
		require.NoError(t, err)
		require.Equal(t, 76, next, name)
		next, err = nextBitSet(76, len(table), reader())
		require.NoError(t, err)
		require.Equal(t, -1, next, name)

		prev, err := previousBitSet(76, reader())
		require.NoError(t, err)
		require.Equal(t, 15, prev, name)
		prev, err = previousBitSet(8, reader())
		require.NoError(t, err)
		require.Equal(t, -1, prev, name)
	}
	require.Equal(t, 0, numPresenceBytes(0))
	require.Equal(t, 1, numPresenceBytes(8))
	require.Equal(t, 2, numPresenceBytes(9))
}

func TestBitTableProperty(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())
	properties.Property("bit table helpers agree with a naive scan", prop.ForAll(
		func(table []byte, idx int) bool {
			if len(table) == 0 {
				return true
			}
			numBits := len(table) * 8
			bitIndex := idx % numBits
			for _, reader := range bitTableReaders(table) {
				want := 0
				for i := 0; i < numBits; i++ {
					if bitAt(table, i) {
						want++
					}
				}
				if n, err := countBits(len(table), reader()); err != nil || n != want {
					return false
				}

				want = 0
				for i := 0; i < bitIndex; i++ {
					if bitAt(table, i) {
						want++
					}
				}
				if n, err := countBitsUpTo(bitIndex, reader()); err != nil || n != want {
					return false
				}

				if set, err := isBitSet(bitIndex, reader()); err != nil || set != bitAt(table, bitIndex) {
					return false
				}

				want = -1
				for i := bitIndex + 1; i < numBits; i++ {
					if bitAt(table, i) {
						want = i
						break
					}
				}
				if next, err := nextBitSet(bitIndex, len(table), reader()); err != nil || next != want {
					return false
				}

				want = -1
				for i := bitIndex - 1; i >= 0; i-- {
					if bitAt(table, i) {
						want = i
						break
					}
				}
				if prev, err := previousBitSet(bitIndex, reader()); err != nil || prev != want {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(20, gen.UInt8()).Map(func(b []uint8) []byte { return b }),
		gen.IntRange(0, 1<<20),
	))
	properties.TestingRun(t)
}
