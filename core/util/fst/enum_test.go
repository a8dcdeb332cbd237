package fst

import (
	"sort"
	"testing"

	"github.com/ironsweet/golucene-core/core/util"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
)

func termOf(io *BytesRefFSTEnumIO[int64]) string {
	if io == nil {
		return "<nil>"
	}
	return string(io.Input.ToBytes())
}

func TestBytesRefEnumNext(t *testing.T) {
	terms := sortedTerms([]termOutput{
		{"", 1}, {"aa", 2}, {"ab", 3}, {"abc", 4}, {"b", 5}, {"bcd", 6}, {"zz", 7}})
	for name, newBuilder := range layoutBuilders() {
		fst := compileTerms(t, newBuilder(), terms)
		e := NewBytesRefFSTEnum(fst)
		require.Nil(t, e.Current(), name)
		for _, want := range terms {
			io, err := e.Next()
			require.NoError(t, err)
			require.NotNil(t, io, "%v: %v", name, want.term)
			require.Equal(t, want.term, termOf(io), name)
			require.Equal(t, want.output, io.Output, name)
			require.Equal(t, want.term, termOf(e.Current()), name)
		}
		io, err := e.Next()
		require.NoError(t, err)
		require.Nil(t, io, name)
	}
}

func TestBytesRefEnumSeek(t *testing.T) {
	terms := sortedTerms([]termOutput{{"ab", 1}, {"abd", 2}, {"b", 3}, {"bzz", 4}, {"c", 5}})
	fst := compileTerms(t, positiveIntBuilder(), terms)
	e := NewBytesRefFSTEnum(fst)

	for _, c := range []struct {
		target, ceil, floor string
	}{
		{"", "ab", "<nil>"},
		{"a", "ab", "<nil>"},
		{"ab", "ab", "ab"},
		{"abc", "abd", "ab"},
		{"abz", "b", "abd"},
		{"bzy", "bzz", "b"},
		{"bzzz", "c", "bzz"},
		{"c", "c", "c"},
		{"d", "<nil>", "c"},
	} {
		io, err := e.SeekCeil([]byte(c.target))
		require.NoError(t, err)
		require.Equal(t, c.ceil, termOf(io), "ceil %q", c.target)

		io, err = e.SeekFloor([]byte(c.target))
		require.NoError(t, err)
		require.Equal(t, c.floor, termOf(io), "floor %q", c.target)

		io, err = e.SeekExact([]byte(c.target))
		require.NoError(t, err)
		if c.ceil == c.target {
			require.Equal(t, c.target, termOf(io))
		} else {
			require.Nil(t, io, "exact %q", c.target)
		}
	}

	// seeking then continuing with Next
	io, err := e.SeekCeil([]byte("abe"))
	require.NoError(t, err)
	require.Equal(t, "b", termOf(io))
	io, err = e.Next()
	require.NoError(t, err)
	require.Equal(t, "bzz", termOf(io))
	require.EqualValues(t, 4, io.Output)
}

func TestIntsRefEnum(t *testing.T) {
	words := []string{"über", "ünder", "日本", "日本語", "a"}
	inputs := make([]*util.IntsRef, len(words))
	for i, w := range words {
		inputs[i] = ToUTF32(w, util.NewIntsRefBuilder())
	}
	sort.Slice(inputs, func(i, j int) bool { return inputs[i].CompareTo(inputs[j]) < 0 })

	c, err := NewFSTCompilerBuilder[int64](INPUT_TYPE_BYTE4, PositiveIntOutputsSingleton()).Build()
	require.NoError(t, err)
	for i, input := range inputs {
		require.NoError(t, c.Add(input, int64(i)))
	}
	fst, err := c.CompileFST()
	require.NoError(t, err)

	e := NewIntsRefFSTEnum(fst)
	for i, input := range inputs {
		io, err := e.Next()
		require.NoError(t, err)
		require.NotNil(t, io)
		require.Equal(t, input.Value(), io.Input.Value())
		require.EqualValues(t, i, io.Output)
	}
	io, err := e.Next()
	require.NoError(t, err)
	require.Nil(t, io)

	io, err = e.SeekCeil(ToUTF32("日", util.NewIntsRefBuilder()))
	require.NoError(t, err)
	require.NotNil(t, io)
	require.Equal(t, inputs[3].Value(), io.Input.Value())

	io, err = e.SeekFloor(ToUTF32("日本z", util.NewIntsRefBuilder()))
	require.NoError(t, err)
	require.NotNil(t, io)
	require.Equal(t, inputs[3].Value(), io.Input.Value())

	io, err = e.SeekExact(ToUTF32("日本語", util.NewIntsRefBuilder()))
	require.NoError(t, err)
	require.NotNil(t, io)
	require.Equal(t, inputs[4].Value(), io.Input.Value())
}

/* Returns the index of the smallest term >= target, or len(terms). */
func ceilIndex(terms []termOutput, target string) int {
	return sort.Search(len(terms), func(i int) bool { return terms[i].term >= target })
}

func TestEnumSeekProperty(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())
	targets := gen.SliceOf(gen.SliceOf(gen.UInt8Range('a', 'h')))
	for name, newBuilder := range layoutBuilders() {
		newBuilder := newBuilder
		properties.Property("seeks agree with a sorted slice: "+name, prop.ForAll(
			func(terms []termOutput, rawTargets [][]uint8) bool {
				if len(terms) == 0 {
					return true
				}
				fst := compileTerms(t, newBuilder(), terms)
				e := NewBytesRefFSTEnum(fst)
				for _, raw := range rawTargets {
					target := string(raw)
					idx := ceilIndex(terms, target)

					wantCeil := "<nil>"
					if idx < len(terms) {
						wantCeil = terms[idx].term
					}
					wantFloor := "<nil>"
					if idx < len(terms) && terms[idx].term == target {
						wantFloor = target
					} else if idx > 0 {
						wantFloor = terms[idx-1].term
					}

					io, err := e.SeekCeil(raw)
					if err != nil || termOf(io) != wantCeil {
						return false
					}
					if io != nil && io.Output != terms[idx].output {
						return false
					}
					io, err = e.SeekFloor(raw)
					if err != nil || termOf(io) != wantFloor {
						return false
					}
					io, err = e.SeekExact(raw)
					if err != nil || (io != nil) != (wantCeil == target) {
						return false
					}
				}
				return true
			},
			genTerms(), targets,
		))
	}
	properties.TestingRun(t)
}

func TestEnumNextProperty(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())
	properties.Property("Next visits every term in order", prop.ForAll(
		func(terms []termOutput) bool {
			if len(terms) == 0 {
				return true
			}
			e := NewBytesRefFSTEnum(compileTerms(t, positiveIntBuilder(), terms))
			for _, want := range terms {
				io, err := e.Next()
				if err != nil || termOf(io) != want.term || io.Output != want.output {
					return false
				}
			}
			io, err := e.Next()
			return err == nil && io == nil
		},
		genTerms(),
	))
	properties.TestingRun(t)
}
