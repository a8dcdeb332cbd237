package fst

import (
	"math"
	"sort"
	"testing"

	"github.com/ironsweet/golucene-core/core/codec"
	"github.com/ironsweet/golucene-core/core/store"
	"github.com/ironsweet/golucene-core/core/util"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type termOutput struct {
	term   string
	output int64
}

/* Sorts and dedups terms, keeping the first output of each. */
func sortedTerms(terms []termOutput) []termOutput {
	sort.SliceStable(terms, func(i, j int) bool { return terms[i].term < terms[j].term })
	ans := terms[:0]
	for i, t := range terms {
		if i == 0 || t.term != terms[i-1].term {
			ans = append(ans, t)
		}
	}
	return ans
}

func compileTerms(t testing.TB, b *FSTCompilerBuilder[int64], terms []termOutput) *FST[int64] {
	c, err := b.Build()
	require.NoError(t, err)
	scratch := util.NewIntsRefBuilder()
	for _, term := range terms {
		require.NoError(t, c.Add(ToIntsRef([]byte(term.term), scratch), term.output))
	}
	fst, err := c.CompileFST()
	require.NoError(t, err)
	return fst
}

func positiveIntBuilder() *FSTCompilerBuilder[int64] {
	return NewFSTCompilerBuilder[int64](INPUT_TYPE_BYTE1, PositiveIntOutputsSingleton())
}

func TestCompilerSharesPrefix(t *testing.T) {
	terms := sortedTerms([]termOutput{{"cat", 1}, {"car", 2}, {"dog", 3}})
	fst := compileTerms(t, positiveIntBuilder(), terms)

	for _, term := range terms {
		v, ok, err := GetBytes(fst, []byte(term.term))
		require.NoError(t, err)
		require.True(t, ok, term.term)
		require.Equal(t, term.output, v, term.term)
	}
	for _, missing := range []string{"ca", "", "c", "cats", "do", "e"} {
		_, ok, err := GetBytes(fst, []byte(missing))
		require.NoError(t, err)
		require.False(t, ok, missing)
	}

	// "ca" is a single path that branches on 'r' and 't'
	in := fst.BytesReader()
	arc := fst.FirstArc(new(Arc[int64]))
	for _, label := range []byte("ca") {
		found, err := fst.FindTargetArc(int(label), arc, arc, in)
		require.NoError(t, err)
		require.NotNil(t, found)
	}
	child, err := fst.ReadFirstTargetArc(arc, new(Arc[int64]), in)
	require.NoError(t, err)
	require.Equal(t, int('r'), child.Label)
	require.False(t, child.IsLast())
	child, err = fst.ReadNextArc(child, in)
	require.NoError(t, err)
	require.Equal(t, int('t'), child.Label)
	require.True(t, child.IsLast())
}

func TestCompilerFirstAddAndRoot(t *testing.T) {
	for _, output := range []int64{0, 5} {
		c, err := positiveIntBuilder().Build()
		require.NoError(t, err)
		// the first arc added to an empty frontier node
		require.NoError(t, c.Add(ToIntsRef([]byte("x"), util.NewIntsRefBuilder()), output))
		require.EqualValues(t, 1, c.lastInput.Length())

		// the root is written after every other node
		fst, err := c.CompileFST()
		require.NoError(t, err)
		require.NotNil(t, fst)
		require.Equal(t, fst.NumBytes()-1, fst.Metadata().StartNode())
		v, ok, err := GetBytes(fst, []byte("x"))
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, output, v)
		_, ok, err = GetBytes(fst, []byte("xx"))
		require.NoError(t, err)
		require.False(t, ok)

		_, err = c.Compile()
		require.Error(t, err)
	}
}

func TestCompilerEmptyInput(t *testing.T) {
	fst := compileTerms(t, positiveIntBuilder(), []termOutput{{"", 7}, {"a", 3}})
	v, ok, err := GetBytes(fst, nil)
	require.NoError(t, err)
	require.True(t, ok)
	require.EqualValues(t, 7, v)
	v, ok, err = GetBytes(fst, []byte("a"))
	require.NoError(t, err)
	require.True(t, ok)
	require.EqualValues(t, 3, v)

	// only the empty string
	fst = compileTerms(t, positiveIntBuilder(), []termOutput{{"", 9}})
	v, ok, err = GetBytes(fst, nil)
	require.NoError(t, err)
	require.True(t, ok)
	require.EqualValues(t, 9, v)
	require.EqualValues(t, 0, fst.Metadata().StartNode())
}

func TestCompilerNothingAccepted(t *testing.T) {
	c, err := positiveIntBuilder().Build()
	require.NoError(t, err)
	fst, err := c.CompileFST()
	require.NoError(t, err)
	require.Nil(t, fst)
}

func TestCompilerRejectsBadInput(t *testing.T) {
	c, err := positiveIntBuilder().Build()
	require.NoError(t, err)
	scratch := util.NewIntsRefBuilder()
	require.NoError(t, c.Add(ToIntsRef([]byte("b"), scratch), 1))

	// out of order
	require.Error(t, c.Add(ToIntsRef([]byte("a"), scratch), 2))
	require.Error(t, c.Add(ToIntsRef(nil, scratch), 2))
	// duplicate with outputs that cannot merge
	err = c.Add(ToIntsRef([]byte("b"), scratch), 2)
	require.Error(t, err)
	require.Equal(t, ErrMergeUnsupported, errors.Cause(err))
	// label out of range for BYTE1
	require.Error(t, c.Add(util.NewIntsRefFrom([]int{'c', 300}), 3))
	require.Error(t, c.Add(util.NewIntsRefFrom([]int{-1}), 3))

	// the rejected inputs left no trace
	require.NoError(t, c.Add(ToIntsRef([]byte("c"), scratch), 4))
	fst, err := c.CompileFST()
	require.NoError(t, err)
	for term, want := range map[string]int64{"b": 1, "c": 4} {
		v, ok, err := GetBytes(fst, []byte(term))
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, want, v)
	}

	_, err = c.Compile()
	require.Error(t, err)
	require.Error(t, c.Add(ToIntsRef([]byte("d"), scratch), 1))
}

func TestBuilderValidation(t *testing.T) {
	for name, b := range map[string]*FSTCompilerBuilder[int64]{
		"negative ram":  positiveIntBuilder().SuffixRAMLimitMB(-1),
		"nan ram":       positiveIntBuilder().SuffixRAMLimitMB(math.NaN()),
		"old version":   positiveIntBuilder().Version(5),
		"new version":   positiveIntBuilder().Version(10),
		"page bits":     positiveIntBuilder().BytesPageBits(0),
		"big page bits": positiveIntBuilder().BytesPageBits(31),
		"input type":    NewFSTCompilerBuilder[int64](InputType(9), PositiveIntOutputsSingleton()),
		"thresholds":    positiveIntBuilder().FixedLengthArcThresholds(1, 0, 10),
	} {
		_, err := b.Build()
		require.Error(t, err, name)
	}
	_, err := positiveIntBuilder().SuffixRAMLimitMB(0).Build()
	require.NoError(t, err)
	_, err = positiveIntBuilder().SuffixRAMLimitMB(math.Inf(1)).Build()
	require.NoError(t, err)
}

func TestDuplicateInputsMerge(t *testing.T) {
	outputs := NewListOfOutputs[int64](PositiveIntOutputsSingleton())
	c, err := NewFSTCompilerBuilder[[]int64](INPUT_TYPE_BYTE1, outputs).Build()
	require.NoError(t, err)
	scratch := util.NewIntsRefBuilder()
	for _, add := range []struct {
		term   string
		output int64
	}{{"a", 3}, {"a", 5}, {"ab", 1}, {"b", 2}, {"b", 2}, {"b", 9}} {
		require.NoError(t, c.Add(ToIntsRef([]byte(add.term), scratch), []int64{add.output}))
	}
	fst, err := c.CompileFST()
	require.NoError(t, err)

	for term, want := range map[string][]int64{"a": {3, 5}, "ab": {1}, "b": {2, 2, 9}} {
		v, ok, err := GetBytes(fst, []byte(term))
		require.NoError(t, err)
		require.True(t, ok, term)
		require.Equal(t, want, outputs.AsList(v), term)
	}
}

func layoutBuilders() map[string]func() *FSTCompilerBuilder[int64] {
	return map[string]func() *FSTCompilerBuilder[int64]{
		"default": positiveIntBuilder,
		"list": func() *FSTCompilerBuilder[int64] {
			return positiveIntBuilder().AllowFixedLengthArcs(false)
		},
		"binary search": func() *FSTCompilerBuilder[int64] {
			return positiveIntBuilder().DirectAddressingMaxOversizingFactor(-1).Version(VERSION_LITTLE_ENDIAN)
		},
		"aggressive fixed": func() *FSTCompilerBuilder[int64] {
			return positiveIntBuilder().FixedLengthArcThresholds(64, 1, 1)
		},
		"no suffix sharing": func() *FSTCompilerBuilder[int64] {
			return positiveIntBuilder().SuffixRAMLimitMB(0)
		},
		"tiny suffix cache": func() *FSTCompilerBuilder[int64] {
			return positiveIntBuilder().SuffixRAMLimitMB(0.0005)
		},
		"small pages": func() *FSTCompilerBuilder[int64] {
			return positiveIntBuilder().BytesPageBits(4)
		},
		"version 6": func() *FSTCompilerBuilder[int64] {
			return positiveIntBuilder().Version(VERSION_START)
		},
	}
}

func TestNodeLayouts(t *testing.T) {
	scratch := util.NewIntsRefBuilder()
	build := func(b *FSTCompilerBuilder[struct{}], terms ...string) *FSTCompiler[struct{}] {
		c, err := b.Build()
		require.NoError(t, err)
		for _, term := range terms {
			require.NoError(t, c.Add(ToIntsRef([]byte(term), scratch), struct{}{}))
		}
		_, err = c.Compile()
		require.NoError(t, err)
		return c
	}
	fsa := func() *FSTCompilerBuilder[struct{}] {
		return NewFSTCompilerBuilder[struct{}](INPUT_TYPE_BYTE1, NoOutputsSingleton())
	}
	consecutive := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}
	sparse := []string{"a", "c", "e", "g", "i", "k"}

	c := build(fsa(), consecutive...)
	require.EqualValues(t, 1, c.ContinuousNodeCount())
	require.EqualValues(t, 0, c.DirectAddressingNodeCount()+c.BinarySearchNodeCount())

	c = build(fsa().Version(VERSION_LITTLE_ENDIAN), consecutive...)
	require.EqualValues(t, 0, c.ContinuousNodeCount())
	require.EqualValues(t, 1, c.DirectAddressingNodeCount())

	c = build(fsa(), sparse...)
	require.EqualValues(t, 1, c.DirectAddressingNodeCount())

	c = build(fsa().DirectAddressingMaxOversizingFactor(-1), sparse...)
	require.EqualValues(t, 1, c.BinarySearchNodeCount())
	require.EqualValues(t, 0, c.DirectAddressingNodeCount())

	c = build(fsa().AllowFixedLengthArcs(false), consecutive...)
	require.EqualValues(t, 0, c.ContinuousNodeCount()+c.DirectAddressingNodeCount()+c.BinarySearchNodeCount())
	require.EqualValues(t, len(consecutive), c.ArcCount())
	require.EqualValues(t, 2, c.NodeCount())

	// fewer arcs than the shallow threshold stay a list
	c = build(fsa(), "a", "b", "c", "d")
	require.EqualValues(t, 0, c.ContinuousNodeCount()+c.DirectAddressingNodeCount()+c.BinarySearchNodeCount())
}

func TestSuffixSharing(t *testing.T) {
	terms := []termOutput{}
	for _, prefix := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		for _, suffix := range []string{"ing", "ed", "s"} {
			terms = append(terms, termOutput{prefix + suffix, 0})
		}
	}
	terms = sortedTerms(terms)
	shared := compileTerms(t, positiveIntBuilder(), terms)
	unshared := compileTerms(t, positiveIntBuilder().SuffixRAMLimitMB(0), terms)
	require.Less(t, shared.NumBytes(), unshared.NumBytes())
	for _, fst := range []*FST[int64]{shared, unshared} {
		for _, term := range terms {
			_, ok, err := GetBytes(fst, []byte(term.term))
			require.NoError(t, err)
			require.True(t, ok, term.term)
		}
	}
}

func TestSuffixCacheStaysBounded(t *testing.T) {
	terms := []termOutput{}
	for i := 0; i < 20000; i++ {
		terms = append(terms, termOutput{string([]byte{
			byte('a' + i%26), byte('a' + i/26%26), byte('a' + i/676%26), byte('0' + i%7)}), int64(i)})
	}
	terms = sortedTerms(terms)

	build := func(ramLimitMB float64) *FSTCompiler[int64] {
		c, err := positiveIntBuilder().SuffixRAMLimitMB(ramLimitMB).Build()
		require.NoError(t, err)
		return c
	}
	add := func(c *FSTCompiler[int64], perTerm func()) *FST[int64] {
		scratch := util.NewIntsRefBuilder()
		for _, term := range terms {
			require.NoError(t, c.Add(ToIntsRef([]byte(term.term), scratch), term.output))
			if perTerm != nil {
				perTerm()
			}
		}
		fst, err := c.CompileFST()
		require.NoError(t, err)
		return fst
	}

	limitMB := 0.001
	small := build(limitMB)
	maxCached := int64(0)
	fst := add(small, func() {
		if n := small.suffixCache.primary.copiedBytes(); n > maxCached {
			maxCached = n
		}
	})
	// a table is demoted once its estimate reaches half of the limit
	require.NotNil(t, small.suffixCache.fallback)
	require.Less(t, maxCached, int64(limitMB*1024*1024)/2)

	for _, term := range terms {
		v, ok, err := GetBytes(fst, []byte(term.term))
		require.NoError(t, err)
		require.True(t, ok, term.term)
		require.Equal(t, term.output, v)
	}

	// a smaller cache shares fewer suffixes, never more
	unlimited := build(math.Inf(1))
	add(unlimited, nil)
	none := build(0)
	add(none, nil)
	require.Nil(t, unlimited.suffixCache.fallback)
	require.LessOrEqual(t, unlimited.NodeCount(), small.NodeCount())
	require.LessOrEqual(t, small.NodeCount(), none.NodeCount())
}

func TestSaveLoad(t *testing.T) {
	terms := sortedTerms([]termOutput{{"", 2}, {"stop", 4}, {"stops", 4}, {"stopped", 8}, {"top", 1}, {"tops", 16}})
	fst := compileTerms(t, positiveIntBuilder().BytesPageBits(2), terms)

	metaOut := store.NewByteBuffersDataOutput()
	out := store.NewByteBuffersDataOutput()
	require.NoError(t, fst.Save(metaOut, out))
	meta := append([]byte(nil), metaOut.Bytes()...)
	data := append([]byte(nil), out.Bytes()...)
	require.EqualValues(t, fst.NumBytes(), len(data))

	onHeap, err := LoadFST(store.NewByteSliceIndexInput("meta", meta),
		store.NewByteSliceIndexInput("data", data), PositiveIntOutputsSingleton())
	require.NoError(t, err)

	// FST bytes followed by a trailer; the input must be left after the FST
	trailed := append(append([]byte(nil), data...), 0xCA, 0xFE)
	dataIn := store.NewByteSliceIndexInput("data", trailed)
	offHeap, err := LoadOffHeapFST(store.NewByteSliceIndexInput("meta", meta), dataIn, PositiveIntOutputsSingleton())
	require.NoError(t, err)
	require.EqualValues(t, len(data), dataIn.FilePointer())

	for _, loaded := range []*FST[int64]{onHeap, offHeap} {
		require.Equal(t, fst.InputType(), loaded.InputType())
		require.Equal(t, fst.Metadata().StartNode(), loaded.Metadata().StartNode())
		empty, ok := loaded.EmptyOutput()
		require.True(t, ok)
		require.EqualValues(t, 2, empty)
		for _, term := range terms {
			v, ok, err := GetBytes(loaded, []byte(term.term))
			require.NoError(t, err)
			require.True(t, ok, term.term)
			require.Equal(t, term.output, v)
		}
	}

	require.Error(t, offHeap.Save(store.NewByteBuffersDataOutput(), store.NewByteBuffersDataOutput()))
}

func TestLoadCorrupt(t *testing.T) {
	fst := compileTerms(t, positiveIntBuilder(), []termOutput{{"a", 1}, {"b", 2}})
	metaOut := store.NewByteBuffersDataOutput()
	out := store.NewByteBuffersDataOutput()
	require.NoError(t, fst.Save(metaOut, out))
	meta := append([]byte(nil), metaOut.Bytes()...)
	data := append([]byte(nil), out.Bytes()...)

	// truncated metadata
	_, err := LoadFST(store.NewByteSliceIndexInput("meta", meta[:len(meta)-1]),
		store.NewByteSliceIndexInput("data", data), PositiveIntOutputsSingleton())
	require.Error(t, err)
	require.True(t, codec.IsCorruptIndex(err), "%v", err)

	// truncated bytes
	_, err = LoadFST(store.NewByteSliceIndexInput("meta", meta),
		store.NewByteSliceIndexInput("data", data[:len(data)-1]), PositiveIntOutputsSingleton())
	require.Error(t, err)
	require.True(t, codec.IsCorruptIndex(err), "%v", err)

	_, err = LoadOffHeapFST(store.NewByteSliceIndexInput("meta", meta),
		store.NewByteSliceIndexInput("data", data[:len(data)-1]), PositiveIntOutputsSingleton())
	require.Error(t, err)
	require.True(t, codec.IsCorruptIndex(err), "%v", err)
}

func TestExternalDataOutput(t *testing.T) {
	terms := sortedTerms([]termOutput{{"alpha", 10}, {"beta", 20}, {"gamma", 30}})
	out := store.NewByteBuffersDataOutput()
	c, err := positiveIntBuilder().DataOutput(out).Build()
	require.NoError(t, err)
	scratch := util.NewIntsRefBuilder()
	for _, term := range terms {
		require.NoError(t, c.Add(ToIntsRef([]byte(term.term), scratch), term.output))
	}
	_, err = c.FSTReader()
	require.Error(t, err)
	_, err = c.CompileFST()
	require.Error(t, err)
	metadata, err := c.Compile()
	require.NoError(t, err)
	require.EqualValues(t, metadata.NumBytes(), out.FilePointer())

	metaOut := store.NewByteBuffersDataOutput()
	require.NoError(t, metadata.Save(metaOut))
	fst, err := LoadFST(store.NewByteSliceIndexInput("meta", metaOut.Bytes()),
		store.NewByteSliceIndexInput("data", out.Bytes()), PositiveIntOutputsSingleton())
	require.NoError(t, err)
	for _, term := range terms {
		v, ok, err := GetBytes(fst, []byte(term.term))
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, term.output, v)
	}
}

func TestWideLabels(t *testing.T) {
	for _, inputType := range []InputType{INPUT_TYPE_BYTE2, INPUT_TYPE_BYTE4} {
		for _, version := range []int{VERSION_START, VERSION_CURRENT} {
			words := []string{"día", "dīa", "日本", "日本語", "z"}
			if inputType == INPUT_TYPE_BYTE4 {
				words = append(words, "\U0001F600")
			}
			c, err := NewFSTCompilerBuilder[int64](inputType, PositiveIntOutputsSingleton()).Version(version).Build()
			require.NoError(t, err)
			inputs := make([]*util.IntsRef, len(words))
			for i, w := range words {
				inputs[i] = ToUTF32(w, util.NewIntsRefBuilder())
			}
			sort.Slice(inputs, func(i, j int) bool { return inputs[i].CompareTo(inputs[j]) < 0 })
			for i, input := range inputs {
				require.NoError(t, c.Add(input, int64(i+1)))
			}
			fst, err := c.CompileFST()
			require.NoError(t, err)

			metaOut := store.NewByteBuffersDataOutput()
			out := store.NewByteBuffersDataOutput()
			require.NoError(t, fst.Save(metaOut, out))
			loaded, err := LoadFST(store.NewByteSliceIndexInput("meta", metaOut.Bytes()),
				store.NewByteSliceIndexInput("data", out.Bytes()), PositiveIntOutputsSingleton())
			require.NoError(t, err)
			require.Equal(t, inputType, loaded.InputType())
			require.EqualValues(t, version, loaded.Metadata().Version())

			for i, input := range inputs {
				v, ok, err := Get(loaded, input)
				require.NoError(t, err)
				require.True(t, ok, "%v %v", inputType, input)
				require.EqualValues(t, i+1, v)
			}
			_, _, err = GetBytes(loaded, []byte("z"))
			require.Error(t, err)
		}
	}
}

func genTerms() gopter.Gen {
	return gen.SliceOf(gen.SliceOf(gen.UInt8Range('a', 'p'))).Map(func(raw [][]uint8) []termOutput {
		terms := make([]termOutput, len(raw))
		for i, b := range raw {
			terms[i] = termOutput{string(b), int64(len(b)*7 + i%5)}
		}
		return sortedTerms(terms)
	})
}

func TestCompilerRoundTripProperty(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())
	for name, newBuilder := range layoutBuilders() {
		newBuilder := newBuilder
		properties.Property("every added term maps to its output: "+name, prop.ForAll(
			func(terms []termOutput) bool {
				fst := compileTerms(t, newBuilder(), terms)
				if fst == nil {
					return len(terms) == 0
				}
				for _, term := range terms {
					v, ok, err := GetBytes(fst, []byte(term.term))
					if err != nil || !ok || v != term.output {
						return false
					}
					// 'q' is outside of the generated alphabet
					if _, ok, err = GetBytes(fst, []byte(term.term+"q")); err != nil || ok {
						return false
					}
				}
				return true
			},
			genTerms(),
		))
	}
	properties.TestingRun(t)
}

func TestBytesStoreMultiBlock(t *testing.T) {
	bs := newBytesStore(3)
	data := make([]byte, 61)
	for i := range data {
		data[i] = byte(i * 3)
	}
	require.NoError(t, bs.WriteBytes(data[:5]))
	for _, b := range data[5:20] {
		require.NoError(t, bs.WriteByte(b))
	}
	require.NoError(t, bs.WriteBytes(data[20:]))
	require.EqualValues(t, len(data), bs.Position())
	bs.finish()
	bs.finish()

	fwd := bs.ForwardReader()
	got := make([]byte, len(data))
	require.NoError(t, fwd.ReadBytes(got))
	require.Equal(t, data, got)
	_, err := fwd.ReadByte()
	require.Error(t, err)

	rev := bs.ReverseBytesReader()
	require.True(t, rev.Reversed())
	rev.SetPosition(int64(len(data) - 1))
	for i := len(data) - 1; i >= 0; i-- {
		b, err := rev.ReadByte()
		require.NoError(t, err)
		require.Equal(t, data[i], b, "at %v", i)
	}
	_, err = rev.ReadByte()
	require.Error(t, err)

	rev.SetPosition(40)
	rev.SkipBytes(9)
	b, err := rev.ReadByte()
	require.NoError(t, err)
	require.Equal(t, data[31], b)

	out := store.NewByteBuffersDataOutput()
	require.NoError(t, bs.WriteTo(out))
	require.Equal(t, data, out.Bytes())

	loaded, err := newBytesStoreFromInput(store.NewByteSliceIndexInput("bs", data), int64(len(data)), 4)
	require.NoError(t, err)
	require.Len(t, loaded.blocks, 4)
	require.EqualValues(t, len(data), loaded.Position())
	rev = loaded.ReverseBytesReader()
	rev.SetPosition(17)
	b, err = rev.ReadByte()
	require.NoError(t, err)
	require.Equal(t, data[17], b)
}
