package fst

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadCeilArc(t *testing.T) {
	// root has arcs b, d, f, h, j, l so every layout can be forced
	terms := sortedTerms([]termOutput{{"b", 1}, {"d", 2}, {"f", 3}, {"h", 4}, {"j", 5}, {"l", 6}})
	for name, newBuilder := range layoutBuilders() {
		fst := compileTerms(t, newBuilder(), terms)
		in := fst.BytesReader()
		root := fst.FirstArc(new(Arc[int64]))
		for label, want := range map[byte]int{'a': 'b', 'b': 'b', 'c': 'd', 'k': 'l', 'l': 'l'} {
			arc, err := ReadCeilArc(int(label), fst, root, new(Arc[int64]), in)
			require.NoError(t, err)
			require.NotNil(t, arc, "%v: %c", name, label)
			require.Equal(t, want, arc.Label, "%v: %c", name, label)
		}
		arc, err := ReadCeilArc('m', fst, root, new(Arc[int64]), in)
		require.NoError(t, err)
		require.Nil(t, arc, name)
	}
}

func TestToDot(t *testing.T) {
	fst := compileTerms(t, positiveIntBuilder(), sortedTerms([]termOutput{{"", 9}, {"ab", 2}, {"ac", 3}}))
	var buf bytes.Buffer
	require.NoError(t, ToDot(fst, &buf, true, true))
	dot := buf.String()
	require.True(t, strings.HasPrefix(dot, "digraph FST {"), dot)
	require.True(t, strings.HasSuffix(strings.TrimSpace(dot), "}"), dot)
	for _, label := range []string{"label=\"a", "label=\"b", "label=\"c"} {
		require.Contains(t, dot, label)
	}
}

func TestCompilerConfiguration(t *testing.T) {
	conf, err := ReadCompilerConfiguration(strings.NewReader(`
inputType: byte2
suffixRAMLimitMB: 0
allowFixedLengthArcs: false
fixedLengthArcs:
  shallowDepth: 2
  shallowNumArcs: 4
  deepNumArcs: 8
version: 8
bytesPageBits: 10
`))
	require.NoError(t, err)
	require.Equal(t, "byte2", conf.InputType)
	require.NotNil(t, conf.SuffixRAMLimitMB)
	require.Zero(t, *conf.SuffixRAMLimitMB)
	require.Nil(t, conf.DirectAddressingMaxOversizingFactor)

	b, err := NewFSTCompilerBuilderFromConfig[int64](conf, PositiveIntOutputsSingleton())
	require.NoError(t, err)
	c, err := b.Build()
	require.NoError(t, err)
	require.Equal(t, INPUT_TYPE_BYTE2, c.metadata.inputType)
	require.EqualValues(t, VERSION_LITTLE_ENDIAN, c.metadata.version)
	require.Nil(t, c.suffixCache)
	require.False(t, c.allowFixedLengthArcs)
	require.Equal(t, 2, c.shallowDepth)

	conf, err = ReadCompilerConfiguration(strings.NewReader(""))
	require.NoError(t, err)
	b, err = NewFSTCompilerBuilderFromConfig[int64](conf, PositiveIntOutputsSingleton())
	require.NoError(t, err)
	c, err = b.Build()
	require.NoError(t, err)
	require.Equal(t, INPUT_TYPE_BYTE1, c.metadata.inputType)
	require.NotNil(t, c.suffixCache)

	_, err = ReadCompilerConfiguration(strings.NewReader("unknownKey: 1\n"))
	require.Error(t, err)

	_, err = NewFSTCompilerBuilderFromConfig[int64](&CompilerConfiguration{InputType: "byte3"}, PositiveIntOutputsSingleton())
	require.Error(t, err)

	b, err = NewFSTCompilerBuilderFromConfig[int64](&CompilerConfiguration{Version: 99}, PositiveIntOutputsSingleton())
	require.NoError(t, err)
	_, err = b.Build()
	require.Error(t, err)
}
