package main

import (
	"bufio"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ironsweet/golucene-core/core/codec"
	"github.com/ironsweet/golucene-core/core/store"
	"github.com/ironsweet/golucene-core/core/util"
	"github.com/ironsweet/golucene-core/core/util/fst"
	"github.com/pkg/errors"
)

/*
FST file layout:

	Header --> CodecHeader("FSTUtil", 0)
	OutputsKind --> byte, outputsNone or outputsInt
	FST --> FST metadata then FST bytes
	Footer --> CodecFooter
*/
const (
	fstCodec       = "FSTUtil"
	fstFileVersion = 0

	outputsNone = byte(0)
	outputsInt  = byte(1)

	bufferSize = 8192
)

func parseOutputsKind(name string) (byte, error) {
	switch strings.ToLower(name) {
	case "none":
		return outputsNone, nil
	case "", "int":
		return outputsInt, nil
	}
	return 0, errors.Errorf("unknown outputs %q; want int or none", name)
}

type termEntry struct {
	input  *util.IntsRef
	output int64
}

func toInput(term string, inputType fst.InputType) *util.IntsRef {
	if inputType == fst.INPUT_TYPE_BYTE1 {
		return fst.ToIntsRef([]byte(term), util.NewIntsRefBuilder())
	}
	return fst.ToUTF32(term, util.NewIntsRefBuilder())
}

func inputString(input *util.IntsRef, inputType fst.InputType) string {
	var sb strings.Builder
	for _, label := range input.Value() {
		if inputType == fst.INPUT_TYPE_BYTE1 {
			sb.WriteByte(byte(label))
		} else if utf8.ValidRune(rune(label)) {
			sb.WriteRune(rune(label))
		} else {
			sb.WriteString("\\x" + strconv.FormatInt(int64(label), 16))
		}
	}
	return sb.String()
}

/*
Reads "term[<TAB>output]" lines; a missing output is 0. Terms are
returned sorted the way FSTCompiler wants them, duplicates kept in
input order.
*/
func readTerms(r io.Reader, inputType fst.InputType) ([]termEntry, error) {
	var ans []termEntry
	scanner := bufio.NewScanner(r)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := scanner.Text()
		term, outputText := line, ""
		if i := strings.IndexByte(line, '\t'); i >= 0 {
			term, outputText = line[:i], strings.TrimSpace(line[i+1:])
		}
		var output int64
		if outputText != "" {
			var err error
			if output, err = strconv.ParseInt(outputText, 10, 64); err != nil || output < 0 {
				return nil, errors.Errorf("line %v: output must be a non-negative integer, got %q",
					lineNo, outputText)
			}
		}
		ans = append(ans, termEntry{toInput(term, inputType), output})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "cannot read terms")
	}
	sort.SliceStable(ans, func(i, j int) bool { return ans[i].input.CompareTo(ans[j].input) < 0 })
	return ans, nil
}

func compileTerms[T any](b *fst.FSTCompilerBuilder[T], terms []termEntry,
	toOutput func(int64) T) (*fst.FST[T], *fst.FSTCompiler[T], error) {

	c, err := b.Build()
	if err != nil {
		return nil, nil, err
	}
	for _, term := range terms {
		if err = c.Add(term.input, toOutput(term.output)); err != nil {
			return nil, nil, err
		}
	}
	f, err := c.CompileFST()
	if err != nil {
		return nil, nil, err
	}
	if f == nil {
		return nil, nil, errors.New("no terms to compile")
	}
	return f, c, nil
}

func writeFSTFile[T any](path string, kind byte, f *fst.FST[T]) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "cannot create %v", path)
	}
	out := store.NewOutputStreamIndexOutput(file, bufferSize)
	defer func() {
		if err2 := out.Close(); err == nil {
			err = err2
		}
	}()
	if err = codec.WriteHeader(out, fstCodec, fstFileVersion); err != nil {
		return err
	}
	if err = out.WriteByte(kind); err != nil {
		return err
	}
	if err = f.Save(out, out); err != nil {
		return err
	}
	return codec.WriteFooter(out)
}

/* Opens the file and verifies its checksum. The caller closes it. */
func openChecked(path string) (*store.FileIndexInput, error) {
	in, err := store.OpenFileIndexInput(path, bufferSize)
	if err != nil {
		return nil, err
	}
	if in.Length() < codec.FOOTER_LENGTH {
		in.Close()
		return nil, codec.NewCorruptIndexError(in, "file too short for a codec footer")
	}
	if _, err = store.ChecksumEntireFile(in); err != nil {
		in.Close()
		return nil, err
	}
	return in, nil
}

/* Exactly one of the returned FSTs is non-nil on success. */
func loadFSTFile(path string) (none *fst.FST[struct{}], ints *fst.FST[int64], err error) {
	in, err := openChecked(path)
	if err != nil {
		return nil, nil, err
	}
	defer in.Close()
	if _, err = codec.CheckHeader(in, fstCodec, fstFileVersion, fstFileVersion); err != nil {
		return nil, nil, err
	}
	kind, err := in.ReadByte()
	if err != nil {
		return nil, nil, err
	}
	switch kind {
	case outputsNone:
		none, err = fst.LoadFST[struct{}](in, in, fst.NoOutputsSingleton())
	case outputsInt:
		ints, err = fst.LoadFST[int64](in, in, fst.PositiveIntOutputsSingleton())
	default:
		err = codec.NewCorruptIndexError(in, "unknown outputs kind "+strconv.Itoa(int(kind)))
	}
	if err != nil {
		return nil, nil, err
	}
	log.Debugf("loaded %v (%v bytes)", path, in.Length())
	return none, ints, nil
}
