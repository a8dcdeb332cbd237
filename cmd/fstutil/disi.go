package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/ironsweet/golucene-core/core/codec"
	"github.com/ironsweet/golucene-core/core/codec/lucene90"
	"github.com/ironsweet/golucene-core/core/search/model"
	"github.com/ironsweet/golucene-core/core/store"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

/*
Doc-id block file layout:

	Header --> CodecHeader("DISIUtil", 0)
	Blocks --> IndexedDISI blocks and jump table
	Trailer --> Offset:int64, Length:int64, JumpTableEntryCount:int16,
	            DenseRankPower:int8, Cost:int64
	Footer --> CodecFooter
*/
const (
	disiCodec         = "DISIUtil"
	disiFileVersion   = 0
	disiTrailerLength = 8 + 8 + 2 + 1 + 8
)

var (
	disiCmd = &cobra.Command{
		Use:   "disi",
		Short: "Writes and reads doc-id block files",
	}

	disiWriteCmd = &cobra.Command{
		Use:   "write",
		Short: "Encodes a list of doc ids, one per line, as doc-id blocks",
		Args:  cobra.NoArgs,
		RunE:  runDISIWrite,
	}

	disiReadCmd = &cobra.Command{
		Use:   "read FILE",
		Short: "Lists the doc ids of a doc-id block file, or probes it with --advance",
		Args:  cobra.ExactArgs(1),
		RunE:  runDISIRead,
	}

	disiWriteOpts struct {
		docs, out, config string
	}
	disiReadOpts struct {
		advance []int
		exact   bool
	}
)

func init() {
	flags := disiWriteCmd.Flags()
	flags.StringVar(&disiWriteOpts.docs, "docs", "", "doc id file, one non-negative id per line")
	flags.StringVar(&disiWriteOpts.out, "out", "", "doc-id block file to write")
	flags.StringVar(&disiWriteOpts.config, "config", "", "yaml configuration (denseRankPower)")
	disiWriteCmd.MarkFlagRequired("docs")
	disiWriteCmd.MarkFlagRequired("out")

	flags = disiReadCmd.Flags()
	flags.IntSliceVar(&disiReadOpts.advance, "advance", nil, "targets to advance to, in order")
	flags.BoolVar(&disiReadOpts.exact, "exact", false, "use AdvanceExact for the --advance targets")

	disiCmd.AddCommand(disiWriteCmd, disiReadCmd)
}

func readDocs(r io.Reader) (*roaring.Bitmap, error) {
	bm := roaring.New()
	scanner := bufio.NewScanner(r)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		doc, err := strconv.ParseUint(line, 10, 31)
		if err != nil || doc == model.NO_MORE_DOCS {
			return nil, errors.Errorf("line %v: invalid doc id %q", lineNo, line)
		}
		bm.Add(uint32(doc))
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "cannot read doc ids")
	}
	return bm, nil
}

func writeDISIFile(path string, docs *roaring.Bitmap, denseRankPower int8) (err error) {
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
	if err = codec.WriteHeader(out, disiCodec, disiFileVersion); err != nil {
		return err
	}
	offset := out.FilePointer()
	jumpTableEntryCount, err := lucene90.WriteBitSet(model.NewRoaringIterator(docs), out, denseRankPower)
	if err != nil {
		return err
	}
	length := out.FilePointer() - offset
	log.Debugf("wrote %v docs in %v bytes, %v jump table entries",
		docs.GetCardinality(), length, jumpTableEntryCount)

	if err = out.WriteLong(offset); err == nil {
		if err = out.WriteLong(length); err == nil {
			if err = out.WriteShort(jumpTableEntryCount); err == nil {
				if err = out.WriteByte(byte(denseRankPower)); err == nil {
					err = out.WriteLong(int64(docs.GetCardinality()))
				}
			}
		}
	}
	if err != nil {
		return err
	}
	return codec.WriteFooter(out)
}

/* Reads the doc-id blocks off-heap; close the returned input when done. */
func openDISIFile(path string) (*lucene90.IndexedDISI, io.Closer, error) {
	in, err := openChecked(path)
	if err != nil {
		return nil, nil, err
	}
	disi, err := readDISI(in)
	if err != nil {
		in.Close()
		return nil, nil, err
	}
	return disi, in, nil
}

func readDISI(in store.IndexInput) (*lucene90.IndexedDISI, error) {
	var err error
	if _, err = codec.CheckHeader(in, disiCodec, disiFileVersion, disiFileVersion); err != nil {
		return nil, err
	}
	if err = in.SeekTo(in.Length() - codec.FOOTER_LENGTH - disiTrailerLength); err != nil {
		return nil, err
	}
	offset, err := in.ReadLong()
	if err != nil {
		return nil, err
	}
	length, err := in.ReadLong()
	if err != nil {
		return nil, err
	}
	jumpTableEntryCount, err := in.ReadShort()
	if err != nil {
		return nil, err
	}
	power, err := in.ReadByte()
	if err != nil {
		return nil, err
	}
	cost, err := in.ReadLong()
	if err != nil {
		return nil, err
	}
	if offset < 0 || length < 0 || offset+length > in.Length()-codec.FOOTER_LENGTH-disiTrailerLength {
		return nil, codec.NewCorruptIndexError(in, fmt.Sprintf(
			"doc-id blocks at %v+%v exceed the file", offset, length))
	}
	return lucene90.NewIndexedDISI(in, offset, length, int(jumpTableEntryCount), int8(power), cost)
}

func runDISIWrite(cmd *cobra.Command, args []string) error {
	power := int8(lucene90.DEFAULT_DENSE_RANK_POWER)
	if disiWriteOpts.config != "" {
		conf, err := lucene90.LoadDISIConfiguration(disiWriteOpts.config)
		if err != nil {
			return err
		}
		if power, err = conf.RankPower(); err != nil {
			return err
		}
	}
	f, err := os.Open(disiWriteOpts.docs)
	if err != nil {
		return errors.Wrapf(err, "cannot open %v", disiWriteOpts.docs)
	}
	docs, err := readDocs(f)
	f.Close()
	if err != nil {
		return err
	}
	if err = writeDISIFile(disiWriteOpts.out, docs, power); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%v: %v docs\n", disiWriteOpts.out, docs.GetCardinality())
	return nil
}

func runDISIRead(cmd *cobra.Command, args []string) error {
	disi, closer, err := openDISIFile(args[0])
	if err != nil {
		return err
	}
	defer closer.Close()
	w := cmd.OutOrStdout()
	if len(disiReadOpts.advance) == 0 {
		for {
			doc, err := disi.NextDoc()
			if err != nil {
				return err
			}
			if doc == model.NO_MORE_DOCS {
				return nil
			}
			fmt.Fprintf(w, "%v\t%v\n", doc, disi.Index())
		}
	}
	for _, target := range disiReadOpts.advance {
		if disiReadOpts.exact {
			found, err := disi.AdvanceExact(target)
			if err != nil {
				return err
			}
			if found {
				fmt.Fprintf(w, "%v\ttrue\t%v\n", target, disi.Index())
			} else {
				fmt.Fprintf(w, "%v\tfalse\t-\n", target)
			}
			continue
		}
		doc, err := disi.Advance(target)
		if err != nil {
			return err
		}
		if doc == model.NO_MORE_DOCS {
			fmt.Fprintf(w, "%v\t<no more docs>\n", target)
			return nil
		}
		fmt.Fprintf(w, "%v\t%v\t%v\n", target, doc, disi.Index())
	}
	return nil
}
