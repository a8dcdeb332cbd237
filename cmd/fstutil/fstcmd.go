package main

import (
	"fmt"
	"io"
	"os"

	"github.com/ironsweet/golucene-core/core/util/fst"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	buildCmd = &cobra.Command{
		Use:   "build",
		Short: "Compiles a sorted or unsorted term list into an FST file",
		Example: `
fstutil build --terms terms.tsv --out terms.fst
fstutil build --terms words.txt --out words.fst --outputs none --config fst.yaml`,
		Args: cobra.NoArgs,
		RunE: runBuild,
	}

	getCmd = &cobra.Command{
		Use:   "get FILE TERM...",
		Short: "Looks up terms in an FST file",
		Args:  cobra.MinimumNArgs(2),
		RunE:  runGet,
	}

	enumCmd = &cobra.Command{
		Use:   "enum FILE",
		Short: "Lists the terms of an FST file in order",
		Args:  cobra.ExactArgs(1),
		RunE:  runEnum,
	}

	dotCmd = &cobra.Command{
		Use:   "dot FILE",
		Short: "Writes an FST file as a GraphViz dot graph",
		Args:  cobra.ExactArgs(1),
		RunE:  runDot,
	}

	buildOpts struct {
		terms, out, config, outputs string
	}
	enumOpts struct {
		ceil, floor string
		limit       int
	}
	dotOpts struct {
		sameRank, labelStates bool
	}
)

func init() {
	flags := buildCmd.Flags()
	flags.StringVar(&buildOpts.terms, "terms", "", "term file, one term[<TAB>output] per line")
	flags.StringVar(&buildOpts.out, "out", "", "FST file to write")
	flags.StringVar(&buildOpts.config, "config", "", "yaml compiler configuration")
	flags.StringVar(&buildOpts.outputs, "outputs", "int", "output type: int or none")
	buildCmd.MarkFlagRequired("terms")
	buildCmd.MarkFlagRequired("out")

	flags = enumCmd.Flags()
	flags.StringVar(&enumOpts.ceil, "ceil", "", "start at the smallest term >= this one")
	flags.StringVar(&enumOpts.floor, "floor", "", "print only the biggest term <= this one")
	flags.IntVar(&enumOpts.limit, "limit", 0, "stop after this many terms (0: no limit)")

	flags = dotCmd.Flags()
	flags.BoolVar(&dotOpts.sameRank, "same-rank", true, "render states at the same depth on one rank")
	flags.BoolVar(&dotOpts.labelStates, "label-states", false, "label states with their address")
}

func loadCompilerConfiguration(path string) (*fst.CompilerConfiguration, error) {
	if path == "" {
		return new(fst.CompilerConfiguration), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open %v", path)
	}
	defer f.Close()
	return fst.ReadCompilerConfiguration(f)
}

func runBuild(cmd *cobra.Command, args []string) error {
	conf, err := loadCompilerConfiguration(buildOpts.config)
	if err != nil {
		return err
	}
	kind, err := parseOutputsKind(buildOpts.outputs)
	if err != nil {
		return err
	}
	inputType, err := fst.ParseInputType(conf.InputType)
	if err != nil {
		return err
	}
	f, err := os.Open(buildOpts.terms)
	if err != nil {
		return errors.Wrapf(err, "cannot open %v", buildOpts.terms)
	}
	terms, err := readTerms(f, inputType)
	f.Close()
	if err != nil {
		return err
	}
	log.Infof("read %v terms from %v", len(terms), buildOpts.terms)

	switch kind {
	case outputsNone:
		return buildFSTFile(cmd.OutOrStdout(), conf, fst.Outputs[struct{}](fst.NoOutputsSingleton()),
			terms, kind, func(int64) struct{} { return struct{}{} })
	default:
		return buildFSTFile(cmd.OutOrStdout(), conf, fst.Outputs[int64](fst.PositiveIntOutputsSingleton()),
			terms, kind, func(v int64) int64 { return v })
	}
}

func buildFSTFile[T any](w io.Writer, conf *fst.CompilerConfiguration, outputs fst.Outputs[T],
	terms []termEntry, kind byte, toOutput func(int64) T) error {

	b, err := fst.NewFSTCompilerBuilderFromConfig(conf, outputs)
	if err != nil {
		return err
	}
	f, c, err := compileTerms(b, terms, toOutput)
	if err != nil {
		return err
	}
	if err = writeFSTFile(buildOpts.out, kind, f); err != nil {
		return err
	}
	fmt.Fprintf(w, "%v: %v terms, %v nodes, %v arcs, %v bytes\n",
		buildOpts.out, len(terms), c.NodeCount(), c.ArcCount(), f.NumBytes())
	fmt.Fprintf(w, "fixed length nodes: %v binary search, %v direct addressing, %v continuous\n",
		c.BinarySearchNodeCount(), c.DirectAddressingNodeCount(), c.ContinuousNodeCount())
	return nil
}

func runGet(cmd *cobra.Command, args []string) error {
	none, ints, err := loadFSTFile(args[0])
	if err != nil {
		return err
	}
	if none != nil {
		return printLookups(cmd.OutOrStdout(), none, args[1:])
	}
	return printLookups(cmd.OutOrStdout(), ints, args[1:])
}

func printLookups[T any](w io.Writer, f *fst.FST[T], terms []string) error {
	for _, term := range terms {
		output, ok, err := fst.Get(f, toInput(term, f.InputType()))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintf(w, "%v\t<not found>\n", term)
			continue
		}
		fmt.Fprintf(w, "%v\t%v\n", term, f.Outputs().OutputString(output))
	}
	return nil
}

func runEnum(cmd *cobra.Command, args []string) error {
	none, ints, err := loadFSTFile(args[0])
	if err != nil {
		return err
	}
	if none != nil {
		return printTerms(cmd.OutOrStdout(), none)
	}
	return printTerms(cmd.OutOrStdout(), ints)
}

func printTerms[T any](w io.Writer, f *fst.FST[T]) error {
	e := fst.NewIntsRefFSTEnum(f)
	emit := func(pair *fst.IntsRefFSTEnumIO[T]) {
		fmt.Fprintf(w, "%v\t%v\n", inputString(pair.Input, f.InputType()), f.Outputs().OutputString(pair.Output))
	}

	if enumOpts.floor != "" {
		pair, err := e.SeekFloor(toInput(enumOpts.floor, f.InputType()))
		if err != nil || pair == nil {
			return err
		}
		emit(pair)
		return nil
	}

	var pair *fst.IntsRefFSTEnumIO[T]
	var err error
	if enumOpts.ceil != "" {
		pair, err = e.SeekCeil(toInput(enumOpts.ceil, f.InputType()))
	} else {
		pair, err = e.Next()
	}
	for count := 0; err == nil && pair != nil; count++ {
		if enumOpts.limit > 0 && count == enumOpts.limit {
			break
		}
		emit(pair)
		pair, err = e.Next()
	}
	return err
}

func runDot(cmd *cobra.Command, args []string) error {
	none, ints, err := loadFSTFile(args[0])
	if err != nil {
		return err
	}
	if none != nil {
		return fst.ToDot(none, cmd.OutOrStdout(), dotOpts.sameRank, dotOpts.labelStates)
	}
	return fst.ToDot(ints, cmd.OutOrStdout(), dotOpts.sameRank, dotOpts.labelStates)
}
