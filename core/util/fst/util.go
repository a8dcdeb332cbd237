package fst

import (
	"fmt"
	"io"
	"strconv"
	"unicode/utf8"

	"github.com/ironsweet/golucene-core/core/util"
	"github.com/pkg/errors"
)

// fst/Util.java

/*
Looks up the output for this input, or returns false if the input is
not accepted.
*/
func Get[T any](fst *FST[T], input *util.IntsRef) (output T, ok bool, err error) {
	// TODO: would be nice not to alloc this on every lookup
	arc := fst.FirstArc(new(Arc[T]))
	fstReader := fst.BytesReader()

	// Accumulate output as we go
	output = fst.outputs.NoOutput()
	for i := 0; i < input.Length; i++ {
		var found *Arc[T]
		if found, err = fst.FindTargetArc(input.Ints[input.Offset+i], arc, arc, fstReader); err != nil || found == nil {
			return fst.outputs.NoOutput(), false, err
		}
		output = fst.outputs.Add(output, arc.Output)
	}
	if arc.IsFinal() {
		return fst.outputs.Add(output, arc.NextFinalOutput), true, nil
	}
	return fst.outputs.NoOutput(), false, nil
}

/*
Looks up the output for this input, or returns false if the input is
not accepted. The FST must accept single byte labels.
*/
func GetBytes[T any](fst *FST[T], input []byte) (output T, ok bool, err error) {
	if fst.metadata.inputType != INPUT_TYPE_BYTE1 {
		return fst.outputs.NoOutput(), false, errors.Errorf(
			"GetBytes requires %v input, FST has %v", INPUT_TYPE_BYTE1, fst.metadata.inputType)
	}
	arc := fst.FirstArc(new(Arc[T]))
	fstReader := fst.BytesReader()

	output = fst.outputs.NoOutput()
	for _, b := range input {
		var found *Arc[T]
		if found, err = fst.FindTargetArc(int(b), arc, arc, fstReader); err != nil || found == nil {
			return fst.outputs.NoOutput(), false, err
		}
		output = fst.outputs.Add(output, arc.Output)
	}
	if arc.IsFinal() {
		return fst.outputs.Add(output, arc.NextFinalOutput), true, nil
	}
	return fst.outputs.NoOutput(), false, nil
}

/*
Reads the first arc greater or equal than the given label into the
provided arc in place and returns it iff found, otherwise return nil.
*/
func ReadCeilArc[T any](label int, fst *FST[T], follow, arc *Arc[T], in BytesReader) (*Arc[T], error) {
	if label == END_LABEL {
		return readEndArc(follow, arc), nil
	}
	if !targetHasArcs(follow) {
		return nil, nil
	}
	if _, err := fst.ReadFirstTargetArc(follow, arc, in); err != nil {
		return nil, err
	}
	if arc.bytesPerArc != 0 && arc.Label != END_LABEL {
		switch arc.nodeFlags {
		case ARCS_FOR_CONTINUOUS:
			targetIndex := label - arc.Label
			switch {
			case targetIndex >= arc.numArcs:
				return nil, nil
			case targetIndex < 0:
				return arc, nil
			}
			return fst.ReadArcByContinuous(arc, in, targetIndex)

		case ARCS_FOR_DIRECT_ADDRESSING:
			// Fixed length arcs in a direct addressing node.
			targetIndex := label - arc.Label
			switch {
			case targetIndex >= arc.numArcs:
				return nil, nil
			case targetIndex < 0:
				return arc, nil
			}
			present, err := isArcBitSet(targetIndex, arc, in)
			if err != nil {
				return nil, err
			}
			if present {
				if _, err = fst.ReadArcByDirectAddressing(arc, in, targetIndex); err != nil {
					return nil, err
				}
				assert(arc.Label == label)
			} else {
				ceilIndex, err := nextArcBitSet(targetIndex, arc, in)
				if err != nil {
					return nil, err
				}
				assert(ceilIndex != -1)
				if _, err = fst.ReadArcByDirectAddressing(arc, in, ceilIndex); err != nil {
					return nil, err
				}
				assert(arc.Label > label)
			}
			return arc, nil
		}

		// Fixed length arcs in a binary search node.
		idx, err := binarySearch(fst, arc, label)
		if err != nil {
			return nil, err
		}
		if idx >= 0 {
			return fst.ReadArcByIndex(arc, in, idx)
		}
		idx = -1 - idx
		if idx == arc.numArcs {
			// DEAD END!
			return nil, nil
		}
		return fst.ReadArcByIndex(arc, in, idx)
	}

	// Variable length arcs in a linear scan list, or special arc with
	// label == END_LABEL.
	if _, err := fst.ReadFirstRealTargetArc(follow.target, arc, in); err != nil {
		return nil, err
	}
	for {
		switch {
		case arc.Label >= label:
			return arc, nil
		case arc.IsLast():
			return nil, nil
		}
		if _, err := fst.ReadNextRealArc(arc, in); err != nil {
			return nil, err
		}
	}
}

/*
Perform a binary search of arcs encoded with fixed length arcs, from
the arc's current index. Returns the index of the arc with the
target label, or -1-insertionPoint when the label is absent.
*/
func binarySearch[T any](fst *FST[T], arc *Arc[T], targetLabel int) (int, error) {
	assert2(arc.nodeFlags == ARCS_FOR_BINARY_SEARCH,
		"Arc is not encoded as packed array for binary search (nodeFlags=%v)", arc.nodeFlags)
	in := fst.BytesReader()
	low := arc.arcIdx
	high := arc.numArcs - 1
	for low <= high {
		mid := int(uint(low+high) >> 1)
		in.SetPosition(arc.posArcsStart)
		in.SkipBytes(int64(arc.bytesPerArc*mid + 1))
		midLabel, err := fst.readLabel(in)
		if err != nil {
			return 0, err
		}
		if cmp := midLabel - targetLabel; cmp < 0 {
			low = mid + 1
		} else if cmp > 0 {
			high = mid - 1
		} else {
			return mid, nil
		}
	}
	return -1 - low, nil
}

/* Just takes unsigned byte values from the input and converts into an IntsRef. */
func ToIntsRef(input []byte, scratch *util.IntsRefBuilder) *util.IntsRef {
	scratch.Clear()
	for _, v := range input {
		scratch.Append(int(v))
	}
	return scratch.Get()
}

/* Decodes the UTF-8 string into code points, for INPUT_TYPE_BYTE4 FSTs. */
func ToUTF32(s string, scratch *util.IntsRefBuilder) *util.IntsRef {
	scratch.Clear()
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		scratch.Append(int(r))
		s = s[size:]
	}
	return scratch.Get()
}

func oversizeRefs(minSize int) int {
	return util.Oversize(minSize, util.NUM_BYTES_OBJECT_REF)
}

/*
Dumps an FST to a GraphViz's dot language description for
visualization. Example of use:

	err := fst.ToDot(f, w, true, true)

and then, from command line:

	dot -Tpng -o out.png out.dot

Note: larger FSTs (a few thousand nodes) won't even render, don't bother.

If sameRank is true, all states at the same distance from the root
are rendered at the same level. If labelStates is true, states are
labelled with their address.
*/
func ToDot[T any](fst *FST[T], out io.Writer, sameRank, labelStates bool) error {
	const expandedNodeColor = "blue"
	w := &dotWriter{w: out}

	// This is the start arc in the automaton (from the epsilon state to
	// the first state with outgoing transitions.
	startArc := fst.FirstArc(new(Arc[T]))

	// A queue of transitions to consider for the next level.
	thisLevelQueue := []*Arc[T]{}
	// A queue of transitions to consider when processing the next level.
	nextLevelQueue := []*Arc[T]{new(Arc[T]).copyFrom(startArc)}
	r := fst.BytesReader()

	// A list of states on the same level (for ranking).
	sameLevelStates := []int64{}

	// Already seen states.
	seen := map[int64]bool{}
	seen[startArc.target] = true

	// Emit DOT prologue.
	w.printf("digraph FST {\n")
	w.printf("  rankdir = LR; splines=true; concentrate=true; ordering=out; ranksep=2.5; \n")
	if !labelStates {
		w.printf("  node [shape=circle, width=.2, height=.2, style=filled]\n")
	}
	w.printf("  initial [shape=point, color=white, label=\"\"];\n")

	noOutput := fst.outputs.NoOutput()
	var isFinal bool
	var finalOutput T
	if startArc.IsFinal() {
		isFinal = true
		if !fst.outputs.Equal(startArc.NextFinalOutput, noOutput) {
			finalOutput = startArc.NextFinalOutput
		} else {
			finalOutput = noOutput
		}
	} else {
		finalOutput = noOutput
	}
	emitDotState(w, fst, startArc.target, isFinal, "", finalOutput, labelStates)
	w.printf("  initial -> %v\n", startArc.target)

	level := 0
	for len(nextLevelQueue) > 0 && w.err == nil {
		// we could double buffer here, but it doesn't matter probably.
		thisLevelQueue = append(thisLevelQueue, nextLevelQueue...)
		nextLevelQueue = nextLevelQueue[:0]

		level++
		w.printf("\n  // Transitions and states at level: %v\n", level)
		for len(thisLevelQueue) > 0 {
			arc := thisLevelQueue[len(thisLevelQueue)-1]
			thisLevelQueue = thisLevelQueue[:len(thisLevelQueue)-1]
			if !targetHasArcs(arc) {
				continue
			}
			// scan all target arcs
			node := arc.target
			expanded, err := fst.IsExpandedTarget(arc, r)
			if err != nil {
				return err
			}
			arc, err = fst.ReadFirstRealTargetArc(arc.target, new(Arc[T]), r)
			if err != nil {
				return err
			}
			for {
				// Emit the unseen state and add it to the queue for the
				// next level.
				if arc.target >= 0 && !seen[arc.target] {
					var finalOutput T
					if !fst.outputs.Equal(arc.NextFinalOutput, noOutput) {
						finalOutput = arc.NextFinalOutput
					} else {
						finalOutput = noOutput
					}
					stateColor := ""
					if ok, err := fst.IsExpandedTarget(arc, r); err != nil {
						return err
					} else if ok {
						stateColor = expandedNodeColor
					}
					emitDotState(w, fst, arc.target, false, stateColor, finalOutput, labelStates)
					seen[arc.target] = true
					nextLevelQueue = append(nextLevelQueue, new(Arc[T]).copyFrom(arc))
					sameLevelStates = append(sameLevelStates, arc.target)
				}

				outs := ""
				if !fst.outputs.Equal(arc.Output, noOutput) {
					outs = "/" + fst.outputs.OutputString(arc.Output)
				}
				if !targetHasArcs(arc) && arc.IsFinal() && !fst.outputs.Equal(arc.NextFinalOutput, noOutput) {
					// Tricky special case: sometimes, due to pruning, the
					// builder can [sillily] produce an FST with an arc into
					// the final end state (-1) but also with a next final
					// output; in this case we pull that output up onto this
					// arc
					outs += "/[" + fst.outputs.OutputString(arc.NextFinalOutput) + "]"
				}

				arcColor := ""
				if arc.flag(BIT_TARGET_NEXT) {
					arcColor = "red"
				} else if expanded {
					arcColor = expandedNodeColor
				}
				w.printf("  %v -> %v [label=\"%v%v\"", node, arc.target, printableLabel(arc.Label), outs)
				if arc.IsFinal() {
					w.printf(" style=\"bold\"")
				}
				if arcColor != "" {
					w.printf(" color=\"%v\"", arcColor)
				}
				w.printf("]\n")

				// Break the loop if we're on the last arc of this state.
				if arc.IsLast() {
					break
				}
				if arc, err = fst.ReadNextRealArc(arc, r); err != nil {
					return err
				}
			}
		}

		// Emit state ranking information.
		if sameRank && len(sameLevelStates) > 1 {
			w.printf("  {rank=same; ")
			for _, state := range sameLevelStates {
				w.printf("%v; ", state)
			}
			w.printf(" }\n")
		}
		sameLevelStates = sameLevelStates[:0]
	}

	// Emit terminating state (always there anyway).
	w.printf("  -1 [style=filled, color=black, shape=doublecircle, label=\"\"]\n\n")
	w.printf("  {rank=sink; -1 }\n")
	w.printf("}\n")
	return w.err
}

/* Emit a single state in the dot language. */
func emitDotState[T any](w *dotWriter, fst *FST[T], id int64, isFinal bool, color string,
	finalOutput T, labelStates bool) {
	w.printf("  %v [", id)
	if isFinal {
		w.printf("shape=doublecircle")
	} else {
		w.printf("shape=circle")
	}
	if color != "" {
		w.printf(",color=%v", color)
	}
	label := ""
	if labelStates {
		label = strconv.FormatInt(id, 10)
	}
	if !fst.outputs.Equal(finalOutput, fst.outputs.NoOutput()) {
		label += "/" + fst.outputs.OutputString(finalOutput)
	}
	w.printf(",label=%q]\n", label)
}

/* Ensures an arc's label is indeed printable (dot uses US-ASCII). */
func printableLabel(label int) string {
	// Any ordinary ascii character, except for " or \, are printed as
	// the character; everything else is printed in hex
	if label > 0x20 && label < 0x7d && label != '"' && label != '\\' {
		return string(rune(label))
	}
	return "0x" + strconv.FormatInt(int64(label), 16)
}

/* Remembers the first write error so ToDot can report it once. */
type dotWriter struct {
	w   io.Writer
	err error
}

func (w *dotWriter) printf(format string, args ...interface{}) {
	if w.err == nil {
		_, w.err = fmt.Fprintf(w.w, format, args...)
	}
}
