package fst

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ironsweet/golucene-core/core/codec"
	"github.com/ironsweet/golucene-core/core/store"
	"github.com/ironsweet/golucene-core/core/util"
	"github.com/op/go-logging"
	"github.com/pkg/errors"
)

var log = logging.MustGetLogger("fst")

// util/fst/FST.java

type InputType int

const (
	INPUT_TYPE_BYTE1 = InputType(1)
	INPUT_TYPE_BYTE2 = InputType(2)
	INPUT_TYPE_BYTE4 = InputType(3)
)

func (t InputType) String() string {
	switch t {
	case INPUT_TYPE_BYTE1:
		return "BYTE1"
	case INPUT_TYPE_BYTE2:
		return "BYTE2"
	case INPUT_TYPE_BYTE4:
		return "BYTE4"
	}
	return fmt.Sprintf("InputType(%d)", int(t))
}

/* Largest label allowed for the input type. */
func (t InputType) maxLabel() int {
	switch t {
	case INPUT_TYPE_BYTE1:
		return 0xFF
	case INPUT_TYPE_BYTE2:
		return 0xFFFF
	}
	return int(^uint32(0) >> 1)
}

const (
	BIT_FINAL_ARC            = byte(1 << 0)
	BIT_LAST_ARC             = byte(1 << 1)
	BIT_TARGET_NEXT          = byte(1 << 2)
	BIT_STOP_NODE            = byte(1 << 3)
	BIT_ARC_HAS_OUTPUT       = byte(1 << 4)
	BIT_ARC_HAS_FINAL_OUTPUT = byte(1 << 5)

	FILE_FORMAT_NAME = "FST"

	VERSION_START           = 6
	VERSION_LITTLE_ENDIAN   = 8
	VERSION_CONTINUOUS_ARCS = 9
	VERSION_CURRENT         = VERSION_CONTINUOUS_ARCS

	FINAL_END_NODE     = -1
	NON_FINAL_END_NODE = 0

	/* If arc has this label then that arc is final/accepted */
	END_LABEL = -1

	DEFAULT_MAX_BLOCK_BITS = 30
)

/*
First byte of a node. Fixed-length layouts carry one of the
ARCS_FOR_* headers; any other value is the flags byte of the first
arc of a linear list.
*/
type nodeLayout byte

const (
	/*
		Arcs are stored as fixed-size (bytesPerArc) entries sorted by
		label, searched with binary search. Reuses BIT_ARC_HAS_FINAL_OUTPUT
		as it is never set on the first byte of a node.
	*/
	ARCS_FOR_BINARY_SEARCH = nodeLayout(BIT_ARC_HAS_FINAL_OUTPUT)
	/*
		Arcs are stored as fixed-size entries addressed by label
		distance from the first label, with a presence bit table.
	*/
	ARCS_FOR_DIRECT_ADDRESSING = nodeLayout(1 << 6)
	/* Labels are continuous: no presence bits needed. */
	ARCS_FOR_CONTINUOUS = ARCS_FOR_DIRECT_ADDRESSING + ARCS_FOR_BINARY_SEARCH
)

func (l nodeLayout) fixedLength() bool {
	return l == ARCS_FOR_BINARY_SEARCH || l == ARCS_FOR_DIRECT_ADDRESSING || l == ARCS_FOR_CONTINUOUS
}

func (l nodeLayout) String() string {
	switch l {
	case ARCS_FOR_BINARY_SEARCH:
		return "binary-search"
	case ARCS_FOR_DIRECT_ADDRESSING:
		return "direct-addressing"
	case ARCS_FOR_CONTINUOUS:
		return "continuous"
	}
	return "list"
}

func hasFlag(flags, bit byte) bool {
	return flags&bit != 0
}

/* Represents a single arc. */
type Arc[T any] struct {
	Label           int
	Output          T
	NextFinalOutput T
	// to node
	target int64
	flags  byte
	// address (into the byte[]) of the next arc; only for list of
	// variable length arcs. Or ord/address to the next node if
	// label == END_LABEL.
	nextArc   int64
	nodeFlags nodeLayout

	// Fields for arcs belonging to a node with fixed length arcs.
	// So only valid when bytesPerArc != 0.
	// nodeFlags == ARCS_FOR_BINARY_SEARCH || ARCS_FOR_DIRECT_ADDRESSING || ARCS_FOR_CONTINUOUS

	bytesPerArc  int
	posArcsStart int64
	arcIdx       int
	numArcs      int

	// Fields for a direct addressing node.
	// nodeFlags == ARCS_FOR_DIRECT_ADDRESSING

	// Start position in the FST.BytesReader of the presence bits for
	// a direct addressing node, aka the bit-table
	bitTableStart int64
	// First label of a direct addressing node.
	firstLabel int
	// Index of the current label of a direct addressing node. While
	// arcIdx is the current index in the label range, presenceIndex is
	// its corresponding index in the list of actually present labels.
	presenceIndex int
}

/* Returns this */
func (arc *Arc[T]) copyFrom(other *Arc[T]) *Arc[T] {
	arc.Label = other.Label
	arc.target = other.target
	arc.flags = other.flags
	arc.Output = other.Output
	arc.NextFinalOutput = other.NextFinalOutput
	arc.nextArc = other.nextArc
	arc.nodeFlags = other.nodeFlags
	arc.bytesPerArc = other.bytesPerArc
	if other.bytesPerArc != 0 {
		arc.posArcsStart = other.posArcsStart
		arc.arcIdx = other.arcIdx
		arc.numArcs = other.numArcs
		arc.bitTableStart = other.bitTableStart
		arc.firstLabel = other.firstLabel
		arc.presenceIndex = other.presenceIndex
	}
	return arc
}

func (arc *Arc[T]) flag(flag byte) bool {
	return hasFlag(arc.flags, flag)
}

func (arc *Arc[T]) IsLast() bool {
	return arc.flag(BIT_LAST_ARC)
}

func (arc *Arc[T]) IsFinal() bool {
	return arc.flag(BIT_FINAL_ARC)
}

/* Ord/address to target node. */
func (arc *Arc[T]) Target() int64 {
	return arc.target
}

/* Number of arcs, or label range for direct addressing and continuous nodes. */
func (arc *Arc[T]) NumArcs() int {
	return arc.numArcs
}

func (arc *Arc[T]) BytesPerArc() int {
	return arc.bytesPerArc
}

func (arc *Arc[T]) ArcIdx() int {
	return arc.arcIdx
}

func (arc *Arc[T]) String() string {
	var b bytes.Buffer
	fmt.Fprintf(&b, " target=%v label=0x%x", arc.target, arc.Label)
	if arc.flag(BIT_FINAL_ARC) {
		b.WriteString(" final")
	}
	if arc.flag(BIT_LAST_ARC) {
		b.WriteString(" last")
	}
	if arc.flag(BIT_TARGET_NEXT) {
		b.WriteString(" targetNext")
	}
	if arc.flag(BIT_STOP_NODE) {
		b.WriteString(" stop")
	}
	if arc.flag(BIT_ARC_HAS_OUTPUT) {
		fmt.Fprintf(&b, " output=%v", arc.Output)
	}
	if arc.flag(BIT_ARC_HAS_FINAL_OUTPUT) {
		fmt.Fprintf(&b, " nextFinalOutput=%v", arc.NextFinalOutput)
	}
	if arc.bytesPerArc != 0 {
		fmt.Fprintf(&b, " arcArray(idx=%v of %v)(%v)", arc.arcIdx, arc.numArcs, arc.nodeFlags)
	}
	return b.String()
}

/* Returns true if the target of the arc has outgoing arcs. */
func targetHasArcs[T any](arc *Arc[T]) bool {
	return arc.target > 0
}

/*
Abstraction over the FST bytes: on-heap BytesStore or an off-heap
random-access slice.
*/
type FSTReader interface {
	ReverseBytesReader() BytesReader
	WriteTo(out util.DataOutput) error
	RamBytesUsed() int64
}

// fst/OffHeapFSTStore.java

type offHeapFSTStore struct {
	in       store.RandomAccessInput
	numBytes int64
}

func newOffHeapFSTStore(in store.IndexInput, offset, numBytes int64) (*offHeapFSTStore, error) {
	slice, err := in.RandomAccessSlice(offset, numBytes)
	if err != nil {
		return nil, err
	}
	return &offHeapFSTStore{slice, numBytes}, nil
}

func (s *offHeapFSTStore) ReverseBytesReader() BytesReader {
	return newReverseRandomAccessReader(s.in)
}

func (s *offHeapFSTStore) WriteTo(out util.DataOutput) error {
	return errors.New("writing an off-heap FST is not supported")
}

func (s *offHeapFSTStore) RamBytesUsed() int64 {
	return util.AlignObjectSize(util.NUM_BYTES_OBJECT_HEADER + util.NUM_BYTES_OBJECT_REF + util.NUM_BYTES_LONG)
}

/* Everything needed to interpret the FST bytes, written apart from them. */
type FSTMetadata[T any] struct {
	inputType      InputType
	outputs        Outputs[T]
	version        int32
	emptyOutput    T
	hasEmptyOutput bool
	// if non-null, this FST accepts the empty string and produces
	// this output
	startNode int64
	numBytes  int64
}

func newFSTMetadata[T any](inputType InputType, outputs Outputs[T], version int32) *FSTMetadata[T] {
	return &FSTMetadata[T]{
		inputType: inputType,
		outputs:   outputs,
		version:   version,
		startNode: -1,
	}
}

func (m *FSTMetadata[T]) InputType() InputType {
	return m.inputType
}

func (m *FSTMetadata[T]) Version() int32 {
	return m.version
}

func (m *FSTMetadata[T]) NumBytes() int64 {
	return m.numBytes
}

func (m *FSTMetadata[T]) StartNode() int64 {
	return m.startNode
}

func (m *FSTMetadata[T]) EmptyOutput() (T, bool) {
	return m.emptyOutput, m.hasEmptyOutput
}

/*
Writes the metadata: codec header, empty output, input type, start
node and number of bytes.
*/
func (m *FSTMetadata[T]) Save(metaOut util.DataOutput) (err error) {
	if err = codec.WriteHeader(metaOut, FILE_FORMAT_NAME, int(m.version)); err != nil {
		return
	}
	// TODO: really we should encode this as an arc, arriving to the
	// root node, instead of special casing here:
	if m.hasEmptyOutput {
		// Accepts empty string
		if err = metaOut.WriteByte(1); err != nil {
			return
		}
		// Serialize empty-string output:
		ros := store.NewByteBuffersDataOutput()
		if err = m.outputs.WriteFinalOutput(m.emptyOutput, ros); err != nil {
			return
		}
		emptyOutputBytes := ros.Bytes()
		// reverse
		for i, j := 0, len(emptyOutputBytes)-1; i < j; i, j = i+1, j-1 {
			emptyOutputBytes[i], emptyOutputBytes[j] = emptyOutputBytes[j], emptyOutputBytes[i]
		}
		if err = metaOut.WriteVInt(int32(len(emptyOutputBytes))); err != nil {
			return
		}
		if err = metaOut.WriteBytes(emptyOutputBytes); err != nil {
			return
		}
	} else if err = metaOut.WriteByte(0); err != nil {
		return
	}
	var t byte
	switch m.inputType {
	case INPUT_TYPE_BYTE1:
		t = 0
	case INPUT_TYPE_BYTE2:
		t = 1
	default:
		t = 2
	}
	if err = metaOut.WriteByte(t); err != nil {
		return
	}
	if err = metaOut.WriteVLong(m.startNode); err != nil {
		return
	}
	return metaOut.WriteVLong(m.numBytes)
}

/* Reads the metadata written by FSTMetadata.Save(). */
func ReadMetadata[T any](metaIn util.DataInput, outputs Outputs[T]) (*FSTMetadata[T], error) {
	// NOTE: only reads formats VERSION_START up to VERSION_CURRENT; we
	// don't have back-compat promise for FSTs (they are experimental),
	// but we are sometimes able to offer it
	version, err := codec.CheckHeader(metaIn, FILE_FORMAT_NAME, VERSION_START, VERSION_CURRENT)
	if err != nil {
		return nil, err
	}
	m := &FSTMetadata[T]{outputs: outputs, version: version}
	b, err := metaIn.ReadByte()
	if err != nil {
		return nil, corruptOnEOF(err, metaIn)
	}
	if b == 1 {
		// accepts empty string
		numBytes, err := metaIn.ReadVInt()
		if err != nil {
			return nil, corruptOnEOF(err, metaIn)
		}
		if numBytes < 0 {
			return nil, codec.NewCorruptIndexError(metaIn, fmt.Sprintf("invalid empty output length %v", numBytes))
		}
		emptyBytes := make([]byte, numBytes)
		if err = metaIn.ReadBytes(emptyBytes); err != nil {
			return nil, corruptOnEOF(err, metaIn)
		}
		// De-serialize empty-string output:
		reader := newReverseBytesReader(emptyBytes)
		// NoOutputs uses 0 bytes when writing its output, so we have to
		// check here else BytesStore gets angry:
		if numBytes > 0 {
			reader.SetPosition(int64(numBytes) - 1)
		}
		if m.emptyOutput, err = outputs.ReadFinalOutput(reader); err != nil {
			return nil, corruptOnEOF(err, metaIn)
		}
		m.hasEmptyOutput = true
	}
	t, err := metaIn.ReadByte()
	if err != nil {
		return nil, corruptOnEOF(err, metaIn)
	}
	switch t {
	case 0:
		m.inputType = INPUT_TYPE_BYTE1
	case 1:
		m.inputType = INPUT_TYPE_BYTE2
	case 2:
		m.inputType = INPUT_TYPE_BYTE4
	default:
		return nil, codec.NewCorruptIndexError(metaIn, fmt.Sprintf("invalid input type %v", t))
	}
	if m.startNode, err = metaIn.ReadVLong(); err != nil {
		return nil, corruptOnEOF(err, metaIn)
	}
	if m.numBytes, err = metaIn.ReadVLong(); err != nil {
		return nil, corruptOnEOF(err, metaIn)
	}
	return m, nil
}

func corruptOnEOF(err error, in interface{}) error {
	if errors.Cause(err) == io.EOF || errors.Cause(err) == io.ErrUnexpectedEOF {
		return codec.NewCorruptIndexError(in, fmt.Sprintf("premature end of FST: %v", err))
	}
	return err
}

/*
Represents an finite state machine (FST), using a compact byte[]
format.

The format is similar to what's used by Morfologik
(http://sourceforge.net/projects/morfologik).

See the package documentation for some simple examples.
*/
type FST[T any] struct {
	metadata  *FSTMetadata[T]
	fstReader FSTReader
	outputs   Outputs[T]
}

/* Creates an FST over the given bytes, as produced by FSTCompiler. */
func NewFST[T any](metadata *FSTMetadata[T], fstReader FSTReader) *FST[T] {
	assert(metadata != nil && fstReader != nil)
	return &FST[T]{metadata, fstReader, metadata.outputs}
}

/* Loads a previously saved FST, copying its bytes onto the heap. */
func LoadFST[T any](metaIn, in util.DataInput, outputs Outputs[T]) (*FST[T], error) {
	metadata, err := ReadMetadata(metaIn, outputs)
	if err != nil {
		return nil, err
	}
	bs, err := newBytesStoreFromInput(in, metadata.numBytes, DEFAULT_MAX_BLOCK_BITS)
	if err != nil {
		return nil, corruptOnEOF(err, in)
	}
	return NewFST(metadata, bs), nil
}

/*
Loads a previously saved FST whose bytes stay in the IndexInput; the
input is positioned after the FST bytes on return.
*/
func LoadOffHeapFST[T any](metaIn util.DataInput, in store.IndexInput, outputs Outputs[T]) (*FST[T], error) {
	metadata, err := ReadMetadata(metaIn, outputs)
	if err != nil {
		return nil, err
	}
	offset := in.FilePointer()
	if offset+metadata.numBytes > in.Length() {
		return nil, codec.NewCorruptIndexError(in, fmt.Sprintf(
			"FST needs %v bytes at %v but input has %v", metadata.numBytes, offset, in.Length()))
	}
	fstStore, err := newOffHeapFSTStore(in, offset, metadata.numBytes)
	if err != nil {
		return nil, err
	}
	if err = in.SeekTo(offset + metadata.numBytes); err != nil {
		return nil, err
	}
	return NewFST(metadata, fstStore), nil
}

func (t *FST[T]) Metadata() *FSTMetadata[T] {
	return t.metadata
}

func (t *FST[T]) Outputs() Outputs[T] {
	return t.outputs
}

func (t *FST[T]) InputType() InputType {
	return t.metadata.inputType
}

func (t *FST[T]) NumBytes() int64 {
	return t.metadata.numBytes
}

func (t *FST[T]) EmptyOutput() (T, bool) {
	return t.metadata.EmptyOutput()
}

func (t *FST[T]) RamBytesUsed() int64 {
	size := util.AlignObjectSize(util.NUM_BYTES_OBJECT_HEADER + 3*util.NUM_BYTES_OBJECT_REF)
	size += t.fstReader.RamBytesUsed()
	if t.metadata.hasEmptyOutput {
		size += t.outputs.RamBytesUsed(t.metadata.emptyOutput)
	}
	return size
}

func (t *FST[T]) String() string {
	return fmt.Sprintf("FST(input=%v,output=%v)", t.metadata.inputType, t.outputs)
}

func (t *FST[T]) SaveMetadata(metaOut util.DataOutput) error {
	return t.metadata.Save(metaOut)
}

/* Writes the metadata to metaOut and the FST bytes to out. */
func (t *FST[T]) Save(metaOut, out util.DataOutput) error {
	if err := t.SaveMetadata(metaOut); err != nil {
		return err
	}
	return t.fstReader.WriteTo(out)
}

/* Returns a BytesReader for this FST, positioned at position 0. */
func (t *FST[T]) BytesReader() BytesReader {
	return t.fstReader.ReverseBytesReader()
}

/* Reads one BYTE1/2/4 label from the provided DataInput. */
func (t *FST[T]) readLabel(in util.DataInput) (int, error) {
	switch t.metadata.inputType {
	case INPUT_TYPE_BYTE1:
		// Unsigned byte:
		b, err := in.ReadByte()
		return int(b), err
	case INPUT_TYPE_BYTE2:
		// Unsigned short:
		v, err := in.ReadShort()
		if err != nil {
			return 0, err
		}
		if t.metadata.version < VERSION_LITTLE_ENDIAN {
			return int(uint16(v)>>8 | uint16(v)<<8), nil
		}
		return int(uint16(v)), nil
	default:
		v, err := in.ReadVInt()
		return int(v), err
	}
}

func readUnpackedNodeTarget(in BytesReader) (int64, error) {
	return in.ReadVLong()
}

/* Fills virtual 'start' arc, ie, an empty incoming arc to the FST's start node */
func (t *FST[T]) FirstArc(arc *Arc[T]) *Arc[T] {
	noOutput := t.outputs.NoOutput()
	if t.metadata.hasEmptyOutput {
		arc.flags = BIT_FINAL_ARC | BIT_LAST_ARC
		arc.NextFinalOutput = t.metadata.emptyOutput
		if !t.outputs.Equal(t.metadata.emptyOutput, noOutput) {
			arc.flags |= BIT_ARC_HAS_FINAL_OUTPUT
		}
	} else {
		arc.flags = BIT_LAST_ARC
		arc.NextFinalOutput = noOutput
	}
	arc.Output = noOutput
	// If there are no nodes, ie, the FST only accepts the empty string,
	// then startNode is 0
	arc.target = t.metadata.startNode
	return arc
}

/*
Follows the follow arc and reads the last arc of its target; this
changes the provided arc (2nd arg) in-place and returns it.
*/
func (t *FST[T]) ReadLastTargetArc(follow, arc *Arc[T], in BytesReader) (*Arc[T], error) {
	if !targetHasArcs(follow) {
		assert(follow.IsFinal())
		arc.Label = END_LABEL
		arc.target = FINAL_END_NODE
		arc.Output = follow.NextFinalOutput
		arc.flags = BIT_LAST_ARC
		arc.nodeFlags = nodeLayout(arc.flags)
		return arc, nil
	}
	in.SetPosition(follow.target)
	flags, err := in.ReadByte()
	if err != nil {
		return nil, err
	}
	arc.nodeFlags = nodeLayout(flags)
	if arc.nodeFlags.fixedLength() {
		// Special arc which is actually a node header for fixed length
		// arcs. Jump straight to end to find the last arc.
		if err = t.readFixedLengthHeader(arc, in); err != nil {
			return nil, err
		}
		switch arc.nodeFlags {
		case ARCS_FOR_DIRECT_ADDRESSING:
			_, err = t.ReadLastArcByDirectAddressing(arc, in)
		case ARCS_FOR_BINARY_SEARCH:
			arc.arcIdx = arc.numArcs - 2
			_, err = t.ReadNextRealArc(arc, in)
		default:
			_, err = t.ReadLastArcByContinuous(arc, in)
		}
		if err != nil {
			return nil, err
		}
	} else {
		arc.flags = flags
		// non-array: linear scan
		arc.bytesPerArc = 0
		for !arc.IsLast() {
			// skip this arc:
			if _, err = t.readLabel(in); err != nil {
				return nil, err
			}
			if err = t.skipArcTail(arc.flags, in); err != nil {
				return nil, err
			}
			if arc.flags, err = in.ReadByte(); err != nil {
				return nil, err
			}
		}
		// Undo the byte flags we read:
		in.SkipBytes(-1)
		arc.nextArc = in.Position()
		if _, err = t.ReadNextRealArc(arc, in); err != nil {
			return nil, err
		}
	}
	assert(arc.IsLast())
	return arc, nil
}

/* Skips the outputs and target of an arc whose flags and label were read. */
func (t *FST[T]) skipArcTail(flags byte, in BytesReader) error {
	if hasFlag(flags, BIT_ARC_HAS_OUTPUT) {
		if err := t.outputs.SkipOutput(in); err != nil {
			return err
		}
	}
	if hasFlag(flags, BIT_ARC_HAS_FINAL_OUTPUT) {
		if err := t.outputs.SkipFinalOutput(in); err != nil {
			return err
		}
	}
	if !hasFlag(flags, BIT_STOP_NODE) && !hasFlag(flags, BIT_TARGET_NEXT) {
		if _, err := readUnpackedNodeTarget(in); err != nil {
			return err
		}
	}
	return nil
}

/*
Reads the header of a fixed length node, whose flags byte was already
read into arc.nodeFlags, and leaves posArcsStart on the first arc.
*/
func (t *FST[T]) readFixedLengthHeader(arc *Arc[T], in BytesReader) error {
	numArcs, err := in.ReadVInt()
	if err != nil {
		return err
	}
	bytesPerArc, err := in.ReadVInt()
	if err != nil {
		return err
	}
	if numArcs <= 0 || bytesPerArc <= 0 {
		return codec.NewCorruptIndexError(in, fmt.Sprintf(
			"invalid %v node header: numArcs=%v bytesPerArc=%v", arc.nodeFlags, numArcs, bytesPerArc))
	}
	arc.numArcs, arc.bytesPerArc = int(numArcs), int(bytesPerArc)
	switch arc.nodeFlags {
	case ARCS_FOR_DIRECT_ADDRESSING:
		arc.bitTableStart = in.Position()
		in.SkipBytes(int64(numPresenceBytes(arc.numArcs)))
		if arc.firstLabel, err = t.readLabel(in); err != nil {
			return err
		}
	case ARCS_FOR_CONTINUOUS:
		if arc.firstLabel, err = t.readLabel(in); err != nil {
			return err
		}
	}
	arc.posArcsStart = in.Position()
	return nil
}

/*
Follow the follow arc and read the first arc of its target; this
changes the provided arc (2nd arg) in-place and returns it.
*/
func (t *FST[T]) ReadFirstTargetArc(follow, arc *Arc[T], in BytesReader) (*Arc[T], error) {
	if follow.IsFinal() {
		// Insert "fake" final first arc:
		arc.Label = END_LABEL
		arc.Output = follow.NextFinalOutput
		arc.flags = BIT_FINAL_ARC
		if follow.target <= 0 {
			arc.flags |= BIT_LAST_ARC
		} else {
			// NOTE: nextArc is a node (not an address!) in this case:
			arc.nextArc = follow.target
		}
		arc.target = FINAL_END_NODE
		arc.nodeFlags = nodeLayout(arc.flags)
		return arc, nil
	}
	return t.ReadFirstRealTargetArc(follow.target, arc, in)
}

func (t *FST[T]) readFirstArcInfo(nodeAddress int64, arc *Arc[T], in BytesReader) error {
	in.SetPosition(nodeAddress)
	flags, err := in.ReadByte()
	if err != nil {
		return err
	}
	arc.nodeFlags = nodeLayout(flags)
	if arc.nodeFlags.fixedLength() {
		// Special arc which is actually a node header for fixed length arcs.
		if err = t.readFixedLengthHeader(arc, in); err != nil {
			return err
		}
		arc.arcIdx = -1
		arc.presenceIndex = -1
	} else {
		arc.nextArc = nodeAddress
		arc.bytesPerArc = 0
	}
	return nil
}

/* Reads the first real arc of the node at nodeAddress. */
func (t *FST[T]) ReadFirstRealTargetArc(nodeAddress int64, arc *Arc[T], in BytesReader) (*Arc[T], error) {
	if err := t.readFirstArcInfo(nodeAddress, arc, in); err != nil {
		return nil, err
	}
	return t.ReadNextRealArc(arc, in)
}

/*
Returns whether arc's target points to a node in expanded format
(fixed length arcs).
*/
func (t *FST[T]) IsExpandedTarget(follow *Arc[T], in BytesReader) (bool, error) {
	if !targetHasArcs(follow) {
		return false, nil
	}
	in.SetPosition(follow.target)
	flags, err := in.ReadByte()
	if err != nil {
		return false, err
	}
	return nodeLayout(flags).fixedLength(), nil
}

/* In-place read; returns the arc. */
func (t *FST[T]) ReadNextArc(arc *Arc[T], in BytesReader) (*Arc[T], error) {
	if arc.Label == END_LABEL {
		// This was a fake inserted "final" arc
		if arc.nextArc <= 0 {
			return nil, errors.New("cannot readNextArc when arc.isLast()=true")
		}
		return t.ReadFirstRealTargetArc(arc.nextArc, arc, in)
	}
	return t.ReadNextRealArc(arc, in)
}

/* Peeks at next arc's label; does not alter arc. Do not call this if arc.IsLast()! */
func (t *FST[T]) readNextArcLabel(arc *Arc[T], in BytesReader) (int, error) {
	assert(!arc.IsLast())

	if arc.Label == END_LABEL {
		in.SetPosition(arc.nextArc)
		flags, err := in.ReadByte()
		if err != nil {
			return 0, err
		}
		layout := nodeLayout(flags)
		if layout.fixedLength() {
			// Special arc which is actually a node header for fixed length arcs.
			numArcs, err := in.ReadVInt()
			if err != nil {
				return 0, err
			}
			if _, err = in.ReadVInt(); err != nil { // Skip bytesPerArc.
				return 0, err
			}
			switch layout {
			case ARCS_FOR_BINARY_SEARCH:
				if _, err = in.ReadByte(); err != nil { // Skip arc flags.
					return 0, err
				}
			case ARCS_FOR_DIRECT_ADDRESSING:
				in.SkipBytes(int64(numPresenceBytes(int(numArcs))))
			} // Nothing to do for ARCS_FOR_CONTINUOUS
		}
	} else {
		switch arc.nodeFlags {
		case ARCS_FOR_BINARY_SEARCH:
			// Point to next arc, -1 to skip arc flags.
			in.SetPosition(arc.posArcsStart - int64(1+arc.arcIdx)*int64(arc.bytesPerArc) - 1)
		case ARCS_FOR_DIRECT_ADDRESSING:
			// Direct addressing node. The label is not stored but rather
			// inferred based on first label and arc index in the range.
			nextIndex, err := nextArcBitSet(arc.arcIdx, arc, in)
			if err != nil {
				return 0, err
			}
			assert(nextIndex != -1)
			return arc.firstLabel + nextIndex, nil
		case ARCS_FOR_CONTINUOUS:
			return arc.firstLabel + arc.arcIdx + 1, nil
		default:
			// Non-array: linear scan
			assert(arc.bytesPerArc == 0)
			// Arcs have variable length.
			// Position to next arc, -1 to skip flags.
			in.SetPosition(arc.nextArc - 1)
		}
	}
	return t.readLabel(in)
}

/*
Reads the arc at index idx of a binary search node. arc must be
positioned on that node by a previous read.
*/
func (t *FST[T]) ReadArcByIndex(arc *Arc[T], in BytesReader, idx int) (*Arc[T], error) {
	assert(arc.bytesPerArc > 0)
	assert(arc.nodeFlags == ARCS_FOR_BINARY_SEARCH)
	assert2(idx >= 0 && idx < arc.numArcs, "idx=%v numArcs=%v", idx, arc.numArcs)
	in.SetPosition(arc.posArcsStart - int64(idx)*int64(arc.bytesPerArc))
	arc.arcIdx = idx
	var err error
	if arc.flags, err = in.ReadByte(); err != nil {
		return nil, err
	}
	return t.readArc(arc, in)
}

/* Reads the arc at the given range index of a continuous node. */
func (t *FST[T]) ReadArcByContinuous(arc *Arc[T], in BytesReader, rangeIndex int) (*Arc[T], error) {
	assert2(rangeIndex >= 0 && rangeIndex < arc.numArcs, "rangeIndex=%v numArcs=%v", rangeIndex, arc.numArcs)
	in.SetPosition(arc.posArcsStart - int64(rangeIndex)*int64(arc.bytesPerArc))
	arc.arcIdx = rangeIndex
	var err error
	if arc.flags, err = in.ReadByte(); err != nil {
		return nil, err
	}
	return t.readArc(arc, in)
}

/*
Reads a present direct addressing node arc, with the provided index in
the label range.
*/
func (t *FST[T]) ReadArcByDirectAddressing(arc *Arc[T], in BytesReader, rangeIndex int) (*Arc[T], error) {
	assert2(rangeIndex >= 0 && rangeIndex < arc.numArcs, "rangeIndex=%v numArcs=%v", rangeIndex, arc.numArcs)
	presenceIndex, err := countArcBitsUpTo(rangeIndex, arc, in)
	if err != nil {
		return nil, err
	}
	return t.readArcByDirectAddressing(arc, in, rangeIndex, presenceIndex)
}

func (t *FST[T]) readArcByDirectAddressing(arc *Arc[T], in BytesReader, rangeIndex, presenceIndex int) (*Arc[T], error) {
	in.SetPosition(arc.posArcsStart - int64(presenceIndex)*int64(arc.bytesPerArc))
	arc.arcIdx = rangeIndex
	arc.presenceIndex = presenceIndex
	var err error
	if arc.flags, err = in.ReadByte(); err != nil {
		return nil, err
	}
	return t.readArc(arc, in)
}

/* Reads the last arc of a direct addressing node. */
func (t *FST[T]) ReadLastArcByDirectAddressing(arc *Arc[T], in BytesReader) (*Arc[T], error) {
	count, err := countArcBits(arc, in)
	if err != nil {
		return nil, err
	}
	return t.readArcByDirectAddressing(arc, in, arc.numArcs-1, count-1)
}

/* Reads the last arc of a continuous node. */
func (t *FST[T]) ReadLastArcByContinuous(arc *Arc[T], in BytesReader) (*Arc[T], error) {
	return t.ReadArcByContinuous(arc, in, arc.numArcs-1)
}

/* Never returns nil, but you should never call this if arc.IsLast() is true. */
func (t *FST[T]) ReadNextRealArc(arc *Arc[T], in BytesReader) (*Arc[T], error) {
	var err error
	switch arc.nodeFlags {
	case ARCS_FOR_BINARY_SEARCH, ARCS_FOR_CONTINUOUS:
		assert(arc.bytesPerArc > 0)
		arc.arcIdx++
		assert2(arc.arcIdx >= 0 && arc.arcIdx < arc.numArcs, "arcIdx=%v numArcs=%v", arc.arcIdx, arc.numArcs)
		in.SetPosition(arc.posArcsStart - int64(arc.arcIdx)*int64(arc.bytesPerArc))
		if arc.flags, err = in.ReadByte(); err != nil {
			return nil, err
		}
	case ARCS_FOR_DIRECT_ADDRESSING:
		nextIndex, err := nextArcBitSet(arc.arcIdx, arc, in)
		if err != nil {
			return nil, err
		}
		if nextIndex == -1 {
			return nil, codec.NewCorruptIndexError(in, fmt.Sprintf("no arc after index %v", arc.arcIdx))
		}
		return t.readArcByDirectAddressing(arc, in, nextIndex, arc.presenceIndex+1)
	default:
		// Variable length arcs - linear search.
		assert(arc.bytesPerArc == 0)
		in.SetPosition(arc.nextArc)
		if arc.flags, err = in.ReadByte(); err != nil {
			return nil, err
		}
	}
	return t.readArc(arc, in)
}

/*
Reads an arc. Precondition: The arc flags byte has already been read
and set; the given BytesReader is positioned just after the arc flags
byte.
*/
func (t *FST[T]) readArc(arc *Arc[T], in BytesReader) (ans *Arc[T], err error) {
	if arc.nodeFlags == ARCS_FOR_DIRECT_ADDRESSING || arc.nodeFlags == ARCS_FOR_CONTINUOUS {
		arc.Label = arc.firstLabel + arc.arcIdx
	} else if arc.Label, err = t.readLabel(in); err != nil {
		return nil, err
	}
	if arc.flag(BIT_ARC_HAS_OUTPUT) {
		if arc.Output, err = t.outputs.Read(in); err != nil {
			return nil, err
		}
	} else {
		arc.Output = t.outputs.NoOutput()
	}
	if arc.flag(BIT_ARC_HAS_FINAL_OUTPUT) {
		if arc.NextFinalOutput, err = t.outputs.ReadFinalOutput(in); err != nil {
			return nil, err
		}
	} else {
		arc.NextFinalOutput = t.outputs.NoOutput()
	}
	switch {
	case arc.flag(BIT_STOP_NODE):
		if arc.flag(BIT_FINAL_ARC) {
			arc.target = FINAL_END_NODE
		} else {
			arc.target = NON_FINAL_END_NODE
		}
		arc.nextArc = in.Position() // Only useful for list.
	case arc.flag(BIT_TARGET_NEXT):
		arc.nextArc = in.Position() // Only useful for list.
		// TODO: would be nice to make this lazy -- maybe caller doesn't
		// need the target and is scanning arcs...
		if !arc.flag(BIT_LAST_ARC) {
			if arc.bytesPerArc == 0 {
				// must scan
				if err = t.seekToNextNode(in); err != nil {
					return nil, err
				}
			} else {
				numArcs := arc.numArcs
				if arc.nodeFlags == ARCS_FOR_DIRECT_ADDRESSING {
					if numArcs, err = countArcBits(arc, in); err != nil {
						return nil, err
					}
				}
				in.SetPosition(arc.posArcsStart - int64(arc.bytesPerArc)*int64(numArcs))
			}
		}
		arc.target = in.Position()
	default:
		if arc.target, err = readUnpackedNodeTarget(in); err != nil {
			return nil, err
		}
		arc.nextArc = in.Position() // Only useful for list.
	}
	return arc, nil
}

func (t *FST[T]) seekToNextNode(in BytesReader) error {
	for {
		flags, err := in.ReadByte()
		if err != nil {
			return err
		}
		if _, err = t.readLabel(in); err != nil {
			return err
		}
		if err = t.skipArcTail(flags, in); err != nil {
			return err
		}
		if hasFlag(flags, BIT_LAST_ARC) {
			return nil
		}
	}
}

/*
Finds an arc leaving the incoming arc, replacing the arc in place. This
returns nil if the arc was not found, else the incoming arc.
*/
func (t *FST[T]) FindTargetArc(labelToMatch int, follow, arc *Arc[T], in BytesReader) (*Arc[T], error) {
	if labelToMatch == END_LABEL {
		return readEndArc(follow, arc), nil
	}

	if !targetHasArcs(follow) {
		return nil, nil
	}

	in.SetPosition(follow.target)
	flags, err := in.ReadByte()
	if err != nil {
		return nil, err
	}
	arc.nodeFlags = nodeLayout(flags)
	switch arc.nodeFlags {
	case ARCS_FOR_DIRECT_ADDRESSING:
		if err = t.readFixedLengthHeader(arc, in); err != nil {
			return nil, err
		}
		arcIndex := labelToMatch - arc.firstLabel
		if arcIndex < 0 || arcIndex >= arc.numArcs {
			return nil, nil // Before or after label range.
		}
		present, err := isArcBitSet(arcIndex, arc, in)
		if err != nil || !present {
			return nil, err // Arc missing in the range.
		}
		return t.ReadArcByDirectAddressing(arc, in, arcIndex)

	case ARCS_FOR_BINARY_SEARCH:
		if err = t.readFixedLengthHeader(arc, in); err != nil {
			return nil, err
		}
		// Array is sparse; do binary search:
		low, high := 0, arc.numArcs-1
		for low <= high {
			mid := int(uint(low+high) >> 1)
			// +1 to skip over flags
			in.SetPosition(arc.posArcsStart - int64(arc.bytesPerArc*mid+1))
			midLabel, err := t.readLabel(in)
			if err != nil {
				return nil, err
			}
			if cmp := midLabel - labelToMatch; cmp < 0 {
				low = mid + 1
			} else if cmp > 0 {
				high = mid - 1
			} else {
				arc.arcIdx = mid - 1
				return t.ReadNextRealArc(arc, in)
			}
		}
		return nil, nil

	case ARCS_FOR_CONTINUOUS:
		if err = t.readFixedLengthHeader(arc, in); err != nil {
			return nil, err
		}
		arcIndex := labelToMatch - arc.firstLabel
		if arcIndex < 0 || arcIndex >= arc.numArcs {
			return nil, nil // Before or after label range.
		}
		arc.arcIdx = arcIndex - 1
		return t.ReadNextRealArc(arc, in)
	}

	// Linear scan
	if err = t.readFirstArcInfo(follow.target, arc, in); err != nil {
		return nil, err
	}
	in.SetPosition(arc.nextArc)
	for {
		assert(arc.bytesPerArc == 0)
		if arc.flags, err = in.ReadByte(); err != nil {
			return nil, err
		}
		pos := in.Position()
		label, err := t.readLabel(in)
		if err != nil {
			return nil, err
		}
		switch {
		case label == labelToMatch:
			in.SetPosition(pos)
			return t.readArc(arc, in)
		case label > labelToMatch, arc.IsLast():
			return nil, nil
		}
		if err = t.skipArcTail(arc.flags, in); err != nil {
			return nil, err
		}
	}
}

/* Fills arc with the END_LABEL arc leaving follow, or returns nil if follow is not final. */
func readEndArc[T any](follow, arc *Arc[T]) *Arc[T] {
	if !follow.IsFinal() {
		return nil
	}
	if follow.target <= 0 {
		arc.flags = BIT_LAST_ARC
	} else {
		arc.flags = 0
		// NOTE: nextArc is a node (not an address!) in this case:
		arc.nextArc = follow.target
	}
	arc.Output = follow.NextFinalOutput
	arc.Label = END_LABEL
	arc.nodeFlags = nodeLayout(arc.flags)
	return arc
}

func assert(ok bool) {
	if !ok {
		panic("assert fail")
	}
}

func assert2(ok bool, msg string, args ...interface{}) {
	if !ok {
		panic(fmt.Sprintf(msg, args...))
	}
}
