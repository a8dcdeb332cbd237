package fst

import (
	"fmt"
	"math"

	"github.com/ironsweet/golucene-core/core/util"
	"github.com/pkg/errors"
)

// util/fst/FSTCompiler.java

const (
	/*
		Default oversizing factor used to decide whether to encode a node
		with direct addressing or binary search. 1 means no oversizing.
	*/
	DIRECT_ADDRESSING_MAX_OVERSIZING_FACTOR = 1.0
	/*
		Maximum oversizing factor allowed for direct addressing compared
		to binary search when expansion credits allow the oversizing.
	*/
	DIRECT_ADDRESSING_MAX_OVERSIZE_WITH_CREDIT_FACTOR = 1.66

	/* A node at depth <= this value uses fixed length arcs if it has enough arcs. */
	FIXED_LENGTH_ARC_SHALLOW_DEPTH    = 3 // 0 => only root node
	FIXED_LENGTH_ARC_SHALLOW_NUM_ARCS = 5
	FIXED_LENGTH_ARC_DEEP_NUM_ARCS    = 10

	DEFAULT_SUFFIX_RAM_LIMIT_MB = 32.0
	DEFAULT_BYTES_PAGE_BITS     = 15
)

/*
Fluent-style constructor for FSTCompiler. Every option has a default
matching the on-disk format's reference tuning.
*/
type FSTCompilerBuilder[T any] struct {
	inputType                           InputType
	outputs                             Outputs[T]
	suffixRAMLimitMB                    float64
	allowFixedLengthArcs                bool
	directAddressingMaxOversizingFactor float32
	shallowDepth                        int
	shallowNumArcs                      int
	deepNumArcs                         int
	version                             int
	bytesPageBits                       int
	dataOutput                          util.DataOutput
}

func NewFSTCompilerBuilder[T any](inputType InputType, outputs Outputs[T]) *FSTCompilerBuilder[T] {
	return &FSTCompilerBuilder[T]{
		inputType:                           inputType,
		outputs:                             outputs,
		suffixRAMLimitMB:                    DEFAULT_SUFFIX_RAM_LIMIT_MB,
		allowFixedLengthArcs:                true,
		directAddressingMaxOversizingFactor: DIRECT_ADDRESSING_MAX_OVERSIZING_FACTOR,
		shallowDepth:                        FIXED_LENGTH_ARC_SHALLOW_DEPTH,
		shallowNumArcs:                      FIXED_LENGTH_ARC_SHALLOW_NUM_ARCS,
		deepNumArcs:                         FIXED_LENGTH_ARC_DEEP_NUM_ARCS,
		version:                             VERSION_CURRENT,
		bytesPageBits:                       DEFAULT_BYTES_PAGE_BITS,
	}
}

/*
The approximate maximum amount of RAM (in MB) to use holding the
suffix cache, which enables the FST to share common suffixes. Pass
math.Inf(1) to keep all suffixes and create an exactly minimal FST,
or 0 to disable suffix sharing entirely.
*/
func (b *FSTCompilerBuilder[T]) SuffixRAMLimitMB(mb float64) *FSTCompilerBuilder[T] {
	b.suffixRAMLimitMB = mb
	return b
}

/*
Pass false to disable the fixed length arc optimization (binary
search, direct addressing or continuous) while building the FST; this
will make the resulting FST smaller but slower to traverse.
*/
func (b *FSTCompilerBuilder[T]) AllowFixedLengthArcs(allow bool) *FSTCompilerBuilder[T] {
	b.allowFixedLengthArcs = allow
	return b
}

/*
Overrides the default maximum oversizing of fixed array allowed to
enable direct addressing of arcs instead of binary search. Setting
this factor to a negative value (e.g. -1) effectively disables direct
addressing, only binary search nodes will be created.
*/
func (b *FSTCompilerBuilder[T]) DirectAddressingMaxOversizingFactor(factor float32) *FSTCompilerBuilder[T] {
	b.directAddressingMaxOversizingFactor = factor
	return b
}

/*
Tunes when a node gets fixed length arcs: nodes at depth <=
shallowDepth with at least shallowNumArcs arcs, and any node with at
least deepNumArcs arcs.
*/
func (b *FSTCompilerBuilder[T]) FixedLengthArcThresholds(shallowDepth, shallowNumArcs, deepNumArcs int) *FSTCompilerBuilder[T] {
	b.shallowDepth = shallowDepth
	b.shallowNumArcs = shallowNumArcs
	b.deepNumArcs = deepNumArcs
	return b
}

/* Expert: the format version to write, VERSION_START..VERSION_CURRENT. */
func (b *FSTCompilerBuilder[T]) Version(version int) *FSTCompilerBuilder[T] {
	b.version = version
	return b
}

/* How many bits wide to make each block of the default BytesStore. */
func (b *FSTCompilerBuilder[T]) BytesPageBits(bits int) *FSTCompilerBuilder[T] {
	b.bytesPageBits = bits
	return b
}

/*
Sets the DataOutput the FST bytes are streamed to. The FST can then
only be read back after it is saved and loaded again.
*/
func (b *FSTCompilerBuilder[T]) DataOutput(out util.DataOutput) *FSTCompilerBuilder[T] {
	b.dataOutput = out
	return b
}

func (b *FSTCompilerBuilder[T]) Build() (*FSTCompiler[T], error) {
	switch {
	case b.outputs == nil:
		return nil, errors.New("outputs must be set")
	case b.inputType != INPUT_TYPE_BYTE1 && b.inputType != INPUT_TYPE_BYTE2 && b.inputType != INPUT_TYPE_BYTE4:
		return nil, errors.Errorf("invalid input type %v", b.inputType)
	case b.suffixRAMLimitMB < 0 || math.IsNaN(b.suffixRAMLimitMB):
		return nil, errors.Errorf("suffixRAMLimitMB must be >= 0; got: %v", b.suffixRAMLimitMB)
	case b.version < VERSION_START || b.version > VERSION_CURRENT:
		return nil, errors.Errorf("version must be between %v and %v; got: %v",
			VERSION_START, VERSION_CURRENT, b.version)
	case b.bytesPageBits < 1 || b.bytesPageBits > DEFAULT_MAX_BLOCK_BITS:
		return nil, errors.Errorf("bytesPageBits must be between 1 and %v; got: %v",
			DEFAULT_MAX_BLOCK_BITS, b.bytesPageBits)
	case b.shallowDepth < 0 || b.shallowNumArcs < 1 || b.deepNumArcs < 1:
		return nil, errors.Errorf("invalid fixed length arc thresholds: depth=%v shallow=%v deep=%v",
			b.shallowDepth, b.shallowNumArcs, b.deepNumArcs)
	}
	return newFSTCompiler(b)
}

/*
Builds a minimal FST (maps an IntsRef term to an arbitrary output)
from pre-sorted terms with outputs. The FST becomes an FSA if you use
NoOutputs. The FST is written on-the-fly into a compact serialized
format byte array, which can be saved to / loaded from a Directory or
used directly for traversal. The FST is always finite (no cycles).

NOTE: the algorithm is described at
http://citeseerx.ist.psu.edu/viewdoc/summary?doi=10.1.1.24.3698

The parameterized type T is the output type. See the subclasses of
Outputs.

FSTs larger than 2.1GB are now possible (as of Lucene 4.2). FSTs
containing more than 2.1B nodes are also now possible, however they
cannot be packed.
*/
type FSTCompiler[T any] struct {
	metadata *FSTMetadata[T]
	outputs  Outputs[T]
	noOutput T
	canMerge bool

	// nil when suffix sharing is disabled
	suffixCache *nodeHash[T]

	allowFixedLengthArcs                bool
	directAddressingMaxOversizingFactor float32
	shallowDepth                        int
	shallowNumArcs                      int
	deepNumArcs                         int
	directAddressingExpansionCredit     int64

	// the default sink; nil when an external DataOutput was given
	bytes           *BytesStore
	dataOutput      util.DataOutput
	numBytesWritten int64

	lastInput *util.IntsRefBuilder
	// indexed by depth; frontier[0] is the root
	frontier       []*UnCompiledNode[T]
	lastFrozenNode int64
	inputCount     int64
	compiled       bool

	// Reused temporarily while building the FST:
	numBytesPerArc        []int
	numLabelBytesPerArc   []int
	scratchBytes          *nodeScratch
	fixedLengthArcsBuffer *nodeScratch

	nodeCount                 int64
	arcCount                  int64
	binarySearchNodeCount     int64
	directAddressingNodeCount int64
	continuousNodeCount       int64
}

func newFSTCompiler[T any](b *FSTCompilerBuilder[T]) (*FSTCompiler[T], error) {
	c := &FSTCompiler[T]{
		metadata:                            newFSTMetadata(b.inputType, b.outputs, int32(b.version)),
		outputs:                             b.outputs,
		noOutput:                            b.outputs.NoOutput(),
		canMerge:                            canMerge(b.outputs),
		allowFixedLengthArcs:                b.allowFixedLengthArcs,
		directAddressingMaxOversizingFactor: b.directAddressingMaxOversizingFactor,
		shallowDepth:                        b.shallowDepth,
		shallowNumArcs:                      b.shallowNumArcs,
		deepNumArcs:                         b.deepNumArcs,
		lastInput:                           util.NewIntsRefBuilder(),
		scratchBytes:                        newNodeScratch(),
		fixedLengthArcsBuffer:               newNodeScratch(),
	}
	if b.dataOutput != nil {
		c.dataOutput = b.dataOutput
	} else {
		c.bytes = newBytesStore(uint(b.bytesPageBits))
		c.dataOutput = c.bytes
	}
	// pad: ensure no node gets address 0 which is reserved to mean the
	// stop state w/ no arcs
	if err := c.dataOutput.WriteByte(0); err != nil {
		return nil, err
	}
	c.numBytesWritten = 1

	if b.suffixRAMLimitMB > 0 {
		cache, err := newNodeHash(c, b.suffixRAMLimitMB)
		if err != nil {
			return nil, err
		}
		c.suffixCache = cache
	}

	c.frontier = make([]*UnCompiledNode[T], 10)
	for idx := range c.frontier {
		c.frontier[idx] = newUnCompiledNode(c, idx)
	}
	return c, nil
}

func (c *FSTCompiler[T]) NodeCount() int64 {
	// 1+ in order to count the -1 implicit final node
	return 1 + c.nodeCount
}

func (c *FSTCompiler[T]) ArcCount() int64 {
	return c.arcCount
}

func (c *FSTCompiler[T]) BinarySearchNodeCount() int64 {
	return c.binarySearchNodeCount
}

func (c *FSTCompiler[T]) DirectAddressingNodeCount() int64 {
	return c.directAddressingNodeCount
}

func (c *FSTCompiler[T]) ContinuousNodeCount() int64 {
	return c.continuousNodeCount
}

/* Number of FST bytes written so far, including the leading pad byte. */
func (c *FSTCompiler[T]) NumBytesWritten() int64 {
	return c.numBytesWritten
}

/* Approximate RAM held by the FST bytes, the frontier and the suffix cache. */
func (c *FSTCompiler[T]) FSTRamBytesUsed() int64 {
	size := util.AlignObjectSize(util.NUM_BYTES_OBJECT_HEADER + 16*util.NUM_BYTES_LONG)
	if c.bytes != nil {
		size += c.bytes.RamBytesUsed()
	}
	for _, node := range c.frontier {
		size += util.AlignObjectSize(util.NUM_BYTES_OBJECT_HEADER+4*util.NUM_BYTES_LONG) +
			int64(cap(node.arcs))*util.NUM_BYTES_OBJECT_REF
	}
	size += int64(cap(c.scratchBytes.bytes) + cap(c.fixedLengthArcsBuffer.bytes))
	if c.suffixCache != nil {
		size += c.suffixCache.ramBytesUsed()
	}
	return size
}

/*
Returns the reader over the bytes written by this compiler, once
Compile() has been called. Not available when an external DataOutput
was configured.
*/
func (c *FSTCompiler[T]) FSTReader() (FSTReader, error) {
	if c.bytes == nil {
		return nil, errors.New("FST bytes were written to an external DataOutput; load them back instead")
	}
	if !c.compiled {
		return nil, errors.New("call Compile() before reading the FST")
	}
	return c.bytes, nil
}

func (c *FSTCompiler[T]) compileNode(nodeIn *UnCompiledNode[T]) (int64, error) {
	var node int64
	var err error
	bytesPosStart := c.numBytesWritten
	if c.suffixCache != nil {
		if nodeIn.numArcs == 0 {
			node, err = c.addNode(nodeIn)
			c.lastFrozenNode = node
		} else {
			node, err = c.suffixCache.add(nodeIn)
		}
	} else {
		node, err = c.addNode(nodeIn)
	}
	if err != nil {
		return 0, err
	}
	assert(node != -2)

	if bytesPosEnd := c.numBytesWritten; bytesPosEnd != bytesPosStart {
		// The FST added a new node:
		assert(bytesPosEnd > bytesPosStart)
		c.lastFrozenNode = node
	}

	nodeIn.clear()
	return node, nil
}

/*
Serializes the node to the FST bytes and returns its address, which
is the address of its last written (first read) byte.
*/
func (c *FSTCompiler[T]) addNode(nodeIn *UnCompiledNode[T]) (int64, error) {
	if nodeIn.numArcs == 0 {
		if nodeIn.isFinal {
			return FINAL_END_NODE, nil
		}
		return NON_FINAL_END_NODE, nil
	}
	c.scratchBytes.reset()

	doFixedLengthArcs := c.shouldExpandNodeWithFixedLengthArcs(nodeIn)
	if doFixedLengthArcs {
		if len(c.numBytesPerArc) < nodeIn.numArcs {
			size := util.Oversize(nodeIn.numArcs, util.NUM_BYTES_INT)
			c.numBytesPerArc = make([]int, size)
			c.numLabelBytesPerArc = make([]int, size)
		}
	}

	c.arcCount += int64(nodeIn.numArcs)

	lastArc := nodeIn.numArcs - 1

	lastArcStart := 0
	maxBytesPerArc := 0
	maxBytesPerArcWithoutLabel := 0
	for arcIdx := 0; arcIdx < nodeIn.numArcs; arcIdx++ {
		arc := &nodeIn.arcs[arcIdx]
		assert(arc.compiled())
		target := arc.target
		var flags byte

		if arcIdx == lastArc {
			flags |= BIT_LAST_ARC
		}

		if c.lastFrozenNode == target && !doFixedLengthArcs {
			// TODO: for better perf (but more RAM used) we could avoid
			// this except when arc is "near" the last arc:
			flags |= BIT_TARGET_NEXT
		}

		if arc.isFinal {
			flags |= BIT_FINAL_ARC
			if !isNoOutput(c.outputs, arc.nextFinalOutput) {
				flags |= BIT_ARC_HAS_FINAL_OUTPUT
			}
		} else {
			assert(isNoOutput(c.outputs, arc.nextFinalOutput))
		}

		targetHasArcs := target > 0
		if !targetHasArcs {
			flags |= BIT_STOP_NODE
		}

		hasOutput := !isNoOutput(c.outputs, arc.output)
		if hasOutput {
			flags |= BIT_ARC_HAS_OUTPUT
		}

		c.scratchBytes.WriteByte(flags)
		labelStart := c.scratchBytes.position()
		if err := c.writeLabel(c.scratchBytes, arc.label); err != nil {
			return 0, err
		}
		numLabelBytes := c.scratchBytes.position() - labelStart

		if hasOutput {
			if err := c.outputs.Write(arc.output, c.scratchBytes); err != nil {
				return 0, err
			}
		}
		if hasFlag(flags, BIT_ARC_HAS_FINAL_OUTPUT) {
			if err := c.outputs.WriteFinalOutput(arc.nextFinalOutput, c.scratchBytes); err != nil {
				return 0, err
			}
		}
		if targetHasArcs && !hasFlag(flags, BIT_TARGET_NEXT) {
			assert(target > 0)
			c.scratchBytes.WriteVLong(target)
		}

		// just write the arcs "like normal" on first pass, but record
		// how many bytes each one took and max byte size:
		if doFixedLengthArcs {
			numArcBytes := c.scratchBytes.position() - lastArcStart
			c.numBytesPerArc[arcIdx] = numArcBytes
			c.numLabelBytesPerArc[arcIdx] = numLabelBytes
			lastArcStart = c.scratchBytes.position()
			if numArcBytes > maxBytesPerArc {
				maxBytesPerArc = numArcBytes
			}
			if numArcBytes-numLabelBytes > maxBytesPerArcWithoutLabel {
				maxBytesPerArcWithoutLabel = numArcBytes - numLabelBytes
			}
		}
	}

	if doFixedLengthArcs {
		assert(maxBytesPerArc > 0)
		// 2nd pass just "expands" all arcs to take up a fixed byte size
		labelRange := nodeIn.arcs[nodeIn.numArcs-1].label - nodeIn.arcs[0].label + 1
		assert(labelRange > 0)
		continuousLabel := labelRange == nodeIn.numArcs
		switch {
		case continuousLabel && c.metadata.version >= VERSION_CONTINUOUS_ARCS:
			c.writeNodeForDirectAddressingOrContinuous(nodeIn, maxBytesPerArcWithoutLabel, labelRange, true)
			c.continuousNodeCount++
		case c.shouldExpandNodeWithDirectAddressing(nodeIn, maxBytesPerArc, maxBytesPerArcWithoutLabel, labelRange):
			c.writeNodeForDirectAddressingOrContinuous(nodeIn, maxBytesPerArcWithoutLabel, labelRange, false)
			c.directAddressingNodeCount++
		default:
			c.writeNodeForBinarySearch(nodeIn, maxBytesPerArc)
			c.binarySearchNodeCount++
		}
	}

	// nodes are read backwards: the first byte written is read last
	c.scratchBytes.reverse()
	if err := c.dataOutput.WriteBytes(c.scratchBytes.bytes); err != nil {
		return 0, err
	}
	c.numBytesWritten += int64(c.scratchBytes.position())

	c.nodeCount++
	return c.numBytesWritten - 1, nil
}

/* Copies the bytes of the node just written by addNode(). */
func (c *FSTCompiler[T]) copyNodeBytes(startAddress int64, dest []byte) {
	assert(int64(len(dest)) == c.numBytesWritten-startAddress)
	copy(dest, c.scratchBytes.bytes)
}

func (c *FSTCompiler[T]) writeLabel(out util.DataOutput, v int) error {
	assert2(v >= 0, "v=%v", v)
	switch c.metadata.inputType {
	case INPUT_TYPE_BYTE1:
		assert2(v <= 255, "v=%v", v)
		return out.WriteByte(byte(v))
	case INPUT_TYPE_BYTE2:
		assert2(v <= 65535, "v=%v", v)
		if c.metadata.version < VERSION_LITTLE_ENDIAN {
			if err := out.WriteByte(byte(v >> 8)); err != nil {
				return err
			}
			return out.WriteByte(byte(v))
		}
		return out.WriteShort(int16(uint16(v)))
	default:
		return out.WriteVInt(int32(v))
	}
}

/*
Returns whether the given node should be expanded with fixed length
arcs. Nodes will be expanded depending on their depth (distance from
the root node) and their number of arcs.

Nodes with fixed length arcs use more space, because they encode all
arcs with a fixed number of bytes, but they allow either binary search
or direct addressing on the arcs (instead of linear scan) on lookup by
arc label.
*/
func (c *FSTCompiler[T]) shouldExpandNodeWithFixedLengthArcs(node *UnCompiledNode[T]) bool {
	return c.allowFixedLengthArcs &&
		((node.depth <= c.shallowDepth && node.numArcs >= c.shallowNumArcs) ||
			node.numArcs >= c.deepNumArcs)
}

/*
Returns whether the given node should be expanded with direct
addressing instead of binary search.

Prefer direct addressing for performance if it does not oversize
binary search byte size too much, so that the arcs can be directly
addressed by label.
*/
func (c *FSTCompiler[T]) shouldExpandNodeWithDirectAddressing(nodeIn *UnCompiledNode[T],
	numBytesPerArc, maxBytesPerArcWithoutLabel, labelRange int) bool {

	// Anticipate precisely the size of the encodings.
	sizeForBinarySearch := numBytesPerArc * nodeIn.numArcs
	sizeForDirectAddressing := numPresenceBytes(labelRange) + c.numLabelBytesPerArc[0] +
		maxBytesPerArcWithoutLabel*nodeIn.numArcs

	// Determine the allowed oversize compared to binary search. This is
	// defined by a parameter of FST Builder (default 1: no oversize).
	allowedOversize := int(float32(sizeForBinarySearch) * c.directAddressingMaxOversizingFactor)
	expansionCost := int64(sizeForDirectAddressing - allowedOversize)

	// Select direct addressing if either:
	// - Direct addressing size is smaller than binary search. In this
	//   case, increment the credit by the reduced size (to use it later).
	// - Direct addressing size is larger than binary search, but the
	//   positive credit allows the oversizing. In this case, decrement
	//   the credit by the oversize.
	// In addition, do not try to oversize to a clearly too large node
	// size (this is the DIRECT_ADDRESSING_MAX_OVERSIZE_WITH_CREDIT_FACTOR
	// parameter).
	if expansionCost <= 0 || (c.directAddressingExpansionCredit >= expansionCost &&
		float64(sizeForDirectAddressing) <= float64(allowedOversize)*DIRECT_ADDRESSING_MAX_OVERSIZE_WITH_CREDIT_FACTOR) {
		c.directAddressingExpansionCredit -= expansionCost
		return true
	}
	return false
}

func (c *FSTCompiler[T]) writeNodeForBinarySearch(nodeIn *UnCompiledNode[T], maxBytesPerArc int) {
	// Build the header in a buffer. It is a false/special arc which is
	// in fact a node header with node flags followed by node metadata.
	header := c.fixedLengthArcsBuffer
	header.reset()
	header.WriteByte(byte(ARCS_FOR_BINARY_SEARCH))
	header.WriteVInt(int32(nodeIn.numArcs))
	header.WriteVInt(int32(maxBytesPerArc))
	headerLen := header.position()

	// Expand the arcs in place, backwards.
	srcPos := c.scratchBytes.position()
	destPos := headerLen + nodeIn.numArcs*maxBytesPerArc
	assert(destPos >= srcPos)
	if destPos > srcPos {
		c.scratchBytes.setPosition(destPos)
		for arcIdx := nodeIn.numArcs - 1; arcIdx >= 0; arcIdx-- {
			destPos -= maxBytesPerArc
			arcLen := c.numBytesPerArc[arcIdx]
			srcPos -= arcLen
			if srcPos != destPos {
				assert2(destPos > srcPos,
					"destPos=%v srcPos=%v arcIdx=%v maxBytesPerArc=%v arcLen=%v nodeIn.numArcs=%v",
					destPos, srcPos, arcIdx, maxBytesPerArc, arcLen, nodeIn.numArcs)
				// copy the bytes from srcPos to destPos, essentially
				// expanding the arc from variable length to fixed length
				b := c.scratchBytes.bytes
				copy(b[destPos:destPos+arcLen], b[srcPos:srcPos+arcLen])
			}
		}
	}

	// Finally write the header at the beginning.
	copy(c.scratchBytes.bytes, header.bytes[:headerLen])
}

func (c *FSTCompiler[T]) writeNodeForDirectAddressingOrContinuous(nodeIn *UnCompiledNode[T],
	maxBytesPerArcWithoutLabel, labelRange int, continuous bool) {

	// Expand the arcs backwards in a buffer because we remove the
	// labels. So the obtained arcs might occupy less space. This is the
	// reason why this whole method is more complex.
	// Drop the label bytes since we can infer the label based on the arc
	// index, the presence bits, and the first label. Keep the first
	// label.
	headerMaxLen := 11
	numPresence := 0
	if !continuous {
		numPresence = numPresenceBytes(labelRange)
	}
	srcPos := c.scratchBytes.position()
	totalArcBytes := c.numLabelBytesPerArc[0] + nodeIn.numArcs*maxBytesPerArcWithoutLabel
	bufferOffset := headerMaxLen + numPresence + totalArcBytes
	buffer := make([]byte, bufferOffset)
	src := c.scratchBytes.bytes
	// Copy the arcs to the buffer, dropping all labels except first one.
	for arcIdx := nodeIn.numArcs - 1; arcIdx >= 0; arcIdx-- {
		bufferOffset -= maxBytesPerArcWithoutLabel
		srcArcLen := c.numBytesPerArc[arcIdx]
		srcPos -= srcArcLen
		labelLen := c.numLabelBytesPerArc[arcIdx]
		// Copy the flags.
		buffer[bufferOffset] = src[srcPos]
		// Skip the label, copy the remaining.
		if remainingArcLen := srcArcLen - 1 - labelLen; remainingArcLen != 0 {
			copy(buffer[bufferOffset+1:], src[srcPos+1+labelLen:srcPos+srcArcLen])
		}
		if arcIdx == 0 {
			// Copy the label of the first arc only.
			bufferOffset -= labelLen
			copy(buffer[bufferOffset:], src[srcPos+1:srcPos+1+labelLen])
		}
	}
	assert(bufferOffset == headerMaxLen+numPresence)

	// Build the header. It is a false/special arc which is in fact a
	// node header with node flags followed by node metadata.
	c.scratchBytes.reset()
	if continuous {
		c.scratchBytes.WriteByte(byte(ARCS_FOR_CONTINUOUS))
	} else {
		c.scratchBytes.WriteByte(byte(ARCS_FOR_DIRECT_ADDRESSING))
	}
	c.scratchBytes.WriteVInt(int32(labelRange))                 // labelRange instead of numArcs.
	c.scratchBytes.WriteVInt(int32(maxBytesPerArcWithoutLabel)) // instead of maxBytesPerArc.
	headerLen := c.scratchBytes.position()

	// Write the presence bits
	if !continuous {
		c.writePresenceBits(nodeIn)
		assert(c.scratchBytes.position() == headerLen+numPresence)
	}
	// Write the first label and the arcs.
	c.scratchBytes.WriteBytes(buffer[headerMaxLen+numPresence:])
	assert(c.scratchBytes.position() == headerLen+numPresence+totalArcBytes)
}

func (c *FSTCompiler[T]) writePresenceBits(nodeIn *UnCompiledNode[T]) {
	presenceBits := byte(1) // The first arc is always present.
	presenceIndex := 0
	previousLabel := nodeIn.arcs[0].label
	for arcIdx := 1; arcIdx < nodeIn.numArcs; arcIdx++ {
		label := nodeIn.arcs[arcIdx].label
		assert(label > previousLabel)
		presenceIndex += label - previousLabel
		for presenceIndex >= 8 {
			c.scratchBytes.WriteByte(presenceBits)
			presenceBits = 0
			presenceIndex -= 8
		}
		// Set the bit at presenceIndex to flag that the corresponding
		// arc is present.
		presenceBits |= 1 << uint(presenceIndex)
		previousLabel = label
	}
	assert(presenceIndex == (nodeIn.arcs[nodeIn.numArcs-1].label-nodeIn.arcs[0].label)%8)
	assert(presenceBits != 0)                          // The last byte is not 0.
	assert(presenceBits&(1<<uint(presenceIndex)) != 0) // The last arc is always present.
	c.scratchBytes.WriteByte(presenceBits)
}

func (c *FSTCompiler[T]) freezeTail(prefixLenPlus1 int) error {
	downTo := prefixLenPlus1
	if downTo < 1 {
		downTo = 1
	}
	for idx := c.lastInput.Length(); idx >= downTo; idx-- {
		node := c.frontier[idx]
		parent := c.frontier[idx-1]

		nextFinalOutput := node.output
		// We "fake" the node as being final if it has no outgoing arcs;
		// in theory we could leave it as non-final (the FST can represent
		// this), but FSTEnum, Util, etc., have trouble w/ non-final
		// dead-end states:
		isFinal := node.isFinal || node.numArcs == 0

		// this node makes it and we now compile it. first, compile any
		// targets that were previously undecided:
		address, err := c.compileNode(node)
		if err != nil {
			return err
		}
		parent.replaceLast(c.lastInput.At(idx-1), address, nextFinalOutput, isFinal)
	}
	return nil
}

/*
Add the next input/output pair. The provided input must be sorted
after the previous one according to IntsRef.CompareTo. It's also OK
to add the same input twice in a row with different outputs, as long
as Outputs implements the Merge method. Note that input is fully
consumed after this method is returned (so caller is free to reuse),
but output is not. So if your outputs are changeable (eg
ByteSequenceOutputs or IntSequenceOutputs) then you cannot reuse
across calls.
*/
func (c *FSTCompiler[T]) Add(input *util.IntsRef, output T) error {
	if c.compiled {
		return errors.New("FST was already compiled")
	}
	if err := c.checkInput(input); err != nil {
		return err
	}

	if input.Length == 0 {
		// empty input: only allowed as first input. we have to special
		// case this because the packed FST format cannot represent the
		// empty input since 'finalness' is stored on the incoming arc,
		// not on the node
		if c.metadata.hasEmptyOutput {
			merged, err := c.outputs.Merge(c.metadata.emptyOutput, output)
			if err != nil {
				return err
			}
			c.metadata.emptyOutput = merged
		} else {
			c.metadata.emptyOutput = output
			c.metadata.hasEmptyOutput = true
		}
		c.frontier[0].inputCount++
		c.frontier[0].isFinal = true
		c.inputCount++
		return nil
	}

	// compare shared prefix length
	pos1, pos2 := 0, input.Offset
	pos1Stop := c.lastInput.Length()
	if input.Length < pos1Stop {
		pos1Stop = input.Length
	}
	for {
		c.frontier[pos1].inputCount++
		if pos1 >= pos1Stop || c.lastInput.At(pos1) != input.Ints[pos2] {
			break
		}
		pos1++
		pos2++
	}
	prefixLenPlus1 := pos1 + 1

	if len(c.frontier) < input.Length+1 {
		size := util.Oversize(input.Length+1, util.NUM_BYTES_OBJECT_REF)
		for idx := len(c.frontier); idx < size; idx++ {
			c.frontier = append(c.frontier, newUnCompiledNode(c, idx))
		}
	}

	// minimize/compile states from previous input's orphan'd suffix
	if err := c.freezeTail(prefixLenPlus1); err != nil {
		return err
	}

	// init tail states for current input
	for idx := prefixLenPlus1; idx <= input.Length; idx++ {
		c.frontier[idx-1].addArc(input.Ints[input.Offset+idx-1], c.frontier[idx])
		c.frontier[idx].inputCount++
	}

	lastNode := c.frontier[input.Length]
	sameAsLast := c.lastInput.Length() == input.Length && prefixLenPlus1 == input.Length+1
	if !sameAsLast {
		lastNode.isFinal = true
		lastNode.output = c.noOutput
	}

	// push conflicting outputs forward, only as far as needed
	for idx := 1; idx < prefixLenPlus1; idx++ {
		node := c.frontier[idx]
		parentNode := c.frontier[idx-1]

		label := input.Ints[input.Offset+idx-1]
		lastOutput := parentNode.lastOutput(label)

		var commonOutputPrefix T
		if !isNoOutput(c.outputs, lastOutput) {
			commonOutputPrefix = c.outputs.Common(output, lastOutput)
			wordSuffix := c.outputs.Subtract(lastOutput, commonOutputPrefix)
			parentNode.setLastOutput(label, commonOutputPrefix)
			node.prependOutput(wordSuffix)
		} else {
			commonOutputPrefix = c.noOutput
		}
		output = c.outputs.Subtract(output, commonOutputPrefix)
	}

	if sameAsLast {
		// same input more than 1 time in a row, mapping to multiple
		// outputs
		merged, err := c.outputs.Merge(lastNode.output, output)
		if err != nil {
			return err
		}
		lastNode.output = merged
	} else {
		// this new arc is private to this new input; set its arc output
		// to the leftover output:
		c.frontier[prefixLenPlus1-1].setLastOutput(input.Ints[input.Offset+prefixLenPlus1-1], output)
	}

	// save last input
	c.lastInput.CopyInts(input)
	c.inputCount++
	return nil
}

/*
Rejects, before any state changes, inputs that are out of order,
carry labels the input type cannot hold, or repeat the previous input
when outputs cannot be merged.
*/
func (c *FSTCompiler[T]) checkInput(input *util.IntsRef) error {
	maxLabel := c.metadata.inputType.maxLabel()
	for i := 0; i < input.Length; i++ {
		if label := input.Ints[input.Offset+i]; label < 0 || label > maxLabel {
			return errors.Errorf("label %v at position %v is out of range for input type %v",
				label, i, c.metadata.inputType)
		}
	}
	if c.inputCount == 0 {
		return nil
	}
	switch cmp := input.CompareTo(c.lastInput.Get()); {
	case cmp < 0:
		return errors.Errorf("inputs are added out of order lastInput=%v vs input=%v",
			c.lastInput.Get(), input)
	case cmp == 0 && !c.canMerge:
		return errors.Wrapf(ErrMergeUnsupported, "duplicate input %v", input)
	}
	return nil
}

/*
Returns the metadata of the final FST, or nil if nothing was accepted
(no inputs and no empty output). After this call the compiler can no
longer be used to add inputs.
*/
func (c *FSTCompiler[T]) Compile() (*FSTMetadata[T], error) {
	if c.compiled {
		return nil, errors.New("FST was already compiled")
	}
	root := c.frontier[0]

	// minimize nodes in the last word's suffix
	if err := c.freezeTail(0); err != nil {
		return nil, err
	}
	c.compiled = true
	if root.numArcs == 0 && !c.metadata.hasEmptyOutput {
		if c.bytes != nil {
			c.bytes.finish()
		}
		return nil, nil
	}

	startNode, err := c.compileNode(root)
	if err != nil {
		return nil, err
	}
	c.finish(startNode)
	log.Debugf("compiled FST: %v nodes, %v arcs, %v bytes (%v binary-search, %v direct-addressing, %v continuous)",
		c.NodeCount(), c.arcCount, c.numBytesWritten,
		c.binarySearchNodeCount, c.directAddressingNodeCount, c.continuousNodeCount)
	return c.metadata, nil
}

func (c *FSTCompiler[T]) finish(newStartNode int64) {
	assert(newStartNode <= c.numBytesWritten)
	assert2(c.metadata.startNode == -1, "already finished")
	if newStartNode == FINAL_END_NODE && c.metadata.hasEmptyOutput {
		newStartNode = 0
	}
	c.metadata.startNode = newStartNode
	c.metadata.numBytes = c.numBytesWritten
	if c.bytes != nil {
		c.bytes.finish()
	}
}

/*
Compiles and returns the on-heap FST, or nil if nothing was accepted.
Only valid when the compiler writes to its own BytesStore.
*/
func (c *FSTCompiler[T]) CompileFST() (*FST[T], error) {
	if c.bytes == nil {
		return nil, errors.New("FST bytes were written to an external DataOutput; use Compile()")
	}
	metadata, err := c.Compile()
	if err != nil || metadata == nil {
		return nil, err
	}
	return NewFST(metadata, c.bytes), nil
}

/* Expert: holds a pending (seen but not yet serialized) arc. */
type builderArc[T any] struct {
	label int
	// set while the target is still on the frontier
	pending *UnCompiledNode[T]
	// address of the compiled target, once pending is nil
	target          int64
	isFinal         bool
	output          T
	nextFinalOutput T
}

func (a *builderArc[T]) compiled() bool {
	return a.pending == nil
}

/* Expert: holds a pending (seen but not yet serialized) Node. */
type UnCompiledNode[T any] struct {
	owner   *FSTCompiler[T]
	numArcs int
	arcs    []builderArc[T]
	// TODO: instead of recording isFinal/output on the node, maybe we
	// should use -1 arc to mean "end" (like we do when reading the FST).
	// Would simplify much code here...
	output     T
	isFinal    bool
	inputCount int64
	// This node's depth, starting from the automaton root.
	depth int
}

func newUnCompiledNode[T any](owner *FSTCompiler[T], depth int) *UnCompiledNode[T] {
	return &UnCompiledNode[T]{
		owner:  owner,
		arcs:   make([]builderArc[T], 1),
		output: owner.noOutput,
		depth:  depth,
	}
}

func (n *UnCompiledNode[T]) clear() {
	n.numArcs = 0
	n.isFinal = false
	n.output = n.owner.noOutput
	n.inputCount = 0
	// We don't clear the depth here because it never changes for
	// nodes on the frontier (even when reused).
}

func (n *UnCompiledNode[T]) lastOutput(labelToMatch int) T {
	assert(n.numArcs > 0)
	assert(n.arcs[n.numArcs-1].label == labelToMatch)
	return n.arcs[n.numArcs-1].output
}

func (n *UnCompiledNode[T]) addArc(label int, target *UnCompiledNode[T]) {
	assert(label >= 0)
	if n.numArcs > 0 {
		assert2(label > n.arcs[n.numArcs-1].label,
			"arc[numArcs-1].label=%v new label=%v numArcs=%v", n.arcs[n.numArcs-1].label, label, n.numArcs)
	}
	if n.numArcs == len(n.arcs) {
		size := util.Oversize(n.numArcs+1, util.NUM_BYTES_OBJECT_REF)
		newArcs := make([]builderArc[T], size)
		copy(newArcs, n.arcs)
		n.arcs = newArcs
	}
	arc := &n.arcs[n.numArcs]
	n.numArcs++
	arc.label = label
	arc.pending = target
	arc.target = 0
	arc.output = n.owner.noOutput
	arc.nextFinalOutput = n.owner.noOutput
	arc.isFinal = false
}

func (n *UnCompiledNode[T]) replaceLast(labelToMatch int, target int64, nextFinalOutput T, isFinal bool) {
	assert(n.numArcs > 0)
	arc := &n.arcs[n.numArcs-1]
	assert2(arc.label == labelToMatch, "arc.label=%v vs %v", arc.label, labelToMatch)
	arc.pending = nil
	arc.target = target
	arc.nextFinalOutput = nextFinalOutput
	arc.isFinal = isFinal
}

func (n *UnCompiledNode[T]) setLastOutput(labelToMatch int, newOutput T) {
	assert(n.numArcs > 0)
	arc := &n.arcs[n.numArcs-1]
	assert(arc.label == labelToMatch)
	arc.output = newOutput
}

/* pushes an output prefix forward onto all arcs */
func (n *UnCompiledNode[T]) prependOutput(outputPrefix T) {
	for arcIdx := 0; arcIdx < n.numArcs; arcIdx++ {
		n.arcs[arcIdx].output = n.owner.outputs.Add(outputPrefix, n.arcs[arcIdx].output)
	}
	if n.isFinal {
		n.output = n.owner.outputs.Add(outputPrefix, n.output)
	}
}

func (n *UnCompiledNode[T]) String() string {
	return fmt.Sprintf("UnCompiledNode(depth=%v,numArcs=%v,final=%v)", n.depth, n.numArcs, n.isFinal)
}

/*
Growable byte buffer a node is serialized into before it is reversed
and appended to the FST bytes.
*/
type nodeScratch struct {
	*util.DataOutputImpl
	bytes []byte
}

func newNodeScratch() *nodeScratch {
	ans := &nodeScratch{}
	ans.DataOutputImpl = util.NewDataOutput(ans)
	return ans
}

func (s *nodeScratch) WriteByte(b byte) error {
	s.bytes = append(s.bytes, b)
	return nil
}

func (s *nodeScratch) WriteBytes(buf []byte) error {
	s.bytes = append(s.bytes, buf...)
	return nil
}

func (s *nodeScratch) position() int {
	return len(s.bytes)
}

/* Grows (zero filled) or truncates the buffer to pos bytes. */
func (s *nodeScratch) setPosition(pos int) {
	if pos <= cap(s.bytes) {
		old := len(s.bytes)
		s.bytes = s.bytes[:pos]
		for i := old; i < pos; i++ {
			s.bytes[i] = 0
		}
		return
	}
	s.bytes = append(s.bytes, make([]byte, pos-len(s.bytes))...)
}

func (s *nodeScratch) reset() {
	s.bytes = s.bytes[:0]
}

func (s *nodeScratch) reverse() {
	for i, j := 0, len(s.bytes)-1; i < j; i, j = i+1, j-1 {
		s.bytes[i], s.bytes[j] = s.bytes[j], s.bytes[i]
	}
}
