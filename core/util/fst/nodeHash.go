package fst

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/ironsweet/golucene-core/core/util"
	"github.com/ironsweet/golucene-core/core/util/packed"
	"github.com/pkg/errors"
)

// util/fst/NodeHash.java

// page size, in values, of the hash table columns
const nodeHashPageSize = 1 << 27

/*
Used to dedup states (lookup already-frozen states). The cache holds
a primary and a fallback table; once the primary would exceed half of
the RAM limit it becomes the fallback, and the previous fallback is
dropped. Nodes found in the fallback are promoted back to the
primary, so the most recently used suffixes survive.

Each table keeps its own copy of the frozen node bytes, so lookups
never read the FST bytes already flushed to the output.
*/
type nodeHash[T any] struct {
	compiler *FSTCompiler[T]
	// decodes the copied node bytes; it shares the compiler metadata
	view *FST[T]

	primary  *pagedGrowableHash
	fallback *pagedGrowableHash

	ramLimitBytes int64

	lastFallbackSlot       int64
	lastFallbackNodeLength int

	scratchArc Arc[T]
}

func newNodeHash[T any](compiler *FSTCompiler[T], ramLimitMB float64) (*nodeHash[T], error) {
	if ramLimitMB <= 0 {
		return nil, errors.Errorf("ramLimitMB must be > 0; got: %v", ramLimitMB)
	}
	var ramLimitBytes int64
	if math.IsInf(ramLimitMB, 1) || ramLimitMB*1024*1024 >= math.MaxInt64 {
		ramLimitBytes = math.MaxInt64
	} else {
		ramLimitBytes = int64(ramLimitMB * 1024 * 1024)
	}
	return &nodeHash[T]{
		compiler:      compiler,
		view:          &FST[T]{metadata: compiler.metadata, outputs: compiler.outputs},
		primary:       newPagedGrowableHash(),
		ramLimitBytes: ramLimitBytes,
	}, nil
}

func (h *nodeHash[T]) getFallback(nodeIn *UnCompiledNode[T], hash uint64) (int64, error) {
	if h.fallback == nil {
		// no fallback yet (primary table is not yet large enough to swap)
		return 0, nil
	}
	slot := int64(hash & uint64(h.fallback.mask))
	for c := int64(1); ; c++ {
		node := h.fallback.nodeAddress(slot)
		if node == 0 {
			// not found
			return 0, nil
		}
		length, err := h.nodesEqual(nodeIn, h.fallback, node, slot)
		if err != nil {
			return 0, err
		}
		if length != -1 {
			// frozen version of this node is already here
			h.lastFallbackSlot = slot
			h.lastFallbackNodeLength = length
			return node, nil
		}
		// quadratic probe (but is it, really?)
		slot = (slot + c) & h.fallback.mask
	}
}

/*
Returns the address of a frozen node equal to nodeIn, serializing it
first when no such node is cached.
*/
func (h *nodeHash[T]) add(nodeIn *UnCompiledNode[T]) (int64, error) {
	hash := h.hashUnfrozen(nodeIn)
	slot := int64(hash & uint64(h.primary.mask))
	for c := int64(1); ; c++ {
		node := h.primary.nodeAddress(slot)
		if node == 0 {
			// node is not in primary table; is it in fallback table?
			var err error
			if node, err = h.getFallback(nodeIn, hash); err != nil {
				return 0, err
			}
			if node != 0 {
				// it was already in fallback -- promote to primary
				h.primary.setNode(slot, node,
					h.fallback.getBytes(h.lastFallbackSlot, h.lastFallbackNodeLength))
			} else {
				// not in fallback either -- freeze & add the incoming node
				startAddress := h.compiler.numBytesWritten
				if node, err = h.compiler.addNode(nodeIn); err != nil {
					return 0, err
				}
				buf := make([]byte, node-startAddress+1)
				h.compiler.copyNodeBytes(startAddress, buf)
				h.primary.setNode(slot, node, buf)
			}

			// how many bytes would be used if we had "perfect" hashing:
			//  - x2 for fstNodeAddress and copiedNodeAddress for each node
			//  - the bits required for each node address
			//  - the bytes copied for each node
			copiedBytes := h.primary.copiedBytes()
			ramBytesUsed := h.primary.count*2*int64(packed.BitsRequired(node))/8 +
				h.primary.count*2*int64(packed.BitsRequired(copiedBytes))/8 +
				copiedBytes

			// NOTE: we could instead use the more precise RAM used, but
			// this leads to unpredictable quantized behavior due to 2X
			// rehashing where for large ranges of the RAM limit, the size
			// of the FST does not change, and then suddenly when you cross
			// a secret threshold, it drops. With this approach (measuring
			// "perfect" hash storage and approximating the overhead), the
			// behaviour is more strictly monotonic: larger RAM limits
			// smoothly result in smaller FSTs, even if the precise RAM used
			// is not always under the limit.

			// divide limit by 2 because fallback gets half the RAM and
			// primary gets the other half
			if ramBytesUsed >= h.ramLimitBytes/2 {
				// time to fallback -- fallback is now used read-only to
				// promote a node (suffix) to primary if we encounter it again
				h.fallback = h.primary
				// size primary table the same size to reduce rehash cost
				size := h.primary.size()
				if size < 16 {
					size = 16
				}
				h.primary = newPagedGrowableHashSized(node, size)
				log.Debugf("suffix cache reached %v bytes; demoted %v nodes to fallback",
					ramBytesUsed, h.fallback.count)
			} else if h.primary.count > h.primary.size()*2/3 {
				// rehash at 2/3 occupancy
				if err = h.rehash(h.primary, node); err != nil {
					return 0, err
				}
				log.Debugf("suffix cache rehashed to %v slots (%v nodes)", h.primary.size(), h.primary.count)
			}
			return node, nil
		}
		length, err := h.nodesEqual(nodeIn, h.primary, node, slot)
		if err != nil {
			return 0, err
		}
		if length != -1 {
			// same node (in frozen form) is already in primary table
			return node, nil
		}

		// quadratic probe (but is it, really?)
		slot = (slot + c) & h.primary.mask
	}
}

func (h *nodeHash[T]) ramBytesUsed() int64 {
	size := h.primary.ramBytesUsed()
	if h.fallback != nil {
		size += h.fallback.ramBytesUsed()
	}
	return size
}

// hash code for an unfrozen node. This must be identical to the
// frozen case (below)!!
func (h *nodeHash[T]) hashUnfrozen(node *UnCompiledNode[T]) uint64 {
	d := newNodeDigest()
	outputs := h.compiler.outputs
	for arcIdx := 0; arcIdx < node.numArcs; arcIdx++ {
		arc := &node.arcs[arcIdx]
		d.arc(arc.label, arc.target, outputs.Hash(arc.output),
			outputs.Hash(arc.nextFinalOutput), arc.isFinal)
	}
	return d.Sum64()
}

// hash code for a frozen node. This must be identical to the
// unfrozen case (above)!!
func (h *nodeHash[T]) hashFrozen(table *pagedGrowableHash, nodeAddress, slot int64) (uint64, error) {
	in := table.bytesReader(nodeAddress, slot)
	d := newNodeDigest()
	outputs := h.compiler.outputs
	arc := &h.scratchArc
	if _, err := h.view.ReadFirstRealTargetArc(nodeAddress, arc, in); err != nil {
		return 0, err
	}
	for {
		d.arc(arc.Label, arc.target, outputs.Hash(arc.Output),
			outputs.Hash(arc.NextFinalOutput), arc.IsFinal())
		if arc.IsLast() {
			break
		}
		if _, err := h.view.ReadNextRealArc(arc, in); err != nil {
			return 0, err
		}
	}
	return d.Sum64(), nil
}

/*
Compares an unfrozen node (UnCompiledNode) with a frozen node at byte
location address (long), returning the node length if the two nodes
are equal, or -1 otherwise.

The node length will be used to promote the node from the fallback
table to the primary table.
*/
func (h *nodeHash[T]) nodesEqual(node *UnCompiledNode[T], table *pagedGrowableHash,
	address, slot int64) (int, error) {

	in := table.bytesReader(address, slot)
	arc := &h.scratchArc
	if _, err := h.view.ReadFirstRealTargetArc(address, arc, in); err != nil {
		return 0, err
	}

	// fail fast for a node with fixed length arcs
	if arc.bytesPerArc != 0 {
		assert(node.numArcs > 0)
		labelRange := node.arcs[node.numArcs-1].label - node.arcs[0].label + 1
		// the frozen node uses fixed-with arc encoding (same number of
		// bytes per arc), but may be sparse or dense
		switch arc.nodeFlags {
		case ARCS_FOR_BINARY_SEARCH:
			// sparse
			if node.numArcs != arc.numArcs {
				return -1, nil
			}
		case ARCS_FOR_DIRECT_ADDRESSING:
			// dense -- compare both the number of labels allocated in the
			// array (some of which may not actually be arcs), and the
			// number of arcs
			if labelRange != arc.numArcs {
				return -1, nil
			}
			count, err := countArcBits(arc, in)
			if err != nil {
				return 0, err
			}
			if node.numArcs != count {
				return -1, nil
			}
		case ARCS_FOR_CONTINUOUS:
			if labelRange != arc.numArcs {
				return -1, nil
			}
		default:
			panic("unhandled node layout " + arc.nodeFlags.String())
		}
	}

	// compare arc by arc to see if there is a difference
	outputs := h.compiler.outputs
	for arcUpto := 0; arcUpto < node.numArcs; arcUpto++ {
		a := &node.arcs[arcUpto]
		if a.label != arc.Label ||
			!outputs.Equal(a.output, arc.Output) ||
			a.target != arc.target ||
			!outputs.Equal(a.nextFinalOutput, arc.NextFinalOutput) ||
			a.isFinal != arc.IsFinal() {
			return -1, nil
		}

		if arc.IsLast() {
			if arcUpto == node.numArcs-1 {
				// position is 1 index past the starting address, as we
				// are reading in backward
				return int(address - in.Position()), nil
			}
			return -1, nil
		}
		if _, err := h.view.ReadNextRealArc(arc, in); err != nil {
			return 0, err
		}
	}

	// unfrozen node has fewer arcs than frozen node
	return -1, nil
}

func (h *nodeHash[T]) rehash(table *pagedGrowableHash, lastNodeAddress int64) error {
	// double hash table size on each rehash
	newSize := 2 * table.size()
	newCopiedNodeAddress := packed.NewPagedGrowableWriter(newSize, nodeHashPageSize,
		packed.BitsRequired(table.copiedBytes()), packed.COMPACT)
	newFSTNodeAddress := packed.NewPagedGrowableWriter(newSize, nodeHashPageSize,
		packed.BitsRequired(lastNodeAddress), packed.COMPACT)
	newMask := newSize - 1
	for idx := int64(0); idx < table.size(); idx++ {
		address := table.fstNodeAddress.Get(idx)
		if address == 0 {
			continue
		}
		hash, err := h.hashFrozen(table, address, idx)
		if err != nil {
			return err
		}
		slot := int64(hash & uint64(newMask))
		for c := int64(1); ; c++ {
			if newFSTNodeAddress.Get(slot) == 0 {
				newFSTNodeAddress.Set(slot, address)
				newCopiedNodeAddress.Set(slot, table.copiedNodeAddress.Get(idx))
				break
			}
			slot = (slot + c) & newMask
		}
	}
	table.mask = newMask
	table.fstNodeAddress = newFSTNodeAddress
	table.copiedNodeAddress = newCopiedNodeAddress
	return nil
}

/* Feeds the fields two equal nodes share into an xxhash digest. */
type nodeDigest struct {
	*xxhash.Digest
	buf [8]byte
}

func newNodeDigest() *nodeDigest {
	return &nodeDigest{Digest: xxhash.New()}
}

func (d *nodeDigest) putUint64(v uint64) {
	binary.LittleEndian.PutUint64(d.buf[:], v)
	d.Write(d.buf[:])
}

func (d *nodeDigest) arc(label int, target int64, outputHash, nextFinalOutputHash uint64, isFinal bool) {
	d.putUint64(uint64(label))
	d.putUint64(uint64(target))
	d.putUint64(outputHash)
	d.putUint64(nextFinalOutputHash)
	if isFinal {
		d.putUint64(17)
	} else {
		d.putUint64(0)
	}
}

/*
Open addressing table of frozen node addresses. Besides the FST
address, each slot records where the node's bytes were copied in the
table's own byte pool.
*/
type pagedGrowableHash struct {
	// storing the FST node address where the position is the masked hash of the node arcs
	fstNodeAddress *packed.PagedGrowableWriter
	// storing the local copiedNodes address in the same position as fstNodeAddress
	// here we are effectively storing a Map<Long, Long> from the FST node address to copiedNodes address
	copiedNodeAddress *packed.PagedGrowableWriter
	count             int64
	mask              int64
	// storing the byte slice from the FST for nodes we added to the hash
	// so that we don't need to look up from the FST itself, so the FST
	// bytes can stream directly to disk as append-only writes.
	// each node will be written subsequently
	copiedNodes *util.ByteBlockPool
	// the {@link FST.BytesReader} to read from copiedNodes. we use this
	// when computing a frozen node hash or comparing if a frozen and
	// unfrozen nodes are equal
	reader *byteBlockPoolReverseReader
}

func newPagedGrowableHash() *pagedGrowableHash {
	return newPagedGrowableHashTable(16, 8)
}

func newPagedGrowableHashSized(lastNodeAddress, size int64) *pagedGrowableHash {
	assert2(size&(size-1) == 0, "size must be a power-of-2; got size=%v", size)
	return newPagedGrowableHashTable(size, packed.BitsRequired(lastNodeAddress))
}

func newPagedGrowableHashTable(size int64, bitsPerValue int) *pagedGrowableHash {
	pool := util.NewByteBlockPool(util.NewDirectTrackingAllocator(util.NewCounter()))
	return &pagedGrowableHash{
		fstNodeAddress:    packed.NewPagedGrowableWriter(size, nodeHashPageSize, bitsPerValue, packed.COMPACT),
		copiedNodeAddress: packed.NewPagedGrowableWriter(size, nodeHashPageSize, bitsPerValue, packed.COMPACT),
		mask:              size - 1,
		copiedNodes:       pool,
		reader:            newByteBlockPoolReverseReader(pool),
	}
}

func (t *pagedGrowableHash) size() int64 {
	return t.fstNodeAddress.Size()
}

func (t *pagedGrowableHash) copiedBytes() int64 {
	return t.copiedNodes.Position()
}

func (t *pagedGrowableHash) nodeAddress(slot int64) int64 {
	return t.fstNodeAddress.Get(slot)
}

/* Records the node at slot and copies its bytes, in FST write order. */
func (t *pagedGrowableHash) setNode(slot, nodeAddress int64, bytes []byte) {
	assert(t.fstNodeAddress.Get(slot) == 0)
	assert(nodeAddress != FINAL_END_NODE && nodeAddress != NON_FINAL_END_NODE)
	t.fstNodeAddress.Set(slot, nodeAddress)
	t.count++
	t.copiedNodes.Append(bytes)
	// write the offset, which points to the last byte of the node we
	// copied since we later read this node in reverse
	t.copiedNodeAddress.Set(slot, t.copiedNodes.Position()-1)
}

/* Returns the length trailing bytes of the node copied at slot. */
func (t *pagedGrowableHash) getBytes(slot int64, length int) []byte {
	copiedAddress := t.copiedNodeAddress.Get(slot)
	buf := make([]byte, length)
	t.copiedNodes.ReadBytes(copiedAddress-int64(length)+1, buf)
	return buf
}

/*
Returns the reader positioned so that FST addresses of the node at
slot map onto its copied bytes.
*/
func (t *pagedGrowableHash) bytesReader(nodeAddress, slot int64) BytesReader {
	localAddress := t.copiedNodeAddress.Get(slot)
	t.reader.setPosDelta(nodeAddress - localAddress)
	return t.reader
}

func (t *pagedGrowableHash) ramBytesUsed() int64 {
	return t.fstNodeAddress.RamBytesUsed() + t.copiedNodeAddress.RamBytesUsed() +
		t.copiedNodes.RamBytesUsed()
}
