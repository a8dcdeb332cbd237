package util

// util.RamUsageEstimator.java

// amd64 system
const (
	NUM_BYTES_BOOLEAN = 1
	NUM_BYTES_SHORT   = 2
	NUM_BYTES_INT     = 8
	NUM_BYTES_FLOAT   = 4
	NUM_BYTES_LONG    = 8

	/* Number of bytes to represent an object reference */
	NUM_BYTES_OBJECT_REF = 8

	// Number of bytes to represent an object header (no fields, no alignments).
	NUM_BYTES_OBJECT_HEADER = 16

	// Number of bytes to represent an array header (no content, but with alignments).
	NUM_BYTES_ARRAY_HEADER = 24

	// Objects will always take a full multiple of this constant,
	// possibly wasting some space.
	NUM_BYTES_OBJECT_ALIGNMENT = 8
)

/* An object whose RAM usage can be computed. */
type Accountable interface {
	// Return the memory usage of this object in bytes. Negative values are illegal.
	RamBytesUsed() int64
}

/* Aligns an object size to be the next multiple of NUM_BYTES_OBJECT_ALIGNMENT */
func AlignObjectSize(size int64) int64 {
	size += NUM_BYTES_OBJECT_ALIGNMENT - 1
	return size - (size % NUM_BYTES_OBJECT_ALIGNMENT)
}

/* Returns the size in bytes of the slice. */
func SizeOf(arr interface{}) int64 {
	switch v := arr.(type) {
	case []byte:
		return AlignObjectSize(NUM_BYTES_ARRAY_HEADER + int64(len(v)))
	case []int16:
		return AlignObjectSize(NUM_BYTES_ARRAY_HEADER + NUM_BYTES_SHORT*int64(len(v)))
	case []int32:
		return AlignObjectSize(NUM_BYTES_ARRAY_HEADER + 4*int64(len(v)))
	case []int:
		return AlignObjectSize(NUM_BYTES_ARRAY_HEADER + NUM_BYTES_INT*int64(len(v)))
	case []int64:
		return AlignObjectSize(NUM_BYTES_ARRAY_HEADER + NUM_BYTES_LONG*int64(len(v)))
	case []uint64:
		return AlignObjectSize(NUM_BYTES_ARRAY_HEADER + NUM_BYTES_LONG*int64(len(v)))
	}
	panic("not supported yet")
}
