package util

import (
	"sync/atomic"
)

// util/ByteBlockPool.java

const (
	BYTE_BLOCK_SHIFT = 15
	BYTE_BLOCK_SIZE  = 1 << BYTE_BLOCK_SHIFT
	BYTE_BLOCK_MASK  = BYTE_BLOCK_SIZE - 1
)

/*
Append-only arena of bytes stored in fixed-size []byte blocks. Bytes
are addressed by a global offset (block index << BYTE_BLOCK_SHIFT plus
offset in block), and a single append may span several blocks.
*/
type ByteBlockPool struct {
	allocator ByteAllocator
	buffers   [][]byte
	// Where we are in the current head buffer
	byteUpto int
	// Current head buffer
	buffer []byte
	// Offset of the current head buffer in the whole pool
	byteOffset int64
}

func NewByteBlockPool(allocator ByteAllocator) *ByteBlockPool {
	return &ByteBlockPool{
		allocator:  allocator,
		byteUpto:   BYTE_BLOCK_SIZE,
		byteOffset: -BYTE_BLOCK_SIZE,
	}
}

/* Allocates a new head buffer and advances the offset. */
func (pool *ByteBlockPool) nextBuffer() {
	pool.buffer = pool.allocator.ByteBlock()
	pool.buffers = append(pool.buffers, pool.buffer)
	pool.byteUpto = 0
	pool.byteOffset += BYTE_BLOCK_SIZE
}

/* Appends bytes to the pool, spanning blocks when needed. */
func (pool *ByteBlockPool) Append(bytes []byte) {
	for len(bytes) > 0 {
		if pool.byteUpto == BYTE_BLOCK_SIZE {
			pool.nextBuffer()
		}
		n := copy(pool.buffer[pool.byteUpto:], bytes)
		pool.byteUpto += n
		bytes = bytes[n:]
	}
}

/* Reads len(dest) bytes starting at the given global offset. */
func (pool *ByteBlockPool) ReadBytes(offset int64, dest []byte) {
	for len(dest) > 0 {
		buffer := pool.buffers[offset>>BYTE_BLOCK_SHIFT]
		n := copy(dest, buffer[offset&BYTE_BLOCK_MASK:])
		dest = dest[n:]
		offset += int64(n)
	}
}

/* Reads a single byte at the given global offset. */
func (pool *ByteBlockPool) ReadByteAt(offset int64) byte {
	return pool.buffers[offset>>BYTE_BLOCK_SHIFT][offset&BYTE_BLOCK_MASK]
}

/* The current position, i.e. the number of bytes appended so far. */
func (pool *ByteBlockPool) Position() int64 {
	return pool.byteOffset + int64(pool.byteUpto)
}

func (pool *ByteBlockPool) RamBytesUsed() int64 {
	return AlignObjectSize(NUM_BYTES_OBJECT_HEADER+3*NUM_BYTES_OBJECT_REF+2*NUM_BYTES_LONG) +
		int64(len(pool.buffers))*AlignObjectSize(NUM_BYTES_ARRAY_HEADER+BYTE_BLOCK_SIZE)
}

/* Abstract class for allocating and freeing byte blocks. */
type ByteAllocator interface {
	ByteBlock() []byte
}

/* A simple Allocator that never recycles, but tracks how much total RAM is in use. */
type DirectTrackingAllocator struct {
	bytesUsed Counter
}

func NewDirectTrackingAllocator(bytesUsed Counter) *DirectTrackingAllocator {
	return &DirectTrackingAllocator{bytesUsed}
}

func (alloc *DirectTrackingAllocator) ByteBlock() []byte {
	alloc.bytesUsed.AddAndGet(BYTE_BLOCK_SIZE)
	return make([]byte, BYTE_BLOCK_SIZE)
}

// util/Counter.java

type Counter interface {
	AddAndGet(delta int64) int64
	Get() int64
}

func NewCounter() Counter {
	return &serialCounter{0}
}

func NewAtomicCounter() Counter {
	return &atomicCounter{0}
}

type serialCounter struct {
	count int64
}

func (sc *serialCounter) AddAndGet(delta int64) int64 {
	sc.count += delta
	return sc.count
}

func (sc *serialCounter) Get() int64 {
	return sc.count
}

type atomicCounter struct {
	count int64
}

func (ac *atomicCounter) AddAndGet(delta int64) int64 {
	return atomic.AddInt64(&ac.count, delta)
}

func (ac *atomicCounter) Get() int64 {
	return atomic.LoadInt64(&ac.count)
}
