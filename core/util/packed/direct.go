package packed

import (
	"github.com/ironsweet/golucene-core/core/util"
)

// util/packed/Direct{8,16,32,64}.java

// Direct wrapping of 8-bits values to a backing array.
type Direct8 struct {
	mutableImpl
	values []byte
}

func newDirect8(valueCount int) *Direct8 {
	return &Direct8{newMutableImpl(valueCount, 8), make([]byte, valueCount)}
}

func (d *Direct8) Get(index int) int64 {
	return int64(d.values[index])
}

func (d *Direct8) Set(index int, value int64) {
	d.values[index] = byte(value)
}

func (d *Direct8) Clear() {
	for i := range d.values {
		d.values[i] = 0
	}
}

func (d *Direct8) RamBytesUsed() int64 {
	return util.AlignObjectSize(util.NUM_BYTES_OBJECT_HEADER+2*util.NUM_BYTES_INT+util.NUM_BYTES_OBJECT_REF) +
		util.SizeOf(d.values)
}

// Direct wrapping of 16-bits values to a backing array.
type Direct16 struct {
	mutableImpl
	values []int16
}

func newDirect16(valueCount int) *Direct16 {
	return &Direct16{newMutableImpl(valueCount, 16), make([]int16, valueCount)}
}

func (d *Direct16) Get(index int) int64 {
	return int64(d.values[index]) & 0xFFFF
}

func (d *Direct16) Set(index int, value int64) {
	d.values[index] = int16(value)
}

func (d *Direct16) Clear() {
	for i := range d.values {
		d.values[i] = 0
	}
}

func (d *Direct16) RamBytesUsed() int64 {
	return util.AlignObjectSize(util.NUM_BYTES_OBJECT_HEADER+2*util.NUM_BYTES_INT+util.NUM_BYTES_OBJECT_REF) +
		util.SizeOf(d.values)
}

// Direct wrapping of 32-bits values to a backing array.
type Direct32 struct {
	mutableImpl
	values []int32
}

func newDirect32(valueCount int) *Direct32 {
	return &Direct32{newMutableImpl(valueCount, 32), make([]int32, valueCount)}
}

func (d *Direct32) Get(index int) int64 {
	return int64(d.values[index]) & 0xFFFFFFFF
}

func (d *Direct32) Set(index int, value int64) {
	d.values[index] = int32(value)
}

func (d *Direct32) Clear() {
	for i := range d.values {
		d.values[i] = 0
	}
}

func (d *Direct32) RamBytesUsed() int64 {
	return util.AlignObjectSize(util.NUM_BYTES_OBJECT_HEADER+2*util.NUM_BYTES_INT+util.NUM_BYTES_OBJECT_REF) +
		util.SizeOf(d.values)
}

// Direct wrapping of 64-bits values to a backing array.
type Direct64 struct {
	mutableImpl
	values []int64
}

func newDirect64(valueCount int) *Direct64 {
	return &Direct64{newMutableImpl(valueCount, 64), make([]int64, valueCount)}
}

func (d *Direct64) Get(index int) int64 {
	return d.values[index]
}

func (d *Direct64) Set(index int, value int64) {
	d.values[index] = value
}

func (d *Direct64) Clear() {
	for i := range d.values {
		d.values[i] = 0
	}
}

func (d *Direct64) RamBytesUsed() int64 {
	return util.AlignObjectSize(util.NUM_BYTES_OBJECT_HEADER+2*util.NUM_BYTES_INT+util.NUM_BYTES_OBJECT_REF) +
		util.SizeOf(d.values)
}
