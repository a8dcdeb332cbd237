package fst

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/ironsweet/golucene-core/core/util"
	"github.com/pkg/errors"
)

// util/fst/Outputs.java

// ErrMergeUnsupported is returned by Outputs that cannot hold several
// values for the same input.
var ErrMergeUnsupported = errors.New("outputs do not support merging duplicate inputs")

/*
Represents the outputs for an FST, providing the basic algebra
required for building and traversing the FST.

Outputs are values: every method returning NoOutput() must return a
value Equal to it, and callers never mutate an output they were given.
*/
type Outputs[T any] interface {
	// Eg Common("foobar", "food") -> "foo"
	Common(output1, output2 T) T
	// Eg Subtract("foobar", "foo") -> "bar"
	Subtract(output, inc T) T
	// Eg Add("foo", "bar") -> "foobar"
	Add(prefix, output T) T
	// Encode an output value into a DataOutput.
	Write(output T, out util.DataOutput) error
	// Encode a final node output value into a DataOutput.
	WriteFinalOutput(output T, out util.DataOutput) error
	// Decode an output value previously written with Write().
	Read(in util.DataInput) (T, error)
	// Decode an output value previously written with WriteFinalOutput().
	ReadFinalOutput(in util.DataInput) (T, error)
	SkipOutput(in util.DataInput) error
	SkipFinalOutput(in util.DataInput) error
	NoOutput() T
	Equal(output1, output2 T) bool
	// Hash must agree with Equal.
	Hash(output T) uint64
	// Merge combines the outputs of a repeated input, or fails with
	// ErrMergeUnsupported.
	Merge(first, second T) (T, error)
	OutputString(output T) string
	RamBytesUsed(output T) int64
}

func isNoOutput[T any](outputs Outputs[T], output T) bool {
	return outputs.Equal(output, outputs.NoOutput())
}

/* Reports whether outputs accept duplicate inputs. */
func canMerge[T any](outputs Outputs[T]) bool {
	no := outputs.NoOutput()
	_, err := outputs.Merge(no, no)
	return errors.Cause(err) != ErrMergeUnsupported
}

func hashUint64(v uint64) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	return xxhash.Sum64(buf[:])
}

// fst/NoOutputs.java

/*
A null FST Outputs implementation; use this if you just want to build
an FSA.
*/
type NoOutputs struct{}

var noOutputs = NoOutputs{}

func NoOutputsSingleton() NoOutputs {
	return noOutputs
}

func (NoOutputs) Common(output1, output2 struct{}) struct{}        { return struct{}{} }
func (NoOutputs) Subtract(output, inc struct{}) struct{}           { return struct{}{} }
func (NoOutputs) Add(prefix, output struct{}) struct{}             { return struct{}{} }
func (NoOutputs) Write(struct{}, util.DataOutput) error            { return nil }
func (NoOutputs) WriteFinalOutput(struct{}, util.DataOutput) error { return nil }
func (NoOutputs) Read(util.DataInput) (struct{}, error)            { return struct{}{}, nil }
func (NoOutputs) ReadFinalOutput(util.DataInput) (struct{}, error) { return struct{}{}, nil }
func (NoOutputs) SkipOutput(util.DataInput) error                  { return nil }
func (NoOutputs) SkipFinalOutput(util.DataInput) error             { return nil }
func (NoOutputs) NoOutput() struct{}                               { return struct{}{} }
func (NoOutputs) Equal(output1, output2 struct{}) bool             { return true }
func (NoOutputs) Hash(struct{}) uint64                             { return 0 }
func (NoOutputs) OutputString(struct{}) string                     { return "" }
func (NoOutputs) RamBytesUsed(struct{}) int64                      { return 0 }
func (NoOutputs) String() string                                   { return "NoOutputs" }

// Merging two no-outputs is still no output.
func (NoOutputs) Merge(first, second struct{}) (struct{}, error) {
	return struct{}{}, nil
}

// fst/ByteSequenceOutputs.java

/*
An FST Outputs implementation where each output is a sequence of
bytes. A nil or empty slice is no output.
*/
type ByteSequenceOutputs struct{}

func ByteSequenceOutputsSingleton() ByteSequenceOutputs {
	return ByteSequenceOutputs{}
}

func (ByteSequenceOutputs) Common(output1, output2 []byte) []byte {
	pos, stopAt := 0, len(output1)
	if len(output2) < stopAt {
		stopAt = len(output2)
	}
	for pos < stopAt && output1[pos] == output2[pos] {
		pos++
	}

	switch {
	case pos == 0:
		// no common prefix
		return nil
	case pos == len(output1):
		// output1 is a prefix of output2
		return output1
	case pos == len(output2):
		// output2 is a prefix of output1
		return output2
	default:
		return output1[:pos:pos]
	}
}

func (ByteSequenceOutputs) Subtract(output, inc []byte) []byte {
	if len(inc) == 0 {
		// no prefix removed
		return output
	}
	assert2(bytes.HasPrefix(output, inc), "%v does not start with %v", output, inc)
	if len(inc) == len(output) {
		// entire output removed
		return nil
	}
	return output[len(inc):]
}

func (ByteSequenceOutputs) Add(prefix, output []byte) []byte {
	if len(prefix) == 0 {
		return output
	} else if len(output) == 0 {
		return prefix
	}
	result := make([]byte, len(prefix)+len(output))
	copy(result, prefix)
	copy(result[len(prefix):], output)
	return result
}

func (ByteSequenceOutputs) Write(prefix []byte, out util.DataOutput) error {
	if err := out.WriteVInt(int32(len(prefix))); err != nil {
		return err
	}
	return out.WriteBytes(prefix)
}

func (o ByteSequenceOutputs) WriteFinalOutput(output []byte, out util.DataOutput) error {
	return o.Write(output, out)
}

func (ByteSequenceOutputs) Read(in util.DataInput) ([]byte, error) {
	length, err := in.ReadVInt()
	if err != nil {
		return nil, err
	}
	if length == 0 {
		return nil, nil
	}
	if length < 0 {
		return nil, errors.Errorf("invalid byte sequence length %v", length)
	}
	buf := make([]byte, length)
	if err = in.ReadBytes(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (o ByteSequenceOutputs) ReadFinalOutput(in util.DataInput) ([]byte, error) {
	return o.Read(in)
}

func (ByteSequenceOutputs) SkipOutput(in util.DataInput) error {
	length, err := in.ReadVInt()
	if err != nil {
		return err
	}
	return skipBytes(in, int64(length))
}

func (o ByteSequenceOutputs) SkipFinalOutput(in util.DataInput) error {
	return o.SkipOutput(in)
}

func (ByteSequenceOutputs) NoOutput() []byte { return nil }

func (ByteSequenceOutputs) Equal(output1, output2 []byte) bool {
	return bytes.Equal(output1, output2)
}

func (ByteSequenceOutputs) Hash(output []byte) uint64 {
	return xxhash.Sum64(output)
}

func (ByteSequenceOutputs) Merge(first, second []byte) ([]byte, error) {
	return nil, ErrMergeUnsupported
}

func (ByteSequenceOutputs) OutputString(output []byte) string {
	return fmt.Sprintf("[% x]", output)
}

func (ByteSequenceOutputs) RamBytesUsed(output []byte) int64 {
	return util.SizeOf(output)
}

func (ByteSequenceOutputs) String() string {
	return "ByteSequenceOutputs"
}

// fst/PositiveIntOutputs.java

/*
An FST Outputs implementation where each output is a non-negative
int64 value. Zero is no output.
*/
type PositiveIntOutputs struct{}

func PositiveIntOutputsSingleton() PositiveIntOutputs {
	return PositiveIntOutputs{}
}

func (PositiveIntOutputs) Common(output1, output2 int64) int64 {
	assert2(output1 >= 0 && output2 >= 0, "negative output %v %v", output1, output2)
	if output1 == 0 || output2 == 0 {
		return 0
	}
	if output1 < output2 {
		return output1
	}
	return output2
}

func (PositiveIntOutputs) Subtract(output, inc int64) int64 {
	assert2(output >= inc, "output %v < inc %v", output, inc)
	return output - inc
}

func (PositiveIntOutputs) Add(prefix, output int64) int64 {
	assert2(prefix >= 0 && output >= 0, "negative output %v %v", prefix, output)
	return prefix + output
}

func (PositiveIntOutputs) Write(output int64, out util.DataOutput) error {
	assert2(output >= 0, "negative output %v", output)
	return out.WriteVLong(output)
}

func (o PositiveIntOutputs) WriteFinalOutput(output int64, out util.DataOutput) error {
	return o.Write(output, out)
}

func (PositiveIntOutputs) Read(in util.DataInput) (int64, error) {
	return in.ReadVLong()
}

func (o PositiveIntOutputs) ReadFinalOutput(in util.DataInput) (int64, error) {
	return o.Read(in)
}

func (PositiveIntOutputs) SkipOutput(in util.DataInput) error {
	_, err := in.ReadVLong()
	return err
}

func (o PositiveIntOutputs) SkipFinalOutput(in util.DataInput) error {
	return o.SkipOutput(in)
}

func (PositiveIntOutputs) NoOutput() int64                   { return 0 }
func (PositiveIntOutputs) Equal(output1, output2 int64) bool { return output1 == output2 }
func (PositiveIntOutputs) Hash(output int64) uint64          { return hashUint64(uint64(output)) }
func (PositiveIntOutputs) OutputString(output int64) string  { return fmt.Sprint(output) }
func (PositiveIntOutputs) RamBytesUsed(int64) int64          { return util.NUM_BYTES_LONG }
func (PositiveIntOutputs) String() string                    { return "PositiveIntOutputs" }

func (PositiveIntOutputs) Merge(first, second int64) (int64, error) {
	return 0, ErrMergeUnsupported
}

// fst/IntSequenceOutputs.java

/*
An FST Outputs implementation where each output is a sequence of
ints. A nil or empty slice is no output.
*/
type IntSequenceOutputs struct{}

func IntSequenceOutputsSingleton() IntSequenceOutputs {
	return IntSequenceOutputs{}
}

func (IntSequenceOutputs) Common(output1, output2 []int) []int {
	pos, stopAt := 0, len(output1)
	if len(output2) < stopAt {
		stopAt = len(output2)
	}
	for pos < stopAt && output1[pos] == output2[pos] {
		pos++
	}
	switch {
	case pos == 0:
		return nil
	case pos == len(output1):
		return output1
	case pos == len(output2):
		return output2
	default:
		return output1[:pos:pos]
	}
}

func (o IntSequenceOutputs) Subtract(output, inc []int) []int {
	if len(inc) == 0 {
		return output
	}
	assert2(len(inc) <= len(output) && o.Equal(output[:len(inc)], inc),
		"%v does not start with %v", output, inc)
	if len(inc) == len(output) {
		return nil
	}
	return output[len(inc):]
}

func (IntSequenceOutputs) Add(prefix, output []int) []int {
	if len(prefix) == 0 {
		return output
	} else if len(output) == 0 {
		return prefix
	}
	result := make([]int, len(prefix)+len(output))
	copy(result, prefix)
	copy(result[len(prefix):], output)
	return result
}

func (IntSequenceOutputs) Write(prefix []int, out util.DataOutput) error {
	if err := out.WriteVInt(int32(len(prefix))); err != nil {
		return err
	}
	for _, v := range prefix {
		if err := out.WriteVInt(int32(v)); err != nil {
			return err
		}
	}
	return nil
}

func (o IntSequenceOutputs) WriteFinalOutput(output []int, out util.DataOutput) error {
	return o.Write(output, out)
}

func (IntSequenceOutputs) Read(in util.DataInput) ([]int, error) {
	length, err := in.ReadVInt()
	if err != nil || length == 0 {
		return nil, err
	}
	if length < 0 {
		return nil, errors.Errorf("invalid int sequence length %v", length)
	}
	ans := make([]int, length)
	for i := range ans {
		v, err := in.ReadVInt()
		if err != nil {
			return nil, err
		}
		ans[i] = int(v)
	}
	return ans, nil
}

func (o IntSequenceOutputs) ReadFinalOutput(in util.DataInput) ([]int, error) {
	return o.Read(in)
}

func (o IntSequenceOutputs) SkipOutput(in util.DataInput) error {
	length, err := in.ReadVInt()
	for i := int32(0); err == nil && i < length; i++ {
		_, err = in.ReadVInt()
	}
	return err
}

func (o IntSequenceOutputs) SkipFinalOutput(in util.DataInput) error {
	return o.SkipOutput(in)
}

func (IntSequenceOutputs) NoOutput() []int { return nil }

func (IntSequenceOutputs) Equal(output1, output2 []int) bool {
	if len(output1) != len(output2) {
		return false
	}
	for i, v := range output1 {
		if output2[i] != v {
			return false
		}
	}
	return true
}

func (IntSequenceOutputs) Hash(output []int) uint64 {
	d := xxhash.New()
	var buf [8]byte
	for _, v := range output {
		binary.LittleEndian.PutUint64(buf[:], uint64(v))
		d.Write(buf[:])
	}
	return d.Sum64()
}

func (IntSequenceOutputs) Merge(first, second []int) ([]int, error) {
	return nil, ErrMergeUnsupported
}

func (IntSequenceOutputs) OutputString(output []int) string {
	return fmt.Sprint(output)
}

func (IntSequenceOutputs) RamBytesUsed(output []int) int64 {
	return util.SizeOf(output)
}

func (IntSequenceOutputs) String() string {
	return "IntSequenceOutputs"
}

// fst/PairOutputs.java

/* Holds a single pair of two outputs. */
type Pair[A, B any] struct {
	Output1 A
	Output2 B
}

/* An FST Outputs implementation, holding two other outputs. */
type PairOutputs[A, B any] struct {
	outputs1 Outputs[A]
	outputs2 Outputs[B]
}

func NewPairOutputs[A, B any](outputs1 Outputs[A], outputs2 Outputs[B]) *PairOutputs[A, B] {
	return &PairOutputs[A, B]{outputs1, outputs2}
}

func (o *PairOutputs[A, B]) NewPair(a A, b B) Pair[A, B] {
	return Pair[A, B]{a, b}
}

func (o *PairOutputs[A, B]) Common(pair1, pair2 Pair[A, B]) Pair[A, B] {
	return Pair[A, B]{
		o.outputs1.Common(pair1.Output1, pair2.Output1),
		o.outputs2.Common(pair1.Output2, pair2.Output2),
	}
}

func (o *PairOutputs[A, B]) Subtract(output, inc Pair[A, B]) Pair[A, B] {
	return Pair[A, B]{
		o.outputs1.Subtract(output.Output1, inc.Output1),
		o.outputs2.Subtract(output.Output2, inc.Output2),
	}
}

func (o *PairOutputs[A, B]) Add(prefix, output Pair[A, B]) Pair[A, B] {
	return Pair[A, B]{
		o.outputs1.Add(prefix.Output1, output.Output1),
		o.outputs2.Add(prefix.Output2, output.Output2),
	}
}

func (o *PairOutputs[A, B]) Write(output Pair[A, B], out util.DataOutput) error {
	if err := o.outputs1.Write(output.Output1, out); err != nil {
		return err
	}
	return o.outputs2.Write(output.Output2, out)
}

func (o *PairOutputs[A, B]) WriteFinalOutput(output Pair[A, B], out util.DataOutput) error {
	return o.Write(output, out)
}

func (o *PairOutputs[A, B]) Read(in util.DataInput) (ans Pair[A, B], err error) {
	if ans.Output1, err = o.outputs1.Read(in); err != nil {
		return
	}
	ans.Output2, err = o.outputs2.Read(in)
	return
}

func (o *PairOutputs[A, B]) ReadFinalOutput(in util.DataInput) (Pair[A, B], error) {
	return o.Read(in)
}

func (o *PairOutputs[A, B]) SkipOutput(in util.DataInput) error {
	if err := o.outputs1.SkipOutput(in); err != nil {
		return err
	}
	return o.outputs2.SkipOutput(in)
}

func (o *PairOutputs[A, B]) SkipFinalOutput(in util.DataInput) error {
	return o.SkipOutput(in)
}

func (o *PairOutputs[A, B]) NoOutput() Pair[A, B] {
	return Pair[A, B]{o.outputs1.NoOutput(), o.outputs2.NoOutput()}
}

func (o *PairOutputs[A, B]) Equal(pair1, pair2 Pair[A, B]) bool {
	return o.outputs1.Equal(pair1.Output1, pair2.Output1) &&
		o.outputs2.Equal(pair1.Output2, pair2.Output2)
}

func (o *PairOutputs[A, B]) Hash(output Pair[A, B]) uint64 {
	return o.outputs1.Hash(output.Output1)*31 + o.outputs2.Hash(output.Output2)
}

func (o *PairOutputs[A, B]) Merge(first, second Pair[A, B]) (Pair[A, B], error) {
	return Pair[A, B]{}, ErrMergeUnsupported
}

func (o *PairOutputs[A, B]) OutputString(output Pair[A, B]) string {
	return fmt.Sprintf("<pair:%v,%v>",
		o.outputs1.OutputString(output.Output1),
		o.outputs2.OutputString(output.Output2))
}

func (o *PairOutputs[A, B]) RamBytesUsed(output Pair[A, B]) int64 {
	return util.AlignObjectSize(util.NUM_BYTES_OBJECT_HEADER) +
		o.outputs1.RamBytesUsed(output.Output1) + o.outputs2.RamBytesUsed(output.Output2)
}

func (o *PairOutputs[A, B]) String() string {
	return fmt.Sprintf("PairOutputs<%v,%v>", o.outputs1, o.outputs2)
}

// misc/ListOfOutputs.java

/*
Wraps another Outputs implementation and encodes one or more of its
output values. Use it with care: it does not assert that the outputs
pushed along arcs are single values, only final outputs may hold
several values, which happens when the same input is added more than
once in a row.

A nil list is the wrapped no output. A single value is a list of
length 1.
*/
type ListOfOutputs[T any] struct {
	outputs Outputs[T]
}

func NewListOfOutputs[T any](outputs Outputs[T]) *ListOfOutputs[T] {
	return &ListOfOutputs[T]{outputs}
}

func (o *ListOfOutputs[T]) wrap(output T) []T {
	if isNoOutput(o.outputs, output) {
		return nil
	}
	return []T{output}
}

func (o *ListOfOutputs[T]) single(output []T) T {
	if len(output) == 0 {
		return o.outputs.NoOutput()
	}
	assert2(len(output) == 1, "expected a single output, got %v", len(output))
	return output[0]
}

// AsList returns every value held by output.
func (o *ListOfOutputs[T]) AsList(output []T) []T {
	if len(output) == 0 {
		return []T{o.outputs.NoOutput()}
	}
	return output
}

func (o *ListOfOutputs[T]) Common(output1, output2 []T) []T {
	return o.wrap(o.outputs.Common(o.single(output1), o.single(output2)))
}

func (o *ListOfOutputs[T]) Subtract(output, inc []T) []T {
	return o.wrap(o.outputs.Subtract(o.single(output), o.single(inc)))
}

func (o *ListOfOutputs[T]) Add(prefix, output []T) []T {
	if len(output) <= 1 {
		return o.wrap(o.outputs.Add(o.single(prefix), o.single(output)))
	}
	p := o.single(prefix)
	ans := make([]T, len(output))
	for i, v := range output {
		ans[i] = o.outputs.Add(p, v)
	}
	return ans
}

func (o *ListOfOutputs[T]) Write(output []T, out util.DataOutput) error {
	return o.outputs.Write(o.single(output), out)
}

func (o *ListOfOutputs[T]) WriteFinalOutput(output []T, out util.DataOutput) error {
	if err := out.WriteVInt(int32(len(output))); err != nil {
		return err
	}
	for _, v := range output {
		if err := o.outputs.Write(v, out); err != nil {
			return err
		}
	}
	return nil
}

func (o *ListOfOutputs[T]) Read(in util.DataInput) ([]T, error) {
	v, err := o.outputs.Read(in)
	if err != nil {
		return nil, err
	}
	return o.wrap(v), nil
}

func (o *ListOfOutputs[T]) ReadFinalOutput(in util.DataInput) ([]T, error) {
	count, err := in.ReadVInt()
	if err != nil || count == 0 {
		return nil, err
	}
	if count < 0 {
		return nil, errors.Errorf("invalid output count %v", count)
	}
	if count == 1 {
		v, err := o.outputs.Read(in)
		if err != nil {
			return nil, err
		}
		return o.wrap(v), nil
	}
	ans := make([]T, count)
	for i := range ans {
		if ans[i], err = o.outputs.Read(in); err != nil {
			return nil, err
		}
	}
	return ans, nil
}

func (o *ListOfOutputs[T]) SkipOutput(in util.DataInput) error {
	return o.outputs.SkipOutput(in)
}

func (o *ListOfOutputs[T]) SkipFinalOutput(in util.DataInput) error {
	count, err := in.ReadVInt()
	for i := int32(0); err == nil && i < count; i++ {
		err = o.outputs.SkipOutput(in)
	}
	return err
}

func (o *ListOfOutputs[T]) NoOutput() []T { return nil }

func (o *ListOfOutputs[T]) Equal(output1, output2 []T) bool {
	if len(output1) != len(output2) {
		return false
	}
	for i, v := range output1 {
		if !o.outputs.Equal(v, output2[i]) {
			return false
		}
	}
	return true
}

func (o *ListOfOutputs[T]) Hash(output []T) uint64 {
	var h uint64
	for _, v := range output {
		h = h*31 + o.outputs.Hash(v)
	}
	return h
}

func (o *ListOfOutputs[T]) Merge(first, second []T) ([]T, error) {
	a, b := o.AsList(first), o.AsList(second)
	ans := make([]T, 0, len(a)+len(b))
	return append(append(ans, a...), b...), nil
}

func (o *ListOfOutputs[T]) OutputString(output []T) string {
	if len(output) <= 1 {
		return o.outputs.OutputString(o.single(output))
	}
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, v := range output {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(o.outputs.OutputString(v))
	}
	buf.WriteByte(']')
	return buf.String()
}

func (o *ListOfOutputs[T]) RamBytesUsed(output []T) int64 {
	size := util.AlignObjectSize(util.NUM_BYTES_ARRAY_HEADER + int64(len(output))*util.NUM_BYTES_OBJECT_REF)
	for _, v := range output {
		size += o.outputs.RamBytesUsed(v)
	}
	return size
}

func (o *ListOfOutputs[T]) String() string {
	return fmt.Sprintf("OneOrMoreOutputs(%v)", o.outputs)
}
