package tensor

import (
	"fmt"
	"sync/atomic"
	"unsafe"
)

// Device tags the compute device a buffer belongs to. Only the CPU
// device exists in this library; the tag is kept on tensors so backends
// can reject buffers they do not own.
type Device int

// Supported compute devices.
const (
	CPU Device = iota
)

// String returns a human-readable device name.
func (d Device) String() string {
	if d == CPU {
		return "CPU"
	}
	return "Unknown"
}

// tensorBuffer holds the backing bytes behind one or more RawTensors.
// The reference count drives two things: Clone is a cheap refcount
// bump, and backends may write results in place when the count is 1.
type tensorBuffer struct {
	data []byte
	refs atomic.Int32
}

func newTensorBuffer(size int) *tensorBuffer {
	b := &tensorBuffer{data: make([]byte, size)}
	b.refs.Store(1)
	return b
}

func (b *tensorBuffer) retain() { b.refs.Add(1) }

func (b *tensorBuffer) release() {
	if b.refs.Add(-1) == 0 {
		b.data = nil
	}
}

func (b *tensorBuffer) unique() bool { return b.refs.Load() == 1 }

// RawTensor is the untyped tensor representation the backends operate
// on: a shape, a runtime dtype and a shared byte buffer. The typed
// Tensor wrapper layers compile-time element types on top.
type RawTensor struct {
	buffer *tensorBuffer
	shape  Shape
	stride []int
	dtype  DataType
	device Device
}

// NewRaw allocates a zeroed RawTensor with the given shape and dtype.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}

	return &RawTensor{
		buffer: newTensorBuffer(shape.NumElements() * dtype.Size()),
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		dtype:  dtype,
		device: device,
	}, nil
}

// Shape returns the tensor's shape. Callers must not modify it.
func (rt *RawTensor) Shape() Shape { return rt.shape }

// Strides returns the row-major strides, in elements per axis step.
func (rt *RawTensor) Strides() []int { return rt.stride }

// DType returns the runtime element type.
func (rt *RawTensor) DType() DataType { return rt.dtype }

// Device returns the device tag the tensor was allocated under.
func (rt *RawTensor) Device() Device { return rt.device }

// NumElements returns the element count, the product of the shape.
func (rt *RawTensor) NumElements() int { return rt.shape.NumElements() }

// ByteSize returns the size of the backing buffer in bytes.
func (rt *RawTensor) ByteSize() int { return rt.NumElements() * rt.dtype.Size() }

// Data returns the raw byte slice. Writes through it are visible to
// every tensor sharing the buffer.
func (rt *RawTensor) Data() []byte { return rt.buffer.data }

// view reinterprets the buffer as a typed slice without copying. A
// dtype mismatch is a caller bug and panics.
func view[T any](rt *RawTensor, want DataType) []T {
	if rt.dtype != want {
		panic(fmt.Sprintf("tensor dtype is %s, not %s", rt.dtype, want))
	}
	//nolint:gosec // zero-copy reinterpret; length bounded by NumElements
	return unsafe.Slice((*T)(unsafe.Pointer(&rt.buffer.data[0])), rt.NumElements())
}

// AsFloat32 interprets the data as []float32. Panics on dtype mismatch.
func (rt *RawTensor) AsFloat32() []float32 { return view[float32](rt, Float32) }

// AsFloat64 interprets the data as []float64. Panics on dtype mismatch.
func (rt *RawTensor) AsFloat64() []float64 { return view[float64](rt, Float64) }

// AsInt32 interprets the data as []int32. Panics on dtype mismatch.
func (rt *RawTensor) AsInt32() []int32 { return view[int32](rt, Int32) }

// AsInt64 interprets the data as []int64. Panics on dtype mismatch.
func (rt *RawTensor) AsInt64() []int64 { return view[int64](rt, Int64) }

// AsUint8 interprets the data as []uint8. Panics on dtype mismatch.
func (rt *RawTensor) AsUint8() []uint8 {
	if rt.dtype != Uint8 {
		panic(fmt.Sprintf("tensor dtype is %s, not %s", rt.dtype, Uint8))
	}
	return rt.buffer.data
}

// AsBool interprets the data as []bool. Panics on dtype mismatch.
func (rt *RawTensor) AsBool() []bool { return view[bool](rt, Bool) }

// Clone returns a new RawTensor sharing this tensor's buffer. The copy
// costs one refcount increment; the shared data is copied only when a
// backend needs an exclusive buffer.
//
// Example:
//
//	a := tensor.Ones[float32](Shape{1000, 1000}, backend)
//	b := a.Clone()  // shares the buffer with a
//	c := a.Add(b)   // allocates: a is no longer unique
func (rt *RawTensor) Clone() *RawTensor {
	rt.buffer.retain()
	return &RawTensor{
		buffer: rt.buffer,
		shape:  rt.shape.Clone(),
		stride: append([]int(nil), rt.stride...),
		dtype:  rt.dtype,
		device: rt.device,
	}
}

// Release drops this tensor's reference; the buffer is freed when the
// last reference goes.
func (rt *RawTensor) Release() { rt.buffer.release() }

// IsUnique reports whether this tensor holds the only reference to its
// buffer. Note that a lone reference does not mean the buffer is safe
// to overwrite: the caller handing a RawTensor to an op may still read
// it afterwards, so ops allocate fresh result buffers regardless.
func (rt *RawTensor) IsUnique() bool { return rt.buffer.unique() }
