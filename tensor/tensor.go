// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor is the public surface of the tensor layer: typed
// tensors, raw buffers, shapes and the Backend contract.
//
// Everything here aliases or forwards to the internal implementation,
// so user code and the model layers share one set of types:
//
//	backend := cpu.New()
//	x := tensor.Zeros[float32](tensor.Shape{2, 64, 56, 56}, backend)
//	y := x.Add(x)
package tensor

import (
	"github.com/born-ml/poolformer/internal/tensor"
)

// DType constrains the element types a Tensor can carry: float32,
// float64, int32, int64, uint8 and bool.
type DType = tensor.DType

// DataType is the runtime tag corresponding to a DType.
type DataType = tensor.DataType

// Runtime element type tags.
const (
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
	Int32   DataType = tensor.Int32
	Int64   DataType = tensor.Int64
	Uint8   DataType = tensor.Uint8
	Bool    DataType = tensor.Bool
)

// Device identifies where tensor memory lives.
type Device = tensor.Device

// CPU is the only compute device in this release.
const CPU Device = tensor.CPU

// Shape holds tensor dimensions, e.g. Shape{2, 3, 224, 224} for a
// batch of two RGB images.
type Shape = tensor.Shape

// Tensor pairs a raw buffer with a compile-time element type T and the
// backend B its operations dispatch to. Arithmetic follows NumPy
// broadcasting rules and buffers are reference counted.
//
// The Backend interface lives in backend.go.
type Tensor[T DType, B Backend] = tensor.Tensor[T, B]

// Zeros creates a tensor filled with zeros.
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Zeros[T, B](shape, b)
}

// Ones creates a tensor filled with ones.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Ones[T, B](shape, b)
}

// Full creates a tensor filled with the given value.
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	return tensor.Full[T, B](shape, value, b)
}

// Randn draws every element from the standard normal N(0, 1).
func Randn[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Randn[T, B](shape, b)
}

// Rand draws every element from the uniform distribution over [0, 1).
func Rand[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Rand[T, B](shape, b)
}

// TruncNormal draws from N(0, 1), resampling anything beyond two
// standard deviations, then scales by std. Convolution and linear
// weights are initialized this way:
//
//	w := tensor.TruncNormal[float32](tensor.Shape{64, 3, 7, 7}, 0.02, backend)
func TruncNormal[T DType, B Backend](shape Shape, std float64, b B) *Tensor[T, B] {
	return tensor.TruncNormal[T, B](shape, std, b)
}

// FromSlice copies a Go slice into a new tensor of the given shape.
func FromSlice[T DType, B Backend](data []T, shape Shape, b B) (*Tensor[T, B], error) {
	return tensor.FromSlice[T, B](data, shape, b)
}

// New wraps an existing RawTensor in a typed Tensor. Most callers want
// the creation functions above instead.
func New[T DType, B Backend](raw *RawTensor, b B) *Tensor[T, B] {
	return tensor.New[T, B](raw, b)
}

// NewRaw allocates an untyped tensor buffer. Backend implementations
// and weight loaders use this; model code rarely needs it.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype, device)
}

// BroadcastShapes combines two shapes under NumPy broadcasting rules,
// reporting the result, whether any axis actually needs expanding, and
// an error for incompatible pairs:
//
//	out, expanded, err := tensor.BroadcastShapes(
//	    tensor.Shape{1, 64, 1, 1},
//	    tensor.Shape{2, 64, 56, 56},
//	) // out = [2, 64, 56, 56], expanded = true
func BroadcastShapes(a, b Shape) (Shape, bool, error) {
	return tensor.BroadcastShapes(a, b)
}
