// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides type-safe tensor operations for the PoolFormer models.
//
// # Overview
//
// Tensors are the fundamental data structure of the library. This package provides:
//   - Generic type-safe tensors (Tensor[T, B])
//   - NumPy-style broadcasting
//   - Zero-copy data access where possible
//   - The Backend interface the compute implementations plug into
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/poolformer/tensor"
//	    "github.com/born-ml/poolformer/backend/cpu"
//	)
//
//	func main() {
//	    backend := cpu.New()
//
//	    // Create tensors
//	    x := tensor.Randn[float32](tensor.Shape{1, 3, 224, 224}, backend)
//	    gamma := tensor.Full[float32](tensor.Shape{1, 3, 1, 1}, 0.5, backend)
//
//	    // Tensor operations
//	    y := x.Mul(gamma) // broadcasts over the channel dimension
//	    z := y.MeanDim(-1, false).MeanDim(-1, false)
//	}
//
// # Supported Data Types
//
// The tensor package supports the following data types via the DType constraint:
//   - float32, float64 (floating-point)
//   - int32, int64 (signed integers)
//   - uint8 (unsigned integers, useful for images)
//   - bool (boolean masks)
//
// Model weights and activations are float32; the remaining types cover
// class indices, image bytes and dropout masks.
//
// # Broadcasting
//
// Tensor operations follow NumPy broadcasting rules:
//
//	a := tensor.Zeros[float32](tensor.Shape{1, 64, 1, 1}, backend) // per-channel affine
//	b := tensor.Ones[float32](tensor.Shape{2, 64, 56, 56}, backend)
//	c := a.Add(b)                                                  // (2, 64, 56, 56)
//
// # Memory Management
//
// Tensor data lives in reference-counted buffers. Clone shares the
// buffer and bumps the count; arithmetic on a uniquely-held tensor may
// reuse its buffer in place. Data access via As* methods is zero-copy.
//
// # Initialization
//
// Weight initializers mirror the reference training setup:
//
//	w := tensor.TruncNormal[float32](tensor.Shape{64, 3, 7, 7}, 0.02, backend)
//	b := tensor.Zeros[float32](tensor.Shape{64}, backend)
//	u := tensor.Rand[float32](tensor.Shape{2, 1, 1, 1}, backend) // drop-path coin flips
//
// See method documentation on Tensor for the full list of operations.
package tensor
