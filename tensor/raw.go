// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/poolformer/internal/tensor"
)

// RawTensor is the untyped tensor buffer the backends operate on:
// shape, strides, dtype and device metadata over reference-counted
// memory, with zero-copy typed views (AsFloat32, AsInt64 and friends).
//
// Model code works with the typed Tensor[T, B]; RawTensor surfaces at
// the backend boundary and in weight loading:
//
//	raw, _ := tensor.NewRaw(tensor.Shape{2, 3}, tensor.Float32, tensor.CPU)
//	vals := raw.AsFloat32()
type RawTensor = tensor.RawTensor
