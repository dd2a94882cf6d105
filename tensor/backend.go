// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import "github.com/born-ml/poolformer/internal/tensor"

// Backend is the contract compute backends implement. The surface is
// the one a convolutional backbone needs: broadcast elementwise
// arithmetic, matrix multiplication, strided convolution, padded
// average pooling for the token mixer, reductions for normalization
// and pooled heads, pointwise math, shape manipulation, and Name and
// Device metadata.
//
// backend/cpu provides the pure-Go implementation, parallelized across
// channel planes:
//
//	backend := cpu.New()
//	x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	y := x.Add(x) // dispatches to backend.Add
//
// Operations panic on shape or dtype violations rather than returning
// errors; weights and activations flowing through a fixed architecture
// make those programmer mistakes, not runtime conditions.
type Backend = tensor.Backend
