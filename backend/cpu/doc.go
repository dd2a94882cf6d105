// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the pure Go compute backend.
//
// Every operation the backbone needs is implemented without CGO:
// im2col-based convolution, padded average pooling for the token
// mixer, broadcast elementwise arithmetic over all supported dtypes,
// and the reduction, softmax and argmax path the classifier head uses.
// Convolution and pooling spread output planes across cores through an
// internal worker pool sized to GOMAXPROCS.
//
// # Usage
//
//	backend := cpu.New()
//	x := tensor.Zeros[float32](tensor.Shape{1, 3, 224, 224}, backend)
//	model := poolformer.NewClassifier(poolformer.S12Config(1000), backend)
//
// # Thread Safety
//
// The backend holds no mutable state, so a single instance can serve
// any number of goroutines; every operation allocates its own result
// unless it can safely reuse a uniquely held operand.
package cpu
