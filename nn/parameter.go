// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/born-ml/poolformer/internal/nn"
	"github.com/born-ml/poolformer/internal/tensor"
)

// Parameter represents a named parameter tensor of a module.
//
// Parameters hold the weights, biases, normalization affines, and
// layer scales of the backbone. They are what StateDict serializes and
// what checkpoint loading overwrites.
//
// Example:
//
//	// Create a weight parameter
//	weight := nn.NewParameter("weight", weightTensor)
//
//	// Access the tensor
//	w := weight.Tensor()
//
// Methods:
//
//	Name() string
//	    Returns the parameter name (e.g., "weight", "layer_scale_1").
//
//	Tensor() *tensor.Tensor[float32, B]
//	    Returns the parameter tensor.
//
//	Load(src *tensor.RawTensor) error
//	    Copies src into the parameter after validating shape and dtype.
//
// Note: Parameter is implemented as a type alias because it is used as a return type
// in the Module interface. Go's type system requires exact type matches for interface
// implementations, so we cannot use an interface here.
type Parameter[B tensor.Backend] = nn.Parameter[B]

// NewParameter creates a new parameter with the given name and tensor.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return nn.NewParameter(name, t)
}
