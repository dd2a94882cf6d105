// Package nn implements the neural network modules of the PoolFormer
// backbone.
//
// This package provides the building blocks the model assembles:
//   - Module interface: base interface for all NN components
//   - Parameter: named parameter tensors
//   - PatchEmbed: strided convolution embedding (stem and downsamplers)
//   - GroupNorm: single-group normalization over the channel volume
//   - Pooling: average-pool token mixer (pool minus identity)
//   - ConvMLP: two-layer 1x1-convolution channel MLP with GELU
//   - Block: pre-norm residual block with layer scale and drop path
//   - Sequential: container for stacking layers
//
// Design inspired by PyTorch's nn.Module but adapted for Go generics.
package nn

import (
	"strings"

	"github.com/born-ml/poolformer/internal/tensor"
)

// Stateful is the parameter I/O subset of Module: anything that can
// export and import its parameters as a flat state dictionary.
//
// Checkpointing and weight loading operate on this interface, so model
// types whose forward signature differs from Module's (the feature
// pyramid returns four maps) still save and load uniformly.
type Stateful interface {
	// StateDict returns the module's parameters as a flat map from
	// parameter name to raw tensor. Nested modules prefix their children
	// with dots ("mlp.fc1.weight").
	StateDict() map[string]*tensor.RawTensor

	// LoadStateDict copies parameter values from a state dictionary.
	// Keys use the same naming as StateDict. Missing keys and shape or
	// dtype conflicts are errors.
	LoadStateDict(stateDict map[string]*tensor.RawTensor) error
}

// Module is the base interface for all neural network components.
//
// Modules can be composed to build complex architectures:
//
//	stage := nn.NewSequential[Backend](
//	    nn.NewBlock(blockCfg, backend),
//	    nn.NewBlock(blockCfg, backend),
//	)
//
// Type parameter B must satisfy the tensor.Backend interface.
type Module[B tensor.Backend] interface {
	// Forward computes the output of the module given an input tensor.
	//
	// The input tensor should have the appropriate shape for this module.
	// The convolutional modules here expect [batch, channels, height, width].
	//
	// Returns the output tensor with shape determined by the module type.
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

	// Parameters returns all trainable parameters of this module.
	//
	// This includes weights, biases, and any nested module parameters.
	// Returns an empty slice for modules without trainable parameters
	// (e.g., the pooling token mixer).
	Parameters() []*Parameter[B]

	Stateful
}

// Normalizer is implemented by shape-preserving normalization layers.
// The residual block and the patch embedding accept any Normalizer at
// their norm call sites; GroupNorm and Identity satisfy it.
type Normalizer[B tensor.Backend] interface {
	Module[B]
}

// Identity passes its input through unchanged.
//
// It stands in wherever a module slot must be filled but no computation
// is wanted: the patch-embedding norm by default, and the classifier
// head when the class count is zero.
type Identity[B tensor.Backend] struct{}

// NewIdentity creates an Identity module.
func NewIdentity[B tensor.Backend]() *Identity[B] {
	return &Identity[B]{}
}

// Forward returns the input unchanged.
func (i *Identity[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return input
}

// Parameters returns an empty slice.
func (i *Identity[B]) Parameters() []*Parameter[B] {
	return nil
}

// StateDict returns an empty map.
func (i *Identity[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{}
}

// LoadStateDict is a no-op.
func (i *Identity[B]) LoadStateDict(_ map[string]*tensor.RawTensor) error {
	return nil
}

// MergeStateDict copies every entry of src into dst under the given
// prefix ("mlp." + "fc1.weight" -> "mlp.fc1.weight").
func MergeStateDict(dst map[string]*tensor.RawTensor, prefix string, src map[string]*tensor.RawTensor) {
	for name, raw := range src {
		dst[prefix+name] = raw
	}
}

// SubStateDict extracts the entries of sd under the given prefix with
// the prefix stripped. Composite modules use it to route checkpoint
// slices to their children.
func SubStateDict(sd map[string]*tensor.RawTensor, prefix string) map[string]*tensor.RawTensor {
	sub := make(map[string]*tensor.RawTensor)
	for key, raw := range sd {
		if strings.HasPrefix(key, prefix) {
			sub[key[len(prefix):]] = raw
		}
	}
	return sub
}
