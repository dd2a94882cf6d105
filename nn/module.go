// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/born-ml/poolformer/internal/nn"
	"github.com/born-ml/poolformer/internal/serialization"
	"github.com/born-ml/poolformer/internal/tensor"
)

// Module is the base interface for all neural network components.
//
// Every NN module implements:
//   - Forward: Compute output from input
//   - Parameters: Return all trainable parameters
//   - StateDict: Export parameters for serialization
//   - LoadStateDict: Import parameters from serialization
//
// Modules can be composed to build complex architectures:
//
//	stage := nn.NewSequential(
//	    nn.NewBlock(cfg, backend),
//	    nn.NewBlock(cfg, backend),
//	)
//
// Type parameter B must satisfy the tensor.Backend interface.
type Module[B tensor.Backend] = nn.Module[B]

// Stateful is the parameter I/O subset of Module: anything that can
// export and import its parameters as a flat state dictionary. Model
// types whose forward signature differs from Module's (the feature
// pyramid returns one map per stage) still checkpoint through it.
type Stateful = nn.Stateful

// Normalizer is implemented by shape-preserving normalization layers.
// GroupNorm and Identity satisfy it; the residual block and the patch
// embedding accept any Normalizer at their norm call sites.
type Normalizer[B tensor.Backend] = nn.Normalizer[B]

// Identity passes its input through unchanged. It fills module slots
// where no computation is wanted, such as the classifier head of a
// zero-class model.
type Identity[B tensor.Backend] = nn.Identity[B]

// NewIdentity creates an Identity module.
func NewIdentity[B tensor.Backend]() *Identity[B] {
	return nn.NewIdentity[B]()
}

// Save writes a model's state dictionary to a .born file.
//
// Parameters:
//   - path: File path to write to
//   - model: The model to save
//   - modelType: Type name stored in the header (e.g., "poolformer_s12")
//   - metadata: Optional metadata (can be nil)
//
// Returns an error if saving fails.
//
// Example:
//
//	backend := cpu.New()
//	model, _ := poolformer.NewClassifier(cfg, backend)
//	err := nn.Save("s12.born", model, "poolformer_s12", nil)
func Save(path string, model Stateful, modelType string, metadata map[string]string) error {
	return nn.Save(path, model, modelType, metadata)
}

// Load reads a state dictionary from a .born file into a model.
//
// The model must already be constructed with the matching
// architecture; Load overwrites its parameter values in place.
//
// Returns the file header and an error if loading fails.
//
// Example:
//
//	backend := cpu.New()
//	model, _ := poolformer.NewClassifier(cfg, backend)
//	header, err := nn.Load("s12.born", backend, model)
func Load[B tensor.Backend](path string, backend B, model Stateful) (serialization.Header, error) {
	return nn.Load(path, backend, model)
}
