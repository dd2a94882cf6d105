// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the neural network building blocks of the
// PoolFormer backbone.
//
// # Overview
//
// This package contains:
//   - Layers: PatchEmbed, Conv2D, Linear, ConvMLP, Pooling
//   - Normalization: GroupNorm (single group), Identity
//   - Activations: GELU
//   - Regularization: Dropout, DropPath (stochastic depth)
//   - Composition: Block, BlockConfig, Sequential, Module interface
//   - Initialization: TruncNormal, Zeros, Ones
//   - Checkpointing: Save, Load, MergeStateDict, SubStateDict
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/poolformer/nn"
//	    "github.com/born-ml/poolformer/backend/cpu"
//	)
//
//	func main() {
//	    backend := cpu.New()
//
//	    // One stage of the backbone: embed then stack blocks
//	    embed := nn.NewPatchEmbed(7, 4, 2, 3, 64, backend)
//	    cfg := nn.BlockConfig{
//	        Dim:            64,
//	        PoolSize:       3,
//	        MLPRatio:       4.0,
//	        UseLayerScale:  true,
//	        LayerScaleInit: 1e-5,
//	        NormEps:        1e-5,
//	    }
//	    stage := nn.NewSequential(
//	        nn.NewBlock(cfg, backend),
//	        nn.NewBlock(cfg, backend),
//	    )
//
//	    // Forward pass
//	    tokens := embed.Forward(images)  // [B,3,224,224] -> [B,64,56,56]
//	    output := stage.Forward(tokens)  // shape preserved
//	}
//
// # The Residual Block
//
// Block is the unit the whole backbone is made of. Each forward runs
// two residual updates in fixed order, token mixing first:
//
//	x = x + DropPath(scale1 * Pooling(GroupNorm(x)))
//	x = x + DropPath(scale2 * ConvMLP(GroupNorm(x)))
//
// Pooling computes AvgPool(x) - x, so adding the residual back leaves
// pure neighborhood averaging. The layer-scale vectors start at 1e-5,
// which keeps a freshly initialized deep stack close to the identity.
//
// # Spatial Layout
//
// Every module here works on [batch, channels, height, width] tensors.
// There is no flattening to sequence form anywhere in the backbone;
// the token grid keeps its 2D layout end to end.
//
// # Parameter Management
//
// Access model parameters through the Module interface:
//
//	params := block.Parameters()
//	for _, param := range params {
//	    fmt.Println(param.Name(), param.Tensor().Shape())
//	}
//
// State dictionaries use dotted names ("mlp.fc1.weight") and are the
// unit of checkpointing:
//
//	err := nn.Save("model.born", model, "poolformer_s12", nil)
//	header, err := nn.Load("model.born", backend, model)
package nn
