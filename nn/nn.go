// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/born-ml/poolformer/internal/nn"
	"github.com/born-ml/poolformer/internal/tensor"
)

// Layers

// Linear represents a fully connected (dense) layer.
type Linear[B tensor.Backend] = nn.Linear[B]

// NewLinear creates a new linear layer with truncated-normal weight
// initialization (std 0.02) and zero bias.
//
// Example:
//
//	backend := cpu.New()
//	head := nn.NewLinear(512, 1000, backend) // classifier head
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, backend B) *Linear[B] {
	return nn.NewLinear(inFeatures, outFeatures, backend)
}

// Conv2D represents a 2D convolutional layer.
type Conv2D[B tensor.Backend] = nn.Conv2D[B]

// NewConv2D creates a new 2D convolutional layer.
//
// Example:
//
//	backend := cpu.New()
//	conv := nn.NewConv2D(3, 64, 7, 7, 4, 2, true, backend)  // in=3, out=64, kernel=7x7, stride=4, padding=2, useBias=true
func NewConv2D[B tensor.Backend](
	inChannels, outChannels int,
	kernelH, kernelW int,
	stride, padding int,
	useBias bool,
	backend B,
) *Conv2D[B] {
	return nn.NewConv2D(inChannels, outChannels, kernelH, kernelW, stride, padding, useBias, backend)
}

// PatchEmbed represents a strided-convolution patch embedding. The stem
// and the between-stage downsamplers are both instances of it.
type PatchEmbed[B tensor.Backend] = nn.PatchEmbed[B]

// NewPatchEmbed creates a patch embedding layer.
//
// Example:
//
//	backend := cpu.New()
//	stem := nn.NewPatchEmbed(7, 4, 2, 3, 64, backend)       // [B,3,224,224] -> [B,64,56,56]
//	down := nn.NewPatchEmbed(3, 2, 1, 64, 128, backend)     // [B,64,56,56] -> [B,128,28,28]
func NewPatchEmbed[B tensor.Backend](patchSize, stride, padding, inChans, embedDim int, backend B) *PatchEmbed[B] {
	return nn.NewPatchEmbed(patchSize, stride, padding, inChans, embedDim, backend)
}

// Pooling represents the average-pool token mixer. Forward returns
// AvgPool(x) - x, so the residual add in the enclosing block leaves
// only the pooled neighborhood exchange.
type Pooling[B tensor.Backend] = nn.Pooling[B]

// NewPooling creates a pooling token mixer. The pool size must be odd
// so the window stays centered at stride 1.
//
// Example:
//
//	backend := cpu.New()
//	mixer := nn.NewPooling(3, backend)
//	mixed := mixer.Forward(x) // shape preserved
func NewPooling[B tensor.Backend](poolSize int, backend B) *Pooling[B] {
	return nn.NewPooling(poolSize, backend)
}

// ConvMLP represents the two-layer 1x1-convolution channel MLP with
// GELU in between.
type ConvMLP[B tensor.Backend] = nn.ConvMLP[B]

// NewConvMLP creates a channel MLP.
//
// Example:
//
//	backend := cpu.New()
//	mlp := nn.NewConvMLP(64, 256, 64, 0.0, backend) // expansion ratio 4
func NewConvMLP[B tensor.Backend](inChannels, hidden, outChannels int, dropRate float64, backend B) *ConvMLP[B] {
	return nn.NewConvMLP(inChannels, hidden, outChannels, dropRate, backend)
}

// Normalization

// GroupNorm represents group normalization with a single group: each
// sample is normalized over its full channel-height-width volume, then
// scaled and shifted per channel.
type GroupNorm[B tensor.Backend] = nn.GroupNorm[B]

// NewGroupNorm creates a single-group normalization layer.
//
// Example:
//
//	backend := cpu.New()
//	norm := nn.NewGroupNorm(64, 1e-5, backend)
//	output := norm.Forward(input) // [B,64,H,W] -> [B,64,H,W]
func NewGroupNorm[B tensor.Backend](numChannels int, epsilon float32, backend B) *GroupNorm[B] {
	return nn.NewGroupNorm(numChannels, epsilon, backend)
}

// Activations

// GELU represents the Gaussian Error Linear Unit activation, computed
// with the tanh approximation.
type GELU[B tensor.Backend] = nn.GELU[B]

// NewGELU creates a new GELU activation layer.
//
// Example:
//
//	act := nn.NewGELU[*cpu.Backend]()
func NewGELU[B tensor.Backend]() *GELU[B] {
	return nn.NewGELU[B]()
}

// GELUBackend is the optional fast path for GELU: a backend that also
// implements it gets called directly instead of going through the
// generic tensor-op composition.
type GELUBackend = nn.GELUBackend

// Regularization

// Dropout zeroes individual activations with probability p during
// training and rescales the survivors by 1/(1-p). Inference is a
// pass-through.
type Dropout[B tensor.Backend] = nn.Dropout[B]

// NewDropout creates a dropout layer.
//
// Example:
//
//	backend := cpu.New()
//	drop := nn.NewDropout(0.1, backend)
func NewDropout[B tensor.Backend](p float64, backend B) *Dropout[B] {
	return nn.NewDropout(p, backend)
}

// DropPath implements stochastic depth: during training each sample's
// residual branch is dropped entirely with the given rate, and kept
// branches are rescaled. Inference is a pass-through.
type DropPath[B tensor.Backend] = nn.DropPath[B]

// NewDropPath creates a stochastic-depth layer.
//
// Example:
//
//	backend := cpu.New()
//	dp := nn.NewDropPath(0.1, backend)
func NewDropPath[B tensor.Backend](rate float64, backend B) *DropPath[B] {
	return nn.NewDropPath(rate, backend)
}

// Composition

// BlockConfig holds the hyperparameters of a residual block.
type BlockConfig = nn.BlockConfig

// Block represents one pre-norm residual block: pooling token mixer
// followed by channel MLP, each branch behind its own norm, layer
// scale, and drop path.
type Block[B tensor.Backend] = nn.Block[B]

// NewBlock creates a residual block.
//
// Example:
//
//	backend := cpu.New()
//	block := nn.NewBlock(nn.BlockConfig{
//	    Dim:            64,
//	    PoolSize:       3,
//	    MLPRatio:       4.0,
//	    UseLayerScale:  true,
//	    LayerScaleInit: 1e-5,
//	    NormEps:        1e-5,
//	}, backend)
func NewBlock[B tensor.Backend](config BlockConfig, backend B) *Block[B] {
	return nn.NewBlock(config, backend)
}

// Sequential represents a sequential container of modules.
type Sequential[B tensor.Backend] = nn.Sequential[B]

// NewSequential creates a new sequential model.
//
// Example:
//
//	backend := cpu.New()
//	stage := nn.NewSequential(
//	    nn.NewBlock(cfg, backend),
//	    nn.NewBlock(cfg, backend),
//	)
func NewSequential[B tensor.Backend](modules ...Module[B]) *Sequential[B] {
	return nn.NewSequential(modules...)
}

// Initialization functions

// TruncNormal initializes a tensor from a truncated normal
// distribution (mean 0, samples beyond two standard deviations
// re-drawn). This is the weight initialization of every projection in
// the backbone, with std 0.02.
//
// Example:
//
//	backend := cpu.New()
//	weights := nn.TruncNormal(tensor.Shape{64, 3, 7, 7}, 0.02, backend)
func TruncNormal[B tensor.Backend](shape tensor.Shape, std float64, backend B) *tensor.Tensor[float32, B] {
	return nn.TruncNormal(shape, std, backend)
}

// Zeros initializes a tensor with zeros (for biases).
//
// Example:
//
//	backend := cpu.New()
//	bias := nn.Zeros(tensor.Shape{64}, backend)
func Zeros[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Zeros(shape, backend)
}

// Ones initializes a tensor with ones (for normalization scales).
//
// Example:
//
//	backend := cpu.New()
//	scale := nn.Ones(tensor.Shape{64}, backend)
func Ones[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Ones(shape, backend)
}

// Utility functions

// MergeStateDict copies every entry of src into dst under the given
// prefix. Composite modules use it to assemble their children's state
// dictionaries ("mlp." + "fc1.weight" -> "mlp.fc1.weight").
func MergeStateDict(dst map[string]*tensor.RawTensor, prefix string, src map[string]*tensor.RawTensor) {
	nn.MergeStateDict(dst, prefix, src)
}

// SubStateDict extracts the entries of sd under the given prefix with
// the prefix stripped, for routing checkpoint slices to child modules.
func SubStateDict(sd map[string]*tensor.RawTensor, prefix string) map[string]*tensor.RawTensor {
	return nn.SubStateDict(sd, prefix)
}
