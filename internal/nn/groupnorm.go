package nn

import (
	"fmt"

	"github.com/born-ml/poolformer/internal/tensor"
)

// GroupNorm applies single-group group normalization over a 4D tensor.
//
// Formula: Y = weight * (X - mean(X)) / sqrt(var(X) + eps) + bias
//
// Where:
//   - mean and variance are computed per sample over the entire
//     flattened C*H*W volume (one group spanning all channels)
//   - weight is the learnable per-channel scale [C]
//   - bias is the learnable per-channel shift [C]
//   - eps is a small value added to the variance before the square root
//
// Unlike LayerNorm over the last dimension, the statistics here couple
// every channel and spatial position of a sample, which keeps the norm
// independent of spatial resolution. This is the normalization used
// ahead of the token mixer, the channel MLP, and the classifier head.
//
// Example:
//
//	norm := nn.NewGroupNorm(64, 1e-5, backend)
//	output := norm.Forward(x) // [B, 64, H, W] -> [B, 64, H, W]
type GroupNorm[B tensor.Backend] struct {
	Weight  *Parameter[B] // learnable per-channel scale [C]
	Bias    *Parameter[B] // learnable per-channel shift [C]
	Epsilon float32       // numerical stability constant

	numChannels int
	backend     B
}

// NewGroupNorm creates a single-group GroupNorm layer over numChannels
// channels.
//
// Parameters:
//   - numChannels: channel count C of the [B, C, H, W] inputs
//   - epsilon: small constant for numerical stability (typically 1e-5)
//   - backend: computation backend
//
// The weight parameter is initialized to ones, bias to zeros.
func NewGroupNorm[B tensor.Backend](numChannels int, epsilon float32, backend B) *GroupNorm[B] {
	if numChannels <= 0 {
		panic(fmt.Sprintf("GroupNorm: numChannels must be positive, got %d", numChannels))
	}
	if epsilon <= 0 {
		panic(fmt.Sprintf("GroupNorm: epsilon must be positive, got %g", epsilon))
	}

	weight := tensor.Ones[float32](tensor.Shape{numChannels}, backend)
	bias := tensor.Zeros[float32](tensor.Shape{numChannels}, backend)

	return &GroupNorm[B]{
		Weight:      NewParameter("weight", weight),
		Bias:        NewParameter("bias", bias),
		Epsilon:     epsilon,
		numChannels: numChannels,
		backend:     backend,
	}
}

// Forward applies GroupNorm to the input tensor.
//
// Shapes:
//   - input: [B, C, H, W]
//   - output: [B, C, H, W]
//
// Algorithm:
//  1. Flatten to [B, C*H*W] and compute the per-sample mean (keepdim)
//  2. Subtract mean: x_centered = x - mean
//  3. Compute variance = mean((x - mean)^2) over the same volume
//  4. Normalize: x_norm = x_centered * rsqrt(variance + epsilon)
//  5. Reshape back and apply the per-channel affine: weight * x_norm + bias
func (g *GroupNorm[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := x.Shape()
	if len(shape) != 4 {
		panic(fmt.Sprintf("GroupNorm.Forward: expected 4D input [N,C,H,W], got shape %v", shape))
	}
	if shape[1] != g.numChannels {
		panic(fmt.Sprintf("GroupNorm.Forward: input channels %d != expected %d", shape[1], g.numChannels))
	}
	n, c, h, w := shape[0], shape[1], shape[2], shape[3]

	// Per-sample statistics over the whole channel volume
	flat := x.Reshape(n, c*h*w)
	mean := flat.MeanDim(-1, true) // [N, 1]
	centered := flat.Sub(mean)

	variance := centered.Mul(centered).MeanDim(-1, true) // [N, 1]
	invStd := variance.AddScalar(g.Epsilon).Rsqrt()

	normed := centered.Mul(invStd).Reshape(n, c, h, w)

	// Per-channel affine, broadcast over batch and spatial dims
	weight := g.Weight.Tensor().Reshape(1, c, 1, 1)
	bias := g.Bias.Tensor().Reshape(1, c, 1, 1)

	return normed.Mul(weight).Add(bias)
}

// Parameters returns the learnable parameters (weight and bias).
func (g *GroupNorm[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{g.Weight, g.Bias}
}

// NumChannels returns the channel count the layer normalizes over.
func (g *GroupNorm[B]) NumChannels() int {
	return g.numChannels
}

// StateDict returns the affine parameters keyed "weight" and "bias".
func (g *GroupNorm[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{
		"weight": g.Weight.Tensor().Raw(),
		"bias":   g.Bias.Tensor().Raw(),
	}
}

// LoadStateDict loads the affine parameters.
func (g *GroupNorm[B]) LoadStateDict(sd map[string]*tensor.RawTensor) error {
	if err := loadParam(sd, "weight", g.Weight); err != nil {
		return err
	}
	return loadParam(sd, "bias", g.Bias)
}
