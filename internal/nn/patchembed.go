package nn

import (
	"fmt"

	"github.com/born-ml/poolformer/internal/tensor"
)

// PatchEmbed embeds an image or feature map with one strided
// convolution, optionally followed by a normalization (identity by
// default).
//
// Input shape:  [batch, in_channels, height, width]
// Output shape: [batch, embed_dim, out_h, out_w]
//
// Where:
//
//	out_h = (height + 2*padding - patch_size) / stride + 1
//
// The backbone uses two configurations: the stem (patch 7, stride 4,
// padding 2, quartering the resolution) and the between-stage
// downsamplers (patch 3, stride 2, padding 1, halving it).
//
// Example:
//
//	stem := nn.NewPatchEmbed(7, 4, 2, 3, 64, backend)
//	output := stem.Forward(images) // [1, 3, 224, 224] -> [1, 64, 56, 56]
type PatchEmbed[B tensor.Backend] struct {
	Proj *Conv2D[B]    // strided projection
	Norm Normalizer[B] // identity unless replaced

	backend B
}

// NewPatchEmbed creates a patch embedding.
//
// Parameters:
//   - patchSize: square kernel size of the projection
//   - stride: projection stride (the downsampling factor)
//   - padding: zero padding applied to the input
//   - inChans: input channel count
//   - embedDim: output channel count
//   - backend: computation backend
//
// The Norm field starts as Identity; assign a Normalizer to normalize
// embeddings in place.
func NewPatchEmbed[B tensor.Backend](patchSize, stride, padding, inChans, embedDim int, backend B) *PatchEmbed[B] {
	return &PatchEmbed[B]{
		Proj:    NewConv2D(inChans, embedDim, patchSize, patchSize, stride, padding, true, backend),
		Norm:    NewIdentity[B](),
		backend: backend,
	}
}

// Forward projects and normalizes the input.
//
// Input: [batch, in_channels, height, width]
// Output: [batch, embed_dim, out_h, out_w].
func (p *PatchEmbed[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	x := p.Proj.Forward(input)
	return p.Norm.Forward(x)
}

// Parameters returns the projection and norm parameters.
func (p *PatchEmbed[B]) Parameters() []*Parameter[B] {
	params := p.Proj.Parameters()
	return append(params, p.Norm.Parameters()...)
}

// EmbedDim returns the output channel count.
func (p *PatchEmbed[B]) EmbedDim() int {
	return p.Proj.OutChannels()
}

// ComputeOutputSize computes output spatial dimensions for given input size.
func (p *PatchEmbed[B]) ComputeOutputSize(inputH, inputW int) [2]int {
	return p.Proj.ComputeOutputSize(inputH, inputW)
}

// StateDict returns the parameters keyed under "proj." and, when the
// norm carries parameters, "norm.".
func (p *PatchEmbed[B]) StateDict() map[string]*tensor.RawTensor {
	sd := make(map[string]*tensor.RawTensor)
	MergeStateDict(sd, "proj.", p.Proj.StateDict())
	MergeStateDict(sd, "norm.", p.Norm.StateDict())
	return sd
}

// LoadStateDict loads the projection and the norm.
func (p *PatchEmbed[B]) LoadStateDict(sd map[string]*tensor.RawTensor) error {
	if err := p.Proj.LoadStateDict(SubStateDict(sd, "proj.")); err != nil {
		return fmt.Errorf("proj: %w", err)
	}
	if err := p.Norm.LoadStateDict(SubStateDict(sd, "norm.")); err != nil {
		return fmt.Errorf("norm: %w", err)
	}
	return nil
}
