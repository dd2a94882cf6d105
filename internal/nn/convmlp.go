package nn

import (
	"fmt"

	"github.com/born-ml/poolformer/internal/tensor"
)

// ConvMLP implements the channel MLP of the residual block.
//
// Architecture:
//
//	ConvMLP(x) = Dropout(FC2(Dropout(GELU(FC1(x)))))
//
// Where:
//   - FC1: 1x1 convolution [in_channels → hidden] (expansion)
//   - GELU: activation function
//   - FC2: 1x1 convolution [hidden → out_channels] (projection back)
//
// Both projections are 1x1 convolutions rather than Linear layers so
// the MLP acts position-wise on [B, C, H, W] feature maps without any
// reshaping: the same expansion-and-projection pattern as a transformer
// FFN, expressed on the channel dimension.
//
// Example:
//
//	mlp := nn.NewConvMLP(64, 256, 64, 0.0, backend) // 4x expansion
//	output := mlp.Forward(x) // [B, 64, H, W] -> [B, 64, H, W]
type ConvMLP[B tensor.Backend] struct {
	FC1  *Conv2D[B] // [in_channels → hidden], 1x1
	Act  *GELU[B]
	FC2  *Conv2D[B] // [hidden → out_channels], 1x1
	Drop *Dropout[B]

	backend B
}

// NewConvMLP creates a channel MLP.
//
// Parameters:
//   - inChannels: input channel count
//   - hidden: hidden channel count (typically 4 * inChannels)
//   - outChannels: output channel count (typically inChannels)
//   - dropRate: dropout probability applied after the activation and
//     after the second projection
//   - backend: computation backend
func NewConvMLP[B tensor.Backend](inChannels, hidden, outChannels int, dropRate float64, backend B) *ConvMLP[B] {
	if inChannels <= 0 || hidden <= 0 || outChannels <= 0 {
		panic(fmt.Sprintf("convmlp: invalid channels in=%d, hidden=%d, out=%d", inChannels, hidden, outChannels))
	}

	return &ConvMLP[B]{
		FC1:     NewConv2D(inChannels, hidden, 1, 1, 1, 0, true, backend),
		Act:     NewGELU[B](),
		FC2:     NewConv2D(hidden, outChannels, 1, 1, 1, 0, true, backend),
		Drop:    NewDropout(dropRate, backend),
		backend: backend,
	}
}

// Forward computes the MLP output.
//
// Shapes:
//   - input: [B, in_channels, H, W]
//   - output: [B, out_channels, H, W]
func (m *ConvMLP[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	x = m.FC1.Forward(x)
	x = m.Act.Forward(x)
	x = m.Drop.Forward(x)
	x = m.FC2.Forward(x)
	x = m.Drop.Forward(x)
	return x
}

// SetTraining propagates the training flag to the dropout.
func (m *ConvMLP[B]) SetTraining(training bool) {
	m.Drop.SetTraining(training)
}

// Parameters returns all trainable parameters (FC1 and FC2).
func (m *ConvMLP[B]) Parameters() []*Parameter[B] {
	params := make([]*Parameter[B], 0, 4)
	params = append(params, m.FC1.Parameters()...)
	params = append(params, m.FC2.Parameters()...)
	return params
}

// StateDict returns the parameters keyed "fc1.weight", "fc1.bias",
// "fc2.weight", "fc2.bias".
func (m *ConvMLP[B]) StateDict() map[string]*tensor.RawTensor {
	sd := make(map[string]*tensor.RawTensor)
	MergeStateDict(sd, "fc1.", m.FC1.StateDict())
	MergeStateDict(sd, "fc2.", m.FC2.StateDict())
	return sd
}

// LoadStateDict loads both projections from a state dictionary.
func (m *ConvMLP[B]) LoadStateDict(sd map[string]*tensor.RawTensor) error {
	if err := m.FC1.LoadStateDict(SubStateDict(sd, "fc1.")); err != nil {
		return fmt.Errorf("fc1: %w", err)
	}
	if err := m.FC2.LoadStateDict(SubStateDict(sd, "fc2.")); err != nil {
		return fmt.Errorf("fc2: %w", err)
	}
	return nil
}
