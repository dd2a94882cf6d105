package nn

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/poolformer/internal/tensor"
)

// DropPath implements stochastic depth over residual branches.
//
// Training mode with rate p: each sample in the batch independently has
// its entire branch output zeroed with probability p; surviving samples
// are rescaled by 1/(1-p). A rate of 1 or more zeroes every sample
// without rescaling. In evaluation mode, or with rate 0, the module is
// the identity.
//
// Unlike Dropout, the decision is per sample, not per element: the
// [N, C, H, W] input is multiplied by a broadcast [N, 1, 1, 1] mask,
// so a dropped sample skips the whole residual branch.
type DropPath[B tensor.Backend] struct {
	rate     float64
	training bool
	backend  B
}

// NewDropPath creates a DropPath module with the given drop rate.
// Modules start in evaluation mode.
func NewDropPath[B tensor.Backend](rate float64, backend B) *DropPath[B] {
	if rate < 0 {
		panic(fmt.Sprintf("droppath: rate must be non-negative, got %g", rate))
	}

	return &DropPath[B]{
		rate:    rate,
		backend: backend,
	}
}

// SetTraining switches between training (stochastic) and evaluation
// (identity) behavior.
func (d *DropPath[B]) SetTraining(training bool) {
	d.training = training
}

// Training reports whether the module is in training mode.
func (d *DropPath[B]) Training() bool {
	return d.training
}

// Rate returns the drop rate.
func (d *DropPath[B]) Rate() float64 {
	return d.rate
}

// Forward applies stochastic depth to a branch output.
func (d *DropPath[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if !d.training || d.rate == 0 {
		return input
	}
	if d.rate >= 1 {
		return input.MulScalar(0)
	}

	inputShape := input.Shape()
	if len(inputShape) != 4 {
		panic(fmt.Sprintf("droppath: expected 4D input [N,C,H,W], got %dD", len(inputShape)))
	}

	keep := 1.0 - d.rate
	scale := float32(1.0 / keep)

	mask, err := tensor.NewRaw(tensor.Shape{inputShape[0], 1, 1, 1}, tensor.Float32, d.backend.Device())
	if err != nil {
		panic(fmt.Sprintf("droppath: %v", err))
	}
	maskData := mask.AsFloat32()
	for i := range maskData {
		if rand.Float64() < keep { //nolint:gosec // G404: ML uses math/rand intentionally for reproducibility
			maskData[i] = scale
		}
	}

	return input.Mul(tensor.New[float32, B](mask, d.backend))
}

// Parameters returns an empty slice (DropPath has no trainable parameters).
func (d *DropPath[B]) Parameters() []*Parameter[B] {
	return nil
}

// StateDict returns an empty map.
func (d *DropPath[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{}
}

// LoadStateDict is a no-op.
func (d *DropPath[B]) LoadStateDict(_ map[string]*tensor.RawTensor) error {
	return nil
}
