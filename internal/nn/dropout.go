package nn

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/poolformer/internal/tensor"
)

// Dropout randomly zeroes elements of its input during training.
//
// Each element is zeroed independently with probability p; survivors
// are scaled by 1/(1-p) so the expected activation is unchanged
// (inverted dropout). In evaluation mode, or with p == 0, the module is
// the identity.
//
// The channel MLP applies it after the activation and after the second
// projection.
type Dropout[B tensor.Backend] struct {
	p        float64
	training bool
	backend  B
}

// NewDropout creates a Dropout module with drop probability p in [0, 1].
// Modules start in evaluation mode.
func NewDropout[B tensor.Backend](p float64, backend B) *Dropout[B] {
	if p < 0 || p > 1 {
		panic(fmt.Sprintf("dropout: probability must be in [0, 1], got %g", p))
	}

	return &Dropout[B]{
		p:       p,
		backend: backend,
	}
}

// SetTraining switches between training (stochastic) and evaluation
// (identity) behavior.
func (d *Dropout[B]) SetTraining(training bool) {
	d.training = training
}

// Training reports whether the module is in training mode.
func (d *Dropout[B]) Training() bool {
	return d.training
}

// Forward applies dropout.
func (d *Dropout[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if !d.training || d.p == 0 {
		return input
	}
	if d.p >= 1 {
		return input.MulScalar(0)
	}

	keep := 1.0 - d.p
	scale := float32(1.0 / keep)

	mask, err := tensor.NewRaw(input.Shape(), tensor.Float32, d.backend.Device())
	if err != nil {
		panic(fmt.Sprintf("dropout: %v", err))
	}
	maskData := mask.AsFloat32()
	for i := range maskData {
		if rand.Float64() < keep { //nolint:gosec // G404: ML uses math/rand intentionally for reproducibility
			maskData[i] = scale
		}
	}

	return input.Mul(tensor.New[float32, B](mask, d.backend))
}

// Parameters returns an empty slice (Dropout has no trainable parameters).
func (d *Dropout[B]) Parameters() []*Parameter[B] {
	return nil
}

// StateDict returns an empty map.
func (d *Dropout[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{}
}

// LoadStateDict is a no-op.
func (d *Dropout[B]) LoadStateDict(_ map[string]*tensor.RawTensor) error {
	return nil
}
