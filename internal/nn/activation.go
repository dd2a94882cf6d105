package nn

import (
	"github.com/born-ml/poolformer/internal/tensor"
)

// GELUBackend is an interface for backends that support the GELU activation.
type GELUBackend interface {
	GELU(*tensor.RawTensor) *tensor.RawTensor
}

// GELU is a Gaussian Error Linear Unit activation module.
//
// Applies the element-wise function (tanh approximation):
//
//	f(x) = 0.5 * x * (1 + tanh(sqrt(2/pi) * (x + 0.044715 * x^3)))
//
// GELU is the activation between the two 1x1 convolutions of the
// channel MLP.
//
// Example:
//
//	gelu := nn.NewGELU[Backend]()
//	output := gelu.Forward(input)
type GELU[B tensor.Backend] struct{}

// NewGELU creates a new GELU activation module.
func NewGELU[B tensor.Backend]() *GELU[B] {
	return &GELU[B]{}
}

// Forward applies the GELU activation.
func (g *GELU[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	backend := input.Backend()

	// Check if backend supports GELU via interface
	if geluBackend, ok := any(backend).(GELUBackend); ok {
		resultRaw := geluBackend.GELU(input.Raw())
		return tensor.New[float32, B](resultRaw, backend)
	}

	panic("GELU: backend must implement GELU operation")
}

// Parameters returns an empty slice (GELU has no trainable parameters).
func (g *GELU[B]) Parameters() []*Parameter[B] {
	return nil
}

// StateDict returns an empty map.
func (g *GELU[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{}
}

// LoadStateDict is a no-op.
func (g *GELU[B]) LoadStateDict(_ map[string]*tensor.RawTensor) error {
	return nil
}
