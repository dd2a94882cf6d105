package nn

import (
	"fmt"

	"github.com/born-ml/poolformer/internal/tensor"
)

// Parameter represents a named parameter tensor of a module.
//
// Parameters hold the weights, biases, normalization affines, and layer
// scales of the backbone. They are what StateDict serializes and what
// checkpoint loading overwrites.
//
// Example:
//
//	weight := nn.NewParameter("weight", weightTensor)
//	w := weight.Tensor()
type Parameter[B tensor.Backend] struct {
	name   string                     // Parameter name (e.g., "weight", "layer_scale_1")
	tensor *tensor.Tensor[float32, B] // The parameter tensor
}

// NewParameter creates a new parameter.
//
// The parameter tensor should be initialized before creating the Parameter.
//
// Parameters:
//   - name: Descriptive name for this parameter (e.g., "fc1.weight")
//   - t: The initialized parameter tensor
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return &Parameter[B]{
		name:   name,
		tensor: t,
	}
}

// Name returns the parameter name.
func (p *Parameter[B]) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter[B]) Tensor() *tensor.Tensor[float32, B] {
	return p.tensor
}

// Load copies src into the parameter after validating shape and dtype.
// This is the single write path checkpoint loading goes through.
func (p *Parameter[B]) Load(src *tensor.RawTensor) error {
	dst := p.tensor.Raw()
	if !src.Shape().Equal(dst.Shape()) {
		return fmt.Errorf("shape mismatch: expected %v, got %v", dst.Shape(), src.Shape())
	}
	if src.DType() != tensor.Float32 {
		return fmt.Errorf("dtype mismatch: expected float32, got %v", src.DType())
	}
	copy(dst.AsFloat32(), src.AsFloat32())
	return nil
}

// loadParam looks up key in the state dictionary and loads it into p,
// wrapping any failure with the key name.
func loadParam[B tensor.Backend](sd map[string]*tensor.RawTensor, key string, p *Parameter[B]) error {
	raw, ok := sd[key]
	if !ok {
		return fmt.Errorf("missing %s in state dict", key)
	}
	if err := p.Load(raw); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}
