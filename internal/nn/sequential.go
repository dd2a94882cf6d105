package nn

import (
	"fmt"

	"github.com/born-ml/poolformer/internal/tensor"
)

// Sequential chains modules, feeding each output into the next input.
// The backbone uses one Sequential per stage to hold that stage's
// residual blocks, built incrementally:
//
//	stage := nn.NewSequential[Backend]()
//	for j := 0; j < depth; j++ {
//	    stage.Add(nn.NewBlock(blockConfig(j), backend))
//	}
type Sequential[B tensor.Backend] struct {
	modules []Module[B]
}

// NewSequential builds a chain from the given modules, in order.
func NewSequential[B tensor.Backend](modules ...Module[B]) *Sequential[B] {
	return &Sequential[B]{modules: modules}
}

// Forward threads the input through every module in order.
func (s *Sequential[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	x := input
	for _, m := range s.modules {
		x = m.Forward(x)
	}
	return x
}

// Parameters collects the parameters of every contained module.
func (s *Sequential[B]) Parameters() []*Parameter[B] {
	var out []*Parameter[B]
	for _, m := range s.modules {
		out = append(out, m.Parameters()...)
	}
	return out
}

// SetTraining propagates the training flag to every contained module
// that carries stochastic state (dropout, drop path). Modules without
// a SetTraining method are left untouched.
func (s *Sequential[B]) SetTraining(training bool) {
	for _, m := range s.modules {
		if t, ok := m.(interface{ SetTraining(bool) }); ok {
			t.SetTraining(training)
		}
	}
}

// Add appends a module at the end of the chain.
func (s *Sequential[B]) Add(module Module[B]) {
	s.modules = append(s.modules, module)
}

// Len reports how many modules the chain holds.
func (s *Sequential[B]) Len() int { return len(s.modules) }

// Module returns the module at position index, panicking when the
// index is out of range.
func (s *Sequential[B]) Module(index int) Module[B] {
	if index < 0 || index >= len(s.modules) {
		panic(fmt.Sprintf("sequential: module index %d out of range [0, %d)", index, len(s.modules)))
	}
	return s.modules[index]
}

// StateDict flattens every module's parameters under its position in
// the chain: "0.norm1.weight", "1.mlp.fc1.bias".
func (s *Sequential[B]) StateDict() map[string]*tensor.RawTensor {
	sd := make(map[string]*tensor.RawTensor)
	for i, m := range s.modules {
		MergeStateDict(sd, fmt.Sprintf("%d.", i), m.StateDict())
	}
	return sd
}

// LoadStateDict routes index-prefixed entries back to the contained
// modules. Modules with no entries in the dictionary, such as a
// parameter-free token mixer, are skipped.
func (s *Sequential[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	for i, m := range s.modules {
		sub := SubStateDict(stateDict, fmt.Sprintf("%d.", i))
		if len(sub) == 0 {
			continue
		}
		if err := m.LoadStateDict(sub); err != nil {
			return fmt.Errorf("module %d: %w", i, err)
		}
	}
	return nil
}
