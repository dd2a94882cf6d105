package nn

import (
	"fmt"

	"github.com/born-ml/poolformer/internal/tensor"
)

// Linear is a fully connected layer computing y = x @ W.T + b. The
// weight is stored [out_features, in_features] and the bias
// [out_features], matching the layout classifier checkpoints use.
//
// The backbone has exactly one Linear, the classifier head that turns
// pooled features into class logits:
//
//	head := nn.NewLinear(512, 1000, backend)
//	logits := head.Forward(pooled) // [8, 512] -> [8, 1000]
type Linear[B tensor.Backend] struct {
	inFeatures  int
	outFeatures int
	weight      *Parameter[B]
	bias        *Parameter[B]
	backend     B
}

// NewLinear builds a Linear layer with truncated-normal weights
// (std 0.02) and zero bias.
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, backend B) *Linear[B] {
	if inFeatures <= 0 || outFeatures <= 0 {
		panic(fmt.Sprintf("linear: invalid features in=%d, out=%d", inFeatures, outFeatures))
	}

	return &Linear[B]{
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		weight:      NewParameter("weight", TruncNormal(tensor.Shape{outFeatures, inFeatures}, weightInitStd, backend)),
		bias:        NewParameter("bias", Zeros(tensor.Shape{outFeatures}, backend)),
		backend:     backend,
	}
}

// Forward maps [batch, in_features] to [batch, out_features].
func (l *Linear[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("linear: want 2D input [batch, features], have %v", shape))
	}
	if shape[1] != l.inFeatures {
		panic(fmt.Sprintf("linear: input has %d features, layer wants %d", shape[1], l.inFeatures))
	}

	y := input.MatMul(l.weight.Tensor().Transpose())
	return y.Add(l.bias.Tensor().Reshape(1, l.outFeatures))
}

// Parameters returns the weight and bias.
func (l *Linear[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{l.weight, l.bias}
}

func (l *Linear[B]) Weight() *Parameter[B] { return l.weight }
func (l *Linear[B]) Bias() *Parameter[B]   { return l.bias }
func (l *Linear[B]) InFeatures() int       { return l.inFeatures }
func (l *Linear[B]) OutFeatures() int      { return l.outFeatures }

// StateDict returns the layer's tensors keyed "weight" and "bias".
func (l *Linear[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{
		"weight": l.weight.Tensor().Raw(),
		"bias":   l.bias.Tensor().Raw(),
	}
}

// LoadStateDict replaces both parameters from a state dictionary.
func (l *Linear[B]) LoadStateDict(sd map[string]*tensor.RawTensor) error {
	if err := loadParam(sd, "weight", l.weight); err != nil {
		return err
	}
	return loadParam(sd, "bias", l.bias)
}
