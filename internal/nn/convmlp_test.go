package nn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/poolformer/internal/backend/cpu"
	"github.com/born-ml/poolformer/internal/tensor"
)

// TestConvMLP_ForwardValues tests fc2(gelu(fc1(x))) against a manual
// computation on a single position.
func TestConvMLP_ForwardValues(t *testing.T) {
	backend := cpu.New()
	mlp := NewConvMLP(1, 2, 1, 0.0, backend)

	// fc1: 1 -> 2 channels, fc2: 2 -> 1
	copy(mlp.FC1.weight.Tensor().Data(), []float32{0.5, -0.5})
	copy(mlp.FC1.bias.Tensor().Data(), []float32{0.1, 0.2})
	copy(mlp.FC2.weight.Tensor().Data(), []float32{1.0, 2.0})
	copy(mlp.FC2.bias.Tensor().Data(), []float32{0.05})

	input, err := tensor.FromSlice[float32]([]float32{2.0}, tensor.Shape{1, 1, 1, 1}, backend)
	require.NoError(t, err)

	output := mlp.Forward(input)

	// h = [0.5*2 + 0.1, -0.5*2 + 0.2] = [1.1, -0.8]
	// out = 1.0*gelu(1.1) + 2.0*gelu(-0.8) + 0.05
	expected := geluRef(1.1) + 2.0*geluRef(-0.8) + 0.05
	assert.InDelta(t, expected, output.Data()[0], 1e-4)
}

// TestConvMLP_Shape tests that the expansion and projection restore
// the channel count position-wise.
func TestConvMLP_Shape(t *testing.T) {
	backend := cpu.New()
	mlp := NewConvMLP(4, 16, 4, 0.0, backend)

	input := tensor.Randn[float32](tensor.Shape{2, 4, 5, 5}, backend)
	output := mlp.Forward(input)

	assert.True(t, output.Shape().Equal(tensor.Shape{2, 4, 5, 5}),
		"output shape = %v", output.Shape())

	// fc1 weight/bias + fc2 weight/bias
	assert.Len(t, mlp.Parameters(), 4)
	assert.True(t, mlp.FC1.weight.Tensor().Shape().Equal(tensor.Shape{16, 4, 1, 1}))
	assert.True(t, mlp.FC2.weight.Tensor().Shape().Equal(tensor.Shape{4, 16, 1, 1}))
}

// TestConvMLP_DropoutModes tests that training-mode dropout at rate 1
// zeroes the output and that evaluation mode ignores the rate.
func TestConvMLP_DropoutModes(t *testing.T) {
	backend := cpu.New()
	mlp := NewConvMLP(2, 8, 2, 1.0, backend)

	input := tensor.Randn[float32](tensor.Shape{1, 2, 3, 3}, backend)

	// Evaluation mode: dropout disabled regardless of rate.
	evalOut := mlp.Forward(input).Data()

	mlp.SetTraining(true)
	trainOut := mlp.Forward(input).Data()
	for i, v := range trainOut {
		assert.Equal(t, float32(0), v, "training output[%d] with rate 1", i)
	}

	mlp.SetTraining(false)
	evalOut2 := mlp.Forward(input).Data()
	assert.Equal(t, evalOut, evalOut2)
}

// TestConvMLP_StateDict tests key naming and the load round trip.
func TestConvMLP_StateDict(t *testing.T) {
	backend := cpu.New()
	src := NewConvMLP(2, 4, 2, 0.0, backend)

	sd := src.StateDict()
	for _, key := range []string{"fc1.weight", "fc1.bias", "fc2.weight", "fc2.bias"} {
		_, ok := sd[key]
		assert.True(t, ok, "StateDict missing %q", key)
	}
	assert.Len(t, sd, 4)

	dst := NewConvMLP(2, 4, 2, 0.0, backend)
	require.NoError(t, dst.LoadStateDict(sd))

	input := tensor.Randn[float32](tensor.Shape{1, 2, 2, 2}, backend)
	srcOut := src.Forward(input).Data()
	dstOut := dst.Forward(input).Data()
	for i := range srcOut {
		assert.InDelta(t, srcOut[i], dstOut[i], 1e-6, "position %d", i)
	}

	// Mismatched hidden width must fail to load.
	wrong := NewConvMLP(2, 8, 2, 0.0, backend)
	err := wrong.LoadStateDict(sd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shape mismatch")
}
