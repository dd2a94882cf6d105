package nn

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/poolformer/internal/backend/cpu"
	"github.com/born-ml/poolformer/internal/tensor"
)

// TestGroupNorm_Statistics tests that the default affine (weight=1,
// bias=0) produces zero mean and unit variance per sample.
func TestGroupNorm_Statistics(t *testing.T) {
	backend := cpu.New()
	norm := NewGroupNorm(2, 1e-5, backend)

	// Two samples with different scales; each must be normalized with
	// its own statistics over the full 2x2x2 channel volume.
	input, err := tensor.FromSlice[float32](
		[]float32{
			1, 2, 3, 4, 5, 6, 7, 8, // sample 0
			10, 30, 50, 70, 90, 110, 130, 150, // sample 1
		},
		tensor.Shape{2, 2, 2, 2},
		backend,
	)
	require.NoError(t, err)

	output := norm.Forward(input)
	outputData := output.Data()

	for sample := 0; sample < 2; sample++ {
		vals := outputData[sample*8 : (sample+1)*8]

		var mean float64
		for _, v := range vals {
			mean += float64(v)
		}
		mean /= 8

		var variance float64
		for _, v := range vals {
			d := float64(v) - mean
			variance += d * d
		}
		variance /= 8

		assert.InDelta(t, 0.0, mean, 1e-5, "sample %d mean", sample)
		assert.InDelta(t, 1.0, variance, 1e-3, "sample %d variance", sample)
	}
}

// TestGroupNorm_ForwardValues tests the full formula against a manual
// computation, including a non-trivial per-channel affine.
func TestGroupNorm_ForwardValues(t *testing.T) {
	backend := cpu.New()
	norm := NewGroupNorm(2, 1e-5, backend)

	// weight = [2, -1], bias = [0.5, 1]
	copy(norm.Weight.Tensor().Data(), []float32{2, -1})
	copy(norm.Bias.Tensor().Data(), []float32{0.5, 1})

	values := []float32{1, 2, 3, 4, 5, 6, 7, 8}
	input, err := tensor.FromSlice[float32](values, tensor.Shape{1, 2, 2, 2}, backend)
	require.NoError(t, err)

	output := norm.Forward(input)
	outputData := output.Data()

	// mean = 4.5, biased variance = 5.25 over the 8-element volume
	mean := 4.5
	invStd := 1.0 / math.Sqrt(5.25+1e-5)
	weight := []float64{2, -1}
	bias := []float64{0.5, 1}

	for i, v := range values {
		channel := (i / 4) % 2
		normed := (float64(v) - mean) * invStd
		expected := weight[channel]*normed + bias[channel]
		assert.InDelta(t, expected, outputData[i], 1e-4, "position %d", i)
	}
}

// TestGroupNorm_ShiftScaleInvariance tests that shifting and scaling a
// sample leaves the normalized output unchanged.
func TestGroupNorm_ShiftScaleInvariance(t *testing.T) {
	backend := cpu.New()
	norm := NewGroupNorm(3, 1e-5, backend)

	base := tensor.Randn[float32](tensor.Shape{1, 3, 4, 4}, backend)
	shifted := base.MulScalar(10).AddScalar(-3)

	outBase := norm.Forward(base).Data()
	outShifted := norm.Forward(shifted).Data()

	for i := range outBase {
		assert.InDelta(t, outBase[i], outShifted[i], 1e-3, "position %d", i)
	}
}

// TestGroupNorm_Parameters tests parameter initialization and shapes.
func TestGroupNorm_Parameters(t *testing.T) {
	backend := cpu.New()
	norm := NewGroupNorm(4, 1e-5, backend)

	params := norm.Parameters()
	require.Len(t, params, 2)

	assert.True(t, norm.Weight.Tensor().Shape().Equal(tensor.Shape{4}))
	assert.True(t, norm.Bias.Tensor().Shape().Equal(tensor.Shape{4}))
	assert.Equal(t, 4, norm.NumChannels())

	// weight starts at ones, bias at zeros
	for i, v := range norm.Weight.Tensor().Data() {
		assert.Equal(t, float32(1), v, "weight[%d]", i)
	}
	for i, v := range norm.Bias.Tensor().Data() {
		assert.Equal(t, float32(0), v, "bias[%d]", i)
	}
}

// TestGroupNorm_StateDict tests the save/load round trip.
func TestGroupNorm_StateDict(t *testing.T) {
	backend := cpu.New()

	src := NewGroupNorm(2, 1e-5, backend)
	copy(src.Weight.Tensor().Data(), []float32{2.5, 0.5})
	copy(src.Bias.Tensor().Data(), []float32{-1, 1})

	dst := NewGroupNorm(2, 1e-5, backend)
	require.NoError(t, dst.LoadStateDict(src.StateDict()))

	assert.Equal(t, []float32{2.5, 0.5}, dst.Weight.Tensor().Data())
	assert.Equal(t, []float32{-1, 1}, dst.Bias.Tensor().Data())

	// Missing keys are errors.
	err := dst.LoadStateDict(map[string]*tensor.RawTensor{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing weight")
}
