package cpu

import (
	"testing"

	"github.com/born-ml/poolformer/internal/tensor"
)

func TestSumDim_1D(t *testing.T) {
	backend := New()

	x, _ := tensor.NewRaw(tensor.Shape{4}, tensor.Float32, backend.Device())
	xData := x.AsFloat32()
	xData[0] = 1.5
	xData[1] = 2.5
	xData[2] = 3.0
	xData[3] = 3.0

	// Sum along dim 0 with keepDim=true -> [1]
	result := backend.SumDim(x, 0, true)
	if !result.Shape().Equal(tensor.Shape{1}) {
		t.Errorf("Expected shape [1], got %v", result.Shape())
	}
	if result.AsFloat32()[0] != 10.0 {
		t.Errorf("Expected 10, got %v", result.AsFloat32()[0])
	}

	// Sum along dim 0 with keepDim=false -> scalar []
	result = backend.SumDim(x, 0, false)
	if len(result.Shape()) != 0 {
		t.Errorf("Expected scalar shape [], got %v", result.Shape())
	}
	if result.AsFloat32()[0] != 10.0 {
		t.Errorf("Expected 10, got %v", result.AsFloat32()[0])
	}
}

func TestSumDim_2D(t *testing.T) {
	backend := New()

	x, _ := tensor.NewRaw(tensor.Shape{2, 3}, tensor.Float32, backend.Device())
	xData := x.AsFloat32()
	// Row 0: [10, 20, 30]
	// Row 1: [1, 2, 3]
	copy(xData, []float32{10, 20, 30, 1, 2, 3})

	// Sum along last dim with keepDim=true -> [2, 1]
	result := backend.SumDim(x, -1, true)
	if !result.Shape().Equal(tensor.Shape{2, 1}) {
		t.Errorf("Expected shape [2, 1], got %v", result.Shape())
	}
	resultData := result.AsFloat32()
	if resultData[0] != 60 || resultData[1] != 6 {
		t.Errorf("Expected [60, 6], got %v", resultData)
	}

	// Sum along dim 0 with keepDim=false -> [3]
	result = backend.SumDim(x, 0, false)
	if !result.Shape().Equal(tensor.Shape{3}) {
		t.Errorf("Expected shape [3], got %v", result.Shape())
	}
	resultData = result.AsFloat32()
	expected := []float32{11, 22, 33}
	for i, exp := range expected {
		if resultData[i] != exp {
			t.Errorf("Index %d: expected %v, got %v", i, exp, resultData[i])
		}
	}
}

func TestSumDim_3D(t *testing.T) {
	backend := New()

	x, _ := tensor.NewRaw(tensor.Shape{2, 2, 3}, tensor.Float32, backend.Device())
	xData := x.AsFloat32()
	for i := range xData {
		xData[i] = float32(i + 1)
	}

	// Sum along last dim with keepDim=true -> [2, 2, 1]
	result := backend.SumDim(x, -1, true)
	if !result.Shape().Equal(tensor.Shape{2, 2, 1}) {
		t.Errorf("Expected shape [2, 2, 1], got %v", result.Shape())
	}
	resultData := result.AsFloat32()
	expected := []float32{6, 15, 24, 33}
	for i, exp := range expected {
		if resultData[i] != exp {
			t.Errorf("Index %d: expected %v, got %v", i, exp, resultData[i])
		}
	}

	// Sum along middle dim with keepDim=false -> [2, 3]
	result = backend.SumDim(x, 1, false)
	if !result.Shape().Equal(tensor.Shape{2, 3}) {
		t.Errorf("Expected shape [2, 3], got %v", result.Shape())
	}
	resultData = result.AsFloat32()
	expected = []float32{5, 7, 9, 17, 19, 21}
	for i, exp := range expected {
		if resultData[i] != exp {
			t.Errorf("Index %d: expected %v, got %v", i, exp, resultData[i])
		}
	}
}

// TestMeanDim_GlobalPoolPattern runs the classifier-head reduction: a
// [B, C, H*W] tensor averaged over its last dim leaves per-channel means.
func TestMeanDim_GlobalPoolPattern(t *testing.T) {
	backend := New()

	x, _ := tensor.NewRaw(tensor.Shape{1, 2, 4}, tensor.Float32, backend.Device())
	xData := x.AsFloat32()
	// Channel 0: [2, 4, 6, 8], channel 1: [1, 1, 1, 5]
	copy(xData, []float32{2, 4, 6, 8, 1, 1, 1, 5})

	result := backend.MeanDim(x, -1, false)
	if !result.Shape().Equal(tensor.Shape{1, 2}) {
		t.Errorf("Expected shape [1, 2], got %v", result.Shape())
	}

	resultData := result.AsFloat32()
	if resultData[0] != 5.0 {
		t.Errorf("Channel 0 mean: expected 5, got %v", resultData[0])
	}
	if resultData[1] != 2.0 {
		t.Errorf("Channel 1 mean: expected 2, got %v", resultData[1])
	}
}

// TestMeanDim_GroupNormPattern runs the normalization inner loop: mean
// over the flattened sample, centered squares, then variance.
func TestMeanDim_GroupNormPattern(t *testing.T) {
	backend := New()

	// Two samples flattened to 4 values each
	x, _ := tensor.NewRaw(tensor.Shape{2, 4}, tensor.Float32, backend.Device())
	copy(x.AsFloat32(), []float32{
		1, 2, 3, 4,
		2, 4, 6, 8,
	})

	mean := backend.MeanDim(x, -1, true)
	if !mean.Shape().Equal(tensor.Shape{2, 1}) {
		t.Fatalf("Expected mean shape [2, 1], got %v", mean.Shape())
	}
	meanData := mean.AsFloat32()
	if meanData[0] != 2.5 || meanData[1] != 5.0 {
		t.Errorf("Expected means [2.5, 5], got %v", meanData)
	}

	// Centered squares via broadcast Sub and Mul
	centered := backend.Sub(x, mean)
	squared := backend.Mul(centered, centered)
	variance := backend.MeanDim(squared, -1, true)

	// Row 0: [-1.5,-0.5,0.5,1.5] -> squares sum 5 -> variance 1.25
	// Row 1: [-3,-1,1,3] -> squares sum 20 -> variance 5
	varData := variance.AsFloat32()
	if varData[0] != 1.25 {
		t.Errorf("Row 0 variance: expected 1.25, got %v", varData[0])
	}
	if varData[1] != 5.0 {
		t.Errorf("Row 1 variance: expected 5, got %v", varData[1])
	}
}

func TestSumDim_NegativeDim(t *testing.T) {
	backend := New()

	x, _ := tensor.NewRaw(tensor.Shape{2, 3, 4}, tensor.Float32, backend.Device())
	xData := x.AsFloat32()
	for i := range xData {
		xData[i] = float32(i % 5)
	}

	// dim=-1 should be equivalent to dim=2
	result1 := backend.SumDim(x, -1, true)
	result2 := backend.SumDim(x, 2, true)

	if !result1.Shape().Equal(result2.Shape()) {
		t.Fatalf("Shapes don't match: dim=-1 gave %v, dim=2 gave %v", result1.Shape(), result2.Shape())
	}
	d1, d2 := result1.AsFloat32(), result2.AsFloat32()
	for i := range d1 {
		if d1[i] != d2[i] {
			t.Errorf("Index %d: dim=-1 gave %v, dim=2 gave %v", i, d1[i], d2[i])
		}
	}

	// dim=-2 should be equivalent to dim=1
	result3 := backend.SumDim(x, -2, false)
	result4 := backend.SumDim(x, 1, false)

	if !result3.Shape().Equal(result4.Shape()) {
		t.Errorf("Shapes don't match: dim=-2 gave %v, dim=1 gave %v", result3.Shape(), result4.Shape())
	}
}

func TestSumDim_Float64(t *testing.T) {
	backend := New()

	x, _ := tensor.NewRaw(tensor.Shape{2, 3}, tensor.Float64, backend.Device())
	xData := x.AsFloat64()
	copy(xData, []float64{0.5, 1.5, 2.5, 10, 20, 30})

	result := backend.SumDim(x, -1, true)
	if !result.Shape().Equal(tensor.Shape{2, 1}) {
		t.Errorf("Expected shape [2, 1], got %v", result.Shape())
	}

	resultData := result.AsFloat64()
	if resultData[0] != 4.5 {
		t.Errorf("Row 0: expected 4.5, got %v", resultData[0])
	}
	if resultData[1] != 60 {
		t.Errorf("Row 1: expected 60, got %v", resultData[1])
	}
}

func TestMeanDim_Float64(t *testing.T) {
	backend := New()

	x, _ := tensor.NewRaw(tensor.Shape{2, 4}, tensor.Float64, backend.Device())
	xData := x.AsFloat64()
	copy(xData, []float64{1, 3, 5, 7, 2, 2, 2, 2})

	result := backend.MeanDim(x, -1, true)
	resultData := result.AsFloat64()

	if resultData[0] != 4.0 {
		t.Errorf("Row 0: expected 4, got %v", resultData[0])
	}
	if resultData[1] != 2.0 {
		t.Errorf("Row 1: expected 2, got %v", resultData[1])
	}
}

func TestSum_Scalar(t *testing.T) {
	backend := New()

	t.Run("Float32", func(t *testing.T) {
		x, _ := tensor.NewRaw(tensor.Shape{2, 3}, tensor.Float32, backend.Device())
		xData := x.AsFloat32()
		for i := range xData {
			xData[i] = float32(i + 1)
		}

		result := backend.Sum(x)
		if len(result.Shape()) != 0 {
			t.Errorf("Expected scalar shape [], got %v", result.Shape())
		}
		if result.AsFloat32()[0] != 21 {
			t.Errorf("Expected 21, got %v", result.AsFloat32()[0])
		}
	})

	t.Run("Int64", func(t *testing.T) {
		x, _ := tensor.NewRaw(tensor.Shape{4}, tensor.Int64, backend.Device())
		copy(x.AsInt64(), []int64{100, 200, 300, 400})

		result := backend.Sum(x)
		if result.AsInt64()[0] != 1000 {
			t.Errorf("Expected 1000, got %v", result.AsInt64()[0])
		}
	})
}

// TestArgmax_Logits runs the prediction step: argmax over the class dim
// of a [batch, classes] tensor.
func TestArgmax_Logits(t *testing.T) {
	backend := New()

	logits, _ := tensor.NewRaw(tensor.Shape{2, 4}, tensor.Float32, backend.Device())
	copy(logits.AsFloat32(), []float32{
		0.1, 0.9, 0.3, 0.2,
		5.0, 2.0, 8.0, 3.0,
	})

	result := backend.Argmax(logits, -1)

	if !result.Shape().Equal(tensor.Shape{2}) {
		t.Fatalf("Expected shape [2], got %v", result.Shape())
	}
	if result.DType() != tensor.Int32 {
		t.Fatalf("Expected int32 result, got %v", result.DType())
	}

	resultData := result.AsInt32()
	if resultData[0] != 1 {
		t.Errorf("Sample 0: expected class 1, got %d", resultData[0])
	}
	if resultData[1] != 2 {
		t.Errorf("Sample 1: expected class 2, got %d", resultData[1])
	}
}

func TestArgmax_FirstDim(t *testing.T) {
	backend := New()

	x, _ := tensor.NewRaw(tensor.Shape{3, 2}, tensor.Float32, backend.Device())
	copy(x.AsFloat32(), []float32{
		1, 9,
		5, 2,
		3, 4,
	})

	result := backend.Argmax(x, 0)

	if !result.Shape().Equal(tensor.Shape{2}) {
		t.Fatalf("Expected shape [2], got %v", result.Shape())
	}

	// Column 0: max at row 1 (value 5); column 1: max at row 0 (value 9)
	resultData := result.AsInt32()
	if resultData[0] != 1 {
		t.Errorf("Column 0: expected row 1, got %d", resultData[0])
	}
	if resultData[1] != 0 {
		t.Errorf("Column 1: expected row 0, got %d", resultData[1])
	}
}
