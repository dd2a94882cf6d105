package nn

import (
	"math"
	"testing"

	"github.com/born-ml/poolformer/internal/backend/cpu"
	"github.com/born-ml/poolformer/internal/tensor"
)

// TestPooling_ConstantInput tests that a constant input mixes to zero.
//
// Boundary windows average over in-bounds elements only, so a constant
// feature map pools to itself and the subtraction cancels exactly. This
// is the property that distinguishes excluded-padding pooling from the
// zero-padded kind.
func TestPooling_ConstantInput(t *testing.T) {
	backend := cpu.New()
	mixer := NewPooling(3, backend)

	input := tensor.Full[float32](tensor.Shape{1, 2, 4, 4}, 7.5, backend)
	output := mixer.Forward(input)

	for i, v := range output.Data() {
		if v != 0 {
			t.Errorf("Output[%d] = %v, want 0 for constant input", i, v)
		}
	}
}

// TestPooling_ForwardValues tests the mixer on a 3x3 grid against
// manual computation.
func TestPooling_ForwardValues(t *testing.T) {
	backend := cpu.New()
	mixer := NewPooling(3, backend)

	// Input: [1, 1, 3, 3] with values 1-9
	input, err := tensor.FromSlice[float32](
		[]float32{1, 2, 3, 4, 5, 6, 7, 8, 9},
		tensor.Shape{1, 1, 3, 3},
		backend,
	)
	if err != nil {
		t.Fatalf("Failed to create input: %v", err)
	}

	output := mixer.Forward(input)

	// Average pool, window 3, stride 1, in-bounds elements only:
	// corner (0,0): (1+2+4+5)/4       = 3.0
	// edge   (0,1): (1+2+3+4+5+6)/6   = 3.5
	// center (1,1): 45/9              = 5.0
	// The mixer subtracts the input from the pooled map.
	expected := []float32{
		3.0 - 1, 3.5 - 2, 4.0 - 3,
		4.5 - 4, 5.0 - 5, 5.5 - 6,
		6.0 - 7, 6.5 - 8, 7.0 - 9,
	}

	outputData := output.Data()
	for i, exp := range expected {
		if math.Abs(float64(outputData[i]-exp)) > 1e-6 {
			t.Errorf("Output[%d] = %v, want %v", i, outputData[i], exp)
		}
	}
}

// TestPooling_PreservesShape tests stride-1 shape preservation across
// channels and batches.
func TestPooling_PreservesShape(t *testing.T) {
	backend := cpu.New()

	shapes := []tensor.Shape{
		{1, 1, 3, 3},
		{2, 4, 7, 7},
		{1, 8, 1, 1},
	}

	for _, shape := range shapes {
		mixer := NewPooling(3, backend)
		input := tensor.Randn[float32](shape, backend)
		output := mixer.Forward(input)

		if !output.Shape().Equal(shape) {
			t.Errorf("Pooling changed shape: input %v -> output %v", shape, output.Shape())
		}
	}
}

// TestPooling_SinglePosition tests a 1x1 spatial map: the only window
// contains one element, so the mixer output is zero.
func TestPooling_SinglePosition(t *testing.T) {
	backend := cpu.New()
	mixer := NewPooling(3, backend)

	input, err := tensor.FromSlice[float32]([]float32{4.2, -1.3}, tensor.Shape{1, 2, 1, 1}, backend)
	if err != nil {
		t.Fatalf("Failed to create input: %v", err)
	}

	output := mixer.Forward(input)
	for i, v := range output.Data() {
		if v != 0 {
			t.Errorf("Output[%d] = %v, want 0 for 1x1 spatial input", i, v)
		}
	}
}

// TestPooling_NoParameters tests that the mixer is parameter-free.
func TestPooling_NoParameters(t *testing.T) {
	backend := cpu.New()
	mixer := NewPooling(5, backend)

	if len(mixer.Parameters()) != 0 {
		t.Error("Pooling should have no parameters")
	}
	if mixer.PoolSize() != 5 {
		t.Errorf("PoolSize() = %d, want 5", mixer.PoolSize())
	}
	if len(mixer.StateDict()) != 0 {
		t.Error("Pooling StateDict should be empty")
	}
}

// TestPooling_RejectsEvenWindow tests the constructor guard.
func TestPooling_RejectsEvenWindow(t *testing.T) {
	backend := cpu.New()

	for _, size := range []int{0, -1, 2, 4} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("NewPooling(%d) should panic", size)
				}
			}()
			NewPooling(size, backend)
		}()
	}
}
