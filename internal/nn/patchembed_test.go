package nn

import (
	"testing"

	"github.com/born-ml/poolformer/internal/backend/cpu"
	"github.com/born-ml/poolformer/internal/tensor"
)

// TestPatchEmbed_StemShape tests the stem configuration: 7x7 kernel,
// stride 4, padding 2, quartering the resolution.
func TestPatchEmbed_StemShape(t *testing.T) {
	backend := cpu.New()
	stem := NewPatchEmbed(7, 4, 2, 3, 64, backend)

	// (32 + 2*2 - 7)/4 + 1 = 8
	input := tensor.Zeros[float32](tensor.Shape{1, 3, 32, 32}, backend)
	output := stem.Forward(input)

	expectedShape := tensor.Shape{1, 64, 8, 8}
	if !output.Shape().Equal(expectedShape) {
		t.Errorf("Output shape = %v, want %v", output.Shape(), expectedShape)
	}

	if stem.EmbedDim() != 64 {
		t.Errorf("EmbedDim() = %d, want 64", stem.EmbedDim())
	}

	// The canonical 224x224 input lands at 56x56.
	outSize := stem.ComputeOutputSize(224, 224)
	if outSize[0] != 56 || outSize[1] != 56 {
		t.Errorf("ComputeOutputSize(224, 224) = %v, want [56, 56]", outSize)
	}
}

// TestPatchEmbed_DownsampleShape tests the between-stage configuration:
// 3x3 kernel, stride 2, padding 1, halving the resolution.
func TestPatchEmbed_DownsampleShape(t *testing.T) {
	backend := cpu.New()
	down := NewPatchEmbed(3, 2, 1, 64, 128, backend)

	input := tensor.Zeros[float32](tensor.Shape{2, 64, 8, 8}, backend)
	output := down.Forward(input)

	expectedShape := tensor.Shape{2, 128, 4, 4}
	if !output.Shape().Equal(expectedShape) {
		t.Errorf("Output shape = %v, want %v", output.Shape(), expectedShape)
	}
}

// TestPatchEmbed_IdentityNorm tests that the default norm slot adds no
// parameters and no state-dict entries.
func TestPatchEmbed_IdentityNorm(t *testing.T) {
	backend := cpu.New()
	embed := NewPatchEmbed(3, 2, 1, 2, 4, backend)

	// proj weight + proj bias only
	if got := len(embed.Parameters()); got != 2 {
		t.Errorf("Parameters() length = %d, want 2", got)
	}

	sd := embed.StateDict()
	if len(sd) != 2 {
		t.Errorf("StateDict size = %d, want 2", len(sd))
	}
	for _, key := range []string{"proj.weight", "proj.bias"} {
		if _, ok := sd[key]; !ok {
			t.Errorf("StateDict missing %q", key)
		}
	}
}

// TestPatchEmbed_WithNorm tests swapping the identity for a GroupNorm.
func TestPatchEmbed_WithNorm(t *testing.T) {
	backend := cpu.New()
	embed := NewPatchEmbed(3, 2, 1, 2, 4, backend)
	embed.Norm = NewGroupNorm(4, 1e-5, backend)

	if got := len(embed.Parameters()); got != 4 {
		t.Errorf("Parameters() length = %d, want 4", got)
	}

	sd := embed.StateDict()
	for _, key := range []string{"proj.weight", "proj.bias", "norm.weight", "norm.bias"} {
		if _, ok := sd[key]; !ok {
			t.Errorf("StateDict missing %q", key)
		}
	}

	input := tensor.Randn[float32](tensor.Shape{1, 2, 6, 6}, backend)
	output := embed.Forward(input)
	expectedShape := tensor.Shape{1, 4, 3, 3}
	if !output.Shape().Equal(expectedShape) {
		t.Errorf("Output shape = %v, want %v", output.Shape(), expectedShape)
	}
}

// TestPatchEmbed_StateDictRoundTrip tests loading one embedding's state
// into another.
func TestPatchEmbed_StateDictRoundTrip(t *testing.T) {
	backend := cpu.New()

	src := NewPatchEmbed(3, 2, 1, 2, 4, backend)
	dst := NewPatchEmbed(3, 2, 1, 2, 4, backend)

	if err := dst.LoadStateDict(src.StateDict()); err != nil {
		t.Fatalf("LoadStateDict failed: %v", err)
	}

	input := tensor.Randn[float32](tensor.Shape{1, 2, 4, 4}, backend)
	srcOut := src.Forward(input).Data()
	dstOut := dst.Forward(input).Data()

	for i := range srcOut {
		if srcOut[i] != dstOut[i] {
			t.Errorf("Output[%d] = %v, want %v", i, dstOut[i], srcOut[i])
		}
	}
}
