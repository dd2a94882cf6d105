package nn

import (
	"path/filepath"
	"testing"

	"github.com/born-ml/poolformer/internal/backend/cpu"
	"github.com/born-ml/poolformer/internal/tensor"
)

// TestCheckpointRoundTrip tests save → load for a Linear module.
func TestCheckpointRoundTrip(t *testing.T) {
	backend := cpu.New()

	model := NewLinear(16, 4, backend)

	input := tensor.Randn[float32](tensor.Shape{2, 16}, backend)
	pred1 := model.Forward(input)

	path := filepath.Join(t.TempDir(), "model.born")
	err := Save(path, model, "Linear", map[string]string{"preset": "test"})
	if err != nil {
		t.Fatalf("Failed to save model: %v", err)
	}

	// Load into a fresh model with the same architecture
	model2 := NewLinear(16, 4, backend)
	header, err := Load(path, backend, model2)
	if err != nil {
		t.Fatalf("Failed to load model: %v", err)
	}

	if header.ModelType != "Linear" {
		t.Errorf("ModelType = %q, want %q", header.ModelType, "Linear")
	}
	if header.Metadata["preset"] != "test" {
		t.Errorf("Metadata[preset] = %q, want %q", header.Metadata["preset"], "test")
	}

	// Predictions must be identical
	pred2 := model2.Forward(input)
	pred1Data := pred1.Data()
	pred2Data := pred2.Data()
	for i := range pred1Data {
		if pred1Data[i] != pred2Data[i] {
			t.Errorf("Prediction mismatch at index %d: %.6f != %.6f", i, pred1Data[i], pred2Data[i])
		}
	}
}

// TestCheckpointBlockRoundTrip tests save → load for a residual block,
// covering nested and flat parameter keys through a file.
func TestCheckpointBlockRoundTrip(t *testing.T) {
	backend := cpu.New()

	cfg := BlockConfig{
		Dim:            4,
		PoolSize:       3,
		MLPRatio:       2.0,
		UseLayerScale:  true,
		LayerScaleInit: 0.5,
		NormEps:        1e-5,
	}
	model := NewBlock(cfg, backend)

	input := tensor.Randn[float32](tensor.Shape{1, 4, 4, 4}, backend)
	pred1 := model.Forward(input)

	path := filepath.Join(t.TempDir(), "block.born")
	if err := Save(path, model, "Block", nil); err != nil {
		t.Fatalf("Failed to save model: %v", err)
	}

	model2 := NewBlock(cfg, backend)
	if _, err := Load(path, backend, model2); err != nil {
		t.Fatalf("Failed to load model: %v", err)
	}

	pred2 := model2.Forward(input)
	pred1Data := pred1.Data()
	pred2Data := pred2.Data()
	for i := range pred1Data {
		if pred1Data[i] != pred2Data[i] {
			t.Errorf("Prediction mismatch at index %d: %.6f != %.6f", i, pred1Data[i], pred2Data[i])
		}
	}
}

// TestCheckpointMissingFile tests loading a path that does not exist.
func TestCheckpointMissingFile(t *testing.T) {
	backend := cpu.New()

	model := NewLinear(4, 2, backend)
	if _, err := Load(filepath.Join(t.TempDir(), "nope.born"), backend, model); err == nil {
		t.Error("Load should fail for a missing file")
	}
}

// TestCheckpointArchitectureMismatch tests loading into a module with
// different parameter shapes.
func TestCheckpointArchitectureMismatch(t *testing.T) {
	backend := cpu.New()

	path := filepath.Join(t.TempDir(), "model.born")
	if err := Save(path, NewLinear(8, 2, backend), "Linear", nil); err != nil {
		t.Fatalf("Failed to save model: %v", err)
	}

	wrong := NewLinear(4, 2, backend)
	if _, err := Load(path, backend, wrong); err == nil {
		t.Error("Load should fail on a shape mismatch")
	}
}
