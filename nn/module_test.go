// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn_test

import (
	"path/filepath"
	"testing"

	"github.com/born-ml/poolformer/internal/backend/cpu"
	"github.com/born-ml/poolformer/internal/tensor"
	"github.com/born-ml/poolformer/nn"
)

// TestModuleInterface verifies that concrete types implement Module interface.
func TestModuleInterface(t *testing.T) {
	backend := cpu.New()

	cfg := nn.BlockConfig{
		Dim:            8,
		PoolSize:       3,
		MLPRatio:       4.0,
		UseLayerScale:  true,
		LayerScaleInit: 1e-5,
		NormEps:        1e-5,
	}

	tests := []struct {
		name   string
		module nn.Module[*cpu.CPUBackend]
	}{
		{
			name:   "GroupNorm",
			module: nn.NewGroupNorm(8, 1e-5, backend),
		},
		{
			name:   "Pooling",
			module: nn.NewPooling(3, backend),
		},
		{
			name:   "ConvMLP",
			module: nn.NewConvMLP(8, 32, 8, 0.0, backend),
		},
		{
			name:   "Block",
			module: nn.NewBlock(cfg, backend),
		},
		{
			name:   "Identity",
			module: nn.NewIdentity[*cpu.CPUBackend](),
		},
		{
			name: "Sequential",
			module: nn.NewSequential[*cpu.CPUBackend](
				nn.NewBlock(cfg, backend),
				nn.NewBlock(cfg, backend),
			),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// All of these preserve spatial shape
			input := tensor.Randn[float32](tensor.Shape{2, 8, 6, 6}, backend)
			output := tt.module.Forward(input)
			if !output.Shape().Equal(input.Shape()) {
				t.Errorf("Forward() shape = %v, want %v", output.Shape(), input.Shape())
			}

			// Verify StateDict works
			stateDict := tt.module.StateDict()
			if stateDict == nil {
				t.Error("StateDict() returned nil, expected non-nil map")
			}
		})
	}
}

// TestModuleComposition verifies an embed-then-blocks stack composes.
func TestModuleComposition(t *testing.T) {
	backend := cpu.New()

	embed := nn.NewPatchEmbed(7, 4, 2, 3, 16, backend)
	cfg := nn.BlockConfig{
		Dim:      16,
		PoolSize: 3,
		MLPRatio: 2.0,
		NormEps:  1e-5,
	}
	stage := nn.NewSequential[*cpu.CPUBackend](
		nn.NewBlock(cfg, backend),
		nn.NewBlock(cfg, backend),
	)

	// Verify it implements Module
	var _ nn.Module[*cpu.CPUBackend] = stage

	input := tensor.Randn[float32](tensor.Shape{1, 3, 32, 32}, backend)
	tokens := embed.Forward(input)

	expectedShape := tensor.Shape{1, 16, 8, 8}
	if !tokens.Shape().Equal(expectedShape) {
		t.Errorf("embed shape = %v, want %v", tokens.Shape(), expectedShape)
	}

	output := stage.Forward(tokens)
	if !output.Shape().Equal(expectedShape) {
		t.Errorf("stage shape = %v, want %v", output.Shape(), expectedShape)
	}

	// Layer scale off: each block has 2 norms (weight+bias) and the
	// MLP's two convolutions (weight+bias), 8 parameters per block.
	params := stage.Parameters()
	if len(params) != 16 {
		t.Errorf("Parameters() returned %d params, want 16", len(params))
	}
}

// TestSaveLoadRoundTrip saves a block and loads it into a fresh one.
func TestSaveLoadRoundTrip(t *testing.T) {
	backend := cpu.New()
	path := filepath.Join(t.TempDir(), "block.born")

	cfg := nn.BlockConfig{
		Dim:            4,
		PoolSize:       3,
		MLPRatio:       4.0,
		UseLayerScale:  true,
		LayerScaleInit: 1e-5,
		NormEps:        1e-5,
	}
	src := nn.NewBlock(cfg, backend)

	if err := nn.Save(path, src, "block", map[string]string{"stage": "0"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	dst := nn.NewBlock(cfg, backend)
	header, err := nn.Load(path, backend, dst)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if header.ModelType != "block" {
		t.Errorf("header.ModelType = %q, want %q", header.ModelType, "block")
	}

	srcSD := src.StateDict()
	for name, raw := range dst.StateDict() {
		want := srcSD[name].AsFloat32()
		got := raw.AsFloat32()
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("parameter %q differs at %d: got %v, want %v", name, i, got[i], want[i])
			}
		}
	}
}

// TestNewParameter verifies parameter creation.
func TestNewParameter(t *testing.T) {
	backend := cpu.New()

	tests := []struct {
		name        string
		paramName   string
		tensorShape tensor.Shape
	}{
		{
			name:        "conv weight parameter",
			paramName:   "proj.weight",
			tensorShape: tensor.Shape{64, 3, 7, 7},
		},
		{
			name:        "norm bias parameter",
			paramName:   "norm1.bias",
			tensorShape: tensor.Shape{64},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tensorData := tensor.Randn[float32](tt.tensorShape, backend)
			param := nn.NewParameter(tt.paramName, tensorData)

			if got := param.Name(); got != tt.paramName {
				t.Errorf("Name() = %q, want %q", got, tt.paramName)
			}

			if got := param.Tensor(); got != tensorData {
				t.Error("Tensor() returned different tensor")
			}
		})
	}
}
