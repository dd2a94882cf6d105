package serialization

import (
	"strings"
	"testing"
)

func TestValidateTensorOffsets(t *testing.T) {
	tests := []struct {
		name     string
		tensors  []TensorMeta
		dataSize int64
		wantType string // empty means no error expected
	}{
		{
			name: "ContiguousLayout",
			tensors: []TensorMeta{
				{Name: "stem.proj.weight", Offset: 0, Size: 96},
				{Name: "stem.proj.bias", Offset: 96, Size: 8},
				{Name: "norm.weight", Offset: 104, Size: 8},
			},
			dataSize: 112,
		},
		{
			name: "GapBetweenTensors",
			tensors: []TensorMeta{
				{Name: "a", Offset: 0, Size: 50},
				{Name: "b", Offset: 100, Size: 50},
			},
			dataSize: 150,
		},
		{
			name: "Overlap",
			tensors: []TensorMeta{
				{Name: "a", Offset: 0, Size: 100},
				{Name: "b", Offset: 50, Size: 100},
			},
			dataSize: 200,
			wantType: "offset_overlap",
		},
		{
			name: "OutOfBounds",
			tensors: []TensorMeta{
				{Name: "a", Offset: 0, Size: 300},
			},
			dataSize: 200,
			wantType: "out_of_bounds",
		},
		{
			name: "NegativeOffset",
			tensors: []TensorMeta{
				{Name: "a", Offset: -8, Size: 16},
			},
			dataSize: 200,
			wantType: "negative_offset",
		},
		{
			name: "NegativeSize",
			tensors: []TensorMeta{
				{Name: "a", Offset: 0, Size: -16},
			},
			dataSize: 200,
			wantType: "negative_offset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTensorOffsets(tt.tensors, tt.dataSize)

			if tt.wantType == "" {
				if err != nil {
					t.Errorf("ValidateTensorOffsets = %v, want nil", err)
				}
				return
			}

			if err == nil {
				t.Fatalf("ValidateTensorOffsets = nil, want %s error", tt.wantType)
			}
			verr, ok := err.(*ValidationError)
			if !ok {
				t.Fatalf("error type = %T, want *ValidationError", err)
			}
			if verr.Type != tt.wantType {
				t.Errorf("error type = %q, want %q", verr.Type, tt.wantType)
			}
		})
	}
}

func TestValidateTensorName(t *testing.T) {
	valid := []string{
		"stem.proj.weight",
		"stages.0.5.mlp.fc1.bias",
		"layer_scale_1",
		"out_norms.3.weight",
	}
	for _, name := range valid {
		if err := ValidateTensorName(name); err != nil {
			t.Errorf("ValidateTensorName(%q) = %v, want nil", name, err)
		}
	}

	invalid := []string{
		"../etc/passwd",
		"weights/stem.proj.weight",
		"weights\\stem",
		"weight\x00name",
		strings.Repeat("x", MaxTensorNameLen+1),
	}
	for _, name := range invalid {
		if err := ValidateTensorName(name); err == nil {
			t.Errorf("ValidateTensorName(%q) = nil, want error", name)
		}
	}
}

func TestValidateHeaderLevels(t *testing.T) {
	// Overlapping offsets are only caught in strict mode; a hostile
	// name is caught in both strict and normal mode.
	header := &Header{
		Tensors: []TensorMeta{
			{Name: "a", Offset: 0, Size: 100},
			{Name: "b", Offset: 50, Size: 100},
		},
	}

	if err := ValidateHeader(header, 200, ValidationStrict); err == nil {
		t.Error("strict validation should reject overlapping offsets")
	}
	if err := ValidateHeader(header, 200, ValidationNormal); err != nil {
		t.Errorf("normal validation = %v, want nil (offsets not checked)", err)
	}
	if err := ValidateHeader(header, 200, ValidationNone); err != nil {
		t.Errorf("no validation = %v, want nil", err)
	}

	hostile := &Header{
		Tensors: []TensorMeta{{Name: "../../weights", Offset: 0, Size: 10}},
	}
	if err := ValidateHeader(hostile, 10, ValidationNormal); err == nil {
		t.Error("normal validation should reject hostile names")
	}
	if err := ValidateHeader(hostile, 10, ValidationNone); err != nil {
		t.Errorf("no validation = %v, want nil", err)
	}
}
