// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor_test

import (
	"testing"

	"github.com/born-ml/poolformer/backend/cpu"
	"github.com/born-ml/poolformer/tensor"
)

func TestBackendSatisfiesInterface(_ *testing.T) {
	var _ tensor.Backend = (*cpu.Backend)(nil)
}

// TestRawTensorLifecycle walks a raw buffer through allocation, typed
// views and the clone/release refcount cycle.
func TestRawTensorLifecycle(t *testing.T) {
	raw, err := tensor.NewRaw(tensor.Shape{4, 8}, tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatalf("NewRaw: %v", err)
	}

	if !raw.Shape().Equal(tensor.Shape{4, 8}) {
		t.Errorf("Shape() = %v, want [4 8]", raw.Shape())
	}
	if raw.DType() != tensor.Float32 || raw.Device() != tensor.CPU {
		t.Errorf("metadata = %v on %v, want float32 on cpu", raw.DType(), raw.Device())
	}
	if raw.NumElements() != 32 {
		t.Errorf("NumElements() = %d, want 32", raw.NumElements())
	}
	if raw.ByteSize() != 32*4 {
		t.Errorf("ByteSize() = %d, want 128", raw.ByteSize())
	}
	if len(raw.Data()) != raw.ByteSize() {
		t.Errorf("Data() length = %d, want %d", len(raw.Data()), raw.ByteSize())
	}
	if len(raw.AsFloat32()) != 32 {
		t.Errorf("AsFloat32() length = %d, want 32", len(raw.AsFloat32()))
	}

	clone := raw.Clone()
	if clone == nil {
		t.Fatal("Clone() returned nil")
	}
	if raw.IsUnique() {
		t.Error("buffer should be shared while the clone is alive")
	}
	clone.Release()
	if !raw.IsUnique() {
		t.Error("buffer should be unique again after the clone released it")
	}
}

func TestCreationFunctions(t *testing.T) {
	backend := cpu.New()
	shape := tensor.Shape{4, 6}

	if z := tensor.Zeros[float32](shape, backend); z.Data()[7] != 0 {
		t.Error("Zeros should fill with 0")
	}
	if o := tensor.Ones[float32](shape, backend); o.Data()[7] != 1 {
		t.Error("Ones should fill with 1")
	}
	if f := tensor.Full(shape, float32(0.25), backend); f.Data()[0] != 0.25 {
		t.Error("Full should fill with the given value")
	}
	if r := tensor.Randn[float32](shape, backend); !r.Shape().Equal(shape) {
		t.Errorf("Randn shape = %v, want %v", r.Shape(), shape)
	}
	if u := tensor.Rand[float32](shape, backend); !u.Shape().Equal(shape) {
		t.Errorf("Rand shape = %v, want %v", u.Shape(), shape)
	}
	if w := tensor.TruncNormal[float32](tensor.Shape{8, 3, 3, 3}, 0.02, backend); w.NumElements() != 216 {
		t.Errorf("TruncNormal elements = %d, want 216", w.NumElements())
	}

	x, err := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, backend)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	if x.At(1, 2) != 6 {
		t.Errorf("At(1, 2) = %v, want 6", x.At(1, 2))
	}
}

func TestDataTypeSizes(t *testing.T) {
	sizes := map[tensor.DataType]int{
		tensor.Float32: 4,
		tensor.Float64: 8,
		tensor.Int32:   4,
		tensor.Int64:   8,
		tensor.Uint8:   1,
		tensor.Bool:    1,
	}

	for dt, want := range sizes {
		if got := dt.Size(); got != want {
			t.Errorf("%s.Size() = %d, want %d", dt, got, want)
		}
		if dt.String() == "" {
			t.Errorf("DataType(%d) has an empty String()", int(dt))
		}
	}
}

func TestShapeHelpers(t *testing.T) {
	shape := tensor.Shape{3, 5, 2}

	if n := shape.NumElements(); n != 30 {
		t.Errorf("NumElements() = %d, want 30", n)
	}
	if !shape.Equal(tensor.Shape{3, 5, 2}) {
		t.Error("Equal() should accept an identical shape")
	}
	if shape.Equal(tensor.Shape{3, 5}) {
		t.Error("Equal() should reject a shape of different rank")
	}

	clone := shape.Clone()
	clone[0] = 11
	if shape[0] != 3 {
		t.Error("Clone() must not share memory with the original")
	}
}

func TestBroadcastRules(t *testing.T) {
	cases := []struct {
		name   string
		a, b   tensor.Shape
		want   tensor.Shape
		expand bool
	}{
		{"SameShape", tensor.Shape{2, 3}, tensor.Shape{2, 3}, tensor.Shape{2, 3}, false},
		{"ScalarRHS", tensor.Shape{2, 3}, tensor.Shape{1}, tensor.Shape{2, 3}, true},
		{"ChannelAffine", tensor.Shape{1, 64, 1, 1}, tensor.Shape{2, 64, 7, 7}, tensor.Shape{2, 64, 7, 7}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, expand, err := tensor.BroadcastShapes(tc.a, tc.b)
			if err != nil {
				t.Fatalf("BroadcastShapes: %v", err)
			}
			if !got.Equal(tc.want) {
				t.Errorf("shape = %v, want %v", got, tc.want)
			}
			if expand != tc.expand {
				t.Errorf("expand = %v, want %v", expand, tc.expand)
			}
		})
	}

	if _, _, err := tensor.BroadcastShapes(tensor.Shape{2, 3}, tensor.Shape{4, 3}); err == nil {
		t.Error("incompatible shapes should fail")
	}
}

// TestPublicOpChain runs a small end-to-end chain through the public
// API: the normalize-scale-pool sequence a classifier head performs.
func TestPublicOpChain(t *testing.T) {
	backend := cpu.New()

	x, err := tensor.FromSlice(
		[]float32{
			1, 2, 3, 4, // channel 0
			10, 20, 30, 40, // channel 1
		},
		tensor.Shape{1, 2, 2, 2}, backend)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}

	gamma, err := tensor.FromSlice([]float32{2, 0.1}, tensor.Shape{1, 2, 1, 1}, backend)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}

	// Scale per channel, then global average pool to (1, 2).
	pooled := x.Mul(gamma).MeanDim(-1, false).MeanDim(-1, false)

	if !pooled.Shape().Equal(tensor.Shape{1, 2}) {
		t.Fatalf("pooled shape = %v, want [1 2]", pooled.Shape())
	}

	got := pooled.Data()
	want := []float32{5, 2.5} // mean(1..4)*2, mean(10..40)*0.1
	for i := range want {
		if diff := got[i] - want[i]; diff > 1e-5 || diff < -1e-5 {
			t.Errorf("pooled[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
