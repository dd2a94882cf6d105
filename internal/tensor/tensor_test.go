package tensor

import (
	"strings"
	"testing"
)

// Helpers shared by the package tests.

func checkClose(t *testing.T, want, got float32, msg string) {
	t.Helper()
	if d := want - got; d > 1e-6 || d < -1e-6 {
		t.Errorf("%s = %v, want %v", msg, got, want)
	}
}

func checkShape(t *testing.T, want, got Shape, msg string) {
	t.Helper()
	if !got.Equal(want) {
		t.Errorf("%s = %v, want shape %v", msg, got, want)
	}
}

func mustFromSlice[T DType, B Backend](t *testing.T, data []T, shape Shape, backend B) *Tensor[T, B] {
	t.Helper()
	out, err := FromSlice(data, shape, backend)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	return out
}

func TestFromSlice(t *testing.T) {
	backend := NewMockBackend()
	data := []float32{0.5, -1, 2, 7.25, 0, -3.5}

	tensor := mustFromSlice(t, data, Shape{2, 3}, backend)

	checkShape(t, Shape{2, 3}, tensor.Shape(), "FromSlice shape")

	for i, want := range data {
		if got := tensor.Data()[i]; got != want {
			t.Errorf("Data()[%d] = %v, want %v", i, got, want)
		}
	}
}

func TestFromSliceSizeMismatch(t *testing.T) {
	backend := NewMockBackend()

	_, err := FromSlice([]float32{1, 2, 3}, Shape{2, 2}, backend)
	if err == nil {
		t.Error("FromSlice with 3 elements for a 4-element shape should fail")
	}
}

func TestTensorAccessors(t *testing.T) {
	backend := NewMockBackend()
	tensor := Zeros[float32](Shape{2, 3, 4, 4}, backend)

	checkShape(t, Shape{2, 3, 4, 4}, tensor.Shape(), "Shape")

	if tensor.DType() != Float32 {
		t.Errorf("DType() = %v, want Float32", tensor.DType())
	}
	if tensor.Device() != CPU {
		t.Errorf("Device() = %v, want CPU", tensor.Device())
	}
	if tensor.NumElements() != 96 {
		t.Errorf("NumElements() = %d, want 96", tensor.NumElements())
	}
	if tensor.Raw() == nil {
		t.Fatal("Raw() should not return nil")
	}
	if tensor.Raw().DType() != Float32 {
		t.Errorf("Raw().DType() = %v, want Float32", tensor.Raw().DType())
	}
	if tensor.Backend() != backend {
		t.Error("Backend() should return the backend the tensor was created with")
	}
	if tensor.Backend().Name() != "mock" {
		t.Errorf("Backend().Name() = %q, want %q", tensor.Backend().Name(), "mock")
	}
}

// The element type parameter and the runtime DataType must agree for
// every supported dtype.
func TestTensorDTypes(t *testing.T) {
	backend := NewMockBackend()

	if dt := Zeros[float32](Shape{2}, backend).DType(); dt != Float32 {
		t.Errorf("Zeros[float32] dtype = %v", dt)
	}
	if dt := Zeros[float64](Shape{2}, backend).DType(); dt != Float64 {
		t.Errorf("Zeros[float64] dtype = %v", dt)
	}
	if dt := Zeros[int32](Shape{2}, backend).DType(); dt != Int32 {
		t.Errorf("Zeros[int32] dtype = %v", dt)
	}
	if dt := Zeros[int64](Shape{2}, backend).DType(); dt != Int64 {
		t.Errorf("Zeros[int64] dtype = %v", dt)
	}
	if dt := Zeros[uint8](Shape{2}, backend).DType(); dt != Uint8 {
		t.Errorf("Zeros[uint8] dtype = %v", dt)
	}
	if dt := Zeros[bool](Shape{2}, backend).DType(); dt != Bool {
		t.Errorf("Zeros[bool] dtype = %v", dt)
	}
}

func TestTensorDataRoundTrip(t *testing.T) {
	backend := NewMockBackend()

	t.Run("float64", func(t *testing.T) {
		data := []float64{1.5, 2.5, 3.5, 4.5}
		tensor := mustFromSlice(t, data, Shape{2, 2}, backend)
		for i, want := range data {
			if got := tensor.Data()[i]; got != want {
				t.Errorf("Data()[%d] = %v, want %v", i, got, want)
			}
		}
	})

	t.Run("int64", func(t *testing.T) {
		data := []int64{-1, 0, 1 << 40, 4}
		tensor := mustFromSlice(t, data, Shape{2, 2}, backend)
		for i, want := range data {
			if got := tensor.Data()[i]; got != want {
				t.Errorf("Data()[%d] = %v, want %v", i, got, want)
			}
		}
	})

	t.Run("uint8", func(t *testing.T) {
		data := []uint8{0, 127, 200, 255}
		tensor := mustFromSlice(t, data, Shape{2, 2}, backend)
		for i, want := range data {
			if got := tensor.Data()[i]; got != want {
				t.Errorf("Data()[%d] = %v, want %v", i, got, want)
			}
		}
	})

	t.Run("bool", func(t *testing.T) {
		data := []bool{true, false, true, false}
		tensor := mustFromSlice(t, data, Shape{2, 2}, backend)
		for i, want := range data {
			if got := tensor.Data()[i]; got != want {
				t.Errorf("Data()[%d] = %v, want %v", i, got, want)
			}
		}
	})
}

func TestTensorAt(t *testing.T) {
	backend := NewMockBackend()
	tensor := mustFromSlice(t, []float32{10, 20, 30, 40, 50, 60}, Shape{2, 3}, backend)

	// Row-major layout: At(r, c) reads element r*3 + c.
	cases := []struct {
		r, c int
		want float32
	}{
		{0, 0, 10}, {0, 1, 20}, {0, 2, 30},
		{1, 0, 40}, {1, 1, 50}, {1, 2, 60},
	}
	for _, tc := range cases {
		if got := tensor.At(tc.r, tc.c); got != tc.want {
			t.Errorf("At(%d, %d) = %v, want %v", tc.r, tc.c, got, tc.want)
		}
	}
}

func TestTensorSet(t *testing.T) {
	backend := NewMockBackend()

	t.Run("float32", func(t *testing.T) {
		tensor := Zeros[float32](Shape{2, 2}, backend)
		tensor.Set(3.14, 1, 1)
		if got := tensor.At(1, 1); got != 3.14 {
			t.Errorf("At(1, 1) = %v after Set, want 3.14", got)
		}
	})

	t.Run("int64", func(t *testing.T) {
		tensor := Zeros[int64](Shape{2, 2}, backend)
		tensor.Set(int64(123), 1, 1)
		if got := tensor.At(1, 1); got != int64(123) {
			t.Errorf("At(1, 1) = %v after Set, want 123", got)
		}
	})

	t.Run("uint8", func(t *testing.T) {
		tensor := Zeros[uint8](Shape{2, 2}, backend)
		tensor.Set(uint8(255), 0, 1)
		if got := tensor.At(0, 1); got != uint8(255) {
			t.Errorf("At(0, 1) = %v after Set, want 255", got)
		}
	})

	t.Run("bool", func(t *testing.T) {
		tensor := Zeros[bool](Shape{2, 2}, backend)
		tensor.Set(true, 1, 0)
		if got := tensor.At(1, 0); got != true {
			t.Errorf("At(1, 0) = %v after Set, want true", got)
		}
	})
}

func TestTensorAtPanics(t *testing.T) {
	backend := NewMockBackend()
	tensor := Zeros[float32](Shape{2, 3}, backend)

	t.Run("wrong index count", func(t *testing.T) {
		defer func() {
			r := recover()
			if r == nil {
				t.Fatal("At with one index on a 2D tensor should panic")
			}
			if msg, ok := r.(string); !ok || msg != "expected 2 indices, got 1" {
				t.Errorf("panic = %v, want index count message", r)
			}
		}()
		tensor.At(0)
	})

	t.Run("index out of range", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("At(0, 3) on shape [2 3] should panic")
			}
		}()
		tensor.At(0, 3)
	})

	t.Run("negative index", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("At(-1, 0) should panic")
			}
		}()
		tensor.At(-1, 0)
	})
}

func TestTensorItem(t *testing.T) {
	backend := NewMockBackend()

	t.Run("float32", func(t *testing.T) {
		scalar := Full(Shape{1}, float32(42), backend).Reshape()
		if got := scalar.Item(); got != 42 {
			t.Errorf("Item() = %v, want 42", got)
		}
	})

	t.Run("int32", func(t *testing.T) {
		scalar := Full(Shape{1}, int32(-9), backend).Reshape()
		if got := scalar.Item(); got != -9 {
			t.Errorf("Item() = %v, want -9", got)
		}
	})

	t.Run("bool", func(t *testing.T) {
		scalar := Full(Shape{1}, true, backend).Reshape()
		if got := scalar.Item(); got != true {
			t.Errorf("Item() = %v, want true", got)
		}
	})

	t.Run("non-scalar panics", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("Item() on a [2 2] tensor should panic")
			}
		}()
		Zeros[float32](Shape{2, 2}, backend).Item()
	})
}

func TestTensorString(t *testing.T) {
	backend := NewMockBackend()

	str := Zeros[float32](Shape{2, 3}, backend).String()
	if !strings.Contains(str, "float32") {
		t.Errorf("String() = %q, want the dtype in it", str)
	}

	intStr := Zeros[int32](Shape{2, 2}, backend).String()
	if !strings.Contains(intStr, "int32") {
		t.Errorf("String() = %q, want the dtype in it", intStr)
	}
}

func TestTensorCloneSharesBuffer(t *testing.T) {
	backend := NewMockBackend()
	tensor := mustFromSlice(t, []float32{4, 3, 2, 1}, Shape{2, 2}, backend)

	clone := tensor.Clone()
	if clone.At(0, 0) != 4 {
		t.Error("clone should see the original's data")
	}

	// Clone bumps the reference count but shares the buffer, so a
	// write through the clone lands in the original too.
	clone.Set(-8, 0, 0)
	if tensor.At(0, 0) != -8 {
		t.Error("writes through a clone should be visible in the original")
	}

	if tensor.Raw().IsUnique() {
		t.Error("original should not be unique while a clone exists")
	}
}
