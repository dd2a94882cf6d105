package tensor

import (
	"math"
	"testing"
)

func TestZeros(t *testing.T) {
	backend := NewMockBackend()

	t.Run("float32", func(t *testing.T) {
		tensor := Zeros[float32](Shape{3, 4}, backend)
		checkShape(t, Shape{3, 4}, tensor.Shape(), "Zeros shape")
		for i, v := range tensor.Data() {
			if v != 0 {
				t.Errorf("Zeros[%d] = %v, want 0", i, v)
			}
		}
	})

	t.Run("int64", func(t *testing.T) {
		tensor := Zeros[int64](Shape{2, 3}, backend)
		for i, v := range tensor.Data() {
			if v != 0 {
				t.Errorf("Zeros[%d] = %v, want 0", i, v)
			}
		}
	})
}

func TestOnes(t *testing.T) {
	backend := NewMockBackend()

	t.Run("float32", func(t *testing.T) {
		for i, v := range Ones[float32](Shape{2, 3}, backend).Data() {
			if v != 1 {
				t.Errorf("Ones[%d] = %v, want 1", i, v)
			}
		}
	})

	t.Run("float64", func(t *testing.T) {
		for i, v := range Ones[float64](Shape{3, 2}, backend).Data() {
			if v != 1 {
				t.Errorf("Ones[%d] = %v, want 1", i, v)
			}
		}
	})

	t.Run("uint8", func(t *testing.T) {
		for i, v := range Ones[uint8](Shape{2, 2}, backend).Data() {
			if v != 1 {
				t.Errorf("Ones[%d] = %v, want 1", i, v)
			}
		}
	})

	t.Run("bool", func(t *testing.T) {
		for i, v := range Ones[bool](Shape{2, 2}, backend).Data() {
			if !v {
				t.Errorf("Ones[%d] = %v, want true", i, v)
			}
		}
	})
}

func TestFull(t *testing.T) {
	backend := NewMockBackend()

	t.Run("float32", func(t *testing.T) {
		tensor := Full(Shape{2, 2}, float32(3.14), backend)
		for i, v := range tensor.Data() {
			if v != 3.14 {
				t.Errorf("Full[%d] = %v, want 3.14", i, v)
			}
		}
	})

	t.Run("int64", func(t *testing.T) {
		tensor := Full(Shape{3, 3}, int64(42), backend)
		for i, v := range tensor.Data() {
			if v != 42 {
				t.Errorf("Full[%d] = %v, want 42", i, v)
			}
		}
	})

	t.Run("bool", func(t *testing.T) {
		tensor := Full(Shape{2, 2}, true, backend)
		for i, v := range tensor.Data() {
			if !v {
				t.Errorf("Full[%d] = %v, want true", i, v)
			}
		}
	})
}

// sampleStats returns the mean and standard deviation of the data.
func sampleStats(data []float32) (mean, std float64) {
	sum := 0.0
	for _, v := range data {
		sum += float64(v)
	}
	mean = sum / float64(len(data))

	sumSq := 0.0
	for _, v := range data {
		diff := float64(v) - mean
		sumSq += diff * diff
	}
	return mean, math.Sqrt(sumSq / float64(len(data)))
}

func TestRandn(t *testing.T) {
	backend := NewMockBackend()

	tensor := Randn[float32](Shape{100, 50}, backend)

	checkShape(t, Shape{100, 50}, tensor.Shape(), "Randn shape")

	data := tensor.Data()
	nonZero := 0
	for _, v := range data {
		if v != 0 {
			nonZero++
		}
	}
	if nonZero < len(data)/2 {
		t.Errorf("Randn produced %d non-zero values out of %d, want mostly non-zero", nonZero, len(data))
	}

	// 5000 samples put the sample mean and std close to 0 and 1; the
	// bands are wide enough that a failure means a broken sampler, not
	// an unlucky seed.
	mean, std := sampleStats(data)
	if math.Abs(mean) > 0.2 {
		t.Errorf("Randn sample mean = %v, want near 0", mean)
	}
	if math.Abs(std-1) > 0.3 {
		t.Errorf("Randn sample std = %v, want near 1", std)
	}
}

func TestRandnFloat64(t *testing.T) {
	backend := NewMockBackend()

	tensor := Randn[float64](Shape{50, 40}, backend)

	checkShape(t, Shape{50, 40}, tensor.Shape(), "Randn float64 shape")

	nonZero := 0
	for _, v := range tensor.Data() {
		if v != 0 {
			nonZero++
		}
	}
	if nonZero < tensor.NumElements()/2 {
		t.Errorf("Randn produced %d non-zero values out of %d", nonZero, tensor.NumElements())
	}
}

func TestRand(t *testing.T) {
	backend := NewMockBackend()

	tensor := Rand[float32](Shape{100, 50}, backend)

	checkShape(t, Shape{100, 50}, tensor.Shape(), "Rand shape")

	data := tensor.Data()
	for i, v := range data {
		if v < 0 || v >= 1 {
			t.Errorf("Rand[%d] = %v, want a value in [0, 1)", i, v)
		}
	}

	allSame := true
	for _, v := range data[1:] {
		if v != data[0] {
			allSame = false
			break
		}
	}
	if allSame {
		t.Error("Rand returned a constant tensor")
	}
}

func TestRandFloat64(t *testing.T) {
	backend := NewMockBackend()

	tensor := Rand[float64](Shape{50, 40}, backend)

	for i, v := range tensor.Data() {
		if v < 0 || v >= 1 {
			t.Errorf("Rand[%d] = %v, want a value in [0, 1)", i, v)
		}
	}
}

func TestTruncNormal(t *testing.T) {
	backend := NewMockBackend()
	std := 0.02

	tensor := TruncNormal[float32](Shape{64, 64}, std, backend)

	checkShape(t, Shape{64, 64}, tensor.Shape(), "TruncNormal shape")

	data := tensor.Data()

	// Every sample must fall inside the truncation bounds.
	bound := float32(2 * std)
	for i, v := range data {
		if v < -bound || v > bound {
			t.Errorf("TruncNormal[%d] = %v, outside [-%v, %v]", i, v, bound, bound)
		}
	}

	nonZero := 0
	for _, v := range data {
		if v != 0 {
			nonZero++
		}
	}
	if nonZero < len(data)/2 {
		t.Errorf("TruncNormal produced %d non-zero values out of %d", nonZero, len(data))
	}

	// Truncation at two sigma shrinks the std slightly, so allow a
	// wide band around the requested value.
	_, sampleStd := sampleStats(data)
	if sampleStd < 0.5*std || sampleStd > 1.5*std {
		t.Errorf("TruncNormal sample std = %v, want near %v", sampleStd, std)
	}
}

func TestTruncNormalZeroStd(t *testing.T) {
	backend := NewMockBackend()

	tensor := TruncNormal[float32](Shape{4, 4}, 0, backend)

	for i, v := range tensor.Data() {
		if v != 0 {
			t.Errorf("TruncNormal(std=0)[%d] = %v, want 0", i, v)
		}
	}
}

func TestRandnIntPanics(t *testing.T) {
	backend := NewMockBackend()

	defer func() {
		if recover() == nil {
			t.Error("Randn[int32] should panic")
		}
	}()
	Randn[int32](Shape{2, 2}, backend)
}
