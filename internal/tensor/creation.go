package tensor

import (
	"math"
	"math/rand"
)

// Zeros creates a tensor filled with zeros.
//
// Example:
//
//	backend := cpu.New()
//	t := tensor.Zeros[float32](Shape{3, 4}, backend)
func Zeros[T DType, B Backend](shape Shape, backend B) *Tensor[T, B] {
	raw, err := NewRaw(shape, dtypeOf[T](), backend.Device())
	if err != nil {
		panic(err)
	}

	// Buffers come back zero-initialized, nothing more to do.
	return New[T](raw, backend)
}

// Ones creates a tensor filled with ones (true for bool tensors).
//
// Example:
//
//	t := tensor.Ones[float64](Shape{2, 3}, backend)
func Ones[T DType, B Backend](shape Shape, backend B) *Tensor[T, B] {
	return Full(shape, oneOf[T](), backend)
}

func oneOf[T DType]() T {
	var one T
	switch p := any(&one).(type) {
	case *float32:
		*p = 1
	case *float64:
		*p = 1
	case *int32:
		*p = 1
	case *int64:
		*p = 1
	case *uint8:
		*p = 1
	case *bool:
		*p = true
	}
	return one
}

// Full creates a tensor filled with a specific value.
//
// Example:
//
//	t := tensor.Full[float32](Shape{3, 3}, 3.14, backend)
func Full[T DType, B Backend](shape Shape, value T, backend B) *Tensor[T, B] {
	t := Zeros[T](shape, backend)

	data := t.Data()
	for i := range data {
		data[i] = value
	}

	return t
}

// fillFloat populates data from successive draws of next. Only float
// tensors can hold sampled values; anything else panics with the calling
// initializer's name.
func fillFloat[T DType](name string, data []T, next func() float64) {
	switch d := any(data).(type) {
	case []float32:
		for i := range d {
			d[i] = float32(next())
		}
	case []float64:
		for i := range d {
			d[i] = next()
		}
	default:
		panic(name + " only supports float32 and float64 types")
	}
}

// normalSource returns a sampler for the standard normal distribution.
// The Box-Muller transform produces values in pairs, so the second value
// of each pair is cached and handed out on the next call.
func normalSource() func() float64 {
	var spare float64
	var hasSpare bool

	return func() float64 {
		if hasSpare {
			hasSpare = false
			return spare
		}

		u1 := rand.Float64() //nolint:gosec // G404: ML uses math/rand intentionally for reproducibility
		u2 := rand.Float64() //nolint:gosec // G404: ML uses math/rand intentionally for reproducibility

		r := math.Sqrt(-2.0 * math.Log(u1))
		spare = r * math.Sin(2.0*math.Pi*u2)
		hasSpare = true

		return r * math.Cos(2.0*math.Pi*u2)
	}
}

// Randn creates a tensor with random values from a normal distribution
// (mean=0, std=1). Only works with float types.
//
// Example:
//
//	t := tensor.Randn[float32](Shape{100, 100}, backend)
func Randn[T DType, B Backend](shape Shape, backend B) *Tensor[T, B] {
	t := Zeros[T](shape, backend)
	fillFloat("Randn", t.Data(), normalSource())
	return t
}

// TruncNormal creates a tensor with values from a truncated normal
// distribution: mean 0, the given standard deviation, samples beyond two
// standard deviations re-drawn. This is the initializer policy for the
// projection and head weights (std 0.02).
// Only works with float types.
//
// Example:
//
//	w := tensor.TruncNormal[float32](Shape{hidden, dim, 1, 1}, 0.02, backend)
func TruncNormal[T DType, B Backend](shape Shape, std float64, backend B) *Tensor[T, B] {
	t := Zeros[T](shape, backend)

	normal := normalSource()
	sample := func() float64 {
		for {
			z := normal()
			if z >= -2.0 && z <= 2.0 {
				return z * std
			}
		}
	}

	fillFloat("TruncNormal", t.Data(), sample)
	return t
}

// Rand creates a tensor with random values uniformly distributed in [0, 1).
// Only works with float types.
//
// Example:
//
//	t := tensor.Rand[float32](Shape{10, 10}, backend)
func Rand[T DType, B Backend](shape Shape, backend B) *Tensor[T, B] {
	t := Zeros[T](shape, backend)

	//nolint:gosec // G404: dropout masks do not need crypto randomness
	fillFloat("Rand", t.Data(), rand.Float64)
	return t
}
