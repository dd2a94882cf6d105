package cpu

import (
	"fmt"
	"math"

	"github.com/born-ml/poolformer/internal/tensor"
)

func expKernel[T ~float32 | ~float64](dst, src []T) {
	for i, v := range src {
		dst[i] = T(math.Exp(float64(v)))
	}
}

func sqrtKernel[T ~float32 | ~float64](dst, src []T) {
	for i, v := range src {
		if v < 0 {
			panic(fmt.Sprintf("sqrt: negative value at index %d: %f", i, v))
		}
		dst[i] = T(math.Sqrt(float64(v)))
	}
}

func rsqrtKernel[T ~float32 | ~float64](dst, src []T) {
	for i, v := range src {
		if v <= 0 {
			panic(fmt.Sprintf("rsqrt: non-positive value at index %d: %f", i, v))
		}
		dst[i] = 1 / T(math.Sqrt(float64(v)))
	}
}

// Exp computes element-wise exponential: exp(x).
func (cpu *CPUBackend) Exp(x *tensor.RawTensor) *tensor.RawTensor {
	result := mustNewRaw("exp", x.Shape(), x.DType(), cpu.device)

	switch x.DType() {
	case tensor.Float32:
		expKernel(result.AsFloat32(), x.AsFloat32())
	case tensor.Float64:
		expKernel(result.AsFloat64(), x.AsFloat64())
	default:
		panic(fmt.Sprintf("exp: unsupported dtype %s (only float32/float64 supported)", x.DType()))
	}

	return result
}

// Sqrt computes element-wise square root: sqrt(x). Panics on negative
// input.
func (cpu *CPUBackend) Sqrt(x *tensor.RawTensor) *tensor.RawTensor {
	result := mustNewRaw("sqrt", x.Shape(), x.DType(), cpu.device)

	switch x.DType() {
	case tensor.Float32:
		sqrtKernel(result.AsFloat32(), x.AsFloat32())
	case tensor.Float64:
		sqrtKernel(result.AsFloat64(), x.AsFloat64())
	default:
		panic(fmt.Sprintf("sqrt: unsupported dtype %s (only float32/float64 supported)", x.DType()))
	}

	return result
}

// Rsqrt computes element-wise reciprocal square root: 1/sqrt(x).
// This is the inner step of GroupNorm, applied to variance plus
// epsilon, so the input must be strictly positive.
func (cpu *CPUBackend) Rsqrt(x *tensor.RawTensor) *tensor.RawTensor {
	result := mustNewRaw("rsqrt", x.Shape(), x.DType(), cpu.device)

	switch x.DType() {
	case tensor.Float32:
		rsqrtKernel(result.AsFloat32(), x.AsFloat32())
	case tensor.Float64:
		rsqrtKernel(result.AsFloat64(), x.AsFloat64())
	default:
		panic(fmt.Sprintf("rsqrt: unsupported dtype %s (only float32/float64 supported)", x.DType()))
	}

	return result
}
