package cpu

import (
	"fmt"
	"math"

	"github.com/born-ml/poolformer/internal/tensor"
)

// softmaxAxisKernel computes softmax over the middle axis with the
// max-subtraction trick for numerical stability.
func softmaxAxisKernel[T ~float32 | ~float64](dst, src []T, outer, axis, inner int) {
	for o := 0; o < outer; o++ {
		base := o * axis * inner
		for j := 0; j < inner; j++ {
			maxVal := src[base+j]
			for k := 1; k < axis; k++ {
				if v := src[base+k*inner+j]; v > maxVal {
					maxVal = v
				}
			}

			var sum T
			for k := 0; k < axis; k++ {
				idx := base + k*inner + j
				e := T(math.Exp(float64(src[idx] - maxVal)))
				dst[idx] = e
				sum += e
			}

			for k := 0; k < axis; k++ {
				dst[base+k*inner+j] /= sum
			}
		}
	}
}

// geluKernel applies the tanh approximation of GELU:
// 0.5 * x * (1 + tanh(sqrt(2/pi) * (x + 0.044715 * x^3))).
func geluKernel[T ~float32 | ~float64](dst, src []T) {
	const (
		sqrt2OverPi = 0.7978845608028654 // sqrt(2/pi)
		coeff       = 0.044715
	)
	for i, v := range src {
		f := float64(v)
		inner := sqrt2OverPi * (f + coeff*f*f*f)
		dst[i] = T(0.5 * f * (1 + math.Tanh(inner)))
	}
}

// Softmax computes softmax along the specified dimension:
// Softmax(x_i) = exp(x_i) / sum(exp(x_j)) over the dimension.
func (cpu *CPUBackend) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	dim = normalizeAxis("softmax", dim, len(shape))

	result := mustNewRaw("softmax", shape, x.DType(), cpu.device)
	outer, axis, inner := splitAxis(shape, dim)

	switch x.DType() {
	case tensor.Float32:
		softmaxAxisKernel(result.AsFloat32(), x.AsFloat32(), outer, axis, inner)
	case tensor.Float64:
		softmaxAxisKernel(result.AsFloat64(), x.AsFloat64(), outer, axis, inner)
	default:
		panic(fmt.Sprintf("softmax: unsupported dtype %s (only float32/float64 supported)", x.DType()))
	}

	return result
}

// GELU applies the Gaussian Error Linear Unit activation element-wise,
// using the tanh approximation.
func (cpu *CPUBackend) GELU(x *tensor.RawTensor) *tensor.RawTensor {
	result := mustNewRaw("gelu", x.Shape(), x.DType(), cpu.device)

	switch x.DType() {
	case tensor.Float32:
		geluKernel(result.AsFloat32(), x.AsFloat32())
	case tensor.Float64:
		geluKernel(result.AsFloat64(), x.AsFloat64())
	default:
		panic(fmt.Sprintf("gelu: unsupported dtype %s (only float32/float64 supported)", x.DType()))
	}

	return result
}
