package cpu

import (
	"fmt"

	"github.com/born-ml/poolformer/internal/tensor"
)

// normalizeAxis resolves a possibly negative dimension index and
// bounds-checks it against the tensor rank.
func normalizeAxis(op string, dim, ndim int) int {
	if dim < 0 {
		dim += ndim
	}
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("%s: dimension %d out of range for %dD tensor", op, dim, ndim))
	}
	return dim
}

// reducedShape returns the output shape of a reduction over dim,
// either keeping it as size 1 or dropping it.
func reducedShape(shape tensor.Shape, dim int, keepDim bool) tensor.Shape {
	if keepDim {
		out := shape.Clone()
		out[dim] = 1
		return out
	}
	out := make(tensor.Shape, 0, len(shape)-1)
	for i, s := range shape {
		if i != dim {
			out = append(out, s)
		}
	}
	return out
}

// splitAxis factors a shape into the element counts before, at and
// after dim, so reductions can walk [outer][axis][inner] blocks with
// plain stride arithmetic.
func splitAxis(shape tensor.Shape, dim int) (outer, axis, inner int) {
	outer, axis, inner = 1, shape[dim], 1
	for i := 0; i < dim; i++ {
		outer *= shape[i]
	}
	for i := dim + 1; i < len(shape); i++ {
		inner *= shape[i]
	}
	return outer, axis, inner
}

// sumAxisKernel reduces src over the middle axis into dst. Element k
// of axis block (o, j) lives at (o*axis+k)*inner + j.
func sumAxisKernel[T ~float32 | ~float64](src, dst []T, outer, axis, inner int) {
	for o := 0; o < outer; o++ {
		srcBase := o * axis * inner
		dstBase := o * inner
		for j := 0; j < inner; j++ {
			var sum T
			idx := srcBase + j
			for k := 0; k < axis; k++ {
				sum += src[idx]
				idx += inner
			}
			dst[dstBase+j] = sum
		}
	}
}

// argmaxAxisKernel writes the index of the maximum along the middle
// axis. Ties keep the first occurrence.
func argmaxAxisKernel[T number](src []T, dst []int32, outer, axis, inner int) {
	for o := 0; o < outer; o++ {
		srcBase := o * axis * inner
		dstBase := o * inner
		for j := 0; j < inner; j++ {
			best := src[srcBase+j]
			bestIdx := int32(0)
			for k := 1; k < axis; k++ {
				if v := src[srcBase+k*inner+j]; v > best {
					best = v
					//nolint:gosec // G115: dimension sizes stay far below 2^31.
					bestIdx = int32(k)
				}
			}
			dst[dstBase+j] = bestIdx
		}
	}
}

func totalSumKernel[T number](src []T) T {
	var sum T
	for _, v := range src {
		sum += v
	}
	return sum
}

// SumDim sums tensor elements along one dimension. dim supports
// negative indexing (-1 is the last dimension); keepDim keeps the
// reduced dimension with size 1 instead of removing it.
//
// Example:
//
//	x := tensor.Randn[float32]([]int{2, 3, 4}, backend)
//	y := backend.SumDim(x, -1, true)   // shape: [2, 3, 1]
//	z := backend.SumDim(x, -1, false)  // shape: [2, 3]
func (cpu *CPUBackend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	shape := x.Shape()
	dim = normalizeAxis("sumdim", dim, len(shape))

	result := mustNewRaw("sumdim", reducedShape(shape, dim, keepDim), x.DType(), cpu.device)
	outer, axis, inner := splitAxis(shape, dim)

	switch x.DType() {
	case tensor.Float32:
		sumAxisKernel(x.AsFloat32(), result.AsFloat32(), outer, axis, inner)
	case tensor.Float64:
		sumAxisKernel(x.AsFloat64(), result.AsFloat64(), outer, axis, inner)
	default:
		panic(fmt.Sprintf("sumdim: unsupported dtype %s (only float32/float64 supported)", x.DType()))
	}

	return result
}

// MeanDim computes the mean along one dimension. Same dim and keepDim
// conventions as SumDim.
func (cpu *CPUBackend) MeanDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	result := cpu.SumDim(x, dim, keepDim)

	shape := x.Shape()
	axis := shape[normalizeAxis("meandim", dim, len(shape))]

	switch result.DType() {
	case tensor.Float32:
		data := result.AsFloat32()
		scalarKernel(opDiv, data, data, float32(axis))
	case tensor.Float64:
		data := result.AsFloat64()
		scalarKernel(opDiv, data, data, float64(axis))
	}

	return result
}

// Sum reduces the whole tensor to a scalar (empty shape).
func (cpu *CPUBackend) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	result := mustNewRaw("sum", tensor.Shape{}, x.DType(), cpu.device)

	switch x.DType() {
	case tensor.Float32:
		result.AsFloat32()[0] = totalSumKernel(x.AsFloat32())
	case tensor.Float64:
		result.AsFloat64()[0] = totalSumKernel(x.AsFloat64())
	case tensor.Int32:
		result.AsInt32()[0] = totalSumKernel(x.AsInt32())
	case tensor.Int64:
		result.AsInt64()[0] = totalSumKernel(x.AsInt64())
	default:
		panic(fmt.Sprintf("sum: unsupported dtype %s", x.DType()))
	}

	return result
}

// Argmax returns the index of the maximum value along dim. The reduced
// dimension is removed and the result dtype is Int32.
func (cpu *CPUBackend) Argmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	dim = normalizeAxis("argmax", dim, len(shape))

	result := mustNewRaw("argmax", reducedShape(shape, dim, false), tensor.Int32, cpu.device)
	outer, axis, inner := splitAxis(shape, dim)

	switch x.DType() {
	case tensor.Float32:
		argmaxAxisKernel(x.AsFloat32(), result.AsInt32(), outer, axis, inner)
	case tensor.Float64:
		argmaxAxisKernel(x.AsFloat64(), result.AsInt32(), outer, axis, inner)
	case tensor.Int32:
		argmaxAxisKernel(x.AsInt32(), result.AsInt32(), outer, axis, inner)
	case tensor.Int64:
		argmaxAxisKernel(x.AsInt64(), result.AsInt32(), outer, axis, inner)
	default:
		panic(fmt.Sprintf("argmax: unsupported dtype %s", x.DType()))
	}

	return result
}
