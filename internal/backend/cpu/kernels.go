package cpu

import (
	"fmt"

	"github.com/born-ml/poolformer/internal/tensor"
)

// number covers the element types the elementwise kernels support.
type number interface {
	~float32 | ~float64 | ~int32 | ~int64
}

// binaryOp selects the arithmetic the shared kernel walkers apply.
type binaryOp int

const (
	opAdd binaryOp = iota
	opSub
	opMul
	opDiv
)

// mustNewRaw allocates a result buffer, panicking on allocator failure
// per the backend's contract-violation policy.
func mustNewRaw(op string, shape tensor.Shape, dtype tensor.DataType, device tensor.Device) *tensor.RawTensor {
	raw, err := tensor.NewRaw(shape, dtype, device)
	if err != nil {
		panic(fmt.Sprintf("%s: %v", op, err))
	}
	return raw
}

// sameShapeKernel computes dst[i] = a[i] op b[i] over equal-shape
// operands. dst is always a fresh buffer, distinct from a and b.
func sameShapeKernel[T number](op binaryOp, dst, a, b []T) {
	switch op {
	case opAdd:
		for i := range dst {
			dst[i] = a[i] + b[i]
		}
	case opSub:
		for i := range dst {
			dst[i] = a[i] - b[i]
		}
	case opMul:
		for i := range dst {
			dst[i] = a[i] * b[i]
		}
	case opDiv:
		for i := range dst {
			dst[i] = a[i] / b[i]
		}
	}
}

// broadcastKernel computes dst = a op b under NumPy broadcast rules.
// Broadcast dimensions carry stride 0, so the same source element is
// read for every output position along them.
func broadcastKernel[T number](op binaryOp, dst, a, b []T, aShape, bShape, outShape tensor.Shape) {
	outStrides := outShape.ComputeStrides()
	aStrides := broadcastStrides(aShape, outShape)
	bStrides := broadcastStrides(bShape, outShape)

	n := outShape.NumElements()
	switch op {
	case opAdd:
		for i := 0; i < n; i++ {
			dst[i] = a[projectIndex(i, outStrides, aStrides)] + b[projectIndex(i, outStrides, bStrides)]
		}
	case opSub:
		for i := 0; i < n; i++ {
			dst[i] = a[projectIndex(i, outStrides, aStrides)] - b[projectIndex(i, outStrides, bStrides)]
		}
	case opMul:
		for i := 0; i < n; i++ {
			dst[i] = a[projectIndex(i, outStrides, aStrides)] * b[projectIndex(i, outStrides, bStrides)]
		}
	case opDiv:
		for i := 0; i < n; i++ {
			dst[i] = a[projectIndex(i, outStrides, aStrides)] / b[projectIndex(i, outStrides, bStrides)]
		}
	}
}

// scalarKernel computes dst[i] = src[i] op s. dst may alias src.
func scalarKernel[T number](op binaryOp, dst, src []T, s T) {
	switch op {
	case opAdd:
		for i := range dst {
			dst[i] = src[i] + s
		}
	case opSub:
		for i := range dst {
			dst[i] = src[i] - s
		}
	case opMul:
		for i := range dst {
			dst[i] = src[i] * s
		}
	case opDiv:
		for i := range dst {
			dst[i] = src[i] / s
		}
	}
}

// elementwise routes one binary op to the typed kernel for the dtype.
// dst must not alias either operand; outShape is only consulted when
// broadcast is set.
func elementwise(name string, op binaryOp, dst, a, b *tensor.RawTensor, broadcast bool, outShape tensor.Shape) {
	switch dst.DType() {
	case tensor.Float32:
		if broadcast {
			broadcastKernel(op, dst.AsFloat32(), a.AsFloat32(), b.AsFloat32(), a.Shape(), b.Shape(), outShape)
		} else {
			sameShapeKernel(op, dst.AsFloat32(), a.AsFloat32(), b.AsFloat32())
		}
	case tensor.Float64:
		if broadcast {
			broadcastKernel(op, dst.AsFloat64(), a.AsFloat64(), b.AsFloat64(), a.Shape(), b.Shape(), outShape)
		} else {
			sameShapeKernel(op, dst.AsFloat64(), a.AsFloat64(), b.AsFloat64())
		}
	case tensor.Int32:
		if broadcast {
			broadcastKernel(op, dst.AsInt32(), a.AsInt32(), b.AsInt32(), a.Shape(), b.Shape(), outShape)
		} else {
			sameShapeKernel(op, dst.AsInt32(), a.AsInt32(), b.AsInt32())
		}
	case tensor.Int64:
		if broadcast {
			broadcastKernel(op, dst.AsInt64(), a.AsInt64(), b.AsInt64(), a.Shape(), b.Shape(), outShape)
		} else {
			sameShapeKernel(op, dst.AsInt64(), a.AsInt64(), b.AsInt64())
		}
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %v", name, dst.DType()))
	}
}

// broadcastStrides returns the strides for reading inShape as if it had
// outShape: missing leading dimensions and size-1 dimensions get stride
// 0 so their coordinate is ignored.
func broadcastStrides(inShape, outShape tensor.Shape) []int {
	outDim := len(outShape)
	offset := outDim - len(inShape)
	origStrides := inShape.ComputeStrides()

	strides := make([]int, outDim)
	for i := range strides {
		inIdx := i - offset
		if inIdx < 0 || inShape[inIdx] == 1 {
			strides[i] = 0
		} else {
			strides[i] = origStrides[inIdx]
		}
	}
	return strides
}

// projectIndex translates a flat output index into the flat index of a
// (possibly broadcast) source, by re-binning the coordinate of every
// output dimension with the source's strides.
func projectIndex(outIdx int, outStrides, inStrides []int) int {
	flat := 0
	for i := range outStrides {
		coord := outIdx / outStrides[i]
		outIdx %= outStrides[i]
		flat += coord * inStrides[i]
	}
	return flat
}

// transposeKernel scatters src into dst with dimensions permuted by
// axes. Allocation-free: coordinates are re-derived from the flat
// source index with stride arithmetic.
func transposeKernel[T number](dst, src []T, shape tensor.Shape, axes []int) {
	srcStrides := shape.ComputeStrides()

	dstShape := make(tensor.Shape, len(shape))
	for i, ax := range axes {
		dstShape[i] = shape[ax]
	}
	dstStrides := dstShape.ComputeStrides()

	n := shape.NumElements()
	for i := 0; i < n; i++ {
		dstIdx := 0
		for d, ax := range axes {
			coord := (i / srcStrides[ax]) % shape[ax]
			dstIdx += coord * dstStrides[d]
		}
		dst[dstIdx] = src[i]
	}
}

// transposeDispatch routes Transpose to the typed kernel.
func transposeDispatch(dst, src *tensor.RawTensor, axes []int) {
	switch src.DType() {
	case tensor.Float32:
		transposeKernel(dst.AsFloat32(), src.AsFloat32(), src.Shape(), axes)
	case tensor.Float64:
		transposeKernel(dst.AsFloat64(), src.AsFloat64(), src.Shape(), axes)
	case tensor.Int32:
		transposeKernel(dst.AsInt32(), src.AsInt32(), src.Shape(), axes)
	case tensor.Int64:
		transposeKernel(dst.AsInt64(), src.AsInt64(), src.Shape(), axes)
	default:
		panic(fmt.Sprintf("transpose: unsupported dtype %v", src.DType()))
	}
}
