package cpu

import (
	"fmt"

	"github.com/born-ml/poolformer/internal/tensor"
)

// Unsqueeze inserts a dimension of size 1 at position dim. Negative
// dims index from the end, with -1 appending after the last dimension.
//
// Example:
//
//	x := tensor.Randn[float32]([]int{2, 3}, backend)
//	y := backend.Unsqueeze(x, 1)  // Shape: [2, 1, 3]
func (cpu *CPUBackend) Unsqueeze(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	ndim := len(shape)

	// The insert position ranges over [0, ndim], one past normal dims.
	if dim < 0 {
		dim = ndim + 1 + dim
	}
	if dim < 0 || dim > ndim {
		panic(fmt.Sprintf("unsqueeze: dimension %d out of range for %dD tensor (valid: [0, %d])", dim, ndim, ndim))
	}

	newShape := make(tensor.Shape, 0, ndim+1)
	newShape = append(newShape, shape[:dim]...)
	newShape = append(newShape, 1)
	newShape = append(newShape, shape[dim:]...)

	return cpu.Reshape(x, newShape)
}

// Squeeze removes the dimension at position dim, which must have size
// 1. Negative dims index from the end. Squeezing the only dimension of
// a 1-element tensor yields shape [1], not a 0-dimensional tensor.
//
// Example:
//
//	x := tensor.Randn[float32]([]int{2, 1, 3}, backend)
//	y := backend.Squeeze(x, 1)  // Shape: [2, 3]
func (cpu *CPUBackend) Squeeze(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	dim = normalizeAxis("squeeze", dim, len(shape))

	if shape[dim] != 1 {
		panic(fmt.Sprintf("squeeze: dimension %d has size %d, must be 1", dim, shape[dim]))
	}

	newShape := reducedShape(shape, dim, false)
	if len(newShape) == 0 {
		newShape = tensor.Shape{1}
	}

	return cpu.Reshape(x, newShape)
}
