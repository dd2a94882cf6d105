package cpu

import (
	"fmt"

	"github.com/born-ml/poolformer/internal/tensor"
)

// applyScalar runs one tensor-scalar op. The scalar must carry the
// tensor's exact element type (float32 for Float32 tensors and so on);
// a mismatch is a caller bug and panics on the type assertion.
func (cpu *CPUBackend) applyScalar(name string, op binaryOp, x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	result := mustNewRaw(name, x.Shape(), x.DType(), cpu.device)

	switch x.DType() {
	case tensor.Float32:
		scalarKernel(op, result.AsFloat32(), x.AsFloat32(), scalar.(float32))
	case tensor.Float64:
		scalarKernel(op, result.AsFloat64(), x.AsFloat64(), scalar.(float64))
	case tensor.Int32:
		scalarKernel(op, result.AsInt32(), x.AsInt32(), scalar.(int32))
	case tensor.Int64:
		scalarKernel(op, result.AsInt64(), x.AsInt64(), scalar.(int64))
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %v", name, x.DType()))
	}

	return result
}

// AddScalar adds a scalar to every element.
func (cpu *CPUBackend) AddScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return cpu.applyScalar("addscalar", opAdd, x, scalar)
}

// SubScalar subtracts a scalar from every element.
func (cpu *CPUBackend) SubScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return cpu.applyScalar("subscalar", opSub, x, scalar)
}

// MulScalar multiplies every element by a scalar.
func (cpu *CPUBackend) MulScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return cpu.applyScalar("mulscalar", opMul, x, scalar)
}

// DivScalar divides every element by a scalar.
func (cpu *CPUBackend) DivScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return cpu.applyScalar("divscalar", opDiv, x, scalar)
}
