// Package cpu implements the CPU backend with vectorized kernels and
// multi-core parallelism for convolution and pooling.
package cpu

import (
	"fmt"

	"github.com/born-ml/poolformer/internal/parallel"
	"github.com/born-ml/poolformer/internal/tensor"
)

// CPUBackend implements tensor operations on CPU. Elementwise ops pick
// between vectorized and broadcast paths per call and always write
// into a fresh buffer; Conv2D and AvgPool2D additionally spread work
// across cores.
type CPUBackend struct {
	device   tensor.Device
	parallel parallel.Config
}

// New creates a new CPU backend with parallelism sized to the machine.
func New() *CPUBackend {
	return &CPUBackend{device: tensor.CPU, parallel: parallel.DefaultConfig()}
}

// WithParallel returns a CPU backend using the given parallel config.
// A disabled config runs every kernel on the calling goroutine.
func WithParallel(cfg parallel.Config) *CPUBackend {
	return &CPUBackend{device: tensor.CPU, parallel: cfg}
}

// Name identifies the backend in logs and tensor Strings.
func (cpu *CPUBackend) Name() string { return "CPU" }

// Device reports where this backend allocates, always tensor.CPU.
func (cpu *CPUBackend) Device() tensor.Device { return cpu.device }

// binary runs one elementwise op with NumPy-style broadcasting. The
// result is always a fresh buffer: a refcount of 1 on an operand only
// proves no other RawTensor shares it, not that the caller is done
// reading it, and the operands may alias each other (x.Mul(x)), so
// writing into either would leak the result into values the caller
// still holds.
func (cpu *CPUBackend) binary(name string, op binaryOp, a, b *tensor.RawTensor) *tensor.RawTensor {
	outShape, needsBroadcast, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}

	result := mustNewRaw(name, outShape, a.DType(), cpu.device)
	if !needsBroadcast && a.Shape().Equal(b.Shape()) {
		elementwise(name, op, result, a, b, false, nil)
		return result
	}
	elementwise(name, op, result, a, b, true, outShape)
	return result
}

// Add returns a + b, broadcast elementwise.
func (cpu *CPUBackend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("add", opAdd, a, b)
}

// Sub returns a - b, broadcast elementwise.
func (cpu *CPUBackend) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("sub", opSub, a, b)
}

// Mul returns a * b, broadcast elementwise.
func (cpu *CPUBackend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("mul", opMul, a, b)
}

// Div returns a / b, broadcast elementwise.
func (cpu *CPUBackend) Div(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("div", opDiv, a, b)
}

// Reshape copies t's elements into a tensor of the given shape.
// RawTensor has no stride views, so this is always a copy.
func (cpu *CPUBackend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	if err := newShape.Validate(); err != nil {
		panic(fmt.Sprintf("reshape: %v", err))
	}
	if want, have := newShape.NumElements(), t.NumElements(); want != have {
		panic(fmt.Sprintf("reshape: %v to %v changes element count %d to %d",
			t.Shape(), newShape, have, want))
	}

	result := mustNewRaw("reshape", newShape, t.DType(), t.Device())
	copy(result.Data(), t.Data())
	return result
}

// Transpose permutes t's axes. With no axes given the order is
// reversed, so a 2D tensor gets the usual matrix transpose.
func (cpu *CPUBackend) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	shape := t.Shape()
	ndim := len(shape)

	if len(axes) == 0 {
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	} else if len(axes) != ndim {
		panic(fmt.Sprintf("transpose: got %d axes for a %dD tensor", len(axes), ndim))
	}

	outShape := make(tensor.Shape, ndim)
	seen := make([]bool, ndim)
	for i, ax := range axes {
		if ax < 0 || ax >= ndim || seen[ax] {
			panic(fmt.Sprintf("transpose: bad axis order %v for a %dD tensor", axes, ndim))
		}
		seen[ax] = true
		outShape[i] = shape[ax]
	}

	result := mustNewRaw("transpose", outShape, t.DType(), t.Device())
	transposeDispatch(result, t, axes)
	return result
}
