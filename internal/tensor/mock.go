package tensor

import (
	"fmt"
	"math"
)

var _ Backend = (*MockBackend)(nil)

// MockBackend implements every Backend operation as a direct
// nested-loop rendition of its definition, reading and writing single
// elements through float64. Package tests and the CPU backend's
// cross-checks use it as the obviously-correct reference.
type MockBackend struct{}

// NewMockBackend creates a new MockBackend.
func NewMockBackend() *MockBackend {
	return &MockBackend{}
}

// Name returns the backend name.
func (m *MockBackend) Name() string { return "mock" }

// Device returns the device type.
func (m *MockBackend) Device() Device { return CPU }

// at reads element i of t as float64, whatever the dtype.
func at(t *RawTensor, i int) float64 {
	switch t.DType() {
	case Float32:
		return float64(t.AsFloat32()[i])
	case Float64:
		return t.AsFloat64()[i]
	case Int32:
		return float64(t.AsInt32()[i])
	case Int64:
		return float64(t.AsInt64()[i])
	case Uint8:
		return float64(t.AsUint8()[i])
	default:
		panic(fmt.Sprintf("mock: unsupported dtype %s", t.DType()))
	}
}

// put writes v into element i of t, converting to the dtype.
func put(t *RawTensor, i int, v float64) {
	switch t.DType() {
	case Float32:
		t.AsFloat32()[i] = float32(v)
	case Float64:
		t.AsFloat64()[i] = v
	case Int32:
		t.AsInt32()[i] = int32(v)
	case Int64:
		t.AsInt64()[i] = int64(v)
	case Uint8:
		t.AsUint8()[i] = uint8(v)
	default:
		panic(fmt.Sprintf("mock: unsupported dtype %s", t.DType()))
	}
}

// alloc panics instead of returning an error; a bad shape here is a
// test bug, not a runtime condition.
func alloc(shape Shape, dtype DataType) *RawTensor {
	raw, err := NewRaw(shape, dtype, CPU)
	if err != nil {
		panic(err)
	}
	return raw
}

// advance steps coords through shape in row-major order, odometer
// style: increment the last axis, carry into earlier ones on overflow.
func advance(coords []int, shape Shape) {
	for d := len(coords) - 1; d >= 0; d-- {
		coords[d]++
		if coords[d] < shape[d] {
			return
		}
		coords[d] = 0
	}
}

// project maps output coordinates onto a possibly-broadcast operand:
// axes align from the right, and size-1 operand axes pin to index 0.
func project(coords []int, shape Shape, strides []int) int {
	skip := len(coords) - len(shape)
	idx := 0
	for d, size := range shape {
		c := coords[skip+d]
		if size == 1 {
			c = 0
		}
		idx += c * strides[d]
	}
	return idx
}

// zip applies f pairwise over a and b under broadcasting.
func (m *MockBackend) zip(a, b *RawTensor, f func(x, y float64) float64) *RawTensor {
	shape, _, err := BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(err)
	}
	out := alloc(shape, a.DType())

	coords := make([]int, len(shape))
	for i := 0; i < shape.NumElements(); i++ {
		x := at(a, project(coords, a.Shape(), a.Strides()))
		y := at(b, project(coords, b.Shape(), b.Strides()))
		put(out, i, f(x, y))
		advance(coords, shape)
	}
	return out
}

// mapEach applies f to every element of x.
func (m *MockBackend) mapEach(x *RawTensor, f func(v float64) float64) *RawTensor {
	out := alloc(x.Shape(), x.DType())
	for i := 0; i < x.NumElements(); i++ {
		put(out, i, f(at(x, i)))
	}
	return out
}

// Add performs element-wise addition with broadcasting.
func (m *MockBackend) Add(a, b *RawTensor) *RawTensor {
	return m.zip(a, b, func(x, y float64) float64 { return x + y })
}

// Sub performs element-wise subtraction with broadcasting.
func (m *MockBackend) Sub(a, b *RawTensor) *RawTensor {
	return m.zip(a, b, func(x, y float64) float64 { return x - y })
}

// Mul performs element-wise multiplication with broadcasting.
func (m *MockBackend) Mul(a, b *RawTensor) *RawTensor {
	return m.zip(a, b, func(x, y float64) float64 { return x * y })
}

// Div performs element-wise division with broadcasting.
func (m *MockBackend) Div(a, b *RawTensor) *RawTensor {
	return m.zip(a, b, func(x, y float64) float64 { return x / y })
}

// AddScalar adds a scalar to every element.
func (m *MockBackend) AddScalar(x *RawTensor, scalar any) *RawTensor {
	s := toFloat(scalar)
	return m.mapEach(x, func(v float64) float64 { return v + s })
}

// SubScalar subtracts a scalar from every element.
func (m *MockBackend) SubScalar(x *RawTensor, scalar any) *RawTensor {
	s := toFloat(scalar)
	return m.mapEach(x, func(v float64) float64 { return v - s })
}

// MulScalar multiplies every element by a scalar.
func (m *MockBackend) MulScalar(x *RawTensor, scalar any) *RawTensor {
	s := toFloat(scalar)
	return m.mapEach(x, func(v float64) float64 { return v * s })
}

// DivScalar divides every element by a scalar.
func (m *MockBackend) DivScalar(x *RawTensor, scalar any) *RawTensor {
	s := toFloat(scalar)
	return m.mapEach(x, func(v float64) float64 { return v / s })
}

// Exp computes e^x element-wise.
func (m *MockBackend) Exp(x *RawTensor) *RawTensor {
	return m.mapEach(x, math.Exp)
}

// Sqrt computes the square root element-wise.
func (m *MockBackend) Sqrt(x *RawTensor) *RawTensor {
	return m.mapEach(x, math.Sqrt)
}

// Rsqrt computes 1/sqrt(x) element-wise.
func (m *MockBackend) Rsqrt(x *RawTensor) *RawTensor {
	return m.mapEach(x, func(v float64) float64 { return 1 / math.Sqrt(v) })
}

// MatMul multiplies two 2D matrices.
func (m *MockBackend) MatMul(a, b *RawTensor) *RawTensor {
	as, bs := a.Shape(), b.Shape()
	if len(as) != 2 || len(bs) != 2 {
		panic(fmt.Sprintf("mock MatMul: need 2D operands, got %v @ %v", as, bs))
	}
	if as[1] != bs[0] {
		panic(fmt.Sprintf("mock MatMul: inner dims differ: %v @ %v", as, bs))
	}

	rows, inner, cols := as[0], as[1], bs[1]
	out := alloc(Shape{rows, cols}, a.DType())
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			acc := 0.0
			for k := 0; k < inner; k++ {
				acc += at(a, r*inner+k) * at(b, k*cols+c)
			}
			put(out, r*cols+c, acc)
		}
	}
	return out
}

// idx4 flattens [n,c,h,w] coordinates under shape s.
func idx4(s Shape, n, c, h, w int) int {
	return ((n*s[1]+c)*s[2]+h)*s[3] + w
}

// Conv2D performs 2D convolution by sliding the kernel directly.
func (m *MockBackend) Conv2D(input, kernel *RawTensor, stride, padding int) *RawTensor {
	is, ks := input.Shape(), kernel.Shape()
	if len(is) != 4 || len(ks) != 4 {
		panic(fmt.Sprintf("mock Conv2D: need 4D input and kernel, got %v, %v", is, ks))
	}
	if is[1] != ks[1] {
		panic(fmt.Sprintf("mock Conv2D: input channels %d != kernel channels %d", is[1], ks[1]))
	}

	batch, inC, height, width := is[0], is[1], is[2], is[3]
	outC, kh, kw := ks[0], ks[2], ks[3]
	outH := (height+2*padding-kh)/stride + 1
	outW := (width+2*padding-kw)/stride + 1

	os := Shape{batch, outC, outH, outW}
	out := alloc(os, input.DType())

	for n := 0; n < batch; n++ {
		for co := 0; co < outC; co++ {
			for oh := 0; oh < outH; oh++ {
				for ow := 0; ow < outW; ow++ {
					acc := 0.0
					for ci := 0; ci < inC; ci++ {
						for y := 0; y < kh; y++ {
							for x := 0; x < kw; x++ {
								h := oh*stride + y - padding
								w := ow*stride + x - padding
								if h < 0 || h >= height || w < 0 || w >= width {
									continue // zero padding
								}
								acc += at(input, idx4(is, n, ci, h, w)) * at(kernel, idx4(ks, co, ci, y, x))
							}
						}
					}
					put(out, idx4(os, n, co, oh, ow), acc)
				}
			}
		}
	}
	return out
}

// AvgPool2D averages over square windows. With countIncludePad false,
// boundary windows divide by the number of in-bounds elements only.
func (m *MockBackend) AvgPool2D(input *RawTensor, kernelSize, stride, padding int, countIncludePad bool) *RawTensor {
	is := input.Shape()
	if len(is) != 4 {
		panic(fmt.Sprintf("mock AvgPool2D: need 4D input, got %v", is))
	}

	batch, channels, height, width := is[0], is[1], is[2], is[3]
	outH := (height+2*padding-kernelSize)/stride + 1
	outW := (width+2*padding-kernelSize)/stride + 1

	os := Shape{batch, channels, outH, outW}
	out := alloc(os, input.DType())

	for n := 0; n < batch; n++ {
		for c := 0; c < channels; c++ {
			for oh := 0; oh < outH; oh++ {
				for ow := 0; ow < outW; ow++ {
					acc, seen := 0.0, 0
					for y := 0; y < kernelSize; y++ {
						for x := 0; x < kernelSize; x++ {
							h := oh*stride + y - padding
							w := ow*stride + x - padding
							if h < 0 || h >= height || w < 0 || w >= width {
								continue
							}
							acc += at(input, idx4(is, n, c, h, w))
							seen++
						}
					}
					div := float64(seen)
					if countIncludePad {
						div = float64(kernelSize * kernelSize)
					}
					put(out, idx4(os, n, c, oh, ow), acc/div)
				}
			}
		}
	}
	return out
}

// Softmax applies softmax along a dimension.
func (m *MockBackend) Softmax(x *RawTensor, dim int) *RawTensor {
	shape := x.Shape()
	dim = normalizeDim(dim, len(shape))
	out := alloc(shape, x.DType())

	outer, axis, inner := splitAtDim(shape, dim)
	for o := 0; o < outer; o++ {
		for i := 0; i < inner; i++ {
			lane := func(a int) int { return (o*axis+a)*inner + i }

			peak := math.Inf(-1)
			for a := 0; a < axis; a++ {
				peak = math.Max(peak, at(x, lane(a)))
			}
			total := 0.0
			for a := 0; a < axis; a++ {
				e := math.Exp(at(x, lane(a)) - peak)
				put(out, lane(a), e)
				total += e
			}
			for a := 0; a < axis; a++ {
				put(out, lane(a), at(out, lane(a))/total)
			}
		}
	}
	return out
}

// Sum computes the total sum as a scalar tensor.
func (m *MockBackend) Sum(x *RawTensor) *RawTensor {
	total := 0.0
	for i := 0; i < x.NumElements(); i++ {
		total += at(x, i)
	}
	out := alloc(Shape{}, x.DType())
	put(out, 0, total)
	return out
}

// SumDim sums along the given dimension.
func (m *MockBackend) SumDim(x *RawTensor, dim int, keepDim bool) *RawTensor {
	return m.reduceDim(x, dim, keepDim, false)
}

// MeanDim computes the mean along the given dimension.
func (m *MockBackend) MeanDim(x *RawTensor, dim int, keepDim bool) *RawTensor {
	return m.reduceDim(x, dim, keepDim, true)
}

func (m *MockBackend) reduceDim(x *RawTensor, dim int, keepDim, mean bool) *RawTensor {
	shape := x.Shape()
	dim = normalizeDim(dim, len(shape))
	out := alloc(reducedShape(shape, dim, keepDim), x.DType())

	outer, axis, inner := splitAtDim(shape, dim)
	for o := 0; o < outer; o++ {
		for i := 0; i < inner; i++ {
			acc := 0.0
			for a := 0; a < axis; a++ {
				acc += at(x, (o*axis+a)*inner+i)
			}
			if mean {
				acc /= float64(axis)
			}
			put(out, o*inner+i, acc)
		}
	}
	return out
}

// Argmax returns int32 indices of the maximum along a dimension.
func (m *MockBackend) Argmax(x *RawTensor, dim int) *RawTensor {
	shape := x.Shape()
	dim = normalizeDim(dim, len(shape))
	out := alloc(reducedShape(shape, dim, false), Int32)
	indices := out.AsInt32()

	outer, axis, inner := splitAtDim(shape, dim)
	for o := 0; o < outer; o++ {
		for i := 0; i < inner; i++ {
			best, bestVal := 0, at(x, o*axis*inner+i)
			for a := 1; a < axis; a++ {
				if v := at(x, (o*axis+a)*inner+i); v > bestVal {
					best, bestVal = a, v
				}
			}
			indices[o*inner+i] = int32(best) //nolint:gosec // G115: axis sizes fit in int32
		}
	}
	return out
}

// Reshape changes the tensor shape, preserving element order.
func (m *MockBackend) Reshape(t *RawTensor, newShape Shape) *RawTensor {
	if err := newShape.Validate(); err != nil {
		panic(err)
	}
	if t.NumElements() != newShape.NumElements() {
		panic(fmt.Sprintf("mock Reshape: %d elements cannot fill shape %v", t.NumElements(), newShape))
	}
	out := alloc(newShape, t.DType())
	copy(out.Data(), t.Data())
	return out
}

// Unsqueeze inserts a size-1 dimension.
func (m *MockBackend) Unsqueeze(x *RawTensor, dim int) *RawTensor {
	shape := x.Shape()
	if dim < 0 {
		dim += len(shape) + 1
	}
	if dim < 0 || dim > len(shape) {
		panic(fmt.Sprintf("mock Unsqueeze: dim %d out of range for shape %v", dim, shape))
	}
	newShape := append(append(append(Shape{}, shape[:dim]...), 1), shape[dim:]...)
	return m.Reshape(x, newShape)
}

// Squeeze removes a size-1 dimension.
func (m *MockBackend) Squeeze(x *RawTensor, dim int) *RawTensor {
	shape := x.Shape()
	dim = normalizeDim(dim, len(shape))
	if shape[dim] != 1 {
		panic(fmt.Sprintf("mock Squeeze: dim %d has size %d, must be 1", dim, shape[dim]))
	}
	newShape := append(append(Shape{}, shape[:dim]...), shape[dim+1:]...)
	if len(newShape) == 0 {
		newShape = Shape{1}
	}
	return m.Reshape(x, newShape)
}

// Transpose permutes tensor dimensions. With no axes given it reverses
// them all.
func (m *MockBackend) Transpose(t *RawTensor, axes ...int) *RawTensor {
	shape := t.Shape()
	if len(axes) == 0 {
		axes = make([]int, len(shape))
		for i := range axes {
			axes[i] = len(shape) - 1 - i
		}
	}
	if len(axes) != len(shape) {
		panic(fmt.Sprintf("mock Transpose: %d axes for %dD tensor", len(axes), len(shape)))
	}

	newShape := make(Shape, len(shape))
	for i, axis := range axes {
		if axis < 0 || axis >= len(shape) {
			panic(fmt.Sprintf("mock Transpose: axis %d out of range for shape %v", axis, shape))
		}
		newShape[i] = shape[axis]
	}
	out := alloc(newShape, t.DType())
	newStrides := newShape.ComputeStrides()

	coords := make([]int, len(shape))
	for i := 0; i < t.NumElements(); i++ {
		dst := 0
		for d, axis := range axes {
			dst += coords[axis] * newStrides[d]
		}
		put(out, dst, at(t, i))
		advance(coords, shape)
	}
	return out
}

// Helper functions

func normalizeDim(dim, ndim int) int {
	if dim < 0 {
		dim += ndim
	}
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("dimension %d out of range for %d dimensions", dim, ndim))
	}
	return dim
}

// splitAtDim factors shape into the element counts before, at, and
// after dim, so axis iteration reduces to three nested loops.
func splitAtDim(shape Shape, dim int) (outer, axis, inner int) {
	outer, inner = 1, 1
	for i := 0; i < dim; i++ {
		outer *= shape[i]
	}
	for i := dim + 1; i < len(shape); i++ {
		inner *= shape[i]
	}
	return outer, shape[dim], inner
}

// reducedShape drops dim from shape, or pins it to 1 with keepDim.
// Reducing the last dimension away leaves a scalar Shape{1}.
func reducedShape(shape Shape, dim int, keepDim bool) Shape {
	out := make(Shape, 0, len(shape))
	for i, d := range shape {
		switch {
		case i != dim:
			out = append(out, d)
		case keepDim:
			out = append(out, 1)
		}
	}
	if len(out) == 0 {
		out = Shape{1}
	}
	return out
}

func toFloat(scalar any) float64 {
	switch s := scalar.(type) {
	case float32:
		return float64(s)
	case float64:
		return s
	case int:
		return float64(s)
	case int32:
		return float64(s)
	case int64:
		return float64(s)
	case uint8:
		return float64(s)
	default:
		panic(fmt.Sprintf("unsupported scalar type %T", scalar))
	}
}
