package tensor

import "fmt"

// Tensor pairs a RawTensor with a compile-time element type T and the
// backend B that executes its operations. The typed wrapper keeps user
// code free of DataType switches while the untyped RawTensor remains
// the unit of exchange at the backend boundary.
//
//	backend := cpu.New()
//	x := tensor.Zeros[float32](Shape{2, 64, 56, 56}, backend)
//	y := x.Add(x)
type Tensor[T DType, B Backend] struct {
	raw     *RawTensor
	backend B
}

// New wraps an existing RawTensor in a typed Tensor.
func New[T DType, B Backend](raw *RawTensor, b B) *Tensor[T, B] {
	return &Tensor[T, B]{
		raw:     raw,
		backend: b,
	}
}

// FromSlice copies data into a freshly allocated tensor of the given
// shape. The slice length must match the shape's element count.
func FromSlice[T DType, B Backend](data []T, shape Shape, b B) (*Tensor[T, B], error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v holds %d elements, got %d", shape, shape.NumElements(), len(data))
	}

	raw, err := NewRaw(shape, dtypeOf[T](), b.Device())
	if err != nil {
		return nil, err
	}

	t := New[T, B](raw, b)
	copy(t.Data(), data)

	return t, nil
}

// Shape returns the tensor's dimensions.
func (t *Tensor[T, B]) Shape() Shape { return t.raw.Shape() }

// DType returns the runtime element type.
func (t *Tensor[T, B]) DType() DataType { return t.raw.DType() }

// Device reports where the tensor's memory lives.
func (t *Tensor[T, B]) Device() Device { return t.raw.Device() }

// NumElements returns the element count across all dimensions.
func (t *Tensor[T, B]) NumElements() int { return t.raw.NumElements() }

// Raw returns the underlying RawTensor for backend-level code.
func (t *Tensor[T, B]) Raw() *RawTensor { return t.raw }

// Backend returns the backend this tensor dispatches to.
func (t *Tensor[T, B]) Backend() B { return t.backend }

// Data returns a typed slice over the tensor's memory (zero-copy).
// Writes through the slice modify the tensor.
func (t *Tensor[T, B]) Data() []T {
	return view[T](t.raw, dtypeOf[T]())
}

// Item returns the value of a 0-D tensor. Panics otherwise.
func (t *Tensor[T, B]) Item() T {
	if len(t.Shape()) != 0 || t.NumElements() != 1 {
		panic(fmt.Sprintf("Item() requires a scalar, have shape %v", t.Shape()))
	}
	return t.Data()[0]
}

// flatOffset turns a full set of per-dimension indices into a flat
// position, bounds-checking each one.
func (t *Tensor[T, B]) flatOffset(indices []int) int {
	shape := t.Shape()
	if len(indices) != len(shape) {
		panic(fmt.Sprintf("expected %d indices, got %d", len(shape), len(indices)))
	}

	offset := 0
	strides := t.raw.Strides()
	for i, idx := range indices {
		if idx < 0 || idx >= shape[i] {
			panic(fmt.Sprintf("index %d out of bounds for dimension %d (size %d)", idx, i, shape[i]))
		}
		offset += idx * strides[i]
	}
	return offset
}

// At reads one element, e.g. t.At(1, 2) for row 1, column 2. One index
// per dimension is required.
func (t *Tensor[T, B]) At(indices ...int) T {
	return t.Data()[t.flatOffset(indices)]
}

// Set writes one element at the given indices.
func (t *Tensor[T, B]) Set(value T, indices ...int) {
	t.Data()[t.flatOffset(indices)] = value
}

// String describes the tensor without printing its contents.
func (t *Tensor[T, B]) String() string {
	return fmt.Sprintf("tensor<%s>%v@%s", t.raw.DType(), t.raw.Shape(), t.raw.Device())
}

// Clone creates a copy of the tensor. The underlying buffer is shared
// copy-on-write; see RawTensor.Clone.
func (t *Tensor[T, B]) Clone() *Tensor[T, B] {
	return &Tensor[T, B]{
		raw:     t.raw.Clone(),
		backend: t.backend,
	}
}
