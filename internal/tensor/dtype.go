// Package tensor provides the dense tensor types and operations that the
// PoolFormer models are built on.
package tensor

import "fmt"

// DType constrains the element types a tensor can hold.
type DType interface {
	~float32 | ~float64 | ~int32 | ~int64 | ~uint8 | ~bool
}

// DataType is the runtime tag matching a DType instantiation.
type DataType int

// Supported data types. Float32 is the model dtype; the remaining
// types exist for checkpoint interchange and index tensors.
const (
	Float32 DataType = iota
	Float64
	Int32
	Int64
	Uint8
	Bool
)

var dtypeInfo = [...]struct {
	name string
	size int
}{
	Float32: {"float32", 4},
	Float64: {"float64", 8},
	Int32:   {"int32", 4},
	Int64:   {"int64", 8},
	Uint8:   {"uint8", 1},
	Bool:    {"bool", 1},
}

// Size returns the width of one element in bytes.
func (dt DataType) Size() int {
	if dt < 0 || int(dt) >= len(dtypeInfo) {
		panic(fmt.Sprintf("unknown data type %d", int(dt)))
	}
	return dtypeInfo[dt].size
}

// String implements fmt.Stringer.
func (dt DataType) String() string {
	if dt < 0 || int(dt) >= len(dtypeInfo) {
		return "unknown"
	}
	return dtypeInfo[dt].name
}

// dtypeOf maps a DType instantiation to its runtime tag.
func dtypeOf[T DType]() DataType {
	var zero T
	switch any(zero).(type) {
	case float32:
		return Float32
	case float64:
		return Float64
	case int32:
		return Int32
	case int64:
		return Int64
	case uint8:
		return Uint8
	case bool:
		return Bool
	default:
		panic(fmt.Sprintf("unsupported element type %T", zero))
	}
}
