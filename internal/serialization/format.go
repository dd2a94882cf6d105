package serialization

import (
	"sort"
	"time"

	"github.com/born-ml/poolformer/internal/tensor"
)

// Layout constants of the .born container.
const (
	MagicBytes        = "BORN"
	FormatVersion     = 1    // original layout, no integrity check
	FormatVersionV2   = 2    // adds a SHA-256 checksum over the payload
	HeaderAlignment   = 64   // tensor data starts on a 64-byte boundary
	FixedHeaderSizeV2 = 64   // size of the fixed v2 header block
	ChecksumSize      = 32   // SHA-256 digest length
	ChecksumOffsetV2  = 0x20 // where the digest sits inside the v2 block
)

// Wire names for each supported element type.
const (
	DTypeFloat32 = "float32"
	DTypeFloat64 = "float64"
	DTypeInt32   = "int32"
	DTypeInt64   = "int64"
	DTypeUint8   = "uint8"
	DTypeBool    = "bool"
)

// Flags for the .born format. Bits 1+ are reserved.
const (
	FlagHasMetadata uint32 = 1 << 0 // bit 0: custom metadata included
)

// Header is the JSON document stored after the fixed preamble. It
// carries provenance fields plus the tensor table.
type Header struct {
	FormatVersion int               `json:"format_version"`
	BornVersion   string            `json:"born_version"` // library version that wrote the file
	ModelType     string            `json:"model_type"`   // e.g. "PoolFormerClassifier"
	CreatedAt     time.Time         `json:"created_at"`
	Tensors       []TensorMeta      `json:"tensors"`
	Metadata      map[string]string `json:"metadata"` // free-form key/value pairs
}

// TensorMeta locates one tensor inside the data section.
type TensorMeta struct {
	Name   string `json:"name"`   // e.g. "stem.proj.weight"
	DType  string `json:"dtype"`  // wire name, see DType* constants
	Shape  []int  `json:"shape"`
	Offset int64  `json:"offset"` // bytes from the start of the data section
	Size   int64  `json:"size"`
}

// buildTensorMetas lays out a state dict sequentially and returns the
// metadata entries plus the tensor names in layout order. Names are
// sorted so the same weights always produce the same bytes, which
// keeps checksums reproducible. The payload must be written in the
// returned order.
func buildTensorMetas(stateDict map[string]*tensor.RawTensor) ([]TensorMeta, []string) {
	order := make([]string, 0, len(stateDict))
	for name := range stateDict {
		order = append(order, name)
	}
	sort.Strings(order)

	metas := make([]TensorMeta, 0, len(order))
	var offset int64
	for _, name := range order {
		raw := stateDict[name]
		size := int64(raw.NumElements() * raw.DType().Size())
		metas = append(metas, TensorMeta{
			Name:   name,
			DType:  dtypeToString(raw.DType()),
			Shape:  []int(raw.Shape()),
			Offset: offset,
			Size:   size,
		})
		offset += size
	}

	return metas, order
}

// alignmentPadding returns the number of zero bytes needed to bring pos
// up to the next HeaderAlignment boundary.
func alignmentPadding(pos int64) int64 {
	return (HeaderAlignment - (pos % HeaderAlignment)) % HeaderAlignment
}

// dtypeNames maps runtime element types to their wire names; the
// inverse map below is derived from it so the two cannot drift.
var dtypeNames = map[tensor.DataType]string{
	tensor.Float32: DTypeFloat32,
	tensor.Float64: DTypeFloat64,
	tensor.Int32:   DTypeInt32,
	tensor.Int64:   DTypeInt64,
	tensor.Uint8:   DTypeUint8,
	tensor.Bool:    DTypeBool,
}

var dtypeByName = func() map[string]tensor.DataType {
	m := make(map[string]tensor.DataType, len(dtypeNames))
	for dt, name := range dtypeNames {
		m[name] = dt
	}
	return m
}()

func dtypeToString(dt tensor.DataType) string {
	if name, ok := dtypeNames[dt]; ok {
		return name
	}
	return "unknown"
}

func stringToDtype(s string) (tensor.DataType, bool) {
	dt, ok := dtypeByName[s]
	return dt, ok
}
