package loader

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/born-ml/poolformer/internal/tensor"
)

// SafeTensors layout:
//
//	[8 bytes: header_size (uint64 LE)]
//	[header_size bytes: JSON header]
//	[tensor data: raw bytes]

// maxSafeTensorsHeader bounds the length-prefixed JSON header so a
// corrupt size field cannot trigger a huge allocation.
const maxSafeTensorsHeader = 100 * 1024 * 1024

// SafeTensorsDType represents supported SafeTensors data types.
type SafeTensorsDType string

// Supported SafeTensors dtypes.
const (
	SafeTensorsF16  SafeTensorsDType = "F16"
	SafeTensorsF32  SafeTensorsDType = "F32"
	SafeTensorsF64  SafeTensorsDType = "F64"
	SafeTensorsBF16 SafeTensorsDType = "BF16"
	SafeTensorsI32  SafeTensorsDType = "I32"
	SafeTensorsI64  SafeTensorsDType = "I64"
	SafeTensorsU8   SafeTensorsDType = "U8"
	SafeTensorsBool SafeTensorsDType = "BOOL"
)

// SafeTensorInfo describes a tensor in SafeTensors format.
type SafeTensorInfo struct {
	DType       SafeTensorsDType `json:"dtype"`
	Shape       []int            `json:"shape"`
	DataOffsets [2]int64         `json:"data_offsets"` // [start, end]
}

// SafeTensorsHeader is the JSON header in SafeTensors format. The
// header is a flat JSON object whose keys are tensor names, plus an
// optional "__metadata__" entry, so it needs custom unmarshaling.
type SafeTensorsHeader struct {
	Metadata map[string]string         `json:"__metadata__"`
	Tensors  map[string]SafeTensorInfo `json:"-"`
}

// UnmarshalJSON splits the flat header object into the metadata entry
// and the per-tensor entries.
func (h *SafeTensorsHeader) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	if meta, ok := fields["__metadata__"]; ok {
		if err := json.Unmarshal(meta, &h.Metadata); err != nil {
			return fmt.Errorf("unmarshal metadata: %w", err)
		}
		delete(fields, "__metadata__")
	}

	h.Tensors = make(map[string]SafeTensorInfo, len(fields))
	for name, entry := range fields {
		var info SafeTensorInfo
		if err := json.Unmarshal(entry, &info); err != nil {
			return fmt.Errorf("unmarshal tensor %s: %w", name, err)
		}
		h.Tensors[name] = info
	}
	return nil
}

// SafeTensorsReader reads SafeTensors weight files, the interchange
// format used by the HuggingFace ecosystem. Converted PoolFormer
// checkpoints are typically distributed this way.
type SafeTensorsReader struct {
	f       *os.File
	header  SafeTensorsHeader
	payload int64 // where tensor bytes begin
}

// NewSafeTensorsReader opens a SafeTensors file and parses its header.
func NewSafeTensorsReader(path string) (*SafeTensorsReader, error) {
	//nolint:gosec // G304: the weight file path is caller-supplied on purpose
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	r := &SafeTensorsReader{f: f}
	if err := r.parse(); err != nil {
		_ = f.Close()
		return nil, err
	}
	return r, nil
}

// parse decodes the length-prefixed JSON header.
func (r *SafeTensorsReader) parse() error {
	var prefix [8]byte
	if _, err := io.ReadFull(r.f, prefix[:]); err != nil {
		return fmt.Errorf("read header size: %w", err)
	}
	size := binary.LittleEndian.Uint64(prefix[:])
	if size > maxSafeTensorsHeader {
		return fmt.Errorf("invalid header size: %d (too large)", size)
	}

	buf := make([]byte, size)
	if _, err := io.ReadFull(r.f, buf); err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	if err := json.Unmarshal(buf, &r.header); err != nil {
		return fmt.Errorf("parse header JSON: %w", err)
	}

	r.payload = int64(len(prefix)) + int64(size) //nolint:gosec // G115: bounded by maxSafeTensorsHeader
	return nil
}

// Close closes the underlying file.
func (r *SafeTensorsReader) Close() error {
	if r.f != nil {
		return r.f.Close()
	}
	return nil
}

// Metadata returns the metadata map from the header.
func (r *SafeTensorsReader) Metadata() map[string]string { return r.header.Metadata }

// TensorNames lists every tensor in the file, sorted by name. The JSON
// header is a map, so sorting is the only way to give callers a stable
// order.
func (r *SafeTensorsReader) TensorNames() []string {
	names := make([]string, 0, len(r.header.Tensors))
	for name := range r.header.Tensors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TensorInfo returns the header entry for the named tensor.
func (r *SafeTensorsReader) TensorInfo(name string) (*SafeTensorInfo, error) {
	info, ok := r.header.Tensors[name]
	if !ok {
		return nil, fmt.Errorf("tensor %q not found", name)
	}
	return &info, nil
}

// ReadTensorData reads the named tensor's raw bytes.
func (r *SafeTensorsReader) ReadTensorData(name string) ([]byte, error) {
	info, err := r.TensorInfo(name)
	if err != nil {
		return nil, err
	}

	size := info.DataOffsets[1] - info.DataOffsets[0]
	if size < 0 {
		return nil, fmt.Errorf("invalid data offsets for tensor %s: [%d, %d]",
			name, info.DataOffsets[0], info.DataOffsets[1])
	}

	if _, err := r.f.Seek(r.payload+info.DataOffsets[0], io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek to tensor data: %w", err)
	}
	data := make([]byte, size)
	if _, err := io.ReadFull(r.f, data); err != nil {
		return nil, fmt.Errorf("read tensor data: %w", err)
	}
	return data, nil
}

// LoadTensor materializes the named tensor on the given backend.
// F16/BF16 tensors return an error; read their bytes with
// ReadTensorData and convert manually.
func (r *SafeTensorsReader) LoadTensor(name string, backend tensor.Backend) (*tensor.RawTensor, error) {
	info, err := r.TensorInfo(name)
	if err != nil {
		return nil, err
	}
	data, err := r.ReadTensorData(name)
	if err != nil {
		return nil, err
	}
	return decodeSafeTensor(name, info, data, backend)
}

// ReadStateDict loads every tensor in the file into a state dictionary.
func (r *SafeTensorsReader) ReadStateDict(backend tensor.Backend) (map[string]*tensor.RawTensor, error) {
	stateDict := make(map[string]*tensor.RawTensor, len(r.header.Tensors))
	for name := range r.header.Tensors {
		raw, err := r.LoadTensor(name, backend)
		if err != nil {
			return nil, fmt.Errorf("load tensor %s: %w", name, err)
		}
		stateDict[name] = raw
	}
	return stateDict, nil
}

// decodeSafeTensor materializes a RawTensor from a header entry and its
// payload bytes.
func decodeSafeTensor(name string, info *SafeTensorInfo, data []byte, backend tensor.Backend) (*tensor.RawTensor, error) {
	dtype, err := safeTensorsDTypeToDataType(info.DType)
	if err != nil {
		return nil, fmt.Errorf("convert dtype for tensor %s: %w", name, err)
	}

	shape := tensor.Shape(info.Shape)
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape for tensor %s: %w", name, err)
	}

	raw, err := tensor.NewRaw(shape, dtype, backend.Device())
	if err != nil {
		return nil, fmt.Errorf("create tensor: %w", err)
	}
	copy(raw.Data(), data)
	return raw, nil
}

// nativeDTypes maps the SafeTensors dtypes with a native DataType
// equivalent. F16 and BF16 are deliberately absent.
var nativeDTypes = map[SafeTensorsDType]tensor.DataType{
	SafeTensorsF32:  tensor.Float32,
	SafeTensorsF64:  tensor.Float64,
	SafeTensorsI32:  tensor.Int32,
	SafeTensorsI64:  tensor.Int64,
	SafeTensorsU8:   tensor.Uint8,
	SafeTensorsBool: tensor.Bool,
}

// safeTensorsDTypeToDataType converts a SafeTensors dtype to the native DataType.
func safeTensorsDTypeToDataType(dtype SafeTensorsDType) (tensor.DataType, error) {
	if dt, ok := nativeDTypes[dtype]; ok {
		return dt, nil
	}
	if dtype == SafeTensorsF16 || dtype == SafeTensorsBF16 {
		// Half precision has no native representation; callers get the
		// raw bytes through ReadTensorData and convert themselves.
		return 0, fmt.Errorf("dtype %s requires conversion (not directly supported)", dtype)
	}
	return 0, fmt.Errorf("unsupported dtype: %s", dtype)
}
