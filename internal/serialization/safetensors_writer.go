package serialization

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/born-ml/poolformer/internal/tensor"
)

// SafeTensorHeader is one tensor's entry in a SafeTensors JSON header.
type SafeTensorHeader struct {
	DType       string   `json:"dtype"`
	Shape       []int64  `json:"shape"`
	DataOffsets [2]int64 `json:"data_offsets"`
}

// WriteSafeTensors writes a state dictionary to path in SafeTensors
// format, the interchange format of the HuggingFace ecosystem. Weights
// exported this way round-trip through PyTorch tooling.
func WriteSafeTensors(path string, stateDict map[string]*tensor.RawTensor, metadata map[string]string) error {
	//nolint:gosec // G304: the export path is caller-supplied on purpose
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	if err := WriteSafeTensorsTo(f, stateDict, metadata); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// WriteSafeTensorsTo streams a state dictionary to w in SafeTensors
// format:
//
//	[8 bytes: header_size (uint64 LE)]
//	[header_size bytes: JSON header]
//	[tensor data: raw bytes]
//
// Tensors are laid out in alphabetical order by name, as the format
// requires.
func WriteSafeTensorsTo(w io.Writer, stateDict map[string]*tensor.RawTensor, metadata map[string]string) error {
	names := make([]string, 0, len(stateDict))
	for name := range stateDict {
		names = append(names, name)
	}
	sort.Strings(names)

	headerBytes, err := safeTensorsHeader(names, stateDict, metadata)
	if err != nil {
		return err
	}

	if err := binary.Write(w, binary.LittleEndian, uint64(len(headerBytes))); err != nil {
		return fmt.Errorf("write header size: %w", err)
	}
	if _, err := w.Write(headerBytes); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, name := range names {
		if _, err := w.Write(stateDict[name].Data()); err != nil {
			return fmt.Errorf("write tensor %s: %w", name, err)
		}
	}
	return nil
}

// safeTensorsHeader marshals the JSON header covering names in order,
// assigning contiguous data offsets.
func safeTensorsHeader(names []string, stateDict map[string]*tensor.RawTensor, metadata map[string]string) ([]byte, error) {
	entries := make(map[string]interface{}, len(names)+1)
	if len(metadata) > 0 {
		entries["__metadata__"] = metadata
	}

	var offset int64
	for _, name := range names {
		raw := stateDict[name]
		size := int64(raw.NumElements() * raw.DType().Size())

		// The format wants int64 shape entries.
		shape := make([]int64, len(raw.Shape()))
		for i, dim := range raw.Shape() {
			shape[i] = int64(dim)
		}

		entries[name] = SafeTensorHeader{
			DType:       dtypeToSafeTensors(raw.DType()),
			Shape:       shape,
			DataOffsets: [2]int64{offset, offset + size},
		}
		offset += size
	}

	headerBytes, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("marshal header: %w", err)
	}
	return headerBytes, nil
}

// dtypeToSafeTensors maps a DataType to its SafeTensors dtype string.
func dtypeToSafeTensors(dt tensor.DataType) string {
	switch dt {
	case tensor.Float32:
		return "F32"
	case tensor.Float64:
		return "F64"
	case tensor.Int32:
		return "I32"
	case tensor.Int64:
		return "I64"
	case tensor.Uint8:
		return "U8"
	case tensor.Bool:
		return "BOOL"
	default:
		return "F32" // unknown dtypes fall back to F32
	}
}
