package serialization

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/born-ml/poolformer/internal/tensor"
)

const bornVersion = "0.1.0" // written into every header

// BornWriter writes model weights in .born format.
type BornWriter struct {
	f      *os.File
	closed bool
}

// NewBornWriter creates the file at path, truncating an existing one.
func NewBornWriter(path string) (*BornWriter, error) {
	//nolint:gosec // G304: save paths come from the caller
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	return &BornWriter{f: f}, nil
}

// WriteStateDict writes the state dictionary as a v1 file.
func (w *BornWriter) WriteStateDict(stateDict map[string]*tensor.RawTensor, modelType string, metadata map[string]string) error {
	if w.closed {
		return fmt.Errorf("born: writer closed")
	}
	return WriteTo(w.f, stateDict, modelType, metadata)
}

// WriteStateDictV2 writes the state dictionary as a v2 file, embedding
// a SHA-256 checksum over the tensor payload in the fixed header. v1
// readers reject v2 files; v2 readers accept both versions.
func (w *BornWriter) WriteStateDictV2(stateDict map[string]*tensor.RawTensor, modelType string, metadata map[string]string) error {
	if w.closed {
		return fmt.Errorf("born: writer closed")
	}

	header := newHeader(FormatVersionV2, modelType, metadata)
	var order []string
	header.Tensors, order = buildTensorMetas(stateDict)

	// The payload is assembled up front so its checksum can go into the
	// fixed header, which is written first.
	var payload []byte
	for _, name := range order {
		payload = append(payload, stateDict[name].Data()...)
	}
	checksum := ComputeChecksum(payload)

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	// Fixed 64-byte block:
	//   0x00 magic, 0x04 version, 0x08 flags, 0x0C reserved,
	//   0x10 header size, 0x18 data size, 0x20 SHA-256 checksum.
	fixed := make([]byte, FixedHeaderSizeV2)
	copy(fixed[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(fixed[4:8], uint32(FormatVersionV2))
	binary.LittleEndian.PutUint32(fixed[8:12], headerFlags(header.Metadata))
	binary.LittleEndian.PutUint64(fixed[16:24], uint64(len(headerJSON)))
	binary.LittleEndian.PutUint64(fixed[24:32], uint64(len(payload)))
	copy(fixed[ChecksumOffsetV2:ChecksumOffsetV2+ChecksumSize], checksum[:])

	for _, chunk := range [][]byte{fixed, headerJSON} {
		if _, err := w.f.Write(chunk); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	if err := writePadding(w.f, int64(FixedHeaderSizeV2)+int64(len(headerJSON))); err != nil {
		return err
	}
	if _, err := w.f.Write(payload); err != nil {
		return fmt.Errorf("write tensor data: %w", err)
	}
	return nil
}

// Close closes the underlying file. Further writes fail.
func (w *BornWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.f.Close()
}

// WriteTo streams a v1 state dictionary to any io.Writer, so weights
// can go into buffers or network connections as well as files.
func WriteTo(writer io.Writer, stateDict map[string]*tensor.RawTensor, modelType string, metadata map[string]string) error {
	header := newHeader(FormatVersion, modelType, metadata)
	var order []string
	header.Tensors, order = buildTensorMetas(stateDict)

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	pre := make([]byte, preambleSizeV1)
	copy(pre[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(pre[4:8], uint32(FormatVersion))
	binary.LittleEndian.PutUint32(pre[8:12], headerFlags(header.Metadata))
	binary.LittleEndian.PutUint64(pre[12:20], uint64(len(headerJSON)))

	for _, chunk := range [][]byte{pre, headerJSON} {
		if _, err := writer.Write(chunk); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	if err := writePadding(writer, int64(preambleSizeV1)+int64(len(headerJSON))); err != nil {
		return err
	}

	// Payload follows in the same order as the metadata table.
	for _, name := range order {
		if _, err := writer.Write(stateDict[name].Data()); err != nil {
			return fmt.Errorf("write tensor %s: %w", name, err)
		}
	}
	return nil
}

// newHeader fills in the provenance boilerplate.
func newHeader(version int, modelType string, metadata map[string]string) Header {
	if metadata == nil {
		metadata = make(map[string]string)
	}
	return Header{
		FormatVersion: version,
		BornVersion:   bornVersion,
		ModelType:     modelType,
		CreatedAt:     time.Now().UTC(),
		Metadata:      metadata,
	}
}

// headerFlags derives the flags bitfield from header contents.
func headerFlags(metadata map[string]string) uint32 {
	var flags uint32
	if len(metadata) > 0 {
		flags |= FlagHasMetadata
	}
	return flags
}

// writePadding zero-fills up to the next HeaderAlignment boundary.
func writePadding(w io.Writer, pos int64) error {
	pad := alignmentPadding(pos)
	if pad == 0 {
		return nil
	}
	if _, err := w.Write(make([]byte, pad)); err != nil {
		return fmt.Errorf("write padding: %w", err)
	}
	return nil
}
