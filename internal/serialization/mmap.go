package serialization

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"

	"github.com/born-ml/poolformer/internal/tensor"
)

// MmapReader reads .born files through a memory mapping. Only the
// header is parsed up front; tensor bytes are faulted in by the OS
// page cache when first touched, which keeps opening a large weight
// file cheap.
//
// Close unmaps the file. Every slice handed out by TensorData becomes
// invalid at that point, so callers that outlive the reader must use
// TensorDataCopy or LoadTensor instead.
type MmapReader struct {
	file    *os.File
	mapped  []byte
	size    int64
	header  Header
	version uint32
	flags   uint32

	payloadOff  int64
	payloadSize int64
	checksum    [32]byte
	closed      bool
}

// NewMmapReader opens path read-only and maps it into memory.
func NewMmapReader(path string) (*MmapReader, error) {
	//nolint:gosec // G304: the weight file path is caller-supplied on purpose
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("stat file: %w", err)
	}

	mapped, err := mmapFile(file, info.Size())
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("mmap failed: %w", err)
	}

	m := &MmapReader{file: file, mapped: mapped, size: info.Size()}
	if err := m.parseHeader(); err != nil {
		_ = m.Close()
		return nil, fmt.Errorf("parse header: %w", err)
	}
	return m, nil
}

// parseHeader decodes the preamble and JSON header from the mapping
// and locates the tensor payload.
func (m *MmapReader) parseHeader() error {
	// Shortest valid file is a v1 preamble: magic, version, flags,
	// header size.
	if m.size < 20 {
		return fmt.Errorf("file too small: %d bytes (minimum 20 bytes required)", m.size)
	}
	if string(m.mapped[0:4]) != MagicBytes {
		return ErrInvalidMagic
	}

	m.version = binary.LittleEndian.Uint32(m.mapped[4:8])
	m.flags = binary.LittleEndian.Uint32(m.mapped[8:12])

	var (
		headerSize uint64
		jsonOff    int64
		err        error
	)
	switch m.version {
	case FormatVersionV2:
		headerSize, jsonOff, err = m.parsePreambleV2()
	case FormatVersion:
		headerSize = binary.LittleEndian.Uint64(m.mapped[12:20])
		jsonOff = 20
	default:
		return fmt.Errorf("%w: got %d, expected %d or %d",
			ErrUnsupportedVersion, m.version, FormatVersion, FormatVersionV2)
	}
	if err != nil {
		return err
	}

	if headerSize > MaxHeaderSize {
		return ErrHeaderTooLarge
	}
	headerEnd := jsonOff + int64(headerSize) //nolint:gosec // G115: bounded by MaxHeaderSize
	if headerEnd > m.size {
		return fmt.Errorf("header extends beyond file: header_end=%d, file_size=%d", headerEnd, m.size)
	}
	if err := json.Unmarshal(m.mapped[jsonOff:headerEnd], &m.header); err != nil {
		return fmt.Errorf("parse header JSON: %w", err)
	}

	m.payloadOff = headerEnd + alignmentPadding(headerEnd)
	if m.version == FormatVersion {
		// v1 carries no payload-size field, so everything after the
		// aligned header is payload.
		m.payloadSize = m.size - m.payloadOff
	}

	if err := ValidateHeader(&m.header, m.payloadSize, ValidationStrict); err != nil {
		return fmt.Errorf("header validation failed: %w", err)
	}
	return nil
}

// parsePreambleV2 decodes the fixed 64-byte v2 preamble fields that v1
// lacks: payload size and checksum.
func (m *MmapReader) parsePreambleV2() (headerSize uint64, jsonOff int64, err error) {
	if m.size < FixedHeaderSizeV2 {
		return 0, 0, fmt.Errorf("file too small for v2: %d bytes (minimum %d bytes required)",
			m.size, FixedHeaderSizeV2)
	}

	headerSize = binary.LittleEndian.Uint64(m.mapped[16:24])

	payloadSize := binary.LittleEndian.Uint64(m.mapped[24:32])
	if payloadSize > 0x7FFFFFFFFFFFFFFF {
		return 0, 0, fmt.Errorf("data size too large: %d", payloadSize)
	}
	m.payloadSize = int64(payloadSize)

	copy(m.checksum[:], m.mapped[ChecksumOffsetV2:ChecksumOffsetV2+ChecksumSize])
	return headerSize, FixedHeaderSizeV2, nil
}

// Close unmaps the file and closes it. Safe to call twice.
func (m *MmapReader) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true

	var err error
	if m.mapped != nil {
		err = munmapFile(m.mapped)
		m.mapped = nil
	}
	if closeErr := m.file.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}

// Header returns the parsed file header.
func (m *MmapReader) Header() Header { return m.header }

// Version returns the format version (1 or 2).
func (m *MmapReader) Version() uint32 { return m.version }

// Flags returns the flags bitfield from the preamble.
func (m *MmapReader) Flags() uint32 { return m.flags }

// Checksum returns the stored SHA-256 payload digest. It is all zeros
// for v1 files, which carry no checksum.
func (m *MmapReader) Checksum() [32]byte { return m.checksum }

// Metadata returns the metadata map from the header.
func (m *MmapReader) Metadata() map[string]string { return m.header.Metadata }

// TensorNames lists every tensor in the file, in header order.
func (m *MmapReader) TensorNames() []string {
	names := make([]string, len(m.header.Tensors))
	for i, meta := range m.header.Tensors {
		names[i] = meta.Name
	}
	return names
}

// TensorInfo returns the header entry for the named tensor.
func (m *MmapReader) TensorInfo(name string) (*TensorMeta, error) {
	for i := range m.header.Tensors {
		if m.header.Tensors[i].Name == name {
			return &m.header.Tensors[i], nil
		}
	}
	return nil, fmt.Errorf("tensor %q not found", name)
}

// tensorSlice returns the mapped bytes for meta without copying.
func (m *MmapReader) tensorSlice(meta *TensorMeta) ([]byte, error) {
	lo := m.payloadOff + meta.Offset
	hi := lo + meta.Size
	if hi > m.size {
		return nil, fmt.Errorf("%w: tensor %q: offset %d + size %d > file_size %d",
			ErrOutOfBounds, meta.Name, lo, meta.Size, m.size)
	}
	return m.mapped[lo:hi], nil
}

// TensorData returns a zero-copy slice into the mapped region for the
// named tensor. The slice is read-only and dies with the reader.
func (m *MmapReader) TensorData(name string) ([]byte, error) {
	if m.closed {
		return nil, fmt.Errorf("reader is closed")
	}
	meta, err := m.TensorInfo(name)
	if err != nil {
		return nil, err
	}
	return m.tensorSlice(meta)
}

// TensorDataCopy returns the named tensor's bytes in a fresh buffer
// that survives Close and may be written to.
func (m *MmapReader) TensorDataCopy(name string) ([]byte, error) {
	data, err := m.TensorData(name)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// LoadTensor materializes the named tensor on the given backend,
// copying its bytes out of the mapping.
func (m *MmapReader) LoadTensor(name string, backend tensor.Backend) (*tensor.RawTensor, error) {
	if m.closed {
		return nil, fmt.Errorf("reader is closed")
	}
	meta, err := m.TensorInfo(name)
	if err != nil {
		return nil, err
	}
	data, err := m.tensorSlice(meta)
	if err != nil {
		return nil, err
	}
	return decodeTensor(meta, data, backend)
}

// ReadStateDict materializes every tensor in the file.
func (m *MmapReader) ReadStateDict(backend tensor.Backend) (map[string]*tensor.RawTensor, error) {
	if m.closed {
		return nil, fmt.Errorf("reader is closed")
	}
	stateDict := make(map[string]*tensor.RawTensor, len(m.header.Tensors))
	for i := range m.header.Tensors {
		meta := &m.header.Tensors[i]
		raw, err := m.LoadTensor(meta.Name, backend)
		if err != nil {
			return nil, fmt.Errorf("load tensor %s: %w", meta.Name, err)
		}
		stateDict[meta.Name] = raw
	}
	return stateDict, nil
}
