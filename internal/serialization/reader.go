package serialization

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/born-ml/poolformer/internal/tensor"
)

// preambleSizeV1 is the fixed region before the JSON header in v1
// files: magic, version, flags, then the JSON header length.
const preambleSizeV1 = 4 + 4 + 4 + 8

// span locates a byte range within the file.
type span struct {
	off  int64
	size int64
}

// BornReader reads model weights from .born format.
type BornReader struct {
	f        *os.File
	header   Header
	version  uint32
	flags    uint32
	payload  span     // tensor data section
	checksum [32]byte // SHA-256 (v2 only)
	opts     ReaderOptions
	closed   bool
}

// ReaderOptions configures the behavior of BornReader.
type ReaderOptions struct {
	SkipChecksumValidation bool            // Skip checksum validation (faster but less safe)
	ValidationLevel        ValidationLevel // Validation strictness level
}

// NewBornReader creates a new .born file reader with default options (strict validation).
func NewBornReader(path string) (*BornReader, error) {
	return NewBornReaderWithOptions(path, ReaderOptions{ValidationLevel: ValidationStrict})
}

// NewBornReaderWithOptions creates a new .born file reader with custom options.
func NewBornReaderWithOptions(path string, opts ReaderOptions) (*BornReader, error) {
	//nolint:gosec // G304: model paths come from the caller
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	r := &BornReader{f: f, opts: opts}
	if err := r.parse(); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("parse header: %w", err)
	}

	if err := ValidateHeader(&r.header, r.payload.size, opts.ValidationLevel); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("validate header: %w", err)
	}

	return r, nil
}

// parse decodes the preamble and JSON header, leaving payload pointed
// at the tensor data section.
func (r *BornReader) parse() error {
	pre := make([]byte, preambleSizeV1)
	if _, err := io.ReadFull(r.f, pre); err != nil {
		return fmt.Errorf("read preamble: %w", err)
	}
	if string(pre[:4]) != MagicBytes {
		return ErrInvalidMagic
	}

	r.version = binary.LittleEndian.Uint32(pre[4:8])
	switch r.version {
	case FormatVersion:
		return r.parseV1(pre)
	case FormatVersionV2:
		return r.parseV2(pre)
	default:
		return fmt.Errorf("%w: got %d, expected %d or %d", ErrUnsupportedVersion, r.version, FormatVersion, FormatVersionV2)
	}
}

// parseV1 handles the original layout: preamble, JSON header, padding,
// then tensor data to end of file.
func (r *BornReader) parseV1(pre []byte) error {
	r.flags = binary.LittleEndian.Uint32(pre[8:12])
	headerSize := binary.LittleEndian.Uint64(pre[12:20])

	if err := r.decodeHeader(headerSize); err != nil {
		return err
	}

	end := int64(preambleSizeV1) + int64(headerSize) //nolint:gosec // G115: bounded by MaxHeaderSize
	r.payload.off = end + alignmentPadding(end)

	// v1 carries no data-size field; everything past the header is payload.
	info, err := r.f.Stat()
	if err != nil {
		return fmt.Errorf("stat: %w", err)
	}
	r.payload.size = info.Size() - r.payload.off

	return nil
}

// parseV2 handles the 64-byte fixed header with embedded data size and
// SHA-256 checksum.
func (r *BornReader) parseV2(pre []byte) error {
	rest := make([]byte, FixedHeaderSizeV2-len(pre))
	if _, err := io.ReadFull(r.f, rest); err != nil {
		return fmt.Errorf("read fixed header: %w", err)
	}
	fixed := append(pre, rest...)

	r.flags = binary.LittleEndian.Uint32(fixed[8:12])
	headerSize := binary.LittleEndian.Uint64(fixed[16:24])
	r.payload.size = int64(binary.LittleEndian.Uint64(fixed[24:32])) //nolint:gosec // G115: checked by header validation
	copy(r.checksum[:], fixed[ChecksumOffsetV2:ChecksumOffsetV2+ChecksumSize])

	if err := r.decodeHeader(headerSize); err != nil {
		return err
	}

	end := int64(FixedHeaderSizeV2) + int64(headerSize) //nolint:gosec // G115: bounded by MaxHeaderSize
	r.payload.off = end + alignmentPadding(end)

	if r.opts.SkipChecksumValidation {
		return nil
	}
	return r.verifyChecksum()
}

// decodeHeader reads headerSize bytes of JSON at the current file
// position and unmarshals them into r.header.
func (r *BornReader) decodeHeader(headerSize uint64) error {
	if headerSize > MaxHeaderSize {
		return ErrHeaderTooLarge
	}

	buf := make([]byte, headerSize)
	if _, err := io.ReadFull(r.f, buf); err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	if err := json.Unmarshal(buf, &r.header); err != nil {
		return fmt.Errorf("decode header: %w", err)
	}
	return nil
}

// verifyChecksum recomputes the payload digest and compares it against
// the stored one (v2 files only).
func (r *BornReader) verifyChecksum() error {
	if _, err := r.f.Seek(r.payload.off, io.SeekStart); err != nil {
		return fmt.Errorf("seek tensor data: %w", err)
	}
	payload := make([]byte, r.payload.size)
	if _, err := io.ReadFull(r.f, payload); err != nil {
		return fmt.Errorf("read payload for checksum: %w", err)
	}
	return ValidateChecksum(ComputeChecksum(payload), r.checksum)
}

// Header returns the parsed file header.
func (r *BornReader) Header() Header { return r.header }

// Metadata returns the metadata map from the header.
func (r *BornReader) Metadata() map[string]string { return r.header.Metadata }

// TensorNames lists every tensor in the file, in header order.
func (r *BornReader) TensorNames() []string {
	names := make([]string, len(r.header.Tensors))
	for i := range r.header.Tensors {
		names[i] = r.header.Tensors[i].Name
	}
	return names
}

// TensorInfo returns the header entry for the named tensor.
func (r *BornReader) TensorInfo(name string) (*TensorMeta, error) {
	for i := range r.header.Tensors {
		if r.header.Tensors[i].Name == name {
			return &r.header.Tensors[i], nil
		}
	}
	return nil, fmt.Errorf("tensor %q not found", name)
}

// lookup is TensorInfo behind the closed-reader guard.
func (r *BornReader) lookup(name string) (*TensorMeta, error) {
	if r.closed {
		return nil, fmt.Errorf("born: reader closed")
	}
	return r.TensorInfo(name)
}

// ReadTensorData reads the raw payload bytes of the named tensor.
func (r *BornReader) ReadTensorData(name string) ([]byte, error) {
	meta, err := r.lookup(name)
	if err != nil {
		return nil, err
	}

	if _, err := r.f.Seek(r.payload.off+meta.Offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek tensor data: %w", err)
	}
	buf := make([]byte, meta.Size)
	if _, err := io.ReadFull(r.f, buf); err != nil {
		return nil, fmt.Errorf("read tensor data: %w", err)
	}
	return buf, nil
}

// LoadTensor loads a single tensor from the file.
func (r *BornReader) LoadTensor(name string, backend tensor.Backend) (*tensor.RawTensor, error) {
	meta, err := r.lookup(name)
	if err != nil {
		return nil, err
	}

	data, err := r.ReadTensorData(name)
	if err != nil {
		return nil, err
	}
	return decodeTensor(meta, data, backend)
}

// ReadStateDict reads every tensor in the file into a state dictionary.
func (r *BornReader) ReadStateDict(backend tensor.Backend) (map[string]*tensor.RawTensor, error) {
	if r.closed {
		return nil, fmt.Errorf("born: reader closed")
	}

	stateDict := make(map[string]*tensor.RawTensor, len(r.header.Tensors))
	for i := range r.header.Tensors {
		name := r.header.Tensors[i].Name
		raw, err := r.LoadTensor(name, backend)
		if err != nil {
			return nil, fmt.Errorf("load tensor %s: %w", name, err)
		}
		stateDict[name] = raw
	}
	return stateDict, nil
}

// Close closes the reader and the underlying file.
func (r *BornReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.f.Close()
}

// ReadFrom reads a v1 state dictionary from an io.Reader.
// This is useful for reading from buffers or network connections.
func ReadFrom(reader io.Reader, backend tensor.Backend) (map[string]*tensor.RawTensor, Header, error) {
	pre := make([]byte, preambleSizeV1)
	if _, err := io.ReadFull(reader, pre); err != nil {
		return nil, Header{}, fmt.Errorf("read preamble: %w", err)
	}
	if string(pre[:4]) != MagicBytes {
		return nil, Header{}, fmt.Errorf("%w: got %q, expected %q", ErrInvalidMagic, string(pre[:4]), MagicBytes)
	}
	if v := binary.LittleEndian.Uint32(pre[4:8]); v != FormatVersion {
		return nil, Header{}, fmt.Errorf("%w: got %d, expected %d (streaming reads support v1 only)", ErrUnsupportedVersion, v, FormatVersion)
	}

	headerSize := binary.LittleEndian.Uint64(pre[12:20])
	if headerSize > MaxHeaderSize {
		return nil, Header{}, ErrHeaderTooLarge
	}

	buf := make([]byte, headerSize)
	if _, err := io.ReadFull(reader, buf); err != nil {
		return nil, Header{}, fmt.Errorf("read header: %w", err)
	}
	var header Header
	if err := json.Unmarshal(buf, &header); err != nil {
		return nil, Header{}, fmt.Errorf("decode header: %w", err)
	}

	// The stream cannot seek, so consume the alignment padding.
	end := int64(preambleSizeV1) + int64(headerSize) //nolint:gosec // G115: bounded by MaxHeaderSize
	if pad := alignmentPadding(end); pad > 0 {
		if _, err := io.CopyN(io.Discard, reader, pad); err != nil {
			return nil, Header{}, fmt.Errorf("skip padding: %w", err)
		}
	}

	// Tensors were written in header order, so stream them back in the
	// same order.
	stateDict := make(map[string]*tensor.RawTensor, len(header.Tensors))
	for i := range header.Tensors {
		meta := &header.Tensors[i]

		data := make([]byte, meta.Size)
		if _, err := io.ReadFull(reader, data); err != nil {
			return nil, Header{}, fmt.Errorf("read tensor %s: %w", meta.Name, err)
		}

		raw, err := decodeTensor(meta, data, backend)
		if err != nil {
			return nil, Header{}, err
		}
		stateDict[meta.Name] = raw
	}

	return stateDict, header, nil
}

// decodeTensor materializes a RawTensor from its metadata and payload bytes.
func decodeTensor(meta *TensorMeta, data []byte, backend tensor.Backend) (*tensor.RawTensor, error) {
	dtype, ok := stringToDtype(meta.DType)
	if !ok {
		return nil, fmt.Errorf("tensor %s: unsupported dtype: %s", meta.Name, meta.DType)
	}

	shape := tensor.Shape(meta.Shape)
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("tensor %s: invalid shape: %w", meta.Name, err)
	}

	raw, err := tensor.NewRaw(shape, dtype, backend.Device())
	if err != nil {
		return nil, fmt.Errorf("allocate tensor %s: %w", meta.Name, err)
	}
	copy(raw.Data(), data)

	return raw, nil
}
