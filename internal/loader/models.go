package loader

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/born-ml/poolformer/internal/serialization"
	"github.com/born-ml/poolformer/internal/tensor"
)

// ModelFormat represents the model weight format.
type ModelFormat int

// Supported model formats.
const (
	FormatUnknown ModelFormat = iota
	FormatSafeTensors
	FormatBorn
)

// String returns the format name.
func (f ModelFormat) String() string {
	switch f {
	case FormatSafeTensors:
		return "SafeTensors"
	case FormatBorn:
		return "Born"
	default:
		return "Unknown"
	}
}

// ModelReader provides a unified interface for reading weight files.
type ModelReader interface {
	// Close closes the underlying file.
	Close() error

	// Format returns the model format.
	Format() ModelFormat

	// Metadata returns model metadata from the file header.
	Metadata() map[string]string

	// TensorNames returns all tensor names in the file.
	TensorNames() []string

	// LoadTensor loads a tensor by its name in the file.
	LoadTensor(name string, backend tensor.Backend) (*tensor.RawTensor, error)

	// ReadTensorData reads raw tensor bytes (for custom conversion).
	ReadTensorData(name string) ([]byte, error)

	// ReadStateDict loads every tensor into a state dictionary keyed
	// by the names used in the file.
	ReadStateDict(backend tensor.Backend) (map[string]*tensor.RawTensor, error)
}

// safeTensorsModel wraps SafeTensorsReader to implement ModelReader.
type safeTensorsModel struct {
	reader *SafeTensorsReader
}

func (m *safeTensorsModel) Format() ModelFormat {
	return FormatSafeTensors
}

func (m *safeTensorsModel) Metadata() map[string]string {
	return m.reader.Metadata()
}

func (m *safeTensorsModel) TensorNames() []string {
	return m.reader.TensorNames()
}

func (m *safeTensorsModel) LoadTensor(name string, backend tensor.Backend) (*tensor.RawTensor, error) {
	return m.reader.LoadTensor(name, backend)
}

func (m *safeTensorsModel) ReadTensorData(name string) ([]byte, error) {
	return m.reader.ReadTensorData(name)
}

func (m *safeTensorsModel) ReadStateDict(backend tensor.Backend) (map[string]*tensor.RawTensor, error) {
	return m.reader.ReadStateDict(backend)
}

func (m *safeTensorsModel) Close() error {
	return m.reader.Close()
}

// bornModel wraps the memory-mapped .born reader to implement
// ModelReader. Large weight files stay in the OS page cache and
// individual tensors are materialized on demand.
type bornModel struct {
	reader *serialization.MmapReader
}

func (m *bornModel) Format() ModelFormat {
	return FormatBorn
}

func (m *bornModel) Metadata() map[string]string {
	return m.reader.Metadata()
}

func (m *bornModel) TensorNames() []string {
	return m.reader.TensorNames()
}

func (m *bornModel) LoadTensor(name string, backend tensor.Backend) (*tensor.RawTensor, error) {
	return m.reader.LoadTensor(name, backend)
}

func (m *bornModel) ReadTensorData(name string) ([]byte, error) {
	// Hand out a copy; slices into the mapped region die with the reader.
	return m.reader.TensorDataCopy(name)
}

func (m *bornModel) ReadStateDict(backend tensor.Backend) (map[string]*tensor.RawTensor, error) {
	return m.reader.ReadStateDict(backend)
}

func (m *bornModel) Close() error {
	return m.reader.Close()
}

// OpenModel opens a weight file and auto-detects the format.
// Supports .safetensors and .born files.
//
// Example:
//
//	model, err := loader.OpenModel("poolformer_s12.safetensors")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer model.Close()
//
//	fmt.Printf("Format: %s\n", model.Format())
func OpenModel(path string) (ModelReader, error) {
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".safetensors":
		reader, err := NewSafeTensorsReader(path)
		if err != nil {
			return nil, err
		}
		return &safeTensorsModel{reader: reader}, nil
	case ".born":
		reader, err := serialization.NewMmapReader(path)
		if err != nil {
			return nil, err
		}
		return &bornModel{reader: reader}, nil
	default:
		return nil, fmt.Errorf("unsupported file format: %s (expected .safetensors or .born)", ext)
	}
}
