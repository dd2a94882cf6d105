package nn

import (
	"fmt"

	"github.com/born-ml/poolformer/internal/serialization"
	"github.com/born-ml/poolformer/internal/tensor"
)

// Save writes a module's parameters to a .born file.
//
// The checksummed v2 format is used so corrupted weight files are
// rejected at load time. modelType is recorded in the file header and
// is informational only; metadata may be nil.
//
// Example:
//
//	err := nn.Save("poolformer_s12.born", model, "PoolFormerClassifier", map[string]string{
//	    "preset": "s12",
//	})
func Save(path string, model Stateful, modelType string, metadata map[string]string) (err error) {
	writer, err := serialization.NewBornWriter(path)
	if err != nil {
		return fmt.Errorf("create writer: %w", err)
	}
	defer func() {
		if closeErr := writer.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if err := writer.WriteStateDictV2(model.StateDict(), modelType, metadata); err != nil {
		return fmt.Errorf("write state dict: %w", err)
	}

	return nil
}

// Load reads a .born file into a pre-constructed module.
//
// The module must have the same architecture and configuration as when
// the file was saved. The file header is returned so callers can
// inspect the recorded model type and metadata.
//
// Example:
//
//	model := poolformer.NewClassifier(cfg, backend)
//	header, err := nn.Load("poolformer_s12.born", backend, model)
func Load[B tensor.Backend](path string, backend B, model Stateful) (header serialization.Header, err error) {
	reader, err := serialization.NewBornReader(path)
	if err != nil {
		return serialization.Header{}, fmt.Errorf("create reader: %w", err)
	}
	defer func() {
		if closeErr := reader.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	stateDict, err := reader.ReadStateDict(backend)
	if err != nil {
		return serialization.Header{}, fmt.Errorf("read state dict: %w", err)
	}

	if err := model.LoadStateDict(stateDict); err != nil {
		return serialization.Header{}, fmt.Errorf("load model state: %w", err)
	}

	return reader.Header(), nil
}
