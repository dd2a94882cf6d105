// Package loader provides checkpoint loading for PoolFormer models.
//
// This package wraps internal loader implementations and exports a clean public API
// for loading model weights from the supported formats (SafeTensors, Born native).
//
// Example usage:
//
//	import (
//	    "github.com/born-ml/poolformer/loader"
//	    "github.com/born-ml/poolformer/backend/cpu"
//	)
//
//	// Open model with auto-detection
//	model, err := loader.OpenModel("poolformer_s12.safetensors")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer model.Close()
//
//	// Get model information
//	fmt.Printf("Format: %s\n", model.Format())
//
//	// Load a specific tensor
//	backend := cpu.New()
//	tensor, err := model.LoadTensor("network.0.0.norm1.weight", backend)
//	if err != nil {
//	    log.Fatal(err)
//	}
package loader

import (
	"github.com/born-ml/poolformer/internal/loader"
	"github.com/born-ml/poolformer/internal/nn"
	"github.com/born-ml/poolformer/internal/tensor"
)

// ModelFormat represents the model weight format.
type ModelFormat = loader.ModelFormat

// Supported model formats.
const (
	FormatUnknown     ModelFormat = loader.FormatUnknown
	FormatSafeTensors ModelFormat = loader.FormatSafeTensors
	FormatBorn        ModelFormat = loader.FormatBorn
)

// ModelReader provides a unified interface for reading weight files.
// It abstracts away the underlying file format and provides consistent access
// to model tensors.
//
// Note: This is a type alias because the LoadTensor method signature references
// internal tensor types that cannot be abstracted without a wrapper layer.
type ModelReader = loader.ModelReader

// OpenModel opens a weight file and auto-detects the format from its
// extension and magic bytes.
//
// Supported formats:
//   - .safetensors (Hugging Face standard, how released PoolFormer weights ship)
//   - .born (native format with optional checksum)
//
// Example:
//
//	model, err := loader.OpenModel("poolformer_s12.safetensors")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer model.Close()
//
//	fmt.Printf("Format: %s\n", model.Format()) // "SafeTensors"
//
//	// List all tensors
//	for _, name := range model.TensorNames() {
//	    fmt.Println(name)
//	}
func OpenModel(path string) (ModelReader, error) {
	return loader.OpenModel(path)
}

// Weight application

// LoadOptions configures how a checkpoint is applied to a model.
type LoadOptions = loader.LoadOptions

// LoadReport records the non-fatal findings of a weight application:
// model parameters the checkpoint did not provide, and checkpoint
// entries the model has no parameter for.
type LoadReport = loader.LoadReport

// LoadWeights opens path, reads every tensor, and applies them to the
// model. This is the one-call way to initialize a model from released
// weights.
//
// Example:
//
//	backend := cpu.New()
//	cfg, _ := poolformer.PresetConfig(poolformer.PresetS12)
//	model, _ := poolformer.NewClassifier(cfg, backend)
//	report, err := loader.LoadWeights("poolformer_s12.safetensors", backend, model, loader.LoadOptions{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(report) // "all weights matched"
func LoadWeights[B tensor.Backend](path string, backend B, model nn.Stateful, opts LoadOptions) (*LoadReport, error) {
	return loader.LoadWeights(path, backend, model, opts)
}

// ApplyStateDict copies checkpoint tensors into a model best-effort,
// translating names through the configured mapper. Unmatched names on
// either side go into the report; shape or dtype conflicts on matched
// names are errors.
func ApplyStateDict(model nn.Stateful, stateDict map[string]*tensor.RawTensor, opts LoadOptions) (*LoadReport, error) {
	return loader.ApplyStateDict(model, stateDict, opts)
}

// Name mapping

// WeightMapper translates checkpoint weight names to native names.
// Checkpoints exported from other frameworks use different naming
// conventions; a mapper normalizes them.
type WeightMapper = loader.WeightMapper

// NewPoolFormerMapper creates a mapper for original PoolFormer
// checkpoints ("network.0.0.mlp.fc1.weight" style).
func NewPoolFormerMapper() WeightMapper {
	return loader.NewPoolFormerMapper()
}

// NewIdentityMapper creates a mapper that passes names through
// unchanged, for checkpoints already in native naming.
func NewIdentityMapper() WeightMapper {
	return loader.NewIdentityMapper()
}
