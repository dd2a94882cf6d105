package loader

import (
	"fmt"
	"sort"

	"github.com/born-ml/poolformer/internal/nn"
	"github.com/born-ml/poolformer/internal/tensor"
)

// LoadOptions configures weight application.
type LoadOptions struct {
	// Strict turns missing or unexpected weights into an error.
	// Matched weights with a wrong shape or dtype are always errors.
	Strict bool

	// Mapper translates checkpoint names to native names. When nil the
	// naming scheme is auto-detected: original PoolFormer layouts get
	// the PoolFormerMapper, everything else passes through unchanged.
	Mapper WeightMapper
}

// LoadReport records the non-fatal findings of a weight application:
// model parameters the checkpoint did not provide, and checkpoint
// entries the model has no parameter for.
type LoadReport struct {
	Missing    []string // model parameters absent from the checkpoint
	Unexpected []string // checkpoint entries with no matching parameter
}

// Clean reports whether every parameter matched.
func (r *LoadReport) Clean() bool {
	return len(r.Missing) == 0 && len(r.Unexpected) == 0
}

// String summarizes the report for log output.
func (r *LoadReport) String() string {
	if r.Clean() {
		return "all weights matched"
	}
	return fmt.Sprintf("%d missing, %d unexpected", len(r.Missing), len(r.Unexpected))
}

// ApplyStateDict copies checkpoint tensors into a model best-effort.
//
// Checkpoint names are translated via the configured mapper, matched
// against the model's own state dict, and copied in place. Unmatched
// names on either side are collected in the report rather than
// failing the load, so a classifier checkpoint can initialize a
// feature-pyramid backbone (the head weights end up unexpected, the
// out-norm weights missing). With Strict set, a non-empty report is
// returned as an error instead.
//
// A matched tensor with the wrong shape or dtype always fails: that is
// an architecture mismatch, not a checkpoint layout difference.
func ApplyStateDict(model nn.Stateful, stateDict map[string]*tensor.RawTensor, opts LoadOptions) (*LoadReport, error) {
	names := make([]string, 0, len(stateDict))
	for name := range stateDict {
		names = append(names, name)
	}

	mapper := opts.Mapper
	if mapper == nil {
		if NeedsMapping(names) {
			mapper = NewPoolFormerMapper()
		} else {
			mapper = NewIdentityMapper()
		}
	}

	nameMap, err := MapStateDictNames(names, mapper)
	if err != nil {
		return nil, fmt.Errorf("map weight names: %w", err)
	}

	// Re-key the checkpoint by native names, rejecting collisions.
	translated := make(map[string]*tensor.RawTensor, len(stateDict))
	for original, native := range nameMap {
		if _, exists := translated[native]; exists {
			return nil, fmt.Errorf("weight name collision: multiple checkpoint entries map to %q", native)
		}
		translated[native] = stateDict[original]
	}

	modelDict := model.StateDict()
	report := &LoadReport{}

	modelNames := make([]string, 0, len(modelDict))
	for name := range modelDict {
		modelNames = append(modelNames, name)
	}
	sort.Strings(modelNames)

	for _, name := range modelNames {
		src, ok := translated[name]
		if !ok {
			report.Missing = append(report.Missing, name)
			continue
		}

		dst := modelDict[name]
		if !src.Shape().Equal(dst.Shape()) {
			return nil, fmt.Errorf("tensor %s: shape mismatch: expected %v, got %v", name, dst.Shape(), src.Shape())
		}
		if src.DType() != dst.DType() {
			return nil, fmt.Errorf("tensor %s: dtype mismatch: expected %v, got %v", name, dst.DType(), src.DType())
		}

		// Model state dicts expose the live parameter buffers, so the
		// copy lands directly in the module.
		copy(dst.Data(), src.Data())
	}

	for name := range translated {
		if _, ok := modelDict[name]; !ok {
			report.Unexpected = append(report.Unexpected, name)
		}
	}
	sort.Strings(report.Unexpected)

	if opts.Strict && !report.Clean() {
		return report, fmt.Errorf("strict load failed: %s", report)
	}

	return report, nil
}

// LoadWeights opens a weight file, reads every tensor, and applies it
// to the model. The format (.safetensors or .born) and the naming
// scheme are both auto-detected unless overridden in the options.
//
// Example:
//
//	model := poolformer.NewClassifier(cfg, backend)
//	report, err := loader.LoadWeights("poolformer_s12.safetensors", backend, model, loader.LoadOptions{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(report)
func LoadWeights[B tensor.Backend](path string, backend B, model nn.Stateful, opts LoadOptions) (report *LoadReport, err error) {
	reader, err := OpenModel(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := reader.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	stateDict, err := reader.ReadStateDict(backend)
	if err != nil {
		return nil, fmt.Errorf("read weights: %w", err)
	}

	return ApplyStateDict(model, stateDict, opts)
}
