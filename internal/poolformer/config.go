// Package poolformer assembles the PoolFormer backbone: a hierarchical
// vision model whose token mixer is plain average pooling.
//
// The package provides:
//   - Config: full construction-time configuration with validation
//   - Presets: the published model sizes (S12 through M48)
//   - Classifier: backbone + global pooling + linear head
//   - FeaturePyramid: backbone emitting per-stage feature maps
//
// Both model variants are fixed at construction; there is no runtime
// mode flag. Checkpoints in either the native .born format or
// HuggingFace .safetensors (with original PoolFormer naming) load via
// the loader package.
package poolformer

import (
	"fmt"
)

// NumStages is the stage count of the backbone. The architecture is
// defined as a four-stage pyramid; the arrays in Config are sized
// accordingly.
const NumStages = 4

// Config holds every construction parameter of the backbone.
//
// The zero value is not usable; start from DefaultConfig or a preset
// and override fields as needed:
//
//	cfg, err := poolformer.PresetConfig(poolformer.PresetS12)
//	cfg.NumClasses = 10
type Config struct {
	// Layers is the residual block count of each stage.
	Layers [NumStages]int

	// EmbedDims is the channel width of each stage.
	EmbedDims [NumStages]int

	// MLPRatios is the hidden expansion of the channel MLP per stage
	// (hidden = dim * ratio). Default 4 for every stage.
	MLPRatios [NumStages]float64

	// Downsamples selects whether a downsampling patch embedding
	// follows each stage. A width change between stages forces a
	// downsampler regardless. The last entry is unused (no stage
	// follows stage 3).
	Downsamples [NumStages]bool

	// PoolSize is the token-mixer window. Must be odd and positive.
	PoolSize int

	// NumClasses is the classifier output width. Zero disables the
	// head; Classifier.Forward then returns pooled features.
	NumClasses int

	// InChans is the input image channel count.
	InChans int

	// Stem patch embedding: kernel, stride, padding. Defaults 7/4/2
	// quarter the input resolution.
	PatchSize int
	Stride    int
	Padding   int

	// Between-stage patch embeddings: kernel, stride, padding.
	// Defaults 3/2/1 halve the resolution.
	DownPatchSize int
	DownStride    int
	DownPadding   int

	// DropRate is the MLP dropout probability.
	DropRate float64

	// DropPathRate is the maximum stochastic-depth rate. Blocks get
	// linearly interpolated rates over their global position, from 0
	// at the first block to this value at the last.
	DropPathRate float64

	// UseLayerScale enables the learned per-channel branch scales.
	UseLayerScale bool

	// LayerScaleInitValue is the initial value of the branch scales.
	LayerScaleInitValue float64
}

// DefaultConfig returns the architecture defaults shared by every
// preset. Layers and EmbedDims are zero and must be filled in by the
// caller; all other fields carry the published values.
func DefaultConfig() Config {
	return Config{
		MLPRatios:           [NumStages]float64{4, 4, 4, 4},
		Downsamples:         [NumStages]bool{true, true, true, true},
		PoolSize:            3,
		NumClasses:          1000,
		InChans:             3,
		PatchSize:           7,
		Stride:              4,
		Padding:             2,
		DownPatchSize:       3,
		DownStride:          2,
		DownPadding:         1,
		UseLayerScale:       true,
		LayerScaleInitValue: 1e-5,
	}
}

// Validate checks the configuration and returns a descriptive error
// for the first violation found. Constructors call it before building
// any module.
func (c *Config) Validate() error {
	// Four positive stages also keep the total block count above 1,
	// which the stochastic-depth schedule divides by.
	for i, n := range c.Layers {
		if n <= 0 {
			return fmt.Errorf("poolformer: Layers[%d] must be positive, got %d", i, n)
		}
	}

	for i, d := range c.EmbedDims {
		if d <= 0 {
			return fmt.Errorf("poolformer: EmbedDims[%d] must be positive, got %d", i, d)
		}
	}
	for i, r := range c.MLPRatios {
		if r <= 0 {
			return fmt.Errorf("poolformer: MLPRatios[%d] must be positive, got %g", i, r)
		}
	}

	if c.PoolSize <= 0 || c.PoolSize%2 == 0 {
		return fmt.Errorf("poolformer: PoolSize must be odd and positive, got %d", c.PoolSize)
	}
	if c.NumClasses < 0 {
		return fmt.Errorf("poolformer: NumClasses must be non-negative, got %d", c.NumClasses)
	}
	if c.InChans <= 0 {
		return fmt.Errorf("poolformer: InChans must be positive, got %d", c.InChans)
	}

	if c.PatchSize <= 0 || c.Stride <= 0 {
		return fmt.Errorf("poolformer: stem PatchSize/Stride must be positive, got %d/%d", c.PatchSize, c.Stride)
	}
	if c.Padding < 0 {
		return fmt.Errorf("poolformer: stem Padding must be non-negative, got %d", c.Padding)
	}
	if c.DownPatchSize <= 0 || c.DownStride <= 0 {
		return fmt.Errorf("poolformer: DownPatchSize/DownStride must be positive, got %d/%d", c.DownPatchSize, c.DownStride)
	}
	if c.DownPadding < 0 {
		return fmt.Errorf("poolformer: DownPadding must be non-negative, got %d", c.DownPadding)
	}

	if c.DropRate < 0 || c.DropRate > 1 {
		return fmt.Errorf("poolformer: DropRate must be in [0, 1], got %g", c.DropRate)
	}
	if c.DropPathRate < 0 || c.DropPathRate > 1 {
		return fmt.Errorf("poolformer: DropPathRate must be in [0, 1], got %g", c.DropPathRate)
	}

	return nil
}

// TotalBlocks returns the residual block count summed over all stages.
func (c *Config) TotalBlocks() int {
	total := 0
	for _, n := range c.Layers {
		total += n
	}
	return total
}
