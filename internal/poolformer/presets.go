package poolformer

import (
	"fmt"
)

// Preset names one of the published model sizes.
type Preset string

// The published PoolFormer model sizes. S and M differ in channel
// widths; the digits give the total block count.
const (
	PresetS12 Preset = "s12"
	PresetS24 Preset = "s24"
	PresetS36 Preset = "s36"
	PresetM36 Preset = "m36"
	PresetM48 Preset = "m48"
)

// sDims and mDims are the stage widths of the S and M families.
var (
	sDims = [NumStages]int{64, 128, 320, 512}
	mDims = [NumStages]int{96, 192, 384, 768}
)

// Presets returns the known preset names in size order.
func Presets() []Preset {
	return []Preset{PresetS12, PresetS24, PresetS36, PresetM36, PresetM48}
}

// PresetConfig returns the configuration of a published model size.
//
// Returned configs carry the defaults (1000 classes, 3 input channels,
// pool size 3, stem 7/4/2, downsamplers 3/2/1) and can be modified
// before construction:
//
//	cfg, err := poolformer.PresetConfig(poolformer.PresetS12)
//	if err != nil {
//	    return err
//	}
//	cfg.NumClasses = 10
//	model, err := poolformer.NewClassifier(cfg, backend)
func PresetConfig(name Preset) (Config, error) {
	cfg := DefaultConfig()

	switch name {
	case PresetS12:
		cfg.Layers = [NumStages]int{2, 2, 6, 2}
		cfg.EmbedDims = sDims
		cfg.LayerScaleInitValue = 1e-5
	case PresetS24:
		cfg.Layers = [NumStages]int{4, 4, 12, 4}
		cfg.EmbedDims = sDims
		cfg.LayerScaleInitValue = 1e-5
	case PresetS36:
		cfg.Layers = [NumStages]int{6, 6, 18, 6}
		cfg.EmbedDims = sDims
		cfg.LayerScaleInitValue = 1e-6
	case PresetM36:
		cfg.Layers = [NumStages]int{6, 6, 18, 6}
		cfg.EmbedDims = mDims
		cfg.LayerScaleInitValue = 1e-6
	case PresetM48:
		cfg.Layers = [NumStages]int{8, 8, 24, 8}
		cfg.EmbedDims = mDims
		cfg.LayerScaleInitValue = 1e-6
	default:
		return Config{}, fmt.Errorf("poolformer: unknown preset %q (known: %v)", name, Presets())
	}

	return cfg, nil
}
