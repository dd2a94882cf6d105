// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package poolformer provides the PoolFormer vision backbone: a
// four-stage hierarchical model whose token mixer is plain average
// pooling instead of attention.
//
// # Overview
//
// Two model variants share the same backbone:
//   - Classifier: backbone, final norm, global average pool, linear head
//   - FeaturePyramid: backbone emitting all four stage feature maps
//
// The variant is fixed at construction; there is no runtime mode flag.
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/poolformer/backend/cpu"
//	    "github.com/born-ml/poolformer/poolformer"
//	    "github.com/born-ml/poolformer/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//
//	    cfg, err := poolformer.PresetConfig(poolformer.PresetS12)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    model, err := poolformer.NewClassifier(cfg, backend)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    images := tensor.Randn[float32](tensor.Shape{1, 3, 224, 224}, backend)
//	    logits := model.Forward(images) // [1, 1000]
//	}
//
// # Presets
//
// The five published model sizes are available as presets. S and M
// families differ in channel widths; the digits give the total block
// count:
//
//	S12: layers 2/2/6/2,  dims 64/128/320/512,  layer scale 1e-5
//	S24: layers 4/4/12/4, dims 64/128/320/512,  layer scale 1e-5
//	S36: layers 6/6/18/6, dims 64/128/320/512,  layer scale 1e-6
//	M36: layers 6/6/18/6, dims 96/192/384/768,  layer scale 1e-6
//	M48: layers 8/8/24/8, dims 96/192/384/768,  layer scale 1e-6
//
// Preset configs carry the shared defaults (1000 classes, 3 input
// channels, pool size 3, stem 7/4/2, downsamplers 3/2/1) and can be
// modified before construction.
//
// # Checkpoints
//
// Models save and load through their state dictionaries. The native
// .born format round-trips via nn.Save and nn.Load; released
// .safetensors checkpoints with original PoolFormer naming load via
// loader.LoadWeights, which translates the names automatically.
package poolformer

import (
	"github.com/born-ml/poolformer/internal/poolformer"
	"github.com/born-ml/poolformer/internal/tensor"
)

// NumStages is the stage count of the backbone. The architecture is
// defined as a four-stage pyramid; the arrays in Config are sized
// accordingly.
const NumStages = poolformer.NumStages

// Config holds every construction parameter of the backbone.
//
// The zero value is not usable; start from DefaultConfig or a preset
// and override fields as needed:
//
//	cfg, err := poolformer.PresetConfig(poolformer.PresetS12)
//	cfg.NumClasses = 10
type Config = poolformer.Config

// DefaultConfig returns the architecture defaults shared by every
// preset. Layers and EmbedDims are zero and must be filled in by the
// caller; all other fields carry the published values.
func DefaultConfig() Config {
	return poolformer.DefaultConfig()
}

// Preset names one of the published model sizes.
type Preset = poolformer.Preset

// The published PoolFormer model sizes.
const (
	PresetS12 = poolformer.PresetS12
	PresetS24 = poolformer.PresetS24
	PresetS36 = poolformer.PresetS36
	PresetM36 = poolformer.PresetM36
	PresetM48 = poolformer.PresetM48
)

// Presets returns the known preset names in size order.
func Presets() []Preset {
	return poolformer.Presets()
}

// PresetConfig returns the configuration of a published model size.
//
// Example:
//
//	cfg, err := poolformer.PresetConfig(poolformer.PresetS12)
//	if err != nil {
//	    return err
//	}
//	cfg.NumClasses = 10
//	model, err := poolformer.NewClassifier(cfg, backend)
func PresetConfig(name Preset) (Config, error) {
	return poolformer.PresetConfig(name)
}

// Classifier is the image-classification variant: backbone, final
// normalization, spatial global average pooling, and a linear head.
type Classifier[B tensor.Backend] = poolformer.Classifier[B]

// NewClassifier builds the classification variant of the backbone.
// The configuration is validated before any module is constructed.
//
// Example:
//
//	backend := cpu.New()
//	cfg, _ := poolformer.PresetConfig(poolformer.PresetS12)
//	model, err := poolformer.NewClassifier(cfg, backend)
//	if err != nil {
//	    return err
//	}
//	logits := model.Forward(images) // [B, 3, 224, 224] -> [B, 1000]
func NewClassifier[B tensor.Backend](cfg Config, backend B) (*Classifier[B], error) {
	return poolformer.NewClassifier(cfg, backend)
}

// FeaturePyramid is the dense-prediction variant: the backbone with
// one normalization per stage endpoint, emitting all four feature
// maps for downstream detection or segmentation necks.
type FeaturePyramid[B tensor.Backend] = poolformer.FeaturePyramid[B]

// NewFeaturePyramid builds the feature-extraction variant of the
// backbone. NumClasses is ignored (the variant has no head).
//
// Example:
//
//	backend := cpu.New()
//	cfg, _ := poolformer.PresetConfig(poolformer.PresetS12)
//	model, err := poolformer.NewFeaturePyramid(cfg, backend)
//	if err != nil {
//	    return err
//	}
//	features := model.Forward(images)
//	// features[0]: [B, 64, H/4, W/4] ... features[3]: [B, 512, H/32, W/32]
func NewFeaturePyramid[B tensor.Backend](cfg Config, backend B) (*FeaturePyramid[B], error) {
	return poolformer.NewFeaturePyramid(cfg, backend)
}
