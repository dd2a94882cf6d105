package poolformer

import (
	"fmt"

	"github.com/born-ml/poolformer/internal/nn"
	"github.com/born-ml/poolformer/internal/tensor"
)

// normEps is the GroupNorm epsilon used throughout the backbone.
const normEps = 1e-5

// backbone is the trunk both model variants share: the stem patch
// embedding, four block stages, and the between-stage downsamplers.
//
// State-dict keys follow the native scheme:
//
//	stem.proj.weight            stem projection
//	stages.{i}.{j}.*            block j of stage i
//	downsamplers.{d}.proj.*     downsampler after stage d
type backbone[B tensor.Backend] struct {
	config       Config
	stem         *nn.PatchEmbed[B]
	stages       [NumStages]*nn.Sequential[B]
	downsamplers [NumStages - 1]*nn.PatchEmbed[B] // nil where width and resolution carry over
	backend      B
}

func newBackbone[B tensor.Backend](cfg Config, backend B) *backbone[B] {
	b := &backbone[B]{
		config:  cfg,
		stem:    nn.NewPatchEmbed(cfg.PatchSize, cfg.Stride, cfg.Padding, cfg.InChans, cfg.EmbedDims[0], backend),
		backend: backend,
	}

	for i := 0; i < NumStages; i++ {
		b.stages[i] = buildStage(cfg, i, backend)

		// A width change forces a downsampler even when the config
		// does not ask for one.
		if i < NumStages-1 && (cfg.Downsamples[i] || cfg.EmbedDims[i] != cfg.EmbedDims[i+1]) {
			b.downsamplers[i] = nn.NewPatchEmbed(
				cfg.DownPatchSize, cfg.DownStride, cfg.DownPadding,
				cfg.EmbedDims[i], cfg.EmbedDims[i+1], backend,
			)
		}
	}

	return b
}

// buildStage stacks the residual blocks of one stage. Stochastic-depth
// rates interpolate linearly over the global block position, from 0 at
// the first block of the network to DropPathRate at the last; the
// schedule never resets between stages.
func buildStage[B tensor.Backend](cfg Config, stage int, backend B) *nn.Sequential[B] {
	blocksBefore := 0
	for i := 0; i < stage; i++ {
		blocksBefore += cfg.Layers[i]
	}
	lastIndex := cfg.TotalBlocks() - 1

	blocks := nn.NewSequential[B]()
	for j := 0; j < cfg.Layers[stage]; j++ {
		rate := cfg.DropPathRate * float64(blocksBefore+j) / float64(lastIndex)

		blocks.Add(nn.NewBlock(nn.BlockConfig{
			Dim:            cfg.EmbedDims[stage],
			PoolSize:       cfg.PoolSize,
			MLPRatio:       cfg.MLPRatios[stage],
			DropRate:       cfg.DropRate,
			DropPathRate:   rate,
			UseLayerScale:  cfg.UseLayerScale,
			LayerScaleInit: cfg.LayerScaleInitValue,
			NormEps:        normEps,
		}, backend))
	}

	return blocks
}

// embed runs the stem patch embedding.
func (b *backbone[B]) embed(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return b.stem.Forward(input)
}

// downsample applies the downsampler after stage i, if any.
func (b *backbone[B]) downsample(i int, x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if i < NumStages-1 && b.downsamplers[i] != nil {
		return b.downsamplers[i].Forward(x)
	}
	return x
}

// setTraining propagates the training flag into every stage.
func (b *backbone[B]) setTraining(training bool) {
	for _, stage := range b.stages {
		stage.SetTraining(training)
	}
}

func (b *backbone[B]) parameters() []*nn.Parameter[B] {
	params := b.stem.Parameters()
	for i, stage := range b.stages {
		params = append(params, stage.Parameters()...)
		if i < NumStages-1 && b.downsamplers[i] != nil {
			params = append(params, b.downsamplers[i].Parameters()...)
		}
	}
	return params
}

func (b *backbone[B]) stateDict() map[string]*tensor.RawTensor {
	sd := make(map[string]*tensor.RawTensor)
	nn.MergeStateDict(sd, "stem.", b.stem.StateDict())
	for i, stage := range b.stages {
		nn.MergeStateDict(sd, fmt.Sprintf("stages.%d.", i), stage.StateDict())
	}
	for d, down := range b.downsamplers {
		if down != nil {
			nn.MergeStateDict(sd, fmt.Sprintf("downsamplers.%d.", d), down.StateDict())
		}
	}
	return sd
}

func (b *backbone[B]) loadStateDict(sd map[string]*tensor.RawTensor) error {
	if err := b.stem.LoadStateDict(nn.SubStateDict(sd, "stem.")); err != nil {
		return fmt.Errorf("stem: %w", err)
	}
	for i, stage := range b.stages {
		prefix := fmt.Sprintf("stages.%d.", i)
		if err := stage.LoadStateDict(nn.SubStateDict(sd, prefix)); err != nil {
			return fmt.Errorf("stage %d: %w", i, err)
		}
	}
	for d, down := range b.downsamplers {
		if down != nil {
			prefix := fmt.Sprintf("downsamplers.%d.", d)
			if err := down.LoadStateDict(nn.SubStateDict(sd, prefix)); err != nil {
				return fmt.Errorf("downsampler %d: %w", d, err)
			}
		}
	}
	return nil
}

// Classifier is the image-classification variant: backbone, final
// normalization, spatial global average pooling, and a linear head.
//
// Construct with NewClassifier; the feature-pyramid variant is a
// separate type so each forward signature is fixed at compile time.
//
// Example:
//
//	cfg, _ := poolformer.PresetConfig(poolformer.PresetS12)
//	model, err := poolformer.NewClassifier(cfg, backend)
//	if err != nil {
//	    return err
//	}
//	logits := model.Forward(images) // [B, 3, 224, 224] -> [B, 1000]
type Classifier[B tensor.Backend] struct {
	*backbone[B]

	// Norm is the final normalization ahead of pooling.
	Norm nn.Normalizer[B]

	// Head projects pooled features to class logits; Identity when
	// NumClasses is zero.
	Head nn.Module[B]
}

// NewClassifier builds the classification variant of the backbone.
// The configuration is validated before any module is constructed.
func NewClassifier[B tensor.Backend](cfg Config, backend B) (*Classifier[B], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var head nn.Module[B]
	if cfg.NumClasses > 0 {
		head = nn.NewLinear(cfg.EmbedDims[NumStages-1], cfg.NumClasses, backend)
	} else {
		head = nn.NewIdentity[B]()
	}

	return &Classifier[B]{
		backbone: newBackbone(cfg, backend),
		Norm:     nn.NewGroupNorm(cfg.EmbedDims[NumStages-1], normEps, backend),
		Head:     head,
	}, nil
}

// Forward computes class logits for a batch of images.
//
// Input: [B, InChans, H, W], H and W divisible by the cumulative
// stride (32 with default downsampling).
// Output: [B, NumClasses], or [B, EmbedDims[3]] pooled features when
// the head is disabled.
func (m *Classifier[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	x := m.embed(input)
	for i := range m.stages {
		x = m.stages[i].Forward(x)
		x = m.downsample(i, x)
	}

	x = m.Norm.Forward(x)

	// Global average pool over both spatial dims: [B, C, H, W] -> [B, C]
	pooled := x.MeanDim(-1, false).MeanDim(-1, false)

	return m.Head.Forward(pooled)
}

// Train puts the model in training mode (dropout and stochastic depth
// active).
func (m *Classifier[B]) Train() {
	m.setTraining(true)
}

// Eval puts the model in evaluation mode. Models start in this mode.
func (m *Classifier[B]) Eval() {
	m.setTraining(false)
}

// Config returns the construction configuration.
func (m *Classifier[B]) Config() Config {
	return m.config
}

// Parameters returns all trainable parameters.
func (m *Classifier[B]) Parameters() []*nn.Parameter[B] {
	params := m.parameters()
	params = append(params, m.Norm.Parameters()...)
	params = append(params, m.Head.Parameters()...)
	return params
}

// StateDict returns the model parameters under the native key scheme:
// the backbone keys plus "norm.*" and "head.*".
func (m *Classifier[B]) StateDict() map[string]*tensor.RawTensor {
	sd := m.stateDict()
	nn.MergeStateDict(sd, "norm.", m.Norm.StateDict())
	nn.MergeStateDict(sd, "head.", m.Head.StateDict())
	return sd
}

// LoadStateDict loads all model parameters.
func (m *Classifier[B]) LoadStateDict(sd map[string]*tensor.RawTensor) error {
	if err := m.loadStateDict(sd); err != nil {
		return err
	}
	if err := m.Norm.LoadStateDict(nn.SubStateDict(sd, "norm.")); err != nil {
		return fmt.Errorf("norm: %w", err)
	}
	if err := m.Head.LoadStateDict(nn.SubStateDict(sd, "head.")); err != nil {
		return fmt.Errorf("head: %w", err)
	}
	return nil
}

// FeaturePyramid is the dense-prediction variant: the backbone with
// one normalization per stage endpoint, emitting all four feature
// maps for downstream detection or segmentation necks.
//
// Example:
//
//	cfg, _ := poolformer.PresetConfig(poolformer.PresetS12)
//	model, err := poolformer.NewFeaturePyramid(cfg, backend)
//	if err != nil {
//	    return err
//	}
//	features := model.Forward(images)
//	// features[0]: [B, 64, H/4, W/4] ... features[3]: [B, 512, H/32, W/32]
type FeaturePyramid[B tensor.Backend] struct {
	*backbone[B]

	// OutNorms normalize each stage endpoint, indexed by stage.
	OutNorms []nn.Normalizer[B]
}

// NewFeaturePyramid builds the feature-extraction variant of the
// backbone. The configuration is validated before any module is
// constructed; NumClasses is ignored (the variant has no head).
func NewFeaturePyramid[B tensor.Backend](cfg Config, backend B) (*FeaturePyramid[B], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	outNorms := make([]nn.Normalizer[B], NumStages)
	for i := 0; i < NumStages; i++ {
		outNorms[i] = nn.NewGroupNorm(cfg.EmbedDims[i], normEps, backend)
	}

	return &FeaturePyramid[B]{
		backbone: newBackbone(cfg, backend),
		OutNorms: outNorms,
	}, nil
}

// Forward computes the four normalized stage outputs in increasing
// depth order.
//
// Input: [B, InChans, H, W], H and W divisible by the cumulative
// stride. Output i has shape [B, EmbedDims[i], H/s_i, W/s_i] with
// strides 4, 8, 16, 32 under default downsampling.
func (m *FeaturePyramid[B]) Forward(input *tensor.Tensor[float32, B]) []*tensor.Tensor[float32, B] {
	features := make([]*tensor.Tensor[float32, B], 0, NumStages)

	x := m.embed(input)
	for i := range m.stages {
		x = m.stages[i].Forward(x)
		// The pyramid output taps the stage endpoint, ahead of the
		// next downsampler.
		features = append(features, m.OutNorms[i].Forward(x))
		x = m.downsample(i, x)
	}

	return features
}

// Train puts the model in training mode (dropout and stochastic depth
// active).
func (m *FeaturePyramid[B]) Train() {
	m.setTraining(true)
}

// Eval puts the model in evaluation mode. Models start in this mode.
func (m *FeaturePyramid[B]) Eval() {
	m.setTraining(false)
}

// Config returns the construction configuration.
func (m *FeaturePyramid[B]) Config() Config {
	return m.config
}

// Parameters returns all trainable parameters.
func (m *FeaturePyramid[B]) Parameters() []*nn.Parameter[B] {
	params := m.parameters()
	for _, norm := range m.OutNorms {
		params = append(params, norm.Parameters()...)
	}
	return params
}

// StateDict returns the model parameters under the native key scheme:
// the backbone keys plus "out_norms.{i}.*".
func (m *FeaturePyramid[B]) StateDict() map[string]*tensor.RawTensor {
	sd := m.stateDict()
	for i, norm := range m.OutNorms {
		nn.MergeStateDict(sd, fmt.Sprintf("out_norms.%d.", i), norm.StateDict())
	}
	return sd
}

// LoadStateDict loads all model parameters.
func (m *FeaturePyramid[B]) LoadStateDict(sd map[string]*tensor.RawTensor) error {
	if err := m.loadStateDict(sd); err != nil {
		return err
	}
	for i, norm := range m.OutNorms {
		prefix := fmt.Sprintf("out_norms.%d.", i)
		if err := norm.LoadStateDict(nn.SubStateDict(sd, prefix)); err != nil {
			return fmt.Errorf("out_norm %d: %w", i, err)
		}
	}
	return nil
}
