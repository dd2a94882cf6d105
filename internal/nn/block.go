package nn

import (
	"fmt"

	"github.com/born-ml/poolformer/internal/tensor"
)

// BlockConfig defines the configuration for one residual block.
type BlockConfig struct {
	Dim            int     // Channel width of the stage
	PoolSize       int     // Token-mixer window (odd, typically 3)
	MLPRatio       float64 // Hidden expansion of the channel MLP (typically 4)
	DropRate       float64 // MLP dropout probability
	DropPathRate   float64 // Stochastic-depth rate for both branches
	UseLayerScale  bool    // Whether to scale branches by learned per-channel vectors
	LayerScaleInit float64 // Initial value of the layer-scale vectors
	NormEps        float32 // GroupNorm epsilon (1e-5 typical)
}

// Block implements one pre-norm residual block of the backbone.
//
// Architecture:
//
//	x → GroupNorm → Pooling → *scale1 → DropPath → + → GroupNorm → ConvMLP → *scale2 → DropPath → + → output
//	         ↑__________________________________|            ↑_________________________________|
//	       (residual)                                      (residual)
//
// Each forward performs exactly two residual updates in fixed order:
// the pooling token mixer first, the channel MLP second. The learned
// layer-scale vectors start near zero so a fresh block is close to the
// identity, which is what lets the architecture stack deeply.
//
// Output shape equals input shape, so blocks stack indefinitely within
// a stage.
//
// Example:
//
//	cfg := nn.BlockConfig{
//	    Dim:            64,
//	    PoolSize:       3,
//	    MLPRatio:       4.0,
//	    UseLayerScale:  true,
//	    LayerScaleInit: 1e-5,
//	    NormEps:        1e-5,
//	}
//	block := nn.NewBlock(cfg, backend)
//	output := block.Forward(x) // [B, 64, H, W] -> [B, 64, H, W]
type Block[B tensor.Backend] struct {
	Config     BlockConfig
	Norm1      Normalizer[B] // pre-norm ahead of the token mixer
	TokenMixer *Pooling[B]
	Norm2      Normalizer[B] // pre-norm ahead of the MLP
	MLP        *ConvMLP[B]
	DropPath   *DropPath[B]

	// Per-channel branch scales [Dim]; nil when layer scale is disabled.
	LayerScale1 *Parameter[B]
	LayerScale2 *Parameter[B]

	backend B
}

// NewBlock creates a residual block.
//
// The two GroupNorms, the token mixer, the MLP, the drop-path module,
// and (when enabled) the layer-scale vectors are constructed from the
// config. Invalid configurations panic; model-level validation happens
// before blocks are built.
func NewBlock[B tensor.Backend](config BlockConfig, backend B) *Block[B] {
	if config.Dim <= 0 {
		panic(fmt.Sprintf("Block: dim must be positive, got %d", config.Dim))
	}
	if config.MLPRatio <= 0 {
		panic(fmt.Sprintf("Block: mlpRatio must be positive, got %g", config.MLPRatio))
	}
	if config.NormEps <= 0 {
		panic(fmt.Sprintf("Block: normEps must be positive, got %g", config.NormEps))
	}

	hidden := int(float64(config.Dim) * config.MLPRatio)

	block := &Block[B]{
		Config:     config,
		Norm1:      NewGroupNorm(config.Dim, config.NormEps, backend),
		TokenMixer: NewPooling(config.PoolSize, backend),
		Norm2:      NewGroupNorm(config.Dim, config.NormEps, backend),
		MLP:        NewConvMLP(config.Dim, hidden, config.Dim, config.DropRate, backend),
		DropPath:   NewDropPath(config.DropPathRate, backend),
		backend:    backend,
	}

	if config.UseLayerScale {
		initVal := float32(config.LayerScaleInit)
		scale1 := tensor.Full[float32](tensor.Shape{config.Dim}, initVal, backend)
		scale2 := tensor.Full[float32](tensor.Shape{config.Dim}, initVal, backend)
		block.LayerScale1 = NewParameter("layer_scale_1", scale1)
		block.LayerScale2 = NewParameter("layer_scale_2", scale2)
	}

	return block
}

// Forward computes the block output.
//
// Shapes:
//   - input: [B, Dim, H, W]
//   - output: [B, Dim, H, W]
//
// The forward pass applies:
//  1. Token-mixer branch with residual connection
//  2. Channel-MLP branch with residual connection
func (b *Block[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	// 1. Token-mixer branch with residual
	branch := b.TokenMixer.Forward(b.Norm1.Forward(x))
	branch = b.scaleBranch(branch, b.LayerScale1)
	x = x.Add(b.DropPath.Forward(branch))

	// 2. MLP branch with residual
	branch = b.MLP.Forward(b.Norm2.Forward(x))
	branch = b.scaleBranch(branch, b.LayerScale2)
	x = x.Add(b.DropPath.Forward(branch))

	return x
}

// scaleBranch multiplies a branch output by a per-channel layer-scale
// vector, broadcast over batch and spatial dims. A nil scale is the
// multiplicative identity.
func (b *Block[B]) scaleBranch(branch *tensor.Tensor[float32, B], scale *Parameter[B]) *tensor.Tensor[float32, B] {
	if scale == nil {
		return branch
	}
	s := scale.Tensor().Reshape(1, b.Config.Dim, 1, 1)
	return branch.Mul(s)
}

// SetTraining propagates the training flag to the stochastic submodules.
func (b *Block[B]) SetTraining(training bool) {
	b.DropPath.SetTraining(training)
	b.MLP.SetTraining(training)
}

// Parameters returns all trainable parameters.
func (b *Block[B]) Parameters() []*Parameter[B] {
	params := make([]*Parameter[B], 0, 10)
	params = append(params, b.Norm1.Parameters()...)
	params = append(params, b.Norm2.Parameters()...)
	params = append(params, b.MLP.Parameters()...)
	if b.LayerScale1 != nil {
		params = append(params, b.LayerScale1, b.LayerScale2)
	}
	return params
}

// StateDict returns the block's parameters keyed "norm1.*", "norm2.*",
// "mlp.*", "layer_scale_1", "layer_scale_2".
func (b *Block[B]) StateDict() map[string]*tensor.RawTensor {
	sd := make(map[string]*tensor.RawTensor)
	MergeStateDict(sd, "norm1.", b.Norm1.StateDict())
	MergeStateDict(sd, "norm2.", b.Norm2.StateDict())
	MergeStateDict(sd, "mlp.", b.MLP.StateDict())
	if b.LayerScale1 != nil {
		sd["layer_scale_1"] = b.LayerScale1.Tensor().Raw()
		sd["layer_scale_2"] = b.LayerScale2.Tensor().Raw()
	}
	return sd
}

// LoadStateDict loads all block parameters from a state dictionary.
func (b *Block[B]) LoadStateDict(sd map[string]*tensor.RawTensor) error {
	if err := b.Norm1.LoadStateDict(SubStateDict(sd, "norm1.")); err != nil {
		return fmt.Errorf("norm1: %w", err)
	}
	if err := b.Norm2.LoadStateDict(SubStateDict(sd, "norm2.")); err != nil {
		return fmt.Errorf("norm2: %w", err)
	}
	if err := b.MLP.LoadStateDict(SubStateDict(sd, "mlp.")); err != nil {
		return fmt.Errorf("mlp: %w", err)
	}
	if b.LayerScale1 != nil {
		if err := loadParam(sd, "layer_scale_1", b.LayerScale1); err != nil {
			return err
		}
		if err := loadParam(sd, "layer_scale_2", b.LayerScale2); err != nil {
			return err
		}
	}
	return nil
}
