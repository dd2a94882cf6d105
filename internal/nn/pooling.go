package nn

import (
	"fmt"

	"github.com/born-ml/poolformer/internal/tensor"
)

// Pooling is the average-pool token mixer.
//
// It replaces attention in the residual block: each position is mixed
// with its k x k spatial neighborhood by average pooling at stride 1
// with padding k/2, and the input is then subtracted so the module
// outputs only the neighborhood difference:
//
//	Pooling(x) = AvgPool_k(x) - x
//
// Boundary windows average over in-bounds elements only, never over
// padding, so a constant input yields exactly zero everywhere. Output
// shape equals input shape; there are no learnable parameters.
//
// Example:
//
//	mixer := nn.NewPooling(3, backend)
//	output := mixer.Forward(input) // [B, C, H, W] -> [B, C, H, W]
type Pooling[B tensor.Backend] struct {
	poolSize int
	backend  B
}

// NewPooling creates a pooling token mixer with the given window size.
//
// poolSize must be odd and positive so the stride-1 window centers on
// each position and spatial dimensions are preserved.
func NewPooling[B tensor.Backend](poolSize int, backend B) *Pooling[B] {
	if poolSize <= 0 || poolSize%2 == 0 {
		panic(fmt.Sprintf("pooling: pool size must be odd and positive, got %d", poolSize))
	}

	return &Pooling[B]{
		poolSize: poolSize,
		backend:  backend,
	}
}

// Forward computes AvgPool(x) - x.
//
// Input: [batch, channels, height, width]
// Output: same shape.
func (p *Pooling[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	inputShape := input.Shape()
	if len(inputShape) != 4 {
		panic(fmt.Sprintf("pooling: expected 4D input [N,C,H,W], got %dD", len(inputShape)))
	}

	pooledRaw := p.backend.AvgPool2D(input.Raw(), p.poolSize, 1, p.poolSize/2, false)
	pooled := tensor.New[float32, B](pooledRaw, p.backend)

	return pooled.Sub(input)
}

// Parameters returns an empty slice (Pooling has no trainable parameters).
func (p *Pooling[B]) Parameters() []*Parameter[B] {
	return nil
}

// StateDict returns an empty map.
func (p *Pooling[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{}
}

// LoadStateDict is a no-op.
func (p *Pooling[B]) LoadStateDict(_ map[string]*tensor.RawTensor) error {
	return nil
}

// PoolSize returns the pooling window size.
func (p *Pooling[B]) PoolSize() int {
	return p.poolSize
}
