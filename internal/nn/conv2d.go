package nn

import (
	"fmt"

	"github.com/born-ml/poolformer/internal/tensor"
)

// Conv2D is a 2D convolutional layer over [batch, channel, height,
// width] tensors.
//
// The backbone uses it in two roles: strided patch embeddings (the
// 7x7/4 stem and the 3x3/2 stage transitions) and the 1x1 channel
// projections inside the MLP. Weight layout is [out_channels,
// in_channels, kernel_h, kernel_w]; bias, when enabled, is a flat
// [out_channels] vector broadcast over the spatial grid.
//
// Each spatial axis shrinks according to
//
//	out = (in + 2*padding - kernel) / stride + 1
//
// Example:
//
//	// Stem projection: 3 channels -> 64 channels, 7x7 kernel, stride 4
//	conv := nn.NewConv2D(3, 64, 7, 7, 4, 2, true, backend)
//
//	input := tensor.Zeros[float32](tensor.Shape{1, 3, 224, 224}, backend)
//	output := conv.Forward(input) // [1, 64, 56, 56]
type Conv2D[B tensor.Backend] struct {
	inChannels  int
	outChannels int
	kernelSize  [2]int
	stride      int
	padding     int
	useBias     bool

	weight *Parameter[B]
	bias   *Parameter[B] // nil when useBias is false

	backend B
}

// NewConv2D creates a 2D convolutional layer.
//
// Weights start from a truncated normal with std 0.02, the bias from
// zeros. Kernel height and width are independent, though the model
// only ever uses square kernels.
func NewConv2D[B tensor.Backend](
	inChannels, outChannels int,
	kernelH, kernelW int,
	stride, padding int,
	useBias bool,
	backend B,
) *Conv2D[B] {
	switch {
	case inChannels <= 0 || outChannels <= 0:
		panic(fmt.Sprintf("conv2d: invalid channels in=%d, out=%d", inChannels, outChannels))
	case kernelH <= 0 || kernelW <= 0:
		panic(fmt.Sprintf("conv2d: invalid kernel size h=%d, w=%d", kernelH, kernelW))
	case stride <= 0:
		panic(fmt.Sprintf("conv2d: invalid stride %d", stride))
	case padding < 0:
		panic(fmt.Sprintf("conv2d: invalid padding %d", padding))
	}

	c := &Conv2D[B]{
		inChannels:  inChannels,
		outChannels: outChannels,
		kernelSize:  [2]int{kernelH, kernelW},
		stride:      stride,
		padding:     padding,
		useBias:     useBias,
		backend:     backend,
	}

	c.weight = NewParameter("weight",
		TruncNormal(tensor.Shape{outChannels, inChannels, kernelH, kernelW}, weightInitStd, backend))
	if useBias {
		c.bias = NewParameter("bias", Zeros(tensor.Shape{outChannels}, backend))
	}
	return c
}

// Forward convolves x with the layer's kernel and adds the bias.
//
// Input: [batch, in_channels, height, width]
// Output: [batch, out_channels, out_h, out_w].
func (c *Conv2D[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := x.Shape()
	if len(shape) != 4 {
		panic(fmt.Sprintf("conv2d: expected 4D input [N,C,H,W], got %dD", len(shape)))
	}
	if shape[1] != c.inChannels {
		panic(fmt.Sprintf("conv2d: input channels %d != expected %d", shape[1], c.inChannels))
	}

	raw := c.backend.Conv2D(x.Raw(), c.weight.Tensor().Raw(), c.stride, c.padding)
	y := tensor.New[float32, B](raw, c.backend)

	if c.useBias {
		// [out_channels] broadcasts as [1, out_channels, 1, 1].
		y = y.Add(c.bias.Tensor().Reshape(1, c.outChannels, 1, 1))
	}
	return y
}

// Parameters returns all trainable parameters.
func (c *Conv2D[B]) Parameters() []*Parameter[B] {
	if c.useBias {
		return []*Parameter[B]{c.weight, c.bias}
	}
	return []*Parameter[B]{c.weight}
}

// StateDict returns the layer's parameters keyed "weight" and "bias".
func (c *Conv2D[B]) StateDict() map[string]*tensor.RawTensor {
	sd := map[string]*tensor.RawTensor{
		"weight": c.weight.Tensor().Raw(),
	}
	if c.useBias {
		sd["bias"] = c.bias.Tensor().Raw()
	}
	return sd
}

// LoadStateDict loads the weight and, when present, the bias.
func (c *Conv2D[B]) LoadStateDict(sd map[string]*tensor.RawTensor) error {
	if err := loadParam(sd, "weight", c.weight); err != nil {
		return err
	}
	if c.useBias {
		return loadParam(sd, "bias", c.bias)
	}
	return nil
}

// String returns a string representation of the layer.
func (c *Conv2D[B]) String() string {
	return fmt.Sprintf("Conv2D(%d->%d, kernel=%dx%d, stride=%d, padding=%d, bias=%v)",
		c.inChannels, c.outChannels,
		c.kernelSize[0], c.kernelSize[1],
		c.stride, c.padding, c.useBias)
}

// InChannels returns the number of input channels.
func (c *Conv2D[B]) InChannels() int { return c.inChannels }

// OutChannels returns the number of output channels.
func (c *Conv2D[B]) OutChannels() int { return c.outChannels }

// KernelSize returns the kernel size [height, width].
func (c *Conv2D[B]) KernelSize() [2]int { return c.kernelSize }

// Stride returns the stride.
func (c *Conv2D[B]) Stride() int { return c.stride }

// Padding returns the padding.
func (c *Conv2D[B]) Padding() int { return c.padding }

// ComputeOutputSize reports the spatial size this layer produces for
// an inputH x inputW feature map.
func (c *Conv2D[B]) ComputeOutputSize(inputH, inputW int) [2]int {
	return [2]int{
		convSpan(inputH, c.kernelSize[0], c.stride, c.padding),
		convSpan(inputW, c.kernelSize[1], c.stride, c.padding),
	}
}

// convSpan is the output extent of one spatial axis.
func convSpan(in, kernel, stride, padding int) int {
	return (in+2*padding-kernel)/stride + 1
}
