package cpu

import (
	"fmt"

	"github.com/born-ml/poolformer/internal/parallel"
	"github.com/born-ml/poolformer/internal/tensor"
)

// avgpool2dKernel averages each window over one channel plane at a
// time. Channel planes are independent, so the batch*channel loop runs
// through parallel.ForBatch and each goroutine writes a disjoint
// output plane.
func avgpool2dKernel[T ~float32 | ~float64](output, input []T, n, c, h, w, hOut, wOut, kernelSize, stride, padding int, countIncludePad bool, cfg parallel.Config) {
	fullWindow := T(kernelSize * kernelSize)

	parallel.ForBatch(n, c, func(batch, ch int) {
		channelOffset := (batch*c + ch) * h * w
		channelData := input[channelOffset : channelOffset+h*w]

		outOffset := (batch*c + ch) * hOut * wOut
		outPlane := output[outOffset : outOffset+hOut*wOut]

		for outH := 0; outH < hOut; outH++ {
			// Window start in input coordinates, negative under padding.
			hStart := outH*stride - padding
			hLo := max(hStart, 0)
			hHi := min(hStart+kernelSize, h)

			for outW := 0; outW < wOut; outW++ {
				wStart := outW*stride - padding
				wLo := max(wStart, 0)
				wHi := min(wStart+kernelSize, w)

				// Sum the in-bounds part of the window; padded
				// positions contribute zero.
				var sum T
				for y := hLo; y < hHi; y++ {
					rowStart := y * w
					for _, v := range channelData[rowStart+wLo : rowStart+wHi] {
						sum += v
					}
				}

				divisor := T((hHi - hLo) * (wHi - wLo))
				if countIncludePad {
					divisor = fullWindow
				}
				outPlane[outH*wOut+outW] = sum / divisor
			}
		}
	}, cfg)
}

// AvgPool2D performs 2D average pooling with zero padding.
//
// Average pooling replaces each window with the mean of its values and
// has no learnable parameters. PoolFormer token mixing calls it with
// kernel k, stride 1, padding k/2 so spatial dimensions stay unchanged.
//
// Input shape:  [batch, channels, height, width]
// Output shape: [batch, channels, out_height, out_width]
//
// Where:
//
//	out_height = (height + 2*padding - kernelSize) / stride + 1
//	out_width = (width + 2*padding - kernelSize) / stride + 1
//
// The divisor depends on countIncludePad:
//
//   - true: every window divides by kernelSize*kernelSize
//   - false: windows overlapping the border divide by the number of
//     in-bounds elements only, so border averages are not dragged
//     toward zero
//
// Example (3x3 pool, stride=1, padding=1, countIncludePad=false) on a
// constant 4x4 input of ones: every output is exactly 1, corners
// included, because the corner windows divide by 4 rather than 9.
func (cpu *CPUBackend) AvgPool2D(input *tensor.RawTensor, kernelSize, stride, padding int, countIncludePad bool) *tensor.RawTensor {
	inputShape := input.Shape()
	if len(inputShape) != 4 {
		panic(fmt.Sprintf("avgpool2d: expected 4D input [N,C,H,W], got %dD", len(inputShape)))
	}

	n, c, h, w := inputShape[0], inputShape[1], inputShape[2], inputShape[3]

	if kernelSize <= 0 {
		panic(fmt.Sprintf("avgpool2d: invalid kernel size %d", kernelSize))
	}
	if stride <= 0 {
		panic(fmt.Sprintf("avgpool2d: invalid stride %d", stride))
	}
	if padding < 0 {
		panic(fmt.Sprintf("avgpool2d: invalid padding %d", padding))
	}
	// Padding beyond half the kernel would let a window sit entirely in
	// the padding, leaving no in-bounds elements to average.
	if padding > kernelSize/2 {
		panic(fmt.Sprintf("avgpool2d: padding %d must be at most half of kernel size %d", padding, kernelSize))
	}
	if kernelSize > h+2*padding || kernelSize > w+2*padding {
		panic(fmt.Sprintf("avgpool2d: kernel size %d too large for padded input %dx%d",
			kernelSize, h+2*padding, w+2*padding))
	}

	hOut := (h+2*padding-kernelSize)/stride + 1
	wOut := (w+2*padding-kernelSize)/stride + 1

	if hOut <= 0 || wOut <= 0 {
		panic(fmt.Sprintf("avgpool2d: invalid output dimensions %dx%d (kernel=%d, stride=%d, padding=%d, input=%dx%d)",
			hOut, wOut, kernelSize, stride, padding, h, w))
	}

	output := mustNewRaw("avgpool2d", tensor.Shape{n, c, hOut, wOut}, input.DType(), cpu.device)

	switch input.DType() {
	case tensor.Float32:
		avgpool2dKernel(output.AsFloat32(), input.AsFloat32(),
			n, c, h, w, hOut, wOut, kernelSize, stride, padding, countIncludePad, cpu.parallel)
	case tensor.Float64:
		avgpool2dKernel(output.AsFloat64(), input.AsFloat64(),
			n, c, h, w, hOut, wOut, kernelSize, stride, padding, countIncludePad, cpu.parallel)
	default:
		panic(fmt.Sprintf("avgpool2d: unsupported dtype %v", input.DType()))
	}

	return output
}
