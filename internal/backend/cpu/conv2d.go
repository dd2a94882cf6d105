package cpu

import (
	"fmt"

	"github.com/born-ml/poolformer/internal/parallel"
	"github.com/born-ml/poolformer/internal/tensor"
)

// im2colKernel unrolls one input patch per output position into a row
// of colBuf, laid out as [N*H_out*W_out, C*K_h*K_w]. Positions that
// fall outside the input read as zero padding.
func im2colKernel[T ~float32 | ~float64](colBuf, input []T, n, c, h, w, kh, kw, hOut, wOut, stride, padding int) {
	colWidth := c * kh * kw
	row := 0

	for batch := 0; batch < n; batch++ {
		for outH := 0; outH < hOut; outH++ {
			for outW := 0; outW < wOut; outW++ {
				hStart := outH*stride - padding
				wStart := outW*stride - padding
				buf := colBuf[row*colWidth : (row+1)*colWidth]

				idx := 0
				for ch := 0; ch < c; ch++ {
					for i := 0; i < kh; i++ {
						for j := 0; j < kw; j++ {
							y := hStart + i
							x := wStart + j
							if y >= 0 && y < h && x >= 0 && x < w {
								buf[idx] = input[((batch*c+ch)*h+y)*w+x]
							} else {
								buf[idx] = 0
							}
							idx++
						}
					}
				}
				row++
			}
		}
	}
}

// conv2dKernel computes the convolution as im2col followed by a matmul
// against the flattened kernel. The kernel tensor is already row-major
// [C_out, C_in*K_h*K_w], so each output channel is one dot product per
// output position, written straight into its [N, C_out, H_out, W_out]
// slot. Channels write disjoint planes, so the outer loop distributes
// across cores with no synchronization.
func conv2dKernel[T ~float32 | ~float64](output, input, kernel []T, n, cIn, h, w, cOut, kh, kw, hOut, wOut, stride, padding int, cfg parallel.Config) {
	colWidth := cIn * kh * kw
	colHeight := n * hOut * wOut
	colBuf := make([]T, colHeight*colWidth)
	im2colKernel(colBuf, input, n, cIn, h, w, kh, kw, hOut, wOut, stride, padding)

	planeSize := hOut * wOut
	parallel.For(cOut, func(i int) {
		kernelRow := kernel[i*colWidth : (i+1)*colWidth]
		for j := 0; j < colHeight; j++ {
			colRow := colBuf[j*colWidth : (j+1)*colWidth]
			var sum T
			for k, kv := range kernelRow {
				sum += kv * colRow[k]
			}
			batch := j / planeSize
			output[(batch*cOut+i)*planeSize+j%planeSize] = sum
		}
	}, cfg)
}

// Conv2D performs 2D convolution via im2col.
//
// Input shape: [batch, in_channels, height, width]
// Kernel shape: [out_channels, in_channels, kernel_h, kernel_w]
// Output shape: [batch, out_channels, out_h, out_w]
//
// Im2col turns the convolution into one matrix multiply per output
// channel, which keeps the inner loop on contiguous memory. Reference:
// "High Performance Convolutional Neural Networks for Document
// Processing" (Chellapilla et al., 2006).
func (cpu *CPUBackend) Conv2D(input, kernel *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	inputShape := input.Shape()
	kernelShape := kernel.Shape()

	if len(inputShape) != 4 {
		panic(fmt.Sprintf("conv2d: input must be 4D [N,C,H,W], got %dD", len(inputShape)))
	}
	if len(kernelShape) != 4 {
		panic(fmt.Sprintf("conv2d: kernel must be 4D [C_out,C_in,K_h,K_w], got %dD", len(kernelShape)))
	}

	n, cIn, h, w := inputShape[0], inputShape[1], inputShape[2], inputShape[3]
	cOut, cInK, kh, kw := kernelShape[0], kernelShape[1], kernelShape[2], kernelShape[3]

	if cIn != cInK {
		panic(fmt.Sprintf("conv2d: input channels %d != kernel channels %d", cIn, cInK))
	}

	hOut := (h+2*padding-kh)/stride + 1
	wOut := (w+2*padding-kw)/stride + 1

	if hOut <= 0 || wOut <= 0 {
		panic(fmt.Sprintf("conv2d: invalid output dimensions: out_h=%d, out_w=%d (check stride/padding)", hOut, wOut))
	}

	output := mustNewRaw("conv2d", tensor.Shape{n, cOut, hOut, wOut}, input.DType(), cpu.device)

	switch input.DType() {
	case tensor.Float32:
		conv2dKernel(output.AsFloat32(), input.AsFloat32(), kernel.AsFloat32(),
			n, cIn, h, w, cOut, kh, kw, hOut, wOut, stride, padding, cpu.parallel)
	case tensor.Float64:
		conv2dKernel(output.AsFloat64(), input.AsFloat64(), kernel.AsFloat64(),
			n, cIn, h, w, cOut, kh, kw, hOut, wOut, stride, padding, cpu.parallel)
	default:
		panic(fmt.Sprintf("conv2d: unsupported dtype %s", input.DType()))
	}

	return output
}
