package tensor

// Backend is the compute layer beneath Tensor. The surface is exactly
// what a convolutional backbone needs: broadcast elementwise
// arithmetic, matrix multiply, strided convolution, padded average
// pooling for the token mixer, reductions for normalization and the
// pooled classifier head, and a few pointwise math ops.
//
// Implementations panic on shape or dtype violations; the typed Tensor
// wrapper keeps most of those unrepresentable. The CPU backend is the
// production implementation, MockBackend the naive reference for tests.
type Backend interface {
	// Broadcast elementwise arithmetic.
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor
	Div(a, b *RawTensor) *RawTensor

	// Scalar variants of the above.
	AddScalar(x *RawTensor, scalar any) *RawTensor
	SubScalar(x *RawTensor, scalar any) *RawTensor
	MulScalar(x *RawTensor, scalar any) *RawTensor
	DivScalar(x *RawTensor, scalar any) *RawTensor

	// MatMul multiplies two 2D tensors: [M, K] @ [K, N] -> [M, N].
	MatMul(a, b *RawTensor) *RawTensor

	// Conv2D cross-correlates an NCHW input with an [Cout, Cin, K, K]
	// kernel at the given stride and symmetric zero padding.
	Conv2D(input, kernel *RawTensor, stride, padding int) *RawTensor

	// AvgPool2D averages kernelSize x kernelSize windows. With
	// countIncludePad=false, windows overlapping the padding divide by
	// the number of in-bounds elements instead of the window area.
	AvgPool2D(input *RawTensor, kernelSize, stride, padding int, countIncludePad bool) *RawTensor

	// Pointwise math.
	Exp(x *RawTensor) *RawTensor
	Sqrt(x *RawTensor) *RawTensor
	Rsqrt(x *RawTensor) *RawTensor

	// Softmax normalizes along dim.
	Softmax(x *RawTensor, dim int) *RawTensor

	// Reductions. Sum collapses to a scalar; the Dim variants reduce a
	// single axis, optionally keeping it with size 1. Argmax returns
	// Int32 indices and always drops the reduced axis.
	Sum(x *RawTensor) *RawTensor
	SumDim(x *RawTensor, dim int, keepDim bool) *RawTensor
	MeanDim(x *RawTensor, dim int, keepDim bool) *RawTensor
	Argmax(x *RawTensor, dim int) *RawTensor

	// Shape and axis manipulation.
	Reshape(t *RawTensor, newShape Shape) *RawTensor
	Transpose(t *RawTensor, axes ...int) *RawTensor
	Unsqueeze(x *RawTensor, dim int) *RawTensor
	Squeeze(x *RawTensor, dim int) *RawTensor

	// Metadata.
	Name() string
	Device() Device
}
