package tensor

// Typed wrappers over the backend's binary, shaping and reduction
// operations. Each method hands the raw tensors to the backend and
// wraps the result; shape rules live behind the Backend interface.

// Add performs element-wise addition with broadcasting, which is how a
// [1, C, 1, 1] bias or scale combines with a [B, C, H, W] activation.
func (t *Tensor[T, B]) Add(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Add(t.raw, other.raw), t.backend)
}

// Sub performs element-wise subtraction with broadcasting.
func (t *Tensor[T, B]) Sub(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Sub(t.raw, other.raw), t.backend)
}

// Mul performs element-wise multiplication with broadcasting.
func (t *Tensor[T, B]) Mul(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Mul(t.raw, other.raw), t.backend)
}

// Div performs element-wise division with broadcasting.
func (t *Tensor[T, B]) Div(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Div(t.raw, other.raw), t.backend)
}

// MatMul multiplies two matrices: (M, K) @ (K, N) -> (M, N).
func (t *Tensor[T, B]) MatMul(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.MatMul(t.raw, other.raw), t.backend)
}

// Reshape reinterprets the data under a new shape with the same element
// count, e.g. x.Reshape(3, 4) on a [2, 6] tensor.
func (t *Tensor[T, B]) Reshape(newShape ...int) *Tensor[T, B] {
	return New[T, B](t.backend.Reshape(t.raw, Shape(newShape)), t.backend)
}

// Transpose permutes dimensions. Without axes the order is reversed;
// otherwise axes names the permutation, e.g. Transpose(0, 2, 3, 1) to
// go from NCHW to NHWC.
func (t *Tensor[T, B]) Transpose(axes ...int) *Tensor[T, B] {
	return New[T, B](t.backend.Transpose(t.raw, axes...), t.backend)
}

// T swaps the axes of a matrix. Panics on other ranks.
func (t *Tensor[T, B]) T() *Tensor[T, B] {
	if len(t.Shape()) != 2 {
		panic("T() requires a 2D tensor")
	}
	return t.Transpose(1, 0)
}

// SumDim sums along one dimension, negative dims counting from the
// back. With keepDim the reduced dimension stays with size 1 so the
// result broadcasts back against the input.
func (t *Tensor[T, B]) SumDim(dim int, keepDim bool) *Tensor[T, B] {
	return New[T, B](t.backend.SumDim(t.raw, dim, keepDim), t.backend)
}

// MeanDim averages along one dimension, with keepDim and negative dims
// as in SumDim. The normalization and pooled-head paths are built on
// this: a [B, C*H*W] view reduced with keepDim yields per-sample
// statistics, and reducing a [B, C, H, W] map twice over the last
// dimension yields the spatial global average.
func (t *Tensor[T, B]) MeanDim(dim int, keepDim bool) *Tensor[T, B] {
	return New[T, B](t.backend.MeanDim(t.raw, dim, keepDim), t.backend)
}
