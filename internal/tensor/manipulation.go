package tensor

// Unsqueeze inserts a size-1 axis at dim (negative dims count from the
// end).
//
// Layers use it to lift per-channel vectors into broadcast position: a
// [C] layer-scale vector unsqueezed to [1, C, 1, 1] multiplies a
// [B, C, H, W] activation.
func (t *Tensor[T, B]) Unsqueeze(dim int) *Tensor[T, B] {
	return New[T, B](t.backend.Unsqueeze(t.raw, dim), t.backend)
}

// Squeeze drops the size-1 axis at dim (negative dims count from the
// end), panicking if the axis is wider than 1.
func (t *Tensor[T, B]) Squeeze(dim int) *Tensor[T, B] {
	return New[T, B](t.backend.Squeeze(t.raw, dim), t.backend)
}
