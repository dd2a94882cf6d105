package tensor

import (
	"fmt"
	"slices"
)

// Shape represents the dimensions of a tensor.
//
// Model tensors are rank-4 [batch, channel, height, width], but the shape
// machinery is rank-agnostic: norms flatten to [B, C*H*W], pooled heads
// reduce to [B, C], and parameter vectors are rank-1.
type Shape []int

// NumElements returns the element count across all dimensions. A rank-0
// shape holds one element.
func (s Shape) NumElements() int {
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Validate rejects shapes with non-positive dimensions.
func (s Shape) Validate() error {
	for i, dim := range s {
		if dim <= 0 {
			return fmt.Errorf("dimension %d is %d, want > 0", i, dim)
		}
	}
	return nil
}

// Equal reports whether both shapes have the same rank and dimensions.
func (s Shape) Equal(other Shape) bool {
	return slices.Equal(s, other)
}

// Clone returns an independent copy of the shape.
func (s Shape) Clone() Shape {
	return slices.Clone(s)
}

// ComputeStrides returns row-major strides: the rightmost dimension is
// contiguous and each stride to the left is the running product of the
// dimensions to its right.
func (s Shape) ComputeStrides() []int {
	strides := make([]int, len(s))
	acc := 1
	for i := len(s) - 1; i >= 0; i-- {
		strides[i] = acc
		acc *= s[i]
	}
	return strides
}

// BroadcastShapes applies NumPy broadcasting rules to a pair of shapes.
//
// Dimensions are matched from the right; a pair is compatible when the
// sizes agree or either is 1, and a shorter shape is padded with leading
// ones. This is what lets a per-channel [1, C, 1, 1] affine or
// layer-scale vector combine with a [B, C, H, W] activation.
//
// It returns the combined shape and whether any axis actually needs
// expanding, so backends can skip index translation for the common
// same-shape case:
//
//	(3, 1) + (3, 5) → (3, 5), true, nil
//	(3, 5) + (3, 5) → (3, 5), false, nil
//	(3, 4) + (3, 5) → nil, false, error
func BroadcastShapes(a, b Shape) (Shape, bool, error) {
	dimAt := func(s Shape, back int) int {
		if i := len(s) - 1 - back; i >= 0 {
			return s[i]
		}
		return 1
	}

	n := max(len(a), len(b))
	out := make(Shape, n)
	expanded := false

	for back := 0; back < n; back++ {
		da, db := dimAt(a, back), dimAt(b, back)
		switch {
		case da == db:
			out[n-1-back] = da
		case da == 1:
			out[n-1-back] = db
			expanded = true
		case db == 1:
			out[n-1-back] = da
			expanded = true
		default:
			return nil, false, fmt.Errorf("cannot broadcast %v with %v: size %d vs %d at axis %d from the right",
				a, b, da, db, back)
		}
	}

	return out, expanded, nil
}
