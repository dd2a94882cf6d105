package nn

import (
	"github.com/born-ml/poolformer/internal/tensor"
)

// weightInitStd is the standard deviation every trainable projection
// weight is initialized with.
const weightInitStd = 0.02

// TruncNormal initializes a weight tensor from a truncated normal
// distribution: mean 0, the given standard deviation, samples beyond
// two standard deviations re-drawn.
//
// Every convolution and linear weight in the backbone uses this with
// std 0.02; biases are zero.
//
// Parameters:
//   - shape: Shape of the weight tensor
//   - std: Standard deviation before truncation
//   - backend: Backend to use for tensor creation
//
// Returns a tensor initialized with the truncated normal distribution.
func TruncNormal[B tensor.Backend](shape tensor.Shape, std float64, backend B) *tensor.Tensor[float32, B] {
	return tensor.TruncNormal[float32](shape, std, backend)
}

// Zeros creates a tensor filled with zeros.
//
// This is the bias initialization.
//
// Parameters:
//   - shape: Shape of the tensor
//   - backend: Backend to use for tensor creation
//
// Returns a zero-filled tensor.
func Zeros[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return tensor.Zeros[float32](shape, backend)
}

// Ones creates a tensor filled with ones.
//
// This is the normalization scale initialization.
//
// Parameters:
//   - shape: Shape of the tensor
//   - backend: Backend to use for tensor creation
//
// Returns a tensor filled with ones.
func Ones[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return tensor.Ones[float32](shape, backend)
}
