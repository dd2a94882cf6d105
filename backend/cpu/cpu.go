// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	internalcpu "github.com/born-ml/poolformer/internal/backend/cpu"
	"github.com/born-ml/poolformer/tensor"
)

// Backend is the CPU implementation of tensor.Backend.
type Backend = internalcpu.CPUBackend

var _ tensor.Backend = (*Backend)(nil)

// New returns a CPU backend with parallelism sized to the machine.
func New() *Backend {
	return internalcpu.New()
}
