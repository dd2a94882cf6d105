package serialization

import (
	"crypto/sha256"
	"errors"
	"fmt"
)

// Sentinel errors returned by readers and writers. Callers match them
// with errors.Is.
var (
	ErrInvalidMagic       = errors.New("invalid magic bytes")
	ErrUnsupportedVersion = errors.New("unsupported format version")
	ErrHeaderTooLarge     = errors.New("header exceeds maximum size")
	ErrOutOfBounds        = errors.New("tensor extends beyond data section")
	ErrChecksumMismatch   = errors.New("checksum mismatch: file may be corrupted")
)

// ComputeChecksum returns the SHA-256 digest of data. V2 files store
// this digest over the tensor payload.
func ComputeChecksum(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// ValidateChecksum compares a freshly computed digest against the one
// stored in the file header.
func ValidateChecksum(computed, stored [32]byte) error {
	if computed != stored {
		return ErrChecksumMismatch
	}
	return nil
}

// ValidationError describes a structural problem found while checking a
// header, carrying the tensor names involved.
type ValidationError struct {
	Type    string // kind of failure, e.g. "offset_overlap" or "out_of_bounds"
	Tensor  string // tensor the failure was detected on
	Tensor2 string // second tensor for pairwise failures such as overlaps
	Details string
}

func (e *ValidationError) Error() string {
	if e.Tensor2 != "" {
		return fmt.Sprintf("%s: tensors %q and %q: %s", e.Type, e.Tensor, e.Tensor2, e.Details)
	}
	if e.Tensor != "" {
		return fmt.Sprintf("%s: tensor %q: %s", e.Type, e.Tensor, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Details)
}
