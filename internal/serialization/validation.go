package serialization

import (
	"fmt"
	"sort"
	"strings"
)

// Hard caps applied while parsing untrusted weight files. A hostile
// header must not be able to make the reader allocate without bound.
const (
	// MaxHeaderSize bounds the serialized header, 100MB.
	MaxHeaderSize = 100 * 1024 * 1024

	// MaxTensorCount bounds the tensor table.
	MaxTensorCount = 100_000

	// MaxTensorNameLen bounds a single tensor name.
	MaxTensorNameLen = 4096
)

// ValidationLevel selects how much of a header is checked at open time.
type ValidationLevel int

const (
	// ValidationStrict checks names, counts and the full offset table.
	// This is the default.
	ValidationStrict ValidationLevel = iota
	// ValidationNormal checks names and counts but skips the offset walk.
	ValidationNormal
	// ValidationNone disables checking. Only for files you wrote yourself.
	ValidationNone
)

func validationErr(typ, tensor, format string, args ...any) *ValidationError {
	return &ValidationError{
		Type:    typ,
		Tensor:  tensor,
		Details: fmt.Sprintf(format, args...),
	}
}

// ValidateTensorOffsets rejects tensor tables whose regions run past
// the data section or alias each other. Weight files are routinely
// downloaded from untrusted sources, so two tensors must never share
// bytes and none may read outside the payload.
func ValidateTensorOffsets(tensors []TensorMeta, dataSize int64) error {
	if len(tensors) > MaxTensorCount {
		return validationErr("too_many_tensors", "", "got %d, limit %d", len(tensors), MaxTensorCount)
	}

	byOffset := make([]TensorMeta, len(tensors))
	copy(byOffset, tensors)
	sort.Slice(byOffset, func(i, j int) bool { return byOffset[i].Offset < byOffset[j].Offset })

	var prev TensorMeta
	var prevEnd int64
	for i, t := range byOffset {
		switch {
		case t.Offset < 0 || t.Size < 0:
			return validationErr("negative_offset", t.Name, "offset=%d size=%d", t.Offset, t.Size)
		case t.Offset+t.Size > dataSize:
			return validationErr("out_of_bounds", t.Name,
				"offset %d + size %d exceeds data section of %d bytes", t.Offset, t.Size, dataSize)
		case i > 0 && t.Offset < prevEnd:
			err := validationErr("offset_overlap", prev.Name,
				"[%d, %d) collides with [%d, %d)", prev.Offset, prevEnd, t.Offset, t.Offset+t.Size)
			err.Tensor2 = t.Name
			return err
		}
		prev, prevEnd = t, t.Offset+t.Size
	}

	return nil
}

// forbiddenNamePatterns are substrings that must never appear in a
// tensor name. Names end up in error messages and log output, and ".."
// or separators would make a hostile file look like a path.
var forbiddenNamePatterns = []struct {
	pattern string
	reason  string
}{
	{"..", "contains '..' (path traversal attempt)"},
	{"/", "contains path separator"},
	{"\\", "contains path separator"},
	{"\x00", "contains null byte"},
}

// ValidateTensorName rejects names that are oversized or carry
// path-like or unprintable content.
func ValidateTensorName(name string) error {
	if len(name) > MaxTensorNameLen {
		return validationErr("name_too_long", name, "length %d exceeds %d", len(name), MaxTensorNameLen)
	}
	for _, f := range forbiddenNamePatterns {
		if strings.Contains(name, f.pattern) {
			return validationErr("invalid_name", name, "%s", f.reason)
		}
	}
	return nil
}

// ValidateHeader runs the checks selected by level against a parsed
// header and the size of the data section that follows it.
func ValidateHeader(h *Header, dataSize int64, level ValidationLevel) error {
	if level == ValidationNone {
		return nil
	}

	if len(h.Tensors) > MaxTensorCount {
		return validationErr("too_many_tensors", "", "got %d, limit %d", len(h.Tensors), MaxTensorCount)
	}
	for i := range h.Tensors {
		if err := ValidateTensorName(h.Tensors[i].Name); err != nil {
			return err
		}
	}

	// The offset walk is pairwise over the whole table; strict mode only.
	if level == ValidationStrict {
		return ValidateTensorOffsets(h.Tensors, dataSize)
	}
	return nil
}
