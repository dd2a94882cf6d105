package loader

import (
	"fmt"
	"strconv"
	"strings"
)

// WeightMapper maps checkpoint-specific weight names to the parameter
// names used by this repository's modules.
type WeightMapper interface {
	// MapName converts a checkpoint weight name to the native name.
	MapName(name string) (string, error)

	// Architecture returns the architecture name the mapper handles.
	Architecture() string
}

// IdentityMapper passes weight names through unchanged. It is used for
// checkpoints that already carry native names, such as .born files
// written by this repository.
type IdentityMapper struct{}

// NewIdentityMapper creates a pass-through weight mapper.
func NewIdentityMapper() *IdentityMapper {
	return &IdentityMapper{}
}

// MapName returns the name unchanged.
func (m *IdentityMapper) MapName(name string) (string, error) {
	return name, nil
}

// Architecture returns "native".
func (m *IdentityMapper) Architecture() string {
	return "native"
}

// PoolFormerMapper translates the weight names used by the original
// PoolFormer release to this repository's parameter names.
//
// The original checkpoints flatten the backbone into one module list:
//
//	patch_embed.*      -> stem.*
//	network.{0,2,4,6}.* -> stages.{0..3}.*        (block stages)
//	network.{1,3,5}.*   -> downsamplers.{0..2}.*  (between-stage embeddings)
//	norm{0,2,4,6}.*     -> out_norms.{0..3}.*     (feature-pyramid norms)
//	norm.*              -> norm.*                 (classifier final norm)
//	head.*              -> head.*                 (classifier linear)
//
// Names inside a block (norm1, mlp.fc1, layer_scale_1, ...) are already
// identical and pass through untouched.
type PoolFormerMapper struct{}

// NewPoolFormerMapper creates a mapper for original PoolFormer checkpoints.
func NewPoolFormerMapper() *PoolFormerMapper {
	return &PoolFormerMapper{}
}

// MapName converts an original PoolFormer weight name to the native name.
// Names that match no known prefix are returned unchanged.
func (m *PoolFormerMapper) MapName(name string) (string, error) {
	if rest, ok := strings.CutPrefix(name, "patch_embed."); ok {
		return "stem." + rest, nil
	}

	if rest, ok := strings.CutPrefix(name, "network."); ok {
		return m.mapNetworkWeight(name, rest)
	}

	// Feature-pyramid norms are "norm0"/"norm2"/"norm4"/"norm6"; the
	// classifier final norm is plain "norm" and needs no mapping.
	if rest, ok := strings.CutPrefix(name, "norm"); ok && len(rest) > 0 && rest[0] != '.' {
		return m.mapOutputNorm(name, rest)
	}

	return name, nil
}

// mapNetworkWeight maps "network.{k}.{rest}" entries. Even indices are
// block stages, odd indices are the downsampling patch embeddings
// between them.
func (m *PoolFormerMapper) mapNetworkWeight(name, rest string) (string, error) {
	idxStr, tail, ok := strings.Cut(rest, ".")
	if !ok {
		return "", fmt.Errorf("malformed network weight name %q", name)
	}

	idx, err := strconv.Atoi(idxStr)
	if err != nil {
		return "", fmt.Errorf("malformed network index in %q: %w", name, err)
	}
	if idx < 0 || idx > 6 {
		return "", fmt.Errorf("network index %d out of range in %q", idx, name)
	}

	if idx%2 == 0 {
		return fmt.Sprintf("stages.%d.%s", idx/2, tail), nil
	}
	return fmt.Sprintf("downsamplers.%d.%s", (idx-1)/2, tail), nil
}

// mapOutputNorm maps "norm{k}.{rest}" entries to the per-stage output
// norms of the feature-pyramid variant.
func (m *PoolFormerMapper) mapOutputNorm(name, rest string) (string, error) {
	idxStr, tail, ok := strings.Cut(rest, ".")
	if !ok {
		return "", fmt.Errorf("malformed output norm name %q", name)
	}

	idx, err := strconv.Atoi(idxStr)
	if err != nil {
		return "", fmt.Errorf("malformed output norm index in %q: %w", name, err)
	}
	if idx%2 != 0 || idx < 0 || idx > 6 {
		return "", fmt.Errorf("output norm index %d out of range in %q", idx, name)
	}

	return fmt.Sprintf("out_norms.%d.%s", idx/2, tail), nil
}

// Architecture returns "poolformer".
func (m *PoolFormerMapper) Architecture() string {
	return "poolformer"
}

// NeedsMapping reports whether a set of weight names uses the original
// PoolFormer layout rather than native names.
func NeedsMapping(names []string) bool {
	for _, name := range names {
		if strings.HasPrefix(name, "network.") || strings.HasPrefix(name, "patch_embed.") {
			return true
		}
	}
	return false
}

// MapStateDictNames applies a mapper to every key of a state dict's
// name set, returning the translated name for each original name.
// Translation failures abort, carrying the offending name.
func MapStateDictNames(names []string, mapper WeightMapper) (map[string]string, error) {
	mapped := make(map[string]string, len(names))
	for _, name := range names {
		native, err := mapper.MapName(name)
		if err != nil {
			return nil, err
		}
		mapped[name] = native
	}
	return mapped, nil
}
