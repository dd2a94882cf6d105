// Package loader loads pretrained PoolFormer weights into models.
//
// Two weight formats are supported:
//   - SafeTensors: interchange format of the HuggingFace ecosystem,
//     used for checkpoints converted from the original PyTorch release
//   - Born: this repository's native format, memory-mapped for fast
//     access to large weight files
//
// Checkpoint naming is translated automatically. The original
// PoolFormer release flattens the backbone into a single module list
// ("network.0", "network.1", ...); PoolFormerMapper rewrites those
// names to the structured ones used here. Files saved by this
// repository already carry native names and pass through unchanged.
//
// Example:
//
//	cfg, _ := poolformer.PresetConfig("s12")
//	model, _ := poolformer.NewClassifier(cfg, backend)
//
//	report, err := loader.LoadWeights("poolformer_s12.safetensors", backend, model, loader.LoadOptions{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !report.Clean() {
//	    log.Printf("warning: %s", report)
//	}
//
// Design principles:
//   - Pure Go: No CGO dependencies
//   - Best-effort by default: partial checkpoints load what they can
//     and report the rest; Strict mode turns any mismatch into an error
//   - Type safety: shape and dtype mismatches always fail
package loader
