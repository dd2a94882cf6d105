// Package serialization provides the native .born format for saving and
// loading model weights.
//
// The .born format is a simple, efficient binary format:
//
//	Format Structure (v1):
//	  [4 bytes: Magic "BORN"]
//	  [4 bytes: Version (uint32 LE)]
//	  [4 bytes: Flags (uint32 LE)]
//	  [8 bytes: Header Size (uint64 LE)]
//	  [Header: JSON metadata]
//	  [Tensor data: raw bytes, 64-byte aligned]
//
// Format v2 replaces the variable preamble with a fixed 64-byte header
// carrying a SHA-256 checksum of the tensor payload, so corrupted
// weight files are rejected at open time.
//
// The format supports:
//   - Multiple data types (float32, float64, int32, int64, uint8, bool)
//   - Arbitrary tensor shapes
//   - Metadata preservation
//   - Memory-mapped zero-copy reads via MmapReader
//
// Example usage:
//
//	// Save model weights
//	writer, err := serialization.NewBornWriter("poolformer_s12.born")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer writer.Close()
//	if err := writer.WriteStateDictV2(model.StateDict(), "PoolFormerClassifier", nil); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Load model weights
//	reader, err := serialization.NewBornReader("poolformer_s12.born")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer reader.Close()
//	stateDict, err := reader.ReadStateDict(backend)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := model.LoadStateDict(stateDict); err != nil {
//	    log.Fatal(err)
//	}
package serialization
