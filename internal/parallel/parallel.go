// Package parallel provides the worker-pool loops used by the CPU
// convolution and pooling kernels.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool // run loops across goroutines
	NumWorkers   int  // goroutines to spawn per loop
	MinChunkSize int  // smallest span worth a goroutine
}

// DefaultConfig sizes the pool from the CPU count. On a single-core
// machine parallelism stays off.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 64,
	}
}

// For executes f(i) for every i in [0, n). Large ranges fan out to
// worker goroutines that pull spans from a shared counter, so uneven
// per-index work still balances. Small ranges, or a disabled config,
// run in order on the calling goroutine.
func For(n int, f func(i int), cfg Config) {
	if !cfg.Enabled || n < cfg.MinChunkSize {
		for i := 0; i < n; i++ {
			f(i)
		}
		return
	}

	workers := max(cfg.NumWorkers, 1)
	// A few spans per worker keeps the handout cheap while leaving
	// room to rebalance; never go below MinChunkSize.
	span := max((n+workers*4-1)/(workers*4), cfg.MinChunkSize)
	if spans := (n + span - 1) / span; workers > spans {
		workers = spans
	}

	var next atomic.Int64
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for {
				hi := int(next.Add(int64(span)))
				lo := hi - span
				if lo >= n {
					return
				}
				for i := lo; i < min(hi, n); i++ {
					f(i)
				}
			}
		}()
	}
	wg.Wait()
}

// ForBatch iterates the (batch, channel) plane grid the conv and pool
// kernels walk, flattened onto For.
func ForBatch(batch, channels int, f func(b, c int), cfg Config) {
	For(batch*channels, func(k int) {
		f(k/channels, k%channels)
	}, cfg)
}
