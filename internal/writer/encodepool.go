package writer

import "runtime"

// EncodePool bounds the number of chunk encodes running concurrently: the
// Go stand-in for Tokio's blocking-thread offload. CPU-bound Parquet
// encoding never runs unbounded: at most size encodes at once, the
// machine's GOMAXPROCS by default, mirroring the concurrency cap the teacher
// applies to its own CoordinateStreaming/DeleteAllFiles goroutine fleets
// via golang.org/x/sync/errgroup.SetLimit.
type EncodePool struct {
	sem chan struct{}
}

// NewEncodePool returns a pool limited to size concurrent encodes. A
// size <= 0 defaults to runtime.GOMAXPROCS(0).
func NewEncodePool(size int) *EncodePool {
	if size <= 0 {
		size = runtime.GOMAXPROCS(0)
	}
	return &EncodePool{sem: make(chan struct{}, size)}
}

// Run waits for a free slot, then executes fn on the calling goroutine
// while holding the slot, returning once fn itself returns.
func (p *EncodePool) Run(fn func() error) error {
	p.sem <- struct{}{}
	defer func() { <-p.sem }()
	return fn()
}
