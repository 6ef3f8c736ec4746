package facade

import (
	"sync"

	"mosaicod/internal/types"
)

// writerGuard emulates, at runtime, the exclusive-write borrow the
// original implementation gets for free from its language's borrow
// checker: at most one active writer per topic. Go has no static
// equivalent, so the check happens here instead.
type writerGuard struct {
	mu      sync.Mutex
	writing bool
}

// acquire claims the guard or returns ErrAlreadyWriting if another
// writer is already active.
func (g *writerGuard) acquire() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.writing {
		return types.ErrAlreadyWriting
	}
	g.writing = true
	return nil
}

// release returns the guard to its unclaimed state.
func (g *writerGuard) release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.writing = false
}
