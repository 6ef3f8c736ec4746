package facade

import (
	"context"

	"mosaicod/internal/catalog"
	"mosaicod/internal/types"
)

// SequenceFacade is the write-path's entry point for sequence lifecycle
// operations: create, lock (sequence_finalize), and system info.
type SequenceFacade struct {
	catalog catalog.Catalog
}

// NewSequenceFacade wraps a Catalog with the sequence lifecycle surface.
func NewSequenceFacade(c catalog.Catalog) *SequenceFacade {
	return &SequenceFacade{catalog: c}
}

// Create registers a new sequence and returns its catalog identity.
func (f *SequenceFacade) Create(ctx context.Context, name string, meta types.SequenceMetadata) (types.ResourceID, types.SequenceResourceLocator, error) {
	locator := types.NewSequenceLocator(name)
	id, err := f.catalog.SequenceCreate(ctx, locator, meta)
	if err != nil {
		return types.ResourceID{}, types.SequenceResourceLocator{}, err
	}
	return id, locator, nil
}

// Lock marks a sequence finalized (sequence_finalize). It does not
// require every child topic to already be locked: SequenceSystemInfo's
// IsLocked only becomes true once both conditions hold.
func (f *SequenceFacade) Lock(ctx context.Context, id types.ResourceID) error {
	return f.catalog.SequenceLock(ctx, id)
}

// SystemInfo reports the sequence's size, lock, and creation state.
func (f *SequenceFacade) SystemInfo(ctx context.Context, id types.ResourceID) (types.SequenceSystemInfo, error) {
	return f.catalog.SequenceGetSystemInfo(ctx, id)
}

// Resolve looks up a sequence's catalog identity from its locator.
func (f *SequenceFacade) Resolve(ctx context.Context, locator types.SequenceResourceLocator) (types.ResourceID, error) {
	return f.catalog.SequenceResolve(ctx, locator)
}

// Metadata returns a sequence's stored user metadata.
func (f *SequenceFacade) Metadata(ctx context.Context, id types.ResourceID) (types.SequenceMetadata, error) {
	return f.catalog.SequenceGetMetadata(ctx, id)
}
