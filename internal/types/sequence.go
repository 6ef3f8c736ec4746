package types

import "time"

// SequenceMetadata bundles a sequence's opaque user metadata blob.
type SequenceMetadata struct {
	UserMetadata []byte
}

// SequenceSystemInfo is a snapshot of a sequence's physical/lifecycle
// state. IsLocked requires both that all child topics are locked and
// that SequenceFacade.Lock (sequence_finalize) was explicitly invoked —
// see SPEC_FULL.md §9 Resolution 1.
type SequenceSystemInfo struct {
	TotalSizeBytes   int64
	IsLocked         bool
	CreatedTimestamp time.Time
}

// ResourceID is the catalog-assigned identity of a sequence or topic row.
type ResourceID struct {
	ID   int64
	UUID string
}
