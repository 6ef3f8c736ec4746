package writer

import (
	"sync"

	"github.com/apache/arrow-go/v18/arrow"

	"mosaicod/internal/types"
)

// FinalizedChunk is everything downstream needs to persist one rotated
// or finalized chunk: the encoded bytes and the stats to fold into the
// catalog transaction.
type FinalizedChunk struct {
	ChunkNumber int
	Data        []byte
	RowCount    int64
	Stats       types.OntologyModelStats
}

// OnChunkCreated is invoked every time a chunk is rotated out, whether
// because it crossed the size threshold or because the stream finished.
// The chunked writer does not persist chunks itself: TopicWriteFacade
// owns that, so the callback can couple the artifact write with a
// catalog transaction (I1).
type OnChunkCreated func(chunk FinalizedChunk) error

// ChunkedWriter is the write-path's top-level encoder: it accepts a
// stream of Arrow record batches for one topic and rotates them into a
// sequence of size-bounded Parquet chunks.
type ChunkedWriter struct {
	schema       *arrow.Schema
	props        *FormatProperties
	maxChunkSize *int64 // nil means unlimited: never rotate on size
	onChunk      OnChunkCreated
	pool         *EncodePool

	mu          sync.Mutex
	current     *ChunkWriter
	chunkNumber int
	finalized   bool
}

// NewChunkedWriter opens a chunked writer for one topic. maxChunkSize
// nil disables automatic size-based rotation; the writer then produces
// one chunk, finalized when Finalize is called, or none if no rows were
// written.
func NewChunkedWriter(schema *arrow.Schema, props *FormatProperties, maxChunkSize *int64, pool *EncodePool, onChunk OnChunkCreated) (*ChunkedWriter, error) {
	cw, err := NewChunkWriter(schema, props)
	if err != nil {
		return nil, err
	}
	return &ChunkedWriter{
		schema:       schema,
		props:        props,
		maxChunkSize: maxChunkSize,
		onChunk:      onChunk,
		pool:         pool,
		current:      cw,
	}, nil
}

// Write encodes one record batch, then rotates the current chunk out if
// it has grown past maxChunkSize. Encoding is offloaded onto the shared
// EncodePool.
func (w *ChunkedWriter) Write(rec arrow.Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.finalized {
		return types.New(types.KindState, "write after chunked writer finalized")
	}

	if err := w.pool.Run(func() error { return w.current.Write(rec) }); err != nil {
		return err
	}

	if w.maxChunkSize != nil && w.current.MemorySize() >= *w.maxChunkSize {
		return w.rotateLocked()
	}
	return nil
}

// rotateLocked finalizes the current chunk on the EncodePool, invokes the
// callback, and opens a fresh chunk for subsequent writes. Caller must
// hold w.mu.
func (w *ChunkedWriter) rotateLocked() error {
	var data []byte
	var stats types.OntologyModelStats
	if err := w.pool.Run(func() error {
		var err error
		data, stats, err = w.current.Finalize()
		return err
	}); err != nil {
		return err
	}
	rows := w.current.RowCount()
	number := w.chunkNumber
	w.chunkNumber++

	if rows > 0 {
		if err := w.onChunk(FinalizedChunk{ChunkNumber: number, Data: data, RowCount: rows, Stats: stats}); err != nil {
			return types.Wrap(types.KindCallback, "on_chunk_created", err)
		}
	}

	next, err := NewChunkWriter(w.schema, w.props)
	if err != nil {
		return err
	}
	w.current = next
	return nil
}

// Finalize flushes any buffered rows as a final chunk and marks the
// writer closed. Calling Write after Finalize returns ErrTopicUnlocked's
// sibling state error.
func (w *ChunkedWriter) Finalize() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.finalized {
		return nil
	}
	w.finalized = true
	if w.current.RowCount() == 0 {
		return nil
	}
	return w.rotateLocked()
}

// ChunkNumber reports how many chunks have been rotated out so far; the
// chunk currently being written is not counted.
func (w *ChunkedWriter) ChunkNumber() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.chunkNumber
}
