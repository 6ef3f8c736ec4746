package facade

import (
	"context"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"

	"mosaicod/internal/catalog"
	"mosaicod/internal/marshal"
	"mosaicod/internal/query"
	"mosaicod/internal/store"
	"mosaicod/internal/types"
	"mosaicod/internal/writer"
)

// defaultTargetMessageSize is the target ComputeOptimalBatchSize uses
// when the caller passes a non-positive one.
const defaultTargetMessageSize = 4 << 20

// TopicWriteFacade is the single write-path entry point for one topic:
// it owns the exclusive writer guard, and its chunk-created callback
// couples the object-store write with the catalog transaction so no
// catalog row is ever committed without a materialized artifact (I1).
type TopicWriteFacade struct {
	catalog catalog.Catalog
	store   store.ObjectStore
	querier query.TimeseriesQuerier

	sequenceID types.ResourceID
	topicID    types.ResourceID
	locator    types.TopicResourceLocator
	props      *writer.FormatProperties

	guard writerGuard
}

// NewTopicWriteFacade binds a facade to an already-created topic. querier
// is consulted only during Finalize, to compute the manifest's timestamp
// bounds.
func NewTopicWriteFacade(
	c catalog.Catalog,
	s store.ObjectStore,
	q query.TimeseriesQuerier,
	sequenceID, topicID types.ResourceID,
	locator types.TopicResourceLocator,
	format types.Format,
) (*TopicWriteFacade, error) {
	props, err := writer.NewFormatProperties(format)
	if err != nil {
		return nil, err
	}
	return &TopicWriteFacade{
		catalog:    c,
		store:      s,
		querier:    q,
		sequenceID: sequenceID,
		topicID:    topicID,
		locator:    locator,
		props:      props,
	}, nil
}

// TopicWriter is a single DoPut-scoped write session, released back to
// its facade's guard on Finalize.
type TopicWriter struct {
	facade *TopicWriteFacade
	cw     *writer.ChunkedWriter
}

// Writer opens a write session against schema, claiming the topic's
// exclusive writer guard. Returns types.ErrAlreadyWriting if another
// session is already active.
func (f *TopicWriteFacade) Writer(ctx context.Context, schema *arrow.Schema, maxChunkSize *int64, pool *writer.EncodePool) (*TopicWriter, error) {
	locked, err := f.catalog.TopicIsLocked(ctx, f.topicID)
	if err != nil {
		return nil, err
	}
	if locked {
		return nil, types.ErrTopicLocked
	}

	if err := f.guard.acquire(); err != nil {
		return nil, err
	}

	nextChunkNumber, err := f.nextChunkNumber(ctx)
	if err != nil {
		f.guard.release()
		return nil, err
	}

	tw := &TopicWriter{facade: f}
	cw, err := writer.NewChunkedWriter(schema, f.props, maxChunkSize, pool, tw.onChunkCreated(ctx, nextChunkNumber))
	if err != nil {
		f.guard.release()
		return nil, err
	}
	tw.cw = cw
	return tw, nil
}

func (f *TopicWriteFacade) nextChunkNumber(ctx context.Context) (int, error) {
	chunks, err := f.catalog.ChunkList(ctx, f.topicID)
	if err != nil {
		return 0, err
	}
	return len(chunks), nil
}

// onChunkCreated writes the chunk's bytes to the object store BEFORE
// opening the catalog transaction, the ordering I1 requires: a reader
// can race ahead of the catalog row materializing, but never the
// reverse.
func (tw *TopicWriter) onChunkCreated(ctx context.Context, baseChunkNumber int) writer.OnChunkCreated {
	return func(fc writer.FinalizedChunk) error {
		f := tw.facade
		absoluteNumber := baseChunkNumber + fc.ChunkNumber
		path := f.locator.PathData(absoluteNumber, f.props.Extension())

		if err := f.store.WriteBytes(ctx, path, fc.Data); err != nil {
			return types.Wrap(types.KindIO, fmt.Sprintf("write chunk artifact %q", path), err)
		}

		chunk := types.Chunk{
			TopicID:   f.topicID.ID,
			Datafile:  path,
			SizeBytes: int64(len(fc.Data)),
			RowCount:  fc.RowCount,
		}
		if err := f.catalog.ChunkCommit(ctx, f.topicID, chunk, fc.Stats); err != nil {
			return err
		}
		return nil
	}
}

// Write encodes one record batch, possibly rotating a chunk out.
func (tw *TopicWriter) Write(rec arrow.Record) error {
	return tw.cw.Write(rec)
}

// Finalize runs the full topic finalize protocol: flush any buffered
// rows as a final chunk, write the timestamp-range manifest (skipped if
// the topic has no chunks at all), then lock the topic as the last
// catalog mutation. The writer guard is released last, so no other
// Writer session can open mid-finalize. A failure before the lock
// commits leaves the topic unlocked with every already-committed chunk
// intact; retrying Finalize (after opening a fresh Writer) is safe.
func (tw *TopicWriter) Finalize(ctx context.Context) error {
	defer tw.facade.guard.release()

	if err := tw.cw.Finalize(); err != nil {
		return err
	}
	return tw.facade.finalizeTopic(ctx)
}

func (f *TopicWriteFacade) finalizeTopic(ctx context.Context) error {
	info, err := f.catalog.TopicGetSystemInfo(ctx, f.topicID)
	if err != nil {
		return err
	}

	if info.ChunksNumber > 0 {
		if err := f.writeManifest(ctx); err != nil {
			return err
		}
	}
	return f.catalog.TopicLock(ctx, f.topicID)
}

func (f *TopicWriteFacade) writeManifest(ctx context.Context) error {
	chunks, err := f.catalog.ChunkList(ctx, f.topicID)
	if err != nil {
		return err
	}
	handles := make([]query.Handle, len(chunks))
	for i, c := range chunks {
		handles[i] = query.Handle{ChunkID: c.ChunkID, Datafile: c.Datafile}
	}

	manifest := types.TopicManifest{}
	r, err := f.querier.TimestampRange(ctx, handles)
	switch {
	case err == nil:
		manifest.Timestamp = &types.TopicManifestTimestamp{Range: r}
	case types.IsKind(err, types.KindNotFound):
		// No timestamp values observed across any chunk: a valid, empty
		// manifest.
	default:
		return err
	}

	data, err := marshal.MarshalTopicManifest(manifest)
	if err != nil {
		return err
	}
	path := f.locator.PathManifest()
	if err := f.store.WriteBytes(ctx, path, data); err != nil {
		return types.Wrap(types.KindIO, fmt.Sprintf("write manifest artifact %q", path), err)
	}
	return nil
}

// Lock marks the topic locked; no further Writer sessions may open.
func (f *TopicWriteFacade) Lock(ctx context.Context) error {
	return f.catalog.TopicLock(ctx, f.topicID)
}

// SystemInfo reports the topic's chunk count, lock state, size, and
// creation time.
func (f *TopicWriteFacade) SystemInfo(ctx context.Context) (types.TopicSystemInfo, error) {
	return f.catalog.TopicGetSystemInfo(ctx, f.topicID)
}

// Metadata returns the topic's properties and user metadata.
func (f *TopicWriteFacade) Metadata(ctx context.Context) (types.TopicMetadata, error) {
	return f.catalog.TopicGetMetadata(ctx, f.topicID)
}

// Notify records a topic-scoped bookkeeping message. Catalog-only: this
// never touches the write hot path.
func (f *TopicWriteFacade) Notify(ctx context.Context, typ types.NotifyType, message string) error {
	return f.catalog.NotifyAppend(ctx, f.topicID, typ, message)
}

// NotifyList returns the topic's recorded notifications, oldest first.
func (f *TopicWriteFacade) NotifyList(ctx context.Context) ([]types.Notify, error) {
	return f.catalog.NotifyList(ctx, f.topicID)
}

// NotifyPurge deletes every notification recorded for the topic.
func (f *TopicWriteFacade) NotifyPurge(ctx context.Context) error {
	return f.catalog.NotifyPurge(ctx, f.topicID)
}

// ComputeOptimalBatchSize estimates the row count a read-side batch
// should carry to land close to targetMessageSizeBytes, based on the
// topic's observed average row size so far. Returns 1 for a topic with
// no committed chunks yet, since there is no observed row size to scale
// from.
func (f *TopicWriteFacade) ComputeOptimalBatchSize(ctx context.Context, targetMessageSizeBytes int64) (int64, error) {
	if targetMessageSizeBytes <= 0 {
		targetMessageSizeBytes = defaultTargetMessageSize
	}
	stats, err := f.catalog.TopicGetStats(ctx, f.topicID)
	if err != nil {
		return 0, err
	}
	if stats.TotalSizeBytes == 0 || stats.TotalRowCount == 0 {
		return 1, nil
	}
	rows := (targetMessageSizeBytes * stats.TotalRowCount) / stats.TotalSizeBytes
	if rows < 1 {
		rows = 1
	}
	return rows, nil
}
