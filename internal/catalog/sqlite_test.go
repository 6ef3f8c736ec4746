package catalog

import (
	"context"
	"path/filepath"
	"testing"

	"mosaicod/internal/types"
)

func openTestCatalog(t *testing.T) *SQLiteCatalog {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.db")
	c, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestSequenceCreateAndResolve(t *testing.T) {
	c := openTestCatalog(t)
	ctx := context.Background()

	locator := types.NewSequenceLocator("s1")
	id, err := c.SequenceCreate(ctx, locator, types.SequenceMetadata{UserMetadata: []byte("hi")})
	if err != nil {
		t.Fatalf("SequenceCreate: %v", err)
	}

	got, err := c.SequenceResolve(ctx, locator)
	if err != nil {
		t.Fatalf("SequenceResolve: %v", err)
	}
	if got.ID != id.ID {
		t.Errorf("resolved id = %d, want %d", got.ID, id.ID)
	}

	meta, err := c.SequenceGetMetadata(ctx, id)
	if err != nil {
		t.Fatalf("SequenceGetMetadata: %v", err)
	}
	if string(meta.UserMetadata) != "hi" {
		t.Errorf("metadata = %q, want %q", meta.UserMetadata, "hi")
	}
}

func TestSequenceLockRequiresAllTopicsLocked(t *testing.T) {
	c := openTestCatalog(t)
	ctx := context.Background()

	seqID, err := c.SequenceCreate(ctx, types.NewSequenceLocator("s1"), types.SequenceMetadata{})
	if err != nil {
		t.Fatalf("SequenceCreate: %v", err)
	}
	topicLocator := types.NewTopicLocator("s1/t1")
	topicID, err := c.TopicCreate(ctx, seqID, topicLocator, types.TopicMetadata{
		Properties: types.TopicProperties{SerializationFormat: types.FormatDefault, OntologyTag: "x"},
	})
	if err != nil {
		t.Fatalf("TopicCreate: %v", err)
	}

	if err := c.SequenceLock(ctx, seqID); err != nil {
		t.Fatalf("SequenceLock: %v", err)
	}

	info, err := c.SequenceGetSystemInfo(ctx, seqID)
	if err != nil {
		t.Fatalf("SequenceGetSystemInfo: %v", err)
	}
	if info.IsLocked {
		t.Fatalf("sequence must not report locked while topic %d is unlocked", topicID.ID)
	}

	if err := c.TopicLock(ctx, topicID); err != nil {
		t.Fatalf("TopicLock: %v", err)
	}
	info, err = c.SequenceGetSystemInfo(ctx, seqID)
	if err != nil {
		t.Fatalf("SequenceGetSystemInfo: %v", err)
	}
	if !info.IsLocked {
		t.Fatalf("sequence must report locked once SequenceLock called and every topic locked")
	}
}

func TestChunkCommitAndList(t *testing.T) {
	c := openTestCatalog(t)
	ctx := context.Background()

	seqID, err := c.SequenceCreate(ctx, types.NewSequenceLocator("s1"), types.SequenceMetadata{})
	if err != nil {
		t.Fatalf("SequenceCreate: %v", err)
	}
	topicID, err := c.TopicCreate(ctx, seqID, types.NewTopicLocator("s1/t1"), types.TopicMetadata{
		Properties: types.TopicProperties{SerializationFormat: types.FormatDefault, OntologyTag: "x"},
	})
	if err != nil {
		t.Fatalf("TopicCreate: %v", err)
	}

	stats := types.NewOntologyModelStats()
	ns := types.NewNumericStats()
	v := 3.0
	ns.Eval(&v)
	stats.Cols["value"] = types.Stats{Kind: types.StatsKindNumeric, Numeric: ns}

	for i := 0; i < 3; i++ {
		err := c.ChunkCommit(ctx, topicID, types.Chunk{
			Datafile:  "s1/t1/data-0000" + string(rune('0'+i)) + ".parquet",
			SizeBytes: 100,
			RowCount:  10,
		}, stats)
		if err != nil {
			t.Fatalf("ChunkCommit %d: %v", i, err)
		}
	}

	chunks, err := c.ChunkList(ctx, topicID)
	if err != nil {
		t.Fatalf("ChunkList: %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("len(chunks) = %d, want 3", len(chunks))
	}
	for i, ch := range chunks {
		want := "s1/t1/data-0000" + string(rune('0'+i)) + ".parquet"
		if ch.Datafile != want {
			t.Errorf("chunk %d datafile = %q, want %q (chunk indexing must preserve commit order)", i, ch.Datafile, want)
		}
	}

	got, err := c.ChunkGetStats(ctx, chunks[0].ChunkID)
	if err != nil {
		t.Fatalf("ChunkGetStats: %v", err)
	}
	if got.Cols["value"].Numeric.Min != 3 {
		t.Errorf("stats min = %v, want 3", got.Cols["value"].Numeric.Min)
	}

	topicStats, err := c.TopicGetStats(ctx, topicID)
	if err != nil {
		t.Fatalf("TopicGetStats: %v", err)
	}
	if topicStats.TotalRowCount != 30 || topicStats.TotalSizeBytes != 300 {
		t.Errorf("topic stats = %+v, want rows=30 bytes=300", topicStats)
	}
}

func TestTopicLockMissingTopicReportsNotFound(t *testing.T) {
	c := openTestCatalog(t)
	ctx := context.Background()
	err := c.TopicLock(ctx, types.ResourceID{ID: 999})
	if !types.IsKind(err, types.KindNotFound) {
		t.Fatalf("TopicLock on missing topic = %v, want KindNotFound", err)
	}
}

func TestNotifyAppendListPurge(t *testing.T) {
	c := openTestCatalog(t)
	ctx := context.Background()

	seqID, err := c.SequenceCreate(ctx, types.NewSequenceLocator("s1"), types.SequenceMetadata{})
	if err != nil {
		t.Fatalf("SequenceCreate: %v", err)
	}
	topicID, err := c.TopicCreate(ctx, seqID, types.NewTopicLocator("s1/t1"), types.TopicMetadata{
		Properties: types.TopicProperties{SerializationFormat: types.FormatDefault, OntologyTag: "x"},
	})
	if err != nil {
		t.Fatalf("TopicCreate: %v", err)
	}

	if err := c.NotifyAppend(ctx, topicID, types.NotifyWarning, "rotation slow"); err != nil {
		t.Fatalf("NotifyAppend: %v", err)
	}
	notifies, err := c.NotifyList(ctx, topicID)
	if err != nil {
		t.Fatalf("NotifyList: %v", err)
	}
	if len(notifies) != 1 || notifies[0].Message != "rotation slow" {
		t.Fatalf("notifies = %+v", notifies)
	}

	if err := c.NotifyPurge(ctx, topicID); err != nil {
		t.Fatalf("NotifyPurge: %v", err)
	}
	notifies, err = c.NotifyList(ctx, topicID)
	if err != nil {
		t.Fatalf("NotifyList: %v", err)
	}
	if len(notifies) != 0 {
		t.Fatalf("expected no notifies after purge, got %d", len(notifies))
	}
}
