package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"mosaicod/internal/types"
)

const timeFormat = time.RFC3339Nano

// SQLiteCatalog is the Catalog implementation backed by modernc.org/sqlite,
// a pure-Go driver so mosaicod never needs CGO to run the catalog.
type SQLiteCatalog struct {
	db *sql.DB
}

var _ Catalog = (*SQLiteCatalog)(nil)

// Open opens (and migrates) a SQLite catalog database at path.
func Open(path string) (*SQLiteCatalog, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create catalog directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite catalog: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set journal_mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set foreign_keys: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run catalog migrations: %w", err)
	}

	return &SQLiteCatalog{db: db}, nil
}

func (c *SQLiteCatalog) Close() error { return c.db.Close() }

func (c *SQLiteCatalog) SequenceCreate(ctx context.Context, locator types.SequenceResourceLocator, meta types.SequenceMetadata) (types.ResourceID, error) {
	id := uuid.New().String()
	res, err := c.db.ExecContext(ctx, `
		INSERT INTO sequences (uuid, locator, metadata, created_at)
		VALUES (?, ?, ?, ?)
	`, id, locator.Path(), meta.UserMetadata, time.Now().UTC().Format(timeFormat))
	if err != nil {
		return types.ResourceID{}, types.Wrap(types.KindIO, "insert sequence", err)
	}
	rowID, err := res.LastInsertId()
	if err != nil {
		return types.ResourceID{}, types.Wrap(types.KindIO, "read sequence row id", err)
	}
	return types.ResourceID{ID: rowID, UUID: id}, nil
}

func (c *SQLiteCatalog) SequenceLock(ctx context.Context, id types.ResourceID) error {
	res, err := c.db.ExecContext(ctx, "UPDATE sequences SET locked = 1 WHERE id = ?", id.ID)
	if err != nil {
		return types.Wrap(types.KindIO, "lock sequence", err)
	}
	return requireRowAffected(res, types.NotFound(fmt.Sprintf("sequence %d", id.ID)))
}

func (c *SQLiteCatalog) SequenceGetMetadata(ctx context.Context, id types.ResourceID) (types.SequenceMetadata, error) {
	var meta []byte
	err := c.db.QueryRowContext(ctx, "SELECT metadata FROM sequences WHERE id = ?", id.ID).Scan(&meta)
	if errors.Is(err, sql.ErrNoRows) {
		return types.SequenceMetadata{}, types.NotFound(fmt.Sprintf("sequence %d", id.ID))
	}
	if err != nil {
		return types.SequenceMetadata{}, types.Wrap(types.KindIO, "get sequence metadata", err)
	}
	return types.SequenceMetadata{UserMetadata: meta}, nil
}

func (c *SQLiteCatalog) SequenceGetSystemInfo(ctx context.Context, id types.ResourceID) (types.SequenceSystemInfo, error) {
	var locked bool
	var createdAt string
	err := c.db.QueryRowContext(ctx, "SELECT locked, created_at FROM sequences WHERE id = ?", id.ID).Scan(&locked, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return types.SequenceSystemInfo{}, types.NotFound(fmt.Sprintf("sequence %d", id.ID))
	}
	if err != nil {
		return types.SequenceSystemInfo{}, types.Wrap(types.KindIO, "get sequence system info", err)
	}
	created, err := time.Parse(timeFormat, createdAt)
	if err != nil {
		return types.SequenceSystemInfo{}, types.Wrap(types.KindIO, "parse sequence created_at", err)
	}

	var totalSize int64
	var topicCount, lockedTopics int
	err = c.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(c.size_bytes), 0),
		       COUNT(DISTINCT t.id),
		       COUNT(DISTINCT CASE WHEN t.locked = 1 THEN t.id END)
		FROM topics t
		LEFT JOIN chunks c ON c.topic_id = t.id
		WHERE t.sequence_id = ?
	`, id.ID).Scan(&totalSize, &topicCount, &lockedTopics)
	if err != nil {
		return types.SequenceSystemInfo{}, types.Wrap(types.KindIO, "aggregate sequence topics", err)
	}

	allTopicsLocked := topicCount > 0 && topicCount == lockedTopics
	return types.SequenceSystemInfo{
		TotalSizeBytes:   totalSize,
		IsLocked:         locked && allTopicsLocked,
		CreatedTimestamp: created,
	}, nil
}

func (c *SQLiteCatalog) SequenceResolve(ctx context.Context, locator types.SequenceResourceLocator) (types.ResourceID, error) {
	var rowID int64
	var id string
	err := c.db.QueryRowContext(ctx, "SELECT id, uuid FROM sequences WHERE locator = ?", locator.Path()).Scan(&rowID, &id)
	if errors.Is(err, sql.ErrNoRows) {
		return types.ResourceID{}, types.NotFound(fmt.Sprintf("sequence %q", locator.Path()))
	}
	if err != nil {
		return types.ResourceID{}, types.Wrap(types.KindIO, "resolve sequence", err)
	}
	return types.ResourceID{ID: rowID, UUID: id}, nil
}

func (c *SQLiteCatalog) TopicCreate(ctx context.Context, sequenceID types.ResourceID, locator types.TopicResourceLocator, meta types.TopicMetadata) (types.ResourceID, error) {
	var seqLocked bool
	err := c.db.QueryRowContext(ctx, "SELECT locked FROM sequences WHERE id = ?", sequenceID.ID).Scan(&seqLocked)
	if errors.Is(err, sql.ErrNoRows) {
		return types.ResourceID{}, types.NotFound(fmt.Sprintf("sequence %d", sequenceID.ID))
	}
	if err != nil {
		return types.ResourceID{}, types.Wrap(types.KindIO, "get sequence lock state", err)
	}
	if seqLocked {
		return types.ResourceID{}, types.ErrSequenceLocked
	}

	id := uuid.New().String()
	res, err := c.db.ExecContext(ctx, `
		INSERT INTO topics (uuid, sequence_id, locator, serialization_format, ontology_tag, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, id, sequenceID.ID, locator.Path(), int(meta.Properties.SerializationFormat), meta.Properties.OntologyTag,
		meta.UserMetadata, time.Now().UTC().Format(timeFormat))
	if err != nil {
		return types.ResourceID{}, types.Wrap(types.KindIO, "insert topic", err)
	}
	rowID, err := res.LastInsertId()
	if err != nil {
		return types.ResourceID{}, types.Wrap(types.KindIO, "read topic row id", err)
	}
	return types.ResourceID{ID: rowID, UUID: id}, nil
}

func (c *SQLiteCatalog) TopicLock(ctx context.Context, id types.ResourceID) error {
	res, err := c.db.ExecContext(ctx, "UPDATE topics SET locked = 1 WHERE id = ?", id.ID)
	if err != nil {
		return types.Wrap(types.KindIO, "lock topic", err)
	}
	return requireRowAffected(res, types.NotFound(fmt.Sprintf("topic %d", id.ID)))
}

func (c *SQLiteCatalog) TopicGetMetadata(ctx context.Context, id types.ResourceID) (types.TopicMetadata, error) {
	var format int
	var ontologyTag string
	var meta []byte
	err := c.db.QueryRowContext(ctx,
		"SELECT serialization_format, ontology_tag, metadata FROM topics WHERE id = ?", id.ID,
	).Scan(&format, &ontologyTag, &meta)
	if errors.Is(err, sql.ErrNoRows) {
		return types.TopicMetadata{}, types.NotFound(fmt.Sprintf("topic %d", id.ID))
	}
	if err != nil {
		return types.TopicMetadata{}, types.Wrap(types.KindIO, "get topic metadata", err)
	}
	return types.TopicMetadata{
		Properties: types.TopicProperties{
			SerializationFormat: types.Format(format),
			OntologyTag:         ontologyTag,
		},
		UserMetadata: meta,
	}, nil
}

func (c *SQLiteCatalog) TopicGetSystemInfo(ctx context.Context, id types.ResourceID) (types.TopicSystemInfo, error) {
	var locked bool
	var createdAt string
	err := c.db.QueryRowContext(ctx, "SELECT locked, created_at FROM topics WHERE id = ?", id.ID).Scan(&locked, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return types.TopicSystemInfo{}, types.NotFound(fmt.Sprintf("topic %d", id.ID))
	}
	if err != nil {
		return types.TopicSystemInfo{}, types.Wrap(types.KindIO, "get topic system info", err)
	}
	created, err := time.Parse(timeFormat, createdAt)
	if err != nil {
		return types.TopicSystemInfo{}, types.Wrap(types.KindIO, "parse topic created_at", err)
	}

	var chunks int
	var totalSize int64
	err = c.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(size_bytes), 0) FROM chunks WHERE topic_id = ?", id.ID,
	).Scan(&chunks, &totalSize)
	if err != nil {
		return types.TopicSystemInfo{}, types.Wrap(types.KindIO, "aggregate topic chunks", err)
	}

	return types.TopicSystemInfo{
		ChunksNumber:     chunks,
		IsLocked:         locked,
		TotalSizeBytes:   totalSize,
		CreatedTimestamp: created,
	}, nil
}

func (c *SQLiteCatalog) TopicGetStats(ctx context.Context, id types.ResourceID) (types.TopicChunksStats, error) {
	var size, rows int64
	err := c.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(size_bytes), 0), COALESCE(SUM(row_count), 0) FROM chunks WHERE topic_id = ?", id.ID,
	).Scan(&size, &rows)
	if err != nil {
		return types.TopicChunksStats{}, types.Wrap(types.KindIO, "get topic stats", err)
	}
	return types.TopicChunksStats{TotalSizeBytes: size, TotalRowCount: rows}, nil
}

func (c *SQLiteCatalog) TopicResolve(ctx context.Context, locator types.TopicResourceLocator) (types.ResourceID, types.ResourceID, error) {
	var topicRowID, seqRowID int64
	var topicUUID string
	err := c.db.QueryRowContext(ctx,
		"SELECT id, uuid, sequence_id FROM topics WHERE locator = ?", locator.Path(),
	).Scan(&topicRowID, &topicUUID, &seqRowID)
	if errors.Is(err, sql.ErrNoRows) {
		return types.ResourceID{}, types.ResourceID{}, types.NotFound(fmt.Sprintf("topic %q", locator.Path()))
	}
	if err != nil {
		return types.ResourceID{}, types.ResourceID{}, types.Wrap(types.KindIO, "resolve topic", err)
	}
	var seqUUID string
	if err := c.db.QueryRowContext(ctx, "SELECT uuid FROM sequences WHERE id = ?", seqRowID).Scan(&seqUUID); err != nil {
		return types.ResourceID{}, types.ResourceID{}, types.Wrap(types.KindIO, "resolve topic's sequence", err)
	}
	return types.ResourceID{ID: topicRowID, UUID: topicUUID}, types.ResourceID{ID: seqRowID, UUID: seqUUID}, nil
}

func (c *SQLiteCatalog) TopicIsLocked(ctx context.Context, id types.ResourceID) (bool, error) {
	var locked bool
	err := c.db.QueryRowContext(ctx, "SELECT locked FROM topics WHERE id = ?", id.ID).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		return false, types.NotFound(fmt.Sprintf("topic %d", id.ID))
	}
	if err != nil {
		return false, types.Wrap(types.KindIO, "get topic lock state", err)
	}
	return locked, nil
}

// ChunkCommit inserts the chunk row and its per-column stats atomically.
// The caller must have already durably written the chunk's bytes to the
// object store before calling this (I1); ChunkCommit does not touch the
// object store at all.
func (c *SQLiteCatalog) ChunkCommit(ctx context.Context, topicID types.ResourceID, chunk types.Chunk, stats types.OntologyModelStats) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return types.Wrap(types.KindIO, "begin chunk commit", err)
	}
	defer tx.Rollback()

	var nextNo int
	if err := tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(chunk_no) + 1, 0) FROM chunks WHERE topic_id = ?", topicID.ID,
	).Scan(&nextNo); err != nil {
		return types.Wrap(types.KindIO, "compute next chunk number", err)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO chunks (topic_id, chunk_no, datafile, size_bytes, row_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, topicID.ID, nextNo, chunk.Datafile, chunk.SizeBytes, chunk.RowCount, time.Now().UTC().Format(timeFormat))
	if err != nil {
		return types.Wrap(types.KindIO, "insert chunk", err)
	}
	chunkRowID, err := res.LastInsertId()
	if err != nil {
		return types.Wrap(types.KindIO, "read chunk row id", err)
	}

	for name, stat := range stats.Cols {
		if stat.IsUnsupported() {
			continue
		}
		columnID, err := upsertColumn(ctx, tx, topicID.ID, name, stat.Kind)
		if err != nil {
			return err
		}
		switch stat.Kind {
		case types.StatsKindNumeric:
			_, err = tx.ExecContext(ctx, `
				INSERT INTO column_chunk_numeric_stats (chunk_id, column_id, min_value, max_value, has_null, has_nan)
				VALUES (?, ?, ?, ?, ?, ?)
			`, chunkRowID, columnID, stat.Numeric.Min, stat.Numeric.Max, stat.Numeric.HasNull, stat.Numeric.HasNaN)
		case types.StatsKindTextual:
			min, max, hasNull := stat.Textual.IntoOwned()
			_, err = tx.ExecContext(ctx, `
				INSERT INTO column_chunk_textual_stats (chunk_id, column_id, min_value, max_value, has_null)
				VALUES (?, ?, ?, ?, ?)
			`, chunkRowID, columnID, min, max, hasNull)
		}
		if err != nil {
			return types.Wrap(types.KindIO, fmt.Sprintf("insert stats for column %q", name), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return types.Wrap(types.KindIO, "commit chunk", err)
	}
	return nil
}

func upsertColumn(ctx context.Context, tx *sql.Tx, topicID int64, name string, kind types.StatsKind) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx, "SELECT id FROM columns WHERE topic_id = ? AND name = ?", topicID, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		res, err := tx.ExecContext(ctx,
			"INSERT INTO columns (topic_id, name, kind) VALUES (?, ?, ?)", topicID, name, int(kind))
		if err != nil {
			return 0, types.Wrap(types.KindIO, fmt.Sprintf("insert column %q", name), err)
		}
		return res.LastInsertId()
	}
	if err != nil {
		return 0, types.Wrap(types.KindIO, fmt.Sprintf("resolve column %q", name), err)
	}
	return id, nil
}

func (c *SQLiteCatalog) ChunkList(ctx context.Context, topicID types.ResourceID) ([]types.Chunk, error) {
	rows, err := c.db.QueryContext(ctx,
		"SELECT id, chunk_no, datafile, size_bytes, row_count FROM chunks WHERE topic_id = ? ORDER BY chunk_no", topicID.ID)
	if err != nil {
		return nil, types.Wrap(types.KindIO, "list chunks", err)
	}
	defer rows.Close()

	var result []types.Chunk
	for rows.Next() {
		var ch types.Chunk
		var chunkNo int
		if err := rows.Scan(&ch.ChunkID, &chunkNo, &ch.Datafile, &ch.SizeBytes, &ch.RowCount); err != nil {
			return nil, types.Wrap(types.KindIO, "scan chunk", err)
		}
		ch.TopicID = topicID.ID
		result = append(result, ch)
	}
	return result, rows.Err()
}

func (c *SQLiteCatalog) ChunkGetStats(ctx context.Context, chunkID int64) (types.OntologyModelStats, error) {
	model := types.NewOntologyModelStats()

	numRows, err := c.db.QueryContext(ctx, `
		SELECT col.name, s.min_value, s.max_value, s.has_null, s.has_nan
		FROM column_chunk_numeric_stats s JOIN columns col ON col.id = s.column_id
		WHERE s.chunk_id = ?
	`, chunkID)
	if err != nil {
		return model, types.Wrap(types.KindIO, "get numeric chunk stats", err)
	}
	defer numRows.Close()
	for numRows.Next() {
		var name string
		var min, max float64
		var hasNull, hasNaN bool
		if err := numRows.Scan(&name, &min, &max, &hasNull, &hasNaN); err != nil {
			return model, types.Wrap(types.KindIO, "scan numeric chunk stats", err)
		}
		model.Cols[name] = types.Stats{
			Kind:    types.StatsKindNumeric,
			Numeric: types.NumericStats{Min: min, Max: max, HasNull: hasNull, HasNaN: hasNaN},
		}
	}
	if err := numRows.Err(); err != nil {
		return model, types.Wrap(types.KindIO, "iterate numeric chunk stats", err)
	}

	txtRows, err := c.db.QueryContext(ctx, `
		SELECT col.name, s.min_value, s.max_value, s.has_null
		FROM column_chunk_textual_stats s JOIN columns col ON col.id = s.column_id
		WHERE s.chunk_id = ?
	`, chunkID)
	if err != nil {
		return model, types.Wrap(types.KindIO, "get textual chunk stats", err)
	}
	defer txtRows.Close()
	for txtRows.Next() {
		var name, min, max string
		var hasNull bool
		if err := txtRows.Scan(&name, &min, &max, &hasNull); err != nil {
			return model, types.Wrap(types.KindIO, "scan textual chunk stats", err)
		}
		model.Cols[name] = types.Stats{
			Kind:    types.StatsKindTextual,
			Textual: types.TextualStats{Min: &min, Max: &max, HasNull: hasNull},
		}
	}
	return model, txtRows.Err()
}

func (c *SQLiteCatalog) NotifyAppend(ctx context.Context, topicID types.ResourceID, typ types.NotifyType, message string) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO topic_notifies (topic_id, type, message, created_at)
		VALUES (?, ?, ?, ?)
	`, topicID.ID, int(typ), message, time.Now().UTC().Format(timeFormat))
	if err != nil {
		return types.Wrap(types.KindIO, "append notify", err)
	}
	return nil
}

func (c *SQLiteCatalog) NotifyList(ctx context.Context, topicID types.ResourceID) ([]types.Notify, error) {
	rows, err := c.db.QueryContext(ctx,
		"SELECT id, type, message, created_at FROM topic_notifies WHERE topic_id = ? ORDER BY id", topicID.ID)
	if err != nil {
		return nil, types.Wrap(types.KindIO, "list notifies", err)
	}
	defer rows.Close()

	var result []types.Notify
	for rows.Next() {
		var n types.Notify
		var typ int
		var createdAt string
		if err := rows.Scan(&n.ID, &typ, &n.Message, &createdAt); err != nil {
			return nil, types.Wrap(types.KindIO, "scan notify", err)
		}
		n.Type = types.NotifyType(typ)
		created, err := time.Parse(timeFormat, createdAt)
		if err != nil {
			return nil, types.Wrap(types.KindIO, "parse notify created_at", err)
		}
		n.CreatedAt = created
		result = append(result, n)
	}
	return result, rows.Err()
}

func (c *SQLiteCatalog) NotifyPurge(ctx context.Context, topicID types.ResourceID) error {
	_, err := c.db.ExecContext(ctx, "DELETE FROM topic_notifies WHERE topic_id = ?", topicID.ID)
	if err != nil {
		return types.Wrap(types.KindIO, "purge notifies", err)
	}
	return nil
}

func requireRowAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return types.Wrap(types.KindIO, "read rows affected", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
