package writer

import (
	"bytes"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/pingcap/errors"

	"mosaicod/internal/types"
)

// ChunkWriter accumulates record batches into a single in-memory Parquet
// chunk file, tracking its growing size and per-column statistics. It has
// no knowledge of rotation: ChunkedWriter decides when to finalize one and
// open the next.
type ChunkWriter struct {
	props  *FormatProperties
	schema *arrow.Schema
	buf    *bytes.Buffer
	fw     *pqarrow.FileWriter
	stats  *StatsAggregator
	rows   int64
}

// NewChunkWriter opens a chunk for the given schema and format variant.
func NewChunkWriter(schema *arrow.Schema, props *FormatProperties) (*ChunkWriter, error) {
	if err := validateSchema(schema); err != nil {
		return nil, err
	}

	buf := &bytes.Buffer{}
	fw, err := pqarrow.NewFileWriter(schema, buf, props.WriterProperties, props.ArrowProperties)
	if err != nil {
		return nil, types.Wrap(types.KindEncoding, "open parquet chunk writer", err)
	}

	return &ChunkWriter{
		props:  props,
		schema: schema,
		buf:    buf,
		fw:     fw,
		stats:  NewStatsAggregator(),
	}, nil
}

// Write encodes one record batch into the chunk and folds its columns
// into the running statistics. The caller is expected to have already
// offloaded this call onto the encode pool (see EncodePool).
func (c *ChunkWriter) Write(rec arrow.Record) error {
	if !rec.Schema().Equal(c.schema) {
		return types.New(types.KindValidation, "record schema does not match chunk schema")
	}
	if err := c.fw.Write(rec); err != nil {
		return types.Wrap(types.KindEncoding, "write record batch to chunk", errors.Trace(err))
	}
	c.stats.Observe(rec)
	c.rows += rec.NumRows()
	return nil
}

// MemorySize reports the number of bytes buffered so far: the signal
// ChunkedWriter polls to decide whether to rotate to a new chunk.
func (c *ChunkWriter) MemorySize() int64 {
	return int64(c.buf.Len())
}

// RowCount reports the number of rows written into this chunk so far.
func (c *ChunkWriter) RowCount() int64 {
	return c.rows
}

// Finalize closes the Parquet footer and returns the encoded bytes plus
// the accumulated per-column statistics. The ChunkWriter must not be
// used again afterwards.
func (c *ChunkWriter) Finalize() ([]byte, types.OntologyModelStats, error) {
	if err := c.fw.Close(); err != nil {
		return nil, types.OntologyModelStats{}, types.Wrap(types.KindEncoding, "close parquet chunk", errors.Trace(err))
	}
	return c.buf.Bytes(), c.stats.Finish(), nil
}
