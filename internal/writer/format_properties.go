// Package writer implements the chunked columnar writer: the component
// that turns a stream of Arrow record batches into size-bounded Parquet
// chunk files, tracking per-column statistics as it goes.
package writer

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"mosaicod/internal/types"
)

// TimestampColumn is the well-known name of the per-row event-time
// column every topic's schema carries: the column every range query
// filters on.
const TimestampColumn = "timestamp"

// FormatProperties bundles the Parquet writer properties derived from a
// topic's serialization format (types.Format).
type FormatProperties struct {
	Format           types.Format
	WriterProperties *parquet.WriterProperties
	ArrowProperties  pqarrow.ArrowWriterProperties
}

// NewFormatProperties builds the concrete encoder configuration for one
// of the three format variants named in SPEC_FULL.md §4.1. Each variant
// gets its own options list rather than a shared base, since Ragged and
// Image diverge from Default in more than just compression: dictionary
// encoding is dropped entirely and column statistics are disabled except
// for a page-level override on the timestamp column.
func NewFormatProperties(format types.Format) (*FormatProperties, error) {
	var opts []parquet.WriterProperty
	switch format {
	case types.FormatDefault:
		opts = []parquet.WriterProperty{
			parquet.WithVersion(parquet.V2_LATEST),
		}
	case types.FormatRagged, types.FormatImage:
		opts = []parquet.WriterProperty{
			parquet.WithVersion(parquet.V2_LATEST),
			parquet.WithDataPageVersion(parquet.DataPageV2),
			parquet.WithCompression(compress.Codecs.Zstd),
			parquet.WithCompressionLevel(22),
			parquet.WithCompressionFor(TimestampColumn, compress.Codecs.Uncompressed),
			parquet.WithDictionaryDefault(false),
			parquet.WithStats(false),
			parquet.WithStatsFor(TimestampColumn, true),
		}
	default:
		return nil, types.New(types.KindValidation, "unknown serialization format")
	}

	return &FormatProperties{
		Format:           format,
		WriterProperties: parquet.NewWriterProperties(opts...),
		ArrowProperties:  pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema()),
	}, nil
}

// Extension is shared across every format variant: plain "parquet"
// (without the dot).
func (p *FormatProperties) Extension() string { return "parquet" }

// validateSchema checks the incoming schema carries the mandatory
// timestamp column. Only the column's presence is checked, not its type.
func validateSchema(schema *arrow.Schema) error {
	idx := schema.FieldIndices(TimestampColumn)
	if len(idx) == 0 {
		return types.New(types.KindValidation, "schema missing required \"timestamp\" column")
	}
	return nil
}
