package writer

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"mosaicod/internal/types"
)

func testSchema() *arrow.Schema {
	return arrow.NewSchema([]arrow.Field{
		{Name: TimestampColumn, Type: arrow.PrimitiveTypes.Int64},
		{Name: "value", Type: arrow.PrimitiveTypes.Float64},
		{Name: "label", Type: arrow.BinaryTypes.String},
	}, nil)
}

func buildRecord(schema *arrow.Schema, timestamps []int64, values []float64, labels []string) arrow.Record {
	b := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer b.Release()

	b.Field(0).(*array.Int64Builder).AppendValues(timestamps, nil)
	b.Field(1).(*array.Float64Builder).AppendValues(values, nil)
	for _, l := range labels {
		b.Field(2).(*array.StringBuilder).Append(l)
	}
	return b.NewRecord()
}

func TestFormatPropertiesVariants(t *testing.T) {
	for _, f := range []types.Format{types.FormatDefault, types.FormatRagged, types.FormatImage} {
		if _, err := NewFormatProperties(f); err != nil {
			t.Errorf("NewFormatProperties(%v): %v", f, err)
		}
	}
}

func TestChunkWriterRejectsMissingTimestampColumn(t *testing.T) {
	schema := arrow.NewSchema([]arrow.Field{{Name: "value", Type: arrow.PrimitiveTypes.Float64}}, nil)
	props, err := NewFormatProperties(types.FormatDefault)
	if err != nil {
		t.Fatalf("NewFormatProperties: %v", err)
	}
	if _, err := NewChunkWriter(schema, props); err == nil {
		t.Fatalf("expected error for schema missing timestamp column")
	}
}

func TestChunkWriterStatsLowerBound(t *testing.T) {
	schema := testSchema()
	props, err := NewFormatProperties(types.FormatDefault)
	if err != nil {
		t.Fatalf("NewFormatProperties: %v", err)
	}
	cw, err := NewChunkWriter(schema, props)
	if err != nil {
		t.Fatalf("NewChunkWriter: %v", err)
	}

	rec := buildRecord(schema, []int64{1, 2, 3}, []float64{5, 1, 9}, []string{"b", "a", "c"})
	defer rec.Release()
	if err := cw.Write(rec); err != nil {
		t.Fatalf("Write: %v", err)
	}

	data, stats, err := cw.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("expected non-empty parquet bytes")
	}

	valueStats := stats.Cols["value"]
	if valueStats.Numeric.Min != 1 || valueStats.Numeric.Max != 9 {
		t.Errorf("value stats = %+v, want min=1 max=9", valueStats.Numeric)
	}
	labelStats := stats.Cols["label"]
	if labelStats.Textual.Min == nil || *labelStats.Textual.Min != "a" {
		t.Errorf("label min = %v, want \"a\"", labelStats.Textual.Min)
	}
}

func TestChunkedWriterRotatesOnSize(t *testing.T) {
	schema := testSchema()
	props, err := NewFormatProperties(types.FormatDefault)
	if err != nil {
		t.Fatalf("NewFormatProperties: %v", err)
	}

	var created []FinalizedChunk
	onChunk := func(c FinalizedChunk) error {
		created = append(created, c)
		return nil
	}

	tiny := int64(1)
	pool := NewEncodePool(2)
	cw, err := NewChunkedWriter(schema, props, &tiny, pool, onChunk)
	if err != nil {
		t.Fatalf("NewChunkedWriter: %v", err)
	}

	for i := 0; i < 3; i++ {
		rec := buildRecord(schema, []int64{int64(i)}, []float64{float64(i)}, []string{"x"})
		if err := cw.Write(rec); err != nil {
			t.Fatalf("Write %d: %v", i, err)
		}
		rec.Release()
	}
	if err := cw.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	if len(created) < 2 {
		t.Fatalf("expected at least 2 rotated chunks for a 1-byte threshold, got %d", len(created))
	}
	var totalRows int64
	for i, c := range created {
		if c.ChunkNumber != i {
			t.Errorf("chunk %d has ChunkNumber %d, want sequential numbering", i, c.ChunkNumber)
		}
		if len(c.Data) == 0 {
			t.Errorf("chunk %d has no data", i)
		}
		totalRows += c.RowCount
	}
	if totalRows != 3 {
		t.Errorf("total rows across chunks = %d, want 3", totalRows)
	}
}

func TestChunkedWriterUnlimitedProducesOneChunk(t *testing.T) {
	schema := testSchema()
	props, err := NewFormatProperties(types.FormatDefault)
	if err != nil {
		t.Fatalf("NewFormatProperties: %v", err)
	}

	var created []FinalizedChunk
	onChunk := func(c FinalizedChunk) error {
		created = append(created, c)
		return nil
	}

	pool := NewEncodePool(1)
	cw, err := NewChunkedWriter(schema, props, nil, pool, onChunk)
	if err != nil {
		t.Fatalf("NewChunkedWriter: %v", err)
	}

	for i := 0; i < 5; i++ {
		rec := buildRecord(schema, []int64{int64(i)}, []float64{float64(i)}, []string{"x"})
		if err := cw.Write(rec); err != nil {
			t.Fatalf("Write %d: %v", i, err)
		}
		rec.Release()
	}
	if err := cw.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	if len(created) != 1 {
		t.Fatalf("expected exactly 1 chunk with unlimited max size, got %d", len(created))
	}
	if created[0].RowCount != 5 {
		t.Errorf("RowCount = %d, want 5", created[0].RowCount)
	}
}

func TestChunkedWriterRejectsWriteAfterFinalize(t *testing.T) {
	schema := testSchema()
	props, err := NewFormatProperties(types.FormatDefault)
	if err != nil {
		t.Fatalf("NewFormatProperties: %v", err)
	}
	pool := NewEncodePool(1)
	cw, err := NewChunkedWriter(schema, props, nil, pool, func(FinalizedChunk) error { return nil })
	if err != nil {
		t.Fatalf("NewChunkedWriter: %v", err)
	}
	if err := cw.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	rec := buildRecord(schema, []int64{1}, []float64{1}, []string{"x"})
	defer rec.Release()
	if err := cw.Write(rec); err == nil {
		t.Fatalf("expected error writing after finalize")
	}
}
