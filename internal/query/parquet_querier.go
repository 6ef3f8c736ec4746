package query

import (
	"bytes"
	"context"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"mosaicod/internal/store"
	"mosaicod/internal/types"
	"mosaicod/internal/writer"
)

// ParquetQuerier reads finalized chunks back from an ObjectStore.
type ParquetQuerier struct {
	store store.ObjectStore
}

var _ TimeseriesQuerier = (*ParquetQuerier)(nil)

// NewParquetQuerier returns a querier reading chunk artifacts from s.
func NewParquetQuerier(s store.ObjectStore) *ParquetQuerier {
	return &ParquetQuerier{store: s}
}

func (q *ParquetQuerier) openTable(ctx context.Context, h Handle) (arrow.Table, error) {
	data, err := q.store.ReadBytes(ctx, h.Datafile)
	if err != nil {
		return nil, types.Wrap(types.KindIO, "read chunk artifact", err)
	}
	rdr, err := file.NewParquetReader(bytes.NewReader(data))
	if err != nil {
		return nil, types.Wrap(types.KindEncoding, "open parquet chunk reader", err)
	}
	fr, err := pqarrow.NewFileReader(rdr, pqarrow.ArrowReadProperties{}, memory.DefaultAllocator)
	if err != nil {
		return nil, types.Wrap(types.KindEncoding, "open arrow chunk reader", err)
	}
	table, err := fr.ReadTable(ctx)
	if err != nil {
		return nil, types.Wrap(types.KindEncoding, "read chunk table", err)
	}
	return table, nil
}

// TimestampRange scans the timestamp column of every handle's chunk and
// returns the overall observed bounds.
func (q *ParquetQuerier) TimestampRange(ctx context.Context, handles []Handle) (types.TimestampRange, error) {
	if len(handles) == 0 {
		return types.TimestampRange{}, types.MissingData("no chunks to compute timestamp range from")
	}

	start := int64(types.TimestampUnboundedPos)
	end := int64(types.TimestampUnboundedNeg)
	seen := false

	for _, h := range handles {
		table, err := q.openTable(ctx, h)
		if err != nil {
			return types.TimestampRange{}, err
		}
		min, max, ok, err := timestampBounds(table)
		table.Release()
		if err != nil {
			return types.TimestampRange{}, err
		}
		if !ok {
			continue
		}
		seen = true
		if min < start {
			start = min
		}
		if max > end {
			end = max
		}
	}

	if !seen {
		return types.TimestampRange{}, types.MissingData("no timestamp values observed across chunks")
	}
	return types.TimestampRange{Start: types.Timestamp(start), End: types.Timestamp(end)}, nil
}

func timestampBounds(table arrow.Table) (min, max int64, ok bool, err error) {
	idx := table.Schema().FieldIndices(writer.TimestampColumn)
	if len(idx) == 0 {
		return 0, 0, false, types.New(types.KindValidation, "chunk missing timestamp column")
	}
	col := table.Column(idx[0])

	min = int64(types.TimestampUnboundedPos)
	max = int64(types.TimestampUnboundedNeg)
	for _, chunk := range col.Data().Chunks() {
		arr, isInt := chunk.(*array.Int64)
		if !isInt {
			return 0, 0, false, types.New(types.KindValidation, "timestamp column is not int64")
		}
		for i := 0; i < arr.Len(); i++ {
			if arr.IsNull(i) {
				continue
			}
			v := arr.Value(i)
			ok = true
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
	}
	return min, max, ok, nil
}

// ReadRange streams every record batch of every handle, in handle order.
// r is not applied: chunks and batches outside it are yielded too, and
// filtering is left to the caller. This keeps the read path a straight
// decode-and-forward, matching the rest of the write path's preference
// for explicit, inspectable stages over a query planner.
func (q *ParquetQuerier) ReadRange(ctx context.Context, handles []Handle, r types.TimestampRange, yield func(arrow.Record) error) error {
	for _, h := range handles {
		table, err := q.openTable(ctx, h)
		if err != nil {
			return err
		}
		tr := array.NewTableReader(table, 0)
		for tr.Next() {
			if err := yield(tr.Record()); err != nil {
				tr.Release()
				table.Release()
				return err
			}
		}
		tr.Release()
		table.Release()
	}
	return nil
}
