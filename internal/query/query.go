// Package query implements the read-side surface over finalized Parquet
// chunks: computing a topic's observed timestamp bounds and streaming
// back record batches for a ticketed DoGet/GetFlightInfo request.
package query

import (
	"context"

	"github.com/apache/arrow-go/v18/arrow"

	"mosaicod/internal/types"
)

// Handle identifies one finalized chunk a querier can open for reading.
type Handle struct {
	ChunkID  int64
	Datafile string
}

// TimeseriesQuerier reads back finalized chunk data for one topic.
type TimeseriesQuerier interface {
	// TimestampRange computes the observed [start, end] closed timestamp
	// bounds across every chunk handle, used to populate TopicManifest
	// after finalize. Returns types.MissingData if handles is empty.
	TimestampRange(ctx context.Context, handles []Handle) (types.TimestampRange, error)
	// ReadRange streams record batches across handles, in chunk order,
	// invoking yield for each batch read. ParquetQuerier does not apply
	// r: it yields every batch of every handle.
	ReadRange(ctx context.Context, handles []Handle, r types.TimestampRange, yield func(arrow.Record) error) error
}
