// Package ingest implements the DoPut-to-core boundary: the one piece of
// the surrounding Flight RPC surface this module specifies. Everything
// else about DoAction/GetFlightInfo/DoGet/ListFlights dispatch is an
// external collaborator's concern.
package ingest

import (
	"context"

	"github.com/apache/arrow-go/v18/arrow"

	"mosaicod/internal/facade"
	"mosaicod/internal/types"
	"mosaicod/internal/writer"
)

// Message is one decoded item off a DoPut stream. Exactly one of Schema
// or Batch is set.
type Message struct {
	Schema *arrow.Schema
	Batch  arrow.Record
}

// DoPut drives one DoPut stream to completion against facade: the first
// message's Schema opens the write session (after validating key against
// the topic's UUID), every subsequent message must carry a Batch, and
// stream end triggers Finalize. maxChunkSize and pool are passed through
// to the underlying ChunkedWriter.
func DoPut(
	ctx context.Context,
	f *facade.TopicWriteFacade,
	locator types.TopicResourceLocator,
	sequenceLocator types.SequenceResourceLocator,
	key string,
	topicID types.ResourceID,
	maxChunkSize *int64,
	pool *writer.EncodePool,
	messages <-chan Message,
) error {
	if !locator.IsSubResource(sequenceLocator) {
		return types.ErrUnauthorized
	}
	if key != topicID.UUID {
		return types.ErrBadKey
	}

	first, ok := <-messages
	if !ok {
		return types.ErrProtocolViolation
	}
	if first.Schema == nil {
		return types.ErrProtocolViolation
	}

	w, err := f.Writer(ctx, first.Schema, maxChunkSize, pool)
	if err != nil {
		return err
	}

	for msg := range messages {
		if msg.Schema != nil {
			return types.ErrProtocolViolation
		}
		if msg.Batch == nil {
			return types.ErrProtocolViolation
		}
		if err := w.Write(msg.Batch); err != nil {
			return err
		}
	}

	return w.Finalize(ctx)
}
