// Package marshal implements the bit-exact wire formats crossing the
// DoPut/GetFlightInfo/DoGet boundary: the JSON command envelopes and the
// length-prefixed binary ticket encoding. These formats are fixed by
// contract with the surrounding Flight service and must not drift.
package marshal

import (
	"encoding/binary"
	"encoding/json"
	"io"

	"mosaicod/internal/types"
)

// DoPutCmd is the first message of a DoPut stream: JSON
// { resource_locator: string, key: string }.
type DoPutCmd struct {
	ResourceLocator string `json:"resource_locator"`
	Key             string `json:"key"`
}

// MarshalDoPutCmd encodes cmd as JSON.
func MarshalDoPutCmd(cmd DoPutCmd) ([]byte, error) {
	data, err := json.Marshal(cmd)
	if err != nil {
		return nil, types.Wrap(types.KindEncoding, "marshal DoPutCmd", err)
	}
	return data, nil
}

// UnmarshalDoPutCmd decodes a DoPutCmd from JSON.
func UnmarshalDoPutCmd(data []byte) (DoPutCmd, error) {
	var cmd DoPutCmd
	if err := json.Unmarshal(data, &cmd); err != nil {
		return DoPutCmd{}, types.Wrap(types.KindEncoding, "unmarshal DoPutCmd", err)
	}
	return cmd, nil
}

// GetFlightInfoCmd is JSON
// { resource_locator, timestamp_ns_start?, timestamp_ns_end? }. The two
// timestamp fields are independently optional.
type GetFlightInfoCmd struct {
	ResourceLocator  string `json:"resource_locator"`
	TimestampNsStart *int64 `json:"timestamp_ns_start,omitempty"`
	TimestampNsEnd   *int64 `json:"timestamp_ns_end,omitempty"`
}

// MarshalGetFlightInfoCmd encodes cmd as JSON.
func MarshalGetFlightInfoCmd(cmd GetFlightInfoCmd) ([]byte, error) {
	data, err := json.Marshal(cmd)
	if err != nil {
		return nil, types.Wrap(types.KindEncoding, "marshal GetFlightInfoCmd", err)
	}
	return data, nil
}

// UnmarshalGetFlightInfoCmd decodes a GetFlightInfoCmd from JSON.
func UnmarshalGetFlightInfoCmd(data []byte) (GetFlightInfoCmd, error) {
	var cmd GetFlightInfoCmd
	if err := json.Unmarshal(data, &cmd); err != nil {
		return GetFlightInfoCmd{}, types.Wrap(types.KindEncoding, "unmarshal GetFlightInfoCmd", err)
	}
	return cmd, nil
}

// TimestampRange converts the cmd's optional bounds into a
// types.TimestampRange, defaulting missing bounds to unbounded.
func (c GetFlightInfoCmd) TimestampRange() types.TimestampRange {
	start := types.TimestampUnboundedNeg
	end := types.TimestampUnboundedPos
	if c.TimestampNsStart != nil {
		start = types.Timestamp(*c.TimestampNsStart)
	}
	if c.TimestampNsEnd != nil {
		end = types.Timestamp(*c.TimestampNsEnd)
	}
	return types.TimestampRange{Start: start, End: end}
}

// TicketTopic is the ticket handed back by GetFlightInfo and round-tripped
// on a subsequent DoGet: { locator: string, timestamp_range_start: i64?,
// timestamp_range_end: i64? }, encoded as a length-prefixed binary
// record (a uint32 little-endian length header, the locator bytes, then
// two optional little-endian int64 fields each preceded by a presence
// byte).
type TicketTopic struct {
	Locator             string
	TimestampRangeStart *int64
	TimestampRangeEnd   *int64
}

// MarshalTicketTopic encodes t as length-prefixed binary.
func MarshalTicketTopic(t TicketTopic) []byte {
	locatorBytes := []byte(t.Locator)

	buf := make([]byte, 0, 4+len(locatorBytes)+2*9)
	var lenHdr [4]byte
	binary.LittleEndian.PutUint32(lenHdr[:], uint32(len(locatorBytes)))
	buf = append(buf, lenHdr[:]...)
	buf = append(buf, locatorBytes...)

	buf = appendOptionalInt64(buf, t.TimestampRangeStart)
	buf = appendOptionalInt64(buf, t.TimestampRangeEnd)
	return buf
}

func appendOptionalInt64(buf []byte, v *int64) []byte {
	if v == nil {
		return append(buf, 0)
	}
	var tail [9]byte
	tail[0] = 1
	binary.LittleEndian.PutUint64(tail[1:], uint64(*v))
	return append(buf, tail[:]...)
}

// UnmarshalTicketTopic decodes a TicketTopic from its length-prefixed
// binary encoding.
func UnmarshalTicketTopic(data []byte) (TicketTopic, error) {
	if len(data) < 4 {
		return TicketTopic{}, types.New(types.KindEncoding, "ticket truncated before locator length header")
	}
	n := binary.LittleEndian.Uint32(data[:4])
	data = data[4:]
	if uint32(len(data)) < n {
		return TicketTopic{}, types.New(types.KindEncoding, "ticket truncated mid-locator")
	}
	locator := string(data[:n])
	data = data[n:]

	start, data, err := readOptionalInt64(data)
	if err != nil {
		return TicketTopic{}, err
	}
	end, data, err := readOptionalInt64(data)
	if err != nil {
		return TicketTopic{}, err
	}
	if len(data) != 0 {
		return TicketTopic{}, types.New(types.KindEncoding, "ticket has trailing bytes")
	}
	return TicketTopic{Locator: locator, TimestampRangeStart: start, TimestampRangeEnd: end}, nil
}

func readOptionalInt64(data []byte) (*int64, []byte, error) {
	if len(data) < 1 {
		return nil, nil, types.New(types.KindEncoding, "ticket truncated before optional-int64 presence byte")
	}
	present := data[0]
	data = data[1:]
	if present == 0 {
		return nil, data, nil
	}
	if len(data) < 8 {
		return nil, nil, types.New(types.KindEncoding, "ticket truncated mid-int64")
	}
	v := int64(binary.LittleEndian.Uint64(data[:8]))
	return &v, data[8:], nil
}

// TopicLocator rebuilds the topic locator this ticket addresses, scoped
// to its timestamp range when either bound is present.
func (t TicketTopic) TopicLocator() types.TopicResourceLocator {
	loc := types.NewTopicLocator(t.Locator)
	if t.TimestampRangeStart == nil && t.TimestampRangeEnd == nil {
		return loc
	}
	r := types.TimestampRange{Start: types.TimestampUnboundedNeg, End: types.TimestampUnboundedPos}
	if t.TimestampRangeStart != nil {
		r.Start = types.Timestamp(*t.TimestampRangeStart)
	}
	if t.TimestampRangeEnd != nil {
		r.End = types.Timestamp(*t.TimestampRangeEnd)
	}
	return loc.WithTimestampRange(r)
}

// WriteTicketTopic writes t's binary encoding to w.
func WriteTicketTopic(w io.Writer, t TicketTopic) error {
	if _, err := w.Write(MarshalTicketTopic(t)); err != nil {
		return types.Wrap(types.KindIO, "write ticket", err)
	}
	return nil
}

// ReadTicketTopic reads a full TicketTopic from r, which must contain
// exactly one encoded ticket and nothing more.
func ReadTicketTopic(r io.Reader) (TicketTopic, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return TicketTopic{}, types.Wrap(types.KindIO, "read ticket", err)
	}
	t, err := UnmarshalTicketTopic(data)
	if err != nil {
		return TicketTopic{}, err
	}
	return t, nil
}

// TopicManifestTimestampWire mirrors the manifest artifact's nested
// timestamp object.
type TopicManifestTimestampWire struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

// TopicManifestWire is the bit-exact JSON shape of the manifest artifact:
// { "timestamp": { "min": i64, "max": i64 } | null }.
type TopicManifestWire struct {
	Timestamp *TopicManifestTimestampWire `json:"timestamp"`
}

// MarshalTopicManifest encodes m as its wire JSON shape.
func MarshalTopicManifest(m types.TopicManifest) ([]byte, error) {
	wire := TopicManifestWire{}
	if m.Timestamp != nil {
		wire.Timestamp = &TopicManifestTimestampWire{
			Min: int64(m.Timestamp.Range.Start),
			Max: int64(m.Timestamp.Range.End),
		}
	}
	data, err := json.Marshal(wire)
	if err != nil {
		return nil, types.Wrap(types.KindEncoding, "marshal TopicManifest", err)
	}
	return data, nil
}

// UnmarshalTopicManifest decodes a TopicManifest from its wire JSON shape.
func UnmarshalTopicManifest(data []byte) (types.TopicManifest, error) {
	var wire TopicManifestWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return types.TopicManifest{}, types.Wrap(types.KindEncoding, "unmarshal TopicManifest", err)
	}
	if wire.Timestamp == nil {
		return types.TopicManifest{}, nil
	}
	return types.TopicManifest{
		Timestamp: &types.TopicManifestTimestamp{
			Range: types.TimestampRange{
				Start: types.Timestamp(wire.Timestamp.Min),
				End:   types.Timestamp(wire.Timestamp.Max),
			},
		},
	}, nil
}
