package marshal

import (
	"bytes"
	"testing"

	"mosaicod/internal/types"
)

func TestDoPutCmdRoundtrip(t *testing.T) {
	cmd := DoPutCmd{ResourceLocator: "seq1/topic1", Key: "bad-uuid"}
	data, err := MarshalDoPutCmd(cmd)
	if err != nil {
		t.Fatalf("MarshalDoPutCmd: %v", err)
	}
	want := `{"resource_locator":"seq1/topic1","key":"bad-uuid"}`
	if string(data) != want {
		t.Fatalf("got %s, want %s", data, want)
	}
	got, err := UnmarshalDoPutCmd(data)
	if err != nil {
		t.Fatalf("UnmarshalDoPutCmd: %v", err)
	}
	if got != cmd {
		t.Fatalf("got %+v, want %+v", got, cmd)
	}
}

func TestGetFlightInfoCmdOptionalBounds(t *testing.T) {
	cmd := GetFlightInfoCmd{ResourceLocator: "seq1/topic1"}
	data, err := MarshalGetFlightInfoCmd(cmd)
	if err != nil {
		t.Fatalf("MarshalGetFlightInfoCmd: %v", err)
	}
	want := `{"resource_locator":"seq1/topic1"}`
	if string(data) != want {
		t.Fatalf("got %s, want %s (optional fields must be omitted)", data, want)
	}

	r := cmd.TimestampRange()
	if !r.IsUnbounded() {
		t.Fatalf("range with no bounds set should be unbounded, got %v", r)
	}

	start := int64(10)
	end := int64(20)
	cmd2 := GetFlightInfoCmd{ResourceLocator: "seq1/topic1", TimestampNsStart: &start, TimestampNsEnd: &end}
	r2 := cmd2.TimestampRange()
	if r2.Start != types.Timestamp(10) || r2.End != types.Timestamp(20) {
		t.Fatalf("got %v, want [10, 20]", r2)
	}
}

func TestTicketTopicRoundtripBothBounds(t *testing.T) {
	start := int64(100)
	end := int64(200)
	ticket := TicketTopic{Locator: "seq1/topic1", TimestampRangeStart: &start, TimestampRangeEnd: &end}

	data := MarshalTicketTopic(ticket)
	got, err := UnmarshalTicketTopic(data)
	if err != nil {
		t.Fatalf("UnmarshalTicketTopic: %v", err)
	}
	if got.Locator != ticket.Locator {
		t.Fatalf("Locator = %q, want %q", got.Locator, ticket.Locator)
	}
	if got.TimestampRangeStart == nil || *got.TimestampRangeStart != start {
		t.Fatalf("TimestampRangeStart = %v, want %d", got.TimestampRangeStart, start)
	}
	if got.TimestampRangeEnd == nil || *got.TimestampRangeEnd != end {
		t.Fatalf("TimestampRangeEnd = %v, want %d", got.TimestampRangeEnd, end)
	}
}

func TestTicketTopicRoundtripNoBounds(t *testing.T) {
	ticket := TicketTopic{Locator: "seq1/topic1"}
	data := MarshalTicketTopic(ticket)
	got, err := UnmarshalTicketTopic(data)
	if err != nil {
		t.Fatalf("UnmarshalTicketTopic: %v", err)
	}
	if got.TimestampRangeStart != nil || got.TimestampRangeEnd != nil {
		t.Fatalf("got %+v, want both bounds nil", got)
	}

	loc := got.TopicLocator()
	if loc.TimestampRange != nil {
		t.Fatalf("locator should not carry a timestamp range when the ticket has none")
	}
}

func TestTicketTopicWriteRead(t *testing.T) {
	start := int64(5)
	ticket := TicketTopic{Locator: "s/t", TimestampRangeStart: &start}

	var buf bytes.Buffer
	if err := WriteTicketTopic(&buf, ticket); err != nil {
		t.Fatalf("WriteTicketTopic: %v", err)
	}
	got, err := ReadTicketTopic(&buf)
	if err != nil {
		t.Fatalf("ReadTicketTopic: %v", err)
	}
	if got.Locator != ticket.Locator || got.TimestampRangeStart == nil || *got.TimestampRangeStart != start {
		t.Fatalf("got %+v, want %+v", got, ticket)
	}
}

func TestUnmarshalTicketTopicRejectsTruncated(t *testing.T) {
	if _, err := UnmarshalTicketTopic([]byte{1, 2}); err == nil {
		t.Fatalf("expected an error for a ticket truncated before its length header")
	}
}

func TestTopicManifestRoundtripWithData(t *testing.T) {
	m := types.TopicManifest{
		Timestamp: &types.TopicManifestTimestamp{
			Range: types.TimestampRange{Start: 10, End: 20},
		},
	}
	data, err := MarshalTopicManifest(m)
	if err != nil {
		t.Fatalf("MarshalTopicManifest: %v", err)
	}
	want := `{"timestamp":{"min":10,"max":20}}`
	if string(data) != want {
		t.Fatalf("got %s, want %s", data, want)
	}
	got, err := UnmarshalTopicManifest(data)
	if err != nil {
		t.Fatalf("UnmarshalTopicManifest: %v", err)
	}
	if got.Timestamp == nil || got.Timestamp.Range != m.Timestamp.Range {
		t.Fatalf("got %+v, want %+v", got, m)
	}
}

func TestTopicManifestRoundtripEmpty(t *testing.T) {
	data, err := MarshalTopicManifest(types.TopicManifest{})
	if err != nil {
		t.Fatalf("MarshalTopicManifest: %v", err)
	}
	want := `{"timestamp":null}`
	if string(data) != want {
		t.Fatalf("got %s, want %s", data, want)
	}
	got, err := UnmarshalTopicManifest(data)
	if err != nil {
		t.Fatalf("UnmarshalTopicManifest: %v", err)
	}
	if got.Timestamp != nil {
		t.Fatalf("got %+v, want a nil Timestamp", got)
	}
}
