package types

import (
	"fmt"
	"math"
)

// Timestamp is a nanosecond-precision Unix epoch timestamp. The two
// extreme int64 values are reserved sentinels denoting unbounded ranges.
type Timestamp int64

const (
	// TimestampUnboundedPos represents +infinity.
	TimestampUnboundedPos Timestamp = math.MaxInt64
	// TimestampUnboundedNeg represents -infinity.
	TimestampUnboundedNeg Timestamp = math.MinInt64
)

func (t Timestamp) IsUnboundedPos() bool { return t == TimestampUnboundedPos }
func (t Timestamp) IsUnboundedNeg() bool { return t == TimestampUnboundedNeg }
func (t Timestamp) IsUnbounded() bool    { return t.IsUnboundedPos() || t.IsUnboundedNeg() }

func (t Timestamp) String() string {
	switch {
	case t.IsUnboundedPos():
		return "+unbounded"
	case t.IsUnboundedNeg():
		return "-unbounded"
	default:
		return fmt.Sprintf("%d", int64(t))
	}
}

// TimestampRange is the closed interval [Start, End].
type TimestampRange struct {
	Start Timestamp
	End   Timestamp
}

// Between builds the range [start, end].
func Between(start, end Timestamp) TimestampRange {
	return TimestampRange{Start: start, End: end}
}

// StartingAt builds a range open on the right: [start, +unbounded].
func StartingAt(start Timestamp) TimestampRange {
	return TimestampRange{Start: start, End: TimestampUnboundedPos}
}

// EndingAt builds a range open on the left: [-unbounded, end].
func EndingAt(end Timestamp) TimestampRange {
	return TimestampRange{Start: TimestampUnboundedNeg, End: end}
}

// IsUnbounded reports whether both endpoints are sentinels.
func (r TimestampRange) IsUnbounded() bool {
	return r.Start.IsUnbounded() && r.End.IsUnbounded()
}

// IsEmpty reports whether the range is empty, i.e. Start >= End.
func (r TimestampRange) IsEmpty() bool {
	return r.Start >= r.End
}

func (r TimestampRange) String() string {
	return fmt.Sprintf("%s -> %s", r.Start, r.End)
}
