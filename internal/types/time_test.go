package types

import "testing"

func TestTimestampBounds(t *testing.T) {
	pos := TimestampUnboundedPos
	neg := TimestampUnboundedNeg
	ts := Timestamp(1234567)

	if !pos.IsUnboundedPos() || !pos.IsUnbounded() {
		t.Fatalf("expected +unbounded sentinel to report as unbounded")
	}
	if !neg.IsUnboundedNeg() || !neg.IsUnbounded() {
		t.Fatalf("expected -unbounded sentinel to report as unbounded")
	}
	if ts.IsUnbounded() {
		t.Fatalf("ordinary timestamp reported as unbounded")
	}
}

func TestTimestampRangeUnbounded(t *testing.T) {
	cases := []struct {
		name string
		r    TimestampRange
		want bool
	}{
		{"bounded", Between(10000, 11000), false},
		{"open-right", StartingAt(10000), false},
		{"open-left", EndingAt(11000), false},
		{"neg-to-bounded", Between(TimestampUnboundedNeg, 11000), false},
		{"bounded-to-pos", Between(11000, TimestampUnboundedPos), false},
		{"fully-open", Between(TimestampUnboundedNeg, TimestampUnboundedPos), true},
	}
	for _, c := range cases {
		if got := c.r.IsUnbounded(); got != c.want {
			t.Errorf("%s: IsUnbounded() = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestTimestampRangeEmpty(t *testing.T) {
	if !Between(11000, 10000).IsEmpty() {
		t.Fatalf("start > end must be empty")
	}
	if !Between(11000, TimestampUnboundedNeg).IsEmpty() {
		t.Fatalf("start > -unbounded must be empty")
	}
	if !Between(TimestampUnboundedPos, 1000).IsEmpty() {
		t.Fatalf("+unbounded > anything must be empty")
	}
	if Between(TimestampUnboundedNeg, TimestampUnboundedPos).IsEmpty() {
		t.Fatalf("fully unbounded range must not be empty")
	}
}
