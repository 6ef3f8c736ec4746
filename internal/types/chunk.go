package types

import "math"

// numericMinPlaceholder / numericMaxPlaceholder are the sentinel initial
// values for NumericStats: the first non-NaN value observed always wins
// both bounds. Readers must treat a chunk where both sentinels survive
// unchanged as "no bounds information available", not as a real range.
const (
	numericMinPlaceholder = math.MaxFloat64
	numericMaxPlaceholder = -math.MaxFloat64
)

// Chunk is one immutable columnar file belonging to exactly one topic.
type Chunk struct {
	ChunkID   int64
	TopicID   int64
	Datafile  string
	SizeBytes int64
	RowCount  int64
}

// StatsKind discriminates the three possible Stats payloads.
type StatsKind int

const (
	StatsKindNumeric StatsKind = iota
	StatsKindTextual
	StatsKindUnsupported
)

// Stats is a per-column, per-chunk statistics payload. Exactly one of
// Numeric/Textual is meaningful, selected by Kind; columns whose Arrow
// type is neither numeric nor textual carry StatsKindUnsupported and are
// ignored during catalog inserts.
type Stats struct {
	Kind    StatsKind
	Numeric NumericStats
	Textual TextualStats
}

func (s Stats) IsUnsupported() bool { return s.Kind == StatsKindUnsupported }

// NumericStats tracks (min, max, has_null, has_nan) across every batch
// written to a chunk for one numeric column.
type NumericStats struct {
	Min     float64
	Max     float64
	HasNull bool
	HasNaN  bool
}

// NewNumericStats returns a NumericStats primed with sentinel bounds.
func NewNumericStats() NumericStats {
	return NumericStats{Min: numericMinPlaceholder, Max: numericMaxPlaceholder}
}

// Eval folds a single observed value (nil meaning null) into the stats.
func (s *NumericStats) Eval(val *float64) {
	if val == nil {
		s.HasNull = true
		return
	}
	v := *val
	if math.IsNaN(v) {
		s.HasNaN = true
		return
	}
	if v < s.Min {
		s.Min = v
	}
	if v > s.Max {
		s.Max = v
	}
}

// Merge bulk-updates the stats from a precomputed columnar source, e.g.
// an Arrow array's own min/max/null/nan metadata.
func (s *NumericStats) Merge(min, max *float64, hasNull, hasNaN bool) {
	if min != nil && *min < s.Min {
		s.Min = *min
	}
	if max != nil && *max > s.Max {
		s.Max = *max
	}
	s.HasNull = s.HasNull || hasNull
	s.HasNaN = s.HasNaN || hasNaN
}

// TextualStats tracks lexicographic (min, max, has_null) for one textual
// column. An empty string is a valid value distinct from null.
type TextualStats struct {
	Min     *string
	Max     *string
	HasNull bool
}

func NewTextualStats() TextualStats {
	return TextualStats{}
}

// Eval folds a single observed value (nil meaning null) into the stats.
func (s *TextualStats) Eval(val *string) {
	if val == nil {
		s.HasNull = true
		return
	}
	v := *val
	if s.Min == nil || v <= *s.Min {
		s.Min = &v
	}
	if s.Max == nil || v >= *s.Max {
		s.Max = &v
	}
}

// Merge bulk-updates the stats from a precomputed columnar source.
func (s *TextualStats) Merge(min, max *string, hasNull bool) {
	if min != nil && (s.Min == nil || *min <= *s.Min) {
		s.Min = min
	}
	if max != nil && (s.Max == nil || *max >= *s.Max) {
		s.Max = max
	}
	s.HasNull = s.HasNull || hasNull
}

// IntoOwned returns (min, max, has_null) with unset bounds defaulting to
// the empty string, for catalog persistence.
func (s TextualStats) IntoOwned() (string, string, bool) {
	min, max := "", ""
	if s.Min != nil {
		min = *s.Min
	}
	if s.Max != nil {
		max = *s.Max
	}
	return min, max, s.HasNull
}

// OntologyModelStats aggregates, per field name, the Stats observed
// across every record batch written to the current chunk.
type OntologyModelStats struct {
	Cols map[string]Stats
}

func NewOntologyModelStats() OntologyModelStats {
	return OntologyModelStats{Cols: make(map[string]Stats)}
}
