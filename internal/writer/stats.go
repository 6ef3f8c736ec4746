package writer

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"mosaicod/internal/types"
)

// StatsAggregator folds successive record batches into a running
// per-column OntologyModelStats for the chunk currently being written.
type StatsAggregator struct {
	model types.OntologyModelStats
}

// NewStatsAggregator returns an aggregator with no columns observed yet.
func NewStatsAggregator() *StatsAggregator {
	return &StatsAggregator{model: types.NewOntologyModelStats()}
}

// Observe folds one record batch's columns into the running stats.
func (a *StatsAggregator) Observe(rec arrow.Record) {
	schema := rec.Schema()
	for i, field := range schema.Fields() {
		col := rec.Column(i)
		existing, ok := a.model.Cols[field.Name]
		stats := observeColumn(col, existing, ok)
		a.model.Cols[field.Name] = stats
	}
}

// Finish returns the accumulated stats, ready for catalog persistence.
func (a *StatsAggregator) Finish() types.OntologyModelStats {
	return a.model
}

func observeColumn(col arrow.Array, existing types.Stats, hadExisting bool) types.Stats {
	switch arr := col.(type) {
	case *array.Int8:
		return evalNumeric(existing, hadExisting, arr.Len(), arr.IsNull, func(i int) float64 { return float64(arr.Value(i)) })
	case *array.Int16:
		return evalNumeric(existing, hadExisting, arr.Len(), arr.IsNull, func(i int) float64 { return float64(arr.Value(i)) })
	case *array.Int32:
		return evalNumeric(existing, hadExisting, arr.Len(), arr.IsNull, func(i int) float64 { return float64(arr.Value(i)) })
	case *array.Int64:
		return evalNumeric(existing, hadExisting, arr.Len(), arr.IsNull, func(i int) float64 { return float64(arr.Value(i)) })
	case *array.Uint8:
		return evalNumeric(existing, hadExisting, arr.Len(), arr.IsNull, func(i int) float64 { return float64(arr.Value(i)) })
	case *array.Uint16:
		return evalNumeric(existing, hadExisting, arr.Len(), arr.IsNull, func(i int) float64 { return float64(arr.Value(i)) })
	case *array.Uint32:
		return evalNumeric(existing, hadExisting, arr.Len(), arr.IsNull, func(i int) float64 { return float64(arr.Value(i)) })
	case *array.Uint64:
		return evalNumeric(existing, hadExisting, arr.Len(), arr.IsNull, func(i int) float64 { return float64(arr.Value(i)) })
	case *array.Float32:
		return evalNumeric(existing, hadExisting, arr.Len(), arr.IsNull, func(i int) float64 { return float64(arr.Value(i)) })
	case *array.Float64:
		return evalNumeric(existing, hadExisting, arr.Len(), arr.IsNull, func(i int) float64 { return arr.Value(i) })
	case *array.Timestamp:
		return evalNumeric(existing, hadExisting, arr.Len(), arr.IsNull, func(i int) float64 { return float64(arr.Value(i)) })
	case *array.String:
		return evalTextual(existing, hadExisting, arr.Len(), arr.IsNull, arr.Value)
	case *array.LargeString:
		return evalTextual(existing, hadExisting, arr.Len(), arr.IsNull, arr.Value)
	case *array.Binary:
		return evalTextual(existing, hadExisting, arr.Len(), arr.IsNull, func(i int) string { return string(arr.Value(i)) })
	default:
		if hadExisting {
			return existing
		}
		return types.Stats{Kind: types.StatsKindUnsupported}
	}
}

func evalNumeric(existing types.Stats, hadExisting bool, n int, isNull func(int) bool, value func(int) float64) types.Stats {
	stats := existing
	if !hadExisting {
		stats = types.Stats{Kind: types.StatsKindNumeric, Numeric: types.NewNumericStats()}
	}
	for i := 0; i < n; i++ {
		if isNull(i) {
			stats.Numeric.Eval(nil)
			continue
		}
		v := value(i)
		stats.Numeric.Eval(&v)
	}
	return stats
}

func evalTextual(existing types.Stats, hadExisting bool, n int, isNull func(int) bool, value func(int) string) types.Stats {
	stats := existing
	if !hadExisting {
		stats = types.Stats{Kind: types.StatsKindTextual, Textual: types.NewTextualStats()}
	}
	for i := 0; i < n; i++ {
		if isNull(i) {
			stats.Textual.Eval(nil)
			continue
		}
		v := value(i)
		stats.Textual.Eval(&v)
	}
	return stats
}
