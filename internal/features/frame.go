package features

import (
	"strconv"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/gorilla"

	pipeerr "github.com/smartcity/trafficast/internal/errors"
)

// Helpers for moving column data between gorilla DataFrames and plain Go
// slices. Per-row operations (date parsing, log1p, one-hot fit/transform,
// splits) materialize through these rather than the expression engine, so the
// exact semantics stay in one place.

func alloc() memory.Allocator {
	return memory.NewGoAllocator()
}

// requireColumns fails fast with a MissingColumn error for the first
// configured column absent from the frame.
func requireColumns(op string, df *gorilla.DataFrame, names ...string) error {
	for _, name := range names {
		if !df.HasColumn(name) {
			return pipeerr.NewMissingColumn(op, name)
		}
	}
	return nil
}

// numericValues returns a column as float64 values. Integer and float columns
// are accepted; anything else is an InvalidType error.
func numericValues(op string, df *gorilla.DataFrame, name string) ([]float64, error) {
	col, ok := df.Column(name)
	if !ok {
		return nil, pipeerr.NewMissingColumn(op, name)
	}
	raw := col.Array()
	defer raw.Release()
	switch arr := raw.(type) {
	case *array.Float64:
		out := make([]float64, arr.Len())
		for i := 0; i < arr.Len(); i++ {
			out[i] = arr.Value(i)
		}
		return out, nil
	case *array.Float32:
		out := make([]float64, arr.Len())
		for i := 0; i < arr.Len(); i++ {
			out[i] = float64(arr.Value(i))
		}
		return out, nil
	case *array.Int64:
		out := make([]float64, arr.Len())
		for i := 0; i < arr.Len(); i++ {
			out[i] = float64(arr.Value(i))
		}
		return out, nil
	case *array.Int32:
		out := make([]float64, arr.Len())
		for i := 0; i < arr.Len(); i++ {
			out[i] = float64(arr.Value(i))
		}
		return out, nil
	default:
		return nil, pipeerr.NewInvalidType(op, name, "numeric column required, got "+col.DataType().String())
	}
}

// stringValues returns a string column's values.
func stringValues(op string, df *gorilla.DataFrame, name string) ([]string, error) {
	col, ok := df.Column(name)
	if !ok {
		return nil, pipeerr.NewMissingColumn(op, name)
	}
	raw := col.Array()
	defer raw.Release()
	arr, ok := raw.(*array.String)
	if !ok {
		return nil, pipeerr.NewInvalidType(op, name, "string column required, got "+col.DataType().String())
	}
	out := make([]string, arr.Len())
	for i := 0; i < arr.Len(); i++ {
		out[i] = arr.Value(i)
	}
	return out, nil
}

// categoryStrings renders a column's values as category labels. String
// columns pass through; integer columns format without a decimal point so a
// month fitted from a batch int column and one built from a user record agree
// on the label.
func categoryStrings(op string, df *gorilla.DataFrame, name string) ([]string, error) {
	col, ok := df.Column(name)
	if !ok {
		return nil, pipeerr.NewMissingColumn(op, name)
	}
	raw := col.Array()
	defer raw.Release()
	switch arr := raw.(type) {
	case *array.String:
		out := make([]string, arr.Len())
		for i := 0; i < arr.Len(); i++ {
			out[i] = arr.Value(i)
		}
		return out, nil
	case *array.Int64:
		out := make([]string, arr.Len())
		for i := 0; i < arr.Len(); i++ {
			out[i] = strconv.FormatInt(arr.Value(i), 10)
		}
		return out, nil
	case *array.Int32:
		out := make([]string, arr.Len())
		for i := 0; i < arr.Len(); i++ {
			out[i] = strconv.FormatInt(int64(arr.Value(i)), 10)
		}
		return out, nil
	case *array.Float64:
		out := make([]string, arr.Len())
		for i := 0; i < arr.Len(); i++ {
			out[i] = strconv.FormatFloat(arr.Value(i), 'g', -1, 64)
		}
		return out, nil
	default:
		return nil, pipeerr.NewInvalidType(op, name, "categorical column required, got "+col.DataType().String())
	}
}

// takeRows rebuilds a frame keeping only the given row indices, in the given
// order. Column order is preserved.
func takeRows(df *gorilla.DataFrame, indices []int) *gorilla.DataFrame {
	mem := alloc()
	columns := make([]gorilla.ISeries, 0, df.Width())
	for _, name := range df.Columns() {
		col, _ := df.Column(name)
		raw := col.Array()
		switch arr := raw.(type) {
		case *array.String:
			vals := make([]string, len(indices))
			for i, idx := range indices {
				vals[i] = arr.Value(idx)
			}
			columns = append(columns, gorilla.NewSeries(name, vals, mem))
		case *array.Int64:
			vals := make([]int64, len(indices))
			for i, idx := range indices {
				vals[i] = arr.Value(idx)
			}
			columns = append(columns, gorilla.NewSeries(name, vals, mem))
		case *array.Int32:
			vals := make([]int32, len(indices))
			for i, idx := range indices {
				vals[i] = arr.Value(idx)
			}
			columns = append(columns, gorilla.NewSeries(name, vals, mem))
		case *array.Float64:
			vals := make([]float64, len(indices))
			for i, idx := range indices {
				vals[i] = arr.Value(idx)
			}
			columns = append(columns, gorilla.NewSeries(name, vals, mem))
		case *array.Float32:
			vals := make([]float32, len(indices))
			for i, idx := range indices {
				vals[i] = arr.Value(idx)
			}
			columns = append(columns, gorilla.NewSeries(name, vals, mem))
		case *array.Boolean:
			vals := make([]bool, len(indices))
			for i, idx := range indices {
				vals[i] = arr.Value(idx)
			}
			columns = append(columns, gorilla.NewSeries(name, vals, mem))
		}
		raw.Release()
	}
	return gorilla.NewDataFrame(columns...)
}

// filterRows rebuilds a frame keeping only rows where keep[i] is true.
func filterRows(df *gorilla.DataFrame, keep []bool) *gorilla.DataFrame {
	indices := make([]int, 0, len(keep))
	for i, k := range keep {
		if k {
			indices = append(indices, i)
		}
	}
	return takeRows(df, indices)
}

// appendColumns returns a new frame with the given series appended after the
// existing columns. An appended series whose name collides with an existing
// column replaces it in place.
func appendColumns(df *gorilla.DataFrame, extra ...gorilla.ISeries) *gorilla.DataFrame {
	replacements := make(map[string]gorilla.ISeries, len(extra))
	for _, s := range extra {
		if df.HasColumn(s.Name()) {
			replacements[s.Name()] = s
		}
	}
	columns := make([]gorilla.ISeries, 0, df.Width()+len(extra))
	for _, name := range df.Columns() {
		if repl, ok := replacements[name]; ok {
			columns = append(columns, repl)
			continue
		}
		col, _ := df.Column(name)
		columns = append(columns, col)
	}
	for _, s := range extra {
		if _, replaced := replacements[s.Name()]; !replaced {
			columns = append(columns, s)
		}
	}
	return gorilla.NewDataFrame(columns...)
}
