package dataset

import (
	"log/slog"
	"math"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/gorilla"
)

// Clean removes duplicate rows and rows with missing values from a raw
// frame. keepDuplicate selects which copy of a duplicated row survives,
// "first" or "last". The dropped counts are logged.
func Clean(df *gorilla.DataFrame, keepDuplicate string) *gorilla.DataFrame {
	n := df.Len()
	keys := rowKeys(df)

	keep := make([]bool, n)
	switch keepDuplicate {
	case "last":
		lastIndex := make(map[string]int, n)
		for i, key := range keys {
			lastIndex[key] = i
		}
		for i, key := range keys {
			keep[i] = lastIndex[key] == i
		}
	default:
		seen := make(map[string]struct{}, n)
		for i, key := range keys {
			if _, dup := seen[key]; !dup {
				seen[key] = struct{}{}
				keep[i] = true
			}
		}
	}
	duplicates := 0
	for _, k := range keep {
		if !k {
			duplicates++
		}
	}

	missing := 0
	for i := range keep {
		if keep[i] && rowHasMissing(df, i) {
			keep[i] = false
			missing++
		}
	}

	result := selectRows(df, keep)
	slog.Info("cleaned raw data",
		"rows_in", n, "duplicates_dropped", duplicates,
		"missing_dropped", missing, "rows_out", result.Len())
	return result
}

// rowKeys builds a joinable identity key per row for duplicate detection.
func rowKeys(df *gorilla.DataFrame) []string {
	names := df.Columns()
	keys := make([]string, df.Len())
	parts := make([]string, len(names))
	for row := 0; row < df.Len(); row++ {
		for i, name := range names {
			col, _ := df.Column(name)
			parts[i] = formatValue(col, row)
		}
		keys[row] = strings.Join(parts, "\x1f")
	}
	return keys
}

func rowHasMissing(df *gorilla.DataFrame, row int) bool {
	for _, name := range df.Columns() {
		col, _ := df.Column(name)
		if col.IsNull(row) {
			return true
		}
		if cellIsBlank(col, row) {
			return true
		}
	}
	return false
}

func cellIsBlank(col gorilla.ISeries, row int) bool {
	raw := col.Array()
	defer raw.Release()
	switch arr := raw.(type) {
	case *array.String:
		return strings.TrimSpace(arr.Value(row)) == ""
	case *array.Float64:
		return math.IsNaN(arr.Value(row))
	}
	return false
}

// selectRows rebuilds the frame keeping rows where keep[i] is true.
func selectRows(df *gorilla.DataFrame, keep []bool) *gorilla.DataFrame {
	indices := make([]int, 0, len(keep))
	for i, k := range keep {
		if k {
			indices = append(indices, i)
		}
	}

	mem := memory.NewGoAllocator()
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
		case *array.Float64:
			vals := make([]float64, len(indices))
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
