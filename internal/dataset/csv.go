// Package dataset handles raw data acquisition and interchange: fetching the
// source CSV, reading and writing CSV files as DataFrames with column type
// inference, and cleaning duplicate or incomplete records.
package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/gorilla"
)

// ReadCSV reads a headered CSV file into a DataFrame. Column types are
// inferred over the whole column: all-integer columns become int64, numeric
// columns become float64, everything else stays string.
func ReadCSV(path string, delimiter rune) (*gorilla.DataFrame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: open %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.Comma = delimiter
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("dataset: read %s: %w", path, err)
	}
	if len(records) == 0 {
		return gorilla.NewDataFrame(), nil
	}

	headers := records[0]
	rows := records[1:]
	mem := memory.NewGoAllocator()
	columns := make([]gorilla.ISeries, 0, len(headers))
	for colIdx, name := range headers {
		values := make([]string, len(rows))
		for rowIdx, row := range rows {
			if colIdx < len(row) {
				values[rowIdx] = row[colIdx]
			}
		}
		columns = append(columns, inferSeries(name, values, mem))
	}
	return gorilla.NewDataFrame(columns...), nil
}

// inferSeries picks the narrowest type that fits every value in the column.
func inferSeries(name string, values []string, mem memory.Allocator) gorilla.ISeries {
	isInt := len(values) > 0
	for _, v := range values {
		if _, err := strconv.ParseInt(v, 10, 64); err != nil {
			isInt = false
			break
		}
	}
	if isInt {
		ints := make([]int64, len(values))
		for i, v := range values {
			ints[i], _ = strconv.ParseInt(v, 10, 64)
		}
		return gorilla.NewSeries(name, ints, mem)
	}

	isFloat := len(values) > 0
	for _, v := range values {
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			isFloat = false
			break
		}
	}
	if isFloat {
		floats := make([]float64, len(values))
		for i, v := range values {
			floats[i], _ = strconv.ParseFloat(v, 64)
		}
		return gorilla.NewSeries(name, floats, mem)
	}

	return gorilla.NewSeries(name, values, mem)
}

// WriteCSV writes a DataFrame to a headered CSV file.
func WriteCSV(df *gorilla.DataFrame, path string, delimiter rune) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("dataset: create %s: %w", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	writer.Comma = delimiter
	defer writer.Flush()

	names := df.Columns()
	if err := writer.Write(names); err != nil {
		return fmt.Errorf("dataset: write header: %w", err)
	}

	for row := 0; row < df.Len(); row++ {
		record := make([]string, len(names))
		for i, name := range names {
			col, _ := df.Column(name)
			record[i] = formatValue(col, row)
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("dataset: write row %d: %w", row, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatValue(col gorilla.ISeries, row int) string {
	raw := col.Array()
	defer raw.Release()
	switch arr := raw.(type) {
	case *array.String:
		return arr.Value(row)
	case *array.Int64:
		return strconv.FormatInt(arr.Value(row), 10)
	case *array.Int32:
		return strconv.FormatInt(int64(arr.Value(row)), 10)
	case *array.Float64:
		return strconv.FormatFloat(arr.Value(row), 'g', -1, 64)
	case *array.Float32:
		return strconv.FormatFloat(float64(arr.Value(row)), 'g', -1, 32)
	case *array.Boolean:
		return strconv.FormatBool(arr.Value(row))
	default:
		return ""
	}
}
