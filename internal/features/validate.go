package features

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/paveg/gorilla"

	"github.com/smartcity/trafficast/internal/config"
	pipeerr "github.com/smartcity/trafficast/internal/errors"
)

// ValidateBatch checks a raw training frame before any transform runs: it
// must be non-nil, non-empty, and carry every expected raw column. Checking
// columns up front means a schema mismatch fails fast instead of mid-pipeline.
func ValidateBatch(df *gorilla.DataFrame, expected []string) error {
	const op = "ValidateBatch"

	if df == nil {
		return pipeerr.NewInvalidInput(op, "input data is nil")
	}
	if df.Len() == 0 {
		return pipeerr.NewInvalidInput(op, "input data is empty")
	}
	return requireColumns(op, df, expected...)
}

// ValidateRecord checks a raw user record against the configured field list
// and coerces each value to its declared type. All per-field failures are
// collected before reporting, so the caller sees every offending field in a
// single InvalidInput error rather than just the first.
func ValidateRecord(input map[string]string, fields []config.Field) (map[string]any, error) {
	const op = "ValidateRecord"

	if input == nil {
		return nil, pipeerr.NewInvalidInput(op, "record is nil")
	}
	if len(input) == 0 {
		return nil, pipeerr.NewInvalidInput(op, "record is empty")
	}

	coerced := make(map[string]any, len(fields))
	var problems []string
	for _, field := range fields {
		raw, ok := input[field.Name]
		if !ok {
			problems = append(problems, fmt.Sprintf("%s: field is missing", field.Name))
			continue
		}
		switch field.Kind {
		case "float":
			v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err != nil {
				problems = append(problems, fmt.Sprintf("%s: %q is not a number", field.Name, raw))
				continue
			}
			coerced[field.Name] = v
		case "int":
			v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
			if err != nil {
				problems = append(problems, fmt.Sprintf("%s: %q is not an integer", field.Name, raw))
				continue
			}
			coerced[field.Name] = v
		default:
			coerced[field.Name] = raw
		}
	}
	if len(problems) > 0 {
		return nil, pipeerr.NewInvalidInput(op, strings.Join(problems, "; "))
	}
	return coerced, nil
}

// RecordFrame builds a single-row frame from a coerced record, with columns
// in configured field order so batch and single-record paths agree on layout.
func RecordFrame(record map[string]any, fields []config.Field) *gorilla.DataFrame {
	mem := alloc()
	columns := make([]gorilla.ISeries, 0, len(fields))
	for _, field := range fields {
		switch v := record[field.Name].(type) {
		case float64:
			columns = append(columns, gorilla.NewSeries(field.Name, []float64{v}, mem))
		case int64:
			columns = append(columns, gorilla.NewSeries(field.Name, []int64{v}, mem))
		case string:
			columns = append(columns, gorilla.NewSeries(field.Name, []string{v}, mem))
		}
	}
	return gorilla.NewDataFrame(columns...)
}
