package features

import (
	"log/slog"
	"math"
	"time"

	"github.com/paveg/gorilla"
)

// datetimeLayout is the timestamp format of the raw traffic dataset.
const datetimeLayout = "2006-01-02 15:04:05"

// CreateDatetimeFeatures parses the configured timestamp column and emits
// month (1-12), hour (0-23) and day-of-week (full English name) columns.
// Rows whose timestamp cannot be parsed are dropped; the dropped count is
// returned so callers can log it. For a single-record frame the caller must
// treat a dropped row as a validation failure, not an empty success.
func CreateDatetimeFeatures(df *gorilla.DataFrame, source, monthCol, hourCol, dowCol string) (*gorilla.DataFrame, int, error) {
	const op = "CreateDatetimeFeatures"

	raw, err := stringValues(op, df, source)
	if err != nil {
		return nil, 0, err
	}

	keep := make([]bool, len(raw))
	months := make([]int64, 0, len(raw))
	hours := make([]int64, 0, len(raw))
	days := make([]string, 0, len(raw))
	dropped := 0
	for i, value := range raw {
		ts, parseErr := time.Parse(datetimeLayout, value)
		if parseErr != nil {
			dropped++
			continue
		}
		keep[i] = true
		months = append(months, int64(ts.Month()))
		hours = append(hours, int64(ts.Hour()))
		days = append(days, ts.Weekday().String())
	}

	result := df
	if dropped > 0 {
		result = filterRows(df, keep)
		slog.Info("dropped rows with unparsable timestamps",
			"column", source, "dropped", dropped, "remaining", result.Len())
	}

	mem := alloc()
	result = appendColumns(result,
		gorilla.NewSeries(monthCol, months, mem),
		gorilla.NewSeries(hourCol, hours, mem),
		gorilla.NewSeries(dowCol, days, mem),
	)
	return result, dropped, nil
}

// BinarizeColumns emits prefix+name indicator columns: 0 where the value
// equals zeroValue, 1 otherwise.
func BinarizeColumns(df *gorilla.DataFrame, names []string, prefix, zeroValue string) (*gorilla.DataFrame, error) {
	const op = "BinarizeColumns"

	mem := alloc()
	extra := make([]gorilla.ISeries, 0, len(names))
	for _, name := range names {
		values, err := stringValues(op, df, name)
		if err != nil {
			return nil, err
		}
		indicator := make([]float64, len(values))
		for i, v := range values {
			if v != zeroValue {
				indicator[i] = 1
			}
		}
		extra = append(extra, gorilla.NewSeries(prefix+name, indicator, mem))
	}
	return appendColumns(df, extra...), nil
}

// LogTransformColumns emits prefix+name = ln(1+value) columns. log1p rather
// than a raw log so zero rainfall stays finite.
func LogTransformColumns(df *gorilla.DataFrame, names []string, prefix string) (*gorilla.DataFrame, error) {
	const op = "LogTransformColumns"

	mem := alloc()
	extra := make([]gorilla.ISeries, 0, len(names))
	for _, name := range names {
		values, err := numericValues(op, df, name)
		if err != nil {
			return nil, err
		}
		logged := make([]float64, len(values))
		for i, v := range values {
			logged[i] = math.Log1p(v)
		}
		extra = append(extra, gorilla.NewSeries(prefix+name, logged, mem))
	}
	return appendColumns(df, extra...), nil
}

// FahrenheitToKelvin converts a single temperature reading.
func FahrenheitToKelvin(v float64) float64 {
	return (v-32)*5/9 + 273.15
}

// ConvertTemperature rewrites the configured column from Fahrenheit to
// Kelvin in place. Used on the inference path only; training data arrives
// already converted.
func ConvertTemperature(df *gorilla.DataFrame, name string) (*gorilla.DataFrame, error) {
	const op = "ConvertTemperature"

	values, err := numericValues(op, df, name)
	if err != nil {
		return nil, err
	}
	converted := make([]float64, len(values))
	for i, v := range values {
		converted[i] = FahrenheitToKelvin(v)
	}
	return appendColumns(df, gorilla.NewSeries(name, converted, alloc())), nil
}

// CollapseCategories rewrites matching values of the configured column
// according to the collapse rules. Rules apply independently; values matched
// by no rule pass through, and re-applying the same rules is a no-op.
func CollapseCategories(df *gorilla.DataFrame, name string, rules map[string]string) (*gorilla.DataFrame, error) {
	const op = "CollapseCategories"

	if len(rules) == 0 {
		return df, nil
	}
	values, err := stringValues(op, df, name)
	if err != nil {
		return nil, err
	}
	collapsed := make([]string, len(values))
	for i, v := range values {
		if to, ok := rules[v]; ok {
			collapsed[i] = to
		} else {
			collapsed[i] = v
		}
	}
	return appendColumns(df, gorilla.NewSeries(name, collapsed, alloc())), nil
}

// DropColumns removes the named columns. A column absent from the frame is
// skipped without error: the caller's intent is that the column is no longer
// needed, which holds whether or not it was present.
func DropColumns(df *gorilla.DataFrame, names []string) *gorilla.DataFrame {
	present := make([]string, 0, len(names))
	for _, name := range names {
		if df.HasColumn(name) {
			present = append(present, name)
		}
	}
	if len(present) == 0 {
		return df
	}
	return df.Drop(present...)
}
