package features

import (
	"log/slog"

	"github.com/paveg/gorilla"

	"github.com/smartcity/trafficast/internal/config"
)

// RemoveOutliers filters rows whose numeric fields fall outside the
// configured bounds or whose categorical fields are not on the allow-list.
// Bounds are inclusive at both ends. Checks apply independently and compose
// by intersection: a row survives only if it passes every check.
//
// Removal is silent by design; an out-of-range value is not an error here.
// The removed count is returned so callers can log it, and a single-record
// caller must interpret an empty result as rejection of the record.
// includeResponse suppresses the response-column check on the inference path,
// where no response exists yet.
func RemoveOutliers(df *gorilla.DataFrame, cfg config.Outliers, includeResponse bool) (*gorilla.DataFrame, int, error) {
	const op = "RemoveOutliers"

	before := df.Len()
	keep := make([]bool, before)
	for i := range keep {
		keep[i] = true
	}

	numeric := []struct {
		column   string
		min, max float64
	}{
		{cfg.TempColumn, cfg.TempMin, cfg.TempMax},
		{cfg.RainColumn, cfg.RainMin, cfg.RainMax},
		{cfg.CloudsColumn, cfg.CloudsMin, cfg.CloudsMax},
		{cfg.HourColumn, cfg.HourMin, cfg.HourMax},
		{cfg.MonthColumn, cfg.MonthMin, cfg.MonthMax},
	}
	if includeResponse {
		numeric = append(numeric, struct {
			column   string
			min, max float64
		}{cfg.ResponseColumn, cfg.ResponseMin, cfg.ResponseMax})
	}

	for _, check := range numeric {
		values, err := numericValues(op, df, check.column)
		if err != nil {
			return nil, 0, err
		}
		for i, v := range values {
			if v < check.min || v > check.max {
				keep[i] = false
			}
		}
	}

	categorical := []struct {
		column  string
		allowed []string
	}{
		{cfg.WeatherColumn, cfg.ValidWeather},
		{cfg.WeekdayColumn, cfg.ValidWeekdays},
	}
	for _, check := range categorical {
		values, err := categoryStrings(op, df, check.column)
		if err != nil {
			return nil, 0, err
		}
		allowed := make(map[string]struct{}, len(check.allowed))
		for _, c := range check.allowed {
			allowed[c] = struct{}{}
		}
		for i, v := range values {
			if _, ok := allowed[v]; !ok {
				keep[i] = false
			}
		}
	}

	result := filterRows(df, keep)
	removed := before - result.Len()
	if result.Len() == 0 {
		slog.Warn("all rows removed by range checks", "rows_in", before)
	} else if removed > 0 {
		slog.Info("removed out-of-range rows", "removed", removed, "remaining", result.Len())
	}
	return result, removed, nil
}
