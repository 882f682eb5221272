package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pipeerr "github.com/smartcity/trafficast/internal/errors"
)

const validYAML = `
dataset:
  source_url: "https://example.com/traffic.csv"
  delimiter: ","
clean:
  keep_duplicate: "first"
features:
  datetime_column: "date_time"
  month_column: "month"
  hour_column: "hour"
  day_of_week_column: "day_of_week"
  collapse_column: "weather_main"
  collapse_rules:
    - original_category: "Squall"
      to_category: "Thunderstorm"
  binarize_columns: ["holiday"]
  binarize_prefix: "binarize_"
  binarize_zero_value: "None"
  log_columns: ["rain_1h"]
  log_prefix: "log_"
  temperature_column: "temp"
  drop_columns: ["weather_description", "snow_1h"]
outliers:
  temperature_column: "temp"
  temp_min: 233.1
  temp_max: 319.3
  rain_column: "log_rain_1h"
  rain_min: 0
  rain_max: 5.7
  clouds_column: "clouds_all"
  clouds_min: 0
  clouds_max: 100
  hour_column: "hour"
  hour_min: 0
  hour_max: 23
  month_column: "month"
  month_min: 1
  month_max: 12
  weather_column: "weather_main"
  valid_weather: ["Clear", "Clouds"]
  day_of_week_column: "day_of_week"
  valid_week_days: ["Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"]
  response_column: "traffic_volume"
  response_min: 100
  response_max: 10000
encoder:
  columns: ["weather_main", "month", "hour", "day_of_week"]
  drop: "first"
split:
  test_fraction: 0.2
  shuffle: true
  seed: 123
model:
  response_column: "traffic_volume"
  trees: 200
  min_samples_split: 5
  seed: 123
predict:
  light_max: 2500
  moderate_max: 5000
validation:
  batch_columns: ["temp", "traffic_volume"]
  record_fields:
    - { name: "temp", kind: "float" }
    - { name: "day_of_week", kind: "string" }
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadValidConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)

	assert.Equal(t, "date_time", cfg.Features.DatetimeColumn)
	assert.Equal(t, 233.1, cfg.Outliers.TempMin)
	assert.Equal(t, 0.2, cfg.Split.TestFraction)
	assert.Equal(t, 200, cfg.Model.Trees)
	assert.Equal(t, "first", cfg.Encoder.Drop)
	require.Len(t, cfg.Validation.RecordFields, 2)
	assert.Equal(t, "float", cfg.Validation.RecordFields[0].Kind)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Pipeline)
		keyPart string
	}{
		{"missing datetime column", func(c *Pipeline) { c.Features.DatetimeColumn = "" }, "datetime_column"},
		{"inverted temp bounds", func(c *Pipeline) { c.Outliers.TempMin = 400 }, "temp"},
		{"empty weather allow-list", func(c *Pipeline) { c.Outliers.ValidWeather = nil }, "valid_weather"},
		{"test fraction too large", func(c *Pipeline) { c.Split.TestFraction = 1 }, "test_fraction"},
		{"zero trees", func(c *Pipeline) { c.Model.Trees = 0 }, "trees"},
		{"min split below two", func(c *Pipeline) { c.Model.MinSamplesSplit = 1 }, "min_samples_split"},
		{"inverted predict thresholds", func(c *Pipeline) { c.Predict.ModerateMax = 1000 }, "predict"},
		{"no record fields", func(c *Pipeline) { c.Validation.RecordFields = nil }, "record_fields"},
		{"unknown field kind", func(c *Pipeline) { c.Validation.RecordFields[0].Kind = "decimal" }, "kind"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, validYAML))
			require.NoError(t, err)

			tc.mutate(cfg)
			err = cfg.Validate()
			require.Error(t, err)
			assert.True(t, pipeerr.IsKind(err, pipeerr.KindConfig))
			assert.Contains(t, err.Error(), tc.keyPart)
		})
	}
}

func TestValidateAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)

	cfg.Dataset.Delimiter = ""
	cfg.Clean.KeepDuplicate = ""
	cfg.Encoder.Drop = ""
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ",", cfg.Dataset.Delimiter)
	assert.Equal(t, "first", cfg.Clean.KeepDuplicate)
	assert.Equal(t, "first", cfg.Encoder.Drop)
}
