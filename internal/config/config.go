// Package config defines the typed pipeline configuration loaded from YAML.
// The nested kwargs dicts of earlier revisions are replaced with explicit
// per-stage structs validated once at load time, so a missing key surfaces
// before any transform runs instead of deep inside one.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	pipeerr "github.com/smartcity/trafficast/internal/errors"
)

// Pipeline is the full configuration bundle for one pipeline run. It is
// loaded once and passed down as plain data; nothing mutates it mid-run.
type Pipeline struct {
	Dataset    Dataset    `yaml:"dataset"`
	Clean      Clean      `yaml:"clean"`
	Features   Features   `yaml:"features"`
	Outliers   Outliers   `yaml:"outliers"`
	Encoder    Encoder    `yaml:"encoder"`
	Split      Split      `yaml:"split"`
	Model      Model      `yaml:"model"`
	Predict    Predict    `yaml:"predict"`
	Validation Validation `yaml:"validation"`
}

// Dataset configures raw data acquisition and interchange files.
type Dataset struct {
	SourceURL string `yaml:"source_url"`
	Delimiter string `yaml:"delimiter"`
}

// Clean configures duplicate and missing-value removal.
type Clean struct {
	// KeepDuplicate selects which duplicate row survives: "first" or "last".
	KeepDuplicate string `yaml:"keep_duplicate"`
}

// Features configures the column transform stages shared by training and
// inference.
type Features struct {
	DatetimeColumn  string         `yaml:"datetime_column"`
	MonthColumn     string         `yaml:"month_column"`
	HourColumn      string         `yaml:"hour_column"`
	DayOfWeekColumn string         `yaml:"day_of_week_column"`
	CollapseColumn  string         `yaml:"collapse_column"`
	CollapseRules   []CollapseRule `yaml:"collapse_rules"`
	BinarizeColumns []string       `yaml:"binarize_columns"`
	BinarizePrefix  string         `yaml:"binarize_prefix"`
	BinarizeZero    string         `yaml:"binarize_zero_value"`
	LogColumns      []string       `yaml:"log_columns"`
	LogPrefix       string         `yaml:"log_prefix"`
	TempColumn      string         `yaml:"temperature_column"`
	DropColumns     []string       `yaml:"drop_columns"`
}

// CollapseRule rewrites one category into another in the collapse column.
type CollapseRule struct {
	Original string `yaml:"original_category"`
	To       string `yaml:"to_category"`
}

// Outliers configures the range/category filter. Bounds are inclusive at
// both ends.
type Outliers struct {
	TempColumn     string  `yaml:"temperature_column"`
	TempMin        float64 `yaml:"temp_min"`
	TempMax        float64 `yaml:"temp_max"`
	RainColumn     string  `yaml:"rain_column"`
	RainMin        float64 `yaml:"rain_min"`
	RainMax        float64 `yaml:"rain_max"`
	CloudsColumn   string  `yaml:"clouds_column"`
	CloudsMin      float64 `yaml:"clouds_min"`
	CloudsMax      float64 `yaml:"clouds_max"`
	HourColumn     string  `yaml:"hour_column"`
	HourMin        float64 `yaml:"hour_min"`
	HourMax        float64 `yaml:"hour_max"`
	MonthColumn    string  `yaml:"month_column"`
	MonthMin       float64 `yaml:"month_min"`
	MonthMax       float64 `yaml:"month_max"`
	WeatherColumn  string  `yaml:"weather_column"`
	ValidWeather   []string `yaml:"valid_weather"`
	WeekdayColumn  string  `yaml:"day_of_week_column"`
	ValidWeekdays  []string `yaml:"valid_week_days"`
	ResponseColumn string  `yaml:"response_column"`
	ResponseMin    float64 `yaml:"response_min"`
	ResponseMax    float64 `yaml:"response_max"`
}

// Encoder configures one-hot encoding.
type Encoder struct {
	Columns []string `yaml:"columns"`
	// Drop names the reference-category policy. Only "first" is supported.
	Drop string `yaml:"drop"`
}

// Split configures the train/test partition.
type Split struct {
	TestFraction float64 `yaml:"test_fraction"`
	Shuffle      bool    `yaml:"shuffle"`
	Seed         int64   `yaml:"seed"`
}

// Model configures the random forest regressor.
type Model struct {
	ResponseColumn  string `yaml:"response_column"`
	Trees           int    `yaml:"trees"`
	MinSamplesSplit int    `yaml:"min_samples_split"`
	MaxDepth        int    `yaml:"max_depth"`
	Seed            int64  `yaml:"seed"`
}

// Predict configures traffic-level classification of a prediction.
type Predict struct {
	LightMax    float64 `yaml:"light_max"`
	ModerateMax float64 `yaml:"moderate_max"`
}

// Validation configures input validation for both call shapes.
type Validation struct {
	// BatchColumns are the raw columns a training table must carry before any
	// transform runs.
	BatchColumns []string `yaml:"batch_columns"`
	// RecordFields describe the expected keys of a single user record and the
	// type each value must coerce to.
	RecordFields []Field `yaml:"record_fields"`
}

// Field declares one expected record field.
type Field struct {
	Name string `yaml:"name"`
	// Kind is "float", "int" or "string".
	Kind string `yaml:"kind"`
}

// Load reads and validates a pipeline configuration file.
func Load(path string) (*Pipeline, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var cfg Pipeline
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, pipeerr.NewConfigError("Load", path, fmt.Sprintf("malformed YAML: %v", err))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every stage for missing or malformed keys. It reports the
// first problem found; the pipeline never starts on a partial configuration.
func (c *Pipeline) Validate() error {
	const op = "Validate"

	if c.Dataset.Delimiter == "" {
		c.Dataset.Delimiter = ","
	}
	if len(c.Dataset.Delimiter) != 1 {
		return pipeerr.NewConfigError(op, "dataset.delimiter", "must be a single character")
	}

	switch c.Clean.KeepDuplicate {
	case "", "first":
		c.Clean.KeepDuplicate = "first"
	case "last":
	default:
		return pipeerr.NewConfigError(op, "clean.keep_duplicate", `must be "first" or "last"`)
	}

	f := c.Features
	for key, val := range map[string]string{
		"features.datetime_column":    f.DatetimeColumn,
		"features.month_column":       f.MonthColumn,
		"features.hour_column":        f.HourColumn,
		"features.day_of_week_column": f.DayOfWeekColumn,
		"features.collapse_column":    f.CollapseColumn,
		"features.binarize_prefix":    f.BinarizePrefix,
		"features.log_prefix":         f.LogPrefix,
		"features.temperature_column": f.TempColumn,
	} {
		if val == "" {
			return pipeerr.NewConfigError(op, key, "required key is missing")
		}
	}
	if len(f.BinarizeColumns) == 0 {
		return pipeerr.NewConfigError(op, "features.binarize_columns", "at least one column is required")
	}
	if len(f.LogColumns) == 0 {
		return pipeerr.NewConfigError(op, "features.log_columns", "at least one column is required")
	}
	for i, rule := range f.CollapseRules {
		if rule.Original == "" || rule.To == "" {
			return pipeerr.NewConfigError(op,
				fmt.Sprintf("features.collapse_rules[%d]", i),
				"both original_category and to_category are required")
		}
	}

	o := c.Outliers
	for key, val := range map[string]string{
		"outliers.temperature_column": o.TempColumn,
		"outliers.rain_column":        o.RainColumn,
		"outliers.clouds_column":      o.CloudsColumn,
		"outliers.hour_column":        o.HourColumn,
		"outliers.month_column":       o.MonthColumn,
		"outliers.weather_column":     o.WeatherColumn,
		"outliers.day_of_week_column": o.WeekdayColumn,
		"outliers.response_column":    o.ResponseColumn,
	} {
		if val == "" {
			return pipeerr.NewConfigError(op, key, "required key is missing")
		}
	}
	for key, pair := range map[string][2]float64{
		"outliers.temp":     {o.TempMin, o.TempMax},
		"outliers.rain":     {o.RainMin, o.RainMax},
		"outliers.clouds":   {o.CloudsMin, o.CloudsMax},
		"outliers.hour":     {o.HourMin, o.HourMax},
		"outliers.month":    {o.MonthMin, o.MonthMax},
		"outliers.response": {o.ResponseMin, o.ResponseMax},
	} {
		if pair[0] > pair[1] {
			return pipeerr.NewConfigError(op, key, "min bound exceeds max bound")
		}
	}
	if len(o.ValidWeather) == 0 {
		return pipeerr.NewConfigError(op, "outliers.valid_weather", "allow-list must not be empty")
	}
	if len(o.ValidWeekdays) == 0 {
		return pipeerr.NewConfigError(op, "outliers.valid_week_days", "allow-list must not be empty")
	}

	if len(c.Encoder.Columns) == 0 {
		return pipeerr.NewConfigError(op, "encoder.columns", "at least one column is required")
	}
	if c.Encoder.Drop == "" {
		c.Encoder.Drop = "first"
	}
	if c.Encoder.Drop != "first" {
		return pipeerr.NewConfigError(op, "encoder.drop", `only "first" is supported`)
	}

	if c.Split.TestFraction <= 0 || c.Split.TestFraction >= 1 {
		return pipeerr.NewConfigError(op, "split.test_fraction", "must be strictly between 0 and 1")
	}

	if c.Model.ResponseColumn == "" {
		return pipeerr.NewConfigError(op, "model.response_column", "required key is missing")
	}
	if c.Model.Trees <= 0 {
		return pipeerr.NewConfigError(op, "model.trees", "must be positive")
	}
	if c.Model.MinSamplesSplit < 2 {
		return pipeerr.NewConfigError(op, "model.min_samples_split", "must be at least 2")
	}

	if c.Predict.LightMax <= 0 || c.Predict.ModerateMax <= c.Predict.LightMax {
		return pipeerr.NewConfigError(op, "predict", "thresholds must satisfy 0 < light_max < moderate_max")
	}

	if len(c.Validation.BatchColumns) == 0 {
		return pipeerr.NewConfigError(op, "validation.batch_columns", "at least one column is required")
	}
	if len(c.Validation.RecordFields) == 0 {
		return pipeerr.NewConfigError(op, "validation.record_fields", "at least one field is required")
	}
	for i, field := range c.Validation.RecordFields {
		if field.Name == "" {
			return pipeerr.NewConfigError(op, fmt.Sprintf("validation.record_fields[%d].name", i), "required key is missing")
		}
		switch field.Kind {
		case "float", "int", "string":
		default:
			return pipeerr.NewConfigError(op,
				fmt.Sprintf("validation.record_fields[%d].kind", i),
				`must be "float", "int" or "string"`)
		}
	}

	return nil
}
