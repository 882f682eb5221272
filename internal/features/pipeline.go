// Package features implements the deterministic, config-driven feature
// pipeline shared between training and inference: datetime decomposition,
// categorical collapsing, binarization, log transform, unit conversion,
// range/category outlier filtering and one-hot encoding. Both entry points
// run the same per-column transforms with the same configuration, so a bulk
// training table and a single live user record produce identical column
// semantics.
package features

import (
	"log/slog"
	"math"
	"math/rand"

	"github.com/paveg/gorilla"

	"github.com/smartcity/trafficast/internal/config"
	pipeerr "github.com/smartcity/trafficast/internal/errors"
)

// GenerateTrainingFeatures runs the batch pipeline over a raw training table:
// validation, datetime decomposition, binarization, category collapsing, log
// transform, intermediate-column dropping, outlier removal (response
// included), encoder fitting and one-hot encoding, then a seeded train/test
// split. The returned encoder is the one artifact inference must reuse.
func GenerateTrainingFeatures(df *gorilla.DataFrame, cfg *config.Pipeline) (train, test *gorilla.DataFrame, enc *OneHotEncoder, err error) {
	const op = "GenerateTrainingFeatures"

	if err = ValidateBatch(df, cfg.Validation.BatchColumns); err != nil {
		return nil, nil, nil, err
	}

	f := cfg.Features
	current, _, err := CreateDatetimeFeatures(df, f.DatetimeColumn, f.MonthColumn, f.HourColumn, f.DayOfWeekColumn)
	if err != nil {
		return nil, nil, nil, err
	}
	if current, err = BinarizeColumns(current, f.BinarizeColumns, f.BinarizePrefix, f.BinarizeZero); err != nil {
		return nil, nil, nil, err
	}
	if current, err = CollapseCategories(current, f.CollapseColumn, collapseRules(f.CollapseRules)); err != nil {
		return nil, nil, nil, err
	}
	if current, err = LogTransformColumns(current, f.LogColumns, f.LogPrefix); err != nil {
		return nil, nil, nil, err
	}

	drop := make([]string, 0, len(f.DropColumns)+len(f.LogColumns)+len(f.BinarizeColumns)+1)
	drop = append(drop, f.DropColumns...)
	drop = append(drop, f.LogColumns...)
	drop = append(drop, f.BinarizeColumns...)
	drop = append(drop, f.DatetimeColumn)
	current = DropColumns(current, drop)

	current, removed, err := RemoveOutliers(current, cfg.Outliers, true)
	if err != nil {
		return nil, nil, nil, err
	}
	if current.Len() == 0 {
		return nil, nil, nil, pipeerr.NewInvalidInput(op, "no rows remain after outlier removal")
	}
	slog.Info("training features prepared", "rows", current.Len(), "outliers_removed", removed)

	if enc, err = FitOneHotEncoder(current, cfg.Encoder.Columns); err != nil {
		return nil, nil, nil, err
	}
	encoded, err := enc.Transform(current)
	if err != nil {
		return nil, nil, nil, err
	}

	train, test, err = SplitFrame(encoded, cfg.Split)
	if err != nil {
		return nil, nil, nil, err
	}
	slog.Info("split training data", "train_rows", train.Len(), "test_rows", test.Len())
	return train, test, enc, nil
}

// PrepareInferenceFeatures runs the single-record pipeline: validate and
// coerce the raw form fields, apply the same column transforms as training,
// use the range checks as a domain-validation gate, then encode with the
// already-fitted encoder. The encoder is only read, never refitted.
//
// A record filtered out by the range checks is an InvalidInput error, never
// an empty success: for a single record, "no rows survived" is the signal
// that the submitted values are out of the model's domain.
func PrepareInferenceFeatures(input map[string]string, enc *OneHotEncoder, cfg *config.Pipeline) (*gorilla.DataFrame, error) {
	const op = "PrepareInferenceFeatures"

	if enc == nil {
		return nil, pipeerr.NewConfigError(op, "encoder", "a fitted encoder is required")
	}

	record, err := ValidateRecord(input, cfg.Validation.RecordFields)
	if err != nil {
		return nil, err
	}
	current := RecordFrame(record, cfg.Validation.RecordFields)

	f := cfg.Features
	if current, err = BinarizeColumns(current, f.BinarizeColumns, f.BinarizePrefix, f.BinarizeZero); err != nil {
		return nil, err
	}
	if current, err = CollapseCategories(current, f.CollapseColumn, collapseRules(f.CollapseRules)); err != nil {
		return nil, err
	}
	if current, err = LogTransformColumns(current, f.LogColumns, f.LogPrefix); err != nil {
		return nil, err
	}
	if current, err = ConvertTemperature(current, f.TempColumn); err != nil {
		return nil, err
	}

	drop := make([]string, 0, len(f.LogColumns)+len(f.BinarizeColumns))
	drop = append(drop, f.LogColumns...)
	drop = append(drop, f.BinarizeColumns...)
	current = DropColumns(current, drop)

	current, _, err = RemoveOutliers(current, cfg.Outliers, false)
	if err != nil {
		return nil, err
	}
	if current.Len() == 0 {
		return nil, pipeerr.NewInvalidInput(op, "record values are outside the model's domain")
	}

	return enc.Transform(current)
}

// SplitFrame partitions a frame into train and test sets. With shuffling
// enabled the permutation is drawn from the configured seed, so a given
// (data, config) pair always produces the same partition.
func SplitFrame(df *gorilla.DataFrame, cfg config.Split) (train, test *gorilla.DataFrame, err error) {
	const op = "SplitFrame"

	n := df.Len()
	testSize := int(math.Ceil(cfg.TestFraction * float64(n)))
	if testSize <= 0 || testSize >= n {
		return nil, nil, pipeerr.NewInvalidInput(op, "not enough rows to split into train and test sets")
	}

	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	if cfg.Shuffle {
		rng := rand.New(rand.NewSource(cfg.Seed))
		rng.Shuffle(n, func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}

	train = takeRows(df, indices[:n-testSize])
	test = takeRows(df, indices[n-testSize:])
	return train, test, nil
}

func collapseRules(rules []config.CollapseRule) map[string]string {
	m := make(map[string]string, len(rules))
	for _, rule := range rules {
		m[rule.Original] = rule.To
	}
	return m
}
