package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/smartcity/trafficast/internal/dataset"
	"github.com/smartcity/trafficast/internal/features"
	"github.com/smartcity/trafficast/internal/model"
)

func fetchCmd(configPath *string) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download the raw dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadPipelineConfig(*configPath)
			if err != nil {
				return err
			}
			if cfg.Dataset.SourceURL == "" {
				return fmt.Errorf("dataset.source_url is not configured")
			}
			return dataset.Fetch(cfg.Dataset.SourceURL, out)
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "data/raw.csv", "Destination file for the raw dataset")
	return cmd
}

func cleanCmd(configPath *string) *cobra.Command {
	var in, out string

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove duplicate and incomplete rows",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadPipelineConfig(*configPath)
			if err != nil {
				return err
			}
			df, err := dataset.ReadCSV(in, delimiterRune(cfg.Dataset.Delimiter))
			if err != nil {
				return err
			}
			defer df.Release()

			cleaned := dataset.Clean(df, cfg.Clean.KeepDuplicate)
			defer cleaned.Release()

			if err := dataset.WriteCSV(cleaned, out, delimiterRune(cfg.Dataset.Delimiter)); err != nil {
				return err
			}
			slog.Info("dataset cleaned", slog.Int("rows", cleaned.Len()), slog.String("out", out))
			return nil
		},
	}

	cmd.Flags().StringVarP(&in, "in", "i", "data/raw.csv", "Raw dataset file")
	cmd.Flags().StringVarP(&out, "out", "o", "data/clean.csv", "Destination for the cleaned dataset")
	return cmd
}

func featuresCmd(configPath *string) *cobra.Command {
	var in, trainOut, testOut, encoderOut string

	cmd := &cobra.Command{
		Use:   "features",
		Short: "Transform the cleaned dataset into train/test feature tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadPipelineConfig(*configPath)
			if err != nil {
				return err
			}
			df, err := dataset.ReadCSV(in, delimiterRune(cfg.Dataset.Delimiter))
			if err != nil {
				return err
			}
			defer df.Release()

			train, test, enc, err := features.GenerateTrainingFeatures(df, cfg)
			if err != nil {
				return err
			}
			defer train.Release()
			defer test.Release()

			if err := dataset.WriteCSV(train, trainOut, delimiterRune(cfg.Dataset.Delimiter)); err != nil {
				return err
			}
			if err := dataset.WriteCSV(test, testOut, delimiterRune(cfg.Dataset.Delimiter)); err != nil {
				return err
			}
			if err := model.SaveEncoder(encoderOut, enc); err != nil {
				return err
			}
			slog.Info("feature tables written",
				slog.Int("train_rows", train.Len()),
				slog.Int("test_rows", test.Len()),
				slog.Int("feature_columns", train.Width()),
			)
			return nil
		},
	}

	cmd.Flags().StringVarP(&in, "in", "i", "data/clean.csv", "Cleaned dataset file")
	cmd.Flags().StringVar(&trainOut, "train-out", "data/train.csv", "Destination for the train feature table")
	cmd.Flags().StringVar(&testOut, "test-out", "data/test.csv", "Destination for the test feature table")
	cmd.Flags().StringVar(&encoderOut, "encoder-out", "artifacts/encoder.gob", "Destination for the fitted encoder")
	return cmd
}

func trainCmd(configPath *string) *cobra.Command {
	var in, encoderIn, out string

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Fit the random forest on the train feature table",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadPipelineConfig(*configPath)
			if err != nil {
				return err
			}
			df, err := dataset.ReadCSV(in, delimiterRune(cfg.Dataset.Delimiter))
			if err != nil {
				return err
			}
			defer df.Release()

			featureRows, response, names, err := model.Matrix(df, cfg.Model.ResponseColumn)
			if err != nil {
				return err
			}
			enc, err := model.LoadEncoder(encoderIn)
			if err != nil {
				return err
			}

			started := time.Now()
			forest, err := model.TrainForest(featureRows, response, names, model.Options{
				Trees:           cfg.Model.Trees,
				MinSamplesSplit: cfg.Model.MinSamplesSplit,
				MaxDepth:        cfg.Model.MaxDepth,
				Seed:            cfg.Model.Seed,
			})
			if err != nil {
				return err
			}
			slog.Info("forest trained",
				slog.Int("trees", len(forest.Trees)),
				slog.Int("rows", len(featureRows)),
				slog.Duration("elapsed", time.Since(started)),
			)

			bundle := &model.Bundle{
				Forest:    forest,
				Encoder:   enc,
				Response:  cfg.Model.ResponseColumn,
				TrainedAt: time.Now(),
			}
			return bundle.Save(out)
		},
	}

	cmd.Flags().StringVarP(&in, "in", "i", "data/train.csv", "Train feature table")
	cmd.Flags().StringVar(&encoderIn, "encoder", "artifacts/encoder.gob", "Fitted encoder artifact")
	cmd.Flags().StringVarP(&out, "out", "o", "artifacts/model.gob", "Destination for the model bundle")
	return cmd
}

func evaluateCmd(configPath *string) *cobra.Command {
	var in, bundleIn, report string

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Score the trained model on the test feature table",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadPipelineConfig(*configPath)
			if err != nil {
				return err
			}
			df, err := dataset.ReadCSV(in, delimiterRune(cfg.Dataset.Delimiter))
			if err != nil {
				return err
			}
			defer df.Release()

			bundle, err := model.LoadBundle(bundleIn)
			if err != nil {
				return err
			}
			metrics, err := model.Evaluate(bundle.Forest, df, bundle.Response)
			if err != nil {
				return err
			}
			slog.Info("evaluation complete",
				slog.Int("rows", metrics.Rows),
				slog.Float64("r2", metrics.R2),
				slog.Float64("mse", metrics.MSE),
			)
			if report != "" {
				return metrics.WriteReport(report)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&in, "in", "i", "data/test.csv", "Test feature table")
	cmd.Flags().StringVar(&bundleIn, "model", "artifacts/model.gob", "Trained model bundle")
	cmd.Flags().StringVar(&report, "report", "artifacts/evaluation.txt", "Destination for the evaluation report (empty to skip)")
	return cmd
}

func predictCmd(configPath *string) *cobra.Command {
	var bundleIn string
	var inputs []string

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Score one record from the command line",
		Example: `  trafficast predict --set temp=45.2 --set rain_1h=0 \
    --set clouds_all=75 --set holiday=None --set weather_main=Clouds \
    --set month=10 --set hour=9 --set day_of_week=Monday`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadPipelineConfig(*configPath)
			if err != nil {
				return err
			}
			record, err := parseInputs(inputs)
			if err != nil {
				return err
			}
			bundle, err := model.LoadBundle(bundleIn)
			if err != nil {
				return err
			}

			frame, err := features.PrepareInferenceFeatures(record, bundle.Encoder, cfg)
			if err != nil {
				return err
			}
			defer frame.Release()

			predictions, err := bundle.Forest.PredictFrame(frame)
			if err != nil {
				return err
			}
			out := map[string]any{
				"predicted_volume": predictions[0],
				"traffic_level":    model.ClassifyTraffic(predictions[0], cfg.Predict),
			}
			return json.NewEncoder(os.Stdout).Encode(out)
		},
	}

	cmd.Flags().StringVar(&bundleIn, "model", "artifacts/model.gob", "Trained model bundle")
	cmd.Flags().StringArrayVarP(&inputs, "set", "s", nil, "Record field as name=value (repeatable)")
	return cmd
}

func parseInputs(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, fmt.Errorf("at least one --set name=value is required")
	}
	record := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, value, found := strings.Cut(pair, "=")
		if !found || name == "" {
			return nil, fmt.Errorf("malformed --set %q, want name=value", pair)
		}
		record[name] = value
	}
	return record, nil
}

func delimiterRune(s string) rune {
	if s == "" {
		return ','
	}
	return []rune(s)[0]
}
