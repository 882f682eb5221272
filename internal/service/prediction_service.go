package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/smartcity/trafficast/internal/config"
	"github.com/smartcity/trafficast/internal/domain"
	"github.com/smartcity/trafficast/internal/features"
	"github.com/smartcity/trafficast/internal/model"
	"github.com/smartcity/trafficast/pkg/utils"
)

// PredictionService scores user records against the trained model. The
// loaded bundle is read-only; concurrent requests share it safely.
type PredictionService struct {
	bundle *model.Bundle
	cfg    *config.Pipeline
	repo   domain.Repository
	logger *slog.Logger
}

// NewPredictionService creates a prediction service around a loaded bundle.
func NewPredictionService(bundle *model.Bundle, cfg *config.Pipeline, repo domain.Repository, logger *slog.Logger) *PredictionService {
	return &PredictionService{bundle: bundle, cfg: cfg, repo: repo, logger: logger}
}

// Predict validates and transforms one record, scores it, classifies the
// volume into a traffic level, and records the query and counters.
// Persistence failures are logged but never fail the prediction.
func (s *PredictionService) Predict(ctx context.Context, inputs map[string]string) (domain.PredictionResult, error) {
	frame, err := features.PrepareInferenceFeatures(inputs, s.bundle.Encoder, s.cfg)
	if err != nil {
		return domain.PredictionResult{}, err
	}
	defer frame.Release()

	predictions, err := s.bundle.Forest.PredictFrame(frame)
	if err != nil {
		return domain.PredictionResult{}, err
	}

	result := domain.PredictionResult{
		Volume:    utils.RoundTo(predictions[0], 2),
		Level:     model.ClassifyTraffic(predictions[0], s.cfg.Predict),
		Timestamp: time.Now(),
	}
	s.logger.Info("prediction served",
		slog.Float64("volume", result.Volume),
		slog.String("level", result.Level),
	)

	query := s.queryKey(inputs)
	if s.repo != nil {
		if err := s.repo.RecordQuery(ctx, query); err != nil {
			s.logger.Warn("failed to record query", slog.String("error", err.Error()))
		}
		if err := s.repo.IncrementPredictions(ctx); err != nil {
			s.logger.Warn("failed to increment prediction counter", slog.String("error", err.Error()))
		}
		active := domain.ActivePrediction{
			Volume:    result.Volume,
			Level:     result.Level,
			Query:     query,
			CreatedAt: result.Timestamp,
		}
		if err := s.repo.SetActivePrediction(ctx, active); err != nil {
			s.logger.Warn("failed to store active prediction", slog.String("error", err.Error()))
		}
	}

	return result, nil
}

// queryKey flattens the record into a stable "field=value" string, in the
// configured field order, so identical requests aggregate to one row.
func (s *PredictionService) queryKey(inputs map[string]string) string {
	parts := make([]string, 0, len(s.cfg.Validation.RecordFields))
	for _, field := range s.cfg.Validation.RecordFields {
		parts = append(parts, fmt.Sprintf("%s=%s", field.Name, inputs[field.Name]))
	}
	return strings.Join(parts, " ")
}
