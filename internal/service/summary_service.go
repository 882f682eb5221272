package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/smartcity/trafficast/internal/domain"
)

// SummaryService aggregates the landing-page view: the active prediction,
// the most frequent queries, and usage counters.
type SummaryService struct {
	repo     domain.Repository
	topLimit int
	logger   *slog.Logger
}

// NewSummaryService creates a summary service. topLimit caps the number of
// historical queries returned.
func NewSummaryService(repo domain.Repository, topLimit int, logger *slog.Logger) *SummaryService {
	if topLimit <= 0 {
		topLimit = 10
	}
	return &SummaryService{repo: repo, topLimit: topLimit, logger: logger}
}

// Summary gathers the aggregate view from the repository.
func (s *SummaryService) Summary(ctx context.Context) (domain.Summary, error) {
	active, err := s.repo.ActivePrediction(ctx)
	if err != nil {
		return domain.Summary{}, fmt.Errorf("service: load active prediction: %w", err)
	}
	top, err := s.repo.TopQueries(ctx, s.topLimit)
	if err != nil {
		return domain.Summary{}, fmt.Errorf("service: load top queries: %w", err)
	}
	metrics, err := s.repo.Metrics(ctx)
	if err != nil {
		return domain.Summary{}, fmt.Errorf("service: load metrics: %w", err)
	}

	return domain.Summary{
		Active:      active,
		TopQueries:  top,
		Metrics:     metrics,
		GeneratedAt: time.Now(),
	}, nil
}

// Feedback records a like or dislike on the active prediction.
func (s *SummaryService) Feedback(ctx context.Context, liked bool) error {
	if err := s.repo.AddFeedback(ctx, liked); err != nil {
		return fmt.Errorf("service: record feedback: %w", err)
	}
	s.logger.Info("feedback recorded", slog.Bool("liked", liked))
	return nil
}
