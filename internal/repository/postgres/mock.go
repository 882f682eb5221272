package postgres

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/smartcity/trafficast/internal/domain"
)

// MockRepository implements domain.Repository in memory for testing/demo mode
type MockRepository struct {
	mu      sync.Mutex
	queries map[string]domain.HistoricalQuery
	metrics domain.AppMetrics
	active  *domain.ActivePrediction
}

// NewMockRepository creates a new mock repository
func NewMockRepository() *MockRepository {
	return &MockRepository{
		queries: make(map[string]domain.HistoricalQuery),
		metrics: domain.AppMetrics{UpdatedAt: time.Now()},
	}
}

// InitSchema is a no-op in mock mode
func (r *MockRepository) InitSchema(ctx context.Context) error {
	return nil
}

// RecordQuery increments the in-memory count for a query
func (r *MockRepository) RecordQuery(ctx context.Context, query string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	q := r.queries[query]
	q.Query = query
	q.Count++
	q.UpdatedAt = time.Now()
	r.queries[query] = q
	return nil
}

// TopQueries returns the most frequent queries, highest count first
func (r *MockRepository) TopQueries(ctx context.Context, limit int) ([]domain.HistoricalQuery, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	results := make([]domain.HistoricalQuery, 0, len(r.queries))
	for _, q := range r.queries {
		results = append(results, q)
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Count != results[j].Count {
			return results[i].Count > results[j].Count
		}
		return results[i].Query < results[j].Query
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Metrics returns the current counters
func (r *MockRepository) Metrics(ctx context.Context) (domain.AppMetrics, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.metrics, nil
}

// IncrementPredictions bumps the prediction counter
func (r *MockRepository) IncrementPredictions(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metrics.Predictions++
	r.metrics.UpdatedAt = time.Now()
	return nil
}

// AddFeedback records a like or dislike
func (r *MockRepository) AddFeedback(ctx context.Context, liked bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if liked {
		r.metrics.Likes++
	} else {
		r.metrics.Dislikes++
	}
	r.metrics.UpdatedAt = time.Now()
	return nil
}

// SetActivePrediction replaces the stored active prediction
func (r *MockRepository) SetActivePrediction(ctx context.Context, p domain.ActivePrediction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := p
	r.active = &stored
	return nil
}

// ActivePrediction returns the stored active prediction, or nil
func (r *MockRepository) ActivePrediction(ctx context.Context) (*domain.ActivePrediction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == nil {
		return nil, nil
	}
	copied := *r.active
	return &copied, nil
}

// Health always returns nil in mock mode
func (r *MockRepository) Health(ctx context.Context) error {
	return nil
}
