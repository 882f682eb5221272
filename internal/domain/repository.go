package domain

import "context"

// Repository defines the persistence operations the service layer needs.
// This follows the Dependency Inversion Principle - domain defines the interface
type Repository interface {
	// InitSchema creates the application tables if they do not exist.
	InitSchema(ctx context.Context) error

	// RecordQuery increments the count for a query, inserting it on first use.
	RecordQuery(ctx context.Context, query string) error

	// TopQueries returns the most frequent queries, highest count first.
	TopQueries(ctx context.Context, limit int) ([]HistoricalQuery, error)

	// Metrics returns the current usage counters.
	Metrics(ctx context.Context) (AppMetrics, error)

	// IncrementPredictions bumps the prediction counter.
	IncrementPredictions(ctx context.Context) error

	// AddFeedback records a like or dislike on the active prediction.
	AddFeedback(ctx context.Context, liked bool) error

	// SetActivePrediction replaces the stored active prediction.
	SetActivePrediction(ctx context.Context, p ActivePrediction) error

	// ActivePrediction returns the stored active prediction, or nil when
	// none has been made yet.
	ActivePrediction(ctx context.Context) (*ActivePrediction, error)

	// Health checks database connectivity
	Health(ctx context.Context) error
}
