package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/smartcity/trafficast/internal/domain"
)

// PostgresRepository implements domain.Repository
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// InitSchema creates the application tables if they do not exist.
func (r *PostgresRepository) InitSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS historical_queries (
			query      TEXT PRIMARY KEY,
			count      INTEGER NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS app_metrics (
			id          INTEGER PRIMARY KEY CHECK (id = 1),
			predictions INTEGER NOT NULL DEFAULT 0,
			likes       INTEGER NOT NULL DEFAULT 0,
			dislikes    INTEGER NOT NULL DEFAULT 0,
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`INSERT INTO app_metrics (id) VALUES (1) ON CONFLICT (id) DO NOTHING`,
		`CREATE TABLE IF NOT EXISTS active_prediction (
			id         INTEGER PRIMARY KEY CHECK (id = 1),
			volume     DOUBLE PRECISION NOT NULL,
			level      TEXT NOT NULL,
			query      TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	}
	for _, stmt := range statements {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres: failed to initialize schema: %w", err)
		}
	}
	return nil
}

// RecordQuery increments the count for a query, inserting it on first use.
func (r *PostgresRepository) RecordQuery(ctx context.Context, query string) error {
	sql := `
		INSERT INTO historical_queries (query, count, updated_at)
		VALUES ($1, 1, now())
		ON CONFLICT (query)
		DO UPDATE SET count = historical_queries.count + 1, updated_at = now()
	`

	if _, err := r.pool.Exec(ctx, sql, query); err != nil {
		return fmt.Errorf("postgres: failed to record query: %w", err)
	}
	return nil
}

// TopQueries returns the most frequent queries, highest count first.
func (r *PostgresRepository) TopQueries(ctx context.Context, limit int) ([]domain.HistoricalQuery, error) {
	sql := `
		SELECT query, count, updated_at
		FROM historical_queries
		ORDER BY count DESC, updated_at DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, sql, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query historical queries: %w", err)
	}
	defer rows.Close()

	var results []domain.HistoricalQuery
	for rows.Next() {
		var q domain.HistoricalQuery
		if err := rows.Scan(&q.Query, &q.Count, &q.UpdatedAt); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan query row: %w", err)
		}
		results = append(results, q)
	}

	return results, nil
}

// Metrics returns the current usage counters.
func (r *PostgresRepository) Metrics(ctx context.Context) (domain.AppMetrics, error) {
	sql := `SELECT predictions, likes, dislikes, updated_at FROM app_metrics WHERE id = 1`

	var m domain.AppMetrics
	err := r.pool.QueryRow(ctx, sql).Scan(&m.Predictions, &m.Likes, &m.Dislikes, &m.UpdatedAt)
	if err != nil {
		return domain.AppMetrics{}, fmt.Errorf("postgres: failed to read metrics: %w", err)
	}
	return m, nil
}

// IncrementPredictions bumps the prediction counter.
func (r *PostgresRepository) IncrementPredictions(ctx context.Context) error {
	sql := `UPDATE app_metrics SET predictions = predictions + 1, updated_at = now() WHERE id = 1`

	if _, err := r.pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("postgres: failed to increment predictions: %w", err)
	}
	return nil
}

// AddFeedback records a like or dislike on the active prediction.
func (r *PostgresRepository) AddFeedback(ctx context.Context, liked bool) error {
	column := "dislikes"
	if liked {
		column = "likes"
	}
	sql := fmt.Sprintf(`UPDATE app_metrics SET %s = %s + 1, updated_at = now() WHERE id = 1`, column, column)

	if _, err := r.pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("postgres: failed to record feedback: %w", err)
	}
	return nil
}

// SetActivePrediction replaces the stored active prediction.
func (r *PostgresRepository) SetActivePrediction(ctx context.Context, p domain.ActivePrediction) error {
	sql := `
		INSERT INTO active_prediction (id, volume, level, query, created_at)
		VALUES (1, $1, $2, $3, $4)
		ON CONFLICT (id)
		DO UPDATE SET volume = $1, level = $2, query = $3, created_at = $4
	`

	if _, err := r.pool.Exec(ctx, sql, p.Volume, p.Level, p.Query, p.CreatedAt); err != nil {
		return fmt.Errorf("postgres: failed to store active prediction: %w", err)
	}
	return nil
}

// ActivePrediction returns the stored active prediction, or nil when none
// has been made yet.
func (r *PostgresRepository) ActivePrediction(ctx context.Context) (*domain.ActivePrediction, error) {
	sql := `SELECT volume, level, query, created_at FROM active_prediction WHERE id = 1`

	var p domain.ActivePrediction
	err := r.pool.QueryRow(ctx, sql).Scan(&p.Volume, &p.Level, &p.Query, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to read active prediction: %w", err)
	}
	return &p, nil
}

// Health checks database connectivity
func (r *PostgresRepository) Health(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: health check failed: %w", err)
	}
	return nil
}
