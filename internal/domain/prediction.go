package domain

import "time"

// PredictionRequest carries one record of raw user inputs, keyed by field
// name. Values arrive as strings and are validated and coerced by the
// feature pipeline.
type PredictionRequest struct {
	Inputs map[string]string `json:"inputs"`
}

// PredictionResult is the outcome of scoring one record.
type PredictionResult struct {
	Volume    float64   `json:"predicted_volume"`
	Level     string    `json:"traffic_level"`
	Timestamp time.Time `json:"timestamp"`
}

// ActivePrediction is the most recent prediction, persisted so the summary
// page can show it across restarts.
type ActivePrediction struct {
	Volume    float64   `json:"predicted_volume"`
	Level     string    `json:"traffic_level"`
	Query     string    `json:"query"`
	CreatedAt time.Time `json:"created_at"`
}

// HistoricalQuery is an aggregated record of how often a particular input
// combination has been requested.
type HistoricalQuery struct {
	Query     string    `json:"query"`
	Count     int       `json:"count"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AppMetrics tracks usage counters for the running application.
type AppMetrics struct {
	Predictions int       `json:"predictions"`
	Likes       int       `json:"likes"`
	Dislikes    int       `json:"dislikes"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Summary aggregates everything the landing page shows.
type Summary struct {
	Active      *ActivePrediction `json:"active_prediction,omitempty"`
	TopQueries  []HistoricalQuery `json:"top_queries"`
	Metrics     AppMetrics        `json:"metrics"`
	GeneratedAt time.Time         `json:"generated_at"`
}
