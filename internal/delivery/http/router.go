package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/smartcity/trafficast/internal/service"
)

// SetupRoutes configures all HTTP routes
func SetupRoutes(app *fiber.App, predictionSvc *service.PredictionService, summarySvc *service.SummaryService, repo service.Repository) {
	handler := NewHandler(predictionSvc, summarySvc, repo)

	// Health check
	app.Get("/health", handler.HealthCheck)

	// Landing view is the summary
	app.Get("/", handler.GetSummary)

	// API v1 routes
	api := app.Group("/api/v1")
	{
		api.Get("/summary", handler.GetSummary)
		api.Post("/predict", handler.Predict)
		api.Post("/feedback", handler.Feedback)
	}
}
