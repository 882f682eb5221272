package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/smartcity/trafficast/internal/domain"
	pipeerr "github.com/smartcity/trafficast/internal/errors"
	"github.com/smartcity/trafficast/internal/service"
)

// Handler contains all HTTP handlers
type Handler struct {
	predictionSvc *service.PredictionService
	summarySvc    *service.SummaryService
	repo          service.Repository
}

// NewHandler creates a new handler
func NewHandler(predictionSvc *service.PredictionService, summarySvc *service.SummaryService, repo service.Repository) *Handler {
	return &Handler{
		predictionSvc: predictionSvc,
		summarySvc:    summarySvc,
		repo:          repo,
	}
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(c *fiber.Ctx) error {
	status := "ok"
	if err := h.repo.Health(c.Context()); err != nil {
		status = "degraded"
	}
	return c.JSON(fiber.Map{
		"status":  status,
		"service": "trafficast",
		"version": "1.0.0",
	})
}

// GetSummary returns the active prediction, top queries and usage counters
func (h *Handler) GetSummary(c *fiber.Ctx) error {
	summary, err := h.summarySvc.Summary(c.Context())
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to load summary")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    summary,
	})
}

// Predict scores one record of user inputs
func (h *Handler) Predict(c *fiber.Ctx) error {
	var req domain.PredictionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if len(req.Inputs) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "Request must carry a non-empty inputs object")
	}

	result, err := h.predictionSvc.Predict(c.Context(), req.Inputs)
	if err != nil {
		// Bad user input gets a 400 with the pipeline's message; anything
		// else is an internal failure.
		if pipeerr.IsKind(err, pipeerr.KindInvalidInput) ||
			pipeerr.IsKind(err, pipeerr.KindInvalidType) ||
			pipeerr.IsKind(err, pipeerr.KindMissingColumn) ||
			pipeerr.IsKind(err, pipeerr.KindUnseenCategory) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to get prediction")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    result,
	})
}

// feedbackRequest is the body of POST /api/v1/feedback
type feedbackRequest struct {
	Liked *bool `json:"liked"`
}

// Feedback records a like or dislike on the active prediction
func (h *Handler) Feedback(c *fiber.Ctx) error {
	var req feedbackRequest
	if err := c.BodyParser(&req); err != nil || req.Liked == nil {
		return fiber.NewError(fiber.StatusBadRequest, "Request must carry a boolean \"liked\" field")
	}

	if err := h.summarySvc.Feedback(c.Context(), *req.Liked); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to record feedback")
	}

	return c.JSON(fiber.Map{
		"success": true,
	})
}
