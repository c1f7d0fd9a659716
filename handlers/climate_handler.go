package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/upb/climate-action-ai/middleware"
	"github.com/upb/climate-action-ai/models"
	"github.com/upb/climate-action-ai/utils"
	"go.uber.org/zap"
)

// ClimateService defines the climate data operations used by the handler
type ClimateService interface {
	LocalClimate(ctx context.Context, city string) (*models.ClimateSnapshot, error)
	GlobalStats(ctx context.Context) (*models.GlobalStatsReport, error)
}

// ClimateHandler serves climate data
type ClimateHandler struct {
	service ClimateService
	logger  *zap.Logger
}

// NewClimateHandler creates a new ClimateHandler
func NewClimateHandler(service ClimateService, logger *zap.Logger) *ClimateHandler {
	return &ClimateHandler{
		service: service,
		logger:  logger,
	}
}

// HandleLocalClimate handles GET /api/local-climate/{city}
func (h *ClimateHandler) HandleLocalClimate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)
	city := chi.URLParam(r, "city")

	snapshot, err := h.service.LocalClimate(ctx, city)
	if err != nil {
		h.logger.Error("failed to load local climate",
			zap.String("request_id", requestID),
			zap.String("city", city),
			zap.Error(err))
		HandleServiceError(w, err, h.logger)
		return
	}

	if err := utils.WriteJSON(w, http.StatusOK, snapshot); err != nil {
		h.logger.Error("failed to write response", zap.String("request_id", requestID), zap.Error(err))
	}
}

// HandleGlobalStats handles GET /api/global-stats
func (h *ClimateHandler) HandleGlobalStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	report, err := h.service.GlobalStats(ctx)
	if err != nil {
		h.logger.Error("failed to load global stats",
			zap.String("request_id", requestID),
			zap.Error(err))
		HandleServiceError(w, err, h.logger)
		return
	}

	if err := utils.WriteJSON(w, http.StatusOK, report); err != nil {
		h.logger.Error("failed to write response", zap.String("request_id", requestID), zap.Error(err))
	}
}
