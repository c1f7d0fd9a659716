package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/upb/climate-action-ai/middleware"
	"github.com/upb/climate-action-ai/models"
	"github.com/upb/climate-action-ai/services/assistant"
	"github.com/upb/climate-action-ai/utils"
	"go.uber.org/zap"
)

// maxBodyBytes bounds request bodies on the generation endpoints
const maxBodyBytes = 1 << 20

// AskRequest is the body of POST /api/ai-assistant
type AskRequest struct {
	Question string `json:"question" validate:"required,notblank,max=4000"`
	Location string `json:"location" validate:"max=200"`
	Context  string `json:"context" validate:"max=1000"`
}

// ActionPlanRequest is the body of POST /api/action-plan
type ActionPlanRequest struct {
	Location  string `json:"location" validate:"required,notblank,max=200"`
	Lifestyle string `json:"lifestyle" validate:"required,notblank,max=500"`
	Concerns  string `json:"concerns" validate:"required,notblank,max=1000"`
}

// AnalyzeNewsRequest is the body of POST /api/analyze-news
type AnalyzeNewsRequest struct {
	Headline string `json:"headline" validate:"required,notblank,max=500"`
	Article  string `json:"article" validate:"required,notblank"`
}

// CarbonFootprintRequest is the body of POST /api/carbon-footprint
type CarbonFootprintRequest struct {
	Transport string `json:"transport" validate:"required,notblank,max=500"`
	Energy    string `json:"energy" validate:"required,notblank,max=500"`
	Diet      string `json:"diet" validate:"required,notblank,max=500"`
	Shopping  string `json:"shopping" validate:"required,notblank,max=500"`
	Location  string `json:"location" validate:"max=200"`
}

// SubmitActionRequest is the body of POST /api/submit-action
type SubmitActionRequest struct {
	Action string `json:"action" validate:"required,notblank,max=500"`
	Impact string `json:"impact" validate:"max=500"`
}

// AssistantService defines the generation operations used by the handler
type AssistantService interface {
	Ask(ctx context.Context, req assistant.AskRequest) (*models.AssistantAnswer, error)
	ActionPlan(ctx context.Context, req assistant.ActionPlanRequest) (*models.ActionPlan, error)
	AnalyzeNews(ctx context.Context, req assistant.NewsRequest) (*models.NewsAnalysis, error)
	CarbonFootprint(ctx context.Context, req assistant.FootprintRequest) (*models.FootprintReport, error)
	SubmitAction(ctx context.Context, req assistant.SubmitActionRequest) (*models.ActionSubmission, error)
}

// AssistantHandler handles the generation endpoints
type AssistantHandler struct {
	service AssistantService
	logger  *zap.Logger
}

// NewAssistantHandler creates a new AssistantHandler
func NewAssistantHandler(service AssistantService, logger *zap.Logger) *AssistantHandler {
	return &AssistantHandler{
		service: service,
		logger:  logger,
	}
}

// HandleAsk handles POST /api/ai-assistant
func (h *AssistantHandler) HandleAsk(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	var req AskRequest
	if !h.decode(w, r, requestID, &req) {
		return
	}

	h.logger.Debug("answering climate question",
		zap.String("request_id", requestID),
		zap.String("location", req.Location))

	answer, err := h.service.Ask(ctx, assistant.AskRequest{
		Question:  req.Question,
		Location:  req.Location,
		Context:   req.Context,
		RequestID: requestID,
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.respond(w, requestID, answer)
}

// HandleActionPlan handles POST /api/action-plan
func (h *AssistantHandler) HandleActionPlan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	var req ActionPlanRequest
	if !h.decode(w, r, requestID, &req) {
		return
	}

	plan, err := h.service.ActionPlan(ctx, assistant.ActionPlanRequest{
		Location:  req.Location,
		Lifestyle: req.Lifestyle,
		Concerns:  req.Concerns,
		RequestID: requestID,
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.respond(w, requestID, plan)
}

// HandleAnalyzeNews handles POST /api/analyze-news
func (h *AssistantHandler) HandleAnalyzeNews(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	var req AnalyzeNewsRequest
	if !h.decode(w, r, requestID, &req) {
		return
	}

	analysis, err := h.service.AnalyzeNews(ctx, assistant.NewsRequest{
		Headline:  req.Headline,
		Article:   req.Article,
		RequestID: requestID,
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.respond(w, requestID, analysis)
}

// HandleCarbonFootprint handles POST /api/carbon-footprint
func (h *AssistantHandler) HandleCarbonFootprint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	var req CarbonFootprintRequest
	if !h.decode(w, r, requestID, &req) {
		return
	}

	report, err := h.service.CarbonFootprint(ctx, assistant.FootprintRequest{
		Transport: req.Transport,
		Energy:    req.Energy,
		Diet:      req.Diet,
		Shopping:  req.Shopping,
		Location:  req.Location,
		RequestID: requestID,
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.respond(w, requestID, report)
}

// HandleSubmitAction handles POST /api/submit-action
func (h *AssistantHandler) HandleSubmitAction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	var req SubmitActionRequest
	if !h.decode(w, r, requestID, &req) {
		return
	}

	result, err := h.service.SubmitAction(ctx, assistant.SubmitActionRequest{
		Action: req.Action,
		Impact: req.Impact,
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.respond(w, requestID, result)
}

// decode parses and validates the JSON body into dst. It writes the error
// response itself and reports false when the request cannot be served.
func (h *AssistantHandler) decode(w http.ResponseWriter, r *http.Request, requestID string, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.logger.Warn("failed to parse request body",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return false
	}

	if err := utils.ValidateStruct(dst); err != nil {
		h.logger.Warn("request validation failed",
			zap.String("request_id", requestID),
			zap.Error(err))
		HandleValidationError(w, err, h.logger)
		return false
	}
	return true
}

func (h *AssistantHandler) respond(w http.ResponseWriter, requestID string, body interface{}) {
	if err := utils.WriteJSON(w, http.StatusOK, body); err != nil {
		h.logger.Error("failed to write response",
			zap.String("request_id", requestID),
			zap.Error(err))
	}
}
