package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/upb/climate-action-ai/services/cache"
	"github.com/upb/climate-action-ai/utils"
	"go.uber.org/zap"
)

// Endpoints lists the public API surface reported by /api/health
var Endpoints = []string{
	"POST /api/ai-assistant",
	"POST /api/action-plan",
	"POST /api/analyze-news",
	"POST /api/carbon-footprint",
	"GET /api/local-climate/:city",
	"GET /api/global-stats",
	"POST /api/submit-action",
}

// HealthResponse represents the readiness check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// StatusResponse is the body of GET /api/health
type StatusResponse struct {
	Status    string      `json:"status"`
	Message   string      `json:"message"`
	Endpoints []string    `json:"endpoints"`
	Backends  []string    `json:"backends"`
	Cache     cache.Stats `json:"cache"`
}

// Checker probes one dependency
type Checker func(ctx context.Context) error

// BackendLister reports the registered backend names
type BackendLister interface {
	List() []string
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	backends   BackendLister
	cacheStats func() cache.Stats
	checks     map[string]Checker
	logger     *zap.Logger
}

// NewHealthHandler creates a new HealthHandler. cacheStats may be nil.
func NewHealthHandler(backends BackendLister, cacheStats func() cache.Stats, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		backends:   backends,
		cacheStats: cacheStats,
		checks:     make(map[string]Checker),
		logger:     logger,
	}
}

// AddCheck registers a readiness probe under name
func (h *HealthHandler) AddCheck(name string, check Checker) {
	h.checks[name] = check
}

// HandleStatus handles GET /api/health
func (h *HealthHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		Status:    "running",
		Message:   "Climate Action AI is live! 🌍",
		Endpoints: Endpoints,
		Backends:  h.backendNames(),
	}
	if h.cacheStats != nil {
		resp.Cache = h.cacheStats()
	}

	if err := utils.WriteJSON(w, http.StatusOK, resp); err != nil {
		h.logger.Error("failed to write status response", zap.Error(err))
	}
}

// HandleHealth handles GET /healthz
// Liveness only; always 200 while the process serves requests.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// HandleReadiness handles GET /readyz
// At least one backend must be registered and every dependency check must pass.
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := make(map[string]string)
	ready := true

	if len(h.backendNames()) == 0 {
		checks["backends"] = "none_registered"
		ready = false
	} else {
		checks["backends"] = "registered"
	}

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			h.logger.Warn("readiness check failed",
				zap.String("check", name),
				zap.Error(err))
			checks[name] = "unhealthy"
			ready = false
			continue
		}
		checks[name] = "healthy"
	}

	status := "ready"
	httpStatus := http.StatusOK
	if !ready {
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	}

	if err := utils.WriteJSON(w, httpStatus, response); err != nil {
		h.logger.Error("failed to write readiness response", zap.Error(err))
	}
}

func (h *HealthHandler) backendNames() []string {
	if h.backends == nil {
		return []string{}
	}
	names := h.backends.List()
	if names == nil {
		return []string{}
	}
	return names
}
