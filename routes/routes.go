package routes

import (
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/upb/climate-action-ai/app"
	"github.com/upb/climate-action-ai/handlers"
	"github.com/upb/climate-action-ai/middleware"
	"go.uber.org/zap"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(chimiddleware.RequestID)
	// Forwarding headers are client controlled unless a proxy overwrites them
	if deps.Config.Server.TrustProxy {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(middleware.RequestLogger(deps.Logger, deps.Metrics))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(requestTimeout(deps)))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins(deps),
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "Retry-After"},
		MaxAge:         300,
	}))

	r.NotFound(notFound)

	health := handlers.NewHealthHandler(deps.Backends, deps.Climate.CacheStats, deps.Logger)
	if deps.DB != nil {
		health.AddCheck("database", deps.DB.HealthCheck)
	}
	if ping := deps.RedisPing(); ping != nil {
		health.AddCheck("redis", ping)
	}
	assistantHandler := handlers.NewAssistantHandler(deps.Assistant, deps.Logger)
	climateHandler := handlers.NewClimateHandler(deps.Climate, deps.Logger)

	// Health check endpoints
	r.Get("/healthz", health.HandleHealth)
	r.Get("/readyz", health.HandleReadiness)

	if deps.Config.Observability.MetricsEnabled {
		r.Handle("/metrics", promhttp.HandlerFor(deps.MetricsRegistry, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.NotFound(notFound)

		r.Get("/health", health.HandleStatus)
		r.Get("/local-climate/{city}", climateHandler.HandleLocalClimate)
		r.Get("/global-stats", climateHandler.HandleGlobalStats)
		r.Post("/submit-action", assistantHandler.HandleSubmitAction)

		// Generation endpoints
		r.Group(func(r chi.Router) {
			if deps.RateLimiter != nil {
				r.Use(deps.RateLimiter.Limit)
			}
			r.Post("/ai-assistant", assistantHandler.HandleAsk)
			r.Post("/action-plan", assistantHandler.HandleActionPlan)
			r.Post("/analyze-news", assistantHandler.HandleAnalyzeNews)
			r.Post("/carbon-footprint", assistantHandler.HandleCarbonFootprint)
		})
	})

	if dir := deps.Config.Server.StaticDir; dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			r.Handle("/*", http.FileServer(http.Dir(dir)))
		} else {
			deps.Logger.Info("static directory not found, serving API only", zap.String("dir", dir))
		}
	}

	return r
}

func allowedOrigins(deps *app.Dependencies) []string {
	if origins := deps.Config.Server.CORSAllowedOrigins; len(origins) > 0 {
		return origins
	}
	return []string{"*"}
}

func requestTimeout(deps *app.Dependencies) time.Duration {
	if timeout := deps.Config.Server.RequestTimeout; timeout > 0 {
		return timeout
	}
	return 70 * time.Second
}

func notFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write([]byte(`{"success":false,"error":"endpoint not found"}`))
}
