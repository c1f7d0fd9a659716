package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/upb/climate-action-ai/config"
	"github.com/upb/climate-action-ai/internal/observability"
	"github.com/upb/climate-action-ai/middleware"
	"github.com/upb/climate-action-ai/models"
	"github.com/upb/climate-action-ai/repositories"
	"github.com/upb/climate-action-ai/repositories/postgres"
	"github.com/upb/climate-action-ai/services/assistant"
	"github.com/upb/climate-action-ai/services/audit"
	"github.com/upb/climate-action-ai/services/backends"
	"github.com/upb/climate-action-ai/services/backends/gemini"
	"github.com/upb/climate-action-ai/services/backends/openai"
	"github.com/upb/climate-action-ai/services/cache"
	"github.com/upb/climate-action-ai/services/climate"
	"github.com/upb/climate-action-ai/services/orchestrator"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	Logger *zap.Logger

	// Metrics
	MetricsRegistry *prometheus.Registry
	Metrics         *observability.Metrics

	// Generation
	Backends     *backends.Registry
	Orchestrator *orchestrator.Orchestrator

	// Result cache
	CacheStore cache.Store
	redisStore *cache.RedisStore

	// Optional generation audit log
	DB             *postgres.DB
	GenerationLogs repositories.GenerationLogRepository
	Audit          audit.Recorder
	auditService   *audit.AuditService

	// Services
	Climate   *climate.Service
	Assistant *assistant.Service

	RateLimiter *middleware.RateLimiter

	extraBackends []backends.Backend
	assistantOpts []assistant.Option
}

// Option customizes dependency wiring
type Option func(*Dependencies)

// WithBackends registers additional backends next to the configured ones
func WithBackends(b ...backends.Backend) Option {
	return func(d *Dependencies) {
		d.extraBackends = append(d.extraBackends, b...)
	}
}

// WithAssistantOptions passes options to the assistant service
func WithAssistantOptions(opts ...assistant.Option) Option {
	return func(d *Dependencies) {
		d.assistantOpts = append(d.assistantOpts, opts...)
	}
}

// NewDependencies creates and wires up all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...Option) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
		Audit:  audit.NopRecorder{},
	}
	for _, opt := range opts {
		opt(deps)
	}

	if err := deps.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	if err := deps.initBackends(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize backends: %w", err)
	}

	if err := deps.initCache(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}

	if err := deps.initDatabase(ctx, cfg); err != nil {
		_ = deps.Close(ctx)
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps.initServices(cfg)

	logger.Info("all dependencies initialized successfully",
		zap.Strings("backends", deps.Backends.List()),
		zap.String("cache_driver", cfg.Cache.Driver),
		zap.Bool("audit_log", deps.auditService != nil))
	return deps, nil
}

// initMetrics creates a private registry with the Go and process collectors
func (d *Dependencies) initMetrics() error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	metrics, err := observability.NewMetrics(reg)
	if err != nil {
		return err
	}

	d.MetricsRegistry = reg
	d.Metrics = metrics
	return nil
}

// initBackends registers one backend per configured model and builds the
// orchestrator on top of the registry
func (d *Dependencies) initBackends(ctx context.Context, cfg *config.Config) error {
	registry := backends.NewRegistry(d.Logger)

	if cfg.Backends.Gemini.APIKey != "" {
		client, err := gemini.NewClient(ctx, backends.Config{
			APIKey:  cfg.Backends.Gemini.APIKey,
			BaseURL: cfg.Backends.Gemini.BaseURL,
			Timeout: cfg.Backends.Gemini.Timeout,
		})
		if err != nil {
			return err
		}
		for _, model := range geminiModels(cfg.Backends) {
			if err := registry.Register(gemini.NewBackend(client, model, cfg.Backends.Gemini.Timeout)); err != nil {
				return err
			}
		}
	} else {
		d.Logger.Warn("GEMINI_API_KEY not set, gemini backends disabled")
	}

	if cfg.Backends.OpenAI.APIKey != "" {
		for _, model := range cfg.Backends.OpenAI.Models {
			backend := openai.NewBackend(model, backends.Config{
				APIKey:  cfg.Backends.OpenAI.APIKey,
				BaseURL: cfg.Backends.OpenAI.BaseURL,
				Timeout: cfg.Backends.OpenAI.Timeout,
			})
			if err := registry.Register(backend); err != nil {
				return err
			}
		}
	}

	for _, b := range d.extraBackends {
		if err := registry.Register(b); err != nil {
			return err
		}
	}

	if registry.Count() == 0 {
		d.Logger.Warn("no model backends configured, generation endpoints will return 503")
	}
	for _, id := range allPriorityIDs(cfg.Backends) {
		if _, err := registry.Get(id); err != nil {
			d.Logger.Warn("backend in priority list is not registered", zap.String("backend", id))
		}
	}

	d.Backends = registry
	d.Orchestrator = orchestrator.New(registry, d.Logger,
		orchestrator.WithRecorder(d.Metrics),
		orchestrator.WithAttemptTimeout(cfg.Backends.AttemptTimeout()))
	return nil
}

// initCache creates the result cache store selected by CACHE_DRIVER
func (d *Dependencies) initCache(ctx context.Context, cfg *config.Config) error {
	switch cfg.Cache.Driver {
	case config.CacheDriverRedis:
		store, err := cache.NewRedisStore(ctx, cache.RedisConfig{
			Addr:      cfg.Cache.Redis.Addr,
			Password:  cfg.Cache.Redis.Password,
			DB:        cfg.Cache.Redis.DB,
			Namespace: cfg.Cache.Namespace,
		})
		if err != nil {
			return err
		}
		d.redisStore = store
		d.CacheStore = store
		d.Logger.Info("result cache connected to redis", zap.String("addr", cfg.Cache.Redis.Addr))
	default:
		d.CacheStore = cache.NewMemoryStore(cfg.Cache.CleanupInterval)
	}
	return nil
}

// initDatabase connects the optional generation audit log
func (d *Dependencies) initDatabase(ctx context.Context, cfg *config.Config) error {
	if cfg.Database == nil {
		d.Logger.Info("no database configured, generation audit log disabled")
		return nil
	}

	db, err := postgres.NewDB(*cfg.Database, d.Logger)
	if err != nil {
		return err
	}
	d.DB = db

	if err := db.InitSchema(ctx); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	d.GenerationLogs = postgres.NewGenerationLogRepository(db, d.Logger)
	d.auditService = audit.NewAuditService(d.GenerationLogs, d.Logger, audit.Config{
		BufferSize:  cfg.Audit.BufferSize,
		WorkerCount: cfg.Audit.Workers,
	})
	if err := d.auditService.Start(); err != nil {
		return fmt.Errorf("failed to start audit service: %w", err)
	}
	d.Audit = d.auditService

	d.Logger.Info("database connection established",
		zap.String("connection", cfg.Database.LogString()))
	return nil
}

func (d *Dependencies) initServices(cfg *config.Config) {
	snapshots := cache.New[models.ClimateSnapshot]("climate", d.CacheStore, d.Logger,
		cache.WithDefaultTTL(cfg.Cache.TTL),
		cache.WithRecorder(d.Metrics))
	d.Climate = climate.NewService(climate.NewMockProvider(), snapshots, cfg.Cache.TTL, d.Logger)

	opts := append([]assistant.Option{assistant.WithRecorder(d.Audit)}, d.assistantOpts...)
	d.Assistant = assistant.NewService(d.Orchestrator, cfg.Backends, d.Logger, opts...)

	if cfg.RateLimit.Enabled {
		d.RateLimiter = middleware.NewRateLimiter(middleware.RateLimiterConfig{
			RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
			Burst:             cfg.RateLimit.Burst,
		}, d.Logger)
	}
}

// RedisPing reports whether the shared cache is reachable. Nil when the
// memory store is in use.
func (d *Dependencies) RedisPing() func(ctx context.Context) error {
	if d.redisStore == nil {
		return nil
	}
	return d.redisStore.Ping
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.RateLimiter != nil {
		d.RateLimiter.Stop()
	}

	// Drain queued generation logs before the database goes away
	if d.auditService != nil {
		timeout := 5 * time.Second
		if deadline, ok := ctx.Deadline(); ok {
			timeout = time.Until(deadline)
		}
		if err := d.auditService.Stop(timeout); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop audit service: %w", err))
		}
	}

	if d.redisStore != nil {
		if err := d.redisStore.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis: %w", err))
		}
	}

	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}

// geminiModels returns every non-OpenAI id referenced by the priority lists,
// in first-seen order
func geminiModels(cfg config.BackendsConfig) []string {
	var ids []string
	for _, id := range allPriorityIDs(cfg) {
		if !strings.HasPrefix(id, openai.IDPrefix) {
			ids = append(ids, id)
		}
	}
	return ids
}

func allPriorityIDs(cfg config.BackendsConfig) []string {
	seen := make(map[string]bool)
	var ids []string
	add := func(list []string) {
		for _, id := range list {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}

	add(cfg.Priority)
	for _, endpoint := range []models.Endpoint{
		models.EndpointAssistant,
		models.EndpointActionPlan,
		models.EndpointNews,
		models.EndpointFootprint,
		models.EndpointCLI,
	} {
		add(cfg.Endpoints[string(endpoint)])
	}
	return ids
}
