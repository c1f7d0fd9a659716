package climate

import (
	"context"
	"time"

	"github.com/upb/climate-action-ai/models"
	"github.com/upb/climate-action-ai/services"
	"github.com/upb/climate-action-ai/services/cache"
	"go.uber.org/zap"
)

// Sources are the data sources credited in global stats responses.
var Sources = []string{"NASA", "NOAA", "IPCC"}

// Service reads climate data through a result cache.
type Service struct {
	provider Provider
	cache    *cache.Cache[models.ClimateSnapshot]
	ttl      time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewService creates a climate service. A ttl <= 0 uses the cache default.
func NewService(provider Provider, snapshots *cache.Cache[models.ClimateSnapshot], ttl time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		provider: provider,
		cache:    snapshots,
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
	}
}

// CacheKey returns the cache key for city.
func CacheKey(city string) string {
	return "climate_" + city
}

// LocalClimate returns the snapshot for city, from cache when fresh.
func (s *Service) LocalClimate(ctx context.Context, city string) (*models.ClimateSnapshot, error) {
	city = NormalizeCity(city)
	if city == "" {
		return nil, services.NewDomainError(services.ErrorTypeValidation, "city is required", services.ErrInvalidInput)
	}

	key := CacheKey(city)
	if cached, ok := s.cache.Get(ctx, key); ok {
		s.logger.Debug("climate snapshot served from cache", zap.String("city", city))
		return &cached, nil
	}

	snapshot, err := s.provider.Snapshot(ctx, city)
	if err != nil {
		s.logger.Error("failed to fetch climate snapshot", zap.String("city", city), zap.Error(err))
		return nil, services.WrapInternal("Failed to fetch climate data", err)
	}

	s.cache.Set(ctx, key, *snapshot, s.ttl)
	return snapshot, nil
}

// GlobalStats returns the global indicators with provenance.
func (s *Service) GlobalStats(ctx context.Context) (*models.GlobalStatsReport, error) {
	stats, err := s.provider.GlobalStats(ctx)
	if err != nil {
		s.logger.Error("failed to fetch global stats", zap.Error(err))
		return nil, services.WrapInternal("Failed to fetch global stats", err)
	}

	return &models.GlobalStatsReport{
		Success:     true,
		Stats:       stats,
		LastUpdated: s.now().UTC(),
		Sources:     Sources,
		Urgency:     "critical",
	}, nil
}

// CacheStats exposes the snapshot cache counters.
func (s *Service) CacheStats() cache.Stats {
	return s.cache.Stats()
}
