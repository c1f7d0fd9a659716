// Package assistant implements the generation endpoints: the climate
// assistant, action plans, news analysis and carbon footprints. Every
// generation goes through the orchestrator with the backend priority
// configured for its endpoint and leaves one entry in the generation log.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/upb/climate-action-ai/config"
	"github.com/upb/climate-action-ai/models"
	"github.com/upb/climate-action-ai/services"
	"github.com/upb/climate-action-ai/services/audit"
	"github.com/upb/climate-action-ai/services/backends"
	"github.com/upb/climate-action-ai/services/orchestrator"
	"github.com/upb/climate-action-ai/services/prompts"
	"go.uber.org/zap"
)

const (
	CommunitySize  = 1247
	GlobalAverage  = 4.8
	CountryAverage = 8.5
	CommunityTotal = "24,567 kg CO2 saved today"
	ActionMessage  = "Great job! Every action counts! 🌱"
	ChampionBadge  = "Climate Champion 🏆"

	// championThreshold is the score above which an action earns the badge
	championThreshold = 40
)

// failure messages returned to clients per endpoint
var failureMessages = map[models.Endpoint]string{
	models.EndpointAssistant:  "Failed to get AI response",
	models.EndpointCLI:        "Failed to get AI response",
	models.EndpointActionPlan: "Failed to generate action plan",
	models.EndpointNews:       "Failed to analyze news",
	models.EndpointFootprint:  "Failed to calculate footprint",
}

// Generator is the orchestrator entry point used by the service
type Generator interface {
	Generate(ctx context.Context, prompt string, priority []orchestrator.BackendID) (*orchestrator.Result, error)
}

// Service serves the generation endpoints
type Service struct {
	generator   Generator
	backends    config.BackendsConfig
	recorder    audit.Recorder
	logger      *zap.Logger
	now         func() time.Time
	askEndpoint models.Endpoint

	mu  sync.Mutex
	rng *rand.Rand
}

// Option configures a Service
type Option func(*Service)

// WithRecorder sets where generation logs are sent
func WithRecorder(r audit.Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRand overrides the source of the mock scores
func WithRand(rng *rand.Rand) Option {
	return func(s *Service) {
		if rng != nil {
			s.rng = rng
		}
	}
}

// WithAskEndpoint changes the endpoint Ask is logged and routed under.
// The CLI uses models.EndpointCLI.
func WithAskEndpoint(endpoint models.Endpoint) Option {
	return func(s *Service) {
		s.askEndpoint = endpoint
	}
}

// NewService creates a new assistant service
func NewService(generator Generator, backendsCfg config.BackendsConfig, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		generator:   generator,
		backends:    backendsCfg,
		recorder:    audit.NopRecorder{},
		logger:      logger,
		now:         time.Now,
		askEndpoint: models.EndpointAssistant,
		rng:         rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ask answers a climate question
func (s *Service) Ask(ctx context.Context, req AskRequest) (*models.AssistantAnswer, error) {
	if strings.TrimSpace(req.Question) == "" {
		return nil, services.ErrEmptyQuestion
	}

	prompt, err := prompts.Assistant(prompts.AssistantInput{
		Question: req.Question,
		Location: req.Location,
		Context:  req.Context,
	})
	if err != nil {
		return nil, services.WrapInternal("Failed to build prompt", err)
	}

	result, err := s.generate(ctx, s.askEndpoint, req.RequestID, prompt)
	if err != nil {
		return nil, err
	}

	return &models.AssistantAnswer{
		Success:   true,
		Answer:    result.Text,
		Model:     string(result.BackendUsed),
		Timestamp: s.now().UTC(),
	}, nil
}

// ActionPlan builds a personalized 30-day action plan
func (s *Service) ActionPlan(ctx context.Context, req ActionPlanRequest) (*models.ActionPlan, error) {
	if err := requireFields(map[string]string{
		"location":  req.Location,
		"lifestyle": req.Lifestyle,
		"concerns":  req.Concerns,
	}); err != nil {
		return nil, err
	}

	prompt, err := prompts.ActionPlan(prompts.ActionPlanInput{
		Location:  req.Location,
		Lifestyle: req.Lifestyle,
		Concerns:  req.Concerns,
	})
	if err != nil {
		return nil, services.WrapInternal("Failed to build prompt", err)
	}

	result, err := s.generate(ctx, models.EndpointActionPlan, req.RequestID, prompt)
	if err != nil {
		return nil, err
	}

	return &models.ActionPlan{
		Success:       true,
		ActionPlan:    result.Text,
		Model:         string(result.BackendUsed),
		CarbonGoal:    s.randIntN(500) + 200,
		CommunitySize: CommunitySize,
	}, nil
}

// AnalyzeNews explains a news article for the general public
func (s *Service) AnalyzeNews(ctx context.Context, req NewsRequest) (*models.NewsAnalysis, error) {
	if err := requireFields(map[string]string{
		"headline": req.Headline,
		"article":  req.Article,
	}); err != nil {
		return nil, err
	}

	prompt, err := prompts.News(prompts.NewsInput{
		Headline: req.Headline,
		Article:  req.Article,
	})
	if err != nil {
		return nil, services.WrapInternal("Failed to build prompt", err)
	}

	result, err := s.generate(ctx, models.EndpointNews, req.RequestID, prompt)
	if err != nil {
		return nil, err
	}

	return &models.NewsAnalysis{
		Success:  true,
		Analysis: result.Text,
		Model:    string(result.BackendUsed),
	}, nil
}

// CarbonFootprint estimates the yearly footprint and asks for reduction
// strategies. The numeric estimate is a mock between 6 and 11 tons.
func (s *Service) CarbonFootprint(ctx context.Context, req FootprintRequest) (*models.FootprintReport, error) {
	if err := requireFields(map[string]string{
		"transport": req.Transport,
		"energy":    req.Energy,
		"diet":      req.Diet,
		"shopping":  req.Shopping,
	}); err != nil {
		return nil, err
	}

	prompt, err := prompts.Footprint(prompts.FootprintInput{
		Transport: req.Transport,
		Energy:    req.Energy,
		Diet:      req.Diet,
		Shopping:  req.Shopping,
		Location:  req.Location,
	})
	if err != nil {
		return nil, services.WrapInternal("Failed to build prompt", err)
	}

	result, err := s.generate(ctx, models.EndpointFootprint, req.RequestID, prompt)
	if err != nil {
		return nil, err
	}

	return &models.FootprintReport{
		Success:        true,
		Footprint:      fmt.Sprintf("%.1f", s.randFloat()*5+6),
		Analysis:       result.Text,
		Model:          string(result.BackendUsed),
		GlobalAverage:  GlobalAverage,
		CountryAverage: CountryAverage,
	}, nil
}

// SubmitAction scores a reported action. Nothing is persisted.
func (s *Service) SubmitAction(_ context.Context, req SubmitActionRequest) (*models.ActionSubmission, error) {
	if err := requireFields(map[string]string{"action": req.Action}); err != nil {
		return nil, err
	}

	points := s.randIntN(50) + 10
	saved := s.randFloat() * 5

	var badge *string
	if points > championThreshold {
		b := ChampionBadge
		badge = &b
	}

	s.logger.Debug("action submitted",
		zap.String("action", req.Action),
		zap.Int("points", points))

	return &models.ActionSubmission{
		Success:        true,
		Message:        ActionMessage,
		PointsEarned:   points,
		CO2Saved:       fmt.Sprintf("%.2f kg", saved),
		Badge:          badge,
		CommunityTotal: CommunityTotal,
	}, nil
}

// Priority returns the backend order used for endpoint
func (s *Service) Priority(endpoint models.Endpoint) []orchestrator.BackendID {
	ids := s.backends.PriorityFor(string(endpoint))
	priority := make([]orchestrator.BackendID, len(ids))
	for i, id := range ids {
		priority[i] = orchestrator.BackendID(id)
	}
	return priority
}

// generate runs one orchestration and records its outcome
func (s *Service) generate(ctx context.Context, endpoint models.Endpoint, requestID, prompt string) (*orchestrator.Result, error) {
	start := s.now()
	result, err := s.generator.Generate(ctx, prompt, s.Priority(endpoint))
	entry := models.NewGenerationLog(endpoint, requestID).WithLatency(s.now().Sub(start))

	if err != nil {
		mapped := s.mapError(endpoint, err)
		var attempts []models.AttemptRecord
		if exhausted, ok := orchestrator.AsExhaustion(err); ok {
			attempts = AttemptRecords(exhausted.Attempts)
		}
		s.recorder.Record(entry.WithFailure(err.Error()).WithAttempts(attempts))

		s.logger.Error("generation failed",
			zap.String("endpoint", string(endpoint)),
			zap.String("request_id", requestID),
			zap.Error(err))
		return nil, mapped
	}

	s.recorder.Record(entry.
		WithSuccess(string(result.BackendUsed)).
		WithAttempts(AttemptRecords(result.Failed)))

	return result, nil
}

func (s *Service) mapError(endpoint models.Endpoint, err error) error {
	if errors.Is(err, orchestrator.ErrEmptyPriority) {
		return services.ErrEmptyPriority
	}
	if exhausted, ok := orchestrator.AsExhaustion(err); ok {
		return services.WrapUnavailable(failureMessages[endpoint], exhausted).
			WithDetail("attempts", AttemptRecords(exhausted.Attempts))
	}
	return services.WrapInternal(failureMessages[endpoint], err)
}

// AttemptRecords converts failed attempts into their client-safe form
func AttemptRecords(attempts []orchestrator.Attempt) []models.AttemptRecord {
	records := make([]models.AttemptRecord, 0, len(attempts))
	for _, a := range attempts {
		records = append(records, models.AttemptRecord{
			Backend: string(a.Backend),
			Reason:  backends.Classify(a.Err),
		})
	}
	return records
}

func requireFields(fields map[string]string) error {
	var missing []string
	for name, value := range fields {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	slices.Sort(missing)
	return services.NewDomainError(services.ErrorTypeValidation,
		fmt.Sprintf("missing required fields: %s", strings.Join(missing, ", ")), nil).
		WithDetail("fields", missing)
}

func (s *Service) randIntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}

func (s *Service) randFloat() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}
