package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/upb/climate-action-ai/models"
	"github.com/upb/climate-action-ai/repositories"
	"go.uber.org/zap"
)

// Recorder accepts generation outcomes for auditing. Record must not block
// the calling request.
type Recorder interface {
	Record(log *models.GenerationLog)
}

// NopRecorder discards every record. It is used when no database is configured.
type NopRecorder struct{}

// Record implements Recorder
func (NopRecorder) Record(*models.GenerationLog) {}

// AuditService writes generation logs asynchronously through a worker pool
type AuditService struct {
	repo        repositories.GenerationLogRepository
	logger      *zap.Logger
	eventChan   chan *models.GenerationLog
	workerCount int
	bufferSize  int
	wg          sync.WaitGroup
	started     bool
	stopped     bool
	mu          sync.Mutex
}

// Config holds configuration for the AuditService
type Config struct {
	BufferSize  int // Size of the event buffer channel
	WorkerCount int // Number of concurrent workers
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		BufferSize:  1000,
		WorkerCount: 2,
	}
}

// NewAuditService creates a new AuditService instance
func NewAuditService(repo repositories.GenerationLogRepository, logger *zap.Logger, config Config) *AuditService {
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultConfig().BufferSize
	}
	if config.WorkerCount <= 0 {
		config.WorkerCount = DefaultConfig().WorkerCount
	}

	return &AuditService{
		repo:        repo,
		logger:      logger,
		eventChan:   make(chan *models.GenerationLog, config.BufferSize),
		workerCount: config.WorkerCount,
		bufferSize:  config.BufferSize,
	}
}

// Start starts the background workers
func (s *AuditService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("audit service already started")
	}

	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.started = true
	s.logger.Info("started audit service",
		zap.Int("worker_count", s.workerCount),
		zap.Int("buffer_size", s.bufferSize))

	return nil
}

// Stop gracefully stops the audit service
// Waits for pending logs to be written or for timeout to elapse
func (s *AuditService) Stop(timeout time.Duration) error {
	s.mu.Lock()
	if !s.started || s.stopped {
		s.mu.Unlock()
		return fmt.Errorf("audit service not running")
	}
	s.stopped = true
	pending := len(s.eventChan)
	close(s.eventChan)
	s.mu.Unlock()

	s.logger.Info("stopping audit service", zap.Int("pending_events", pending))

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("audit service stopped gracefully")
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("audit service stop timeout after %v", timeout)
	}
}

// LogEvent queues log without blocking. A full buffer drops the entry.
func (s *AuditService) LogEvent(log *models.GenerationLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started || s.stopped {
		return fmt.Errorf("audit service not running")
	}

	select {
	case s.eventChan <- log:
		return nil
	default:
		s.logger.Warn("audit event channel full, dropping event",
			zap.String("endpoint", string(log.Endpoint)),
			zap.String("request_id", log.RequestID))
		return fmt.Errorf("audit event buffer full")
	}
}

// Record implements Recorder. Queueing failures are logged and swallowed.
func (s *AuditService) Record(log *models.GenerationLog) {
	if err := s.LogEvent(log); err != nil {
		s.logger.Debug("generation log not queued", zap.Error(err))
	}
}

func (s *AuditService) worker(id int) {
	defer s.wg.Done()

	s.logger.Debug("audit worker started", zap.Int("worker_id", id))

	for log := range s.eventChan {
		if err := s.processEvent(log); err != nil {
			s.logger.Error("failed to write generation log",
				zap.Int("worker_id", id),
				zap.Error(err),
				zap.String("endpoint", string(log.Endpoint)),
				zap.String("request_id", log.RequestID))
		}
	}

	s.logger.Debug("audit worker stopped", zap.Int("worker_id", id))
}

func (s *AuditService) processEvent(log *models.GenerationLog) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.repo.Insert(ctx, log); err != nil {
		return fmt.Errorf("failed to insert generation log: %w", err)
	}

	return nil
}

// GetStats returns statistics about the audit service
func (s *AuditService) GetStats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Stats{
		BufferSize:    s.bufferSize,
		PendingEvents: len(s.eventChan),
		WorkerCount:   s.workerCount,
		Started:       s.started && !s.stopped,
	}
}

// Stats represents audit service statistics
type Stats struct {
	BufferSize    int
	PendingEvents int
	WorkerCount   int
	Started       bool
}
