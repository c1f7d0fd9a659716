package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/upb/climate-action-ai/models"
)

// GenerationLogRepository persists orchestration outcomes
type GenerationLogRepository interface {
	// Insert stores a new generation log entry
	Insert(ctx context.Context, log *models.GenerationLog) error

	// GetByID retrieves a generation log by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.GenerationLog, error)

	// GetByRequestID retrieves all generation logs for an HTTP request
	GetByRequestID(ctx context.Context, requestID string) ([]*models.GenerationLog, error)

	// ListRecent returns the newest entries first
	ListRecent(ctx context.Context, limit int) ([]*models.GenerationLog, error)
}
