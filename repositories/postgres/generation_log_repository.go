package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/upb/climate-action-ai/models"
	"github.com/upb/climate-action-ai/repositories"
	"go.uber.org/zap"
)

const generationLogColumns = `id, request_id, endpoint, backend_used, success, attempts, latency_ms, error_message, created_at`

// GenerationLogRepository implements repositories.GenerationLogRepository
type GenerationLogRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewGenerationLogRepository creates a new generation log repository
func NewGenerationLogRepository(db *DB, logger *zap.Logger) repositories.GenerationLogRepository {
	return &GenerationLogRepository{
		db:     db,
		logger: logger,
	}
}

// Insert inserts a new generation log entry
func (r *GenerationLogRepository) Insert(ctx context.Context, log *models.GenerationLog) error {
	query := `
		INSERT INTO generation_logs (` + generationLogColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	attempts := log.Attempts
	if len(attempts) == 0 {
		attempts = []byte("[]")
	}

	_, err := r.db.ExecContext(ctx, query,
		log.ID,
		log.RequestID,
		log.Endpoint,
		log.BackendUsed,
		log.Success,
		[]byte(attempts),
		log.LatencyMs,
		log.ErrorMessage,
		log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert generation log: %w", err)
	}

	r.logger.Debug("generation log inserted", zap.String("id", log.ID.String()), zap.String("endpoint", string(log.Endpoint)))
	return nil
}

// GetByID retrieves a generation log by ID
func (r *GenerationLogRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.GenerationLog, error) {
	query := `SELECT ` + generationLogColumns + ` FROM generation_logs WHERE id = $1`

	log, err := scanGenerationLog(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("generation log not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get generation log: %w", err)
	}
	return log, nil
}

// GetByRequestID retrieves all generation logs written for an HTTP request
func (r *GenerationLogRepository) GetByRequestID(ctx context.Context, requestID string) ([]*models.GenerationLog, error) {
	query := `
		SELECT ` + generationLogColumns + `
		FROM generation_logs
		WHERE request_id = $1
		ORDER BY created_at ASC
	`
	return r.queryGenerationLogs(ctx, query, requestID)
}

// ListRecent returns up to limit entries, newest first
func (r *GenerationLogRepository) ListRecent(ctx context.Context, limit int) ([]*models.GenerationLog, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT ` + generationLogColumns + `
		FROM generation_logs
		ORDER BY created_at DESC
		LIMIT $1
	`
	return r.queryGenerationLogs(ctx, query, limit)
}

func (r *GenerationLogRepository) queryGenerationLogs(ctx context.Context, query string, args ...interface{}) ([]*models.GenerationLog, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query generation logs: %w", err)
	}
	defer rows.Close()

	var logs []*models.GenerationLog
	for rows.Next() {
		log, err := scanGenerationLog(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan generation log: %w", err)
		}
		logs = append(logs, log)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating generation logs: %w", err)
	}

	return logs, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanGenerationLog(row rowScanner) (*models.GenerationLog, error) {
	log := &models.GenerationLog{}
	var attempts []byte

	err := row.Scan(
		&log.ID,
		&log.RequestID,
		&log.Endpoint,
		&log.BackendUsed,
		&log.Success,
		&attempts,
		&log.LatencyMs,
		&log.ErrorMessage,
		&log.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	log.Attempts = attempts
	return log, nil
}
