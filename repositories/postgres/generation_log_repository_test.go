package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/climate-action-ai/models"
	"go.uber.org/zap/zaptest"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return Wrap(sqlDB, zaptest.NewLogger(t)), mock
}

var columns = []string{"id", "request_id", "endpoint", "backend_used", "success", "attempts", "latency_ms", "error_message", "created_at"}

func TestGenerationLogRepository_Insert(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGenerationLogRepository(db, zaptest.NewLogger(t))

	log := models.NewGenerationLog(models.EndpointAssistant, "req-1").
		WithSuccess("gemini-2.5-pro").
		WithAttempts([]models.AttemptRecord{{Backend: "gemini-2.5-flash", Reason: "timeout"}}).
		WithLatency(120 * time.Millisecond)

	mock.ExpectExec("INSERT INTO generation_logs").
		WithArgs(
			log.ID,
			"req-1",
			"assistant",
			"gemini-2.5-pro",
			true,
			[]byte(`[{"backend":"gemini-2.5-flash","reason":"timeout"}]`),
			120,
			nil,
			sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Insert(context.Background(), log))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerationLogRepository_InsertError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGenerationLogRepository(db, zaptest.NewLogger(t))

	mock.ExpectExec("INSERT INTO generation_logs").WillReturnError(errors.New("connection reset"))

	err := repo.Insert(context.Background(), models.NewGenerationLog(models.EndpointNews, "req-2").WithFailure("all backends failed"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to insert generation log")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerationLogRepository_GetByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGenerationLogRepository(db, zaptest.NewLogger(t))

	id := uuid.New()
	created := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT (.+) FROM generation_logs WHERE id = \\$1").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(id.String(), "req-3", "footprint", nil, false, []byte(`[]`), 900, "all backends failed", created))

	log, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)

	assert.Equal(t, id, log.ID)
	assert.Equal(t, models.EndpointFootprint, log.Endpoint)
	assert.Nil(t, log.BackendUsed)
	assert.False(t, log.Success)
	require.NotNil(t, log.ErrorMessage)
	assert.Equal(t, "all backends failed", *log.ErrorMessage)
	assert.Equal(t, 900, log.LatencyMs)
	assert.Equal(t, created, log.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerationLogRepository_GetByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGenerationLogRepository(db, zaptest.NewLogger(t))

	id := uuid.New()
	mock.ExpectQuery("SELECT (.+) FROM generation_logs").WithArgs(id).WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), id)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestGenerationLogRepository_ListRecent(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGenerationLogRepository(db, zaptest.NewLogger(t))

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT (.+) FROM generation_logs\\s+ORDER BY created_at DESC\\s+LIMIT \\$1").
		WithArgs(50).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(uuid.NewString(), "a", "news", "gemini-2.5-flash", true, []byte(`[]`), 10, nil, now).
			AddRow(uuid.NewString(), "b", "assistant", "gemini-2.5-pro", true, []byte(`[{"backend":"gemini-2.5-flash","reason":"rate_limited"}]`), 20, nil, now.Add(-time.Minute)))

	logs, err := repo.ListRecent(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "a", logs[0].RequestID)
	require.NotNil(t, logs[1].BackendUsed)
	assert.Equal(t, "gemini-2.5-pro", *logs[1].BackendUsed)
	assert.JSONEq(t, `[{"backend":"gemini-2.5-flash","reason":"rate_limited"}]`, string(logs[1].Attempts))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerationLogRepository_GetByRequestID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGenerationLogRepository(db, zaptest.NewLogger(t))

	mock.ExpectQuery("WHERE request_id = \\$1").
		WithArgs("req-9").
		WillReturnRows(sqlmock.NewRows(columns))

	logs, err := repo.GetByRequestID(context.Background(), "req-9")
	require.NoError(t, err)
	assert.Empty(t, logs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDB_HealthCheck(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectPing()
		mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

		assert.NoError(t, db.HealthCheck(context.Background()))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ping fails", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectPing().WillReturnError(errors.New("connection refused"))

		err := db.HealthCheck(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database health check failed")
	})
}

func TestDB_InitSchema(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS generation_logs").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, db.InitSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
