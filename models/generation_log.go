package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Endpoint identifies which API operation triggered a generation
type Endpoint string

const (
	EndpointAssistant  Endpoint = "assistant"
	EndpointActionPlan Endpoint = "action_plan"
	EndpointNews       Endpoint = "news"
	EndpointFootprint  Endpoint = "footprint"
	EndpointCLI        Endpoint = "cli"
)

// AttemptRecord is the persisted form of one failed backend attempt
type AttemptRecord struct {
	Backend string `json:"backend"`
	Reason  string `json:"reason"`
}

// GenerationLog records the outcome of one orchestrated generation
type GenerationLog struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	RequestID    string          `json:"request_id" db:"request_id"`
	Endpoint     Endpoint        `json:"endpoint" db:"endpoint"`
	BackendUsed  *string         `json:"backend_used,omitempty" db:"backend_used"`
	Success      bool            `json:"success" db:"success"`
	Attempts     json.RawMessage `json:"attempts" db:"attempts"` // JSONB list of AttemptRecord
	LatencyMs    int             `json:"latency_ms" db:"latency_ms"`
	ErrorMessage *string         `json:"error_message,omitempty" db:"error_message"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the GenerationLog model
func (GenerationLog) TableName() string {
	return "generation_logs"
}

// NewGenerationLog creates a log entry for endpoint
func NewGenerationLog(endpoint Endpoint, requestID string) *GenerationLog {
	return &GenerationLog{
		ID:        uuid.New(),
		RequestID: requestID,
		Endpoint:  endpoint,
		Attempts:  json.RawMessage("[]"),
		CreatedAt: time.Now(),
	}
}

// WithSuccess marks the generation as served by backend
func (g *GenerationLog) WithSuccess(backend string) *GenerationLog {
	g.Success = true
	g.BackendUsed = &backend
	return g
}

// WithFailure marks the generation as failed
func (g *GenerationLog) WithFailure(message string) *GenerationLog {
	g.Success = false
	g.ErrorMessage = &message
	return g
}

// WithAttempts sets the failed attempts
func (g *GenerationLog) WithAttempts(attempts []AttemptRecord) *GenerationLog {
	if attempts == nil {
		attempts = []AttemptRecord{}
	}
	if data, err := json.Marshal(attempts); err == nil {
		g.Attempts = data
	}
	return g
}

// WithLatency sets the total generation latency
func (g *GenerationLog) WithLatency(d time.Duration) *GenerationLog {
	g.LatencyMs = int(d.Milliseconds())
	return g
}
