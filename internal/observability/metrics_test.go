package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/climate-action-ai/services/backends"
	"github.com/upb/climate-action-ai/services/orchestrator"
	"go.uber.org/zap/zaptest"
)

func newTestMetrics(t *testing.T) (*Metrics, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)
	return m, reg
}

func TestNewMetrics_DoubleRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewMetrics(reg)
	require.NoError(t, err)

	_, err = NewMetrics(reg)
	assert.Error(t, err)
}

func TestMetrics_ObserveAttempt(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.ObserveAttempt("gemini-2.5-flash", backends.NewBackendError("gemini-2.5-flash", backends.CodeAPI, "quota", 429, nil), time.Second)
	m.ObserveAttempt("gemini-2.5-flash", context.DeadlineExceeded, time.Second)
	m.ObserveAttempt("gemini-2.5-pro", nil, time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.backendAttempts.WithLabelValues("gemini-2.5-flash", backends.ReasonRateLimited)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.backendAttempts.WithLabelValues("gemini-2.5-flash", backends.ReasonTimeout)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.backendAttempts.WithLabelValues("gemini-2.5-pro", OutcomeSuccess)))
}

func TestMetrics_ObserveGeneration(t *testing.T) {
	m, reg := newTestMetrics(t)

	m.ObserveGeneration(true, 2*time.Second)
	m.ObserveGeneration(false, 5*time.Second)
	m.ObserveGeneration(false, 5*time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.generationExhausted))
	count, err := testutil.GatherAndCount(reg, "climate_generation_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "one series per outcome")
}

func TestMetrics_WithOrchestrator(t *testing.T) {
	m, _ := newTestMetrics(t)

	registry := backends.NewRegistry(zaptest.NewLogger(t))
	o := orchestrator.New(registry, zaptest.NewLogger(t), orchestrator.WithRecorder(m))

	_, err := o.Generate(context.Background(), "q", []orchestrator.BackendID{"missing-a", "missing-b"})
	var exhausted *orchestrator.ExhaustionError
	require.True(t, errors.As(err, &exhausted))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.backendAttempts.WithLabelValues("missing-a", backends.ReasonNotRegistered)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.backendAttempts.WithLabelValues("missing-b", backends.ReasonNotRegistered)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.generationExhausted))
}

func TestMetrics_ObserveCacheLookup(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.ObserveCacheLookup("climate", true)
	m.ObserveCacheLookup("climate", false)
	m.ObserveCacheLookup("climate", false)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("climate", "hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("climate", "miss")))
}

func TestMetrics_ObserveHTTPRequest(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.ObserveHTTPRequest("GET", "/api/local-climate/{city}", 200, 10*time.Millisecond)
	m.ObserveHTTPRequest("GET", "", 404, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/local-climate/{city}", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "unmatched", "404")))
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		format  string
		wantErr string
	}{
		{"json info", "info", "json", ""},
		{"console debug", "debug", "console", ""},
		{"defaults", "", "", ""},
		{"upper case", "WARN", "JSON", ""},
		{"invalid level", "verbose", "json", "invalid log level"},
		{"invalid format", "info", "xml", "invalid log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.level, tt.format)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, logger)
		})
	}
}
