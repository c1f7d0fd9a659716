// Package orchestrator turns one "generate text for this prompt" request into
// a pass over a priority-ordered list of interchangeable model backends.
//
// Each backend gets exactly one attempt per call. The first backend that
// returns non-blank text wins; when every backend fails the caller receives
// an *ExhaustionError holding one Attempt per backend in input order. The
// orchestrator keeps no memory of earlier calls, so a failing backend is
// tried again on the next request.
package orchestrator

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
)

// BackendID names one generation backend. Its only ordering is its position
// in a priority list.
type BackendID string

// Invoker runs a single generation call against the backend named by id.
type Invoker interface {
	Invoke(ctx context.Context, id BackendID, prompt string) (string, error)
}

// Recorder receives per-attempt and per-call observations.
type Recorder interface {
	ObserveAttempt(backend BackendID, err error, elapsed time.Duration)
	ObserveGeneration(success bool, elapsed time.Duration)
}

var (
	// ErrEmptyPriority is returned when Generate is called without backends.
	ErrEmptyPriority = errors.New("backend priority list is empty")

	// ErrEmptyResponse marks an attempt whose backend answered with blank text.
	ErrEmptyResponse = errors.New("backend returned an empty response")
)

// Result is the outcome of a successful orchestration.
type Result struct {
	Text        string
	BackendUsed BackendID
	// Failed holds the attempts that failed before BackendUsed answered.
	Failed  []Attempt
	Latency time.Duration
}

// Orchestrator is safe for concurrent use; it holds only immutable
// collaborators.
type Orchestrator struct {
	invoker  Invoker
	logger   *zap.Logger
	recorder Recorder
	now      func() time.Time

	attemptTimeout time.Duration
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) {
		if r != nil {
			o.recorder = r
		}
	}
}

// WithClock overrides the time source used for latency measurements.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// WithAttemptTimeout bounds each backend call. The request context still
// bounds the whole call, so the budget is shared by every attempt.
func WithAttemptTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.attemptTimeout = d
		}
	}
}

// New creates an Orchestrator that reaches backends through invoker.
func New(invoker Invoker, logger *zap.Logger, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	o := &Orchestrator{
		invoker:  invoker,
		logger:   logger,
		recorder: nopRecorder{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Generate tries the backends in priority order and returns the first
// success. Backends are called one at a time; the next one is only tried
// after the previous call has settled.
func (o *Orchestrator) Generate(ctx context.Context, prompt string, priority []BackendID) (*Result, error) {
	if len(priority) == 0 {
		return nil, ErrEmptyPriority
	}

	start := o.now()
	attempts := make([]Attempt, 0, len(priority))

	for i, id := range priority {
		attemptStart := o.now()
		text, err := o.invoke(ctx, id, prompt)
		if err == nil && strings.TrimSpace(text) == "" {
			err = ErrEmptyResponse
		}
		elapsed := o.now().Sub(attemptStart)
		o.recorder.ObserveAttempt(id, err, elapsed)

		if err == nil {
			total := o.now().Sub(start)
			o.recorder.ObserveGeneration(true, total)
			o.logger.Info("generation succeeded",
				zap.String("backend", string(id)),
				zap.Int("attempt", i+1),
				zap.Int("failed_attempts", len(attempts)),
				zap.Duration("latency", total))
			return &Result{
				Text:        text,
				BackendUsed: id,
				Failed:      attempts,
				Latency:     total,
			}, nil
		}

		o.logger.Warn("backend attempt failed",
			zap.String("backend", string(id)),
			zap.Int("attempt", i+1),
			zap.Int("remaining", len(priority)-i-1),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
		attempts = append(attempts, Attempt{Backend: id, Err: err, Elapsed: elapsed})
	}

	total := o.now().Sub(start)
	o.recorder.ObserveGeneration(false, total)
	o.logger.Error("all backends failed",
		zap.Int("attempts", len(attempts)),
		zap.Duration("latency", total))

	return nil, &ExhaustionError{Attempts: attempts}
}

func (o *Orchestrator) invoke(ctx context.Context, id BackendID, prompt string) (string, error) {
	if o.attemptTimeout <= 0 {
		return o.invoker.Invoke(ctx, id, prompt)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, o.attemptTimeout)
	defer cancel()
	return o.invoker.Invoke(attemptCtx, id, prompt)
}

type nopRecorder struct{}

func (nopRecorder) ObserveAttempt(BackendID, error, time.Duration) {}
func (nopRecorder) ObserveGeneration(bool, time.Duration)          {}
