// Package gemini implements backends.Backend on top of the Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/upb/climate-action-ai/services/backends"
	"google.golang.org/genai"
)

// NewClient creates a Gemini API client shared by every model backend.
func NewClient(ctx context.Context, cfg backends.Config) (*genai.Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = cfg.BaseURL
	}
	if len(cfg.Headers) > 0 {
		clientCfg.HTTPOptions.Headers = make(http.Header, len(cfg.Headers))
		for k, v := range cfg.Headers {
			clientCfg.HTTPOptions.Headers.Set(k, v)
		}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return client, nil
}

// Backend generates text with one Gemini model.
type Backend struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewBackend creates a backend for model using client.
func NewBackend(client *genai.Client, model string, timeout time.Duration) *Backend {
	return &Backend{
		client:  client,
		model:   model,
		timeout: timeout,
	}
}

// Name returns the model name, which is also the backend id.
func (b *Backend) Name() string {
	return b.model
}

// Generate sends prompt as a single user turn and returns the concatenated
// text parts of the first candidate.
func (b *Backend) Generate(ctx context.Context, prompt string) (string, error) {
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	resp, err := b.client.Models.GenerateContent(ctx, b.model, genai.Text(prompt), nil)
	if err != nil {
		return "", b.wrapError(err)
	}

	text, finishReason := extractText(resp)
	if strings.TrimSpace(text) == "" {
		msg := "response contained no text"
		if finishReason != "" {
			msg += " (finish reason " + finishReason + ")"
		}
		return "", backends.NewBackendError(b.model, backends.CodeEmptyResponse, msg, http.StatusOK, nil)
	}
	return text, nil
}

func (b *Backend) wrapError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return backends.NewBackendError(b.model, backends.CodeTransport, "request did not complete", 0, err)
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		msg := apiErr.Status
		if msg == "" {
			msg = "gemini api error"
		}
		return backends.NewBackendError(b.model, backends.CodeAPI, msg, apiErr.Code, err)
	}

	return backends.NewBackendError(b.model, backends.CodeTransport, "gemini request failed", 0, err)
}

func extractText(resp *genai.GenerateContentResponse) (string, string) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", ""
	}
	candidate := resp.Candidates[0]
	finishReason := string(candidate.FinishReason)
	if candidate.Content == nil {
		return "", finishReason
	}

	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		b.WriteString(part.Text)
	}
	return b.String(), finishReason
}
