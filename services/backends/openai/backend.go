// Package openai implements backends.Backend for OpenAI-compatible chat
// completion APIs.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/upb/climate-action-ai/services/backends"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"

	// IDPrefix distinguishes OpenAI backends from Gemini model names.
	IDPrefix = "openai/"
)

// Backend generates text with one OpenAI-compatible model.
type Backend struct {
	config     backends.Config
	model      string
	httpClient *http.Client
}

// NewBackend creates a backend for model. The backend id is "openai/<model>".
func NewBackend(model string, config backends.Config) *Backend {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	if config.Timeout == 0 {
		config.Timeout = 20 * time.Second
	}

	return &Backend{
		config: config,
		model:  model,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// Name returns the backend id
func (b *Backend) Name() string {
	return IDPrefix + b.model
}

// Generate performs a single chat completion request with prompt as the only
// user message. No retries are made here.
func (b *Backend) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody, err := json.Marshal(chatRequest{
		Model:    b.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", backends.NewBackendError(b.Name(), backends.CodeRequest, "failed to marshal request", 0, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.config.BaseURL+"/chat/completions", bytes.NewReader(reqBody))
	if err != nil {
		return "", backends.NewBackendError(b.Name(), backends.CodeRequest, "failed to create request", 0, err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+b.config.APIKey)
	for k, v := range b.config.Headers {
		httpReq.Header.Set(k, v)
	}

	httpResp, err := b.httpClient.Do(httpReq)
	if err != nil {
		return "", backends.NewBackendError(b.Name(), backends.CodeTransport, "HTTP request failed", 0, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return "", backends.NewBackendError(b.Name(), backends.CodeReadBody, "failed to read response", httpResp.StatusCode, err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return "", b.handleErrorResponse(httpResp.StatusCode, respBody)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", backends.NewBackendError(b.Name(), backends.CodeDecode, "failed to unmarshal response", httpResp.StatusCode, err)
	}

	if len(chatResp.Choices) == 0 || strings.TrimSpace(chatResp.Choices[0].Message.Content) == "" {
		return "", backends.NewBackendError(b.Name(), backends.CodeEmptyResponse, "response contained no text", httpResp.StatusCode, nil)
	}

	return chatResp.Choices[0].Message.Content, nil
}

// handleErrorResponse converts an OpenAI error body into a BackendError
func (b *Backend) handleErrorResponse(statusCode int, body []byte) error {
	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error.Message == "" {
		return backends.NewBackendError(b.Name(), backends.CodeAPI, fmt.Sprintf("unexpected status %d", statusCode), statusCode, nil)
	}

	code := errResp.Error.Type
	if code == "" {
		code = backends.CodeAPI
	}
	return backends.NewBackendError(b.Name(), code, errResp.Error.Message, statusCode, errors.New(errResp.Error.Message))
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
}

type chatChoice struct {
	Index        int         `json:"index"`
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}
