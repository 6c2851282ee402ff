// Package musicgen provides the client and engine for the standalone music
// generation inference service that hosts the pre-trained model.
package musicgen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/book-expert/musicgen-service/internal/core"
)

// API endpoints and paths.
const (
	apiGenerateMusic = "/v1/generate/music"
	apiHealth        = "/health"
)

// HTTP headers.
const (
	headerContentType = "Content-Type"
	headerAccept      = "Accept"
	contentTypeJSON   = "application/json"
	contentTypeMPEG   = "audio/mpeg"
)

// Static errors.
var (
	// ErrEmptyAudio indicates that the inference service returned no audio data.
	ErrEmptyAudio = errors.New("received empty audio data")
	// ErrUnexpectedContentType indicates that the response body is not audio.
	ErrUnexpectedContentType = errors.New("unexpected content type")
)

// HTTPClient is a client for the standalone inference HTTP service. It
// encapsulates the HTTP configuration and provides methods for music
// generation and health monitoring.
type HTTPClient struct {
	httpClient *http.Client
	baseURL    string
}

// ErrorResponse represents a structured error response from the inference
// service, preserved so job failures carry actionable diagnostics.
type ErrorResponse struct {
	// Detail contains a human-readable error description.
	Detail string `json:"detail"`

	// ErrorCode provides a machine-readable error classification.
	ErrorCode string `json:"error_code,omitempty"`
}

// NewHTTPClient creates and configures an HTTP client for the inference
// service. The baseURL should include the protocol and port
// (e.g., "http://localhost:8000"). The timeout applies to all requests made
// by this client; generation requests can run for minutes on long clips.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// GenerateMusic sends a generation request and returns the raw encoded audio.
// The request must already be defaulted and validated; this client only owns
// the wire exchange. The returned bytes are in the format the service is
// configured to emit (MP3 under the default deployment).
func (c *HTTPClient) GenerateMusic(ctx context.Context, req core.GenerationRequest) ([]byte, error) {
	requestBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.baseURL + apiGenerateMusic

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		url,
		bytes.NewBuffer(requestBody),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set(headerContentType, contentTypeJSON)
	httpReq.Header.Set(headerAccept, contentTypeMPEG)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf(
			"failed to send request to inference service at %s: %w",
			c.baseURL,
			err,
		)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseErrorResponse(resp)
	}

	contentType := resp.Header.Get(headerContentType)
	if contentType != contentTypeMPEG {
		return nil, fmt.Errorf(
			"%w: expected %s, got %s",
			ErrUnexpectedContentType,
			contentTypeMPEG,
			contentType,
		)
	}

	audioData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio data: %w", err)
	}

	if len(audioData) == 0 {
		return nil, ErrEmptyAudio
	}

	return audioData, nil
}

// HealthCheck verifies that the inference service is running and the model is
// loaded. The worker performs this once per process before serving jobs, so a
// cold worker fails fast with clear diagnostics instead of timing out on its
// first generation.
func (c *HTTPClient) HealthCheck(ctx context.Context) error {
	url := c.baseURL + apiHealth

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf(
			"health check failed for service at %s: %w",
			c.baseURL,
			err,
		)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed with status: %s", resp.Status)
	}

	return nil
}

// parseErrorResponse attempts to decode a structured JSON error from the
// service. If structured parsing fails, it falls back to returning the raw
// response body so diagnostic information is preserved.
func (c *HTTPClient) parseErrorResponse(resp *http.Response) error {
	var errorResp ErrorResponse

	err := json.NewDecoder(resp.Body).Decode(&errorResp)
	if err == nil && errorResp.Detail != "" {
		return fmt.Errorf("inference service error (%s): %s (code: %s)",
			resp.Status, errorResp.Detail, errorResp.ErrorCode)
	}

	body, _ := io.ReadAll(resp.Body)

	return fmt.Errorf(
		"inference service returned non-OK status: %s, body: %s",
		resp.Status,
		string(body),
	)
}
