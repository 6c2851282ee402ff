// Package jobclient submits music generation jobs to the serverless platform
// and resolves them to finished results, hiding the asynchronous submit/poll
// protocol behind a single synchronous-looking call.
package jobclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/musicgen-service/internal/core"
)

// Environment variables consumed when options omit credentials.
const (
	EnvAPIKey     = "RUNPOD_API_KEY"
	EnvEndpointID = "RUNPOD_ENDPOINT_ID"
)

// Default protocol settings.
const (
	DefaultBaseURL      = "https://api.runpod.ai"
	DefaultPollInterval = 5 * time.Second
	DefaultPollTimeout  = 5 * time.Minute
	DefaultHTTPTimeout  = 30 * time.Second
)

// Platform API paths, relative to /v2/{endpoint_id}.
const (
	pathRun     = "/run"
	pathRunSync = "/runsync"
	pathStatus  = "/status/"
	pathHealth  = "/health"
)

// Static errors.
var (
	// ErrAPIKeyRequired indicates that no API key was provided or found in the environment.
	ErrAPIKeyRequired = errors.New("platform API key required (set " + EnvAPIKey + " or pass APIKey)")
	// ErrEndpointIDRequired indicates that no endpoint ID was provided or found in the environment.
	ErrEndpointIDRequired = errors.New("platform endpoint ID required (set " + EnvEndpointID + " or pass EndpointID)")
	// ErrNoJobID indicates that the platform accepted a submission without assigning a job id.
	ErrNoJobID = errors.New("platform returned no job id")
	// ErrJobFailed indicates that the platform reported the job FAILED.
	ErrJobFailed = errors.New("job failed")
	// ErrPollTimeout indicates that the local polling deadline elapsed before
	// the job reached a terminal state. The remote job's true outcome is
	// unknown and it is not cancelled.
	ErrPollTimeout = errors.New("timed out waiting for job completion")
	// ErrUnknownStatus indicates a status string outside the documented set.
	ErrUnknownStatus = errors.New("unknown job status")
	// ErrMissingOutput indicates a COMPLETED status without a result payload.
	ErrMissingOutput = errors.New("completed job carries no output")
)

// Options configures a Client. Zero values fall back to environment variables
// for credentials and to the package defaults for everything else.
type Options struct {
	APIKey       string
	EndpointID   string
	BaseURL      string
	PollInterval time.Duration
	PollTimeout  time.Duration
	HTTPTimeout  time.Duration
}

// Client talks to one platform endpoint. It is safe for concurrent use;
// parallel Generate calls share nothing beyond the underlying http.Client.
type Client struct {
	httpClient *http.Client
	// syncClient carries no transport timeout; the blocking run endpoint
	// holds the request open for the whole generation, so GenerateSync
	// bounds it with a context deadline instead.
	syncClient   *http.Client
	endpointURL  string
	apiKey       string
	pollInterval time.Duration
	pollTimeout  time.Duration
	log          *logger.Logger
}

// SubmitResponse is the platform's acknowledgement of a job submission.
type SubmitResponse struct {
	ID     string         `json:"id"`
	Status core.JobStatus `json:"status"`
}

// StatusResponse is one observation of a job's state. Output is present only
// when Status is COMPLETED; Error carries the platform's failure detail when
// Status is FAILED.
type StatusResponse struct {
	ID     string                 `json:"id"`
	Status core.JobStatus         `json:"status"`
	Output *core.GenerationResult `json:"output,omitempty"`
	Error  string                 `json:"error,omitempty"`
}

// New creates a client for the configured endpoint. Credentials missing from
// the options are read from the environment; a client cannot be constructed
// without them.
func New(opts Options, log *logger.Logger) (*Client, error) {
	apiKey := opts.APIKey
	if apiKey == "" {
		apiKey = os.Getenv(EnvAPIKey)
	}

	if apiKey == "" {
		return nil, ErrAPIKeyRequired
	}

	endpointID := opts.EndpointID
	if endpointID == "" {
		endpointID = os.Getenv(EnvEndpointID)
	}

	if endpointID == "" {
		return nil, ErrEndpointIDRequired
	}

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}

	pollTimeout := opts.PollTimeout
	if pollTimeout <= 0 {
		pollTimeout = DefaultPollTimeout
	}

	httpTimeout := opts.HTTPTimeout
	if httpTimeout <= 0 {
		httpTimeout = DefaultHTTPTimeout
	}

	return &Client{
		httpClient:   &http.Client{Timeout: httpTimeout},
		syncClient:   &http.Client{Timeout: 0},
		endpointURL:  strings.TrimRight(baseURL, "/") + "/v2/" + endpointID,
		apiKey:       apiKey,
		pollInterval: pollInterval,
		pollTimeout:  pollTimeout,
		log:          log,
	}, nil
}

// Submit sends one generation request to the platform's run endpoint and
// returns the job id the platform assigned.
func (c *Client) Submit(ctx context.Context, req core.GenerationRequest) (string, error) {
	var resp SubmitResponse

	err := c.postJSON(ctx, c.endpointURL+pathRun, jobPayload{Input: req}, &resp)
	if err != nil {
		return "", fmt.Errorf("failed to submit job: %w", err)
	}

	if resp.ID == "" {
		return "", ErrNoJobID
	}

	c.log.Info("Job submitted: %s (status %s)", resp.ID, resp.Status)

	return resp.ID, nil
}

// Status queries the platform for one job's current state. Repeated queries
// against an already-terminal job return the same observation.
func (c *Client) Status(ctx context.Context, jobID string) (*StatusResponse, error) {
	var resp StatusResponse

	err := c.getJSON(ctx, c.endpointURL+pathStatus+jobID, &resp)
	if err != nil {
		return nil, fmt.Errorf("failed to query status of job %s: %w", jobID, err)
	}

	return &resp, nil
}

// Generate validates the request locally, submits it, then polls the status
// endpoint at a fixed interval until the job reaches a terminal state or the
// local polling deadline elapses. On COMPLETED the decoded result is
// returned; on FAILED the platform's failure detail is wrapped in
// ErrJobFailed; on deadline ErrPollTimeout is returned and no further status
// queries are issued. The timeout never cancels the remote job.
func (c *Client) Generate(ctx context.Context, req core.GenerationRequest) (*core.GenerationResult, error) {
	req.ApplyDefaults()

	validationErr := req.Validate()
	if validationErr != nil {
		return nil, validationErr
	}

	jobID, err := c.Submit(ctx, req)
	if err != nil {
		return nil, err
	}

	return c.pollUntilTerminal(ctx, jobID)
}

// GenerateSync uses the platform's blocking run endpoint instead of the
// submit/poll protocol. Best for short clips the platform can finish within
// one request window. The request is held open for the whole generation, so
// it waits up to the configured poll timeout rather than the per-request HTTP
// timeout the short-lived calls use.
func (c *Client) GenerateSync(ctx context.Context, req core.GenerationRequest) (*core.GenerationResult, error) {
	req.ApplyDefaults()

	validationErr := req.Validate()
	if validationErr != nil {
		return nil, validationErr
	}

	syncCtx, cancel := context.WithTimeout(ctx, c.pollTimeout)
	defer cancel()

	var resp StatusResponse

	err := c.postJSONWith(syncCtx, c.syncClient, c.endpointURL+pathRunSync, jobPayload{Input: req}, &resp)
	if err != nil {
		return nil, fmt.Errorf("failed to run job synchronously: %w", err)
	}

	return resolveTerminal(&resp)
}

// HealthCheck probes the endpoint without submitting work, verifying that
// credentials and the endpoint id resolve.
func (c *Client) HealthCheck(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		c.endpointURL+pathHealth,
		http.NoBody,
	)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("health check failed for %s: %w", c.endpointURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed with status: %s", resp.Status)
	}

	return nil
}

func (c *Client) pollUntilTerminal(ctx context.Context, jobID string) (*core.GenerationResult, error) {
	deadline := time.Now().Add(c.pollTimeout)

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		status, err := c.Status(ctx, jobID)
		if err != nil {
			return nil, err
		}

		c.log.Info("Job %s status: %s", jobID, status.Status)

		if status.Status.Terminal() {
			return resolveTerminal(status)
		}

		if status.Status != core.JobStatusInQueue && status.Status != core.JobStatusInProgress {
			return nil, fmt.Errorf("%w: %q", ErrUnknownStatus, status.Status)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("polling cancelled: %w", ctx.Err())
		case <-ticker.C:
			// Once the deadline has passed, no further status queries
			// are issued; the remote job keeps running unobserved.
			if time.Now().After(deadline) {
				return nil, fmt.Errorf("%w: job %s after %s", ErrPollTimeout, jobID, c.pollTimeout)
			}
		}
	}
}

// resolveTerminal maps a terminal status observation to a result or an error.
func resolveTerminal(status *StatusResponse) (*core.GenerationResult, error) {
	switch status.Status {
	case core.JobStatusCompleted:
		if status.Output == nil {
			return nil, fmt.Errorf("%w: job %s", ErrMissingOutput, status.ID)
		}

		return status.Output, nil
	case core.JobStatusFailed:
		detail := status.Error
		if detail == "" {
			detail = "unknown error"
		}

		return nil, fmt.Errorf("%w: %s", ErrJobFailed, detail)
	case core.JobStatusInQueue, core.JobStatusInProgress:
		return nil, fmt.Errorf("%w: %q is not terminal", ErrUnknownStatus, status.Status)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStatus, status.Status)
	}
}

// jobPayload wraps a request in the platform's submission envelope.
type jobPayload struct {
	Input core.GenerationRequest `json:"input"`
}

func (c *Client) postJSON(ctx context.Context, url string, payload, target any) error {
	return c.postJSONWith(ctx, c.httpClient, url, payload, target)
}

func (c *Client) postJSONWith(
	ctx context.Context,
	httpClient *http.Client,
	url string,
	payload, target any,
) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")

	return c.doJSON(httpClient, httpReq, target)
}

func (c *Client) getJSON(ctx context.Context, url string, target any) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	return c.doJSON(c.httpClient, httpReq, target)
}

func (c *Client) doJSON(httpClient *http.Client, httpReq *http.Request, target any) error {
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", httpReq.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)

		return fmt.Errorf(
			"platform returned non-OK status: %s, body: %s",
			resp.Status,
			string(body),
		)
	}

	err = json.NewDecoder(resp.Body).Decode(target)
	if err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
