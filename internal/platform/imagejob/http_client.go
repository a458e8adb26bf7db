package imagejob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// HTTPClientConfig holds settings for the HTTP job client.
type HTTPClientConfig struct {
	// BaseURL is the root of the external job API, without trailing slash.
	BaseURL string

	// RequestTimeout bounds each individual call.
	RequestTimeout time.Duration
}

// HTTPClient is the real JobClient speaking JSON over HTTP to the external
// tool-calling service.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewHTTPClient creates an HTTPClient from config.
func NewHTTPClient(cfg HTTPClientConfig, logger *slog.Logger) *HTTPClient {
	timeout := cfg.RequestTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &HTTPClient{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger.With("component", "imagejob_client"),
	}
}

type createJobRequest struct {
	Prompt string `json:"prompt"`
}

type createJobResponse struct {
	TaskID  string  `json:"task_id"`
	Payment *Charge `json:"payment,omitempty"`
}

type jobStatusResponse struct {
	Status string `json:"status"`
	URL    string `json:"url,omitempty"`
}

type storeRequest struct {
	URL string `json:"url"`
}

type storeResponse struct {
	Locator string  `json:"locator"`
	Name    string  `json:"name"`
	Payment *Charge `json:"payment,omitempty"`
}

// CreateJob implements JobClient.
func (c *HTTPClient) CreateJob(ctx context.Context, cred Credential, prompt string) (CreateJobResult, error) {
	var resp createJobResponse
	err := c.do(ctx, cred, http.MethodPost, "/jobs", createJobRequest{Prompt: prompt}, &resp)
	if err != nil {
		return CreateJobResult{}, fmt.Errorf("create job: %w", err)
	}
	if resp.TaskID == "" {
		return CreateJobResult{}, fmt.Errorf("create job: response missing task_id")
	}
	return CreateJobResult{ExternalTaskID: resp.TaskID, Charge: resp.Payment}, nil
}

// GetJobStatus implements JobClient.
func (c *HTTPClient) GetJobStatus(ctx context.Context, cred Credential, externalTaskID string) (JobStatus, error) {
	var resp jobStatusResponse
	err := c.do(ctx, cred, http.MethodGet, "/jobs/"+externalTaskID, nil, &resp)
	if err != nil {
		return JobStatus{}, fmt.Errorf("get job status: %w", err)
	}

	switch JobState(resp.Status) {
	case JobStatePending, JobStateProcessing, JobStateCompleted, JobStateFailed:
		return JobStatus{State: JobState(resp.Status), URL: resp.URL}, nil
	default:
		// Unknown states are treated as still pending rather than failing
		// the poll loop.
		c.logger.Warn("unknown job state from service", "state", resp.Status)
		return JobStatus{State: JobStatePending}, nil
	}
}

// StoreResult implements JobClient.
func (c *HTTPClient) StoreResult(ctx context.Context, cred Credential, url string) (StoredObject, error) {
	var resp storeResponse
	err := c.do(ctx, cred, http.MethodPost, "/files", storeRequest{URL: url}, &resp)
	if err != nil {
		return StoredObject{}, fmt.Errorf("store result: %w", err)
	}
	return StoredObject{Locator: resp.Locator, Name: resp.Name, Charge: resp.Payment}, nil
}

// do performs one JSON round trip against the service.
func (c *HTTPClient) do(ctx context.Context, cred Credential, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+string(cred))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Warn("failed to close response body", "error", cerr)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Read a bounded slice of the body for diagnostics only.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("service returned %d: %s", resp.StatusCode, snippet)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
