// Package jobapi is the HTTP client for the external job posting REST API.
package jobapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/jobboard-forms/internal/submission"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 4 << 20

// APIError is returned for non-2xx responses and unsuccessful envelopes.
type APIError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("job api %s %s: status %d: %s", e.Method, e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("job api %s %s: status %d", e.Method, e.Path, e.Status)
}

// StatusCode returns the HTTP status of the failed call.
func (e *APIError) StatusCode() int {
	return e.Status
}

// ServerMessage returns the message the API sent back, if any.
func (e *APIError) ServerMessage() string {
	return e.Message
}

// Options configures the client.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	Mode       PayloadMode
	HTTPClient *http.Client
}

// Client talks to the job posting API. It implements submission.PostingAPI.
type Client struct {
	baseURL    string
	mode       PayloadMode
	httpClient *http.Client
	logger     *zap.Logger
}

var _ submission.PostingAPI = (*Client)(nil)

// NewClient validates opts and returns a client.
func NewClient(opts Options, logger *zap.Logger) (*Client, error) {
	parsed, err := url.Parse(opts.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid job api base URL %q", opts.BaseURL)
	}

	mode, ok := ParsePayloadMode(string(opts.Mode))
	if !ok {
		return nil, fmt.Errorf("unknown payload mode %q", opts.Mode)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		mode:       mode,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// CreatePosting sends a new posting and returns its identifier.
func (c *Client) CreatePosting(ctx context.Context, s *submission.Submission) (string, error) {
	return c.save(ctx, http.MethodPost, "/jobs", s)
}

// UpdatePosting sends changes to an existing posting and returns its identifier.
func (c *Client) UpdatePosting(ctx context.Context, postingID string, s *submission.Submission) (string, error) {
	return c.save(ctx, http.MethodPut, "/jobs/"+url.PathEscape(postingID), s)
}

func (c *Client) save(ctx context.Context, method, path string, s *submission.Submission) (string, error) {
	body, err := EncodePayload(s, c.mode)
	if err != nil {
		return "", fmt.Errorf("failed to encode job posting: %w", err)
	}

	data, err := c.do(ctx, method, path, s.Credentials.Token, body)
	if err != nil {
		return "", err
	}

	var rec recordWire
	if len(data) > 0 && string(data) != "null" {
		if err := json.Unmarshal(data, &rec); err != nil {
			return "", fmt.Errorf("failed to decode job api record: %w", err)
		}
	}
	return rec.ID, nil
}

// do performs one request and returns the envelope's data.
func (c *Client) do(ctx context.Context, method, path, token string, body []byte) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("job api %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read job api response: %w", err)
	}

	c.logger.Debug("job api call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := env.Message
		if decodeErr != nil {
			msg = strings.TrimSpace(string(raw))
		}
		return nil, &APIError{Method: method, Path: path, Status: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("failed to decode job api response: %w", decodeErr)
	}
	if !env.Success {
		return nil, &APIError{Method: method, Path: path, Status: http.StatusUnprocessableEntity, Message: env.Message}
	}

	return env.Data, nil
}
