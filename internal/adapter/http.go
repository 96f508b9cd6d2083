package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/bibcovers/cover-indexer/internal/logger"
)

// HTTPClient defines an interface for HTTP client operations to enable mocking
//
//go:generate mockgen -source=http.go -destination=../mocks/http.go -package=mocks -mock_names=HTTPClient=MockHTTPClient
type HTTPClient interface {
	// Get performs a GET request and unmarshals the JSON response into result
	Get(ctx context.Context, url string, result interface{}, opts ...RequestOption) error

	// GetBytes performs a GET request and returns the whole response body
	GetBytes(ctx context.Context, url string, opts ...RequestOption) ([]byte, error)

	// GetStream performs a GET request and returns the body unread
	// The caller is responsible for closing the returned reader
	GetStream(ctx context.Context, url string, opts ...RequestOption) (io.ReadCloser, error)

	// Head performs a HEAD request without retries
	// The caller is responsible for closing the response body
	Head(ctx context.Context, url string) (*http.Response, error)

	// GetResponse performs a GET request without retries and returns the response whatever its status
	// The caller is responsible for closing the response body
	GetResponse(ctx context.Context, url string, opts ...RequestOption) (*http.Response, error)
}

// RequestOption mutates an outgoing request
type RequestOption func(req *http.Request)

// WithHeader sets a request header
func WithHeader(key, value string) RequestOption {
	return func(req *http.Request) {
		req.Header.Set(key, value)
	}
}

// WithBasicAuth sets basic auth credentials when user is not empty
func WithBasicAuth(user, password string) RequestOption {
	return func(req *http.Request) {
		if user != "" {
			req.SetBasicAuth(user, password)
		}
	}
}

// StatusError is returned for non-OK responses
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d: %s", e.StatusCode, e.Body)
}

// StatusCode extracts the HTTP status code from err, or 0 when err is not a StatusError
func StatusCode(err error) int {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}

// RealHTTPClient implements HTTPClient using the standard http package
type RealHTTPClient struct {
	client *http.Client
}

// NewHTTPClient creates a new real HTTP client
func NewHTTPClient(timeout time.Duration) HTTPClient {
	return &RealHTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

func newRetryBackoff(ctx context.Context) backoff.BackOffContext {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 2 * time.Second
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 1 * time.Minute
	b.Multiplier = 2.0
	b.RandomizationFactor = 0.5
	return backoff.WithContext(b, ctx)
}

// do executes a GET with exponential backoff on network errors, 429 and 5xx.
// Other non-OK statuses are permanent. On success the response body is left open.
func (c *RealHTTPClient) do(ctx context.Context, url string, opts []RequestOption) (*http.Response, error) {
	var resp *http.Response

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		for _, opt := range opts {
			opt(req)
		}

		r, err := c.client.Do(req)
		if err != nil {
			return fmt.Errorf("failed to perform request: %w", err)
		}

		if r.StatusCode == http.StatusOK {
			resp = r
			return nil
		}

		body, _ := io.ReadAll(io.LimitReader(r.Body, 1024))
		if err := r.Body.Close(); err != nil {
			logger.Warn("failed to close response body", zap.Error(err), zap.String("url", url))
		}
		statusErr := &StatusError{StatusCode: r.StatusCode, Body: string(body)}

		if r.StatusCode == http.StatusTooManyRequests || r.StatusCode >= http.StatusInternalServerError {
			logger.Warn("retryable response, retrying with backoff",
				zap.String("url", url),
				zap.Int("status", r.StatusCode))
			return statusErr
		}

		return backoff.Permanent(statusErr)
	}

	if err := backoff.Retry(operation, newRetryBackoff(ctx)); err != nil {
		return nil, fmt.Errorf("request failed after retries: %w", err)
	}

	return resp, nil
}

// Get performs a GET request and unmarshals the JSON response into result
func (c *RealHTTPClient) Get(ctx context.Context, url string, result interface{}, opts ...RequestOption) error {
	body, err := c.GetBytes(ctx, url, opts...)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// GetBytes performs a GET request and returns the whole response body
func (c *RealHTTPClient) GetBytes(ctx context.Context, url string, opts ...RequestOption) ([]byte, error) {
	stream, err := c.GetStream(ctx, url, opts...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := stream.Close(); err != nil {
			logger.Warn("failed to close response body", zap.Error(err), zap.String("url", url))
		}
	}()

	body, err := io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return body, nil
}

// GetStream performs a GET request and returns the body unread
func (c *RealHTTPClient) GetStream(ctx context.Context, url string, opts ...RequestOption) (io.ReadCloser, error) {
	resp, err := c.do(ctx, url, opts)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// Head performs a HEAD request without retries
func (c *RealHTTPClient) Head(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to perform request: %w", err)
	}

	return resp, nil
}

// GetResponse performs a GET request without retries
func (c *RealHTTPClient) GetResponse(ctx context.Context, url string, opts ...RequestOption) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for _, opt := range opts {
		opt(req)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to perform request: %w", err)
	}

	return resp, nil
}
