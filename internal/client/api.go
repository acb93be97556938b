// Package client talks to the internhub REST API and keeps client-side
// caches of the resources it fetches.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/gistda/internhub/internal/observability/metrics"
	"github.com/gistda/internhub/internal/reliability/circuitbreaker"
	"github.com/gistda/internhub/internal/reliability/retry"
)

// ErrCircuitOpen is returned without a request while the backend is failing
var ErrCircuitOpen = circuitbreaker.ErrOpen

const maxResponseBytes = 10 << 20

// RemoteError is a non-2xx response
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	return e.Message
}

// newRemoteError extracts the most specific message the server sent
func newRemoteError(status int, body []byte) *RemoteError {
	msg := "Request failed"
	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err == nil {
		for _, key := range []string{"details", "error", "message"} {
			if s, ok := fields[key].(string); ok && s != "" {
				msg = s
				break
			}
		}
	} else if text := strings.TrimSpace(string(body)); text != "" {
		msg = text
	}
	return &RemoteError{Status: status, Message: msg}
}

// Config configures an APIClient
type Config struct {
	BaseURL string
	Timeout time.Duration
	Retry   *retry.Config
	// BreakerThreshold consecutive failures open the circuit for BreakerCooldown
	BreakerThreshold int32
	BreakerCooldown  time.Duration
	HTTPClient       *http.Client
}

// APIClient sends JSON requests with the session's bearer token
type APIClient struct {
	base    string
	http    *http.Client
	retry   *retry.Config
	breaker *circuitbreaker.CircuitBreaker
	logger  *slog.Logger

	mu    sync.RWMutex
	token string
}

// New creates a client for cfg.BaseURL
func New(cfg Config, logger *slog.Logger) *APIClient {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.Retry == nil {
		cfg.Retry = retry.DefaultConfig()
	}
	cfg.Retry.ShouldRetry = retryable
	if cfg.BreakerThreshold <= 0 {
		cfg.BreakerThreshold = 5
	}
	if cfg.BreakerCooldown <= 0 {
		cfg.BreakerCooldown = 30 * time.Second
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	breaker := circuitbreaker.NewCircuitBreaker(cfg.BreakerThreshold, 1, cfg.BreakerCooldown)
	breaker.SetStateChangeCallback(func(from, to circuitbreaker.State) {
		logger.Warn("remote api circuit changed state",
			slog.String("from", from.String()),
			slog.String("to", to.String()),
		)
	})
	return &APIClient{
		base:    strings.TrimRight(cfg.BaseURL, "/"),
		http:    httpClient,
		retry:   cfg.Retry,
		breaker: breaker,
		logger:  logger,
	}
}

// SetToken stores the bearer token; empty clears it
func (c *APIClient) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// Token returns the bearer token
func (c *APIClient) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Ping reports whether the backend answers its health check
func (c *APIClient) Ping(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/healthz", nil)
	return err
}

// retryable is true for transport failures and 5xx responses
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrCircuitOpen) {
		return false
	}
	var remote *RemoteError
	if errors.As(err, &remote) {
		return remote.Status >= 500
	}
	return true
}

func (c *APIClient) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	var out []byte
	err := c.breaker.Execute(func() error {
		var err error
		out, err = c.send(ctx, method, path, body)
		return err
	}, retryable)
	result := "ok"
	if err != nil {
		result = "error"
		if errors.Is(err, ErrCircuitOpen) {
			result = "circuit_open"
		}
	}
	metrics.ObserveRemoteRequest(method, result)
	return out, err
}

func (c *APIClient) send(ctx context.Context, method, path string, body any) ([]byte, error) {
	var payload io.Reader
	if method == http.MethodPost || method == http.MethodPut {
		if body == nil {
			body = struct{}{}
		}
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		payload = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	c.logger.Debug("remote api call",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
	)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newRemoteError(resp.StatusCode, data)
	}
	return data, nil
}

func decode[T any](data []byte) (T, error) {
	var out T
	if len(bytes.TrimSpace(data)) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("failed to decode response: %w", err)
	}
	return out, nil
}

// Get fetches path, retrying transport errors and 5xx responses
func Get[T any](ctx context.Context, c *APIClient, path string) (T, error) {
	return retry.Do(ctx, c.retry, c.logger, "GET "+path, func(ctx context.Context) (T, error) {
		data, err := c.do(ctx, http.MethodGet, path, nil)
		if err != nil {
			var zero T
			return zero, err
		}
		return decode[T](data)
	})
}

// Post sends body to path
func Post[T any](ctx context.Context, c *APIClient, path string, body any) (T, error) {
	data, err := c.do(ctx, http.MethodPost, path, body)
	if err != nil {
		var zero T
		return zero, err
	}
	return decode[T](data)
}

// Put sends body to path
func Put[T any](ctx context.Context, c *APIClient, path string, body any) (T, error) {
	data, err := c.do(ctx, http.MethodPut, path, body)
	if err != nil {
		var zero T
		return zero, err
	}
	return decode[T](data)
}

// Delete removes the resource at path
func Delete(ctx context.Context, c *APIClient, path string) error {
	_, err := c.do(ctx, http.MethodDelete, path, nil)
	return err
}

// Unreachable reports whether err means the backend could not be reached
// at all, as opposed to answering with an error
func Unreachable(err error) bool {
	if errors.Is(err, ErrCircuitOpen) {
		return true
	}
	var netErr net.Error
	var opErr *net.OpError
	return errors.As(err, &opErr) || errors.As(err, &netErr)
}
