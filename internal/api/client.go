// Package api is the REST client for the SmartFactory backend.
//
// Every call carries the x-api-key header and a fresh X-Request-ID, waits on
// the optional rate limiter and runs through a circuit breaker so a dead
// backend is detected quickly and callers can fall back to local data.
package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/smartfactory/sfdash/internal/logging"
	"github.com/smartfactory/sfdash/internal/metrics"
)

// BasePath is the prefix every endpoint lives under.
const BasePath = "/smartfactory"

// DefaultTimeout bounds a single HTTP exchange when Config.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// Config configures a Client.
type Config struct {
	BaseURL           string
	APIKey            string
	Timeout           time.Duration
	RequestsPerSecond float64
	// HTTPClient overrides the transport, mostly for tests.
	HTTPClient *http.Client
	// BreakerTimeout is how long the breaker stays open before probing
	// again. Zero means 30s.
	BreakerTimeout time.Duration
}

// Client talks to the SmartFactory API.
type Client struct {
	base    string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[[]byte]
}

// New builds a client from cfg.
func New(cfg Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return &Client{
		base:    strings.TrimSuffix(cfg.BaseURL, "/") + BasePath,
		apiKey:  cfg.APIKey,
		http:    hc,
		limiter: limiter,
		cb:      newBreaker(breakerName, cfg.BreakerTimeout),
	}
}

// BaseURL returns the resolved endpoint prefix.
func (c *Client) BaseURL() string { return c.base }

// Offline reports whether the circuit breaker is open, meaning recent calls
// failed often enough that new ones are refused without touching the network.
func (c *Client) Offline() bool {
	return c.cb.State() == gobreaker.StateOpen
}

// APIError is a non-2xx response.
type APIError struct {
	Status   int
	Endpoint string
	Message  string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: status %d: %s", e.Endpoint, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: status %d", e.Endpoint, e.Status)
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// ErrUnavailable wraps calls refused by the open circuit breaker.
var ErrUnavailable = errors.New("backend unavailable")

// IsUnreachable reports whether err means no answer came back, either because
// the breaker is open or the transport failed. Cancellation does not count.
func IsUnreachable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, ErrUnavailable) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// do sends one request and returns the raw response body. endpoint names the
// call in errors, logs and metrics; path is relative to the base and may
// carry a query string.
func (c *Client) do(ctx context.Context, method, endpoint, path string, body any) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%s: %w", endpoint, err)
		}
	}

	data, err := c.cb.Execute(func() ([]byte, error) {
		return c.roundTrip(ctx, method, endpoint, path, body)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "rejected").Inc()
			return nil, fmt.Errorf("%s: %w: %w", endpoint, ErrUnavailable, err)
		}
		metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "failure").Inc()
		return nil, err
	}
	metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "success").Inc()
	return data, nil
}

func (c *Client) roundTrip(ctx context.Context, method, endpoint, path string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%s: encode request: %w", endpoint, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", endpoint, err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.APIRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		return nil, fmt.Errorf("%s request failed: %w", endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	status := strconv.Itoa(resp.StatusCode)
	metrics.APIRequestDuration.WithLabelValues(endpoint, status).Observe(time.Since(start).Seconds())
	metrics.APIRequestsTotal.WithLabelValues(endpoint, status).Inc()

	logging.Debug().
		Str("endpoint", endpoint).
		Str("method", method).
		Str("request_id", requestID).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("api call")

	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w", endpoint, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Status: resp.StatusCode, Endpoint: endpoint, Message: errorMessage(data)}
	}
	return data, nil
}

// errorMessage pulls a human message out of an error body. FastAPI style
// backends answer {"detail": "..."}, others {"message": "..."}.
func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Detail  any    `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		switch d := payload.Detail.(type) {
		case string:
			return d
		case nil:
		default:
			if b, err := json.Marshal(d); err == nil {
				return string(b)
			}
		}
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}

func (c *Client) getJSON(ctx context.Context, endpoint, path string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, endpoint, path, nil)
}

func (c *Client) postJSON(ctx context.Context, endpoint, path string, body any) ([]byte, error) {
	return c.do(ctx, http.MethodPost, endpoint, path, body)
}
