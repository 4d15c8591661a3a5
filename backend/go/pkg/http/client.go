package http

import (
	"HealthMate/backend/go/internal/config"
	"HealthMate/backend/go/pkg/circuitbreaker"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Client wraps http.Client with optional circuit breaking. It satisfies the
// HTTPDoer interface expected by the OpenAI-compatible SDK.
type Client struct {
	httpClient *http.Client
	breaker    *circuitbreaker.Breaker
}

// statusError marks a response the breaker should count as a failure while
// still handing it back to the caller.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("server error: received status code %d", e.code)
}

// NewClient creates a Client. timeout of zero means no client-side timeout.
// onStateChange may be nil.
func NewClient(cfg config.CircuitBreakerConfig, timeout time.Duration, onStateChange func(from, to circuitbreaker.State)) (*Client, error) {
	hc := &http.Client{Timeout: timeout}
	if !cfg.Enabled {
		return &Client{httpClient: hc}, nil
	}

	breakerTimeout, err := time.ParseDuration(cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid circuit breaker timeout duration: %w", err)
	}

	return &Client{
		httpClient: hc,
		breaker: circuitbreaker.New(circuitbreaker.Settings{
			FailureThreshold: cfg.FailureThreshold,
			SuccessThreshold: cfg.SuccessThreshold,
			Timeout:          breakerTimeout,
			OnStateChange:    onStateChange,
		}),
	}, nil
}

// Do executes an HTTP request with circuit breaker protection.
// Transport errors and status codes >= 500 count as failures; 5xx responses
// are still returned so the caller can read the error body.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if c.breaker == nil {
		return c.httpClient.Do(req)
	}

	var resp *http.Response
	err := c.breaker.Execute(func() error {
		var doErr error
		resp, doErr = c.httpClient.Do(req)
		if doErr != nil {
			return doErr
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return &statusError{code: resp.StatusCode}
		}
		return nil
	})

	var se *statusError
	if errors.As(err, &se) {
		return resp, nil
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// State reports the breaker state, or Closed when breaking is disabled.
func (c *Client) State() circuitbreaker.State {
	if c.breaker == nil {
		return circuitbreaker.Closed
	}
	return c.breaker.State()
}
