package sources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// StatusError is returned for a non-200 upstream response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether the status is worth another attempt.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// HTTPClient issues JSON GET requests with exponential backoff on timeouts,
// rate-limit responses and server errors. It is shared by the JSON adapters.
type HTTPClient struct {
	httpClient        *http.Client
	maxAttempts       int
	initialBackoff    time.Duration
	maxBackoff        time.Duration
	backoffMultiplier float64
	userAgent         string
	logger            *zap.Logger
}

// HTTPConfig holds HTTPClient configuration. Zero values select defaults.
type HTTPConfig struct {
	Timeout           time.Duration
	MaxAttempts       int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
	UserAgent         string
	Logger            *zap.Logger
}

// NewHTTPClient creates an HTTPClient.
func NewHTTPClient(cfg *HTTPConfig) *HTTPClient {
	if cfg == nil {
		cfg = &HTTPConfig{}
	}

	c := &HTTPClient{
		httpClient:        &http.Client{Timeout: cfg.Timeout},
		maxAttempts:       cfg.MaxAttempts,
		initialBackoff:    cfg.InitialBackoff,
		maxBackoff:        cfg.MaxBackoff,
		backoffMultiplier: cfg.BackoffMultiplier,
		userAgent:         cfg.UserAgent,
		logger:            cfg.Logger,
	}

	if c.httpClient.Timeout == 0 {
		c.httpClient.Timeout = 10 * time.Second
	}
	if c.maxAttempts <= 0 {
		c.maxAttempts = 3
	}
	if c.initialBackoff <= 0 {
		c.initialBackoff = 200 * time.Millisecond
	}
	if c.maxBackoff <= 0 {
		c.maxBackoff = 2 * time.Second
	}
	if c.backoffMultiplier < 1 {
		c.backoffMultiplier = 2.0
	}
	if c.userAgent == "" {
		c.userAgent = "market-dashboard/1.0"
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}

	return c
}

// Client exposes the underlying *http.Client for adapters that drive their
// own request cycle.
func (c *HTTPClient) Client() *http.Client {
	return c.httpClient
}

// UserAgent returns the User-Agent header sent upstream.
func (c *HTTPClient) UserAgent() string {
	return c.userAgent
}

// GetJSON fetches rawURL and decodes the JSON body into out.
// source labels metrics and logs.
func (c *HTTPClient) GetJSON(ctx context.Context, source, rawURL string, header http.Header, out interface{}) error {
	start := time.Now()
	defer func() {
		FetchDurationSeconds.WithLabelValues(source).Observe(time.Since(start).Seconds())
	}()

	backoff := c.initialBackoff
	var lastErr error

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		body, err := c.get(ctx, rawURL, header)
		if err == nil {
			err = json.Unmarshal(body, out)
			if err != nil {
				FetchErrorsTotal.WithLabelValues(source).Inc()
				return fmt.Errorf("unmarshal response: %w", err)
			}
			return nil
		}

		lastErr = err
		if !retryable(err) || attempt == c.maxAttempts {
			break
		}

		RetriesTotal.WithLabelValues(source).Inc()
		c.logger.Debug("upstream-retry",
			zap.String("source", source),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
			zap.Error(err))

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			FetchErrorsTotal.WithLabelValues(source).Inc()
			return ctx.Err()
		}

		backoff = time.Duration(float64(backoff) * c.backoffMultiplier)
		if backoff > c.maxBackoff {
			backoff = c.maxBackoff
		}
	}

	FetchErrorsTotal.WithLabelValues(source).Inc()
	return lastErr
}

func (c *HTTPClient) get(ctx context.Context, rawURL string, header http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if len(body) > 256 {
			body = body[:256]
		}
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return body, nil
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Retryable()
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, io.ErrUnexpectedEOF)
}
