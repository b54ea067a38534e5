package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/golang/snappy"
	"github.com/juju/clock"
)

// RemoteWriteClient handles sending samples to a Prometheus Remote Write endpoint
type RemoteWriteClient struct {
	url        string
	client     *http.Client
	authConfig *AuthConfig
	retry      *RetryConfig
	clock      clock.Clock
}

// AuthConfig holds authentication configuration (basic auth only)
type AuthConfig struct {
	Username string
	Password string
}

// RetryConfig holds retry configuration
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// DefaultRetryConfig returns default retry configuration
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries: 3,
		BaseDelay:  time.Second,
		MaxDelay:   30 * time.Second,
	}
}

// remoteWriteStatusError is a non-2xx response from the endpoint
type remoteWriteStatusError struct {
	StatusCode int
	Body       string
}

func (e *remoteWriteStatusError) Error() string {
	return fmt.Sprintf("remote write failed with status %d: %s", e.StatusCode, e.Body)
}

// NewRemoteWriteClient creates a new Remote Write client
func NewRemoteWriteClient(url string, timeout time.Duration, authConfig *AuthConfig) (*RemoteWriteClient, error) {
	if url == "" {
		return nil, fmt.Errorf("remote write URL is required")
	}

	return &RemoteWriteClient{
		url:        url,
		client:     &http.Client{Timeout: timeout},
		authConfig: authConfig,
		retry:      DefaultRetryConfig(),
		clock:      clock.WallClock,
	}, nil
}

// Send pushes samples in one write request, retrying transient failures with exponential backoff
func (c *RemoteWriteClient) Send(ctx context.Context, samples []gaugeSample) error {
	if len(samples) == 0 {
		return nil
	}

	body := snappy.Encode(nil, encodeWriteRequest(samples, c.clock.Now().UnixMilli()))

	var lastErr error
	for attempt := 0; attempt <= c.retry.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := c.retry.BaseDelay * time.Duration(1<<uint(attempt-1))
			if delay > c.retry.MaxDelay {
				delay = c.retry.MaxDelay
			}

			select {
			case <-c.clock.After(delay):
			case <-ctx.Done():
				return fmt.Errorf("context cancelled during retry: %w", ctx.Err())
			}
		}

		err := c.sendOnce(ctx, body)
		if err == nil {
			return nil
		}
		lastErr = err

		if !isRetryableError(err) {
			return err
		}
	}

	return fmt.Errorf("failed after %d retries: %w", c.retry.MaxRetries, lastErr)
}

func (c *RemoteWriteClient) sendOnce(ctx context.Context, body []byte) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/x-protobuf")
	httpReq.Header.Set("Content-Encoding", "snappy")
	httpReq.Header.Set("X-Prometheus-Remote-Write-Version", "0.1.0")
	if c.authConfig != nil {
		httpReq.SetBasicAuth(c.authConfig.Username, c.authConfig.Password)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode/100 != 2 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &remoteWriteStatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	return nil
}

// isRetryableError reports whether err is a server-side or network failure
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var statusErr *remoteWriteStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= 500 || statusErr.StatusCode == http.StatusTooManyRequests
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
