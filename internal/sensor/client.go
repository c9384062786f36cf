package sensor

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/muurk/co2viewer/internal/gauge"
)

const (
	// ReadingPath is where the sensor serves its current value.
	ReadingPath = "/co2"

	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 4 * time.Second

	// DefaultRetryDelay is the initial delay between retry attempts
	DefaultRetryDelay = 500 * time.Millisecond

	// DefaultMaxRetryDelay caps the exponential backoff
	DefaultMaxRetryDelay = 8 * time.Second

	// maxBodySize bounds how much of a response is read.
	maxBodySize = 4096
)

// Client fetches readings from sensors. The address is supplied per call,
// so a single client serves every address the user configures.
type Client struct {
	// HTTPClient is the underlying HTTP client
	HTTPClient *http.Client

	// MaxRetries is the number of additional attempts after a retryable failure
	MaxRetries int

	// RetryDelay is the initial delay between retry attempts
	RetryDelay time.Duration

	// MaxRetryDelay is the maximum delay for exponential backoff
	MaxRetryDelay time.Duration

	// sleep waits between attempts; replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient creates a client with retries disabled.
func NewClient() *Client {
	return &Client{
		HTTPClient:    &http.Client{Timeout: DefaultTimeout},
		RetryDelay:    DefaultRetryDelay,
		MaxRetryDelay: DefaultMaxRetryDelay,
		sleep:         sleepContext,
	}
}

// SetTimeout sets the HTTP request timeout
func (c *Client) SetTimeout(timeout time.Duration) {
	c.HTTPClient.Timeout = timeout
}

// SetRetry configures retry behavior
func (c *Client) SetRetry(maxRetries int, retryDelay time.Duration) {
	c.MaxRetries = maxRetries
	c.RetryDelay = retryDelay
}

// ReadingURL builds the reading URL for address. Bare hosts get the http
// scheme; addresses that already name a scheme are used as the base URL.
func ReadingURL(address string) string {
	base := strings.TrimRight(strings.TrimSpace(address), "/")
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	return base + ReadingPath
}

// Fetch returns the trimmed text the sensor at address reports.
func (c *Client) Fetch(ctx context.Context, address string) (string, error) {
	if strings.TrimSpace(address) == "" {
		return "", NewAddressError("no sensor address configured")
	}

	var lastErr error
	delay := c.RetryDelay

	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := c.wait(ctx, delay); err != nil {
				return "", err
			}
			delay *= 2
			if delay > c.MaxRetryDelay {
				delay = c.MaxRetryDelay
			}
		}

		text, err := c.fetchAttempt(ctx, address)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if !IsRetryable(err) {
			return "", err
		}
	}

	return "", lastErr
}

// ReadPPM fetches and parses a reading.
func (c *Client) ReadPPM(ctx context.Context, address string) (float64, error) {
	text, err := c.Fetch(ctx, address)
	if err != nil {
		return 0, err
	}
	ppm, err := gauge.ParsePPM(text)
	if err != nil {
		return 0, NewParseError(fmt.Sprintf("unexpected sensor response %q", text), err)
	}
	return ppm, nil
}

func (c *Client) fetchAttempt(ctx context.Context, address string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ReadingURL(address), nil)
	if err != nil {
		return "", NewAddressError(fmt.Sprintf("invalid sensor address %q", address))
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", withAddress(NewNetworkError("GET request failed", err), address)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", withAddress(NewHTTPError(resp.StatusCode, fmt.Sprintf("unexpected status code: %d", resp.StatusCode)), address)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return "", withAddress(NewNetworkError("failed to read response body", err), address)
	}
	if len(body) > maxBodySize {
		return "", withAddress(NewParseError(fmt.Sprintf("response exceeds %d bytes", maxBodySize), ErrResponseTooLarge), address)
	}

	return strings.TrimSpace(string(body)), nil
}

func (c *Client) wait(ctx context.Context, d time.Duration) error {
	sleep := c.sleep
	if sleep == nil {
		sleep = sleepContext
	}
	return sleep(ctx, d)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
