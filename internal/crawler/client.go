package crawler

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-resty/resty/v2"
)

// Fetcher is the network boundary of the crawl stage.
type Fetcher interface {
	// GetHTML fetches url and returns the body as text.
	GetHTML(ctx context.Context, url string) (string, error)
	// Download streams url into dest and returns the HTTP status.
	Download(ctx context.Context, url, dest string) (int, error)
}

// Client is a Fetcher backed by resty.
type Client struct {
	// rc is the underlying resty client, shared by all requests.
	rc *resty.Client

	// httpClient, when set, replaces resty's default transport client.
	httpClient *http.Client

	// timeout is the per-request timeout.
	timeout time.Duration

	// userAgent is the User-Agent header sent with every request.
	userAgent string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithHTTPClient replaces the transport client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a Client. No automatic retries are configured: a
// failed request is reported once and the item is dropped.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{}
	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient != nil {
		c.rc = resty.NewWithClient(c.httpClient)
	} else {
		c.rc = resty.New()
	}
	if c.timeout > 0 {
		c.rc.SetTimeout(c.timeout)
	}
	if c.userAgent != "" {
		c.rc.SetHeader("User-Agent", c.userAgent)
	}
	return c
}

// GetHTML fetches url and returns its body. A non-200 response is an error
// wrapping ErrUnexpectedStatus.
func (c *Client) GetHTML(ctx context.Context, url string) (string, error) {
	resp, err := c.rc.R().
		SetContext(ctx).
		SetHeader("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8").
		Get(url)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("%w %d from %s", ErrUnexpectedStatus, resp.StatusCode(), url)
	}
	return resp.String(), nil
}

// Download streams the body of url into dest. On any failure, including a
// non-200 status, whatever was written to dest is removed so no partial file
// is left behind. The returned status is 0 when no response was received.
func (c *Client) Download(ctx context.Context, url, dest string) (int, error) {
	if err := os.MkdirAll(filepath.Dir(dest), 0750); err != nil {
		return 0, fmt.Errorf("failed to create directory for %s: %w", dest, err)
	}

	resp, err := c.rc.R().
		SetContext(ctx).
		SetOutput(dest).
		Get(url)

	status := 0
	if resp != nil {
		status = resp.StatusCode()
	}

	if err != nil {
		removePartial(dest)
		return status, fmt.Errorf("failed to download %s: %w", url, err)
	}
	if status != http.StatusOK {
		removePartial(dest)
		return status, fmt.Errorf("%w %d from %s", ErrUnexpectedStatus, status, url)
	}
	return status, nil
}

// removePartial deletes a partially written download. A missing file is fine.
func removePartial(path string) {
	_ = os.Remove(path) //nolint:errcheck // best effort; the next run overwrites by name
}
