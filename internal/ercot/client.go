package ercot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultURL is ERCOT's public real-time settlement point price page,
// updated by the source roughly every five minutes.
const DefaultURL = "https://www.ercot.com/content/cdr/html/real_time_spp.html"

// Client fetches the real-time SPP document over HTTPS.
type Client struct {
	URL    string
	Client *http.Client
}

// NewClient creates a Client with a bounded request timeout. If url is
// empty, DefaultURL is used.
func NewClient(url string, timeout time.Duration) *Client {
	if url == "" {
		url = DefaultURL
	}
	return &Client{
		URL: url,
		Client: &http.Client{
			Timeout: timeout,
		},
	}
}

// FetchDocument retrieves the raw document body. Transport failures,
// timeouts, and non-2xx statuses all surface as errors; the caller treats
// them as one failed poll cycle, never as fatal.
func (c *Client) FetchDocument(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", c.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("unexpected status %d from %s", resp.StatusCode, c.URL)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	return string(body), nil
}
