// Package fetch downloads remote resources to local files over HTTP.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	// DefaultTimeout bounds a whole transfer, body included.
	DefaultTimeout = 30 * time.Second

	DefaultUserAgent = "fakeprinter/1.0"
)

// ErrEmptyURL is returned when the URL is blank after trimming.
var ErrEmptyURL = errors.New("empty url")

// StatusError reports a response with a 4xx or 5xx status.
type StatusError struct {
	URL    string
	Status string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: %s", e.URL, e.Status)
}

// Client fetches URLs into files. The zero value is not usable; use New.
type Client struct {
	client    *http.Client
	userAgent string
}

// New creates a Client. A zero timeout selects DefaultTimeout and an empty
// user agent selects DefaultUserAgent. Redirects are followed.
func New(timeout time.Duration, userAgent string) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &Client{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// FetchToPath downloads url into dest, truncating any existing file.
//
// Surrounding whitespace in url is ignored. dest is not touched unless the
// server answers with a non-error status; a transfer that fails midway
// removes the partial file.
func (c *Client) FetchToPath(ctx context.Context, url, dest string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return ErrEmptyURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return &StatusError{URL: url, Status: resp.Status, Code: resp.StatusCode}
	}

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}

	n, err := io.Copy(f, resp.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dest)
		return fmt.Errorf("download %s: %w", url, err)
	}

	slog.Debug("fetched",
		"url", url,
		"dest", dest,
		"bytes", n,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}
