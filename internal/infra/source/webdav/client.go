// Package webdav implements the source adapter for WebDAV servers using
// PROPFIND with Depth 1.
package webdav

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/readur/syncguard/internal/core/domain"
	"github.com/readur/syncguard/internal/infra/source"
)

const propfindBody = `<?xml version="1.0" encoding="utf-8"?>
<d:propfind xmlns:d="DAV:">
  <d:prop>
    <d:displayname/>
    <d:resourcetype/>
    <d:getcontentlength/>
    <d:getlastmodified/>
    <d:getetag/>
  </d:prop>
</d:propfind>`

// Config holds WebDAV connection settings.
type Config struct {
	URL      string        `yaml:"url"`
	Username string        `yaml:"username"`
	Password string        `yaml:"password"`
	Timeout  time.Duration `yaml:"timeout"`
}

// Client lists directories over WebDAV. Transient transport faults are
// retried a few times in place; everything else is returned to the caller
// for classification.
type Client struct {
	baseURL  *url.URL
	username string
	password string
	http     *http.Client
}

// NewClient creates a WebDAV client from config.
func NewClient(cfg Config) (*Client, error) {
	base, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid webdav URL: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:  base,
		username: cfg.Username,
		password: cfg.Password,
		http:     &http.Client{Timeout: timeout},
	}, nil
}

// SourceType returns the WebDAV source type.
func (c *Client) SourceType() domain.SourceType {
	return domain.SourceWebDAV
}

// ListDirectory issues a Depth 1 PROPFIND for path and parses the
// multistatus response.
func (c *Client) ListDirectory(ctx context.Context, path string) (*source.Listing, error) {
	start := time.Now()

	var body []byte
	var serverType string

	backoff := retry.WithMaxRetries(2, retry.NewFibonacci(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		b, server, err := c.propfind(ctx, path)
		if err != nil {
			if isTransient(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		body, serverType = b, server
		return nil
	})
	elapsed := time.Since(start)
	if err != nil {
		return nil, err
	}

	entries, err := parseMultistatus(body, path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PROPFIND response: %w", err)
	}

	return &source.Listing{
		Entries:      entries,
		ResponseTime: elapsed,
		ResponseSize: int64(len(body)),
		ServerType:   serverType,
	}, nil
}

func (c *Client) propfind(ctx context.Context, path string) ([]byte, string, error) {
	u := *c.baseURL
	u.Path = joinPath(u.Path, path)

	req, err := http.NewRequestWithContext(ctx, "PROPFIND", u.String(),
		bytes.NewReader([]byte(propfindBody)))
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Depth", "1")
	req.Header.Set("Content-Type", `application/xml; charset="utf-8"`)
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	server := resp.Header.Get("Server")
	if resp.StatusCode != http.StatusMultiStatus && resp.StatusCode != http.StatusOK {
		// Drain so the error message carries any server detail.
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, server, fmt.Errorf("%d %s: %s",
			resp.StatusCode, http.StatusText(resp.StatusCode), strings.TrimSpace(string(detail)))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, server, fmt.Errorf("failed to read PROPFIND body: %w", err)
	}
	return body, server, nil
}

// isTransient reports whether a transport error is worth an immediate
// in-place retry. HTTP status errors are never retried here; the failure
// tracker owns that policy.
func isTransient(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "EOF")
}

func joinPath(base, p string) string {
	base = strings.TrimSuffix(base, "/")
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return base + p
}
