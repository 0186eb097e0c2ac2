// Package httpclient provides the HTTP client bundle sources and upstream APIs use
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/stacklok/toolhive-bundle-sync/internal/bundles"
)

const (
	// DefaultTimeout bounds a metadata request, retries included
	DefaultTimeout = 10 * time.Second

	// DefaultAttempts is how often a metadata request is tried
	DefaultAttempts = 3

	// MaxResponseSize caps metadata bodies; artifact downloads are unbounded
	MaxResponseSize = 16 * 1024 * 1024

	// UserAgent is sent with every request
	UserAgent = "toolhive-bundle-sync/1.0"

	chunkSize = 32 * 1024
)

//go:generate mockgen -destination=mocks/mock_client.go -package=mocks -source=client.go Client

// Client is an interface for HTTP operations
type Client interface {
	// Get performs an HTTP GET request and returns the response body
	Get(ctx context.Context, url string) ([]byte, error)
	// GetWithHeader performs an HTTP GET request with extra request headers
	GetWithHeader(ctx context.Context, url string, header http.Header) ([]byte, error)
	// PostJSON posts body encoded as JSON and returns the response body
	PostJSON(ctx context.Context, url string, body any) ([]byte, error)
	// FetchRelease reads a release document from a JSON endpoint
	FetchRelease(ctx context.Context, url string) (bundles.ReleaseInfo, error)
	// Download streams url into dst. Only ctx bounds the transfer.
	Download(ctx context.Context, url string, header http.Header, dst io.Writer,
		onProgress bundles.ProgressFunc) (int64, error)
}

// Option configures a DefaultClient
type Option func(*DefaultClient)

// WithAttempts sets how often a metadata request is tried; values below 1 mean once
func WithAttempts(n int) Option {
	return func(c *DefaultClient) {
		if n < 1 {
			n = 1
		}
		c.attempts = uint(n)
	}
}

// WithRetryBackOff replaces the delay policy between metadata attempts
func WithRetryBackOff(newBackOff func() backoff.BackOff) Option {
	return func(c *DefaultClient) {
		c.newBackOff = newBackOff
	}
}

// WithTransport replaces the round tripper under the tracing transport
func WithTransport(rt http.RoundTripper) Option {
	return func(c *DefaultClient) {
		c.transport = rt
	}
}

// DefaultClient retries metadata requests and streams artifacts
type DefaultClient struct {
	timeout    time.Duration
	attempts   uint
	newBackOff func() backoff.BackOff
	transport  http.RoundTripper

	client *http.Client
}

// NewDefaultClient creates a client whose metadata requests give up after
// timeout. A zero timeout uses DefaultTimeout.
func NewDefaultClient(timeout time.Duration, opts ...Option) Client {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	c := &DefaultClient{
		timeout:    timeout,
		attempts:   DefaultAttempts,
		newBackOff: retryBackOff,
		transport:  http.DefaultTransport,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.client = &http.Client{Transport: otelhttp.NewTransport(c.transport)}
	return c
}

func retryBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 250 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	return b
}

// Get performs an HTTP GET request
func (c *DefaultClient) Get(ctx context.Context, url string) ([]byte, error) {
	return c.GetWithHeader(ctx, url, nil)
}

// GetWithHeader performs an HTTP GET request with extra headers
func (c *DefaultClient) GetWithHeader(ctx context.Context, url string, header http.Header) ([]byte, error) {
	return c.fetch(ctx, url, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		copyHeader(req.Header, header)
		return req, nil
	})
}

// PostJSON posts body as JSON
func (c *DefaultClient) PostJSON(ctx context.Context, url string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}
	return c.fetch(ctx, url, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
}

// FetchRelease reads a release document from a JSON endpoint
func (c *DefaultClient) FetchRelease(ctx context.Context, url string) (bundles.ReleaseInfo, error) {
	body, err := c.Get(ctx, url)
	if err != nil {
		return bundles.ReleaseInfo{}, err
	}
	return ParseRelease(body)
}

// fetch runs a metadata request, building a fresh request per attempt.
// Transport failures and retryable statuses are tried again.
func (c *DefaultClient) fetch(
	ctx context.Context, url string, build func(context.Context) (*http.Request, error),
) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	attempt := 0
	body, err := backoff.Retry(ctx, func() ([]byte, error) {
		attempt++
		req, err := build(ctx)
		if err != nil {
			return nil, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", UserAgent)

		body, err := c.readBody(req)
		if err == nil {
			return body, nil
		}
		if se, ok := err.(*StatusError); ok && !se.retryable() {
			return nil, backoff.Permanent(err)
		}
		slog.Debug("Retrying request", "url", url, "attempt", attempt, "error", err)
		return nil, err
	},
		backoff.WithBackOff(c.newBackOff()),
		backoff.WithMaxTries(c.attempts),
	)
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (c *DefaultClient) readBody(req *http.Request) ([]byte, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp, req.URL.String())
	}
	if resp.ContentLength > MaxResponseSize {
		return nil, backoff.Permanent(fmt.Errorf("response of %d bytes exceeds the %d byte limit",
			resp.ContentLength, MaxResponseSize))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if len(body) > MaxResponseSize {
		return nil, backoff.Permanent(fmt.Errorf("response exceeds the %d byte limit", MaxResponseSize))
	}
	return body, nil
}

// Download streams the response body of url into dst, reporting progress after
// every chunk. It is not retried: a partial write cannot be replayed into dst.
// A body without bytes fails with bundles.ErrEmptyArtifact.
func (c *DefaultClient) Download(
	ctx context.Context, url string, header http.Header, dst io.Writer, onProgress bundles.ProgressFunc,
) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	copyHeader(req.Header, header)
	req.Header.Set("User-Agent", UserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return 0, statusError(resp, url)
	}

	written, err := stream(dst, resp.Body, resp.ContentLength, onProgress)
	if err != nil {
		return written, err
	}
	if written == 0 {
		return 0, fmt.Errorf("%w: %s", bundles.ErrEmptyArtifact, url)
	}
	return written, nil
}

func stream(dst io.Writer, src io.Reader, total int64, onProgress bundles.ProgressFunc) (int64, error) {
	buf := make([]byte, chunkSize)
	var written int64
	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			if _, err := dst.Write(buf[:n]); err != nil {
				return written, fmt.Errorf("failed to write download: %w", err)
			}
			written += int64(n)
			if onProgress != nil {
				if err := onProgress(written, total); err != nil {
					return written, err
				}
			}
		}
		if readErr == io.EOF {
			return written, nil
		}
		if readErr != nil {
			return written, fmt.Errorf("failed to read download: %w", readErr)
		}
	}
}

func copyHeader(dst, src http.Header) {
	for key, values := range src {
		for _, v := range values {
			dst.Add(key, v)
		}
	}
}
