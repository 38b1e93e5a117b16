// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch is the HTTP collaborator of the pipeline. It sets the
// User-Agent, bounds each request with the configured timeout, retries
// rate-limited responses, optionally serves GETs from the SQLite response
// cache, and maps failures to the typed pipeline errors.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pdiddy/web2llm/internal/cache"
	"github.com/pdiddy/web2llm/internal/httputil"
	"github.com/pdiddy/web2llm/pkg/types"
)

// DefaultMaxBodyBytes bounds a response body when no limit is configured.
const DefaultMaxBodyBytes = 256 << 20

// Response is a fully read HTTP response.
type Response struct {
	// URL is the requested address.
	URL string

	// FinalURL is the address after redirects.
	FinalURL string

	// ContentType is the media type without parameters, lower case.
	ContentType string

	Body []byte

	// Cached reports whether the response came from the cache.
	Cached bool
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client (tests use the
// httptest server's client).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithCache serves and stores successful GETs through store.
func WithCache(store *cache.Store) Option {
	return func(c *Client) { c.cache = store }
}

// WithMaxBodyBytes caps the size of response bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(c *Client) { c.maxBody = n }
}

// Client performs HTTP requests for the pipeline.
type Client struct {
	http       *http.Client
	userAgent  string
	timeout    time.Duration
	maxRetries int
	maxBody    int64
	cache      *cache.Store
}

// New builds a Client from cfg.
func New(cfg types.HTTPConfig, opts ...Option) *Client {
	c := &Client{
		http:       &http.Client{},
		userAgent:  cfg.UserAgent,
		timeout:    cfg.Timeout,
		maxRetries: cfg.MaxRetries,
		maxBody:    DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get fetches url and returns the whole body. Non-2xx responses become a
// NetworkError carrying the status code.
func (c *Client) Get(ctx context.Context, url string) (*Response, error) {
	return c.GetWithHeader(ctx, url, nil)
}

// GetWithHeader is Get with extra request headers, such as API
// authorization. Cached entries are keyed by URL only.
func (c *Client) GetWithHeader(ctx context.Context, url string, header http.Header) (*Response, error) {
	if c.cache != nil {
		if e, ok, err := c.cache.Get(ctx, url); err != nil {
			log.Warn().Err(err).Str("url", url).Msg("cache read failed")
		} else if ok {
			log.Debug().Str("url", url).Msg("cache hit")
			return &Response{URL: url, FinalURL: e.FinalURL, ContentType: e.ContentType, Body: e.Body, Cached: true}, nil
		}
	}

	resp, err := c.do(ctx, http.MethodGet, url, header)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &types.NetworkError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, c.wrap(ctx, "GET "+url, url, err)
	}
	if int64(len(body)) > c.maxBody {
		return nil, &types.NetworkError{URL: url, Err: fmt.Errorf("response exceeds %d bytes", c.maxBody)}
	}

	out := &Response{
		URL:         url,
		FinalURL:    resp.Request.URL.String(),
		ContentType: mediaType(resp.Header.Get("Content-Type")),
		Body:        body,
	}

	if c.cache != nil {
		if err := c.cache.Put(ctx, cache.Entry{URL: url, FinalURL: out.FinalURL, ContentType: out.ContentType, Body: body}); err != nil {
			log.Warn().Err(err).Str("url", url).Msg("cache write failed")
		}
	}
	return out, nil
}

// ContentType issues a HEAD request and returns the media type of url.
func (c *Client) ContentType(ctx context.Context, url string) (string, error) {
	resp, err := c.do(ctx, http.MethodHead, url, nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &types.NetworkError{URL: url, StatusCode: resp.StatusCode}
	}
	return mediaType(resp.Header.Get("Content-Type")), nil
}

func (c *Client) do(ctx context.Context, method, url string, header http.Header) (*http.Response, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		// The body is read by the caller, so cancellation waits for Close.
		resp, err := c.send(ctx, method, url, header)
		if err != nil {
			cancel()
			return nil, err
		}
		resp.Body = &cancelBody{ReadCloser: resp.Body, cancel: cancel}
		return resp, nil
	}
	return c.send(ctx, method, url, header)
}

func (c *Client) send(ctx context.Context, method, url string, header http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, &types.NetworkError{URL: url, Err: fmt.Errorf("creating request: %w", err)}
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	log.Debug().Str("method", method).Str("url", url).Msg("http request")
	resp, err := httputil.DoWithRetry(ctx, c.http, req, c.maxRetries)
	if err != nil {
		return nil, c.wrap(ctx, method+" "+url, url, err)
	}
	return resp, nil
}

// wrap maps a transport failure to TimeoutError or NetworkError.
func (c *Client) wrap(ctx context.Context, op, url string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		return &types.TimeoutError{Op: op, Err: err}
	}
	return &types.NetworkError{URL: url, Err: err}
}

type cancelBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelBody) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}

func mediaType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return mt
}
