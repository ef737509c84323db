// Copyright (c) 2025, The Copper Authors.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	"github.com/velarno/copper/pkg/defaults"
	cerrors "github.com/velarno/copper/pkg/errors"
)

const (
	// DefaultBaseURL is the Climate Data Store API root.
	DefaultBaseURL = "https://cds.climate.copernicus.eu/api"

	// DefaultCollectionRoute is appended to the base URL to address one collection.
	DefaultCollectionRoute = "/catalogue/v1/collections/{dataset_id}"
	// DefaultRetrieveRoute addresses the retrieve process of a dataset.
	DefaultRetrieveRoute = "/retrieve/v1/processes/{dataset_id}"
	// DefaultCostRoute addresses the costing endpoint of a dataset.
	DefaultCostRoute = "/retrieve/v1/processes/{dataset_id}/costing"

	// UserAgent is sent with every request.
	UserAgent = "copper/1.0"

	// APIKeyHeader carries the personal access token.
	APIKeyHeader = "PRIVATE-TOKEN"

	datasetPlaceholder = "{dataset_id}"
)

// Routes are the URL templates, relative to the base URL, of the remote API.
type Routes struct {
	Collection string
	Retrieve   string
	Cost       string
}

// DefaultRoutes returns the routes of the public API.
func DefaultRoutes() Routes {
	return Routes{
		Collection: DefaultCollectionRoute,
		Retrieve:   DefaultRetrieveRoute,
		Cost:       DefaultCostRoute,
	}
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets the API root.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithCatalogueURL sets the catalogue root; defaults to {base}/catalogue/v1/.
func WithCatalogueURL(u string) Option {
	return func(c *Client) {
		c.catalogueURL = u
	}
}

// WithRoutes overrides the route templates. Empty fields keep their defaults.
func WithRoutes(r Routes) Option {
	return func(c *Client) {
		if r.Collection != "" {
			c.routes.Collection = r.Collection
		}
		if r.Retrieve != "" {
			c.routes.Retrieve = r.Retrieve
		}
		if r.Cost != "" {
			c.routes.Cost = r.Cost
		}
	}
}

// WithAPIKey sets the token sent in the PRIVATE-TOKEN header.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the total per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithRateLimit allows perMinute requests per minute. Non-positive values
// disable throttling.
func WithRateLimit(perMinute int) Option {
	return func(c *Client) {
		c.perMinute = perMinute
	}
}

// WithCacheSize sets the number of cached GET responses. Zero disables the cache.
func WithCacheSize(n int) Option {
	return func(c *Client) {
		c.cacheSize = n
	}
}

// Client talks to the catalogue and retrieve APIs.
type Client struct {
	baseURL      string
	catalogueURL string
	routes       Routes
	apiKey       string
	timeout      time.Duration
	perMinute    int
	cacheSize    int
	httpClient   *http.Client
	limiter      *rate.Limiter
	cache        *lru.Cache[string, []byte]
}

// NewClient returns a client with the public API defaults applied under opts.
func NewClient(opts ...Option) (*Client, error) {
	c := &Client{
		baseURL:   DefaultBaseURL,
		routes:    DefaultRoutes(),
		timeout:   defaults.HTTPClientTimeout,
		perMinute: defaults.RateLimitPerMinute,
		cacheSize: defaults.CacheSize,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.catalogueURL == "" {
		c.catalogueURL = c.baseURL + "/catalogue/v1/"
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{
			Timeout:   c.timeout,
			Transport: newTransport(),
		}
	}

	if c.perMinute > 0 {
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(c.perMinute)), 1)
	} else {
		c.limiter = rate.NewLimiter(rate.Inf, 0)
	}

	if c.cacheSize > 0 {
		cache, err := lru.New[string, []byte](c.cacheSize)
		if err != nil {
			return nil, cerrors.Wrap(cerrors.ErrCodeInternal, "failed to create response cache", err)
		}
		c.cache = cache
	}

	return c, nil
}

func newTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   defaults.HTTPConnectTimeout,
			KeepAlive: defaults.HTTPKeepAlive,
		}).DialContext,
		TLSHandshakeTimeout:   defaults.HTTPTLSHandshakeTimeout,
		ResponseHeaderTimeout: defaults.HTTPResponseHeaderTimeout,
		IdleConnTimeout:       defaults.HTTPIdleConnTimeout,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
	}
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string { return c.baseURL }

// CatalogueURL returns the catalogue root.
func (c *Client) CatalogueURL() string { return c.catalogueURL }

// CollectionURL returns the URL of dataset's collection document.
func (c *Client) CollectionURL(datasetID string) string {
	return c.baseURL + strings.ReplaceAll(c.routes.Collection, datasetPlaceholder, datasetID)
}

// RetrieveURL returns the URL of dataset's retrieve process.
func (c *Client) RetrieveURL(datasetID string) string {
	return c.baseURL + strings.ReplaceAll(c.routes.Retrieve, datasetPlaceholder, datasetID)
}

// CostURL returns the costing endpoint of dataset.
func (c *Client) CostURL(datasetID string) string {
	return c.baseURL + strings.ReplaceAll(c.routes.Cost, datasetPlaceholder, datasetID) + "?request_origin=ui"
}

// Get fetches url, answering from the cache when possible.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	if c.cache != nil {
		if data, ok := c.cache.Get(url); ok {
			cacheHits.Inc()
			slog.Debug("cache hit", "url", url)
			return data, nil
		}
	}
	data, err := c.Do(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if c.cache != nil {
		c.cache.Add(url, data)
	}
	return data, nil
}

// PostJSON sends body encoded as JSON and returns the response body.
func (c *Client) PostJSON(ctx context.Context, url string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeInternal, "failed to encode request body", err)
	}
	return c.Do(ctx, http.MethodPost, url, payload)
}

// Do performs one throttled request and maps non-2xx responses onto error codes.
func (c *Client) Do(ctx context.Context, method, url string, body []byte) ([]byte, error) {
	resp, err := c.Open(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, cerrors.WrapWithContext(cerrors.ErrCodeUnavailable, "failed to read response", err,
			map[string]any{"url": url})
	}
	return data, nil
}

// Open performs one throttled request and returns the open response for
// streaming. The caller closes the body. Non-2xx responses are returned as errors.
func (c *Client) Open(ctx context.Context, method, url string, body []byte) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeTimeout, "rate limiter wait aborted", err)
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, cerrors.WrapWithContext(cerrors.ErrCodeInvalidRequest, "invalid request", err,
			map[string]any{"field": "url", "url": url})
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set(APIKeyHeader, c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		requestsTotal.WithLabelValues(method, "error").Inc()
		return nil, transportError(url, err)
	}
	requestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	requestsTotal.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Inc()

	if err := statusError(resp, url); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp, nil
}

func transportError(url string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return cerrors.WrapWithContext(cerrors.ErrCodeTimeout, "request timed out", err, map[string]any{"url": url})
	}
	return cerrors.WrapWithContext(cerrors.ErrCodeUnavailable, "request failed", err, map[string]any{"url": url})
}

func statusError(resp *http.Response, url string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	ctx := map[string]any{"url": url, "status": resp.StatusCode}
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	if len(snippet) > 0 {
		ctx["body"] = string(snippet)
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return cerrors.NewWithContext(cerrors.ErrCodeUnauthorized, "authentication failed", ctx)
	case http.StatusForbidden:
		return cerrors.NewWithContext(cerrors.ErrCodeUnauthorized, "access forbidden", ctx)
	case http.StatusNotFound:
		return cerrors.NewWithContext(cerrors.ErrCodeNotFound, fmt.Sprintf("%s not found", url), ctx)
	case http.StatusTooManyRequests:
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			ctx["retry_after"] = ra
		}
		slog.Warn("rate limited by remote API", "url", url, "retry_after", ctx["retry_after"])
		return cerrors.NewWithContext(cerrors.ErrCodeRateLimitExceeded, "rate limit exceeded", ctx)
	default:
		return cerrors.NewWithContext(cerrors.ErrCodeUnavailable,
			fmt.Sprintf("unexpected status %d", resp.StatusCode), ctx)
	}
}
