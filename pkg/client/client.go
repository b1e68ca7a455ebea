// Package client provides the Zyte extraction API client with bounded batch
// concurrency, retries, optional caching and error classification.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/zyte-api-client/pkg/batch"
	"github.com/Sternrassler/zyte-api-client/pkg/cache"
	"github.com/Sternrassler/zyte-api-client/pkg/markdown"
	"github.com/Sternrassler/zyte-api-client/pkg/ratelimit"
	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Client is the main extraction client.
type Client struct {
	httpClient *http.Client
	tracker    *ratelimit.Tracker
	converter  *markdown.Converter
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// APIKey is sent as the basic-auth username (REQUIRED)
	APIKey string

	// Endpoint defaults to DefaultEndpoint
	Endpoint string

	// Concurrency is the maximum number of URLs in flight per batch
	Concurrency int

	// Retry controls attempts and backoff per URL
	Retry RetryPolicy

	// DefaultOptions are used when a call passes no options
	DefaultOptions Options

	// RequestTimeout bounds a single attempt
	RequestTimeout time.Duration

	// HTTPClient overrides the transport; RequestTimeout is ignored when set
	HTTPClient *http.Client

	// Cache enables response caching when non-nil
	Cache *cache.Manager

	// Limiter paces outbound attempts when non-nil
	Limiter *ratelimit.Limiter

	// Logger overrides the component logger
	Logger *zerolog.Logger
}

// DefaultConfig returns the default configuration for apiKey.
func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:         apiKey,
		Endpoint:       DefaultEndpoint,
		Concurrency:    5,
		Retry:          DefaultRetryPolicy(),
		DefaultOptions: DefaultOptions(),
		RequestTimeout: 180 * time.Second,
	}
}

// New creates a new extraction client.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: api key is required", ErrConfiguration)
	}

	if cfg.Concurrency < 0 {
		return nil, fmt.Errorf("%w: concurrency must be >= 1 (got %d)", ErrConfiguration, cfg.Concurrency)
	}
	if cfg.Concurrency == 0 {
		cfg.Concurrency = 5
	}

	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}

	if cfg.Retry == (RetryPolicy{}) {
		cfg.Retry = DefaultRetryPolicy()
	}
	if cfg.Retry.MaxAttempts < 1 {
		return nil, fmt.Errorf("%w: max attempts must be >= 1 (got %d)", ErrConfiguration, cfg.Retry.MaxAttempts)
	}

	if len(cfg.DefaultOptions) == 0 {
		cfg.DefaultOptions = DefaultOptions()
	}

	logger := log.With().Str("component", "zyte-client").Logger()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.RequestTimeout
		if timeout <= 0 {
			timeout = 180 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		httpClient: httpClient,
		tracker:    ratelimit.NewTracker(logger),
		converter:  markdown.NewConverter(),
		config:     cfg,
		logger:     logger,
	}, nil
}

// extraction is the value carried through the batch pool for one URL.
type extraction struct {
	payload *Payload
	cached  bool
}

// Extract extracts a single URL and returns its result unwrapped.
// It is equivalent to ExtractMany with a one-element list.
func (c *Client) Extract(ctx context.Context, url string, opts Options) Result {
	return c.ExtractMany(ctx, []string{url}, opts)[url]
}

// ExtractMany extracts every URL with at most Config.Concurrency requests in
// flight. It blocks until each URL has a result and never returns early on a
// per-URL failure. The mapping holds one entry per distinct URL.
func (c *Client) ExtractMany(ctx context.Context, urls []string, opts Options) Results {
	opts = resolveOptions(opts, c.config.DefaultOptions)

	fetcher := batch.NewBatchFetcher(batch.FetcherFunc[extraction](func(ctx context.Context, url string) (extraction, int, error) {
		return c.fetchURL(ctx, url, opts)
	}), batch.Config{
		MaxConcurrency: c.config.Concurrency,
		Logger:         &c.logger,
	})

	raw := fetcher.FetchAll(ctx, urls)

	results := make(Results, len(raw))
	for url, r := range raw {
		result := Result{
			URL:      url,
			Attempts: r.Attempts,
			Err:      r.Err,
		}
		if r.Err == nil {
			result.Payload = r.Value.payload
			result.Cached = r.Value.cached
		} else if ClassOf(r.Err) == ErrorClassCancelled && !errors.Is(r.Err, ErrContextCancelled) {
			result.Err = fmt.Errorf("%w: %w", ErrContextCancelled, r.Err)
		}
		results[url] = result
	}
	return results
}

// fetchURL drives one URL to a terminal state: cache lookup, the retry loop,
// decoding and cache write.
func (c *Client) fetchURL(ctx context.Context, url string, opts Options) (extraction, int, error) {
	logger := c.logger.With().Str("url", url).Logger()
	key := cache.CacheKey{URL: url, Options: opts}

	if c.config.Cache != nil {
		entry, err := c.config.Cache.Get(ctx, key)
		switch {
		case err == nil:
			payload, decodeErr := Decode(entry.Data, opts)
			if decodeErr == nil {
				logger.Debug().Dur("age", entry.Age()).Msg("Serving cached extraction")
				return extraction{payload: payload, cached: true}, 1, nil
			}
			logger.Warn().Err(decodeErr).Msg("Dropping undecodable cache entry")
			_ = c.config.Cache.Delete(ctx, key)
		case !errors.Is(err, cache.ErrCacheMiss):
			logger.Warn().Err(err).Msg("Cache get error")
		}
	}

	var body []byte
	attempts, err := Retry(ctx, c.config.Retry, logger, func(attempt int) error {
		data, err := c.doAttempt(ctx, url, opts)
		if err != nil {
			return err
		}
		body = data
		return nil
	})
	if err != nil {
		return extraction{}, attempts, err
	}

	payload, err := Decode(body, opts)
	if err != nil {
		zyteErrorsTotal.WithLabelValues(string(ErrorClassDecode)).Inc()
		return extraction{}, attempts, err
	}

	if c.config.Cache != nil {
		if err := c.config.Cache.Put(ctx, key, body); err != nil {
			logger.Warn().Err(err).Msg("Failed to cache extraction")
		}
	}

	return extraction{payload: payload}, attempts, nil
}

// doAttempt performs one HTTP exchange and returns the raw success body.
func (c *Client) doAttempt(ctx context.Context, url string, opts Options) ([]byte, error) {
	if err := c.config.Limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrContextCancelled, err)
	}

	req, err := NewExtractRequest(ctx, c.config.Endpoint, c.config.APIKey, url, opts)
	if err != nil {
		return nil, &APIError{ErrorClass: ErrorClassClient, Message: "invalid request", Err: err}
	}

	c.logger.Debug().
		Str("url", url).
		Str("options", opts.String()).
		Msg("Executing extraction request")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	zyteRequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", ErrContextCancelled, ctx.Err())
		}
		zyteRequestsTotal.WithLabelValues("network_error").Inc()
		zyteErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		return nil, &APIError{ErrorClass: ErrorClassNetwork, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	c.tracker.Observe(resp.StatusCode, resp.Header)
	zyteRequestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	body, err := readBody(resp)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", ErrContextCancelled, ctx.Err())
		}
		zyteErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		return nil, &APIError{StatusCode: resp.StatusCode, ErrorClass: ErrorClassNetwork, Message: "read response body", Err: err}
	}

	errClass := classifyStatus(resp.StatusCode)
	if errClass == "" && (resp.StatusCode < 200 || resp.StatusCode >= 300) {
		errClass = ErrorClassClient
	}
	if errClass != "" {
		zyteErrorsTotal.WithLabelValues(string(errClass)).Inc()
		c.logger.Warn().
			Str("url", url).
			Int("status", resp.StatusCode).
			Str("error_class", string(errClass)).
			Msg("Extraction request error")
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			ErrorClass: errClass,
			Message:    errorMessage(resp.Status, body),
		}
	}

	return body, nil
}

// readBody reads the response body, inflating it when the API answered gzip.
func readBody(resp *http.Response) ([]byte, error) {
	var r io.Reader = resp.Body
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		defer gz.Close()
		r = gz
	}
	return io.ReadAll(r)
}

// errorMessage prefers the detail of an API problem document over the status line.
func errorMessage(status string, body []byte) string {
	var problem struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &problem); err != nil {
		return status
	}
	switch {
	case problem.Detail != "":
		return problem.Detail
	case problem.Title != "":
		return problem.Title
	default:
		return status
	}
}

// Throttling returns a snapshot of the 429s observed in the current window.
func (c *Client) Throttling() ratelimit.ThrottleState {
	return c.tracker.State()
}

// Close closes the client and releases resources.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// GetCache returns the cache manager, or nil when caching is disabled.
func (c *Client) GetCache() *cache.Manager {
	return c.config.Cache
}
