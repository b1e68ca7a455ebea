// Package proxy provides an HTTP client preconfigured for the Zyte Smart
// Proxy: desktop browser profile, relaxed TLS verification, bounded redirects
// and linear retry backoff.
package proxy

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Sternrassler/zyte-api-client/pkg/client"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	// ErrNoProxy is returned by New when no proxy address is configured.
	ErrNoProxy = fmt.Errorf("%w: no proxy has been configured", client.ErrConfiguration)

	// ErrRedirectRejected is returned when a redirect exceeds the hop limit
	// or leaves http(s).
	ErrRedirectRejected = errors.New("redirect rejected")
)

// Preset values.
const (
	MaxRedirects           = 10
	DefaultMaxRetries      = 3
	DefaultRetryMultiplier = 5
	DefaultTimeout         = 60 * time.Second

	ProfileHeader  = "X-Crawlera-Profile"
	DefaultProfile = "desktop"
)

var allowedSchemes = map[string]bool{"http": true, "https": true}

// Client issues requests through the proxy.
type Client struct {
	httpClient *http.Client
	headers    http.Header
	policy     client.RetryPolicy
	logger     zerolog.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithRetryPolicy overrides the retry policy.
func WithRetryPolicy(p client.RetryPolicy) Option {
	return func(c *Client) { c.policy = p }
}

// WithHeader sets a default header sent on every request.
func WithHeader(key, value string) Option {
	return func(c *Client) { c.headers.Set(key, value) }
}

// WithLogger overrides the component logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// DefaultRetryPolicy returns the preset: three retries after the first
// attempt, waiting 5s, 10s, 15s.
func DefaultRetryPolicy() client.RetryPolicy {
	return client.RetryPolicy{
		MaxAttempts:       DefaultMaxRetries + 1,
		InitialBackoff:    time.Second,
		BackoffMultiplier: DefaultRetryMultiplier,
		Strategy:          client.BackoffLinear,
	}
}

// New creates a client that routes every request through addr.
// An empty addr returns ErrNoProxy.
func New(addr string, opts ...Option) (*Client, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, ErrNoProxy
	}
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}

	proxyURL, err := url.Parse(addr)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid proxy address: %v", client.ErrConfiguration, err)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = http.ProxyURL(proxyURL)
	transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec

	c := &Client{
		httpClient: &http.Client{
			Transport:     transport,
			Timeout:       DefaultTimeout,
			CheckRedirect: checkRedirect,
		},
		headers: http.Header{ProfileHeader: []string{DefaultProfile}},
		policy:  DefaultRetryPolicy(),
		logger:  log.With().Str("component", "zyte-proxy").Logger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// checkRedirect follows at most MaxRedirects hops over http(s).
// via holds every request already sent, so MaxRedirects hops means
// MaxRedirects+1 requests. net/http sets the Referer header on each hop.
func checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) > MaxRedirects {
		return fmt.Errorf("%w: stopped after %d redirects", ErrRedirectRejected, MaxRedirects)
	}
	if !allowedSchemes[req.URL.Scheme] {
		return fmt.Errorf("%w: scheme %q not allowed", ErrRedirectRejected, req.URL.Scheme)
	}
	return nil
}

// Get fetches rawURL through the proxy.
func (c *Client) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	return c.Do(req)
}

// Do sends req through the proxy, retrying network errors, 429 and 5xx.
// Other 4xx responses are returned to the caller without error.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	logger := c.logger.With().Str("url", req.URL.String()).Logger()

	var resp *http.Response
	_, err := client.Retry(ctx, c.policy, logger, func(attempt int) error {
		attemptReq, err := c.prepare(req, attempt)
		if err != nil {
			return &client.APIError{ErrorClass: client.ErrorClassClient, Message: "prepare request", Err: err}
		}

		r, err := c.httpClient.Do(attemptReq)
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("%w: %w", client.ErrContextCancelled, ctx.Err())
			}
			if errors.Is(err, ErrRedirectRejected) {
				return &client.APIError{ErrorClass: client.ErrorClassClient, Message: "redirect rejected", Err: err}
			}
			return &client.APIError{ErrorClass: client.ErrorClassNetwork, Message: "request failed", Err: err}
		}

		if r.StatusCode == http.StatusTooManyRequests || r.StatusCode >= 500 {
			class := client.ErrorClassServer
			if r.StatusCode == http.StatusTooManyRequests {
				class = client.ErrorClassRateLimit
			}
			_, _ = io.Copy(io.Discard, r.Body)
			r.Body.Close()
			return &client.APIError{StatusCode: r.StatusCode, ErrorClass: class, Message: r.Status}
		}

		resp = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// prepare clones req for one attempt and applies the default headers.
func (c *Client) prepare(req *http.Request, attempt int) (*http.Request, error) {
	out := req.Clone(req.Context())
	if attempt > 1 && req.Body != nil && req.Body != http.NoBody {
		if req.GetBody == nil {
			return nil, errors.New("request body cannot be replayed")
		}
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		out.Body = body
	}
	for key, values := range c.headers {
		if out.Header.Get(key) == "" {
			out.Header[key] = values
		}
	}
	return out, nil
}

// RedirectHistory returns the URLs a response was redirected through, in
// order, ending with the final URL. It is empty when no redirect happened.
func RedirectHistory(resp *http.Response) []string {
	if resp == nil || resp.Request == nil {
		return nil
	}

	var history []string
	for req := resp.Request; req != nil && req.Response != nil; req = req.Response.Request {
		history = append([]string{req.URL.String()}, history...)
	}
	return history
}
