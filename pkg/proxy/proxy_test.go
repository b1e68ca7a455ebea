package proxy

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/Sternrassler/zyte-api-client/pkg/client"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// proxyServer acts as a forward proxy for plain-http targets: it receives the
// absolute request URL and answers on behalf of the target.
type proxyServer struct {
	*httptest.Server

	mu       sync.Mutex
	requests []*http.Request
	handler  func(w http.ResponseWriter, r *http.Request, n int)
}

func newProxyServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request, n int)) *proxyServer {
	t.Helper()
	p := &proxyServer{handler: handler}
	p.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		p.requests = append(p.requests, r.Clone(context.Background()))
		n := len(p.requests)
		p.mu.Unlock()
		p.handler(w, r, n)
	}))
	t.Cleanup(p.Close)
	return p
}

func (p *proxyServer) seen() []*http.Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*http.Request(nil), p.requests...)
}

func fastRetry() client.RetryPolicy {
	return client.RetryPolicy{
		MaxAttempts:       DefaultMaxRetries + 1,
		InitialBackoff:    time.Millisecond,
		BackoffMultiplier: DefaultRetryMultiplier,
		Strategy:          client.BackoffLinear,
	}
}

func TestNew_NoProxy(t *testing.T) {
	for _, addr := range []string{"", "   "} {
		c, err := New(addr)
		assert.Nil(t, c)
		assert.ErrorIs(t, err, ErrNoProxy)
		assert.ErrorIs(t, err, client.ErrConfiguration)
		assert.Equal(t, client.ErrorClassConfig, client.ClassOf(err))
	}
	assert.Contains(t, ErrNoProxy.Error(), "no proxy has been configured")
}

func TestNew_Preset(t *testing.T) {
	c, err := New("proxy.zyte.com:8011")
	require.NoError(t, err)

	assert.Equal(t, DefaultTimeout, c.httpClient.Timeout)
	assert.Equal(t, DefaultProfile, c.headers.Get(ProfileHeader))
	assert.Equal(t, 4, c.policy.MaxAttempts)
	assert.Equal(t, 5*time.Second, c.policy.Backoff(1))
	assert.Equal(t, 15*time.Second, c.policy.Backoff(3))

	transport, ok := c.httpClient.Transport.(*http.Transport)
	require.True(t, ok)
	assert.True(t, transport.TLSClientConfig.InsecureSkipVerify)

	req, _ := http.NewRequest(http.MethodGet, "http://example.com/", nil)
	proxyURL, err := transport.Proxy(req)
	require.NoError(t, err)
	assert.Equal(t, "http://proxy.zyte.com:8011", proxyURL.String())
}

func TestGet_SendsThroughProxyWithProfile(t *testing.T) {
	p := newProxyServer(t, func(w http.ResponseWriter, r *http.Request, _ int) {
		_, _ = io.WriteString(w, "hello from "+r.URL.String())
	})

	c, err := New(p.URL, WithLogger(zerolog.Nop()))
	require.NoError(t, err)

	resp, err := c.Get(context.Background(), "http://target.example/page")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "hello from http://target.example/page", string(body))

	seen := p.seen()
	require.Len(t, seen, 1)
	assert.Equal(t, DefaultProfile, seen[0].Header.Get(ProfileHeader))
	assert.Empty(t, RedirectHistory(resp))
}

func TestGet_FollowsRedirectsWithHistory(t *testing.T) {
	p := newProxyServer(t, func(w http.ResponseWriter, r *http.Request, _ int) {
		switch r.URL.Path {
		case "/start":
			http.Redirect(w, r, "http://target.example/middle", http.StatusFound)
		case "/middle":
			http.Redirect(w, r, "http://target.example/end", http.StatusMovedPermanently)
		default:
			_, _ = io.WriteString(w, "done")
		}
	})

	c, err := New(p.URL, WithLogger(zerolog.Nop()))
	require.NoError(t, err)

	resp, err := c.Get(context.Background(), "http://target.example/start")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, []string{"http://target.example/middle", "http://target.example/end"}, RedirectHistory(resp))

	seen := p.seen()
	require.Len(t, seen, 3)
	assert.Equal(t, "http://target.example/start", seen[1].Header.Get("Referer"))
	assert.Equal(t, "http://target.example/middle", seen[2].Header.Get("Referer"))
}

func TestGet_TooManyRedirects(t *testing.T) {
	p := newProxyServer(t, func(w http.ResponseWriter, r *http.Request, n int) {
		http.Redirect(w, r, "http://target.example/loop", http.StatusFound)
	})

	c, err := New(p.URL, WithLogger(zerolog.Nop()), WithRetryPolicy(fastRetry()))
	require.NoError(t, err)

	_, err = c.Get(context.Background(), "http://target.example/loop")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRedirectRejected)
	assert.Equal(t, client.ErrorClassClient, client.ClassOf(err))
	assert.Len(t, p.seen(), MaxRedirects+1)
}

func TestGet_FollowsMaxRedirects(t *testing.T) {
	p := newProxyServer(t, func(w http.ResponseWriter, r *http.Request, n int) {
		if n <= MaxRedirects {
			http.Redirect(w, r, fmt.Sprintf("http://target.example/hop/%d", n), http.StatusFound)
			return
		}
		_, _ = io.WriteString(w, "arrived")
	})

	c, err := New(p.URL, WithLogger(zerolog.Nop()), WithRetryPolicy(fastRetry()))
	require.NoError(t, err)

	resp, err := c.Get(context.Background(), "http://target.example/start")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "arrived", string(body))
	assert.Len(t, p.seen(), MaxRedirects+1)
	assert.Len(t, RedirectHistory(resp), MaxRedirects)
}

func TestCheckRedirect_Limit(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://target.example/next", nil)

	via := make([]*http.Request, MaxRedirects)
	assert.NoError(t, checkRedirect(req, via), "tenth redirect is followed")

	via = append(via, req)
	assert.ErrorIs(t, checkRedirect(req, via), ErrRedirectRejected, "eleventh redirect is rejected")
}

func TestGet_RedirectToDisallowedScheme(t *testing.T) {
	p := newProxyServer(t, func(w http.ResponseWriter, r *http.Request, _ int) {
		w.Header().Set("Location", "ftp://target.example/file")
		w.WriteHeader(http.StatusFound)
	})

	c, err := New(p.URL, WithLogger(zerolog.Nop()), WithRetryPolicy(fastRetry()))
	require.NoError(t, err)

	_, err = c.Get(context.Background(), "http://target.example/file")
	assert.ErrorIs(t, err, ErrRedirectRejected)
	assert.Len(t, p.seen(), 1)
}

func TestGet_RetriesServerErrors(t *testing.T) {
	p := newProxyServer(t, func(w http.ResponseWriter, r *http.Request, n int) {
		if n < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, "ok")
	})

	c, err := New(p.URL, WithLogger(zerolog.Nop()), WithRetryPolicy(fastRetry()))
	require.NoError(t, err)

	resp, err := c.Get(context.Background(), "http://target.example/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, p.seen(), 3)
}

func TestGet_RetryExhausted(t *testing.T) {
	p := newProxyServer(t, func(w http.ResponseWriter, r *http.Request, _ int) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	c, err := New(p.URL, WithLogger(zerolog.Nop()), WithRetryPolicy(fastRetry()))
	require.NoError(t, err)

	_, err = c.Get(context.Background(), "http://target.example/")
	assert.ErrorIs(t, err, client.ErrRetryExhausted)
	assert.Equal(t, client.ErrorClassRateLimit, client.ClassOf(err))
	assert.Len(t, p.seen(), DefaultMaxRetries+1)
}

func TestGet_ClientErrorReturnedWithoutRetry(t *testing.T) {
	p := newProxyServer(t, func(w http.ResponseWriter, r *http.Request, _ int) {
		w.WriteHeader(http.StatusNotFound)
	})

	c, err := New(p.URL, WithLogger(zerolog.Nop()), WithRetryPolicy(fastRetry()))
	require.NoError(t, err)

	resp, err := c.Get(context.Background(), "http://target.example/missing")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Len(t, p.seen(), 1)
}

func TestWithHeader_OverridesProfile(t *testing.T) {
	p := newProxyServer(t, func(w http.ResponseWriter, r *http.Request, _ int) {})

	c, err := New(p.URL, WithLogger(zerolog.Nop()), WithHeader(ProfileHeader, "mobile"))
	require.NoError(t, err)

	resp, err := c.Get(context.Background(), "http://target.example/")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "mobile", p.seen()[0].Header.Get(ProfileHeader))
}
