//go:build integration

package client

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/Sternrassler/zyte-api-client/internal/testutil"
	"github.com/Sternrassler/zyte-api-client/pkg/cache"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedisContainer creates a Redis container for integration testing.
func setupRedisContainer(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "start Redis container")

	host, err := redisContainer.Host(ctx)
	require.NoError(t, err)

	port, err := redisContainer.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})

	cleanup := func() {
		_ = client.Close()
		_ = redisContainer.Terminate(ctx)
	}

	return client, cleanup
}

func redisCache(redisClient *redis.Client, ttl time.Duration) func(*Config) {
	return func(cfg *Config) {
		cfg.Cache = cache.NewManager(cache.NewRedisStore(redisClient), ttl)
	}
}

// testTransport sends every request to the mock regardless of host.
type testTransport struct {
	mock *testutil.MockZyte
}

func (t *testTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.URL.Scheme = "http"
	req.URL.Host = strings.TrimPrefix(t.mock.URL(), "http://")
	req.URL.Host = strings.TrimSuffix(req.URL.Host, "/v1/extract")
	return http.DefaultTransport.RoundTrip(req)
}

// TestIntegration_FullRequestFlow covers cache miss, extraction and cache hit
// against a real Redis.
func TestIntegration_FullRequestFlow(t *testing.T) {
	redisClient, cleanup := setupRedisContainer(t)
	defer cleanup()

	mock := startMock(t)
	c := newTestClient(t, mock, redisCache(redisClient, time.Minute))
	ctx := context.Background()

	urls := []string{"https://a.example/", "https://b.example/", "https://c.example/"}

	first := c.ExtractMany(ctx, urls, nil)
	require.Len(t, first, 3)
	for _, url := range urls {
		assert.True(t, first[url].OK(), url)
		assert.False(t, first[url].Cached, url)
	}

	second := c.ExtractMany(ctx, urls, nil)
	for _, url := range urls {
		r := second[url]
		require.True(t, r.OK(), url)
		assert.True(t, r.Cached, url)
		assert.Equal(t, 1, r.Attempts)
		assert.Equal(t, first[url].Payload.HTTPResponseBody, r.Payload.HTTPResponseBody)
		assert.Equal(t, 1, mock.Requests(url), "cached URL must not reach the API again")
	}
}

func TestIntegration_CacheKeyIncludesOptions(t *testing.T) {
	redisClient, cleanup := setupRedisContainer(t)
	defer cleanup()

	mock := startMock(t)
	c := newTestClient(t, mock, redisCache(redisClient, time.Minute))
	ctx := context.Background()
	url := "https://example.com/"

	require.True(t, c.Extract(ctx, url, Options{OptionHTTPResponseBody: true}).OK())
	r := c.Extract(ctx, url, Options{OptionBrowserHTML: true})
	require.True(t, r.OK())

	assert.False(t, r.Cached)
	assert.Equal(t, testutil.PageHTML(url), r.Payload.BrowserHTML)
	assert.Equal(t, 2, mock.Requests(url))
}

func TestIntegration_SharedCacheAcrossClients(t *testing.T) {
	redisClient, cleanup := setupRedisContainer(t)
	defer cleanup()

	mock := startMock(t)
	ctx := context.Background()
	url := "https://shared.example/"

	writer := newTestClient(t, mock, redisCache(redisClient, time.Minute))
	require.True(t, writer.Extract(ctx, url, nil).OK())

	reader := newTestClient(t, mock, redisCache(redisClient, time.Minute))
	r := reader.Extract(ctx, url, nil)
	require.True(t, r.OK())
	assert.True(t, r.Cached)
	assert.Equal(t, 1, mock.Requests(url))
}

func TestIntegration_FailuresNotCached(t *testing.T) {
	redisClient, cleanup := setupRedisContainer(t)
	defer cleanup()

	mock := startMock(t)
	url := "https://flaky.example/"
	mock.Script(url, testutil.NewClientErrorResponse(http.StatusBadRequest, "bad request"))

	c := newTestClient(t, mock, redisCache(redisClient, time.Minute))
	ctx := context.Background()

	r := c.Extract(ctx, url, nil)
	require.False(t, r.OK())
	assert.Equal(t, ErrorClassClient, r.ErrorClass())

	r = c.Extract(ctx, url, nil)
	require.True(t, r.OK())
	assert.False(t, r.Cached)
	assert.Equal(t, 2, mock.Requests(url))
}

func TestIntegration_CacheExpiration(t *testing.T) {
	redisClient, cleanup := setupRedisContainer(t)
	defer cleanup()

	mock := startMock(t)
	c := newTestClient(t, mock, redisCache(redisClient, time.Second))
	ctx := context.Background()
	url := "https://expiring.example/"

	require.True(t, c.Extract(ctx, url, nil).OK())
	require.True(t, c.Extract(ctx, url, nil).Cached)

	time.Sleep(2 * time.Second)

	r := c.Extract(ctx, url, nil)
	require.True(t, r.OK())
	assert.False(t, r.Cached)
	assert.Equal(t, 2, mock.Requests(url))
}

func TestIntegration_RetryThenCache(t *testing.T) {
	redisClient, cleanup := setupRedisContainer(t)
	defer cleanup()

	mock := startMock(t)
	url := "https://retry.example/"
	mock.Script(url, testutil.NewServerErrorResponse(), testutil.NewRateLimitResponse())

	c := newTestClient(t, mock, redisCache(redisClient, time.Minute))
	ctx := context.Background()

	r := c.Extract(ctx, url, nil)
	require.True(t, r.OK())
	assert.Equal(t, 3, r.Attempts)

	r = c.Extract(ctx, url, nil)
	assert.True(t, r.Cached)
	assert.Equal(t, 3, mock.Requests(url))
}

func TestIntegration_SetHTTPClient(t *testing.T) {
	mock := startMock(t)

	cfg := DefaultConfig("test-key")
	cfg.Retry = fastPolicy(2)
	c, err := New(cfg)
	require.NoError(t, err)
	defer c.Close()

	c.SetHTTPClient(&http.Client{
		Transport: &testTransport{mock: mock},
		Timeout:   30 * time.Second,
	})

	body, err := c.ExtractHTTPBody(context.Background(), "https://example.com/")
	require.NoError(t, err)
	assert.Equal(t, testutil.PageHTML("https://example.com/"), string(body))
	assert.Equal(t, "test-key", mockUser(t, mock))
}

func mockUser(t *testing.T, mock *testutil.MockZyte) string {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, "http://x", nil)
	require.NoError(t, err)
	req.Header = mock.LastRequestHeader
	user, _, ok := req.BasicAuth()
	require.True(t, ok)
	return user
}
