package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Sternrassler/zyte-api-client/internal/testutil"
	"github.com/Sternrassler/zyte-api-client/pkg/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, mock *testutil.MockZyte) *client.Client {
	t.Helper()

	cfg := client.DefaultConfig("test-key")
	cfg.Endpoint = mock.URL()
	cfg.Retry.MaxAttempts = 2
	cfg.Retry.InitialBackoff = time.Millisecond
	c, err := client.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestHealthEndpoint(t *testing.T) {
	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	healthHandler(w, req)

	resp := w.Result()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))
}

func TestReadyEndpoint_NoCache(t *testing.T) {
	req := httptest.NewRequest("GET", "/ready", nil)
	w := httptest.NewRecorder()

	readyHandler(nil)(w, req)

	assert.Equal(t, http.StatusOK, w.Result().StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	mock := testutil.NewMockZyte()
	defer mock.Close()

	mux := newMux(newTestClient(t, mock), nil)

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	resp := w.Result()
	body, _ := io.ReadAll(resp.Body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "# HELP")
	assert.Contains(t, string(body), "# TYPE")
}

func TestExtractHandler(t *testing.T) {
	mock := testutil.NewMockZyte()
	defer mock.Close()
	mock.Script("https://bad.example/", testutil.NewClientErrorResponse(400, "unsupported url"))

	handler := extractHandler(newTestClient(t, mock))

	t.Run("mixed_results", func(t *testing.T) {
		body := `{"urls":["https://good.example/","https://bad.example/"],"options":{"browserHtml":true}}`
		req := httptest.NewRequest("POST", "/extract", strings.NewReader(body))
		w := httptest.NewRecorder()

		handler(w, req)

		resp := w.Result()
		out, _ := io.ReadAll(resp.Body)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

		s := string(out)
		assert.Contains(t, s, `"https://good.example/":{"url":"https://good.example/","ok":true`)
		assert.Contains(t, s, `"browserHtml":`)
		assert.Contains(t, s, `"error_class":"client"`)
		assert.Contains(t, s, "unsupported url")
	})

	t.Run("method_not_allowed", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/extract", nil)
		w := httptest.NewRecorder()

		handler(w, req)

		assert.Equal(t, http.StatusMethodNotAllowed, w.Result().StatusCode)
	})

	t.Run("invalid_json", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/extract", strings.NewReader("{"))
		w := httptest.NewRecorder()

		handler(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode)
	})

	t.Run("empty_urls", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/extract", strings.NewReader(`{"urls":[]}`))
		w := httptest.NewRecorder()

		handler(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode)
	})
}
