// Package testutil provides testing utilities for the Zyte API client.
package testutil

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/klauspost/compress/gzip"
)

// MockResponse defines one scripted answer of the mock extraction API.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
	Gzip       bool
}

// MockZyte is a configurable mock extraction API for testing.
// Scripted responses are consumed per target URL in order; once a URL's
// script is exhausted the default success response is served.
type MockZyte struct {
	server *httptest.Server

	mu       sync.Mutex
	scripts  map[string][]MockResponse
	requests map[string]int
	bodies   []map[string]any
	inFlight int
	peak     int

	// LastRequestHeader holds the headers of the most recent request.
	LastRequestHeader http.Header
}

// NewMockZyte creates and starts a new mock extraction server.
func NewMockZyte() *MockZyte {
	mock := &MockZyte{
		scripts:  make(map[string][]MockResponse),
		requests: make(map[string]int),
	}
	mock.server = httptest.NewServer(http.HandlerFunc(mock.handle))
	return mock
}

// URL returns the mock endpoint URL.
func (m *MockZyte) URL() string {
	return m.server.URL + "/v1/extract"
}

// Close shuts down the mock server.
func (m *MockZyte) Close() {
	m.server.Close()
}

// Script queues responses for a target URL.
func (m *MockZyte) Script(url string, responses ...MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scripts[url] = append(m.scripts[url], responses...)
}

// Requests returns how many requests were made for a target URL.
func (m *MockZyte) Requests(url string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[url]
}

// TotalRequests returns the number of requests across all URLs.
func (m *MockZyte) TotalRequests() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range m.requests {
		total += n
	}
	return total
}

// Bodies returns the decoded JSON request bodies in arrival order.
func (m *MockZyte) Bodies() []map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]map[string]any, len(m.bodies))
	copy(out, m.bodies)
	return out
}

// PeakInFlight returns the highest number of concurrent requests seen.
func (m *MockZyte) PeakInFlight() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.peak
}

func (m *MockZyte) handle(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"type":"/request/invalid","title":"Invalid Request","detail":"body is not JSON"}`))
		return
	}
	url, _ := body["url"].(string)

	m.mu.Lock()
	m.requests[url]++
	m.bodies = append(m.bodies, body)
	m.LastRequestHeader = r.Header.Clone()
	m.inFlight++
	if m.inFlight > m.peak {
		m.peak = m.inFlight
	}
	var resp *MockResponse
	if script := m.scripts[url]; len(script) > 0 {
		resp = &script[0]
		m.scripts[url] = script[1:]
	}
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.inFlight--
		m.mu.Unlock()
	}()

	if resp == nil {
		def := NewSuccessResponse(body)
		resp = &def
	}

	if resp.Delay > 0 {
		time.Sleep(resp.Delay)
	}

	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}

	payload := []byte(resp.Body)
	if resp.Gzip {
		var buf bytes.Buffer
		gz := gzip.NewWriter(&buf)
		_, _ = gz.Write(payload)
		_ = gz.Close()
		payload = buf.Bytes()
		w.Header().Set("Content-Encoding", "gzip")
	}

	w.WriteHeader(resp.StatusCode)
	if len(payload) > 0 {
		_, _ = w.Write(payload)
	}
}

// PageHTML is the HTML the default response reports for url.
func PageHTML(url string) string {
	return "<html><head><title>" + url + "</title></head><body><p>" + url + "</p></body></html>"
}

// NewSuccessResponse builds a 200 response answering the options in request.
func NewSuccessResponse(request map[string]any) MockResponse {
	url, _ := request["url"].(string)
	out := map[string]any{
		"url":        url,
		"statusCode": 200,
	}
	if v, _ := request["httpResponseBody"].(bool); v {
		out["httpResponseBody"] = base64.StdEncoding.EncodeToString([]byte(PageHTML(url)))
	}
	if v, _ := request["browserHtml"].(bool); v {
		out["browserHtml"] = PageHTML(url)
	}
	if v, _ := request["article"].(bool); v {
		out["article"] = map[string]any{
			"headline":        "Headline for " + url,
			"datePublished":   "2023-05-12T10:00:00Z",
			"authors":         []map[string]any{{"name": "Jane Doe"}},
			"articleBodyHtml": "<h2>Intro</h2><p>Article body for " + url + "</p>",
			"articleBody":     "Intro\nArticle body for " + url,
		}
	}
	data, _ := json.Marshal(out)
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       string(data),
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}

// NewJSONResponse creates a 200 response with a literal JSON body.
func NewJSONResponse(body string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       body,
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}

// NewRateLimitResponse creates a 429 Too Many Requests response.
func NewRateLimitResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"type":"/limits/over-user-limit","title":"User throttled","status":429}`,
		Headers: map[string]string{
			"Content-Type": "application/problem+json",
			"Retry-After":  "1",
		},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"type":"/download/internal-error","title":"Internal Server Error","status":500}`,
		Headers:    map[string]string{"Content-Type": "application/problem+json"},
	}
}

// NewClientErrorResponse creates a 4xx response with a problem detail.
func NewClientErrorResponse(status int, detail string) MockResponse {
	body, _ := json.Marshal(map[string]any{
		"type":   "/request/invalid",
		"title":  "Invalid Request",
		"status": status,
		"detail": detail,
	})
	return MockResponse{
		StatusCode: status,
		Body:       string(body),
		Headers:    map[string]string{"Content-Type": "application/problem+json"},
	}
}
