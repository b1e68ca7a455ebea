package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// DefaultEndpoint is the extraction API endpoint.
const DefaultEndpoint = "https://api.zyte.com/v1/extract"

// NewExtractRequest builds the POST request for a single URL.
// The body is the options object with the "url" key set to url; url
// always wins over a "url" entry in opts. No I/O is performed.
func NewExtractRequest(ctx context.Context, endpoint, apiKey, url string, opts Options) (*http.Request, error) {
	body := make(map[string]any, len(opts)+1)
	for k, v := range opts {
		body[k] = v
	}
	body["url"] = url

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "gzip")
	req.SetBasicAuth(apiKey, "")

	return req, nil
}
