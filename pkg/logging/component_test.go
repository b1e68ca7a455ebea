package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/Sternrassler/zyte-api-client/internal/testutil"
	"github.com/Sternrassler/zyte-api-client/pkg/batch"
	"github.com/Sternrassler/zyte-api-client/pkg/client"
	"github.com/Sternrassler/zyte-api-client/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// eventsFor returns the JSON events logged by component.
func eventsFor(t *testing.T, buf *bytes.Buffer, component string) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var ev map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &ev), line)
		if ev["component"] == component {
			out = append(out, ev)
		}
	}
	return out
}

func TestSetup_BatchComponentLogs(t *testing.T) {
	buf := &bytes.Buffer{}
	logging.Setup(logging.Config{Level: logging.LevelInfo, Output: buf})

	bf := batch.NewBatchFetcher[string](batch.FetcherFunc[string](
		func(_ context.Context, url string) (string, int, error) {
			if url == "https://bad.example/" {
				return "", 1, errors.New("boom")
			}
			return url, 1, nil
		}), batch.DefaultConfig())

	bf.FetchAll(context.Background(), []string{"https://good.example/", "https://bad.example/"})

	events := eventsFor(t, buf, "batch")
	require.NotEmpty(t, events)

	var failed, complete map[string]any
	for _, ev := range events {
		switch ev["message"] {
		case "URL fetch failed":
			failed = ev
		case "Batch complete":
			complete = ev
		}
	}
	require.NotNil(t, failed)
	assert.Equal(t, "warn", failed["level"])
	assert.Equal(t, "https://bad.example/", failed["url"])
	assert.Equal(t, "boom", failed["error"])

	require.NotNil(t, complete)
	assert.Equal(t, float64(1), complete["succeeded"])
	assert.Equal(t, float64(1), complete["failed"])
}

func TestSetup_ClientComponentLogs(t *testing.T) {
	buf := &bytes.Buffer{}
	logging.Setup(logging.Config{Level: logging.LevelDebug, Output: buf})

	mock := testutil.NewMockZyte()
	defer mock.Close()
	url := "https://flaky.example/"
	mock.Script(url, testutil.NewServerErrorResponse())

	cfg := client.DefaultConfig("test-key")
	cfg.Endpoint = mock.URL()
	cfg.Retry.InitialBackoff = 0
	c, err := client.New(cfg)
	require.NoError(t, err)
	defer c.Close()

	require.True(t, c.Extract(context.Background(), url, nil).OK())

	events := eventsFor(t, buf, "zyte-client")
	require.NotEmpty(t, events)

	var retried bool
	for _, ev := range events {
		if ev["message"] == "Retrying request after backoff" {
			retried = true
			assert.Equal(t, url, ev["url"])
			assert.Equal(t, "server", ev["error_class"])
			assert.Equal(t, float64(1), ev["attempt"])
		}
	}
	assert.True(t, retried, "retry is logged by the client component")
}
