package client

import (
	"encoding/json"
	"errors"
	"sort"
)

// Result is the outcome of extracting one URL: either Payload is set, or Err is.
type Result struct {
	URL      string
	Payload  *Payload
	Err      error
	Attempts int
	Cached   bool
}

// OK reports whether the extraction succeeded.
func (r Result) OK() bool {
	return r.Err == nil && r.Payload != nil
}

// ErrorClass returns the failure classification, or "" on success.
func (r Result) ErrorClass() ErrorClass {
	return ClassOf(r.Err)
}

// RetryExhausted reports whether the URL failed after using every attempt.
func (r Result) RetryExhausted() bool {
	return errors.Is(r.Err, ErrRetryExhausted)
}

// resultJSON is the wire form of a Result.
type resultJSON struct {
	URL        string     `json:"url"`
	OK         bool       `json:"ok"`
	Attempts   int        `json:"attempts"`
	Cached     bool       `json:"cached,omitempty"`
	Error      string     `json:"error,omitempty"`
	ErrorClass ErrorClass `json:"error_class,omitempty"`
	Payload    *Payload   `json:"payload,omitempty"`
}

// MarshalJSON renders the result as {url, ok, attempts, payload|error}.
func (r Result) MarshalJSON() ([]byte, error) {
	out := resultJSON{
		URL:      r.URL,
		OK:       r.OK(),
		Attempts: r.Attempts,
		Cached:   r.Cached,
	}
	if r.Err != nil {
		out.Error = r.Err.Error()
		out.ErrorClass = r.ErrorClass()
	} else {
		out.Payload = r.Payload
	}
	return json.Marshal(out)
}

// Results maps each distinct input URL to its Result.
type Results map[string]Result

// URLs returns the keys in sorted order.
func (rs Results) URLs() []string {
	urls := make([]string, 0, len(rs))
	for url := range rs {
		urls = append(urls, url)
	}
	sort.Strings(urls)
	return urls
}

// Failed returns the sorted URLs whose extraction failed.
func (rs Results) Failed() []string {
	var urls []string
	for url, r := range rs {
		if !r.OK() {
			urls = append(urls, url)
		}
	}
	sort.Strings(urls)
	return urls
}

// Succeeded returns the number of successful entries.
func (rs Results) Succeeded() int {
	n := 0
	for _, r := range rs {
		if r.OK() {
			n++
		}
	}
	return n
}
