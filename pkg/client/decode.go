package client

import (
	"encoding/base64"
	"encoding/json"
)

// Author is an article author as reported by the extraction API.
type Author struct {
	Name string `json:"name"`
}

// Article holds the parsed article fields returned for {"article": true}.
type Article struct {
	Headline        string   `json:"headline"`
	DatePublished   string   `json:"datePublished"`
	DateModified    string   `json:"dateModified"`
	Authors         []Author `json:"authors"`
	ArticleBody     string   `json:"articleBody"`
	ArticleBodyHTML string   `json:"articleBodyHtml"`
	Description     string   `json:"description"`
	InLanguage      string   `json:"inLanguage"`
	URL             string   `json:"url"`
	CanonicalURL    string   `json:"canonicalUrl"`
}

// Payload is a decoded successful extraction response.
type Payload struct {
	URL        string `json:"url"`
	StatusCode int    `json:"statusCode"`

	// HTTPResponseBody is the raw page body, already base64-decoded.
	HTTPResponseBody []byte `json:"httpResponseBody,omitempty"`

	BrowserHTML string   `json:"browserHtml,omitempty"`
	Article     *Article `json:"article,omitempty"`

	// Fields holds every top-level field exactly as received.
	Fields map[string]json.RawMessage `json:"-"`
}

// envelope mirrors the response JSON before binary fields are decoded.
type envelope struct {
	URL              string   `json:"url"`
	StatusCode       int      `json:"statusCode"`
	HTTPResponseBody string   `json:"httpResponseBody"`
	BrowserHTML      string   `json:"browserHtml"`
	Article          *Article `json:"article"`
}

// Decode interprets a successful response body according to the requested
// options. Absent fields decode to zero values.
func Decode(raw []byte, opts Options) (*Payload, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, &DecodeError{Err: err}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &DecodeError{Err: err}
	}

	payload := &Payload{
		URL:         env.URL,
		StatusCode:  env.StatusCode,
		BrowserHTML: env.BrowserHTML,
		Article:     env.Article,
		Fields:      fields,
	}

	if opts.Requested(OptionHTTPResponseBody) && env.HTTPResponseBody != "" {
		body, err := base64.StdEncoding.DecodeString(env.HTTPResponseBody)
		if err != nil {
			return nil, &DecodeError{Field: OptionHTTPResponseBody, Err: err}
		}
		payload.HTTPResponseBody = body
	}

	return payload, nil
}
