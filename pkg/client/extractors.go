package client

import (
	"context"
)

// Extracted is one URL's outcome from a convenience extractor.
type Extracted[T any] struct {
	Value T
	Err   error
}

// pick maps every result through fn, keeping failures as they are.
func pick[T any](results Results, fn func(*Payload) (T, error)) map[string]Extracted[T] {
	out := make(map[string]Extracted[T], len(results))
	for url, r := range results {
		if r.Err != nil {
			out[url] = Extracted[T]{Err: r.Err}
			continue
		}
		v, err := fn(r.Payload)
		out[url] = Extracted[T]{Value: v, Err: err}
	}
	return out
}

func single[T any](url string, many map[string]Extracted[T]) (T, error) {
	e := many[url]
	return e.Value, e.Err
}

// ExtractHTTPBody returns the raw page body for url.
func (c *Client) ExtractHTTPBody(ctx context.Context, url string) ([]byte, error) {
	return single(url, c.ExtractHTTPBodies(ctx, []string{url}))
}

// ExtractHTTPBodies returns the raw page body for every URL.
func (c *Client) ExtractHTTPBodies(ctx context.Context, urls []string) map[string]Extracted[[]byte] {
	results := c.ExtractMany(ctx, urls, Options{OptionHTTPResponseBody: true})
	return pick(results, func(p *Payload) ([]byte, error) {
		return p.HTTPResponseBody, nil
	})
}

// ExtractBrowserHTML returns the rendered browser HTML for url.
func (c *Client) ExtractBrowserHTML(ctx context.Context, url string) (string, error) {
	return single(url, c.ExtractBrowserHTMLs(ctx, []string{url}))
}

// ExtractBrowserHTMLs returns the rendered browser HTML for every URL.
func (c *Client) ExtractBrowserHTMLs(ctx context.Context, urls []string) map[string]Extracted[string] {
	results := c.ExtractMany(ctx, urls, Options{OptionBrowserHTML: true})
	return pick(results, func(p *Payload) (string, error) {
		return p.BrowserHTML, nil
	})
}

// ExtractArticle returns the parsed article for url. The article is nil when
// the API found none.
func (c *Client) ExtractArticle(ctx context.Context, url string) (*Article, error) {
	return single(url, c.ExtractArticles(ctx, []string{url}))
}

// ExtractArticles returns the parsed article for every URL.
func (c *Client) ExtractArticles(ctx context.Context, urls []string) map[string]Extracted[*Article] {
	results := c.ExtractMany(ctx, urls, Options{OptionArticle: true})
	return pick(results, func(p *Payload) (*Article, error) {
		return p.Article, nil
	})
}
