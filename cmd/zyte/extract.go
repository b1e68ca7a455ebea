package main

import (
	"encoding/json"
	"fmt"

	"github.com/Sternrassler/zyte-api-client/pkg/client"
)

// Options builds the extraction options from the flags.
// No flags means the client's default options.
func (c *ExtractCmd) Options() client.Options {
	opts := client.Options{}
	if c.RawBody {
		opts[client.OptionHTTPResponseBody] = true
	}
	if c.BrowserHTML {
		opts[client.OptionBrowserHTML] = true
	}
	if c.Article {
		opts[client.OptionArticle] = true
	}
	if len(opts) == 0 {
		return nil
	}
	return opts
}

// Run executes the extract command.
func (c *ExtractCmd) Run(deps *Dependencies) error {
	results := deps.Client.ExtractMany(deps.Ctx, c.URLs, c.Options())

	enc := json.NewEncoder(deps.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("encode results: %w", err)
	}

	if failed := results.Failed(); len(failed) > 0 {
		return fmt.Errorf("%d of %d URLs failed", len(failed), len(results))
	}
	return nil
}
