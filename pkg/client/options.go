package client

import (
	"fmt"
	"sort"
	"strings"
)

// Option names understood by the extraction API.
const (
	OptionHTTPResponseBody = "httpResponseBody"
	OptionBrowserHTML      = "browserHtml"
	OptionArticle          = "article"
)

// Options is a set of named extraction flags sent alongside the URL.
// Values are booleans or JSON scalars; keys are unique and order is irrelevant.
type Options map[string]any

// DefaultOptions requests the raw HTTP body only.
func DefaultOptions() Options {
	return Options{OptionHTTPResponseBody: true}
}

// Requested reports whether the flag name is set to true.
func (o Options) Requested(name string) bool {
	v, ok := o[name]
	if !ok {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

// Clone returns a shallow copy of the options.
func (o Options) Clone() Options {
	out := make(Options, len(o))
	for k, v := range o {
		out[k] = v
	}
	return out
}

// String renders the options deterministically, sorted by key.
func (o Options) String() string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, o[k]))
	}
	return strings.Join(parts, ",")
}

// resolveOptions returns opts, or a copy of defaults when opts is empty.
func resolveOptions(opts, defaults Options) Options {
	if len(opts) > 0 {
		return opts
	}
	if len(defaults) == 0 {
		return DefaultOptions()
	}
	return defaults.Clone()
}
