package cache

import (
	"fmt"
	"sort"
	"strings"
)

// CacheKey represents a unique identifier for a cached extraction.
type CacheKey struct {
	// URL is the extracted page URL
	URL string

	// Options are the extraction options sent with the URL
	Options map[string]any
}

// String generates a deterministic cache key string.
// Format: zyte:url:opt1=val1:opt2=val2
//
// Example:
//
//	zyte:https://example.com/a:article=true:browserHtml=true
func (k CacheKey) String() string {
	parts := []string{"zyte", k.URL}

	if len(k.Options) > 0 {
		keys := make([]string, 0, len(k.Options))
		for key := range k.Options {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			parts = append(parts, fmt.Sprintf("%s=%v", key, k.Options[key]))
		}
	}

	return strings.Join(parts, ":")
}
