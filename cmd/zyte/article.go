package main

import (
	"fmt"
	"sort"
	"strings"
)

// Run executes the article command.
func (c *ArticleCmd) Run(deps *Dependencies) error {
	articles := deps.Client.ExtractArticleContents(deps.Ctx, c.URLs)

	urls := make([]string, 0, len(articles))
	for url := range articles {
		urls = append(urls, url)
	}
	sort.Strings(urls)

	failed := 0
	for _, url := range urls {
		a := articles[url]
		if a.Err != nil {
			failed++
			fmt.Fprintf(deps.Stderr, "error: %s: %v\n", url, a.Err)
			continue
		}
		if a.Value.Content == "" {
			fmt.Fprintf(deps.Stderr, "warning: %s: no article body found\n", url)
			continue
		}

		meta := a.Value.Meta
		fmt.Fprintln(deps.Stdout, "---")
		fmt.Fprintf(deps.Stdout, "url: %s\n", meta.URL)
		fmt.Fprintf(deps.Stdout, "headline: %s\n", meta.Headline)
		if meta.HTMLTitle != "" {
			fmt.Fprintf(deps.Stdout, "html_title: %s\n", meta.HTMLTitle)
		}
		if meta.PublishedOn != "" {
			fmt.Fprintf(deps.Stdout, "published_on: %s\n", meta.PublishedOn)
		}
		if len(meta.Authors) > 0 {
			fmt.Fprintf(deps.Stdout, "authors: %s\n", strings.Join(meta.Authors, ", "))
		}
		fmt.Fprintln(deps.Stdout, "---")
		fmt.Fprintln(deps.Stdout)
		fmt.Fprintln(deps.Stdout, a.Value.Content)
		fmt.Fprintln(deps.Stdout)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d URLs failed", failed, len(urls))
	}
	return nil
}
