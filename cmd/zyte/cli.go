package main

import (
	"context"
	"io"

	"github.com/Sternrassler/zyte-api-client/pkg/client"
	"github.com/Sternrassler/zyte-api-client/pkg/proxy"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer
	Client *client.Client
	Proxy  *proxy.Client
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Extract  ExtractCmd  `cmd:"" help:"Extract one or more URLs and print JSON results"`
	Article  ArticleCmd  `cmd:"" help:"Print the article of each URL as markdown"`
	ProxyGet ProxyGetCmd `cmd:"" name:"proxy-get" help:"Fetch a URL through the Zyte Smart Proxy"`
}

// ExtractCmd is the "extract" subcommand.
type ExtractCmd struct {
	URLs        []string `arg:"" name:"url" help:"URLs to extract"`
	RawBody     bool     `name:"raw-body" help:"Request the raw HTTP response body"`
	BrowserHTML bool     `name:"browser-html" help:"Request rendered browser HTML"`
	Article     bool     `name:"article" help:"Request parsed article data"`
	Concurrency int      `short:"c" help:"Maximum concurrent requests (default from ZYTE_API_CONCURRENCY)"`
}

// ArticleCmd is the "article" subcommand.
type ArticleCmd struct {
	URLs []string `arg:"" name:"url" help:"Article URLs"`
}

// ProxyGetCmd is the "proxy-get" subcommand.
type ProxyGetCmd struct {
	URL string `arg:"" help:"URL to fetch"`
}
