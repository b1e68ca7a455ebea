package main

import (
	"fmt"
	"io"

	"github.com/Sternrassler/zyte-api-client/pkg/proxy"
)

// Run executes the proxy-get command.
func (c *ProxyGetCmd) Run(deps *Dependencies) error {
	resp, err := deps.Proxy.Get(deps.Ctx, c.URL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	fmt.Fprintf(deps.Stderr, "status: %s\n", resp.Status)
	for _, hop := range proxy.RedirectHistory(resp) {
		fmt.Fprintf(deps.Stderr, "redirect: %s\n", hop)
	}

	if _, err := io.Copy(deps.Stdout, resp.Body); err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	return nil
}
