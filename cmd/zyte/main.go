package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/Sternrassler/zyte-api-client/internal/config"
	"github.com/Sternrassler/zyte-api-client/pkg/client"
	"github.com/Sternrassler/zyte-api-client/pkg/logging"
	"github.com/Sternrassler/zyte-api-client/pkg/proxy"
	"github.com/alecthomas/kong"
	"github.com/redis/go-redis/v9"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Config is loaded from the environment. Set before calling Run().
	Config *config.Config

	client *client.Client
	redis  *redis.Client
}

// NewMain returns a new instance of Main with configuration from the environment.
func NewMain() *Main {
	return &Main{
		Config: config.Load(),
	}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.client != nil {
		_ = m.client.Close()
	}
	if m.redis != nil {
		return m.redis.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("zyte"),
		kong.Description("Extract pages through the Zyte API."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'zyte --help' to see available commands")
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	logCfg := m.Config.Logging()
	logCfg.Output = stderr
	_, closeLog := logging.Setup(logCfg)
	defer closeLog()

	if cmd == "proxy-get" {
		p, err := proxy.New(m.Config.Proxy, proxy.WithLogger(logging.NewLogger("zyte-proxy")))
		if err != nil {
			fmt.Fprintln(stderr, "Hint: set ZYTE_PROXY to the proxy address")
			return err
		}
		deps.Proxy = p
		return kongCtx.Run(deps)
	}

	if cmd == "extract" && cli.Extract.Concurrency > 0 {
		m.Config.Concurrency = cli.Extract.Concurrency
	}
	if err := m.Config.Validate(); err != nil {
		fmt.Fprintln(stderr, "Hint: set ZYTE_API_KEY to your Zyte API key")
		return err
	}

	clientCfg := m.Config.ClientConfig()
	manager, redisClient, err := m.Config.OpenCache(ctx)
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	m.redis = redisClient
	defer m.Close()
	clientCfg.Cache = manager

	m.client, err = client.New(clientCfg)
	if err != nil {
		return err
	}

	deps.Client = m.client
	return kongCtx.Run(deps)
}
