package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sternrassler/zyte-api-client/internal/config"
	"github.com/Sternrassler/zyte-api-client/pkg/client"
	"github.com/Sternrassler/zyte-api-client/pkg/logging"
	"github.com/Sternrassler/zyte-api-client/pkg/metrics"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// maxRequestBytes bounds the /extract request body.
const maxRequestBytes = 1 << 20

func main() {
	cfg := config.Load()

	_, closeLog := logging.Setup(cfg.Logging())

	err := run(cfg)
	if err != nil {
		log.Error().Err(err).Msg("Server failed")
	}
	_ = closeLog()
	if err != nil {
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	manager, redisClient, err := cfg.OpenCache(ctx)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
		log.Info().Str("redis", cfg.RedisURL).Msg("Connected to Redis")
	}

	clientCfg := cfg.ClientConfig()
	clientCfg.Cache = manager
	zyteClient, err := client.New(clientCfg)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	defer zyteClient.Close()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newMux(zyteClient, redisClient),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Int("concurrency", cfg.Concurrency).
			Bool("cache", manager != nil).
			Msg("Starting extraction server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newMux(zyteClient *client.Client, redisClient *redis.Client) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/ready", readyHandler(redisClient))
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/extract", extractHandler(zyteClient))
	return mux
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

// readyHandler reports 503 while a configured Redis cache is unreachable.
func readyHandler(redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if redisClient != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := redisClient.Ping(ctx).Err(); err != nil {
				log.Warn().Err(err).Msg("Readiness check failed")
				http.Error(w, "Redis unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK")
	}
}

// extractRequest is the body of POST /extract.
type extractRequest struct {
	URLs    []string       `json:"urls"`
	Options client.Options `json:"options,omitempty"`
}

// extractHandler runs one batch per request and answers with the
// per-URL results keyed by URL. Individual failures do not change the
// response status.
func extractHandler(zyteClient *client.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req extractRequest
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
		if err := dec.Decode(&req); err != nil {
			http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
			return
		}
		if len(req.URLs) == 0 {
			http.Error(w, "urls must not be empty", http.StatusBadRequest)
			return
		}

		results := zyteClient.ExtractMany(r.Context(), req.URLs, req.Options)

		log.Info().
			Int("urls", len(req.URLs)).
			Int("succeeded", results.Succeeded()).
			Int("failed", len(results.Failed())).
			Msg("Extraction request served")

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(results); err != nil {
			log.Error().Err(err).Msg("Failed to write response")
		}
	}
}
