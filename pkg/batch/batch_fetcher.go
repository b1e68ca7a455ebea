// Package batch provides bounded-concurrency fetching of URL lists
package batch

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Config holds batch fetcher configuration
type Config struct {
	// MaxConcurrency is the maximum number of URLs in flight at once
	MaxConcurrency int
	// Timeout bounds one URL including its retries (0 = no per-URL timeout)
	Timeout time.Duration
	// Logger overrides the component logger
	Logger *zerolog.Logger
}

// DefaultConfig returns the default batch configuration
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 5,
	}
}

// URLFetcher resolves a single URL to a terminal outcome.
// Implementations run their own retry loop; the batch fetcher never re-issues a URL.
type URLFetcher[T any] interface {
	// FetchURL returns the fetched value and the number of attempts made
	FetchURL(ctx context.Context, url string) (value T, attempts int, err error)
}

// FetcherFunc adapts a function to the URLFetcher interface
type FetcherFunc[T any] func(ctx context.Context, url string) (T, int, error)

// FetchURL calls f(ctx, url)
func (f FetcherFunc[T]) FetchURL(ctx context.Context, url string) (T, int, error) {
	return f(ctx, url)
}

// URLResult represents the terminal outcome of one URL
type URLResult[T any] struct {
	URL      string
	Value    T
	Attempts int
	Duration time.Duration
	Err      error
}

// BatchFetcher handles concurrent fetching of URL lists
type BatchFetcher[T any] struct {
	fetcher URLFetcher[T]
	config  Config
	logger  zerolog.Logger

	inFlight atomic.Int64
	peak     atomic.Int64
}

// NewBatchFetcher creates a new batch fetcher
func NewBatchFetcher[T any](fetcher URLFetcher[T], config Config) *BatchFetcher[T] {
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 5
	}

	logger := log.With().Str("component", "batch").Logger()
	if config.Logger != nil {
		logger = *config.Logger
	}

	return &BatchFetcher[T]{
		fetcher: fetcher,
		config:  config,
		logger:  logger,
	}
}

// InFlight returns the number of URLs currently being fetched
func (bf *BatchFetcher[T]) InFlight() int {
	return int(bf.inFlight.Load())
}

// PeakInFlight returns the highest in-flight count observed so far
func (bf *BatchFetcher[T]) PeakInFlight() int {
	return int(bf.peak.Load())
}

// FetchAll fetches every URL using a fixed pool of workers and blocks until
// each one has reached a terminal state. The returned map has one entry per
// distinct URL; when a URL is listed twice, the later completion wins.
func (bf *BatchFetcher[T]) FetchAll(ctx context.Context, urls []string) map[string]URLResult[T] {
	if len(urls) == 0 {
		return map[string]URLResult[T]{}
	}

	start := time.Now()
	workers := min(bf.config.MaxConcurrency, len(urls))

	bf.logger.Debug().
		Int("urls", len(urls)).
		Int("workers", workers).
		Msg("Starting batch fetch")

	// Fill URL queue
	urlQueue := make(chan string, len(urls))
	for _, url := range urls {
		urlQueue <- url
	}
	close(urlQueue)

	urlResults := make(chan URLResult[T], workers)

	// Start worker pool
	var g errgroup.Group
	for i := 0; i < workers; i++ {
		workerID := i
		g.Go(func() error {
			bf.worker(ctx, urlQueue, urlResults, workerID)
			return nil
		})
	}

	// Close results channel when all workers done
	go func() {
		_ = g.Wait()
		close(urlResults)
	}()

	// Collect results
	collector := NewCollector[T](len(urls))
	completed := 0
	for result := range urlResults {
		collector.Add(result)
		completed++

		if completed%50 == 0 {
			bf.logger.Info().
				Int("completed", completed).
				Int("total", len(urls)).
				Float64("progress_pct", float64(completed)/float64(len(urls))*100).
				Msg("Batch progress")
		}
	}

	succeeded, failed := collector.Counts()
	batchDuration.Observe(time.Since(start).Seconds())

	bf.logger.Info().
		Int("urls", len(urls)).
		Int("succeeded", succeeded).
		Int("failed", failed).
		Dur("duration", time.Since(start)).
		Msg("Batch complete")

	return collector.Results()
}

// worker processes URLs from the queue until it is drained
func (bf *BatchFetcher[T]) worker(ctx context.Context, urlQueue <-chan string, results chan<- URLResult[T], workerID int) {
	processed := 0
	for url := range urlQueue {
		results <- bf.fetchOne(ctx, url)
		processed++
	}

	if processed > 0 {
		bf.logger.Debug().
			Int("worker_id", workerID).
			Int("urls_processed", processed).
			Msg("Worker completed")
	}
}

// fetchOne drives one URL to its terminal state. A panic in the fetcher is
// converted into that URL's error.
func (bf *BatchFetcher[T]) fetchOne(ctx context.Context, url string) (result URLResult[T]) {
	result.URL = url

	if err := ctx.Err(); err != nil {
		result.Err = err
		batchURLsTotal.WithLabelValues("failed").Inc()
		return result
	}

	fetchCtx := ctx
	if bf.config.Timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, bf.config.Timeout)
		defer cancel()
	}

	bf.enter()
	defer bf.leave()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			bf.logger.Error().
				Str("url", url).
				Interface("panic", r).
				Msg("URL fetch panicked")
			result.Err = fmt.Errorf("fetch %s: panic: %v", url, r)
		}
		result.Duration = time.Since(start)
		if result.Err != nil {
			batchURLsTotal.WithLabelValues("failed").Inc()
		} else {
			batchURLsTotal.WithLabelValues("succeeded").Inc()
		}
	}()

	result.Value, result.Attempts, result.Err = bf.fetcher.FetchURL(fetchCtx, url)
	if result.Err != nil {
		bf.logger.Warn().
			Err(result.Err).
			Str("url", url).
			Int("attempts", result.Attempts).
			Msg("URL fetch failed")
	}

	return result
}

func (bf *BatchFetcher[T]) enter() {
	n := bf.inFlight.Add(1)
	batchInFlight.Inc()
	for {
		peak := bf.peak.Load()
		if n <= peak || bf.peak.CompareAndSwap(peak, n) {
			return
		}
	}
}

func (bf *BatchFetcher[T]) leave() {
	bf.inFlight.Add(-1)
	batchInFlight.Dec()
}
