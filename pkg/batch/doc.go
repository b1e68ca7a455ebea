// Package batch provides bounded-concurrency fetching of URL lists.
//
// A BatchFetcher runs a fixed pool of workers (MaxConcurrency, default 5).
// Each worker takes one URL from the queue and keeps it until the URL reaches
// a terminal state, retries included, so the number of URLs in flight never
// exceeds the pool size no matter how long the input list is.
//
// Example usage:
//
//	fetcher := batch.NewBatchFetcher(batch.FetcherFunc[[]byte](fetchOne), batch.DefaultConfig())
//	results := fetcher.FetchAll(ctx, urls)
//	for url, r := range results {
//		if r.Err != nil {
//			// handle this URL only
//		}
//	}
//
// The batch fetcher:
//   - Never serializes unrelated URLs behind one another
//   - Isolates failures: an error or panic for one URL is recorded for that URL only
//   - Blocks until every URL is resolved and returns one entry per distinct URL
//   - Resolves queued URLs with the context error once the context is done
package batch
