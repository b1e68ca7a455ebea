package batch

// Collector merges URL results into a single map.
// It is owned by one goroutine; the map is handed out only after the last Add.
type Collector[T any] struct {
	results   map[string]URLResult[T]
	succeeded int
	failed    int
}

// NewCollector creates a collector sized for n results
func NewCollector[T any](n int) *Collector[T] {
	return &Collector[T]{
		results: make(map[string]URLResult[T], n),
	}
}

// Add records a completion. A later result for the same URL replaces the earlier one.
func (c *Collector[T]) Add(result URLResult[T]) {
	c.results[result.URL] = result
	if result.Err != nil {
		c.failed++
	} else {
		c.succeeded++
	}
}

// Counts returns the number of successful and failed completions added,
// counting duplicate URLs once per completion.
func (c *Collector[T]) Counts() (succeeded, failed int) {
	return c.succeeded, c.failed
}

// Results returns the collected map
func (c *Collector[T]) Results() map[string]URLResult[T] {
	return c.results
}
