package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for throttle tracking.
var (
	zyteThrottlesInWindow = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "zyte_rate_limit_throttles_in_window",
		Help: "Number of 429 responses seen in the current observation window",
	})

	zyteThrottledResponsesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "zyte_rate_limit_throttled_responses_total",
		Help: "Total number of 429 responses received from the extraction API",
	})
)

// Tracker records upstream throttling. It only observes; it never delays
// requests.
type Tracker struct {
	mu     sync.Mutex
	state  ThrottleState
	window time.Duration
	now    func() time.Time
	logger zerolog.Logger
}

// NewTracker creates a new throttle tracker with DefaultWindow.
func NewTracker(logger zerolog.Logger) *Tracker {
	return &Tracker{
		window: DefaultWindow,
		now:    time.Now,
		logger: logger,
	}
}

// State returns a snapshot of the current window.
func (t *Tracker) State() ThrottleState {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rollWindow()
	state := t.state
	state.UpdateHealth()
	return state
}

// Observe records one upstream response.
func (t *Tracker) Observe(statusCode int, headers http.Header) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rollWindow()
	t.state.Responses++

	if statusCode != http.StatusTooManyRequests {
		return
	}

	t.state.Throttles++
	t.state.LastThrottle = t.now()
	if retryAfter, ok := ParseRetryAfter(headers.Get("Retry-After"), t.now()); ok {
		t.state.RetryAfter = retryAfter
	}
	t.state.UpdateHealth()

	zyteThrottledResponsesTotal.Inc()
	zyteThrottlesInWindow.Set(float64(t.state.Throttles))

	switch {
	case t.state.IsCritical():
		t.logger.Error().
			Int("throttles", t.state.Throttles).
			Dur("retry_after", t.state.RetryAfter).
			Msg("Extraction API throttling CRITICAL - consider lowering concurrency")
	case t.state.IsWarning():
		t.logger.Warn().
			Int("throttles", t.state.Throttles).
			Dur("retry_after", t.state.RetryAfter).
			Msg("Extraction API throttling WARNING")
	default:
		t.logger.Debug().
			Int("throttles", t.state.Throttles).
			Msg("Extraction API throttled request")
	}
}

// rollWindow starts a new window when the current one has expired.
// Caller must hold t.mu.
func (t *Tracker) rollWindow() {
	now := t.now()
	if t.state.WindowStart.IsZero() || now.Sub(t.state.WindowStart) >= t.window {
		t.state = ThrottleState{WindowStart: now, IsHealthy: true}
		zyteThrottlesInWindow.Set(0)
	}
}

// ParseRetryAfter parses a Retry-After header value given either as
// delay-seconds or as an HTTP date.
func ParseRetryAfter(value string, now time.Time) (time.Duration, bool) {
	if value == "" {
		return 0, false
	}

	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}

	at, err := http.ParseTime(value)
	if err != nil {
		return 0, false
	}
	d := at.Sub(now)
	if d < 0 {
		d = 0
	}
	return d, true
}
