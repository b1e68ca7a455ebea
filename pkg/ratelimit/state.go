// Package ratelimit implements outbound request pacing and tracking of
// upstream throttling. It watches 429 responses and the Retry-After header
// so operators can see when the account limit is being hit.
package ratelimit

import (
	"time"
)

// Thresholds for throttle health, counted within one observation window.
const (
	// ThrottleThresholdWarning marks the state unhealthy when this many 429s
	// were seen in the current window.
	ThrottleThresholdWarning = 5

	// ThrottleThresholdCritical is logged at error level.
	ThrottleThresholdCritical = 20

	// DefaultWindow is the length of one observation window.
	DefaultWindow = 60 * time.Second
)

// ThrottleState represents the upstream throttling observed in the current window.
type ThrottleState struct {
	// Throttles is the number of 429 responses seen since WindowStart.
	Throttles int `json:"throttles"`

	// Responses is the number of responses seen since WindowStart.
	Responses int `json:"responses"`

	// WindowStart is when the current window began.
	WindowStart time.Time `json:"window_start"`

	// LastThrottle is when the most recent 429 was seen.
	LastThrottle time.Time `json:"last_throttle"`

	// RetryAfter is the most recent Retry-After hint from the upstream.
	RetryAfter time.Duration `json:"retry_after"`

	// IsHealthy is true while Throttles < ThrottleThresholdWarning.
	IsHealthy bool `json:"is_healthy"`
}

// IsStale returns true if the window is older than the given duration.
func (s *ThrottleState) IsStale(maxAge time.Duration) bool {
	return time.Since(s.WindowStart) > maxAge
}

// IsCritical returns true if throttling has reached the critical threshold.
func (s *ThrottleState) IsCritical() bool {
	return s.Throttles >= ThrottleThresholdCritical
}

// IsWarning returns true if throttling is elevated but not critical.
func (s *ThrottleState) IsWarning() bool {
	return s.Throttles >= ThrottleThresholdWarning && !s.IsCritical()
}

// ThrottleRatio returns the share of responses in the window that were 429s.
func (s *ThrottleState) ThrottleRatio() float64 {
	if s.Responses == 0 {
		return 0
	}
	return float64(s.Throttles) / float64(s.Responses)
}

// UpdateHealth updates the IsHealthy field based on current Throttles.
func (s *ThrottleState) UpdateHealth() {
	s.IsHealthy = s.Throttles < ThrottleThresholdWarning
}
