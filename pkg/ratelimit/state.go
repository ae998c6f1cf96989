// Package ratelimit implements fixed-window quota accounting and request
// gating for metadata fetches. Every batch pays its cost into the current
// window before any network call; when the window is spent, admission blocks
// until the window resets. Costs that can never fit the budget fail fast.
package ratelimit

import (
	"time"
)

// WarnRemainingRatio marks the window as near exhaustion when the remaining
// budget drops below this share of the total.
const WarnRemainingRatio = 0.1

// State is a point-in-time snapshot of the quota window.
type State struct {
	// Used is the number of units committed in the current window.
	Used int64 `json:"used"`

	// Budget is the total number of units allowed per window.
	Budget int64 `json:"budget"`

	// Remaining is the number of units still admittable in this window.
	Remaining int64 `json:"remaining"`

	// WindowStart is when the current window began.
	WindowStart time.Time `json:"window_start"`

	// ResetAt is when the current window ends and usage returns to zero.
	ResetAt time.Time `json:"reset_at"`

	// Window is the configured window length.
	Window time.Duration `json:"window"`
}

// Exhausted returns true if no unit can be admitted in the current window.
func (s State) Exhausted() bool {
	return s.Remaining <= 0
}

// NearExhaustion returns true if the remaining budget has dropped below
// WarnRemainingRatio of the total.
func (s State) NearExhaustion() bool {
	return float64(s.Remaining) < WarnRemainingRatio*float64(s.Budget)
}

// TimeUntilReset returns the duration until the window resets.
// Returns 0 if the reset time has already passed.
func (s State) TimeUntilReset() time.Duration {
	duration := time.Until(s.ResetAt)
	if duration < 0 {
		return 0
	}
	return duration
}

// UsageRatio returns the used share of the window budget, 0.0 to 1.0.
func (s State) UsageRatio() float64 {
	if s.Budget <= 0 {
		return 0
	}
	return float64(s.Used) / float64(s.Budget)
}
