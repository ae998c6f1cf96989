package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Prometheus metrics for quota admission.
var (
	quotaAdmittedUnits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hydrator_quota_admitted_units_total",
		Help: "Total quota units committed to the window",
	})

	quotaBlockedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hydrator_quota_blocked_total",
		Help: "Total admissions that had to wait for a window reset",
	})

	quotaWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "hydrator_quota_wait_seconds",
		Help:    "Time spent waiting for quota window resets",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
	})

	quotaExceededTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hydrator_quota_exceeded_total",
		Help: "Total admissions rejected because the cost can never fit the budget",
	})

	quotaWindowUsed = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hydrator_quota_window_used",
		Help: "Units used in the current quota window",
	})

	quotaRemoteDenials = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hydrator_quota_remote_denials_total",
		Help: "Total quota denials reported by the upstream API",
	})
)

// ErrQuotaExceeded indicates an admission cost that can never fit the
// window budget. Runs abort fast on this error instead of waiting for a
// reset that would not help.
var ErrQuotaExceeded = errors.New("quota exceeded")

// Config holds quota limiter settings.
type Config struct {
	// Budget is the number of units admittable per window.
	Budget int64

	// Window is the fixed window length. Usage resets to zero at each
	// window boundary.
	Window time.Duration

	// PerSecond optionally smooths admissions to this sustained rate so a
	// large run does not burn the whole window budget in one burst.
	// Zero disables smoothing.
	PerSecond float64

	// Burst is the smoothing burst size. Defaults to 1 when smoothing is
	// enabled.
	Burst int
}

// DefaultConfig returns settings matching the YouTube Data API default
// quota: 10000 units per day.
func DefaultConfig() Config {
	return Config{
		Budget: 10000,
		Window: 24 * time.Hour,
	}
}

// Limiter gates admissions against a fixed quota window. Check-then-commit
// is atomic: concurrent admissions never push usage past the budget.
type Limiter struct {
	cfg    Config
	logger zerolog.Logger
	pacer  *rate.Limiter

	mu          sync.Mutex
	used        int64
	windowStart time.Time
	deniedUntil time.Time

	now func() time.Time
}

// New creates a quota limiter. Panics if budget or window is not positive.
func New(cfg Config, logger zerolog.Logger) *Limiter {
	if cfg.Budget <= 0 {
		panic("ratelimit: budget must be positive")
	}
	if cfg.Window <= 0 {
		panic("ratelimit: window must be positive")
	}

	l := &Limiter{
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
	l.windowStart = l.now()

	if cfg.PerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		l.pacer = rate.NewLimiter(rate.Limit(cfg.PerSecond), burst)
	}

	return l
}

// Admit blocks until cost units fit into the quota window, then commits
// them. It returns ErrQuotaExceeded immediately when the cost exceeds the
// whole-window budget, and ctx.Err() when the context ends first.
// Committed units are never refunded.
func (l *Limiter) Admit(ctx context.Context, cost int64) error {
	if cost <= 0 {
		return fmt.Errorf("admit cost must be positive, got %d", cost)
	}
	if cost > l.cfg.Budget {
		quotaExceededTotal.Inc()
		l.logger.Error().
			Int64("cost", cost).
			Int64("budget", l.cfg.Budget).
			Msg("admission cost exceeds window budget")
		return fmt.Errorf("%w: cost %d exceeds window budget %d", ErrQuotaExceeded, cost, l.cfg.Budget)
	}

	if l.pacer != nil {
		if err := l.pacer.Wait(ctx); err != nil {
			return ctx.Err()
		}
	}

	for {
		l.mu.Lock()
		now := l.now()
		l.rollLocked(now)

		if l.admittableLocked(now, cost) {
			l.used += cost
			quotaAdmittedUnits.Add(float64(cost))
			quotaWindowUsed.Set(float64(l.used))
			l.mu.Unlock()
			return nil
		}

		wait := l.waitLocked(now, cost)
		l.mu.Unlock()

		quotaBlockedTotal.Inc()
		quotaWaitSeconds.Observe(wait.Seconds())
		l.logger.Debug().
			Int64("cost", cost).
			Dur("wait", wait).
			Msg("quota window full, waiting for reset")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// TryAdmit commits cost units if they fit the current window right now.
// It never blocks.
func (l *Limiter) TryAdmit(cost int64) bool {
	if cost <= 0 || cost > l.cfg.Budget {
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.rollLocked(now)

	if !l.admittableLocked(now, cost) {
		return false
	}
	l.used += cost
	quotaAdmittedUnits.Add(float64(cost))
	quotaWindowUsed.Set(float64(l.used))
	return true
}

// RecordRemoteDenial notes that the upstream rejected a call for quota
// reasons. Admissions pause until retryAfter has elapsed, on top of the
// local window accounting.
func (l *Limiter) RecordRemoteDenial(retryAfter time.Duration) {
	if retryAfter <= 0 {
		retryAfter = time.Second
	}

	l.mu.Lock()
	until := l.now().Add(retryAfter)
	if until.After(l.deniedUntil) {
		l.deniedUntil = until
	}
	l.mu.Unlock()

	quotaRemoteDenials.Inc()
	l.logger.Warn().
		Dur("retry_after", retryAfter).
		Msg("upstream quota denial, pausing admissions")
}

// State returns a snapshot of the current window.
func (l *Limiter) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.rollLocked(now)

	return State{
		Used:        l.used,
		Budget:      l.cfg.Budget,
		Remaining:   l.cfg.Budget - l.used,
		WindowStart: l.windowStart,
		ResetAt:     l.windowStart.Add(l.cfg.Window),
		Window:      l.cfg.Window,
	}
}

// rollLocked advances the window when its end has passed. Windows stay
// aligned to the original start, so rollover is deterministic under an
// arbitrary idle gap.
func (l *Limiter) rollLocked(now time.Time) {
	elapsed := now.Sub(l.windowStart)
	if elapsed < l.cfg.Window {
		return
	}
	n := elapsed / l.cfg.Window
	l.windowStart = l.windowStart.Add(n * l.cfg.Window)
	l.used = 0
	quotaWindowUsed.Set(0)
}

func (l *Limiter) admittableLocked(now time.Time, cost int64) bool {
	if l.deniedUntil.After(now) {
		return false
	}
	return l.used+cost <= l.cfg.Budget
}

// waitLocked returns how long to sleep before the admission could succeed:
// the window reset when the budget is spent, the denial end when the
// upstream told us to back off, whichever is later.
func (l *Limiter) waitLocked(now time.Time, cost int64) time.Duration {
	var wait time.Duration
	if l.used+cost > l.cfg.Budget {
		wait = l.windowStart.Add(l.cfg.Window).Sub(now)
	}
	if l.deniedUntil.After(now) {
		if d := l.deniedUntil.Sub(now); d > wait {
			wait = d
		}
	}
	if wait <= 0 {
		wait = time.Millisecond
	}
	return wait
}
