// Package ratelimit implements the multi-window admission gate guarding
// calls to the extraction oracle.
package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

// Scope identifies which window rejected a request.
type Scope string

const (
	ScopeMinute Scope = "minute"
	ScopeHour   Scope = "hour"
	ScopeDay    Scope = "day"
)

// GlobalIdentifier is used when no caller identity is available.
const GlobalIdentifier = "global"

// Config holds the per-identifier budgets for each window.
type Config struct {
	MaxPerMinute int
	MaxPerHour   int
	MaxPerDay    int
}

// DefaultConfig returns the conservative free-tier budgets.
func DefaultConfig() Config {
	return Config{
		MaxPerMinute: 2,
		MaxPerHour:   10,
		MaxPerDay:    50,
	}
}

// Remaining reports the unused budget in each window.
type Remaining struct {
	Minute int `json:"minute"`
	Hour   int `json:"hour"`
	Day    int `json:"day"`
}

// Decision is the outcome of an admission check.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration // positive when rejected
	Scope      Scope         // exhausted window when rejected
	Remaining  Remaining
	Message    string
}

// WindowUsage reports consumption of a single window.
type WindowUsage struct {
	Used      int `json:"used"`
	Limit     int `json:"limit"`
	Remaining int `json:"remaining"`
}

// Usage reports consumption across all three windows.
type Usage struct {
	Minute WindowUsage `json:"minute"`
	Hour   WindowUsage `json:"hour"`
	Day    WindowUsage `json:"day"`
}

// entry is a single fixed window: opened by the first request, valid until
// resetAt, then replaced wholesale by the next request.
type entry struct {
	count   int
	resetAt time.Time
}

// Limiter bounds the oracle call rate per caller identifier across three
// independent fixed windows. The check-then-increment sequence is a critical
// section; all state is guarded by a single mutex.
type Limiter struct {
	mu     sync.Mutex
	minute map[string]*entry
	hour   map[string]*entry
	day    map[string]*entry
	cfg    Config
	now    func() time.Time
}

// New creates a Limiter with the given budgets.
func New(cfg Config) *Limiter {
	return &Limiter{
		minute: make(map[string]*entry),
		hour:   make(map[string]*entry),
		day:    make(map[string]*entry),
		cfg:    cfg,
		now:    time.Now,
	}
}

// NewWithClock creates a Limiter with an injectable clock for tests.
func NewWithClock(cfg Config, now func() time.Time) *Limiter {
	l := New(cfg)
	l.now = now
	return l
}

// Check runs an admission check for identifier at the current time.
func (l *Limiter) Check(identifier string) Decision {
	return l.CheckAt(identifier, l.now())
}

// CheckAt runs an admission check for identifier at the given instant.
// Window priority is minute, then hour, then day: an identifier at its
// minute cap is rejected even if hour and day budget remains. On admission
// all three counters are incremented atomically.
func (l *Limiter) CheckAt(identifier string, now time.Time) Decision {
	if identifier == "" {
		identifier = GlobalIdentifier
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.cleanup(now)

	if e := l.minute[identifier]; e != nil && e.count >= l.cfg.MaxPerMinute {
		retry := e.resetAt.Sub(now)
		return Decision{
			Allowed:    false,
			RetryAfter: retry,
			Scope:      ScopeMinute,
			Remaining: Remaining{
				Minute: 0,
				Hour:   l.remaining(l.hour, identifier, l.cfg.MaxPerHour),
				Day:    l.remaining(l.day, identifier, l.cfg.MaxPerDay),
			},
			Message: fmt.Sprintf("Rate limit exceeded. Too many requests per minute. Please wait %d seconds.", ceilSeconds(retry)),
		}
	}

	if e := l.hour[identifier]; e != nil && e.count >= l.cfg.MaxPerHour {
		retry := e.resetAt.Sub(now)
		return Decision{
			Allowed:    false,
			RetryAfter: retry,
			Scope:      ScopeHour,
			Remaining: Remaining{
				Minute: l.remaining(l.minute, identifier, l.cfg.MaxPerMinute),
				Hour:   0,
				Day:    l.remaining(l.day, identifier, l.cfg.MaxPerDay),
			},
			Message: fmt.Sprintf("Rate limit exceeded. Too many requests this hour. Please wait %d minutes.", ceilMinutes(retry)),
		}
	}

	if e := l.day[identifier]; e != nil && e.count >= l.cfg.MaxPerDay {
		retry := e.resetAt.Sub(now)
		return Decision{
			Allowed:    false,
			RetryAfter: retry,
			Scope:      ScopeDay,
			Remaining: Remaining{
				Minute: l.remaining(l.minute, identifier, l.cfg.MaxPerMinute),
				Hour:   l.remaining(l.hour, identifier, l.cfg.MaxPerHour),
				Day:    0,
			},
			Message: fmt.Sprintf("Daily limit reached. Please try again tomorrow. Resets in %d hours.", ceilHours(retry)),
		}
	}

	l.increment(l.minute, identifier, now, time.Minute)
	l.increment(l.hour, identifier, now, time.Hour)
	l.increment(l.day, identifier, now, 24*time.Hour)

	return Decision{
		Allowed: true,
		Remaining: Remaining{
			Minute: l.remaining(l.minute, identifier, l.cfg.MaxPerMinute),
			Hour:   l.remaining(l.hour, identifier, l.cfg.MaxPerHour),
			Day:    l.remaining(l.day, identifier, l.cfg.MaxPerDay),
		},
	}
}

// Usage reports current window consumption for identifier without consuming.
func (l *Limiter) Usage(identifier string) Usage {
	if identifier == "" {
		identifier = GlobalIdentifier
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.cleanup(l.now())

	return Usage{
		Minute: l.windowUsage(l.minute, identifier, l.cfg.MaxPerMinute),
		Hour:   l.windowUsage(l.hour, identifier, l.cfg.MaxPerHour),
		Day:    l.windowUsage(l.day, identifier, l.cfg.MaxPerDay),
	}
}

// increment bumps the live window for identifier, or opens a fresh one when
// the previous window has expired.
func (l *Limiter) increment(window map[string]*entry, identifier string, now time.Time, d time.Duration) {
	if e := window[identifier]; e != nil && e.resetAt.After(now) {
		e.count++
		return
	}
	window[identifier] = &entry{count: 1, resetAt: now.Add(d)}
}

func (l *Limiter) remaining(window map[string]*entry, identifier string, limit int) int {
	e := window[identifier]
	if e == nil {
		return limit
	}
	if r := limit - e.count; r > 0 {
		return r
	}
	return 0
}

func (l *Limiter) windowUsage(window map[string]*entry, identifier string, limit int) WindowUsage {
	used := 0
	if e := window[identifier]; e != nil {
		used = e.count
	}
	return WindowUsage{
		Used:      used,
		Limit:     limit,
		Remaining: l.remaining(window, identifier, limit),
	}
}

// cleanup removes expired windows. Called with the mutex held; runs lazily
// on every check so no background timer is needed.
func (l *Limiter) cleanup(now time.Time) {
	for _, window := range []map[string]*entry{l.minute, l.hour, l.day} {
		for key, e := range window {
			if !e.resetAt.After(now) {
				delete(window, key)
			}
		}
	}
}

func ceilSeconds(d time.Duration) int {
	return int((d + time.Second - 1) / time.Second)
}

func ceilMinutes(d time.Duration) int {
	return int((d + time.Minute - 1) / time.Minute)
}

func ceilHours(d time.Duration) int {
	return int((d + time.Hour - 1) / time.Hour)
}
