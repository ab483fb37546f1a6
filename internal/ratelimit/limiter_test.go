package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		MaxPerMinute: 2,
		MaxPerHour:   10,
		MaxPerDay:    50,
	}
}

func TestLimiter_AdmitsUpToMinuteBudget(t *testing.T) {
	l := New(testConfig())
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	first := l.CheckAt("1.2.3.4", now)
	assert.True(t, first.Allowed)
	assert.Equal(t, 1, first.Remaining.Minute)
	assert.Equal(t, 9, first.Remaining.Hour)
	assert.Equal(t, 49, first.Remaining.Day)

	second := l.CheckAt("1.2.3.4", now.Add(time.Second))
	assert.True(t, second.Allowed)
	assert.Equal(t, 0, second.Remaining.Minute)
}

func TestLimiter_RejectsOverMinuteBudget(t *testing.T) {
	l := New(testConfig())
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	l.CheckAt("1.2.3.4", now)
	l.CheckAt("1.2.3.4", now.Add(time.Second))

	third := l.CheckAt("1.2.3.4", now.Add(2*time.Second))
	require.False(t, third.Allowed)
	assert.Equal(t, ScopeMinute, third.Scope)
	assert.Greater(t, third.RetryAfter, time.Duration(0))
	// Minute window opened at t0, so it resets 58s after the third check.
	assert.Equal(t, 58*time.Second, third.RetryAfter)
	assert.Equal(t, 0, third.Remaining.Minute)
	// Hour and day budget is consumed but not exhausted.
	assert.Equal(t, 8, third.Remaining.Hour)
	assert.Equal(t, 48, third.Remaining.Day)
	assert.Contains(t, third.Message, "per minute")
}

func TestLimiter_MinuteWindowResetsAfterDuration(t *testing.T) {
	l := New(testConfig())
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	l.CheckAt("1.2.3.4", now)
	l.CheckAt("1.2.3.4", now)
	assert.False(t, l.CheckAt("1.2.3.4", now).Allowed)

	// One minute after the window opened, a fresh window starts.
	later := l.CheckAt("1.2.3.4", now.Add(time.Minute))
	assert.True(t, later.Allowed)
	assert.Equal(t, 1, later.Remaining.Minute)
	// Hour window is independent and still counting the earlier requests.
	assert.Equal(t, 10-3, later.Remaining.Hour)
}

func TestLimiter_HourBudgetRejectsDespiteFreshMinutes(t *testing.T) {
	cfg := Config{MaxPerMinute: 100, MaxPerHour: 3, MaxPerDay: 50}
	l := New(cfg)
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		d := l.CheckAt("global", now.Add(time.Duration(i)*time.Second))
		require.True(t, d.Allowed, "request %d should be admitted", i)
	}

	rejected := l.CheckAt("global", now.Add(5*time.Second))
	require.False(t, rejected.Allowed)
	assert.Equal(t, ScopeHour, rejected.Scope)
	assert.Equal(t, 0, rejected.Remaining.Hour)
}

func TestLimiter_MinuteCheckedBeforeHourAndDay(t *testing.T) {
	cfg := Config{MaxPerMinute: 1, MaxPerHour: 1, MaxPerDay: 1}
	l := New(cfg)
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	require.True(t, l.CheckAt("x", now).Allowed)

	// All three windows are exhausted; the minute scope wins.
	d := l.CheckAt("x", now.Add(time.Second))
	require.False(t, d.Allowed)
	assert.Equal(t, ScopeMinute, d.Scope)
}

func TestLimiter_DayBudgetExhaustion(t *testing.T) {
	cfg := Config{MaxPerMinute: 1000, MaxPerHour: 1000, MaxPerDay: 5}
	l := New(cfg)
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.True(t, l.CheckAt("x", now.Add(time.Duration(i)*time.Hour)).Allowed)
	}

	d := l.CheckAt("x", now.Add(6*time.Hour))
	require.False(t, d.Allowed)
	assert.Equal(t, ScopeDay, d.Scope)
	assert.Contains(t, d.Message, "tomorrow")

	// Day window opened at t0, so the next day is fresh.
	fresh := l.CheckAt("x", now.Add(24*time.Hour))
	assert.True(t, fresh.Allowed)
}

func TestLimiter_IdentifiersAreIndependent(t *testing.T) {
	l := New(testConfig())
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	l.CheckAt("a", now)
	l.CheckAt("a", now)
	require.False(t, l.CheckAt("a", now).Allowed)

	assert.True(t, l.CheckAt("b", now).Allowed)
}

func TestLimiter_EmptyIdentifierFallsBackToGlobal(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	l := NewWithClock(testConfig(), func() time.Time { return now })

	l.CheckAt("", now)
	usage := l.Usage(GlobalIdentifier)
	assert.Equal(t, 1, usage.Minute.Used)
}

func TestLimiter_Usage(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	l := NewWithClock(testConfig(), func() time.Time { return now })

	l.CheckAt("x", now)
	l.CheckAt("x", now)

	usage := l.Usage("x")
	assert.Equal(t, WindowUsage{Used: 2, Limit: 2, Remaining: 0}, usage.Minute)
	assert.Equal(t, WindowUsage{Used: 2, Limit: 10, Remaining: 8}, usage.Hour)
	assert.Equal(t, WindowUsage{Used: 2, Limit: 50, Remaining: 48}, usage.Day)
}

func TestLimiter_UsageReadsLimiterClock(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	l := NewWithClock(testConfig(), func() time.Time { return now })

	l.Check("x")

	// Past the minute window the minute counter is collected, but the hour
	// and day windows still hold the earlier request.
	now = now.Add(2 * time.Minute)
	usage := l.Usage("x")
	assert.Equal(t, 0, usage.Minute.Used)
	assert.Equal(t, 1, usage.Hour.Used)
	assert.Equal(t, 1, usage.Day.Used)
}

func TestLimiter_ExpiredWindowsAreCollected(t *testing.T) {
	l := New(testConfig())
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	l.CheckAt("x", now)

	// Drive a check far in the future for a different identifier; the
	// lazy cleanup should drop x's expired windows.
	l.CheckAt("y", now.Add(48*time.Hour))

	l.mu.Lock()
	_, minuteAlive := l.minute["x"]
	_, dayAlive := l.day["x"]
	l.mu.Unlock()
	assert.False(t, minuteAlive)
	assert.False(t, dayAlive)
}

func TestLimiter_ConcurrentChecksNeverExceedCap(t *testing.T) {
	cfg := Config{MaxPerMinute: 10, MaxPerHour: 10, MaxPerDay: 10}
	l := New(cfg)
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	const callers = 50
	var wg sync.WaitGroup
	admitted := make(chan struct{}, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.CheckAt("shared", now).Allowed {
				admitted <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(admitted)

	count := 0
	for range admitted {
		count++
	}
	assert.Equal(t, 10, count, "check-then-increment must be atomic per identifier")
}

func TestLimiter_CheckUsesInjectedClock(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	l := NewWithClock(testConfig(), func() time.Time { return now })

	assert.True(t, l.Check("x").Allowed)
	assert.True(t, l.Check("x").Allowed)
	assert.False(t, l.Check("x").Allowed)

	now = now.Add(time.Minute)
	assert.True(t, l.Check("x").Allowed)
}
