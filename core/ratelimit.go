package core

import "time"

// RateLimitProfile is a quota ceiling over a fixed window
type RateLimitProfile struct {
	Name    string
	Ceiling int
	Window  time.Duration
}

// RateLimitDecision is the outcome of a quota check
type RateLimitDecision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetTime time.Time
}

// RateLimitEntry tracks one principal's requests in the current window
type RateLimitEntry struct {
	WindowStart time.Time
	Count       int
	Window      time.Duration
}

// Expired reports whether the entry's window has elapsed at now
func (e *RateLimitEntry) Expired(now time.Time) bool {
	return e.Count == 0 || now.Sub(e.WindowStart) >= e.Window
}

// Hit records one request against the entry and returns the decision.
// A fresh or elapsed window restarts at now with a count of one. A denied
// request leaves the entry unchanged.
func (e *RateLimitEntry) Hit(now time.Time, profile RateLimitProfile) RateLimitDecision {
	e.Window = profile.Window
	if e.Expired(now) {
		e.WindowStart = now
		e.Count = 1
		return RateLimitDecision{
			Allowed:   true,
			Limit:     profile.Ceiling,
			Remaining: profile.Ceiling - 1,
			ResetTime: now.Add(profile.Window),
		}
	}

	reset := e.WindowStart.Add(e.Window)
	if e.Count >= profile.Ceiling {
		return RateLimitDecision{
			Allowed:   false,
			Limit:     profile.Ceiling,
			Remaining: 0,
			ResetTime: reset,
		}
	}

	e.Count++
	return RateLimitDecision{
		Allowed:   true,
		Limit:     profile.Ceiling,
		Remaining: profile.Ceiling - e.Count,
		ResetTime: reset,
	}
}

// Status reports the quota state without recording a request
func (e *RateLimitEntry) Status(now time.Time, profile RateLimitProfile) RateLimitDecision {
	if e == nil || e.Expired(now) {
		return RateLimitDecision{
			Allowed:   true,
			Limit:     profile.Ceiling,
			Remaining: profile.Ceiling,
			ResetTime: now.Add(profile.Window),
		}
	}
	remaining := profile.Ceiling - e.Count
	if remaining < 0 {
		remaining = 0
	}
	return RateLimitDecision{
		Allowed:   remaining > 0,
		Limit:     profile.Ceiling,
		Remaining: remaining,
		ResetTime: e.WindowStart.Add(e.Window),
	}
}
