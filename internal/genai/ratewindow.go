package genai

import (
	"sync"
	"time"
)

// Rate window defaults matching the free Gemini tier.
const (
	DefaultRateLimit  = 15
	DefaultRateWindow = 60 * time.Second
)

// RateStatus is a point-in-time view of a RateWindow.
type RateStatus struct {
	Used         int       `json:"used"`
	Limit        int       `json:"limit"`
	Remaining    int       `json:"remaining"`
	BackoffUntil time.Time `json:"backoff_until,omitempty"`
}

// RateWindow is a sliding-window admission gate with a quota backoff.
// A call is admitted when fewer than limit calls were recorded within the
// window and no backoff is active.
type RateWindow struct {
	mu           sync.Mutex
	limit        int
	window       time.Duration
	stamps       []time.Time
	backoffUntil time.Time
	now          func() time.Time
}

// NewRateWindow creates a window. Non-positive values fall back to defaults
// and a nil clock uses time.Now.
func NewRateWindow(limit int, window time.Duration, now func() time.Time) *RateWindow {
	if limit <= 0 {
		limit = DefaultRateLimit
	}
	if window <= 0 {
		window = DefaultRateWindow
	}
	if now == nil {
		now = time.Now
	}
	return &RateWindow{limit: limit, window: window, now: now}
}

// prune drops timestamps older than the window. Caller holds mu.
func (w *RateWindow) prune(now time.Time) {
	keep := w.stamps[:0]
	for _, t := range w.stamps {
		if now.Sub(t) < w.window {
			keep = append(keep, t)
		}
	}
	w.stamps = keep
}

// Admit checks the window and, when the call is allowed, records it.
func (w *RateWindow) Admit() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	now := w.now()
	if now.Before(w.backoffUntil) {
		return false
	}
	w.prune(now)
	if len(w.stamps) >= w.limit {
		return false
	}
	w.stamps = append(w.stamps, now)
	return true
}

// Backoff blocks every call for d from now. A shorter backoff never
// shortens one already in place.
func (w *RateWindow) Backoff(d time.Duration) time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	until := w.now().Add(d)
	if until.After(w.backoffUntil) {
		w.backoffUntil = until
	}
	return w.backoffUntil
}

// InBackoff reports whether a quota backoff is active.
func (w *RateWindow) InBackoff() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.now().Before(w.backoffUntil)
}

// Status returns usage within the current window.
func (w *RateWindow) Status() RateStatus {
	w.mu.Lock()
	defer w.mu.Unlock()
	now := w.now()
	w.prune(now)
	st := RateStatus{
		Used:      len(w.stamps),
		Limit:     w.limit,
		Remaining: w.limit - len(w.stamps),
	}
	if now.Before(w.backoffUntil) {
		st.BackoffUntil = w.backoffUntil
	}
	return st
}
