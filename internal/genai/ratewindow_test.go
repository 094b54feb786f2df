package genai

import (
	"testing"
	"time"
)

type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestRateWindowAdmitsUpToLimit(t *testing.T) {
	clock := newFakeClock()
	w := NewRateWindow(3, time.Minute, clock.Now)
	for i := 0; i < 3; i++ {
		if !w.Admit() {
			t.Fatalf("call %d should be admitted", i+1)
		}
	}
	if w.Admit() {
		t.Fatal("fourth call within the window should be denied")
	}
	st := w.Status()
	if st.Used != 3 || st.Remaining != 0 || st.Limit != 3 {
		t.Errorf("unexpected status %+v", st)
	}
}

func TestRateWindowSlides(t *testing.T) {
	clock := newFakeClock()
	w := NewRateWindow(2, time.Minute, clock.Now)
	w.Admit()
	clock.Advance(30 * time.Second)
	w.Admit()
	if w.Admit() {
		t.Fatal("window is full")
	}
	clock.Advance(31 * time.Second)
	if !w.Admit() {
		t.Fatal("oldest call left the window, next call should be admitted")
	}
	if got := w.Status().Used; got != 2 {
		t.Errorf("Used = %d, want 2", got)
	}
}

func TestRateWindowBackoff(t *testing.T) {
	clock := newFakeClock()
	w := NewRateWindow(15, time.Minute, clock.Now)
	w.Backoff(45 * time.Second)
	if !w.InBackoff() {
		t.Fatal("backoff should be active")
	}
	if w.Admit() {
		t.Fatal("calls are denied during backoff")
	}
	if w.Status().BackoffUntil.IsZero() {
		t.Error("status should expose the backoff deadline")
	}

	// A shorter backoff does not shorten the active one.
	w.Backoff(time.Second)
	clock.Advance(10 * time.Second)
	if !w.InBackoff() {
		t.Fatal("shorter backoff must not override the longer one")
	}

	clock.Advance(36 * time.Second)
	if w.InBackoff() {
		t.Fatal("backoff should have expired")
	}
	if !w.Admit() {
		t.Fatal("calls resume after backoff")
	}
}

func TestNewRateWindowDefaults(t *testing.T) {
	w := NewRateWindow(0, 0, nil)
	if st := w.Status(); st.Limit != DefaultRateLimit || st.Remaining != DefaultRateLimit {
		t.Errorf("unexpected default status %+v", st)
	}
}
