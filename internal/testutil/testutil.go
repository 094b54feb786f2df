// Package testutil holds test helpers shared across packages: a controllable
// clock, HTTP assertions for the admin API, and store seeding.
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/models"
	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/store"
)

// Clock is a manually advanced clock.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock starts a clock at t.
func NewClock(t time.Time) *Clock {
	return &Clock{now: t}
}

// Now returns the current fake time. Pass c.Now as a clock function.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// AssertHTTPStatus checks the HTTP status code and fails the test if it doesn't match.
func AssertHTTPStatus(t *testing.T, expected, actual int, context string) {
	t.Helper()
	if actual != expected {
		t.Errorf("%s: expected status %d, got %d", context, expected, actual)
	}
}

// AssertJSONStatus decodes the API envelope and checks its status field.
func AssertJSONStatus(t *testing.T, rr *httptest.ResponseRecorder, expected string) models.APIResponse {
	t.Helper()
	var resp models.APIResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode JSON response %q: %v", rr.Body.String(), err)
	}
	if resp.Status != expected {
		t.Errorf("expected status %q, got %q (message %q)", expected, resp.Status, resp.Message)
	}
	return resp
}

// CreateJSONRequest builds a request whose body is raw JSON text.
func CreateJSONRequest(t *testing.T, method, url, body string) *http.Request {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("failed to create HTTP request: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

// SeedConversation logs texts as alternating inbound and outbound messages
// for phone, starting with inbound.
func SeedConversation(t *testing.T, repo store.MessageRepo, phone string, texts ...string) {
	t.Helper()
	for i, text := range texts {
		dir := models.DirectionInbound
		if i%2 == 1 {
			dir = models.DirectionOutbound
		}
		entry := &models.MessageLogEntry{Phone: phone, Direction: dir, Content: text}
		if err := repo.CreateMessageLog(context.Background(), entry); err != nil {
			t.Fatalf("failed to seed message %d: %v", i, err)
		}
	}
}

// MustUnmarshalJSON unmarshals JSON data into target and fails test on error.
func MustUnmarshalJSON(t *testing.T, data []byte, target interface{}) {
	t.Helper()
	if err := json.Unmarshal(data, target); err != nil {
		t.Fatalf("failed to unmarshal JSON: %v", err)
	}
}
