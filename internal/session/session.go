// Package session manages the per-contact conversation state: one live
// session per phone, a sliding expiry, and typed flow data merged on every
// transition.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/models"
	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/store"
	"github.com/google/uuid"
)

// DefaultTTL is how long an idle session stays resumable.
const DefaultTTL = 30 * time.Minute

// Opts holds configuration for the session manager.
type Opts struct {
	TTL   time.Duration
	Clock func() time.Time
}

// Option modifies manager options.
type Option func(*Opts)

// WithTTL overrides the sliding session lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(o *Opts) {
		if ttl > 0 {
			o.TTL = ttl
		}
	}
}

// WithClock injects the time source.
func WithClock(clock func() time.Time) Option {
	return func(o *Opts) {
		if clock != nil {
			o.Clock = clock
		}
	}
}

// Manager reads and writes sessions through a store.SessionRepo.
type Manager struct {
	repo store.SessionRepo
	ttl  time.Duration
	now  func() time.Time
}

// NewManager creates a session manager.
func NewManager(repo store.SessionRepo, opts ...Option) *Manager {
	cfg := Opts{TTL: DefaultTTL, Clock: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Manager{repo: repo, ttl: cfg.TTL, now: cfg.Clock}
}

// Now returns the manager's current time.
func (m *Manager) Now() time.Time { return m.now() }

// TTL returns the configured session lifetime.
func (m *Manager) TTL() time.Duration { return m.ttl }

// GetOrCreate returns the live session for phone, creating a fresh
// main_menu:init session when none exists or the latest one has expired.
func (m *Manager) GetOrCreate(ctx context.Context, phone string) (*models.Session, error) {
	now := m.now()
	sess, err := m.repo.FindActiveSession(ctx, phone)
	switch {
	case err == nil && sess.IsLive(now):
		return sess, nil
	case err != nil && !errors.Is(err, models.ErrSessionNotFound):
		return nil, fmt.Errorf("failed to look up session for %s: %w", phone, err)
	}

	fresh := &models.Session{
		ID:        uuid.NewString(),
		Phone:     phone,
		Flow:      models.FlowMainMenu,
		Step:      models.StepInit,
		Active:    true,
		ExpiresAt: now.Add(m.ttl),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := m.repo.CreateSession(ctx, fresh); err != nil {
		return nil, fmt.Errorf("failed to create session for %s: %w", phone, err)
	}
	slog.Debug("Manager.GetOrCreate: created session", "phone", phone, "session_id", fresh.ID)
	return fresh, nil
}

// Transition moves the session to (flow, step), merges patch into its data
// and slides the expiry forward. The session is updated in place.
func (m *Manager) Transition(ctx context.Context, s *models.Session, flow models.FlowType, step models.StepType, patch models.FlowData) error {
	next := *s
	next.Data = s.Data.Merge(flow, patch)
	return m.save(ctx, s, &next, flow, step)
}

// Reset moves the session to (flow, step) and replaces its data wholesale.
func (m *Manager) Reset(ctx context.Context, s *models.Session, flow models.FlowType, step models.StepType, data models.FlowData) error {
	next := *s
	data.Kind = flow
	next.Data = data
	return m.save(ctx, s, &next, flow, step)
}

func (m *Manager) save(ctx context.Context, s, next *models.Session, flow models.FlowType, step models.StepType) error {
	now := m.now()
	next.Flow = flow
	next.Step = step
	next.ExpiresAt = now.Add(m.ttl)
	next.UpdatedAt = now
	if err := m.repo.UpdateSession(ctx, next); err != nil {
		return fmt.Errorf("failed to transition session %s: %w", s.ID, err)
	}
	slog.Debug("Manager.Transition", "phone", s.Phone, "from", string(s.Flow)+":"+string(s.Step), "to", string(flow)+":"+string(step))
	*s = *next
	return nil
}

// Close ends the session; the next message starts a new one.
func (m *Manager) Close(ctx context.Context, s *models.Session) error {
	next := *s
	next.Active = false
	next.UpdatedAt = m.now()
	if err := m.repo.UpdateSession(ctx, &next); err != nil {
		return fmt.Errorf("failed to close session %s: %w", s.ID, err)
	}
	slog.Debug("Manager.Close", "phone", s.Phone, "session_id", s.ID)
	*s = next
	return nil
}

// LinkContact associates the session with a registered contact.
func (m *Manager) LinkContact(ctx context.Context, s *models.Session, contactID int64) error {
	next := *s
	id := contactID
	next.ContactID = &id
	next.UpdatedAt = m.now()
	if err := m.repo.UpdateSession(ctx, &next); err != nil {
		return fmt.Errorf("failed to link contact to session %s: %w", s.ID, err)
	}
	*s = next
	return nil
}

// DeactivateExpired marks every expired session inactive. Lookups already
// ignore expired rows; this keeps the table tidy.
func (m *Manager) DeactivateExpired(ctx context.Context) (int64, error) {
	n, err := m.repo.DeactivateExpiredSessions(ctx, m.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		slog.Info("Manager.DeactivateExpired: swept sessions", "count", n)
	}
	return n, nil
}
