package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/models"
)

// InMemoryStore is a process-local Store used by tests and DSN-less runs.
type InMemoryStore struct {
	mu           sync.RWMutex
	nextID       int64
	contacts     []models.Contact
	cases        []models.Case
	appointments []models.Appointment
	documents    []models.DocumentRequest
	messages     []models.MessageLogEntry
	media        []models.ClientMedia
	sessions     map[string]models.Session
	settings     map[string]string
	dedup        map[string]DedupRecord
}

// Compile-time check that InMemoryStore implements Store.
var _ Store = (*InMemoryStore)(nil)

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		sessions: make(map[string]models.Session),
		settings: make(map[string]string),
		dedup:    make(map[string]DedupRecord),
	}
}

func (s *InMemoryStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *InMemoryStore) CreateContact(_ context.Context, c *models.Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.contacts {
		if existing.Phone == c.Phone {
			return errDuplicate("contact phone", c.Phone)
		}
	}
	c.ID = s.id()
	c.CreatedAt = time.Now()
	s.contacts = append(s.contacts, *c)
	return nil
}

func (s *InMemoryStore) FindContactByPhone(_ context.Context, phone string) (*models.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.contacts {
		if c.Phone == phone {
			out := c
			return &out, nil
		}
	}
	return nil, models.ErrContactNotFound
}

func (s *InMemoryStore) FindContactByID(_ context.Context, id int64) (*models.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.contacts {
		if c.ID == id {
			out := c
			return &out, nil
		}
	}
	return nil, models.ErrContactNotFound
}

func (s *InMemoryStore) CreateCase(_ context.Context, c *models.Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.cases {
		if strings.EqualFold(existing.CaseNumber, c.CaseNumber) {
			return errDuplicate("case number", c.CaseNumber)
		}
	}
	if c.Status == "" {
		c.Status = models.CaseStatusOpen
	}
	c.ID = s.id()
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	s.cases = append(s.cases, *c)
	return nil
}

func (s *InMemoryStore) FindCasesByContact(_ context.Context, contactID int64) ([]models.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Case
	for i := len(s.cases) - 1; i >= 0; i-- {
		if s.cases[i].ContactID == contactID {
			out = append(out, s.cases[i])
		}
	}
	return out, nil
}

func (s *InMemoryStore) FindCaseByNumber(_ context.Context, number string) (*models.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	number = strings.TrimSpace(number)
	for _, c := range s.cases {
		if strings.EqualFold(c.CaseNumber, number) {
			out := c
			return &out, nil
		}
	}
	return nil, models.ErrCaseNotFound
}

func (s *InMemoryStore) CreateAppointment(_ context.Context, a *models.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.Status == "" {
		a.Status = models.AppointmentStatusPending
	}
	a.ID = s.id()
	a.CreatedAt = time.Now()
	s.appointments = append(s.appointments, *a)
	return nil
}

func (s *InMemoryStore) FindBookedTimes(_ context.Context, date string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for _, a := range s.appointments {
		if a.Date == date {
			out = append(out, a.Time)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *InMemoryStore) CreateDocumentRequest(_ context.Context, d *models.DocumentRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.Status == "" {
		d.Status = models.DocumentStatusReceived
	}
	d.ID = s.id()
	d.CreatedAt = time.Now()
	s.documents = append(s.documents, *d)
	return nil
}

// DocumentRequests returns a copy of every stored document request.
func (s *InMemoryStore) DocumentRequests() []models.DocumentRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.DocumentRequest(nil), s.documents...)
}

// Appointments returns a copy of every stored appointment.
func (s *InMemoryStore) Appointments() []models.Appointment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Appointment(nil), s.appointments...)
}

func (s *InMemoryStore) CreateMessageLog(_ context.Context, m *models.MessageLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.Status == "" {
		m.Status = models.MessageStatusSent
	}
	m.ID = s.id()
	m.CreatedAt = time.Now()
	s.messages = append(s.messages, *m)
	return nil
}

func (s *InMemoryStore) FindRecentMessages(_ context.Context, phone string, limit int) ([]models.MessageLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.MessageLogEntry
	for i := len(s.messages) - 1; i >= 0 && len(out) < limit; i-- {
		if s.messages[i].Phone == phone {
			out = append(out, s.messages[i])
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// Messages returns a copy of the whole message log.
func (s *InMemoryStore) Messages() []models.MessageLogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.MessageLogEntry(nil), s.messages...)
}

func (s *InMemoryStore) LinkMessageToContact(_ context.Context, messageID, contactID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.messages {
		if s.messages[i].ID == messageID {
			id := contactID
			s.messages[i].ContactID = &id
		}
	}
	return nil
}

func (s *InMemoryStore) CreateClientMedia(_ context.Context, m *models.ClientMedia) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.Context == "" {
		m.Context = models.MediaContextConversation
	}
	m.ID = s.id()
	m.CreatedAt = time.Now()
	s.media = append(s.media, *m)
	return nil
}

// Media returns a copy of every stored media record.
func (s *InMemoryStore) Media() []models.ClientMedia {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.ClientMedia(nil), s.media...)
}

func (s *InMemoryStore) LinkMediaToContact(_ context.Context, phone string, contactID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for i := range s.media {
		if s.media[i].Phone == phone && s.media[i].ContactID == nil {
			id := contactID
			s.media[i].ContactID = &id
			n++
		}
	}
	return n, nil
}

func (s *InMemoryStore) LinkMediaToDocRequest(_ context.Context, mediaID, docRequestID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.media {
		if s.media[i].ID == mediaID {
			id := docRequestID
			s.media[i].DocRequestID = &id
			s.media[i].Context = models.MediaContextDocumentFlow
		}
	}
	return nil
}

func (s *InMemoryStore) CreateSession(_ context.Context, sess *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = *sess
	return nil
}

func (s *InMemoryStore) FindActiveSession(_ context.Context, phone string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var best *models.Session
	for _, sess := range s.sessions {
		if sess.Phone != phone || !sess.Active {
			continue
		}
		if best == nil || sess.UpdatedAt.After(best.UpdatedAt) {
			cp := sess
			best = &cp
		}
	}
	if best == nil {
		return nil, models.ErrSessionNotFound
	}
	return best, nil
}

func (s *InMemoryStore) UpdateSession(_ context.Context, sess *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sess.ID]; !ok {
		return models.ErrSessionNotFound
	}
	s.sessions[sess.ID] = *sess
	return nil
}

func (s *InMemoryStore) DeactivateExpiredSessions(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, sess := range s.sessions {
		if sess.Active && sess.ExpiresAt.Before(now) {
			sess.Active = false
			s.sessions[id] = sess
			n++
		}
	}
	return n, nil
}

func (s *InMemoryStore) GetSetting(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.settings[key]
	if !ok {
		return "", models.ErrSettingNotFound
	}
	return v, nil
}

func (s *InMemoryStore) PutSetting(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[key] = value
	return nil
}

func (s *InMemoryStore) IsDuplicate(_ context.Context, messageID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.dedup[messageID]
	return ok, nil
}

func (s *InMemoryStore) RecordInbound(_ context.Context, messageID, phone string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.dedup[messageID]; ok {
		return false, nil
	}
	s.dedup[messageID] = DedupRecord{MessageID: messageID, Phone: phone, ReceivedAt: time.Now()}
	return true, nil
}

func (s *InMemoryStore) MarkProcessed(_ context.Context, messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.dedup[messageID]
	if !ok {
		return nil
	}
	now := time.Now()
	rec.ProcessedAt = &now
	s.dedup[messageID] = rec
	return nil
}

// Close is a no-op.
func (s *InMemoryStore) Close() error { return nil }
