package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/models"
)

// sqlCore implements the record, session and settings repositories on top of
// database/sql. Queries are written with "?" placeholders and rebound for
// PostgreSQL.
type sqlCore struct {
	db       *sql.DB
	numbered bool // PostgreSQL-style $n placeholders
	name     string
}

func (s *sqlCore) q(query string) string {
	if !s.numbered {
		return query
	}
	return rebind(query)
}

// rebind rewrites "?" placeholders as $1, $2, ...
func rebind(query string) string {
	var sb strings.Builder
	sb.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func (s *sqlCore) insertReturningID(ctx context.Context, query string, args ...any) (int64, error) {
	var id int64
	if err := s.db.QueryRowContext(ctx, s.q(query+" RETURNING id"), args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// CreateContact inserts a client and fills its ID.
func (s *sqlCore) CreateContact(ctx context.Context, c *models.Contact) error {
	now := time.Now().UTC()
	id, err := s.insertReturningID(ctx,
		`INSERT INTO clients (name, phone, email, address, notes, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.Name, c.Phone, nilIfEmpty(c.Email), nilIfEmpty(c.Address), nilIfEmpty(c.Notes), now, now)
	if err != nil {
		slog.Error(s.name+".CreateContact failed", "error", err, "phone", c.Phone)
		return fmt.Errorf("failed to insert contact %s: %w", c.Phone, err)
	}
	c.ID = id
	c.CreatedAt = now
	slog.Debug(s.name+".CreateContact succeeded", "id", id, "phone", c.Phone)
	return nil
}

const contactColumns = `id, name, phone, email, address, notes, created_at`

func scanContact(row interface{ Scan(...any) error }) (*models.Contact, error) {
	var c models.Contact
	var email, address, notes sql.NullString
	if err := row.Scan(&c.ID, &c.Name, &c.Phone, &email, &address, &notes, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.Email, c.Address, c.Notes = email.String, address.String, notes.String
	return &c, nil
}

// FindContactByPhone returns models.ErrContactNotFound when no client has the phone.
func (s *sqlCore) FindContactByPhone(ctx context.Context, phone string) (*models.Contact, error) {
	c, err := scanContact(s.db.QueryRowContext(ctx, s.q(`SELECT `+contactColumns+` FROM clients WHERE phone = ?`), phone))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrContactNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find contact by phone: %w", err)
	}
	return c, nil
}

// FindContactByID returns models.ErrContactNotFound when the id is unknown.
func (s *sqlCore) FindContactByID(ctx context.Context, id int64) (*models.Contact, error) {
	c, err := scanContact(s.db.QueryRowContext(ctx, s.q(`SELECT `+contactColumns+` FROM clients WHERE id = ?`), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrContactNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find contact by id: %w", err)
	}
	return c, nil
}

// CreateCase inserts a case and fills its ID and timestamps.
func (s *sqlCore) CreateCase(ctx context.Context, c *models.Case) error {
	now := time.Now().UTC()
	if c.Status == "" {
		c.Status = models.CaseStatusOpen
	}
	id, err := s.insertReturningID(ctx,
		`INSERT INTO cases (case_number, title, description, status, case_type, client_id, court, next_hearing, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.CaseNumber, c.Title, nilIfEmpty(c.Description), string(c.Status), nilIfEmpty(c.CaseType),
		c.ContactID, nilIfEmpty(c.Court), nullTime(c.NextHearing), now, now)
	if err != nil {
		slog.Error(s.name+".CreateCase failed", "error", err, "case_number", c.CaseNumber)
		return fmt.Errorf("failed to insert case %s: %w", c.CaseNumber, err)
	}
	c.ID = id
	c.CreatedAt, c.UpdatedAt = now, now
	slog.Debug(s.name+".CreateCase succeeded", "id", id, "case_number", c.CaseNumber)
	return nil
}

const caseColumns = `id, case_number, title, description, status, case_type, client_id, court, next_hearing, created_at, updated_at`

func scanCase(row interface{ Scan(...any) error }) (*models.Case, error) {
	var c models.Case
	var desc, caseType, court sql.NullString
	var status string
	var hearing sql.NullTime
	if err := row.Scan(&c.ID, &c.CaseNumber, &c.Title, &desc, &status, &caseType, &c.ContactID,
		&court, &hearing, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Description, c.CaseType, c.Court = desc.String, caseType.String, court.String
	c.Status = models.CaseStatus(status)
	if hearing.Valid {
		t := hearing.Time
		c.NextHearing = &t
	}
	return &c, nil
}

func (s *sqlCore) FindCasesByContact(ctx context.Context, contactID int64) ([]models.Case, error) {
	rows, err := s.db.QueryContext(ctx,
		s.q(`SELECT `+caseColumns+` FROM cases WHERE client_id = ? ORDER BY created_at DESC, id DESC`), contactID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cases: %w", err)
	}
	defer rows.Close()

	var cases []models.Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan case row: %w", err)
		}
		cases = append(cases, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate case rows: %w", err)
	}
	return cases, nil
}

func (s *sqlCore) FindCaseByNumber(ctx context.Context, number string) (*models.Case, error) {
	c, err := scanCase(s.db.QueryRowContext(ctx,
		s.q(`SELECT `+caseColumns+` FROM cases WHERE UPPER(case_number) = UPPER(?)`), strings.TrimSpace(number)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrCaseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find case by number: %w", err)
	}
	return c, nil
}

func (s *sqlCore) CreateAppointment(ctx context.Context, a *models.Appointment) error {
	now := time.Now().UTC()
	if a.Status == "" {
		a.Status = models.AppointmentStatusPending
	}
	id, err := s.insertReturningID(ctx,
		`INSERT INTO appointments (client_id, date, time, duration_min, type, status, notes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ContactID, a.Date, a.Time, a.DurationMin, a.Type, a.Status, nilIfEmpty(a.Notes), now)
	if err != nil {
		slog.Error(s.name+".CreateAppointment failed", "error", err, "date", a.Date, "time", a.Time)
		return fmt.Errorf("failed to insert appointment: %w", err)
	}
	a.ID = id
	a.CreatedAt = now
	slog.Debug(s.name+".CreateAppointment succeeded", "id", id, "date", a.Date, "time", a.Time)
	return nil
}

func (s *sqlCore) FindBookedTimes(ctx context.Context, date string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT time FROM appointments WHERE date = ? ORDER BY time`), date)
	if err != nil {
		return nil, fmt.Errorf("failed to query booked times: %w", err)
	}
	defer rows.Close()

	var times []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("failed to scan booked time: %w", err)
		}
		if len(t) > 5 {
			t = t[:5]
		}
		times = append(times, t)
	}
	return times, rows.Err()
}

func (s *sqlCore) CreateDocumentRequest(ctx context.Context, d *models.DocumentRequest) error {
	now := time.Now().UTC()
	if d.Status == "" {
		d.Status = models.DocumentStatusReceived
	}
	id, err := s.insertReturningID(ctx,
		`INSERT INTO document_requests (client_id, doc_type, description, wa_media_id, file_name, mime_type, file_path, status, notes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		nullInt64(d.ContactID), d.DocType, nilIfEmpty(d.Description), nilIfEmpty(d.WAMediaID), nilIfEmpty(d.FileName),
		nilIfEmpty(d.MimeType), nilIfEmpty(d.FilePath), d.Status, nilIfEmpty(d.Notes), now)
	if err != nil {
		slog.Error(s.name+".CreateDocumentRequest failed", "error", err, "doc_type", d.DocType)
		return fmt.Errorf("failed to insert document request: %w", err)
	}
	d.ID = id
	d.CreatedAt = now
	slog.Debug(s.name+".CreateDocumentRequest succeeded", "id", id)
	return nil
}

func (s *sqlCore) CreateMessageLog(ctx context.Context, m *models.MessageLogEntry) error {
	now := time.Now().UTC()
	if m.Status == "" {
		m.Status = models.MessageStatusSent
	}
	id, err := s.insertReturningID(ctx,
		`INSERT INTO messages (wa_message_id, phone, client_id, direction, content, media_url, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		nilIfEmpty(m.WAMessageID), m.Phone, nullInt64(m.ContactID), string(m.Direction), m.Content,
		nilIfEmpty(m.MediaURL), string(m.Status), now)
	if err != nil {
		slog.Error(s.name+".CreateMessageLog failed", "error", err, "phone", m.Phone)
		return fmt.Errorf("failed to insert message log: %w", err)
	}
	m.ID = id
	m.CreatedAt = now
	return nil
}

func (s *sqlCore) FindRecentMessages(ctx context.Context, phone string, limit int) ([]models.MessageLogEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		s.q(`SELECT id, wa_message_id, phone, client_id, direction, content, media_url, status, created_at
		 FROM messages WHERE phone = ? ORDER BY created_at DESC, id DESC LIMIT ?`), phone, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent messages: %w", err)
	}
	defer rows.Close()

	var out []models.MessageLogEntry
	for rows.Next() {
		var m models.MessageLogEntry
		var waID, mediaURL sql.NullString
		var contactID sql.NullInt64
		var direction, status string
		if err := rows.Scan(&m.ID, &waID, &m.Phone, &contactID, &direction, &m.Content, &mediaURL, &status, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		m.WAMessageID, m.MediaURL = waID.String, mediaURL.String
		m.ContactID = int64Ptr(contactID)
		m.Direction = models.Direction(direction)
		m.Status = models.MessageStatus(status)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate message rows: %w", err)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (s *sqlCore) LinkMessageToContact(ctx context.Context, messageID, contactID int64) error {
	if _, err := s.db.ExecContext(ctx, s.q(`UPDATE messages SET client_id = ? WHERE id = ?`), contactID, messageID); err != nil {
		return fmt.Errorf("failed to link message %d: %w", messageID, err)
	}
	return nil
}

func (s *sqlCore) CreateClientMedia(ctx context.Context, m *models.ClientMedia) error {
	now := time.Now().UTC()
	if m.Context == "" {
		m.Context = models.MediaContextConversation
	}
	id, err := s.insertReturningID(ctx,
		`INSERT INTO client_media (phone, client_id, wa_message_id, media_type, mime_type, original_name, saved_name, file_path, file_size, context, doc_request_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.Phone, nullInt64(m.ContactID), nilIfEmpty(m.WAMessageID), string(m.MediaType), nilIfEmpty(m.MimeType),
		nilIfEmpty(m.OriginalName), m.SavedName, m.FilePath, m.FileSize, m.Context, nullInt64(m.DocRequestID), now)
	if err != nil {
		slog.Error(s.name+".CreateClientMedia failed", "error", err, "phone", m.Phone)
		return fmt.Errorf("failed to insert client media: %w", err)
	}
	m.ID = id
	m.CreatedAt = now
	slog.Debug(s.name+".CreateClientMedia succeeded", "id", id, "type", m.MediaType)
	return nil
}

func (s *sqlCore) LinkMediaToContact(ctx context.Context, phone string, contactID int64) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		s.q(`UPDATE client_media SET client_id = ? WHERE phone = ? AND client_id IS NULL`), contactID, phone)
	if err != nil {
		return 0, fmt.Errorf("failed to link media for %s: %w", phone, err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (s *sqlCore) LinkMediaToDocRequest(ctx context.Context, mediaID, docRequestID int64) error {
	_, err := s.db.ExecContext(ctx,
		s.q(`UPDATE client_media SET doc_request_id = ?, context = ? WHERE id = ?`),
		docRequestID, models.MediaContextDocumentFlow, mediaID)
	if err != nil {
		return fmt.Errorf("failed to link media %d to document request: %w", mediaID, err)
	}
	return nil
}

// CreateSession inserts a new session row. The caller assigns the ID.
func (s *sqlCore) CreateSession(ctx context.Context, sess *models.Session) error {
	data, err := json.Marshal(sess.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal session data: %w", err)
	}
	_, err = s.db.ExecContext(ctx, s.q(
		`INSERT INTO conversation_sessions (id, phone, client_id, flow, step, data, active, expires_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		sess.ID, sess.Phone, nullInt64(sess.ContactID), string(sess.Flow), string(sess.Step), string(data),
		sess.Active, sess.ExpiresAt.UTC(), sess.CreatedAt.UTC(), sess.UpdatedAt.UTC())
	if err != nil {
		slog.Error(s.name+".CreateSession failed", "error", err, "phone", sess.Phone)
		return fmt.Errorf("failed to insert session for %s: %w", sess.Phone, err)
	}
	return nil
}

func (s *sqlCore) FindActiveSession(ctx context.Context, phone string) (*models.Session, error) {
	row := s.db.QueryRowContext(ctx, s.q(
		`SELECT id, phone, client_id, flow, step, data, active, expires_at, created_at, updated_at
		 FROM conversation_sessions WHERE phone = ? AND active = ? ORDER BY updated_at DESC LIMIT 1`), phone, true)

	var sess models.Session
	var contactID sql.NullInt64
	var flow, step string
	var data []byte
	err := row.Scan(&sess.ID, &sess.Phone, &contactID, &flow, &step, &data, &sess.Active,
		&sess.ExpiresAt, &sess.CreatedAt, &sess.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find active session: %w", err)
	}
	sess.ContactID = int64Ptr(contactID)
	sess.Flow, sess.Step = models.FlowType(flow), models.StepType(step)
	if len(data) > 0 {
		if err := json.Unmarshal(data, &sess.Data); err != nil {
			slog.Warn(s.name+".FindActiveSession: discarding unreadable session data", "error", err, "session_id", sess.ID)
			sess.Data = models.FlowData{}
		}
	}
	return &sess, nil
}

func (s *sqlCore) UpdateSession(ctx context.Context, sess *models.Session) error {
	data, err := json.Marshal(sess.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal session data: %w", err)
	}
	res, err := s.db.ExecContext(ctx, s.q(
		`UPDATE conversation_sessions SET client_id = ?, flow = ?, step = ?, data = ?, active = ?, expires_at = ?, updated_at = ?
		 WHERE id = ?`),
		nullInt64(sess.ContactID), string(sess.Flow), string(sess.Step), string(data), sess.Active,
		sess.ExpiresAt.UTC(), sess.UpdatedAt.UTC(), sess.ID)
	if err != nil {
		slog.Error(s.name+".UpdateSession failed", "error", err, "session_id", sess.ID)
		return fmt.Errorf("failed to update session %s: %w", sess.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrSessionNotFound
	}
	return nil
}

func (s *sqlCore) DeactivateExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		s.q(`UPDATE conversation_sessions SET active = ? WHERE active = ? AND expires_at < ?`), false, true, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate expired sessions: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (s *sqlCore) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, s.q(`SELECT value FROM settings WHERE name = ?`), key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", models.ErrSettingNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	return value, nil
}

func (s *sqlCore) PutSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, s.q(
		`INSERT INTO settings (name, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT (name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`),
		key, value, time.Now().UTC())
	if err != nil {
		slog.Error(s.name+".PutSetting failed", "error", err, "key", key)
		return fmt.Errorf("failed to write setting %s: %w", key, err)
	}
	return nil
}

// Close closes the database connection.
func (s *sqlCore) Close() error {
	slog.Debug(s.name + ".Close: closing database connection")
	err := s.db.Close()
	if err != nil {
		slog.Error(s.name+".Close failed", "error", err)
	}
	return err
}
