// Package store provides storage backends for the Guru legal engine.
//
// It includes SQLite and PostgreSQL implementations sharing one SQL core, and
// an in-memory store used by tests and DSN-less runs.
package store

import (
	"context"
	"strings"
	"time"

	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/models"
)

// Opts holds configuration options for store implementations.
type Opts struct {
	DSN string
}

// Option defines a function that modifies store options.
type Option func(*Opts)

// WithPostgresDSN sets the PostgreSQL connection string.
func WithPostgresDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
	}
}

// WithSQLiteDSN sets the SQLite database file path.
func WithSQLiteDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
	}
}

// DetectDSNType returns "postgres" for PostgreSQL connection strings and
// "sqlite3" for everything else.
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") ||
		strings.Contains(dsn, "host=") || strings.Contains(dsn, "user=") || strings.Contains(dsn, "dbname=") {
		return "postgres"
	}
	return "sqlite3"
}

// ContactRepo stores registered clients.
type ContactRepo interface {
	CreateContact(ctx context.Context, c *models.Contact) error
	FindContactByPhone(ctx context.Context, phone string) (*models.Contact, error)
	FindContactByID(ctx context.Context, id int64) (*models.Contact, error)
}

// CaseRepo stores legal cases.
type CaseRepo interface {
	CreateCase(ctx context.Context, c *models.Case) error
	// FindCasesByContact returns the contact's cases, newest first.
	FindCasesByContact(ctx context.Context, contactID int64) ([]models.Case, error)
	// FindCaseByNumber matches the case number case-insensitively.
	FindCaseByNumber(ctx context.Context, number string) (*models.Case, error)
}

// AppointmentRepo stores booked appointments.
type AppointmentRepo interface {
	CreateAppointment(ctx context.Context, a *models.Appointment) error
	// FindBookedTimes returns the HH:MM start times booked on date (YYYY-MM-DD).
	FindBookedTimes(ctx context.Context, date string) ([]string, error)
}

// DocumentRepo stores document submissions.
type DocumentRepo interface {
	CreateDocumentRequest(ctx context.Context, d *models.DocumentRequest) error
}

// MessageRepo stores the conversation audit trail.
type MessageRepo interface {
	CreateMessageLog(ctx context.Context, m *models.MessageLogEntry) error
	// FindRecentMessages returns up to limit messages for phone in chronological order.
	FindRecentMessages(ctx context.Context, phone string, limit int) ([]models.MessageLogEntry, error)
	LinkMessageToContact(ctx context.Context, messageID, contactID int64) error
}

// MediaRepo stores saved attachments.
type MediaRepo interface {
	CreateClientMedia(ctx context.Context, m *models.ClientMedia) error
	// LinkMediaToContact attaches every orphan media row of phone to the contact.
	LinkMediaToContact(ctx context.Context, phone string, contactID int64) (int64, error)
	LinkMediaToDocRequest(ctx context.Context, mediaID, docRequestID int64) error
}

// SessionRepo stores conversation sessions.
type SessionRepo interface {
	CreateSession(ctx context.Context, s *models.Session) error
	// FindActiveSession returns the most recently updated active session for
	// phone. Expiry is left to the caller.
	FindActiveSession(ctx context.Context, phone string) (*models.Session, error)
	UpdateSession(ctx context.Context, s *models.Session) error
	// DeactivateExpiredSessions marks active sessions past their expiry inactive.
	DeactivateExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// SettingsRepo stores small named blobs such as the bot settings.
type SettingsRepo interface {
	GetSetting(ctx context.Context, key string) (string, error)
	PutSetting(ctx context.Context, key, value string) error
}

// Store is the full persistence surface consumed by the engine.
type Store interface {
	ContactRepo
	CaseRepo
	AppointmentRepo
	DocumentRepo
	MessageRepo
	MediaRepo
	SessionRepo
	SettingsRepo
	DedupRepo
	Close() error
}
