package models

import "time"

// Direction tells whether a logged message came from or went to the contact.
type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

// CaseStatus represents the lifecycle of a legal case.
type CaseStatus string

const (
	CaseStatusOpen             CaseStatus = "open"
	CaseStatusInProgress       CaseStatus = "in_progress"
	CaseStatusPendingDocs      CaseStatus = "pending_docs"
	CaseStatusHearingScheduled CaseStatus = "hearing_scheduled"
	CaseStatusResolved         CaseStatus = "resolved"
	CaseStatusClosed           CaseStatus = "closed"
	CaseStatusArchived         CaseStatus = "archived"
)

// Default statuses assigned on creation.
const (
	AppointmentStatusPending = "pendiente"
	DocumentStatusReceived   = "recibido"
)

// Contact is a registered client of the firm.
type Contact struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email,omitempty"`
	Address   string    `json:"address,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Case is a legal matter opened for a contact.
type Case struct {
	ID          int64      `json:"id"`
	CaseNumber  string     `json:"case_number"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      CaseStatus `json:"status"`
	CaseType    string     `json:"case_type,omitempty"`
	ContactID   int64      `json:"contact_id"`
	Court       string     `json:"court,omitempty"`
	NextHearing *time.Time `json:"next_hearing,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Appointment is a booked meeting slot.
type Appointment struct {
	ID          int64     `json:"id"`
	ContactID   int64     `json:"contact_id"`
	Date        string    `json:"date"` // YYYY-MM-DD
	Time        string    `json:"time"` // HH:MM
	DurationMin int       `json:"duration_min"`
	Type        string    `json:"type"`
	Status      string    `json:"status"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// DocumentRequest records a file submitted through the document flow.
type DocumentRequest struct {
	ID          int64     `json:"id"`
	ContactID   *int64    `json:"contact_id,omitempty"`
	DocType     string    `json:"doc_type"`
	Description string    `json:"description,omitempty"`
	WAMediaID   string    `json:"wa_media_id,omitempty"`
	FileName    string    `json:"file_name,omitempty"`
	MimeType    string    `json:"mime_type,omitempty"`
	FilePath    string    `json:"file_path,omitempty"`
	Status      string    `json:"status"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// MessageLogEntry is one line of the conversation audit trail.
type MessageLogEntry struct {
	ID          int64         `json:"id"`
	WAMessageID string        `json:"wa_message_id,omitempty"`
	Phone       string        `json:"phone"`
	ContactID   *int64        `json:"contact_id,omitempty"`
	Direction   Direction     `json:"direction"`
	Content     string        `json:"content"`
	MediaURL    string        `json:"media_url,omitempty"`
	Status      MessageStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
}

// ClientMedia is an attachment saved to disk from an inbound message.
type ClientMedia struct {
	ID           int64          `json:"id"`
	Phone        string         `json:"phone"`
	ContactID    *int64         `json:"contact_id,omitempty"`
	WAMessageID  string         `json:"wa_message_id,omitempty"`
	MediaType    AttachmentKind `json:"media_type"`
	MimeType     string         `json:"mime_type,omitempty"`
	OriginalName string         `json:"original_name,omitempty"`
	SavedName    string         `json:"saved_name"`
	FilePath     string         `json:"file_path"`
	FileSize     int64          `json:"file_size"`
	Context      string         `json:"context"`
	DocRequestID *int64         `json:"doc_request_id,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// Media contexts.
const (
	MediaContextConversation = "conversation"
	MediaContextDocumentFlow = "document_flow"
)
