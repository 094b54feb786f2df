// Package models defines state management structures for conversation sessions.
package models

import "time"

// Session is the persisted per-contact conversation state.
type Session struct {
	ID        string    `json:"id"`
	Phone     string    `json:"phone"`
	ContactID *int64    `json:"contact_id,omitempty"`
	Flow      FlowType  `json:"flow"`
	Step      StepType  `json:"step"`
	Data      FlowData  `json:"data"`
	Active    bool      `json:"active"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsLive reports whether the session can still be resumed at the given time.
func (s *Session) IsLive(now time.Time) bool {
	return s.Active && now.Before(s.ExpiresAt)
}

// FlowData holds the values a flow accumulates. Only the variant matching
// Kind is meaningful; switching flows discards the previous variant.
type FlowData struct {
	Kind        FlowType         `json:"kind,omitempty"`
	Intake      *IntakeData      `json:"intake,omitempty"`
	Appointment *AppointmentData `json:"appointment,omitempty"`
	Document    *DocumentData    `json:"document,omitempty"`
	CaseStatus  *CaseStatusData  `json:"case_status,omitempty"`
}

// IntakeData is collected by the registration flow.
type IntakeData struct {
	Name        string   `json:"name,omitempty"`
	Cedula      string   `json:"cedula,omitempty"`
	Email       string   `json:"email,omitempty"`
	Address     string   `json:"address,omitempty"`
	CaseType    string   `json:"case_type,omitempty"`
	Description string   `json:"description,omitempty"`
	Urgency     string   `json:"urgency,omitempty"`
	ReturnTo    FlowType `json:"return_to,omitempty"`
}

// AppointmentData is collected by the booking flow.
type AppointmentData struct {
	Type        string   `json:"type,omitempty"`
	TypeCode    string   `json:"type_code,omitempty"`
	Date        string   `json:"date,omitempty"` // YYYY-MM-DD
	DatePretty  string   `json:"date_pretty,omitempty"`
	Slots       []string `json:"slots,omitempty"`
	Time        string   `json:"time,omitempty"` // HH:MM
	DurationMin int      `json:"duration_min,omitempty"`
}

// DocumentData is collected by the document submission flow.
type DocumentData struct {
	DocType     string `json:"doc_type,omitempty"`
	DocTypeCode string `json:"doc_type_code,omitempty"`
	Description string `json:"description,omitempty"`
	LastDocID   int64  `json:"last_doc_id,omitempty"`
}

// CaseStatusData holds the case numbers offered for selection.
type CaseStatusData struct {
	CaseNumbers []string `json:"case_numbers,omitempty"`
}

// Merge applies patch on top of d for the given flow. Non-zero patch fields
// overwrite; a flow change starts from an empty variant.
func (d FlowData) Merge(flow FlowType, patch FlowData) FlowData {
	out := FlowData{Kind: flow}
	if d.Kind == flow || d.Kind == "" {
		out.Intake = d.Intake
		out.Appointment = d.Appointment
		out.Document = d.Document
		out.CaseStatus = d.CaseStatus
	}
	out.Intake = out.Intake.merge(patch.Intake)
	out.Appointment = out.Appointment.merge(patch.Appointment)
	out.Document = out.Document.merge(patch.Document)
	out.CaseStatus = out.CaseStatus.merge(patch.CaseStatus)
	return out
}

// IntakeOrEmpty returns the intake variant, never nil.
func (d FlowData) IntakeOrEmpty() IntakeData {
	if d.Intake == nil {
		return IntakeData{}
	}
	return *d.Intake
}

// AppointmentOrEmpty returns the appointment variant, never nil.
func (d FlowData) AppointmentOrEmpty() AppointmentData {
	if d.Appointment == nil {
		return AppointmentData{}
	}
	return *d.Appointment
}

// DocumentOrEmpty returns the document variant, never nil.
func (d FlowData) DocumentOrEmpty() DocumentData {
	if d.Document == nil {
		return DocumentData{}
	}
	return *d.Document
}

// CaseStatusOrEmpty returns the case status variant, never nil.
func (d FlowData) CaseStatusOrEmpty() CaseStatusData {
	if d.CaseStatus == nil {
		return CaseStatusData{}
	}
	return *d.CaseStatus
}

func (a *IntakeData) merge(b *IntakeData) *IntakeData {
	if b == nil {
		return a
	}
	out := IntakeData{}
	if a != nil {
		out = *a
	}
	if b.Name != "" {
		out.Name = b.Name
	}
	if b.Cedula != "" {
		out.Cedula = b.Cedula
	}
	if b.Email != "" {
		out.Email = b.Email
	}
	if b.Address != "" {
		out.Address = b.Address
	}
	if b.CaseType != "" {
		out.CaseType = b.CaseType
	}
	if b.Description != "" {
		out.Description = b.Description
	}
	if b.Urgency != "" {
		out.Urgency = b.Urgency
	}
	if b.ReturnTo != "" {
		out.ReturnTo = b.ReturnTo
	}
	return &out
}

func (a *AppointmentData) merge(b *AppointmentData) *AppointmentData {
	if b == nil {
		return a
	}
	out := AppointmentData{}
	if a != nil {
		out = *a
	}
	if b.Type != "" {
		out.Type = b.Type
	}
	if b.TypeCode != "" {
		out.TypeCode = b.TypeCode
	}
	if b.Date != "" {
		out.Date = b.Date
	}
	if b.DatePretty != "" {
		out.DatePretty = b.DatePretty
	}
	if b.Slots != nil {
		out.Slots = append([]string(nil), b.Slots...)
	}
	if b.Time != "" {
		out.Time = b.Time
	}
	if b.DurationMin != 0 {
		out.DurationMin = b.DurationMin
	}
	return &out
}

func (a *DocumentData) merge(b *DocumentData) *DocumentData {
	if b == nil {
		return a
	}
	out := DocumentData{}
	if a != nil {
		out = *a
	}
	if b.DocType != "" {
		out.DocType = b.DocType
	}
	if b.DocTypeCode != "" {
		out.DocTypeCode = b.DocTypeCode
	}
	if b.Description != "" {
		out.Description = b.Description
	}
	if b.LastDocID != 0 {
		out.LastDocID = b.LastDocID
	}
	return &out
}

func (a *CaseStatusData) merge(b *CaseStatusData) *CaseStatusData {
	if b == nil {
		return a
	}
	out := CaseStatusData{}
	if a != nil {
		out = *a
	}
	if b.CaseNumbers != nil {
		out.CaseNumbers = append([]string(nil), b.CaseNumbers...)
	}
	return &out
}
