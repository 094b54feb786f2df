package models

import (
	"strings"
	"time"
)

// AttachmentKind classifies inbound media.
type AttachmentKind string

const (
	AttachmentImage    AttachmentKind = "image"
	AttachmentDocument AttachmentKind = "document"
	AttachmentAudio    AttachmentKind = "audio"
	AttachmentVideo    AttachmentKind = "video"
)

// Attachment is a media payload carried by an inbound message.
type Attachment struct {
	Kind     AttachmentKind `json:"kind"`
	MimeType string         `json:"mime_type,omitempty"`
	FileName string         `json:"file_name,omitempty"`
	Caption  string         `json:"caption,omitempty"`
	Data     []byte         `json:"-"`
}

// Envelope is a transport-neutral inbound message.
type Envelope struct {
	ID          string      `json:"id"`
	From        string      `json:"from"` // canonical digits only
	// ReplyTo is the full transport address to answer when From cannot be dialed.
	ReplyTo     string      `json:"reply_to,omitempty"`
	PushName    string      `json:"push_name,omitempty"`
	Timestamp   time.Time   `json:"timestamp"`
	Text        string      `json:"text,omitempty"`
	Attachment  *Attachment `json:"attachment,omitempty"`
	IsFromSelf  bool        `json:"is_from_self,omitempty"`
	IsGroup     bool        `json:"is_group,omitempty"`
	IsBroadcast bool        `json:"is_broadcast,omitempty"`
}

// CanonicalAddress reduces a transport address to its digits, dropping
// WhatsApp JID suffixes and the Twilio "whatsapp:" scheme.
func CanonicalAddress(addr string) string {
	addr = strings.TrimSpace(addr)
	addr = strings.TrimPrefix(addr, "whatsapp:")
	if i := strings.IndexByte(addr, '@'); i >= 0 {
		addr = addr[:i]
	}
	if i := strings.IndexByte(addr, ':'); i >= 0 {
		addr = addr[:i]
	}
	var sb strings.Builder
	for _, r := range addr {
		if r >= '0' && r <= '9' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// HasMedia reports whether the envelope carries an attachment.
func (e Envelope) HasMedia() bool {
	return e.Attachment != nil
}

// MediaResult is the saved and analysed form of an inbound attachment.
type MediaResult struct {
	Media    *ClientMedia
	Kind     AttachmentKind
	Analysis string
}

// Row is a selectable entry of a structured reply.
type Row struct {
	Title       string `json:"title"`
	RowID       string `json:"row_id"`
	Description string `json:"description,omitempty"`
}

// Section groups rows under a heading.
type Section struct {
	Title string `json:"title"`
	Rows  []Row  `json:"rows"`
}

// Choices is the structured quick-reply rendering of a reply.
type Choices struct {
	Title      string    `json:"title,omitempty"`
	Body       string    `json:"body"`
	ButtonText string    `json:"button_text"`
	Footer     string    `json:"footer,omitempty"`
	Sections   []Section `json:"sections"`
}

// Reply is an outbound message. Text is always the complete plain-text form.
type Reply struct {
	Text    string   `json:"text"`
	Choices *Choices `json:"choices,omitempty"`
}

// TextReply builds a reply without structured choices.
func TextReply(text string) Reply {
	return Reply{Text: text}
}

// ListReply builds a reply carrying both renderings.
func ListReply(text string, choices *Choices) Reply {
	return Reply{Text: text, Choices: choices}
}

// IsEmpty reports whether the reply has nothing to send.
func (r Reply) IsEmpty() bool {
	return strings.TrimSpace(r.Text) == "" && r.Choices == nil
}
