// Package models defines the core data structures for the Guru legal engine.
//
// It includes session state, conversation records, inbound envelopes and the
// outbound replies shared across the store, flow and messaging modules.
package models

import "errors"

// Sentinel errors shared by the store, flow and transport packages.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrContactNotFound = errors.New("contact not found")
	ErrCaseNotFound    = errors.New("case not found")
	ErrSettingNotFound = errors.New("setting not found")
	ErrInvalidBotMode  = errors.New("invalid bot mode")
	ErrServiceStopped  = errors.New("messaging service stopped")
	ErrEmptyRecipient  = errors.New("recipient cannot be empty")
	ErrEmptyBody       = errors.New("message body cannot be empty")
	ErrListUnsupported = errors.New("transport cannot send interactive lists")
)

// MessageStatus represents the delivery status of a message.
type MessageStatus string

const (
	// MessageStatusSent indicates the message was sent.
	MessageStatusSent MessageStatus = "sent"
	// MessageStatusDelivered indicates the message was delivered.
	MessageStatusDelivered MessageStatus = "delivered"
	// MessageStatusFailed indicates the message failed to send.
	MessageStatusFailed MessageStatus = "failed"
)

// SendMessageRequest is the payload of an operator-authored message.
type SendMessageRequest struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

// Validate checks the operator message payload.
func (r *SendMessageRequest) Validate() error {
	if r.To == "" {
		return ErrEmptyRecipient
	}
	if r.Body == "" {
		return ErrEmptyBody
	}
	return nil
}
