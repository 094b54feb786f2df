// Package messaging connects the transports to the conversation engine.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/models"
)

const (
	// DefaultChannelBufferSize is the buffer of the inbound envelope channel.
	DefaultChannelBufferSize = 100
	// DefaultChannelTimeout bounds a push onto a full inbound channel.
	DefaultChannelTimeout = 1 * time.Second
	// minRecipientDigits rejects obviously truncated numbers.
	minRecipientDigits = 6
)

// Service defines a pluggable message transport.
type Service interface {
	// ValidateAndCanonicalizeRecipient reduces a recipient to its digits.
	ValidateAndCanonicalizeRecipient(recipient string) (string, error)

	// SendMessage sends a plain text message.
	SendMessage(ctx context.Context, to string, body string) error

	// SendList sends an interactive list. Transports without lists return
	// models.ErrListUnsupported.
	SendList(ctx context.Context, to string, choices *models.Choices) error

	// Start begins background processing (event subscription).
	Start(ctx context.Context) error

	// Stop stops background processing and closes Inbound.
	Stop() error

	// Inbound returns the channel of received messages.
	Inbound() <-chan models.Envelope
}

// canonicalRecipient validates a phone recipient shared by every transport.
func canonicalRecipient(recipient string) (string, error) {
	if recipient == "" {
		return "", models.ErrEmptyRecipient
	}
	canonical := models.CanonicalAddress(recipient)
	if canonical == "" {
		return "", fmt.Errorf("invalid phone number: no digits found in recipient %q", recipient)
	}
	if len(canonical) < minRecipientDigits {
		return "", fmt.Errorf("invalid phone number: %q is too short (minimum %d digits required)", canonical, minRecipientDigits)
	}
	return canonical, nil
}

// SendReply sends a reply, preferring its structured form. A failed list is
// retried once as plain text.
func SendReply(ctx context.Context, svc Service, to string, reply models.Reply) error {
	if reply.Choices == nil {
		return svc.SendMessage(ctx, to, reply.Text)
	}
	err := svc.SendList(ctx, to, reply.Choices)
	if err == nil {
		return nil
	}
	if !errors.Is(err, models.ErrListUnsupported) {
		slog.Warn("messaging.SendReply: list failed, retrying as text", "to", to, "error", err)
	}
	return svc.SendMessage(ctx, to, reply.Text)
}
