package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/models"
	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/twiliowhatsapp"
)

// MediaFetcher downloads a webhook media URL.
type MediaFetcher interface {
	FetchMedia(ctx context.Context, url string) ([]byte, error)
}

// WebhookValidator verifies the X-Twilio-Signature header.
type WebhookValidator interface {
	ValidateWebhook(url string, params map[string]string, signature string) bool
}

// TwilioService implements Service using the Twilio API. Inbound messages
// arrive through WebhookHandler.
type TwilioService struct {
	client     twiliowhatsapp.Sender
	fetcher    MediaFetcher
	validator  WebhookValidator
	webhookURL string // public URL Twilio signs; empty disables verification
	inbound    chan models.Envelope
	mu         sync.RWMutex
	stopped    bool
}

var _ Service = (*TwilioService)(nil)

// NewTwilioService creates a TwilioService. When the client can fetch media or
// validate signatures those capabilities are used by the webhook.
func NewTwilioService(client twiliowhatsapp.Sender, webhookURL string) *TwilioService {
	s := &TwilioService{
		client:     client,
		webhookURL: webhookURL,
		inbound:    make(chan models.Envelope, DefaultChannelBufferSize),
	}
	if f, ok := client.(MediaFetcher); ok {
		s.fetcher = f
	}
	if v, ok := client.(WebhookValidator); ok {
		s.validator = v
	}
	return s
}

// ValidateAndCanonicalizeRecipient reduces a "whatsapp:+1809..." address to digits.
func (s *TwilioService) ValidateAndCanonicalizeRecipient(recipient string) (string, error) {
	return canonicalRecipient(recipient)
}

// Start is a no-op; the webhook is served by the API server.
func (s *TwilioService) Start(ctx context.Context) error {
	return nil
}

// Stop closes the inbound channel.
func (s *TwilioService) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil
	}
	s.stopped = true
	close(s.inbound)
	return nil
}

func (s *TwilioService) sendable(to string) (string, error) {
	s.mu.RLock()
	stopped := s.stopped
	s.mu.RUnlock()
	if stopped {
		return "", models.ErrServiceStopped
	}
	return canonicalRecipient(to)
}

// SendMessage sends a message via Twilio.
func (s *TwilioService) SendMessage(ctx context.Context, to string, body string) error {
	canonical, err := s.sendable(to)
	if err != nil {
		slog.Error("TwilioService.SendMessage: invalid recipient", "error", err, "to", to)
		return err
	}
	return s.client.SendMessage(ctx, canonical, body)
}

// SendList delegates to the client, which reports lists as unsupported.
func (s *TwilioService) SendList(ctx context.Context, to string, choices *models.Choices) error {
	canonical, err := s.sendable(to)
	if err != nil {
		return err
	}
	return s.client.SendList(ctx, canonical, choices)
}

// Inbound returns the channel of webhook messages.
func (s *TwilioService) Inbound() <-chan models.Envelope {
	return s.inbound
}

// attachmentKind maps a content type to an attachment kind.
func attachmentKind(mimeType string) models.AttachmentKind {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return models.AttachmentImage
	case strings.HasPrefix(mimeType, "audio/"):
		return models.AttachmentAudio
	case strings.HasPrefix(mimeType, "video/"):
		return models.AttachmentVideo
	default:
		return models.AttachmentDocument
	}
}

// WebhookHandler handles inbound Twilio webhook requests and emits them on
// Inbound.
func (s *TwilioService) WebhookHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		slog.Error("TwilioService.WebhookHandler: failed to parse form", "error", err)
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	if s.validator != nil && s.webhookURL != "" {
		params := make(map[string]string, len(r.PostForm))
		for k := range r.PostForm {
			params[k] = r.PostForm.Get(k)
		}
		if !s.validator.ValidateWebhook(s.webhookURL, params, r.Header.Get("X-Twilio-Signature")) {
			slog.Warn("TwilioService.WebhookHandler: invalid signature", "remote", r.RemoteAddr)
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
	}

	env := models.Envelope{
		ID:        r.FormValue("MessageSid"),
		From:      models.CanonicalAddress(r.FormValue("From")),
		PushName:  r.FormValue("ProfileName"),
		Timestamp: time.Now(),
		Text:      r.FormValue("Body"),
	}
	if n, _ := strconv.Atoi(r.FormValue("NumMedia")); n > 0 {
		env.Attachment = s.fetchAttachment(r.Context(), r.FormValue("MediaUrl0"), r.FormValue("MediaContentType0"))
		if env.Attachment != nil {
			env.Attachment.Caption = env.Text
		}
	}

	if env.From == "" || (env.Text == "" && env.Attachment == nil) {
		slog.Warn("TwilioService.WebhookHandler: missing fields", "from", env.From, "num_media", r.FormValue("NumMedia"))
		http.Error(w, "Missing required fields", http.StatusBadRequest)
		return
	}
	if env.ID == "" {
		env.ID = fmt.Sprintf("twilio-%s-%d", env.From, env.Timestamp.UnixNano())
	}

	slog.Info("TwilioService.WebhookHandler: inbound message", "from", env.From, "id", env.ID, "has_media", env.Attachment != nil)
	s.emit(env)

	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "<Response></Response>")
}

func (s *TwilioService) fetchAttachment(ctx context.Context, url, mimeType string) *models.Attachment {
	if s.fetcher == nil || url == "" {
		return nil
	}
	data, err := s.fetcher.FetchMedia(ctx, url)
	if err != nil {
		slog.Warn("TwilioService.fetchAttachment: download failed", "error", err)
		return nil
	}
	return &models.Attachment{Kind: attachmentKind(mimeType), MimeType: mimeType, Data: data}
}

func (s *TwilioService) emit(env models.Envelope) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.stopped {
		slog.Warn("TwilioService.emit: dropping message, service stopped", "from", env.From)
		return
	}
	select {
	case s.inbound <- env:
	case <-time.After(DefaultChannelTimeout):
		slog.Warn("TwilioService.emit: inbound channel blocked, dropping message", "from", env.From)
	}
}
