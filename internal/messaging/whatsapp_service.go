package messaging

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/models"
	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/whatsapp"
	"go.mau.fi/whatsmeow/types/events"
)

// WhatsAppService implements Service using the Whatsmeow-based whatsapp client.
type WhatsAppService struct {
	client   whatsapp.Sender
	waClient *whatsapp.Client // set when events can be subscribed
	inbound  chan models.Envelope
	mu       sync.RWMutex
	stopped  bool
}

var _ Service = (*WhatsAppService)(nil)

// NewWhatsAppService creates a new WhatsAppService wrapping the given sender.
func NewWhatsAppService(client whatsapp.Sender) *WhatsAppService {
	s := &WhatsAppService{
		client:  client,
		inbound: make(chan models.Envelope, DefaultChannelBufferSize),
	}
	if waClient, ok := client.(*whatsapp.Client); ok {
		s.waClient = waClient
	} else {
		slog.Debug("WhatsAppService.New: sender has no event stream (likely mock)")
	}
	return s
}

// ValidateAndCanonicalizeRecipient reduces a phone number or JID to digits.
func (s *WhatsAppService) ValidateAndCanonicalizeRecipient(recipient string) (string, error) {
	return canonicalRecipient(recipient)
}

// Start subscribes to message events.
func (s *WhatsAppService) Start(ctx context.Context) error {
	if s.waClient == nil {
		slog.Debug("WhatsAppService.Start: no event stream, skipping subscription")
		return nil
	}
	s.waClient.Subscribe(func(evt *events.Message) {
		env, ok := s.waClient.Envelope(ctx, evt)
		if !ok {
			slog.Debug("WhatsAppService.Start: ignoring empty message", "id", evt.Info.ID)
			return
		}
		s.emit(env)
	})
	slog.Info("WhatsAppService.Start: subscribed to message events")
	return nil
}

// Stop closes the inbound channel.
func (s *WhatsAppService) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil
	}
	s.stopped = true
	close(s.inbound)
	slog.Info("WhatsAppService.Stop: stopped")
	return nil
}

func (s *WhatsAppService) sendable(to string) (string, error) {
	s.mu.RLock()
	stopped := s.stopped
	s.mu.RUnlock()
	if stopped {
		return "", models.ErrServiceStopped
	}
	if whatsapp.IsLIDAddress(to) {
		return to, nil
	}
	return canonicalRecipient(to)
}

// SendMessage sends a text message.
func (s *WhatsAppService) SendMessage(ctx context.Context, to string, body string) error {
	canonical, err := s.sendable(to)
	if err != nil {
		return err
	}
	if err := s.client.SendMessage(ctx, canonical, body); err != nil {
		slog.Error("WhatsAppService.SendMessage: failed", "error", err, "to", canonical)
		return err
	}
	return nil
}

// SendList sends an interactive list message.
func (s *WhatsAppService) SendList(ctx context.Context, to string, choices *models.Choices) error {
	canonical, err := s.sendable(to)
	if err != nil {
		return err
	}
	return s.client.SendList(ctx, canonical, choices)
}

// Inbound returns the channel of received messages.
func (s *WhatsAppService) Inbound() <-chan models.Envelope {
	return s.inbound
}

// emit forwards env, dropping it when the channel stays full. The read lock
// is held so Stop cannot close the channel mid-send.
func (s *WhatsAppService) emit(env models.Envelope) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.stopped {
		slog.Warn("WhatsAppService.emit: dropping message, service stopped", "from", env.From)
		return
	}
	select {
	case s.inbound <- env:
		slog.Debug("WhatsAppService.emit: message forwarded", "from", env.From, "id", env.ID)
	case <-time.After(DefaultChannelTimeout):
		slog.Warn("WhatsAppService.emit: inbound channel blocked, dropping message", "from", env.From, "timeout", DefaultChannelTimeout)
	}
}
