package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/flow"
	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/models"
	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/store"
)

// Records is the persistence the inbound pipeline needs.
type Records interface {
	store.DedupRepo
	store.MessageRepo
	store.MediaRepo
	FindContactByPhone(ctx context.Context, phone string) (*models.Contact, error)
}

// Dispatcher produces the reply for an inbound message.
type Dispatcher interface {
	Route(ctx context.Context, env models.Envelope, media *models.MediaResult) (models.Reply, error)
}

// Gate explains why the bot stays silent for a contact, or returns "".
type Gate interface {
	Reason(contact string) string
}

// MediaAnalyzer transcribes or describes an attachment.
type MediaAnalyzer interface {
	AnalyzeMedia(ctx context.Context, att *models.Attachment) (string, bool)
}

// HandlerOpts configures a Handler.
type HandlerOpts struct {
	MediaDir string
	Analyzer MediaAnalyzer
	Gate     Gate
	Now      func() time.Time
}

// HandlerOption configures a Handler.
type HandlerOption func(*HandlerOpts)

// WithMediaDir sets where inbound attachments are written.
func WithMediaDir(dir string) HandlerOption {
	return func(o *HandlerOpts) { o.MediaDir = dir }
}

// WithAnalyzer enables media transcription and analysis.
func WithAnalyzer(a MediaAnalyzer) HandlerOption {
	return func(o *HandlerOpts) { o.Analyzer = a }
}

// WithGate sets the handoff gate consulted before routing.
func WithGate(g Gate) HandlerOption {
	return func(o *HandlerOpts) { o.Gate = g }
}

// WithHandlerClock overrides the clock used for media file names.
func WithHandlerClock(now func() time.Time) HandlerOption {
	return func(o *HandlerOpts) { o.Now = now }
}

// Handler runs the inbound pipeline: filter, dedup, per-contact
// serialization, media, audit log, gate, routing and reply.
type Handler struct {
	svc     Service
	records Records
	router  Dispatcher
	opts    HandlerOpts
	locks   *KeyedLock
}

func NewHandler(svc Service, records Records, router Dispatcher, opts ...HandlerOption) *Handler {
	cfg := HandlerOpts{MediaDir: "media", Now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Handler{svc: svc, records: records, router: router, opts: cfg, locks: NewKeyedLock()}
}

// Run consumes the service's inbound channel until it closes or ctx is done.
// Messages from one sender are handled in arrival order; different senders
// are handled concurrently.
func (h *Handler) Run(ctx context.Context) error {
	queue := newContactQueue(func(env models.Envelope) { h.Handle(ctx, env) })
	defer queue.wait()
	for {
		select {
		case <-ctx.Done():
			return nil
		case env, ok := <-h.svc.Inbound():
			if !ok {
				slog.Info("Handler.Run: inbound channel closed")
				return nil
			}
			queue.push(env)
		}
	}
}

// Handle processes a single inbound message.
func (h *Handler) Handle(ctx context.Context, env models.Envelope) {
	if env.IsGroup || env.IsBroadcast || env.IsFromSelf {
		slog.Debug("Handler.Handle: ignoring non-direct message", "id", env.ID, "group", env.IsGroup, "broadcast", env.IsBroadcast, "self", env.IsFromSelf)
		return
	}
	if env.From == "" || (env.Text == "" && env.Attachment == nil) {
		return
	}

	if env.ID != "" {
		fresh, err := h.records.RecordInbound(ctx, env.ID, env.From)
		switch {
		case err != nil:
			slog.Warn("Handler.Handle: dedup record failed, processing anyway", "id", env.ID, "error", err)
		case !fresh:
			slog.Info("Handler.Handle: duplicate message ignored", "id", env.ID, "from", env.From)
			return
		default:
			defer func() {
				if err := h.records.MarkProcessed(ctx, env.ID); err != nil {
					slog.Warn("Handler.Handle: mark processed failed", "id", env.ID, "error", err)
				}
			}()
		}
	}

	// Held through media, audit log, gate, routing and reply.
	unlock, err := h.locks.Lock(ctx, env.From)
	if err != nil {
		slog.Warn("Handler.Handle: gave up waiting for contact lock", "from", env.From, "error", err)
		return
	}
	defer unlock()

	reason := ""
	if h.opts.Gate != nil {
		reason = h.opts.Gate.Reason(env.From)
	}
	slog.Info("Handler.Handle: message received", "from", env.From, "gated", reason, "has_media", env.Attachment != nil)

	contact := h.findContact(ctx, env.From)
	media := h.processMedia(ctx, &env, contact)
	inboundID := h.logMessage(ctx, &models.MessageLogEntry{
		WAMessageID: env.ID,
		Phone:       env.From,
		ContactID:   contactID(contact),
		Direction:   models.DirectionInbound,
		Content:     inboundContent(env.Text, media),
		MediaURL:    mediaURL(media),
		Status:      models.MessageStatusDelivered,
	})

	if reason != "" {
		return
	}

	reply := h.dispatch(ctx, env, media)
	if reply.IsEmpty() {
		return
	}

	// Intake may have just registered the contact.
	if contact == nil {
		if contact = h.findContact(ctx, env.From); contact != nil && inboundID != 0 {
			if err := h.records.LinkMessageToContact(ctx, inboundID, contact.ID); err != nil {
				slog.Warn("Handler.Handle: link message failed", "message_id", inboundID, "error", err)
			}
		}
	}

	to := env.From
	if env.ReplyTo != "" {
		to = env.ReplyTo
	}
	status := models.MessageStatusSent
	if err := SendReply(ctx, h.svc, to, reply); err != nil {
		slog.Error("Handler.Handle: send reply failed", "to", to, "error", err)
		status = models.MessageStatusFailed
	}
	h.logMessage(ctx, &models.MessageLogEntry{
		Phone:     env.From,
		ContactID: contactID(contact),
		Direction: models.DirectionOutbound,
		Content:   reply.Text,
		Status:    status,
	})
}

// dispatch routes the message, turning errors and panics into the general
// error reply.
func (h *Handler) dispatch(ctx context.Context, env models.Envelope, media *models.MediaResult) (reply models.Reply) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Handler.dispatch: panic recovered", "from", env.From, "panic", r, "stack", string(debug.Stack()))
			reply = models.TextReply(flow.ErrorGeneral)
		}
	}()
	reply, err := h.router.Route(ctx, env, media)
	if err != nil {
		slog.Error("Handler.dispatch: route failed", "from", env.From, "error", err)
		return models.TextReply(flow.ErrorGeneral)
	}
	return reply
}

func (h *Handler) findContact(ctx context.Context, phone string) *models.Contact {
	c, err := h.records.FindContactByPhone(ctx, phone)
	if err != nil {
		if !errors.Is(err, models.ErrContactNotFound) {
			slog.Warn("Handler.findContact: lookup failed", "phone", phone, "error", err)
		}
		return nil
	}
	return c
}

// processMedia saves and analyses an attachment. A voice note transcription
// replaces the message text. Only attachments that were stored and recorded
// are analysed. Failures are logged and never block the message.
func (h *Handler) processMedia(ctx context.Context, env *models.Envelope, contact *models.Contact) *models.MediaResult {
	att := env.Attachment
	if att == nil {
		return nil
	}
	result := &models.MediaResult{Kind: att.Kind}

	record, err := saveAttachment(filepath.Clean(h.opts.MediaDir), env.From, env.ID, att, h.opts.Now())
	if err != nil {
		slog.Error("Handler.processMedia: save failed", "from", env.From, "error", err)
		return result
	}
	record.ContactID = contactID(contact)
	if err := h.records.CreateClientMedia(ctx, record); err != nil {
		slog.Error("Handler.processMedia: media record failed", "from", env.From, "error", err)
		return result
	}
	result.Media = record

	if h.opts.Analyzer == nil {
		return result
	}
	if out, ok := h.opts.Analyzer.AnalyzeMedia(ctx, att); ok {
		if att.Kind == models.AttachmentAudio {
			slog.Info("Handler.processMedia: voice note transcribed", "from", env.From, "chars", len(out))
			env.Text = out
		} else {
			result.Analysis = out
		}
	}
	return result
}

func (h *Handler) logMessage(ctx context.Context, m *models.MessageLogEntry) int64 {
	if err := h.records.CreateMessageLog(ctx, m); err != nil {
		slog.Error("Handler.logMessage: failed", "phone", m.Phone, "direction", m.Direction, "error", err)
		return 0
	}
	return m.ID
}

// inboundContent is the audit-log text of an inbound message.
func inboundContent(text string, media *models.MediaResult) string {
	if media != nil {
		if media.Kind == models.AttachmentAudio && text != "" {
			return "[🎤 Nota de voz] " + text
		}
		if media.Analysis != "" {
			label := "[📄 Documento analizado]"
			if media.Kind == models.AttachmentImage {
				label = "[📄 Imagen analizado]"
			}
			if text == "" {
				return label
			}
			return text + "\n\n" + label
		}
	}
	if text == "" {
		return "[archivo adjunto]"
	}
	return text
}

func mediaURL(media *models.MediaResult) string {
	if media == nil || media.Media == nil {
		return ""
	}
	return fmt.Sprintf("/api/media/%d/download", media.Media.ID)
}

func contactID(c *models.Contact) *int64 {
	if c == nil {
		return nil
	}
	id := c.ID
	return &id
}
