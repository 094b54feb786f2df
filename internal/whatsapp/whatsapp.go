// Package whatsapp wraps the Whatsmeow client used as the primary transport.
//
// It pairs the device, sends text and interactive list messages, and turns
// inbound message events into transport-neutral envelopes.
package whatsapp

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/models"
	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/store"
	"github.com/mdp/qrterminal/v3"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"
)

const (
	// DefaultSQLitePath is the default whatsmeow device database.
	DefaultSQLitePath = "/var/lib/guru-legal/whatsmeow.db"
	// JIDSuffix is the WhatsApp server for regular users.
	JIDSuffix = "s.whatsapp.net"
)

// Sender sends outbound WhatsApp messages.
type Sender interface {
	SendMessage(ctx context.Context, to string, body string) error
	SendList(ctx context.Context, to string, choices *models.Choices) error
}

// Opts holds configuration options for the WhatsApp client.
type Opts struct {
	DBDSN       string // whatsmeow device database
	QRPath      string // path to write the login QR code
	NumericCode bool   // print the raw pairing code instead of a QR
	LogLevel    string // whatsmeow log level
}

// Option defines a configuration option for the WhatsApp client.
type Option func(*Opts)

// WithDBDSN sets the whatsmeow device database connection string.
func WithDBDSN(dsn string) Option {
	return func(o *Opts) {
		o.DBDSN = dsn
	}
}

// WithQRCodeOutput writes the login QR code to path instead of stdout.
func WithQRCodeOutput(path string) Option {
	return func(o *Opts) {
		o.QRPath = path
	}
}

// WithNumericCode prints the pairing code as text.
func WithNumericCode() Option {
	return func(o *Opts) {
		o.NumericCode = true
	}
}

// WithLogLevel sets the whatsmeow internal log level (DEBUG, INFO, WARN, ERROR).
func WithLogLevel(level string) Option {
	return func(o *Opts) {
		o.LogLevel = level
	}
}

// Client wraps the Whatsmeow client.
type Client struct {
	waClient *whatsmeow.Client
}

var _ Sender = (*Client)(nil)

// driverFor picks the database/sql driver for a whatsmeow DSN.
func driverFor(dsn string) string {
	if store.DetectDSNType(dsn) == "postgres" {
		return "postgres"
	}
	return "sqlite3"
}

// hasForeignKeys reports whether a SQLite DSN enables foreign keys, which
// whatsmeow requires for data integrity.
func hasForeignKeys(dsn string) bool {
	return strings.Contains(dsn, "_foreign_keys") || strings.Contains(dsn, "foreign_keys")
}

// NewClient connects to WhatsApp, running the QR pairing flow when the device
// store holds no session yet.
func NewClient(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := Opts{LogLevel: "INFO"}
	for _, opt := range opts {
		opt(&cfg)
	}
	dbDSN := cfg.DBDSN
	if dbDSN == "" {
		dbDSN = DefaultSQLitePath
		slog.Debug("Client.NewClient: no device DSN provided, using default", "default_path", dbDSN)
	}

	driver := driverFor(dbDSN)
	if driver == "sqlite3" && !hasForeignKeys(dbDSN) {
		slog.Warn("Client.NewClient: SQLite device store does not enable foreign keys; whatsmeow recommends '?_foreign_keys=on'",
			"dsn_example", "file:"+dbDSN+"?_foreign_keys=on")
	}

	container, err := sqlstore.New(ctx, driver, dbDSN, waLog.Stdout("Database", cfg.LogLevel, true))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize WhatsApp database store: %w", err)
	}
	deviceStore, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get device from WhatsApp store: %w", err)
	}
	waClient := whatsmeow.NewClient(deviceStore, waLog.Stdout("Client", cfg.LogLevel, true))

	if waClient.Store.ID != nil {
		slog.Debug("Client.NewClient: device already paired, connecting")
		if err := waClient.Connect(); err != nil {
			return nil, fmt.Errorf("failed to connect to WhatsApp server: %w", err)
		}
		slog.Info("Client.NewClient: connected")
		return &Client{waClient: waClient}, nil
	}

	slog.Info("Client.NewClient: pairing required, starting QR flow")
	qrChan, _ := waClient.GetQRChannel(ctx)
	if err := waClient.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to WhatsApp during login: %w", err)
	}
	writer := io.Writer(os.Stdout)
	if cfg.QRPath != "" {
		f, err := os.Create(cfg.QRPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create QR file: %w", err)
		}
		defer f.Close()
		writer = f
	}
	for evt := range qrChan {
		if evt.Event != "code" {
			slog.Info("Client.NewClient: login event", "event", evt.Event)
			continue
		}
		if cfg.NumericCode {
			fmt.Fprintln(writer, evt.Code)
		} else {
			qrterminal.GenerateHalfBlock(evt.Code, qrterminal.L, writer)
		}
	}
	slog.Info("Client.NewClient: paired and connected")
	return &Client{waClient: waClient}, nil
}

// Subscribe registers fn for every inbound message event.
func (c *Client) Subscribe(fn func(*events.Message)) {
	c.waClient.AddEventHandler(func(evt interface{}) {
		if msg, ok := evt.(*events.Message); ok {
			fn(msg)
		}
	})
}

// Disconnect closes the websocket.
func (c *Client) Disconnect() {
	if c.waClient != nil {
		c.waClient.Disconnect()
	}
}

func (c *Client) ready(to string) error {
	if c.waClient == nil || c.waClient.Store == nil {
		return fmt.Errorf("whatsapp client not initialized")
	}
	if to == "" {
		return models.ErrEmptyRecipient
	}
	return nil
}

// SendMessage sends a plain text message.
func (c *Client) SendMessage(ctx context.Context, to string, body string) error {
	if err := c.ready(to); err != nil {
		return err
	}
	if body == "" {
		return models.ErrEmptyBody
	}
	jid, err := RecipientJID(to)
	if err != nil {
		return err
	}
	msg := &waE2E.Message{Conversation: proto.String(body)}
	if _, err := c.waClient.SendMessage(ctx, jid, msg); err != nil {
		return fmt.Errorf("failed to send message to %s: %w", to, err)
	}
	slog.Debug("Client.SendMessage: sent", "to", to, "body_length", len(body))
	return nil
}

// SendList sends an interactive single-select list.
func (c *Client) SendList(ctx context.Context, to string, choices *models.Choices) error {
	if err := c.ready(to); err != nil {
		return err
	}
	jid, err := RecipientJID(to)
	if err != nil {
		return err
	}
	msg := &waE2E.Message{ListMessage: ListMessage(choices)}
	if _, err := c.waClient.SendMessage(ctx, jid, msg); err != nil {
		return fmt.Errorf("failed to send list to %s: %w", to, err)
	}
	slog.Debug("Client.SendList: sent", "to", to, "sections", len(choices.Sections))
	return nil
}

// RecipientJID resolves a send address. A full JID such as "123@lid" is used
// as is; bare digits address the regular user server.
func RecipientJID(to string) (types.JID, error) {
	if !strings.ContainsRune(to, '@') {
		return types.NewJID(to, JIDSuffix), nil
	}
	jid, err := types.ParseJID(to)
	if err != nil {
		return types.JID{}, fmt.Errorf("invalid recipient %q: %w", to, err)
	}
	return jid, nil
}

// IsLIDAddress reports whether addr is a hidden-user (LID) JID, which has no
// phone number and must be replied to verbatim.
func IsLIDAddress(addr string) bool {
	return strings.HasSuffix(addr, "@"+types.HiddenUserServer)
}

// ListMessage converts choices to the WhatsApp list proto.
func ListMessage(choices *models.Choices) *waE2E.ListMessage {
	sections := make([]*waE2E.ListMessage_Section, 0, len(choices.Sections))
	for _, s := range choices.Sections {
		rows := make([]*waE2E.ListMessage_Row, 0, len(s.Rows))
		for _, r := range s.Rows {
			row := &waE2E.ListMessage_Row{Title: proto.String(r.Title), RowID: proto.String(r.RowID)}
			if r.Description != "" {
				row.Description = proto.String(r.Description)
			}
			rows = append(rows, row)
		}
		sections = append(sections, &waE2E.ListMessage_Section{Title: proto.String(s.Title), Rows: rows})
	}
	list := &waE2E.ListMessage{
		Description: proto.String(choices.Body),
		ButtonText:  proto.String(choices.ButtonText),
		ListType:    waE2E.ListMessage_SINGLE_SELECT.Enum(),
		Sections:    sections,
	}
	if choices.Title != "" {
		list.Title = proto.String(choices.Title)
	}
	if choices.Footer != "" {
		list.FooterText = proto.String(choices.Footer)
	}
	return list
}

// Envelope converts a message event, downloading any attachment. It reports
// false for events that carry neither text nor media.
func (c *Client) Envelope(ctx context.Context, evt *events.Message) (models.Envelope, bool) {
	env, media := EnvelopeFrom(evt)
	if media != nil && env.Attachment != nil {
		data, err := c.waClient.Download(ctx, media)
		if err != nil {
			slog.Warn("Client.Envelope: media download failed", "from", env.From, "kind", env.Attachment.Kind, "error", err)
			env.Attachment = nil
		} else {
			env.Attachment.Data = data
		}
	}
	return env, env.Text != "" || env.Attachment != nil
}

// EnvelopeFrom maps a message event to an envelope and returns the media
// message to download, if any. List and button replies carry the selected
// row id as text.
func EnvelopeFrom(evt *events.Message) (models.Envelope, whatsmeow.DownloadableMessage) {
	sender, replyTo := senderAddress(evt.Info.MessageSource)
	env := models.Envelope{
		ID:          evt.Info.ID,
		From:        models.CanonicalAddress(sender.User),
		PushName:    evt.Info.PushName,
		Timestamp:   evt.Info.Timestamp,
		IsFromSelf:  evt.Info.IsFromMe,
		IsGroup:     evt.Info.IsGroup,
		IsBroadcast: evt.Info.Chat.Server == types.BroadcastServer,
		ReplyTo:     replyTo,
	}
	m := evt.Message
	if m == nil {
		return env, nil
	}

	switch {
	case m.GetConversation() != "":
		env.Text = m.GetConversation()
	case m.GetExtendedTextMessage().GetText() != "":
		env.Text = m.GetExtendedTextMessage().GetText()
	case m.GetListResponseMessage().GetSingleSelectReply().GetSelectedRowID() != "":
		env.Text = m.GetListResponseMessage().GetSingleSelectReply().GetSelectedRowID()
	case m.GetButtonsResponseMessage().GetSelectedButtonID() != "":
		env.Text = m.GetButtonsResponseMessage().GetSelectedButtonID()
	}

	if img := m.GetImageMessage(); img != nil {
		env.Attachment = &models.Attachment{Kind: models.AttachmentImage, MimeType: img.GetMimetype(), Caption: img.GetCaption()}
		env.Text = img.GetCaption()
		return env, img
	}
	if doc := m.GetDocumentMessage(); doc != nil {
		env.Attachment = &models.Attachment{Kind: models.AttachmentDocument, MimeType: doc.GetMimetype(), FileName: doc.GetFileName(), Caption: doc.GetCaption()}
		env.Text = doc.GetCaption()
		return env, doc
	}
	if audio := m.GetAudioMessage(); audio != nil {
		env.Attachment = &models.Attachment{Kind: models.AttachmentAudio, MimeType: audio.GetMimetype()}
		return env, audio
	}
	if video := m.GetVideoMessage(); video != nil {
		env.Attachment = &models.Attachment{Kind: models.AttachmentVideo, MimeType: video.GetMimetype(), Caption: video.GetCaption()}
		env.Text = video.GetCaption()
		return env, video
	}
	return env, nil
}

// senderAddress picks the JID identifying a sender. LID senders are
// mapped to their alternate phone JID when the server supplies one; otherwise
// the LID is kept and also returned as the reply address.
func senderAddress(src types.MessageSource) (types.JID, string) {
	sender := src.Sender
	if sender.Server != types.HiddenUserServer {
		return sender, ""
	}
	if alt := src.SenderAlt; alt.Server == types.DefaultUserServer && alt.User != "" {
		return alt, ""
	}
	return sender, sender.ToNonAD().String()
}

// MockClient records outbound messages instead of sending them.
type MockClient struct {
	Texts    []SentMessage
	Lists    []SentList
	ListErr  error
	Failures int // number of upcoming text sends that fail
}

// SentMessage is a text recorded by MockClient.
type SentMessage struct {
	To   string
	Body string
}

// SentList is a list recorded by MockClient.
type SentList struct {
	To      string
	Choices *models.Choices
}

var _ Sender = (*MockClient)(nil)

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) SendMessage(_ context.Context, to string, body string) error {
	if m.Failures > 0 {
		m.Failures--
		return fmt.Errorf("mock send failure")
	}
	m.Texts = append(m.Texts, SentMessage{To: to, Body: body})
	return nil
}

func (m *MockClient) SendList(_ context.Context, to string, choices *models.Choices) error {
	if m.ListErr != nil {
		return m.ListErr
	}
	m.Lists = append(m.Lists, SentList{To: to, Choices: choices})
	return nil
}
