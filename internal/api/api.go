// Package api serves the administrative HTTP control surface.
//
// Operators use it to pause the bot, switch answering mode, hand contacts
// over to a human, and send messages directly. It also mounts the Twilio
// webhook when that transport is selected.
package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/handoff"
	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/messaging"
	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/store"
)

// DefaultAddr is the listen address when none is configured.
const DefaultAddr = ":8080"

// shutdownTimeout bounds graceful shutdown of in-flight requests.
const shutdownTimeout = 10 * time.Second

// Opts holds configuration options for the API server.
type Opts struct {
	Addr    string
	Token   string           // bearer token for admin routes; empty rejects all
	Webhook http.HandlerFunc // Twilio inbound webhook, if any
}

// Option defines a configuration option for the API server.
type Option func(*Opts)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// WithAdminToken sets the bearer token required by every admin route.
func WithAdminToken(token string) Option {
	return func(o *Opts) { o.Token = token }
}

// WithTwilioWebhook mounts h at POST /twilio/webhook.
func WithTwilioWebhook(h http.HandlerFunc) Option {
	return func(o *Opts) { o.Webhook = h }
}

// Server is the admin HTTP server.
type Server struct {
	msgService messaging.Service
	messages   store.MessageRepo
	gate       *handoff.Controller
	opts       Opts
	startedAt  time.Time
}

func NewServer(msgService messaging.Service, messages store.MessageRepo, gate *handoff.Controller, opts ...Option) *Server {
	cfg := Opts{Addr: DefaultAddr}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Token == "" {
		slog.Warn("Server.New: no admin token configured, admin routes will reject every request")
	}
	return &Server{msgService: msgService, messages: messages, gate: gate, opts: cfg, startedAt: time.Now()}
}

// Handler returns the routed mux. Everything except /health and the Twilio
// webhook, which validates its own signature, requires the admin token.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.healthHandler)
	mux.Handle("GET /bot/settings", s.requireToken(s.settingsHandler))
	mux.Handle("POST /bot/active", s.requireToken(s.botActiveHandler))
	mux.Handle("POST /bot/mode", s.requireToken(s.botModeHandler))
	mux.Handle("POST /bot/contacts/{phone}/enable", s.requireToken(s.contactEnableHandler(true)))
	mux.Handle("POST /bot/contacts/{phone}/disable", s.requireToken(s.contactEnableHandler(false)))
	mux.Handle("POST /bot/contacts/{phone}/manual", s.requireToken(s.contactManualHandler))
	mux.Handle("GET /messages/{phone}", s.requireToken(s.recentMessagesHandler))
	mux.Handle("POST /messages/send", s.requireToken(s.sendHandler))
	if s.opts.Webhook != nil {
		mux.HandleFunc("POST /twilio/webhook", s.opts.Webhook)
	}
	return mux
}

// requireToken rejects requests without "Authorization: Bearer <token>".
func (s *Server) requireToken(next http.HandlerFunc) http.Handler {
	want := []byte(s.opts.Token)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || len(want) == 0 || subtle.ConstantTimeCompare([]byte(strings.TrimSpace(got)), want) != 1 {
			slog.Warn("Server.requireToken: unauthorized", "method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr)
			w.Header().Set("WWW-Authenticate", `Bearer realm="admin"`)
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next(w, r)
	})
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server.Run: listening", "addr", s.opts.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("api server failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		slog.Info("Server.Run: shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("api server shutdown failed: %w", err)
		}
		return nil
	}
}
