package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/handoff"
	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/models"
)

const (
	defaultMessageLimit = 50
	maxMessageLimit     = 500
)

type botActiveRequest struct {
	Active *bool `json:"active"`
}

type botModeRequest struct {
	Mode handoff.Mode `json:"mode"`
}

type manualRequest struct {
	Manual *bool `json:"manual"`
}

type sendRequest struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

// decodeJSON decodes the request body into v, answering 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		slog.Warn("Server.decodeJSON: invalid JSON", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusBadRequest, "Invalid JSON format")
		return false
	}
	return true
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.Success(map[string]interface{}{
		"uptime_seconds": int64(time.Since(s.startedAt).Seconds()),
	}))
}

func (s *Server) settingsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.Success(s.gate.Snapshot()))
}

func (s *Server) botActiveHandler(w http.ResponseWriter, r *http.Request) {
	var req botActiveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Active == nil {
		writeError(w, http.StatusBadRequest, "Missing required field: active")
		return
	}
	s.applyAndReport(r.Context(), w, "bot state updated", func(ctx context.Context) error {
		return s.gate.SetBotActive(ctx, *req.Active)
	})
}

func (s *Server) botModeHandler(w http.ResponseWriter, r *http.Request) {
	var req botModeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s.applyAndReport(r.Context(), w, "bot mode updated", func(ctx context.Context) error {
		return s.gate.SetBotMode(ctx, req.Mode)
	})
}

func (s *Server) contactEnableHandler(enable bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		phone, ok := s.pathPhone(w, r)
		if !ok {
			return
		}
		s.applyAndReport(r.Context(), w, "contact updated", func(ctx context.Context) error {
			if enable {
				return s.gate.EnableContact(ctx, phone)
			}
			return s.gate.DisableContact(ctx, phone)
		})
	}
}

func (s *Server) contactManualHandler(w http.ResponseWriter, r *http.Request) {
	phone, ok := s.pathPhone(w, r)
	if !ok {
		return
	}
	var req manualRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Manual == nil {
		writeError(w, http.StatusBadRequest, "Missing required field: manual")
		return
	}
	s.applyAndReport(r.Context(), w, "contact updated", func(ctx context.Context) error {
		return s.gate.SetManual(ctx, phone, *req.Manual)
	})
}

// applyAndReport runs a handoff mutation and answers with the new settings.
func (s *Server) applyAndReport(ctx context.Context, w http.ResponseWriter, msg string, apply func(context.Context) error) {
	if err := apply(ctx); err != nil {
		if errors.Is(err, models.ErrInvalidBotMode) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("Server.applyAndReport: settings update failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to save bot settings")
		return
	}
	writeJSON(w, http.StatusOK, models.SuccessWithMessage(msg, s.gate.Snapshot()))
}

func (s *Server) pathPhone(w http.ResponseWriter, r *http.Request) (string, bool) {
	phone, err := s.msgService.ValidateAndCanonicalizeRecipient(r.PathValue("phone"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	return phone, true
}

func (s *Server) recentMessagesHandler(w http.ResponseWriter, r *http.Request) {
	phone, ok := s.pathPhone(w, r)
	if !ok {
		return
	}
	limit := defaultMessageLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxMessageLimit {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}
	msgs, err := s.messages.FindRecentMessages(r.Context(), phone, limit)
	if err != nil {
		slog.Error("Server.recentMessagesHandler: lookup failed", "phone", phone, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to load messages")
		return
	}
	writeJSON(w, http.StatusOK, models.Success(msgs))
}

// sendHandler sends an operator message directly, bypassing the engine.
func (s *Server) sendHandler(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	to, err := s.msgService.ValidateAndCanonicalizeRecipient(req.To)
	if err != nil {
		slog.Warn("Server.sendHandler: recipient validation failed", "error", err, "original_to", req.To)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Body == "" {
		writeError(w, http.StatusBadRequest, models.ErrEmptyBody.Error())
		return
	}

	status := models.MessageStatusSent
	sendErr := s.msgService.SendMessage(r.Context(), to, req.Body)
	if sendErr != nil {
		status = models.MessageStatusFailed
	}
	entry := &models.MessageLogEntry{Phone: to, Direction: models.DirectionOutbound, Content: req.Body, Status: status}
	if err := s.messages.CreateMessageLog(r.Context(), entry); err != nil {
		slog.Warn("Server.sendHandler: failed to log message", "to", to, "error", err)
	}

	if sendErr != nil {
		slog.Error("Server.sendHandler: failed to send message", "error", sendErr, "to", to)
		writeError(w, http.StatusInternalServerError, "Failed to send message")
		return
	}
	slog.Info("Server.sendHandler: message sent", "to", to)
	writeJSON(w, http.StatusOK, models.SuccessWithMessage("Message sent successfully", entry))
}
