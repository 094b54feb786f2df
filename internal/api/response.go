package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/models"
)

// marshalFailure is written when a response cannot be encoded.
var marshalFailure = []byte(`{"status":"error","message":"Internal server error"}`)

// writeJSON encodes response before touching the headers so an encoding
// failure can still change the status code.
func writeJSON(w http.ResponseWriter, statusCode int, response models.APIResponse) {
	body, err := json.Marshal(response)
	if err != nil {
		slog.Error("Server.writeJSON: marshal failed", "error", err)
		body = marshalFailure
		statusCode = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if _, err := w.Write(body); err != nil {
		slog.Warn("Server.writeJSON: write failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, models.Error(message))
}
