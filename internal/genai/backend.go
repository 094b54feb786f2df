// Package genai wraps the generative-language backends used by the engine.
//
// A Client adds rate limiting, model fallback and quota backoff on top of a
// Backend, and never surfaces an error to its callers: every operation
// reports success with a boolean so the conversation can degrade to static
// content.
package genai

import (
	"context"
	"errors"
	"fmt"
)

// Role is the author of a conversation turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Part is one piece of a turn: either text or inline binary data.
type Part struct {
	Text     string
	Data     []byte
	MimeType string
}

// IsData reports whether the part carries inline bytes.
func (p Part) IsData() bool {
	return len(p.Data) > 0
}

// Turn is a single message of the model conversation.
type Turn struct {
	Role  Role
	Parts []Part
}

// UserText builds a user turn with a single text part.
func UserText(text string) Turn {
	return Turn{Role: RoleUser, Parts: []Part{{Text: text}}}
}

// ModelText builds a model turn with a single text part.
func ModelText(text string) Turn {
	return Turn{Role: RoleModel, Parts: []Part{{Text: text}}}
}

// Backend generates text from a conversation on a named model.
type Backend interface {
	GenerateText(ctx context.Context, turns []Turn, model string) (string, error)
}

// BackendError is a failure reported by a backend. Status is the HTTP-like
// code when the provider exposes one, zero otherwise.
type BackendError struct {
	Status  int
	Message string
}

func (e *BackendError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("genai backend error %d: %s", e.Status, e.Message)
	}
	return "genai backend error: " + e.Message
}

// ErrNoChoicesReturned is returned when a provider answers without content.
var ErrNoChoicesReturned = errors.New("no choices returned")

// ErrUnsupportedPart is returned when a backend cannot send a part kind.
var ErrUnsupportedPart = errors.New("unsupported content part")
