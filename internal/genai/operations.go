package genai

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/models"
)

// Output bounds for model replies.
const (
	minResponseLen     = 5
	maxResponseLen     = 1000
	truncatedSuffix    = "\n\n_[Respuesta resumida]_"
	minGreetingLen     = 10
	maxGreetingLen     = 300
	minConfirmationLen = 10
	maxConfirmationLen = 800
)

var thinkingRegex = regexp.MustCompile(`(?i)^\(pensando\)[\s\S]*?\.\.\.\s*`)

// PostProcess cleans a legal answer. It strips leaked reasoning, rejects
// replies that are too short and caps long ones.
func PostProcess(raw string) (string, bool) {
	out := strings.TrimSpace(raw)
	out = strings.TrimSpace(thinkingRegex.ReplaceAllString(out, ""))
	if utf8.RuneCountInString(out) < minResponseLen {
		return "", false
	}
	if utf8.RuneCountInString(out) > maxResponseLen {
		return clip(out, maxResponseLen) + truncatedSuffix, true
	}
	return out, true
}

func lengthWithin(s string, lo, hi int) bool {
	n := utf8.RuneCountInString(s)
	return n >= lo && n <= hi
}

// ClassifyIntent asks the model for one label of the closed intent set.
// Any answer outside the set is reported as a miss.
func (c *Client) ClassifyIntent(ctx context.Context, text string) (models.Intent, bool) {
	out, ok := c.call(ctx, "classify_intent", []Turn{UserText(intentPrompt + text)})
	if !ok {
		return "", false
	}
	label := models.Intent(strings.ToLower(strings.TrimSpace(out)))
	if !models.IsValidIntent(label) {
		slog.Debug("Client.ClassifyIntent: label outside closed set", "label", clip(string(label), 40))
		return "", false
	}
	slog.Debug("Client.ClassifyIntent: intent detected", "intent", label)
	return label, true
}

// Generate answers prompt as the assistant, grounded on kbContext and the
// recent conversation.
func (c *Client) Generate(ctx context.Context, prompt, kbContext string, history []models.MessageLogEntry) (string, bool) {
	if !c.Enabled() {
		return "", false
	}
	out, ok := c.call(ctx, "legal_response", legalTurns(c.systemPrompt, prompt, kbContext, history))
	if !ok {
		return "", false
	}
	reply, ok := PostProcess(out)
	if !ok {
		slog.Debug("Client.Generate: empty or short response")
		return "", false
	}
	slog.Debug("Client.Generate: generated response", "chars", utf8.RuneCountInString(reply))
	return reply, true
}

// GenerateLegalResponse is Generate with an optional description of media
// the contact just sent.
func (c *Client) GenerateLegalResponse(ctx context.Context, query, kbContext, mediaContext string, history []models.MessageLogEntry) (string, bool) {
	return c.Generate(ctx, query, kbContext+mediaContext, history)
}

// legalTurns opens with the system instructions as a user/model exchange,
// folds history into alternating roles and ends with the user's question.
func legalTurns(systemPrompt, query, kbContext string, history []models.MessageLogEntry) []Turn {
	turns := []Turn{
		UserText("Instrucciones del sistema:\n" + systemPrompt),
		ModelText(systemAck),
	}
	last := RoleModel
	for _, m := range history {
		role := RoleModel
		if m.Direction == models.DirectionInbound {
			role = RoleUser
		}
		if role == last {
			t := &turns[len(turns)-1]
			t.Parts[0].Text += "\n" + m.Content
		} else {
			turns = append(turns, Turn{Role: role, Parts: []Part{{Text: m.Content}}})
		}
		last = role
	}
	if last == RoleUser {
		turns = append(turns, ModelText("..."))
	}

	user := query
	if kbContext != "" {
		user = "Contexto de nuestra base de conocimientos:\n" + kbContext + "\n\nPregunta del usuario: " + query
	}
	return append(turns, UserText(user))
}

// GenerateGreeting writes a short welcome. A returning contact is greeted
// by name.
func (c *Client) GenerateGreeting(ctx context.Context, name string, returning bool) (string, bool) {
	out, ok := c.call(ctx, "greeting", []Turn{UserText(greetingPrompt(name, returning))})
	if !ok {
		return "", false
	}
	out = strings.TrimSpace(out)
	if !lengthWithin(out, minGreetingLen, maxGreetingLen) {
		slog.Debug("Client.GenerateGreeting: invalid length", "chars", utf8.RuneCountInString(out))
		return "", false
	}
	return out, true
}

// GenerateIntakeConfirmation acknowledges a registration answer and asks
// for the next one.
func (c *Client) GenerateIntakeConfirmation(ctx context.Context, step models.StepType, value string, collected []Field, nextPrompt string) (string, bool) {
	out, ok := c.call(ctx, "intake_confirmation", []Turn{UserText(intakePrompt(step, value, collected, nextPrompt))})
	if !ok {
		return "", false
	}
	out = strings.TrimSpace(out)
	if !lengthWithin(out, minConfirmationLen, maxConfirmationLen) {
		return "", false
	}
	slog.Debug("Client.GenerateIntakeConfirmation: confirmation generated", "step", step, "chars", utf8.RuneCountInString(out))
	return out, true
}
