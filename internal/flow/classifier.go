package flow

import (
	"context"
	"log/slog"

	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/genai"
	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/models"
	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/nlp"
)

// Classifier resolves free text to an intent. The model is asked first and
// the ordered pattern table answers when the model cannot. Numeric menu
// answers never reach it.
type Classifier struct {
	gen *genai.Client
}

// NewClassifier creates a classifier. A nil client leaves only the patterns.
func NewClassifier(gen *genai.Client) *Classifier {
	return &Classifier{gen: gen}
}

// Classify never fails; IntentUnknown is returned when nothing matches.
func (c *Classifier) Classify(ctx context.Context, text string) models.Intent {
	if c.gen.Enabled() {
		if intent, ok := c.gen.ClassifyIntent(ctx, text); ok {
			slog.Debug("Classifier.Classify: model intent", "intent", intent)
			return intent
		}
	}
	intent := nlp.MatchIntent(text)
	slog.Debug("Classifier.Classify: pattern intent", "intent", intent)
	return intent
}

// Global reports the global command named by text, consulting only the
// pattern table.
func (c *Classifier) Global(text string) (models.Intent, bool) {
	intent := nlp.MatchIntent(text)
	return intent, nlp.IsGlobalCommand(intent)
}
