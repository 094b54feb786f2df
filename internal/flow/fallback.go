package flow

import (
	"context"
	"log/slog"
	"strings"

	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/knowledge"
	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/models"
)

// historyWindow is how many recent messages ground a model answer.
const historyWindow = 8

// mediaContext describes an analysed attachment for the model.
func mediaContext(media *models.MediaResult) string {
	if media == nil || media.Analysis == "" {
		return ""
	}
	label := "un documento"
	if media.Kind == models.AttachmentImage {
		label = "una imagen"
	}
	return "\n\n[El cliente envió " + label + ". Análisis del archivo:\n" + media.Analysis + "]"
}

// SmartFallback answers input no flow claimed. The model answer grounded on
// the best corpus match comes first, then the raw corpus snippet, then the
// menu. It always produces a reply.
func (r *Router) SmartFallback(ctx context.Context, in *Input) models.Reply {
	text := strings.TrimSpace(in.Text)
	kbContext := knowledge.FormatResults(r.kb.Search(text), 1)

	if r.gen.Enabled() {
		history, err := r.records.FindRecentMessages(ctx, in.Session.Phone, historyWindow)
		if err != nil {
			slog.Warn("Router.SmartFallback: failed to load history", "phone", in.Session.Phone, "error", err)
			history = nil
		}
		query := text
		if query == "" && in.Media != nil && in.Media.Analysis != "" {
			query = "El cliente envió un archivo."
		}
		if out, ok := r.gen.GenerateLegalResponse(ctx, query, kbContext, mediaContext(in.Media), history); ok {
			slog.Info("Router.SmartFallback: model answered", "phone", in.Session.Phone)
			return models.TextReply(out)
		}
	}

	if kbContext != "" {
		slog.Debug("Router.SmartFallback: answering from corpus", "phone", in.Session.Phone)
		return models.TextReply(kbContext)
	}
	return withMenu(msgInvalidOption)
}

// answer asks the model for a plain legal answer without history.
func (r *Router) answer(ctx context.Context, text, kbContext string) (string, bool) {
	if !r.gen.Enabled() {
		return "", false
	}
	return r.gen.GenerateLegalResponse(ctx, text, kbContext, "", nil)
}
