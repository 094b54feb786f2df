package genai

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/models"
)

// Media analysis limits.
const (
	MaxInlineMediaSize = 15 * 1024 * 1024
	maxAnalysisLen     = 2000
	analysisSuffix     = "\n\n_[Análisis resumido]_"
)

// CleanMimeType drops codec parameters and infers a concrete type for
// generic binary uploads from the file name.
func CleanMimeType(mimeType, fileName string) string {
	clean := strings.TrimSpace(strings.SplitN(mimeType, ";", 2)[0])
	if clean != "application/octet-stream" && clean != "" {
		return clean
	}
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return "application/pdf"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	}
	return clean
}

func mediaTurn(prompt string, data []byte, mimeType string) []Turn {
	return []Turn{{
		Role:  RoleUser,
		Parts: []Part{{Text: prompt}, {Data: data, MimeType: mimeType}},
	}}
}

// TranscribeAudio turns a voice note into text.
func (c *Client) TranscribeAudio(ctx context.Context, data []byte, mimeType string) (string, bool) {
	if len(data) == 0 || len(data) > MaxInlineMediaSize {
		slog.Debug("Client.TranscribeAudio: audio size out of range", "bytes", len(data))
		return "", false
	}
	out, ok := c.call(ctx, "transcribe_audio", mediaTurn(transcriptionPrompt, data, CleanMimeType(mimeType, "")))
	if !ok {
		return "", false
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", false
	}
	slog.Debug("Client.TranscribeAudio: audio transcribed", "chars", utf8.RuneCountInString(out))
	return out, true
}

// AnalyzeDocument describes an image or document for the conversation.
func (c *Client) AnalyzeDocument(ctx context.Context, data []byte, mimeType, fileName string) (string, bool) {
	if len(data) == 0 || len(data) > MaxInlineMediaSize {
		slog.Debug("Client.AnalyzeDocument: file size out of range", "bytes", len(data))
		return "", false
	}
	out, ok := c.call(ctx, "analyze_document", mediaTurn(documentPrompt, data, CleanMimeType(mimeType, fileName)))
	if !ok {
		return "", false
	}
	out = strings.TrimSpace(out)
	if utf8.RuneCountInString(out) < minResponseLen {
		return "", false
	}
	if utf8.RuneCountInString(out) > maxAnalysisLen {
		out = clip(out, maxAnalysisLen) + analysisSuffix
	}
	return out, true
}

// AnalyzeMedia dispatches an attachment: audio is transcribed, images and
// documents are described. Video is not analysed.
func (c *Client) AnalyzeMedia(ctx context.Context, att *models.Attachment) (string, bool) {
	if att == nil {
		return "", false
	}
	switch att.Kind {
	case models.AttachmentAudio:
		return c.TranscribeAudio(ctx, att.Data, att.MimeType)
	case models.AttachmentImage, models.AttachmentDocument:
		return c.AnalyzeDocument(ctx, att.Data, att.MimeType, att.FileName)
	default:
		return "", false
	}
}
