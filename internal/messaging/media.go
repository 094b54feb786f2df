package messaging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/models"
	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/util"
)

// MaxSavedMediaSize is the largest attachment written to disk.
const MaxSavedMediaSize = 25 << 20

var mimeExtensions = map[string]string{
	"image/jpeg":         ".jpg",
	"image/png":          ".png",
	"image/webp":         ".webp",
	"image/gif":          ".gif",
	"application/pdf":    ".pdf",
	"application/msword": ".doc",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": ".docx",
	"application/vnd.ms-excel": ".xls",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": ".xlsx",
	"audio/ogg; codecs=opus": ".ogg",
	"audio/ogg":              ".ogg",
	"audio/mpeg":             ".mp3",
	"video/mp4":              ".mp4",
}

// extensionFor prefers the original file extension over the mime mapping.
func extensionFor(mimeType, fileName string) string {
	if ext := filepath.Ext(fileName); ext != "" {
		return ext
	}
	if ext, ok := mimeExtensions[mimeType]; ok {
		return ext
	}
	return ".bin"
}

// saveAttachment writes att under dir/<phone>/ and returns the media record
// to persist. Oversized attachments are skipped.
func saveAttachment(dir, phone, waID string, att *models.Attachment, now time.Time) (*models.ClientMedia, error) {
	if len(att.Data) == 0 {
		return nil, fmt.Errorf("attachment has no data")
	}
	if len(att.Data) > MaxSavedMediaSize {
		return nil, fmt.Errorf("attachment of %d bytes exceeds %d", len(att.Data), MaxSavedMediaSize)
	}
	mimeType := att.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	if waID == "" {
		waID = util.GenerateRandomID("unknown_", 8)
	}
	savedName := fmt.Sprintf("%d_%s%s", now.UnixMilli(), filepath.Base(waID), extensionFor(mimeType, att.FileName))

	phoneDir := filepath.Join(dir, phone)
	if err := os.MkdirAll(phoneDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create media directory: %w", err)
	}
	path := filepath.Join(phoneDir, savedName)
	if err := os.WriteFile(path, att.Data, 0o640); err != nil {
		return nil, fmt.Errorf("failed to write media file: %w", err)
	}
	slog.Info("messaging.saveAttachment: saved", "phone", phone, "kind", att.Kind, "name", savedName, "bytes", len(att.Data))

	originalName := att.FileName
	if originalName == "" {
		originalName = savedName
	}
	return &models.ClientMedia{
		Phone:        phone,
		WAMessageID:  waID,
		MediaType:    att.Kind,
		MimeType:     mimeType,
		OriginalName: originalName,
		SavedName:    savedName,
		FilePath:     path,
		FileSize:     int64(len(att.Data)),
		Context:      models.MediaContextConversation,
	}, nil
}
