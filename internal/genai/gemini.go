package genai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	googlegenai "google.golang.org/genai"
)

// Generation parameters shared by both Gemini models.
const (
	geminiTemperature     = 0.3
	geminiTopP            = 0.8
	geminiMaxOutputTokens = 8192
)

// contentGenerator is the subset of the Gemini models service used here.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*googlegenai.Content, config *googlegenai.GenerateContentConfig) (*googlegenai.GenerateContentResponse, error)
}

// GeminiBackend calls the Gemini API.
type GeminiBackend struct {
	models contentGenerator
	config *googlegenai.GenerateContentConfig
}

// Compile-time check that GeminiBackend implements Backend.
var _ Backend = (*GeminiBackend)(nil)

// NewGeminiBackend creates a Gemini API client for apiKey.
func NewGeminiBackend(ctx context.Context, apiKey string) (*GeminiBackend, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not set")
	}
	client, err := googlegenai.NewClient(ctx, &googlegenai.ClientConfig{
		APIKey:  apiKey,
		Backend: googlegenai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	slog.Debug("GeminiBackend.NewGeminiBackend: client created")
	return newGeminiBackend(client.Models), nil
}

func newGeminiBackend(models contentGenerator) *GeminiBackend {
	return &GeminiBackend{
		models: models,
		config: &googlegenai.GenerateContentConfig{
			Temperature:     googlegenai.Ptr[float32](geminiTemperature),
			TopP:            googlegenai.Ptr[float32](geminiTopP),
			MaxOutputTokens: geminiMaxOutputTokens,
		},
	}
}

// GenerateText sends the turns to model and returns the reply text.
func (g *GeminiBackend) GenerateText(ctx context.Context, turns []Turn, model string) (string, error) {
	contents := make([]*googlegenai.Content, 0, len(turns))
	for _, t := range turns {
		parts := make([]*googlegenai.Part, 0, len(t.Parts))
		for _, p := range t.Parts {
			if p.IsData() {
				parts = append(parts, googlegenai.NewPartFromBytes(p.Data, p.MimeType))
			} else {
				parts = append(parts, googlegenai.NewPartFromText(p.Text))
			}
		}
		role := googlegenai.RoleUser
		if t.Role == RoleModel {
			role = googlegenai.RoleModel
		}
		contents = append(contents, googlegenai.NewContentFromParts(parts, googlegenai.Role(role)))
	}

	resp, err := g.models.GenerateContent(ctx, model, contents, g.config)
	if err != nil {
		return "", geminiError(err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", ErrNoChoicesReturned
	}
	return resp.Text(), nil
}

// geminiError lifts the API status code into a BackendError so the
// classifier can read it.
func geminiError(err error) error {
	var apiErr googlegenai.APIError
	if errors.As(err, &apiErr) {
		return &BackendError{Status: apiErr.Code, Message: err.Error()}
	}
	var apiErrPtr *googlegenai.APIError
	if errors.As(err, &apiErrPtr) {
		return &BackendError{Status: apiErrPtr.Code, Message: err.Error()}
	}
	return &BackendError{Message: err.Error()}
}
