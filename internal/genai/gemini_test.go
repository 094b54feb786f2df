package genai

import (
	"context"
	"errors"
	"testing"

	googlegenai "google.golang.org/genai"
)

type fakeModels struct {
	model    string
	contents []*googlegenai.Content
	config   *googlegenai.GenerateContentConfig
	resp     *googlegenai.GenerateContentResponse
	err      error
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*googlegenai.Content, config *googlegenai.GenerateContentConfig) (*googlegenai.GenerateContentResponse, error) {
	f.model = model
	f.contents = contents
	f.config = config
	return f.resp, f.err
}

func textResponse(text string) *googlegenai.GenerateContentResponse {
	return &googlegenai.GenerateContentResponse{
		Candidates: []*googlegenai.Candidate{{
			Content: &googlegenai.Content{
				Role:  "model",
				Parts: []*googlegenai.Part{{Text: text}},
			},
		}},
	}
}

func TestGeminiBackendGenerateText(t *testing.T) {
	fm := &fakeModels{resp: textResponse("Con mucho gusto.")}
	b := newGeminiBackend(fm)
	turns := []Turn{
		UserText("Instrucciones"),
		ModelText("Entendido"),
		{Role: RoleUser, Parts: []Part{{Text: "analiza"}, {Data: []byte{0xff}, MimeType: "image/png"}}},
	}
	out, err := b.GenerateText(context.Background(), turns, DefaultModel)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "Con mucho gusto." {
		t.Errorf("out = %q", out)
	}
	if fm.model != DefaultModel {
		t.Errorf("model = %q", fm.model)
	}
	if len(fm.contents) != 3 || fm.contents[1].Role != "model" || fm.contents[0].Role != "user" {
		t.Fatalf("unexpected contents %+v", fm.contents)
	}
	media := fm.contents[2].Parts[1]
	if media.InlineData == nil || media.InlineData.MIMEType != "image/png" {
		t.Errorf("inline data not mapped: %+v", media)
	}
	if fm.config.MaxOutputTokens != geminiMaxOutputTokens || *fm.config.Temperature != geminiTemperature || *fm.config.TopP != geminiTopP {
		t.Errorf("unexpected config %+v", fm.config)
	}
}

func TestGeminiBackendNoCandidates(t *testing.T) {
	b := newGeminiBackend(&fakeModels{resp: &googlegenai.GenerateContentResponse{}})
	if _, err := b.GenerateText(context.Background(), []Turn{UserText("hola")}, DefaultModel); !errors.Is(err, ErrNoChoicesReturned) {
		t.Errorf("expected ErrNoChoicesReturned, got %v", err)
	}
}

func TestGeminiBackendErrorCarriesStatus(t *testing.T) {
	b := newGeminiBackend(&fakeModels{err: googlegenai.APIError{Code: 429, Message: "Resource has been exhausted", Status: "RESOURCE_EXHAUSTED"}})
	_, err := b.GenerateText(context.Background(), []Turn{UserText("hola")}, DefaultModel)
	var be *BackendError
	if !errors.As(err, &be) || be.Status != 429 {
		t.Fatalf("expected BackendError 429, got %v", err)
	}
	if !IsQuota(err) || !IsRetriable(err) {
		t.Error("429 must classify as quota and retriable")
	}

	b = newGeminiBackend(&fakeModels{err: errors.New("Error fetching from https://generativelanguage.googleapis.com")})
	_, err = b.GenerateText(context.Background(), []Turn{UserText("hola")}, DefaultModel)
	if !IsRetriable(err) {
		t.Errorf("transport failure should be retriable: %v", err)
	}
}

func TestNewGeminiBackendRequiresKey(t *testing.T) {
	if _, err := NewGeminiBackend(context.Background(), ""); err == nil {
		t.Error("expected error without API key")
	}
}
