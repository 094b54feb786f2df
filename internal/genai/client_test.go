package genai

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/models"
)

type backendResult struct {
	out string
	err error
}

// mockBackend returns scripted results in order, repeating the last one.
type mockBackend struct {
	mu      sync.Mutex
	results []backendResult
	models  []string
	turns   [][]Turn
}

func (m *mockBackend) GenerateText(_ context.Context, turns []Turn, model string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.models = append(m.models, model)
	m.turns = append(m.turns, turns)
	if len(m.results) == 0 {
		return "", errors.New("no scripted result")
	}
	r := m.results[0]
	if len(m.results) > 1 {
		m.results = m.results[1:]
	}
	return r.out, r.err
}

func (m *mockBackend) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.models)
}

func newTestClient(b Backend, clock *fakeClock) *Client {
	return NewClient(b,
		WithModel("primary"),
		WithFallbackModel("fallback"),
		WithRateWindow(NewRateWindow(15, time.Minute, clock.Now)),
	)
}

const longAnswer = "El divorcio por mutuo consentimiento se rige por la Ley 1306-bis."

func TestNilClientIsDisabled(t *testing.T) {
	var c *Client
	if c.Enabled() {
		t.Fatal("nil client must be disabled")
	}
	if _, ok := c.Generate(context.Background(), "hola", "", nil); ok {
		t.Error("nil client must not generate")
	}
	if _, ok := c.ClassifyIntent(context.Background(), "hola"); ok {
		t.Error("nil client must not classify")
	}
	if st := c.RateLimitStatus(); st.Limit != 0 {
		t.Errorf("unexpected status %+v", st)
	}
}

func TestGenerateUsesPrimaryModel(t *testing.T) {
	b := &mockBackend{results: []backendResult{{out: longAnswer}}}
	c := newTestClient(b, newFakeClock())
	out, ok := c.Generate(context.Background(), "¿Cómo me divorcio?", "", nil)
	if !ok || out != longAnswer {
		t.Fatalf("Generate = (%q, %v)", out, ok)
	}
	if len(b.models) != 1 || b.models[0] != "primary" {
		t.Errorf("models called = %v", b.models)
	}
}

func TestGenerateFallsBackOnRetriableError(t *testing.T) {
	b := &mockBackend{results: []backendResult{
		{err: &BackendError{Status: 503, Message: "UNAVAILABLE"}},
		{out: longAnswer},
	}}
	clock := newFakeClock()
	c := newTestClient(b, clock)
	out, ok := c.Generate(context.Background(), "pregunta", "", nil)
	if !ok || out != longAnswer {
		t.Fatalf("Generate = (%q, %v)", out, ok)
	}
	if strings.Join(b.models, ",") != "primary,fallback" {
		t.Errorf("models called = %v", b.models)
	}
	// The retry belongs to the same admitted call.
	if used := c.RateLimitStatus().Used; used != 1 {
		t.Errorf("Used = %d, want 1", used)
	}
	if c.window.InBackoff() {
		t.Error("a non-quota failure must not start a backoff")
	}
}

func TestGenerateNonRetriableErrorSkipsFallback(t *testing.T) {
	b := &mockBackend{results: []backendResult{{err: &BackendError{Status: 400, Message: "invalid argument"}}}}
	c := newTestClient(b, newFakeClock())
	if _, ok := c.Generate(context.Background(), "pregunta", "", nil); ok {
		t.Fatal("expected failure")
	}
	if b.calls() != 1 {
		t.Errorf("backend calls = %d, want 1", b.calls())
	}
}

func TestQuotaFailuresActivateBackoff(t *testing.T) {
	quota := &BackendError{Status: 429, Message: "RESOURCE_EXHAUSTED: quota exceeded"}
	b := &mockBackend{results: []backendResult{{err: quota}, {err: quota}, {out: longAnswer}}}
	clock := newFakeClock()
	c := newTestClient(b, clock)

	if _, ok := c.Generate(context.Background(), "uno", "", nil); ok {
		t.Fatal("first call should fail")
	}
	if b.calls() != 2 {
		t.Fatalf("primary and fallback should both be tried, got %d calls", b.calls())
	}

	clock.Advance(10 * time.Second)
	if _, ok := c.Generate(context.Background(), "dos", "", nil); ok {
		t.Fatal("call during backoff should fail")
	}
	if b.calls() != 2 {
		t.Errorf("backend invoked during backoff: %d calls", b.calls())
	}

	clock.Advance(DefaultQuotaBackoff)
	if out, ok := c.Generate(context.Background(), "tres", "", nil); !ok || out != longAnswer {
		t.Errorf("call after backoff = (%q, %v)", out, ok)
	}
}

func TestQuotaBackoffHonoursRetryHint(t *testing.T) {
	b := &mockBackend{results: []backendResult{{err: errors.New("quota exceeded, retry in 90s")}}}
	clock := newFakeClock()
	c := NewClient(b, WithModel("primary"), WithFallbackModel(""), WithRateWindow(NewRateWindow(15, time.Minute, clock.Now)))
	c.Generate(context.Background(), "uno", "", nil)
	clock.Advance(80 * time.Second)
	if !c.window.InBackoff() {
		t.Fatal("backoff should last 90s")
	}
	clock.Advance(11 * time.Second)
	if c.window.InBackoff() {
		t.Fatal("backoff should be over")
	}
}

func TestRateLimitedCallNeverReachesBackend(t *testing.T) {
	b := &mockBackend{results: []backendResult{{out: longAnswer}}}
	clock := newFakeClock()
	c := NewClient(b, WithRateWindow(NewRateWindow(2, time.Minute, clock.Now)))
	for i := 0; i < 2; i++ {
		if _, ok := c.Generate(context.Background(), "pregunta", "", nil); !ok {
			t.Fatalf("call %d should succeed", i+1)
		}
	}
	if _, ok := c.Generate(context.Background(), "pregunta", "", nil); ok {
		t.Fatal("third call exceeds the window")
	}
	if b.calls() != 2 {
		t.Errorf("backend calls = %d, want 2", b.calls())
	}
}

func TestPostProcess(t *testing.T) {
	if out, ok := PostProcess("(pensando) analizando la ley... La respuesta es clara."); !ok || out != "La respuesta es clara." {
		t.Errorf("thinking prefix not stripped: (%q, %v)", out, ok)
	}
	if _, ok := PostProcess("  ok "); ok {
		t.Error("short output should fail")
	}
	long := strings.Repeat("á", 1200)
	out, ok := PostProcess(long)
	if !ok || !strings.HasSuffix(out, truncatedSuffix) {
		t.Fatalf("long output not truncated: %v", ok)
	}
	if got := len([]rune(strings.TrimSuffix(out, truncatedSuffix))); got != maxResponseLen {
		t.Errorf("kept %d runes, want %d", got, maxResponseLen)
	}
}

func TestLegalTurnsAlternateRoles(t *testing.T) {
	history := []models.MessageLogEntry{
		{Direction: models.DirectionInbound, Content: "hola"},
		{Direction: models.DirectionInbound, Content: "tengo una duda"},
		{Direction: models.DirectionOutbound, Content: "dígame"},
		{Direction: models.DirectionInbound, Content: "sobre herencias"},
	}
	turns := legalTurns("SYS", "¿qué necesito?", "kb", history)
	for i := 1; i < len(turns); i++ {
		if turns[i].Role == turns[i-1].Role {
			t.Fatalf("turns %d and %d share role %s", i-1, i, turns[i].Role)
		}
	}
	if turns[0].Parts[0].Text != "Instrucciones del sistema:\nSYS" {
		t.Errorf("unexpected system turn %q", turns[0].Parts[0].Text)
	}
	if turns[2].Parts[0].Text != "hola\ntengo una duda" {
		t.Errorf("consecutive inbound messages not merged: %q", turns[2].Parts[0].Text)
	}
	pad := turns[len(turns)-2]
	if pad.Role != RoleModel || pad.Parts[0].Text != "..." {
		t.Errorf("expected padding model turn, got %+v", pad)
	}
	last := turns[len(turns)-1]
	want := "Contexto de nuestra base de conocimientos:\nkb\n\nPregunta del usuario: ¿qué necesito?"
	if last.Role != RoleUser || last.Parts[0].Text != want {
		t.Errorf("unexpected final turn %+v", last)
	}
}

func TestLegalTurnsWithoutContext(t *testing.T) {
	turns := legalTurns("SYS", "pregunta", "", nil)
	if len(turns) != 3 {
		t.Fatalf("len(turns) = %d, want 3", len(turns))
	}
	if turns[2].Parts[0].Text != "pregunta" {
		t.Errorf("query should be sent verbatim, got %q", turns[2].Parts[0].Text)
	}
}

func TestClassifyIntent(t *testing.T) {
	b := &mockBackend{results: []backendResult{{out: "  Legal_Info\n"}}}
	c := newTestClient(b, newFakeClock())
	got, ok := c.ClassifyIntent(context.Background(), "necesito divorciarme")
	if !ok || got != models.IntentLegalInfo {
		t.Fatalf("ClassifyIntent = (%q, %v)", got, ok)
	}
	if !strings.HasSuffix(b.turns[0][0].Parts[0].Text, "Mensaje del usuario: necesito divorciarme") {
		t.Error("prompt should end with the user message")
	}

	b2 := &mockBackend{results: []backendResult{{out: "la intención es saludo"}}}
	c2 := newTestClient(b2, newFakeClock())
	if _, ok := c2.ClassifyIntent(context.Background(), "hola"); ok {
		t.Error("labels outside the closed set must be rejected")
	}
}

func TestGenerateGreetingLengthBounds(t *testing.T) {
	tests := []struct {
		out  string
		want bool
	}{
		{"🦉 ¡Bienvenido a Gurú Soluciones! ¿En qué le puedo ayudar?", true},
		{"Hola", false},
		{strings.Repeat("a", 301), false},
	}
	for _, tt := range tests {
		b := &mockBackend{results: []backendResult{{out: tt.out}}}
		c := newTestClient(b, newFakeClock())
		if _, ok := c.GenerateGreeting(context.Background(), "", false); ok != tt.want {
			t.Errorf("GenerateGreeting(%q) ok = %v, want %v", tt.out, ok, tt.want)
		}
	}
}

func TestGreetingPromptUsesName(t *testing.T) {
	if p := greetingPrompt("María", true); !strings.Contains(p, "para María que regresa") {
		t.Errorf("returning prompt should name the contact: %q", p)
	}
	if p := greetingPrompt("", true); p != newGreetingPrompt {
		t.Error("returning contact without a name gets the new-contact prompt")
	}
}

func TestIntakePrompt(t *testing.T) {
	p := intakePrompt(models.StepAskName, "Juan", nil, "¿Correo?")
	if !strings.Contains(p, "Nombre incompleto") || !strings.Contains(p, "Pregunta por nombre completo") {
		t.Errorf("single-word name should ask for the full name:\n%s", p)
	}
	p = intakePrompt(models.StepAskEmail, "juan@example.com", []Field{{"nombre", "Juan Pérez"}, {"correo", ""}}, "¿Domicilio?")
	if !strings.Contains(p, "Datos:   nombre: Juan Pérez") {
		t.Errorf("collected data missing:\n%s", p)
	}
	if strings.Contains(p, "correo:") {
		t.Error("empty fields must be omitted")
	}
	if !strings.Contains(p, "Pide el siguiente dato: domicilio") {
		t.Errorf("next field missing:\n%s", p)
	}
}

func TestGenerateIntakeConfirmationBounds(t *testing.T) {
	b := &mockBackend{results: []backendResult{{out: strings.Repeat("x", 801)}}}
	c := newTestClient(b, newFakeClock())
	if _, ok := c.GenerateIntakeConfirmation(context.Background(), models.StepAskEmail, "a@b.co", nil, "next"); ok {
		t.Error("overlong confirmation must be rejected")
	}
}

func TestAnalyzeMedia(t *testing.T) {
	b := &mockBackend{results: []backendResult{{out: "Quiero saber el estado de mi caso"}}}
	c := newTestClient(b, newFakeClock())
	out, ok := c.AnalyzeMedia(context.Background(), &models.Attachment{
		Kind:     models.AttachmentAudio,
		MimeType: "audio/ogg; codecs=opus",
		Data:     []byte{1, 2, 3},
	})
	if !ok || out != "Quiero saber el estado de mi caso" {
		t.Fatalf("AnalyzeMedia(audio) = (%q, %v)", out, ok)
	}
	part := b.turns[0][0].Parts[1]
	if part.MimeType != "audio/ogg" || !part.IsData() {
		t.Errorf("unexpected media part %+v", part)
	}

	b2 := &mockBackend{results: []backendResult{{out: strings.Repeat("d", 2500)}}}
	c2 := newTestClient(b2, newFakeClock())
	out, ok = c2.AnalyzeMedia(context.Background(), &models.Attachment{
		Kind:     models.AttachmentDocument,
		MimeType: "application/octet-stream",
		FileName: "contrato.PDF",
		Data:     []byte("%PDF"),
	})
	if !ok || !strings.HasSuffix(out, analysisSuffix) {
		t.Fatalf("long analysis should be capped: %v", ok)
	}
	if got := b2.turns[0][0].Parts[1].MimeType; got != "application/pdf" {
		t.Errorf("mime = %q, want application/pdf", got)
	}

	if _, ok := c2.AnalyzeMedia(context.Background(), &models.Attachment{Kind: models.AttachmentVideo, Data: []byte{1}}); ok {
		t.Error("video is not analysed")
	}
	if _, ok := c2.AnalyzeMedia(context.Background(), &models.Attachment{Kind: models.AttachmentImage}); ok {
		t.Error("empty attachment is not analysed")
	}
}

func TestCleanMimeType(t *testing.T) {
	tests := []struct {
		mime, name, want string
	}{
		{"image/jpeg", "x.bin", "image/jpeg"},
		{"audio/ogg; codecs=opus", "", "audio/ogg"},
		{"application/octet-stream", "scan.jpeg", "image/jpeg"},
		{"application/octet-stream", "foto.png", "image/png"},
		{"application/octet-stream", "file.docx", "application/octet-stream"},
	}
	for _, tt := range tests {
		if got := CleanMimeType(tt.mime, tt.name); got != tt.want {
			t.Errorf("CleanMimeType(%q, %q) = %q, want %q", tt.mime, tt.name, got, tt.want)
		}
	}
}

func TestSystemPromptIncludesKnowledge(t *testing.T) {
	c := NewClient(&mockBackend{})
	if !strings.HasPrefix(c.SystemPrompt(), "Eres *El Gurú*") {
		t.Error("system prompt should open with the persona")
	}
	if strings.Contains(c.SystemPrompt(), "TEMAS LEGALES QUE CONOCES EN DETALLE") {
		t.Error("no corpus was configured")
	}
}
