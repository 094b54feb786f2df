package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/handoff"
	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/messaging"
	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/models"
	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/store"
	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/testutil"
	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/twiliowhatsapp"
	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/whatsapp"
)

const testToken = "test-token"

type testServer struct {
	server *Server
	client *whatsapp.MockClient
	store  *store.InMemoryStore
	gate   *handoff.Controller
}

func newTestServer(t *testing.T, opts ...Option) *testServer {
	t.Helper()
	st := store.NewInMemoryStore()
	client := whatsapp.NewMockClient()
	gate := handoff.NewController(st)
	return &testServer{
		server: NewServer(messaging.NewWhatsAppService(client), st, gate, append([]Option{WithAdminToken(testToken)}, opts...)...),
		client: client,
		store:  st,
		gate:   gate,
	}
}

func (ts *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := testutil.CreateJSONRequest(t, method, path, body)
	req.Header.Set("Authorization", "Bearer "+testToken)
	rr := httptest.NewRecorder()
	ts.server.Handler().ServeHTTP(rr, req)
	return rr
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	rr := ts.do(t, http.MethodGet, "/health", "")
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "health")
	testutil.AssertJSONStatus(t, rr, "ok")
}

func TestAdminRoutesRequireToken(t *testing.T) {
	ts := newTestServer(t)
	handler := ts.server.Handler()

	for name, header := range map[string]string{
		"missing":    "",
		"wrong":      "Bearer nope",
		"not bearer": "Basic " + testToken,
	} {
		req := testutil.CreateJSONRequest(t, http.MethodPost, "/bot/active", `{"active":false}`)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		testutil.AssertHTTPStatus(t, http.StatusUnauthorized, rr.Code, name+" token")
		testutil.AssertJSONStatus(t, rr, "error")
	}
	if !ts.gate.ShouldRespond("18095550100") {
		t.Error("unauthorized request changed the bot state")
	}

	rr := ts.do(t, http.MethodPost, "/bot/active", `{"active":false}`)
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "valid token")

	req := testutil.CreateJSONRequest(t, http.MethodGet, "/health", "")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "health without token")
}

func TestAdminRoutesClosedWithoutConfiguredToken(t *testing.T) {
	st := store.NewInMemoryStore()
	server := NewServer(messaging.NewWhatsAppService(whatsapp.NewMockClient()), st, handoff.NewController(st))

	for _, header := range []string{"", "Bearer "} {
		req := testutil.CreateJSONRequest(t, http.MethodGet, "/bot/settings", "")
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rr := httptest.NewRecorder()
		server.Handler().ServeHTTP(rr, req)
		testutil.AssertHTTPStatus(t, http.StatusUnauthorized, rr.Code, "unconfigured token")
	}
}

func TestSettingsReflectDefaults(t *testing.T) {
	ts := newTestServer(t)
	rr := ts.do(t, http.MethodGet, "/bot/settings", "")
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "settings")
	if !strings.Contains(rr.Body.String(), `"botActive":true`) || !strings.Contains(rr.Body.String(), `"botMode":"all"`) {
		t.Errorf("unexpected settings body %s", rr.Body.String())
	}
}

func TestBotActiveToggle(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(t, http.MethodPost, "/bot/active", `{"active":false}`)
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "pause bot")
	testutil.AssertJSONStatus(t, rr, "ok")
	if ts.gate.ShouldRespond("18095550100") {
		t.Error("expected bot paused")
	}

	rr = ts.do(t, http.MethodPost, "/bot/active", `{}`)
	testutil.AssertHTTPStatus(t, http.StatusBadRequest, rr.Code, "missing active")
	testutil.AssertJSONStatus(t, rr, "error")

	rr = ts.do(t, http.MethodPost, "/bot/active", `not json`)
	testutil.AssertHTTPStatus(t, http.StatusBadRequest, rr.Code, "bad json")
}

func TestBotModeValidation(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(t, http.MethodPost, "/bot/mode", `{"mode":"selected"}`)
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "selected mode")
	if ts.gate.ShouldRespond("18095550100") {
		t.Error("selected mode should silence unlisted contacts")
	}

	rr = ts.do(t, http.MethodPost, "/bot/mode", `{"mode":"some"}`)
	testutil.AssertHTTPStatus(t, http.StatusBadRequest, rr.Code, "invalid mode")
	testutil.AssertJSONStatus(t, rr, "error")
}

func TestContactToggles(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodPost, "/bot/mode", `{"mode":"selected"}`)

	rr := ts.do(t, http.MethodPost, "/bot/contacts/+18095550100/enable", "")
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "enable contact")
	if !ts.gate.ShouldRespond("18095550100") {
		t.Error("expected enabled contact to be answered")
	}

	rr = ts.do(t, http.MethodPost, "/bot/contacts/18095550100/manual", `{"manual":true}`)
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "manual contact")
	if ts.gate.Reason("18095550100") != handoff.ReasonManual {
		t.Errorf("expected manual handling, got %q", ts.gate.Reason("18095550100"))
	}

	rr = ts.do(t, http.MethodPost, "/bot/contacts/18095550100/disable", "")
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "disable contact")

	rr = ts.do(t, http.MethodPost, "/bot/contacts/12/enable", "")
	testutil.AssertHTTPStatus(t, http.StatusBadRequest, rr.Code, "short phone")
}

func TestSettingsPersisted(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodPost, "/bot/contacts/18095550100/manual", `{"manual":true}`)

	reloaded := handoff.NewController(ts.store)
	if err := reloaded.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if reloaded.ShouldRespond("18095550100") {
		t.Error("expected manual flag to survive a reload")
	}
}

func TestSendMessage(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(t, http.MethodPost, "/messages/send", `{"to":"+1 809 555 0100","body":"Su cita fue confirmada."}`)
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "send")
	testutil.AssertJSONStatus(t, rr, "ok")
	if len(ts.client.Texts) != 1 || ts.client.Texts[0].To != "18095550100" {
		t.Errorf("unexpected sends %+v", ts.client.Texts)
	}
	msgs := ts.store.Messages()
	if len(msgs) != 1 || msgs[0].Direction != models.DirectionOutbound || msgs[0].Status != models.MessageStatusSent {
		t.Errorf("expected outbound log, got %+v", msgs)
	}

	rr = ts.do(t, http.MethodPost, "/messages/send", `{"to":"","body":"hola"}`)
	testutil.AssertHTTPStatus(t, http.StatusBadRequest, rr.Code, "missing recipient")
	rr = ts.do(t, http.MethodPost, "/messages/send", `{"to":"18095550100","body":""}`)
	testutil.AssertHTTPStatus(t, http.StatusBadRequest, rr.Code, "missing body")
}

func TestSendMessageFailureIsLogged(t *testing.T) {
	ts := newTestServer(t)
	ts.client.Failures = 1

	rr := ts.do(t, http.MethodPost, "/messages/send", `{"to":"18095550100","body":"hola"}`)
	testutil.AssertHTTPStatus(t, http.StatusInternalServerError, rr.Code, "send failure")
	if msgs := ts.store.Messages(); len(msgs) != 1 || msgs[0].Status != models.MessageStatusFailed {
		t.Errorf("expected failed log, got %+v", msgs)
	}
}

func TestRecentMessages(t *testing.T) {
	ts := newTestServer(t)
	testutil.SeedConversation(t, ts.store, "18095550100", "hola", "Bienvenido", "Juan Pérez")

	rr := ts.do(t, http.MethodGet, "/messages/18095550100?limit=2", "")
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "recent messages")
	var resp struct {
		Result []models.MessageLogEntry `json:"result"`
	}
	testutil.MustUnmarshalJSON(t, rr.Body.Bytes(), &resp)
	if len(resp.Result) != 2 || resp.Result[1].Content != "Juan Pérez" {
		t.Errorf("expected the two latest messages in order, got %+v", resp.Result)
	}

	rr = ts.do(t, http.MethodGet, "/messages/18095550100?limit=0", "")
	testutil.AssertHTTPStatus(t, http.StatusBadRequest, rr.Code, "invalid limit")
}

func TestMethodNotAllowed(t *testing.T) {
	ts := newTestServer(t)
	rr := ts.do(t, http.MethodGet, "/messages/send", "")
	if rr.Code == http.StatusOK {
		t.Errorf("expected GET /messages/send to be rejected, got %d", rr.Code)
	}
}

func TestTwilioWebhookMounted(t *testing.T) {
	svc := messaging.NewTwilioService(twiliowhatsapp.NewMockClient(), "")
	ts := newTestServer(t, WithTwilioWebhook(svc.WebhookHandler))

	req := httptest.NewRequest(http.MethodPost, "/twilio/webhook", strings.NewReader("From=whatsapp%3A%2B18095550100&Body=hola&MessageSid=SM1"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	ts.server.Handler().ServeHTTP(rr, req)

	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "twilio webhook")
	if env := <-svc.Inbound(); env.From != "18095550100" {
		t.Errorf("unexpected envelope %+v", env)
	}

	bare := newTestServer(t)
	if rr := bare.do(t, http.MethodPost, "/twilio/webhook", ""); rr.Code != http.StatusNotFound {
		t.Errorf("expected webhook unmounted, got %d", rr.Code)
	}
}
