package models

import (
	"encoding/json"
	"testing"
)

func TestFlowDataMergeSameFlowOverwritesNonZero(t *testing.T) {
	d := FlowData{Kind: FlowIntake, Intake: &IntakeData{Name: "Ana Pérez", Email: "ana@example.com"}}

	got := d.Merge(FlowIntake, FlowData{Intake: &IntakeData{CaseType: "Derecho Civil"}})

	if got.Kind != FlowIntake {
		t.Fatalf("expected kind %q, got %q", FlowIntake, got.Kind)
	}
	in := got.IntakeOrEmpty()
	if in.Name != "Ana Pérez" || in.Email != "ana@example.com" || in.CaseType != "Derecho Civil" {
		t.Errorf("unexpected merge result: %+v", in)
	}
}

func TestFlowDataMergeFlowChangeDropsPreviousVariant(t *testing.T) {
	d := FlowData{Kind: FlowIntake, Intake: &IntakeData{Name: "Ana"}}

	got := d.Merge(FlowAppointment, FlowData{Appointment: &AppointmentData{Type: "Consulta inicial"}})

	if got.Intake != nil {
		t.Errorf("expected intake variant to be dropped, got %+v", got.Intake)
	}
	if got.AppointmentOrEmpty().Type != "Consulta inicial" {
		t.Errorf("expected appointment type to be set, got %+v", got.Appointment)
	}
}

func TestFlowDataMergeDoesNotAliasSlices(t *testing.T) {
	slots := []string{"09:00", "10:00"}
	got := FlowData{}.Merge(FlowAppointment, FlowData{Appointment: &AppointmentData{Slots: slots}})
	slots[0] = "changed"

	if got.AppointmentOrEmpty().Slots[0] != "09:00" {
		t.Error("merged slots should be copied")
	}
}

func TestFlowDataJSONRoundTripKeepsKind(t *testing.T) {
	d := FlowData{Kind: FlowCaseStatus, CaseStatus: &CaseStatusData{CaseNumbers: []string{"CASO-1"}}}
	raw, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var back FlowData
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if back.Kind != FlowCaseStatus || len(back.CaseStatusOrEmpty().CaseNumbers) != 1 {
		t.Errorf("unexpected round trip: %s", raw)
	}
}

func TestIsValidIntent(t *testing.T) {
	if !IsValidIntent(IntentRegister) {
		t.Error("register should be a valid intent")
	}
	if IsValidIntent("weather") {
		t.Error("weather should not be a valid intent")
	}
}

func TestSendMessageRequestValidate(t *testing.T) {
	if err := (&SendMessageRequest{Body: "hola"}).Validate(); err != ErrEmptyRecipient {
		t.Errorf("expected ErrEmptyRecipient, got %v", err)
	}
	if err := (&SendMessageRequest{To: "18095551234"}).Validate(); err != ErrEmptyBody {
		t.Errorf("expected ErrEmptyBody, got %v", err)
	}
	if err := (&SendMessageRequest{To: "18095551234", Body: "hola"}).Validate(); err != nil {
		t.Errorf("expected valid request, got %v", err)
	}
}

func TestReplyIsEmpty(t *testing.T) {
	if !TextReply("  ").IsEmpty() {
		t.Error("blank reply should be empty")
	}
	if ListReply("", &Choices{}).IsEmpty() {
		t.Error("reply with choices should not be empty")
	}
}

func TestCanonicalAddress(t *testing.T) {
	tests := map[string]string{
		"18095551234@s.whatsapp.net":    "18095551234",
		"18095551234:12@s.whatsapp.net": "18095551234",
		"201234567890@lid":              "201234567890",
		"whatsapp:+18095551234":         "18095551234",
		" +1 (809) 555-1234 ":           "18095551234",
		"":                              "",
	}
	for in, want := range tests {
		if got := CanonicalAddress(in); got != want {
			t.Errorf("CanonicalAddress(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestAPIEnvelopes(t *testing.T) {
	if r := Success([]int{1}); r.Status != APIStatusOK || r.Message != "" {
		t.Errorf("unexpected success envelope %+v", r)
	}
	if r := SuccessWithMessage("listo", nil); r.Status != APIStatusOK || r.Message != "listo" {
		t.Errorf("unexpected message envelope %+v", r)
	}
	if r := Error("fallo"); r.Status != APIStatusError || r.Result != nil {
		t.Errorf("unexpected error envelope %+v", r)
	}
}
