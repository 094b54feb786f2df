package flow

import (
	"context"
	"strings"
	"testing"

	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/knowledge"
	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/models"
)

func TestAppointmentBooking(t *testing.T) {
	h := newHarness(t, nil)
	contact := h.registerContact("María Gómez")
	ctx := context.Background()
	taken := &models.Appointment{ContactID: 99, Date: "2026-03-12", Time: "09:00", DurationMin: 45, Type: "Seguimiento de caso"}
	if err := h.store.CreateAppointment(ctx, taken); err != nil {
		t.Fatalf("CreateAppointment failed: %v", err)
	}

	h.send("hola")
	if reply := h.send("2"); reply.Text != msgAppointmentIntro || reply.Choices == nil {
		t.Fatalf("expected appointment intro list, got %q", reply.Text)
	}
	if reply := h.send("1"); reply.Text != msgAppointmentAskDate {
		t.Fatalf("expected date prompt, got %q", reply.Text)
	}
	if reply := h.send("14/03/2026"); reply.Text != msgAppointmentNoWeekend {
		t.Errorf("expected weekend rejection, got %q", reply.Text)
	}
	h.expectAt(models.FlowAppointment, models.StepAskDate)
	if reply := h.send("01/01/2020"); reply.Text != msgAppointmentInvalidDate {
		t.Errorf("expected past date rejection, got %q", reply.Text)
	}
	h.expectAt(models.FlowAppointment, models.StepAskDate)

	reply := h.send("12/03/2026")
	if !strings.Contains(reply.Text, "jueves, 12 de marzo de 2026") {
		t.Errorf("expected pretty date, got %q", reply.Text)
	}
	d := h.expectAt(models.FlowAppointment, models.StepAskTime).Data.AppointmentOrEmpty()
	if len(d.Slots) != len(officeHours)-1 || d.Slots[0] != "10:00" {
		t.Fatalf("expected booked 09:00 removed, got %v", d.Slots)
	}

	if reply := h.send("8"); reply.Text != "Por favor, seleccione un número del 1 al 7." {
		t.Errorf("expected out-of-range prompt, got %q", reply.Text)
	}
	h.send("1")
	d = h.expectAt(models.FlowAppointment, models.StepConfirm).Data.AppointmentOrEmpty()
	if d.Time != "10:00" || d.DurationMin != 60 {
		t.Errorf("expected 10:00 for 60 minutes, got %s for %d", d.Time, d.DurationMin)
	}

	reply = h.send("1")
	if !strings.HasPrefix(reply.Text, "✅ Su cita ha sido agendada exitosamente.") {
		t.Errorf("unexpected reply %q", reply.Text)
	}
	h.expectAt(models.FlowMainMenu, models.StepShow)

	booked := h.store.Appointments()
	if len(booked) != 2 {
		t.Fatalf("expected 2 appointments, got %d", len(booked))
	}
	a := booked[1]
	if a.ContactID != contact.ID || a.Date != "2026-03-12" || a.Time != "10:00" || a.Type != "Consulta inicial" {
		t.Errorf("unexpected appointment %+v", a)
	}
}

func TestAppointmentFullyBookedDay(t *testing.T) {
	h := newHarness(t, nil)
	h.registerContact("María Gómez")
	ctx := context.Background()
	for _, slot := range officeHours {
		if err := h.store.CreateAppointment(ctx, &models.Appointment{ContactID: 99, Date: "2026-03-13", Time: slot}); err != nil {
			t.Fatalf("CreateAppointment failed: %v", err)
		}
	}

	h.send("hola")
	h.send("2")
	h.send("2")
	if reply := h.send("13/03/2026"); reply.Text != msgAppointmentNoSlots {
		t.Errorf("expected no slots, got %q", reply.Text)
	}
	h.expectAt(models.FlowAppointment, models.StepAskDate)
}

func TestAppointmentConfirmCanPickAnotherDate(t *testing.T) {
	h := newHarness(t, nil)
	h.registerContact("María Gómez")
	h.send("hola")
	h.send("2")
	h.send("3")
	h.send("16/03/2026")
	h.send("2")

	if reply := h.send("2"); reply.Text != msgAppointmentAskDate {
		t.Errorf("expected date prompt, got %q", reply.Text)
	}
	d := h.expectAt(models.FlowAppointment, models.StepAskDate).Data.AppointmentOrEmpty()
	if d.DurationMin != 45 || d.Type != "Revisión de documentos" {
		t.Errorf("expected type kept, got %+v", d)
	}
	if len(h.store.Appointments()) != 0 {
		t.Error("nothing should be booked")
	}
}

func TestDocumentSubmission(t *testing.T) {
	h := newHarness(t, nil)
	contact := h.registerContact("María Gómez")
	ctx := context.Background()

	h.send("hola")
	h.send("3")
	h.expectAt(models.FlowDocument, models.StepAskType)
	h.send("3")
	if reply := h.send("Contrato de alquiler"); reply.Text != msgDocumentAskFile {
		t.Fatalf("expected file prompt, got %q", reply.Text)
	}
	if reply := h.send("no lo tengo aquí"); reply.Text != msgDocumentInvalidFile {
		t.Errorf("expected invalid file prompt, got %q", reply.Text)
	}

	media := &models.ClientMedia{Phone: testPhone, MediaType: models.AttachmentDocument, FilePath: "/data/media/contrato.pdf", SavedName: "contrato.pdf"}
	if err := h.store.CreateClientMedia(ctx, media); err != nil {
		t.Fatalf("CreateClientMedia failed: %v", err)
	}
	env := models.Envelope{
		ID:         "wamid-doc",
		From:       testPhone,
		Attachment: &models.Attachment{Kind: models.AttachmentDocument, MimeType: "application/pdf", FileName: "contrato.pdf"},
	}
	reply := h.deliver(env, &models.MediaResult{Media: media, Kind: models.AttachmentDocument})

	docs := h.store.DocumentRequests()
	if len(docs) != 1 {
		t.Fatalf("expected one document request, got %d", len(docs))
	}
	doc := docs[0]
	if !strings.Contains(reply.Text, documentReference(doc.ID)) {
		t.Errorf("expected reference %s in %q", documentReference(doc.ID), reply.Text)
	}
	if doc.ContactID == nil || *doc.ContactID != contact.ID {
		t.Errorf("expected document owned by contact %d", contact.ID)
	}
	if doc.DocType != "Contrato o acuerdo" || doc.Description != "Contrato de alquiler" ||
		doc.FilePath != "/data/media/contrato.pdf" || doc.WAMediaID != "wamid-doc" {
		t.Errorf("unexpected document %+v", doc)
	}
	if linked := h.store.Media()[0].DocRequestID; linked == nil || *linked != doc.ID {
		t.Errorf("expected media linked to document %d, got %v", doc.ID, linked)
	}

	s := h.expectAt(models.FlowDocument, models.StepPostUpload)
	if s.Data.DocumentOrEmpty().LastDocID != doc.ID {
		t.Errorf("expected last document %d, got %d", doc.ID, s.Data.DocumentOrEmpty().LastDocID)
	}
	h.send("1")
	h.expectAt(models.FlowDocument, models.StepAskType)
}

func TestDocumentWithoutFileNameGetsDefaults(t *testing.T) {
	h := newHarness(t, nil)
	h.registerContact("María Gómez")
	h.send("hola")
	h.send("3")
	h.send("1")
	h.send("Cédula por ambos lados")

	h.deliver(models.Envelope{ID: "wamid-img", From: testPhone, Attachment: &models.Attachment{Kind: models.AttachmentImage}}, nil)
	doc := h.store.DocumentRequests()[0]
	if !strings.HasPrefix(doc.FileName, "documento_") || doc.MimeType != "application/octet-stream" {
		t.Errorf("expected default name and type, got %q %q", doc.FileName, doc.MimeType)
	}
}

func TestDocumentCancel(t *testing.T) {
	h := newHarness(t, nil)
	h.registerContact("María Gómez")
	h.send("hola")
	h.send("3")
	h.send("2")
	h.send("Factura de luz")

	reply := h.send("cancelar")
	if !strings.HasPrefix(reply.Text, msgDocumentCancelled) {
		t.Errorf("expected cancellation, got %q", reply.Text)
	}
	h.expectAt(models.FlowMainMenu, models.StepShow)
}

func TestCaseStatusListsContactCases(t *testing.T) {
	h := newHarness(t, nil)
	contact := h.registerContact("María Gómez")
	c := &models.Case{CaseNumber: "CASO-ABC-001", Title: "Desalojo", Status: models.CaseStatusInProgress, ContactID: contact.ID}
	if err := h.store.CreateCase(context.Background(), c); err != nil {
		t.Fatalf("CreateCase failed: %v", err)
	}

	h.send("hola")
	reply := h.send("4")
	if !strings.Contains(reply.Text, "CASO-ABC-001") || !strings.Contains(reply.Text, "En trámite") {
		t.Errorf("expected case list, got %q", reply.Text)
	}
	h.expectAt(models.FlowCaseStatus, models.StepSelectCase)

	reply = h.send("1")
	if !strings.Contains(reply.Text, "📋 *Estado de su Expediente*") || !strings.Contains(reply.Text, "Pendiente de asignar") {
		t.Errorf("expected case detail, got %q", reply.Text)
	}
	h.expectAt(models.FlowCaseStatus, models.StepPostView)

	h.send("1")
	h.expectAt(models.FlowCaseStatus, models.StepSelectCase)
}

func TestCaseStatusByNumber(t *testing.T) {
	h := newHarness(t, nil)
	c := &models.Case{CaseNumber: "CASO-ABC-001", Title: "Desalojo", Status: models.CaseStatusOpen, ContactID: 99}
	if err := h.store.CreateCase(context.Background(), c); err != nil {
		t.Fatalf("CreateCase failed: %v", err)
	}

	h.send("hola")
	if reply := h.send("4"); reply.Text != msgStatusAskNumber {
		t.Fatalf("expected number prompt, got %q", reply.Text)
	}
	if reply := h.send("CASO-NOPE-000"); reply.Text != msgStatusNotFound {
		t.Errorf("expected not found, got %q", reply.Text)
	}
	h.expectAt(models.FlowCaseStatus, models.StepAskNumber)

	reply := h.send("caso-abc-001")
	if !strings.Contains(reply.Text, "CASO-ABC-001") {
		t.Errorf("expected case detail, got %q", reply.Text)
	}
	h.expectAt(models.FlowCaseStatus, models.StepPostView)
	h.send("2")
	h.expectAt(models.FlowMainMenu, models.StepShow)
}

func TestCaseStatusWithoutCases(t *testing.T) {
	h := newHarness(t, nil)
	h.registerContact("María Gómez")
	h.send("hola")

	if reply := h.send("4"); !strings.HasPrefix(reply.Text, msgStatusNoCases) {
		t.Errorf("expected no cases, got %q", reply.Text)
	}
	h.expectAt(models.FlowMainMenu, models.StepShow)
}

func TestLegalInfoTopicsAndSearch(t *testing.T) {
	h := newHarness(t, nil)
	kb := knowledge.MustLoad()
	h.send("hola")

	if reply := h.send("5"); reply.Text != kb.TopicMenu() {
		t.Fatalf("expected topic menu, got %q", reply.Text)
	}
	reply := h.send("1")
	if !strings.HasPrefix(reply.Text, knowledge.FormatTopic(kb.Topics()[0])) {
		t.Errorf("expected first topic, got %q", reply.Text)
	}
	h.expectAt(models.FlowLegalInfo, models.StepPostTopic)

	if reply := h.send("2"); reply.Text != msgSearchAgainPrompt {
		t.Errorf("expected search prompt, got %q", reply.Text)
	}
	if reply := h.send("divorcio"); !strings.Contains(reply.Text, "Base legal") {
		t.Errorf("expected search result, got %q", reply.Text)
	}
	h.send("1")
	h.send("10")
	h.expectAt(models.FlowLegalInfo, models.StepInstitutions)
	if reply := h.send("1"); !strings.HasPrefix(reply.Text, knowledge.FormatInstitution(kb.Institutions()[0])) {
		t.Errorf("expected first institution, got %q", reply.Text)
	}
	h.send("3")
	h.expectAt(models.FlowMainMenu, models.StepShow)
}

func TestLegalSearchWithoutResults(t *testing.T) {
	h := newHarness(t, nil)
	h.send("hola")
	h.send("5")
	h.send("11")
	h.expectAt(models.FlowLegalInfo, models.StepSearch)

	if reply := h.send("xyzzy plugh"); reply.Text != noSearchResults("xyzzy plugh") {
		t.Errorf("unexpected reply %q", reply.Text)
	}
}

func TestServicesCatalog(t *testing.T) {
	h := newHarness(t, nil)
	kb := knowledge.MustLoad()
	h.send("hola")

	if reply := h.send("6"); reply.Text != kb.FormatAllCategories() {
		t.Fatalf("expected price list, got %q", reply.Text)
	}
	reply := h.send("1")
	if !strings.HasPrefix(reply.Text, knowledge.FormatCategory(kb.MenuCategories()[0])) {
		t.Errorf("expected first category, got %q", reply.Text)
	}
	h.expectAt(models.FlowServices, models.StepPostCategory)
	h.send("1")
	h.expectAt(models.FlowServices, models.StepMenu)
	h.send("0")
	h.expectAt(models.FlowMainMenu, models.StepShow)
}

func TestTalkToLawyer(t *testing.T) {
	h := newHarness(t, nil)
	h.send("hola")
	if reply := h.send("7"); reply.Text != msgTalkToLawyer {
		t.Fatalf("expected lawyer notice, got %q", reply.Text)
	}

	if reply := h.send("es urgente por favor"); !strings.HasPrefix(reply.Text, msgTalkToLawyerUrgent) {
		t.Errorf("expected urgent notice, got %q", reply.Text)
	}
	h.expectAt(models.FlowMainMenu, models.StepShow)

	h.send("7")
	if reply := h.send("tengo una pregunta sobre mi caso"); !strings.HasPrefix(reply.Text, msgLawyerForwarded) {
		t.Errorf("expected forwarded notice, got %q", reply.Text)
	}
}
