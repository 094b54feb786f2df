package flow

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/genai"
	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/models"
	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/nlp"
)

// minNameRatio is the share of name-like characters a name must have.
const minNameRatio = 0.7

func (r *Router) intakeMachine() *machine {
	askName := func(ctx context.Context, in *Input) (models.Reply, error) {
		if err := r.transition(ctx, in, models.FlowIntake, models.StepAskName, models.FlowData{}); err != nil {
			return models.Reply{}, err
		}
		return models.TextReply(msgIntakeAskName), nil
	}
	quick := func(ctx context.Context, in *Input) (models.Reply, error) {
		if err := r.transition(ctx, in, models.FlowIntake, models.StepQuickQuestion, models.FlowData{}); err != nil {
			return models.Reply{}, err
		}
		return models.TextReply(msgIntakeQuickQuestion), nil
	}

	return &machine{
		flow: models.FlowIntake,
		steps: map[models.StepType]action{
			models.StepWelcomeChoice:  choices{1: askName, 2: quick}.or(r.intakeWelcomeText),
			models.StepQuickQuestion:  r.intakeQuickQuestion,
			models.StepAskName:        r.intakeAskName,
			models.StepConfirmName:    r.intakeConfirmName,
			models.StepAskEmail:       r.intakeAskEmail,
			models.StepAskAddress:     r.intakeAskAddress,
			models.StepAskCaseType:    r.intakeAskCaseType,
			models.StepAskDescription: r.intakeAskDescription,
			models.StepAskUrgency:     r.intakeAskUrgency,
			models.StepConfirm:        r.intakeConfirm,
		},
		restart: askName,
		escapable: map[models.StepType]bool{
			models.StepAskName:        true,
			models.StepConfirmName:    true,
			models.StepAskEmail:       true,
			models.StepAskAddress:     true,
			models.StepAskCaseType:    true,
			models.StepAskDescription: true,
			models.StepAskUrgency:     true,
		},
		onEscape: func(ctx context.Context, in *Input) (models.Reply, error) {
			if err := r.toMenu(ctx, in); err != nil {
				return models.Reply{}, err
			}
			return withMenu(msgIntakeCancelled), nil
		},
	}
}

func (r *Router) intakePatch(ctx context.Context, in *Input, step models.StepType, d models.IntakeData) error {
	return r.transition(ctx, in, models.FlowIntake, step, models.FlowData{Intake: &d})
}

// confirmation lets the model acknowledge an answer; fallback is used when
// it cannot.
func (r *Router) confirmation(ctx context.Context, step models.StepType, value string, collected []genai.Field, next, fallback string) string {
	if r.gen.Enabled() {
		if out, ok := r.gen.GenerateIntakeConfirmation(ctx, step, value, collected, next); ok {
			return out
		}
	}
	return fallback
}

// answerOrMenu answers a question typed mid-registration and leaves the
// registration.
func (r *Router) answerOrMenu(ctx context.Context, in *Input, lead string) (models.Reply, error) {
	if err := r.toMenu(ctx, in); err != nil {
		return models.Reply{}, err
	}
	if out, ok := r.answer(ctx, in.Text, ""); ok {
		return models.TextReply(out), nil
	}
	return withMenu(lead), nil
}

func (r *Router) intakeWelcomeText(ctx context.Context, in *Input) (models.Reply, error) {
	switch intent := r.classifier.Classify(ctx, in.Text); intent {
	case models.IntentRegister, models.IntentIntake, models.IntentConfirmYes:
		if err := r.intakePatch(ctx, in, models.StepAskName, models.IntakeData{}); err != nil {
			return models.Reply{}, err
		}
		return models.TextReply(msgIntakeAskName), nil
	case models.IntentLegalInfo, models.IntentServices, models.IntentAppointment, models.IntentCaseStatus:
		return r.reroute(ctx, in)
	case models.IntentGreeting:
		return models.TextReply("🦉 ¡Hola! ¿En qué podemos ayudarle?\n\n" + msgWelcomeChoiceOptions), nil
	case models.IntentGoodbye:
		return r.goodbye(ctx, in)
	}

	if utf8.RuneCountInString(in.Text) > 10 {
		if out, ok := r.answer(ctx, in.Text, ""); ok {
			if err := r.toMenu(ctx, in); err != nil {
				return models.Reply{}, err
			}
			return models.TextReply(out + msgRegisterHint), nil
		}
	}
	return models.TextReply("Disculpe, no comprendí su selección. Por favor, elija:\n\n" + msgWelcomeChoiceOptions), nil
}

func (r *Router) intakeQuickQuestion(ctx context.Context, in *Input) (models.Reply, error) {
	entry := &models.MessageLogEntry{
		Phone:     in.Session.Phone,
		Direction: models.DirectionInbound,
		Content:   "[Consulta rápida] " + in.Text,
	}
	if err := r.records.CreateMessageLog(ctx, entry); err != nil {
		slog.Warn("Router.intakeQuickQuestion: failed to log question", "phone", in.Session.Phone, "error", err)
	}

	if nlp.MatchIntent(in.Text) == models.IntentRegister {
		if err := r.intakePatch(ctx, in, models.StepAskName, models.IntakeData{}); err != nil {
			return models.Reply{}, err
		}
		return models.TextReply(msgIntakeAskName), nil
	}

	if err := r.toMenu(ctx, in); err != nil {
		return models.Reply{}, err
	}
	if out, ok := r.answer(ctx, in.Text, ""); ok {
		return models.TextReply(out + msgQuickRegisterHint), nil
	}
	return withMenu(msgIntakeQuickReceived), nil
}

func (r *Router) intakeAskName(ctx context.Context, in *Input) (models.Reply, error) {
	name := strings.TrimSpace(in.Text)
	if ced, ok := nlp.ExtractCedula(name); ok {
		name = nlp.CollapseSpaces(strings.Replace(name, ced.Raw, "", 1))
		if err := r.intakePatch(ctx, in, models.StepAskName, models.IntakeData{Cedula: ced.Formatted}); err != nil {
			return models.Reply{}, err
		}
	}

	if utf8.RuneCountInString(name) < 2 {
		return models.TextReply("Por favor, ingrese su nombre completo."), nil
	}
	if nlp.LooksLikeQuestionForName(name) {
		return r.answerOrMenu(ctx, in, "Parece que tiene una consulta. Le regresamos al menú principal para asistirle mejor.")
	}
	if nlp.NameLetterRatio(name) < minNameRatio {
		return models.TextReply("Eso no parece ser un nombre. Por favor, indíquenos su *nombre completo* o escriba *\"menu\"* para regresar."), nil
	}

	if len(strings.Fields(name)) == 1 {
		if err := r.intakePatch(ctx, in, models.StepConfirmName, models.IntakeData{Name: name}); err != nil {
			return models.Reply{}, err
		}
		fallback := fmt.Sprintf("Gracias, *%s*. Para que su información quede correcta en nuestro sistema, ¿podría proporcionarnos su nombre completo como aparece en su cédula?\n\n"+
			"Si *%s* es su nombre completo, simplemente escriba *\"sí\"* para continuar.", name, name)
		return models.TextReply(r.confirmation(ctx, models.StepAskName, name, nil, msgIntakeAskEmail, fallback)), nil
	}

	if err := r.intakePatch(ctx, in, models.StepAskEmail, models.IntakeData{Name: name}); err != nil {
		return models.Reply{}, err
	}
	collected := []genai.Field{{Name: "nombre", Value: name}}
	return models.TextReply(r.confirmation(ctx, models.StepAskName, name, collected, msgIntakeAskEmail,
		"Perfecto, *"+name+"*. "+msgIntakeAskEmail)), nil
}

func (r *Router) intakeConfirmName(ctx context.Context, in *Input) (models.Reply, error) {
	text := strings.TrimSpace(in.Text)
	norm := nlp.Normalize(text)
	prev := in.Session.Data.IntakeOrEmpty().Name

	switch {
	case text == "1" || norm == "si" || norm == "confirmar" || norm == "correcto":
		if err := r.intakePatch(ctx, in, models.StepAskEmail, models.IntakeData{}); err != nil {
			return models.Reply{}, err
		}
		collected := []genai.Field{{Name: "nombre", Value: prev}}
		return models.TextReply(r.confirmation(ctx, models.StepAskName, prev, collected, msgIntakeAskEmail,
			"Entendido, *"+prev+"*. "+msgIntakeAskEmail)), nil
	case text == "2" || norm == "no":
		if err := r.intakePatch(ctx, in, models.StepAskName, models.IntakeData{}); err != nil {
			return models.Reply{}, err
		}
		return models.TextReply(msgIntakeAskName), nil
	case utf8.RuneCountInString(text) >= 2:
		if err := r.intakePatch(ctx, in, models.StepAskEmail, models.IntakeData{Name: text}); err != nil {
			return models.Reply{}, err
		}
		collected := []genai.Field{{Name: "nombre", Value: text}}
		return models.TextReply(r.confirmation(ctx, models.StepAskName, text, collected, msgIntakeAskEmail,
			"Perfecto, *"+text+"*. "+msgIntakeAskEmail)), nil
	}
	return models.TextReply("Por favor, escriba su nombre completo o escriba *\"sí\"* para continuar."), nil
}

// rerouteIntents are the intents that pull a contact out of the e-mail step.
var rerouteIntents = map[models.Intent]bool{
	models.IntentLegalInfo:   true,
	models.IntentServices:    true,
	models.IntentAppointment: true,
	models.IntentCaseStatus:  true,
	models.IntentDocument:    true,
	models.IntentIntake:      true,
	models.IntentRegister:    true,
}

func (r *Router) intakeAskEmail(ctx context.Context, in *Input) (models.Reply, error) {
	text := strings.TrimSpace(in.Text)
	length := utf8.RuneCountInString(text)
	if nlp.LooksLikeQuestion(text) && length > 5 {
		return r.answerOrMenu(ctx, in, "Parece que tiene una consulta. Le regresamos al menú principal.")
	}

	skip := nlp.IsSkipWord(text)
	if !skip && !strings.Contains(text, "@") && length > 10 {
		intent := r.classifier.Classify(ctx, text)
		if rerouteIntents[intent] || (intent == models.IntentUnknown && length > 20) {
			return r.reroute(ctx, in)
		}
	}

	email := ""
	if !skip {
		if !nlp.IsValidEmail(text) {
			return models.TextReply("El formato del correo electrónico no es válido. Por favor, ingréselo nuevamente o escriba *\"omitir\"*."), nil
		}
		email = text
	}
	if err := r.intakePatch(ctx, in, models.StepAskAddress, models.IntakeData{Email: email}); err != nil {
		return models.Reply{}, err
	}

	d := in.Session.Data.IntakeOrEmpty()
	collected := []genai.Field{{Name: "nombre", Value: d.Name}, {Name: "correo", Value: email}}
	value, fallback := "omitido", "Sin problema, continuamos sin correo. "+msgIntakeAskAddress
	if email != "" {
		value, fallback = email, "Correo registrado: *"+email+"*. "+msgIntakeAskAddress
	}
	return models.TextReply(r.confirmation(ctx, models.StepAskEmail, value, collected, msgIntakeAskAddress, fallback)), nil
}

func (r *Router) intakeAskAddress(ctx context.Context, in *Input) (models.Reply, error) {
	text := strings.TrimSpace(in.Text)
	address := ""
	if !nlp.IsSkipWord(text) {
		address = text
	}
	if err := r.intakePatch(ctx, in, models.StepAskCaseType, models.IntakeData{Address: address}); err != nil {
		return models.Reply{}, err
	}

	d := in.Session.Data.IntakeOrEmpty()
	collected := []genai.Field{{Name: "nombre", Value: d.Name}, {Name: "correo", Value: d.Email}, {Name: "domicilio", Value: address}}
	value := address
	if value == "" {
		value = "omitido"
	}
	if r.gen.Enabled() {
		if out, ok := r.gen.GenerateIntakeConfirmation(ctx, models.StepAskAddress, value, collected, msgIntakeAskCaseType); ok {
			return models.ListReply(out, caseTypeList("¿Qué *tipo de asunto legal* necesita atender?")), nil
		}
	}

	lead := "Entendido. "
	if address != "" {
		lead = "Domicilio registrado. "
	}
	lead += "Ahora necesitamos saber sobre su asunto legal."
	return models.ListReply(lead+"\n\n"+msgIntakeAskCaseType, caseTypeList(lead)), nil
}

// matchCaseType accepts a typed area of law such as "penal" or "familia".
// The generic "derecho de" prefix never decides the match.
func matchCaseType(text string) (string, bool) {
	norm := nlp.Normalize(text)
	if norm == "" {
		return "", false
	}
	for _, o := range caseTypes {
		area := distinctivePart(nlp.Normalize(o.label))
		if utf8.RuneCountInString(norm) >= 3 && strings.Contains(area, norm) {
			return o.label, true
		}
		if key := firstWord(area); key != "" && strings.Contains(norm, key) {
			return o.label, true
		}
	}
	return "", false
}

func distinctivePart(label string) string {
	label = strings.TrimPrefix(label, "derecho ")
	return strings.TrimPrefix(label, "de ")
}

func firstWord(s string) string {
	if f := strings.Fields(s); len(f) > 0 {
		return f[0]
	}
	return ""
}

func (r *Router) intakeAskCaseType(ctx context.Context, in *Input) (models.Reply, error) {
	text := strings.TrimSpace(in.Text)
	caseType, ok := caseTypes.lookup(text)
	if !ok {
		caseType, ok = matchCaseType(text)
	}
	if !ok {
		if utf8.RuneCountInString(text) > 5 {
			return r.reroute(ctx, in)
		}
		return models.TextReply("Seleccione un número del 1 al 9 o escriba el tipo de asunto (ej: \"civil\", \"penal\", \"familia\")."), nil
	}

	if err := r.intakePatch(ctx, in, models.StepAskDescription, models.IntakeData{CaseType: caseType}); err != nil {
		return models.Reply{}, err
	}
	d := in.Session.Data.IntakeOrEmpty()
	collected := []genai.Field{{Name: "nombre", Value: d.Name}, {Name: "área legal", Value: caseType}}
	return models.TextReply(r.confirmation(ctx, models.StepAskCaseType, caseType, collected, msgIntakeAskDescription,
		"*"+caseType+"*, entendido. "+msgIntakeAskDescription)), nil
}

func shorten(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

func (r *Router) intakeAskDescription(ctx context.Context, in *Input) (models.Reply, error) {
	description := strings.TrimSpace(in.Text)
	if utf8.RuneCountInString(description) < 10 {
		return models.TextReply("Por favor, proporcione una descripción más detallada de su situación (mínimo 10 caracteres)."), nil
	}
	if err := r.intakePatch(ctx, in, models.StepAskUrgency, models.IntakeData{Description: description}); err != nil {
		return models.Reply{}, err
	}

	d := in.Session.Data.IntakeOrEmpty()
	collected := []genai.Field{
		{Name: "nombre", Value: d.Name},
		{Name: "área legal", Value: d.CaseType},
		{Name: "descripción", Value: shorten(description, 50)},
	}
	if r.gen.Enabled() {
		if out, ok := r.gen.GenerateIntakeConfirmation(ctx, models.StepAskDescription, description, collected, msgIntakeAskUrgency); ok {
			return models.ListReply(out, urgencyList("¿Cuál es el *nivel de urgencia* de su caso?")), nil
		}
	}
	lead := "Hemos registrado su situación."
	return models.ListReply(lead+" "+msgIntakeAskUrgency, urgencyList(lead+" ¿Cuál es el *nivel de urgencia* de su caso?")), nil
}

func (r *Router) intakeAskUrgency(ctx context.Context, in *Input) (models.Reply, error) {
	text := strings.TrimSpace(in.Text)
	urgency, ok := urgencyLevels.lookup(text)
	if !ok {
		if utf8.RuneCountInString(text) > 5 {
			return r.reroute(ctx, in)
		}
		return models.TextReply("Seleccione: 1 (Urgente), 2 (Moderado) o 3 (Normal)."), nil
	}
	if err := r.intakePatch(ctx, in, models.StepConfirm, models.IntakeData{Urgency: urgency}); err != nil {
		return models.Reply{}, err
	}
	d := in.Session.Data.IntakeOrEmpty()
	return models.ListReply(intakeConfirm(d), intakeConfirmList(d)), nil
}

func (r *Router) intakeConfirm(ctx context.Context, in *Input) (models.Reply, error) {
	text := strings.TrimSpace(in.Text)
	norm := nlp.Normalize(text)
	d := in.Session.Data.IntakeOrEmpty()

	switch {
	case text == "1" || norm == "si" || norm == "confirmar":
		return r.completeIntake(ctx, in)
	case text == "2" || norm == "no" || norm == "corregir":
		restart := models.FlowData{Intake: &models.IntakeData{ReturnTo: d.ReturnTo}}
		if err := r.sessions.Reset(ctx, in.Session, models.FlowIntake, models.StepAskName, restart); err != nil {
			return models.Reply{}, err
		}
		return models.TextReply("De acuerdo, comencemos nuevamente.\n\n" + msgIntakeAskName), nil
	}
	return models.ListReply(msgInvalidOption+"\n\n"+intakeConfirm(d), intakeConfirmList(d)), nil
}

// nextCaseNumber renders CASO-{base36 milliseconds}-{sequence}.
func (r *Router) nextCaseNumber() string {
	seq := r.caseSeq.Add(1)
	ts := strings.ToUpper(strconv.FormatInt(r.sessions.Now().UnixMilli(), 36))
	return fmt.Sprintf("CASO-%s-%03d", ts, seq)
}

// completeIntake registers the contact if needed and opens the case. On a
// persistence failure the session stays on confirm so the contact can retry.
func (r *Router) completeIntake(ctx context.Context, in *Input) (models.Reply, error) {
	d := in.Session.Data.IntakeOrEmpty()
	phone := in.Session.Phone

	contact, err := r.contactFor(ctx, in)
	if err != nil {
		return completionFailed("Router.completeIntake", phone, err), nil
	}
	if contact == nil {
		notes := "Urgencia: " + d.Urgency
		if d.Cedula != "" {
			notes += " | Cédula: " + d.Cedula
		}
		contact = &models.Contact{Name: d.Name, Phone: phone, Email: d.Email, Address: d.Address, Notes: notes}
		if err := r.records.CreateContact(ctx, contact); err != nil {
			return completionFailed("Router.completeIntake", phone, err), nil
		}
		slog.Info("Router.completeIntake: contact registered", "phone", phone, "contact_id", contact.ID)
	}

	if err := r.sessions.LinkContact(ctx, in.Session, contact.ID); err != nil {
		return completionFailed("Router.completeIntake", phone, err), nil
	}
	if n, err := r.records.LinkMediaToContact(ctx, phone, contact.ID); err != nil {
		slog.Warn("Router.completeIntake: failed to link media", "phone", phone, "error", err)
	} else if n > 0 {
		slog.Debug("Router.completeIntake: linked orphan media", "phone", phone, "count", n)
	}

	c := &models.Case{
		CaseNumber:  r.nextCaseNumber(),
		Title:       d.CaseType + " — " + d.Name,
		Description: d.Description,
		Status:      models.CaseStatusOpen,
		CaseType:    d.CaseType,
		ContactID:   contact.ID,
	}
	if err := r.records.CreateCase(ctx, c); err != nil {
		return completionFailed("Router.completeIntake", phone, err), nil
	}
	slog.Info("Router.completeIntake: case opened", "phone", phone, "case_number", c.CaseNumber)

	success := intakeSuccess(c.CaseNumber)
	switch d.ReturnTo {
	case models.FlowAppointment:
		if err := r.sessions.Reset(ctx, in.Session, models.FlowAppointment, models.StepAskType, models.FlowData{}); err != nil {
			return models.Reply{}, err
		}
		return models.ListReply(success+"\n\n"+msgAppointmentIntro, appointmentTypeList()), nil
	case models.FlowDocument:
		if err := r.sessions.Reset(ctx, in.Session, models.FlowDocument, models.StepAskType, models.FlowData{}); err != nil {
			return models.Reply{}, err
		}
		return models.ListReply(success+"\n\n"+msgDocumentIntro, documentTypeList()), nil
	}
	if err := r.toMenu(ctx, in); err != nil {
		return models.Reply{}, err
	}
	return withMenu(success), nil
}

func completionFailed(op, phone string, err error) models.Reply {
	slog.Error(op+": persistence failed", "phone", phone, "error", err)
	return models.TextReply(ErrorGeneral)
}
