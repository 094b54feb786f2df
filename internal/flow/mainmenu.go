package flow

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/models"
	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/nlp"
)

func (r *Router) mainMenuMachine() *machine {
	return &machine{
		flow: models.FlowMainMenu,
		steps: map[models.StepType]action{
			models.StepInit: r.menuInit,
			models.StepShow: r.menuShow,
		},
		restart: func(ctx context.Context, in *Input) (models.Reply, error) {
			if err := r.toMenu(ctx, in); err != nil {
				return models.Reply{}, err
			}
			return withMenu(""), nil
		},
	}
}

// contactFor returns the registered contact for the session's phone, or nil.
func (r *Router) contactFor(ctx context.Context, in *Input) (*models.Contact, error) {
	c, err := r.records.FindContactByPhone(ctx, in.Session.Phone)
	if errors.Is(err, models.ErrContactNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// menuInit greets a new session. A substantive first message that is not a
// greeting is answered directly instead.
func (r *Router) menuInit(ctx context.Context, in *Input) (models.Reply, error) {
	contact, err := r.contactFor(ctx, in)
	if err != nil {
		return models.Reply{}, err
	}
	if contact != nil && in.Session.ContactID == nil {
		if err := r.sessions.LinkContact(ctx, in.Session, contact.ID); err != nil {
			return models.Reply{}, err
		}
	}
	if err := r.toMenu(ctx, in); err != nil {
		return models.Reply{}, err
	}

	trimmed := strings.TrimSpace(in.Text)
	if utf8.RuneCountInString(trimmed) > 4 && !nlp.IsNumeric(trimmed) {
		if intent := r.classifier.Classify(ctx, in.Text); intent != models.IntentGreeting {
			slog.Debug("Router.menuInit: substantive first message", "phone", in.Session.Phone, "intent", intent)
			return r.menuShow(ctx, in)
		}
	}

	name, returning := "", contact != nil
	if returning {
		name = contact.Name
	}
	if r.gen.Enabled() {
		if greeting, ok := r.gen.GenerateGreeting(ctx, name, returning); ok {
			return withMenu(greeting), nil
		}
	}
	if returning {
		return withMenu(welcomeBack(name)), nil
	}
	return withMenu(msgWelcomeNewShort), nil
}

// menuShow handles a message while the main menu is displayed.
func (r *Router) menuShow(ctx context.Context, in *Input) (models.Reply, error) {
	if n, ok := nlp.MenuChoice(in.Text, 0, 7); ok {
		return r.menuChoice(ctx, in, n)
	}

	switch intent := r.classifier.Classify(ctx, in.Text); intent {
	case models.IntentRegister:
		return r.menuChoice(ctx, in, 1)
	case models.IntentCaseStatus:
		return r.menuChoice(ctx, in, 4)
	case models.IntentTalkToLawyer:
		return r.menuChoice(ctx, in, 7)
	case models.IntentGoodbye:
		return r.goodbye(ctx, in)
	case models.IntentHelp:
		return models.TextReply(msgHelp), nil
	case models.IntentGreeting, models.IntentMenu:
		return withMenu(""), nil
	default:
		return r.SmartFallback(ctx, in), nil
	}
}

func (r *Router) menuChoice(ctx context.Context, in *Input, n int) (models.Reply, error) {
	slog.Debug("Router.menuChoice", "phone", in.Session.Phone, "choice", n)
	switch n {
	case 0:
		return r.goodbye(ctx, in)
	case 1:
		return r.startIntake(ctx, in)
	case 2:
		if in.Session.ContactID == nil {
			return r.intakeFirst(ctx, in, models.FlowAppointment, "Para agendar una cita, primero necesitamos sus datos.")
		}
		return r.startAppointment(ctx, in)
	case 3:
		if in.Session.ContactID == nil {
			return r.intakeFirst(ctx, in, models.FlowDocument, "Para enviar documentos, primero necesitamos registrar sus datos.")
		}
		return r.startDocument(ctx, in)
	case 4:
		if err := r.sessions.Reset(ctx, in.Session, models.FlowCaseStatus, models.StepAskOrList, models.FlowData{}); err != nil {
			return models.Reply{}, err
		}
		return r.caseAskOrList(ctx, in)
	case 5:
		if err := r.sessions.Reset(ctx, in.Session, models.FlowLegalInfo, models.StepMenu, models.FlowData{}); err != nil {
			return models.Reply{}, err
		}
		return models.TextReply(r.kb.TopicMenu()), nil
	case 6:
		if err := r.sessions.Reset(ctx, in.Session, models.FlowServices, models.StepMenu, models.FlowData{}); err != nil {
			return models.Reply{}, err
		}
		return models.TextReply(r.kb.FormatAllCategories()), nil
	case 7:
		if err := r.sessions.Reset(ctx, in.Session, models.FlowTalkToLawyer, models.StepWaiting, models.FlowData{}); err != nil {
			return models.Reply{}, err
		}
		return models.TextReply(msgTalkToLawyer), nil
	default:
		return withMenu(msgInvalidOption), nil
	}
}

// startIntake opens registration. A known contact skips straight to the
// case type with their details prefilled.
func (r *Router) startIntake(ctx context.Context, in *Input) (models.Reply, error) {
	contact, err := r.contactFor(ctx, in)
	if err != nil {
		return models.Reply{}, err
	}
	if contact == nil {
		if err := r.sessions.Reset(ctx, in.Session, models.FlowIntake, models.StepAskName, models.FlowData{}); err != nil {
			return models.Reply{}, err
		}
		return models.TextReply(msgIntakeAskName), nil
	}

	prefill := models.FlowData{Intake: &models.IntakeData{Name: contact.Name, Email: contact.Email, Address: contact.Address}}
	if err := r.sessions.Reset(ctx, in.Session, models.FlowIntake, models.StepAskCaseType, prefill); err != nil {
		return models.Reply{}, err
	}
	intro := contact.Name + ", ya está registrado/a en nuestro sistema.\n\nProcedamos con su nueva consulta."
	return models.ListReply(intro+"\n\n"+msgIntakeAskCaseType,
		caseTypeList(intro+"\n\n¿Qué tipo de asunto legal necesita atender?")), nil
}

// intakeFirst registers an unknown contact before the flow they asked for.
func (r *Router) intakeFirst(ctx context.Context, in *Input, next models.FlowType, lead string) (models.Reply, error) {
	data := models.FlowData{Intake: &models.IntakeData{ReturnTo: next}}
	if err := r.sessions.Reset(ctx, in.Session, models.FlowIntake, models.StepAskName, data); err != nil {
		return models.Reply{}, err
	}
	return models.TextReply(lead + "\n\n" + msgIntakeAskName), nil
}
