package flow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/models"
	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/nlp"
)

// freeTextSteps accept arbitrary text. Every other step expects a number,
// and prose sent there is treated as a change of topic.
var freeTextSteps = stepSet([]flowSteps{
	{models.FlowMainMenu, []models.StepType{models.StepInit, models.StepShow}},
	{models.FlowIntake, []models.StepType{
		models.StepWelcomeChoice, models.StepAskName, models.StepConfirmName, models.StepAskEmail,
		models.StepAskAddress, models.StepAskCaseType, models.StepAskDescription,
		models.StepAskUrgency, models.StepQuickQuestion, models.StepConfirm,
	}},
	{models.FlowTalkToLawyer, []models.StepType{models.StepWaiting}},
	{models.FlowCaseStatus, []models.StepType{models.StepAskNumber, models.StepSelectCase}},
	{models.FlowLegalInfo, []models.StepType{models.StepMenu, models.StepSearch}},
	{models.FlowDocument, []models.StepType{models.StepAskDescription, models.StepAwaitFile}},
	{models.FlowAppointment, []models.StepType{models.StepAskDate}},
})

type flowSteps struct {
	flow  models.FlowType
	steps []models.StepType
}

func stepSet(groups []flowSteps) map[string]bool {
	set := make(map[string]bool)
	for _, g := range groups {
		for _, s := range g.steps {
			set[stepKey(g.flow, s)] = true
		}
	}
	return set
}

// AcceptsFreeText reports whether (flow, step) takes arbitrary text.
func AcceptsFreeText(flow models.FlowType, step models.StepType) bool {
	return freeTextSteps[stepKey(flow, step)]
}

// Route runs one inbound message through the engine and returns the reply.
// media is the saved and analysed attachment, if any.
func (r *Router) Route(ctx context.Context, env models.Envelope, media *models.MediaResult) (models.Reply, error) {
	sess, err := r.sessions.GetOrCreate(ctx, env.From)
	if err != nil {
		return models.Reply{}, fmt.Errorf("failed to load session: %w", err)
	}
	in := &Input{Session: sess, Text: env.Text, Env: env, Media: media}
	slog.Debug("Router.Route: routing message", "phone", env.From, "flow", sess.Flow, "step", sess.Step)

	if sess.Flow != models.FlowMainMenu {
		if intent, ok := r.classifier.Global(in.Text); ok {
			return r.globalCommand(ctx, in, intent)
		}
	}

	trimmed := strings.TrimSpace(in.Text)
	if !AcceptsFreeText(sess.Flow, sess.Step) && !nlp.IsNumeric(trimmed) && utf8.RuneCountInString(trimmed) > 2 {
		slog.Info("Router.Route: free text at a numeric step, using smart fallback",
			"phone", env.From, "at", stepKey(sess.Flow, sess.Step))
		if err := r.toMenu(ctx, in); err != nil {
			return models.Reply{}, err
		}
		return r.SmartFallback(ctx, in), nil
	}

	m, ok := r.machines[sess.Flow]
	if !ok {
		slog.Warn("Router.Route: unknown flow, restarting main menu", "phone", env.From, "flow", sess.Flow)
		if err := r.sessions.Reset(ctx, sess, models.FlowMainMenu, models.StepInit, models.FlowData{}); err != nil {
			return models.Reply{}, err
		}
		m = r.machines[models.FlowMainMenu]
	}
	return m.handle(ctx, in)
}

func (r *Router) globalCommand(ctx context.Context, in *Input, intent models.Intent) (models.Reply, error) {
	slog.Debug("Router.globalCommand", "phone", in.Session.Phone, "intent", intent)
	switch intent {
	case models.IntentMenu:
		if err := r.toMenu(ctx, in); err != nil {
			return models.Reply{}, err
		}
		return withMenu(""), nil
	case models.IntentHelp:
		return models.TextReply(msgHelp), nil
	default:
		return r.goodbye(ctx, in)
	}
}

// goodbye closes the session; the next message starts over.
func (r *Router) goodbye(ctx context.Context, in *Input) (models.Reply, error) {
	if err := r.sessions.Close(ctx, in.Session); err != nil {
		return models.Reply{}, err
	}
	return models.TextReply(msgGoodbye), nil
}

// reroute hands text that an intake step could not use to the main menu,
// as if the contact had sent it there.
func (r *Router) reroute(ctx context.Context, in *Input) (models.Reply, error) {
	slog.Debug("Router.reroute: input handed to main menu", "phone", in.Session.Phone, "from", stepKey(in.Session.Flow, in.Session.Step))
	if err := r.toMenu(ctx, in); err != nil {
		return models.Reply{}, err
	}
	return r.menuShow(ctx, in)
}
