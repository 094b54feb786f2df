package flow

import (
	"context"
	"log/slog"

	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/models"
	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/nlp"
)

// maxChoice bounds what counts as a menu number.
const maxChoice = 99

// action consumes one input at a step and produces the reply.
type action func(ctx context.Context, in *Input) (models.Reply, error)

// machine is the transition table of one flow. Each step names the action
// that handles the next input; an unknown step restarts the flow.
type machine struct {
	flow    models.FlowType
	steps   map[models.StepType]action
	restart action

	// escapable steps abandon the flow through onEscape when the contact
	// says they no longer want to continue.
	escapable map[models.StepType]bool
	onEscape  action
}

func (m *machine) handle(ctx context.Context, in *Input) (models.Reply, error) {
	step := in.Session.Step
	if m.onEscape != nil && m.escapable[step] && nlp.IsEscape(in.Text) {
		slog.Debug("machine.handle: escape detected", "flow", m.flow, "step", step, "phone", in.Session.Phone)
		return m.onEscape(ctx, in)
	}
	if act, ok := m.steps[step]; ok {
		return act(ctx, in)
	}
	slog.Warn("machine.handle: unknown step, restarting flow", "flow", m.flow, "step", step, "phone", in.Session.Phone)
	return m.restart(ctx, in)
}

// choices maps numeric answers to actions.
type choices map[int]action

// or handles a numeric answer found in the table and sends everything else
// to fallback.
func (c choices) or(fallback action) action {
	return func(ctx context.Context, in *Input) (models.Reply, error) {
		if n, ok := nlp.MenuChoice(in.Text, 0, maxChoice); ok {
			if act, found := c[n]; found {
				return act(ctx, in)
			}
		}
		return fallback(ctx, in)
	}
}

// say replies with fixed text and leaves the session where it is.
func say(text string) action {
	return func(context.Context, *Input) (models.Reply, error) {
		return models.TextReply(text), nil
	}
}

// stepKey renders "flow:step" for whitelists and logs.
func stepKey(flow models.FlowType, step models.StepType) string {
	return string(flow) + ":" + string(step)
}
