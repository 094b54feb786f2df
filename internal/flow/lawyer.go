package flow

import (
	"context"
	"log/slog"

	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/models"
	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/nlp"
)

func (r *Router) lawyerMachine() *machine {
	return &machine{
		flow: models.FlowTalkToLawyer,
		steps: map[models.StepType]action{
			models.StepWaiting: r.lawyerWaiting,
		},
		restart: r.menuWith(""),
	}
}

// lawyerWaiting acknowledges what the contact sends while waiting for a
// lawyer and returns them to the menu.
func (r *Router) lawyerWaiting(ctx context.Context, in *Input) (models.Reply, error) {
	if nlp.MatchIntent(in.Text) == models.IntentUrgent {
		slog.Warn("Router.lawyerWaiting: urgent request", "phone", in.Session.Phone)
		return r.menuWith(msgTalkToLawyerUrgent)(ctx, in)
	}
	slog.Info("Router.lawyerWaiting: message forwarded to legal team", "phone", in.Session.Phone)
	return r.menuWith(msgLawyerForwarded)(ctx, in)
}
