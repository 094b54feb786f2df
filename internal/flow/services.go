package flow

import (
	"context"

	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/knowledge"
	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/models"
	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/nlp"
)

func (r *Router) servicesMachine() *machine {
	return &machine{
		flow: models.FlowServices,
		steps: map[models.StepType]action{
			models.StepMenu: r.servicesMenu,
			models.StepPostCategory: choices{
				1: r.servicesCategories,
				2: r.menuWith(""),
			}.or(say(msgInvalidOption)),
		},
		restart: r.servicesCategories,
	}
}

func (r *Router) servicesCategories(ctx context.Context, in *Input) (models.Reply, error) {
	if err := r.transition(ctx, in, models.FlowServices, models.StepMenu, models.FlowData{}); err != nil {
		return models.Reply{}, err
	}
	return models.TextReply(r.kb.FormatAllCategories()), nil
}

func (r *Router) servicesMenu(ctx context.Context, in *Input) (models.Reply, error) {
	categories := r.kb.MenuCategories()
	n, ok := nlp.MenuChoice(in.Text, 0, len(categories))
	if !ok {
		return models.TextReply(msgPickFromList), nil
	}
	if n == 0 {
		return r.menuWith("")(ctx, in)
	}
	if err := r.transition(ctx, in, models.FlowServices, models.StepPostCategory, models.FlowData{}); err != nil {
		return models.Reply{}, err
	}
	return models.TextReply(knowledge.FormatCategory(categories[n-1]) + "\n\n" + msgPostCategoryMenu), nil
}
