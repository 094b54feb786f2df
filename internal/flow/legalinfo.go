package flow

import (
	"context"
	"strings"

	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/knowledge"
	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/models"
	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/nlp"
)

// Fixed entries of the legal topic menu.
const (
	topicMenuInstitutions = 10
	topicMenuSearch       = 11
)

func (r *Router) legalInfoMachine() *machine {
	return &machine{
		flow: models.FlowLegalInfo,
		steps: map[models.StepType]action{
			models.StepMenu:         r.legalMenu,
			models.StepSearch:       r.legalSearch,
			models.StepInstitutions: r.legalInstitutions,
			models.StepPostTopic: choices{
				1: r.legalTopics,
				2: r.legalStep(models.StepSearch, msgSearchAgainPrompt),
				3: r.menuWith(""),
			}.or(say(msgInvalidOption)),
		},
		restart: r.legalTopics,
	}
}

func (r *Router) legalTopics(ctx context.Context, in *Input) (models.Reply, error) {
	return r.legalStep(models.StepMenu, r.kb.TopicMenu())(ctx, in)
}

// legalStep moves within the legal info flow and replies with text.
func (r *Router) legalStep(step models.StepType, text string) action {
	return func(ctx context.Context, in *Input) (models.Reply, error) {
		if err := r.transition(ctx, in, models.FlowLegalInfo, step, models.FlowData{}); err != nil {
			return models.Reply{}, err
		}
		return models.TextReply(text), nil
	}
}

func (r *Router) legalMenu(ctx context.Context, in *Input) (models.Reply, error) {
	topics := r.kb.Topics()
	if n, ok := nlp.MenuChoice(in.Text, 0, maxChoice); ok {
		switch {
		case n == 0:
			return r.menuWith("")(ctx, in)
		case n == topicMenuInstitutions:
			return r.legalStep(models.StepInstitutions, r.kb.InstitutionsMenu())(ctx, in)
		case n == topicMenuSearch:
			return r.legalStep(models.StepSearch, msgSearchPrompt)(ctx, in)
		case n <= len(topics):
			return r.legalStep(models.StepPostTopic, knowledge.FormatTopic(topics[n-1])+"\n\n"+msgPostTopicMenu)(ctx, in)
		default:
			return models.TextReply(msgPickFromList), nil
		}
	}
	return r.legalSearch(ctx, in)
}

// legalSearch answers a free-text legal question from the corpus, through
// the model when available.
func (r *Router) legalSearch(ctx context.Context, in *Input) (models.Reply, error) {
	query := strings.TrimSpace(in.Text)
	results := r.kb.Search(query)

	kbContext := ""
	if len(results) > 0 {
		kbContext = knowledge.ContextFor(results[0])
	}
	if out, ok := r.answer(ctx, query, kbContext); ok {
		return r.legalStep(models.StepPostTopic, out+"\n\n"+msgPostTopicMenu)(ctx, in)
	}
	if len(results) == 0 {
		return r.legalStep(models.StepPostTopic, noSearchResults(query))(ctx, in)
	}
	return r.legalStep(models.StepPostTopic, knowledge.FormatResults(results, 2)+"\n\n"+msgPostTopicMenu)(ctx, in)
}

func (r *Router) legalInstitutions(ctx context.Context, in *Input) (models.Reply, error) {
	institutions := r.kb.Institutions()
	n, ok := nlp.MenuChoice(in.Text, 0, len(institutions))
	if !ok {
		return models.TextReply(msgPickFromList), nil
	}
	if n == 0 {
		return r.legalTopics(ctx, in)
	}
	return r.legalStep(models.StepPostTopic, knowledge.FormatInstitution(institutions[n-1])+"\n\n"+msgPostTopicMenu)(ctx, in)
}
