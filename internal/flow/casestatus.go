package flow

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/models"
)

func (r *Router) caseStatusMachine() *machine {
	return &machine{
		flow: models.FlowCaseStatus,
		steps: map[models.StepType]action{
			models.StepAskOrList:  r.caseAskOrList,
			models.StepSelectCase: r.caseLookup,
			models.StepAskNumber:  r.caseLookup,
			models.StepPostView: choices{
				1: r.caseRestart,
				2: r.menuWith(""),
			}.or(say(msgInvalidOption)),
		},
		restart: r.caseRestart,
	}
}

func (r *Router) caseRestart(ctx context.Context, in *Input) (models.Reply, error) {
	if err := r.sessions.Reset(ctx, in.Session, models.FlowCaseStatus, models.StepAskOrList, models.FlowData{}); err != nil {
		return models.Reply{}, err
	}
	return r.caseAskOrList(ctx, in)
}

// caseAskOrList lists a registered contact's cases, or asks an unregistered
// one for a case number.
func (r *Router) caseAskOrList(ctx context.Context, in *Input) (models.Reply, error) {
	if in.Session.ContactID == nil {
		if err := r.transition(ctx, in, models.FlowCaseStatus, models.StepAskNumber, models.FlowData{}); err != nil {
			return models.Reply{}, err
		}
		return models.TextReply(msgStatusAskNumber), nil
	}

	cases, err := r.records.FindCasesByContact(ctx, *in.Session.ContactID)
	if err != nil {
		slog.Error("Router.caseAskOrList: failed to load cases", "phone", in.Session.Phone, "error", err)
		return models.TextReply(ErrorGeneral), nil
	}
	if len(cases) == 0 {
		return r.menuWith(msgStatusNoCases)(ctx, in)
	}

	numbers := make([]string, len(cases))
	for i, c := range cases {
		numbers[i] = c.CaseNumber
	}
	if err := r.transition(ctx, in, models.FlowCaseStatus, models.StepSelectCase, models.FlowData{CaseStatus: &models.CaseStatusData{CaseNumbers: numbers}}); err != nil {
		return models.Reply{}, err
	}
	return models.ListReply(statusList(cases), caseList(cases)), nil
}

// caseLookup accepts either a position in the offered list or a case number.
func (r *Router) caseLookup(ctx context.Context, in *Input) (models.Reply, error) {
	number := strings.ToUpper(strings.TrimSpace(in.Text))
	offered := in.Session.Data.CaseStatusOrEmpty().CaseNumbers
	if n, err := strconv.Atoi(number); err == nil && n >= 1 && n <= len(offered) {
		number = offered[n-1]
	}

	c, err := r.records.FindCaseByNumber(ctx, number)
	if errors.Is(err, models.ErrCaseNotFound) {
		return models.TextReply(msgStatusNotFound), nil
	}
	if err != nil {
		slog.Error("Router.caseLookup: failed to load case", "phone", in.Session.Phone, "case_number", number, "error", err)
		return models.TextReply(ErrorGeneral), nil
	}
	if err := r.transition(ctx, in, models.FlowCaseStatus, models.StepPostView, models.FlowData{}); err != nil {
		return models.Reply{}, err
	}
	return models.ListReply(statusFound(c), postCaseViewList()), nil
}
