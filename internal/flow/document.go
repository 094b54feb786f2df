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

func (r *Router) documentMachine() *machine {
	return &machine{
		flow: models.FlowDocument,
		steps: map[models.StepType]action{
			models.StepAskType:        r.documentAskType,
			models.StepAskDescription: r.documentAskDescription,
			models.StepAwaitFile:      r.documentAwaitFile,
			models.StepPostUpload: choices{
				1: r.startDocument,
				2: r.menuWith(""),
			}.or(say(msgInvalidOption)),
		},
		restart: r.startDocument,
	}
}

func (r *Router) startDocument(ctx context.Context, in *Input) (models.Reply, error) {
	if err := r.sessions.Reset(ctx, in.Session, models.FlowDocument, models.StepAskType, models.FlowData{}); err != nil {
		return models.Reply{}, err
	}
	return models.ListReply(msgDocumentIntro, documentTypeList()), nil
}

// menuWith returns to the main menu, leading with prefix.
func (r *Router) menuWith(prefix string) action {
	return func(ctx context.Context, in *Input) (models.Reply, error) {
		if err := r.toMenu(ctx, in); err != nil {
			return models.Reply{}, err
		}
		return withMenu(prefix), nil
	}
}

func (r *Router) documentPatch(ctx context.Context, in *Input, step models.StepType, d models.DocumentData) error {
	return r.transition(ctx, in, models.FlowDocument, step, models.FlowData{Document: &d})
}

func (r *Router) documentAskType(ctx context.Context, in *Input) (models.Reply, error) {
	code := strings.TrimSpace(in.Text)
	label, ok := documentTypes.lookup(code)
	if !ok {
		return models.TextReply("Por favor, seleccione una opción del 1 al 7."), nil
	}
	if err := r.documentPatch(ctx, in, models.StepAskDescription, models.DocumentData{DocType: label, DocTypeCode: code}); err != nil {
		return models.Reply{}, err
	}
	return models.TextReply(msgDocumentAskDescription), nil
}

func (r *Router) documentAskDescription(ctx context.Context, in *Input) (models.Reply, error) {
	description := strings.TrimSpace(in.Text)
	if utf8.RuneCountInString(description) < 3 {
		return models.TextReply("Por favor, proporcione una descripción breve del documento."), nil
	}
	if err := r.documentPatch(ctx, in, models.StepAwaitFile, models.DocumentData{Description: description}); err != nil {
		return models.Reply{}, err
	}
	return models.TextReply(msgDocumentAskFile), nil
}

// documentAwaitFile records the submitted attachment against the contact.
func (r *Router) documentAwaitFile(ctx context.Context, in *Input) (models.Reply, error) {
	att := in.Env.Attachment
	if att == nil {
		norm := nlp.Normalize(in.Text)
		if norm == "0" || norm == "cancelar" {
			return r.menuWith(msgDocumentCancelled)(ctx, in)
		}
		return models.TextReply(msgDocumentInvalidFile), nil
	}

	d := in.Session.Data.DocumentOrEmpty()
	req := &models.DocumentRequest{
		ContactID:   in.Session.ContactID,
		DocType:     d.DocType,
		Description: d.Description,
		WAMediaID:   in.Env.ID,
		FileName:    att.FileName,
		MimeType:    att.MimeType,
		Status:      models.DocumentStatusReceived,
	}
	if req.FileName == "" {
		req.FileName = fmt.Sprintf("documento_%d", r.sessions.Now().UnixMilli())
	}
	if req.MimeType == "" {
		req.MimeType = "application/octet-stream"
	}
	if in.Media != nil && in.Media.Media != nil {
		req.FilePath = in.Media.Media.FilePath
	}

	if err := r.records.CreateDocumentRequest(ctx, req); err != nil {
		slog.Error("Router.documentAwaitFile: failed to record document", "phone", in.Session.Phone, "error", err)
		return models.TextReply(ErrorGeneral), nil
	}
	if in.Media != nil && in.Media.Media != nil {
		if err := r.records.LinkMediaToDocRequest(ctx, in.Media.Media.ID, req.ID); err != nil {
			slog.Warn("Router.documentAwaitFile: failed to link media", "phone", in.Session.Phone, "doc_id", req.ID, "error", err)
		}
	}
	slog.Info("Router.documentAwaitFile: document received", "phone", in.Session.Phone, "doc_id", req.ID, "doc_type", d.DocType)

	if err := r.documentPatch(ctx, in, models.StepPostUpload, models.DocumentData{LastDocID: req.ID}); err != nil {
		return models.Reply{}, err
	}
	return models.ListReply(documentReceived(req.ID), documentReceivedList(req.ID)), nil
}
