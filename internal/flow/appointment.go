package flow

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/models"
	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/nlp"
)

// officeHours is the bookable grid, one slot per hour.
var officeHours = []string{"09:00", "10:00", "11:00", "12:00", "14:00", "15:00", "16:00", "17:00"}

func (r *Router) appointmentMachine() *machine {
	return &machine{
		flow: models.FlowAppointment,
		steps: map[models.StepType]action{
			models.StepAskType: r.appointmentAskType,
			models.StepAskDate: r.appointmentAskDate,
			models.StepAskTime: r.appointmentAskTime,
			models.StepConfirm: r.appointmentConfirm,
		},
		restart: r.startAppointment,
	}
}

func (r *Router) startAppointment(ctx context.Context, in *Input) (models.Reply, error) {
	if err := r.sessions.Reset(ctx, in.Session, models.FlowAppointment, models.StepAskType, models.FlowData{}); err != nil {
		return models.Reply{}, err
	}
	return models.ListReply(msgAppointmentIntro, appointmentTypeList()), nil
}

func (r *Router) appointmentPatch(ctx context.Context, in *Input, step models.StepType, d models.AppointmentData) error {
	return r.transition(ctx, in, models.FlowAppointment, step, models.FlowData{Appointment: &d})
}

func (r *Router) appointmentAskType(ctx context.Context, in *Input) (models.Reply, error) {
	code := strings.TrimSpace(in.Text)
	label, ok := appointmentTypes.lookup(code)
	if !ok {
		return models.TextReply("Por favor, seleccione una opción del 1 al 4."), nil
	}
	if err := r.appointmentPatch(ctx, in, models.StepAskDate, models.AppointmentData{Type: label, TypeCode: code}); err != nil {
		return models.Reply{}, err
	}
	return models.TextReply(msgAppointmentAskDate), nil
}

// freeSlots is the office grid minus the times already booked on date.
func (r *Router) freeSlots(ctx context.Context, date string) ([]string, error) {
	booked, err := r.records.FindBookedTimes(ctx, date)
	if err != nil {
		return nil, err
	}
	free := make([]string, 0, len(officeHours))
	for _, slot := range officeHours {
		if !slices.Contains(booked, slot) {
			free = append(free, slot)
		}
	}
	return free, nil
}

func (r *Router) appointmentAskDate(ctx context.Context, in *Input) (models.Reply, error) {
	date, ok := nlp.ParseDate(in.Text, r.sessions.Now())
	if !ok {
		return models.TextReply(msgAppointmentInvalidDate), nil
	}
	if nlp.IsWeekend(date) {
		return models.TextReply(msgAppointmentNoWeekend), nil
	}

	iso := nlp.FormatDateISO(date)
	slots, err := r.freeSlots(ctx, iso)
	if err != nil {
		slog.Error("Router.appointmentAskDate: failed to load booked times", "phone", in.Session.Phone, "date", iso, "error", err)
		return models.TextReply(ErrorGeneral), nil
	}
	if len(slots) == 0 {
		return models.TextReply(msgAppointmentNoSlots), nil
	}

	pretty := nlp.FormatDateES(date)
	patch := models.AppointmentData{Date: iso, DatePretty: pretty, Slots: slots}
	if err := r.appointmentPatch(ctx, in, models.StepAskTime, patch); err != nil {
		return models.Reply{}, err
	}
	return models.ListReply(appointmentSlots(pretty, slots), appointmentSlotsList(pretty, slots)), nil
}

func (r *Router) appointmentAskTime(ctx context.Context, in *Input) (models.Reply, error) {
	d := in.Session.Data.AppointmentOrEmpty()
	n, ok := nlp.MenuChoice(in.Text, 1, len(d.Slots))
	if !ok {
		return models.TextReply(fmt.Sprintf("Por favor, seleccione un número del 1 al %d.", len(d.Slots))), nil
	}

	duration := 45
	if d.TypeCode == "1" {
		duration = 60
	}
	if err := r.appointmentPatch(ctx, in, models.StepConfirm, models.AppointmentData{Time: d.Slots[n-1], DurationMin: duration}); err != nil {
		return models.Reply{}, err
	}
	d = in.Session.Data.AppointmentOrEmpty()
	return models.ListReply(appointmentConfirm(d), appointmentConfirmList(d)), nil
}

func (r *Router) appointmentConfirm(ctx context.Context, in *Input) (models.Reply, error) {
	d := in.Session.Data.AppointmentOrEmpty()
	switch strings.TrimSpace(in.Text) {
	case "1":
		if in.Session.ContactID == nil {
			slog.Error("Router.appointmentConfirm: session has no contact", "phone", in.Session.Phone)
			return models.TextReply(ErrorGeneral), nil
		}
		appt := &models.Appointment{
			ContactID:   *in.Session.ContactID,
			Date:        d.Date,
			Time:        d.Time,
			DurationMin: d.DurationMin,
			Type:        d.Type,
			Status:      models.AppointmentStatusPending,
		}
		if err := r.records.CreateAppointment(ctx, appt); err != nil {
			slog.Error("Router.appointmentConfirm: failed to book", "phone", in.Session.Phone, "error", err)
			return models.TextReply(ErrorGeneral), nil
		}
		slog.Info("Router.appointmentConfirm: appointment booked", "phone", in.Session.Phone, "date", d.Date, "time", d.Time)
		if err := r.toMenu(ctx, in); err != nil {
			return models.Reply{}, err
		}
		return withMenu(appointmentSuccess(d)), nil
	case "2":
		if err := r.appointmentPatch(ctx, in, models.StepAskDate, models.AppointmentData{}); err != nil {
			return models.Reply{}, err
		}
		return models.TextReply(msgAppointmentAskDate), nil
	}
	return models.ListReply(msgInvalidOption+"\n\n"+appointmentConfirm(d), appointmentConfirmList(d)), nil
}
