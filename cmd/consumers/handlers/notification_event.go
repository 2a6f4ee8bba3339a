package handlers

import (
	"context"
	"fmt"

	"depositlink/internal/events"
	"depositlink/kit/broker"
)

type NotifierContract interface {
	Notify(ctx context.Context, patientRef string, msg string)
}

type NotificationEvent struct {
	n NotifierContract
}

func NewNotificationEvent(n NotifierContract) *NotificationEvent {
	return &NotificationEvent{n: n}
}

func (h *NotificationEvent) HandleDepositPaid(ctx context.Context, evt broker.Event) error {
	if h.n == nil {
		return nil
	}
	e, ok := evt.(events.EnrollmentPaid)
	if !ok {
		return fmt.Errorf("unexpected event type: %T", evt)
	}
	h.n.Notify(ctx, e.PatientRef, "deposit collected")
	return nil
}

func (h *NotificationEvent) HandleDepositFailed(ctx context.Context, evt broker.Event) error {
	if h.n == nil {
		return nil
	}
	e, ok := evt.(events.EnrollmentFailed)
	if !ok {
		return fmt.Errorf("unexpected event type: %T", evt)
	}
	h.n.Notify(ctx, e.PatientRef, "deposit payment failed")
	return nil
}
