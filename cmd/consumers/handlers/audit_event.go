package handlers

import (
	"context"
	"fmt"

	"depositlink/internal/events"
	"depositlink/kit/broker"
)

type AuditorContract interface {
	Record(ctx context.Context, eventName string, fields map[string]any)
}

type AuditEvent struct {
	audit AuditorContract
}

func NewAuditEvent(a AuditorContract) *AuditEvent {
	return &AuditEvent{audit: a}
}

func (h *AuditEvent) HandleAny(ctx context.Context, evt broker.Event) error {
	if h.audit == nil {
		return nil
	}

	fields := map[string]any{"type": fmt.Sprintf("%T", evt)}
	switch e := evt.(type) {
	case events.EnrollmentCreated:
		fields["enrollment_id"] = e.EnrollmentID
		fields["patient_ref"] = e.PatientRef
		fields["amount"] = e.Amount
		fields["currency"] = e.Currency
	case events.EnrollmentSent:
		fields["enrollment_id"] = e.EnrollmentID
		fields["patient_ref"] = e.PatientRef
	case events.EnrollmentOpened:
		fields["enrollment_id"] = e.EnrollmentID
		fields["patient_ref"] = e.PatientRef
	case events.EnrollmentTermsAccepted:
		fields["enrollment_id"] = e.EnrollmentID
		fields["policy_ref"] = e.PolicyRef
	case events.EnrollmentProcessing:
		fields["enrollment_id"] = e.EnrollmentID
		fields["gateway_ref"] = e.GatewayRef
	case events.EnrollmentPaid:
		fields["enrollment_id"] = e.EnrollmentID
		fields["patient_ref"] = e.PatientRef
		fields["amount"] = e.Amount
		fields["gateway_ref"] = e.GatewayRef
	case events.EnrollmentFailed:
		fields["enrollment_id"] = e.EnrollmentID
		fields["patient_ref"] = e.PatientRef
		fields["reason"] = e.Reason
	case events.EnrollmentExpired:
		fields["enrollment_id"] = e.EnrollmentID
		fields["patient_ref"] = e.PatientRef
		fields["source"] = e.Source
	case events.EnrollmentCanceled:
		fields["enrollment_id"] = e.EnrollmentID
		fields["patient_ref"] = e.PatientRef
		fields["reason"] = e.Reason
	case events.EnrollmentRegenerated:
		fields["enrollment_id"] = e.EnrollmentID
		fields["patient_ref"] = e.PatientRef
	case events.CRMSyncExhausted:
		fields["enrollment_id"] = e.EnrollmentID
		fields["module"] = e.Module
		fields["record_id"] = e.RecordID
		fields["reason"] = e.Reason
		fields["error_code"] = e.ErrorCode
		fields["attempts"] = e.Attempts
	}

	h.audit.Record(ctx, evt.Name(), fields)
	return nil
}
