package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"depositlink/internal/enrollment"
	"depositlink/internal/events"
	"depositlink/internal/recovery"
	"depositlink/kit/broker"
	"depositlink/kit/crm"
	"depositlink/kit/observability"
)

const crmMaxAttempts = 5

// CRMEvent mirrors enrollment status changes into the CRM. Sync is
// best-effort: the local transition already happened, so failures only ever
// cost a retry or a DLQ entry, never a rollback.
type CRMEvent struct {
	logger      *observability.Logger
	bus         BusContract
	crm         crm.Client
	enrollments EnrollmentReaderContract
	recovery    *recovery.Service
}

func NewCRMEvent(logger *observability.Logger, bus BusContract, crmClient crm.Client, enrollments EnrollmentReaderContract, recoverySvc *recovery.Service) *CRMEvent {
	return &CRMEvent{logger: logger, bus: bus, crm: crmClient, enrollments: enrollments, recovery: recoverySvc}
}

// HandleStatusChanged pushes the new status to the CRM record the enrollment
// originated from. Enrollments without CRM linkage are skipped.
func (h *CRMEvent) HandleStatusChanged(ctx context.Context, evt broker.Event) error {
	enrollmentID, status, note := statusFromEvent(evt)
	if enrollmentID == "" {
		return fmt.Errorf("%w event type: %T", ErrUnexpectedEventType, evt)
	}

	e, err := h.enrollments.Get(ctx, enrollmentID)
	if err != nil {
		h.logger.Error("crm sync lookup failed", "enrollment_id", enrollmentID, "error", err.Error())
		return err
	}
	if !e.FromCRM() {
		return nil
	}

	fields := map[string]any{
		"Deposit_Status":     string(status),
		"Deposit_Link_Last4": e.TokenLast4,
		"Deposit_Expires_At": e.ExpiresAt.Format(time.RFC3339),
	}

	attempt := 1
	for {
		callCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := h.crm.UpdateRecord(callCtx, e.CRMModule, e.CRMRecordID, fields)
		cancel()
		if err == nil {
			h.logger.Info("crm sync ok", "enrollment_id", e.ID, "module", e.CRMModule, "record_id", e.CRMRecordID, "status", status, "attempt", attempt)
			if note != "" {
				noteCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
				if err := h.crm.AddNote(noteCtx, e.CRMModule, e.CRMRecordID, "Deposit "+string(status), note); err != nil {
					h.logger.Warn("crm note failed", "enrollment_id", e.ID, "error", err.Error())
				}
				cancel()
			}
			return nil
		}

		retryable := errors.Is(err, crm.ErrTimeout) || errors.Is(err, crm.ErrServer) ||
			errors.Is(err, context.DeadlineExceeded) || errors.Is(err, crm.ErrCircuitOpen)
		errorCode := crmErrorCode(err)

		if retryable && attempt < crmMaxAttempts {
			backoff := time.Duration(50*attempt) * time.Millisecond
			h.logger.Info("crm sync retrying", "enrollment_id", e.ID, "attempt", attempt, "backoff", backoff.String(), "error_code", errorCode)
			time.Sleep(backoff)
			attempt++
			continue
		}

		reason := err.Error()
		if retryable {
			h.logger.Error("crm sync retries exhausted", "enrollment_id", e.ID, "attempts", attempt, "reason", reason, "error_code", errorCode)
			exhausted := events.CRMSyncExhausted{
				EnrollmentID: e.ID,
				Module:       e.CRMModule,
				RecordID:     e.CRMRecordID,
				Status:       string(status),
				Reason:       reason,
				ErrorCode:    errorCode,
				Attempts:     attempt,
				At:           time.Now().UTC(),
			}
			if h.recovery != nil {
				h.recovery.SendToDLQ(ctx, exhausted.Name(), reason, exhausted)
			}
			if h.bus != nil {
				h.bus.Publish(ctx, exhausted)
			}
			return nil
		}

		// 4xx: the CRM rejected the payload; retrying won't help.
		h.logger.Error("crm sync failed", "enrollment_id", e.ID, "attempt", attempt, "reason", reason, "error_code", errorCode)
		return nil
	}
}

func statusFromEvent(evt broker.Event) (enrollmentID string, status enrollment.Status, note string) {
	switch e := evt.(type) {
	case events.EnrollmentSent:
		return e.EnrollmentID, enrollment.StatusSent, ""
	case events.EnrollmentOpened:
		return e.EnrollmentID, enrollment.StatusOpened, ""
	case events.EnrollmentProcessing:
		return e.EnrollmentID, enrollment.StatusProcessing, ""
	case events.EnrollmentPaid:
		return e.EnrollmentID, enrollment.StatusPaid, fmt.Sprintf("Deposit collected (%d minor units), gateway ref %s", e.Amount, e.GatewayRef)
	case events.EnrollmentFailed:
		return e.EnrollmentID, enrollment.StatusFailed, "Payment failed: " + e.Reason
	case events.EnrollmentExpired:
		return e.EnrollmentID, enrollment.StatusExpired, "Enrollment link expired"
	case events.EnrollmentCanceled:
		return e.EnrollmentID, enrollment.StatusCanceled, "Enrollment canceled: " + e.Reason
	case events.EnrollmentRegenerated:
		return e.EnrollmentID, enrollment.StatusCreated, "Enrollment link regenerated"
	default:
		return "", "", ""
	}
}

func crmErrorCode(err error) string {
	switch {
	case errors.Is(err, crm.ErrCircuitOpen):
		return "cb_open"
	case errors.Is(err, crm.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return "408"
	case errors.Is(err, crm.ErrServer):
		return "5xx"
	case errors.Is(err, crm.ErrClient):
		return "4xx"
	default:
		return ""
	}
}
