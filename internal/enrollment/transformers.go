package enrollment

import (
	"time"

	"depositlink/internal/events"
)

func ToCreatedEvent(e *Enrollment) events.EnrollmentCreated {
	return events.EnrollmentCreated{
		EnrollmentID: e.ID,
		PatientRef:   e.PatientRef,
		Amount:       e.Amount,
		Currency:     e.Currency,
		ExpiresAt:    e.ExpiresAt,
		At:           time.Now().UTC(),
	}
}

func ToSentEvent(e *Enrollment) events.EnrollmentSent {
	return events.EnrollmentSent{EnrollmentID: e.ID, PatientRef: e.PatientRef, At: time.Now().UTC()}
}

func ToOpenedEvent(e *Enrollment) events.EnrollmentOpened {
	return events.EnrollmentOpened{EnrollmentID: e.ID, PatientRef: e.PatientRef, At: time.Now().UTC()}
}

func ToTermsAcceptedEvent(e *Enrollment) events.EnrollmentTermsAccepted {
	return events.EnrollmentTermsAccepted{EnrollmentID: e.ID, PolicyRef: e.PolicyRef, At: time.Now().UTC()}
}

func ToProcessingEvent(e *Enrollment) events.EnrollmentProcessing {
	return events.EnrollmentProcessing{EnrollmentID: e.ID, GatewayRef: e.GatewayRef, At: time.Now().UTC()}
}

func ToPaidEvent(e *Enrollment) events.EnrollmentPaid {
	return events.EnrollmentPaid{
		EnrollmentID: e.ID,
		PatientRef:   e.PatientRef,
		Amount:       e.Amount,
		GatewayRef:   e.GatewayRef,
		At:           time.Now().UTC(),
	}
}

func ToFailedEvent(e *Enrollment, reason string) events.EnrollmentFailed {
	return events.EnrollmentFailed{EnrollmentID: e.ID, PatientRef: e.PatientRef, Reason: reason, At: time.Now().UTC()}
}

func ToExpiredEvent(e *Enrollment, source string) events.EnrollmentExpired {
	return events.EnrollmentExpired{EnrollmentID: e.ID, PatientRef: e.PatientRef, Source: source, At: time.Now().UTC()}
}

func ToCanceledEvent(e *Enrollment, reason string) events.EnrollmentCanceled {
	return events.EnrollmentCanceled{EnrollmentID: e.ID, PatientRef: e.PatientRef, Reason: reason, At: time.Now().UTC()}
}

func ToRegeneratedEvent(e *Enrollment) events.EnrollmentRegenerated {
	return events.EnrollmentRegenerated{
		EnrollmentID: e.ID,
		PatientRef:   e.PatientRef,
		ExpiresAt:    e.ExpiresAt,
		At:           time.Now().UTC(),
	}
}
