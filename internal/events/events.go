package events

import "time"

type EnrollmentCreated struct {
	EnrollmentID string    `json:"enrollment_id"`
	PatientRef   string    `json:"patient_ref"`
	Amount       int64     `json:"amount"`
	Currency     string    `json:"currency"`
	ExpiresAt    time.Time `json:"expires_at"`
	At           time.Time `json:"at"`
}

func (EnrollmentCreated) Name() string { return "enrollment.created" }

func (e EnrollmentCreated) PartitionKey() string { return e.EnrollmentID }

type EnrollmentSent struct {
	EnrollmentID string    `json:"enrollment_id"`
	PatientRef   string    `json:"patient_ref"`
	At           time.Time `json:"at"`
}

func (EnrollmentSent) Name() string { return "enrollment.sent" }

func (e EnrollmentSent) PartitionKey() string { return e.EnrollmentID }

type EnrollmentOpened struct {
	EnrollmentID string    `json:"enrollment_id"`
	PatientRef   string    `json:"patient_ref"`
	At           time.Time `json:"at"`
}

func (EnrollmentOpened) Name() string { return "enrollment.opened" }

func (e EnrollmentOpened) PartitionKey() string { return e.EnrollmentID }

type EnrollmentTermsAccepted struct {
	EnrollmentID string    `json:"enrollment_id"`
	PolicyRef    string    `json:"policy_ref"`
	At           time.Time `json:"at"`
}

func (EnrollmentTermsAccepted) Name() string { return "enrollment.terms_accepted" }

func (e EnrollmentTermsAccepted) PartitionKey() string { return e.EnrollmentID }

type EnrollmentProcessing struct {
	EnrollmentID string    `json:"enrollment_id"`
	GatewayRef   string    `json:"gateway_ref"`
	At           time.Time `json:"at"`
}

func (EnrollmentProcessing) Name() string { return "enrollment.processing" }

func (e EnrollmentProcessing) PartitionKey() string { return e.EnrollmentID }

type EnrollmentPaid struct {
	EnrollmentID string    `json:"enrollment_id"`
	PatientRef   string    `json:"patient_ref"`
	Amount       int64     `json:"amount"`
	GatewayRef   string    `json:"gateway_ref"`
	At           time.Time `json:"at"`
}

func (EnrollmentPaid) Name() string { return "enrollment.paid" }

func (e EnrollmentPaid) PartitionKey() string { return e.EnrollmentID }

type EnrollmentFailed struct {
	EnrollmentID string    `json:"enrollment_id"`
	PatientRef   string    `json:"patient_ref"`
	Reason       string    `json:"reason"`
	At           time.Time `json:"at"`
}

func (EnrollmentFailed) Name() string { return "enrollment.failed" }

func (e EnrollmentFailed) PartitionKey() string { return e.EnrollmentID }

type EnrollmentExpired struct {
	EnrollmentID string    `json:"enrollment_id"`
	PatientRef   string    `json:"patient_ref"`
	Source       string    `json:"source"`
	At           time.Time `json:"at"`
}

func (EnrollmentExpired) Name() string { return "enrollment.expired" }

func (e EnrollmentExpired) PartitionKey() string { return e.EnrollmentID }

type EnrollmentCanceled struct {
	EnrollmentID string    `json:"enrollment_id"`
	PatientRef   string    `json:"patient_ref"`
	Reason       string    `json:"reason"`
	At           time.Time `json:"at"`
}

func (EnrollmentCanceled) Name() string { return "enrollment.canceled" }

func (e EnrollmentCanceled) PartitionKey() string { return e.EnrollmentID }

type EnrollmentRegenerated struct {
	EnrollmentID string    `json:"enrollment_id"`
	PatientRef   string    `json:"patient_ref"`
	ExpiresAt    time.Time `json:"expires_at"`
	At           time.Time `json:"at"`
}

func (EnrollmentRegenerated) Name() string { return "enrollment.regenerated" }

func (e EnrollmentRegenerated) PartitionKey() string { return e.EnrollmentID }

type CRMSyncExhausted struct {
	EnrollmentID string    `json:"enrollment_id"`
	Module       string    `json:"module"`
	RecordID     string    `json:"record_id"`
	Status       string    `json:"status"`
	Reason       string    `json:"reason"`
	ErrorCode    string    `json:"error_code"`
	Attempts     int       `json:"attempts"`
	At           time.Time `json:"at"`
}

func (CRMSyncExhausted) Name() string { return "crm.sync_exhausted" }

func (e CRMSyncExhausted) PartitionKey() string { return e.EnrollmentID }
