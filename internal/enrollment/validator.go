package enrollment

import (
	"errors"
	"time"
)

var (
	ErrInvalidEnrollment = errors.New("invalid enrollment")
	ErrPastExpiry        = errors.New("expiry must be in the future")
	ErrNotRegenerable    = errors.New("enrollment cannot be regenerated")
)

type CreateRequest struct {
	PatientRef  string
	Amount      int64
	Currency    string
	PolicyRef   string
	ExpiresAt   time.Time
	CRMModule   string
	CRMRecordID string
}

func ValidateCreateRequest(r CreateRequest, now time.Time) error {
	if r.PatientRef == "" || r.Amount <= 0 || len(r.Currency) != 3 {
		return ErrInvalidEnrollment
	}
	// CRM linkage is all-or-nothing.
	if (r.CRMModule == "") != (r.CRMRecordID == "") {
		return ErrInvalidEnrollment
	}
	if !r.ExpiresAt.IsZero() && !r.ExpiresAt.After(now) {
		return ErrPastExpiry
	}
	return nil
}

type RegenerateRequest struct {
	EnrollmentID string
	ExpiresAt    time.Time
}

func ValidateRegenerateRequest(r RegenerateRequest, now time.Time) error {
	if r.EnrollmentID == "" {
		return ErrInvalidEnrollment
	}
	if !r.ExpiresAt.IsZero() && !r.ExpiresAt.After(now) {
		return ErrPastExpiry
	}
	return nil
}
