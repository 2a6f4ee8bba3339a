package handlers

import (
	"context"
	"errors"

	"depositlink/internal/enrollment"
	"depositlink/kit/broker"
)

var ErrUnexpectedEventType = errors.New("unexpected")

// BusContract defines the publish responsibility used by consumer handlers.
type BusContract = broker.Publisher

// EnrollmentReaderContract is the slice of the enrollment service consumers
// need: resolving a row to find its CRM linkage.
type EnrollmentReaderContract interface {
	Get(ctx context.Context, enrollmentID string) (*enrollment.Enrollment, error)
}
