package enrollment

import "time"

type Status string

const (
	StatusCreated    Status = "created"
	StatusSent       Status = "sent"
	StatusOpened     Status = "opened"
	StatusProcessing Status = "processing"
	StatusPaid       Status = "paid"
	StatusFailed     Status = "failed"
	StatusExpired    Status = "expired"
	StatusCanceled   Status = "canceled"
)

// SweepableStatuses are the states an enrollment can be expired from, lazily
// on fetch or by the batch sweeper. A payment in flight (processing) is never
// expired from under the gateway.
var SweepableStatuses = []Status{StatusCreated, StatusSent, StatusOpened}

// RegenerableStatuses are the terminal states an enrollment may be reset from.
var RegenerableStatuses = []Status{StatusFailed, StatusExpired, StatusCanceled}

func (s Status) Terminal() bool {
	switch s {
	case StatusPaid, StatusFailed, StatusExpired, StatusCanceled:
		return true
	}
	return false
}

func (s Status) Sweepable() bool {
	for _, st := range SweepableStatuses {
		if s == st {
			return true
		}
	}
	return false
}

func (s Status) Regenerable() bool {
	for _, st := range RegenerableStatuses {
		if s == st {
			return true
		}
	}
	return false
}

type Enrollment struct {
	ID         string
	PatientRef string
	Amount     int64
	Currency   string
	Status     Status

	TokenHash  string
	TokenLast4 string
	PolicyRef  string

	CRMModule   string
	CRMRecordID string

	GatewayRef string
	FailReason string

	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time

	SentAt          *time.Time
	OpenedAt        *time.Time
	ProcessingAt    *time.Time
	PaidAt          *time.Time
	FailedAt        *time.Time
	ExpiredAt       *time.Time
	CanceledAt      *time.Time
	TermsAcceptedAt *time.Time
}

// FromCRM reports whether the enrollment originated from a CRM record and
// should be kept in sync.
func (e *Enrollment) FromCRM() bool {
	return e.CRMModule != "" && e.CRMRecordID != ""
}
