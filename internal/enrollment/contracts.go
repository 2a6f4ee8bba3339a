package enrollment

import (
	"context"
	"time"

	"depositlink/kit/broker"
)

// RepositoryContract defines enrollment persistence responsibility.
type RepositoryContract interface {
	Insert(ctx context.Context, e *Enrollment) error
	GetByID(ctx context.Context, id string) (*Enrollment, error)
	GetByTokenHash(ctx context.Context, tokenHash string) (*Enrollment, error)
	Update(ctx context.Context, e *Enrollment) error
	// UpdateStatusIf transitions id to e's fields only if the stored status is
	// still one of expected; reports whether the row was updated.
	UpdateStatusIf(ctx context.Context, e *Enrollment, expected []Status) (bool, error)
	ListOverdue(ctx context.Context, now time.Time, statuses []Status, limit int) ([]*Enrollment, error)
}

// ServiceContract defines the enrollment lifecycle responsibility.
type ServiceContract interface {
	Create(ctx context.Context, req CreateRequest) (*Enrollment, string, error)
	FetchByToken(ctx context.Context, plainToken string) (*Enrollment, error)
	MarkSent(ctx context.Context, enrollmentID string) error
	AcceptTerms(ctx context.Context, plainToken, policyRef string) error
	MarkProcessing(ctx context.Context, enrollmentID, gatewayRef string) error
	MarkPaid(ctx context.Context, enrollmentID, gatewayRef string) error
	MarkFailed(ctx context.Context, enrollmentID, reason string) error
	Cancel(ctx context.Context, enrollmentID, reason string) error
	Regenerate(ctx context.Context, req RegenerateRequest) (*Enrollment, string, error)
	SweepExpired(ctx context.Context, now time.Time, limit int) (int, error)
	Get(ctx context.Context, enrollmentID string) (*Enrollment, error)
}

// PublisherContract defines publish responsibility (broker).
type PublisherContract interface {
	Publish(ctx context.Context, evt broker.Event) []error
}

// StoreContract defines append responsibility (event store).
type StoreContract interface {
	Append(ctx context.Context, aggregateID string, evt broker.Event) error
}
