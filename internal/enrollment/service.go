package enrollment

import (
	"context"
	"errors"
	"log"
	"time"

	"depositlink/kit/broker"
	"depositlink/kit/db"
	"depositlink/kit/observability"

	"github.com/google/uuid"
)

const (
	expirySourceFetch = "fetch"
	expirySourceSweep = "sweep"
)

type Service struct {
	bus        PublisherContract
	store      StoreContract
	repository RepositoryContract
	metrics    *observability.Metrics
	defaultTTL time.Duration
}

func NewService(bus PublisherContract, store StoreContract, repo RepositoryContract, metrics *observability.Metrics, defaultTTL time.Duration) *Service {
	if defaultTTL <= 0 {
		defaultTTL = 14 * 24 * time.Hour
	}
	return &Service{
		bus:        bus,
		store:      store,
		repository: repo,
		metrics:    metrics,
		defaultTTL: defaultTTL,
	}
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (*Enrollment, string, error) {
	now := time.Now().UTC()
	if err := ValidateCreateRequest(req, now); err != nil {
		log.Printf("layer=service component=enrollment method=Create patient_ref=%s amount=%d err=%v", req.PatientRef, req.Amount, err)
		return nil, "", errors.Join(db.ErrInvalid, err)
	}

	plain, hash, last4, err := NewToken()
	if err != nil {
		log.Printf("layer=service component=enrollment method=Create patient_ref=%s err=%v", req.PatientRef, err)
		return nil, "", errors.Join(db.ErrInternal, err)
	}

	expiresAt := req.ExpiresAt
	if expiresAt.IsZero() {
		expiresAt = now.Add(s.defaultTTL)
	}

	e := &Enrollment{
		ID:          uuid.NewString(),
		PatientRef:  req.PatientRef,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Status:      StatusCreated,
		TokenHash:   hash,
		TokenLast4:  last4,
		PolicyRef:   req.PolicyRef,
		CRMModule:   req.CRMModule,
		CRMRecordID: req.CRMRecordID,
		ExpiresAt:   expiresAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repository.Insert(ctx, e); err != nil {
		log.Printf("layer=service component=enrollment method=Create patient_ref=%s err=%v", req.PatientRef, err)
		return nil, "", err
	}

	s.emit(ctx, e.ID, ToCreatedEvent(e))
	if s.metrics != nil {
		s.metrics.EnrollmentsCreated.Add(1)
	}
	return e, plain, nil
}

// FetchByToken resolves a capability token and applies the lazy transitions:
// first fetch moves created/sent to opened, a fetch past the expiry moves a
// sweepable row to expired. The optimistic status guard keeps either
// transition from firing twice when a concurrent fetch or sweep races it.
func (s *Service) FetchByToken(ctx context.Context, plainToken string) (*Enrollment, error) {
	e, err := s.repository.GetByTokenHash(ctx, HashToken(plainToken))
	if err != nil {
		log.Printf("layer=service component=enrollment method=FetchByToken err=%v", err)
		return nil, err
	}

	now := time.Now().UTC()
	if e.Status.Sweepable() && now.After(e.ExpiresAt) {
		expired := *e
		expired.Status = StatusExpired
		expired.ExpiredAt = &now
		expired.UpdatedAt = now
		updated, err := s.repository.UpdateStatusIf(ctx, &expired, SweepableStatuses)
		if err != nil {
			log.Printf("layer=service component=enrollment method=FetchByToken enrollment_id=%s err=%v", e.ID, err)
			return nil, err
		}
		if updated {
			s.emit(ctx, e.ID, ToExpiredEvent(&expired, expirySourceFetch))
			if s.metrics != nil {
				s.metrics.EnrollmentsExpired.Add(1)
			}
			return &expired, nil
		}
		// Lost the race; re-read whatever state won.
		return s.repository.GetByID(ctx, e.ID)
	}

	if e.Status == StatusCreated || e.Status == StatusSent {
		opened := *e
		opened.Status = StatusOpened
		opened.OpenedAt = &now
		opened.UpdatedAt = now
		updated, err := s.repository.UpdateStatusIf(ctx, &opened, []Status{StatusCreated, StatusSent})
		if err != nil {
			log.Printf("layer=service component=enrollment method=FetchByToken enrollment_id=%s err=%v", e.ID, err)
			return nil, err
		}
		if updated {
			s.emit(ctx, e.ID, ToOpenedEvent(&opened))
			if s.metrics != nil {
				s.metrics.EnrollmentsOpened.Add(1)
			}
			return &opened, nil
		}
		return s.repository.GetByID(ctx, e.ID)
	}

	return e, nil
}

func (s *Service) MarkSent(ctx context.Context, enrollmentID string) error {
	return s.transition(ctx, enrollmentID, []Status{StatusCreated}, func(e *Enrollment, now time.Time) broker.Event {
		e.Status = StatusSent
		e.SentAt = &now
		return ToSentEvent(e)
	}, nil)
}

func (s *Service) AcceptTerms(ctx context.Context, plainToken, policyRef string) error {
	e, err := s.repository.GetByTokenHash(ctx, HashToken(plainToken))
	if err != nil {
		log.Printf("layer=service component=enrollment method=AcceptTerms err=%v", err)
		return err
	}
	if e.Status.Terminal() {
		log.Printf("layer=service component=enrollment method=AcceptTerms enrollment_id=%s status=%s err=terminal", e.ID, e.Status)
		return db.ErrConflict
	}

	now := time.Now().UTC()
	e.TermsAcceptedAt = &now
	if policyRef != "" {
		e.PolicyRef = policyRef
	}
	e.UpdatedAt = now
	if err := s.repository.Update(ctx, e); err != nil {
		log.Printf("layer=service component=enrollment method=AcceptTerms enrollment_id=%s err=%v", e.ID, err)
		return err
	}
	s.emit(ctx, e.ID, ToTermsAcceptedEvent(e))
	return nil
}

func (s *Service) MarkProcessing(ctx context.Context, enrollmentID, gatewayRef string) error {
	return s.transition(ctx, enrollmentID, []Status{StatusCreated, StatusSent, StatusOpened}, func(e *Enrollment, now time.Time) broker.Event {
		e.Status = StatusProcessing
		e.ProcessingAt = &now
		e.GatewayRef = gatewayRef
		return ToProcessingEvent(e)
	}, nil)
}

func (s *Service) MarkPaid(ctx context.Context, enrollmentID, gatewayRef string) error {
	return s.transition(ctx, enrollmentID, []Status{StatusCreated, StatusSent, StatusOpened, StatusProcessing}, func(e *Enrollment, now time.Time) broker.Event {
		e.Status = StatusPaid
		e.PaidAt = &now
		if gatewayRef != "" {
			e.GatewayRef = gatewayRef
		}
		return ToPaidEvent(e)
	}, func() {
		if s.metrics != nil {
			s.metrics.EnrollmentsPaid.Add(1)
		}
	})
}

func (s *Service) MarkFailed(ctx context.Context, enrollmentID, reason string) error {
	return s.transition(ctx, enrollmentID, []Status{StatusCreated, StatusSent, StatusOpened, StatusProcessing}, func(e *Enrollment, now time.Time) broker.Event {
		e.Status = StatusFailed
		e.FailedAt = &now
		e.FailReason = reason
		return ToFailedEvent(e, reason)
	}, func() {
		if s.metrics != nil {
			s.metrics.EnrollmentsFailed.Add(1)
		}
	})
}

func (s *Service) Cancel(ctx context.Context, enrollmentID, reason string) error {
	return s.transition(ctx, enrollmentID, []Status{StatusCreated, StatusSent, StatusOpened, StatusProcessing}, func(e *Enrollment, now time.Time) broker.Event {
		e.Status = StatusCanceled
		e.CanceledAt = &now
		e.FailReason = reason
		return ToCanceledEvent(e, reason)
	}, nil)
}

// Regenerate resets a dead enrollment to a fresh token and a clean created
// state. Paid and processing enrollments are never regenerated.
func (s *Service) Regenerate(ctx context.Context, req RegenerateRequest) (*Enrollment, string, error) {
	now := time.Now().UTC()
	if err := ValidateRegenerateRequest(req, now); err != nil {
		log.Printf("layer=service component=enrollment method=Regenerate enrollment_id=%s err=%v", req.EnrollmentID, err)
		return nil, "", errors.Join(db.ErrInvalid, err)
	}

	e, err := s.repository.GetByID(ctx, req.EnrollmentID)
	if err != nil {
		log.Printf("layer=service component=enrollment method=Regenerate enrollment_id=%s err=%v", req.EnrollmentID, err)
		return nil, "", err
	}
	if !e.Status.Regenerable() {
		log.Printf("layer=service component=enrollment method=Regenerate enrollment_id=%s status=%s err=%v", e.ID, e.Status, ErrNotRegenerable)
		return nil, "", errors.Join(db.ErrConflict, ErrNotRegenerable)
	}

	plain, hash, last4, err := NewToken()
	if err != nil {
		log.Printf("layer=service component=enrollment method=Regenerate enrollment_id=%s err=%v", e.ID, err)
		return nil, "", errors.Join(db.ErrInternal, err)
	}

	expiresAt := req.ExpiresAt
	if expiresAt.IsZero() {
		expiresAt = now.Add(s.defaultTTL)
	}

	e.Status = StatusCreated
	e.TokenHash = hash
	e.TokenLast4 = last4
	e.ExpiresAt = expiresAt
	e.GatewayRef = ""
	e.FailReason = ""
	e.SentAt = nil
	e.OpenedAt = nil
	e.ProcessingAt = nil
	e.PaidAt = nil
	e.FailedAt = nil
	e.ExpiredAt = nil
	e.CanceledAt = nil
	e.TermsAcceptedAt = nil
	e.UpdatedAt = now

	if err := s.repository.Update(ctx, e); err != nil {
		log.Printf("layer=service component=enrollment method=Regenerate enrollment_id=%s err=%v", e.ID, err)
		return nil, "", err
	}

	s.emit(ctx, e.ID, ToRegeneratedEvent(e))
	if s.metrics != nil {
		s.metrics.EnrollmentsRegenerated.Add(1)
	}
	return e, plain, nil
}

// SweepExpired batch-expires overdue enrollments. Each row is guarded on its
// current status, so a row a concurrent fetch already expired counts zero
// here.
func (s *Service) SweepExpired(ctx context.Context, now time.Time, limit int) (int, error) {
	if now.IsZero() {
		now = time.Now().UTC()
	}
	overdue, err := s.repository.ListOverdue(ctx, now, SweepableStatuses, limit)
	if err != nil {
		log.Printf("layer=service component=enrollment method=SweepExpired err=%v", err)
		return 0, err
	}

	swept := 0
	for _, e := range overdue {
		expired := *e
		expired.Status = StatusExpired
		expired.ExpiredAt = &now
		expired.UpdatedAt = now
		updated, err := s.repository.UpdateStatusIf(ctx, &expired, SweepableStatuses)
		if err != nil {
			log.Printf("layer=service component=enrollment method=SweepExpired enrollment_id=%s err=%v", e.ID, err)
			continue
		}
		if !updated {
			continue
		}
		swept++
		s.emit(ctx, e.ID, ToExpiredEvent(&expired, expirySourceSweep))
		if s.metrics != nil {
			s.metrics.EnrollmentsExpired.Add(1)
		}
	}
	return swept, nil
}

func (s *Service) Get(ctx context.Context, enrollmentID string) (*Enrollment, error) {
	e, err := s.repository.GetByID(ctx, enrollmentID)
	if err != nil {
		log.Printf("layer=service component=enrollment method=Get enrollment_id=%s err=%v", enrollmentID, err)
		return nil, err
	}
	return e, nil
}

func (s *Service) transition(ctx context.Context, enrollmentID string, expected []Status, apply func(e *Enrollment, now time.Time) broker.Event, onDone func()) error {
	e, err := s.repository.GetByID(ctx, enrollmentID)
	if err != nil {
		log.Printf("layer=service component=enrollment method=transition enrollment_id=%s err=%v", enrollmentID, err)
		return err
	}

	now := time.Now().UTC()
	e.UpdatedAt = now
	evt := apply(e, now)

	updated, err := s.repository.UpdateStatusIf(ctx, e, expected)
	if err != nil {
		log.Printf("layer=service component=enrollment method=transition enrollment_id=%s status=%s err=%v", enrollmentID, e.Status, err)
		return err
	}
	if !updated {
		log.Printf("layer=service component=enrollment method=transition enrollment_id=%s status=%s err=%v", enrollmentID, e.Status, db.ErrConflict)
		return db.ErrConflict
	}

	s.emit(ctx, e.ID, evt)
	if onDone != nil {
		onDone()
	}
	return nil
}

// emit appends to the event store and publishes on the bus. Both are
// best-effort; the row transition already landed.
func (s *Service) emit(ctx context.Context, enrollmentID string, evt broker.Event) {
	if s.store != nil {
		_ = s.store.Append(ctx, enrollmentID, evt)
	}
	if s.bus != nil {
		s.bus.Publish(ctx, evt)
	}
}
