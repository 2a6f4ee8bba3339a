package readmodels

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"depositlink/internal/enrollment"
	"depositlink/internal/events"
	"depositlink/kit/broker"
	"depositlink/kit/db"
)

type EnrollmentView struct {
	EnrollmentID string
	PatientRef   string
	Amount       int64
	Currency     string
	Status       enrollment.Status
	Reason       string
	GatewayRef   string
	ExpiresAt    time.Time
	UpdatedAt    time.Time
}

// FunnelCounts feed the admin dashboard overview.
type FunnelCounts struct {
	Created    int64
	Sent       int64
	Opened     int64
	Processing int64
	Paid       int64
	Failed     int64
	Expired    int64
	Canceled   int64
}

type Projector struct {
	mu          sync.RWMutex
	enrollments map[string]EnrollmentView
}

func NewProjector() *Projector {
	return &Projector{enrollments: make(map[string]EnrollmentView)}
}

func (p *Projector) Replay(ctx context.Context, store *db.Store) error {
	recs, err := store.All(ctx)
	if err != nil {
		return err
	}
	for _, rec := range recs {
		if err := p.ApplyRecord(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

func (p *Projector) Apply(ctx context.Context, evt broker.Event) error {
	switch e := evt.(type) {
	case events.EnrollmentCreated:
		p.applyCreated(e)
	case events.EnrollmentSent:
		p.applyStatus(e.EnrollmentID, e.PatientRef, enrollment.StatusSent, "", e.At)
	case events.EnrollmentOpened:
		p.applyStatus(e.EnrollmentID, e.PatientRef, enrollment.StatusOpened, "", e.At)
	case events.EnrollmentProcessing:
		p.applyProcessing(e)
	case events.EnrollmentPaid:
		p.applyPaid(e)
	case events.EnrollmentFailed:
		p.applyStatus(e.EnrollmentID, e.PatientRef, enrollment.StatusFailed, e.Reason, e.At)
	case events.EnrollmentExpired:
		p.applyStatus(e.EnrollmentID, e.PatientRef, enrollment.StatusExpired, "", e.At)
	case events.EnrollmentCanceled:
		p.applyStatus(e.EnrollmentID, e.PatientRef, enrollment.StatusCanceled, e.Reason, e.At)
	case events.EnrollmentRegenerated:
		p.applyRegenerated(e)
	default:
		return nil
	}
	return nil
}

func (p *Projector) ApplyRecord(ctx context.Context, rec db.Record) error {
	decode := func(dst any) error {
		if err := json.Unmarshal(rec.Payload, dst); err != nil {
			return errors.Join(db.ErrInternal, err)
		}
		return nil
	}

	switch rec.EventName {
	case (events.EnrollmentCreated{}).Name():
		var e events.EnrollmentCreated
		if err := decode(&e); err != nil {
			return err
		}
		return p.Apply(ctx, e)
	case (events.EnrollmentSent{}).Name():
		var e events.EnrollmentSent
		if err := decode(&e); err != nil {
			return err
		}
		return p.Apply(ctx, e)
	case (events.EnrollmentOpened{}).Name():
		var e events.EnrollmentOpened
		if err := decode(&e); err != nil {
			return err
		}
		return p.Apply(ctx, e)
	case (events.EnrollmentProcessing{}).Name():
		var e events.EnrollmentProcessing
		if err := decode(&e); err != nil {
			return err
		}
		return p.Apply(ctx, e)
	case (events.EnrollmentPaid{}).Name():
		var e events.EnrollmentPaid
		if err := decode(&e); err != nil {
			return err
		}
		return p.Apply(ctx, e)
	case (events.EnrollmentFailed{}).Name():
		var e events.EnrollmentFailed
		if err := decode(&e); err != nil {
			return err
		}
		return p.Apply(ctx, e)
	case (events.EnrollmentExpired{}).Name():
		var e events.EnrollmentExpired
		if err := decode(&e); err != nil {
			return err
		}
		return p.Apply(ctx, e)
	case (events.EnrollmentCanceled{}).Name():
		var e events.EnrollmentCanceled
		if err := decode(&e); err != nil {
			return err
		}
		return p.Apply(ctx, e)
	case (events.EnrollmentRegenerated{}).Name():
		var e events.EnrollmentRegenerated
		if err := decode(&e); err != nil {
			return err
		}
		return p.Apply(ctx, e)
	default:
		return nil
	}
}

func (p *Projector) GetEnrollment(enrollmentID string) (EnrollmentView, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.enrollments[enrollmentID]
	return v, ok
}

func (p *Projector) Funnel() FunnelCounts {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var c FunnelCounts
	for _, v := range p.enrollments {
		switch v.Status {
		case enrollment.StatusCreated:
			c.Created++
		case enrollment.StatusSent:
			c.Sent++
		case enrollment.StatusOpened:
			c.Opened++
		case enrollment.StatusProcessing:
			c.Processing++
		case enrollment.StatusPaid:
			c.Paid++
		case enrollment.StatusFailed:
			c.Failed++
		case enrollment.StatusExpired:
			c.Expired++
		case enrollment.StatusCanceled:
			c.Canceled++
		}
	}
	return c
}

func (p *Projector) applyCreated(e events.EnrollmentCreated) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cur := p.enrollments[e.EnrollmentID]
	cur.EnrollmentID = e.EnrollmentID
	cur.PatientRef = e.PatientRef
	cur.Amount = e.Amount
	cur.Currency = e.Currency
	cur.Status = enrollment.StatusCreated
	cur.ExpiresAt = e.ExpiresAt
	cur.UpdatedAt = e.At
	p.enrollments[e.EnrollmentID] = cur
}

func (p *Projector) applyRegenerated(e events.EnrollmentRegenerated) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cur := p.enrollments[e.EnrollmentID]
	cur.EnrollmentID = e.EnrollmentID
	cur.PatientRef = e.PatientRef
	cur.Status = enrollment.StatusCreated
	cur.Reason = ""
	cur.GatewayRef = ""
	cur.ExpiresAt = e.ExpiresAt
	cur.UpdatedAt = e.At
	p.enrollments[e.EnrollmentID] = cur
}

func (p *Projector) applyProcessing(e events.EnrollmentProcessing) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cur := p.enrollments[e.EnrollmentID]
	cur.EnrollmentID = e.EnrollmentID
	cur.Status = enrollment.StatusProcessing
	cur.GatewayRef = e.GatewayRef
	cur.UpdatedAt = e.At
	p.enrollments[e.EnrollmentID] = cur
}

func (p *Projector) applyPaid(e events.EnrollmentPaid) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cur := p.enrollments[e.EnrollmentID]
	cur.EnrollmentID = e.EnrollmentID
	cur.PatientRef = e.PatientRef
	cur.Amount = e.Amount
	cur.Status = enrollment.StatusPaid
	cur.GatewayRef = e.GatewayRef
	cur.UpdatedAt = e.At
	p.enrollments[e.EnrollmentID] = cur
}

func (p *Projector) applyStatus(id, patientRef string, status enrollment.Status, reason string, at time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cur := p.enrollments[id]
	cur.EnrollmentID = id
	if patientRef != "" {
		cur.PatientRef = patientRef
	}
	cur.Status = status
	if reason != "" {
		cur.Reason = reason
	}
	cur.UpdatedAt = at
	p.enrollments[id] = cur
}
