package handlers

import (
	"context"

	"depositlink/internal/events"
	"depositlink/kit/broker"
)

type MetricsContract interface {
	EnrollmentsCreatedAdd(n int64)
	EnrollmentsOpenedAdd(n int64)
	EnrollmentsPaidAdd(n int64)
	EnrollmentsFailedAdd(n int64)
	EnrollmentsExpiredAdd(n int64)
	EnrollmentsRegeneratedAdd(n int64)
	CRMSyncFailuresAdd(n int64)
}

type MetricsEvent struct {
	m MetricsContract
}

func NewMetricsEvent(m MetricsContract) *MetricsEvent {
	return &MetricsEvent{m: m}
}

func (h *MetricsEvent) HandleAny(ctx context.Context, evt broker.Event) error {
	if h.m == nil {
		return nil
	}

	switch evt.(type) {
	case events.CRMSyncExhausted:
		h.m.CRMSyncFailuresAdd(1)
	}
	return nil
}
