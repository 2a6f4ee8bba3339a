package observability

import "sync/atomic"

type Metrics struct {
	EnrollmentsCreated     atomic.Int64
	EnrollmentsOpened      atomic.Int64
	EnrollmentsPaid        atomic.Int64
	EnrollmentsFailed      atomic.Int64
	EnrollmentsExpired     atomic.Int64
	EnrollmentsRegenerated atomic.Int64
	CRMSyncFailures        atomic.Int64
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) EnrollmentsCreatedAdd(n int64) {
	m.EnrollmentsCreated.Add(n)
}

func (m *Metrics) EnrollmentsOpenedAdd(n int64) {
	m.EnrollmentsOpened.Add(n)
}

func (m *Metrics) EnrollmentsPaidAdd(n int64) {
	m.EnrollmentsPaid.Add(n)
}

func (m *Metrics) EnrollmentsFailedAdd(n int64) {
	m.EnrollmentsFailed.Add(n)
}

func (m *Metrics) EnrollmentsExpiredAdd(n int64) {
	m.EnrollmentsExpired.Add(n)
}

func (m *Metrics) EnrollmentsRegeneratedAdd(n int64) {
	m.EnrollmentsRegenerated.Add(n)
}

func (m *Metrics) CRMSyncFailuresAdd(n int64) {
	m.CRMSyncFailures.Add(n)
}

func (m *Metrics) Snapshot() map[string]int64 {
	return map[string]int64{
		"enrollments_created":     m.EnrollmentsCreated.Load(),
		"enrollments_opened":      m.EnrollmentsOpened.Load(),
		"enrollments_paid":        m.EnrollmentsPaid.Load(),
		"enrollments_failed":      m.EnrollmentsFailed.Load(),
		"enrollments_expired":     m.EnrollmentsExpired.Load(),
		"enrollments_regenerated": m.EnrollmentsRegenerated.Load(),
		"crm_sync_failures":       m.CRMSyncFailures.Load(),
	}
}
