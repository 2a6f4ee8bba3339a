package handlers

import (
	"context"

	"depositlink/internal/enrollment"
	"depositlink/kit/broker"
	"depositlink/kit/crm"

	"github.com/stretchr/testify/mock"
)

type BusMock struct {
	mock.Mock
	BusContract
}

func (m *BusMock) Publish(ctx context.Context, evt broker.Event) []error {
	args := m.Called(ctx, evt)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]error)
}

type CRMMock struct {
	mock.Mock
	crm.Client
}

func (m *CRMMock) UpdateRecord(ctx context.Context, module, recordID string, fields map[string]any) error {
	args := m.Called(ctx, module, recordID, fields)
	return args.Error(0)
}

func (m *CRMMock) AddNote(ctx context.Context, module, recordID, title, body string) error {
	args := m.Called(ctx, module, recordID, title, body)
	return args.Error(0)
}

type EnrollmentReaderMock struct {
	mock.Mock
	EnrollmentReaderContract
}

func (m *EnrollmentReaderMock) Get(ctx context.Context, enrollmentID string) (*enrollment.Enrollment, error) {
	args := m.Called(ctx, enrollmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*enrollment.Enrollment), args.Error(1)
}

type AuditorMock struct {
	mock.Mock
	AuditorContract
}

func (m *AuditorMock) Record(ctx context.Context, eventName string, fields map[string]any) {
	m.Called(ctx, eventName, fields)
}

type NotifierMock struct {
	mock.Mock
	NotifierContract
}

func (m *NotifierMock) Notify(ctx context.Context, patientRef string, msg string) {
	m.Called(ctx, patientRef, msg)
}

type MetricsMock struct {
	mock.Mock
	MetricsContract
}

func (m *MetricsMock) EnrollmentsCreatedAdd(n int64)     { m.Called(n) }
func (m *MetricsMock) EnrollmentsOpenedAdd(n int64)      { m.Called(n) }
func (m *MetricsMock) EnrollmentsPaidAdd(n int64)        { m.Called(n) }
func (m *MetricsMock) EnrollmentsFailedAdd(n int64)      { m.Called(n) }
func (m *MetricsMock) EnrollmentsExpiredAdd(n int64)     { m.Called(n) }
func (m *MetricsMock) EnrollmentsRegeneratedAdd(n int64) { m.Called(n) }
func (m *MetricsMock) CRMSyncFailuresAdd(n int64)        { m.Called(n) }
