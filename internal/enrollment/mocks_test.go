package enrollment

import (
	"context"
	"time"

	"depositlink/kit/broker"

	"github.com/stretchr/testify/mock"
)

type RepositoryMock struct {
	mock.Mock
	RepositoryContract
}

func (m *RepositoryMock) Insert(ctx context.Context, e *Enrollment) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *RepositoryMock) GetByID(ctx context.Context, id string) (*Enrollment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Enrollment), args.Error(1)
}

func (m *RepositoryMock) GetByTokenHash(ctx context.Context, tokenHash string) (*Enrollment, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Enrollment), args.Error(1)
}

func (m *RepositoryMock) Update(ctx context.Context, e *Enrollment) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *RepositoryMock) UpdateStatusIf(ctx context.Context, e *Enrollment, expected []Status) (bool, error) {
	args := m.Called(ctx, e, expected)
	return args.Bool(0), args.Error(1)
}

func (m *RepositoryMock) ListOverdue(ctx context.Context, now time.Time, statuses []Status, limit int) ([]*Enrollment, error) {
	args := m.Called(ctx, now, statuses, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Enrollment), args.Error(1)
}

type PublisherMock struct {
	mock.Mock
	PublisherContract
}

func (m *PublisherMock) Publish(ctx context.Context, evt broker.Event) []error {
	args := m.Called(ctx, evt)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]error)
}

type StoreMock struct {
	mock.Mock
	StoreContract
}

func (m *StoreMock) Append(ctx context.Context, aggregateID string, evt broker.Event) error {
	args := m.Called(ctx, aggregateID, evt)
	return args.Error(0)
}
