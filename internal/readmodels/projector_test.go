package readmodels

import (
	"context"
	"testing"
	"time"

	"depositlink/internal/enrollment"
	"depositlink/internal/events"
	"depositlink/kit/db"

	"github.com/stretchr/testify/require"
)

func TestProjector_Apply(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("lifecycle folds into a single view", func(t *testing.T) {
		p := NewProjector()

		require.NoError(t, p.Apply(ctx, events.EnrollmentCreated{EnrollmentID: "e1", PatientRef: "pat-1", Amount: 2500, Currency: "USD", ExpiresAt: now.Add(time.Hour), At: now}))
		require.NoError(t, p.Apply(ctx, events.EnrollmentSent{EnrollmentID: "e1", PatientRef: "pat-1", At: now}))
		require.NoError(t, p.Apply(ctx, events.EnrollmentOpened{EnrollmentID: "e1", PatientRef: "pat-1", At: now}))
		require.NoError(t, p.Apply(ctx, events.EnrollmentProcessing{EnrollmentID: "e1", GatewayRef: "gw-9", At: now}))
		require.NoError(t, p.Apply(ctx, events.EnrollmentPaid{EnrollmentID: "e1", PatientRef: "pat-1", Amount: 2500, GatewayRef: "gw-9", At: now}))

		v, ok := p.GetEnrollment("e1")
		require.True(t, ok)
		require.Equal(t, enrollment.StatusPaid, v.Status)
		require.Equal(t, "gw-9", v.GatewayRef)
		require.EqualValues(t, 2500, v.Amount)
	})

	t.Run("regeneration resets reason and gateway ref", func(t *testing.T) {
		p := NewProjector()

		require.NoError(t, p.Apply(ctx, events.EnrollmentCreated{EnrollmentID: "e1", PatientRef: "pat-1", Amount: 100, Currency: "USD", At: now}))
		require.NoError(t, p.Apply(ctx, events.EnrollmentFailed{EnrollmentID: "e1", PatientRef: "pat-1", Reason: "card_declined", At: now}))

		v, _ := p.GetEnrollment("e1")
		require.Equal(t, enrollment.StatusFailed, v.Status)
		require.Equal(t, "card_declined", v.Reason)

		require.NoError(t, p.Apply(ctx, events.EnrollmentRegenerated{EnrollmentID: "e1", PatientRef: "pat-1", ExpiresAt: now.Add(time.Hour), At: now}))
		v, _ = p.GetEnrollment("e1")
		require.Equal(t, enrollment.StatusCreated, v.Status)
		require.Empty(t, v.Reason)
		require.Empty(t, v.GatewayRef)
	})

	t.Run("unknown events are ignored", func(t *testing.T) {
		p := NewProjector()
		require.NoError(t, p.Apply(ctx, events.CRMSyncExhausted{EnrollmentID: "e1"}))
		_, ok := p.GetEnrollment("e1")
		require.False(t, ok)
	})
}

func TestProjector_Funnel(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()
	p := NewProjector()

	require.NoError(t, p.Apply(ctx, events.EnrollmentCreated{EnrollmentID: "e1", At: now}))
	require.NoError(t, p.Apply(ctx, events.EnrollmentCreated{EnrollmentID: "e2", At: now}))
	require.NoError(t, p.Apply(ctx, events.EnrollmentSent{EnrollmentID: "e2", At: now}))
	require.NoError(t, p.Apply(ctx, events.EnrollmentCreated{EnrollmentID: "e3", At: now}))
	require.NoError(t, p.Apply(ctx, events.EnrollmentPaid{EnrollmentID: "e3", At: now}))

	c := p.Funnel()
	require.EqualValues(t, 1, c.Created)
	require.EqualValues(t, 1, c.Sent)
	require.EqualValues(t, 1, c.Paid)
	require.EqualValues(t, 0, c.Expired)
}

func TestProjector_Replay(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	sqlDB, err := db.OpenMemory()
	require.NoError(t, err)
	defer func() { _ = sqlDB.Close() }()
	store := db.NewStore(sqlDB)

	require.NoError(t, store.Append(ctx, "e1", events.EnrollmentCreated{EnrollmentID: "e1", PatientRef: "pat-1", Amount: 500, Currency: "USD", At: now}))
	require.NoError(t, store.Append(ctx, "e1", events.EnrollmentOpened{EnrollmentID: "e1", PatientRef: "pat-1", At: now}))
	require.NoError(t, store.Append(ctx, "e1", events.EnrollmentExpired{EnrollmentID: "e1", PatientRef: "pat-1", Source: "sweep", At: now}))

	p := NewProjector()
	require.NoError(t, p.Replay(ctx, store))

	v, ok := p.GetEnrollment("e1")
	require.True(t, ok)
	require.Equal(t, enrollment.StatusExpired, v.Status)
	require.EqualValues(t, 1, p.Funnel().Expired)
}
