package enrollment

import (
	"context"
	"testing"
	"time"

	"depositlink/kit/db"

	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	sqlDB, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return NewSQLiteRepository(sqlDB)
}

func seedEnrollment(t *testing.T, repo *SQLiteRepository, id, tokenHash string, status Status, expiresAt time.Time) *Enrollment {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Millisecond)
	e := &Enrollment{
		ID:         id,
		PatientRef: "pt_1",
		Amount:     125000,
		Currency:   "USD",
		Status:     status,
		TokenHash:  tokenHash,
		TokenLast4: "abcd",
		PolicyRef:  "tos-v3",
		ExpiresAt:  expiresAt.Truncate(time.Millisecond),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, repo.Insert(context.Background(), e))
	return e
}

func TestSQLiteRepository_InsertAndGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	future := time.Now().UTC().Add(time.Hour)

	e := seedEnrollment(t, repo, "en_1", "hash-1", StatusCreated, future)

	byID, err := repo.GetByID(ctx, "en_1")
	require.NoError(t, err)
	require.Equal(t, e.PatientRef, byID.PatientRef)
	require.Equal(t, e.Amount, byID.Amount)
	require.Equal(t, StatusCreated, byID.Status)
	require.Equal(t, e.ExpiresAt, byID.ExpiresAt)
	require.Nil(t, byID.OpenedAt)

	byHash, err := repo.GetByTokenHash(ctx, "hash-1")
	require.NoError(t, err)
	require.Equal(t, "en_1", byHash.ID)

	_, err = repo.GetByTokenHash(ctx, "no-such-hash")
	require.ErrorIs(t, err, db.ErrNotFound)

	_, err = repo.GetByID(ctx, "no-such-id")
	require.ErrorIs(t, err, db.ErrNotFound)
}

func TestSQLiteRepository_TokenHashUnique(t *testing.T) {
	repo := newTestRepo(t)
	future := time.Now().UTC().Add(time.Hour)

	seedEnrollment(t, repo, "en_1", "same-hash", StatusCreated, future)

	dup := &Enrollment{
		ID:         "en_2",
		PatientRef: "pt_2",
		Amount:     100,
		Currency:   "USD",
		Status:     StatusCreated,
		TokenHash:  "same-hash",
		ExpiresAt:  future,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}
	require.ErrorIs(t, repo.Insert(context.Background(), dup), db.ErrConflict)
}

func TestSQLiteRepository_UpdateStatusIf(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	past := time.Now().UTC().Add(-time.Hour)

	e := seedEnrollment(t, repo, "en_1", "hash-1", StatusOpened, past)

	now := time.Now().UTC()
	expired := *e
	expired.Status = StatusExpired
	expired.ExpiredAt = &now
	expired.UpdatedAt = now

	updated, err := repo.UpdateStatusIf(ctx, &expired, SweepableStatuses)
	require.NoError(t, err)
	require.True(t, updated)

	// Second guarded write must miss: the row is no longer sweepable.
	updated, err = repo.UpdateStatusIf(ctx, &expired, SweepableStatuses)
	require.NoError(t, err)
	require.False(t, updated)

	got, err := repo.GetByID(ctx, "en_1")
	require.NoError(t, err)
	require.Equal(t, StatusExpired, got.Status)
	require.NotNil(t, got.ExpiredAt)
}

func TestSQLiteRepository_ListOverdue(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	seedEnrollment(t, repo, "en_due_sent", "h1", StatusSent, now.Add(-2*time.Hour))
	seedEnrollment(t, repo, "en_due_open", "h2", StatusOpened, now.Add(-time.Hour))
	seedEnrollment(t, repo, "en_due_processing", "h3", StatusProcessing, now.Add(-time.Hour))
	seedEnrollment(t, repo, "en_due_paid", "h4", StatusPaid, now.Add(-time.Hour))
	seedEnrollment(t, repo, "en_fresh", "h5", StatusCreated, now.Add(time.Hour))

	overdue, err := repo.ListOverdue(ctx, now, SweepableStatuses, 50)
	require.NoError(t, err)
	require.Len(t, overdue, 2)
	require.Equal(t, "en_due_sent", overdue[0].ID)
	require.Equal(t, "en_due_open", overdue[1].ID)

	limited, err := repo.ListOverdue(ctx, now, SweepableStatuses, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
}

func TestSQLiteRepository_Update(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	future := time.Now().UTC().Add(time.Hour)

	e := seedEnrollment(t, repo, "en_1", "hash-1", StatusExpired, future)

	e.Status = StatusCreated
	e.TokenHash = "hash-2"
	e.TokenLast4 = "wxyz"
	e.UpdatedAt = time.Now().UTC()
	require.NoError(t, repo.Update(ctx, e))

	got, err := repo.GetByTokenHash(ctx, "hash-2")
	require.NoError(t, err)
	require.Equal(t, "en_1", got.ID)
	require.Equal(t, StatusCreated, got.Status)

	missing := *e
	missing.ID = "no-such-id"
	require.ErrorIs(t, repo.Update(ctx, &missing), db.ErrNotFound)
}
