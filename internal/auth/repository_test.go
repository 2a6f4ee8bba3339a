package auth

import (
	"context"
	"testing"
	"time"

	"depositlink/kit/db"

	"github.com/stretchr/testify/require"
)

func newAdmin(id, email string) *Admin {
	return &Admin{
		ID:           id,
		Email:        email,
		PasswordHash: "$2a$10$hash",
		CreatedAt:    time.Now().UTC(),
	}
}

func TestSQLiteRepository_Admins(t *testing.T) {
	ctx := context.Background()

	t.Run("insert and fetch by email is case-insensitive", func(t *testing.T) {
		sqlDB, err := db.OpenMemory()
		require.NoError(t, err)
		defer func() { _ = sqlDB.Close() }()
		repo := NewSQLiteRepository(sqlDB)

		require.NoError(t, repo.Insert(ctx, newAdmin("a1", "Admin@Clinic.Test")))

		got, err := repo.GetByEmail(ctx, "  admin@clinic.test ")
		require.NoError(t, err)
		require.Equal(t, "a1", got.ID)
		require.False(t, got.MFAEnrolled())
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		sqlDB, err := db.OpenMemory()
		require.NoError(t, err)
		defer func() { _ = sqlDB.Close() }()
		repo := NewSQLiteRepository(sqlDB)

		require.NoError(t, repo.Insert(ctx, newAdmin("a1", "admin@clinic.test")))
		err = repo.Insert(ctx, newAdmin("a2", "admin@clinic.test"))
		require.True(t, db.IsConflict(err))
	})

	t.Run("unknown email is not found", func(t *testing.T) {
		sqlDB, err := db.OpenMemory()
		require.NoError(t, err)
		defer func() { _ = sqlDB.Close() }()
		repo := NewSQLiteRepository(sqlDB)

		_, err = repo.GetByEmail(ctx, "nobody@clinic.test")
		require.True(t, db.IsNotFound(err))
	})

	t.Run("totp secret update", func(t *testing.T) {
		sqlDB, err := db.OpenMemory()
		require.NoError(t, err)
		defer func() { _ = sqlDB.Close() }()
		repo := NewSQLiteRepository(sqlDB)

		require.NoError(t, repo.Insert(ctx, newAdmin("a1", "admin@clinic.test")))
		require.NoError(t, repo.SetTOTPSecret(ctx, "a1", "JBSWY3DPEHPK3PXP"))

		got, err := repo.GetByID(ctx, "a1")
		require.NoError(t, err)
		require.True(t, got.MFAEnrolled())

		require.True(t, db.IsNotFound(repo.SetTOTPSecret(ctx, "missing", "x")))
	})

	t.Run("count", func(t *testing.T) {
		sqlDB, err := db.OpenMemory()
		require.NoError(t, err)
		defer func() { _ = sqlDB.Close() }()
		repo := NewSQLiteRepository(sqlDB)

		n, err := repo.Count(ctx)
		require.NoError(t, err)
		require.Zero(t, n)

		require.NoError(t, repo.Insert(ctx, newAdmin("a1", "one@clinic.test")))
		require.NoError(t, repo.Insert(ctx, newAdmin("a2", "two@clinic.test")))

		n, err = repo.Count(ctx)
		require.NoError(t, err)
		require.Equal(t, 2, n)
	})
}
