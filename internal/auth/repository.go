package auth

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"strings"
	"time"

	"depositlink/kit/db"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(sqlDB *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: sqlDB}
}

func (r *SQLiteRepository) Insert(ctx context.Context, a *Admin) error {
	_, err := r.db.ExecContext(
		ctx,
		"INSERT INTO admins (id, email, password_hash, totp_secret, created_at) VALUES (?, ?, ?, ?, ?)",
		a.ID, strings.ToLower(a.Email), a.PasswordHash, a.TOTPSecret, a.CreatedAt.UTC().UnixMilli(),
	)
	if err != nil {
		log.Printf("layer=repo component=auth repo=SQLiteRepository method=Insert admin_id=%s err=%v", a.ID, err)
		var sqliteErr *msqlite.Error
		if errors.As(err, &sqliteErr) {
			switch sqliteErr.Code() {
			case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
				return db.ErrConflict
			}
		}
		return errors.Join(db.ErrInternal, err)
	}
	return nil
}

func (r *SQLiteRepository) GetByEmail(ctx context.Context, email string) (*Admin, error) {
	row := r.db.QueryRowContext(
		ctx,
		"SELECT id, email, password_hash, totp_secret, created_at FROM admins WHERE email = ?",
		strings.ToLower(strings.TrimSpace(email)),
	)
	return scanAdmin(row)
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Admin, error) {
	row := r.db.QueryRowContext(
		ctx,
		"SELECT id, email, password_hash, totp_secret, created_at FROM admins WHERE id = ?",
		id,
	)
	return scanAdmin(row)
}

func (r *SQLiteRepository) SetTOTPSecret(ctx context.Context, id, secret string) error {
	res, err := r.db.ExecContext(ctx, "UPDATE admins SET totp_secret = ? WHERE id = ?", secret, id)
	if err != nil {
		log.Printf("layer=repo component=auth repo=SQLiteRepository method=SetTOTPSecret admin_id=%s err=%v", id, err)
		return errors.Join(db.ErrInternal, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Join(db.ErrInternal, err)
	}
	if n == 0 {
		return db.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM admins").Scan(&n); err != nil {
		return 0, errors.Join(db.ErrInternal, err)
	}
	return n, nil
}

func scanAdmin(row *sql.Row) (*Admin, error) {
	var a Admin
	var createdAt int64
	if err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.TOTPSecret, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, db.ErrNotFound
		}
		return nil, errors.Join(db.ErrInternal, err)
	}
	a.CreatedAt = time.UnixMilli(createdAt).UTC()
	return &a, nil
}
