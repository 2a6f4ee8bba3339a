package enrollment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"depositlink/kit/db"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

type Repository interface {
	RepositoryContract
}

// SQLiteRepository persists enrollments in the service database.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(sqlDB *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: sqlDB}
}

const enrollmentColumns = `id, patient_ref, amount, currency, status, token_hash, token_last4,
policy_ref, crm_module, crm_record_id, gateway_ref, fail_reason,
expires_at, created_at, updated_at,
sent_at, opened_at, processing_at, paid_at, failed_at, expired_at, canceled_at, terms_accepted_at`

func (r *SQLiteRepository) Insert(ctx context.Context, e *Enrollment) error {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO enrollments (`+enrollmentColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.PatientRef, e.Amount, e.Currency, string(e.Status), e.TokenHash, e.TokenLast4,
		e.PolicyRef, e.CRMModule, e.CRMRecordID, e.GatewayRef, e.FailReason,
		toMillis(e.ExpiresAt), toMillis(e.CreatedAt), toMillis(e.UpdatedAt),
		toMillisPtr(e.SentAt), toMillisPtr(e.OpenedAt), toMillisPtr(e.ProcessingAt),
		toMillisPtr(e.PaidAt), toMillisPtr(e.FailedAt), toMillisPtr(e.ExpiredAt),
		toMillisPtr(e.CanceledAt), toMillisPtr(e.TermsAcceptedAt),
	)
	if err != nil {
		log.Printf("layer=repo component=enrollment repo=SQLiteRepository method=Insert enrollment_id=%s err=%v", e.ID, err)
		if isUniqueViolation(err) {
			return db.ErrConflict
		}
		return errors.Join(db.ErrInternal, err)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Enrollment, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+enrollmentColumns+` FROM enrollments WHERE id = ?`, id)
	e, err := scanEnrollment(row)
	if err != nil {
		log.Printf("layer=repo component=enrollment repo=SQLiteRepository method=GetByID enrollment_id=%s err=%v", id, err)
		return nil, err
	}
	return e, nil
}

func (r *SQLiteRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*Enrollment, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+enrollmentColumns+` FROM enrollments WHERE token_hash = ?`, tokenHash)
	e, err := scanEnrollment(row)
	if err != nil {
		log.Printf("layer=repo component=enrollment repo=SQLiteRepository method=GetByTokenHash err=%v", err)
		return nil, err
	}
	return e, nil
}

func (r *SQLiteRepository) Update(ctx context.Context, e *Enrollment) error {
	res, err := r.db.ExecContext(
		ctx,
		`UPDATE enrollments SET
		   patient_ref = ?, amount = ?, currency = ?, status = ?, token_hash = ?, token_last4 = ?,
		   policy_ref = ?, crm_module = ?, crm_record_id = ?, gateway_ref = ?, fail_reason = ?,
		   expires_at = ?, updated_at = ?,
		   sent_at = ?, opened_at = ?, processing_at = ?, paid_at = ?, failed_at = ?,
		   expired_at = ?, canceled_at = ?, terms_accepted_at = ?
		 WHERE id = ?`,
		e.PatientRef, e.Amount, e.Currency, string(e.Status), e.TokenHash, e.TokenLast4,
		e.PolicyRef, e.CRMModule, e.CRMRecordID, e.GatewayRef, e.FailReason,
		toMillis(e.ExpiresAt), toMillis(e.UpdatedAt),
		toMillisPtr(e.SentAt), toMillisPtr(e.OpenedAt), toMillisPtr(e.ProcessingAt),
		toMillisPtr(e.PaidAt), toMillisPtr(e.FailedAt), toMillisPtr(e.ExpiredAt),
		toMillisPtr(e.CanceledAt), toMillisPtr(e.TermsAcceptedAt),
		e.ID,
	)
	if err != nil {
		log.Printf("layer=repo component=enrollment repo=SQLiteRepository method=Update enrollment_id=%s err=%v", e.ID, err)
		if isUniqueViolation(err) {
			return db.ErrConflict
		}
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

// UpdateStatusIf is the optimistic guard behind lazy expiry and the sweeper:
// the write lands only when the stored status is still one of expected.
func (r *SQLiteRepository) UpdateStatusIf(ctx context.Context, e *Enrollment, expected []Status) (bool, error) {
	if len(expected) == 0 {
		return false, db.ErrInvalid
	}
	placeholders := strings.TrimRight(strings.Repeat("?, ", len(expected)), ", ")
	args := []any{
		string(e.Status), e.GatewayRef, e.FailReason, toMillis(e.UpdatedAt),
		toMillisPtr(e.SentAt), toMillisPtr(e.OpenedAt), toMillisPtr(e.ProcessingAt),
		toMillisPtr(e.PaidAt), toMillisPtr(e.FailedAt), toMillisPtr(e.ExpiredAt),
		toMillisPtr(e.CanceledAt), toMillisPtr(e.TermsAcceptedAt),
		e.ID,
	}
	for _, st := range expected {
		args = append(args, string(st))
	}

	res, err := r.db.ExecContext(
		ctx,
		fmt.Sprintf(`UPDATE enrollments SET
		   status = ?, gateway_ref = ?, fail_reason = ?, updated_at = ?,
		   sent_at = ?, opened_at = ?, processing_at = ?, paid_at = ?, failed_at = ?,
		   expired_at = ?, canceled_at = ?, terms_accepted_at = ?
		 WHERE id = ? AND status IN (%s)`, placeholders),
		args...,
	)
	if err != nil {
		log.Printf("layer=repo component=enrollment repo=SQLiteRepository method=UpdateStatusIf enrollment_id=%s err=%v", e.ID, err)
		return false, errors.Join(db.ErrInternal, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Join(db.ErrInternal, err)
	}
	return n > 0, nil
}

func (r *SQLiteRepository) ListOverdue(ctx context.Context, now time.Time, statuses []Status, limit int) ([]*Enrollment, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 100
	}
	placeholders := strings.TrimRight(strings.Repeat("?, ", len(statuses)), ", ")
	args := []any{toMillis(now)}
	for _, st := range statuses {
		args = append(args, string(st))
	}
	args = append(args, limit)

	rows, err := r.db.QueryContext(
		ctx,
		fmt.Sprintf(`SELECT `+enrollmentColumns+` FROM enrollments
		 WHERE expires_at < ? AND status IN (%s)
		 ORDER BY expires_at LIMIT ?`, placeholders),
		args...,
	)
	if err != nil {
		log.Printf("layer=repo component=enrollment repo=SQLiteRepository method=ListOverdue err=%v", err)
		return nil, errors.Join(db.ErrInternal, err)
	}
	defer func() { _ = rows.Close() }()

	var out []*Enrollment
	for rows.Next() {
		e, err := scanEnrollment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(db.ErrInternal, err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEnrollment(row rowScanner) (*Enrollment, error) {
	var e Enrollment
	var status string
	var expiresAt, createdAt, updatedAt int64
	var sentAt, openedAt, processingAt, paidAt, failedAt, expiredAt, canceledAt, termsAt sql.NullInt64

	err := row.Scan(
		&e.ID, &e.PatientRef, &e.Amount, &e.Currency, &status, &e.TokenHash, &e.TokenLast4,
		&e.PolicyRef, &e.CRMModule, &e.CRMRecordID, &e.GatewayRef, &e.FailReason,
		&expiresAt, &createdAt, &updatedAt,
		&sentAt, &openedAt, &processingAt, &paidAt, &failedAt, &expiredAt, &canceledAt, &termsAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, db.ErrNotFound
		}
		return nil, errors.Join(db.ErrInternal, err)
	}

	e.Status = Status(status)
	e.ExpiresAt = fromMillis(expiresAt)
	e.CreatedAt = fromMillis(createdAt)
	e.UpdatedAt = fromMillis(updatedAt)
	e.SentAt = fromMillisPtr(sentAt)
	e.OpenedAt = fromMillisPtr(openedAt)
	e.ProcessingAt = fromMillisPtr(processingAt)
	e.PaidAt = fromMillisPtr(paidAt)
	e.FailedAt = fromMillisPtr(failedAt)
	e.ExpiredAt = fromMillisPtr(expiredAt)
	e.CanceledAt = fromMillisPtr(canceledAt)
	e.TermsAcceptedAt = fromMillisPtr(termsAt)
	return &e, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return false
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func toMillisPtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().UnixMilli()
}

func fromMillis(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}

func fromMillisPtr(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.UnixMilli(v.Int64).UTC()
	return &t
}
