package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/fullstackverse/form-gateway/internal/domain"
)

// advisoryLockID scopes the table-level advisory lock serializing writers.
// All gateway processes writing to the submissions table share it.
const advisoryLockID = 874120

const createTableStmt = `
CREATE TABLE IF NOT EXISTS submissions (
	id                  BIGSERIAL PRIMARY KEY,
	submitted_at        TIMESTAMPTZ NOT NULL,
	full_name           TEXT NOT NULL DEFAULT '',
	email               TEXT NOT NULL DEFAULT '',
	contact_number      TEXT NOT NULL DEFAULT '',
	project_description TEXT NOT NULL DEFAULT '',
	budget              TEXT,
	type                TEXT NOT NULL DEFAULT '',
	client_ip           TEXT NOT NULL DEFAULT ''
)`

// SubmissionStore implements domain.SubmissionStore on PostgreSQL. Appends
// are serialized by a transaction-scoped advisory lock with a bounded wait,
// which also makes the lazy table creation safe under concurrent writers.
type SubmissionStore struct {
	db       *sql.DB
	logger   *slog.Logger
	lockWait time.Duration
}

// NewSubmissionStore creates a new PostgreSQL submission store.
func NewSubmissionStore(db *sql.DB, logger *slog.Logger, lockWait time.Duration) *SubmissionStore {
	return &SubmissionStore{
		db:       db,
		logger:   logger.With("component", "postgres_store"),
		lockWait: lockWait,
	}
}

// AppendRow inserts one submission row. A lock wait beyond the configured
// bound surfaces as domain.ErrLockTimeout; unlike the rate limiter, storage
// failures here must be visible to the caller.
func (s *SubmissionStore) AppendRow(ctx context.Context, row domain.StoredRow) error {
	txn, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer txn.Rollback() // Rollback is a no-op once Commit() succeeds

	// lock_timeout bounds the advisory lock wait below.
	if _, err := txn.ExecContext(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.lockWait.Milliseconds())); err != nil {
		return fmt.Errorf("failed to set lock timeout: %w", err)
	}

	if _, err := txn.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", advisoryLockID); err != nil {
		if isLockTimeout(err) {
			s.logger.Error("advisory lock wait timed out", "error", err)
			return fmt.Errorf("%w: %v", domain.ErrLockTimeout, err)
		}
		return fmt.Errorf("failed to take advisory lock: %w", err)
	}

	if _, err := txn.ExecContext(ctx, createTableStmt); err != nil {
		return fmt.Errorf("failed to ensure submissions table: %w", err)
	}

	const insertStmt = `
		INSERT INTO submissions
			(submitted_at, full_name, email, contact_number, project_description, budget, type, client_ip)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err = txn.ExecContext(ctx, insertStmt,
		row.Timestamp,
		row.FullName,
		row.Email,
		row.ContactNumber,
		row.ProjectDescription,
		row.Budget,
		row.Type,
		row.ClientID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert submission row: %w", err)
	}

	return txn.Commit()
}

// lockNotAvailable is the SQLSTATE postgres raises when lock_timeout expires
// while waiting on a lock.
const lockNotAvailable = pq.ErrorCode("55P03")

// isLockTimeout reports whether err is a lock_timeout expiry. Connection
// failures and cancelled contexts are not timeouts and pass through untouched.
func isLockTimeout(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == lockNotAvailable
}
