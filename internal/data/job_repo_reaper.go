package data

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/target/translation-queue/internal/core"
	"github.com/target/translation-queue/internal/data/pgxutil"
	apperrors "github.com/target/translation-queue/internal/errors"
)

// Advisory lock namespace for maintenance sweeps.
// Major key 2000 is reserved for translation queue maintenance.
const advisoryLockMaintenanceMajor = 2000

var (
	lockRequeueFailed  = pgxutil.AdvisoryLockKey{Major: advisoryLockMaintenanceMajor, Minor: 1}
	lockResyncOutdated = pgxutil.AdvisoryLockKey{Major: advisoryLockMaintenanceMajor, Minor: 2}
	lockDeleteOld      = pgxutil.AdvisoryLockKey{Major: advisoryLockMaintenanceMajor, Minor: 3}
)

// RequeueFailed moves error jobs whose retries are below MaxRetries back to
// pending, oldest first. Retries are kept so the ceiling still applies on the
// next failure; last_error is cleared.
func (r *JobRepo) RequeueFailed(ctx context.Context, params core.RequeueFailedParams) (int64, error) {
	if params.MaxRetries <= 0 {
		return 0, apperrors.ValidationField("max_retries", "max retries must be greater than zero")
	}
	limit := params.Limit
	if limit <= 0 {
		limit = maxListLimit
	}

	return r.execLocked(ctx, lockRequeueFailed, func(tx *sql.Tx) (sql.Result, error) {
		return tx.ExecContext(ctx, `
			UPDATE translation_jobs
			SET state = 'pending', last_error = NULL, updated_at = $3
			WHERE id IN (
				SELECT id FROM translation_jobs
				WHERE state = 'error' AND retries < $1
				ORDER BY updated_at ASC, id ASC
				LIMIT $2
				FOR UPDATE SKIP LOCKED
			)
		`, params.MaxRetries, limit, r.timeProvider.Now().UTC())
	})
}

// ResyncOutdated moves outdated jobs back to pending with a clean retry count.
func (r *JobRepo) ResyncOutdated(ctx context.Context, limit int) (int64, error) {
	if limit <= 0 {
		limit = maxListLimit
	}

	return r.execLocked(ctx, lockResyncOutdated, func(tx *sql.Tx) (sql.Result, error) {
		return tx.ExecContext(ctx, `
			UPDATE translation_jobs
			SET state = 'pending', retries = 0, last_error = NULL, updated_at = $2
			WHERE id IN (
				SELECT id FROM translation_jobs
				WHERE state = 'outdated'
				ORDER BY updated_at ASC, id ASC
				LIMIT $1
				FOR UPDATE SKIP LOCKED
			)
		`, limit, r.timeProvider.Now().UTC())
	})
}

// DeleteOlderThan deletes up to BatchSize jobs in the given states whose last
// update is older than MaxAge. Callers loop until fewer than BatchSize rows
// are removed.
func (r *JobRepo) DeleteOlderThan(ctx context.Context, params core.DeleteOldJobsParams) (int64, error) {
	names, err := stateNames(params.States)
	if err != nil {
		return 0, err
	}
	if params.BatchSize <= 0 {
		return 0, apperrors.ValidationField("batch_size", "batch size must be greater than zero")
	}
	if params.MaxAge <= 0 {
		return 0, apperrors.ValidationField("max_age", "max age must be greater than zero")
	}

	cutoff := r.timeProvider.Now().Add(-params.MaxAge).UTC()
	return r.execLocked(ctx, lockDeleteOld, func(tx *sql.Tx) (sql.Result, error) {
		return tx.ExecContext(ctx, `
			DELETE FROM translation_jobs
			WHERE id IN (
				SELECT id FROM translation_jobs
				WHERE state = ANY($1) AND updated_at < $2
				ORDER BY updated_at
				LIMIT $3
			)
		`, names, cutoff, params.BatchSize)
	})
}

// execLocked runs a single statement under a maintenance advisory lock.
// When another instance holds the lock nothing is done and zero is returned.
func (r *JobRepo) execLocked(
	ctx context.Context,
	key pgxutil.AdvisoryLockKey,
	exec func(*sql.Tx) (sql.Result, error),
) (int64, error) {
	var rowsAffected int64
	err := pgxutil.WithSQLTx(ctx, r.DB, pgxutil.SQLTxConfig{
		Fn: func(tx *sql.Tx) error {
			locked, err := pgxutil.TryAdvisoryXactLock(ctx, tx, key)
			if err != nil {
				return err
			}
			if !locked {
				r.logger.DebugContext(ctx, "maintenance lock held elsewhere", "lock_minor", key.Minor)
				return nil
			}

			res, err := exec(tx)
			if err != nil {
				return fmt.Errorf("maintenance sweep: %w", err)
			}
			ra, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("rows affected: %w", err)
			}
			rowsAffected = ra
			return nil
		},
	})
	if err != nil {
		return 0, err
	}
	return rowsAffected, nil
}
