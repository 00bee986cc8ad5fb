package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/target/translation-queue/internal/core"
	"github.com/target/translation-queue/internal/data/pgxutil"
	"github.com/target/translation-queue/internal/domain/model"
	apperrors "github.com/target/translation-queue/internal/errors"
)

// enqueueUpsertSQL inserts a job or refreshes the existing row for the triple.
// A row that is done with an unchanged hash is left untouched and no row is returned.
const enqueueUpsertSQL = `
  INSERT INTO translation_jobs (object_type, object_id, field, hash_source, state, retries, created_at, updated_at)
  VALUES ($1, $2, $3, $4, 'pending', 0, $5, $5)
  ON CONFLICT ON CONSTRAINT translation_jobs_triple_key DO UPDATE
  SET
    hash_source = EXCLUDED.hash_source,
    state = 'pending',
    retries = 0,
    last_error = NULL,
    updated_at = EXCLUDED.updated_at
  WHERE translation_jobs.hash_source <> EXCLUDED.hash_source
     OR translation_jobs.state <> 'done'
  RETURNING ` + jobColumns

const selectByTripleSQL = `
  SELECT ` + jobColumns + `
  FROM translation_jobs
  WHERE object_type = $1 AND object_id = $2 AND field = $3`

// Enqueue inserts a job for the (object type, object id, field) triple or resets
// the existing one. A done job whose hash is unchanged is returned as is.
func (r *JobRepo) Enqueue(ctx context.Context, req model.EnqueueRequest) (*model.Job, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid enqueue request")
	}

	now := r.timeProvider.Now().UTC()
	var job *model.Job
	err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{
		Opts: &sql.TxOptions{Isolation: sql.LevelReadCommitted},
		Fn: func(tx pgx.Tx) error {
			rows, err := tx.Query(ctx, enqueueUpsertSQL, req.ObjectType, req.ObjectID, req.Field, req.HashSource, now)
			if err != nil {
				return fmt.Errorf("upsert translation job: %w", err)
			}
			job, err = collectJobFromRows(rows)
			rows.Close()
			if err == nil {
				return nil
			}
			if !errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("collect upserted job: %w", err)
			}

			// Unchanged and done: read back the existing row.
			rows, err = tx.Query(ctx, selectByTripleSQL, req.ObjectType, req.ObjectID, req.Field)
			if err != nil {
				return fmt.Errorf("select existing job: %w", err)
			}
			job, err = collectJobFromRows(rows)
			rows.Close()
			if err != nil {
				return fmt.Errorf("collect existing job: %w", err)
			}
			return nil
		},
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return job, nil
}

// GetByID returns a job by id.
func (r *JobRepo) GetByID(ctx context.Context, id string) (*model.Job, error) {
	if err := validateJobID(id); err != nil {
		return nil, err
	}

	row := r.DB.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM translation_jobs WHERE id = $1`, id)
	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("get translation job: %w", err)
	}
	return job, nil
}

// UpdateState moves a job to the given state.
//
// pending and done reset retries and clear last_error; error increments
// retries. A non-empty Error is stored as last_error, otherwise the previous
// value is kept (except on pending and done). Returns false when no job
// matched the id, or when ExpectedState is set and the job has left it.
func (r *JobRepo) UpdateState(ctx context.Context, params core.UpdateJobStateParams) (bool, error) {
	if err := validateJobID(params.ID); err != nil {
		return false, err
	}
	if !params.State.Valid() {
		return false, apperrors.ValidationField("state", fmt.Sprintf("invalid job state: %q", params.State))
	}

	var expected sql.NullString
	if params.ExpectedState != "" {
		if !params.ExpectedState.Valid() {
			return false, apperrors.ValidationField("expected_state", fmt.Sprintf("invalid job state: %q", params.ExpectedState))
		}
		expected = sql.NullString{String: string(params.ExpectedState), Valid: true}
	}

	var errMsg sql.NullString
	if params.Error != "" {
		errMsg = sql.NullString{String: params.Error, Valid: true}
	}

	res, err := r.DB.ExecContext(ctx, `
		UPDATE translation_jobs
		SET
			state = $2,
			retries = CASE
				WHEN $2 IN ('pending', 'done') THEN 0
				WHEN $2 = 'error' THEN retries + 1
				ELSE retries
			END,
			last_error = CASE
				WHEN $3::text IS NOT NULL THEN $3::text
				WHEN $2 IN ('pending', 'done') THEN NULL
				ELSE last_error
			END,
			updated_at = $4
		WHERE id = $1 AND ($5::text IS NULL OR state = $5::text)
	`, params.ID, string(params.State), errMsg, r.timeProvider.Now().UTC(), expected)
	if err != nil {
		return false, apperrors.MapDBError(fmt.Errorf("update job state: %w", err))
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// RevertToPending returns claimed jobs to pending without touching retries.
// Jobs that are no longer translating are left alone.
func (r *JobRepo) RevertToPending(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	for _, id := range ids {
		if err := validateJobID(id); err != nil {
			return 0, err
		}
	}

	res, err := r.DB.ExecContext(ctx, `
		UPDATE translation_jobs
		SET state = 'pending', updated_at = $2
		WHERE id = ANY($1::uuid[]) AND state = 'translating'
	`, ids, r.timeProvider.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("revert jobs to pending: %w", err)
	}
	return res.RowsAffected()
}

// MarkOutdated flags every job of an entity as outdated.
func (r *JobRepo) MarkOutdated(ctx context.Context, objectType model.ObjectType, objectID string) (int64, error) {
	if !objectType.Valid() {
		return 0, apperrors.ValidationField("object_type", fmt.Sprintf("unsupported object type: %q", objectType))
	}
	if objectID == "" {
		return 0, apperrors.ValidationField("object_id", "object id is required")
	}

	res, err := r.DB.ExecContext(ctx, `
		UPDATE translation_jobs
		SET state = 'outdated', updated_at = $3
		WHERE object_type = $1 AND object_id = $2
	`, string(objectType), objectID, r.timeProvider.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("mark jobs outdated: %w", err)
	}
	return res.RowsAffected()
}

const (
	defaultListLimit = 50
	maxListLimit     = 1000
)

// GetByState lists jobs in any of the given states, most recently updated first.
func (r *JobRepo) GetByState(ctx context.Context, states []model.JobState, limit int) ([]*model.Job, error) {
	names, err := stateNames(states)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	var result []*model.Job
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT `+jobColumns+`
			FROM translation_jobs
			WHERE state = ANY($1)
			ORDER BY updated_at DESC, id DESC
			LIMIT $2
		`, names, limit)
		if err != nil {
			return fmt.Errorf("query jobs by state: %w", err)
		}
		defer rows.Close()

		result, err = collectJobs(rows)
		if err != nil {
			return fmt.Errorf("collect jobs by state: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return result, nil
}

func stateNames(states []model.JobState) ([]string, error) {
	if len(states) == 0 {
		return nil, apperrors.ValidationField("states", "at least one job state is required")
	}
	names := make([]string, 0, len(states))
	for _, st := range states {
		if !st.Valid() {
			return nil, apperrors.ValidationField("states", fmt.Sprintf("invalid job state: %q", st))
		}
		names = append(names, string(st))
	}
	return names, nil
}
