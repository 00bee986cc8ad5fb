package data

import (
	"database/sql"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/target/translation-queue/internal/domain/model"
	apperrors "github.com/target/translation-queue/internal/errors"
)

var (
	// ErrJobNotFound is returned when a translation job does not exist.
	ErrJobNotFound = apperrors.NotFound("translation job not found")
	// ErrInvalidJobID is returned when a job id is not a UUID.
	ErrInvalidJobID = apperrors.ValidationField("id", "job id must be a UUID")
)

// RepoConfig holds configuration options for the job repository.
type RepoConfig struct {
	Logger       *slog.Logger
	TimeProvider TimeProvider
}

// JobRepo provides database operations for the translation job queue.
type JobRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
	logger       *slog.Logger
}

// NewJobRepo creates a new JobRepo instance with the given database connection and configuration.
func NewJobRepo(db *sql.DB, cfg RepoConfig) *JobRepo {
	tp := cfg.TimeProvider
	if tp == nil {
		tp = &RealTimeProvider{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &JobRepo{
		DB:           db,
		timeProvider: tp,
		logger:       logger.With("component", "job_repo"),
	}
}

const jobColumns = `
  id,
  object_type,
  object_id,
  field,
  hash_source,
  state,
  retries,
  last_error,
  created_at,
  updated_at
`

func validateJobID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrInvalidJobID
	}
	return nil
}

type jobRowScanner interface {
	Scan(dest ...any) error
}

func scanJob(scanner jobRowScanner) (*model.Job, error) {
	var (
		job       model.Job
		lastError sql.NullString
	)
	if err := scanner.Scan(
		&job.ID,
		&job.ObjectType,
		&job.ObjectID,
		&job.Field,
		&job.HashSource,
		&job.State,
		&job.Retries,
		&lastError,
		&job.CreatedAt,
		&job.UpdatedAt,
	); err != nil {
		return nil, err
	}
	job.LastError = cloneNullableString(lastError)
	return &job, nil
}

func cloneNullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

// collectJobFromRows collects a single job from pgx rows.
func collectJobFromRows(rows pgx.Rows) (*model.Job, error) {
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, pgx.ErrNoRows
	}
	job, err := scanJob(rows)
	if err != nil {
		return nil, err
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, rowsErr
	}
	return job, nil
}

// collectJobs collects every job from pgx rows.
func collectJobs(rows pgx.Rows) ([]*model.Job, error) {
	var jobs []*model.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return jobs, nil
}
