package core

import (
	"context"
	"regexp"
	"time"

	"github.com/target/translation-queue/internal/domain/diff"
	"github.com/target/translation-queue/internal/domain/model"
)

// This file contains the ports of the translation queue. Services depend on
// these interfaces; internal/data and internal/adapters provide implementations.

// JobRepository is the durable translation job store.
type JobRepository interface {
	// Enqueue inserts a job or refreshes the existing job for the same
	// (object type, object id, field) triple.
	Enqueue(ctx context.Context, req model.EnqueueRequest) (*model.Job, error)
	GetByID(ctx context.Context, id string) (*model.Job, error)
	// Claim atomically moves up to Limit eligible jobs to translating.
	Claim(ctx context.Context, params ClaimJobsParams) ([]*model.Job, error)
	UpdateState(ctx context.Context, params UpdateJobStateParams) (bool, error)
	// RevertToPending returns claimed jobs to pending without touching retries.
	RevertToPending(ctx context.Context, ids []string) (int64, error)
	// GetByState lists jobs most recently updated first.
	GetByState(ctx context.Context, states []model.JobState, limit int) ([]*model.Job, error)
	MarkOutdated(ctx context.Context, objectType model.ObjectType, objectID string) (int64, error)
	CountByState(ctx context.Context) (model.StateCounts, error)
	// CountOutstanding counts pending, translating and outdated jobs of one entity.
	CountOutstanding(ctx context.Context, objectType model.ObjectType, objectID string) (int, error)
	RequeueFailed(ctx context.Context, params RequeueFailedParams) (int64, error)
	ResyncOutdated(ctx context.Context, limit int) (int64, error)
	DeleteOlderThan(ctx context.Context, params DeleteOldJobsParams) (int64, error)
}

// ClaimJobsParams groups parameters for JobRepository.Claim.
type ClaimJobsParams struct {
	Limit    int
	Priority model.FieldPriority
}

// UpdateJobStateParams groups parameters for JobRepository.UpdateState.
type UpdateJobStateParams struct {
	ID    string
	State model.JobState
	// Error is stored as last_error when non-empty.
	Error string
	// ExpectedState, when set, only updates a job still in that state.
	ExpectedState model.JobState
}

// RequeueFailedParams groups parameters for JobRepository.RequeueFailed.
type RequeueFailedParams struct {
	MaxRetries int
	Limit      int
}

// DeleteOldJobsParams groups parameters for JobRepository.DeleteOlderThan.
type DeleteOldJobsParams struct {
	States    []model.JobState
	MaxAge    time.Duration
	BatchSize int
}

// RunLock is the advisory lock that keeps processor runs from overlapping.
type RunLock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
	IsLocked(ctx context.Context) (bool, error)
	// ForceRelease clears a stuck lock regardless of owner.
	ForceRelease(ctx context.Context) error
}

// StatusRepository stores per-field and per-entity translation status of targets.
type StatusRepository interface {
	SetFieldStatus(ctx context.Context, params SetFieldStatusParams) error
	ListFieldStatuses(ctx context.Context, targetType model.ObjectType, targetID string) (map[string]model.FieldStatus, error)
	SetEntityStatus(ctx context.Context, rec model.EntityStatusRecord) error
	GetEntityStatus(ctx context.Context, targetType model.ObjectType, targetID string) (*model.EntityStatusRecord, error)
}

// SetFieldStatusParams groups parameters for StatusRepository.SetFieldStatus.
type SetFieldStatusParams struct {
	TargetType model.ObjectType
	TargetID   string
	Field      string
	Status     model.FieldStatus
}

// PreviewRepository stores dry-run artifacts.
type PreviewRepository interface {
	Save(ctx context.Context, preview *model.Preview) error
	ListByJob(ctx context.Context, jobID string, limit int) ([]*model.Preview, error)
}

// ContentStore is the host system's entity storage.
type ContentStore interface {
	ResolveEntity(ctx context.Context, objectType model.ObjectType, objectID string) (*model.Entity, error)
	// ResolvePairedEntity finds the translation of source in targetLang.
	ResolvePairedEntity(ctx context.Context, source *model.Entity, targetLang string) (*model.Entity, error)
	ReadField(ctx context.Context, entity *model.Entity, field model.FieldSpec) (any, error)
	WriteField(ctx context.Context, params WriteFieldParams) error
}

// WriteFieldParams groups parameters for ContentStore.WriteField.
type WriteFieldParams struct {
	Entity *model.Entity
	Field  model.FieldSpec
	Value  any
}

// Translator is the remote translation provider.
type Translator interface {
	Translate(ctx context.Context, req TranslateRequest) (string, error)
}

// TranslateRequest is one provider call.
type TranslateRequest struct {
	Text       string
	SourceLang string
	TargetLang string
	Domain     string
}

// DiffEngine isolates the changed parts of a string and rebuilds it.
type DiffEngine interface {
	CalculateDiff(source, target string, opts diff.Options) diff.Result
	Rebuild(res diff.Result, translations []string) (string, error)
	PrepareForProvider(text string, patterns []*regexp.Regexp) (string, diff.Placeholders)
	RestorePlaceholders(text string, placeholders diff.Placeholders) string
}

// EventPublisher fans translated events out to listeners.
type EventPublisher interface {
	Publish(ctx context.Context, evt model.TranslatedEvent) error
}

// EventListener reacts to a field translation being persisted.
type EventListener interface {
	HandleTranslated(ctx context.Context, evt model.TranslatedEvent) error
}
