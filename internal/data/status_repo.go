package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/target/translation-queue/internal/core"
	"github.com/target/translation-queue/internal/domain/model"
	apperrors "github.com/target/translation-queue/internal/errors"
)

// StatusRepo persists per-field and aggregate translation status of target entities.
type StatusRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewStatusRepo creates a new StatusRepo.
func NewStatusRepo(db *sql.DB, tp TimeProvider) *StatusRepo {
	if tp == nil {
		tp = &RealTimeProvider{}
	}
	return &StatusRepo{DB: db, timeProvider: tp}
}

// SetFieldStatus upserts the sync flag of one field on a target entity.
func (r *StatusRepo) SetFieldStatus(ctx context.Context, params core.SetFieldStatusParams) error {
	if !params.TargetType.Valid() {
		return apperrors.ValidationField("target_type", fmt.Sprintf("unsupported object type: %q", params.TargetType))
	}
	if params.TargetID == "" {
		return ErrTargetIDRequired
	}
	if params.Field == "" {
		return apperrors.ValidationField("field", "field is required")
	}
	if !params.Status.Valid() {
		return apperrors.ValidationField("status", fmt.Sprintf("invalid field status: %q", params.Status))
	}

	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO translation_field_status (target_type, target_id, field, status, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (target_type, target_id, field) DO UPDATE
		SET status = EXCLUDED.status, updated_at = EXCLUDED.updated_at
	`, string(params.TargetType), params.TargetID, params.Field, string(params.Status), r.timeProvider.Now().UTC())
	if err != nil {
		return apperrors.MapDBError(fmt.Errorf("set field status: %w", err))
	}
	return nil
}

// ListFieldStatuses returns the sync flag of every tracked field of a target entity.
func (r *StatusRepo) ListFieldStatuses(
	ctx context.Context,
	targetType model.ObjectType,
	targetID string,
) (map[string]model.FieldStatus, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT field, status
		FROM translation_field_status
		WHERE target_type = $1 AND target_id = $2
	`, string(targetType), targetID)
	if err != nil {
		return nil, fmt.Errorf("list field statuses: %w", err)
	}
	defer rows.Close()

	out := make(map[string]model.FieldStatus)
	for rows.Next() {
		var field, status string
		if err := rows.Scan(&field, &status); err != nil {
			return nil, fmt.Errorf("scan field status: %w", err)
		}
		out[field] = model.FieldStatus(status)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate field statuses: %w", err)
	}
	return out, nil
}

// SetEntityStatus upserts the aggregate status of a target entity.
// A nil LastSyncAt keeps the previously recorded sync time.
func (r *StatusRepo) SetEntityStatus(ctx context.Context, rec model.EntityStatusRecord) error {
	if !rec.TargetType.Valid() {
		return apperrors.ValidationField("target_type", fmt.Sprintf("unsupported object type: %q", rec.TargetType))
	}
	if rec.TargetID == "" {
		return ErrTargetIDRequired
	}
	if !rec.Status.Valid() {
		return apperrors.ValidationField("status", fmt.Sprintf("invalid entity status: %q", rec.Status))
	}

	var lastSync sql.NullTime
	if rec.LastSyncAt != nil {
		lastSync = sql.NullTime{Time: rec.LastSyncAt.UTC(), Valid: true}
	}

	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO translation_entity_status (target_type, target_id, status, last_sync_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (target_type, target_id) DO UPDATE
		SET status = EXCLUDED.status,
		    last_sync_at = COALESCE(EXCLUDED.last_sync_at, translation_entity_status.last_sync_at),
		    updated_at = EXCLUDED.updated_at
	`, string(rec.TargetType), rec.TargetID, string(rec.Status), lastSync, r.timeProvider.Now().UTC())
	if err != nil {
		return apperrors.MapDBError(fmt.Errorf("set entity status: %w", err))
	}
	return nil
}

// GetEntityStatus returns the aggregate status of a target entity.
func (r *StatusRepo) GetEntityStatus(
	ctx context.Context,
	targetType model.ObjectType,
	targetID string,
) (*model.EntityStatusRecord, error) {
	var (
		rec      model.EntityStatusRecord
		status   string
		lastSync sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx, `
		SELECT target_type, target_id, status, last_sync_at, updated_at
		FROM translation_entity_status
		WHERE target_type = $1 AND target_id = $2
	`, string(targetType), targetID).Scan(&rec.TargetType, &rec.TargetID, &status, &lastSync, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEntityStatusNotFound
		}
		return nil, fmt.Errorf("get entity status: %w", err)
	}
	rec.Status = model.EntityStatus(status)
	if lastSync.Valid {
		t := lastSync.Time
		rec.LastSyncAt = &t
	}
	return &rec, nil
}
