package data

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/target/translation-queue/internal/domain/model"
)

// PreviewRepo stores dry-run translation previews.
type PreviewRepo struct {
	DB *sql.DB
}

// NewPreviewRepo creates a new PreviewRepo.
func NewPreviewRepo(db *sql.DB) *PreviewRepo {
	return &PreviewRepo{DB: db}
}

// Save inserts a preview and fills in its id and creation time.
func (r *PreviewRepo) Save(ctx context.Context, p *model.Preview) error {
	if p == nil {
		return fmt.Errorf("save preview: %w", ErrJobIDRequired)
	}
	if err := validateJobID(p.JobID); err != nil {
		return err
	}

	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO translation_previews (
			job_id, object_type, object_id, field, target_lang,
			source_excerpt, translated_excerpt, characters, words, estimated_cost
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`,
		p.JobID, string(p.ObjectType), p.ObjectID, p.Field, p.TargetLang,
		p.SourceExcerpt, p.TranslatedExcerpt, p.Characters, p.Words, p.EstimatedCost,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert preview: %w", err)
	}
	return nil
}

// ListByJob returns the previews of a job, newest first.
func (r *PreviewRepo) ListByJob(ctx context.Context, jobID string, limit int) ([]*model.Preview, error) {
	if err := validateJobID(jobID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, job_id, object_type, object_id, field, target_lang,
		       source_excerpt, translated_excerpt, characters, words, estimated_cost, created_at
		FROM translation_previews
		WHERE job_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, jobID, limit)
	if err != nil {
		return nil, fmt.Errorf("list previews: %w", err)
	}
	defer rows.Close()

	var out []*model.Preview
	for rows.Next() {
		var p model.Preview
		if err := rows.Scan(
			&p.ID, &p.JobID, &p.ObjectType, &p.ObjectID, &p.Field, &p.TargetLang,
			&p.SourceExcerpt, &p.TranslatedExcerpt, &p.Characters, &p.Words, &p.EstimatedCost, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan preview: %w", err)
		}
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate previews: %w", err)
	}
	return out, nil
}
