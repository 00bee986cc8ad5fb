// Package hoststore is a Postgres-backed content store holding the host's
// entities as JSON documents in the content_entities table.
package hoststore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/target/translation-queue/internal/core"
	"github.com/target/translation-queue/internal/domain/model"
	apperrors "github.com/target/translation-queue/internal/errors"
)

// Options configures a Store.
type Options struct {
	DB *sql.DB
	// LegacyFallback pairs a source with its only registered translation when
	// no translation is tagged with the requested language. Enable it only for
	// sites running a single target language.
	LegacyFallback bool
	Now            func() time.Time
}

// Store implements core.ContentStore.
type Store struct {
	db             *sql.DB
	legacyFallback bool
	now            func() time.Time
}

var _ core.ContentStore = (*Store)(nil)

// New returns a Store.
func New(opts Options) (*Store, error) {
	if opts.DB == nil {
		return nil, errors.New("database is required")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Store{db: opts.DB, legacyFallback: opts.LegacyFallback, now: now}, nil
}

// Record is a full content entity as stored by the host.
type Record struct {
	Entity     model.Entity
	Fields     map[string]any
	Meta       map[string]any
	Taxonomies map[string]map[string]any
}

const entityColumns = `id, object_type, lang, COALESCE(translation_of, '')`

func scanEntity(row interface{ Scan(...any) error }) (*model.Entity, error) {
	var e model.Entity
	if err := row.Scan(&e.ID, &e.Type, &e.Lang, &e.TranslationOf); err != nil {
		return nil, err
	}
	return &e, nil
}

// ResolveEntity loads the entity snapshot of (objectType, objectID).
func (s *Store) ResolveEntity(ctx context.Context, objectType model.ObjectType, objectID string) (*model.Entity, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+entityColumns+`
		FROM content_entities
		WHERE object_type = $1 AND id = $2
	`, string(objectType), objectID)

	e, err := scanEntity(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFoundf("%s %s not found", objectType, objectID)
		}
		return nil, fmt.Errorf("resolve entity: %w", err)
	}
	return e, nil
}

// ResolvePairedEntity finds the translation of source tagged with targetLang.
func (s *Store) ResolvePairedEntity(ctx context.Context, source *model.Entity, targetLang string) (*model.Entity, error) {
	if source == nil {
		return nil, apperrors.Validation("source entity is required")
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+entityColumns+`
		FROM content_entities
		WHERE object_type = $1 AND translation_of = $2 AND lang = $3
		ORDER BY id
		LIMIT 1
	`, string(source.Type), source.ID, targetLang)

	e, err := scanEntity(row)
	switch {
	case err == nil:
		return e, nil
	case !errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("resolve paired entity: %w", err)
	case s.legacyFallback:
		return s.resolveOnlyTranslation(ctx, source, targetLang)
	default:
		return nil, apperrors.NotFoundf("no %s translation of %s %s", targetLang, source.Type, source.ID)
	}
}

// resolveOnlyTranslation returns the single translation of source regardless
// of its language tag. Zero or several candidates is not found.
func (s *Store) resolveOnlyTranslation(ctx context.Context, source *model.Entity, targetLang string) (*model.Entity, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+entityColumns+`
		FROM content_entities
		WHERE object_type = $1 AND translation_of = $2
		ORDER BY id
		LIMIT 2
	`, string(source.Type), source.ID)
	if err != nil {
		return nil, fmt.Errorf("resolve legacy translation: %w", err)
	}
	defer rows.Close()

	var found []*model.Entity
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan legacy translation: %w", err)
		}
		found = append(found, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate legacy translations: %w", err)
	}
	if len(found) != 1 {
		return nil, apperrors.NotFoundf("no %s translation of %s %s", targetLang, source.Type, source.ID)
	}
	return found[0], nil
}

// ReadField returns the decoded JSON value of a field, or nil when it is unset.
func (s *Store) ReadField(ctx context.Context, entity *model.Entity, field model.FieldSpec) (any, error) {
	if entity == nil {
		return nil, apperrors.Validation("entity is required")
	}

	var query string
	args := []any{string(entity.Type), entity.ID}
	switch field.Kind {
	case model.FieldKindPlain:
		query = `SELECT fields -> $3::text FROM content_entities WHERE object_type = $1 AND id = $2`
		args = append(args, field.Name)
	case model.FieldKindMeta:
		query = `SELECT meta -> $3::text FROM content_entities WHERE object_type = $1 AND id = $2`
		args = append(args, field.Name)
	case model.FieldKindTaxonomy:
		query = `SELECT taxonomies -> $3::text -> $4::text FROM content_entities WHERE object_type = $1 AND id = $2`
		args = append(args, field.Taxonomy, field.Name)
	default:
		return nil, apperrors.Validationf("unsupported field kind %q", field.Kind)
	}

	var raw []byte
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFoundf("%s %s not found", entity.Type, entity.ID)
		}
		return nil, fmt.Errorf("read field %s: %w", field, err)
	}
	if raw == nil {
		return nil, nil
	}

	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, fmt.Errorf("decode field %s: %w", field, err)
	}
	return value, nil
}

// WriteField stores a value into the addressed field of an entity.
func (s *Store) WriteField(ctx context.Context, params core.WriteFieldParams) error {
	if params.Entity == nil {
		return apperrors.Validation("entity is required")
	}

	raw, err := json.Marshal(params.Value)
	if err != nil {
		return fmt.Errorf("encode field %s: %w", params.Field, err)
	}

	e := params.Entity
	now := s.now().UTC()
	var res sql.Result
	switch params.Field.Kind {
	case model.FieldKindPlain:
		res, err = s.db.ExecContext(ctx, `
			UPDATE content_entities
			SET fields = fields || jsonb_build_object($3::text, $4::jsonb), updated_at = $5
			WHERE object_type = $1 AND id = $2
		`, string(e.Type), e.ID, params.Field.Name, string(raw), now)
	case model.FieldKindMeta:
		res, err = s.db.ExecContext(ctx, `
			UPDATE content_entities
			SET meta = meta || jsonb_build_object($3::text, $4::jsonb), updated_at = $5
			WHERE object_type = $1 AND id = $2
		`, string(e.Type), e.ID, params.Field.Name, string(raw), now)
	case model.FieldKindTaxonomy:
		res, err = s.db.ExecContext(ctx, `
			UPDATE content_entities
			SET taxonomies = taxonomies || jsonb_build_object(
				$3::text,
				COALESCE(taxonomies -> $3::text, '{}'::jsonb) || jsonb_build_object($4::text, $5::jsonb)
			), updated_at = $6
			WHERE object_type = $1 AND id = $2
		`, string(e.Type), e.ID, params.Field.Taxonomy, params.Field.Name, string(raw), now)
	default:
		return apperrors.Validationf("unsupported field kind %q", params.Field.Kind)
	}
	if err != nil {
		return apperrors.MapDBError(fmt.Errorf("write field %s: %w", params.Field, err))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("write field %s: %w", params.Field, err)
	}
	if n == 0 {
		return apperrors.NotFoundf("%s %s not found", e.Type, e.ID)
	}
	return nil
}

// Put inserts or replaces a whole entity.
func (s *Store) Put(ctx context.Context, rec Record) error {
	if !rec.Entity.Type.Valid() {
		return apperrors.ValidationField("object_type", fmt.Sprintf("unsupported object type: %q", rec.Entity.Type))
	}
	if rec.Entity.ID == "" {
		return apperrors.ValidationField("id", "id is required")
	}

	fields, err := marshalObject(rec.Fields)
	if err != nil {
		return err
	}
	meta, err := marshalObject(rec.Meta)
	if err != nil {
		return err
	}
	taxonomies, err := marshalObject(rec.Taxonomies)
	if err != nil {
		return err
	}

	var translationOf sql.NullString
	if rec.Entity.TranslationOf != "" {
		translationOf = sql.NullString{String: rec.Entity.TranslationOf, Valid: true}
	}

	now := s.now().UTC()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO content_entities (object_type, id, lang, translation_of, fields, meta, taxonomies, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6::jsonb, $7::jsonb, $8, $8)
		ON CONFLICT (object_type, id) DO UPDATE
		SET lang = EXCLUDED.lang,
		    translation_of = EXCLUDED.translation_of,
		    fields = EXCLUDED.fields,
		    meta = EXCLUDED.meta,
		    taxonomies = EXCLUDED.taxonomies,
		    updated_at = EXCLUDED.updated_at
	`, string(rec.Entity.Type), rec.Entity.ID, rec.Entity.Lang, translationOf, fields, meta, taxonomies, now)
	if err != nil {
		return apperrors.MapDBError(fmt.Errorf("put entity: %w", err))
	}
	return nil
}

func marshalObject[V any](m map[string]V) (string, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encode entity document: %w", err)
	}
	return string(raw), nil
}
